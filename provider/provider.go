// Package provider adapts the index, archive cache, and candidate
// derivation into the narrow contract the backtracking resolver
// consumes: identify, is_satisfied_by, find_matches, get_dependencies,
// get_preference.
package provider

import (
	"context"
	"sort"

	"github.com/FFY00/python-resolver/archive"
	"github.com/FFY00/python-resolver/candidate"
	"github.com/FFY00/python-resolver/index"
	"github.com/FFY00/python-resolver/requirement"
	"github.com/FFY00/python-resolver/tag"
	"github.com/FFY00/python-resolver/version"
)

// Ordering selects how Provider sorts candidates of equal identity
// before offering them to the resolver.
type Ordering int

const (
	// Highest offers the newest version first (the default: a normal
	// resolve wants the latest usable release).
	Highest Ordering = iota
	// Lowest offers the oldest version first, used to verify that a
	// package's declared lower bounds are themselves installable.
	Lowest
)

// Index abstracts the simple-repository client so tests can substitute
// an httptest-backed or in-memory fake; *index.Client satisfies it.
type Index interface {
	ProjectPage(ctx context.Context, name string) ([]index.Link, error)
}

// Provider implements the resolver-facing adapter over one index
// client and archive cache.
type Provider struct {
	Index        Index
	Cache        *archive.Cache
	Supported    tag.Supported
	PythonVersion version.Version
	Ordering     Ordering
	Env          requirement.Env
}

// Identify returns the resolver identity of a requirement: its
// canonical name plus the extras it names.
func (p *Provider) Identify(r requirement.Requirement) candidate.Key {
	return candidate.NewKey(requirement.CanonicalName(r.Name), r.Extras)
}

// IsSatisfiedBy reports whether c may stand in for r: the names must
// already match by construction of the criteria table, r's extras
// must be a subset of c's, and c's version must lie in r's specifier.
func IsSatisfiedBy(r requirement.Requirement, c candidate.Candidate) bool {
	if requirement.CanonicalName(r.Name) != c.Name {
		return false
	}
	want := make(map[string]bool, len(r.Extras))
	for _, e := range r.Extras {
		want[requirement.CanonicalName(e)] = true
	}
	have := make(map[string]bool, len(c.Extras))
	for _, e := range c.Extras {
		have[requirement.CanonicalName(e)] = true
	}
	for e := range want {
		if !have[e] {
			return false
		}
	}
	if r.Specifier == nil {
		return true
	}
	return r.Specifier.Contains(c.Version)
}

// FindMatches enumerates every still-viable candidate for key,
// fetching the index page for its name, filtering by Requires-Python,
// dropping versions already recorded as incompatible, dropping
// candidates that fail any caller requirement's specifier, and
// sorting per Ordering. Tag and extras-provision validity is checked
// lazily by the resolver as it consumes the returned sequence, since
// that check requires downloading the wheel.
func (p *Provider) FindMatches(ctx context.Context, key candidate.Key, requirements []requirement.Requirement, incompatible map[string]bool) ([]candidate.Candidate, error) {
	links, err := p.Index.ProjectPage(ctx, key.Name)
	if err != nil {
		return nil, err
	}

	extras := extrasFromKey(key)

	var out []candidate.Candidate
	for _, link := range links {
		if link.RequiresPython != "" {
			spec, err := version.ParseSpecifier(link.RequiresPython)
			if err == nil && !spec.Contains(p.PythonVersion) {
				continue
			}
		}

		a, err := archive.New(p.Cache, link.URL, link.Filename)
		if err != nil {
			// invalid_wheel_name / invalid_version: skip silently.
			continue
		}
		if a.Name() != key.Name {
			continue
		}
		if incompatible[a.Version().String()] {
			continue
		}

		c := candidate.New(a, extras)

		ok := true
		for _, r := range requirements {
			if !IsSatisfiedBy(r, c) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		cmp := version.Compare(out[i].Version, out[j].Version)
		if p.Ordering == Lowest {
			return cmp < 0
		}
		return cmp > 0
	})

	return out, nil
}

// GetDependencies derives the requirements a pinned candidate induces.
func (p *Provider) GetDependencies(ctx context.Context, c candidate.Candidate) ([]requirement.Requirement, error) {
	return c.Dependencies(ctx, p.Env)
}

// Valid checks a candidate's tag compatibility and extras provision;
// the extras check requires the wheel's own metadata, so neither is
// applied until the resolver actually inspects this candidate.
func (p *Provider) Valid(ctx context.Context, c candidate.Candidate) (bool, error) {
	return c.Valid(ctx, p.Supported)
}

// GetPreference ranks an unsatisfied key by how constrained its search
// already is: the resolver works the lowest-ranked key first, so the
// identity with the fewest remaining candidates — and so the most
// likely to conflict — is tried (and, on failure, backtracked) as
// early as possible.
func (p *Provider) GetPreference(key candidate.Key, remainingCandidates int) int {
	return remainingCandidates
}

func extrasFromKey(k candidate.Key) []string {
	if k.Extras == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(k.Extras); i++ {
		if i == len(k.Extras) || k.Extras[i] == ',' {
			out = append(out, k.Extras[start:i])
			start = i + 1
		}
	}
	return out
}
