// Package candidate derives the transitive dependencies a resolved
// wheel induces, given the set of extras it was selected with.
package candidate

import (
	"context"
	"fmt"
	"sort"

	"github.com/FFY00/python-resolver/archive"
	"github.com/FFY00/python-resolver/requirement"
	"github.com/FFY00/python-resolver/tag"
	"github.com/FFY00/python-resolver/version"
)

// Key identifies a candidate (or the requirement it satisfies) by its
// canonical distribution name plus the set of extras selected on it.
// Extras participate in equality; Go's comparable-struct map keys give
// this for free once the extras are folded into a single sorted
// string rather than carried as a slice.
type Key struct {
	Name   string
	Extras string // extras, sorted and comma-joined; "" means none
}

// NewKey builds a Key from a canonical name and an unsorted extras
// set, normalizing the extras into the key's canonical form.
func NewKey(name string, extras []string) Key {
	return Key{Name: name, Extras: joinExtras(extras)}
}

func joinExtras(extras []string) string {
	if len(extras) == 0 {
		return ""
	}
	sorted := append([]string(nil), extras...)
	sort.Strings(sorted)
	out := sorted[0]
	for _, e := range sorted[1:] {
		out += "," + e
	}
	return out
}

func (k Key) String() string {
	if k.Extras == "" {
		return k.Name
	}
	return fmt.Sprintf("%s[%s]", k.Name, k.Extras)
}

// Candidate binds a canonical name, version, and the extras it was
// selected with to the archive backing it. Its dependencies are
// derived lazily from the archive's metadata, never eagerly, since
// deriving them requires downloading the wheel.
type Candidate struct {
	Name    string
	Version version.Version
	Extras  []string
	Archive *archive.Archive
}

// New binds an archive to the set of extras a caller wants satisfied
// on it. The archive's filename has already been parsed, so name and
// version are free of I/O; the archive only downloads when its Path or
// Metadata is requested.
func New(a *archive.Archive, extras []string) Candidate {
	return Candidate{
		Name:    a.Name(),
		Version: a.Version(),
		Extras:  extras,
		Archive: a,
	}
}

// Key is this candidate's resolver identity.
func (c Candidate) Key() Key {
	return NewKey(c.Name, c.Extras)
}

// Valid reports whether c may be offered to the resolver at all: every
// extra it claims to satisfy must be advertised by the wheel's
// Provides-Extra, and at least one of the wheel's tags must intersect
// the caller's supported set. The tag check uses the filename's tags
// alone; the extras check requires the wheel's metadata (and so a
// download), which is why Valid is only ever applied when the resolver
// actually consumes this candidate from an iterator — never during
// enumeration.
func (c Candidate) Valid(ctx context.Context, supported tag.Supported) (bool, error) {
	if !tag.CompatibleAny(c.Archive.Tags(), supported) {
		return false, nil
	}

	if len(c.Extras) == 0 {
		return true, nil
	}

	md, err := c.Archive.Metadata(ctx)
	if err != nil {
		return false, err
	}

	provided := make(map[string]bool, len(md.ProvidesExtra))
	for _, e := range md.ProvidesExtra {
		provided[requirement.CanonicalName(e)] = true
	}
	for _, e := range c.Extras {
		if !provided[requirement.CanonicalName(e)] {
			return false, nil
		}
	}
	return true, nil
}

// Dependencies derives the set of Requirements induced by this
// candidate, per the extras-decomposition rule: an extras-bearing
// candidate gains a synthetic strict self-dependency pinning the
// plain identity to the exact same version, and each of the wheel's
// Requires-Dist entries is included according to whether its marker
// (if any) is satisfied.
//
// An unmarked entry belongs to the base package and is only included
// when this candidate carries no extras at all — otherwise it would
// be pulled in twice, once under the plain identity via the self-edge
// and once here. A marked entry is evaluated against extra="" for the
// base install; for an extras-bearing candidate it is included only
// when at least one selected extra satisfies the marker AND extra=""
// does not — a marker true regardless of the extra reaches this
// candidate through the self-dependency edge instead, so including it
// here too would duplicate it.
func (c Candidate) Dependencies(ctx context.Context, env requirement.Env) ([]requirement.Requirement, error) {
	md, err := c.Archive.Metadata(ctx)
	if err != nil {
		return nil, err
	}

	var deps []requirement.Requirement

	if len(c.Extras) > 0 {
		self, err := requirement.Parse(fmt.Sprintf("%s==%s", c.Name, c.Version.String()))
		if err != nil {
			return nil, fmt.Errorf("building self-dependency for %s: %w", c.Name, err)
		}
		deps = append(deps, self)
	}

	for _, raw := range md.RequiresDist {
		req, err := requirement.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing Requires-Dist %q of %s: %w", raw, c.Name, err)
		}

		if req.Marker == nil {
			if len(c.Extras) == 0 {
				deps = append(deps, req)
			}
			continue
		}

		if len(c.Extras) == 0 {
			// The base install: the marker is evaluated once, with no
			// extra selected.
			ok, err := requirement.Evaluate(req.Marker, env, "")
			if err != nil {
				return nil, err
			}
			if ok {
				deps = append(deps, req)
			}
			continue
		}

		base, err := requirement.Evaluate(req.Marker, env, "")
		if err != nil {
			return nil, err
		}
		if base {
			// Would be in force under the base install too, so it
			// already reaches this candidate via the self-dependency
			// edge to the plain identity; including it here as well
			// would pull it in twice.
			continue
		}

		include := false
		for _, extra := range c.Extras {
			ok, err := requirement.Evaluate(req.Marker, env, extra)
			if err != nil {
				return nil, err
			}
			if ok {
				include = true
				break
			}
		}
		if include {
			deps = append(deps, req)
		}
	}

	return deps, nil
}
