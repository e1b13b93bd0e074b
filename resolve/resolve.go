// Package resolve implements the backtracking search that pins one
// candidate per resolver identity, honouring every requirement that
// contributed that identity's criteria.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/datawire/dlib/dlog"

	"github.com/FFY00/python-resolver/candidate"
	"github.com/FFY00/python-resolver/requirement"
)

// Root is the distinguished graph node representing the user's
// top-level requirements; it is never a resolver identity itself.
var Root = candidate.Key{Name: ""}

// MaxRounds bounds the number of resolution rounds before the search
// gives up and reports ResolutionTooDeepError, protecting against
// pathological or cyclic inputs.
const MaxRounds = 256

// RequirementInfo pairs a requirement with the candidate that induced
// it; Parent is nil for a top-level, user-supplied requirement.
type RequirementInfo struct {
	Requirement requirement.Requirement
	Parent      *candidate.Candidate
}

// Provider is the narrow resolver-facing contract a concrete adapter
// (see package provider) must satisfy.
type Provider interface {
	Identify(r requirement.Requirement) candidate.Key
	FindMatches(ctx context.Context, key candidate.Key, requirements []requirement.Requirement, incompatible map[string]bool) ([]candidate.Candidate, error)
	GetDependencies(ctx context.Context, c candidate.Candidate) ([]requirement.Requirement, error)
	// Valid applies the tag-compatibility and extras-provision checks;
	// the extras check needs the candidate's own wheel metadata, so
	// both are deferred until the resolver actually inspects this
	// candidate, never applied during enumeration.
	Valid(ctx context.Context, c candidate.Candidate) (bool, error)
	// GetPreference ranks key among the other currently-unsatisfied
	// keys; the resolver works the lowest-ranked key first.
	GetPreference(key candidate.Key, remainingCandidates int) int
}

type criterion struct {
	key          candidate.Key
	requirements []RequirementInfo
	candidates   []candidate.Candidate // remaining, not-yet-tried
	fetched      bool                  // candidates has been populated at least once
	incompatible map[string]bool       // version strings ruled out
}

// Graph is the resolved dependency graph: edges point from dependent
// keys to the keys they require. Root requirements originate from the
// zero-value Key.
type Graph struct {
	Edges map[candidate.Key][]candidate.Key
}

// Conflict describes one resolver identity the search could not pin
// consistently, together with every requirement chain that
// contributed to it.
type Conflict struct {
	Key          candidate.Key
	Requirements []RequirementInfo
}

// ResolutionImpossibleError reports every criterion the search could
// not satisfy, rendered as a chain back to the requirement's parent in
// the style of a module build-list error.
type ResolutionImpossibleError struct {
	Conflicts []Conflict
}

func (e *ResolutionImpossibleError) Error() string {
	var b strings.Builder
	b.WriteString("resolution impossible:\n")
	for _, c := range e.Conflicts {
		fmt.Fprintf(&b, "  %s is required by:\n", c.Key)
		for _, ri := range c.Requirements {
			if ri.Parent == nil {
				fmt.Fprintf(&b, "    %s (root)\n", ri.Requirement.Name)
			} else {
				fmt.Fprintf(&b, "    %s requires %s\n", ri.Parent.Key(), ri.Requirement.Name)
			}
		}
	}
	return b.String()
}

// ResolutionTooDeepError is returned when the round cap is exceeded.
type ResolutionTooDeepError struct {
	Rounds int
}

func (e *ResolutionTooDeepError) Error() string {
	return fmt.Sprintf("resolution exceeded %d rounds without converging", e.Rounds)
}

// choosePreferred picks which of the given (already unsatisfied) keys
// the next round should work on, via the provider's GetPreference.
// keys is walked in insertion order so ties break deterministically
// rather than on Go's randomized map iteration.
func choosePreferred(p Provider, keys []candidate.Key, criteria map[candidate.Key]*criterion) candidate.Key {
	best := keys[0]
	bestScore := p.GetPreference(best, len(criteria[best].candidates))
	for _, key := range keys[1:] {
		score := p.GetPreference(key, len(criteria[key].candidates))
		if score < bestScore {
			best = key
			bestScore = score
		}
	}
	return best
}

// Resolve runs the backtracking search over the given top-level
// requirements, returning a pin per resolver identity and the
// dependency graph connecting them.
func Resolve(ctx context.Context, p Provider, topLevel []requirement.Requirement) (map[candidate.Key]candidate.Candidate, *Graph, error) {
	criteria := make(map[candidate.Key]*criterion)
	pins := make(map[candidate.Key]candidate.Candidate)
	graph := &Graph{Edges: make(map[candidate.Key][]candidate.Key)}

	var order []candidate.Key // insertion order, for deterministic iteration

	addRequirement := func(req requirement.Requirement, parent *candidate.Candidate) error {
		key := p.Identify(req)
		c, ok := criteria[key]
		if !ok {
			c = &criterion{key: key, incompatible: map[string]bool{}}
			criteria[key] = c
			order = append(order, key)
		}
		c.requirements = append(c.requirements, RequirementInfo{Requirement: req, Parent: parent})
		return nil
	}

	var rootEdges []candidate.Key
	for _, r := range topLevel {
		if err := addRequirement(r, nil); err != nil {
			return nil, nil, err
		}
		rootEdges = append(rootEdges, p.Identify(r))
	}
	graph.Edges[Root] = rootEdges

	var backtrackLog []candidate.Key // order pins were made, for backtracking

	for round := 0; ; round++ {
		if round >= MaxRounds {
			return nil, nil, &ResolutionTooDeepError{Rounds: round}
		}

		next, done, err := nextUnpinned(ctx, p, criteria, pins, order)
		if err != nil {
			return nil, nil, err
		}
		if done {
			dlog.Infof(ctx, "resolve: converged after %d round(s)", round)
			return pins, graph, nil
		}

		c := criteria[next]

		// next may already be pinned here: its pin was made under a
		// smaller requirement set and a later-discovered requirement
		// invalidated it (see pinSatisfies). Retry with the candidates
		// still remaining in c, rather than leaving the stale, now
		// inconsistent pin in place.
		if stale, wasPinned := pins[next]; wasPinned {
			delete(pins, next)
			backtrackLog = removeFromLog(backtrackLog, next)
			c.incompatible[stale.Version.String()] = true
			dlog.Warnf(ctx, "resolve: round %d: %s's pin %s no longer satisfies all of its requirements, retrying", round, next, stale.Version)
		}

		pinned := false

		for len(c.candidates) > 0 {
			cand := c.candidates[0]
			c.candidates = c.candidates[1:]

			satisfied := true
			for _, ri := range c.requirements {
				if !isSatisfiedBy(ri.Requirement, cand) {
					satisfied = false
					break
				}
			}
			if !satisfied {
				c.incompatible[cand.Version.String()] = true
				continue
			}

			valid, err := p.Valid(ctx, cand)
			if err != nil {
				return nil, nil, err
			}
			if !valid {
				c.incompatible[cand.Version.String()] = true
				continue
			}

			deps, err := p.GetDependencies(ctx, cand)
			if err != nil {
				return nil, nil, err
			}

			pins[next] = cand
			backtrackLog = append(backtrackLog, next)

			var edges []candidate.Key
			for _, d := range deps {
				if err := addRequirement(d, &cand); err != nil {
					return nil, nil, err
				}
				edges = append(edges, p.Identify(d))
			}
			graph.Edges[next] = edges

			dlog.Infof(ctx, "resolve: round %d: pinned %s -> %s", round, next, cand.Version)
			pinned = true
			break
		}

		if pinned {
			continue
		}

		dlog.Warnf(ctx, "resolve: round %d: %s exhausted its candidates, backtracking", round, next)

		target, ok := backtrack(next, criteria, pins, backtrackLog)
		if !ok {
			return nil, nil, impossibleError(order, criteria, pins)
		}

		// Unpin target and everything pinned after it, since their
		// criteria may have been introduced by the unpinned candidate.
		idx := indexOf(backtrackLog, target)
		unwind := backtrackLog[idx:]
		backtrackLog = backtrackLog[:idx]
		for _, key := range unwind {
			failed := pins[key]
			delete(pins, key)
			if c, ok := criteria[key]; ok {
				c.incompatible[failed.Version.String()] = true
			}
		}
	}
}

// pinSatisfies reports whether c's key is currently pinned to a
// candidate that still satisfies every requirement so far attributed
// to it. A criterion gains new requirements over time as later rounds
// pin dependents that depend on it (see addRequirement), so a pin made
// under a smaller requirement set can be invalidated by a requirement
// discovered afterward — the resolver must keep rechecking it, not
// just check that some pin exists.
func pinSatisfies(c *criterion, pins map[candidate.Key]candidate.Candidate) bool {
	pin, ok := pins[c.key]
	if !ok {
		return false
	}
	for _, ri := range c.requirements {
		if !isSatisfiedBy(ri.Requirement, pin) {
			return false
		}
	}
	return true
}

// nextUnpinned refreshes the candidate list for any criterion that
// hasn't been enumerated yet, then picks the next key to work on via
// the provider's preference among every currently-unsatisfied key —
// one with no pin at all, or one whose existing pin no longer
// satisfies all of its requirements (see pinSatisfies). done is true
// once every criterion has a consistent pin.
func nextUnpinned(ctx context.Context, p Provider, criteria map[candidate.Key]*criterion, pins map[candidate.Key]candidate.Candidate, order []candidate.Key) (candidate.Key, bool, error) {
	for _, key := range order {
		c := criteria[key]
		if c.fetched {
			continue
		}
		reqs := make([]requirement.Requirement, len(c.requirements))
		for i, ri := range c.requirements {
			reqs[i] = ri.Requirement
		}
		matches, err := p.FindMatches(ctx, key, reqs, c.incompatible)
		if err != nil {
			return candidate.Key{}, false, err
		}
		c.candidates = matches
		c.fetched = true
	}

	var unsatisfied []candidate.Key
	for _, key := range order {
		if !pinSatisfies(criteria[key], pins) {
			unsatisfied = append(unsatisfied, key)
		}
	}
	if len(unsatisfied) == 0 {
		return candidate.Key{}, true, nil
	}
	return choosePreferred(p, unsatisfied, criteria), false, nil
}

func isSatisfiedBy(r requirement.Requirement, c candidate.Candidate) bool {
	if requirement.CanonicalName(r.Name) != c.Name {
		return false
	}
	have := make(map[string]bool, len(c.Extras))
	for _, e := range c.Extras {
		have[requirement.CanonicalName(e)] = true
	}
	for _, e := range r.Extras {
		if !have[requirement.CanonicalName(e)] {
			return false
		}
	}
	if r.Specifier == nil {
		return true
	}
	return r.Specifier.Contains(c.Version)
}

// backtrack finds the most recently pinned key that appears in the
// parent chain of any requirement contributing to the exhausted
// criterion, so unwinding it has a chance of removing the conflict.
func backtrack(exhausted candidate.Key, criteria map[candidate.Key]*criterion, pins map[candidate.Key]candidate.Candidate, backtrackLog []candidate.Key) (candidate.Key, bool) {
	involved := map[candidate.Key]bool{}
	for _, ri := range criteria[exhausted].requirements {
		if ri.Parent != nil {
			involved[ri.Parent.Key()] = true
		}
	}

	for i := len(backtrackLog) - 1; i >= 0; i-- {
		if involved[backtrackLog[i]] {
			return backtrackLog[i], true
		}
	}
	return candidate.Key{}, false
}

func indexOf(keys []candidate.Key, target candidate.Key) int {
	for i, k := range keys {
		if k == target {
			return i
		}
	}
	return -1
}

// removeFromLog drops key from log, preserving the relative order of
// every other entry, for the case where a pin is invalidated directly
// by nextUnpinned's closure check rather than by an explicit backtrack.
func removeFromLog(log []candidate.Key, key candidate.Key) []candidate.Key {
	idx := indexOf(log, key)
	if idx < 0 {
		return log
	}
	return append(log[:idx], log[idx+1:]...)
}

func impossibleError(order []candidate.Key, criteria map[candidate.Key]*criterion, pins map[candidate.Key]candidate.Candidate) *ResolutionImpossibleError {
	var conflicts []Conflict
	for _, key := range order {
		if _, pinned := pins[key]; pinned {
			continue
		}
		conflicts = append(conflicts, Conflict{Key: key, Requirements: criteria[key].requirements})
	}
	return &ResolutionImpossibleError{Conflicts: conflicts}
}
