// Package engine wires together the index client, archive cache,
// provider adapter, and backtracking resolver behind a single
// entrypoint.
package engine

import (
	"context"
	"fmt"
	"net/http"

	"github.com/datawire/dlib/dlog"

	"github.com/FFY00/python-resolver/archive"
	"github.com/FFY00/python-resolver/candidate"
	"github.com/FFY00/python-resolver/environment"
	"github.com/FFY00/python-resolver/index"
	"github.com/FFY00/python-resolver/provider"
	"github.com/FFY00/python-resolver/requirement"
	"github.com/FFY00/python-resolver/resolve"
	"github.com/FFY00/python-resolver/version"
)

// Config is the full set of inputs to a single resolution run.
type Config struct {
	// Requirements are the top-level PEP 508 requirement strings.
	Requirements []string

	// Extras are applied to every bare top-level requirement that
	// does not already name its own extras, letting a caller request
	// pkg[foo,bar] semantics without rewriting requirement strings.
	Extras []string

	// CacheDir is the wheel cache directory. Empty means a fresh
	// temporary directory, removed when the resolution completes.
	CacheDir string

	// PythonVersion seeds the default marker environment's
	// python_version/_full_version and, absent RequiresPython, also
	// gates archive links' Requires-Python.
	PythonVersion string

	// RequiresPython overrides the version checked against archive
	// links' Requires-Python, independent of the marker environment's
	// python_version. Empty means PythonVersion is used for both.
	RequiresPython string

	// IndexURL is the root of a PEP 503 simple repository. Empty
	// means index.DefaultURL.
	IndexURL string

	// Ordering selects highest-first (default) or lowest-first
	// candidate enumeration.
	Ordering provider.Ordering

	// MarkerEnv overrides individual PEP 508 marker variables on top
	// of the host's computed defaults.
	MarkerEnv map[string]string

	// HTTPClient is used for both index and archive fetches. nil
	// means http.DefaultClient.
	HTTPClient *http.Client
}

// Result is the output of a completed resolution.
type Result struct {
	Pins  map[candidate.Key]candidate.Candidate
	Graph *resolve.Graph
}

// Resolve runs a complete resolution for cfg: parsing top-level
// requirements, constructing the index client and archive cache, and
// driving the backtracking resolver to a pinned set or a structured
// error.
func Resolve(ctx context.Context, cfg Config) (*Result, error) {
	env := environment.New(cfg.PythonVersion, cfg.MarkerEnv)

	requiresPythonGate := cfg.RequiresPython
	if requiresPythonGate == "" {
		requiresPythonGate = cfg.PythonVersion
	}
	pythonVersion, ok := version.Parse(requiresPythonGate)
	if !ok {
		return nil, fmt.Errorf("invalid python_version %q", requiresPythonGate)
	}

	cache, err := archive.New(cfg.CacheDir, cfg.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("opening archive cache: %w", err)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			dlog.Warnf(ctx, "closing archive cache: %v", err)
		}
	}()

	idx := index.NewClient(cfg.IndexURL, cfg.HTTPClient)

	p := &provider.Provider{
		Index:         idx,
		Cache:         cache,
		Supported:     env.SupportedTags,
		PythonVersion: pythonVersion,
		Ordering:      cfg.Ordering,
		Env:           env,
	}

	parsed, err := parseTopLevel(cfg.Requirements, cfg.Extras)
	if err != nil {
		return nil, err
	}

	topLevel, err := filterByMarker(parsed, env)
	if err != nil {
		return nil, err
	}

	dlog.Infof(ctx, "engine: resolving %d top-level requirement(s) against %s", len(topLevel), idx.BaseURL)

	pins, graph, err := resolve.Resolve(ctx, p, topLevel)
	if err != nil {
		return nil, err
	}

	return &Result{Pins: pins, Graph: graph}, nil
}

// filterByMarker drops top-level requirements whose marker evaluates
// false against env before search ever begins, since a marker gate on
// a root requirement is a precondition on the resolution, not a
// criterion the resolver should try and fail to satisfy.
func filterByMarker(reqs []requirement.Requirement, env requirement.Env) ([]requirement.Requirement, error) {
	out := make([]requirement.Requirement, 0, len(reqs))
	for _, r := range reqs {
		if r.Marker == nil {
			out = append(out, r)
			continue
		}
		ok, err := requirement.Evaluate(r.Marker, env, "")
		if err != nil {
			return nil, fmt.Errorf("evaluating marker on %q: %w", r.Name, err)
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func parseTopLevel(reqs []string, extras []string) ([]requirement.Requirement, error) {
	out := make([]requirement.Requirement, 0, len(reqs))
	for _, s := range reqs {
		r, err := requirement.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parsing requirement %q: %w", s, err)
		}
		if len(r.Extras) == 0 {
			r.Extras = extras
		}
		out = append(out, r)
	}
	return out, nil
}
