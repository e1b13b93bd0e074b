// Command resolve pins a consistent set of wheel distributions for a
// list of top-level requirements against a PEP 503 simple index.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/FFY00/python-resolver/candidate"
	"github.com/FFY00/python-resolver/engine"
	"github.com/FFY00/python-resolver/provider"
)

type flags struct {
	requirements   []string
	pythonVersion  string
	indexURL       string
	cacheDir       string
	lowest         bool
	requiresPython string
	json           bool
}

var argparser = &cobra.Command{
	Use:   "resolve [flags]",
	Short: "Resolve a pinned set of wheels for a list of requirements",

	SilenceErrors: true, // main() prints the error itself
	SilenceUsage:  true,
}

func init() {
	var f flags

	argparser.RunE = func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), f)
	}

	argparser.Flags().StringArrayVarP(&f.requirements, "requirement", "r", nil,
		"A top-level `REQUIREMENT` string; may be repeated")
	argparser.Flags().StringVar(&f.pythonVersion, "python-version", "3.11",
		"Target interpreter `VERSION` for marker evaluation and tag compatibility")
	argparser.Flags().StringVar(&f.indexURL, "index-url", "",
		"Root `URL` of a PEP 503 simple repository (default https://pypi.org/simple/)")
	argparser.Flags().StringVar(&f.cacheDir, "cache-dir", "",
		"Wheel cache `DIRECTORY` (default a temporary directory, removed on exit)")
	argparser.Flags().BoolVar(&f.lowest, "lowest", false,
		"Resolve the lowest version satisfying each requirement instead of the highest")
	argparser.Flags().StringVar(&f.requiresPython, "requires-python", "",
		"Override the interpreter `VERSION` checked against links' Requires-Python (default --python-version)")
	argparser.Flags().BoolVar(&f.json, "json", false,
		"Print the resolved pins as JSON instead of a table")
}

func run(ctx context.Context, f flags) error {
	ordering := provider.Highest
	if f.lowest {
		ordering = provider.Lowest
	}

	result, err := engine.Resolve(ctx, engine.Config{
		Requirements:   f.requirements,
		PythonVersion:  f.pythonVersion,
		RequiresPython: f.requiresPython,
		IndexURL:       f.indexURL,
		CacheDir:       f.cacheDir,
		Ordering:       ordering,
	})
	if err != nil {
		return err
	}

	if f.json {
		return printJSON(os.Stdout, result.Pins)
	}
	printTable(os.Stdout, result.Pins)
	return nil
}

func printJSON(w io.Writer, pins map[candidate.Key]candidate.Candidate) error {
	type entry struct {
		Name    string   `json:"name"`
		Extras  []string `json:"extras,omitempty"`
		Version string   `json:"version"`
	}
	entries := make([]entry, 0, len(pins))
	for key, c := range pins {
		entries = append(entries, entry{Name: key.Name, Extras: c.Extras, Version: c.Version.String()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func printTable(w io.Writer, pins map[candidate.Key]candidate.Candidate) {
	keys := make([]candidate.Key, 0, len(pins))
	for k := range pins {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	for _, k := range keys {
		fmt.Fprintf(w, "%-40s %s\n", k, pins[k].Version)
	}
}

func main() {
	ctx := context.Background()

	if err := argparser.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mERROR: %v\033[0m\n", err)
		os.Exit(1)
	}
}
