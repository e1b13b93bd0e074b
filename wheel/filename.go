// Package wheel decodes wheel filenames and introspects the metadata
// stored inside a wheel's `dist-info` directory.
package wheel

import (
	"fmt"
	"strings"

	"github.com/FFY00/python-resolver/requirement"
	"github.com/FFY00/python-resolver/tag"
	"github.com/FFY00/python-resolver/version"
)

// Filename is the decoded form of a wheel's filename, per
// https://www.python.org/dev/peps/pep-0427/#file-name-convention:
//
//	{distribution}-{version}(-{build tag})?-{python tag}-{abi tag}-{platform tag}.whl
type Filename struct {
	Raw     string
	RawName string // distribution name as it appears in the filename, uncanonicalized
	Name    string // canonicalized
	Version version.Version
	Build   string
	Tags    []tag.Tag
}

// ErrNotAWheel is returned when a filename does not end in ".whl".
var ErrNotAWheel = fmt.Errorf("not a wheel filename")

// ParseFilename decodes a wheel filename, expanding its compressed tag
// section into the Cartesian product of the dot-separated interpreter,
// ABI, and platform segments. Parsing the filename alone is
// deliberate: it lets a candidate be constructed, filtered, and sorted
// without ever opening the archive.
func ParseFilename(filename string) (Filename, error) {
	trimmed := strings.TrimSuffix(filename, ".whl")
	if trimmed == filename {
		return Filename{}, ErrNotAWheel
	}

	parts := strings.Split(trimmed, "-")
	switch {
	case len(parts) < 5:
		return Filename{}, fmt.Errorf("%w: expected at least 5 '-'-separated parts in %q", ErrNotAWheel, filename)
	case len(parts) > 6:
		return Filename{}, fmt.Errorf("%w: expected at most 6 '-'-separated parts in %q", ErrNotAWheel, filename)
	}

	build := ""
	if len(parts) == 6 {
		build = parts[2]
	}

	v, ok := version.Parse(parts[1])
	if !ok {
		return Filename{}, fmt.Errorf("invalid version %q in wheel filename %q", parts[1], filename)
	}

	interpreters := strings.Split(parts[len(parts)-3], ".")
	abis := strings.Split(parts[len(parts)-2], ".")
	platforms := strings.Split(parts[len(parts)-1], ".")

	tags := make([]tag.Tag, 0, len(interpreters)*len(abis)*len(platforms))
	for _, interpreter := range interpreters {
		for _, abi := range abis {
			for _, platform := range platforms {
				tags = append(tags, tag.Tag{Interpreter: interpreter, ABI: abi, Platform: platform})
			}
		}
	}

	return Filename{
		Raw:     filename,
		RawName: parts[0],
		Name:    requirement.CanonicalName(parts[0]),
		Version: v,
		Build:   build,
		Tags:    tags,
	}, nil
}
