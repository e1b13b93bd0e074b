// Package version implements PEP 440 version parsing, ordering, and
// specifier-set membership.
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Phases of a pre-release, ordered so that alpha < beta < candidate.
const (
	PrereleaseAlpha     = -3
	PrereleaseBeta      = -2
	PrereleaseCandidate = -1
	prereleaseNone      = 0
)

// Version holds a PEP 440 compatible version.
// https://www.python.org/dev/peps/pep-0440/
type Version struct {
	Epoch int
	// PEP 440 allows the release segment to be of infinite length.
	// Limiting it to 6 keeps the struct comparable and covers almost
	// every package published to PyPI.
	ReleaseVersions    int
	Release            [6]int
	Wildcard           bool
	PreReleasePhase    int
	PreReleaseVersion  int
	PostRelease        bool
	PostReleaseVersion int
	DevRelease         bool
	DevReleaseVersion  int
	LocalVersion       string
}

// Version is comparable so it can key a map (DependencyKey composition,
// resolver pin tables).
var _ = Version{} == Version{}

// https://www.python.org/dev/peps/pep-0440/#appendix-b-parsing-version-strings-with-regular-expressions
// with a small extension to accept '*' in the release segment for
// wildcard matching (`==1.2.*`).
var re = regexp.MustCompile(`^v?(?:(?:(?P<epoch>[0-9]+)!)?(?P<release>[0-9]+(?:\.(?:[0-9]+|\*$))*)(?P<pre>[-_\.]?(?P<pre_l>(a|b|c|rc|alpha|beta|pre|preview))[-_\.]?(?P<pre_n>[0-9]+)?)?(?P<post>(?:-(?P<post_n1>[0-9]+))|(?:[-_\.]?(?P<post_l>post|rev|r)[-_\.]?(?P<post_n2>[0-9]+)?))?(?P<dev>[-_\.]?(?P<dev_l>dev)[-_\.]?(?P<dev_n>[0-9]+)?)?)(?:\+(?P<local>[a-z0-9]+(?:[-_\.][a-z0-9]+)*))?$`)

// Parse parses a PEP 440 compatible version. If the version is invalid
// the returned bool is false.
func Parse(input string) (Version, bool) {
	matches := re.FindStringSubmatch(strings.ToLower(strings.TrimSpace(input)))
	if matches == nil {
		return Version{}, false
	}

	var epoch int
	if matches[1] != "" {
		var err error
		epoch, err = strconv.Atoi(matches[1])
		if err != nil {
			return Version{}, false
		}
	}
	releaseVersions := 0
	release := [6]int{}
	for i, part := range strings.Split(matches[2], ".") {
		if i >= len(release) {
			return Version{}, false
		}
		if part == "*" {
			return Version{
				Epoch:           epoch,
				ReleaseVersions: releaseVersions,
				Release:         release,
				Wildcard:        true,
			}, true
		}

		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, false
		}
		release[i] = n
		releaseVersions = i + 1
	}

	preReleasePhase := prereleaseNone
	switch matches[4] {
	case "a", "alpha":
		preReleasePhase = PrereleaseAlpha
	case "b", "beta":
		preReleasePhase = PrereleaseBeta
	case "rc", "c", "pre", "preview":
		preReleasePhase = PrereleaseCandidate
	}
	var preReleaseVersion int
	if matches[6] != "" {
		var err error
		preReleaseVersion, err = strconv.Atoi(matches[6])
		if err != nil {
			return Version{}, false
		}
	}

	// matches[7] is the outer "post" group, which is set by either the
	// bare "-N" form or the "post"/"rev"/"r" form; matches[8] and
	// matches[10] carry the number for each form respectively.
	postRelease := matches[7] != ""
	var postReleaseVersion int
	if postRelease {
		n := matches[8]
		if n == "" {
			n = matches[10]
		}
		if n != "" {
			var err error
			postReleaseVersion, err = strconv.Atoi(n)
			if err != nil {
				return Version{}, false
			}
		}
	}

	devRelease := matches[12] != ""
	var devReleaseVersion int
	if devRelease && matches[13] != "" {
		var err error
		devReleaseVersion, err = strconv.Atoi(matches[13])
		if err != nil {
			return Version{}, false
		}
	}

	return Version{
		Epoch:              epoch,
		ReleaseVersions:    releaseVersions,
		Release:            release,
		PreReleasePhase:    preReleasePhase,
		PreReleaseVersion:  preReleaseVersion,
		PostRelease:        postRelease,
		PostReleaseVersion: postReleaseVersion,
		DevRelease:         devRelease,
		DevReleaseVersion:  devReleaseVersion,
		LocalVersion:       matches[14],
	}, true
}

// MustParse parses the version and panics if it cannot be parsed.
// Intended for literal versions in tests and constant tables, never
// for input coming off the network.
func MustParse(input string) Version {
	v, valid := Parse(input)
	if !valid {
		panic(fmt.Sprintf("invalid version: %q", input))
	}

	return v
}

func (v Version) String() string {
	if v.Unspecified() {
		return "<unspecified>"
	}

	return v.Canonical()
}

// Canonical returns the normalized PEP 440 string form of v.
func (v Version) Canonical() string {
	sb := &strings.Builder{}

	if v.Epoch > 0 {
		fmt.Fprintf(sb, "%d!", v.Epoch)
	}

	for i := 0; i < v.ReleaseVersions; i++ {
		if i > 0 {
			sb.WriteRune('.')
		}
		fmt.Fprintf(sb, "%d", v.Release[i])
	}
	if v.Wildcard {
		sb.WriteString(".*")
		return sb.String()
	}

	switch v.PreReleasePhase {
	case PrereleaseAlpha:
		fmt.Fprintf(sb, "a%d", v.PreReleaseVersion)
	case PrereleaseBeta:
		fmt.Fprintf(sb, "b%d", v.PreReleaseVersion)
	case PrereleaseCandidate:
		fmt.Fprintf(sb, "rc%d", v.PreReleaseVersion)
	}

	if v.PostRelease {
		fmt.Fprintf(sb, ".post%d", v.PostReleaseVersion)
	}

	if v.DevRelease {
		fmt.Fprintf(sb, ".dev%d", v.DevReleaseVersion)
	}

	if v.LocalVersion != "" {
		fmt.Fprintf(sb, "+%s", v.LocalVersion)
	}

	return sb.String()
}

// Equal reports whether v and v2 are the same PEP 440 version.
func (v Version) Equal(v2 Version) bool {
	return Compare(v, v2) == 0 && v.LocalVersion == v2.LocalVersion
}

// Unspecified reports whether v is the zero value, i.e. no version was
// given.
func (v Version) Unspecified() bool {
	return v == Version{}
}

// Compare returns an integer comparing two versions: 0 if a == b, -1
// if a < b, and +1 if a > b. Local version identifiers only
// participate when both sides carry the same public version; a local
// version always sorts above the matching version without one, and
// local parts that differ are otherwise ordered lexically so that
// Compare remains a total order usable for sorting.
func Compare(a, b Version) int {
	if a.Epoch != b.Epoch {
		return sign(a.Epoch - b.Epoch)
	}

	// A wildcard release segment (`1.2.*`) only constrains its own
	// declared prefix; segments beyond it never participate in the
	// comparison, regardless of what the other side has there.
	limit := len(a.Release)
	if a.Wildcard && a.ReleaseVersions < limit {
		limit = a.ReleaseVersions
	}
	if b.Wildcard && b.ReleaseVersions < limit {
		limit = b.ReleaseVersions
	}
	for i := 0; i < limit; i++ {
		if a.Release[i] != b.Release[i] {
			return sign(a.Release[i] - b.Release[i])
		}
	}
	if a.Wildcard || b.Wildcard {
		// Epoch and the wildcard's declared prefix match: treat as
		// equivalent for specifier matching purposes.
		return 0
	}

	// A dev release of a final version (1.0.dev1, no pre or post
	// segment) sorts below every pre-release of that version (1.0a1).
	aPre, bPre := a.PreReleasePhase, b.PreReleasePhase
	if aPre == prereleaseNone && !a.PostRelease && a.DevRelease {
		aPre = PrereleaseAlpha - 1
	}
	if bPre == prereleaseNone && !b.PostRelease && b.DevRelease {
		bPre = PrereleaseAlpha - 1
	}
	if aPre != bPre {
		return sign(aPre - bPre)
	}
	if a.PreReleasePhase != prereleaseNone && a.PreReleaseVersion != b.PreReleaseVersion {
		return sign(a.PreReleaseVersion - b.PreReleaseVersion)
	}

	aPost, bPost := postRank(a), postRank(b)
	if aPost != bPost {
		return sign(aPost - bPost)
	}

	// A dev release sorts below the non-dev release of the same
	// version; absence of a dev release is "infinitely late".
	if a.DevRelease != b.DevRelease {
		if a.DevRelease {
			return -1
		}
		return 1
	}
	if a.DevRelease && a.DevReleaseVersion != b.DevReleaseVersion {
		return sign(a.DevReleaseVersion - b.DevReleaseVersion)
	}

	if a.LocalVersion != b.LocalVersion {
		if a.LocalVersion == "" {
			return -1
		}
		if b.LocalVersion == "" {
			return 1
		}
		return strings.Compare(a.LocalVersion, b.LocalVersion)
	}

	return 0
}

func postRank(v Version) int {
	if !v.PostRelease {
		return -1
	}
	return v.PostReleaseVersion + 1
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}

// GreaterThan reports whether v sorts after v2.
func (v Version) GreaterThan(v2 Version) bool {
	return Compare(v, v2) == 1
}
