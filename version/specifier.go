package version

import (
	"fmt"
	"strings"
)

// Comparison operators recognised in a PEP 440 specifier.
const (
	LessOrEqual     = "<="
	Less            = "<"
	NotEqual        = "!="
	Equal           = "=="
	GreaterOrEqual  = ">="
	Greater         = ">"
	CompatibleEqual = "~="
	TripleEqual     = "==="
)

// Constraint is a single `OP VERSION` clause of a specifier set.
type Constraint struct {
	Operator string
	Version  Version
}

func (c Constraint) String() string {
	return c.Operator + c.Version.Canonical()
}

// Contains reports whether v satisfies this single constraint.
func (c Constraint) Contains(v Version) bool {
	switch c.Operator {
	case LessOrEqual:
		return Compare(v, c.Version) <= 0
	case Less:
		return Compare(v, c.Version) < 0
	case NotEqual:
		return Compare(v, c.Version) != 0
	case Equal:
		return Compare(v, c.Version) == 0
	case GreaterOrEqual:
		return Compare(v, c.Version) >= 0
	case Greater:
		return Compare(v, c.Version) > 0
	case TripleEqual:
		// Arbitrary equality on the canonical string forms. Version
		// does not keep the original spelling, so spellings that
		// normalize to the same form (1.0-alpha, 1.0a0) compare equal;
		// differing release lengths (1.2.3, 1.2.3.0) do not.
		return v.Canonical() == c.Version.Canonical()
	case CompatibleEqual:
		return compatibleRelease(v, c.Version)
	default:
		panic(fmt.Sprintf("unknown version comparison operator: %q", c.Operator))
	}
}

// compatibleRelease implements `~=X.Y(.Z...)`, defined by PEP 440 as
// equivalent to `>=X.Y(.Z...), ==X.(Y...).*` — the release is pinned up
// to, but not including, its last segment.
func compatibleRelease(v, base Version) bool {
	if base.ReleaseVersions < 2 {
		return false
	}

	prefix := base
	prefix.ReleaseVersions = base.ReleaseVersions - 1
	for i := prefix.ReleaseVersions; i < len(prefix.Release); i++ {
		prefix.Release[i] = 0
	}
	prefix.Wildcard = true
	prefix.PreReleasePhase = prereleaseNone
	prefix.PreReleaseVersion = 0
	prefix.PostRelease = false
	prefix.PostReleaseVersion = 0
	prefix.DevRelease = false
	prefix.DevReleaseVersion = 0
	prefix.LocalVersion = ""

	return Compare(v, base) >= 0 && Compare(v, prefix) == 0
}

// Specifier is a conjunction of Constraints, as written comma-separated
// in a PEP 508 requirement (`>=1.2,<2,!=1.5`). An empty Specifier is
// satisfied by every version.
type Specifier []Constraint

// ParseSpecifier parses a comma-separated PEP 440 specifier set.
func ParseSpecifier(input string) (Specifier, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	var spec Specifier
	for _, clause := range strings.Split(input, ",") {
		c, err := parseConstraint(strings.TrimSpace(clause))
		if err != nil {
			return nil, err
		}
		spec = append(spec, c)
	}

	return spec, nil
}

var operators = []string{CompatibleEqual, TripleEqual, LessOrEqual, GreaterOrEqual, NotEqual, Equal, Less, Greater}

func parseConstraint(clause string) (Constraint, error) {
	for _, op := range operators {
		if strings.HasPrefix(clause, op) {
			rest := strings.TrimSpace(clause[len(op):])
			v, ok := Parse(rest)
			if !ok {
				return Constraint{}, fmt.Errorf("invalid version in specifier clause %q", clause)
			}
			if v.Wildcard && op != Equal && op != NotEqual {
				return Constraint{}, fmt.Errorf("wildcard version only allowed with == or != in clause %q", clause)
			}
			if op == CompatibleEqual && v.ReleaseVersions < 2 {
				return Constraint{}, fmt.Errorf("~= requires at least two release segments in clause %q", clause)
			}
			return Constraint{Operator: op, Version: v}, nil
		}
	}

	return Constraint{}, fmt.Errorf("invalid specifier clause %q: no recognised operator", clause)
}

// Contains reports whether v satisfies every constraint in the set.
func (s Specifier) Contains(v Version) bool {
	for _, c := range s {
		if !c.Contains(v) {
			return false
		}
	}
	return true
}

func (s Specifier) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}
