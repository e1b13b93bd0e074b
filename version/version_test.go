package version

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type versionTestCase struct {
	input     string
	output    Version
	canonical string
}

var versionTestCases = []versionTestCase{
	{
		"1!1.16rc3.post5.dev2+xyz",
		Version{
			Epoch:              1,
			Release:            [6]int{1, 16},
			PreReleasePhase:    PrereleaseCandidate,
			PreReleaseVersion:  3,
			PostRelease:        true,
			PostReleaseVersion: 5,
			DevRelease:         true,
			DevReleaseVersion:  2,
			LocalVersion:       "xyz",
		},
		"1!1.16rc3.post5.dev2+xyz",
	},
	{
		"1",
		Version{Release: [6]int{1}},
		"1",
	},
	{
		"1.2.3.4",
		Version{Release: [6]int{1, 2, 3, 4}},
		"1.2.3.4",
	},
	{
		"1.2-alpha",
		Version{Release: [6]int{1, 2}, PreReleasePhase: PrereleaseAlpha},
		"1.2a0",
	},
	{
		"1.2-dev",
		Version{Release: [6]int{1, 2}, DevRelease: true},
		"1.2.dev0",
	},
	{
		"1.0-1",
		Version{Release: [6]int{1, 0}, PostRelease: true, PostReleaseVersion: 1},
		"1.0.post1",
	},
	{
		"0!4+latest-ubuntu",
		Version{Release: [6]int{4}, LocalVersion: "latest-ubuntu"},
		"4+latest-ubuntu",
	},
	{
		"1.0+abc.7",
		Version{Release: [6]int{1, 0}, LocalVersion: "abc.7"},
		"1.0+abc.7",
	},
	{
		"3.2.0b6",
		Version{Release: [6]int{3, 2, 0}, PreReleasePhase: PrereleaseBeta, PreReleaseVersion: 6},
		"3.2.0b6",
	},
	{
		"1.0.0-Beta",
		Version{Release: [6]int{1, 0, 0}, PreReleasePhase: PrereleaseBeta},
		"1.0.0b0",
	},
	{
		"0.6.*",
		Version{Release: [6]int{0, 6}, Wildcard: true},
		"0.6.*",
	},
}

func TestParse(t *testing.T) {
	for _, tc := range versionTestCases {
		t.Run(tc.input, func(t *testing.T) {
			v, valid := Parse(tc.input)
			require.True(t, valid, "unexpected invalid version")
			assert.Equal(t, tc.output.Epoch, v.Epoch)
			assert.Equal(t, tc.output.PreReleasePhase, v.PreReleasePhase)
			assert.Equal(t, tc.output.PreReleaseVersion, v.PreReleaseVersion)
			assert.Equal(t, tc.output.PostRelease, v.PostRelease)
			assert.Equal(t, tc.output.PostReleaseVersion, v.PostReleaseVersion)
			assert.Equal(t, tc.output.DevRelease, v.DevRelease)
			assert.Equal(t, tc.output.DevReleaseVersion, v.DevReleaseVersion)
			assert.Equal(t, tc.output.LocalVersion, v.LocalVersion)
			assert.Equal(t, tc.output.Wildcard, v.Wildcard)

			assert.Equal(t, tc.output.Release, v.Release)
			assert.Equal(t, tc.canonical, v.Canonical())
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, input := range []string{"", "not-a-version", "1.2.3.4.5.6.7", "1.0~=2"} {
		t.Run(input, func(t *testing.T) {
			_, valid := Parse(input)
			assert.False(t, valid)
		})
	}
}

func TestVersionEquality(t *testing.T) {
	testCases := []struct {
		v1, v2 string
		equal  bool
	}{
		{"3!4", "3!4", true},
		{"3.2.0", "3.2", true},
		{"4.3+abc", "4.3", false},
		{"1.3", "4.5", false},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s-%s", tc.v1, tc.v2), func(t *testing.T) {
			v1, v2 := MustParse(tc.v1), MustParse(tc.v2)
			equal := v1.Equal(v2)
			assert.Equal(t, v2.Equal(v1), equal, "equal must be reflexive")
			assert.Equal(t, tc.equal, equal)
		})
	}
}

func TestVersionComparison(t *testing.T) {
	testCases := []struct {
		a, b   string
		output int
	}{
		{"3.2", "3.4", -1},
		{"3.2", "3.2", 0},
		{"1!3", "5.3", 1},
		{"4.3", "4.3.dev4", 1},
		{"4.3b4", "4.3a2", 1},
		{"4.3b4", "4.3a6", 1},
		{"4.3", "4.3b6", 1},
		{"1.2rc1", "1.2", -1},
		{"4.3.post1", "4.3", 1},
		{"4.3.dev3", "4.3.dev2", 1},
		{"4.3.post2", "4.3.post1", 1},
		{"2.2.0", "2.3.0", -1},
		{"1.12.0", "1.6.1", 1},
		{"0.5.0", "0.5", 0},
		{"1.11.0rc2", "1.11.0rc1", 1},
		{"1.11.dev4", "1.11.dev3", 1},
		{"0.22rc3", "0.22rc2.post1", 1},
		{"1.0+local", "1.0", 1},
		{"1.0+a", "1.0+b", -1},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s-%s", tc.a, tc.b), func(t *testing.T) {
			a, b := MustParse(tc.a), MustParse(tc.b)
			assert.Equal(t, tc.output, Compare(a, b))
			assert.Equal(t, -1*tc.output, Compare(b, a), "compare must be antisymmetric")
		})
	}
}

func BenchmarkVersionParsing(b *testing.B) {
	for _, tc := range versionTestCases {
		b.Run(tc.input, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				Parse(tc.input)
			}
		})
	}
}
