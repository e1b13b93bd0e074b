package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecifierContains(t *testing.T) {
	testCases := []struct {
		specifier string
		version   string
		contains  bool
	}{
		{">=1.2,<2", "1.5", true},
		{">=1.2,<2", "2.0", false},
		{">=1.2,<2", "1.2", true},
		{"==1.2.*", "1.2.9", true},
		{"==1.2.*", "1.3.0", false},
		{"!=1.5", "1.5", false},
		{"!=1.5", "1.6", true},
		{"~=2.2", "2.3", true},
		{"~=2.2", "3.0", false},
		{"~=2.2", "2.1", false},
		{"~=1.4.5", "1.4.6", true},
		{"~=1.4.5", "1.5.0", false},
		{"~=1.4.5", "1.4.4", false},
		{"===1.2.3", "1.2.3", true},
		{"===1.2.3", "1.2.3.0", false},
		{">=1.2,<2,!=1.5", "1.5", false},
	}
	for _, tc := range testCases {
		t.Run(tc.specifier+"_"+tc.version, func(t *testing.T) {
			s, err := ParseSpecifier(tc.specifier)
			require.NoError(t, err)
			v := MustParse(tc.version)
			assert.Equal(t, tc.contains, s.Contains(v))
		})
	}
}

func TestParseSpecifierEmpty(t *testing.T) {
	s, err := ParseSpecifier("")
	require.NoError(t, err)
	assert.Empty(t, s)
	assert.True(t, s.Contains(MustParse("0.0.1")))
}

func TestParseSpecifierInvalid(t *testing.T) {
	for _, input := range []string{"bogus", ">=1.2,", "~=1", "==1.*.5"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseSpecifier(input)
			assert.Error(t, err)
		})
	}
}
