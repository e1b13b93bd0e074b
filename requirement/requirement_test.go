package requirement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FFY00/python-resolver/version"
)

func TestParseBareName(t *testing.T) {
	r, err := Parse("Foo_Bar.Baz")
	require.NoError(t, err)
	assert.Equal(t, "foo-bar-baz", r.Name)
	assert.Empty(t, r.Specifier)
	assert.Nil(t, r.Marker)
}

func TestParseExtrasAndSpecifier(t *testing.T) {
	r, err := Parse(`requests[socks,security]>=2.8.1,<3.0`)
	require.NoError(t, err)
	assert.Equal(t, "requests", r.Name)
	assert.Equal(t, []string{"socks", "security"}, r.Extras)
	assert.True(t, r.Specifier.Contains(version.MustParse("2.9.0")))
	assert.False(t, r.Specifier.Contains(version.MustParse("3.0.0")))
}

func TestParseMarker(t *testing.T) {
	r, err := Parse(`foo>=1.2; python_version>="3.8" and sys_platform=="linux"`)
	require.NoError(t, err)
	require.NotNil(t, r.Marker)

	ok, err := Evaluate(r.Marker, MapEnv{"python_version": "3.9", "sys_platform": "linux"}, "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate(r.Marker, MapEnv{"python_version": "3.7", "sys_platform": "linux"}, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseMarkerDisjunction(t *testing.T) {
	r, err := Parse(`foo; sys_platform=="win32" or sys_platform=="linux"`)
	require.NoError(t, err)

	ok, err := Evaluate(r.Marker, MapEnv{"sys_platform": "linux"}, "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate(r.Marker, MapEnv{"sys_platform": "darwin"}, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseMarkerExtra(t *testing.T) {
	r, err := Parse(`dep; extra=='xy'`)
	require.NoError(t, err)

	ok, err := Evaluate(r.Marker, MapEnv{}, "xy")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate(r.Marker, MapEnv{}, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseURLRequirementUnsupported(t *testing.T) {
	_, err := Parse("foo @ https://example.com/foo-1.0.tar.gz")
	assert.ErrorIs(t, err, ErrURLNotSupported)
}

func TestCanonicalName(t *testing.T) {
	for _, tc := range []struct{ in, out string }{
		{"Foo.Bar", "foo-bar"},
		{"foo__bar", "foo-bar"},
		{"FOO-BAR-baz", "foo-bar-baz"},
	} {
		assert.Equal(t, tc.out, CanonicalName(tc.in))
	}
}

func TestParseParenthesizedSpecifier(t *testing.T) {
	r, err := Parse("foo (>=1.0,<2.0)")
	require.NoError(t, err)
	assert.True(t, r.Specifier.Contains(version.MustParse("1.5")))
}
