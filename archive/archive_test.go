package archive

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWheelBody = "Metadata-Version: 2.1\r\n" +
	"Name: foo\r\n" +
	"Version: 1.0\r\n" +
	"\r\n"

func TestArchivePathIsLazyAndMemoized(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("not a real wheel, just bytes"))
	}))
	defer srv.Close()

	cache, err := New("", srv.Client())
	require.NoError(t, err)
	defer cache.Close()

	a, err := New(cache, srv.URL+"/foo-1.0-py3-none-any.whl", "foo-1.0-py3-none-any.whl")
	require.NoError(t, err)
	assert.Equal(t, "foo", a.Name())

	assert.Equal(t, 0, hits, "no network activity before Path is called")

	ctx := dlog.NewTestContext(t, false)
	p1, err := a.Path(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	p2, err := a.Path(ctx)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
	assert.Equal(t, 1, hits, "second Path call must not re-download")
}

func TestArchiveMetadataDownloadsOnce(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(writeWheelZip(t))
	}))
	defer srv.Close()

	cache, err := New("", srv.Client())
	require.NoError(t, err)
	defer cache.Close()

	a, err := New(cache, srv.URL+"/foo-1.0-py3-none-any.whl", "foo-1.0-py3-none-any.whl")
	require.NoError(t, err)

	ctx := dlog.NewTestContext(t, false)
	md, err := a.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "foo", md.Name)
	assert.Equal(t, 1, hits)

	_, err = a.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, hits, "metadata must be memoised and reuse the downloaded path")
}

func TestArchiveNameVersionTagsFromFilenameOnly(t *testing.T) {
	cache, err := New("", nil)
	require.NoError(t, err)
	defer cache.Close()

	a, err := New(cache, "https://example/foo-2.1-py3-none-any.whl", "foo-2.1-py3-none-any.whl")
	require.NoError(t, err)

	assert.Equal(t, "foo", a.Name())
	assert.Equal(t, "2.1", a.Version().String())
	require.Len(t, a.Tags(), 1)
}

func writeWheelZip(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("foo-1.0.dist-info/METADATA")
	require.NoError(t, err)
	_, err = w.Write([]byte(testWheelBody))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}
