package index

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/foo/", r.URL.Path)
		w.Write([]byte(`<!DOCTYPE html>
<html><body>
<a href="https://files/foo-1.0-py3-none-any.whl#sha256=abc">foo-1.0-py3-none-any.whl</a>
<a href="https://files/foo-2.0-py3-none-any.whl" data-requires-python="&gt;=3.10">foo-2.0-py3-none-any.whl</a>
<a href="https://files/foo-1.0.tar.gz">foo-1.0.tar.gz</a>
</body></html>`))
	}))
	defer srv.Close()

	ctx := dlog.NewTestContext(t, false)
	client := NewClient(srv.URL, nil)
	links, err := client.ProjectPage(ctx, "Foo")
	require.NoError(t, err)

	require.Len(t, links, 2)
	assert.Equal(t, "foo-1.0-py3-none-any.whl", links[0].Filename)
	assert.Equal(t, "", links[0].RequiresPython)
	assert.Equal(t, "foo-2.0-py3-none-any.whl", links[1].Filename)
	assert.Equal(t, ">=3.10", links[1].RequiresPython)
}

func TestProjectPageNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ctx := dlog.NewTestContext(t, false)
	client := NewClient(srv.URL, nil)
	_, err := client.ProjectPage(ctx, "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}
