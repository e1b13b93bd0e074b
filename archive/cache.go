// Package archive implements the content-addressed download-on-miss
// wheel cache and the lazy Archive handle built on top of it.
package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/datawire/dlib/dlog"
)

// ErrCachePathOccupied is returned when a wheel filename's cache path
// exists but is not a regular file.
var ErrCachePathOccupied = fmt.Errorf("cache path occupied by a non-regular-file entry")

// ErrNetworkIO wraps any HTTP or I/O failure encountered while
// fetching an index page or wheel file.
var ErrNetworkIO = fmt.Errorf("network or I/O failure")

// Cache is a flat, content-addressed directory of downloaded wheel
// files, named by their own filename — collision-free by PEP 427
// construction, since a wheel filename already encodes distribution,
// version, and tags.
//
// If the directory was created by New because the caller supplied
// none, Close removes it; a caller-supplied directory is left alone.
type Cache struct {
	Dir   string
	HTTP  *http.Client
	owned bool
}

// New opens (or creates) a wheel cache directory. An empty dir
// allocates a fresh temporary directory that Close will remove; a
// non-empty dir is used as-is and outlives the Cache.
func New(dir string, httpClient *http.Client) (*Cache, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o777); err != nil {
			return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
		}
		return &Cache{Dir: dir, HTTP: httpClient}, nil
	}

	tmp, err := os.MkdirTemp("", "pyresolve-cache-*")
	if err != nil {
		return nil, fmt.Errorf("creating temporary cache directory: %w", err)
	}
	return &Cache{Dir: tmp, HTTP: httpClient, owned: true}, nil
}

// Close removes the cache directory if it was created by New.
func (c *Cache) Close() error {
	if !c.owned {
		return nil
	}
	return os.RemoveAll(c.Dir)
}

// path returns the on-disk path a wheel of the given filename would
// live at, without touching the filesystem.
func (c *Cache) path(filename string) string {
	return filepath.Join(c.Dir, filename)
}

// fetch ensures filename is present in the cache, downloading it from
// url on a cache miss, and returns its on-disk path. Downloads are
// written to a temp file in the cache directory and atomically
// renamed into place so a crash mid-download never leaves a file that
// looks complete.
func (c *Cache) fetch(ctx context.Context, url, filename string) (string, error) {
	dst := c.path(filename)

	switch info, err := os.Stat(dst); {
	case err == nil:
		if !info.Mode().IsRegular() {
			return "", fmt.Errorf("%s: %w", dst, ErrCachePathOccupied)
		}
		return dst, nil
	case os.IsNotExist(err):
		// fall through to download
	default:
		return "", fmt.Errorf("statting %s: %w", dst, err)
	}

	dlog.Infof(ctx, "cache miss: downloading %s", filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", filename, ErrNetworkIO, err)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", filename, ErrNetworkIO, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: %w: unexpected status %s", filename, ErrNetworkIO, res.Status)
	}

	tmp, err := os.CreateTemp(c.Dir, filename+".part-*")
	if err != nil {
		return "", fmt.Errorf("creating temp download file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if _, err := io.Copy(tmp, res.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%s: %w: %v", filename, ErrNetworkIO, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%s: %w: %v", filename, ErrNetworkIO, err)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("installing %s into cache: %w", filename, err)
	}

	return dst, nil
}
