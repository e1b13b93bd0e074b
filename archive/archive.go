package archive

import (
	"context"
	"fmt"
	"sync"

	"github.com/FFY00/python-resolver/tag"
	"github.com/FFY00/python-resolver/version"
	"github.com/FFY00/python-resolver/wheel"
)

// Archive is a lazy handle to a single wheel file referenced by an
// index. Its filename is decoded eagerly (no I/O); its downloaded
// path and parsed metadata are each computed at most once, on first
// observation, and memoised for the Archive's lifetime.
type Archive struct {
	cache    *Cache
	url      string
	filename wheel.Filename

	pathOnce sync.Once
	path     string
	pathErr  error

	metaOnce sync.Once
	meta     wheel.Metadata
	metaErr  error
}

// New binds a Cache to one archive link. The filename is parsed
// immediately since name/version/tags all come from it without
// opening the file; downloading and metadata extraction stay lazy.
func New(cache *Cache, url, filename string) (*Archive, error) {
	f, err := wheel.ParseFilename(filename)
	if err != nil {
		return nil, err
	}

	return &Archive{cache: cache, url: url, filename: f}, nil
}

// Name is the archive's canonicalized distribution name.
func (a *Archive) Name() string { return a.filename.Name }

// Version is the version encoded in the archive's filename.
func (a *Archive) Version() version.Version { return a.filename.Version }

// Tags is the set of compatibility tags encoded in the archive's
// filename.
func (a *Archive) Tags() []tag.Tag { return a.filename.Tags }

// Filename returns the wheel filename as it appeared on the index.
func (a *Archive) Filename() string { return a.filename.Raw }

// Path downloads the wheel into the cache on first call and returns
// its on-disk path; subsequent calls return the memoised result
// without touching the network again.
func (a *Archive) Path(ctx context.Context) (string, error) {
	a.pathOnce.Do(func() {
		a.path, a.pathErr = a.cache.fetch(ctx, a.url, a.filename.Raw)
	})
	return a.path, a.pathErr
}

// Metadata downloads the wheel if necessary and parses its
// dist-info/METADATA, memoising the result. A wheel is never
// downloaded for its metadata alone unless the caller actually
// requests it.
func (a *Archive) Metadata(ctx context.Context) (wheel.Metadata, error) {
	a.metaOnce.Do(func() {
		path, err := a.Path(ctx)
		if err != nil {
			a.metaErr = err
			return
		}
		a.meta, a.metaErr = wheel.ReadMetadata(path, a.filename)
	})
	return a.meta, a.metaErr
}

func (a *Archive) String() string {
	return fmt.Sprintf("%s-%s", a.filename.Name, a.filename.Version)
}
