package wheel

import (
	"archive/zip"
	"bufio"
	"fmt"
	"net/textproto"
	"path"
	"sort"
	"strings"
)

// Metadata is the subset of a wheel's dist-info/METADATA headers this
// engine needs. METADATA is an RFC 822-style header block and fields
// like Requires-Dist and Provides-Extra repeat, so it is read with
// net/textproto rather than scanned line by line.
type Metadata struct {
	Name           string
	Version        string
	RequiresDist   []string
	ProvidesExtra  []string
	RequiresPython string
}

// ErrMetadataMissing is returned when a wheel has no resolvable
// dist-info/METADATA file.
var ErrMetadataMissing = fmt.Errorf("dist-info/METADATA not found")

// ReadMetadata opens path as a zip archive and parses its
// dist-info/METADATA file.
func ReadMetadata(archivePath string, f Filename) (Metadata, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return Metadata{}, fmt.Errorf("opening wheel %q: %w", archivePath, err)
	}
	defer zr.Close()

	dir, err := distInfoDir(zr.File)
	if err != nil {
		return Metadata{}, err
	}

	want := path.Join(dir, "METADATA")
	for _, file := range zr.File {
		if path.Clean(file.Name) != want {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return Metadata{}, fmt.Errorf("opening %s: %w", want, err)
		}
		defer rc.Close()

		header, err := textproto.NewReader(bufio.NewReader(rc)).ReadMIMEHeader()
		// ReadMIMEHeader stops at the blank line before any description
		// body. A METADATA file with no such blank line makes it report
		// io.EOF together with the headers it read; that is accepted as
		// long as ReadMIMEHeader returned a header map.
		if header == nil && err != nil {
			return Metadata{}, fmt.Errorf("parsing %s: %w", want, err)
		}

		return Metadata{
			Name:           header.Get("Name"),
			Version:        header.Get("Version"),
			RequiresDist:   header.Values("Requires-Dist"),
			ProvidesExtra:  header.Values("Provides-Extra"),
			RequiresPython: header.Get("Requires-Python"),
		}, nil
	}

	return Metadata{}, fmt.Errorf("%w: wanted %s in %s", ErrMetadataMissing, want, archivePath)
}

// distInfoDir resolves the single "*.dist-info" top-level directory in
// a wheel archive, based on pip's own wheel_dist_info_dir() resolution
// since PEP 427 does not define a tiebreak for ambiguous archives.
func distInfoDir(files []*zip.File) (string, error) {
	seen := make(map[string]struct{})
	for _, f := range files {
		top := strings.SplitN(path.Clean(f.Name), "/", 2)[0]
		if strings.HasSuffix(top, ".dist-info") {
			seen[top] = struct{}{}
		}
	}

	switch len(seen) {
	case 0:
		return "", fmt.Errorf("%w: no .dist-info directory", ErrMetadataMissing)
	case 1:
		for dir := range seen {
			return dir, nil
		}
	}

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return "", fmt.Errorf("%w: multiple .dist-info directories: %v", ErrMetadataMissing, dirs)
}
