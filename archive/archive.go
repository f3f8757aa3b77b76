// Package archive gives random access to files stored in zip archives (CBZ
// style books of page images) on top of "archive/zip".
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"golang.org/x/text/encoding"
)

// Archive is an open zip file with entries indexed by (decoded) name.
type Archive struct {
	path  string
	r     *zip.ReadCloser
	names []string
	files map[string]*zip.File
}

// Open reads archive directory. Entry names not flagged as UTF-8 are decoded
// with cp when it is not nil. Entries with absolute paths or path traversal
// components make the whole archive unacceptable.
func Open(archive string, cp encoding.Encoding) (*Archive, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, err
	}

	a := &Archive{path: archive, r: r, files: make(map[string]*zip.File, len(r.File))}
	for _, f := range r.File {
		name := f.Name
		if f.NonUTF8 && cp != nil {
			if decoded, err := cp.NewDecoder().String(name); err == nil {
				name = decoded
			}
		}
		if !isSafePath(name) {
			r.Close()
			return nil, fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() {
			continue
		}
		a.files[name] = f
		a.names = append(a.names, name)
	}
	sort.Sort(natural.StringSlice(a.names))
	return a, nil
}

// Path returns archive location.
func (a *Archive) Path() string {
	return a.path
}

// Names returns regular file names in natural order ("p2" before "p10").
func (a *Archive) Names() []string {
	return a.names
}

// Open opens named entry for reading.
func (a *Archive) Open(name string) (io.ReadCloser, error) {
	f, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %q not found in %s", name, a.path)
	}
	return f.Open()
}

// ReadFile reads whole named entry, reading at most limit bytes when limit > 0.
func (a *Archive) ReadFile(name string, limit int64) ([]byte, error) {
	rc, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit)
	}
	return io.ReadAll(r)
}

// Close releases archive.
func (a *Archive) Close() error {
	return a.r.Close()
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) || (len(name) > 1 && name[1] == ':') {
		return false
	}
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return false
		}
	}
	return true
}
