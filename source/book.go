package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/maruel/natural"
	"golang.org/x/text/encoding"

	"flipbook/archive"
	"flipbook/common"
	"flipbook/geometry"
	"flipbook/utils/images"
)

// LinksSidecar is the name of optional file with extracted links stored next
// to page images. It has Manifest format, only pageSizes, links and
// destinations are used.
const LinksSidecar = "links.json"

// sniffSize is how much of a file is read to recognize image.
const sniffSize = 1024

// Book is a Document made of page images kept in zip archive or directory.
type Book struct {
	location string
	names    []string
	read     func(name string, limit int64) ([]byte, error)
	closer   io.Closer
	sidecar  *Manifest

	mu    sync.Mutex
	sizes map[int]geometry.Size
}

// OpenBook opens zip archive (cbz) or directory with page images. Non UTF-8
// zip entry names are decoded with cp.
func OpenBook(location string, cp encoding.Encoding) (*Book, error) {
	info, err := os.Stat(location)
	if err != nil {
		return nil, err
	}

	b := &Book{location: location, sizes: make(map[int]geometry.Size)}
	var names []string
	if info.IsDir() {
		entries, err := os.ReadDir(location)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.Type().IsRegular() {
				names = append(names, e.Name())
			}
		}
		sort.Sort(natural.StringSlice(names))
		b.read = func(name string, limit int64) ([]byte, error) {
			return readFile(filepath.Join(location, name), limit)
		}
	} else {
		arc, err := archive.Open(location, cp)
		if err != nil {
			return nil, err
		}
		names = arc.Names()
		b.read = arc.ReadFile
		b.closer = arc
	}

	for _, name := range names {
		if strings.EqualFold(filepath.Base(name), LinksSidecar) {
			if err := b.loadSidecar(name); err != nil {
				b.Close()
				return nil, err
			}
			continue
		}
		head, err := b.read(name, sniffSize)
		if err != nil {
			b.Close()
			return nil, err
		}
		if _, err := images.Kind(head); err == nil {
			b.names = append(b.names, name)
		}
	}
	if len(b.names) == 0 {
		b.Close()
		return nil, errors.New("no page images found")
	}
	return b, nil
}

func readFile(name string, limit int64) ([]byte, error) {
	if limit <= 0 {
		return os.ReadFile(name)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit))
}

func (b *Book) loadSidecar(name string) error {
	data, err := b.read(name, 0)
	if err != nil {
		return err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("unable to decode %s: %w", name, err)
	}
	b.sidecar = &m
	return nil
}

// Names returns page image names in page order.
func (b *Book) Names() []string {
	return b.names
}

func (b *Book) NumPages() int {
	return len(b.names)
}

func (b *Book) Page(_ context.Context, index int) (DocumentPage, error) {
	if index < 0 || index >= len(b.names) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(b.names))
	}
	size, err := b.size(index)
	if err != nil {
		return nil, err
	}
	return &bookPage{book: b, index: index, size: size}, nil
}

func (b *Book) size(index int) (geometry.Size, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if size, ok := b.sizes[index]; ok {
		return size, nil
	}
	if b.sidecar != nil {
		if size, ok := b.sidecar.pageSize(index); ok && index < len(b.sidecar.PageSizes) {
			b.sizes[index] = size
			return size, nil
		}
	}
	data, err := b.read(b.names[index], 0)
	if err != nil {
		return geometry.Size{}, err
	}
	w, h, err := images.Size(data)
	if err != nil {
		return geometry.Size{}, err
	}
	size := geometry.Size{Width: w, Height: h}
	b.sizes[index] = size
	return size, nil
}

func (b *Book) Destination(_ context.Context, name string) (int, error) {
	if b.sidecar != nil {
		if index, ok := b.sidecar.Destinations[name]; ok {
			return index, nil
		}
	}
	return 0, errors.New("unknown destination")
}

func (b *Book) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

type bookPage struct {
	book  *Book
	index int
	size  geometry.Size
}

func (p *bookPage) Size() geometry.Size {
	return p.size
}

func (p *bookPage) Render(ctx context.Context, scale float64) (image.Image, error) {
	data, err := p.book.read(p.book.names[p.index], 0)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// natural size may differ from pixel size when sidecar describes pages
	w, _, err := images.Size(data)
	if err != nil {
		return nil, err
	}
	if w > 0 && p.size.Width > 0 {
		scale *= p.size.Width / w
	}
	return images.Decode(data, scale)
}

// Annotations converts sidecar links (top-left origin) into user space.
func (p *bookPage) Annotations(_ context.Context) ([]Annotation, error) {
	m := p.book.sidecar
	if m == nil || p.index >= len(m.Links) {
		return nil, nil
	}
	h := p.size.Height
	anns := make([]Annotation, 0, len(m.Links[p.index]))
	for _, l := range m.Links[p.index] {
		if len(l.Rect) != 4 {
			continue
		}
		a := Annotation{Rect: [4]float64{l.Rect[0], h - l.Rect[1], l.Rect[2], h - l.Rect[3]}, DestPage: l.DestPage}
		if l.URL != nil {
			a.URL = *l.URL
		}
		if t, err := m.target(l); err == nil {
			switch t.Kind {
			case common.TargetKindPageNumber:
				a.DestNumber = t.Page
			case common.TargetKindPage:
				page := t.Page
				a.DestPage = &page
			}
		} else {
			var name string
			if json.Unmarshal(l.Dest, &name) == nil {
				a.Dest = name
			}
		}
		anns = append(anns, a)
	}
	return anns, nil
}
