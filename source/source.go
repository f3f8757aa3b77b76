// Package source defines PageSource, the capability the viewer uses to get
// page rasters and link rectangles, and its implementations.
package source

import (
	"context"
	"fmt"
	"image"

	"seehuhn.de/go/geom/rect"

	"flipbook/common"
	"flipbook/geometry"
)

// Target is where a link leads.
type Target struct {
	Kind common.TargetKind
	URL  string
	Page int
	Name string
}

// URLTarget returns external link target.
func URLTarget(url string) Target {
	return Target{Kind: common.TargetKindUrl, URL: url}
}

// PageTarget returns target for zero based page index.
func PageTarget(index int) Target {
	return Target{Kind: common.TargetKindPage, Page: index}
}

// PageNumberTarget returns target for one based page number.
func PageNumberTarget(n int) Target {
	return Target{Kind: common.TargetKindPageNumber, Page: n}
}

// NamedTarget returns target to be resolved by name.
func NamedTarget(name string) Target {
	return Target{Kind: common.TargetKindNamed, Name: name}
}

func (t Target) IsInert() bool {
	return t.Kind == common.TargetKindNone
}

func (t Target) String() string {
	switch t.Kind {
	case common.TargetKindUrl:
		return t.URL
	case common.TargetKindPage:
		return fmt.Sprintf("page index %d", t.Page)
	case common.TargetKindPageNumber:
		return fmt.Sprintf("page #%d", t.Page)
	case common.TargetKindNamed:
		return fmt.Sprintf("destination %q", t.Name)
	default:
		return "inert"
	}
}

// Link is a clickable rectangle in page layout space (origin top-left, y
// grows down, LLx<=URx, LLy<=URy).
type Link struct {
	Rect   rect.Rect
	Target Target
}

// Raster is a rendered page.
type Raster struct {
	Image    image.Image
	Natural  geometry.Size // page size at scale 1
	Fidelity common.Fidelity
}

// Request describes raster wanted by the cache.
type Request struct {
	Index      int
	Fidelity   common.Fidelity
	Layout     geometry.Size // size page occupies on screen, in CSS pixels
	PixelRatio float64       // device pixels per CSS pixel
}

// PageSource supplies page rasters and links. Implementations must be safe for
// concurrent use: the cache fetches different pages in parallel.
type PageSource interface {
	// PageCount returns number of pages in document.
	PageCount() int
	// NaturalSize returns page size at scale 1.
	NaturalSize(ctx context.Context, index int) (geometry.Size, error)
	// Raster renders page, errors are *PageFetchError.
	Raster(ctx context.Context, req Request) (*Raster, error)
	// Links returns page links mapped into supplied layout viewport.
	Links(ctx context.Context, index int, layout geometry.Size) ([]Link, error)
	// Resolve maps named destination to page index, errors are
	// *LinkResolutionError.
	Resolve(ctx context.Context, name string) (int, error)
	// Close releases underlying document.
	Close() error
}

func checkIndex(src PageSource, index int) error {
	if index < 0 || index >= src.PageCount() {
		return fmt.Errorf("page index %d out of range [0, %d)", index, src.PageCount())
	}
	return nil
}
