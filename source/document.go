package source

import (
	"context"
	"errors"
	"image"
	"sync"

	"go.uber.org/zap"
	"seehuhn.de/go/geom/matrix"

	"flipbook/common"
	"flipbook/geometry"
	"flipbook/utils/images"
)

// Document is a paginated document decoder (PDF engine, image archive...).
type Document interface {
	NumPages() int
	Page(ctx context.Context, index int) (DocumentPage, error)
	// Destination resolves named destination to page index.
	Destination(ctx context.Context, name string) (int, error)
	Close() error
}

// DocumentPage is a single decoded page.
type DocumentPage interface {
	// Size returns page size at scale 1.
	Size() geometry.Size
	// Render rasterizes page at scale (1 = natural size in pixels).
	Render(ctx context.Context, scale float64) (image.Image, error)
	// Annotations returns link annotations in page user space: origin at
	// bottom-left, y grows up.
	Annotations(ctx context.Context) ([]Annotation, error)
}

// Annotation is a link annotation as document decoder reports it.
type Annotation struct {
	Rect       [4]float64 // x1, y1, x2, y2 in user space, any corner order
	URL        string
	Dest       string // named destination
	DestPage   *int   // resolved zero based page index
	DestNumber int    // raw one based page number
}

var errNoTarget = errors.New("annotation has no target")

// RasterDocumentSource renders pages of a live Document on demand.
type RasterDocumentSource struct {
	doc      Document
	log      *zap.Logger
	lowScale float64

	mu    sync.Mutex
	sizes map[int]geometry.Size
}

// NewRasterDocumentSource wraps doc. lowScale is the fraction of full
// resolution used for low fidelity rasters.
func NewRasterDocumentSource(doc Document, lowScale float64, log *zap.Logger) *RasterDocumentSource {
	if lowScale <= 0 || lowScale > 1 {
		lowScale = 1
	}
	return &RasterDocumentSource{
		doc:      doc,
		log:      log.Named("document"),
		lowScale: lowScale,
		sizes:    make(map[int]geometry.Size),
	}
}

func (s *RasterDocumentSource) PageCount() int {
	return s.doc.NumPages()
}

func (s *RasterDocumentSource) NaturalSize(ctx context.Context, index int) (geometry.Size, error) {
	s.mu.Lock()
	size, ok := s.sizes[index]
	s.mu.Unlock()
	if ok {
		return size, nil
	}
	page, err := s.page(ctx, index)
	if err != nil {
		return geometry.Size{}, err
	}
	return page.Size(), nil
}

func (s *RasterDocumentSource) page(ctx context.Context, index int) (DocumentPage, error) {
	if err := checkIndex(s, index); err != nil {
		return nil, err
	}
	page, err := s.doc.Page(ctx, index)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.sizes[index] = page.Size()
	s.mu.Unlock()
	return page, nil
}

func (s *RasterDocumentSource) Raster(ctx context.Context, req Request) (*Raster, error) {
	page, err := s.page(ctx, req.Index)
	if err != nil {
		return nil, fetchError(req.Index, req.Fidelity, err)
	}

	natural := page.Size()
	scale := natural.FitScale(req.Layout)
	if scale <= 0 {
		scale = 1
	}
	if req.PixelRatio > 0 {
		scale *= req.PixelRatio
	}
	if req.Fidelity == common.FidelityLow {
		scale *= s.lowScale
	}

	img, err := page.Render(ctx, scale)
	if err != nil {
		return nil, fetchError(req.Index, req.Fidelity, err)
	}
	return &Raster{Image: images.Compact(img), Natural: natural, Fidelity: req.Fidelity}, nil
}

func (s *RasterDocumentSource) Links(ctx context.Context, index int, layout geometry.Size) ([]Link, error) {
	page, err := s.page(ctx, index)
	if err != nil {
		return nil, err
	}
	anns, err := page.Annotations(ctx)
	if err != nil {
		return nil, err
	}
	if len(anns) == 0 {
		return nil, nil
	}

	natural := page.Size()
	if natural.IsZero() {
		return nil, errors.New("page has no size")
	}
	sx, sy := layout.Width/natural.Width, layout.Height/natural.Height
	// user space, y up -> layout space, y down
	m := matrix.Matrix{sx, 0, 0, -sy, 0, natural.Height * sy}

	links := make([]Link, 0, len(anns))
	for _, a := range anns {
		r := geometry.Normalize(a.Rect[0], a.Rect[1], a.Rect[2], a.Rect[3])
		links = append(links, Link{
			Rect:   geometry.TransformRect(m, r),
			Target: s.target(ctx, a),
		})
	}
	return links, nil
}

func (s *RasterDocumentSource) target(ctx context.Context, a Annotation) Target {
	switch {
	case len(a.URL) > 0:
		return URLTarget(a.URL)
	case a.DestPage != nil:
		return PageTarget(*a.DestPage)
	case len(a.Dest) > 0:
		index, err := s.Resolve(ctx, a.Dest)
		if err != nil {
			s.log.Debug("Link is inert", zap.Error(err))
			return Target{}
		}
		return PageTarget(index)
	case a.DestNumber > 0:
		return PageNumberTarget(a.DestNumber)
	}
	s.log.Debug("Link is inert", zap.Error(errNoTarget))
	return Target{}
}

func (s *RasterDocumentSource) Resolve(ctx context.Context, name string) (int, error) {
	index, err := s.doc.Destination(ctx, name)
	if err != nil {
		return 0, &LinkResolutionError{Destination: name, Err: err}
	}
	if index < 0 || index >= s.PageCount() {
		return 0, &LinkResolutionError{Destination: name, Err: checkIndex(s, index)}
	}
	return index, nil
}

func (s *RasterDocumentSource) Close() error {
	return s.doc.Close()
}
