package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"seehuhn.de/go/geom/matrix"

	"flipbook/common"
	"flipbook/geometry"
	"flipbook/utils/images"
)

// maxImageSize limits single page image download.
const maxImageSize = 256 << 20

// Fetcher reads resources referenced by manifest.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// locationFetcher resolves references relative to manifest location, which
// is either URL or directory on disk.
type locationFetcher struct {
	base   *url.URL
	dir    string
	client *http.Client
}

// NewFetcher returns fetcher resolving relative references against location
// (manifest URL or path).
func NewFetcher(location string, client *http.Client) Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &locationFetcher{client: client}
	if isRemote(location) {
		f.base, _ = url.Parse(location)
		return f
	}
	f.dir = filepath.Dir(location)
	return f
}

func (f *locationFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := url.Parse(ref)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return f.get(ctx, u)
	}
	if f.base != nil {
		if err != nil {
			return nil, fmt.Errorf("bad reference %q: %w", ref, err)
		}
		return f.get(ctx, f.base.ResolveReference(u))
	}
	name := filepath.FromSlash(ref)
	if !filepath.IsAbs(name) {
		name = filepath.Join(f.dir, name)
	}
	return os.ReadFile(name)
}

func (f *locationFetcher) get(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", u, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
}

func isRemote(location string) bool {
	u, err := url.Parse(location)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// PrecomputedImageSource serves pages rendered in advance and described by
// Manifest.
type PrecomputedImageSource struct {
	m        *Manifest
	fetch    Fetcher
	log      *zap.Logger
	lowScale float64
}

// NewPrecomputedImageSource creates source from parsed manifest.
func NewPrecomputedImageSource(m *Manifest, fetch Fetcher, lowScale float64, log *zap.Logger) *PrecomputedImageSource {
	if lowScale <= 0 || lowScale > 1 {
		lowScale = 1
	}
	return &PrecomputedImageSource{m: m, fetch: fetch, log: log.Named("precomputed"), lowScale: lowScale}
}

// OpenManifest reads manifest from location (path or URL).
func OpenManifest(ctx context.Context, location string, client *http.Client, lowScale float64, log *zap.Logger) (*PrecomputedImageSource, error) {
	fetch := NewFetcher(location, client)
	var (
		data []byte
		err  error
	)
	if isRemote(location) {
		data, err = fetch.Fetch(ctx, location)
	} else {
		data, err = os.ReadFile(location)
	}
	if err != nil {
		return nil, &SourceLoadError{Location: location, Err: err}
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, &SourceLoadError{Location: location, Err: err}
	}
	return NewPrecomputedImageSource(m, fetch, lowScale, log), nil
}

// Manifest returns document description.
func (s *PrecomputedImageSource) Manifest() *Manifest {
	return s.m
}

func (s *PrecomputedImageSource) PageCount() int {
	return s.m.TotalPages
}

func (s *PrecomputedImageSource) NaturalSize(ctx context.Context, index int) (geometry.Size, error) {
	if err := checkIndex(s, index); err != nil {
		return geometry.Size{}, err
	}
	if size, ok := s.m.pageSize(index); ok {
		return size, nil
	}
	// no sizes in manifest, image itself is the page
	ref, _ := s.m.imageRef(index, false)
	data, err := s.fetch.Fetch(ctx, ref)
	if err != nil {
		return geometry.Size{}, err
	}
	w, h, err := images.Size(data)
	if err != nil {
		return geometry.Size{}, err
	}
	return geometry.Size{Width: w, Height: h}, nil
}

func (s *PrecomputedImageSource) Raster(ctx context.Context, req Request) (*Raster, error) {
	if err := checkIndex(s, req.Index); err != nil {
		return nil, fetchError(req.Index, req.Fidelity, err)
	}
	ref, isHigh := s.m.imageRef(req.Index, req.Fidelity == common.FidelityHigh)
	if len(ref) == 0 {
		return nil, fetchError(req.Index, req.Fidelity, errors.New("no image for page"))
	}
	data, err := s.fetch.Fetch(ctx, ref)
	if err != nil {
		return nil, fetchError(req.Index, req.Fidelity, err)
	}

	scale := 1.0
	if isHigh && req.Fidelity == common.FidelityLow {
		// no low resolution set, derive it
		scale = s.lowScale
	}
	img, err := images.Decode(data, scale)
	if err != nil {
		return nil, fetchError(req.Index, req.Fidelity, err)
	}

	natural, ok := s.m.pageSize(req.Index)
	if !ok {
		natural = geometry.Size{Width: float64(img.Bounds().Dx()) / scale, Height: float64(img.Bounds().Dy()) / scale}
	}
	fid := req.Fidelity
	if !isHigh {
		fid = common.FidelityLow
	}
	return &Raster{Image: images.Compact(img), Natural: natural, Fidelity: fid}, nil
}

func (s *PrecomputedImageSource) Links(ctx context.Context, index int, layout geometry.Size) ([]Link, error) {
	if err := checkIndex(s, index); err != nil {
		return nil, err
	}
	if index >= len(s.m.Links) || len(s.m.Links[index]) == 0 {
		return nil, nil
	}
	natural, err := s.NaturalSize(ctx, index)
	if err != nil {
		return nil, err
	}
	if natural.IsZero() {
		return nil, errors.New("page has no size")
	}
	m := matrix.Scale(layout.Width/natural.Width, layout.Height/natural.Height)

	links := make([]Link, 0, len(s.m.Links[index]))
	for _, l := range s.m.Links[index] {
		if len(l.Rect) != 4 {
			continue
		}
		t, err := s.m.target(l)
		if err != nil {
			s.log.Debug("Link is inert", zap.Int("page", index), zap.Error(err))
		}
		links = append(links, Link{
			Rect:   geometry.TransformRect(m, geometry.Normalize(l.Rect[0], l.Rect[1], l.Rect[2], l.Rect[3])),
			Target: t,
		})
	}
	return links, nil
}

func (s *PrecomputedImageSource) Resolve(_ context.Context, name string) (int, error) {
	index, ok := s.m.Destinations[strings.TrimPrefix(name, "#")]
	if !ok {
		return 0, &LinkResolutionError{Destination: name, Err: errors.New("not in destinations table")}
	}
	if err := checkIndex(s, index); err != nil {
		return 0, &LinkResolutionError{Destination: name, Err: err}
	}
	return index, nil
}

func (s *PrecomputedImageSource) Close() error {
	return nil
}
