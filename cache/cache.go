// Package cache keeps rendered page surfaces, page layouts and links for the
// pages around current position.
//
// Surfaces are fetched asynchronously from source.PageSource with at most one
// fetch per page in flight. Layouts and links are cheap and are kept when
// surfaces are evicted, they are only dropped when page slot geometry changes.
package cache

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"flipbook/common"
	"flipbook/geometry"
	"flipbook/source"
)

// Options tune cache behavior.
type Options struct {
	PixelRatio   float64
	Parallelism  int
	FetchTimeout time.Duration
	// OnUpdate is called (without cache locks held) after page data changes.
	OnUpdate func(index int)
}

// Entry is a snapshot of cached page.
type Entry struct {
	Index     int
	Surface   image.Image
	Fidelity  common.Fidelity
	Natural   geometry.Size
	Layout    geometry.Size
	Links     []source.Link
	HasLayout bool
}

type page struct {
	surface   image.Image
	fidelity  common.Fidelity
	natural   geometry.Size
	layout    geometry.Size
	links     []source.Link
	hasLayout bool
}

// Cache is safe for concurrent use.
type Cache struct {
	log  *zap.Logger
	opts Options

	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group
	wg     sync.WaitGroup

	mu        sync.Mutex
	src       source.PageSource
	session   uuid.UUID
	pages     map[int]*page
	slot      geometry.Size
	layoutGen uint64
}

var errNoSource = errors.New("no document loaded")

// New creates empty cache. Call Reset to attach document.
func New(opts Options, log *zap.Logger) *Cache {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 4
	}
	if opts.PixelRatio <= 0 {
		opts.PixelRatio = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		log:    log.Named("cache"),
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		pages:  make(map[int]*page),
	}
}

// Reset drops everything and attaches new source (nil detaches). Fetches
// still running for previous source complete and are discarded.
func (c *Cache) Reset(src source.PageSource) uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	c.src = src
	c.session = id
	c.pages = make(map[int]*page)
	c.layoutGen++
	return id
}

// SetSlot sets size of the page slot layouts are fitted into. Change drops all
// layouts and links, surfaces are kept. Returns true if size changed.
func (c *Cache) SetSlot(slot geometry.Size) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if slot == c.slot {
		return false
	}
	c.slot = slot
	c.layoutGen++
	for _, p := range c.pages {
		p.layout, p.links, p.hasLayout = geometry.Size{}, nil, false
	}
	return true
}

// Slot returns current page slot size.
func (c *Cache) Slot() geometry.Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slot
}

// PageCount returns number of pages of attached source.
func (c *Cache) PageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.src == nil {
		return 0
	}
	return c.src.PageCount()
}

// Get returns snapshot of page.
func (c *Cache) Get(index int) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pages[index]
	if !ok {
		return Entry{Index: index}, false
	}
	return Entry{
		Index:     index,
		Surface:   p.surface,
		Fidelity:  p.fidelity,
		Natural:   p.natural,
		Layout:    p.layout,
		Links:     p.links,
		HasLayout: p.hasLayout,
	}, true
}

// Surfaces returns sorted indexes of pages holding surfaces.
func (c *Cache) Surfaces() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []int
	for i, p := range c.pages {
		if p.surface != nil {
			out = append(out, i)
		}
	}
	slices.Sort(out)
	return out
}

// EnsureRange makes sure pages [lo, hi] have surfaces of at least requested
// fidelity together with layouts and links. Failure of one page does not stop
// others, all failures are returned combined.
func (c *Cache) EnsureRange(ctx context.Context, lo, hi int, fid common.Fidelity) error {
	count := c.PageCount()
	lo, hi = max(lo, 0), min(hi, count-1)
	if lo > hi {
		return nil
	}
	pages := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		pages = append(pages, i)
	}
	return c.ensurePages(ctx, pages, fid)
}

// EnsureHighFidelity upgrades pages to full resolution surfaces.
func (c *Cache) EnsureHighFidelity(ctx context.Context, pages []int) error {
	count := c.PageCount()
	valid := make([]int, 0, len(pages))
	for _, i := range pages {
		if i >= 0 && i < count {
			valid = append(valid, i)
		}
	}
	return c.ensurePages(ctx, valid, common.FidelityHigh)
}

func (c *Cache) ensurePages(ctx context.Context, pages []int, fid common.Fidelity) error {
	var (
		mu   sync.Mutex
		errs error
	)
	g := new(errgroup.Group)
	g.SetLimit(c.opts.Parallelism)
	for _, i := range pages {
		g.Go(func() error {
			if err := c.ensure(ctx, i, fid); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// Prefetch runs EnsureRange in background, failures are logged.
func (c *Cache) Prefetch(lo, hi int, fid common.Fidelity) {
	c.background(func(ctx context.Context) error {
		return c.EnsureRange(ctx, lo, hi, fid)
	})
}

// PrefetchHighFidelity runs EnsureHighFidelity in background.
func (c *Cache) PrefetchHighFidelity(pages []int) {
	pages = slices.Clone(pages)
	c.background(func(ctx context.Context) error {
		return c.EnsureHighFidelity(ctx, pages)
	})
}

func (c *Cache) background(fn func(ctx context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for _, err := range multierr.Errors(fn(c.ctx)) {
			if errors.Is(err, context.Canceled) {
				continue
			}
			c.log.Warn("Page fetch failed", zap.Error(err))
		}
	}()
}

// Wait blocks until all background prefetches finish.
func (c *Cache) Wait() {
	c.wg.Wait()
}

// Close cancels background fetches and waits for them.
func (c *Cache) Close() {
	c.cancel()
	c.wg.Wait()
}

// EvictOutside drops surfaces of pages outside [current-2, current+keep] and
// returns their indexes. Layouts and links stay.
func (c *Cache) EvictOutside(current, keep int) []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	lo, hi := current-2, current+keep
	var evicted []int
	for i, p := range c.pages {
		if p.surface != nil && (i < lo || i > hi) {
			p.surface, p.fidelity = nil, common.FidelityLow
			evicted = append(evicted, i)
		}
	}
	slices.Sort(evicted)
	if len(evicted) > 0 {
		c.log.Debug("Evicted pages", zap.Ints("pages", evicted), zap.Int("current", current))
	}
	return evicted
}

func (c *Cache) entry(index int) *page {
	p, ok := c.pages[index]
	if !ok {
		p = &page{}
		c.pages[index] = p
	}
	return p
}

func (c *Cache) state(index int, fid common.Fidelity) (session uuid.UUID, haveSurface, haveLayout bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pages[index]
	if !ok {
		return c.session, false, false
	}
	return c.session, p.surface != nil && p.fidelity.Satisfies(fid), p.hasLayout
}

// ensure waits for page surface and layout. Request joining fetch of lower
// fidelity (or racing with eviction or invalidation) checks again.
func (c *Cache) ensure(ctx context.Context, index int, fid common.Fidelity) error {
	for range 3 {
		session, haveSurface, haveLayout := c.state(index, fid)
		var key string
		switch {
		case !haveSurface:
			key = fmt.Sprintf("%s/raster/%d", session, index)
		case !haveLayout:
			key = fmt.Sprintf("%s/layout/%d", session, index)
		default:
			return nil
		}

		ch := c.group.DoChan(key, func() (any, error) {
			if !haveSurface {
				return nil, c.fetchRaster(session, index, fid)
			}
			return nil, c.fetchLayout(session, index)
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return res.Err
			}
		}
	}
	return nil
}

func (c *Cache) fetchContext() (context.Context, context.CancelFunc) {
	if c.opts.FetchTimeout > 0 {
		return context.WithTimeout(c.ctx, c.opts.FetchTimeout)
	}
	return context.WithCancel(c.ctx)
}

func (c *Cache) fetchRaster(session uuid.UUID, index int, fid common.Fidelity) error {
	c.mu.Lock()
	src, slot := c.src, c.slot
	c.mu.Unlock()
	if src == nil {
		return errNoSource
	}

	ctx, cancel := c.fetchContext()
	defer cancel()

	start := time.Now()
	r, err := src.Raster(ctx, source.Request{Index: index, Fidelity: fid, Layout: slot, PixelRatio: c.opts.PixelRatio})
	if err != nil {
		var pfe *source.PageFetchError
		if !errors.As(err, &pfe) {
			err = &source.PageFetchError{Index: index, Fidelity: fid, Err: err}
		}
		return err
	}

	c.mu.Lock()
	if session != c.session {
		c.mu.Unlock()
		return nil
	}
	p := c.entry(index)
	// never downgrade surface, fetch of lower fidelity may finish last
	if p.surface == nil || r.Fidelity >= p.fidelity {
		p.surface, p.fidelity = r.Image, r.Fidelity
	}
	p.natural = r.Natural
	c.mu.Unlock()

	c.log.Debug("Page fetched", zap.Int("page", index), zap.Stringer("fidelity", r.Fidelity), zap.Duration("elapsed", time.Since(start)))
	c.notify(index)
	return nil
}

func (c *Cache) fetchLayout(session uuid.UUID, index int) error {
	c.mu.Lock()
	src, slot, gen := c.src, c.slot, c.layoutGen
	natural := c.entry(index).natural
	c.mu.Unlock()
	if src == nil {
		return errNoSource
	}

	ctx, cancel := c.fetchContext()
	defer cancel()

	if natural.IsZero() {
		var err error
		if natural, err = src.NaturalSize(ctx, index); err != nil {
			return &source.PageFetchError{Index: index, Err: err}
		}
	}
	layout := natural
	if scale := natural.FitScale(slot); scale > 0 {
		layout = natural.Scale(scale)
	}
	links, err := src.Links(ctx, index, layout)
	if err != nil {
		return &source.PageFetchError{Index: index, Err: fmt.Errorf("links: %w", err)}
	}

	c.mu.Lock()
	if session != c.session || gen != c.layoutGen {
		// geometry changed while we were busy, caller will retry
		c.mu.Unlock()
		return nil
	}
	p := c.entry(index)
	p.natural, p.layout, p.links, p.hasLayout = natural, layout, links, true
	c.mu.Unlock()

	c.notify(index)
	return nil
}

func (c *Cache) notify(index int) {
	if c.opts.OnUpdate != nil {
		c.opts.OnUpdate(index)
	}
}
