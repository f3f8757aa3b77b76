// Package engine ties page cache, viewport state machine, gesture controller
// and link tester together into a viewer driven by a render tick.
//
// All state lives behind one mutex. Input handlers and Tick mutate it
// synchronously, page fetches run in background and only mark the engine
// dirty. Link handler is always called with the mutex released.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"flipbook/cache"
	"flipbook/common"
	"flipbook/compose"
	"flipbook/config"
	"flipbook/geometry"
	"flipbook/gesture"
	"flipbook/links"
	"flipbook/pagination"
	"flipbook/sched"
	"flipbook/source"
	"flipbook/viewport"
)

// LinkHandler receives external link targets (URLs).
type LinkHandler func(target source.Target)

// Option configures engine.
type Option func(*Engine)

// WithClock replaces wall clock, replay uses synthetic one.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// WithLinkHandler sets callback for activated URL links.
func WithLinkHandler(h LinkHandler) Option {
	return func(e *Engine) {
		e.onLink = h
	}
}

// resolution is named destination lookup finished in background.
type resolution struct {
	gen  uuid.UUID
	name string
	page int
}

// Engine is a book viewer without a window: it consumes pointer events and
// produces frames.
type Engine struct {
	cfg   *config.Config
	log   *zap.Logger
	clock func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	dirty  atomic.Bool
	onLink LinkHandler

	mu       sync.Mutex
	src      source.PageSource
	gen      uuid.UUID
	cache    *cache.Cache
	vp       *viewport.Machine
	gest     *gesture.Controller
	timers   *sched.Timers
	fader    *links.Fader
	mode     common.ViewMode
	view     geometry.Size
	slot     geometry.Size
	aspect   float64
	stale    bool // geometry change waits for pinch to end
	controls bool
	loading  bool
	seq      uint64
	now      time.Time
	resolved []resolution
	outbox   []source.Target // URL links to hand over outside of lock
}

// New returns engine with no document.
func New(cfg *config.Config, log *zap.Logger, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:    cfg,
		log:    log.Named("engine"),
		clock:  time.Now,
		ctx:    ctx,
		cancel: cancel,
		timers: sched.New(),
		mode:   cfg.Viewer.Mode,
		aspect: cfg.Viewer.DefaultAspect,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cache = cache.New(cache.Options{
		PixelRatio:   cfg.Viewer.PixelRatio,
		Parallelism:  cfg.Cache.Parallelism,
		FetchTimeout: cfg.Cache.FetchTimeout,
		OnUpdate:     func(int) { e.dirty.Store(true) },
	}, log)
	e.vp = viewport.New(&cfg.Viewer, log)
	e.gest = gesture.New(&cfg.Viewer.Gestures, (*host)(e), e.timers, log)
	e.fader = links.NewFader(&cfg.Viewer.Links)
	return e
}

// Open loads source from location. On failure engine is left empty and
// error is *source.SourceLoadError.
func (e *Engine) Open(ctx context.Context, location string, opts source.Options) error {
	src, err := source.Open(ctx, location, opts, e.log)
	if err != nil {
		e.mu.Lock()
		e.detach()
		e.mu.Unlock()
		return err
	}
	return e.Load(ctx, src)
}

// Load attaches opened source, engine owns it from now on. Initial buffer is
// requested at low fidelity, visible pages are upgraded shortly after.
func (e *Engine) Load(ctx context.Context, src source.PageSource) error {
	aspect := e.cfg.Viewer.DefaultAspect
	if src.PageCount() > 0 {
		natural, err := src.NaturalSize(ctx, 0)
		switch {
		case err == nil && !natural.IsZero():
			aspect = natural.Aspect()
		case err != nil:
			e.log.Warn("Unable to get first page size, using default aspect", zap.Error(err))
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.detach()
	e.now = e.clock()
	e.src = src
	e.gen = e.cache.Reset(src)
	e.aspect = aspect
	e.loading = src.PageCount() > 0
	e.applyGeometry(true)
	e.vp.GoToPage(0)

	single := e.vp.Layout().SinglePage
	e.cache.Prefetch(0, e.cfg.Cache.InitialBuffer(single)-1, common.FidelityLow)
	e.scheduleRefresh(e.cfg.Cache.InitialRefreshDelay)
	e.showLinks()

	e.log.Info("Document loaded",
		zap.Int("pages", src.PageCount()),
		zap.Float64("aspect", aspect),
		zap.Stringer("generation", e.gen))
	return nil
}

// detach closes current source and returns to empty state.
func (e *Engine) detach() {
	if e.src != nil {
		if err := e.src.Close(); err != nil {
			e.log.Warn("Unable to close document", zap.Error(err))
		}
	}
	e.src = nil
	e.gen = e.cache.Reset(nil)
	e.gest.Reset(e.now)
	e.timers.Reset()
	e.vp.SetLayout(pagination.Layout{})
	e.resolved = nil
	e.loading = false
	e.aspect = e.cfg.Viewer.DefaultAspect
}

// Close releases document and waits for background work.
func (e *Engine) Close() error {
	e.cancel()
	e.wg.Wait()
	e.cache.Close()

	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	if e.src != nil {
		err = e.src.Close()
		e.src = nil
	}
	return err
}

// Settle waits for background page fetches and destination lookups started
// so far.
func (e *Engine) Settle() {
	e.cache.Wait()
	e.wg.Wait()
}

// PageCount returns number of pages of loaded document.
func (e *Engine) PageCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vp.Layout().TotalPages
}

// PageInfo returns position text, e.g. "4-5 / 10".
func (e *Engine) PageInfo() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return pagination.Format(e.vp.State().CurrentPage, e.vp.Layout())
}

// Viewport returns snapshot of viewport state.
func (e *Engine) Viewport() viewport.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vp.State()
}

// Busy reports whether something is still moving or fading.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vp.State().Driver != common.DriverKindNone || e.gest.Active()
}

// HandlePointer feeds pointer event. Zero event time means now.
func (e *Engine) HandlePointer(ev gesture.PointerEvent) {
	e.mu.Lock()
	if ev.Time.IsZero() {
		ev.Time = e.clock()
	}
	e.now = ev.Time
	e.gest.Handle(ev)
	out := e.takeOutbox()
	e.mu.Unlock()

	e.deliver(out)
}

// Tick advances timers and motion by one frame and returns frame to draw.
func (e *Engine) Tick() *compose.Frame {
	e.mu.Lock()
	now := e.clock()
	e.now = now

	e.timers.Fire(now)
	e.applyResolved()
	if e.stale && !e.vp.Locked() {
		e.applyGeometry(false)
	}

	ev := e.vp.Step(now)
	if ev.FlipCompleted {
		e.navigated(e.cfg.Cache.FlipRefreshDelay)
	}
	e.fader.Step()
	e.dirty.Store(false)

	f := e.frame()
	out := e.takeOutbox()
	e.mu.Unlock()

	e.deliver(out)
	return f
}

// Dirty reports whether page data arrived since last Tick.
func (e *Engine) Dirty() bool {
	return e.dirty.Load()
}

func (e *Engine) takeOutbox() []source.Target {
	out := e.outbox
	e.outbox = nil
	return out
}

func (e *Engine) deliver(targets []source.Target) {
	for _, t := range targets {
		if e.onLink == nil {
			e.log.Info("Link activated", zap.Stringer("target", t))
			continue
		}
		e.onLink(t)
	}
}

// layoutOf returns page layout size known to cache, zero when not fetched.
func (e *Engine) layoutOf(index int) geometry.Size {
	entry, ok := e.cache.Get(index)
	if !ok || !entry.HasLayout {
		return geometry.Size{}
	}
	return entry.Layout
}

func (e *Engine) spread(page int) compose.Spread {
	return compose.Layout(page, e.vp.Layout(), e.slot, e.layoutOf)
}

func (e *Engine) pages(s compose.Spread) []compose.Page {
	out := make([]compose.Page, 0, len(s.Pages))
	for _, p := range s.Pages {
		entry, _ := e.cache.Get(p.Index)
		out = append(out, compose.Page{Placement: p, Surface: entry.Surface, Fidelity: entry.Fidelity})
	}
	return out
}

// tester returns link tester of current spread, no links are active while
// page turns.
func (e *Engine) tester() links.Tester {
	st := e.vp.State()
	t := links.Tester{Transform: e.vp.Transform()}
	if st.Flipping() {
		return t
	}
	for _, p := range e.spread(st.CurrentPage).Pages {
		entry, ok := e.cache.Get(p.Index)
		if !ok || !entry.HasLayout {
			continue
		}
		t.Pages = append(t.Pages, links.Page{Placement: p, Layout: entry.Layout, Links: entry.Links})
	}
	return t
}

func (e *Engine) frame() *compose.Frame {
	e.seq++
	st := e.vp.State()
	l := e.vp.Layout()
	s := e.spread(st.CurrentPage)

	f := &compose.Frame{
		Seq:       e.seq,
		View:      e.view,
		Transform: e.vp.Transform(),
		Spread:    s,
		Pages:     e.pages(s),
		Info:      pagination.Format(st.CurrentPage, l),
		Controls:  e.controls,
		Progress:  pagination.ProgressFromPage(st.CurrentPage, l),
	}

	if e.loading {
		e.loading = false
		for _, p := range f.Pages {
			if p.Surface == nil {
				e.loading = true
				break
			}
		}
	}
	f.Loading = e.loading

	if st.Flipping() && st.FlipDirection != 0 && st.FlipTarget != st.CurrentPage {
		f.Flip = &compose.Flip{
			Direction: st.FlipDirection,
			Progress:  st.FlipProgress,
			Target:    e.pages(e.spread(st.FlipTarget)),
		}
		return f
	}
	f.Links = e.tester().Overlays(e.fader.Opacity(), e.fader.Hovered())
	return f
}
