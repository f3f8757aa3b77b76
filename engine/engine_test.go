package engine

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"seehuhn.de/go/geom/rect"

	"flipbook/common"
	"flipbook/config"
	"flipbook/geometry"
	"flipbook/gesture"
	"flipbook/source"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeSource has pages of 350x460, links are given in natural page space.
type fakeSource struct {
	count int
	links map[int][]source.Link
	dests map[string]int

	mu     sync.Mutex
	closed bool
}

var natural = geometry.Size{Width: 350, Height: 460}

func (s *fakeSource) PageCount() int { return s.count }

func (s *fakeSource) NaturalSize(context.Context, int) (geometry.Size, error) {
	return natural, nil
}

func (s *fakeSource) Raster(_ context.Context, req source.Request) (*source.Raster, error) {
	w, h := 35, 46
	if req.Fidelity == common.FidelityHigh {
		w, h = 350, 460
	}
	return &source.Raster{Image: image.NewRGBA(image.Rect(0, 0, w, h)), Natural: natural, Fidelity: req.Fidelity}, nil
}

func (s *fakeSource) Links(_ context.Context, index int, layout geometry.Size) ([]source.Link, error) {
	k := layout.Width / natural.Width
	var out []source.Link
	for _, l := range s.links[index] {
		out = append(out, source.Link{
			Rect:   rect.Rect{LLx: l.Rect.LLx * k, LLy: l.Rect.LLy * k, URx: l.Rect.URx * k, URy: l.Rect.URy * k},
			Target: l.Target,
		})
	}
	return out, nil
}

func (s *fakeSource) Resolve(_ context.Context, name string) (int, error) {
	if p, ok := s.dests[name]; ok {
		return p, nil
	}
	return 0, &source.LinkResolutionError{Destination: name, Err: errors.New("not found")}
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration: %v", err)
	}
	return cfg
}

type fixture struct {
	e     *Engine
	clock *fakeClock
	src   *fakeSource
	urls  []source.Target
}

func newFixture(t *testing.T, mode common.ViewMode, view geometry.Size, src *fakeSource) *fixture {
	t.Helper()
	cfg := testConfig(t)
	cfg.Viewer.Mode = mode
	f := &fixture{clock: &fakeClock{now: time.Unix(1700000000, 0)}, src: src}
	f.e = New(cfg, zaptest.NewLogger(t),
		WithClock(f.clock.Now),
		WithLinkHandler(func(target source.Target) { f.urls = append(f.urls, target) }),
	)
	t.Cleanup(func() { _ = f.e.Close() })

	f.e.Resize(view)
	if err := f.e.Load(context.Background(), src); err != nil {
		t.Fatalf("Load: %v", err)
	}
	f.e.Settle()
	return f
}

// tick advances clock by a frame and ticks.
func (f *fixture) tick() {
	f.clock.Advance(16 * time.Millisecond)
	f.e.Tick()
}

func (f *fixture) click(x, y float64) {
	f.e.HandlePointer(gesture.PointerEvent{Phase: common.PointerPhaseDown, X: x, Y: y})
	f.e.HandlePointer(gesture.PointerEvent{Phase: common.PointerPhaseUp, X: x, Y: y})
}

var landscape = geometry.Size{Width: 1200, Height: 800}

func TestGoToPageSnapsToSpread(t *testing.T) {
	f := newFixture(t, common.ViewModeDouble, landscape, &fakeSource{count: 10})

	if got := f.e.GoToPage(4); got != 3 {
		t.Errorf("GoToPage(4) = %d, want 3", got)
	}
	if got := f.e.PageInfo(); got != "4-5 / 10" {
		t.Errorf("PageInfo() = %q, want %q", got, "4-5 / 10")
	}
	if got := f.e.GoToPage(100); got != 9 {
		t.Errorf("GoToPage(100) = %d, want 9", got)
	}
	if got := f.e.GoToPage(-3); got != 0 {
		t.Errorf("GoToPage(-3) = %d, want 0", got)
	}
}

func TestOpenFailureLeavesEngineEmpty(t *testing.T) {
	f := newFixture(t, common.ViewModeDouble, landscape, &fakeSource{count: 10})

	err := f.e.Open(context.Background(), filepath.Join(t.TempDir(), "missing.cbz"), source.Options{})
	var sle *source.SourceLoadError
	if !errors.As(err, &sle) {
		t.Fatalf("Open error = %v, want SourceLoadError", err)
	}
	if n := f.e.PageCount(); n != 0 {
		t.Errorf("PageCount() = %d after failed load", n)
	}
	if !f.src.closed {
		t.Error("previous document was not closed")
	}
	frame := f.e.Tick()
	if frame.Info != "" || len(frame.Pages) != 0 || frame.Loading {
		t.Errorf("empty engine frame = %+v", frame)
	}
}

func TestInitialLoad(t *testing.T) {
	f := newFixture(t, common.ViewModeDouble, landscape, &fakeSource{count: 10})

	frame := f.e.Tick()
	if frame.Loading {
		t.Error("still loading after initial buffer arrived")
	}
	if frame.Info != "1 / 10" {
		t.Errorf("info = %q", frame.Info)
	}
	if len(frame.Pages) != 1 || frame.Pages[0].Surface == nil {
		t.Fatalf("cover page not ready: %+v", frame.Pages)
	}
	if frame.Pages[0].Fidelity != common.FidelityLow {
		t.Errorf("initial fidelity = %s", frame.Pages[0].Fidelity)
	}

	st := f.e.State()
	var cached []int
	for _, p := range st.Pages {
		if p.Surface {
			cached = append(cached, p.Index)
		}
	}
	if len(cached) != 4 || cached[0] != 0 || cached[3] != 3 {
		t.Errorf("initial buffer = %v, want pages 0-3", cached)
	}

	// refresh after initial delay upgrades visible page only
	f.clock.Advance(150 * time.Millisecond)
	f.e.Tick()
	f.e.Settle()
	frame = f.e.Tick()
	if frame.Pages[0].Fidelity != common.FidelityHigh {
		t.Errorf("visible page fidelity = %s, want high", frame.Pages[0].Fidelity)
	}
	for _, p := range f.e.State().Pages {
		if p.Index != 0 && p.Fidelity == common.FidelityHigh {
			t.Errorf("page %d upgraded without being visible", p.Index)
		}
	}
}

func TestFlipFromCover(t *testing.T) {
	f := newFixture(t, common.ViewModeDouble, landscape, &fakeSource{count: 10})

	if !f.e.Next() {
		t.Fatal("Next refused")
	}
	if vs := f.e.Viewport(); vs.FlipTarget != 1 {
		t.Errorf("flip target = %d, want 1", vs.FlipTarget)
	}
	if f.e.Prev() {
		t.Error("second flip accepted while first runs")
	}

	f.clock.Advance(16 * time.Millisecond)
	frame := f.e.Tick()
	if frame.Flip == nil || frame.Flip.Direction != 1 || len(frame.Flip.Target) != 2 {
		t.Fatalf("flip frame = %+v", frame.Flip)
	}
	if len(frame.Links) != 0 {
		t.Error("links shown during flip")
	}

	for range 100 {
		if !f.e.Viewport().Flipping() {
			break
		}
		f.tick()
	}
	if vs := f.e.Viewport(); vs.Flipping() || vs.CurrentPage != 1 {
		t.Fatalf("after flip: %+v", vs)
	}
	if got := f.e.PageInfo(); got != "2-3 / 10" {
		t.Errorf("PageInfo() = %q", got)
	}
}

func TestNavigationEvicts(t *testing.T) {
	f := newFixture(t, common.ViewModeDouble, landscape, &fakeSource{count: 10})

	if got := f.e.GoToPage(9); got != 9 {
		t.Fatalf("GoToPage(9) = %d", got)
	}
	f.e.Settle()

	for _, p := range f.e.State().Pages {
		if p.Surface && (p.Index < 7 || p.Index > 15) {
			t.Errorf("page %d kept surface outside keep window", p.Index)
		}
		if p.Index == 0 && p.Layout.IsZero() {
			t.Error("evicted page lost its layout")
		}
	}
	frame := f.e.Tick()
	if len(frame.Pages) != 1 || frame.Pages[0].Index != 9 || frame.Pages[0].Surface == nil {
		t.Errorf("last page not shown: %+v", frame.Pages)
	}
}

func linkCenter(t *testing.T, f *fixture, target source.Target) (float64, float64) {
	t.Helper()
	for _, l := range f.e.Tick().Links {
		if l.Target == target {
			return (l.Rect.LLx + l.Rect.URx) / 2, (l.Rect.LLy + l.Rect.URy) / 2
		}
	}
	t.Fatalf("link to %s not visible", target)
	return 0, 0
}

func TestLinkActivation(t *testing.T) {
	src := &fakeSource{
		count: 10,
		links: map[int][]source.Link{
			0: {
				{Rect: rect.Rect{LLx: 10, LLy: 10, URx: 110, URy: 60}, Target: source.URLTarget("https://example.com")},
				{Rect: rect.Rect{LLx: 10, LLy: 100, URx: 110, URy: 150}, Target: source.NamedTarget("chapter")},
				{Rect: rect.Rect{LLx: 10, LLy: 200, URx: 110, URy: 250}, Target: source.NamedTarget("missing")},
			},
			5: {
				{Rect: rect.Rect{LLx: 10, LLy: 10, URx: 110, URy: 60}, Target: source.PageNumberTarget(3)},
			},
		},
		dests: map[string]int{"chapter": 5},
	}
	f := newFixture(t, common.ViewModeDouble, landscape, src)

	f.click(linkCenter(t, f, source.URLTarget("https://example.com")))
	if len(f.urls) != 1 || f.urls[0].URL != "https://example.com" {
		t.Errorf("link handler got %v", f.urls)
	}

	f.click(linkCenter(t, f, source.NamedTarget("missing")))
	f.e.Settle()
	f.e.Tick()
	if vs := f.e.Viewport(); vs.CurrentPage != 0 {
		t.Errorf("unresolved destination navigated to %d", vs.CurrentPage)
	}

	f.click(linkCenter(t, f, source.NamedTarget("chapter")))
	f.e.Settle()
	f.e.Tick()
	if vs := f.e.Viewport(); vs.CurrentPage != 5 {
		t.Fatalf("named destination: current page %d, want 5", vs.CurrentPage)
	}

	f.e.Settle()
	f.click(linkCenter(t, f, source.PageNumberTarget(3)))
	if vs := f.e.Viewport(); vs.CurrentPage != 1 {
		t.Errorf("page number 3: current page %d, want 1", vs.CurrentPage)
	}
	if len(f.urls) != 1 {
		t.Errorf("internal links reached link handler: %v", f.urls)
	}
}

func TestLinksFadeAfterDwell(t *testing.T) {
	src := &fakeSource{
		count: 4,
		links: map[int][]source.Link{0: {{Rect: rect.Rect{LLx: 10, LLy: 10, URx: 50, URy: 50}, Target: source.URLTarget("u")}}},
	}
	f := newFixture(t, common.ViewModeDouble, landscape, src)

	if frame := f.e.Tick(); len(frame.Links) != 1 || frame.Links[0].Opacity != 1 {
		t.Fatalf("links after load = %+v", frame.Links)
	}
	f.clock.Advance(2100 * time.Millisecond)
	for range 15 {
		f.tick()
	}
	if frame := f.e.Tick(); len(frame.Links) != 0 {
		t.Errorf("links still visible: %+v", frame.Links)
	}
}

func TestCenterTapTogglesControls(t *testing.T) {
	f := newFixture(t, common.ViewModeDouble, landscape, &fakeSource{count: 10})

	f.click(600, 400)
	if f.e.Tick().Controls {
		t.Error("controls toggled before double tap window passed")
	}
	f.clock.Advance(400 * time.Millisecond)
	if !f.e.Tick().Controls {
		t.Error("controls not shown")
	}
}

func TestDoubleTapZooms(t *testing.T) {
	f := newFixture(t, common.ViewModeDouble, landscape, &fakeSource{count: 10})

	f.click(900, 400)
	f.clock.Advance(100 * time.Millisecond)
	f.click(900, 400)
	for range 30 {
		f.tick()
	}
	vs := f.e.Viewport()
	if !vs.Zoomed || vs.Scale != 2 {
		t.Errorf("after double tap: zoomed=%v scale=%v", vs.Zoomed, vs.Scale)
	}
	if f.e.Tick().Controls {
		t.Error("double tap toggled controls")
	}
}

func TestDragFlipsPage(t *testing.T) {
	f := newFixture(t, common.ViewModeDouble, landscape, &fakeSource{count: 10})

	f.e.HandlePointer(gesture.PointerEvent{Phase: common.PointerPhaseDown, X: 1100, Y: 400})
	f.clock.Advance(50 * time.Millisecond)
	f.e.HandlePointer(gesture.PointerEvent{Phase: common.PointerPhaseMove, X: 1000, Y: 400})
	f.e.HandlePointer(gesture.PointerEvent{Phase: common.PointerPhaseMove, X: 800, Y: 400})
	if vs := f.e.Viewport(); vs.Driver != common.DriverKindDrag || vs.FlipProgress != 0.5 {
		t.Fatalf("dragging: %+v", vs)
	}
	f.e.HandlePointer(gesture.PointerEvent{Phase: common.PointerPhaseUp, X: 800, Y: 400})
	for range 100 {
		if !f.e.Busy() {
			break
		}
		f.tick()
	}
	if vs := f.e.Viewport(); vs.CurrentPage != 1 {
		t.Errorf("current page after drag = %d, want 1", vs.CurrentPage)
	}
}

func TestResizeWaitsForPinch(t *testing.T) {
	f := newFixture(t, common.ViewModeAuto, landscape, &fakeSource{count: 10})

	touch := func(phase common.PointerPhase, id int, x float64) {
		f.e.HandlePointer(gesture.PointerEvent{Phase: phase, Device: common.PointerDeviceTouch, ID: id, X: x, Y: 400})
	}
	touch(common.PointerPhaseDown, 1, 400)
	touch(common.PointerPhaseDown, 2, 800)
	if vs := f.e.Viewport(); vs.Driver != common.DriverKindPinch {
		t.Fatalf("pinch not started: %+v", vs)
	}

	f.e.Resize(geometry.Size{Width: 600, Height: 900})
	f.clock.Advance(400 * time.Millisecond)
	f.e.Tick()
	if _, single := f.e.Mode(); single {
		t.Fatal("page mode switched while pinch holds dimensions")
	}

	touch(common.PointerPhaseUp, 1, 400)
	touch(common.PointerPhaseUp, 2, 800)
	f.tick()
	if _, single := f.e.Mode(); !single {
		t.Error("postponed resize not applied after pinch")
	}
	if st := f.e.State(); st.View != (geometry.Size{Width: 600, Height: 900}) {
		t.Errorf("view = %v", st.View)
	}
}

func TestSetModeResnaps(t *testing.T) {
	f := newFixture(t, common.ViewModeSingle, landscape, &fakeSource{count: 10})

	if got := f.e.GoToPage(4); got != 4 {
		t.Fatalf("single page GoToPage(4) = %d", got)
	}
	if got := f.e.PageInfo(); got != "5 / 10" {
		t.Errorf("PageInfo() = %q", got)
	}
	f.e.SetMode(common.ViewModeDouble)
	if vs := f.e.Viewport(); vs.CurrentPage != 3 {
		t.Errorf("after switch to double current page = %d, want 3", vs.CurrentPage)
	}
	if got := f.e.PageInfo(); got != "4-5 / 10" {
		t.Errorf("PageInfo() = %q", got)
	}
}

func TestSeek(t *testing.T) {
	f := newFixture(t, common.ViewModeDouble, landscape, &fakeSource{count: 10})

	if got := f.e.Seek(1); got != 9 {
		t.Errorf("Seek(1) = %d, want 9", got)
	}
	if got := f.e.Seek(0); got != 0 {
		t.Errorf("Seek(0) = %d, want 0", got)
	}
}

func TestStateDump(t *testing.T) {
	f := newFixture(t, common.ViewModeDouble, landscape, &fakeSource{count: 10})
	f.e.GoToPage(3)

	dump := f.e.State().String()
	for _, want := range []string{"info: \"4-5 / 10\"", "page: 3 driver: none", "view: 1200x800"} {
		if !strings.Contains(dump, want) {
			t.Errorf("state dump lacks %q:\n%s", want, dump)
		}
	}
}
