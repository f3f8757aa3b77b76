package viewport

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"
	"seehuhn.de/go/geom/vec"

	"flipbook/common"
	"flipbook/config"
	"flipbook/geometry"
	"flipbook/pagination"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *config.ViewerConfig {
	return &config.ViewerConfig{
		Flip: config.FlipConfig{Speed: 0.035, CommitThreshold: 0.3},
		Gestures: config.GesturesConfig{
			ClickThreshold:     300 * time.Millisecond,
			MoveThreshold:      10,
			DoubleTapThreshold: 300 * time.Millisecond,
			SingleClickDelay:   300 * time.Millisecond,
			CenterZone:         0.3,
			VelocityThreshold:  0.5,
			VelocityWindow:     100 * time.Millisecond,
		},
		Zoom: config.ZoomConfig{
			Scale:             2,
			Min:               1,
			Max:               4,
			RubberRange:       0.3,
			ResetThreshold:    1.1,
			AnimationDuration: 250 * time.Millisecond,
		},
		RubberBand: config.RubberBandConfig{Resistance: 0.3, MaxDistance: 80, SnapDuration: 300 * time.Millisecond},
		Inertia:    config.InertiaConfig{Deceleration: 0.95, StopVelocity: 0.1},
	}
}

func newMachine(t *testing.T, l pagination.Layout) *Machine {
	t.Helper()
	m := New(testConfig(), zaptest.NewLogger(t))
	view := geometry.Size{Width: 1000, Height: 800}
	m.SetGeometry(view, view)
	m.SetLayout(l)
	return m
}

// runUntilIdle steps machine one frame (16ms) at a time and returns number of
// frames it took.
func runUntilIdle(t *testing.T, m *Machine, now time.Time) (int, time.Time) {
	t.Helper()
	for i := 1; i <= 1000; i++ {
		now = now.Add(16 * time.Millisecond)
		if ev := m.Step(now); !ev.Moving {
			return i, now
		}
	}
	t.Fatal("machine never settled")
	return 0, now
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFlipFromCoverLandsOnFirstSpread(t *testing.T) {
	m := newMachine(t, pagination.Layout{TotalPages: 10, StartWithCover: true})

	if !m.StartFlip(1) {
		t.Fatal("StartFlip refused")
	}
	if st := m.State(); st.FlipTarget != 1 || !st.Flipping() || st.FlipDirection != 1 {
		t.Fatalf("unexpected state after StartFlip: %+v", st)
	}
	if m.StartFlip(1) {
		t.Error("second flip accepted while first one runs")
	}

	completed := false
	for range 100 {
		if ev := m.Step(t0); ev.FlipCompleted {
			completed = true
			break
		}
	}
	if !completed {
		t.Fatal("flip never completed")
	}
	st := m.State()
	if st.CurrentPage != 1 {
		t.Errorf("CurrentPage = %d, want 1", st.CurrentPage)
	}
	if st.Flipping() || st.FlipProgress != 0 {
		t.Errorf("flip state not cleared: %+v", st)
	}
}

func TestFlipRefusedPastEnd(t *testing.T) {
	m := newMachine(t, pagination.Layout{TotalPages: 10, StartWithCover: true})
	m.GoToPage(9)
	if m.StartFlip(1) {
		t.Error("flip past last spread accepted")
	}
	m.GoToPage(0)
	if m.StartFlip(-1) {
		t.Error("flip before first page accepted")
	}
}

func TestGoToPageSnaps(t *testing.T) {
	m := newMachine(t, pagination.Layout{TotalPages: 10, StartWithCover: true})
	for _, tt := range []struct{ in, want int }{{4, 3}, {3, 3}, {20, 9}, {-5, 0}, {0, 0}} {
		if got, _ := m.GoToPage(tt.in); got != tt.want {
			t.Errorf("GoToPage(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}

	m.GoToPage(3)
	m.SetLayout(pagination.Layout{TotalPages: 10})
	if p := m.State().CurrentPage; p != 2 {
		t.Errorf("page after layout switch = %d, want 2", p)
	}
}

func TestDragCommitsAndContinues(t *testing.T) {
	m := newMachine(t, pagination.Layout{TotalPages: 10})

	if !m.BeginDrag(900, 1, 200) {
		t.Fatal("BeginDrag refused")
	}
	m.UpdateDrag(820)
	if p := m.State().FlipProgress; !near(p, 0.4) {
		t.Fatalf("FlipProgress = %v, want 0.4", p)
	}
	if !m.EndDrag() {
		t.Fatal("drag past threshold not committed")
	}
	if d := m.State().Driver; d != common.DriverKindFlip {
		t.Fatalf("driver = %v, want flip", d)
	}

	m.Step(t0)
	if p := m.State().FlipProgress; !near(p, 0.435) {
		t.Errorf("flip did not continue from dragged progress: %v", p)
	}
	for range 100 {
		if m.Step(t0).FlipCompleted {
			break
		}
	}
	if p := m.State().CurrentPage; p != 2 {
		t.Errorf("CurrentPage = %d, want 2", p)
	}
}

func TestDragSpringsBack(t *testing.T) {
	m := newMachine(t, pagination.Layout{TotalPages: 10})
	m.GoToPage(4)

	if !m.BeginDrag(100, -1, 200) {
		t.Fatal("BeginDrag refused")
	}
	m.UpdateDrag(140)
	if m.EndDrag() {
		t.Fatal("short drag committed")
	}
	want := State{CurrentPage: 4, FlipTarget: 4, Scale: 1}
	if diff := cmp.Diff(want, m.State()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestPinchBelowMinimumIsDampedAndResets(t *testing.T) {
	m := newMachine(t, pagination.Layout{TotalPages: 10})

	if !m.BeginPinch(vec.Vec2{X: 400, Y: 400}, vec.Vec2{X: 600, Y: 400}) {
		t.Fatal("BeginPinch refused")
	}
	if !m.Locked() {
		t.Error("pinch does not lock dimensions")
	}
	m.UpdatePinch(vec.Vec2{X: 450, Y: 400}, vec.Vec2{X: 550, Y: 400})

	st := m.State()
	if st.Scale <= 0.5 || st.Scale >= 1 {
		t.Fatalf("applied scale %v not within (0.5, 1)", st.Scale)
	}
	if st.Zoomed {
		t.Error("pinch below minimum marked viewport zoomed")
	}

	m.EndPinch(t0)
	if m.Locked() {
		t.Error("lock survived pinch end")
	}
	_, now := runUntilIdle(t, m, t0)
	st = m.State()
	if st.Zoomed || st.Scale != 1 || st.Pan != (vec.Vec2{}) {
		t.Errorf("zoom not reset after settling at %v: %+v", now.Sub(t0), st)
	}
}

func TestPinchKeepsAnchorUnderMidpoint(t *testing.T) {
	m := newMachine(t, pagination.Layout{TotalPages: 10})

	m.BeginPinch(vec.Vec2{X: 300, Y: 300}, vec.Vec2{X: 400, Y: 300})
	m.UpdatePinch(vec.Vec2{X: 250, Y: 300}, vec.Vec2{X: 450, Y: 300})

	st := m.State()
	if !near(st.Scale, 2) {
		t.Fatalf("Scale = %v, want 2", st.Scale)
	}
	got := m.Transform().ToView(vec.Vec2{X: 350, Y: 300})
	if !near(got.X, 350) || !near(got.Y, 300) {
		t.Errorf("anchor moved to %v", got)
	}

	m.EndPinch(t0)
	st = m.State()
	if !st.Zoomed || st.Driver != common.DriverKindNone {
		t.Errorf("unexpected state after release: %+v", st)
	}
	if diff := cmp.Diff(vec.Vec2{X: 150, Y: 100}, st.Pan); diff != "" {
		t.Errorf("pan mismatch (-want +got):\n%s", diff)
	}
}

func TestPinchAboveMaximumSnapsToMaximum(t *testing.T) {
	m := newMachine(t, pagination.Layout{TotalPages: 10})

	m.BeginPinch(vec.Vec2{X: 490, Y: 400}, vec.Vec2{X: 510, Y: 400})
	m.UpdatePinch(vec.Vec2{X: 450, Y: 400}, vec.Vec2{X: 550, Y: 400})
	if s := m.State().Scale; s <= 4 || s >= 4+0.3*4 {
		t.Fatalf("applied scale %v not within (4, 5.2)", s)
	}

	m.EndPinch(t0)
	if d := m.State().Driver; d != common.DriverKindZoomAnim {
		t.Fatalf("driver = %v, want zoomAnim", d)
	}
	runUntilIdle(t, m, t0)
	if st := m.State(); st.Scale != 4 || !st.Zoomed {
		t.Errorf("unexpected state after snap: %+v", st)
	}
}

func TestPinchEndWithoutStartIsIgnored(t *testing.T) {
	m := newMachine(t, pagination.Layout{TotalPages: 10})
	m.EndPinch(t0)
	m.UpdatePinch(vec.Vec2{}, vec.Vec2{X: 1})
	if diff := cmp.Diff(State{Scale: 1}, m.State()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestToggleZoomSingleAnimation(t *testing.T) {
	m := newMachine(t, pagination.Layout{TotalPages: 10})
	p := vec.Vec2{X: 700, Y: 400}

	if !m.ToggleZoom(p, t0) {
		t.Fatal("zoom in refused")
	}
	if m.ToggleZoom(p, t0.Add(10*time.Millisecond)) {
		t.Error("second zoom animation accepted")
	}
	_, now := runUntilIdle(t, m, t0)

	st := m.State()
	if !st.Zoomed || st.Scale != 2 {
		t.Fatalf("unexpected state after zoom in: %+v", st)
	}
	// tapped content point stays under pointer
	if got := m.Transform().ToView(p); !near(got.X, p.X) || !near(got.Y, p.Y) {
		t.Errorf("tapped point moved to %v", got)
	}

	if !m.ToggleZoom(p, now) {
		t.Fatal("zoom out refused")
	}
	runUntilIdle(t, m, now)
	if diff := cmp.Diff(State{Scale: 1}, m.State()); diff != "" {
		t.Errorf("state mismatch after zoom out (-want +got):\n%s", diff)
	}
}

func zoomed(t *testing.T, scale float64) *Machine {
	t.Helper()
	m := newMachine(t, pagination.Layout{TotalPages: 10})
	m.st.Zoomed = true
	m.st.Scale = scale
	return m
}

func TestInertiaDecaysAndStops(t *testing.T) {
	m := zoomed(t, 4)
	if !m.StartInertia(vec.Vec2{X: 10}) {
		t.Fatal("StartInertia refused")
	}
	if !m.State().Inertial() {
		t.Fatal("inertia not active")
	}

	frames, _ := runUntilIdle(t, m, t0)
	if frames != 90 {
		t.Errorf("inertia stopped after %d frames, want 90", frames)
	}
	st := m.State()
	if st.Velocity != (vec.Vec2{}) || st.Driver != common.DriverKindNone {
		t.Errorf("inertia still running: %+v", st)
	}
	if st.Pan.X <= 150 || st.Pan.X >= 190 || st.Pan.Y != 0 {
		t.Errorf("unexpected final pan %v", st.Pan)
	}
}

func TestInertiaStopsAtBound(t *testing.T) {
	m := zoomed(t, 4)
	m.st.Pan = vec.Vec2{X: 1490}

	m.StartInertia(vec.Vec2{X: 10})
	frames, _ := runUntilIdle(t, m, t0)
	if frames != 2 {
		t.Errorf("inertia stopped after %d frames, want 2", frames)
	}
	if x := m.State().Pan.X; x != 1500 {
		t.Errorf("pan = %v, want clamped 1500", x)
	}
}

func TestPanOverscrollSnapsBack(t *testing.T) {
	m := zoomed(t, 2)
	start := vec.Vec2{X: 500, Y: 400}

	if !m.BeginPan(start, t0) {
		t.Fatal("BeginPan refused")
	}
	m.UpdatePan(vec.Vec2{X: 1100, Y: 400}, t0.Add(16*time.Millisecond))
	x := m.State().Pan.X
	if x <= 500 || x >= 580 {
		t.Fatalf("overscrolled pan %v not damped into (500, 580)", x)
	}

	m.EndPan(t0.Add(32 * time.Millisecond))
	if d := m.State().Driver; d != common.DriverKindRubberBand {
		t.Fatalf("driver = %v, want rubberBand", d)
	}
	runUntilIdle(t, m, t0.Add(32*time.Millisecond))
	if got := m.State().Pan; got != (vec.Vec2{X: 500}) {
		t.Errorf("pan after snap = %v, want {500 0}", got)
	}
}

func TestPanReleaseVelocity(t *testing.T) {
	tests := []struct {
		name    string
		moves   []float64
		step    time.Duration
		inertia bool
	}{
		{"fast flick", []float64{510, 520}, 16 * time.Millisecond, true},
		{"slow drag", []float64{501}, 100 * time.Millisecond, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := zoomed(t, 2)
			now := t0
			m.BeginPan(vec.Vec2{X: 500, Y: 400}, now)
			for _, x := range tt.moves {
				now = now.Add(tt.step)
				m.UpdatePan(vec.Vec2{X: x, Y: 400}, now)
			}
			m.EndPan(now)
			if got := m.State().Inertial(); got != tt.inertia {
				t.Errorf("inertia = %v, want %v", got, tt.inertia)
			}
		})
	}
}

func TestPanRequiresZoom(t *testing.T) {
	m := newMachine(t, pagination.Layout{TotalPages: 10})
	if m.BeginPan(vec.Vec2{}, t0) {
		t.Error("pan accepted while not zoomed")
	}
}

func TestResetZoomIsAtomic(t *testing.T) {
	m := zoomed(t, 3)
	m.GoToPage(4)
	m.st.Zoomed, m.st.Scale = true, 3
	m.st.Pan = vec.Vec2{X: 30, Y: -20}
	m.StartInertia(vec.Vec2{X: 5, Y: 5})

	m.ResetZoom()
	want := State{CurrentPage: 4, FlipTarget: 4, Scale: 1}
	if diff := cmp.Diff(want, m.State()); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
	if ev := m.Step(t0); ev.Moving {
		t.Error("driver survived reset")
	}
}
