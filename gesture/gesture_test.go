package gesture

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"seehuhn.de/go/geom/vec"

	"flipbook/common"
	"flipbook/config"
	"flipbook/geometry"
	"flipbook/links"
	"flipbook/sched"
	"flipbook/viewport"
)

type fakeHost struct {
	calls  []string
	state  viewport.State
	link   *links.Hit
	noDrag bool
}

func (h *fakeHost) record(format string, args ...any) {
	h.calls = append(h.calls, fmt.Sprintf(format, args...))
}

func (h *fakeHost) State() viewport.State { return h.state }
func (h *fakeHost) View() geometry.Size   { return geometry.Size{Width: 1000, Height: 800} }
func (h *fakeHost) PageWidth() float64    { return 400 }

func (h *fakeHost) LinkAt(vec.Vec2) (links.Hit, bool) {
	if h.link == nil {
		return links.Hit{}, false
	}
	return *h.link, true
}
func (h *fakeHost) HoverLink(p vec.Vec2)      { h.record("hover %v,%v", p.X, p.Y) }
func (h *fakeHost) ActivateLink(l links.Hit)  { h.record("link %d/%d", l.Page, l.Index) }
func (h *fakeHost) ToggleControls()           { h.record("controls") }
func (h *fakeHost) Seek(progress float64)     { h.record("seek %.2f", progress) }
func (h *fakeHost) UpdateDrag(x float64)      { h.record("drag %v", x) }
func (h *fakeHost) EndPan(time.Time)          { h.record("end pan") }
func (h *fakeHost) UpdatePinch(a, b vec.Vec2) { h.record("pinch %v", b.Sub(a).Length()) }
func (h *fakeHost) EndPinch(time.Time)        { h.record("end pinch") }

func (h *fakeHost) UpdatePan(p vec.Vec2, _ time.Time) {
	h.record("pan %v,%v", p.X, p.Y)
}

func (h *fakeHost) ToggleZoom(p vec.Vec2, _ time.Time) bool {
	h.record("zoom %v,%v", p.X, p.Y)
	return true
}

func (h *fakeHost) BeginDrag(x float64, direction int, width float64) bool {
	if h.noDrag {
		return false
	}
	h.record("begin drag %v %d %v", x, direction, width)
	return true
}

func (h *fakeHost) EndDrag() bool {
	h.record("end drag")
	return true
}

func (h *fakeHost) BeginPan(p vec.Vec2, _ time.Time) bool {
	h.record("begin pan %v,%v", p.X, p.Y)
	return true
}

func (h *fakeHost) BeginPinch(a, b vec.Vec2) bool {
	h.record("begin pinch %v", b.Sub(a).Length())
	return true
}

func testGestures() *config.GesturesConfig {
	return &config.GesturesConfig{
		ClickThreshold:     300 * time.Millisecond,
		MoveThreshold:      10,
		DoubleTapThreshold: 300 * time.Millisecond,
		SingleClickDelay:   300 * time.Millisecond,
		CenterZone:         0.3,
		VelocityThreshold:  0.5,
		VelocityWindow:     100 * time.Millisecond,
	}
}

var epoch = time.Unix(1700000000, 0)

func ms(n int) time.Time {
	return epoch.Add(time.Duration(n) * time.Millisecond)
}

func mouse(phase common.PointerPhase, x, y float64, at int) PointerEvent {
	return PointerEvent{Phase: phase, Device: common.PointerDeviceMouse, X: x, Y: y, Time: ms(at)}
}

func touch(phase common.PointerPhase, id int, x, y float64, at int) PointerEvent {
	return PointerEvent{Phase: phase, Device: common.PointerDeviceTouch, ID: id, X: x, Y: y, Time: ms(at)}
}

func newController(t *testing.T, h *fakeHost) (*Controller, *sched.Timers) {
	t.Helper()
	timers := sched.New()
	return New(testGestures(), h, timers, zaptest.NewLogger(t)), timers
}

func TestGestures(t *testing.T) {
	tests := []struct {
		name   string
		zoomed bool
		link   *links.Hit
		events []PointerEvent
		fire   int // fire timers at this time, when not zero
		want   []string
	}{
		{
			name: "center tap toggles controls after delay",
			events: []PointerEvent{
				mouse(common.PointerPhaseDown, 500, 400, 0),
				mouse(common.PointerPhaseUp, 502, 401, 100),
			},
			fire: 500,
			want: []string{"controls"},
		},
		{
			name: "edge tap does nothing",
			events: []PointerEvent{
				mouse(common.PointerPhaseDown, 950, 400, 0),
				mouse(common.PointerPhaseUp, 950, 400, 100),
			},
			fire: 500,
		},
		{
			name: "double tap zooms and cancels toggle",
			events: []PointerEvent{
				mouse(common.PointerPhaseDown, 500, 400, 0),
				mouse(common.PointerPhaseUp, 500, 400, 50),
				mouse(common.PointerPhaseDown, 800, 100, 150),
				mouse(common.PointerPhaseUp, 800, 100, 200),
			},
			fire: 1000,
			want: []string{"zoom 800,100"},
		},
		{
			name: "slow second tap is another single tap",
			events: []PointerEvent{
				mouse(common.PointerPhaseDown, 500, 400, 0),
				mouse(common.PointerPhaseUp, 500, 400, 50),
				mouse(common.PointerPhaseDown, 500, 400, 390),
				mouse(common.PointerPhaseUp, 500, 400, 400),
			},
			fire: 1000,
			want: []string{"controls", "controls"},
		},
		{
			name: "link takes priority",
			link: &links.Hit{Page: 3, Index: 1},
			events: []PointerEvent{
				mouse(common.PointerPhaseDown, 500, 400, 0),
				mouse(common.PointerPhaseUp, 500, 400, 100),
			},
			fire: 1000,
			want: []string{"link 3/1"},
		},
		{
			name: "long press is not a tap",
			events: []PointerEvent{
				mouse(common.PointerPhaseDown, 500, 400, 0),
				mouse(common.PointerPhaseUp, 500, 400, 400),
			},
			fire: 1000,
		},
		{
			name: "drag on right side turns forward",
			events: []PointerEvent{
				mouse(common.PointerPhaseDown, 900, 400, 0),
				mouse(common.PointerPhaseMove, 895, 400, 10),
				mouse(common.PointerPhaseMove, 850, 400, 20),
				mouse(common.PointerPhaseMove, 700, 400, 30),
				mouse(common.PointerPhaseUp, 690, 400, 40),
			},
			want: []string{"begin drag 900 1 400", "drag 850", "drag 700", "drag 690", "end drag"},
		},
		{
			name: "drag on left side turns back",
			events: []PointerEvent{
				mouse(common.PointerPhaseDown, 100, 400, 0),
				mouse(common.PointerPhaseMove, 300, 400, 30),
				mouse(common.PointerPhaseUp, 300, 400, 40),
			},
			want: []string{"begin drag 100 -1 400", "drag 300", "drag 300", "end drag"},
		},
		{
			name:   "zoomed drag pans",
			zoomed: true,
			events: []PointerEvent{
				mouse(common.PointerPhaseDown, 500, 400, 0),
				mouse(common.PointerPhaseMove, 520, 400, 16),
				mouse(common.PointerPhaseUp, 540, 400, 32),
			},
			want: []string{"begin pan 500,400", "pan 520,400", "end pan"},
		},
		{
			name: "hover without button",
			events: []PointerEvent{
				mouse(common.PointerPhaseMove, 10, 20, 0),
			},
			want: []string{"hover 10,20"},
		},
		{
			name: "scrollbar drag seeks",
			events: []PointerEvent{
				{Phase: common.PointerPhaseDown, Target: common.PointerTargetScrollbar, X: 36, Y: 780, Time: ms(0)},
				{Phase: common.PointerPhaseMove, Target: common.PointerTargetScrollbar, X: 964, Y: 780, Time: ms(20)},
				{Phase: common.PointerPhaseUp, Target: common.PointerTargetScrollbar, X: 964, Y: 780, Time: ms(40)},
			},
			fire: 1000,
			want: []string{"seek 0.00", "seek 1.00", "seek 1.00"},
		},
		{
			name: "second finger starts pinch",
			events: []PointerEvent{
				touch(common.PointerPhaseDown, 1, 400, 400, 0),
				touch(common.PointerPhaseDown, 2, 600, 400, 10),
				touch(common.PointerPhaseMove, 2, 800, 400, 20),
				touch(common.PointerPhaseUp, 1, 400, 400, 30),
				touch(common.PointerPhaseUp, 2, 800, 400, 40),
			},
			want: []string{"begin pinch 200", "pinch 400", "end pinch"},
		},
		{
			name: "finger left after pinch does not turn page",
			events: []PointerEvent{
				touch(common.PointerPhaseDown, 1, 600, 400, 0),
				touch(common.PointerPhaseDown, 2, 800, 400, 10),
				touch(common.PointerPhaseMove, 2, 810, 400, 20),
				touch(common.PointerPhaseUp, 2, 810, 400, 30),
				touch(common.PointerPhaseMove, 1, 400, 400, 40),
				touch(common.PointerPhaseMove, 1, 200, 400, 50),
				touch(common.PointerPhaseUp, 1, 200, 400, 60),
			},
			fire: 1000,
			want: []string{"begin pinch 200", "pinch 210", "end pinch"},
		},
		{
			name:   "finger left after pinch pans zoomed content",
			zoomed: true,
			events: []PointerEvent{
				touch(common.PointerPhaseDown, 1, 600, 400, 0),
				touch(common.PointerPhaseDown, 2, 800, 400, 10),
				touch(common.PointerPhaseUp, 2, 800, 400, 20),
				touch(common.PointerPhaseMove, 1, 500, 400, 30),
				touch(common.PointerPhaseUp, 1, 500, 400, 40),
			},
			want: []string{
				"begin pan 600,400", "end pan",
				"begin pinch 200", "end pinch",
				"begin pan 600,400", "pan 500,400", "end pan",
			},
		},
		{
			name: "pinch supersedes drag",
			events: []PointerEvent{
				touch(common.PointerPhaseDown, 1, 900, 400, 0),
				touch(common.PointerPhaseMove, 1, 800, 400, 10),
				touch(common.PointerPhaseDown, 2, 600, 400, 20),
				touch(common.PointerPhaseUp, 2, 600, 400, 30),
				touch(common.PointerPhaseUp, 1, 800, 400, 40),
			},
			want: []string{
				"begin drag 900 1 400", "drag 800",
				"drag 900", "end drag",
				"begin pinch 200", "end pinch",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fakeHost{link: tt.link}
			h.state.Zoomed = tt.zoomed
			c, timers := newController(t, h)
			for _, e := range tt.events {
				c.Handle(e)
			}
			if tt.fire != 0 {
				timers.Fire(ms(tt.fire))
			}
			if diff := cmp.Diff(tt.want, h.calls); diff != "" {
				t.Errorf("host calls mismatch (-want +got):\n%s", diff)
			}
			if c.Active() {
				t.Error("controller still active after all pointers are up")
			}
		})
	}
}

func TestTapIgnoredWhileFlipping(t *testing.T) {
	h := &fakeHost{}
	h.state.Driver = common.DriverKindFlip
	c, timers := newController(t, h)

	c.Handle(mouse(common.PointerPhaseDown, 500, 400, 0))
	c.Handle(mouse(common.PointerPhaseUp, 500, 400, 50))
	timers.Fire(ms(1000))
	if len(h.calls) != 0 {
		t.Errorf("unexpected calls %v", h.calls)
	}
}

func TestRefusedDragIsIgnored(t *testing.T) {
	h := &fakeHost{noDrag: true}
	c, _ := newController(t, h)

	c.Handle(mouse(common.PointerPhaseDown, 900, 400, 0))
	c.Handle(mouse(common.PointerPhaseMove, 800, 400, 10))
	c.Handle(mouse(common.PointerPhaseMove, 700, 400, 20))
	c.Handle(mouse(common.PointerPhaseUp, 700, 400, 30))
	if len(h.calls) != 0 {
		t.Errorf("unexpected calls %v", h.calls)
	}
}

func TestInconsistentStreamIsReset(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := &fakeHost{}
	c := New(testGestures(), h, sched.New(), zap.New(core))

	c.Handle(mouse(common.PointerPhaseUp, 500, 400, 0))
	if n := logs.FilterMessage("Pointer up without matching down").Len(); n != 1 {
		t.Errorf("logged %d inconsistencies, want 1", n)
	}

	// lost up: next down abandons dragged page
	c.Handle(mouse(common.PointerPhaseDown, 900, 400, 0))
	c.Handle(mouse(common.PointerPhaseMove, 700, 400, 10))
	c.Handle(mouse(common.PointerPhaseDown, 500, 400, 5000))
	want := []string{"begin drag 900 1 400", "drag 700", "drag 900", "end drag"}
	if diff := cmp.Diff(want, h.calls); diff != "" {
		t.Errorf("host calls mismatch (-want +got):\n%s", diff)
	}
	if logs.FilterMessage("Pointer down during active gesture, resetting").Len() != 1 {
		t.Error("reset not logged")
	}
}

func TestReset(t *testing.T) {
	h := &fakeHost{}
	c, timers := newController(t, h)

	c.Handle(mouse(common.PointerPhaseDown, 500, 400, 0))
	c.Handle(mouse(common.PointerPhaseUp, 500, 400, 50))
	c.Handle(touch(common.PointerPhaseDown, 1, 400, 400, 60))
	c.Handle(touch(common.PointerPhaseDown, 2, 500, 400, 70))
	c.Reset(ms(80))

	if timers.Pending(sched.Tap) {
		t.Error("deferred tap survived reset")
	}
	if c.Active() {
		t.Error("controller active after reset")
	}
	want := []string{"begin pinch 100", "end pinch"}
	if diff := cmp.Diff(want, h.calls); diff != "" {
		t.Errorf("host calls mismatch (-want +got):\n%s", diff)
	}
}
