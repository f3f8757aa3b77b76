// Package gesture turns raw pointer and touch streams into page turns, pans,
// pinch zoom, taps and scrollbar drags.
//
// Controller is not safe for concurrent use, engine serializes calls to it
// together with the rest of its state.
package gesture

import (
	"math"
	"time"

	"go.uber.org/zap"
	"seehuhn.de/go/geom/vec"

	"flipbook/common"
	"flipbook/compose"
	"flipbook/config"
	"flipbook/geometry"
	"flipbook/links"
	"flipbook/sched"
	"flipbook/viewport"
)

// PointerEvent is a single pointer sample in window coordinates. Mouse moves
// without pressed button are delivered as Move with no preceding Down and
// used for link hover.
type PointerEvent struct {
	Phase  common.PointerPhase  `yaml:"phase"`
	Device common.PointerDevice `yaml:"device"`
	Target common.PointerTarget `yaml:"target"`
	ID     int                  `yaml:"id"`
	X      float64              `yaml:"x"`
	Y      float64              `yaml:"y"`
	Time   time.Time            `yaml:"-"`
}

func (e PointerEvent) Pos() vec.Vec2 {
	return vec.Vec2{X: e.X, Y: e.Y}
}

// Host is what controller drives. Methods are called with host state already
// serialized.
type Host interface {
	State() viewport.State
	View() geometry.Size
	// PageWidth is window width of one page, drag over it turns page fully.
	PageWidth() float64

	LinkAt(p vec.Vec2) (links.Hit, bool)
	HoverLink(p vec.Vec2)
	ActivateLink(h links.Hit)
	ToggleControls()
	Seek(progress float64)

	ToggleZoom(p vec.Vec2, now time.Time) bool
	BeginDrag(x float64, direction int, width float64) bool
	UpdateDrag(x float64)
	EndDrag() bool
	BeginPan(p vec.Vec2, now time.Time) bool
	UpdatePan(p vec.Vec2, now time.Time)
	EndPan(now time.Time)
	BeginPinch(a, b vec.Vec2) bool
	UpdatePinch(a, b vec.Vec2)
	EndPinch(now time.Time)
}

type kind int

const (
	kindPending kind = iota // not classified yet
	kindIgnored
	kindDrag
	kindPan
	kindScrollbar
)

func (k kind) String() string {
	switch k {
	case kindPending:
		return "pending"
	case kindIgnored:
		return "ignored"
	case kindDrag:
		return "drag"
	case kindPan:
		return "pan"
	case kindScrollbar:
		return "scrollbar"
	}
	return "unknown"
}

// session is state of a single pointer between down and up.
type session struct {
	id        int
	device    common.PointerDevice
	start     vec.Vec2
	startTime time.Time
	kind      kind
	noTap     bool // finger left after pinch
}

// Controller classifies gestures.
type Controller struct {
	cfg    *config.GesturesConfig
	log    *zap.Logger
	host   Host
	timers *sched.Timers

	sess    *session
	touches map[int]vec.Vec2
	pinch   [2]int
	pinched bool
	lastTap time.Time
}

func New(cfg *config.GesturesConfig, host Host, timers *sched.Timers, log *zap.Logger) *Controller {
	return &Controller{
		cfg:     cfg,
		log:     log.Named("gesture"),
		host:    host,
		timers:  timers,
		touches: make(map[int]vec.Vec2),
	}
}

// Active reports whether some pointer is down.
func (c *Controller) Active() bool {
	return c.sess != nil || c.pinched
}

// Handle processes pointer event.
func (c *Controller) Handle(e PointerEvent) {
	switch e.Phase {
	case common.PointerPhaseDown:
		c.down(e)
	case common.PointerPhaseMove:
		c.move(e)
	case common.PointerPhaseUp:
		c.up(e, false)
	case common.PointerPhaseCancel:
		c.up(e, true)
	}
}

// Reset abandons everything in progress, dragged page springs back.
func (c *Controller) Reset(now time.Time) {
	c.abandon(now)
	if c.pinched {
		c.host.EndPinch(now)
		c.pinched = false
	}
	clear(c.touches)
	c.timers.Cancel(sched.Tap)
	c.lastTap = time.Time{}
}

func (c *Controller) down(e PointerEvent) {
	if e.Device == common.PointerDeviceTouch {
		c.touches[e.ID] = e.Pos()
		switch {
		case c.pinched:
			// third finger
			return
		case len(c.touches) == 2:
			c.startPinch(e)
			return
		case len(c.touches) > 2:
			return
		}
	}

	if c.sess != nil {
		c.log.Debug("Pointer down during active gesture, resetting",
			zap.Stringer("kind", c.sess.kind), zap.Int("id", e.ID))
		c.abandon(e.Time)
	}
	c.begin(e)
}

func (c *Controller) begin(e PointerEvent) *session {
	s := &session{id: e.ID, device: e.Device, start: e.Pos(), startTime: e.Time}
	c.sess = s

	if e.Target == common.PointerTargetScrollbar {
		s.kind = kindScrollbar
		c.host.Seek(compose.ProgressAt(c.host.View(), e.X))
		return s
	}
	if c.host.State().Zoomed {
		if c.host.BeginPan(e.Pos(), e.Time) {
			s.kind = kindPan
		} else {
			s.kind = kindIgnored
		}
	}
	return s
}

func (c *Controller) startPinch(e PointerEvent) {
	var ids []int
	for id := range c.touches {
		ids = append(ids, id)
	}
	// the older finger was the session owner
	if ids[0] == e.ID {
		ids[0], ids[1] = ids[1], ids[0]
	}
	c.abandon(e.Time)
	if !c.host.BeginPinch(c.touches[ids[0]], c.touches[ids[1]]) {
		c.log.Debug("Pinch refused")
		return
	}
	c.pinch = [2]int{ids[0], ids[1]}
	c.pinched = true
}

func (c *Controller) move(e PointerEvent) {
	if e.Device == common.PointerDeviceTouch {
		if _, ok := c.touches[e.ID]; ok {
			c.touches[e.ID] = e.Pos()
		}
		if c.pinched {
			if e.ID == c.pinch[0] || e.ID == c.pinch[1] {
				c.host.UpdatePinch(c.touches[c.pinch[0]], c.touches[c.pinch[1]])
			}
			return
		}
	}

	s := c.sess
	if s == nil || s.id != e.ID || s.device != e.Device {
		if s == nil && e.Device == common.PointerDeviceMouse {
			c.host.HoverLink(e.Pos())
		}
		return
	}

	switch s.kind {
	case kindPending:
		if e.Pos().Sub(s.start).Length() < c.cfg.MoveThreshold {
			return
		}
		direction := 1
		if s.start.X < c.host.View().Width/2 {
			direction = -1
		}
		if c.host.BeginDrag(s.start.X, direction, c.host.PageWidth()) {
			s.kind = kindDrag
			c.host.UpdateDrag(e.X)
		} else {
			s.kind = kindIgnored
		}
	case kindDrag:
		c.host.UpdateDrag(e.X)
	case kindPan:
		c.host.UpdatePan(e.Pos(), e.Time)
	case kindScrollbar:
		c.host.Seek(compose.ProgressAt(c.host.View(), e.X))
	}
}

func (c *Controller) up(e PointerEvent, cancel bool) {
	if e.Device == common.PointerDeviceTouch {
		delete(c.touches, e.ID)
		if c.pinched {
			if e.ID == c.pinch[0] || e.ID == c.pinch[1] {
				c.host.EndPinch(e.Time)
				c.pinched = false
				// remaining finger may only pan zoomed content, it never
				// taps or turns page
				for id, p := range c.touches {
					s := c.begin(PointerEvent{Device: common.PointerDeviceTouch, ID: id, X: p.X, Y: p.Y, Time: e.Time})
					s.noTap = true
					if s.kind == kindPending {
						s.kind = kindIgnored
					}
					break
				}
			}
			return
		}
	}

	s := c.sess
	if s == nil || s.id != e.ID || s.device != e.Device {
		if e.Device == common.PointerDeviceTouch && len(c.touches) > 0 {
			return
		}
		c.log.Debug("Pointer up without matching down", zap.Int("id", e.ID), zap.Stringer("phase", e.Phase))
		return
	}
	c.sess = nil

	if cancel {
		c.finish(s, e, true)
		return
	}

	tap := !s.noTap && e.Time.Sub(s.startTime) < c.cfg.ClickThreshold &&
		e.Pos().Sub(s.start).Length() < c.cfg.MoveThreshold &&
		s.kind != kindDrag && s.kind != kindScrollbar
	c.finish(s, e, false)
	if tap && !c.host.State().Flipping() {
		c.tap(e.Pos(), e.Time)
	}
}

// finish ends whatever session drives. Abandoned drag springs back.
func (c *Controller) finish(s *session, e PointerEvent, abandoned bool) {
	switch s.kind {
	case kindDrag:
		if abandoned {
			c.host.UpdateDrag(s.start.X)
		} else {
			c.host.UpdateDrag(e.X)
		}
		c.host.EndDrag()
	case kindPan:
		c.host.EndPan(e.Time)
	case kindScrollbar:
		if !abandoned {
			c.host.Seek(compose.ProgressAt(c.host.View(), e.X))
		}
	}
}

func (c *Controller) abandon(now time.Time) {
	if c.sess == nil {
		return
	}
	s := c.sess
	c.sess = nil
	c.finish(s, PointerEvent{X: s.start.X, Y: s.start.Y, Time: now}, true)
}

// tap activates link under p. Otherwise tap is held for double tap window,
// second tap zooms anywhere, single tap in center zone toggles controls.
func (c *Controller) tap(p vec.Vec2, now time.Time) {
	// previous single tap may be overdue when no tick ran since
	c.timers.Flush(sched.Tap, now)

	if h, ok := c.host.LinkAt(p); ok {
		c.timers.Cancel(sched.Tap)
		c.lastTap = time.Time{}
		c.host.ActivateLink(h)
		return
	}

	if !c.lastTap.IsZero() && now.Sub(c.lastTap) < c.cfg.DoubleTapThreshold {
		c.timers.Cancel(sched.Tap)
		c.lastTap = time.Time{}
		c.host.ToggleZoom(p, now)
		return
	}

	c.lastTap = now
	center := c.inCenter(p)
	c.timers.After(sched.Tap, now, c.cfg.SingleClickDelay, func(time.Time) {
		c.lastTap = time.Time{}
		if center {
			c.host.ToggleControls()
		}
	})
}

func (c *Controller) inCenter(p vec.Vec2) bool {
	view := c.host.View()
	zone := math.Min(view.Width, view.Height) * c.cfg.CenterZone
	return p.Sub(vec.Vec2{X: view.Width / 2, Y: view.Height / 2}).Length() <= zone
}
