package engine

import (
	"time"

	"seehuhn.de/go/geom/vec"

	"flipbook/geometry"
	"flipbook/links"
	"flipbook/sched"
	"flipbook/viewport"
)

// host is engine as seen by gesture controller. Controller is only invoked
// with engine mutex held, so methods here never lock.
type host Engine

func (h *host) e() *Engine { return (*Engine)(h) }

func (h *host) State() viewport.State { return h.vp.State() }
func (h *host) View() geometry.Size   { return h.view }

func (h *host) PageWidth() float64 {
	return h.slot.Width
}

func (h *host) LinkAt(p vec.Vec2) (links.Hit, bool) {
	return h.e().tester().Locate(p)
}

func (h *host) HoverLink(p vec.Vec2) {
	hit, ok := h.e().tester().Locate(p)
	var cur *links.Hit
	if ok {
		cur = &hit
	}
	if h.fader.Hover(cur) {
		h.e().scheduleFade()
	} else if cur != nil {
		h.timers.Cancel(sched.LinkFade)
	}
}

func (h *host) ActivateLink(hit links.Hit) {
	h.e().activate(hit.Link.Target)
}

func (h *host) ToggleControls() {
	h.controls = !h.controls
}

func (h *host) Seek(progress float64) {
	h.e().seek(progress)
}

func (h *host) ToggleZoom(p vec.Vec2, now time.Time) bool {
	return h.vp.ToggleZoom(p, now)
}

func (h *host) BeginDrag(x float64, direction int, width float64) bool {
	if !h.vp.BeginDrag(x, direction, width) {
		return false
	}
	h.e().prefetchTarget()
	return true
}

func (h *host) UpdateDrag(x float64) {
	h.vp.UpdateDrag(x)
}

func (h *host) EndDrag() bool {
	return h.vp.EndDrag()
}

func (h *host) BeginPan(p vec.Vec2, now time.Time) bool {
	return h.vp.BeginPan(p, now)
}

func (h *host) UpdatePan(p vec.Vec2, now time.Time) {
	h.vp.UpdatePan(p, now)
}

func (h *host) EndPan(now time.Time) {
	h.vp.EndPan(now)
}

func (h *host) BeginPinch(a, b vec.Vec2) bool {
	return h.vp.BeginPinch(a, b)
}

func (h *host) UpdatePinch(a, b vec.Vec2) {
	h.vp.UpdatePinch(a, b)
}

// EndPinch releases locked dimensions, postponed geometry change is applied
// on next tick.
func (h *host) EndPinch(now time.Time) {
	h.vp.EndPinch(now)
}
