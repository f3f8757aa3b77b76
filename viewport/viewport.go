// Package viewport owns zoom scale, pan offset and page flip state together
// with motion models moving them: page flip, zoom animation, pinch, pan with
// rubber-banding, inertial scrolling and snap back.
//
// Machine is not safe for concurrent use, it is driven from the render tick
// and input handlers of the engine which serializes access.
package viewport

import (
	"math"
	"time"

	"go.uber.org/zap"
	"seehuhn.de/go/geom/vec"

	"flipbook/common"
	"flipbook/config"
	"flipbook/geometry"
	"flipbook/pagination"
)

// frameInterval is 60Hz reference used to normalize pan velocity.
const frameInterval = time.Second / 60

// State is a snapshot of viewport.
type State struct {
	CurrentPage   int               `yaml:"current_page"`
	FlipDirection int               `yaml:"flip_direction"`
	FlipProgress  float64           `yaml:"flip_progress"`
	FlipTarget    int               `yaml:"flip_target"`
	Zoomed        bool              `yaml:"zoomed"`
	Scale         float64           `yaml:"scale"`
	Pan           vec.Vec2          `yaml:"pan"`
	Velocity      vec.Vec2          `yaml:"velocity"`
	Driver        common.DriverKind `yaml:"driver"`
}

// Flipping reports whether page turn (dragged or animated) is in progress.
func (s State) Flipping() bool {
	return s.Driver == common.DriverKindFlip || s.Driver == common.DriverKindDrag
}

func (s State) Panning() bool   { return s.Driver == common.DriverKindPan }
func (s State) Pinching() bool  { return s.Driver == common.DriverKindPinch }
func (s State) Inertial() bool  { return s.Driver == common.DriverKindInertia }
func (s State) Animating() bool { return s.Driver == common.DriverKindZoomAnim }

// Events reports what happened during Step.
type Events struct {
	// FlipCompleted is set when flip committed new current page.
	FlipCompleted bool
	// ZoomReset is set when zoom animation ended with zoom reset.
	ZoomReset bool
	// Moving is true while some driver is still active.
	Moving bool
}

// dims are display dimensions anchor math depends on.
type dims struct {
	view    geometry.Size
	content geometry.Size
	layout  pagination.Layout
}

// Machine is viewport state machine.
type Machine struct {
	cfg *config.ViewerConfig
	log *zap.Logger

	dims dims
	st   State
	drv  driver
}

// New returns machine at page 0 with no document.
func New(cfg *config.ViewerConfig, log *zap.Logger) *Machine {
	return &Machine{
		cfg: cfg,
		log: log.Named("viewport"),
		st:  State{Scale: 1},
	}
}

// State returns snapshot of viewport state.
func (m *Machine) State() State {
	st := m.st
	st.Driver = m.driverKind()
	if d, ok := m.drv.(*inertiaDriver); ok {
		st.Velocity = d.velocity
	}
	return st
}

// Layout returns pagination layout in effect.
func (m *Machine) Layout() pagination.Layout {
	return m.dims.layout
}

func (m *Machine) driverKind() common.DriverKind {
	if m.drv == nil {
		return common.DriverKindNone
	}
	return m.drv.kind()
}

// Locked reports whether pinch holds display dimensions. Geometry and mode
// changes should be postponed until it ends.
func (m *Machine) Locked() bool {
	_, ok := m.drv.(*pinchDriver)
	return ok
}

// SetGeometry updates window size and un-zoomed content size.
func (m *Machine) SetGeometry(view, content geometry.Size) {
	m.dims.view, m.dims.content = view, content
	if m.st.Zoomed {
		// keep content inside new bounds
		m.st.Pan = m.bounds(m.st.Scale).Clamp(m.st.Pan)
	}
}

// SetLayout switches pagination layout. Current page is re-snapped and zoom
// reset.
func (m *Machine) SetLayout(l pagination.Layout) {
	m.dims.layout = l
	m.st.CurrentPage = m.validPage(m.st.CurrentPage)
	m.ResetZoom()
}

func (m *Machine) validPage(page int) int {
	l := m.dims.layout
	if l.TotalPages == 0 {
		return 0
	}
	page = min(max(page, 0), l.TotalPages-1)
	return pagination.SnapToValidPage(page, l.SinglePage, l.StartWithCover)
}

// Transform returns current content to window mapping. While pinching it
// uses dimensions captured when gesture started.
func (m *Machine) Transform() geometry.ViewTransform {
	d := m.dims
	if p, ok := m.drv.(*pinchDriver); ok {
		d = p.dims
	}
	return geometry.ViewTransform{View: d.view, Content: d.content, Scale: m.st.Scale, Pan: m.st.Pan}
}

func (m *Machine) bounds(scale float64) geometry.PanBounds {
	return geometry.CalcPanBounds(m.dims.content, m.dims.view, scale)
}

// PanBounds returns legal pan range at current scale.
func (m *Machine) PanBounds() geometry.PanBounds {
	return m.bounds(m.st.Scale)
}

// ResetZoom returns viewport to neutral un-zoomed state in one step: any
// driver (including flip) is dropped, scale is 1, pan and velocity are zero.
func (m *Machine) ResetZoom() {
	m.drv = nil
	m.st.Zoomed = false
	m.st.Scale = 1
	m.st.Pan = vec.Vec2{}
	m.st.Velocity = vec.Vec2{}
	m.st.FlipProgress = 0
	m.st.FlipDirection = 0
	m.st.FlipTarget = m.st.CurrentPage
}

// GoToPage snaps page, makes it current and resets zoom. It returns new
// current page and whether it changed.
func (m *Machine) GoToPage(page int) (int, bool) {
	page = m.validPage(page)
	changed := page != m.st.CurrentPage
	m.st.CurrentPage = page
	m.ResetZoom()
	return page, changed
}

// Step advances active driver by one frame.
func (m *Machine) Step(now time.Time) Events {
	var ev Events
	switch d := m.drv.(type) {
	case *flipDriver:
		m.st.FlipProgress += m.cfg.Flip.Speed
		if m.st.FlipProgress >= 1 {
			m.completeFlip(d.target)
			ev.FlipCompleted = true
		}
	case *tweenDriver:
		ev.ZoomReset = m.stepTween(d, now)
	case *inertiaDriver:
		m.stepInertia(d)
	}
	ev.Moving = m.drv != nil
	return ev
}

func (m *Machine) completeFlip(target int) {
	m.log.Debug("Flip completed", zap.Int("from", m.st.CurrentPage), zap.Int("to", target))
	m.st.CurrentPage = target
	m.ResetZoom()
}

// StartFlip begins animated page turn in direction (+1 forward, -1 back).
// Request is refused while another flip runs or when there is no page in
// that direction. Zoom is reset first.
func (m *Machine) StartFlip(direction int) bool {
	switch m.drv.(type) {
	case *flipDriver, *dragDriver:
		return false
	}
	target, ok := pagination.FlipTarget(m.st.CurrentPage, direction, m.dims.layout)
	if !ok {
		return false
	}
	m.ResetZoom()
	m.drv = &flipDriver{direction: direction, target: target}
	m.st.FlipDirection = direction
	m.st.FlipTarget = target
	m.st.FlipProgress = 0
	return true
}

// BeginDrag starts page drag at pointer x. Width is distance which maps to
// full flip.
func (m *Machine) BeginDrag(x float64, direction int, width float64) bool {
	if m.drv != nil || m.st.Zoomed || width <= 0 {
		return false
	}
	target, ok := pagination.FlipTarget(m.st.CurrentPage, direction, m.dims.layout)
	if !ok {
		return false
	}
	m.drv = &dragDriver{startX: x, direction: direction, target: target, width: width}
	m.st.FlipDirection = direction
	m.st.FlipTarget = target
	m.st.FlipProgress = 0
	return true
}

// UpdateDrag moves dragged page.
func (m *Machine) UpdateDrag(x float64) {
	d, ok := m.drv.(*dragDriver)
	if !ok {
		return
	}
	m.st.FlipProgress = math.Min(math.Abs(x-d.startX)/d.width, 1)
}

// EndDrag commits flip when dragged past commit threshold, animation then
// continues from dragged progress. Otherwise page springs back.
func (m *Machine) EndDrag() bool {
	d, ok := m.drv.(*dragDriver)
	if !ok {
		m.log.Debug("Drag end without drag")
		return false
	}
	if m.st.FlipProgress > m.cfg.Flip.CommitThreshold {
		m.drv = &flipDriver{direction: d.direction, target: d.target}
		return true
	}
	m.drv = nil
	m.st.FlipProgress = 0
	m.st.FlipDirection = 0
	m.st.FlipTarget = m.st.CurrentPage
	return false
}

// ToggleZoom is double tap: zooms in keeping point p in place or zooms out
// when already zoomed. Ignored while zoom animation runs or page flips.
func (m *Machine) ToggleZoom(p vec.Vec2, now time.Time) bool {
	switch m.drv.(type) {
	case *tweenDriver, *flipDriver, *dragDriver:
		return false
	}
	if m.st.Zoomed || m.st.Scale > 1 {
		m.startTween(false, 1, vec.Vec2{}, now, m.cfg.Zoom.AnimationDuration, true)
		return true
	}

	scale := m.cfg.Zoom.Scale
	center := vec.Vec2{X: m.dims.view.Width / 2, Y: m.dims.view.Height / 2}
	off := p.Sub(center)
	pan := m.bounds(scale).Clamp(off.Mul(-(scale - 1)))
	m.st.Zoomed = true
	m.startTween(false, scale, pan, now, m.cfg.Zoom.AnimationDuration, false)
	return true
}

func (m *Machine) startTween(snap bool, scale float64, pan vec.Vec2, now time.Time, duration time.Duration, reset bool) {
	m.drv = &tweenDriver{
		snap:      snap,
		fromScale: m.st.Scale,
		toScale:   scale,
		fromPan:   m.st.Pan,
		toPan:     pan,
		start:     now,
		duration:  duration,
		reset:     reset,
	}
}

func (m *Machine) stepTween(d *tweenDriver, now time.Time) (reset bool) {
	t := 1.0
	if d.duration > 0 {
		t = float64(now.Sub(d.start)) / float64(d.duration)
	}
	if t < 1 {
		e := geometry.EaseOutCubic(t)
		m.st.Scale = geometry.Lerp(d.fromScale, d.toScale, e)
		m.st.Pan = d.fromPan.Add(d.toPan.Sub(d.fromPan).Mul(e))
		return false
	}

	m.st.Scale, m.st.Pan = d.toScale, d.toPan
	m.drv = nil
	if d.reset && m.st.Scale <= m.cfg.Zoom.ResetThreshold {
		m.ResetZoom()
		return true
	}
	return false
}

// BeginPinch captures display dimensions and anchor for two pointer zoom.
// Refused while page flips.
func (m *Machine) BeginPinch(a, b vec.Vec2) bool {
	switch m.drv.(type) {
	case *flipDriver, *dragDriver:
		return false
	}
	dist := b.Sub(a).Length()
	if dist <= 0 {
		return false
	}
	anchor, ok := m.Transform().ToContent(vec.Middle(a, b))
	if !ok {
		return false
	}
	m.drv = &pinchDriver{startDist: dist, startScale: m.st.Scale, anchor: anchor, dims: m.dims}
	return true
}

// UpdatePinch applies pinch: scale follows distance ratio (rubber-banded
// outside zoom limits) while anchor stays under midpoint.
func (m *Machine) UpdatePinch(a, b vec.Vec2) {
	d, ok := m.drv.(*pinchDriver)
	if !ok {
		return
	}
	raw := d.startScale * b.Sub(a).Length() / d.startDist
	m.st.Scale = m.dampScale(raw)

	mid := vec.Middle(a, b)
	center := vec.Vec2{X: d.dims.view.Width / 2, Y: d.dims.view.Height / 2}
	contentCenter := vec.Vec2{X: d.dims.content.Width / 2, Y: d.dims.content.Height / 2}
	m.st.Pan = mid.Sub(center).Sub(d.anchor.Sub(contentCenter).Mul(m.st.Scale))
}

func (m *Machine) dampScale(raw float64) float64 {
	z := m.cfg.Zoom
	resistance := m.cfg.RubberBand.Resistance
	switch {
	case raw < z.Min:
		return z.Min - geometry.RubberBand(z.Min-raw, resistance, z.RubberRange*z.Min)
	case raw > z.Max:
		return z.Max + geometry.RubberBand(raw-z.Max, resistance, z.RubberRange*z.Max)
	}
	return raw
}

// EndPinch settles scale: outside limits it animates to nearest limit, near 1
// zoom is reset, otherwise viewport stays zoomed with pan brought back into
// bounds.
func (m *Machine) EndPinch(now time.Time) {
	if _, ok := m.drv.(*pinchDriver); !ok {
		m.log.Debug("Pinch end without pinch, resetting")
		if m.st.Scale != 1 && !m.st.Zoomed {
			m.ResetZoom()
		}
		return
	}
	m.drv = nil

	z := m.cfg.Zoom
	scale := m.st.Scale
	switch {
	case scale < z.Min:
		m.startTween(false, z.Min, m.bounds(z.Min).Clamp(m.st.Pan), now, z.AnimationDuration, true)
	case scale > z.Max:
		m.st.Zoomed = true
		m.startTween(false, z.Max, m.bounds(z.Max).Clamp(m.st.Pan), now, z.AnimationDuration, false)
	case scale < z.ResetThreshold:
		m.ResetZoom()
	default:
		m.st.Zoomed = true
		m.snapBack(now)
	}
}

// snapBack starts rubber-band snap when pan rests outside bounds.
func (m *Machine) snapBack(now time.Time) bool {
	b := m.bounds(m.st.Scale)
	if b.Contains(m.st.Pan) {
		return false
	}
	m.startTween(true, m.st.Scale, b.Clamp(m.st.Pan), now, m.cfg.RubberBand.SnapDuration, false)
	return true
}

// BeginPan starts dragging zoomed content. Inertia and snap back are
// interrupted, running zoom animation is not.
func (m *Machine) BeginPan(p vec.Vec2, now time.Time) bool {
	if !m.st.Zoomed {
		return false
	}
	switch d := m.drv.(type) {
	case nil, *inertiaDriver:
	case *tweenDriver:
		if !d.snap {
			return false
		}
	default:
		return false
	}
	m.drv = &panDriver{start: p, base: m.st.Pan, raw: m.st.Pan, samples: []sample{{at: now, p: p}}}
	return true
}

// UpdatePan moves content with pointer, beyond bounds movement is damped.
func (m *Machine) UpdatePan(p vec.Vec2, now time.Time) {
	d, ok := m.drv.(*panDriver)
	if !ok {
		return
	}
	d.raw = d.base.Add(p.Sub(d.start))
	m.st.Pan = m.bounds(m.st.Scale).Damp(d.raw, m.cfg.RubberBand.Resistance, m.cfg.RubberBand.MaxDistance)

	d.samples = append(d.samples, sample{at: now, p: p})
	cut := 0
	for cut < len(d.samples)-1 && now.Sub(d.samples[cut].at) > m.cfg.Gestures.VelocityWindow {
		cut++
	}
	d.samples = d.samples[cut:]
}

// EndPan releases content: overscroll snaps back, fast release continues
// with inertia, otherwise pan simply stops.
func (m *Machine) EndPan(now time.Time) {
	d, ok := m.drv.(*panDriver)
	if !ok {
		return
	}
	m.drv = nil
	if m.snapBack(now) {
		return
	}
	v := velocity(d.samples, now, m.cfg.Gestures.VelocityWindow)
	if v.Length() > m.cfg.Gestures.VelocityThreshold {
		m.drv = &inertiaDriver{velocity: v}
	}
}

// StartInertia starts inertial scroll with given velocity in pixels per
// frame.
func (m *Machine) StartInertia(v vec.Vec2) bool {
	if !m.st.Zoomed || m.drv != nil {
		return false
	}
	m.drv = &inertiaDriver{velocity: v}
	return true
}

// velocity averages pointer movement over recent samples, result is pixels
// per 60Hz frame.
func velocity(samples []sample, now time.Time, window time.Duration) vec.Vec2 {
	var first, last *sample
	for i := range samples {
		if now.Sub(samples[i].at) > window {
			continue
		}
		if first == nil {
			first = &samples[i]
		}
		last = &samples[i]
	}
	if first == nil || first == last {
		return vec.Vec2{}
	}
	dt := last.at.Sub(first.at)
	if dt <= 0 {
		return vec.Vec2{}
	}
	return last.p.Sub(first.p).Mul(float64(frameInterval) / float64(dt))
}

func (m *Machine) stepInertia(d *inertiaDriver) {
	d.velocity = d.velocity.Mul(m.cfg.Inertia.Deceleration)
	pan := m.st.Pan.Add(d.velocity)

	b := m.bounds(m.st.Scale)
	clamped := b.Clamp(pan)
	hit := false
	if clamped.X != pan.X {
		d.velocity.X, hit = 0, true
	}
	if clamped.Y != pan.Y {
		d.velocity.Y, hit = 0, true
	}
	m.st.Pan = clamped
	m.st.Velocity = d.velocity

	if hit || d.velocity.Length() < m.cfg.Inertia.StopVelocity {
		m.drv = nil
		m.st.Velocity = vec.Vec2{}
	}
}
