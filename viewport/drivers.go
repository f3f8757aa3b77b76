package viewport

import (
	"time"

	"seehuhn.de/go/geom/vec"

	"flipbook/common"
)

// driver is whatever currently owns zoom scale, pan or flip progress. Machine
// holds at most one, replacing it is the only way to start another motion.
type driver interface {
	kind() common.DriverKind
}

// flipDriver advances flip progress by fixed amount per frame.
type flipDriver struct {
	direction int
	target    int
}

// dragDriver follows pointer while page is being dragged.
type dragDriver struct {
	startX    float64
	direction int
	target    int
	width     float64
}

// panDriver follows pointer while zoomed content is dragged. raw is pan
// without rubber-band damping.
type panDriver struct {
	start   vec.Vec2
	base    vec.Vec2
	raw     vec.Vec2
	samples []sample
}

type sample struct {
	at time.Time
	p  vec.Vec2
}

// pinchDriver keeps anchor (content point under pinch midpoint at gesture
// start) under current midpoint.
type pinchDriver struct {
	startDist  float64
	startScale float64
	anchor     vec.Vec2
	dims       dims
}

// tweenDriver interpolates scale and pan with cubic ease-out. It serves both
// zoom animation and rubber-band snap back.
type tweenDriver struct {
	snap      bool
	fromScale float64
	toScale   float64
	fromPan   vec.Vec2
	toPan     vec.Vec2
	start     time.Time
	duration  time.Duration
	// reset zoom when animation ends at or below reset threshold
	reset bool
}

// inertiaDriver keeps pan moving after release.
type inertiaDriver struct {
	velocity vec.Vec2
}

func (flipDriver) kind() common.DriverKind    { return common.DriverKindFlip }
func (dragDriver) kind() common.DriverKind    { return common.DriverKindDrag }
func (panDriver) kind() common.DriverKind     { return common.DriverKindPan }
func (pinchDriver) kind() common.DriverKind   { return common.DriverKindPinch }
func (inertiaDriver) kind() common.DriverKind { return common.DriverKindInertia }

func (d tweenDriver) kind() common.DriverKind {
	if d.snap {
		return common.DriverKindRubberBand
	}
	return common.DriverKindZoomAnim
}
