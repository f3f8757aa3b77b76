// Package common keeps enums shared between configuration and engine
// packages, so neither has to import the other.
package common

// Page layout requested by configuration. Auto picks single page for portrait
// windows.
// ENUM(auto, single, double)
type ViewMode int

// Raster fidelity of a page surface.
// ENUM(low, high)
type Fidelity int

// Satisfies reports whether surface of fidelity f is good enough for request.
func (f Fidelity) Satisfies(request Fidelity) bool {
	return f >= request
}

// Phase of a pointer event.
// ENUM(down, move, up, cancel)
type PointerPhase int

// Device which produced pointer event.
// ENUM(mouse, touch)
type PointerDevice int

// Element pointer event was delivered to.
// ENUM(canvas, scrollbar)
type PointerTarget int

// What currently drives zoom, pan or flip progress.
// ENUM(none, drag, flip, pan, pinch, zoomAnim, inertia, rubberBand)
type DriverKind int

// Moves zoom scale and pan, as opposed to flip progress.
func (k DriverKind) MovesViewport() bool {
	switch k {
	case DriverKindPan, DriverKindPinch, DriverKindZoomAnim, DriverKindInertia, DriverKindRubberBand:
		return true
	}
	return false
}

// What activating a link does. None is an inert link whose destination could
// not be resolved, page is a zero based index and pageNumber a raw one based
// number.
// ENUM(none, url, page, pageNumber, named)
type TargetKind int
