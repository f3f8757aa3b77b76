package compose

import (
	"image"

	"seehuhn.de/go/geom/rect"

	"flipbook/common"
	"flipbook/geometry"
	"flipbook/source"
)

// Frame is everything needed to draw one animation tick. It does not share
// mutable state with the engine.
type Frame struct {
	Seq       uint64
	View      geometry.Size
	Transform geometry.ViewTransform
	Spread    Spread
	Pages     []Page
	Flip      *Flip
	Links     []LinkOverlay
	Info      string
	Controls  bool
	Progress  float64
	Loading   bool
}

// Page is placed page with its current surface, Surface is nil while page is
// not loaded.
type Page struct {
	Placement
	Surface  image.Image
	Fidelity common.Fidelity
}

// Flip describes page turn in progress. Target holds pages of the spread
// flip ends on.
type Flip struct {
	Direction int
	Progress  float64
	Target    []Page
}

// LinkOverlay is visible link in window coordinates.
type LinkOverlay struct {
	Page    int
	Rect    rect.Rect
	Target  source.Target
	Opacity float64
	Hovered bool
}
