package compose

import (
	"seehuhn.de/go/geom/rect"

	"flipbook/geometry"
)

const (
	trackMargin = 16.0
	trackHeight = 12.0
	trackBottom = 28.0
	thumbWidth  = 40.0
)

// ScrollbarTrack returns window rectangle of scrollbar track.
func ScrollbarTrack(view geometry.Size) rect.Rect {
	return rect.Rect{
		LLx: trackMargin,
		LLy: view.Height - trackBottom,
		URx: view.Width - trackMargin,
		URy: view.Height - trackBottom + trackHeight,
	}
}

// ScrollbarThumb returns thumb rectangle for progress in [0,1].
func ScrollbarThumb(view geometry.Size, progress float64) rect.Rect {
	track := ScrollbarTrack(view)
	span := track.URx - track.LLx - thumbWidth
	x := track.LLx + geometry.Clamp(progress, 0, 1)*max(span, 0)
	return rect.Rect{LLx: x, LLy: track.LLy, URx: x + thumbWidth, URy: track.URy}
}

// ProgressAt maps window x to scrollbar progress, thumb center follows
// pointer.
func ProgressAt(view geometry.Size, x float64) float64 {
	track := ScrollbarTrack(view)
	span := track.URx - track.LLx - thumbWidth
	if span <= 0 {
		return 0
	}
	return geometry.Clamp((x-track.LLx-thumbWidth/2)/span, 0, 1)
}
