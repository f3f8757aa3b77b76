package geometry

import (
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// ViewTransform places content (one or two pages laid side by side, origin at
// top-left of the left page) into the window. Un-zoomed view is the same
// transform with Scale 1 and zero Pan: content centered in the window.
type ViewTransform struct {
	View    Size     // window
	Content Size     // un-zoomed content
	Scale   float64  // zoom scale
	Pan     vec.Vec2 // offset of content center from window center
}

// Matrix returns content to window mapping.
func (t ViewTransform) Matrix() matrix.Matrix {
	scale := t.Scale
	if scale == 0 {
		scale = 1
	}
	return matrix.Translate(-t.Content.Width/2, -t.Content.Height/2).
		Mul(matrix.Scale(scale, scale)).
		Mul(matrix.Translate(t.View.Width/2+t.Pan.X, t.View.Height/2+t.Pan.Y))
}

// ToContent maps window point into content space, ok is false for degenerate
// transform.
func (t ViewTransform) ToContent(p vec.Vec2) (vec.Vec2, bool) {
	m := t.Matrix()
	if m[0]*m[3]-m[1]*m[2] == 0 {
		return vec.Vec2{}, false
	}
	return apply(m.Inv(), p), true
}

// ToView maps content point into window space.
func (t ViewTransform) ToView(p vec.Vec2) vec.Vec2 {
	return apply(t.Matrix(), p)
}

// RectToView maps content rectangle into window space.
func (t ViewTransform) RectToView(r rect.Rect) rect.Rect {
	return TransformRect(t.Matrix(), r)
}

func apply(m matrix.Matrix, p vec.Vec2) vec.Vec2 {
	x, y := m.Apply(p.X, p.Y)
	return vec.Vec2{X: x, Y: y}
}

// TransformRect maps rectangle corners through m and returns their bounding
// box.
func TransformRect(m matrix.Matrix, r rect.Rect) rect.Rect {
	x, y := m.Apply(r.LLx, r.LLy)
	out := rect.Rect{LLx: x, LLy: y, URx: x, URy: y}
	out.Add(m.Apply(r.URx, r.URy))
	out.Add(m.Apply(r.LLx, r.URy))
	out.Add(m.Apply(r.URx, r.LLy))
	return out
}
