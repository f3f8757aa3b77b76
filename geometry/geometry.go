// Package geometry contains small numeric helpers shared by viewport, link
// hit testing and composition: clamping, rubber-band damping, pan bounds and
// easing curves.
package geometry

import (
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Size is width and height in pixels (or document units).
type Size struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// IsZero reports whether size has no area.
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Aspect returns width to height ratio or 0 for empty size.
func (s Size) Aspect() float64 {
	if s.IsZero() {
		return 0
	}
	return s.Width / s.Height
}

// Scale returns size multiplied by factor.
func (s Size) Scale(f float64) Size {
	return Size{Width: s.Width * f, Height: s.Height * f}
}

// FitScale returns largest factor which keeps s inside box.
func (s Size) FitScale(box Size) float64 {
	if s.IsZero() || box.IsZero() {
		return 0
	}
	return math.Min(box.Width/s.Width, box.Height/s.Height)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

// PointInRect reports whether point lies inside r (edges included).
func PointInRect(p vec.Vec2, r rect.Rect) bool {
	return p.X >= r.LLx && p.X <= r.URx && p.Y >= r.LLy && p.Y <= r.URy
}

// Normalize returns rectangle built from two arbitrary corners with LLx<=URx
// and LLy<=URy.
func Normalize(x1, y1, x2, y2 float64) rect.Rect {
	return rect.Rect{
		LLx: math.Min(x1, x2),
		LLy: math.Min(y1, y2),
		URx: math.Max(x1, x2),
		URy: math.Max(y1, y2),
	}
}

// PanBounds is the legal pan range [-MaxX, MaxX] x [-MaxY, MaxY].
type PanBounds struct {
	MaxX, MaxY float64
}

// CalcPanBounds returns how far zoomed content may be moved from its centered
// position before an edge enters the view.
func CalcPanBounds(content, view Size, scale float64) PanBounds {
	return PanBounds{
		MaxX: math.Max(0, (content.Width*scale-view.Width)/2),
		MaxY: math.Max(0, (content.Height*scale-view.Height)/2),
	}
}

// Clamp brings pan offset into bounds.
func (b PanBounds) Clamp(p vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: Clamp(p.X, -b.MaxX, b.MaxX), Y: Clamp(p.Y, -b.MaxY, b.MaxY)}
}

// Overshoot returns signed distance p is outside of bounds on each axis.
func (b PanBounds) Overshoot(p vec.Vec2) vec.Vec2 {
	c := b.Clamp(p)
	return vec.Vec2{X: p.X - c.X, Y: p.Y - c.Y}
}

// Contains reports whether p is within bounds.
func (b PanBounds) Contains(p vec.Vec2) bool {
	return math.Abs(p.X) <= b.MaxX && math.Abs(p.Y) <= b.MaxY
}

// Damp maps raw offset to displayed one, rubber-banding whatever is beyond
// bounds.
func (b PanBounds) Damp(raw vec.Vec2, resistance, maxDistance float64) vec.Vec2 {
	c := b.Clamp(raw)
	return vec.Vec2{
		X: c.X + RubberBand(raw.X-c.X, resistance, maxDistance),
		Y: c.Y + RubberBand(raw.Y-c.Y, resistance, maxDistance),
	}
}

// RubberBand damps distance d beyond a hard bound.
//
// Up to the knee the response is d*(1-resistance)^(|d|/maxDistance). Past the
// knee the curve continues with matching slope along a hyperbolic tail
// approaching maxDistance, so result is strictly increasing in |d| and its
// magnitude always stays below maxDistance. resistance is expected in (0, 1).
func RubberBand(d, resistance, maxDistance float64) float64 {
	if d == 0 || maxDistance <= 0 || math.IsNaN(d) {
		return 0
	}
	sign := 1.0
	if d < 0 {
		sign, d = -1, -d
	}
	resistance = Clamp(resistance, 1e-6, 1-1e-6)

	lambda := -math.Log(1 - resistance)
	x := d / maxDistance
	knee := math.Min(1, 1/(2*lambda))
	if x <= knee {
		return sign * d * math.Pow(1-resistance, x)
	}

	// value and slope (in units of maxDistance) at the knee
	base := knee * math.Pow(1-resistance, knee)
	slope := math.Pow(1-resistance, knee) * (1 - lambda*knee)
	gap := 1 - base
	tail := 1 - gap/(1+slope*(x-knee)/gap)
	return sign * maxDistance * tail
}

// EaseOutCubic decelerates towards t=1.
func EaseOutCubic(t float64) float64 {
	t = Clamp(t, 0, 1)
	u := 1 - t
	return 1 - u*u*u
}

// EaseInOutCubic accelerates until t=0.5 and decelerates after.
func EaseInOutCubic(t float64) float64 {
	t = Clamp(t, 0, 1)
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
