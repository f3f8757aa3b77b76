package compose

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"

	"flipbook/geometry"
	"flipbook/pagination"
)

var (
	placeholderColor = color.RGBA{0xe0, 0xe0, 0xe0, 0xff}
	linkColor        = color.RGBA{0x1e, 0x64, 0xd2, 0xff}
	trackColor       = color.NRGBA{0x20, 0x20, 0x20, 0xa0}
	thumbColor       = color.NRGBA{0xf0, 0xf0, 0xf0, 0xe0}
	textColor        = color.RGBA{0xff, 0xff, 0xff, 0xff}
)

// linkAlpha is opacity of fully visible link highlight.
const linkAlpha = 0.3

// Renderer draws frames into RGBA images.
type Renderer struct {
	Background color.Color
	Scaler     xdraw.Transformer
}

// NewRenderer returns renderer filling background with color given as
// "#rrggbb" (empty means black).
func NewRenderer(background string) (*Renderer, error) {
	bg, err := ParseHexColor(background)
	if err != nil {
		return nil, err
	}
	return &Renderer{Background: bg, Scaler: xdraw.BiLinear}, nil
}

// ParseHexColor parses "#rgb" or "#rrggbb".
func ParseHexColor(s string) (color.RGBA, error) {
	if s == "" {
		return color.RGBA{A: 0xff}, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("bad color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Render draws frame.
func (r *Renderer) Render(f *Frame) *image.RGBA {
	w, h := int(math.Round(f.View.Width)), int(math.Round(f.View.Height))
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(r.Background), image.Point{}, xdraw.Src)

	m := f.Transform.Matrix()
	if f.Flip == nil {
		for _, p := range f.Pages {
			r.drawPage(dst, m, p, p.Rect)
		}
	} else {
		r.drawFlip(dst, m, f)
	}

	for _, l := range f.Links {
		if l.Opacity <= 0 {
			continue
		}
		fill(dst, l.Rect, linkColor, linkAlpha*geometry.Clamp(l.Opacity, 0, 1))
	}

	if f.Controls {
		fill(dst, ScrollbarTrack(f.View), trackColor, 1)
		fill(dst, ScrollbarThumb(f.View, f.Progress), thumbColor, 1)
	}

	text := f.Info
	if f.Loading {
		text = pagination.LoadingText
	}
	if text != "" {
		drawText(dst, text, f.View)
	}
	return dst
}

// drawFlip draws pages uncovered by turning sheet first, then the sheet
// itself squeezed towards spine: front side (current page) during first half
// of the turn and back side (target page) during second half.
func (r *Renderer) drawFlip(dst *image.RGBA, m matrix.Matrix, f *Frame) {
	fl := f.Flip

	if f.Spread.Single {
		// current page slides off uncovering target, going back target
		// slides in over current
		if fl.Direction > 0 {
			for _, p := range fl.Target {
				r.drawPage(dst, m, p, p.Rect)
			}
			for _, p := range f.Pages {
				r.drawPage(dst, m, p, squeeze(p.Rect, p.Rect.LLx, 1-fl.Progress))
			}
			return
		}
		for _, p := range f.Pages {
			r.drawPage(dst, m, p, p.Rect)
		}
		for _, p := range fl.Target {
			r.drawPage(dst, m, p, squeeze(p.Rect, p.Rect.LLx, fl.Progress))
		}
		return
	}

	spine := f.Spread.Content.Width / 2
	leftSide := func(p Page) bool { return p.Slot.LLx < spine }

	// pages staying put: current pages on the side sheet does not leave from,
	// target pages on the side sheet leaves
	for _, p := range f.Pages {
		if leftSide(p) == (fl.Direction > 0) {
			r.drawPage(dst, m, p, p.Rect)
		}
	}
	for _, p := range fl.Target {
		if leftSide(p) != (fl.Direction > 0) {
			r.drawPage(dst, m, p, p.Rect)
		}
	}

	if fl.Progress < 0.5 {
		k := 1 - 2*fl.Progress
		for _, p := range f.Pages {
			if leftSide(p) != (fl.Direction > 0) {
				r.drawPage(dst, m, p, squeeze(p.Rect, spine, k))
			}
		}
		return
	}
	k := 2*fl.Progress - 1
	for _, p := range fl.Target {
		if leftSide(p) == (fl.Direction > 0) {
			r.drawPage(dst, m, p, squeeze(p.Rect, spine, k))
		}
	}
}

// squeeze scales rectangle horizontally by k keeping x fixed.
func squeeze(r rect.Rect, x, k float64) rect.Rect {
	k = geometry.Clamp(k, 0, 1)
	return rect.Rect{LLx: x + (r.LLx-x)*k, LLy: r.LLy, URx: x + (r.URx-x)*k, URy: r.URy}
}

func (r *Renderer) drawPage(dst *image.RGBA, m matrix.Matrix, p Page, contentRect rect.Rect) {
	wr := geometry.TransformRect(m, contentRect)
	if wr.URx-wr.LLx < 0.5 || wr.URy-wr.LLy < 0.5 {
		return
	}
	if p.Surface == nil {
		fill(dst, wr, placeholderColor, 1)
		return
	}
	b := p.Surface.Bounds()
	if b.Empty() {
		return
	}
	sx := (wr.URx - wr.LLx) / float64(b.Dx())
	sy := (wr.URy - wr.LLy) / float64(b.Dy())
	aff := f64.Aff3{
		sx, 0, wr.LLx - float64(b.Min.X)*sx,
		0, sy, wr.LLy - float64(b.Min.Y)*sy,
	}
	r.Scaler.Transform(dst, aff, p.Surface, b, xdraw.Over, nil)
}

func fill(dst *image.RGBA, r rect.Rect, c color.Color, alpha float64) {
	ir := image.Rect(
		int(math.Floor(r.LLx)), int(math.Floor(r.LLy)),
		int(math.Ceil(r.URx)), int(math.Ceil(r.URy)),
	).Intersect(dst.Bounds())
	if ir.Empty() {
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(geometry.Clamp(alpha, 0, 1) * 0xff)})
	xdraw.DrawMask(dst, ir, image.NewUniform(c), image.Point{}, mask, image.Point{}, xdraw.Over)
}

func drawText(dst *image.RGBA, text string, view geometry.Size) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(textColor), Face: face}
	width := d.MeasureString(text)
	x := fixed.I(int(view.Width/2)) - width/2
	y := fixed.I(int(view.Height) - 36)
	box := rect.Rect{
		LLx: float64(x.Floor() - 6), LLy: float64(y.Floor() - face.Ascent - 4),
		URx: float64((x + width).Ceil() + 6), URy: float64(y.Floor() + face.Descent + 4),
	}
	fill(dst, box, trackColor, 1)
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(text)
}
