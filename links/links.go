// Package links maps window points to links of visible pages and keeps link
// highlight opacity.
package links

import (
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"flipbook/compose"
	"flipbook/geometry"
	"flipbook/source"
)

// Page is visible page together with its links. Layout is the viewport link
// rectangles were computed against, zero when not known yet.
type Page struct {
	Placement compose.Placement
	Layout    geometry.Size
	Links     []source.Link
}

// Hit is a link under pointer.
type Hit struct {
	Page  int
	Index int // position in page link list
	Link  source.Link
	Rect  rect.Rect // content space
}

// Same reports whether both hits are the same link.
func (h Hit) Same(o Hit) bool {
	return h.Page == o.Page && h.Index == o.Index
}

// Tester locates links on pages of current spread.
type Tester struct {
	Transform geometry.ViewTransform
	Pages     []Page // left to right
}

// Locate returns link under window point p. Left page is tested before right
// one, inside a page the first matching link wins.
func (t Tester) Locate(p vec.Vec2) (Hit, bool) {
	c, ok := t.Transform.ToContent(p)
	if !ok {
		return Hit{}, false
	}
	for _, pg := range t.Pages {
		if !geometry.PointInRect(c, pg.Placement.Rect) {
			continue
		}
		for i, l := range pg.Links {
			r := ContentRect(pg, l.Rect)
			if geometry.PointInRect(c, r) {
				return Hit{Page: pg.Placement.Index, Index: i, Link: l, Rect: r}, true
			}
		}
	}
	return Hit{}, false
}

// ContentRect maps rectangle in page layout space into content space.
func ContentRect(pg Page, r rect.Rect) rect.Rect {
	pr := pg.Placement.Rect
	sx, sy := 1.0, 1.0
	if !pg.Layout.IsZero() {
		sx = (pr.URx - pr.LLx) / pg.Layout.Width
		sy = (pr.URy - pr.LLy) / pg.Layout.Height
	}
	return rect.Rect{
		LLx: pr.LLx + r.LLx*sx,
		LLy: pr.LLy + r.LLy*sy,
		URx: pr.LLx + r.URx*sx,
		URy: pr.LLy + r.URy*sy,
	}
}

// Overlays returns window rectangles of all links of visible pages. Hovered
// link is drawn fully opaque, others with opacity.
func (t Tester) Overlays(opacity float64, hovered *Hit) []compose.LinkOverlay {
	var out []compose.LinkOverlay
	for _, pg := range t.Pages {
		for i, l := range pg.Links {
			if l.Target.IsInert() {
				continue
			}
			o := compose.LinkOverlay{
				Page:    pg.Placement.Index,
				Rect:    t.Transform.RectToView(ContentRect(pg, l.Rect)),
				Target:  l.Target,
				Opacity: opacity,
			}
			if hovered != nil && hovered.Page == o.Page && hovered.Index == i {
				o.Hovered = true
				o.Opacity = 1
			}
			if o.Opacity > 0 {
				out = append(out, o)
			}
		}
	}
	return out
}
