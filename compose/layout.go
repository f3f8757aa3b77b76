// Package compose decides where pages of current spread go and draws frames
// produced by the engine.
//
// Content space has origin at top-left corner of the left page slot, y grows
// down. Double page content is two slots wide even when only one page is
// visible (cover and trailing page), so pages never jump when spread changes.
package compose

import (
	"seehuhn.de/go/geom/rect"

	"flipbook/geometry"
	"flipbook/pagination"
)

// Placement is a page of spread placed in content space.
type Placement struct {
	Index int
	// Slot is space reserved for the page, Rect is area actually covered by
	// page layout centered inside of slot.
	Slot rect.Rect
	Rect rect.Rect
}

// Spread is a set of pages displayed together.
type Spread struct {
	Pages   []Placement
	Content geometry.Size
	Single  bool
}

// Page returns placement of page index.
func (s Spread) Page(index int) (Placement, bool) {
	for _, p := range s.Pages {
		if p.Index == index {
			return p, true
		}
	}
	return Placement{}, false
}

// Indexes returns page indexes left to right.
func (s Spread) Indexes() []int {
	out := make([]int, 0, len(s.Pages))
	for _, p := range s.Pages {
		out = append(out, p.Index)
	}
	return out
}

// Slots returns number of page slots for layout.
func Slots(singlePage bool) int {
	if singlePage {
		return 1
	}
	return 2
}

// SlotSize fits page slot of given aspect into view: full height first, then
// narrowed to width if pages do not fit side by side.
func SlotSize(view geometry.Size, aspect float64, singlePage bool) geometry.Size {
	if view.IsZero() || aspect <= 0 {
		return geometry.Size{}
	}
	n := float64(Slots(singlePage))
	h := view.Height
	w := h * aspect
	if w*n > view.Width {
		w = view.Width / n
		h = w / aspect
	}
	return geometry.Size{Width: w, Height: h}
}

// AutoSinglePage reports whether automatic mode should show single pages.
func AutoSinglePage(view geometry.Size) bool {
	return view.Height > view.Width
}

// Layout places pages visible at page into slots. layoutOf returns page
// layout size, zero size means not known yet and page fills its slot.
func Layout(page int, l pagination.Layout, slot geometry.Size, layoutOf func(index int) geometry.Size) Spread {
	n := Slots(l.SinglePage)
	s := Spread{
		Content: geometry.Size{Width: slot.Width * float64(n), Height: slot.Height},
		Single:  l.SinglePage,
	}

	visible := pagination.VisiblePages(page, l)
	for i, index := range visible {
		pos := i
		if n == 2 && len(visible) == 1 && page == 0 && l.StartWithCover {
			// cover lies on the right, as in a closed book
			pos = 1
		}
		slotRect := rect.Rect{
			LLx: float64(pos) * slot.Width,
			LLy: 0,
			URx: float64(pos+1) * slot.Width,
			URy: slot.Height,
		}
		s.Pages = append(s.Pages, Placement{
			Index: index,
			Slot:  slotRect,
			Rect:  center(slotRect, layoutOf(index)),
		})
	}
	return s
}

func center(slot rect.Rect, size geometry.Size) rect.Rect {
	sw, sh := slot.URx-slot.LLx, slot.URy-slot.LLy
	if size.IsZero() || size.Width > sw+1e-6 || size.Height > sh+1e-6 {
		size = size.Scale(size.FitScale(geometry.Size{Width: sw, Height: sh}))
		if size.IsZero() {
			return slot
		}
	}
	x := slot.LLx + (sw-size.Width)/2
	y := slot.LLy + (sh-size.Height)/2
	return rect.Rect{LLx: x, LLy: y, URx: x + size.Width, URy: y + size.Height}
}
