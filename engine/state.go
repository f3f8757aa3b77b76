package engine

import (
	"flipbook/common"
	"flipbook/geometry"
	"flipbook/pagination"
	"flipbook/utils/debug"
	"flipbook/viewport"
)

// PageState is what cache holds for a page.
type PageState struct {
	Index    int             `yaml:"index"`
	Surface  bool            `yaml:"surface"`
	Fidelity common.Fidelity `yaml:"fidelity,omitempty"`
	Layout   geometry.Size   `yaml:"layout"`
	Links    int             `yaml:"links"`
}

// State is a snapshot of engine for debug reports.
type State struct {
	Generation string            `yaml:"generation"`
	Mode       common.ViewMode   `yaml:"mode"`
	Layout     pagination.Layout `yaml:"layout"`
	View       geometry.Size     `yaml:"view"`
	Slot       geometry.Size     `yaml:"slot"`
	Viewport   viewport.State    `yaml:"viewport"`
	Info       string            `yaml:"info"`
	Controls   bool              `yaml:"controls"`
	Loading    bool              `yaml:"loading"`
	LinkAlpha  float64           `yaml:"link_opacity"`
	Pages      []PageState       `yaml:"pages"`
}

// State returns snapshot of engine.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	l := e.vp.Layout()
	st := State{
		Generation: e.gen.String(),
		Mode:       e.mode,
		Layout:     l,
		View:       e.view,
		Slot:       e.slot,
		Viewport:   e.vp.State(),
		Controls:   e.controls,
		Loading:    e.loading,
		LinkAlpha:  e.fader.Opacity(),
	}
	st.Info = pagination.Format(st.Viewport.CurrentPage, l)
	for i := range l.TotalPages {
		entry, ok := e.cache.Get(i)
		if !ok {
			continue
		}
		st.Pages = append(st.Pages, PageState{
			Index:    i,
			Surface:  entry.Surface != nil,
			Fidelity: entry.Fidelity,
			Layout:   entry.Layout,
			Links:    len(entry.Links),
		})
	}
	return st
}

// String renders state as indented tree.
func (s State) String() string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "engine %s", s.Generation)
	tw.Line(1, "mode: %s single=%t cover=%t", s.Mode, s.Layout.SinglePage, s.Layout.StartWithCover)
	tw.Size(1, "view", s.View)
	tw.Size(1, "slot", s.Slot)
	tw.TextBlock(1, "info", s.Info)

	v := s.Viewport
	tw.Line(1, "viewport")
	tw.Line(2, "page: %d driver: %s", v.CurrentPage, v.Driver)
	if v.Flipping() {
		tw.Line(2, "flip: %+d -> %d at %.2f", v.FlipDirection, v.FlipTarget, v.FlipProgress)
	}
	if v.Zoomed || v.Scale != 1 {
		tw.Line(2, "zoom: %.2f pan: %.1f,%.1f", v.Scale, v.Pan.X, v.Pan.Y)
	}

	tw.Line(1, "pages (%d cached)", len(s.Pages))
	for _, p := range s.Pages {
		surface := "-"
		if p.Surface {
			surface = p.Fidelity.String()
		}
		tw.Line(2, "%d: surface=%s links=%d", p.Index, surface, p.Links)
		if !p.Layout.IsZero() {
			tw.Size(3, "layout", p.Layout)
		}
	}
	return tw.String()
}
