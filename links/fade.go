package links

import (
	"flipbook/config"
)

type fadePhase int

const (
	fadeHold fadePhase = iota
	fadeIn
	fadeOut
)

// Fader drives link highlight opacity one frame at a time. Links are shown
// fully after navigation, stay for a dwell time and then fade out. Hovering a
// link fades highlights back in, interrupting fade out. Dwell timing belongs
// to the owner (see sched.LinkFade), it calls FadeOut when dwell expires.
type Fader struct {
	cfg     *config.LinksConfig
	opacity float64
	phase   fadePhase
	hovered *Hit
}

func NewFader(cfg *config.LinksConfig) *Fader {
	return &Fader{cfg: cfg, opacity: 1}
}

// Opacity of non hovered links.
func (f *Fader) Opacity() float64 {
	return f.opacity
}

// Hovered returns link under pointer if any.
func (f *Fader) Hovered() *Hit {
	return f.hovered
}

// Show makes links fully visible and holds them until FadeOut.
func (f *Fader) Show() {
	f.opacity = 1
	f.phase = fadeHold
}

// FadeOut starts fading unless a link is hovered.
func (f *Fader) FadeOut() {
	if f.hovered != nil {
		return
	}
	f.phase = fadeOut
}

// Hover updates hovered link, nil means none. It returns true when hover
// state ended, owner should restart dwell timer then.
func (f *Fader) Hover(h *Hit) (ended bool) {
	switch {
	case h != nil && (f.hovered == nil || !f.hovered.Same(*h)):
		hit := *h
		f.hovered = &hit
		f.phase = fadeIn
	case h == nil && f.hovered != nil:
		f.hovered = nil
		if f.phase == fadeIn {
			f.phase = fadeHold
		}
		return true
	}
	return false
}

// Step advances fade by one frame and reports whether opacity is still
// changing.
func (f *Fader) Step() bool {
	switch f.phase {
	case fadeIn:
		f.opacity = min(1, f.opacity+f.cfg.FadeIn)
		if f.opacity >= 1 {
			f.phase = fadeHold
		}
	case fadeOut:
		f.opacity = max(0, f.opacity-f.cfg.FadeOut)
		if f.opacity <= 0 {
			f.phase = fadeHold
		}
	default:
		return false
	}
	return f.phase != fadeHold
}
