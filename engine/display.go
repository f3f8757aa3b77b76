package engine

import (
	"time"

	"go.uber.org/zap"

	"flipbook/common"
	"flipbook/compose"
	"flipbook/geometry"
	"flipbook/pagination"
	"flipbook/sched"
)

// Resize sets window size. The very first size is applied at once, later
// changes are debounced and wait for pinch to release locked dimensions.
func (e *Engine) Resize(view geometry.Size) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.clock()

	if e.view.IsZero() {
		e.view = view
		e.applyGeometry(false)
		return
	}
	e.timers.After(sched.Resize, e.now, e.cfg.Viewer.ResizeDebounce, func(time.Time) {
		e.view = view
		e.requestGeometry()
	})
}

// SetMode switches page mode.
func (e *Engine) SetMode(mode common.ViewMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.clock()

	e.mode = mode
	e.requestGeometry()
}

// Mode returns requested page mode and whether single pages are shown now.
func (e *Engine) Mode() (common.ViewMode, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode, e.vp.Layout().SinglePage
}

func (e *Engine) requestGeometry() {
	if e.vp.Locked() {
		e.log.Debug("Geometry change postponed until pinch ends")
		e.stale = true
		return
	}
	e.applyGeometry(false)
}

func (e *Engine) singlePage() bool {
	switch e.mode {
	case common.ViewModeSingle:
		return true
	case common.ViewModeDouble:
		return false
	}
	return compose.AutoSinglePage(e.view)
}

// applyGeometry recomputes page slot and pagination layout from window size,
// mode and document. Switching between single and double pages re-snaps
// current page, drops cached layouts and links and refreshes visible pages.
func (e *Engine) applyGeometry(load bool) {
	e.stale = false

	single := e.singlePage()
	l := pagination.Layout{
		TotalPages:     e.cache.PageCount(),
		SinglePage:     single,
		StartWithCover: e.cfg.Viewer.StartWithCover,
	}
	e.slot = compose.SlotSize(e.view, e.aspect, single)
	content := geometry.Size{Width: e.slot.Width * float64(compose.Slots(single)), Height: e.slot.Height}

	prev := e.vp.Layout()
	e.vp.SetGeometry(e.view, content)
	slotChanged := e.cache.SetSlot(e.slot)

	if l == prev && !load {
		if slotChanged {
			e.refetchVisible()
		}
		return
	}
	e.vp.SetLayout(l)
	if load || l.TotalPages == 0 {
		return
	}

	e.log.Debug("Page mode switched",
		zap.Bool("single", single),
		zap.Int("page", e.vp.State().CurrentPage))
	e.refetchVisible()
	e.navigated(e.cfg.Cache.ModeSwitchDelay)
}

// refetchVisible requests layouts and links of current spread again after
// they were invalidated.
func (e *Engine) refetchVisible() {
	visible := pagination.VisiblePages(e.vp.State().CurrentPage, e.vp.Layout())
	if len(visible) == 0 {
		return
	}
	e.cache.Prefetch(visible[0], visible[len(visible)-1], common.FidelityLow)
}
