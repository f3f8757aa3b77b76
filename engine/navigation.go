package engine

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"flipbook/common"
	"flipbook/pagination"
	"flipbook/sched"
	"flipbook/source"
)

// GoToPage jumps to page: index is clamped and snapped to spread start, zoom
// reset and running flip cancelled. Returns new current page.
func (e *Engine) GoToPage(page int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.clock()
	return e.goToPage(page)
}

func (e *Engine) goToPage(page int) int {
	cur, changed := e.vp.GoToPage(page)
	e.log.Debug("Go to page", zap.Int("requested", page), zap.Int("current", cur), zap.Bool("changed", changed))
	e.navigated(e.cfg.Cache.HighFidelityDelay)
	return cur
}

// StartFlip begins animated page turn, +1 forward and -1 back. It returns
// false when there is nowhere to go or another flip is running.
func (e *Engine) StartFlip(direction int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.clock()
	return e.startFlip(direction)
}

func (e *Engine) startFlip(direction int) bool {
	if !e.vp.StartFlip(direction) {
		return false
	}
	e.prefetchTarget()
	return true
}

// Next turns page forward.
func (e *Engine) Next() bool {
	return e.StartFlip(1)
}

// Prev turns page back.
func (e *Engine) Prev() bool {
	return e.StartFlip(-1)
}

// Seek navigates to position of scrollbar in [0,1].
func (e *Engine) Seek(progress float64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.clock()
	return e.seek(progress)
}

func (e *Engine) seek(progress float64) int {
	st := e.vp.State()
	page := pagination.PageFromProgress(progress, e.vp.Layout())
	if page == st.CurrentPage && !st.Flipping() {
		return page
	}
	return e.goToPage(page)
}

// ToggleControls flips visibility of controls.
func (e *Engine) ToggleControls() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.controls = !e.controls
}

// prefetchTarget loads pages uncovered by flip in progress.
func (e *Engine) prefetchTarget() {
	st := e.vp.State()
	visible := pagination.VisiblePages(st.FlipTarget, e.vp.Layout())
	if len(visible) == 0 {
		return
	}
	e.cache.Prefetch(visible[0], visible[len(visible)-1], common.FidelityLow)
}

// navigated runs after current page changed: surfaces outside keep window
// are evicted, window is prefetched, visible pages get high fidelity after
// delay and links are shown again.
func (e *Engine) navigated(delay time.Duration) {
	l := e.vp.Layout()
	if l.TotalPages == 0 {
		return
	}
	cur := e.vp.State().CurrentPage
	keep := e.cfg.Cache.Buffer(l.SinglePage)

	e.cache.EvictOutside(cur, keep)
	e.cache.Prefetch(cur, cur+keep, common.FidelityLow)
	if cur > 0 {
		e.cache.Prefetch(cur-2, cur-1, common.FidelityLow)
	}
	e.scheduleRefresh(delay)
	e.showLinks()
}

// scheduleRefresh replaces pending high fidelity refresh. Visible pages are
// taken when timer fires, so rapid flipping only upgrades where it stopped.
func (e *Engine) scheduleRefresh(delay time.Duration) {
	e.timers.After(sched.HighFidelity, e.now, delay, func(time.Time) {
		st := e.vp.State()
		if st.Flipping() {
			return
		}
		visible := pagination.VisiblePages(st.CurrentPage, e.vp.Layout())
		if len(visible) > 0 {
			e.cache.PrefetchHighFidelity(visible)
		}
	})
}

// showLinks makes link highlights fully visible and restarts dwell timer.
func (e *Engine) showLinks() {
	e.fader.Show()
	e.scheduleFade()
}

func (e *Engine) scheduleFade() {
	e.timers.After(sched.LinkFade, e.now, e.cfg.Viewer.Links.FadeDelay, func(time.Time) {
		e.fader.FadeOut()
	})
}

// activate follows link target. Internal targets navigate, URLs go to link
// handler, named destinations are looked up in background.
func (e *Engine) activate(t source.Target) {
	switch t.Kind {
	case common.TargetKindUrl:
		e.outbox = append(e.outbox, t)
	case common.TargetKindPage:
		e.goToPage(t.Page)
	case common.TargetKindPageNumber:
		e.goToPage(t.Page - 1)
	case common.TargetKindNamed:
		e.resolve(t.Name)
	default:
		e.log.Debug("Inert link activated")
	}
}

func (e *Engine) resolve(name string) {
	src, gen := e.src, e.gen
	if src == nil {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		page, err := src.Resolve(e.ctx, name)
		if err != nil {
			var lre *source.LinkResolutionError
			if !errors.As(err, &lre) {
				err = &source.LinkResolutionError{Destination: name, Err: err}
			}
			e.log.Debug("Link is inert", zap.Error(err))
			return
		}
		e.mu.Lock()
		e.resolved = append(e.resolved, resolution{gen: gen, name: name, page: page})
		e.mu.Unlock()
		e.dirty.Store(true)
	}()
}

// applyResolved navigates to destinations resolved since last tick. Results
// for previously loaded documents are dropped.
func (e *Engine) applyResolved() {
	res := e.resolved
	e.resolved = nil
	for _, r := range res {
		if r.gen != e.gen {
			continue
		}
		e.log.Debug("Destination resolved", zap.String("name", r.name), zap.Int("page", r.page))
		e.goToPage(r.page)
	}
}
