// Package pagination maps page indexes to spreads and scroll progress.
//
// All functions are pure. Document with zero pages produces zeroes (and empty
// strings) everywhere.
package pagination

import (
	"fmt"
	"math"
)

// Layout describes how pages of a document are paired into spreads.
type Layout struct {
	TotalPages     int
	SinglePage     bool
	StartWithCover bool
}

// SpreadCount returns number of spreads in double page mode.
func SpreadCount(totalPages int, startWithCover bool) int {
	if totalPages <= 0 {
		return 0
	}
	if startWithCover {
		return 1 + totalPages/2 // 1 + ceil((totalPages-1)/2)
	}
	return (totalPages + 1) / 2
}

// CurrentSpread returns spread index for the left page of a spread.
func CurrentSpread(page int, startWithCover bool) int {
	if page <= 0 {
		return 0
	}
	if startWithCover {
		return (page + 2) / 2 // ceil((page+1)/2)
	}
	return page / 2
}

// SnapToValidPage returns left page of the spread page belongs to. Pages are
// not snapped in single page mode.
func SnapToValidPage(page int, singlePage, startWithCover bool) int {
	if page < 0 {
		page = 0
	}
	if singlePage || page == 0 {
		return page
	}
	if startWithCover {
		if page%2 == 0 {
			return page - 1
		}
		return page
	}
	return page - page%2
}

// SpreadStart returns left page of spread.
func SpreadStart(spread int, startWithCover bool) int {
	if spread <= 0 {
		return 0
	}
	if startWithCover {
		return 2*spread - 1
	}
	return 2 * spread
}

// ProgressFromPage maps page to [0,1] scroll position.
func ProgressFromPage(page int, l Layout) float64 {
	if l.TotalPages <= 0 {
		return 0
	}
	if l.SinglePage {
		if l.TotalPages == 1 {
			return 0
		}
		return clampUnit(float64(page) / float64(l.TotalPages-1))
	}
	spreads := SpreadCount(l.TotalPages, l.StartWithCover)
	if spreads <= 1 {
		return 0
	}
	spread := CurrentSpread(SnapToValidPage(page, false, l.StartWithCover), l.StartWithCover)
	return clampUnit(float64(spread) / float64(spreads-1))
}

// PageFromProgress maps [0,1] scroll position to the closest valid page.
func PageFromProgress(progress float64, l Layout) int {
	if l.TotalPages <= 0 {
		return 0
	}
	progress = clampUnit(progress)
	if l.SinglePage {
		return int(math.Round(progress * float64(l.TotalPages-1)))
	}
	spreads := SpreadCount(l.TotalPages, l.StartWithCover)
	if spreads <= 1 {
		return 0
	}
	spread := int(math.Round(progress * float64(spreads-1)))
	page := SpreadStart(spread, l.StartWithCover)
	if page > l.TotalPages-1 {
		page = SnapToValidPage(l.TotalPages-1, false, l.StartWithCover)
	}
	return page
}

// IsLastSpread reports whether there is nothing to flip to going forward.
func IsLastSpread(page int, l Layout) bool {
	if l.SinglePage {
		return page >= l.TotalPages-1
	}
	return CurrentSpread(page, l.StartWithCover) >= SpreadCount(l.TotalPages, l.StartWithCover)-1
}

// VisiblePages returns indexes of pages shown when page is current. Result is
// ordered left to right and never contains pages outside of document.
func VisiblePages(page int, l Layout) []int {
	if l.TotalPages <= 0 || page < 0 || page >= l.TotalPages {
		return nil
	}
	if l.SinglePage || (page == 0 && l.StartWithCover) {
		return []int{page}
	}
	if page+1 < l.TotalPages {
		return []int{page, page + 1}
	}
	return []int{page}
}

// FlipTarget returns page flip in direction (+1 forward, -1 back) should end
// on. ok is false when flip is not possible.
func FlipTarget(page, direction int, l Layout) (target int, ok bool) {
	if l.TotalPages <= 0 || direction == 0 {
		return page, false
	}
	switch {
	case l.SinglePage:
		target = page + direction
	case l.StartWithCover && page == 0 && direction > 0:
		target = 1
	case l.StartWithCover && page == 1 && direction < 0:
		target = 0
	default:
		target = page + 2*direction
	}
	if target < 0 || target >= l.TotalPages {
		return page, false
	}
	return target, true
}

// LoadingText replaces position while visible pages are being loaded.
const LoadingText = "Loading..."

// Format returns human readable position, e.g. "4-5 / 10".
func Format(page int, l Layout) string {
	if l.TotalPages <= 0 {
		return ""
	}
	if l.SinglePage {
		return fmt.Sprintf("%d / %d", page+1, l.TotalPages)
	}
	if page == 0 {
		if l.StartWithCover || l.TotalPages == 1 {
			return fmt.Sprintf("1 / %d", l.TotalPages)
		}
		return fmt.Sprintf("1-2 / %d", l.TotalPages)
	}
	if page+1 < l.TotalPages {
		return fmt.Sprintf("%d-%d / %d", page+1, page+2, l.TotalPages)
	}
	return fmt.Sprintf("%d / %d", page+1, l.TotalPages)
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
