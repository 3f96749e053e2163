package view

import (
	"github.com/JamesDavid/InReader-sub001/internal/event"
	"github.com/JamesDavid/InReader-sub001/internal/paginate"
)

// Intent is a discrete keyboard navigation request.
type Intent int

const (
	IntentNext Intent = iota
	IntentPrevious
	IntentJumpToTop
)

// PageRequest asks for a page change with a post-navigation selection.
type PageRequest struct {
	Page        int
	SelectIndex int
	Direction   event.PageDirection
}

// MoveResult is the outcome of applying an intent: either an index movement
// within the current page, or a page-boundary crossing.
type MoveResult struct {
	Index       int
	PageRequest *PageRequest
}

// Advance maps an intent to an index mutation against the currently visible
// list. Pure function: it never touches rendered output or controller
// state. Crossing past the last visible index on a non-final page requests
// the next page selecting index 0; crossing before index 0 on a non-first
// page requests the previous page selecting that page's last index.
func Advance(intent Intent, index, visibleLen int, meta paginate.Meta) MoveResult {
	switch intent {
	case IntentJumpToTop:
		return MoveResult{Index: 0}

	case IntentNext:
		if index+1 < visibleLen {
			return MoveResult{Index: index + 1}
		}
		if meta.CurrentPage < meta.TotalPages {
			return MoveResult{
				Index: index,
				PageRequest: &PageRequest{
					Page:        meta.CurrentPage + 1,
					SelectIndex: 0,
					Direction:   event.PageNext,
				},
			}
		}
		return MoveResult{Index: index}

	case IntentPrevious:
		if index > 0 {
			return MoveResult{Index: index - 1}
		}
		if meta.CurrentPage > 1 {
			// Non-final pages are always full, so the previous page's last
			// index is pageSize-1.
			return MoveResult{
				Index: index,
				PageRequest: &PageRequest{
					Page:        meta.CurrentPage - 1,
					SelectIndex: meta.ItemsPerPage - 1,
					Direction:   event.PagePrev,
				},
			}
		}
		return MoveResult{Index: index}

	default:
		return MoveResult{Index: index}
	}
}
