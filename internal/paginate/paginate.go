// Package paginate computes page windows for ordered collections. The same
// clamping and slicing rules apply whether a caller slices an in-memory
// collection (local mode) or asks the store for a pre-sliced page (remote
// mode), so a view can switch between the two regimes transparently.
package paginate

// Meta describes one page window of a collection.
type Meta struct {
	CurrentPage  int
	ItemsPerPage int
	TotalItems   int
	TotalPages   int
}

// Page is a page window plus the items inside it.
type Page[T any] struct {
	Items []T
	Meta
}

// Window clamps page into the valid range for totalItems and pageSize and
// returns the page metadata. It never fails on out-of-range input; the page
// is silently corrected. TotalPages is at least 1 so an empty collection
// still has a well-defined current page.
func Window(totalItems, page, pageSize int) Meta {
	if pageSize < 1 {
		pageSize = 1
	}
	if totalItems < 0 {
		totalItems = 0
	}
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return Meta{
		CurrentPage:  page,
		ItemsPerPage: pageSize,
		TotalItems:   totalItems,
		TotalPages:   totalPages,
	}
}

// Bounds returns the half-open slice interval [start, end) for the window.
func (m Meta) Bounds() (start, end int) {
	start = (m.CurrentPage - 1) * m.ItemsPerPage
	end = start + m.ItemsPerPage
	if end > m.TotalItems {
		end = m.TotalItems
	}
	if start > m.TotalItems {
		start = m.TotalItems
	}
	return start, end
}

// Paginate slices items to the requested page. Pure function of its inputs.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	meta := Window(len(items), page, pageSize)
	start, end := meta.Bounds()
	return Page[T]{Items: items[start:end], Meta: meta}
}
