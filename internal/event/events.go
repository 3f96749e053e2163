package event

import "time"

// Kind identifies an event type on the bus.
type Kind string

const (
	KindEntryReadChanged     Kind = "entryReadChanged"
	KindEntryMarkedAsRead    Kind = "entryMarkedAsRead"
	KindEntryStarredChanged  Kind = "entryStarredChanged"
	KindEntryReprocessed     Kind = "entryReprocessed"
	KindEntryRefreshStart    Kind = "entryRefreshStart"
	KindEntryRefreshComplete Kind = "entryRefreshComplete"
	KindFeedRefreshStart     Kind = "feedRefreshStart"
	KindFeedRefreshComplete  Kind = "feedRefreshComplete"
	KindFeedRefreshed        Kind = "feedRefreshed"
	KindMobileSwipeDismiss   Kind = "mobileSwipeDismiss"
	KindFeedListPageChange   Kind = "feedListPageChange"
	KindToggleEntryExpand    Kind = "toggleEntryExpand"
	KindFeedEntryScroll      Kind = "feedEntryScroll"
	KindShowToast            Kind = "showToast"
)

// Event is implemented by every payload carried on the bus.
type Event interface {
	EventKind() Kind
}

// EntryReadChanged is the optimistic notification fired before the store
// write for a read toggle completes.
type EntryReadChanged struct {
	EntryID string
	IsRead  bool
}

func (EntryReadChanged) EventKind() Kind { return KindEntryReadChanged }

// EntryMarkedAsRead is the coarse post-write signal to recompute unread
// counts. An empty FeedID means recompute globally.
type EntryMarkedAsRead struct {
	FeedID string
}

func (EntryMarkedAsRead) EventKind() Kind { return KindEntryMarkedAsRead }

type EntryStarredChanged struct {
	EntryID     string
	IsStarred   bool
	StarredDate *time.Time
}

func (EntryStarredChanged) EventKind() Kind { return KindEntryStarredChanged }

type EntryReprocessed struct {
	EntryID string
}

func (EntryReprocessed) EventKind() Kind { return KindEntryReprocessed }

type EntryRefreshStart struct {
	EntryID string
}

func (EntryRefreshStart) EventKind() Kind { return KindEntryRefreshStart }

// EntryRefreshComplete carries the reloaded entry. Payload is declared as
// any to keep the bus free of storage types; subscribers assert the
// concrete entry type they expect.
type EntryRefreshComplete struct {
	Entry any
}

func (EntryRefreshComplete) EventKind() Kind { return KindEntryRefreshComplete }

type FeedRefreshStart struct {
	FeedID string
}

func (FeedRefreshStart) EventKind() Kind { return KindFeedRefreshStart }

type FeedRefreshComplete struct {
	FeedID  string
	Success bool
}

func (FeedRefreshComplete) EventKind() Kind { return KindFeedRefreshComplete }

type FeedRefreshed struct {
	FeedID string
}

func (FeedRefreshed) EventKind() Kind { return KindFeedRefreshed }

// MobileSwipeDismiss requests removal of an entry from the current view.
type MobileSwipeDismiss struct {
	EntryID    string
	Index      int
	ExpandNext bool
}

func (MobileSwipeDismiss) EventKind() Kind { return KindMobileSwipeDismiss }

type PageDirection int

const (
	PageNext PageDirection = iota
	PagePrev
)

// FeedListPageChange requests explicit page navigation. SelectIndex is the
// requested post-navigation selection, -1 when the caller has no preference.
type FeedListPageChange struct {
	Page        int
	SelectIndex int
	Direction   PageDirection
}

func (FeedListPageChange) EventKind() Kind { return KindFeedListPageChange }

type ToggleEntryExpand struct {
	EntryID string
}

func (ToggleEntryExpand) EventKind() Kind { return KindToggleEntryExpand }

type FeedEntryScroll struct {
	EntryID string
}

func (FeedEntryScroll) EventKind() Kind { return KindFeedEntryScroll }

type ToastType string

const (
	ToastSuccess ToastType = "success"
	ToastError   ToastType = "error"
)

type ShowToast struct {
	Message string
	Type    ToastType
}

func (ShowToast) EventKind() Kind { return KindShowToast }
