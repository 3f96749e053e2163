package tui

import (
	"github.com/JamesDavid/InReader-sub001/internal/storage"
)

// Screen is the active TUI surface.
type Screen int

const (
	ScreenFeeds Screen = iota
	ScreenEntries
	ScreenReader
	ScreenAddFeed
	ScreenSearch
	ScreenSavedSearches
)

// StatusKind indicates severity for the status bar.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusError
)

type feedsLoadedMsg struct {
	feeds []*storage.Feed
}

// entriesChangedMsg asks the entry list to resync from the controller.
type entriesChangedMsg struct{}

type entryRenderedMsg struct {
	entryID string
	content string
}

type feedAddedMsg struct {
	feed *storage.Feed
	err  error
}

type refreshDoneMsg struct {
	err error
}

type searchScopeMsg struct {
	query string
	scope storage.Scope
	err   error
}

type savedSearchesLoadedMsg struct {
	searches []*storage.SavedSearch
}

// searchSavedMsg reports a query persisted as a saved search, with the
// freshly run result scope.
type searchSavedMsg struct {
	search *storage.SavedSearch
	scope  storage.Scope
	err    error
}

type reprocessDoneMsg struct {
	entryID string
	err     error
}

type listenDoneMsg struct {
	entryID string
	err     error
}

type chatReplyMsg struct {
	entryID string
	reply   string
	err     error
}

type toastMsg struct {
	message string
	kind    StatusKind
}

type errorMsg struct {
	err error
}
