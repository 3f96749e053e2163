package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JamesDavid/InReader-sub001/internal/event"
	"github.com/JamesDavid/InReader-sub001/internal/storage"
	"github.com/JamesDavid/InReader-sub001/internal/view"
)

type KeyHandler struct {
	app *App
}

func NewKeyHandler(app *App) *KeyHandler {
	return &KeyHandler{app: app}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	switch key {
	case "ctrl+c", "q":
		return kh.app, tea.Quit
	}

	switch kh.app.screen {
	case ScreenFeeds:
		return kh.handleFeedsKey(msg)
	case ScreenEntries:
		return kh.handleEntriesKey(msg)
	case ScreenReader:
		return kh.handleReaderKey(msg)
	case ScreenSavedSearches:
		return kh.handleSavedSearchesKey(msg)
	}
	return kh.app, nil
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.screen {
	case ScreenAddFeed:
		return kh.app.textInput.Focused()
	case ScreenSearch:
		return kh.app.searchInput.Focused()
	case ScreenReader:
		return kh.app.textInput.Focused()
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case "esc":
		if a.screen == ScreenReader {
			a.textInput.Blur()
			a.textInput.SetValue("")
			return a, nil
		}
		a.screen = a.previousScreen
		return a, nil
	case "ctrl+c":
		return a, tea.Quit
	case "ctrl+s":
		if a.screen == ScreenSearch {
			query := strings.TrimSpace(a.searchInput.Value())
			if query == "" {
				return a, nil
			}
			a.searchInput.SetValue("")
			return a, a.saveSearch(query)
		}
		return a, nil
	case "enter":
		switch a.screen {
		case ScreenAddFeed:
			input := strings.TrimSpace(a.textInput.Value())
			if input == "" {
				return a, nil
			}
			a.setStatus("Adding feed...", StatusInfo)
			a.textInput.SetValue("")
			return a, a.addFeed(input)
		case ScreenSearch:
			query := strings.TrimSpace(a.searchInput.Value())
			if query == "" {
				return a, nil
			}
			a.searchInput.SetValue("")
			return a, a.runSearch(query)
		case ScreenReader:
			message := strings.TrimSpace(a.textInput.Value())
			if message == "" || a.currentEntry == nil {
				return a, nil
			}
			a.textInput.SetValue("")
			a.textInput.Blur()
			a.setStatus("Waiting for reply...", StatusInfo)
			return a, a.chat(a.currentEntry.ID, message)
		}
		return a, nil
	default:
		var cmd tea.Cmd
		switch a.screen {
		case ScreenAddFeed, ScreenReader:
			a.textInput, cmd = a.textInput.Update(msg)
		case ScreenSearch:
			a.searchInput, cmd = a.searchInput.Update(msg)
		}
		return a, cmd
	}
}

func (kh *KeyHandler) handleFeedsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case "enter":
		if item, ok := a.feedList.SelectedItem().(feedItem); ok {
			a.screen = ScreenEntries
			return a, a.mountScope(storage.FeedScope(item.feed.ID), "› "+item.feed.Title)
		}
		return a, nil
	case "A":
		a.screen = ScreenEntries
		return a, a.mountScope(storage.AllScope(), "› all entries")
	case "*":
		a.screen = ScreenEntries
		return a, a.mountScope(storage.StarredScope(), "› starred")
	case "L":
		a.screen = ScreenEntries
		return a, a.mountScope(storage.ListenedScope(), "› listened")
	case "a":
		a.previousScreen = a.screen
		a.screen = ScreenAddFeed
		a.textInput.Placeholder = "Enter feed URL..."
		a.textInput.Focus()
		return a, nil
	case "/":
		a.previousScreen = a.screen
		a.screen = ScreenSearch
		a.searchInput.Focus()
		return a, nil
	case "S":
		a.screen = ScreenSavedSearches
		return a, a.loadSavedSearches()
	case "r":
		a.setStatus("Refreshing...", StatusInfo)
		return a, a.refresh(view.TriggerManual)
	case "x":
		if item, ok := a.feedList.SelectedItem().(feedItem); ok {
			if err := a.store.DeleteFeed(item.feed.ID); err != nil {
				return a, func() tea.Msg { return errorMsg{err: err} }
			}
			return a, a.loadFeeds()
		}
		return a, nil
	default:
		var cmd tea.Cmd
		a.feedList, cmd = a.feedList.Update(msg)
		return a, cmd
	}
}

func (kh *KeyHandler) handleEntriesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case "j", "down":
		a.controller.Move(view.IntentNext)
		a.syncEntryList()
		return a, nil
	case "k", "up":
		a.controller.Move(view.IntentPrevious)
		a.syncEntryList()
		return a, nil
	case "g", "home":
		a.controller.Move(view.IntentJumpToTop)
		a.syncEntryList()
		return a, nil
	case "n", "right":
		a.controller.RequestPage(a.controller.PageMeta().CurrentPage+1, event.PageNext)
		a.syncEntryList()
		return a, nil
	case "p", "left":
		a.controller.RequestPage(a.controller.PageMeta().CurrentPage-1, event.PagePrev)
		a.syncEntryList()
		return a, nil
	case "enter":
		entry := kh.selectedEntry()
		if entry == nil {
			return a, nil
		}
		a.currentEntry = entry
		a.screen = ScreenReader
		a.loadingEntry = true
		a.focusedEntryID = entry.ID
		a.controller.FocusEntry(entry.ID)
		return a, a.renderEntry(entry)
	case "m":
		if entry := kh.selectedEntry(); entry != nil {
			_ = a.controller.MarkRead(entry.ID, !entry.IsRead)
			a.syncEntryList()
		}
		return a, nil
	case "s":
		if entry := kh.selectedEntry(); entry != nil {
			_ = a.controller.ToggleStar(entry.ID)
			a.syncEntryList()
		}
		return a, nil
	case "x", "d":
		if entry := kh.selectedEntry(); entry != nil {
			idx, _ := a.controller.Selection()
			a.controller.Dismiss(entry.ID, idx, false)
			a.syncEntryList()
		}
		return a, nil
	case "u":
		a.controller.SetUnreadOnly(!a.controller.UnreadOnly())
		a.syncEntryList()
		return a, nil
	case "tab":
		if entry := kh.selectedEntry(); entry != nil {
			a.controller.ToggleExpand(entry.ID)
			a.syncEntryList()
		}
		return a, nil
	case "r":
		a.setStatus("Refreshing...", StatusInfo)
		return a, a.refresh(view.TriggerManual)
	case "i":
		if entry := kh.selectedEntry(); entry != nil {
			a.setStatus("Reprocessing...", StatusInfo)
			return a, a.reprocess(entry.ID)
		}
		return a, nil
	case "l":
		if entry := kh.selectedEntry(); entry != nil {
			a.setStatus("Synthesizing audio...", StatusInfo)
			return a, a.listen(entry)
		}
		return a, nil
	case "/":
		a.previousScreen = a.screen
		a.screen = ScreenSearch
		a.searchInput.Focus()
		return a, nil
	case "esc":
		a.screen = ScreenFeeds
		return a, a.loadFeeds()
	default:
		var cmd tea.Cmd
		a.entryList, cmd = a.entryList.Update(msg)
		return a, cmd
	}
}

func (kh *KeyHandler) handleReaderKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case "esc":
		if a.focusedEntryID != "" {
			a.controller.BlurEntry(a.focusedEntryID)
			a.focusedEntryID = ""
		}
		a.screen = ScreenEntries
		a.currentEntry = nil
		a.syncEntryList()
		return a, nil
	case "o":
		if a.currentEntry != nil {
			return a, a.openLink(a.currentEntry)
		}
		return a, nil
	case "s":
		if a.currentEntry != nil {
			_ = a.controller.ToggleStar(a.currentEntry.ID)
		}
		return a, nil
	case "l":
		if a.currentEntry != nil {
			a.setStatus("Synthesizing audio...", StatusInfo)
			return a, a.listen(a.currentEntry)
		}
		return a, nil
	case "i":
		if a.currentEntry != nil {
			a.setStatus("Reprocessing...", StatusInfo)
			return a, a.reprocess(a.currentEntry.ID)
		}
		return a, nil
	case "c":
		if a.currentEntry != nil {
			a.textInput.Placeholder = "Ask about this entry..."
			a.textInput.Focus()
		}
		return a, nil
	default:
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
}

func (kh *KeyHandler) handleSavedSearchesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case "enter":
		if item, ok := a.savedSearchList.SelectedItem().(savedSearchItem); ok {
			return a, a.runSavedSearch(item.search)
		}
		return a, nil
	case "/":
		a.previousScreen = a.screen
		a.screen = ScreenSearch
		a.searchInput.Focus()
		return a, nil
	case "esc":
		a.screen = ScreenFeeds
		return a, nil
	default:
		var cmd tea.Cmd
		a.savedSearchList, cmd = a.savedSearchList.Update(msg)
		return a, cmd
	}
}

// selectedEntry resolves the controller's selection into the entry struct.
func (kh *KeyHandler) selectedEntry() *storage.Entry {
	_, id := kh.app.controller.Selection()
	if id == "" {
		return nil
	}
	for _, e := range kh.app.controller.Visible() {
		if e.ID == id {
			return e
		}
	}
	return nil
}
