package tui

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JamesDavid/InReader-sub001/internal/storage"
	"github.com/JamesDavid/InReader-sub001/internal/view"
)

func (a *App) loadFeeds() tea.Cmd {
	return func() tea.Msg {
		feeds, err := a.store.GetAllFeeds()
		if err != nil {
			return errorMsg{err: err}
		}
		return feedsLoadedMsg{feeds: feeds}
	}
}

// mountScope routes the entry list to a new view.
func (a *App) mountScope(scope storage.Scope, title string) tea.Cmd {
	return func() tea.Msg {
		a.controller.SetScope(scope)
		a.entryList.Title = title
		return entriesChangedMsg{}
	}
}

// renderEntry renders the entry's content layers to markdown and starts the
// dwell timer; the controller marks the entry read when the dwell elapses.
func (a *App) renderEntry(entry *storage.Entry) tea.Cmd {
	return func() tea.Msg {
		var content strings.Builder
		content.WriteString(fmt.Sprintf("# %s\n\n", entry.Title))
		content.WriteString(fmt.Sprintf("*Published: %s*\n\n", entry.PublishDate.Format(time.RFC1123)))
		if entry.Link != "" {
			content.WriteString(fmt.Sprintf("[Read Online](%s)\n\n", entry.Link))
		}

		if entry.AISummary != "" {
			content.WriteString("**Summary**\n\n")
			content.WriteString(entry.AISummary)
			content.WriteString("\n\n")
		}
		content.WriteString("---\n\n")

		body := entry.FullArticle
		if body == "" {
			body = entry.RSSAbstract
		}
		content.WriteString(bodyMarkdown(body))

		if len(entry.ChatHistory) > 0 {
			content.WriteString("\n\n---\n\n## Chat\n\n")
			for _, msg := range entry.ChatHistory {
				content.WriteString(fmt.Sprintf("**%s:** %s\n\n", msg.Role, msg.Content))
			}
		}

		r, err := a.getRenderer()
		if err != nil {
			return entryRenderedMsg{entryID: entry.ID, content: "Error initializing renderer: " + err.Error()}
		}

		rendered, err := r.Render(content.String())
		if err != nil {
			return entryRenderedMsg{
				entryID: entry.ID,
				content: fmt.Sprintf("# Error\n\nFailed to render entry: %s\n\nPress esc to go back.", err.Error()),
			}
		}

		return entryRenderedMsg{entryID: entry.ID, content: rendered}
	}
}

// bodyMarkdown converts the feed's HTML payload to markdown for glamour.
// Plain-text bodies pass through the converter unchanged.
func bodyMarkdown(body string) string {
	md, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		return body
	}
	return md
}

func (a *App) addFeed(url string) tea.Cmd {
	return func() tea.Msg {
		added, err := a.manager.AddFeed(url)
		return feedAddedMsg{feed: added, err: err}
	}
}

func (a *App) refresh(trigger view.RefreshTrigger) tea.Cmd {
	return func() tea.Msg {
		err := a.controller.Refresh(context.Background(), trigger)
		return refreshDoneMsg{err: err}
	}
}

func (a *App) runSearch(query string) tea.Cmd {
	return func() tea.Msg {
		if a.engine == nil {
			return searchScopeMsg{err: fmt.Errorf("search is not configured")}
		}
		scope, err := a.engine.Scope(query, 0)
		return searchScopeMsg{query: query, scope: scope, err: err}
	}
}

func (a *App) loadSavedSearches() tea.Cmd {
	return func() tea.Msg {
		searches, err := a.store.GetSavedSearches()
		if err != nil {
			return errorMsg{err: err}
		}
		return savedSearchesLoadedMsg{searches: searches}
	}
}

// saveSearch persists the query as a saved search and runs it. The ID is a
// hash of the query, so saving the same query twice updates in place.
func (a *App) saveSearch(query string) tea.Cmd {
	return func() tea.Msg {
		if a.engine == nil {
			return searchSavedMsg{err: fmt.Errorf("search is not configured")}
		}
		saved := &storage.SavedSearch{ID: savedSearchID(query), Query: query}
		scope, err := a.engine.RunSavedSearch(saved)
		if err != nil {
			return searchSavedMsg{err: err}
		}
		return searchSavedMsg{search: saved, scope: scope}
	}
}

func (a *App) runSavedSearch(saved *storage.SavedSearch) tea.Cmd {
	return func() tea.Msg {
		if a.engine == nil {
			return searchScopeMsg{err: fmt.Errorf("search is not configured")}
		}
		scope, err := a.engine.RunSavedSearch(saved)
		return searchScopeMsg{query: saved.Query, scope: scope, err: err}
	}
}

func savedSearchID(query string) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("%x", sum[:8])
}

func (a *App) reprocess(entryID string) tea.Cmd {
	return func() tea.Msg {
		if a.processor == nil {
			return reprocessDoneMsg{entryID: entryID, err: fmt.Errorf("AI is not configured")}
		}
		err := a.processor.ReprocessEntry(context.Background(), entryID)
		return reprocessDoneMsg{entryID: entryID, err: err}
	}
}

// listen synthesizes the entry to audio, starts playback and marks the
// entry listened.
func (a *App) listen(entry *storage.Entry) tea.Cmd {
	return func() tea.Msg {
		if a.speech == nil {
			return listenDoneMsg{entryID: entry.ID, err: fmt.Errorf("TTS is not configured")}
		}

		path, err := a.speech.SynthesizeEntry(context.Background(), entry, a.audioDir())
		if err != nil {
			return listenDoneMsg{entryID: entry.ID, err: err}
		}
		if err := a.launcher.PlayAudio(path); err != nil {
			return listenDoneMsg{entryID: entry.ID, err: err}
		}
		if _, err := a.store.MarkListened(entry.ID, true); err != nil {
			return listenDoneMsg{entryID: entry.ID, err: err}
		}
		return listenDoneMsg{entryID: entry.ID}
	}
}

func (a *App) chat(entryID, message string) tea.Cmd {
	return func() tea.Msg {
		if a.processor == nil {
			return chatReplyMsg{entryID: entryID, err: fmt.Errorf("AI is not configured")}
		}
		reply, err := a.processor.ChatWithEntry(context.Background(), entryID, message)
		return chatReplyMsg{entryID: entryID, reply: reply, err: err}
	}
}

func (a *App) openLink(entry *storage.Entry) tea.Cmd {
	return func() tea.Msg {
		if entry.Link == "" {
			return errorMsg{err: fmt.Errorf("entry has no link")}
		}
		if err := a.launcher.OpenLink(entry.Link); err != nil {
			return errorMsg{err: err}
		}
		return toastMsg{message: "Opened in browser", kind: StatusSuccess}
	}
}

func (a *App) audioDir() string {
	return a.config.Database.Path + ".audio"
}
