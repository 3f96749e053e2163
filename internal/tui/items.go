package tui

import (
	"fmt"
	"strings"

	"github.com/JamesDavid/InReader-sub001/internal/storage"
)

type feedItem struct {
	feed   *storage.Feed
	unread int
}

func (i feedItem) Title() string {
	if i.unread > 0 {
		return fmt.Sprintf("%s (%d)", i.feed.Title, i.unread)
	}
	return i.feed.Title
}

func (i feedItem) Description() string { return i.feed.URL }
func (i feedItem) FilterValue() string { return i.feed.Title }

type entryItem struct {
	entry *storage.Entry
}

func (i entryItem) Title() string {
	var markers []string
	if !i.entry.IsRead {
		markers = append(markers, "●")
	}
	if i.entry.IsStarred {
		markers = append(markers, "★")
	}
	if i.entry.IsListened {
		markers = append(markers, "♪")
	}
	if i.entry.ProcessingStatus == storage.ProcessingPending {
		markers = append(markers, "…")
	}
	if len(markers) == 0 {
		return i.entry.Title
	}
	return strings.Join(markers, "") + " " + i.entry.Title
}

func (i entryItem) Description() string {
	desc := i.entry.PublishDate.Format("2006-01-02 15:04")
	if i.entry.AISummary != "" {
		desc += " · " + firstLine(i.entry.AISummary)
	} else if i.entry.RSSAbstract != "" {
		desc += " · " + firstLine(i.entry.RSSAbstract)
	}
	return desc
}

func (i entryItem) FilterValue() string { return i.entry.Title }

type savedSearchItem struct {
	search *storage.SavedSearch
}

func (i savedSearchItem) Title() string {
	return fmt.Sprintf("%s (%d)", i.search.Query, i.search.ResultCount)
}

func (i savedSearchItem) Description() string {
	if i.search.MostRecentResult == nil {
		return "no results yet"
	}
	return "newest result " + i.search.MostRecentResult.Format("2006-01-02 15:04")
}

func (i savedSearchItem) FilterValue() string { return i.search.Query }

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}
