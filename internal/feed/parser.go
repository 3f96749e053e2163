package feed

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/mmcdole/gofeed"

	"github.com/JamesDavid/InReader-sub001/internal/storage"
)

// Parser normalizes RSS/Atom/JSON-feed documents into store entries.
type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{parser: gofeed.NewParser()}
}

// ParseResult carries the feed-level metadata alongside the entries.
type ParseResult struct {
	Title   string
	Entries []*storage.Entry
}

// Parse reads one feed document. Entry IDs are deterministic per
// (feed, GUID-or-link) so a re-fetch upserts instead of duplicating.
func (p *Parser) Parse(reader io.Reader, feedID string) (*ParseResult, error) {
	parsed, err := p.parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	entries := make([]*storage.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entry := &storage.Entry{
			ID:               entryID(feedID, item),
			FeedID:           feedID,
			Title:            item.Title,
			Link:             item.Link,
			GUID:             item.GUID,
			RSSAbstract:      abstract(item),
			ProcessingStatus: storage.ProcessingNone,
		}

		if item.PublishedParsed != nil {
			entry.PublishDate = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			entry.PublishDate = *item.UpdatedParsed
		}

		entries = append(entries, entry)
	}

	return &ParseResult{Title: parsed.Title, Entries: entries}, nil
}

func abstract(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}

// entryID prefers the publisher's GUID, falls back to the link. Items with
// neither are keyed by title so at least identical re-fetches dedupe.
func entryID(feedID string, item *gofeed.Item) string {
	key := item.GUID
	if key == "" {
		key = item.Link
	}
	if key == "" {
		key = item.Title
	}
	return fmt.Sprintf("%s:%x", feedID, sha256.Sum256([]byte(key)))
}
