package feed

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/JamesDavid/InReader-sub001/internal/config"
	"github.com/JamesDavid/InReader-sub001/internal/debuglog"
	"github.com/JamesDavid/InReader-sub001/internal/event"
	"github.com/JamesDavid/InReader-sub001/internal/storage"
	"github.com/JamesDavid/InReader-sub001/internal/validation"
)

const maxConcurrentRefresh = 5

// Manager owns the subscription lifecycle: adding feeds, refreshing them and
// writing the normalized entries through the store. Refresh progress is
// reported on the bus so any mounted view can react.
type Manager struct {
	store        *storage.Store
	bus          *event.Bus
	fetcher      *Fetcher
	parser       *Parser
	config       *config.Config
	urlValidator *validation.FeedURLValidator
}

func NewManager(store *storage.Store, bus *event.Bus, cfg *config.Config) *Manager {
	return &Manager{
		store:        store,
		bus:          bus,
		fetcher:      NewFetcher(cfg),
		parser:       NewParser(),
		config:       cfg,
		urlValidator: validation.NewFeedURLValidator(),
	}
}

// SetForceRefresh makes subsequent refreshes ignore ETag/Last-Modified.
func (m *Manager) SetForceRefresh(force bool) {
	m.fetcher.SetIgnoreCache(force)
}

// SetPermissiveValidation relaxes URL validation for local development.
func (m *Manager) SetPermissiveValidation(permissive bool) {
	if permissive {
		m.urlValidator = validation.NewPermissiveFeedURLValidator()
	} else {
		m.urlValidator = validation.NewFeedURLValidator()
	}
}

// AddFeed subscribes to a feed URL: validates, fetches once, and persists
// the feed with its initial entries.
func (m *Manager) AddFeed(url string) (*storage.Feed, error) {
	normalized, err := m.urlValidator.ValidateAndNormalize(url)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}

	feed := &storage.Feed{
		ID:        generateFeedID(normalized),
		URL:       normalized,
		UpdatedAt: time.Now(),
	}

	resp, updated, err := m.fetcher.Fetch(feed)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	if !updated || resp == nil {
		return nil, fmt.Errorf("feed returned no content")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	result, err := m.parser.Parse(bytes.NewReader(body), feed.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	feed.Title = result.Title
	if feed.Title == "" {
		feed.Title = normalized
	}
	m.fetcher.UpdateFeedMetadata(feed, resp)

	if err := m.store.SaveFeed(feed); err != nil {
		return nil, fmt.Errorf("saving feed: %w", err)
	}
	if err := m.store.SaveEntries(result.Entries); err != nil {
		return nil, fmt.Errorf("saving entries: %w", err)
	}

	m.bus.Publish(event.FeedRefreshed{FeedID: feed.ID})
	return feed, nil
}

// RefreshFeed fetches one feed and merges its entries. The lifecycle is
// reported even when the fetch short-circuits on Not Modified, so the views
// tracking per-feed spinners always see a matching start/complete pair.
// FeedRefreshed only fires when entries were actually written; a no-op pass
// must not trigger reloads or reindexing downstream.
func (m *Manager) RefreshFeed(ctx context.Context, feedID string) error {
	m.bus.Publish(event.FeedRefreshStart{FeedID: feedID})

	changed, err := m.refreshFeed(ctx, feedID)
	m.bus.Publish(event.FeedRefreshComplete{FeedID: feedID, Success: err == nil})
	if err != nil {
		return err
	}

	if changed {
		m.bus.Publish(event.FeedRefreshed{FeedID: feedID})
	}
	return nil
}

func (m *Manager) refreshFeed(ctx context.Context, feedID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	feed, err := m.store.GetFeed(feedID)
	if err != nil {
		return false, fmt.Errorf("getting feed: %w", err)
	}

	if !m.fetcher.ignoreCache && time.Since(feed.LastFetched) < m.config.Feed.RefreshInterval {
		return false, nil
	}

	resp, updated, err := m.fetcher.Fetch(feed)
	if err != nil {
		return false, fmt.Errorf("fetching feed: %w", err)
	}

	if !updated || resp == nil {
		// Not modified: only bump the fetch timestamp.
		feed.LastFetched = time.Now()
		if saveErr := m.store.SaveFeed(feed); saveErr != nil {
			return false, fmt.Errorf("saving feed metadata: %w", saveErr)
		}
		return false, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("reading response: %w", err)
	}

	result, err := m.parser.Parse(bytes.NewReader(body), feedID)
	if err != nil {
		return false, fmt.Errorf("parsing feed: %w", err)
	}

	if result.Title != "" {
		feed.Title = result.Title
	}
	m.fetcher.UpdateFeedMetadata(feed, resp)
	feed.UpdatedAt = time.Now()

	if err := m.store.SaveFeed(feed); err != nil {
		return false, fmt.Errorf("saving feed: %w", err)
	}
	if err := m.store.SaveEntries(result.Entries); err != nil {
		return false, fmt.Errorf("saving entries: %w", err)
	}

	return true, nil
}

// RefreshFeeds fans the refresh out over a bounded worker pool and joins on
// an all-complete barrier. One feed's failure never aborts its siblings;
// the per-feed errors are collected and returned joined.
func (m *Manager) RefreshFeeds(ctx context.Context, feedIDs []string) error {
	if len(feedIDs) == 0 {
		return nil
	}

	idChan := make(chan string, len(feedIDs))
	errChan := make(chan error, len(feedIDs))

	var wg sync.WaitGroup
	workers := maxConcurrentRefresh
	if workers > len(feedIDs) {
		workers = len(feedIDs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range idChan {
				if err := m.RefreshFeed(ctx, id); err != nil {
					debuglog.Warnf("refreshing feed %s: %v", id, err)
					errChan <- fmt.Errorf("feed %s: %w", id, err)
				}
			}
		}()
	}

	for _, id := range feedIDs {
		idChan <- id
	}
	close(idChan)
	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RefreshAllFeeds refreshes every non-deleted subscription.
func (m *Manager) RefreshAllFeeds(ctx context.Context) error {
	feeds, err := m.store.GetAllFeeds()
	if err != nil {
		return fmt.Errorf("getting feeds: %w", err)
	}
	ids := make([]string, 0, len(feeds))
	for _, f := range feeds {
		ids = append(ids, f.ID)
	}
	return m.RefreshFeeds(ctx, ids)
}

func generateFeedID(url string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(url)))
}
