package feed

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JamesDavid/InReader-sub001/internal/event"
	"github.com/JamesDavid/InReader-sub001/internal/storage"
)

func setupPollerStore(t *testing.T) (*storage.Store, *event.Bus) {
	t.Helper()
	bus := event.NewBus()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"), bus)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, bus
}

func seedUnread(t *testing.T, store *storage.Store, feedID string, n int) {
	t.Helper()
	entries := make([]*storage.Entry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, &storage.Entry{
			ID:          feedID + "-e" + string(rune('a'+i)),
			FeedID:      feedID,
			Title:       "Entry",
			PublishDate: time.Now().Add(-time.Duration(i) * time.Minute),
		})
	}
	require.NoError(t, store.SaveEntries(entries))
}

func waitForCount(t *testing.T, p *Poller, feedID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.Count(feedID) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("unread count for %s never reached %d (have %d)", feedID, want, p.Count(feedID))
}

func TestPoller_ZeroIntervalFallsBack(t *testing.T) {
	store, bus := setupPollerStore(t)
	require.NoError(t, store.SaveFeed(&storage.Feed{ID: "f1", Title: "One", URL: "http://example.com/1"}))
	seedUnread(t, store, "f1", 2)

	p := NewPoller(store, bus, 0)
	defer p.Stop()
	assert.Equal(t, fallbackPollInterval, p.interval)

	// Tracking must not panic on the jitter draw; a mark-read kick still
	// wakes the loop immediately.
	p.Track("f1")
	bus.Publish(event.EntryMarkedAsRead{FeedID: "f1"})
	waitForCount(t, p, "f1", 2)
}

func TestPoller_PollsUnreadCount(t *testing.T) {
	store, bus := setupPollerStore(t)
	require.NoError(t, store.SaveFeed(&storage.Feed{ID: "f1", Title: "One", URL: "http://example.com/1"}))
	seedUnread(t, store, "f1", 3)

	p := NewPoller(store, bus, 50*time.Millisecond)
	defer p.Stop()

	p.Track("f1")
	waitForCount(t, p, "f1", 3)
}

func TestPoller_ReadSignalKicksRecount(t *testing.T) {
	store, bus := setupPollerStore(t)
	require.NoError(t, store.SaveFeed(&storage.Feed{ID: "f1", Title: "One", URL: "http://example.com/1"}))
	seedUnread(t, store, "f1", 2)

	// Long interval: without the kick the next poll would be minutes away.
	p := NewPoller(store, bus, time.Minute)
	defer p.Stop()
	p.Track("f1")

	// The store's post-write signal wakes the loop immediately.
	_, err := store.MarkAsRead("f1-ea", true)
	require.NoError(t, err)
	waitForCount(t, p, "f1", 1)
}

func TestPoller_TrackAll(t *testing.T) {
	store, bus := setupPollerStore(t)
	require.NoError(t, store.SaveFeed(&storage.Feed{ID: "f1", Title: "One", URL: "http://example.com/1"}))
	require.NoError(t, store.SaveFeed(&storage.Feed{ID: "f2", Title: "Two", URL: "http://example.com/2"}))
	seedUnread(t, store, "f1", 1)
	seedUnread(t, store, "f2", 4)

	p := NewPoller(store, bus, 50*time.Millisecond)
	defer p.Stop()

	require.NoError(t, p.TrackAll())
	waitForCount(t, p, "f1", 1)
	waitForCount(t, p, "f2", 4)
}

func TestPoller_TrackTwiceIsNoOp(t *testing.T) {
	store, bus := setupPollerStore(t)
	require.NoError(t, store.SaveFeed(&storage.Feed{ID: "f1", Title: "One", URL: "http://example.com/1"}))

	p := NewPoller(store, bus, 50*time.Millisecond)
	defer p.Stop()

	p.Track("f1")
	p.Track("f1")
	assert.Zero(t, p.Count("f2"), "untracked feed stays at zero")
}
