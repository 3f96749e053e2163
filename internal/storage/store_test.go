package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/JamesDavid/InReader-sub001/internal/event"
)

func setupTestStore(t *testing.T) (*Store, *event.Bus) {
	t.Helper()
	bus := event.NewBus()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"), bus)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store, bus
}

func testEntry(id, feedID string, published time.Time) *Entry {
	return &Entry{
		ID:          id,
		FeedID:      feedID,
		Title:       "Entry " + id,
		Link:        fmt.Sprintf("http://example.com/%s", id),
		GUID:        id,
		PublishDate: published,
		RSSAbstract: "abstract",
	}
}

func TestStore_SaveAndGetFeed(t *testing.T) {
	store, _ := setupTestStore(t)

	feed := &Feed{
		ID:        "feed-1",
		URL:       "http://example.com/feed.xml",
		Title:     "Test Feed",
		FolderID:  "folder-1",
		Order:     2,
		UpdatedAt: time.Now(),
	}

	if err := store.SaveFeed(feed); err != nil {
		t.Fatalf("failed to save feed: %v", err)
	}

	retrieved, err := store.GetFeed("feed-1")
	if err != nil {
		t.Fatalf("failed to get feed: %v", err)
	}
	if retrieved.Title != feed.Title {
		t.Errorf("expected title %q, got %q", feed.Title, retrieved.Title)
	}
	if retrieved.FolderID != "folder-1" {
		t.Errorf("expected folder folder-1, got %q", retrieved.FolderID)
	}
}

func TestStore_GetAllFeedsOrdering(t *testing.T) {
	store, _ := setupTestStore(t)

	for _, f := range []*Feed{
		{ID: "b", Title: "Bravo", Order: 2},
		{ID: "a", Title: "Alpha", Order: 1},
		{ID: "c", Title: "Charlie", Order: 1},
	} {
		if err := store.SaveFeed(f); err != nil {
			t.Fatal(err)
		}
	}

	feeds, err := store.GetAllFeeds()
	if err != nil {
		t.Fatal(err)
	}
	if len(feeds) != 3 {
		t.Fatalf("expected 3 feeds, got %d", len(feeds))
	}
	if feeds[0].ID != "a" || feeds[1].ID != "c" || feeds[2].ID != "b" {
		t.Errorf("unexpected order: %s %s %s", feeds[0].ID, feeds[1].ID, feeds[2].ID)
	}
}

func TestStore_DeleteFeedIsSoft(t *testing.T) {
	store, _ := setupTestStore(t)

	if err := store.SaveFeed(&Feed{ID: "f1", Title: "Gone Soon", URL: "http://x"}); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteFeed("f1"); err != nil {
		t.Fatal(err)
	}

	feeds, err := store.GetAllFeeds()
	if err != nil {
		t.Fatal(err)
	}
	if len(feeds) != 0 {
		t.Errorf("deleted feed still listed")
	}

	// Title still resolves for entries that reference the feed.
	if title := store.GetFeedTitle("f1"); title != "Gone Soon" {
		t.Errorf("expected soft-deleted feed title to resolve, got %q", title)
	}
}

func TestStore_SaveEntriesPreservesUserState(t *testing.T) {
	store, _ := setupTestStore(t)

	published := time.Now().Add(-time.Hour)
	if err := store.SaveEntries([]*Entry{testEntry("e1", "f1", published)}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.MarkAsRead("e1", true); err != nil {
		t.Fatal(err)
	}
	if _, err := store.ToggleStar("e1"); err != nil {
		t.Fatal(err)
	}

	// Re-ingest the same entry with refreshed feed content.
	refreshed := testEntry("e1", "f1", time.Now())
	refreshed.Title = "Updated Title"
	if err := store.SaveEntries([]*Entry{refreshed}); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetEntry("e1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Updated Title" {
		t.Errorf("feed-supplied title not refreshed: %q", got.Title)
	}
	if !got.IsRead || !got.IsStarred {
		t.Errorf("user state clobbered by re-ingest: read=%v starred=%v", got.IsRead, got.IsStarred)
	}
	if !got.PublishDate.Equal(published) {
		t.Errorf("publish date changed on re-ingest")
	}
}

func TestStore_SavedSearchQueryUnique(t *testing.T) {
	store, _ := setupTestStore(t)

	if err := store.SaveSearch(&SavedSearch{ID: "s1", Query: "golang"}); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveSearch(&SavedSearch{ID: "s2", Query: "golang"}); err == nil {
		t.Error("expected duplicate query to be rejected")
	}
	// Updating the same search keeps the query.
	if err := store.SaveSearch(&SavedSearch{ID: "s1", Query: "golang", ResultCount: 4}); err != nil {
		t.Errorf("updating existing search failed: %v", err)
	}
}

func TestStore_Folders(t *testing.T) {
	store, _ := setupTestStore(t)

	for _, f := range []*Folder{
		{ID: "fo2", Name: "Tech", Order: 2},
		{ID: "fo1", Name: "News", Order: 1},
	} {
		if err := store.SaveFolder(f); err != nil {
			t.Fatal(err)
		}
	}

	folders, err := store.GetFolders()
	if err != nil {
		t.Fatal(err)
	}
	if len(folders) != 2 || folders[0].ID != "fo1" {
		t.Errorf("unexpected folder ordering")
	}
}
