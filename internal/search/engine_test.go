package search

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JamesDavid/InReader-sub001/internal/event"
	"github.com/JamesDavid/InReader-sub001/internal/storage"
)

func setupEngine(t *testing.T) (*Engine, *storage.Store, *event.Bus) {
	t.Helper()
	dir := t.TempDir()
	bus := event.NewBus()
	store, err := storage.NewStore(filepath.Join(dir, "test.db"), bus)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	engine, err := NewEngine(store, bus, filepath.Join(dir, "index.bleve"))
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine, store, bus
}

func indexedEntry(id, title, abstract string, minutesAgo int) *storage.Entry {
	return &storage.Entry{
		ID:          id,
		FeedID:      "f1",
		Title:       title,
		RSSAbstract: abstract,
		PublishDate: time.Now().Add(-time.Duration(minutesAgo) * time.Minute),
	}
}

func TestEngine_OpensOnFreshStore(t *testing.T) {
	engine, _, _ := setupEngine(t)

	count, err := engine.DocCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEngine_BootstrapIndexesExistingEntries(t *testing.T) {
	dir := t.TempDir()
	bus := event.NewBus()
	store, err := storage.NewStore(filepath.Join(dir, "test.db"), bus)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.SaveEntries([]*storage.Entry{
		indexedEntry("e1", "Distributed consensus primer", "raft and paxos", 10),
	}))

	engine, err := NewEngine(store, bus, filepath.Join(dir, "index.bleve"))
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	ids, err := engine.Search("consensus", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, ids)
}

func TestEngine_SearchByTitle(t *testing.T) {
	engine, store, _ := setupEngine(t)

	require.NoError(t, store.SaveEntries([]*storage.Entry{
		indexedEntry("e1", "Kubernetes networking deep dive", "cluster traffic", 10),
		indexedEntry("e2", "Sourdough starters", "baking bread at home", 5),
	}))
	require.NoError(t, engine.ReindexAll())

	ids, err := engine.Search("kubernetes", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, ids)
}

func TestEngine_TitleOutranksAbstract(t *testing.T) {
	engine, store, _ := setupEngine(t)

	require.NoError(t, store.SaveEntries([]*storage.Entry{
		indexedEntry("title-hit", "Rust ownership explained", "memory management", 10),
		indexedEntry("abstract-hit", "Weekly roundup", "a note about rust tooling", 5),
	}))
	require.NoError(t, engine.ReindexAll())

	ids, err := engine.Search("rust", 10)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, "title-hit", ids[0])
}

func TestEngine_ShortQueryReturnsNothing(t *testing.T) {
	engine, store, _ := setupEngine(t)
	require.NoError(t, store.SaveEntries([]*storage.Entry{
		indexedEntry("e1", "A title", "abstract", 1),
	}))
	require.NoError(t, engine.ReindexAll())

	ids, err := engine.Search("a", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestEngine_ScopeIsLocallyPaginated(t *testing.T) {
	engine, store, _ := setupEngine(t)
	require.NoError(t, store.SaveEntries([]*storage.Entry{
		indexedEntry("e1", "Go generics in practice", "", 1),
		indexedEntry("e2", "Go error handling", "", 2),
	}))
	require.NoError(t, engine.ReindexAll())

	scope, err := engine.Scope("go", 10)
	require.NoError(t, err)
	assert.Equal(t, storage.ScopeSearch, scope.Kind)
	assert.False(t, scope.Remote())
	assert.Len(t, scope.EntryIDs, 2)
}

func TestEngine_RunSavedSearchRefreshesMetadata(t *testing.T) {
	engine, store, _ := setupEngine(t)

	newest := indexedEntry("e1", "Go profiling guide", "", 5)
	older := indexedEntry("e2", "Go modules explained", "", 500)
	require.NoError(t, store.SaveEntries([]*storage.Entry{newest, older}))
	require.NoError(t, engine.ReindexAll())

	saved := &storage.SavedSearch{ID: "s1", Query: "go"}
	require.NoError(t, store.SaveSearch(saved))

	scope, err := engine.RunSavedSearch(saved)
	require.NoError(t, err)
	assert.Len(t, scope.EntryIDs, 2)
	assert.Equal(t, 2, saved.ResultCount)
	require.NotNil(t, saved.MostRecentResult)
	assert.WithinDuration(t, newest.PublishDate, *saved.MostRecentResult, time.Second)

	// The refreshed metadata is persisted.
	searches, err := store.GetSavedSearches()
	require.NoError(t, err)
	require.Len(t, searches, 1)
	assert.Equal(t, 2, searches[0].ResultCount)
}

func TestEngine_FeedRefreshedEventIndexesNewEntries(t *testing.T) {
	engine, store, bus := setupEngine(t)

	require.NoError(t, store.SaveEntries([]*storage.Entry{
		indexedEntry("e1", "Quantum computing primer", "", 1),
	}))
	bus.Publish(event.FeedRefreshed{FeedID: "f1"})

	ids, err := engine.Search("quantum", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, ids)
}

func TestEngine_ReprocessedEventReindexesEntry(t *testing.T) {
	engine, store, _ := setupEngine(t)

	require.NoError(t, store.SaveEntries([]*storage.Entry{
		indexedEntry("e1", "Untitled", "", 1),
	}))
	require.NoError(t, engine.ReindexAll())

	summary := "an essay about volcanology"
	_, err := store.UpdateEntry("e1", storage.EntryPatch{AISummary: &summary})
	require.NoError(t, err)

	ids, err := engine.Search("volcanology", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1"}, ids, "summary text becomes searchable after reprocess")
}

func TestEngine_DocCount(t *testing.T) {
	engine, store, _ := setupEngine(t)
	require.NoError(t, store.SaveEntries([]*storage.Entry{
		indexedEntry("e1", "One", "", 1),
		indexedEntry("e2", "Two", "", 2),
	}))
	require.NoError(t, engine.ReindexAll())

	count, err := engine.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}
