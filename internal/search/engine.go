// Package search maintains a full-text index over entries and resolves
// queries into entry-ID sets the view layer can mount as a search scope.
package search

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/JamesDavid/InReader-sub001/internal/debuglog"
	"github.com/JamesDavid/InReader-sub001/internal/event"
	"github.com/JamesDavid/InReader-sub001/internal/storage"
)

// savedSearchLimit bounds how many hits a saved search materializes when
// refreshing its result metadata.
const savedSearchLimit = 500

// Engine wraps a Bleve index over the entry corpus. It keeps itself current
// by listening for feed-refresh and reprocess signals on the bus.
type Engine struct {
	store *storage.Store
	idx   bleve.Index
	subs  []*event.Subscription
}

// NewEngine opens (or creates) the index at indexPath and performs an
// initial full index of the store.
func NewEngine(store *storage.Store, bus *event.Bus, indexPath string) (*Engine, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating search index: %w", err)
		}
	}

	e := &Engine{store: store, idx: idx}
	if err := e.ReindexAll(); err != nil {
		idx.Close()
		return nil, err
	}

	if bus != nil {
		e.subs = append(e.subs,
			bus.Subscribe(event.KindFeedRefreshed, e.onFeedRefreshed),
			bus.Subscribe(event.KindEntryReprocessed, e.onEntryReprocessed),
		)
	}
	return e, nil
}

func (e *Engine) Close() error {
	for _, sub := range e.subs {
		sub.Cancel()
	}
	return e.idx.Close()
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true

	abstract := bleve.NewTextFieldMapping()
	abstract.Analyzer = standard.Name
	abstract.Store = false

	article := bleve.NewTextFieldMapping()
	article.Analyzer = standard.Name
	article.Store = false

	summary := bleve.NewTextFieldMapping()
	summary.Analyzer = standard.Name
	summary.Store = false

	feedID := bleve.NewTextFieldMapping()
	feedID.Store = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("abstract", abstract)
	dm.AddFieldMappingsAt("article", article)
	dm.AddFieldMappingsAt("summary", summary)
	dm.AddFieldMappingsAt("feed_id", feedID)

	im.DefaultMapping = dm
	return im
}

func entryDoc(entry *storage.Entry) map[string]any {
	return map[string]any{
		"feed_id":  entry.FeedID,
		"title":    entry.Title,
		"abstract": entry.RSSAbstract,
		"article":  entry.FullArticle,
		"summary":  entry.AISummary,
	}
}

// ReindexAll rebuilds the index from the full entry corpus.
func (e *Engine) ReindexAll() error {
	entries, err := e.store.AllEntries()
	if err != nil {
		return fmt.Errorf("loading entries for indexing: %w", err)
	}
	return e.IndexEntries(entries)
}

// IndexEntries upserts a batch of entries into the index.
func (e *Engine) IndexEntries(entries []*storage.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := e.idx.NewBatch()
	for _, entry := range entries {
		if err := batch.Index(entry.ID, entryDoc(entry)); err != nil {
			return fmt.Errorf("indexing entry %s: %w", entry.ID, err)
		}
	}
	return e.idx.Batch(batch)
}

// Search resolves a query into entry IDs ordered by relevance. Queries
// shorter than two characters return no results rather than matching
// everything.
func (e *Engine) Search(query string, limit int) ([]string, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return nil, nil
	}
	if limit <= 0 {
		limit = savedSearchLimit
	}

	tokens := strings.Fields(strings.TrimSpace(query))
	var qs []bleveQuery.Query
	for _, tok := range tokens {
		qt := bleve.NewMatchQuery(tok)
		qt.SetField("title")
		qt.SetBoost(4.0)
		qs = append(qs, qt)

		qtp := bleve.NewPrefixQuery(strings.ToLower(tok))
		qtp.SetField("title")
		qtp.SetBoost(3.5)
		qs = append(qs, qtp)

		qa := bleve.NewMatchQuery(tok)
		qa.SetField("abstract")
		qa.SetBoost(2.0)
		qs = append(qs, qa)

		qf := bleve.NewMatchQuery(tok)
		qf.SetField("article")
		qf.SetBoost(1.0)
		qs = append(qs, qf)

		qsum := bleve.NewMatchQuery(tok)
		qsum.SetField("summary")
		qsum.SetBoost(1.5)
		qs = append(qs, qsum)
	}
	if len(qs) == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	res, err := e.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// Scope resolves a query into a mountable view scope. Search views are
// locally paginated over the pinned ID set.
func (e *Engine) Scope(query string, limit int) (storage.Scope, error) {
	ids, err := e.Search(query, limit)
	if err != nil {
		return storage.Scope{}, err
	}
	return storage.SearchScope(ids), nil
}

// RunSavedSearch executes a saved search, refreshes its cached result
// metadata (count and most recent hit), and returns the mountable scope.
func (e *Engine) RunSavedSearch(saved *storage.SavedSearch) (storage.Scope, error) {
	ids, err := e.Search(saved.Query, savedSearchLimit)
	if err != nil {
		return storage.Scope{}, err
	}

	saved.ResultCount = len(ids)
	saved.MostRecentResult = nil
	for _, id := range ids {
		entry, err := e.store.GetEntry(id)
		if err != nil {
			continue // index may lag a deletion
		}
		if saved.MostRecentResult == nil || entry.PublishDate.After(*saved.MostRecentResult) {
			d := entry.PublishDate
			saved.MostRecentResult = &d
		}
	}

	if err := e.store.SaveSearch(saved); err != nil {
		return storage.Scope{}, fmt.Errorf("updating saved search: %w", err)
	}
	return storage.SearchScope(ids), nil
}

// DocCount reports the number of indexed entries.
func (e *Engine) DocCount() (uint64, error) {
	return e.idx.DocCount()
}

func (e *Engine) onFeedRefreshed(ev event.Event) {
	evt := ev.(event.FeedRefreshed)
	entries, err := e.store.EntriesByFeed(evt.FeedID)
	if err != nil {
		debuglog.Warnf("indexing refreshed feed %s: %v", evt.FeedID, err)
		return
	}
	if err := e.IndexEntries(entries); err != nil {
		debuglog.Warnf("indexing refreshed feed %s: %v", evt.FeedID, err)
	}
}

func (e *Engine) onEntryReprocessed(ev event.Event) {
	evt := ev.(event.EntryReprocessed)
	entry, err := e.store.GetEntry(evt.EntryID)
	if err != nil {
		return
	}
	if err := e.idx.Index(entry.ID, entryDoc(entry)); err != nil {
		debuglog.Warnf("indexing reprocessed entry %s: %v", entry.ID, err)
	}
}
