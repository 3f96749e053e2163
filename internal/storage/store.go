package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/JamesDavid/InReader-sub001/internal/event"
)

var (
	feedsBucket    = []byte("feeds")
	entriesBucket  = []byte("entries")
	foldersBucket  = []byte("folders")
	searchesBucket = []byte("searches")
)

// Store is the single source of truth for entries, feeds, folders and saved
// searches. Mutations that the view layer reacts to (read, star) publish
// their bus events here, as part of the store contract, so callers never
// have to remember to notify.
type Store struct {
	db  *bolt.DB
	bus *event.Bus
}

func NewStore(dbPath string, bus *event.Bus) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{feedsBucket, entriesBucket, foldersBucket, searchesBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db, bus: bus}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveFeed(feed *Feed) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(feedsBucket)
		data, err := json.Marshal(feed)
		if err != nil {
			return err
		}
		return b.Put([]byte(feed.ID), data)
	})
}

func (s *Store) GetFeed(id string) (*Feed, error) {
	var feed Feed
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(feedsBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("feed not found: %s", id)
		}
		return json.Unmarshal(data, &feed)
	})
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

// GetAllFeeds returns non-deleted feeds ordered by manual Order, then title.
func (s *Store) GetAllFeeds() ([]*Feed, error) {
	var feeds []*Feed
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(feedsBucket).ForEach(func(_ []byte, v []byte) error {
			var feed Feed
			if err := json.Unmarshal(v, &feed); err != nil {
				return err
			}
			if !feed.IsDeleted {
				feeds = append(feeds, &feed)
			}
			return nil
		})
	})
	sort.Slice(feeds, func(i, j int) bool {
		if feeds[i].Order != feeds[j].Order {
			return feeds[i].Order < feeds[j].Order
		}
		return strings.ToLower(feeds[i].Title) < strings.ToLower(feeds[j].Title)
	})
	return feeds, err
}

// DeleteFeed is a soft delete: the record stays so existing entries keep a
// resolvable owner.
func (s *Store) DeleteFeed(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(feedsBucket)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("feed not found: %s", id)
		}
		var feed Feed
		if err := json.Unmarshal(data, &feed); err != nil {
			return err
		}
		feed.IsDeleted = true
		feed.UpdatedAt = time.Now()
		out, err := json.Marshal(feed)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), out)
	})
}

// GetFeedTitle resolves a feed title even for soft-deleted feeds.
func (s *Store) GetFeedTitle(id string) string {
	var title string
	_ = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(feedsBucket).Get([]byte(id))
		if data == nil {
			return nil
		}
		var feed Feed
		if err := json.Unmarshal(data, &feed); err != nil {
			return nil
		}
		title = feed.Title
		if title == "" {
			title = feed.URL
		}
		return nil
	})
	return title
}

func (s *Store) SaveFolder(folder *Folder) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(folder)
		if err != nil {
			return err
		}
		return tx.Bucket(foldersBucket).Put([]byte(folder.ID), data)
	})
}

func (s *Store) GetFolders() ([]*Folder, error) {
	var folders []*Folder
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(foldersBucket).ForEach(func(_ []byte, v []byte) error {
			var folder Folder
			if err := json.Unmarshal(v, &folder); err != nil {
				return err
			}
			folders = append(folders, &folder)
			return nil
		})
	})
	sort.Slice(folders, func(i, j int) bool {
		return folders[i].Order < folders[j].Order
	})
	return folders, err
}

// SaveEntries upserts ingested entries. An entry that already exists keeps
// its user state (read/star/listen flags and dates, chat history, AI
// fields); only the feed-supplied fields are refreshed. PublishDate is
// never overwritten once set.
func (s *Store) SaveEntries(entries []*Entry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		for _, entry := range entries {
			if entry.ProcessingStatus == "" {
				entry.ProcessingStatus = ProcessingNone
			}
			if existing := b.Get([]byte(entry.ID)); existing != nil {
				var prev Entry
				if err := json.Unmarshal(existing, &prev); err == nil {
					merged := prev
					merged.Title = entry.Title
					merged.Link = entry.Link
					merged.RSSAbstract = entry.RSSAbstract
					entry = &merged
				}
			}
			data, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(entry.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetEntry(id string) (*Entry, error) {
	var entry Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(entriesBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("entry not found: %s", id)
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Store) SaveSearch(search *SavedSearch) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(searchesBucket)
		var conflict bool
		_ = b.ForEach(func(_ []byte, v []byte) error {
			var existing SavedSearch
			if err := json.Unmarshal(v, &existing); err != nil {
				return nil
			}
			if existing.Query == search.Query && existing.ID != search.ID {
				conflict = true
			}
			return nil
		})
		if conflict {
			return fmt.Errorf("saved search already exists for query %q", search.Query)
		}
		data, err := json.Marshal(search)
		if err != nil {
			return err
		}
		return b.Put([]byte(search.ID), data)
	})
}

func (s *Store) GetSavedSearches() ([]*SavedSearch, error) {
	var searches []*SavedSearch
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(searchesBucket).ForEach(func(_ []byte, v []byte) error {
			var search SavedSearch
			if err := json.Unmarshal(v, &search); err != nil {
				return err
			}
			searches = append(searches, &search)
			return nil
		})
	})
	sort.Slice(searches, func(i, j int) bool {
		return strings.ToLower(searches[i].Query) < strings.ToLower(searches[j].Query)
	})
	return searches, err
}

func (s *Store) publish(e event.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
