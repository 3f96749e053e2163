package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/JamesDavid/InReader-sub001/internal/event"
	"github.com/JamesDavid/InReader-sub001/internal/paginate"
)

// ScopeKind selects the collection of entries behind a view.
type ScopeKind int

const (
	ScopeAll ScopeKind = iota
	ScopeFeed
	ScopeStarred
	ScopeListened
	ScopeFolder
	ScopeSearch
	ScopeSupplied
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeAll:
		return "all"
	case ScopeFeed:
		return "feed"
	case ScopeStarred:
		return "starred"
	case ScopeListened:
		return "listened"
	case ScopeFolder:
		return "folder"
	case ScopeSearch:
		return "search"
	case ScopeSupplied:
		return "supplied"
	default:
		return "unknown"
	}
}

// Scope identifies one view's entry collection. All and single-feed scopes
// are remote-paginated (the store computes the page window); the rest are
// fetched unbounded and sliced by the caller.
type Scope struct {
	Kind     ScopeKind
	FeedID   string
	FolderID string
	// EntryIDs carries search matches or an externally supplied set.
	EntryIDs []string
}

func AllScope() Scope { return Scope{Kind: ScopeAll} }
func FeedScope(feedID string) Scope {
	return Scope{Kind: ScopeFeed, FeedID: feedID}
}
func StarredScope() Scope { return Scope{Kind: ScopeStarred} }
func ListenedScope() Scope { return Scope{Kind: ScopeListened} }
func FolderScope(folderID string) Scope {
	return Scope{Kind: ScopeFolder, FolderID: folderID}
}
func SearchScope(entryIDs []string) Scope {
	return Scope{Kind: ScopeSearch, EntryIDs: entryIDs}
}
func SuppliedScope(entryIDs []string) Scope {
	return Scope{Kind: ScopeSupplied, EntryIDs: entryIDs}
}

// Remote reports whether the scope is remote-paginated.
func (sc Scope) Remote() bool {
	return sc.Kind == ScopeAll || sc.Kind == ScopeFeed
}

// Equal compares scopes by view identity, which is what resets per-visit
// state like the dismissed set.
func (sc Scope) Equal(other Scope) bool {
	if sc.Kind != other.Kind || sc.FeedID != other.FeedID || sc.FolderID != other.FolderID {
		return false
	}
	if len(sc.EntryIDs) != len(other.EntryIDs) {
		return false
	}
	for i := range sc.EntryIDs {
		if sc.EntryIDs[i] != other.EntryIDs[i] {
			return false
		}
	}
	return true
}

func sortByPublishDateDesc(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PublishDate.After(entries[j].PublishDate)
	})
}

func (s *Store) collectEntries(keep func(*Entry) bool) ([]*Entry, error) {
	var entries []*Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).ForEach(func(_ []byte, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return nil
			}
			if keep == nil || keep(&entry) {
				entries = append(entries, &entry)
			}
			return nil
		})
	})
	return entries, err
}

// QueryEntriesPage serves the remote-paginated scopes (all, single feed):
// one page of entries sorted by PublishDate descending, plus the total
// count. Page clamping follows the same rules the local regime uses.
func (s *Store) QueryEntriesPage(scope Scope, page, pageSize int) ([]*Entry, int, error) {
	if !scope.Remote() {
		return nil, 0, fmt.Errorf("scope %s is not remote-paginated", scope.Kind)
	}

	keep := func(*Entry) bool { return true }
	if scope.Kind == ScopeFeed {
		keep = func(e *Entry) bool { return e.FeedID == scope.FeedID }
	}

	entries, err := s.collectEntries(keep)
	if err != nil {
		return nil, 0, fmt.Errorf("querying entries: %w", err)
	}
	sortByPublishDateDesc(entries)

	p := paginate.Paginate(entries, page, pageSize)
	return p.Items, p.TotalItems, nil
}

// QueryEntriesUnbounded serves the locally-paginated scopes: the full
// candidate collection, sorted by PublishDate descending, to be sliced in
// memory by the caller.
func (s *Store) QueryEntriesUnbounded(scope Scope) ([]*Entry, error) {
	var keep func(*Entry) bool

	switch scope.Kind {
	case ScopeStarred:
		keep = func(e *Entry) bool { return e.IsStarred }
	case ScopeListened:
		keep = func(e *Entry) bool { return e.IsListened }
	case ScopeFolder:
		feeds, err := s.GetAllFeeds()
		if err != nil {
			return nil, fmt.Errorf("resolving folder feeds: %w", err)
		}
		member := make(map[string]bool)
		for _, f := range feeds {
			if f.FolderID == scope.FolderID {
				member[f.ID] = true
			}
		}
		keep = func(e *Entry) bool { return member[e.FeedID] }
	case ScopeSearch, ScopeSupplied:
		wanted := make(map[string]bool, len(scope.EntryIDs))
		for _, id := range scope.EntryIDs {
			wanted[id] = true
		}
		keep = func(e *Entry) bool { return wanted[e.ID] }
	default:
		return nil, fmt.Errorf("scope %s is remote-paginated, use QueryEntriesPage", scope.Kind)
	}

	entries, err := s.collectEntries(keep)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	sortByPublishDateDesc(entries)
	return entries, nil
}

// AllEntries enumerates every stored entry, unfiltered and unsorted. Meant
// for bulk work like index rebuilds, not for view queries.
func (s *Store) AllEntries() ([]*Entry, error) {
	return s.collectEntries(nil)
}

// EntriesByFeed enumerates every entry belonging to one feed, unsorted.
func (s *Store) EntriesByFeed(feedID string) ([]*Entry, error) {
	return s.collectEntries(func(e *Entry) bool { return e.FeedID == feedID })
}

// GetUnreadCount counts unread entries for one feed, or globally when
// feedID is empty.
func (s *Store) GetUnreadCount(feedID string) (int, error) {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).ForEach(func(_ []byte, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return nil
			}
			if entry.IsRead {
				return nil
			}
			if feedID == "" || entry.FeedID == feedID {
				count++
			}
			return nil
		})
	})
	return count, err
}

// GetMostRecentEntry returns the newest entry for a feed, or nil when the
// feed has none.
func (s *Store) GetMostRecentEntry(feedID string) (*Entry, error) {
	var newest *Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).ForEach(func(_ []byte, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return nil
			}
			if entry.FeedID != feedID {
				return nil
			}
			if newest == nil || entry.PublishDate.After(newest.PublishDate) {
				e := entry
				newest = &e
			}
			return nil
		})
	})
	return newest, err
}

func (s *Store) mutateEntry(id string, mutate func(*Entry)) (*Entry, error) {
	var updated Entry
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("entry not found: %s", id)
		}
		if err := json.Unmarshal(data, &updated); err != nil {
			return err
		}
		mutate(&updated)
		out, err := json.Marshal(&updated)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), out)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateEntry applies a partial patch. Conflicting writers resolve by
// last-write-wins; there is no version check.
func (s *Store) UpdateEntry(id string, patch EntryPatch) (*Entry, error) {
	entry, err := s.mutateEntry(id, func(e *Entry) {
		if patch.Title != nil {
			e.Title = *patch.Title
		}
		if patch.FullArticle != nil {
			e.FullArticle = *patch.FullArticle
		}
		if patch.AISummary != nil {
			e.AISummary = *patch.AISummary
		}
		if patch.InterestScore != nil {
			e.InterestScore = *patch.InterestScore
		}
		if patch.ProcessingStatus != nil {
			e.ProcessingStatus = *patch.ProcessingStatus
		}
		if patch.ChatHistory != nil {
			e.ChatHistory = *patch.ChatHistory
		}
		if patch.IsListened != nil {
			setListened(e, *patch.IsListened)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("updating entry: %w", err)
	}
	s.publish(event.EntryReprocessed{EntryID: id})
	return entry, nil
}

// ToggleStar flips the star flag. The timestamp is set exactly on the
// false-to-true transition and cleared on un-star.
func (s *Store) ToggleStar(id string) (*Entry, error) {
	entry, err := s.mutateEntry(id, func(e *Entry) {
		e.IsStarred = !e.IsStarred
		if e.IsStarred {
			now := time.Now()
			e.StarredDate = &now
		} else {
			e.StarredDate = nil
		}
	})
	if err != nil {
		return nil, fmt.Errorf("toggling star: %w", err)
	}
	s.publish(event.EntryStarredChanged{
		EntryID:     id,
		IsStarred:   entry.IsStarred,
		StarredDate: entry.StarredDate,
	})
	return entry, nil
}

// MarkAsRead sets the read flag. The EntryReadChanged notification is
// published before the write (optimistic two-phase contract); the coarse
// EntryMarkedAsRead count signal follows a successful write. A persist
// failure after the optimistic notify has no compensating rollback.
func (s *Store) MarkAsRead(id string, read bool) (*Entry, error) {
	s.publish(event.EntryReadChanged{EntryID: id, IsRead: read})

	entry, err := s.mutateEntry(id, func(e *Entry) {
		if read && !e.IsRead {
			now := time.Now()
			e.ReadDate = &now
		}
		// Un-read keeps the old ReadDate.
		e.IsRead = read
	})
	if err != nil {
		return nil, fmt.Errorf("marking read: %w", err)
	}

	s.publish(event.EntryMarkedAsRead{FeedID: entry.FeedID})
	return entry, nil
}

// MarkListened records a completed listen.
func (s *Store) MarkListened(id string, listened bool) (*Entry, error) {
	entry, err := s.mutateEntry(id, func(e *Entry) {
		setListened(e, listened)
	})
	if err != nil {
		return nil, fmt.Errorf("marking listened: %w", err)
	}
	return entry, nil
}

// setListened follows the star policy for its date: set on the false-to-true
// transition, cleared on un-listen.
func setListened(e *Entry, listened bool) {
	if listened && !e.IsListened {
		now := time.Now()
		e.ListenedDate = &now
	}
	if !listened {
		e.ListenedDate = nil
	}
	e.IsListened = listened
}

// AppendChatMessage adds a turn to the entry's chat history.
func (s *Store) AppendChatMessage(id string, msg ChatMessage) (*Entry, error) {
	entry, err := s.mutateEntry(id, func(e *Entry) {
		e.ChatHistory = append(e.ChatHistory, msg)
	})
	if err != nil {
		return nil, fmt.Errorf("appending chat message: %w", err)
	}
	return entry, nil
}
