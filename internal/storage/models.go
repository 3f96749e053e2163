package storage

import (
	"time"
)

// ProcessingStatus tracks asynchronous content enrichment for an entry.
type ProcessingStatus string

const (
	ProcessingNone    ProcessingStatus = "none"
	ProcessingPending ProcessingStatus = "pending"
	ProcessingDone    ProcessingStatus = "done"
	ProcessingFailed  ProcessingStatus = "failed"
)

// ChatRole is the author of a chat turn attached to an entry.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Entry is a single feed item. ID is immutable once assigned and
// PublishDate never changes after creation; it is the authoritative sort
// key, descending by default.
type Entry struct {
	ID          string    `json:"id"`
	FeedID      string    `json:"feed_id"` // empty for synthetic collections
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	GUID        string    `json:"guid"`
	PublishDate time.Time `json:"publish_date"`

	IsRead       bool       `json:"is_read"`
	ReadDate     *time.Time `json:"read_date,omitempty"`
	IsStarred    bool       `json:"is_starred"`
	StarredDate  *time.Time `json:"starred_date,omitempty"`
	IsListened   bool       `json:"is_listened"`
	ListenedDate *time.Time `json:"listened_date,omitempty"`

	// Content layers. RSSAbstract arrives with ingestion; FullArticle and
	// AISummary are populated asynchronously afterwards.
	RSSAbstract string `json:"rss_abstract"`
	FullArticle string `json:"full_article,omitempty"`
	AISummary   string `json:"ai_summary,omitempty"`

	ChatHistory      []ChatMessage    `json:"chat_history,omitempty"`
	InterestScore    float64          `json:"interest_score"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
}

// Feed is a subscribed source. Deleting a feed is a soft delete so entries
// that reference it stay resolvable.
type Feed struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	FolderID  string    `json:"folder_id,omitempty"`
	Order     float64   `json:"order"`
	IsDeleted bool      `json:"is_deleted"`
	UpdatedAt time.Time `json:"updated_at"`

	// Conditional fetch metadata.
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	LastFetched  time.Time `json:"last_fetched"`
}

type Folder struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Order float64 `json:"order"`
}

// SavedSearch caches result metadata for a stored query. Query is unique
// per database.
type SavedSearch struct {
	ID               string     `json:"id"`
	Query            string     `json:"query"`
	ResultCount      int        `json:"result_count"`
	MostRecentResult *time.Time `json:"most_recent_result,omitempty"`
}

// EntryPatch holds the partial fields UpdateEntry may change. Nil fields
// are left untouched.
type EntryPatch struct {
	Title            *string
	FullArticle      *string
	AISummary        *string
	InterestScore    *float64
	ProcessingStatus *ProcessingStatus
	ChatHistory      *[]ChatMessage
	IsListened       *bool
}
