package view

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JamesDavid/InReader-sub001/internal/debuglog"
	"github.com/JamesDavid/InReader-sub001/internal/event"
	"github.com/JamesDavid/InReader-sub001/internal/paginate"
	"github.com/JamesDavid/InReader-sub001/internal/storage"
)

// EntryStore is the narrow store contract the controller consumes.
type EntryStore interface {
	QueryEntriesPage(scope storage.Scope, page, pageSize int) ([]*storage.Entry, int, error)
	QueryEntriesUnbounded(scope storage.Scope) ([]*storage.Entry, error)
	GetEntry(id string) (*storage.Entry, error)
	MarkAsRead(id string, read bool) (*storage.Entry, error)
	ToggleStar(id string) (*storage.Entry, error)
	GetAllFeeds() ([]*storage.Feed, error)
}

// Refresher refreshes feeds in parallel; one feed's failure must not abort
// its siblings.
type Refresher interface {
	RefreshFeeds(ctx context.Context, feedIDs []string) error
}

// State is the controller's page-load state. LoadingPage is entered only
// via an explicit page-change action and always returns to Idle, including
// on failure.
type State int

const (
	StateIdle State = iota
	StateLoadingPage
)

// RefreshTrigger identifies which surface asked for a refresh. All triggers
// converge on the same refresh-then-reload operation.
type RefreshTrigger int

const (
	TriggerPull RefreshTrigger = iota
	TriggerManual
	TriggerBackground
)

// ScrollTarget is the instant scroll request issued during page changes.
type ScrollTarget int

const (
	ScrollTop ScrollTarget = iota
	ScrollBottom
)

type Options struct {
	PageSize int
	Dwell    time.Duration
}

const (
	defaultPageSize = 20
	defaultDwell    = 2 * time.Second
)

// Controller owns the authoritative in-memory entry collection for the
// mounted view, applies the dismissal and unread filters, absorbs bus
// mutations without clobbering newer data, and keeps the selection stable
// across reshapes. All mutation handlers serialize on one mutex, so each
// runs to completion before the next; the mutex is never held across a
// store call that publishes bus events.
type Controller struct {
	mu    sync.Mutex
	store EntryStore
	bus   *event.Bus

	pageSize  int
	refresher Refresher

	scope       storage.Scope
	scopeSet    bool
	collection  []*storage.Entry // page slice (remote) or full candidate set (local)
	remoteTotal int
	page        int

	unreadOnly bool
	dismissed  map[string]struct{}
	expanded   map[string]struct{}

	selectedIndex int
	selectedID    string

	state   State
	loadGen uint64

	// Entry IDs whose read/star mutation originated from this controller.
	// Their bus events patch in place; unrecognized events come from another
	// view and fall back to a full collection refetch.
	pendingRead map[string]struct{}
	pendingStar map[string]struct{}

	dwell    *DwellTracker
	onScroll func(ScrollTarget)
	subs     []*event.Subscription
}

func NewController(store EntryStore, refresher Refresher, bus *event.Bus, opts Options) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.Dwell <= 0 {
		opts.Dwell = defaultDwell
	}

	c := &Controller{
		store:       store,
		bus:         bus,
		refresher:   refresher,
		pageSize:    opts.PageSize,
		page:        1,
		dismissed:   make(map[string]struct{}),
		expanded:    make(map[string]struct{}),
		pendingRead: make(map[string]struct{}),
		pendingStar: make(map[string]struct{}),
	}
	c.dwell = NewDwellTracker(opts.Dwell, c.dwellFired)

	c.subs = append(c.subs,
		bus.Subscribe(event.KindEntryReadChanged, c.onEntryReadChanged),
		bus.Subscribe(event.KindEntryStarredChanged, c.onEntryStarredChanged),
		bus.Subscribe(event.KindEntryRefreshStart, c.onEntryRefreshStart),
		bus.Subscribe(event.KindEntryRefreshComplete, c.onEntryRefreshComplete),
		bus.Subscribe(event.KindEntryReprocessed, c.onEntryReprocessed),
		bus.Subscribe(event.KindFeedRefreshed, c.onFeedRefreshed),
		bus.Subscribe(event.KindMobileSwipeDismiss, c.onSwipeDismiss),
		bus.Subscribe(event.KindFeedListPageChange, c.onPageChange),
		bus.Subscribe(event.KindToggleEntryExpand, c.onToggleExpand),
	)

	return c
}

// Close cancels bus subscriptions and outstanding dwell timers.
func (c *Controller) Close() {
	for _, sub := range c.subs {
		sub.Cancel()
	}
	c.dwell.Stop()
}

// SetScrollFunc installs the render layer's scroll hook. Page changes call
// it synchronously with ScrollTop (forward) or ScrollBottom (backward);
// the scroll must be instant, not animated, so the jump lands before the
// content swap is visible.
func (c *Controller) SetScrollFunc(fn func(ScrollTarget)) {
	c.mu.Lock()
	c.onScroll = fn
	c.mu.Unlock()
}

// SetScope mounts a new view. The dismissed overlay and expansion set are
// per-visit state and reset here; navigating to a different feed, folder or
// filter is a route change.
func (c *Controller) SetScope(scope storage.Scope) {
	c.mu.Lock()
	c.scope = scope
	c.scopeSet = true
	c.page = 1
	c.dismissed = make(map[string]struct{})
	c.expanded = make(map[string]struct{})
	c.selectedIndex = 0
	c.selectedID = ""
	c.loadGen++
	c.mu.Unlock()

	c.reload()
}

func (c *Controller) Scope() storage.Scope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scope
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// filtered applies the fixed filter pipeline: dismissal first (a terminal
// per-visit state that wins regardless of read status), then the
// unread-only filter.
func (c *Controller) filteredLocked() []*storage.Entry {
	out := make([]*storage.Entry, 0, len(c.collection))
	for _, e := range c.collection {
		if _, gone := c.dismissed[e.ID]; gone {
			continue
		}
		if c.unreadOnly && e.IsRead {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (c *Controller) visibleLocked() ([]*storage.Entry, paginate.Meta) {
	if c.scope.Remote() {
		// The collection is already one store-sliced page; filters shrink
		// the window but the metadata reflects the store total.
		return c.filteredLocked(), paginate.Window(c.remoteTotal, c.page, c.pageSize)
	}
	p := paginate.Paginate(c.filteredLocked(), c.page, c.pageSize)
	return p.Items, p.Meta
}

// Visible returns the entries the render layer should display.
func (c *Controller) Visible() []*storage.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	vis, _ := c.visibleLocked()
	out := make([]*storage.Entry, len(vis))
	copy(out, vis)
	return out
}

// PageMeta returns the pagination metadata as typed fields; the render and
// keyboard layers never parse it back out of rendered markup.
func (c *Controller) PageMeta() paginate.Meta {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, meta := c.visibleLocked()
	return meta
}

// Selection returns the selected index within the visible array and the
// stable entry ID that is authoritative across mutations.
func (c *Controller) Selection() (int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedIndex, c.selectedID
}

// Select sets the selection by index into the visible array.
func (c *Controller) Select(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectByIndexLocked(index)
}

func (c *Controller) selectByIndexLocked(index int) {
	vis, _ := c.visibleLocked()
	if len(vis) == 0 {
		c.selectedIndex = 0
		c.selectedID = ""
		return
	}
	if index < 0 {
		index = 0
	}
	if index >= len(vis) {
		index = len(vis) - 1
	}
	c.selectedIndex = index
	c.selectedID = vis[index].ID
}

// reconcileLocked is the single post-mutation step that re-resolves the
// selection after the visible array changed shape. It looks the selected ID
// up in the new array; when the entry left the view it falls back to the
// clamped index. Mutation handlers call this instead of carrying their own
// drift logic.
func (c *Controller) reconcileLocked() {
	vis, _ := c.visibleLocked()
	if len(vis) == 0 {
		c.selectedIndex = 0
		c.selectedID = ""
		return
	}
	if c.selectedID != "" {
		for i, e := range vis {
			if e.ID == c.selectedID {
				c.selectedIndex = i
				return
			}
		}
	}
	if c.selectedIndex >= len(vis) {
		c.selectedIndex = len(vis) - 1
	}
	if c.selectedIndex < 0 {
		c.selectedIndex = 0
	}
	c.selectedID = vis[c.selectedIndex].ID
}

// Move applies a keyboard intent. Index movement within the page publishes
// a scroll request for the newly selected entry; crossing a page boundary
// goes through the page-change protocol.
func (c *Controller) Move(intent Intent) {
	c.mu.Lock()
	vis, meta := c.visibleLocked()
	res := Advance(intent, c.selectedIndex, len(vis), meta)
	if res.PageRequest == nil {
		c.selectByIndexLocked(res.Index)
		id := c.selectedID
		c.mu.Unlock()
		if id != "" {
			c.bus.Publish(event.FeedEntryScroll{EntryID: id})
		}
		return
	}
	req := *res.PageRequest
	c.mu.Unlock()
	c.requestPage(req)
}

// RequestPage handles explicit page navigation (pager buttons, keyboard
// page jump). Selection resets by index; no ID continuity is attempted
// across an explicit jump.
func (c *Controller) RequestPage(page int, direction event.PageDirection) {
	c.requestPage(PageRequest{Page: page, SelectIndex: 0, Direction: direction})
}

func (c *Controller) requestPage(req PageRequest) {
	c.mu.Lock()
	_, meta := c.visibleLocked()
	target := req.Page
	if target < 1 {
		target = 1
	}
	if target > meta.TotalPages {
		target = meta.TotalPages
	}
	if target == c.page {
		// Same page: no state transition, no store call.
		c.mu.Unlock()
		return
	}

	c.state = StateLoadingPage
	c.loadGen++
	gen := c.loadGen
	scope := c.scope
	scroll := c.onScroll
	remote := scope.Remote()
	c.mu.Unlock()

	if scroll != nil {
		if req.Direction == event.PagePrev {
			scroll(ScrollBottom)
		} else {
			scroll(ScrollTop)
		}
	}

	var (
		entries []*storage.Entry
		total   int
		err     error
	)
	if remote {
		entries, total, err = c.store.QueryEntriesPage(scope, target, c.pageSize)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Never left stuck in LoadingPage, even on failure or a stale load.
	c.state = StateIdle

	if gen != c.loadGen || !scope.Equal(c.scope) {
		// Superseded while the fetch was in flight; the newer load wins.
		return
	}
	if err != nil {
		debuglog.Errorf("page load failed (page %d): %v", target, err)
		return
	}

	if remote {
		c.collection = entries
		c.remoteTotal = total
		_, m := c.visibleLocked()
		if target > m.TotalPages {
			target = m.TotalPages
		}
	}
	c.page = target
	c.selectByIndexLocked(req.SelectIndex)
}

// SetUnreadOnly toggles the unread filter. An entry that is both dismissed
// and unread stays hidden: dismissal is applied first and wins.
func (c *Controller) SetUnreadOnly(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unreadOnly = on
	c.reconcileLocked()
}

func (c *Controller) UnreadOnly() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unreadOnly
}

// ToggleExpand flips the content-expansion state for an entry; expansion is
// independent of selection.
func (c *Controller) ToggleExpand(entryID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.expanded[entryID]; ok {
		delete(c.expanded, entryID)
	} else {
		c.expanded[entryID] = struct{}{}
	}
}

func (c *Controller) IsExpanded(entryID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.expanded[entryID]
	return ok
}

// Dismiss removes an entry from the view (swipe-archive). The neighbor that
// will occupy the vacated slot is computed against the visible array with
// the entry removed: min(originalIndex, remainingLen-1). The dismissed set
// is a per-visit overlay, cleared on the next SetScope.
func (c *Controller) Dismiss(entryID string, index int, expandNext bool) {
	c.mu.Lock()
	vis, _ := c.visibleLocked()
	remaining := make([]*storage.Entry, 0, len(vis))
	for _, e := range vis {
		if e.ID != entryID {
			remaining = append(remaining, e)
		}
	}

	c.dismissed[entryID] = struct{}{}
	c.dwell.Cancel(entryID)
	delete(c.expanded, entryID)

	var neighborID string
	if len(remaining) > 0 {
		ni := index
		if ni > len(remaining)-1 {
			ni = len(remaining) - 1
		}
		if ni < 0 {
			ni = 0
		}
		neighborID = remaining[ni].ID
		c.selectedIndex = ni
		c.selectedID = neighborID
		if expandNext {
			c.expanded[neighborID] = struct{}{}
		}
	} else {
		c.selectedIndex = 0
		c.selectedID = ""
	}
	c.reconcileLocked()
	c.mu.Unlock()

	if expandNext && neighborID != "" {
		c.bus.Publish(event.FeedEntryScroll{EntryID: neighborID})
	}
}

// MarkRead toggles the read flag from this view. The store publishes the
// optimistic notification and the post-write count signal; tagging the ID
// first lets our own event handler patch in place instead of refetching.
func (c *Controller) MarkRead(entryID string, read bool) error {
	c.mu.Lock()
	c.pendingRead[entryID] = struct{}{}
	c.mu.Unlock()

	if _, err := c.store.MarkAsRead(entryID, read); err != nil {
		c.mu.Lock()
		delete(c.pendingRead, entryID)
		c.mu.Unlock()
		debuglog.Errorf("mark read failed for %s: %v", entryID, err)
		return err
	}
	return nil
}

// ToggleStar toggles the star flag from this view.
func (c *Controller) ToggleStar(entryID string) error {
	c.mu.Lock()
	c.pendingStar[entryID] = struct{}{}
	c.mu.Unlock()

	if _, err := c.store.ToggleStar(entryID); err != nil {
		c.mu.Lock()
		delete(c.pendingStar, entryID)
		c.mu.Unlock()
		debuglog.Errorf("toggle star failed for %s: %v", entryID, err)
		return err
	}
	return nil
}

// FocusEntry starts the dwell timer for the entry whose content became the
// visible/focused one.
func (c *Controller) FocusEntry(entryID string) {
	c.dwell.Begin(entryID)
}

// BlurEntry cancels the dwell timer when the entry loses focus before the
// dwell elapses.
func (c *Controller) BlurEntry(entryID string) {
	c.dwell.Cancel(entryID)
}

func (c *Controller) dwellFired(entryID string) {
	c.mu.Lock()
	entry := c.findLocked(entryID)
	if entry == nil || entry.IsRead {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	_ = c.MarkRead(entryID, true)
}

// Refresh runs the shared refresh-then-reload operation. The trigger only
// determines which feeds are targeted; pull-to-refresh, the explicit
// refresh action and background polling all land here.
func (c *Controller) Refresh(ctx context.Context, trigger RefreshTrigger) error {
	if c.refresher == nil {
		return nil
	}
	feedIDs, err := c.refreshTargets()
	if err != nil {
		debuglog.Errorf("resolving refresh targets: %v", err)
		c.bus.Publish(event.ShowToast{Message: "Refresh failed", Type: event.ToastError})
		return err
	}
	if len(feedIDs) == 0 {
		return nil
	}

	if err := c.refresher.RefreshFeeds(ctx, feedIDs); err != nil {
		// Partial failure: siblings already continued, last-known-good data
		// stays on screen. Not auto-retried.
		debuglog.Warnf("refresh (trigger %d) completed with errors: %v", trigger, err)
		c.bus.Publish(event.ShowToast{Message: "Some feeds failed to refresh", Type: event.ToastError})
	}

	c.reload()
	return nil
}

func (c *Controller) refreshTargets() ([]string, error) {
	c.mu.Lock()
	scope := c.scope
	c.mu.Unlock()

	switch scope.Kind {
	case storage.ScopeFeed:
		return []string{scope.FeedID}, nil
	case storage.ScopeFolder:
		feeds, err := c.store.GetAllFeeds()
		if err != nil {
			return nil, fmt.Errorf("listing feeds: %w", err)
		}
		var ids []string
		for _, f := range feeds {
			if f.FolderID == scope.FolderID {
				ids = append(ids, f.ID)
			}
		}
		return ids, nil
	default:
		feeds, err := c.store.GetAllFeeds()
		if err != nil {
			return nil, fmt.Errorf("listing feeds: %w", err)
		}
		ids := make([]string, 0, len(feeds))
		for _, f := range feeds {
			ids = append(ids, f.ID)
		}
		return ids, nil
	}
}

// reload refetches the classified collection, keeping the current page
// (clamped) and re-resolving the selection by ID. A reload that completes
// after the scope moved on is discarded.
func (c *Controller) reload() {
	c.mu.Lock()
	if !c.scopeSet {
		c.mu.Unlock()
		return
	}
	scope := c.scope
	page := c.page
	gen := c.loadGen
	c.mu.Unlock()

	var (
		entries []*storage.Entry
		total   int
		err     error
	)
	if scope.Remote() {
		entries, total, err = c.store.QueryEntriesPage(scope, page, c.pageSize)
	} else {
		entries, err = c.store.QueryEntriesUnbounded(scope)
		total = len(entries)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.loadGen || !scope.Equal(c.scope) {
		return
	}
	if err != nil {
		// Degrade to the unchanged view; the failure is contained here.
		debuglog.Errorf("reloading %s view: %v", scope.Kind, err)
		return
	}

	c.collection = entries
	c.remoteTotal = total
	_, meta := c.visibleLocked()
	if c.page > meta.TotalPages {
		c.page = meta.TotalPages
	}
	c.reconcileLocked()
}

func (c *Controller) findLocked(entryID string) *storage.Entry {
	for _, e := range c.collection {
		if e.ID == entryID {
			return e
		}
	}
	return nil
}

func (c *Controller) onEntryReadChanged(e event.Event) {
	evt := e.(event.EntryReadChanged)

	c.mu.Lock()
	_, local := c.pendingRead[evt.EntryID]
	delete(c.pendingRead, evt.EntryID)
	if local {
		if entry := c.findLocked(evt.EntryID); entry != nil {
			entry.IsRead = evt.IsRead
			if evt.IsRead && entry.ReadDate == nil {
				now := time.Now()
				entry.ReadDate = &now
			}
		}
		c.reconcileLocked()
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	// Mutation from another view: refetch the whole classified collection
	// as the correctness fallback.
	c.reload()
}

func (c *Controller) onEntryStarredChanged(e event.Event) {
	evt := e.(event.EntryStarredChanged)

	c.mu.Lock()
	_, local := c.pendingStar[evt.EntryID]
	delete(c.pendingStar, evt.EntryID)
	if local {
		if entry := c.findLocked(evt.EntryID); entry != nil {
			entry.IsStarred = evt.IsStarred
			entry.StarredDate = evt.StarredDate
		}
		c.reconcileLocked()
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.reload()
}

func (c *Controller) onEntryRefreshStart(e event.Event) {
	evt := e.(event.EntryRefreshStart)
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry := c.findLocked(evt.EntryID); entry != nil {
		entry.ProcessingStatus = storage.ProcessingPending
	}
}

func (c *Controller) onEntryRefreshComplete(e event.Event) {
	evt := e.(event.EntryRefreshComplete)
	entry, ok := evt.Entry.(*storage.Entry)
	if !ok || entry == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.collection {
		if existing.ID == entry.ID {
			c.collection[i] = entry
			break
		}
	}
	c.reconcileLocked()
}

func (c *Controller) onEntryReprocessed(e event.Event) {
	evt := e.(event.EntryReprocessed)

	c.mu.Lock()
	present := c.findLocked(evt.EntryID) != nil
	c.mu.Unlock()
	if !present {
		return
	}

	entry, err := c.store.GetEntry(evt.EntryID)
	if err != nil {
		debuglog.Warnf("reloading reprocessed entry %s: %v", evt.EntryID, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.collection {
		if existing.ID == entry.ID {
			c.collection[i] = entry
			break
		}
	}
	c.reconcileLocked()
}

func (c *Controller) onFeedRefreshed(e event.Event) {
	evt := e.(event.FeedRefreshed)

	c.mu.Lock()
	scope := c.scope
	set := c.scopeSet
	c.mu.Unlock()
	if !set {
		return
	}
	// Supplied sets are pinned by ID and never grow from a feed refresh.
	if scope.Kind == storage.ScopeSupplied || scope.Kind == storage.ScopeSearch {
		return
	}
	if scope.Kind == storage.ScopeFeed && scope.FeedID != evt.FeedID {
		return
	}

	c.reload()
}

func (c *Controller) onSwipeDismiss(e event.Event) {
	evt := e.(event.MobileSwipeDismiss)
	c.Dismiss(evt.EntryID, evt.Index, evt.ExpandNext)
}

func (c *Controller) onPageChange(e event.Event) {
	evt := e.(event.FeedListPageChange)
	sel := evt.SelectIndex
	if sel < 0 {
		sel = 0
	}
	c.requestPage(PageRequest{Page: evt.Page, SelectIndex: sel, Direction: evt.Direction})
}

func (c *Controller) onToggleExpand(e event.Event) {
	evt := e.(event.ToggleEntryExpand)
	c.ToggleExpand(evt.EntryID)
}
