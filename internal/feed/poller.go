package feed

import (
	"math/rand"
	"sync"
	"time"

	"github.com/JamesDavid/InReader-sub001/internal/debuglog"
	"github.com/JamesDavid/InReader-sub001/internal/event"
	"github.com/JamesDavid/InReader-sub001/internal/storage"
)

// Poller keeps the sidebar unread counts warm. Each tracked feed gets its
// own loop with a randomized initial delay, so a sidebar mounting fifty
// feed rows at once does not hammer the store in the same instant. The
// post-write count signal on the bus short-circuits the wait: the count for
// a feed the user just read in is recomputed immediately.
type Poller struct {
	store    *storage.Store
	bus      *event.Bus
	interval time.Duration

	mu     sync.Mutex
	counts map[string]int
	kick   map[string]chan struct{}
	stop   chan struct{}
	wg     sync.WaitGroup
	sub    *event.Subscription
}

const fallbackPollInterval = time.Minute

func NewPoller(store *storage.Store, bus *event.Bus, interval time.Duration) *Poller {
	// A zero or negative interval would break the jitter draw and spin the
	// poll loops hot.
	if interval <= 0 {
		interval = fallbackPollInterval
	}
	p := &Poller{
		store:    store,
		bus:      bus,
		interval: interval,
		counts:   make(map[string]int),
		kick:     make(map[string]chan struct{}),
		stop:     make(chan struct{}),
	}
	p.sub = bus.Subscribe(event.KindEntryMarkedAsRead, p.onMarkedAsRead)
	return p
}

// Track starts the polling loop for one feed. Tracking an already-tracked
// feed is a no-op.
func (p *Poller) Track(feedID string) {
	p.mu.Lock()
	if _, ok := p.kick[feedID]; ok {
		p.mu.Unlock()
		return
	}
	kick := make(chan struct{}, 1)
	p.kick[feedID] = kick
	p.mu.Unlock()

	p.wg.Add(1)
	go p.loop(feedID, kick)
}

// TrackAll starts loops for every current subscription.
func (p *Poller) TrackAll() error {
	feeds, err := p.store.GetAllFeeds()
	if err != nil {
		return err
	}
	for _, f := range feeds {
		p.Track(f.ID)
	}
	return nil
}

// Stop terminates every loop and the bus subscription.
func (p *Poller) Stop() {
	p.sub.Cancel()
	close(p.stop)
	p.wg.Wait()
}

// Count returns the last polled unread count for a feed.
func (p *Poller) Count(feedID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[feedID]
}

func (p *Poller) loop(feedID string, kick chan struct{}) {
	defer p.wg.Done()

	// Staggered start: anywhere in [0, interval).
	jitter := time.Duration(rand.Int63n(int64(p.interval)))
	select {
	case <-time.After(jitter):
	case <-kick:
	case <-p.stop:
		return
	}

	for {
		p.refresh(feedID)
		select {
		case <-time.After(p.interval):
		case <-kick:
		case <-p.stop:
			return
		}
	}
}

func (p *Poller) refresh(feedID string) {
	count, err := p.store.GetUnreadCount(feedID)
	if err != nil {
		debuglog.Warnf("polling unread count for %s: %v", feedID, err)
		return
	}
	p.mu.Lock()
	p.counts[feedID] = count
	p.mu.Unlock()
}

func (p *Poller) onMarkedAsRead(e event.Event) {
	evt := e.(event.EntryMarkedAsRead)

	p.mu.Lock()
	defer p.mu.Unlock()
	if evt.FeedID == "" {
		// Global signal: wake every loop.
		for _, kick := range p.kick {
			select {
			case kick <- struct{}{}:
			default:
			}
		}
		return
	}
	if kick, ok := p.kick[evt.FeedID]; ok {
		select {
		case kick <- struct{}{}:
		default:
		}
	}
}
