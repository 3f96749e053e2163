package view

import (
	"sync"
	"time"
)

// DwellTracker owns the delayed read-marking timers. At most one timer is
// outstanding per entry ID: a new Begin for the same ID replaces the old
// timer instead of stacking. Every timer is explicitly cancellable so none
// can fire against a view that has moved on.
type DwellTracker struct {
	mu     sync.Mutex
	dwell  time.Duration
	timers map[string]*time.Timer
	fire   func(entryID string)
}

func NewDwellTracker(dwell time.Duration, fire func(entryID string)) *DwellTracker {
	return &DwellTracker{
		dwell:  dwell,
		timers: make(map[string]*time.Timer),
		fire:   fire,
	}
}

// Begin starts (or restarts) the dwell timer for an entry that just became
// the visible/focused one.
func (d *DwellTracker) Begin(entryID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[entryID]; ok {
		t.Stop()
	}
	d.timers[entryID] = time.AfterFunc(d.dwell, func() {
		d.mu.Lock()
		_, live := d.timers[entryID]
		delete(d.timers, entryID)
		d.mu.Unlock()
		if live {
			d.fire(entryID)
		}
	})
}

// Cancel stops the timer for an entry that lost focus before the dwell
// elapsed. Calling it for an entry with no timer is a no-op.
func (d *DwellTracker) Cancel(entryID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[entryID]; ok {
		t.Stop()
		delete(d.timers, entryID)
	}
}

// Stop cancels every outstanding timer. Called on view unmount.
func (d *DwellTracker) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, t := range d.timers {
		t.Stop()
		delete(d.timers, id)
	}
}

// Pending reports whether a timer is outstanding for the entry. Test hook.
func (d *DwellTracker) Pending(entryID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[entryID]
	return ok
}
