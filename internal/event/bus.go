package event

import "sync"

// Handler receives a published event.
type Handler func(Event)

// Subscription identifies a registered handler so it can be removed.
type Subscription struct {
	bus  *Bus
	kind Kind
	id   uint64
}

// Cancel removes the subscription. Safe to call from inside a handler and
// safe to call more than once.
func (s *Subscription) Cancel() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.unsubscribe(s.kind, s.id)
	s.bus = nil
}

type registration struct {
	id      uint64
	handler Handler
}

// Bus is an injectable publish/subscribe channel for mutation events.
// Delivery is synchronous and ordered: Publish invokes the handlers
// registered for the event's kind, in registration order, on the calling
// goroutine. The bus holds no entry data; it is pure transport.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[Kind][]registration
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Kind][]registration)}
}

func (b *Bus) Subscribe(kind Kind, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs[kind] = append(b.subs[kind], registration{id: b.nextID, handler: h})
	return &Subscription{bus: b, kind: kind, id: b.nextID}
}

// Publish dispatches e to the handlers for its kind. The handler slice is
// snapshotted under the lock, so a handler may cancel its own or another
// subscription mid-dispatch without corrupting iteration; a cancelled
// handler that was already snapshotted still receives the current event.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	regs := b.subs[e.EventKind()]
	snapshot := make([]registration, len(regs))
	copy(snapshot, regs)
	b.mu.Unlock()

	for _, reg := range snapshot {
		reg.handler(e)
	}
}

func (b *Bus) unsubscribe(kind Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	regs := b.subs[kind]
	for i, reg := range regs {
		if reg.id == id {
			b.subs[kind] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}
