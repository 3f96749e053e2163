// Package gesture classifies touch sequences into taps, long-presses and
// horizontal swipe actions, and emits the same mutation events as the
// keyboard layer so the rest of the system cannot tell them apart.
package gesture

import (
	"sync"
	"time"

	"github.com/JamesDavid/InReader-sub001/internal/event"
)

// Action is the terminal classification of a touch sequence.
type Action int

const (
	ActionNone Action = iota // ceded to native scrolling, or cancelled
	ActionTap
	ActionLongPress
	ActionReveal   // snapped to the revealed action strip
	ActionArchive  // dragged past the archive threshold, entry dismissed
	ActionSnapBack // horizontal drag released below the reveal threshold
)

func (a Action) String() string {
	switch a {
	case ActionTap:
		return "tap"
	case ActionLongPress:
		return "long-press"
	case ActionReveal:
		return "reveal"
	case ActionArchive:
		return "archive"
	case ActionSnapBack:
		return "snap-back"
	default:
		return "none"
	}
}

// Config carries the classification thresholds in logical pixels.
type Config struct {
	Deadzone         float64
	RevealThreshold  float64
	ArchiveThreshold float64
	LongPressDelay   time.Duration
}

func DefaultConfig() Config {
	return Config{
		Deadzone:         10,
		RevealThreshold:  72,
		ArchiveThreshold: 180,
		LongPressDelay:   500 * time.Millisecond,
	}
}

type phase int

const (
	phaseIdle phase = iota
	// within the deadzone, direction not yet locked
	phasePressed
	// locked horizontal, tracking the drag offset
	phaseHorizontal
	// locked vertical, ceded to native scrolling
	phaseVertical
)

// Result reports the outcome of ending a touch sequence: the action and the
// resting horizontal offset the row should animate to.
type Result struct {
	Action Action
	Offset float64
}

// Interpreter is a finite-state classifier for one touch sequence at a time.
// Direction is locked on the first movement exceeding the deadzone by
// comparing |dx| against |dy|; once locked vertical the rest of the sequence
// is ignored here. The long-press timer is cancelled the instant movement
// exceeds the deadzone.
type Interpreter struct {
	mu  sync.Mutex
	cfg Config
	bus *event.Bus

	state   phase
	entryID string
	index   int
	startX  float64
	startY  float64
	offset  float64

	longPress      *time.Timer
	longPressFired bool

	// onLongPress opens the contextual sheet; onOffset lets the render layer
	// track the row during a horizontal drag. Both optional.
	onLongPress func(entryID string)
	onOffset    func(entryID string, offset float64)
}

func NewInterpreter(cfg Config, bus *event.Bus) *Interpreter {
	if cfg.Deadzone <= 0 {
		cfg.Deadzone = DefaultConfig().Deadzone
	}
	if cfg.RevealThreshold <= 0 {
		cfg.RevealThreshold = DefaultConfig().RevealThreshold
	}
	if cfg.ArchiveThreshold <= 0 {
		cfg.ArchiveThreshold = DefaultConfig().ArchiveThreshold
	}
	if cfg.LongPressDelay <= 0 {
		cfg.LongPressDelay = DefaultConfig().LongPressDelay
	}
	return &Interpreter{cfg: cfg, bus: bus}
}

func (in *Interpreter) SetLongPressFunc(fn func(entryID string)) {
	in.mu.Lock()
	in.onLongPress = fn
	in.mu.Unlock()
}

func (in *Interpreter) SetOffsetFunc(fn func(entryID string, offset float64)) {
	in.mu.Lock()
	in.onOffset = fn
	in.mu.Unlock()
}

// Begin starts tracking a touch sequence on the entry row at the given
// visible index. A Begin while another sequence is active supersedes it.
func (in *Interpreter) Begin(entryID string, index int, x, y float64) {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.cancelLongPressLocked()
	in.state = phasePressed
	in.entryID = entryID
	in.index = index
	in.startX = x
	in.startY = y
	in.offset = 0
	in.longPressFired = false

	id := entryID
	in.longPress = time.AfterFunc(in.cfg.LongPressDelay, func() {
		in.mu.Lock()
		if in.state != phasePressed || in.entryID != id {
			in.mu.Unlock()
			return
		}
		in.longPressFired = true
		fn := in.onLongPress
		in.mu.Unlock()
		if fn != nil {
			fn(id)
		}
	})
}

// Move feeds a touch-move sample. Returns the current horizontal offset the
// row should render at (0 unless the gesture is locked horizontal).
func (in *Interpreter) Move(x, y float64) float64 {
	in.mu.Lock()

	switch in.state {
	case phasePressed:
		dx := x - in.startX
		dy := y - in.startY
		if abs(dx) < in.cfg.Deadzone && abs(dy) < in.cfg.Deadzone {
			in.mu.Unlock()
			return 0
		}
		// Movement left the deadzone: lock direction, kill the long-press.
		in.cancelLongPressLocked()
		if abs(dx) >= abs(dy) {
			in.state = phaseHorizontal
		} else {
			in.state = phaseVertical
			in.mu.Unlock()
			return 0
		}
		fallthrough

	case phaseHorizontal:
		dx := x - in.startX
		if dx > 0 {
			dx = 0 // the action strip only lives on the left swipe
		}
		in.offset = dx
		fn := in.onOffset
		id := in.entryID
		in.mu.Unlock()
		if fn != nil {
			fn(id, dx)
		}
		return dx

	default:
		in.mu.Unlock()
		return 0
	}
}

// End resolves the touch sequence. An archive emits the dismissal event the
// keyboard path would have emitted.
func (in *Interpreter) End(x, y float64) Result {
	in.mu.Lock()
	in.cancelLongPressLocked()

	state := in.state
	fired := in.longPressFired
	in.state = phaseIdle

	switch {
	case state == phaseIdle || state == phaseVertical:
		in.mu.Unlock()
		return Result{Action: ActionNone}

	case fired:
		in.mu.Unlock()
		return Result{Action: ActionLongPress}

	case state == phasePressed:
		in.mu.Unlock()
		return Result{Action: ActionTap}
	}

	// Horizontal drag: classify by leftward travel.
	travel := in.startX - x
	if travel < 0 {
		travel = 0
	}
	id := in.entryID
	index := in.index

	switch {
	case travel >= in.cfg.ArchiveThreshold:
		in.mu.Unlock()
		in.bus.Publish(event.MobileSwipeDismiss{EntryID: id, Index: index})
		return Result{Action: ActionArchive, Offset: -travel}

	case travel >= in.cfg.RevealThreshold:
		in.offset = -in.cfg.RevealThreshold
		off := in.offset
		in.mu.Unlock()
		return Result{Action: ActionReveal, Offset: off}

	default:
		in.offset = 0
		in.mu.Unlock()
		return Result{Action: ActionSnapBack, Offset: 0}
	}
}

// Cancel aborts the sequence without classification (touchcancel, row
// unmount). Timers are stopped so nothing fires against stale state.
func (in *Interpreter) Cancel() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.cancelLongPressLocked()
	in.state = phaseIdle
	in.offset = 0
	in.longPressFired = false
}

func (in *Interpreter) cancelLongPressLocked() {
	if in.longPress != nil {
		in.longPress.Stop()
		in.longPress = nil
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
