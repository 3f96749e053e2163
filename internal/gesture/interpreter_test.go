package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JamesDavid/InReader-sub001/internal/event"
)

func testConfig() Config {
	return Config{
		Deadzone:         10,
		RevealThreshold:  72,
		ArchiveThreshold: 180,
		LongPressDelay:   40 * time.Millisecond,
	}
}

func TestInterpreter_Tap(t *testing.T) {
	in := NewInterpreter(testConfig(), event.NewBus())

	in.Begin("e1", 0, 100, 100)
	in.Move(104, 102) // inside the deadzone
	res := in.End(104, 102)

	assert.Equal(t, ActionTap, res.Action)
}

func TestInterpreter_LongPress(t *testing.T) {
	in := NewInterpreter(testConfig(), event.NewBus())

	var pressed string
	in.SetLongPressFunc(func(id string) { pressed = id })

	in.Begin("e1", 0, 100, 100)
	time.Sleep(100 * time.Millisecond)
	res := in.End(100, 100)

	assert.Equal(t, "e1", pressed)
	assert.Equal(t, ActionLongPress, res.Action)
}

func TestInterpreter_MovementCancelsLongPress(t *testing.T) {
	in := NewInterpreter(testConfig(), event.NewBus())

	var pressed bool
	in.SetLongPressFunc(func(string) { pressed = true })

	in.Begin("e1", 0, 100, 100)
	in.Move(130, 100) // past the deadzone before the delay elapses
	time.Sleep(100 * time.Millisecond)

	assert.False(t, pressed, "long-press timer cancelled on movement")
}

func TestInterpreter_SwipeLeftReveals(t *testing.T) {
	in := NewInterpreter(testConfig(), event.NewBus())

	in.Begin("e1", 0, 300, 100)
	off := in.Move(200, 102)
	assert.Equal(t, float64(-100), off)

	res := in.End(200, 102)
	assert.Equal(t, ActionReveal, res.Action)
	assert.Equal(t, float64(-72), res.Offset, "snaps to the action-strip offset")
}

func TestInterpreter_SwipePastArchiveEmitsDismiss(t *testing.T) {
	bus := event.NewBus()
	in := NewInterpreter(testConfig(), bus)

	var dismissed event.MobileSwipeDismiss
	bus.Subscribe(event.KindMobileSwipeDismiss, func(e event.Event) {
		dismissed = e.(event.MobileSwipeDismiss)
	})

	in.Begin("e7", 3, 400, 100)
	in.Move(150, 100)
	res := in.End(150, 100)

	assert.Equal(t, ActionArchive, res.Action)
	assert.Equal(t, "e7", dismissed.EntryID)
	assert.Equal(t, 3, dismissed.Index)
}

func TestInterpreter_ShortDragSnapsBack(t *testing.T) {
	in := NewInterpreter(testConfig(), event.NewBus())

	in.Begin("e1", 0, 300, 100)
	in.Move(260, 100)
	res := in.End(260, 100)

	assert.Equal(t, ActionSnapBack, res.Action)
	assert.Zero(t, res.Offset)
}

func TestInterpreter_RightwardDragSnapsBack(t *testing.T) {
	in := NewInterpreter(testConfig(), event.NewBus())

	in.Begin("e1", 0, 100, 100)
	off := in.Move(300, 100)
	assert.Zero(t, off, "no action strip on the right side")

	res := in.End(300, 100)
	assert.Equal(t, ActionSnapBack, res.Action)
}

func TestInterpreter_VerticalLockCedesToScrolling(t *testing.T) {
	bus := event.NewBus()
	in := NewInterpreter(testConfig(), bus)

	var dismissed bool
	bus.Subscribe(event.KindMobileSwipeDismiss, func(event.Event) { dismissed = true })

	in.Begin("e1", 0, 100, 100)
	in.Move(103, 140) // |dy| wins: locked vertical

	// Later horizontal movement is ignored for this touch sequence.
	off := in.Move(600, 140)
	assert.Zero(t, off)

	res := in.End(600, 140)
	assert.Equal(t, ActionNone, res.Action)
	assert.False(t, dismissed)
}

func TestInterpreter_DirectionLockedOnFirstDeadzoneExit(t *testing.T) {
	in := NewInterpreter(testConfig(), event.NewBus())

	in.Begin("e1", 0, 100, 100)
	in.Move(130, 105) // |dx| wins: locked horizontal

	// Vertical movement no longer re-locks the direction.
	off := in.Move(20, 400)
	assert.Equal(t, float64(-80), off)
}

func TestInterpreter_CancelStopsTimers(t *testing.T) {
	in := NewInterpreter(testConfig(), event.NewBus())

	var pressed bool
	in.SetLongPressFunc(func(string) { pressed = true })

	in.Begin("e1", 0, 100, 100)
	in.Cancel()
	time.Sleep(100 * time.Millisecond)

	assert.False(t, pressed)
	res := in.End(100, 100)
	assert.Equal(t, ActionNone, res.Action)
}

func TestInterpreter_OffsetCallbackDuringDrag(t *testing.T) {
	in := NewInterpreter(testConfig(), event.NewBus())

	var offsets []float64
	in.SetOffsetFunc(func(_ string, off float64) { offsets = append(offsets, off) })

	in.Begin("e1", 0, 300, 100)
	in.Move(250, 100)
	in.Move(180, 100)

	require.Len(t, offsets, 2)
	assert.Equal(t, []float64{-50, -120}, offsets)
}

func TestInterpreter_NewBeginSupersedes(t *testing.T) {
	in := NewInterpreter(testConfig(), event.NewBus())

	var pressed []string
	in.SetLongPressFunc(func(id string) { pressed = append(pressed, id) })

	in.Begin("e1", 0, 100, 100)
	in.Begin("e2", 1, 100, 100)
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, []string{"e2"}, pressed, "superseded sequence never fires")
}
