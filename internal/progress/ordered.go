package progress

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrOutOfOrder is returned when an event moves back to an earlier step.
	ErrOutOfOrder = errors.New("progress event out of order")
	// ErrAfterTerminal is returned for any event emitted after the run ended.
	ErrAfterTerminal = errors.New("progress event after terminal event")
)

// OrderedEmitter enforces the stream contract: steps never regress and at most
// one terminal event is forwarded. A completed Finalize only ends the stream
// when the next event is not a Publish event.
type OrderedEmitter struct {
	mu       sync.Mutex
	next     Emitter
	lastRank int
	terminal bool
	finalize bool
}

// Ordered wraps next with ordering checks.
func Ordered(next Emitter) *OrderedEmitter {
	return &OrderedEmitter{next: next}
}

// Emit validates ev and forwards it.
func (o *OrderedEmitter) Emit(ev Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	rank, ok := stepRank[ev.Step]
	if !ok {
		return fmt.Errorf("%w: unknown step %q", ErrOutOfOrder, ev.Step)
	}
	if o.terminal {
		return fmt.Errorf("%w: %s %s", ErrAfterTerminal, ev.Step, ev.Status)
	}
	if o.finalize && ev.Step != StepPublish {
		return fmt.Errorf("%w: %s %s after finalize completed", ErrAfterTerminal, ev.Step, ev.Status)
	}
	if rank < o.lastRank {
		return fmt.Errorf("%w: %s after step rank %d", ErrOutOfOrder, ev.Step, o.lastRank)
	}

	if err := o.next.Emit(ev); err != nil {
		return err
	}

	o.lastRank = rank
	switch {
	case ev.Status == StatusFailed:
		o.terminal = true
	case ev.Status == StatusCompleted && ev.Step == StepPublish:
		o.terminal = true
	case ev.Status == StatusCompleted && ev.Step == StepFinalize:
		o.finalize = true
	}
	return nil
}

// Terminated reports whether a terminal event was observed. A completed
// Finalize counts as terminal when no Publish event followed.
func (o *OrderedEmitter) Terminated() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.terminal || o.finalize
}
