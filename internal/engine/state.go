package engine

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("engine: invalid worker state transition")

// WorkerState is the lifecycle of one worker.
//
//	Active   -> Paused    PauseWorker
//	Paused   -> Active    Resume
//	Active   -> Disabled  fault
//	Paused   -> Disabled  fault
//	Disabled -> Active    Reset
type WorkerState uint8

const (
	WorkerStateActive WorkerState = iota
	WorkerStatePaused
	WorkerStateDisabled
)

func (s WorkerState) String() string {
	switch s {
	case WorkerStateActive:
		return "active"
	case WorkerStatePaused:
		return "paused"
	case WorkerStateDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

func (e *Engine) State() WorkerState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Disabled() bool {
	return e.State() == WorkerStateDisabled
}

func (e *Engine) acceptsOrders() bool {
	return e.State() == WorkerStateActive
}

// disable is one-way from the engine's side.
func (e *Engine) disable() {
	e.mu.Lock()
	e.state = WorkerStateDisabled
	e.mu.Unlock()
}

func (e *Engine) pause() {
	e.mu.Lock()
	if e.state == WorkerStateActive {
		e.state = WorkerStatePaused
	}
	e.mu.Unlock()
}

// Resume returns a paused worker to Active.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case WorkerStateActive:
		return nil
	case WorkerStatePaused:
		e.state = WorkerStateActive
		return nil
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.state, WorkerStateActive)
	}
}

// Reset clears the fault flag. It is never called by the engine itself.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case WorkerStateActive:
		return nil
	case WorkerStateDisabled:
		e.state = WorkerStateActive
		return nil
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.state, WorkerStateActive)
	}
}

func (e *Engine) RecheckOrders() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recheck
}

func (e *Engine) setRecheck(v bool) {
	e.mu.Lock()
	e.recheck = v
	e.mu.Unlock()
}
