package workerpool

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Submission and execution failures surfaced to waiters.
var (
	ErrQueueFull    = errors.New("workerpool: queue full")
	ErrShuttingDown = errors.New("workerpool: shutting down")
	ErrTimeout      = errors.New("workerpool: task timed out")
	ErrCancelled    = errors.New("workerpool: task cancelled")
	ErrWorkerCrash  = errors.New("workerpool: worker crashed")
)

// State is the lifecycle phase of a submitted task.
type State string

const (
	StateQueued     State = "queued"
	StateDispatched State = "dispatched"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateTimedOut   State = "timedOut"
	StateCancelled  State = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateTimedOut, StateCancelled:
		return true
	}
	return false
}

// Task is a unit of work handed to the pool. The payload is owned by the
// submitter and passed to exactly one worker by value.
type Task[T any] struct {
	ID        string
	Kind      string
	Payload   T
	CreatedAt time.Time
}

// Pending is the waiter handle for a submitted task.
type Pending[R any] struct {
	taskID string

	mu     sync.Mutex
	state  State
	result R
	err    error

	done      chan struct{}
	abort     chan struct{}
	abortOnce sync.Once
}

func newPending[R any](taskID string) *Pending[R] {
	return &Pending[R]{
		taskID: taskID,
		state:  StateQueued,
		done:   make(chan struct{}),
		abort:  make(chan struct{}),
	}
}

// TaskID returns the id of the underlying task.
func (p *Pending[R]) TaskID() string {
	return p.taskID
}

// State returns the current lifecycle phase.
func (p *Pending[R]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Wait blocks until the task reaches a terminal state or ctx is done.
func (p *Pending[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.result, p.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Abort cancels the task: a queued task resolves immediately with
// ErrCancelled, a dispatched one has its worker terminated. Aborting after
// completion is a no-op.
func (p *Pending[R]) Abort() {
	p.abortOnce.Do(func() { close(p.abort) })
	var zero R
	p.resolve(StateCancelled, zero, ErrCancelled)
}

func (p *Pending[R]) aborted() bool {
	select {
	case <-p.abort:
		return true
	default:
		return false
	}
}

// markDispatched transitions queued -> dispatched. It fails when the task
// was cancelled while waiting in the queue.
func (p *Pending[R]) markDispatched() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateQueued {
		return false
	}
	p.state = StateDispatched
	return true
}

// resolve records the terminal outcome exactly once.
func (p *Pending[R]) resolve(state State, result R, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Terminal() {
		return false
	}
	p.state = state
	p.result = result
	p.err = err
	close(p.done)
	return true
}
