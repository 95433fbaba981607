// Package workerpool provides a bounded pool of isolated workers for
// CPU-bound task execution off the I/O path.
//
// Submission never blocks: a saturated queue fails fast with ErrQueueFull.
// Every task is bounded by a per-task timeout; on expiry the worker handling
// it is terminated and replaced, guaranteeing release of the slot. Workers
// share nothing; payloads and results move by value.
package workerpool

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Processor executes one task on a worker. The context carries the per-task
// deadline and is cancelled on abort or forced shutdown.
type Processor[T any, R any] func(ctx context.Context, task Task[T]) (R, error)

// Config sizes the pool. Zero values take the documented defaults.
type Config struct {
	MinWorkers   int           // default 1
	MaxWorkers   int           // default runtime.NumCPU()
	MaxQueue     int           // default 256
	TaskTimeout  time.Duration // default 60s
	IdleTimeout  time.Duration // default 30s
	DrainTimeout time.Duration // default 10s
}

func (c Config) withDefaults() Config {
	if c.MinWorkers <= 0 {
		c.MinWorkers = 1
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = runtime.NumCPU()
	}
	if c.MaxWorkers < c.MinWorkers {
		c.MaxWorkers = c.MinWorkers
	}
	if c.MaxQueue <= 0 {
		c.MaxQueue = 256
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = 60 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 30 * time.Second
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = 10 * time.Second
	}
	return c
}

// Stats is a snapshot of pool activity.
type Stats struct {
	Completed   int64   `json:"completed"`
	Active      int     `json:"active"`
	Queued      int     `json:"queued"`
	Live        int     `json:"live"`
	Utilization float64 `json:"utilization"` // 0..1
	AvgRuntime  float64 `json:"avgRuntimeMs"`
	AvgWait     float64 `json:"avgWaitMs"`
}

type item[T any, R any] struct {
	task     Task[T]
	pending  *Pending[R]
	enqueued time.Time
}

// Pool is a bounded, long-lived worker pool. All bookkeeping is owned by a
// single mutex-guarded controller; workers communicate only through the
// task queue and their pending handles.
type Pool[T any, R any] struct {
	cfg  Config
	proc Processor[T, R]
	log  zerolog.Logger

	queue chan *item[T, R]
	stop  chan struct{} // closed on forced shutdown

	mu           sync.Mutex
	live         int
	active       int
	draining     bool
	closed       bool
	completed    int64
	totalRuntime time.Duration
	totalWait    time.Duration
	dispatched   int64

	wg sync.WaitGroup
}

// New starts a pool with MinWorkers live workers.
func New[T any, R any](cfg Config, proc Processor[T, R], log zerolog.Logger) *Pool[T, R] {
	cfg = cfg.withDefaults()
	p := &Pool[T, R]{
		cfg:   cfg,
		proc:  proc,
		log:   log,
		queue: make(chan *item[T, R], cfg.MaxQueue),
		stop:  make(chan struct{}),
	}
	p.mu.Lock()
	for i := 0; i < cfg.MinWorkers; i++ {
		p.spawnLocked()
	}
	p.mu.Unlock()
	p.log.Debug().Int("min", cfg.MinWorkers).Int("max", cfg.MaxWorkers).Int("queue", cfg.MaxQueue).Msg("worker pool started")
	return p
}

// Submit enqueues a task without blocking. It fails with ErrQueueFull when
// the queue is saturated and ErrShuttingDown after Shutdown began.
func (p *Pool[T, R]) Submit(task Task[T]) (*Pending[R], error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.draining {
		return nil, ErrShuttingDown
	}
	// Scale up on queue pressure: every worker busy and room to grow.
	if p.live < p.cfg.MaxWorkers && p.active >= p.live {
		p.spawnLocked()
	}

	pending := newPending[R](task.ID)
	it := &item[T, R]{task: task, pending: pending, enqueued: time.Now()}
	select {
	case p.queue <- it:
		return pending, nil
	default:
		return nil, ErrQueueFull
	}
}

// spawnLocked starts a worker; the caller holds p.mu.
func (p *Pool[T, R]) spawnLocked() {
	p.live++
	p.wg.Add(1)
	go p.worker()
}

func (p *Pool[T, R]) worker() {
	defer p.wg.Done()
	idle := time.NewTimer(p.cfg.IdleTimeout)
	defer idle.Stop()

	for {
		idle.Reset(p.cfg.IdleTimeout)
		select {
		case it, ok := <-p.queue:
			if !ok {
				p.workerExit(false)
				return
			}
			if !it.pending.markDispatched() {
				// Cancelled while queued; nothing to run.
				continue
			}
			p.noteDispatch(time.Since(it.enqueued))
			if !p.runTask(it) {
				p.workerExit(true)
				return
			}
		case <-idle.C:
			p.mu.Lock()
			if p.live > p.cfg.MinWorkers {
				p.live--
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()
		case <-p.stop:
			p.workerExit(false)
			return
		}
	}
}

// workerExit removes the worker from the live count, replacing it when the
// count would fall below MinWorkers and the pool is still open.
func (p *Pool[T, R]) workerExit(replace bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.live--
	if replace && !p.draining && !p.closed && p.live < p.cfg.MinWorkers {
		p.spawnLocked()
	}
}

type outcome[R any] struct {
	result R
	err    error
	crash  bool
}

// runTask executes one task under the per-task deadline. It returns false
// when the worker must terminate: the task timed out or was aborted while
// running (the processor goroutine is abandoned), or the processor crashed.
func (p *Pool[T, R]) runTask(it *item[T, R]) (keep bool) {
	p.mu.Lock()
	p.active++
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.TaskTimeout)
	defer cancel()

	started := time.Now()
	ch := make(chan outcome[R], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.log.Error().Str("task", it.task.ID).Interface("panic", r).Msg("worker crashed")
				ch <- outcome[R]{crash: true}
			}
		}()
		result, err := p.proc(ctx, it.task)
		ch <- outcome[R]{result: result, err: err}
	}()

	var zero R
	select {
	case out := <-ch:
		if out.crash {
			it.pending.resolve(StateFailed, zero, ErrWorkerCrash)
			return false
		}
		if out.err != nil {
			it.pending.resolve(StateFailed, zero, out.err)
			return true
		}
		if it.pending.resolve(StateCompleted, out.result, nil) {
			p.noteCompletion(time.Since(started))
		}
		return true
	case <-ctx.Done():
		p.log.Warn().Str("task", it.task.ID).Dur("timeout", p.cfg.TaskTimeout).Msg("task timed out, terminating worker")
		it.pending.resolve(StateTimedOut, zero, ErrTimeout)
		return false
	case <-it.pending.abort:
		it.pending.resolve(StateCancelled, zero, ErrCancelled)
		return false
	case <-p.stop:
		it.pending.resolve(StateCancelled, zero, ErrShuttingDown)
		return false
	}
}

func (p *Pool[T, R]) noteDispatch(wait time.Duration) {
	p.mu.Lock()
	p.dispatched++
	p.totalWait += wait
	p.mu.Unlock()
}

func (p *Pool[T, R]) noteCompletion(runtime time.Duration) {
	p.mu.Lock()
	p.completed++
	p.totalRuntime += runtime
	p.mu.Unlock()
}

// Stats returns a snapshot of pool activity.
func (p *Pool[T, R]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Stats{
		Completed: p.completed,
		Active:    p.active,
		Queued:    len(p.queue),
		Live:      p.live,
	}
	if p.live > 0 {
		s.Utilization = float64(p.active) / float64(p.live)
	}
	if p.completed > 0 {
		s.AvgRuntime = float64(p.totalRuntime.Milliseconds()) / float64(p.completed)
	}
	if p.dispatched > 0 {
		s.AvgWait = float64(p.totalWait.Milliseconds()) / float64(p.dispatched)
	}
	return s
}

// Healthy reports whether the pool has headroom: utilization below 0.95 and
// queue pressure below 90% of MaxQueue.
func (p *Pool[T, R]) Healthy() bool {
	s := p.Stats()
	return s.Utilization < 0.95 && float64(s.Queued) < float64(p.cfg.MaxQueue)*0.9
}

// Shutdown rejects further submissions, fails queued-but-undispatched tasks
// with ErrShuttingDown, drains in-flight work up to DrainTimeout, then
// force-terminates the remaining workers.
func (p *Pool[T, R]) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.draining = true
	p.mu.Unlock()

	// Reject everything still sitting in the queue. The close is serialized
	// with Submit's send through p.mu.
	var zero R
	p.mu.Lock()
	for {
		select {
		case it := <-p.queue:
			it.pending.resolve(StateCancelled, zero, ErrShuttingDown)
			continue
		default:
		}
		break
	}
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(p.cfg.DrainTimeout)
	defer timer.Stop()

	var err error
	select {
	case <-done:
	case <-timer.C:
		p.log.Warn().Msg("drain timeout, force-terminating workers")
		close(p.stop)
		<-done
		err = ErrTimeout
	case <-ctx.Done():
		close(p.stop)
		<-done
		err = ctx.Err()
	}

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.log.Debug().Msg("worker pool stopped")
	return err
}
