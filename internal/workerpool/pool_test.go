package workerpool

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestPool_SubmitAndWait(t *testing.T) {
	p := New(Config{MinWorkers: 1, MaxWorkers: 2}, func(ctx context.Context, task Task[int]) (int, error) {
		return task.Payload * 2, nil
	}, testLogger())
	defer p.Shutdown(context.Background())

	pending, err := p.Submit(Task[int]{Payload: 21})
	require.NoError(t, err)
	require.NotEmpty(t, pending.TaskID())

	result, err := pending.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, StateCompleted, pending.State())
}

func TestPool_ProcessorErrorKeepsWorker(t *testing.T) {
	boom := assert.AnError
	p := New(Config{MinWorkers: 1, MaxWorkers: 1}, func(ctx context.Context, task Task[int]) (int, error) {
		if task.Payload < 0 {
			return 0, boom
		}
		return task.Payload, nil
	}, testLogger())
	defer p.Shutdown(context.Background())

	pending, err := p.Submit(Task[int]{Payload: -1})
	require.NoError(t, err)
	_, err = pending.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, pending.State())

	// The same worker keeps serving.
	pending, err = p.Submit(Task[int]{Payload: 7})
	require.NoError(t, err)
	result, err := pending.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, result)
}

func TestPool_QueueFull(t *testing.T) {
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	p := New(Config{MinWorkers: 1, MaxWorkers: 1, MaxQueue: 1}, func(ctx context.Context, task Task[int]) (int, error) {
		started <- struct{}{}
		<-release
		return task.Payload, nil
	}, testLogger())
	defer func() {
		close(release)
		p.Shutdown(context.Background())
	}()

	// Occupy the single worker, then fill the single queue slot.
	_, err := p.Submit(Task[int]{Payload: 1})
	require.NoError(t, err)
	<-started

	_, err = p.Submit(Task[int]{Payload: 2})
	require.NoError(t, err)

	_, err = p.Submit(Task[int]{Payload: 3})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestPool_TimeoutTerminatesWorkerAndReplacesIt(t *testing.T) {
	p := New(Config{MinWorkers: 1, MaxWorkers: 1, TaskTimeout: 50 * time.Millisecond}, func(ctx context.Context, task Task[int]) (int, error) {
		if task.Payload == 0 {
			select {} // hung task; the pool must abandon it
		}
		return task.Payload, nil
	}, testLogger())
	defer p.Shutdown(context.Background())

	pending, err := p.Submit(Task[int]{Payload: 0})
	require.NoError(t, err)
	_, err = pending.Wait(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, StateTimedOut, pending.State())

	// A replacement worker picks up subsequent tasks.
	pending, err = p.Submit(Task[int]{Payload: 5})
	require.NoError(t, err)
	result, err := pending.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, result)
}

func TestPool_AbortQueuedTask(t *testing.T) {
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	p := New(Config{MinWorkers: 1, MaxWorkers: 1, MaxQueue: 4}, func(ctx context.Context, task Task[int]) (int, error) {
		started <- struct{}{}
		<-release
		return task.Payload, nil
	}, testLogger())
	defer func() {
		close(release)
		p.Shutdown(context.Background())
	}()

	_, err := p.Submit(Task[int]{Payload: 1})
	require.NoError(t, err)
	<-started

	queued, err := p.Submit(Task[int]{Payload: 2})
	require.NoError(t, err)
	assert.Equal(t, StateQueued, queued.State())

	queued.Abort()
	_, err = queued.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, StateCancelled, queued.State())
}

func TestPool_AbortRunningTaskTerminatesWorker(t *testing.T) {
	started := make(chan struct{})
	p := New(Config{MinWorkers: 1, MaxWorkers: 1}, func(ctx context.Context, task Task[int]) (int, error) {
		started <- struct{}{}
		<-ctx.Done()
		return 0, ctx.Err()
	}, testLogger())
	defer p.Shutdown(context.Background())

	pending, err := p.Submit(Task[int]{Payload: 1})
	require.NoError(t, err)
	<-started

	pending.Abort()
	_, err = pending.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestPool_WorkerCrashSurfacesAndPoolRecovers(t *testing.T) {
	p := New(Config{MinWorkers: 1, MaxWorkers: 1}, func(ctx context.Context, task Task[int]) (int, error) {
		if task.Payload == 0 {
			panic("algorithm blew up")
		}
		return task.Payload, nil
	}, testLogger())
	defer p.Shutdown(context.Background())

	pending, err := p.Submit(Task[int]{Payload: 0})
	require.NoError(t, err)
	_, err = pending.Wait(context.Background())
	assert.ErrorIs(t, err, ErrWorkerCrash)

	pending, err = p.Submit(Task[int]{Payload: 9})
	require.NoError(t, err)
	result, err := pending.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, result)
}

func TestPool_ShutdownRejectsNewAndQueuedWork(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	p := New(Config{MinWorkers: 1, MaxWorkers: 1, MaxQueue: 4, DrainTimeout: time.Second}, func(ctx context.Context, task Task[int]) (int, error) {
		started <- struct{}{}
		<-release
		return task.Payload, nil
	}, testLogger())

	inflight, err := p.Submit(Task[int]{Payload: 1})
	require.NoError(t, err)
	<-started

	queued, err := p.Submit(Task[int]{Payload: 2})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- p.Shutdown(context.Background()) }()

	// The queued-but-undispatched task is rejected.
	_, err = queued.Wait(context.Background())
	assert.ErrorIs(t, err, ErrShuttingDown)

	// New submissions fail fast.
	_, err = p.Submit(Task[int]{Payload: 3})
	assert.ErrorIs(t, err, ErrShuttingDown)

	// The in-flight task drains normally.
	close(release)
	result, err := inflight.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result)
	require.NoError(t, <-done)
}

func TestPool_ShutdownForceTerminatesAfterDrainTimeout(t *testing.T) {
	started := make(chan struct{})
	p := New(Config{MinWorkers: 1, MaxWorkers: 1, DrainTimeout: 50 * time.Millisecond, TaskTimeout: time.Minute}, func(ctx context.Context, task Task[int]) (int, error) {
		started <- struct{}{}
		select {} // never returns
	}, testLogger())

	pending, err := p.Submit(Task[int]{Payload: 1})
	require.NoError(t, err)
	<-started

	err = p.Shutdown(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
	_, err = pending.Wait(context.Background())
	assert.ErrorIs(t, err, ErrShuttingDown)
}

func TestPool_StatsAndHealth(t *testing.T) {
	p := New(Config{MinWorkers: 2, MaxWorkers: 4}, func(ctx context.Context, task Task[int]) (int, error) {
		return task.Payload, nil
	}, testLogger())
	defer p.Shutdown(context.Background())

	for i := 0; i < 5; i++ {
		pending, err := p.Submit(Task[int]{Payload: i})
		require.NoError(t, err)
		_, err = pending.Wait(context.Background())
		require.NoError(t, err)
	}

	stats := p.Stats()
	assert.Equal(t, int64(5), stats.Completed)
	assert.GreaterOrEqual(t, stats.Live, 2)
	assert.True(t, p.Healthy())
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, StateQueued.Terminal())
	assert.False(t, StateDispatched.Terminal())
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateTimedOut.Terminal())
	assert.True(t, StateCancelled.Terminal())
}
