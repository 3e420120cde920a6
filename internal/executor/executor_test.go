package executor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/game_currency_ledger/internal/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_SubmitResolvesOnWorker(t *testing.T) {
	e := executor.New(2, 8, nil)
	e.Start()
	defer e.Stop()

	d := executor.Submit(e, func() (int, error) {
		return 21 * 2, nil
	})

	value, err := d.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, value)
}

func TestExecutor_SubmitRejectsOnTaskError(t *testing.T) {
	e := executor.New(1, 4, nil)
	e.Start()
	defer e.Stop()

	expectedErr := errors.New("task failed")
	d := executor.Submit(e, func() (string, error) {
		return "", expectedErr
	})

	_, err := d.Await(context.Background())
	assert.ErrorIs(t, err, expectedErr)
}

func TestExecutor_SubmitAfterStopRejects(t *testing.T) {
	e := executor.New(1, 4, nil)
	e.Start()
	e.Stop()

	d := executor.Submit(e, func() (int, error) {
		return 1, nil
	})

	_, err := d.Await(context.Background())
	assert.ErrorIs(t, err, executor.ErrStopped)
}

func TestExecutor_EverySubmitAfterStopRejects(t *testing.T) {
	// Run the stop/submit sequence many times: rejection after Stop has to be
	// deterministic, not a race the submitter usually wins.
	for i := 0; i < 200; i++ {
		e := executor.New(2, 8, nil)
		e.Start()
		e.Stop()

		d := executor.Submit(e, func() (int, error) { return i, nil })
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_, err := d.Await(ctx)
		cancel()
		require.ErrorIs(t, err, executor.ErrStopped)

		require.ErrorIs(t, e.RunOnPrimary(func() {}), executor.ErrStopped)
		require.ErrorIs(t, e.RunOnPrimaryWait(context.Background(), func() {}), executor.ErrStopped)
	}
}

func TestExecutor_SubmitRacingStopAlwaysSettles(t *testing.T) {
	e := executor.New(2, 4, nil)
	e.Start()

	const n = 50
	results := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d := executor.Submit(e, func() (struct{}, error) {
				return struct{}{}, nil
			})
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_, err := d.Await(ctx)
			results <- err
		}()
	}
	e.Stop()
	wg.Wait()
	close(results)

	// Every Deferred settles: either the task ran before shutdown or the
	// submission was rejected. None may hang past the Await deadline.
	for err := range results {
		if err != nil {
			assert.ErrorIs(t, err, executor.ErrStopped)
		}
	}
}

func TestExecutor_StopDrainsQueuedTasks(t *testing.T) {
	e := executor.New(1, 16, nil)
	e.Start()

	var mu sync.Mutex
	ran := 0
	for i := 0; i < 10; i++ {
		executor.Submit(e, func() (struct{}, error) {
			mu.Lock()
			ran++
			mu.Unlock()
			return struct{}{}, nil
		})
	}
	e.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, ran)
}

func TestExecutor_PrimarySerializesExecution(t *testing.T) {
	e := executor.New(4, 64, nil)
	e.Start()
	defer e.Stop()

	// Many goroutines racing to append through the primary thread; the slice
	// is unguarded on purpose, serialization is what keeps it safe.
	const n = 200
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		i := i
		require.NoError(t, e.RunOnPrimary(func() {
			order = append(order, i)
			wg.Done()
		}))
	}
	wg.Wait()

	assert.Len(t, order, n)
}

func TestExecutor_RunOnPrimaryWaitBlocksUntilDone(t *testing.T) {
	e := executor.New(1, 4, nil)
	e.Start()
	defer e.Stop()

	done := false
	err := e.RunOnPrimaryWait(context.Background(), func() {
		time.Sleep(10 * time.Millisecond)
		done = true
	})

	require.NoError(t, err)
	assert.True(t, done)
}

func TestExecutor_RunOnPrimaryWaitHonorsContext(t *testing.T) {
	e := executor.New(1, 1, nil)
	e.Start()
	defer e.Stop()

	release := make(chan struct{})
	require.NoError(t, e.RunOnPrimary(func() { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := e.RunOnPrimaryWait(ctx, func() {})
	close(release)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecutor_PanicDoesNotKillPool(t *testing.T) {
	e := executor.New(1, 4, nil)
	e.Start()
	defer e.Stop()

	executor.Submit(e, func() (struct{}, error) {
		panic("observer misbehaved")
	})

	d := executor.Submit(e, func() (int, error) {
		return 7, nil
	})
	value, err := d.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, value)
}
