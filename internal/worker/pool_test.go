package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAll_OrdersResultsAndBoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	tasks := make([]Task, 12)
	for i := range tasks {
		i := i
		tasks[i] = func(ctx context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			if i%4 == 0 {
				return errors.New("odd one")
			}
			return nil
		}
	}

	results := RunAll(context.Background(), 3, 0, tasks)
	require.Len(t, results, 12)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		if i%4 == 0 {
			assert.Error(t, r.Err)
		} else {
			assert.NoError(t, r.Err)
		}
	}
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRunAll_RateLimited(t *testing.T) {
	tasks := make([]Task, 4)
	for i := range tasks {
		tasks[i] = func(context.Context) error { return nil }
	}

	start := time.Now()
	results := RunAll(context.Background(), 4, 50, tasks)
	elapsed := time.Since(start)

	require.Len(t, results, 4)
	// burst of one, then three waits of 20ms each
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
}

func TestRunAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := RunAll(ctx, 2, 0, []Task{
		func(context.Context) error { return nil },
		func(context.Context) error { return nil },
	})
	require.Len(t, results, 2)
}

func TestPool_SubmitAfterClose(t *testing.T) {
	p := NewPool(1, 1)
	p.Close()
	p.Close()
	assert.Equal(t, -1, p.Submit(func(context.Context) error { return nil }))
}
