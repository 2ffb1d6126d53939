package runner

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_PreservesInputOrder(t *testing.T) {
	items := []int{3, 1, 2}
	results := Run(context.Background(), items, Options{Concurrency: 3},
		func(_ context.Context, n int) (int, error) {
			time.Sleep(time.Duration(n) * 10 * time.Millisecond)
			return n * 10, nil
		})

	require.Len(t, results, 3)
	assert.Equal(t, 30, results[0].Value)
	assert.Equal(t, 10, results[1].Value)
	assert.Equal(t, 20, results[2].Value)
}

func TestRun_IsolatesSingleFailure(t *testing.T) {
	boom := errors.New("item 2 failed")
	results := Run(context.Background(), []int{1, 2, 3}, Options{Concurrency: 3},
		func(_ context.Context, n int) (string, error) {
			if n == 2 {
				return "", boom
			}
			return "ok", nil
		})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "ok", results[0].Value)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, "ok", results[2].Value)
}

func TestRun_RespectsConcurrencyCap(t *testing.T) {
	var current, peak atomic.Int32
	items := make([]int, 20)

	Run(context.Background(), items, Options{Concurrency: 4},
		func(_ context.Context, _ int) (struct{}, error) {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
			return struct{}{}, nil
		})

	assert.LessOrEqual(t, peak.Load(), int32(4))
	assert.Greater(t, peak.Load(), int32(1))
}

func TestRun_RecoversPanics(t *testing.T) {
	results := Run(context.Background(), []int{1, 2}, Options{Concurrency: 2},
		func(_ context.Context, n int) (int, error) {
			if n == 2 {
				panic("unexpected state")
			}
			return n, nil
		})

	assert.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	assert.True(t, strings.Contains(results[1].Err.Error(), "panic"))
}

func TestRun_PerItemTimeout(t *testing.T) {
	results := Run(context.Background(), []time.Duration{time.Millisecond, 200 * time.Millisecond},
		Options{Concurrency: 2, ItemTimeout: 50 * time.Millisecond},
		func(ctx context.Context, d time.Duration) (string, error) {
			select {
			case <-time.After(d):
				return "done", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		})

	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, context.DeadlineExceeded)
}

func TestRun_CanceledParentFailsFast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Run(ctx, []int{1, 2, 3}, Options{Concurrency: 1},
		func(_ context.Context, n int) (int, error) {
			return n, nil
		})

	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	results := Run(context.Background(), nil, Options{},
		func(_ context.Context, _ int) (int, error) { return 0, nil })
	assert.Empty(t, results)
}
