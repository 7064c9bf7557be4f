package jobutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunJobs_WaitsAndCountsFailures(t *testing.T) {
	var (
		mu     sync.Mutex
		seen   []int
		failed []int
	)
	failures := RunJobs(context.Background(), []int{1, 2, 3, 4}, func(ctx context.Context, job int) error {
		mu.Lock()
		seen = append(seen, job)
		mu.Unlock()
		if job%2 == 0 {
			return errors.New("even")
		}
		return nil
	}, RunOptions[int]{
		WaitForCompletion: true,
		OnError: func(job int, err error) {
			mu.Lock()
			failed = append(failed, job)
			mu.Unlock()
		},
	})

	assert.Equal(t, 2, failures)
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, seen)
	assert.ElementsMatch(t, []int{2, 4}, failed)
}

func TestRunJobs_RespectsWorkerLimit(t *testing.T) {
	var running, peak atomic.Int32
	jobs := make([]int, 12)

	RunJobs(context.Background(), jobs, func(ctx context.Context, _ int) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return nil
	}, RunOptions[int]{Workers: 3, WaitForCompletion: true})

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Positive(t, peak.Load())
}

func TestRunJobs_AsyncCallsOnComplete(t *testing.T) {
	done := make(chan struct{})
	RunJobs(context.Background(), []string{"a", "b"}, func(ctx context.Context, _ string) error {
		return nil
	}, RunOptions[string]{OnComplete: func() { close(done) }})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnComplete was not called")
	}
}

func TestRunJobs_Empty(t *testing.T) {
	called := false
	n := RunJobs(context.Background(), nil, func(ctx context.Context, _ int) error { return nil },
		RunOptions[int]{OnComplete: func() { called = true }})
	assert.Zero(t, n)
	assert.True(t, called)
}

func TestCycleLoop(t *testing.T) {
	state := NewCycleState(context.Background())
	var cycles atomic.Int32
	ran := make(chan struct{}, 4)

	finished := make(chan int)
	go func() {
		finished <- RunCycleLoop(state, "test", time.Second, func(ctx context.Context) error {
			cycles.Add(1)
			ran <- struct{}{}
			if cycles.Load() == 2 {
				return errors.New("boom")
			}
			return nil
		})
	}()

	require.NoError(t, state.TriggerNewCycle("test"))
	<-ran
	require.NoError(t, state.TriggerNewCycle("test"))
	<-ran

	state.Stop()
	assert.Equal(t, 2, <-finished)
	assert.False(t, state.IsRunning())
	assert.Error(t, state.TriggerNewCycle("test"))
}

func TestCreateCycleContext(t *testing.T) {
	ctx, cancel := CreateCycleContext(context.Background(), 0)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)

	ctx, cancel = CreateCycleContext(context.Background(), time.Minute)
	defer cancel()
	_, ok = ctx.Deadline()
	assert.True(t, ok)
}
