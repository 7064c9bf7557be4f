package jobutil

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// JobFunc runs one job.
type JobFunc[T any] func(ctx context.Context, job T) error

// RunOptions configures how jobs are run.
type RunOptions[T any] struct {
	// Workers caps concurrently running jobs. Zero or less runs every job at once.
	Workers int
	// Name labels a job in logs.
	Name func(job T) string
	// OnError is called when a job returns an error. If nil, errors are logged.
	OnError func(job T, err error)
	// WaitForCompletion when true blocks until all jobs finish (so the passed context stays valid for the full run).
	// When false, RunJobs returns immediately and the caller must not cancel the context until jobs are done.
	WaitForCompletion bool
	// OnComplete is called once after every job has returned.
	OnComplete func()
}

// RunJobs runs jobs in parallel and reports how many failed when waiting.
func RunJobs[T any](ctx context.Context, jobs []T, fn JobFunc[T], opts RunOptions[T]) int {
	if len(jobs) == 0 {
		if opts.OnComplete != nil {
			opts.OnComplete()
		}
		return 0
	}

	name := opts.Name
	if name == nil {
		name = func(job T) string { return fmt.Sprint(job) }
	}
	onError := opts.OnError
	if onError == nil {
		onError = func(job T, err error) {
			slog.Error("Job failed", "job", name(job), "error", err)
		}
	}

	var sem chan struct{}
	if opts.Workers > 0 {
		sem = make(chan struct{}, opts.Workers)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures int
	)
	for _, job := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					return
				}
			}

			if err := fn(ctx, job); err != nil {
				mu.Lock()
				failures++
				mu.Unlock()
				if ctx.Err() == nil {
					// Error occurred but context is still valid
					onError(job, err)
				}
			}
		}()
	}

	done := func() {
		wg.Wait()
		if opts.OnComplete != nil {
			opts.OnComplete()
		}
	}
	if !opts.WaitForCompletion {
		go done()
		return 0
	}
	done()
	return failures
}

// CycleState holds common state for a worker that runs cycles on trigger.
type CycleState struct {
	Mu           sync.Mutex
	Ctx          context.Context
	Cancel       context.CancelFunc
	CycleTrigger chan struct{}
}

// NewCycleState creates a new cycle state
func NewCycleState(ctx context.Context) *CycleState {
	cycleCtx, cancel := context.WithCancel(ctx)
	return &CycleState{
		Ctx:          cycleCtx,
		Cancel:       cancel,
		CycleTrigger: make(chan struct{}, 1),
	}
}

// IsRunning reports whether the loop has not been stopped.
func (s *CycleState) IsRunning() bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.Cancel != nil
}

// Stop stops the cycle loop
func (s *CycleState) Stop() {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.Cancel != nil {
		s.Cancel()
		s.Cancel = nil
	}
}

// TriggerNewCycle signals the worker to start a new cycle (non-blocking)
func (s *CycleState) TriggerNewCycle(workerName string) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.Cancel == nil {
		return fmt.Errorf("cycle loop not running")
	}

	select {
	case s.CycleTrigger <- struct{}{}:
		slog.Info("Triggered new cycle", "worker", workerName)
	default:
		slog.Debug("Cycle already triggered, skipping duplicate trigger", "worker", workerName)
	}
	return nil
}

// CreateCycleContext creates a context for a cycle with optional timeout
func CreateCycleContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

// RunCycleLoop runs cycleFunc once per trigger until the state's context ends.
// It returns the number of completed cycles.
func RunCycleLoop(state *CycleState, workerName string, timeout time.Duration, cycleFunc func(ctx context.Context) error) int {
	logTimeout := any(timeout)
	if timeout <= 0 {
		logTimeout = "unlimited"
	}
	slog.Info("Cycle loop started", "worker", workerName, "timeout", logTimeout)

	cycles := 0
	for {
		select {
		case <-state.Ctx.Done():
			slog.Info("Cycle loop stopped", "worker", workerName, "total_cycles", cycles)
			return cycles
		case <-state.CycleTrigger:
			cycles++
			start := time.Now()
			slog.Info("Starting cycle", "worker", workerName, "cycle_id", cycles)

			ctx, cancel := CreateCycleContext(state.Ctx, timeout)
			err := cycleFunc(ctx)
			cancel()

			duration := time.Since(start)
			if err != nil {
				slog.Error("Cycle failed", "worker", workerName, "cycle_id", cycles, "duration", duration, "error", err)
				continue
			}
			slog.Info("Cycle finished", "worker", workerName, "cycle_id", cycles, "duration", duration, "duration_sec", duration.Seconds())
		}
	}
}
