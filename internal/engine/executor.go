package engine

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/semaphore"

	"github.com/abhaymundhara/ChatDock-sub000/internal/taskgraph"
)

// Spawner dispatches one task to an isolated specialist and returns its
// transcript. Transport-level failures come back as errors and are eligible
// for retry.
type Spawner interface {
	Spawn(ctx context.Context, task taskgraph.Task, attempt int) (string, error)
}

// RetryConfig configures exponential backoff between attempts.
type RetryConfig struct {
	MaxRetries          int           // Total attempts per task (default 2)
	InitialInterval     time.Duration // First backoff interval
	MaxInterval         time.Duration // Backoff ceiling
	Multiplier          float64
	RandomizationFactor float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:          2,
		InitialInterval:     500 * time.Millisecond,
		MaxInterval:         8 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
	}
}

// BreakerRegistry manages per-assignee circuit breakers. A specialist kind
// that keeps failing trips its own circuit without affecting the others.
type BreakerRegistry struct {
	mu            sync.Mutex
	failThreshold uint32
	breakers      map[taskgraph.Assignee]*gobreaker.CircuitBreaker
}

func NewBreakerRegistry(failThreshold int) *BreakerRegistry {
	if failThreshold <= 0 {
		failThreshold = 5
	}
	return &BreakerRegistry{
		failThreshold: uint32(failThreshold),
		breakers:      make(map[taskgraph.Assignee]*gobreaker.CircuitBreaker),
	}
}

// Get returns the circuit breaker for the given assignee, creating it on
// first use.
func (r *BreakerRegistry) Get(assignee taskgraph.Assignee) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[assignee]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        string(assignee),
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= r.failThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %q: %s -> %s", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			// User cancellation is not a specialist failure.
			if err == nil {
				return true
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return true
			}
			return false
		},
	})

	r.breakers[assignee] = cb
	return cb
}

// ExecutionResult is the outcome of one task dispatch, retries included.
type ExecutionResult struct {
	TaskID           string
	Assignee         taskgraph.Assignee
	Success          bool
	Result           string // Specialist transcript on success
	Attempts         int    // Total attempts made
	RetriesExhausted bool
	Duration         time.Duration
	Err              error
}

// FailureCount is the number of attempts that failed. On exhaustion it
// equals the retry budget; on success after retries it is Attempts-1.
func (r ExecutionResult) FailureCount() int {
	if r.Success {
		return r.Attempts - 1
	}
	return r.Attempts
}

// RetryingExecutor wraps a Spawner with the retry, circuit-breaker, and
// global concurrency layers. One instance serves both graph scheduling and
// direct parallel execution, so the semaphore is the single place the
// concurrency bound is enforced.
type RetryingExecutor struct {
	spawner  Spawner
	breakers *BreakerRegistry
	retryCfg RetryConfig
	sem      *semaphore.Weighted
}

func NewRetryingExecutor(spawner Spawner, breakers *BreakerRegistry, retryCfg RetryConfig, maxConcurrent int) *RetryingExecutor {
	if retryCfg.MaxRetries <= 0 {
		retryCfg.MaxRetries = DefaultRetryConfig().MaxRetries
	}
	if retryCfg.InitialInterval <= 0 {
		d := DefaultRetryConfig()
		d.MaxRetries = retryCfg.MaxRetries
		retryCfg = d
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if breakers == nil {
		breakers = NewBreakerRegistry(0)
	}
	return &RetryingExecutor{
		spawner:  spawner,
		breakers: breakers,
		retryCfg: retryCfg,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Execute runs one task to a terminal outcome: success, or failure with the
// retry budget spent. Retries happen inside this call; callers see exactly
// one result per task.
func (e *RetryingExecutor) Execute(ctx context.Context, task taskgraph.Task) ExecutionResult {
	start := time.Now()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return ExecutionResult{
			TaskID:   task.ID,
			Assignee: task.Assignee,
			Attempts: 0,
			Duration: time.Since(start),
			Err:      err,
		}
	}
	defer e.sem.Release(1)

	cb := e.breakers.Get(task.Assignee)

	var transcript string
	attempts := 0

	operation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		attempts++
		result, err := cb.Execute(func() (interface{}, error) {
			return e.spawner.Spawn(ctx, task, attempts)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				attempts-- // Breaker refused; the specialist never ran.
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			log.Printf("WARNING: task %q attempt %d failed: %v", task.ID, attempts, err)
			return err
		}

		transcript = result.(string)
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.retryCfg.InitialInterval
	policy.MaxInterval = e.retryCfg.MaxInterval
	policy.Multiplier = e.retryCfg.Multiplier
	policy.RandomizationFactor = e.retryCfg.RandomizationFactor
	policy.MaxElapsedTime = 0 // Bounded by attempt count, not wall clock.

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(policy, uint64(e.retryCfg.MaxRetries-1)), ctx))

	res := ExecutionResult{
		TaskID:   task.ID,
		Assignee: task.Assignee,
		Attempts: attempts,
		Duration: time.Since(start),
	}
	if err != nil {
		res.Err = err
		res.RetriesExhausted = attempts >= e.retryCfg.MaxRetries
		return res
	}

	res.Success = true
	res.Result = transcript
	return res
}
