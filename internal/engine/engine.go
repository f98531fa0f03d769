// Package engine turns planner records into a validated task graph and
// drives it to completion through retrying, circuit-broken specialist
// dispatch under one global concurrency bound.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/abhaymundhara/ChatDock-sub000/internal/config"
	"github.com/abhaymundhara/ChatDock-sub000/internal/events"
	"github.com/abhaymundhara/ChatDock-sub000/internal/persistence"
	"github.com/abhaymundhara/ChatDock-sub000/internal/taskgraph"
)

// HistoryStore persists finished runs. Nil disables persistence.
type HistoryStore interface {
	SaveRun(ctx context.Context, rec persistence.RunRecord) error
}

// Summary aggregates a run's terminal state.
type Summary struct {
	Total       int
	Succeeded   int
	Failed      int
	Unreachable []string // Tasks that never ran because the graph deadlocked
}

// RunReport is the full outcome of one graph run.
type RunReport struct {
	RunID     string
	Request   string
	StartedAt time.Time
	Duration  time.Duration
	Results   []ExecutionResult
	Summary   Summary
}

// Engine is the orchestration facade. The executor, breaker registry, and
// concurrency semaphore live here so their state spans runs: a specialist
// kind that tripped its circuit stays tripped for the next request, and
// concurrent runs share one global bound.
type Engine struct {
	cfg   *config.Config
	exec  *RetryingExecutor
	bus   *events.Bus
	store HistoryStore
}

func New(cfg *config.Config, spawner Spawner, bus *events.Bus, store HistoryStore) *Engine {
	retryCfg := DefaultRetryConfig()
	if cfg.Scheduler.MaxRetries > 0 {
		retryCfg.MaxRetries = cfg.Scheduler.MaxRetries
	}
	if cfg.Scheduler.RetryInitialDelayMS > 0 {
		retryCfg.InitialInterval = time.Duration(cfg.Scheduler.RetryInitialDelayMS) * time.Millisecond
	}
	if cfg.Scheduler.RetryMaxDelayMS > 0 {
		retryCfg.MaxInterval = time.Duration(cfg.Scheduler.RetryMaxDelayMS) * time.Millisecond
	}

	breakers := NewBreakerRegistry(cfg.Scheduler.BreakerFailThreshold)
	exec := NewRetryingExecutor(spawner, breakers, retryCfg, cfg.Scheduler.MaxConcurrent)

	return &Engine{
		cfg:   cfg,
		exec:  exec,
		bus:   bus,
		store: store,
	}
}

// RunGraph builds a graph from planner records, validates it, and runs it to
// completion. The report covers whatever finished even when the run errors;
// a deadlocked run returns both the partial report and a DeadlockError.
func (e *Engine) RunGraph(ctx context.Context, request string, records []taskgraph.Record) (*RunReport, error) {
	start := time.Now()

	graph, err := taskgraph.Build(records)
	if err != nil {
		return nil, fmt.Errorf("building task graph: %w", err)
	}
	if _, err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("validating task graph: %w", err)
	}

	for _, t := range graph.Tasks() {
		e.publish(events.TopicTask, events.TaskCreatedEvent{
			ID:        t.ID,
			Assignee:  t.Assignee,
			Timestamp: time.Now(),
		})
	}

	sched := NewScheduler(graph, e.exec, e.bus)
	results, runErr := sched.Run(ctx)

	report := &RunReport{
		RunID:     uuid.NewString(),
		Request:   request,
		StartedAt: start,
		Duration:  time.Since(start),
		Results:   results,
		Summary:   summarize(graph, results),
	}

	var deadlock *DeadlockError
	if errors.As(runErr, &deadlock) {
		report.Summary.Unreachable = deadlock.Unreachable
	}

	e.saveRun(ctx, report, graph)

	return report, runErr
}

// ErrGroupFailed marks a parallel run halted by a failing group.
var ErrGroupFailed = errors.New("task group failed")

// ParallelOptions configures ExecuteParallel.
type ParallelOptions struct {
	// ContinueOnFailure keeps later groups running after a group has
	// failures. When false, the first failing group halts the run.
	ContinueOnFailure bool
}

// ExecuteParallel runs independent tasks without graph scheduling: the input
// is partitioned in order into sequential groups no larger than the
// configured concurrency bound, and each group's tasks run concurrently.
// Records declaring dependencies are rejected; callers wanting ordering use
// RunGraph instead.
func (e *Engine) ExecuteParallel(ctx context.Context, records []taskgraph.Record, opts ParallelOptions) ([]ExecutionResult, error) {
	for _, rec := range records {
		if len(rec.DependsOn) > 0 {
			return nil, fmt.Errorf("record %q declares dependencies; parallel tasks must be independent", rec.ID)
		}
	}

	graph, err := taskgraph.Build(records)
	if err != nil {
		return nil, fmt.Errorf("building task list: %w", err)
	}
	tasks := graph.Tasks()

	groupSize := e.cfg.Scheduler.MaxConcurrent
	if groupSize <= 0 {
		groupSize = 4
	}

	var all []ExecutionResult
	for start := 0; start < len(tasks); start += groupSize {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		end := start + groupSize
		if end > len(tasks) {
			end = len(tasks)
		}
		group := tasks[start:end]

		results := make([]ExecutionResult, len(group))
		g, gctx := errgroup.WithContext(ctx)
		for i, task := range group {
			i, t := i, task
			g.Go(func() error {
				results[i] = e.exec.Execute(gctx, *t)
				return nil
			})
		}
		g.Wait()

		groupFailed := false
		for _, res := range results {
			if !res.Success {
				groupFailed = true
			}
		}
		all = append(all, results...)

		if groupFailed && !opts.ContinueOnFailure {
			return all, fmt.Errorf("group %d: %w", start/groupSize, ErrGroupFailed)
		}
	}

	return all, nil
}

func summarize(graph *taskgraph.Graph, results []ExecutionResult) Summary {
	s := Summary{Total: graph.Len()}
	for _, res := range results {
		if res.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

func (e *Engine) saveRun(ctx context.Context, report *RunReport, graph *taskgraph.Graph) {
	if e.store == nil {
		return
	}

	rec := persistence.RunRecord{
		ID:          report.RunID,
		Request:     report.Request,
		StartedAt:   report.StartedAt,
		FinishedAt:  report.StartedAt.Add(report.Duration),
		Total:       report.Summary.Total,
		Succeeded:   report.Summary.Succeeded,
		Failed:      report.Summary.Failed,
		Unreachable: len(report.Summary.Unreachable),
	}
	for _, t := range graph.Tasks() {
		tr := persistence.TaskRecord{
			ID:       t.ID,
			RunID:    report.RunID,
			Content:  t.Content,
			Assignee: string(t.Assignee),
			Status:   t.Status.String(),
			Attempts: t.FailureCount,
		}
		if t.Status == taskgraph.StatusCompleted {
			tr.Attempts = t.FailureCount + 1
		}
		if t.Err != nil {
			tr.Error = t.Err.Error()
		}
		rec.Tasks = append(rec.Tasks, tr)
	}

	if err := e.store.SaveRun(ctx, rec); err != nil {
		log.Printf("WARNING: failed to save run %s: %v", report.RunID, err)
	}
}

func (e *Engine) publish(topic string, ev events.Event) {
	if e.bus != nil {
		e.bus.Publish(topic, ev)
	}
}
