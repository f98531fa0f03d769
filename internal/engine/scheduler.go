package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhaymundhara/ChatDock-sub000/internal/events"
	"github.com/abhaymundhara/ChatDock-sub000/internal/taskgraph"
)

// DeadlockError reports a graph where pending tasks remain but none can ever
// become ready, typically because a dependency failed.
type DeadlockError struct {
	Unreachable []string
}

func (e *DeadlockError) Error() string {
	ids := append([]string{}, e.Unreachable...)
	sort.Strings(ids)
	return fmt.Sprintf("scheduling deadlock: tasks will never run: %s", strings.Join(ids, ", "))
}

// Scheduler drives a task graph to completion in waves: collect the ready
// set, dispatch it concurrently, fold the outcomes back into the graph, and
// repeat until every task is terminal or none can progress.
type Scheduler struct {
	graph *taskgraph.Graph
	exec  *RetryingExecutor
	bus   *events.Bus

	mu      sync.Mutex
	results []ExecutionResult
}

func NewScheduler(graph *taskgraph.Graph, exec *RetryingExecutor, bus *events.Bus) *Scheduler {
	return &Scheduler{
		graph: graph,
		exec:  exec,
		bus:   bus,
	}
}

// Run executes the graph. It returns every task's terminal result; a
// DeadlockError is returned alongside partial results when pending tasks
// can never run.
func (s *Scheduler) Run(ctx context.Context) ([]ExecutionResult, error) {
	for {
		if err := ctx.Err(); err != nil {
			return s.snapshot(), err
		}

		ready := s.graph.Ready()
		if len(ready) == 0 {
			if s.graph.AllTerminal() {
				return s.snapshot(), nil
			}
			// Pending tasks remain but nothing is ready and nothing is
			// running between waves: the rest of the graph is stuck.
			return s.snapshot(), &DeadlockError{Unreachable: s.graph.Unreachable()}
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, task := range ready {
			t := task
			if err := s.graph.MarkRunning(t.ID); err != nil {
				continue
			}
			s.publish(events.TopicTask, events.TaskStartedEvent{
				ID:        t.ID,
				Content:   t.Content,
				Assignee:  t.Assignee,
				Timestamp: time.Now(),
			})
			g.Go(func() error {
				s.runOne(gctx, *t)
				return nil
			})
		}

		// One snapshot as the wave starts, one once it settles.
		s.publishProgress()
		g.Wait()
		s.publishProgress()

		if err := ctx.Err(); err != nil {
			return s.snapshot(), err
		}
	}
}

// runOne executes a task and folds the terminal outcome into the graph.
func (s *Scheduler) runOne(ctx context.Context, task taskgraph.Task) {
	res := s.exec.Execute(ctx, task)

	if res.Success {
		_ = s.graph.MarkCompleted(task.ID, res.Result, res.FailureCount())
		s.publish(events.TopicTask, events.TaskCompletedEvent{
			ID:        task.ID,
			Result:    res.Result,
			Attempts:  res.Attempts,
			Duration:  res.Duration,
			Timestamp: time.Now(),
		})
	} else {
		_ = s.graph.MarkFailed(task.ID, res.Err, res.FailureCount())
		s.publish(events.TopicTask, events.TaskFailedEvent{
			ID:        task.ID,
			Err:       res.Err,
			Attempts:  res.Attempts,
			Duration:  res.Duration,
			Timestamp: time.Now(),
		})
	}

	s.mu.Lock()
	s.results = append(s.results, res)
	s.mu.Unlock()
}

func (s *Scheduler) snapshot() []ExecutionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ExecutionResult, len(s.results))
	copy(out, s.results)
	return out
}

func (s *Scheduler) publishProgress() {
	p := s.graph.Progress()
	s.publish(events.TopicGraph, events.GraphProgressEvent{
		Total:     p.Total,
		Completed: p.Completed,
		Running:   p.Running,
		Failed:    p.Failed,
		Pending:   p.Pending,
		Timestamp: time.Now(),
	})
}

func (s *Scheduler) publish(topic string, e events.Event) {
	if s.bus != nil {
		s.bus.Publish(topic, e)
	}
}
