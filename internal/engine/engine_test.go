package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abhaymundhara/ChatDock-sub000/internal/config"
	"github.com/abhaymundhara/ChatDock-sub000/internal/persistence"
	"github.com/abhaymundhara/ChatDock-sub000/internal/taskgraph"
)

// orderSpawner records dispatch order and tracks peak concurrency.
type orderSpawner struct {
	mu          sync.Mutex
	order       []string
	inFlight    int
	maxInFlight int
	failures    map[string]bool
	delay       time.Duration
}

func (s *orderSpawner) Spawn(_ context.Context, task taskgraph.Task, _ int) (string, error) {
	s.mu.Lock()
	s.order = append(s.order, task.ID)
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	fail := s.failures[task.ID]
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()

	if fail {
		return "", errors.New("specialist crashed")
	}
	return "done: " + task.ID, nil
}

func (s *orderSpawner) startedBefore(a, b string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ia, ib := -1, -1
	for i, id := range s.order {
		if id == a && ia == -1 {
			ia = i
		}
		if id == b && ib == -1 {
			ib = i
		}
	}
	return ia != -1 && ib != -1 && ia < ib
}

func fastConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Scheduler.MaxRetries = 1
	cfg.Scheduler.RetryInitialDelayMS = 1
	cfg.Scheduler.RetryMaxDelayMS = 2
	cfg.History.Path = ""
	return cfg
}

func TestRunGraphRespectsDependencies(t *testing.T) {
	sp := &orderSpawner{delay: 5 * time.Millisecond}
	eng := New(fastConfig(), sp, nil, nil)

	records := []taskgraph.Record{
		{ID: "a", Description: "fetch", Assignee: "web"},
		{ID: "b", Description: "read", Assignee: "file"},
		{ID: "c", Description: "merge", Assignee: "code", DependsOn: []string{"a", "b"}},
	}

	report, err := eng.RunGraph(context.Background(), "merge the data", records)
	if err != nil {
		t.Fatalf("RunGraph: %v", err)
	}
	if report.Summary.Succeeded != 3 || report.Summary.Failed != 0 {
		t.Errorf("summary = %+v", report.Summary)
	}
	if !sp.startedBefore("a", "c") || !sp.startedBefore("b", "c") {
		t.Errorf("c started before its dependencies: order %v", sp.order)
	}
	if report.RunID == "" {
		t.Error("missing run id")
	}
}

func TestRunGraphFailedDependencyDeadlocks(t *testing.T) {
	sp := &orderSpawner{failures: map[string]bool{"a": true}}
	eng := New(fastConfig(), sp, nil, nil)

	records := []taskgraph.Record{
		{ID: "a", Description: "fetch", Assignee: "web"},
		{ID: "b", Description: "transform", Assignee: "code", DependsOn: []string{"a"}},
		{ID: "side", Description: "unrelated", Assignee: "file"},
	}

	report, err := eng.RunGraph(context.Background(), "pipeline", records)
	var deadlock *DeadlockError
	if !errors.As(err, &deadlock) {
		t.Fatalf("err = %v, want DeadlockError", err)
	}
	if len(deadlock.Unreachable) != 1 || deadlock.Unreachable[0] != "b" {
		t.Errorf("unreachable = %v, want [b]", deadlock.Unreachable)
	}
	// The independent branch still ran to completion.
	if report.Summary.Succeeded != 1 || report.Summary.Failed != 1 {
		t.Errorf("summary = %+v", report.Summary)
	}
	if report.Summary.Unreachable[0] != "b" {
		t.Errorf("report unreachable = %v", report.Summary.Unreachable)
	}
}

func TestRunGraphRejectsCycles(t *testing.T) {
	eng := New(fastConfig(), &orderSpawner{}, nil, nil)

	records := []taskgraph.Record{
		{ID: "a", Description: "x", Assignee: "web", DependsOn: []string{"b"}},
		{ID: "b", Description: "y", Assignee: "web", DependsOn: []string{"a"}},
	}

	_, err := eng.RunGraph(context.Background(), "cyclic", records)
	var verr *taskgraph.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Kind != taskgraph.ValidationCycle {
		t.Errorf("kind = %v", verr.Kind)
	}
}

func TestRunGraphBoundsConcurrency(t *testing.T) {
	cfg := fastConfig()
	cfg.Scheduler.MaxConcurrent = 2

	sp := &orderSpawner{delay: 20 * time.Millisecond}
	eng := New(cfg, sp, nil, nil)

	records := []taskgraph.Record{
		{ID: "a", Description: "1", Assignee: "web"},
		{ID: "b", Description: "2", Assignee: "web"},
		{ID: "c", Description: "3", Assignee: "web"},
		{ID: "d", Description: "4", Assignee: "web"},
	}

	if _, err := eng.RunGraph(context.Background(), "burst", records); err != nil {
		t.Fatalf("RunGraph: %v", err)
	}
	if sp.maxInFlight > 2 {
		t.Errorf("max in flight = %d, want <= 2", sp.maxInFlight)
	}
}

func TestRunGraphPersistsHistory(t *testing.T) {
	ctx := context.Background()
	store, err := persistence.NewMemoryStore(ctx)
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	defer store.Close()

	eng := New(fastConfig(), &orderSpawner{}, nil, store)

	records := []taskgraph.Record{
		{ID: "a", Description: "solo", Assignee: "file"},
	}
	report, err := eng.RunGraph(ctx, "persist me", records)
	if err != nil {
		t.Fatalf("RunGraph: %v", err)
	}

	rec, err := store.GetRun(ctx, report.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if rec.Request != "persist me" || rec.Total != 1 || rec.Succeeded != 1 {
		t.Errorf("record = %+v", rec)
	}
	if len(rec.Tasks) != 1 || rec.Tasks[0].Status != "completed" {
		t.Errorf("tasks = %+v", rec.Tasks)
	}
}

func TestExecuteParallelStopsOnFailingGroup(t *testing.T) {
	cfg := fastConfig()
	cfg.Scheduler.MaxConcurrent = 2

	sp := &orderSpawner{failures: map[string]bool{"bad": true}}
	eng := New(cfg, sp, nil, nil)

	// Partitioned as {good, bad}, {never}: the first group fails, so the
	// second must not start.
	records := []taskgraph.Record{
		{ID: "good", Description: "ok", Assignee: "web"},
		{ID: "bad", Description: "boom", Assignee: "shell"},
		{ID: "never", Description: "skipped", Assignee: "file"},
	}

	results, err := eng.ExecuteParallel(context.Background(), records, ParallelOptions{})
	if !errors.Is(err, ErrGroupFailed) {
		t.Fatalf("err = %v, want ErrGroupFailed", err)
	}
	if len(results) != 2 {
		t.Errorf("results = %d, want 2 (second group skipped)", len(results))
	}
	for _, id := range sp.order {
		if id == "never" {
			t.Fatal("task from skipped group was dispatched")
		}
	}
}

func TestExecuteParallelContinueOnFailure(t *testing.T) {
	cfg := fastConfig()
	cfg.Scheduler.MaxConcurrent = 1

	sp := &orderSpawner{failures: map[string]bool{"bad": true}}
	eng := New(cfg, sp, nil, nil)

	records := []taskgraph.Record{
		{ID: "bad", Description: "boom", Assignee: "shell"},
		{ID: "after", Description: "still runs", Assignee: "file"},
	}

	results, err := eng.ExecuteParallel(context.Background(), records, ParallelOptions{ContinueOnFailure: true})
	if err != nil {
		t.Fatalf("ExecuteParallel: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	succeeded := 0
	for _, res := range results {
		if res.Success {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Errorf("succeeded = %d, want 1", succeeded)
	}
	if !sp.startedBefore("bad", "after") {
		t.Errorf("groups ran out of order: %v", sp.order)
	}
}

func TestExecuteParallelGroupSizeBound(t *testing.T) {
	cfg := fastConfig()
	cfg.Scheduler.MaxConcurrent = 2

	sp := &orderSpawner{delay: 10 * time.Millisecond}
	eng := New(cfg, sp, nil, nil)

	records := []taskgraph.Record{
		{ID: "a", Description: "1", Assignee: "web"},
		{ID: "b", Description: "2", Assignee: "web"},
		{ID: "c", Description: "3", Assignee: "web"},
		{ID: "d", Description: "4", Assignee: "web"},
		{ID: "e", Description: "5", Assignee: "web"},
	}

	results, err := eng.ExecuteParallel(context.Background(), records, ParallelOptions{})
	if err != nil {
		t.Fatalf("ExecuteParallel: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("results = %d, want 5", len(results))
	}
	if sp.maxInFlight > 2 {
		t.Errorf("max in flight = %d, want <= 2", sp.maxInFlight)
	}
}

func TestExecuteParallelRejectsDependencies(t *testing.T) {
	eng := New(fastConfig(), &orderSpawner{}, nil, nil)

	records := []taskgraph.Record{
		{ID: "a", Description: "x", Assignee: "web"},
		{ID: "b", Description: "y", Assignee: "web", DependsOn: []string{"a"}},
	}

	if _, err := eng.ExecuteParallel(context.Background(), records, ParallelOptions{}); err == nil {
		t.Fatal("dependent records accepted for parallel execution")
	}
}
