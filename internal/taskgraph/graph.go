package taskgraph

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gammazero/toposort"
)

// RootID is the id of the synthetic coordinator task that anchors every graph.
const RootID = "coordinator"

// Graph is the dependency structure for one user request. It is created
// fresh per request, mutated only by the scheduler, and discarded afterwards.
type Graph struct {
	mu         sync.RWMutex
	root       *Task
	tasks      map[string]*Task    // Non-root tasks indexed by ID
	dependents map[string][]string // taskID -> tasks that depend on it
}

// Progress is an aggregate snapshot of the graph, excluding the root.
type Progress struct {
	Total     int
	Completed int
	Running   int
	Failed    int
	Pending   int
}

// NewGraph creates a graph holding only the synthetic coordinator root.
func NewGraph() *Graph {
	return &Graph{
		root: &Task{
			ID:       RootID,
			Assignee: AssigneeCoordinator,
			Status:   StatusPending,
		},
		tasks:      make(map[string]*Task),
		dependents: make(map[string][]string),
	}
}

// Add inserts a task under the coordinator root.
// Returns an error if the ID collides with an existing task or the root.
func (g *Graph) Add(task *Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if task.ID == RootID {
		return fmt.Errorf("task id %q is reserved for the coordinator root", RootID)
	}
	if _, exists := g.tasks[task.ID]; exists {
		return fmt.Errorf("task with ID %q already exists", task.ID)
	}

	g.tasks[task.ID] = task
	g.root.Subtasks = append(g.root.Subtasks, task)

	for _, depID := range task.DependsOn {
		g.dependents[depID] = append(g.dependents[depID], task.ID)
	}

	return nil
}

// Validate verifies every dependency id resolves within the graph and the
// dependsOn edges are acyclic. It runs once, before scheduling begins; a
// failure here is fatal for the whole request.
// Returns the topological order of task IDs on success.
func (g *Graph) Validate() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for taskID, task := range g.tasks {
		for _, depID := range task.DependsOn {
			if _, exists := g.tasks[depID]; !exists {
				return nil, &ValidationError{
					Kind: ValidationDangling,
					Msg:  fmt.Sprintf("task %q depends on non-existent task %q", taskID, depID),
				}
			}
		}
	}

	var edges []toposort.Edge
	for taskID, task := range g.tasks {
		if len(task.DependsOn) == 0 {
			// Edge from nil keeps dependency-free tasks in the sort result.
			edges = append(edges, toposort.Edge{nil, taskID})
		} else {
			for _, depID := range task.DependsOn {
				edges = append(edges, toposort.Edge{depID, taskID})
			}
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, &ValidationError{
			Kind: ValidationCycle,
			Msg:  fmt.Sprintf("task graph contains cycle: %v", err),
		}
	}

	order := make([]string, 0, len(sorted))
	for _, id := range sorted {
		if id != nil {
			order = append(order, id.(string))
		}
	}

	if len(order) != len(g.tasks) {
		missing := []string{}
		found := make(map[string]bool)
		for _, id := range order {
			found[id] = true
		}
		for taskID := range g.tasks {
			if !found[taskID] {
				missing = append(missing, taskID)
			}
		}
		return nil, &ValidationError{
			Kind: ValidationCycle,
			Msg:  fmt.Sprintf("topological sort lost %d tasks: %s", len(missing), strings.Join(missing, ", ")),
		}
	}

	return order, nil
}

// Ready returns pending tasks whose every dependency is completed.
// A failed dependency permanently blocks its dependents; they never appear
// here and surface through Unreachable instead.
func (g *Graph) Ready() []*Task {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ready := []*Task{}
	for _, task := range g.tasks {
		if task.Status != StatusPending {
			continue
		}

		eligible := true
		for _, depID := range task.DependsOn {
			dep, exists := g.tasks[depID]
			if !exists || dep.Status != StatusCompleted {
				eligible = false
				break
			}
		}

		if eligible {
			ready = append(ready, cloneTask(task))
		}
	}

	return ready
}

// AllTerminal reports whether every non-root task is completed or failed.
func (g *Graph) AllTerminal() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, task := range g.tasks {
		if !task.Terminal() {
			return false
		}
	}
	return true
}

// Unreachable returns the ids of pending tasks whose dependency chains can
// never resolve because they terminate in a failed task. This is the
// deadlock set reported when the scheduler stalls.
func (g *Graph) Unreachable() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	unreachable := []string{}
	for id, task := range g.tasks {
		if task.Status == StatusPending {
			unreachable = append(unreachable, id)
		}
	}
	return unreachable
}

// MarkRunning transitions a task from pending to running.
func (g *Graph) MarkRunning(taskID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	task, exists := g.tasks[taskID]
	if !exists {
		return fmt.Errorf("task %q not found", taskID)
	}
	if task.Status != StatusPending {
		return fmt.Errorf("task %q is not pending (status: %s)", taskID, task.Status)
	}

	task.Status = StatusRunning
	return nil
}

// MarkCompleted transitions a task to completed and stores its result.
func (g *Graph) MarkCompleted(taskID string, result string, failureCount int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	task, exists := g.tasks[taskID]
	if !exists {
		return fmt.Errorf("task %q not found", taskID)
	}

	task.Status = StatusCompleted
	task.Result = result
	task.FailureCount = failureCount
	return nil
}

// MarkFailed transitions a task to terminally failed and stores its error.
// Dependents of a failed task stay pending forever.
func (g *Graph) MarkFailed(taskID string, err error, failureCount int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	task, exists := g.tasks[taskID]
	if !exists {
		return fmt.Errorf("task %q not found", taskID)
	}

	task.Status = StatusFailed
	task.Err = err
	task.FailureCount = failureCount
	return nil
}

// Get returns a snapshot of a task by ID.
func (g *Graph) Get(taskID string) (*Task, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	task, exists := g.tasks[taskID]
	if !exists {
		return nil, false
	}
	return cloneTask(task), true
}

// Tasks returns snapshots of all non-root tasks in insertion order.
func (g *Graph) Tasks() []*Task {
	g.mu.RLock()
	defer g.mu.RUnlock()

	tasks := make([]*Task, 0, len(g.root.Subtasks))
	for _, task := range g.root.Subtasks {
		tasks = append(tasks, cloneTask(task))
	}
	return tasks
}

// Len returns the number of non-root tasks.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.tasks)
}

// Progress returns aggregate counts over the non-root tasks.
func (g *Graph) Progress() Progress {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p := Progress{Total: len(g.tasks)}
	for _, task := range g.tasks {
		switch task.Status {
		case StatusCompleted:
			p.Completed++
		case StatusRunning:
			p.Running++
		case StatusFailed:
			p.Failed++
		default:
			p.Pending++
		}
	}
	return p
}
