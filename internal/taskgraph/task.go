package taskgraph

// Status represents the lifecycle state of a task.
// Transitions are pending -> running -> {completed, failed}; there is no
// transition back to pending. A task that exhausts its retry budget is
// terminally failed at the graph level.
type Status int

const (
	StatusPending   Status = iota // Waiting for dependencies
	StatusRunning                 // Currently dispatched to a specialist
	StatusCompleted               // Finished successfully
	StatusFailed                  // Finished with error (retries exhausted)
)

// String returns the lowercase name used in reports and persistence.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Assignee identifies the kind of specialist a task is routed to.
type Assignee string

const (
	AssigneeFile        Assignee = "file"
	AssigneeShell       Assignee = "shell"
	AssigneeWeb         Assignee = "web"
	AssigneeCode        Assignee = "code"
	AssigneeCoordinator Assignee = "coordinator"
)

// Valid reports whether a is one of the known specialist kinds.
func (a Assignee) Valid() bool {
	switch a {
	case AssigneeFile, AssigneeShell, AssigneeWeb, AssigneeCode, AssigneeCoordinator:
		return true
	}
	return false
}

// Task is a unit of work in the graph.
type Task struct {
	ID           string   // Unique within one graph
	Content      string   // Natural-language description, opaque to the scheduler
	Assignee     Assignee // Specialist kind
	DependsOn    []string // Task IDs that must complete first
	Status       Status
	Result       string // Populated when completed
	Err          error  // Populated when failed
	FailureCount int    // Failed dispatch attempts consumed by the executor
	Subtasks     []*Task // Only the synthetic coordinator root holds children
}

// Terminal reports whether the task has reached a final state.
func (t *Task) Terminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// Record is one flat task entry produced by a planner.
// Dependencies may reference another record's ID or its 1-based position
// in the same list.
type Record struct {
	ID          string   `json:"id,omitempty"`
	Description string   `json:"description"`
	Assignee    string   `json:"assignee"`
	DependsOn   []string `json:"depends_on,omitempty"`
}

func cloneTask(t *Task) *Task {
	if t == nil {
		return nil
	}
	cp := *t
	if t.DependsOn != nil {
		cp.DependsOn = append([]string(nil), t.DependsOn...)
	}
	// Subtasks are only referenced from the root; snapshots don't carry them.
	cp.Subtasks = nil
	return &cp
}
