package events

import (
	"time"

	"github.com/abhaymundhara/ChatDock-sub000/internal/taskgraph"
)

// Event is the base interface for all telemetry events.
// Publishing is fire-and-forget; the engine never consumes a return value.
type Event interface {
	EventType() string
	TaskID() string
}

// Topic constants
const (
	TopicTask       = "task"
	TopicGraph      = "graph"
	TopicSpecialist = "specialist"
)

// Event type constants
const (
	EventTypeTaskCreated        = "task.created"
	EventTypeTaskStarted        = "task.started"
	EventTypeTaskCompleted      = "task.completed"
	EventTypeTaskFailed         = "task.failed"
	EventTypeGraphProgress      = "graph.progress"
	EventTypeSpecialistStarted  = "specialist.started"
	EventTypeSpecialistFinished = "specialist.finished"
)

// TaskCreatedEvent is published when a graph is built from planner records.
type TaskCreatedEvent struct {
	ID        string
	Assignee  taskgraph.Assignee
	Timestamp time.Time
}

func (e TaskCreatedEvent) EventType() string { return EventTypeTaskCreated }
func (e TaskCreatedEvent) TaskID() string    { return e.ID }

// TaskStartedEvent is published when the scheduler dispatches a task.
type TaskStartedEvent struct {
	ID        string
	Content   string
	Assignee  taskgraph.Assignee
	Timestamp time.Time
}

func (e TaskStartedEvent) EventType() string { return EventTypeTaskStarted }
func (e TaskStartedEvent) TaskID() string    { return e.ID }

// TaskCompletedEvent is published when a task reaches completed.
type TaskCompletedEvent struct {
	ID        string
	Result    string
	Attempts  int
	Duration  time.Duration
	Timestamp time.Time
}

func (e TaskCompletedEvent) EventType() string { return EventTypeTaskCompleted }
func (e TaskCompletedEvent) TaskID() string    { return e.ID }

// TaskFailedEvent is published when a task exhausts its retries.
type TaskFailedEvent struct {
	ID        string
	Err       error
	Attempts  int
	Duration  time.Duration
	Timestamp time.Time
}

func (e TaskFailedEvent) EventType() string { return EventTypeTaskFailed }
func (e TaskFailedEvent) TaskID() string    { return e.ID }

// GraphProgressEvent carries the aggregate graph snapshot published after
// every scheduler batch. Consumers must never block on it; the bus drops
// events for saturated subscribers.
type GraphProgressEvent struct {
	Total     int
	Completed int
	Running   int
	Failed    int
	Pending   int
	Timestamp time.Time
}

func (e GraphProgressEvent) EventType() string { return EventTypeGraphProgress }
func (e GraphProgressEvent) TaskID() string    { return "" }

// SpecialistStartedEvent is published when a dispatcher spawns a worker.
type SpecialistStartedEvent struct {
	ID        string
	Assignee  taskgraph.Assignee
	Attempt   int
	Timestamp time.Time
}

func (e SpecialistStartedEvent) EventType() string { return EventTypeSpecialistStarted }
func (e SpecialistStartedEvent) TaskID() string    { return e.ID }

// SpecialistFinishedEvent is published when a spawn returns, success or not.
type SpecialistFinishedEvent struct {
	ID        string
	Assignee  taskgraph.Assignee
	Attempt   int
	Success   bool
	ToolCalls int
	Timestamp time.Time
}

func (e SpecialistFinishedEvent) EventType() string { return EventTypeSpecialistFinished }
func (e SpecialistFinishedEvent) TaskID() string    { return e.ID }
