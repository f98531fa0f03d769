package tui

import (
	"errors"
	"testing"
	"time"

	"github.com/abhaymundhara/ChatDock-sub000/internal/events"
	"github.com/abhaymundhara/ChatDock-sub000/internal/taskgraph"
)

func TestTaskPaneTracksLifecycle(t *testing.T) {
	m := NewTaskPaneModel()

	m, _ = m.Update(events.TaskStartedEvent{
		ID:        "parse",
		Content:   "parse the input file",
		Assignee:  taskgraph.AssigneeCode,
		Timestamp: time.Now(),
	})

	st, ok := m.tasks["parse"]
	if !ok {
		t.Fatal("expected task to be tracked after TaskStartedEvent")
	}
	if st.Status != taskgraph.StatusRunning {
		t.Errorf("status after start = %v, want %v", st.Status, taskgraph.StatusRunning)
	}

	m, _ = m.Update(events.TaskCompletedEvent{
		ID:       "parse",
		Result:   "done",
		Attempts: 2,
		Duration: time.Second,
	})
	if st.Status != taskgraph.StatusCompleted {
		t.Errorf("status after completion = %v, want %v", st.Status, taskgraph.StatusCompleted)
	}
	if st.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", st.Attempts)
	}

	m, _ = m.Update(events.TaskStartedEvent{
		ID:       "report",
		Content:  "write the report",
		Assignee: taskgraph.AssigneeFile,
	})
	m, _ = m.Update(events.TaskFailedEvent{
		ID:       "report",
		Err:      errors.New("disk full"),
		Attempts: 3,
	})
	if got := m.tasks["report"].Status; got != taskgraph.StatusFailed {
		t.Errorf("status after failure = %v, want %v", got, taskgraph.StatusFailed)
	}
}

func TestStatusStyleCoversAllStates(t *testing.T) {
	states := []taskgraph.Status{
		taskgraph.StatusPending,
		taskgraph.StatusRunning,
		taskgraph.StatusCompleted,
		taskgraph.StatusFailed,
	}
	for _, s := range states {
		if _, ok := statusStyles[s]; !ok {
			t.Errorf("no style registered for status %v", s)
		}
	}

	// Unknown values render like pending rather than panicking.
	got := statusStyle(taskgraph.Status(99))
	want := statusStyles[taskgraph.StatusPending]
	if got.GetForeground() != want.GetForeground() {
		t.Errorf("unknown status foreground = %v, want pending's %v",
			got.GetForeground(), want.GetForeground())
	}
}
