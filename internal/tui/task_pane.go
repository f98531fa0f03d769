package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abhaymundhara/ChatDock-sub000/internal/events"
	"github.com/abhaymundhara/ChatDock-sub000/internal/taskgraph"
)

// TaskState tracks one task's lifecycle for display.
type TaskState struct {
	ID         string
	Content    string
	Assignee   taskgraph.Assignee
	Status     taskgraph.Status
	Attempts   int
	Transcript []string
	StartTime  time.Time
	Duration   time.Duration
}

// TaskPaneModel shows the task list with the selected task's transcript in a
// scrollable viewport.
type TaskPaneModel struct {
	tasks       map[string]*TaskState
	taskOrder   []string // insertion order for display
	selectedIdx int
	viewport    viewport.Model
	width       int
	height      int
	focused     bool
}

func NewTaskPaneModel() TaskPaneModel {
	vp := viewport.New(0, 0)
	return TaskPaneModel{
		tasks:    make(map[string]*TaskState),
		viewport: vp,
	}
}

// Update handles messages for the task pane.
func (m TaskPaneModel) Update(msg tea.Msg) (TaskPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case tea.KeyMsg:
		if !m.focused {
			break
		}

		switch msg.String() {
		case KeyJ, KeyDown:
			if m.selectedIdx < len(m.taskOrder)-1 {
				m.selectedIdx++
				m.updateViewportContent()
			}
		case KeyK, KeyUp:
			if m.selectedIdx > 0 {
				m.selectedIdx--
				m.updateViewportContent()
			}
		default:
			m.viewport, cmd = m.viewport.Update(msg)
		}

	case events.TaskStartedEvent:
		if _, exists := m.tasks[msg.ID]; !exists {
			m.tasks[msg.ID] = &TaskState{
				ID:        msg.ID,
				Content:   msg.Content,
				Assignee:  msg.Assignee,
				Status:    taskgraph.StatusRunning,
				Attempts:  1,
				StartTime: msg.Timestamp,
			}
			m.taskOrder = append(m.taskOrder, msg.ID)
			if len(m.taskOrder) == 1 {
				m.selectedIdx = 0
				m.updateViewportContent()
			}
		}

	case events.SpecialistStartedEvent:
		if t, exists := m.tasks[msg.ID]; exists && msg.Attempt > 1 {
			t.Attempts = msg.Attempt
			t.Transcript = append(t.Transcript, fmt.Sprintf("[retry: attempt %d]", msg.Attempt))
			if m.selectedTaskID() == msg.ID {
				m.updateViewportContent()
			}
		}

	case events.TaskCompletedEvent:
		if t, exists := m.tasks[msg.ID]; exists {
			t.Status = taskgraph.StatusCompleted
			t.Duration = msg.Duration
			t.Attempts = msg.Attempts
			t.Transcript = append(t.Transcript, msg.Result,
				fmt.Sprintf("\n[completed in %v]", msg.Duration.Round(time.Millisecond)))
			if m.selectedTaskID() == msg.ID {
				m.updateViewportContent()
			}
		}

	case events.TaskFailedEvent:
		if t, exists := m.tasks[msg.ID]; exists {
			t.Status = taskgraph.StatusFailed
			t.Duration = msg.Duration
			t.Attempts = msg.Attempts
			t.Transcript = append(t.Transcript,
				fmt.Sprintf("\n[failed after %d attempts: %v]", msg.Attempts, msg.Err))
			if m.selectedTaskID() == msg.ID {
				m.updateViewportContent()
			}
		}
	}

	return m, cmd
}

// View renders the task list above the transcript viewport.
func (m TaskPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	title := paneTitle.Render("Tasks")
	b.WriteString(title)
	b.WriteString("\n")

	if len(m.taskOrder) == 0 {
		b.WriteString(statusStyle(taskgraph.StatusPending).Render("waiting for dispatch..."))
		b.WriteString("\n")
	}

	for i, id := range m.taskOrder {
		t := m.tasks[id]
		marker := "  "
		if i == m.selectedIdx {
			marker = "> "
		}

		var label string
		switch t.Status {
		case taskgraph.StatusCompleted:
			label = "done"
		case taskgraph.StatusFailed:
			label = "fail"
		default:
			label = "run "
		}
		status := statusStyle(t.Status).Render(label)

		line := fmt.Sprintf("%s[%s] %s (%s)", marker, status, t.ID, t.Assignee)
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.viewport.View())

	return paneBorder(m.focused).
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}

// SetSize updates the pane dimensions.
func (m *TaskPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
}

// SetFocused updates the focus state.
func (m *TaskPaneModel) SetFocused(focused bool) {
	m.focused = focused
}

func (m *TaskPaneModel) resizeViewport() {
	listHeight := len(m.taskOrder) + 3
	m.viewport.Width = m.width - 4
	m.viewport.Height = max(3, m.height-listHeight-4)
}

func (m *TaskPaneModel) selectedTaskID() string {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.taskOrder) {
		return ""
	}
	return m.taskOrder[m.selectedIdx]
}

func (m *TaskPaneModel) updateViewportContent() {
	id := m.selectedTaskID()
	if id == "" {
		m.viewport.SetContent("")
		return
	}
	t := m.tasks[id]

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(t.Content))
	b.WriteString("\n\n")
	b.WriteString(strings.Join(t.Transcript, "\n"))

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}
