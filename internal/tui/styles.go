package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/abhaymundhara/ChatDock-sub000/internal/taskgraph"
)

// Pane chrome. The dashboard is two rounded-border panes, progress on the
// left and the task list on the right; the focused pane gets the accent
// border.
var (
	paneFocused = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("69"))

	paneBlurred = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238"))

	paneTitle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	helpBar = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// One style per task lifecycle state, shared by the task list markers and
// the progress bar segments.
var statusStyles = map[taskgraph.Status]lipgloss.Style{
	taskgraph.StatusPending: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),
	taskgraph.StatusRunning: lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true),
	taskgraph.StatusCompleted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true),
	taskgraph.StatusFailed: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true),
}

func statusStyle(s taskgraph.Status) lipgloss.Style {
	if st, ok := statusStyles[s]; ok {
		return st
	}
	return statusStyles[taskgraph.StatusPending]
}

func paneBorder(focused bool) lipgloss.Style {
	if focused {
		return paneFocused
	}
	return paneBlurred
}
