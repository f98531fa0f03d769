package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhaymundhara/ChatDock-sub000/internal/specialist"
	"github.com/abhaymundhara/ChatDock-sub000/internal/taskgraph"
)

const planningSystemPrompt = `You decompose requests into a flat task list.
Respond with only a JSON array. Each entry has:
  "id": short unique name,
  "description": what the task does,
  "assignee": one of "file", "shell", "web", "code",
  "depends_on": ids of tasks that must finish first (omit when none).
Keep tasks independent unless an output genuinely feeds another task.`

// ModelPlanner asks the coordinator model to decompose the request. A fresh
// completer is used per plan so planning never inherits specialist state.
type ModelPlanner struct {
	NewCompleter func() (specialist.Completer, error)
}

func (p ModelPlanner) Plan(ctx context.Context, request string) ([]taskgraph.Record, error) {
	completer, err := p.NewCompleter()
	if err != nil {
		return nil, fmt.Errorf("creating planning completer: %w", err)
	}
	defer completer.Close()

	resp, err := completer.Complete(ctx, specialist.Request{
		System: planningSystemPrompt,
		Prompt: request,
	})
	if err != nil {
		return nil, fmt.Errorf("planning request: %w", err)
	}

	payload := extractJSON(resp.Content)
	if payload == "" {
		return nil, fmt.Errorf("planner reply contains no JSON: %q", resp.Content)
	}

	records, err := ParseRecords([]byte(payload))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("planner produced an empty task list")
	}
	return records, nil
}

// extractJSON pulls the first JSON array or object out of surrounding prose
// or markdown fencing.
func extractJSON(text string) string {
	for _, pair := range [][2]byte{{'[', ']'}, {'{', '}'}} {
		start := strings.IndexByte(text, pair[0])
		end := strings.LastIndexByte(text, pair[1])
		if start != -1 && end > start {
			return text[start : end+1]
		}
	}
	return ""
}
