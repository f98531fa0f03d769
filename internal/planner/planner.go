// Package planner turns a user request into the flat task records the
// engine builds its graph from.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/abhaymundhara/ChatDock-sub000/internal/taskgraph"
)

// Planner decomposes one request into task records.
type Planner interface {
	Plan(ctx context.Context, request string) ([]taskgraph.Record, error)
}

// ParseRecords decodes a JSON task list. Both a bare array and an object
// with a "tasks" field are accepted.
func ParseRecords(data []byte) ([]taskgraph.Record, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("empty plan")
	}

	if strings.HasPrefix(trimmed, "[") {
		var records []taskgraph.Record
		if err := json.Unmarshal([]byte(trimmed), &records); err != nil {
			return nil, fmt.Errorf("parsing task list: %w", err)
		}
		return records, nil
	}

	var wrapper struct {
		Tasks []taskgraph.Record `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(trimmed), &wrapper); err != nil {
		return nil, fmt.Errorf("parsing plan object: %w", err)
	}
	if wrapper.Tasks == nil {
		return nil, fmt.Errorf("plan object has no tasks field")
	}
	return wrapper.Tasks, nil
}

// FilePlanner reads a prepared plan from a JSON file. It ignores the request
// text; the file is the plan.
type FilePlanner struct {
	Path string
}

func (p FilePlanner) Plan(_ context.Context, _ string) ([]taskgraph.Record, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}
	records, err := ParseRecords(data)
	if err != nil {
		return nil, fmt.Errorf("plan file %s: %w", p.Path, err)
	}
	return records, nil
}
