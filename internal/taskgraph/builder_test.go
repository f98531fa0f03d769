package taskgraph

import (
	"strings"
	"testing"
)

// TestBuild verifies record-to-graph conversion and id translation.
func TestBuild(t *testing.T) {
	tests := []struct {
		name        string
		records     []Record
		wantErr     bool
		errContains string
		check       func(t *testing.T, g *Graph)
	}{
		{
			name: "explicit ids",
			records: []Record{
				{ID: "fetch", Description: "fetch data", Assignee: "web"},
				{ID: "store", Description: "store it", Assignee: "file", DependsOn: []string{"fetch"}},
			},
			check: func(t *testing.T, g *Graph) {
				task, ok := g.Get("store")
				if !ok {
					t.Fatal("store task missing")
				}
				if len(task.DependsOn) != 1 || task.DependsOn[0] != "fetch" {
					t.Errorf("store depends on %v, want [fetch]", task.DependsOn)
				}
			},
		},
		{
			name: "generated ids by position",
			records: []Record{
				{Description: "first", Assignee: "file"},
				{Description: "second", Assignee: "shell"},
			},
			check: func(t *testing.T, g *Graph) {
				if _, ok := g.Get("task-1"); !ok {
					t.Error("task-1 missing")
				}
				if _, ok := g.Get("task-2"); !ok {
					t.Error("task-2 missing")
				}
			},
		},
		{
			name: "positional dependency references",
			records: []Record{
				{Description: "first", Assignee: "file"},
				{Description: "second", Assignee: "shell", DependsOn: []string{"1"}},
			},
			check: func(t *testing.T, g *Graph) {
				task, _ := g.Get("task-2")
				if len(task.DependsOn) != 1 || task.DependsOn[0] != "task-1" {
					t.Errorf("positional ref not translated: %v", task.DependsOn)
				}
			},
		},
		{
			name: "forward reference resolves",
			records: []Record{
				{ID: "late", Description: "runs second", Assignee: "code", DependsOn: []string{"early"}},
				{ID: "early", Description: "runs first", Assignee: "file"},
			},
			check: func(t *testing.T, g *Graph) {
				if _, err := g.Validate(); err != nil {
					t.Errorf("forward reference should validate: %v", err)
				}
			},
		},
		{
			name: "unresolvable reference passes through for Validate",
			records: []Record{
				{Description: "only", Assignee: "file", DependsOn: []string{"missing"}},
			},
			check: func(t *testing.T, g *Graph) {
				if _, err := g.Validate(); err == nil {
					t.Error("dangling reference should fail validation")
				}
			},
		},
		{
			name:        "empty list rejected",
			records:     nil,
			wantErr:     true,
			errContains: "no task records",
		},
		{
			name: "unknown assignee rejected",
			records: []Record{
				{Description: "what", Assignee: "quantum"},
			},
			wantErr:     true,
			errContains: "unknown assignee",
		},
		{
			name: "coordinator assignee rejected for subtasks",
			records: []Record{
				{Description: "meta", Assignee: "coordinator"},
			},
			wantErr: true,
		},
		{
			name: "duplicate external ids rejected",
			records: []Record{
				{ID: "x", Description: "a", Assignee: "file"},
				{ID: "x", Description: "b", Assignee: "file"},
			},
			wantErr:     true,
			errContains: "duplicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Build(tt.records)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Build() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q doesn't contain %q", err.Error(), tt.errContains)
				}
				return
			}

			if g.Len() != len(tt.records) {
				t.Errorf("graph has %d tasks, want %d", g.Len(), len(tt.records))
			}

			// Every built task starts pending under the coordinator root.
			for _, task := range g.Tasks() {
				if task.Status != StatusPending {
					t.Errorf("task %s starts as %s, want pending", task.ID, task.Status)
				}
				if task.FailureCount != 0 {
					t.Errorf("task %s starts with failure count %d", task.ID, task.FailureCount)
				}
			}

			if tt.check != nil {
				tt.check(t, g)
			}
		})
	}
}
