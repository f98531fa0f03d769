package taskgraph

import (
	"fmt"
	"strconv"
	"strings"
)

// Build converts an ordered list of planner records into a graph rooted at
// the synthetic coordinator. Records without an explicit id are assigned
// "task-N" by position. Dependency references are translated consistently:
// a reference matching another record's id is used as-is, a 1-based numeric
// reference is resolved by position. Build has no side effects; validation
// is a separate step.
func Build(records []Record) (*Graph, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no task records to build")
	}

	// First pass: settle internal ids so forward references resolve.
	ids := make([]string, len(records))
	byExternalID := make(map[string]int, len(records))
	for i, rec := range records {
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			id = fmt.Sprintf("task-%d", i+1)
		}
		if _, dup := byExternalID[id]; dup {
			return nil, fmt.Errorf("duplicate task id %q at position %d", id, i+1)
		}
		ids[i] = id
		byExternalID[id] = i
	}

	graph := NewGraph()
	for i, rec := range records {
		assignee := Assignee(strings.ToLower(strings.TrimSpace(rec.Assignee)))
		if !assignee.Valid() || assignee == AssigneeCoordinator {
			return nil, fmt.Errorf("task %q has unknown assignee %q", ids[i], rec.Assignee)
		}

		deps := make([]string, 0, len(rec.DependsOn))
		for _, ref := range rec.DependsOn {
			deps = append(deps, resolveRef(ref, ids, byExternalID))
		}

		task := &Task{
			ID:        ids[i],
			Content:   rec.Description,
			Assignee:  assignee,
			DependsOn: deps,
			Status:    StatusPending,
		}
		if err := graph.Add(task); err != nil {
			return nil, err
		}
	}

	return graph, nil
}

// resolveRef maps one dependency reference to an internal id. Unresolvable
// references pass through untouched so Validate reports them as dangling.
func resolveRef(ref string, ids []string, byExternalID map[string]int) string {
	ref = strings.TrimSpace(ref)
	if _, ok := byExternalID[ref]; ok {
		return ref
	}
	if pos, err := strconv.Atoi(ref); err == nil && pos >= 1 && pos <= len(ids) {
		return ids[pos-1]
	}
	return ref
}
