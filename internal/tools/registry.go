package tools

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// Tool is a named action a specialist may request.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// ErrUnknownTool is returned when a requested tool name is not registered.
type ErrUnknownTool struct {
	Name string
}

func (e *ErrUnknownTool) Error() string {
	return fmt.Sprintf("tool %q not registered", e.Name)
}

// Result is the structured outcome of one tool execution.
type Result struct {
	Tool     string
	Output   string
	Err      error
	Duration time.Duration
}

// Registry maps tool names to implementations. Lookups are by exact name;
// unknown names fail with a structured error rather than at dispatch time.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool by name.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Execute runs one tool and returns its structured result. An unregistered
// name or a tool error is reported in Result.Err; Execute itself never
// panics or throws past the caller.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) Result {
	tool, ok := r.Get(name)
	if !ok {
		return Result{Tool: name, Err: &ErrUnknownTool{Name: name}}
	}

	start := time.Now()
	output, err := tool.Execute(ctx, args)
	duration := time.Since(start)

	if err != nil {
		log.Printf("WARNING: tool %q failed after %v: %v", name, duration, err)
	}

	return Result{
		Tool:     name,
		Output:   output,
		Err:      err,
		Duration: duration,
	}
}

// List returns registered tool names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateNames verifies every name resolves to a registered tool.
// Called at startup so configuration typos fail fast, not mid-run.
func (r *Registry) ValidateNames(names []string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range names {
		if _, ok := r.tools[name]; !ok {
			return &ErrUnknownTool{Name: name}
		}
	}
	return nil
}
