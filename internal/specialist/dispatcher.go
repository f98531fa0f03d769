package specialist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abhaymundhara/ChatDock-sub000/internal/config"
	"github.com/abhaymundhara/ChatDock-sub000/internal/events"
	"github.com/abhaymundhara/ChatDock-sub000/internal/gate"
	"github.com/abhaymundhara/ChatDock-sub000/internal/taskgraph"
	"github.com/abhaymundhara/ChatDock-sub000/internal/tools"
)

// Factory builds a fresh Completer for one specialist spawn. Each spawn gets
// its own Completer so no state carries over between tasks.
type Factory func(role string, sp config.SpecialistConfig) (Completer, error)

// NewCLIFactory returns a Factory producing CLI-backed completers that share
// one provider and process manager.
func NewCLIFactory(provider config.ProviderConfig, workDir string, procMgr *ProcessManager) Factory {
	return func(role string, sp config.SpecialistConfig) (Completer, error) {
		return NewCLICompleter(provider, sp, workDir, procMgr)
	}
}

// UnknownSpecialistError reports a task whose assignee has no configured
// specialist.
type UnknownSpecialistError struct {
	Assignee string
}

func (e *UnknownSpecialistError) Error() string {
	return fmt.Sprintf("no specialist configured for assignee %q", e.Assignee)
}

// Dispatcher spawns an isolated specialist per task: a fresh completer with
// the role's system prompt and no memory of previous tasks. The workflow
// gate is scoped to the dispatcher, one per user request, so planning and
// discovery done by one spawn satisfy the obligations of later spawns. The
// returned transcript folds in tool outcomes and any gate correction.
type Dispatcher struct {
	specialists map[string]config.SpecialistConfig
	factory     Factory
	registry    *tools.Registry
	workflow    *gate.Gate
	bus         *events.Bus
}

func NewDispatcher(cfg *config.Config, factory Factory, registry *tools.Registry, bus *events.Bus) *Dispatcher {
	return &Dispatcher{
		specialists: cfg.Specialists,
		factory:     factory,
		registry:    registry,
		workflow: gate.New(gate.Config{
			PlanningTool:    cfg.Gate.PlanningTool,
			DiscoveryTool:   cfg.Gate.DiscoveryTool,
			LengthThreshold: cfg.Gate.LengthThreshold,
		}),
		bus: bus,
	}
}

// ResetWorkflow clears the gate obligations. Callers reusing a dispatcher
// across user requests start each one with a clean ordering state.
func (d *Dispatcher) ResetWorkflow() {
	d.workflow.Reset()
}

// Spawn runs one task through a fresh specialist and returns its transcript.
// Transport failures are returned as errors so the executor can retry; tool
// failures and gate corrections are folded into the transcript instead.
func (d *Dispatcher) Spawn(ctx context.Context, task taskgraph.Task, attempt int) (string, error) {
	sp, ok := d.specialists[string(task.Assignee)]
	if !ok {
		return "", &UnknownSpecialistError{Assignee: string(task.Assignee)}
	}

	completer, err := d.factory(string(task.Assignee), sp)
	if err != nil {
		return "", fmt.Errorf("creating completer for %s: %w", task.Assignee, err)
	}
	defer completer.Close()

	d.publish(events.TopicSpecialist, events.SpecialistStartedEvent{
		ID:        task.ID,
		Assignee:  task.Assignee,
		Attempt:   attempt,
		Timestamp: time.Now(),
	})

	resp, err := completer.Complete(ctx, Request{
		System: sp.SystemPrompt,
		Prompt: task.Content,
	})
	if err != nil {
		d.publish(events.TopicSpecialist, events.SpecialistFinishedEvent{
			ID:        task.ID,
			Assignee:  task.Assignee,
			Attempt:   attempt,
			Timestamp: time.Now(),
		})
		return "", err
	}

	transcript := d.resolveToolCalls(ctx, task, sp, resp)

	d.publish(events.TopicSpecialist, events.SpecialistFinishedEvent{
		ID:        task.ID,
		Assignee:  task.Assignee,
		Attempt:   attempt,
		Success:   true,
		ToolCalls: len(resp.ToolCalls),
		Timestamp: time.Now(),
	})

	return transcript, nil
}

// resolveToolCalls applies the workflow gate to the batch and executes the
// calls that survive it. Batch evaluation is atomic under the gate's lock,
// so concurrent spawns see a consistent obligation state.
func (d *Dispatcher) resolveToolCalls(ctx context.Context, task taskgraph.Task, sp config.SpecialistConfig, resp Response) string {
	var b strings.Builder
	b.WriteString(resp.Content)

	if len(resp.ToolCalls) == 0 {
		return b.String()
	}

	names := make([]string, len(resp.ToolCalls))
	for i, call := range resp.ToolCalls {
		names[i] = call.Name
	}

	decision := d.workflow.Evaluate(names, task.Content)
	if !decision.Allowed {
		fmt.Fprintf(&b, "\n[workflow correction] %s", decision.Correction)
		return b.String()
	}

	for _, call := range resp.ToolCalls {
		if !roleAllows(sp, call.Name) {
			fmt.Fprintf(&b, "\n[tool %s] not permitted for this role", call.Name)
			continue
		}
		res := d.registry.Execute(ctx, call.Name, call.Args)
		if res.Err != nil {
			fmt.Fprintf(&b, "\n[tool %s] error: %v", call.Name, res.Err)
			continue
		}
		fmt.Fprintf(&b, "\n[tool %s] %s", call.Name, res.Output)
	}

	return b.String()
}

func roleAllows(sp config.SpecialistConfig, name string) bool {
	// An empty allowlist permits everything the registry knows.
	if len(sp.Tools) == 0 {
		return true
	}
	for _, t := range sp.Tools {
		if t == name {
			return true
		}
	}
	return false
}

func (d *Dispatcher) publish(topic string, e events.Event) {
	if d.bus != nil {
		d.bus.Publish(topic, e)
	}
}
