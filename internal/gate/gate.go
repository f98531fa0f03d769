// Package gate enforces workflow ordering over specialist tool calls: complex
// requests must be planned before anything else runs, and the workspace must
// be discovered before mutating or executing tools fire.
package gate

import (
	"fmt"
	"sync"
)

// Config names the designated ordering tools.
type Config struct {
	PlanningTool    string
	DiscoveryTool   string
	LengthThreshold int
}

// DefaultConfig matches the built-in tool registry.
func DefaultConfig() Config {
	return Config{
		PlanningTool:    "plan",
		DiscoveryTool:   "discover",
		LengthThreshold: DefaultLengthThreshold,
	}
}

// State tracks which ordering obligations have been met within the current
// user turn.
type State struct {
	HasPlanned    bool
	HasDiscovered bool
}

// Decision is the verdict over one tool-call batch. When Allowed is false,
// Correction carries the instruction to feed back to the specialist instead
// of executing the batch.
type Decision struct {
	Allowed    bool
	Correction string
}

// Gate evaluates tool-call batches against the per-turn workflow state.
// A batch is judged atomically: either every call in it may proceed, or the
// whole batch is rejected and state is left untouched.
type Gate struct {
	cfg Config

	mu    sync.Mutex
	state State
}

func New(cfg Config) *Gate {
	if cfg.PlanningTool == "" {
		cfg.PlanningTool = "plan"
	}
	if cfg.DiscoveryTool == "" {
		cfg.DiscoveryTool = "discover"
	}
	if cfg.LengthThreshold <= 0 {
		cfg.LengthThreshold = DefaultLengthThreshold
	}
	return &Gate{cfg: cfg}
}

// Reset clears the turn state. Call it when a new user request begins.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.state = State{}
	g.mu.Unlock()
}

// State returns a copy of the current turn state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Evaluate judges one batch of requested tool names against the user's
// request text. State advances only when the batch is allowed.
func (g *Gate) Evaluate(toolNames []string, userText string) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Evaluate(g.cfg, &g.state, toolNames, userText)
}

// Evaluate is the gate's decision function over an explicit state, usable
// without a Gate instance. Ordering rules only bind complex requests; simple
// ones pass unconditionally. The state advances only when the batch is
// allowed; a rejected batch leaves it untouched.
func Evaluate(cfg Config, st *State, toolNames []string, userText string) Decision {
	if Classify(userText, cfg.LengthThreshold) == Complex {
		if d, ok := checkOrdering(cfg, st, toolNames); !ok {
			return d
		}
	}

	for _, name := range toolNames {
		switch name {
		case cfg.PlanningTool:
			st.HasPlanned = true
		case cfg.DiscoveryTool:
			st.HasDiscovered = true
		}
	}
	return Decision{Allowed: true}
}

// checkOrdering applies the ordering rules for a complex request. It never
// mutates state.
func checkOrdering(cfg Config, st *State, toolNames []string) (Decision, bool) {
	if !st.HasPlanned {
		hasPlan := false
		for _, name := range toolNames {
			if name == cfg.PlanningTool {
				hasPlan = true
				break
			}
		}
		if !hasPlan {
			return Decision{
				Correction: fmt.Sprintf("this request requires planning: call %q before any other tool", cfg.PlanningTool),
			}, false
		}
		for _, name := range toolNames {
			if name != cfg.PlanningTool {
				return Decision{
					Correction: fmt.Sprintf("call %q by itself first; other tools may follow once a plan exists", cfg.PlanningTool),
				}, false
			}
		}
		return Decision{Allowed: true}, true
	}

	if !st.HasDiscovered {
		for _, name := range toolNames {
			if name != cfg.PlanningTool && name != cfg.DiscoveryTool {
				return Decision{
					Correction: fmt.Sprintf("call %q to inspect the workspace before running %q", cfg.DiscoveryTool, name),
				}, false
			}
		}
	}

	return Decision{Allowed: true}, true
}
