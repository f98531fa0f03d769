package config

// ProviderConfig defines the CLI transport used to reach the language model.
// All specialists share one provider; per-specialist behavior comes from the
// system prompt and tool allowlist.
type ProviderConfig struct {
	Command string   `json:"command"`        // CLI binary name (e.g., "claude")
	Args    []string `json:"args,omitempty"` // Default args appended to every invocation
}

// SpecialistConfig defines one worker role.
type SpecialistConfig struct {
	Model        string   `json:"model,omitempty"`         // Model override passed to the provider
	SystemPrompt string   `json:"system_prompt,omitempty"` // Role-specific system prompt
	Tools        []string `json:"tools,omitempty"`         // Allowed tools for this role
}

// SchedulerConfig bounds dispatch and retry behavior.
type SchedulerConfig struct {
	MaxConcurrent        int `json:"max_concurrent,omitempty"`         // Global cap on simultaneously running tasks
	MaxRetries           int `json:"max_retries,omitempty"`            // Attempts per task before it is marked failed
	RetryInitialDelayMS  int `json:"retry_initial_delay_ms,omitempty"` // First backoff interval
	RetryMaxDelayMS      int `json:"retry_max_delay_ms,omitempty"`     // Backoff ceiling
	BreakerFailThreshold int `json:"breaker_fail_threshold,omitempty"` // Consecutive failures that trip a specialist's circuit
}

// GateConfig names the workflow-ordering tools.
type GateConfig struct {
	PlanningTool    string `json:"planning_tool,omitempty"`
	DiscoveryTool   string `json:"discovery_tool,omitempty"`
	LengthThreshold int    `json:"length_threshold,omitempty"` // Chars beyond which a request is classified complex
}

// HistoryConfig locates the run-history database.
type HistoryConfig struct {
	Path string `json:"path,omitempty"` // SQLite file; empty disables persistence
}

// Config is the top-level configuration.
type Config struct {
	Provider    ProviderConfig              `json:"provider"`
	Specialists map[string]SpecialistConfig `json:"specialists"`
	Scheduler   SchedulerConfig             `json:"scheduler"`
	Gate        GateConfig                  `json:"gate"`
	History     HistoryConfig               `json:"history"`
}
