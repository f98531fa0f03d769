package config

// DefaultConfig returns the default configuration with the built-in
// specialist roster and scheduler bounds.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Command: "claude",
		},
		Specialists: map[string]SpecialistConfig{
			"file": {
				SystemPrompt: "You read, write, and reorganize files in the workspace.",
				Tools:        []string{"plan", "discover", "file"},
			},
			"shell": {
				SystemPrompt: "You run shell commands and report their output.",
				Tools:        []string{"plan", "discover", "shell"},
			},
			"web": {
				SystemPrompt: "You fetch and summarize web content.",
				Tools:        []string{"plan", "discover", "web"},
			},
			"code": {
				SystemPrompt: "You implement features and write production code.",
				Tools:        []string{"plan", "discover", "file", "shell"},
			},
		},
		Scheduler: SchedulerConfig{
			MaxConcurrent:        4,
			MaxRetries:           2,
			RetryInitialDelayMS:  500,
			RetryMaxDelayMS:      8000,
			BreakerFailThreshold: 5,
		},
		Gate: GateConfig{
			PlanningTool:    "plan",
			DiscoveryTool:   "discover",
			LengthThreshold: 200,
		},
		History: HistoryConfig{
			Path: defaultHistoryPath(),
		},
	}
}
