package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config,
// defaults. Missing files are not errors; malformed JSON is.
func Load(globalPath, projectPath string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return cfg, nil
}

// LoadDefault loads configuration from conventional paths.
// Global: ~/.chatdock/config.json
// Project: .chatdock/config.json (relative to cwd)
func LoadDefault() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}

	globalPath := filepath.Join(homeDir, ".chatdock", "config.json")
	projectPath := filepath.Join(".chatdock", "config.json")

	return Load(globalPath, projectPath)
}

func defaultHistoryPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".chatdock", "history.db")
}

// mergeConfigFile reads a JSON config file and merges it into the base
// config. Missing files are silently skipped. Specialists merge per key;
// scalar fields override only when set in the file.
func mergeConfigFile(base *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if loaded.Provider.Command != "" {
		base.Provider.Command = loaded.Provider.Command
	}
	if loaded.Provider.Args != nil {
		base.Provider.Args = loaded.Provider.Args
	}

	for key, sp := range loaded.Specialists {
		base.Specialists[key] = sp
	}

	mergeScheduler(&base.Scheduler, loaded.Scheduler)
	mergeGate(&base.Gate, loaded.Gate)

	if loaded.History.Path != "" {
		base.History.Path = loaded.History.Path
	}

	return nil
}

func mergeScheduler(base *SchedulerConfig, in SchedulerConfig) {
	if in.MaxConcurrent > 0 {
		base.MaxConcurrent = in.MaxConcurrent
	}
	if in.MaxRetries > 0 {
		base.MaxRetries = in.MaxRetries
	}
	if in.RetryInitialDelayMS > 0 {
		base.RetryInitialDelayMS = in.RetryInitialDelayMS
	}
	if in.RetryMaxDelayMS > 0 {
		base.RetryMaxDelayMS = in.RetryMaxDelayMS
	}
	if in.BreakerFailThreshold > 0 {
		base.BreakerFailThreshold = in.BreakerFailThreshold
	}
}

func mergeGate(base *GateConfig, in GateConfig) {
	if in.PlanningTool != "" {
		base.PlanningTool = in.PlanningTool
	}
	if in.DiscoveryTool != "" {
		base.DiscoveryTool = in.DiscoveryTool
	}
	if in.LengthThreshold > 0 {
		base.LengthThreshold = in.LengthThreshold
	}
}
