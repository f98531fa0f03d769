package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Scheduler.MaxConcurrent = 7
	cfg.Specialists["audit"] = SpecialistConfig{SystemPrompt: "audit things"}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Scheduler.MaxConcurrent != 7 {
		t.Errorf("max_concurrent = %d, want 7", loaded.Scheduler.MaxConcurrent)
	}
	if loaded.Specialists["audit"].SystemPrompt != "audit things" {
		t.Errorf("audit prompt = %q", loaded.Specialists["audit"].SystemPrompt)
	}
}

func TestSaveRestrictsPermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if err := Save(DefaultConfig(), path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config permissions = %o, want 0600", perm)
	}

	// Leftover temp files would mean a failed rename path.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the config file", len(entries))
	}
}

func TestSaveOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := DefaultConfig()
	if err := Save(cfg, path); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	cfg.Scheduler.MaxRetries = 9
	if err := Save(cfg, path); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	loaded, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Scheduler.MaxRetries != 9 {
		t.Errorf("max_retries = %d, want 9", loaded.Scheduler.MaxRetries)
	}
}
