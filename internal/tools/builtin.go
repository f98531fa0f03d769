package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// PlanTool is the designated planning action. It records the requested plan
// text and acknowledges it; the plan itself is carried back to the caller in
// the specialist payload. Actual decomposition stays with the planner.
type PlanTool struct{}

func (PlanTool) Name() string        { return "plan" }
func (PlanTool) Description() string { return "Record an execution plan before using other tools" }

func (PlanTool) Execute(_ context.Context, args map[string]any) (string, error) {
	steps, _ := args["steps"].(string)
	if strings.TrimSpace(steps) == "" {
		return "", fmt.Errorf("plan requires a non-empty 'steps' argument")
	}
	return fmt.Sprintf("plan recorded (%d lines)", strings.Count(steps, "\n")+1), nil
}

// DiscoverTool is the designated discovery action: a read-only listing of a
// directory, used to inspect the workspace before execution tools run.
type DiscoverTool struct {
	Root string // Base directory; empty means current directory
}

func (DiscoverTool) Name() string        { return "discover" }
func (DiscoverTool) Description() string { return "List workspace entries before executing actions" }

func (t DiscoverTool) Execute(_ context.Context, args map[string]any) (string, error) {
	dir := t.Root
	if dir == "" {
		dir = "."
	}
	if sub, ok := args["path"].(string); ok && sub != "" {
		dir = sub
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "\n"), nil
}

// FileTool reads and writes workspace files. Relative paths resolve against
// Root.
type FileTool struct {
	Root string // Base directory; empty means current directory
}

func (FileTool) Name() string        { return "file" }
func (FileTool) Description() string { return "Read or write a file in the workspace" }

func (t FileTool) Execute(_ context.Context, args map[string]any) (string, error) {
	path, _ := args["path"].(string)
	if path == "" {
		return "", fmt.Errorf("file requires a 'path' argument")
	}
	if t.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(t.Root, path)
	}

	op, _ := args["op"].(string)
	switch op {
	case "read", "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		return string(data), nil
	case "write":
		content, _ := args["content"].(string)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return "", fmt.Errorf("creating directory for %s: %w", path, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return "", fmt.Errorf("writing %s: %w", path, err)
		}
		return fmt.Sprintf("wrote %d bytes to %s", len(content), path), nil
	default:
		return "", fmt.Errorf("unknown file op %q", op)
	}
}

// ShellTool runs one command through the system shell and returns its
// combined output.
type ShellTool struct {
	WorkDir string
	Timeout time.Duration // Zero means only the caller's context bounds the run
}

func (ShellTool) Name() string        { return "shell" }
func (ShellTool) Description() string { return "Run a shell command and capture its output" }

func (t ShellTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	command, _ := args["command"].(string)
	if strings.TrimSpace(command) == "" {
		return "", fmt.Errorf("shell requires a non-empty 'command' argument")
	}

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = t.WorkDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("running %q: %w\n%s", command, err, out)
	}
	return string(out), nil
}

// webMaxBody caps fetched response bodies so transcripts stay bounded.
const webMaxBody = 1 << 20

// WebTool fetches a URL over HTTP GET.
type WebTool struct {
	Client  *http.Client
	MaxBody int64 // Zero means webMaxBody
}

func (WebTool) Name() string        { return "web" }
func (WebTool) Description() string { return "Fetch a URL and return the response body" }

func (t WebTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	rawURL, _ := args["url"].(string)
	if rawURL == "" {
		return "", fmt.Errorf("web requires a 'url' argument")
	}

	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetching %s: status %s", rawURL, resp.Status)
	}

	limit := t.MaxBody
	if limit <= 0 {
		limit = webMaxBody
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", fmt.Errorf("reading response from %s: %w", rawURL, err)
	}
	return string(body), nil
}

// EchoTool returns its 'text' argument. Used by the demo wiring and tests.
type EchoTool struct{}

func (EchoTool) Name() string        { return "echo" }
func (EchoTool) Description() string { return "Return the given text unchanged" }

func (EchoTool) Execute(_ context.Context, args map[string]any) (string, error) {
	text, _ := args["text"].(string)
	return text, nil
}
