package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/abhaymundhara/ChatDock-sub000/internal/config"
)

// CLICompleter talks to a model through a local CLI binary in
// subprocess-per-invocation mode. The first call establishes a session id;
// later calls resume it.
type CLICompleter struct {
	command      string
	baseArgs     []string
	sessionID    string
	workDir      string
	model        string
	systemPrompt string
	started      bool
	procMgr      *ProcessManager
}

// cliResponse is the JSON structure the CLI prints with --output-format json.
type cliResponse struct {
	SessionID string `json:"session_id"`
	Result    struct {
		Content []struct {
			Type  string         `json:"type"`
			Text  string         `json:"text"`
			Name  string         `json:"name"`
			Input map[string]any `json:"input"`
		} `json:"content"`
	} `json:"result"`
}

// NewCLICompleter creates a completer backed by the configured provider
// binary. The ProcessManager is optional; when nil, subprocesses are not
// tracked for shutdown.
func NewCLICompleter(provider config.ProviderConfig, sp config.SpecialistConfig, workDir string, procMgr *ProcessManager) (*CLICompleter, error) {
	if provider.Command == "" {
		return nil, fmt.Errorf("provider command not configured")
	}

	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
	}

	return &CLICompleter{
		command:      provider.Command,
		baseArgs:     provider.Args,
		sessionID:    uuid.NewString(),
		workDir:      workDir,
		model:        sp.Model,
		systemPrompt: sp.SystemPrompt,
		procMgr:      procMgr,
	}, nil
}

// Complete invokes the CLI binary once and parses its JSON reply.
func (c *CLICompleter) Complete(ctx context.Context, req Request) (Response, error) {
	args := c.buildArgs(req, c.started)

	cmd := newCommand(ctx, c.command, args...)
	cmd.Dir = c.workDir

	stdout, stderr, err := executeCommand(cmd, c.procMgr)
	if err != nil {
		return Response{}, fmt.Errorf("%s invocation failed: %w", c.command, err)
	}

	resp, err := parseCLIResponse(stdout)
	if err != nil {
		return Response{}, fmt.Errorf("parsing %s response: %w (stderr: %s)", c.command, err, string(stderr))
	}

	c.started = true
	return resp, nil
}

// Close is a no-op: each Complete call runs its own subprocess.
func (c *CLICompleter) Close() error {
	return nil
}

// SessionID returns the session identifier used across Complete calls.
func (c *CLICompleter) SessionID() string {
	return c.sessionID
}

// buildArgs constructs the CLI arguments. The first call uses --session-id,
// subsequent calls use --resume.
func (c *CLICompleter) buildArgs(req Request, isResume bool) []string {
	args := append([]string{}, c.baseArgs...)
	args = append(args, "-p", req.Prompt, "--output-format", "json")

	if isResume {
		args = append(args, "--resume", c.sessionID)
	} else {
		args = append(args, "--session-id", c.sessionID)
	}

	if c.model != "" {
		args = append(args, "--model", c.model)
	}
	if c.systemPrompt != "" {
		args = append(args, "--system-prompt", c.systemPrompt)
	}

	return args
}

// parseCLIResponse extracts text and tool_use blocks from the CLI's JSON
// output.
func parseCLIResponse(data []byte) (Response, error) {
	var cr cliResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return Response{}, fmt.Errorf("unmarshaling JSON: %w", err)
	}

	resp := Response{SessionID: cr.SessionID}
	for _, item := range cr.Result.Content {
		switch item.Type {
		case "text":
			resp.Content += item.Text
		case "tool_use":
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{
				Name: item.Name,
				Args: item.Input,
			})
		}
	}

	return resp, nil
}
