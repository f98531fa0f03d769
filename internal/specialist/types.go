package specialist

import "context"

// Request is one completion request sent to the model.
type Request struct {
	System string // Role system prompt
	Prompt string // Task content
}

// ToolCall is a tool invocation the model asked for.
type ToolCall struct {
	Name string
	Args map[string]any
}

// Response is the model's reply to one request.
type Response struct {
	Content   string
	SessionID string
	ToolCalls []ToolCall
}

// Completer abstracts the model transport. Each specialist spawn gets its
// own Completer so no conversational state leaks between tasks.
type Completer interface {
	// Complete sends one request and returns the model's reply.
	Complete(ctx context.Context, req Request) (Response, error)

	// Close releases any transport resources.
	Close() error
}
