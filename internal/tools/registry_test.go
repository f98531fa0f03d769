package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// stubTool is a configurable tool for registry tests.
type stubTool struct {
	name   string
	output string
	err    error
}

func (s stubTool) Name() string        { return s.name }
func (s stubTool) Description() string { return "stub" }
func (s stubTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return s.output, s.err
}

func TestRegistryExecute(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubTool{name: "greet", output: "hello"})
	reg.Register(stubTool{name: "broken", err: fmt.Errorf("no disk")})

	t.Run("success", func(t *testing.T) {
		res := reg.Execute(context.Background(), "greet", nil)
		if res.Err != nil {
			t.Fatalf("Execute() err = %v", res.Err)
		}
		if res.Output != "hello" {
			t.Errorf("output = %q, want %q", res.Output, "hello")
		}
		if res.Tool != "greet" {
			t.Errorf("tool = %q, want %q", res.Tool, "greet")
		}
	})

	t.Run("tool error is structured, not thrown", func(t *testing.T) {
		res := reg.Execute(context.Background(), "broken", nil)
		if res.Err == nil {
			t.Fatal("expected error from broken tool")
		}
	})

	t.Run("unknown tool", func(t *testing.T) {
		res := reg.Execute(context.Background(), "missing", nil)
		var unknown *ErrUnknownTool
		if !errors.As(res.Err, &unknown) {
			t.Fatalf("expected *ErrUnknownTool, got %v", res.Err)
		}
		if unknown.Name != "missing" {
			t.Errorf("unknown name = %q, want %q", unknown.Name, "missing")
		}
	})
}

func TestRegistryValidateNames(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubTool{name: "plan"})
	reg.Register(stubTool{name: "discover"})

	if err := reg.ValidateNames([]string{"plan", "discover"}); err != nil {
		t.Errorf("ValidateNames() err = %v for registered names", err)
	}

	err := reg.ValidateNames([]string{"plan", "typo"})
	if err == nil {
		t.Fatal("ValidateNames should fail for unregistered name")
	}
	var unknown *ErrUnknownTool
	if !errors.As(err, &unknown) || unknown.Name != "typo" {
		t.Errorf("expected ErrUnknownTool{typo}, got %v", err)
	}
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	reg.Register(stubTool{name: "zeta"})
	reg.Register(stubTool{name: "alpha"})

	names := reg.List()
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("List() = %v, want sorted [alpha zeta]", names)
	}
}

func TestBuiltinTools(t *testing.T) {
	t.Run("echo", func(t *testing.T) {
		out, err := EchoTool{}.Execute(context.Background(), map[string]any{"text": "ping"})
		if err != nil || out != "ping" {
			t.Errorf("echo = %q, %v", out, err)
		}
	})

	t.Run("plan requires steps", func(t *testing.T) {
		if _, err := (PlanTool{}).Execute(context.Background(), map[string]any{}); err == nil {
			t.Error("plan without steps should fail")
		}
		out, err := PlanTool{}.Execute(context.Background(), map[string]any{"steps": "a\nb"})
		if err != nil {
			t.Fatalf("plan err = %v", err)
		}
		if out == "" {
			t.Error("plan should acknowledge recorded steps")
		}
	})

	t.Run("discover lists a directory", func(t *testing.T) {
		dir := t.TempDir()
		tool := DiscoverTool{Root: dir}
		if _, err := tool.Execute(context.Background(), nil); err != nil {
			t.Errorf("discover on empty dir err = %v", err)
		}
		if _, err := tool.Execute(context.Background(), map[string]any{"path": dir + "/nope"}); err == nil {
			t.Error("discover on missing dir should fail")
		}
	})

	t.Run("file write then read", func(t *testing.T) {
		tool := FileTool{Root: t.TempDir()}
		ctx := context.Background()

		if _, err := tool.Execute(ctx, map[string]any{"op": "write", "path": "notes/out.txt", "content": "hello"}); err != nil {
			t.Fatalf("write err = %v", err)
		}
		out, err := tool.Execute(ctx, map[string]any{"path": "notes/out.txt"})
		if err != nil || out != "hello" {
			t.Errorf("read = %q, %v", out, err)
		}
		if _, err := tool.Execute(ctx, map[string]any{"op": "append", "path": "notes/out.txt"}); err == nil {
			t.Error("unknown op should fail")
		}
		if _, err := tool.Execute(ctx, map[string]any{"op": "read"}); err == nil {
			t.Error("missing path should fail")
		}
	})

	t.Run("shell captures output", func(t *testing.T) {
		tool := ShellTool{WorkDir: t.TempDir()}
		ctx := context.Background()

		out, err := tool.Execute(ctx, map[string]any{"command": "echo shell-ok"})
		if err != nil {
			t.Fatalf("shell err = %v", err)
		}
		if out != "shell-ok\n" {
			t.Errorf("shell output = %q", out)
		}
		if _, err := tool.Execute(ctx, map[string]any{"command": "   "}); err == nil {
			t.Error("blank command should fail")
		}
		if _, err := tool.Execute(ctx, map[string]any{"command": "exit 3"}); err == nil {
			t.Error("failing command should surface an error")
		}
	})

	t.Run("web fetches a url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/missing" {
				http.NotFound(w, r)
				return
			}
			fmt.Fprint(w, "web-ok")
		}))
		defer srv.Close()

		tool := WebTool{Client: srv.Client()}
		ctx := context.Background()

		out, err := tool.Execute(ctx, map[string]any{"url": srv.URL})
		if err != nil || out != "web-ok" {
			t.Errorf("web = %q, %v", out, err)
		}
		if _, err := tool.Execute(ctx, map[string]any{"url": srv.URL + "/missing"}); err == nil {
			t.Error("404 should surface an error")
		}
		if _, err := tool.Execute(ctx, nil); err == nil {
			t.Error("missing url should fail")
		}
	})
}
