package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abhaymundhara/ChatDock-sub000/internal/config"
	"github.com/abhaymundhara/ChatDock-sub000/internal/engine"
	"github.com/abhaymundhara/ChatDock-sub000/internal/events"
	"github.com/abhaymundhara/ChatDock-sub000/internal/persistence"
	"github.com/abhaymundhara/ChatDock-sub000/internal/planner"
	"github.com/abhaymundhara/ChatDock-sub000/internal/specialist"
	"github.com/abhaymundhara/ChatDock-sub000/internal/taskgraph"
	"github.com/abhaymundhara/ChatDock-sub000/internal/tools"
	"github.com/abhaymundhara/ChatDock-sub000/internal/tui"
)

const usage = `chatdock - dependency-aware task orchestration

Usage:
  chatdock run [-plan file.json] [-request "text"] [-headless]
  chatdock history [-limit N]
  chatdock init-config

run          plan and execute a request (a plan file skips the model planner)
history      list recent runs from the history database
init-config  write the default configuration to ~/.chatdock/config.json
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runCmd(os.Args[2:])
	case "history":
		err = historyCmd(os.Args[2:])
	case "init-config":
		err = initConfigCmd()
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCmd(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	planPath := fs.String("plan", "", "JSON plan file; skips the model planner")
	request := fs.String("request", "", "request to plan and execute")
	headless := fs.Bool("headless", false, "print results instead of the dashboard")
	fs.Parse(args)

	if *planPath == "" && *request == "" {
		return fmt.Errorf("run needs -plan or -request")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadDefault()
	if err != nil {
		return err
	}

	pm := specialist.NewProcessManager()
	go func() {
		<-ctx.Done()
		if err := pm.KillAll(); err != nil {
			log.Printf("WARNING: killing subprocesses: %v", err)
		}
	}()

	bus := events.NewBus()
	defer bus.Close()

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	registry := newToolRegistry(workDir)
	for role, sp := range cfg.Specialists {
		if err := registry.ValidateNames(sp.Tools); err != nil {
			log.Printf("WARNING: specialist %q: %v", role, err)
		}
	}

	var hist engine.HistoryStore
	if cfg.History.Path != "" {
		store, err := persistence.NewSQLiteStore(ctx, cfg.History.Path)
		if err != nil {
			log.Printf("WARNING: run history disabled: %v", err)
		} else {
			defer store.Close()
			hist = store
		}
	}

	factory := specialist.NewCLIFactory(cfg.Provider, workDir, pm)
	dispatcher := specialist.NewDispatcher(cfg, factory, registry, bus)
	eng := engine.New(cfg, dispatcher, bus, hist)

	var p planner.Planner
	if *planPath != "" {
		p = planner.FilePlanner{Path: *planPath}
	} else {
		p = planner.ModelPlanner{NewCompleter: func() (specialist.Completer, error) {
			return specialist.NewCLICompleter(cfg.Provider, config.SpecialistConfig{}, workDir, pm)
		}}
	}

	records, err := p.Plan(ctx, *request)
	if err != nil {
		return fmt.Errorf("planning: %w", err)
	}

	if *headless {
		report, runErr := eng.RunGraph(ctx, *request, records)
		if report != nil {
			printReport(report)
		}
		return runErr
	}

	return runWithDashboard(ctx, stop, eng, bus, *request, records)
}

// runWithDashboard drives the engine behind the live TUI. The engine
// publishes to the bus; the TUI is a pure consumer.
// newToolRegistry registers every built-in tool, covering all names the
// default specialist allowlists reference.
func newToolRegistry(workDir string) *tools.Registry {
	registry := tools.NewRegistry()
	registry.Register(tools.PlanTool{})
	registry.Register(tools.DiscoverTool{Root: workDir})
	registry.Register(tools.FileTool{Root: workDir})
	registry.Register(tools.ShellTool{WorkDir: workDir, Timeout: 2 * time.Minute})
	registry.Register(tools.WebTool{})
	registry.Register(tools.EchoTool{})
	return registry
}

func runWithDashboard(ctx context.Context, stop context.CancelFunc, eng *engine.Engine, bus *events.Bus, request string, records []taskgraph.Record) error {
	prog := tea.NewProgram(tui.New(bus), tea.WithAltScreen())

	tuiErr := make(chan error, 1)
	go func() {
		_, err := prog.Run()
		tuiErr <- err
	}()

	type runOutcome struct {
		report *engine.RunReport
		err    error
	}
	done := make(chan runOutcome, 1)
	go func() {
		report, err := eng.RunGraph(ctx, request, records)
		done <- runOutcome{report, err}
	}()

	var outcome runOutcome
	select {
	case outcome = <-done:
		// Leave the final frame up briefly, then close the dashboard.
		time.Sleep(500 * time.Millisecond)
		prog.Quit()
		if err := <-tuiErr; err != nil {
			log.Printf("WARNING: dashboard exit: %v", err)
		}
	case err := <-tuiErr:
		// User quit the dashboard; stop the run.
		stop()
		if err != nil {
			log.Printf("WARNING: dashboard exit: %v", err)
		}
		outcome = <-done
	}

	if outcome.report != nil {
		printReport(outcome.report)
	}
	return outcome.err
}

func printReport(report *engine.RunReport) {
	fmt.Printf("run %s: %d tasks, %d succeeded, %d failed",
		report.RunID, report.Summary.Total, report.Summary.Succeeded, report.Summary.Failed)
	if len(report.Summary.Unreachable) > 0 {
		fmt.Printf(", %d unreachable", len(report.Summary.Unreachable))
	}
	fmt.Printf(" (%v)\n", report.Duration.Round(time.Millisecond))

	for _, res := range report.Results {
		status := "ok"
		if !res.Success {
			status = "FAILED"
		}
		fmt.Printf("  %-8s %s [%s] attempts=%d %v\n",
			status, res.TaskID, res.Assignee, res.Attempts, res.Duration.Round(time.Millisecond))
		if res.Err != nil {
			fmt.Printf("           %v\n", res.Err)
		}
	}
	for _, id := range report.Summary.Unreachable {
		fmt.Printf("  blocked  %s (dependency failed)\n", id)
	}
}

func historyCmd(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 20, "maximum runs to list")
	fs.Parse(args)

	cfg, err := config.LoadDefault()
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return fmt.Errorf("run history is disabled (no history.path configured)")
	}

	ctx := context.Background()
	store, err := persistence.NewSQLiteStore(ctx, cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(ctx, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %s  %d/%d ok", run.StartedAt.Format(time.RFC3339), run.ID, run.Succeeded, run.Total)
		if run.Failed > 0 {
			fmt.Printf(", %d failed", run.Failed)
		}
		if run.Unreachable > 0 {
			fmt.Printf(", %d unreachable", run.Unreachable)
		}
		fmt.Printf("  %q\n", run.Request)
	}
	return nil
}

func initConfigCmd() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("getting home directory: %w", err)
	}

	path := filepath.Join(homeDir, ".chatdock", "config.json")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	if err := config.Save(config.DefaultConfig(), path); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
