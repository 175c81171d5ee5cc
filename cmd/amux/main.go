// Command amux manages long-lived, tmux-hosted agent work sessions.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/amux-sh/amux/internal/config"
	"github.com/amux-sh/amux/internal/logging"
	"github.com/amux-sh/amux/internal/session"
	"github.com/amux-sh/amux/internal/tmux"
)

var log = logging.ForComponent(logging.CompCLI)

const Version = "0.3.1"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "amux: %v\n", err)
		return 1
	}

	logDir := ""
	if cfg.Log.Debug {
		logDir, _ = config.Dir()
	}
	logging.Init(logging.Config{
		LogDir: logDir,
		Level:  cfg.Log.Level,
		Debug:  cfg.Log.Debug,
	})
	defer logging.Shutdown()

	host := tmux.NewClient()
	if !host.IsAvailable() {
		fmt.Fprintln(os.Stderr, "amux: tmux not found in PATH")
		return 1
	}

	stateDir, err := config.StateDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "amux: %v\n", err)
		return 1
	}
	orch := session.NewOrchestrator(host, session.NewTracker(stateDir), cfg)

	if len(args) == 0 {
		return exitCode(orch.Open())
	}
	log.Debug("dispatch", slog.String("command", args[0]))

	switch args[0] {
	case "version", "--version", "-v":
		fmt.Printf("amux %s\n", Version)
		return 0
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "-", "last":
		return exitCode(orch.Toggle())
	case "list", "ls":
		return exitCode(listCmd(orch, args[1:]))
	case "clone":
		return exitCode(cloneCmd(orch, args[1:]))
	case "kill":
		return exitCode(killCmd(orch, args[1:]))
	case "send":
		return exitCode(sendCmd(orch, args[1:]))
	default:
		return exitCode(openCmd(orch, args))
	}
}

// openCmd handles `amux <name> [path]` with optional agent/prompt flags.
func openCmd(orch *session.Orchestrator, args []string) error {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	agentKind := fs.String("agent", "", "agent kind for a new session")
	prompt := fs.String("prompt", "", "initial prompt for the agent")
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New("session name missing")
	}
	name := rest[0]
	path := ""
	if len(rest) > 1 {
		path = rest[1]
	}
	return orch.OpenNamed(name, path, *agentKind, *prompt)
}

func listCmd(orch *session.Orchestrator, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "machine-readable output")
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		return err
	}

	records, err := orch.Registry().List()
	if err != nil {
		return err
	}
	if *asJSON {
		type row struct {
			Name   string `json:"name"`
			Path   string `json:"path"`
			Agent  string `json:"agent,omitempty"`
			Status string `json:"status"`
		}
		rows := make([]row, 0, len(records))
		for _, rec := range records {
			rows = append(rows, row{rec.Name, rec.Path, rec.Agent, string(rec.Status)})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(records) == 0 {
		fmt.Println("no sessions")
		return nil
	}
	for _, line := range session.DisplayLines(records) {
		fmt.Println(line)
	}
	return nil
}

func cloneCmd(orch *session.Orchestrator, args []string) error {
	fs := flag.NewFlagSet("clone", flag.ContinueOnError)
	agentKind := fs.String("agent", "", "agent kind for the new session")
	prompt := fs.String("prompt", "", "initial prompt for the agent")
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("clone URL missing")
	}
	return orch.Clone(fs.Arg(0), *agentKind, *prompt)
}

func killCmd(orch *session.Orchestrator, args []string) error {
	fs := flag.NewFlagSet("kill", flag.ContinueOnError)
	all := fs.Bool("all", false, "kill every amux session")
	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		return err
	}
	switch {
	case *all:
		return orch.KillAll()
	case fs.NArg() > 0:
		return orch.KillNamed(fs.Arg(0))
	default:
		return orch.KillPicker()
	}
}

func sendCmd(orch *session.Orchestrator, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: amux send <name> <text>")
	}
	return orch.Send(args[0], args[1])
}

// exitCode maps the error taxonomy onto process exit codes. User aborts
// are clean but still non-zero; everything else gets one line on stderr.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, session.ErrCancelled):
		fmt.Fprintln(os.Stderr, "cancelled")
		return 1
	case errors.Is(err, session.ErrNoPrevious):
		fmt.Fprintln(os.Stderr, "no previous session to toggle to")
		return 1
	default:
		fmt.Fprintf(os.Stderr, "amux: %v\n", err)
		return 1
	}
}

func printUsage() {
	fmt.Print(`amux - tmux session manager for coding agents

Usage:
  amux                     smart action: prompt, attach, or pick
  amux <name> [path]       create or attach a named session
  amux -                   toggle to the previous session
  amux list [--json]       list sessions with status
  amux clone <url>         clone a repository and open a session for it
  amux kill [name|--all]   kill a session (picker when no name)
  amux send <name> <text>  type a command line into a session
  amux version             print version

Flags for amux <name> and amux clone:
  --agent <kind>           agent to launch (claude, codex, gemini, opencode)
  --prompt <text>          initial prompt passed to the agent
`)
}
