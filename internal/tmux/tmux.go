// Package tmux wraps the tmux session host via subprocess calls.
//
// All session targets use the "=" prefix for exact-match addressing:
// without it tmux prefix-matches, so checking for "work" would match a
// session named "work-api". Names are sanitized before use because tmux
// parses "." and ":" inside targets even with exact matching.
package tmux

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/amux-sh/amux/internal/logging"
)

var log = logging.ForComponent(logging.CompTmux)

// SessionPrefix marks sessions managed by amux.
const SessionPrefix = "amux_"

// Environment variable keys injected into every managed session.
const (
	EnvAgent = "AMUX_AGENT"
	EnvPath  = "AMUX_PATH"
)

// Common errors.
var (
	ErrNoServer        = errors.New("no tmux server running")
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionNotFound = errors.New("session not found")
	ErrEnvNotSet       = errors.New("environment variable not set")
)

// PaneStatus is one pane's liveness snapshot from a single combined
// list-panes query. Command and Dead come from the same call so a session
// closing between two separate queries cannot skew classification.
type PaneStatus struct {
	Command string // #{pane_current_command}
	Dead    bool   // #{pane_dead}
}

// Client issues commands against the tmux server.
type Client struct {
	runner Runner
}

// NewClient returns a Client backed by real subprocess execution.
func NewClient() *Client {
	return &Client{runner: ExecRunner{}}
}

// NewClientWithRunner returns a Client using the given runner. Used by
// tests and by callers that need to intercept tmux invocations.
func NewClientWithRunner(r Runner) *Client {
	return &Client{runner: r}
}

// run invokes tmux and classifies common failure modes into sentinel errors.
func (c *Client) run(args ...string) (string, error) {
	out, err := c.runner.Run("tmux", args...)
	if err == nil {
		return out, nil
	}
	lower := strings.ToLower(out)
	switch {
	case strings.Contains(lower, "no server running"),
		strings.Contains(lower, "error connecting to"):
		return out, ErrNoServer
	case strings.Contains(lower, "can't find session"),
		strings.Contains(lower, "session not found"),
		strings.Contains(lower, "no such session"):
		return out, ErrSessionNotFound
	case strings.Contains(lower, "duplicate session"):
		return out, ErrSessionExists
	}
	return out, fmt.Errorf("tmux %s: %w (%s)", args[0], err, out)
}

// SanitizeName rewrites characters tmux treats as target separators to
// underscores. "." and ":" address windows and panes inside a target, so
// a session literally named "v1.2" would be parsed as session "v1",
// window "2" even with exact-match addressing.
func SanitizeName(name string) string {
	r := strings.NewReplacer(".", "_", ":", "_", " ", "_", "\t", "_")
	return r.Replace(strings.TrimSpace(name))
}

// InsideTmux reports whether the current process runs inside a tmux client.
func InsideTmux() bool {
	return os.Getenv("TMUX") != ""
}

// IsAvailable checks that tmux is installed and can be invoked.
func (c *Client) IsAvailable() bool {
	_, err := c.runner.Run("tmux", "-V")
	return err == nil
}

// ListSessions returns the names of all amux-managed sessions, in the
// server's order. No server means no sessions, not an error.
func (c *Client) ListSessions() ([]string, error) {
	out, err := c.run("list-sessions", "-F", "#{session_name}")
	if err != nil {
		if errors.Is(err, ErrNoServer) {
			return nil, nil
		}
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, SessionPrefix) {
			names = append(names, line)
		}
	}
	return names, nil
}

// HasSession checks if a session exists, using exact-match addressing.
func (c *Client) HasSession(name string) (bool, error) {
	_, err := c.run("has-session", "-t", "="+name)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNoServer) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewSession creates a detached session rooted at workDir. Fails with
// ErrSessionExists if the name is already taken.
func (c *Client) NewSession(name, workDir string) error {
	if exists, err := c.HasSession(name); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("%w: %s", ErrSessionExists, name)
	}
	_, err := c.run("new-session", "-d", "-s", name, "-c", workDir)
	if err != nil {
		return fmt.Errorf("creating session %s: %w", name, err)
	}
	log.Debug("session_created", slog.String("session", name), slog.String("dir", workDir))
	return nil
}

// KillSession destroys a session.
func (c *Client) KillSession(name string) error {
	_, err := c.run("kill-session", "-t", "="+name)
	if err != nil {
		return fmt.Errorf("killing session %s: %w", name, err)
	}
	log.Debug("session_killed", slog.String("session", name))
	return nil
}

// SendKeys types text into the session followed by Enter. The literal
// flag prevents tmux from interpreting the text as key names.
func (c *Client) SendKeys(name, text string) error {
	if _, err := c.run("send-keys", "-t", "="+name, "-l", text); err != nil {
		return err
	}
	_, err := c.run("send-keys", "-t", "="+name, "Enter")
	return err
}

// SetEnvironment sets a session environment variable.
func (c *Client) SetEnvironment(name, key, value string) error {
	_, err := c.run("set-environment", "-t", "="+name, key, value)
	return err
}

// GetEnvironment reads a session environment variable. Returns
// ErrEnvNotSet when the variable is absent.
func (c *Client) GetEnvironment(name, key string) (string, error) {
	out, err := c.run("show-environment", "-t", "="+name, key)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrEnvNotSet, key)
	}
	// Output format: "KEY=value" or "-KEY" when unset.
	prefix := key + "="
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimPrefix(line, prefix), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrEnvNotSet, key)
}

// PaneStatuses returns the foreground command and dead flag of every pane
// in one combined query. A missing session (or no server) yields an empty
// slice, which callers classify as dead.
func (c *Client) PaneStatuses(name string) ([]PaneStatus, error) {
	out, err := c.run("list-panes", "-t", "="+name, "-F", "#{pane_current_command}\t#{pane_dead}")
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNoServer) {
			return nil, nil
		}
		return nil, err
	}
	var panes []PaneStatus
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		p := PaneStatus{Command: parts[0]}
		if len(parts) == 2 {
			p.Dead = parts[1] == "1"
		}
		panes = append(panes, p)
	}
	return panes, nil
}

// CurrentPath returns the live working directory of the session's active
// pane, or empty when unavailable (e.g. the session has no live panes).
func (c *Client) CurrentPath(name string) string {
	out, err := c.run("display-message", "-p", "-t", "="+name, "#{pane_current_path}")
	if err != nil {
		return ""
	}
	return out
}

// SetRemainOnExit keeps the pane visible after its process exits. This is
// what makes "all panes dead" observable: without it tmux destroys the
// pane and a crashed session is indistinguishable from a missing one.
func (c *Client) SetRemainOnExit(name string, on bool) error {
	value := "on"
	if !on {
		value = "off"
	}
	_, err := c.run("set-option", "-t", "="+name, "remain-on-exit", value)
	return err
}

// SetRespawnHook configures a pane-died hook that restarts the pane's
// command after a short debounce. respawn-pane resets remain-on-exit to
// off, so the hook re-enables it for continuous recovery.
func (c *Client) SetRespawnHook(name string) error {
	safe := strings.ReplaceAll(name, "'", "'\\''")
	hookCmd := fmt.Sprintf(
		`run-shell "sleep 2 && tmux respawn-pane -k -t '=%s' && tmux set-option -t '=%s' remain-on-exit on"`,
		safe, safe)
	_, err := c.run("set-hook", "-t", "="+name, "pane-died", hookCmd)
	return err
}

// Attach connects the caller's terminal to the session. Inside an
// existing tmux client it switches instead, since nesting attach fails.
// The subprocess inherits stdio directly; it owns the terminal until the
// user detaches.
func (c *Client) Attach(name string) error {
	var cmd *exec.Cmd
	if InsideTmux() {
		cmd = exec.Command("tmux", "switch-client", "-t", "="+name)
	} else {
		cmd = exec.Command("tmux", "attach-session", "-t", "="+name)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("attaching to %s: %w", name, err)
	}
	return nil
}
