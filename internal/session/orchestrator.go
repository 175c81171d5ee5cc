package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/amux-sh/amux/internal/agent"
	"github.com/amux-sh/amux/internal/config"
	"github.com/amux-sh/amux/internal/git"
	"github.com/amux-sh/amux/internal/project"
	"github.com/amux-sh/amux/internal/selector"
	"github.com/amux-sh/amux/internal/tmux"
)

// ErrCancelled marks a user abort: cancel key, bare Escape, declined
// prompt, or a picker emptied by deletion. Not a diagnostic condition.
var ErrCancelled = errors.New("cancelled")

// PickFunc presents options and returns the chosen one. ok is false on
// cancellation. A non-nil onDelete enables in-place deletion.
type PickFunc func(prompt string, options []string, onDelete func(id string) error) (choice string, ok bool, err error)

// Orchestrator is the top-level policy layer deciding between create, attach,
// and picker flows.
type Orchestrator struct {
	host     *tmux.Client
	registry *Registry
	tracker  *Tracker
	cfg      *config.Config

	// pick, attach, and the git lookups are swappable for tests.
	pick      PickFunc
	attach    func(hostName string) error
	repoRoot  func(dir string) string
	remoteURL func(dir string) (string, error)

	in     io.Reader
	out    io.Writer
	reader *bufio.Reader // lazily wraps in; one reader so no buffered input is lost
}

// NewOrchestrator wires the default interactive picker and host attach.
func NewOrchestrator(host *tmux.Client, tracker *Tracker, cfg *config.Config) *Orchestrator {
	o := &Orchestrator{
		host:      host,
		registry:  NewRegistry(host),
		tracker:   tracker,
		cfg:       cfg,
		attach:    host.Attach,
		repoRoot:  git.RootName,
		remoteURL: git.RemoteURL,
		in:        os.Stdin,
		out:       os.Stdout,
	}
	o.pick = func(prompt string, options []string, onDelete func(string) error) (string, bool, error) {
		return selector.Run(prompt, options, selector.Options{
			DeleteEnabled: onDelete != nil,
			OnDelete:      onDelete,
		})
	}
	return o
}

// Registry exposes the listing surface for the CLI list command.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Open is the zero-argument smart action: prompt for a new session when
// none exist, attach directly when exactly one does, otherwise present
// the picker.
func (o *Orchestrator) Open() error {
	records, err := o.registry.List()
	if err != nil {
		return err
	}
	switch len(records) {
	case 0:
		return o.promptNewSession()
	case 1:
		return o.attachTo(records[0].Name)
	default:
		choice, ok, err := o.pick("Select a session", DisplayLines(records), nil)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCancelled
		}
		return o.attachTo(selector.Identity(choice))
	}
}

// OpenNamed attaches to name when it exists, else creates it. An empty
// path is auto-filled from the project roots, falling back to the
// current directory. kind defaults to the configured agent.
func (o *Orchestrator) OpenNamed(name, path, kind, prompt string) error {
	sanitized := tmux.SanitizeName(name)
	exists, err := o.host.HasSession(tmux.SessionPrefix + sanitized)
	if err != nil {
		return err
	}
	if exists {
		return o.attachTo(sanitized)
	}

	if path == "" {
		if resolved, ok := project.Resolve(name, o.cfg.ProjectRoots); ok {
			path = resolved
		} else if path, err = os.Getwd(); err != nil {
			return err
		}
	}
	path = config.ExpandHome(path)
	if err := o.ensureDir(path); err != nil {
		return err
	}
	return o.create(sanitized, path, kind, prompt)
}

// Toggle attaches to the previous session. Re-tracking the target before
// attaching rotates the pair, so toggling twice returns to the start.
func (o *Orchestrator) Toggle() error {
	prev, err := o.tracker.Previous()
	if err != nil {
		return err
	}
	exists, err := o.host.HasSession(tmux.SessionPrefix + prev)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", tmux.ErrSessionNotFound, prev)
	}
	return o.attachTo(prev)
}

// Clone clones url under the first project root (or the current
// directory) and opens a session named after the repository.
func (o *Orchestrator) Clone(url, kind, prompt string) error {
	if url == "" {
		return errors.New("clone URL missing")
	}
	root := ""
	if len(o.cfg.ProjectRoots) > 0 {
		root = o.cfg.ProjectRoots[0]
	} else if cwd, err := os.Getwd(); err == nil {
		root = cwd
	}
	name := git.RepoNameFromURL(url)
	if name == "" {
		return fmt.Errorf("cannot derive a name from %q", url)
	}
	dest := filepath.Join(root, name)
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		if err := git.Clone(url, dest); err != nil {
			return err
		}
	} else {
		// an existing checkout is reused only when its origin matches
		origin, err := o.remoteURL(dest)
		if err != nil {
			return fmt.Errorf("%s exists but %w", dest, err)
		}
		if !sameRepoURL(origin, url) {
			return fmt.Errorf("%s already tracks %s, not %s", dest, origin, url)
		}
	}
	return o.OpenNamed(name, dest, kind, prompt)
}

// KillNamed destroys one session by user-facing name.
func (o *Orchestrator) KillNamed(name string) error {
	hostName := tmux.SessionPrefix + tmux.SanitizeName(name)
	exists, err := o.host.HasSession(hostName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", tmux.ErrSessionNotFound, name)
	}
	return o.host.KillSession(hostName)
}

// KillAll destroys every managed session.
func (o *Orchestrator) KillAll() error {
	names, err := o.host.ListSessions()
	if err != nil {
		return err
	}
	for _, hostName := range names {
		if err := o.host.KillSession(hostName); err != nil {
			return err
		}
	}
	fmt.Fprintf(o.out, "killed %d session(s)\n", len(names))
	return nil
}

// KillPicker presents a delete-enabled picker: d kills in place, Enter
// kills the highlighted session and exits.
func (o *Orchestrator) KillPicker() error {
	records, err := o.registry.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(o.out, "no sessions")
		return nil
	}
	choice, ok, err := o.pick("Kill a session", DisplayLines(records), func(id string) error {
		return o.host.KillSession(tmux.SessionPrefix + id)
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return o.host.KillSession(tmux.SessionPrefix + selector.Identity(choice))
}

// Send injects a command line into a session as if typed.
func (o *Orchestrator) Send(name, text string) error {
	hostName := tmux.SessionPrefix + tmux.SanitizeName(name)
	exists, err := o.host.HasSession(hostName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", tmux.ErrSessionNotFound, name)
	}
	return o.host.SendKeys(hostName, text)
}

// attachTo records the attach in the last-session ring, then hands the
// terminal to the host. Tracking failures are logged, not fatal: a
// broken state file must not block attaching.
func (o *Orchestrator) attachTo(name string) error {
	if err := o.tracker.Track(name); err != nil {
		log.Warn("track_failed", slog.String("session", name), slog.String("error", err.Error()))
	}
	return o.attach(tmux.SessionPrefix + name)
}

// create builds and launches a new hosted session: created detached,
// tagged with agent and path env vars, made crash-resilient via
// remain-on-exit plus the respawn hook, then fed the launch command.
func (o *Orchestrator) create(sanitized, path, kind, prompt string) error {
	if kind == "" {
		kind = o.cfg.DefaultAgent
	}
	profile, ok := agent.Lookup(kind)
	if !ok {
		// a configured command makes an unknown kind a custom agent
		if cmd := o.cfg.CommandOverride(kind); cmd != "" {
			profile = agent.Custom(kind, cmd)
		} else {
			return fmt.Errorf("unknown agent %q (known: %s)", kind, strings.Join(agent.Kinds(), ", "))
		}
	}

	hostName := tmux.SessionPrefix + sanitized
	if err := o.host.NewSession(hostName, path); err != nil {
		return err
	}
	if err := o.host.SetEnvironment(hostName, tmux.EnvAgent, kind); err != nil {
		return err
	}
	if err := o.host.SetEnvironment(hostName, tmux.EnvPath, path); err != nil {
		return err
	}
	if err := o.host.SetRemainOnExit(hostName, true); err != nil {
		return err
	}
	if err := o.host.SetRespawnHook(hostName); err != nil {
		return err
	}

	launch := profile.BuildLaunchCommand(o.cfg.CommandOverride(kind), path, prompt)
	if err := o.host.SendKeys(hostName, launch); err != nil {
		return err
	}
	log.Info("session_started",
		slog.String("session", hostName),
		slog.String("agent", kind),
		slog.String("path", path))
	return o.attachTo(sanitized)
}

// promptNewSession interactively collects a name and path when no
// sessions exist yet. The name defaults to the enclosing repository's
// root name when the current directory is inside one; the path defaults
// to the current directory.
func (o *Orchestrator) promptNewSession() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	defName := o.repoRoot(cwd)
	if defName != "" {
		fmt.Fprintf(o.out, "Session name [%s]: ", defName)
	} else {
		fmt.Fprint(o.out, "Session name: ")
	}
	name, err := o.readLine()
	if err != nil {
		return ErrCancelled
	}
	if name == "" {
		name = defName
	}
	if name == "" {
		return ErrCancelled
	}

	fmt.Fprintf(o.out, "Path [%s]: ", HomeDisplay(cwd))
	path, err := o.readLine()
	if err != nil {
		return ErrCancelled
	}
	if path == "" {
		path = cwd
	}
	path = config.ExpandHome(path)
	if err := o.ensureDir(path); err != nil {
		return err
	}
	return o.create(tmux.SanitizeName(name), path, o.cfg.DefaultAgent, "")
}

// ensureDir asks before creating a missing project directory; declining
// is a user abort.
func (o *Orchestrator) ensureDir(path string) error {
	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", path)
		}
		return nil
	}
	fmt.Fprintf(o.out, "Create %s? [y/N] ", HomeDisplay(path))
	answer, err := o.readLine()
	if err != nil {
		return ErrCancelled
	}
	answer = strings.ToLower(answer)
	if answer != "y" && answer != "yes" {
		return ErrCancelled
	}
	return os.MkdirAll(path, 0o755)
}

// sameRepoURL compares clone URLs ignoring a trailing slash or ".git".
func sameRepoURL(a, b string) bool {
	trim := func(u string) string {
		return strings.TrimSuffix(strings.TrimRight(u, "/"), ".git")
	}
	return trim(a) == trim(b)
}

func (o *Orchestrator) readLine() (string, error) {
	if o.reader == nil {
		o.reader = bufio.NewReader(o.in)
	}
	line, err := o.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
