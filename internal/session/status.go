package session

import (
	"log/slog"

	"github.com/amux-sh/amux/internal/agent"
	"github.com/amux-sh/amux/internal/logging"
	"github.com/amux-sh/amux/internal/tmux"
)

var log = logging.ForComponent(logging.CompSession)

// Status classifies a hosted session's liveness.
type Status string

const (
	StatusActive Status = "active" // agent process is in the foreground of some pane
	StatusIdle   Status = "idle"   // panes live but the agent is not running (e.g. shell prompt)
	StatusDead   Status = "dead"   // session gone, or every pane's process has exited
)

// Classifier decides a session's Status from a single combined pane
// query. Liveness is matched by process name against the recorded agent
// kind's profile; this string match is the contract, deliberately not
// anything cleverer.
type Classifier struct {
	host *tmux.Client
}

// NewClassifier returns a Classifier querying the given host.
func NewClassifier(host *tmux.Client) *Classifier {
	return &Classifier{host: host}
}

// Classify is total: every outcome, including query failure, maps to one
// of the three statuses. The pane command and dead flag come from one
// list-panes call; two separate queries could race against the session
// closing between them.
func (c *Classifier) Classify(sessionName string) Status {
	panes, err := c.host.PaneStatuses(sessionName)
	if err != nil {
		log.Debug("pane_query_failed", slog.String("session", sessionName), slog.String("error", err.Error()))
		return StatusDead
	}
	if len(panes) == 0 {
		return StatusDead
	}

	expected := agent.DefaultProcessName
	if kind, err := c.host.GetEnvironment(sessionName, tmux.EnvAgent); err == nil && kind != "" {
		expected = agent.ProcessNameFor(kind)
	}

	allDead := true
	for _, p := range panes {
		if !p.Dead {
			allDead = false
		}
		if p.Command == expected {
			return StatusActive
		}
	}
	// remain-on-exit keeps exited panes visible, so "every pane dead" is
	// a real crash signal rather than a briefly idle process.
	if allDead {
		return StatusDead
	}
	return StatusIdle
}
