package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amux-sh/amux/internal/tmux"
)

const paneQuery = "#{pane_current_command}\t#{pane_dead}"

func stubAgentEnv(fake *fakeRunner, session, kind string) {
	fake.stub("AMUX_AGENT="+kind, nil, "show-environment", "-t", "="+session, "AMUX_AGENT")
}

func TestClassifyMissingSessionIsDead(t *testing.T) {
	fake := newFakeRunner()
	fake.stub("can't find session: =amux_gone", errors.New("exit status 1"),
		"list-panes", "-t", "=amux_gone", "-F", paneQuery)

	c := NewClassifier(tmux.NewClientWithRunner(fake))
	assert.Equal(t, StatusDead, c.Classify("amux_gone"))
}

func TestClassifyAgentForegroundIsActive(t *testing.T) {
	fake := newFakeRunner()
	fake.stub("claude\t0", nil, "list-panes", "-t", "=amux_work", "-F", paneQuery)
	stubAgentEnv(fake, "amux_work", "claude")

	c := NewClassifier(tmux.NewClientWithRunner(fake))
	assert.Equal(t, StatusActive, c.Classify("amux_work"))
}

func TestClassifyAllPanesDeadIsDead(t *testing.T) {
	fake := newFakeRunner()
	fake.stub("bash\t1\nbash\t1", nil, "list-panes", "-t", "=amux_work", "-F", paneQuery)
	stubAgentEnv(fake, "amux_work", "claude")

	c := NewClassifier(tmux.NewClientWithRunner(fake))
	assert.Equal(t, StatusDead, c.Classify("amux_work"))
}

func TestClassifyLivePaneWithoutAgentIsIdle(t *testing.T) {
	fake := newFakeRunner()
	fake.stub("zsh\t0", nil, "list-panes", "-t", "=amux_work", "-F", paneQuery)
	stubAgentEnv(fake, "amux_work", "claude")

	c := NewClassifier(tmux.NewClientWithRunner(fake))
	assert.Equal(t, StatusIdle, c.Classify("amux_work"))
}

func TestClassifyUnknownAgentUsesFallbackName(t *testing.T) {
	fake := newFakeRunner()
	fake.stub("node\t0", nil, "list-panes", "-t", "=amux_work", "-F", paneQuery)
	stubAgentEnv(fake, "amux_work", "mystery")

	c := NewClassifier(tmux.NewClientWithRunner(fake))
	assert.Equal(t, StatusActive, c.Classify("amux_work"))
}

func TestClassifyMissingAgentEnvUsesFallbackName(t *testing.T) {
	fake := newFakeRunner()
	fake.stub("node\t0", nil, "list-panes", "-t", "=amux_work", "-F", paneQuery)
	fake.stub("unknown variable", errors.New("exit status 1"),
		"show-environment", "-t", "=amux_work", "AMUX_AGENT")

	c := NewClassifier(tmux.NewClientWithRunner(fake))
	assert.Equal(t, StatusActive, c.Classify("amux_work"))
}

func TestClassifyMixedDeadAndLiveIsIdle(t *testing.T) {
	fake := newFakeRunner()
	fake.stub("bash\t1\nzsh\t0", nil, "list-panes", "-t", "=amux_work", "-F", paneQuery)
	stubAgentEnv(fake, "amux_work", "claude")

	c := NewClassifier(tmux.NewClientWithRunner(fake))
	assert.Equal(t, StatusIdle, c.Classify("amux_work"))
}
