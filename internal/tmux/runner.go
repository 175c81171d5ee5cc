package tmux

import (
	"os/exec"
	"strings"
)

// Runner abstracts subprocess execution so the client can be tested
// without a live tmux server.
type Runner interface {
	Run(name string, args ...string) (string, error)
}

// ExecRunner implements Runner using os/exec.
type ExecRunner struct{}

// Run executes a command and returns its combined output, trimmed.
func (ExecRunner) Run(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}
