package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoPrevious is returned by Previous when no toggle target exists.
var ErrNoPrevious = errors.New("no previous session")

const (
	currentFile  = "last"
	previousFile = "prev"
)

// Tracker persists a two-slot ring (current, previous) across
// invocations so "toggle to the session I was in before" works. The two
// slots are two small whole-string files; concurrent invocations racing
// on them is an accepted inconsistency, not something worth a lock.
type Tracker struct {
	dir string
}

// NewTracker returns a Tracker rooted at the given state directory.
func NewTracker(dir string) *Tracker {
	return &Tracker{dir: dir}
}

// Track records name as the current session, rotating the old current
// into the previous slot. Tracking the already-current name is a no-op:
// a repeated attach must not destroy the previous pointer.
func (t *Tracker) Track(name string) error {
	current := t.read(currentFile)
	if current == name {
		return nil
	}
	if err := os.MkdirAll(t.dir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	if err := t.write(previousFile, current); err != nil {
		return err
	}
	return t.write(currentFile, name)
}

// Current returns the current slot, empty when unset.
func (t *Tracker) Current() string {
	return t.read(currentFile)
}

// Previous returns the toggle target. ErrNoPrevious when the slot is
// missing or empty; existence on the host is the caller's check.
func (t *Tracker) Previous() (string, error) {
	prev := t.read(previousFile)
	if prev == "" {
		return "", ErrNoPrevious
	}
	return prev, nil
}

func (t *Tracker) read(file string) string {
	data, err := os.ReadFile(filepath.Join(t.dir, file))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (t *Tracker) write(file, value string) error {
	path := filepath.Join(t.dir, file)
	if err := os.WriteFile(path, []byte(value+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", file, err)
	}
	return nil
}
