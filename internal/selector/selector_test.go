package selector

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"
)

func TestIdentity(t *testing.T) {
	cases := map[string]string{
		"work  ~/proj/work  claude  idle": "work",
		"plain":                           "plain",
		"name-only  ":                     "name-only",
		"a  b  c":                         "a",
	}
	for in, want := range cases {
		assert.Equal(t, want, Identity(in))
	}
}

type runResult struct {
	selected string
	ok       bool
	err      error
}

// syncBuffer collects picker output from the pty master without racing
// the drain goroutine.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

const showCursorSeq = "\x1b[?25h"

// waitForOutput polls the captured output until seq appears; the drain
// goroutine may lag a moment behind Run returning.
func waitForOutput(t *testing.T, out *syncBuffer, seq string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), seq) {
		if time.Now().After(deadline) {
			t.Fatalf("sequence %q never written", seq)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// runPicker drives Run on a pty, typing the given bytes after the picker
// has taken the terminal. The master side is drained so rendering writes
// never block. Whatever path Run exits through, the terminal mode must
// equal its pre-call state and the cursor must have been re-shown, so
// both are asserted here for every test.
func runPicker(t *testing.T, options []string, opt Options, keys []byte) runResult {
	t.Helper()
	master, tty, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() {
		master.Close()
		tty.Close()
	})
	out := &syncBuffer{}
	go io.Copy(out, master) //nolint:errcheck

	before, err := term.GetState(int(tty.Fd()))
	require.NoError(t, err)

	opt.In = tty
	opt.Out = tty

	done := make(chan runResult, 1)
	go func() {
		selected, ok, err := Run("Select a session", options, opt)
		done <- runResult{selected, ok, err}
	}()

	// let Run switch the tty to raw mode before typing
	time.Sleep(100 * time.Millisecond)
	_, err = master.Write(keys)
	require.NoError(t, err)

	var res runResult
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("picker did not terminate")
	}

	after, err := term.GetState(int(tty.Fd()))
	require.NoError(t, err)
	assert.Equal(t, before, after, "terminal mode not restored")
	waitForOutput(t, out, showCursorSeq)

	return res
}

var testOptions = []string{
	"api  ~/proj/api  claude  active",
	"web  ~/proj/web  claude  idle",
	"ops  ~/proj/ops  codex  dead",
}

func TestRunEnterSelectsHighlighted(t *testing.T) {
	res := runPicker(t, testOptions, Options{}, []byte{'\r'})
	require.NoError(t, res.err)
	assert.True(t, res.ok)
	assert.Equal(t, testOptions[0], res.selected)
}

func TestRunDownMovesCursor(t *testing.T) {
	res := runPicker(t, testOptions, Options{}, []byte{'j', '\r'})
	require.NoError(t, res.err)
	assert.True(t, res.ok)
	assert.Equal(t, testOptions[1], res.selected)
}

func TestRunArrowKeys(t *testing.T) {
	res := runPicker(t, testOptions, Options{}, []byte{0x1b, '[', 'B', 0x1b, '[', 'B', '\r'})
	require.NoError(t, res.err)
	assert.Equal(t, testOptions[2], res.selected)
}

func TestRunUpWrapsToLast(t *testing.T) {
	res := runPicker(t, testOptions, Options{}, []byte{'k', '\r'})
	require.NoError(t, res.err)
	assert.Equal(t, testOptions[2], res.selected)
}

func TestRunDownWrapsToFirst(t *testing.T) {
	res := runPicker(t, testOptions, Options{}, []byte{'j', 'j', 'j', '\r'})
	require.NoError(t, res.err)
	assert.Equal(t, testOptions[0], res.selected)
}

func TestRunCancelKey(t *testing.T) {
	res := runPicker(t, testOptions, Options{}, []byte{'q'})
	require.NoError(t, res.err)
	assert.False(t, res.ok)
}

func TestRunBareEscapeCancels(t *testing.T) {
	res := runPicker(t, testOptions, Options{}, []byte{0x1b})
	require.NoError(t, res.err)
	assert.False(t, res.ok)
}

func TestRunUnknownKeysAreNoOps(t *testing.T) {
	res := runPicker(t, testOptions, Options{}, []byte{'x', 'z', '?', '\r'})
	require.NoError(t, res.err)
	assert.True(t, res.ok)
	assert.Equal(t, testOptions[0], res.selected)
}

func TestRunDeleteRemovesEntryExternallyFirst(t *testing.T) {
	var deleted []string
	opt := Options{
		DeleteEnabled: true,
		OnDelete: func(id string) error {
			deleted = append(deleted, id)
			return nil
		},
	}
	// down to the middle entry, delete it, then select what moved up
	res := runPicker(t, testOptions, opt, []byte{'j', 'd', '\r'})
	require.NoError(t, res.err)
	assert.Equal(t, []string{"web"}, deleted)
	assert.True(t, res.ok)
	assert.Equal(t, testOptions[2], res.selected)
}

func TestRunDeleteLastEntryClampsCursor(t *testing.T) {
	opt := Options{DeleteEnabled: true, OnDelete: func(string) error { return nil }}
	res := runPicker(t, testOptions, opt, []byte{'k', 'd', '\r'})
	require.NoError(t, res.err)
	assert.True(t, res.ok)
	// cursor was on the last entry; after deletion it clamps to the new last
	assert.Equal(t, testOptions[1], res.selected)
}

func TestRunDeleteToEmptyCancels(t *testing.T) {
	opt := Options{DeleteEnabled: true, OnDelete: func(string) error { return nil }}
	res := runPicker(t, testOptions, opt, []byte{'d', 'd', 'd'})
	require.NoError(t, res.err)
	assert.False(t, res.ok)
}

func TestRunDeleteDisabledIsNoOp(t *testing.T) {
	res := runPicker(t, testOptions, Options{}, []byte{'d', '\r'})
	require.NoError(t, res.err)
	assert.True(t, res.ok)
	assert.Equal(t, testOptions[0], res.selected)
}
