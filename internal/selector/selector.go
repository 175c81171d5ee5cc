// Package selector implements the interactive raw-mode session picker.
//
// The picker owns the terminal for the duration of one Run call. Raw
// mode is a scoped resource: a single cleanup routine restores the saved
// terminal state and cursor visibility on every exit path, including
// signal delivery. A terminal left in raw mode corrupts the user's
// shell, so nothing here may return without running it.
package selector

import (
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/amux-sh/amux/internal/logging"
)

var log = logging.ForComponent(logging.CompSelector)

var (
	promptStyle   = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

// Options configures a Run call.
type Options struct {
	// DeleteEnabled allows removing the highlighted entry with d/D.
	DeleteEnabled bool

	// OnDelete issues the external removal for an entry's identity. It
	// runs before the in-memory list is mutated, so a crash immediately
	// after leaves the next listing consistent with the already-reduced
	// external state.
	OnDelete func(id string) error

	// In and Out default to the process terminal.
	In  *os.File
	Out *os.File
}

// Identity extracts the canonical identifier from a display option: the
// text before the first two-space run. Decoration after the delimiter is
// padding only; sanitized identifiers never contain consecutive spaces.
func Identity(option string) string {
	if i := strings.Index(option, "  "); i >= 0 {
		return strings.TrimRight(option[:i], " ")
	}
	return option
}

type pickerState struct {
	options  []string
	cursor   int
	rendered int // lines drawn by the previous render
}

// Run presents the picker and returns the selected option. ok is false
// when the user cancelled (q, bare Escape, or the list emptied after
// deletion). The options slice must be non-empty.
func Run(prompt string, options []string, opt Options) (selected string, ok bool, err error) {
	in := opt.In
	if in == nil {
		in = os.Stdin
	}
	out := opt.Out
	if out == nil {
		out = os.Stdout
	}

	fd := int(in.Fd())
	prev, err := term.MakeRaw(fd)
	if err != nil {
		return "", false, err
	}

	o := termenv.NewOutput(out)

	// The one cleanup routine. Normal return, cancel, and signal all
	// funnel through here; sync.Once keeps the signal path and the
	// deferred path from restoring twice.
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			o.ShowCursor()
			_ = term.Restore(fd, prev)
		})
	}
	defer cleanup()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer func() {
		signal.Stop(sigs)
		close(sigs) // releases the handler goroutine on normal exit
	}()
	go func() {
		sig, open := <-sigs
		if !open {
			return
		}
		log.Debug("signal_abort", slog.String("signal", sig.String()))
		cleanup()
		signal.Stop(sigs)
		_ = syscall.Kill(syscall.Getpid(), sig.(syscall.Signal))
	}()

	o.HideCursor()

	st := &pickerState{options: append([]string(nil), options...)}
	dec := NewDecoder(in)

	for {
		render(o, prompt, st, opt.DeleteEnabled)

		key, err := dec.Next()
		if err != nil {
			return "", false, err
		}

		n := len(st.options)
		switch key {
		case KeyEnter:
			return st.options[st.cursor], true, nil
		case KeyCancel, KeyEscape:
			return "", false, nil
		case KeyUp:
			st.cursor = (st.cursor - 1 + n) % n
		case KeyDown:
			st.cursor = (st.cursor + 1) % n
		case KeyDelete:
			if !opt.DeleteEnabled || n == 0 {
				continue
			}
			id := Identity(st.options[st.cursor])
			if opt.OnDelete != nil {
				if err := opt.OnDelete(id); err != nil {
					log.Warn("delete_failed", slog.String("id", id), slog.String("error", err.Error()))
					continue
				}
			}
			st.options = append(st.options[:st.cursor], st.options[st.cursor+1:]...)
			if st.cursor >= len(st.options) {
				st.cursor = len(st.options) - 1
			}
			if len(st.options) == 0 {
				return "", false, nil
			}
		case KeyOther:
			// idempotent no-op tick
		}
	}
}

// render paints the picker in place. After the first paint the cursor
// moves up over the previous frame and redraws line by line, so the
// picker occupies a stable region instead of scrolling. When the list
// shrank, the now-stale trailing lines are cleared explicitly.
func render(o *termenv.Output, prompt string, st *pickerState, deleteEnabled bool) {
	if st.rendered > 0 {
		o.CursorUp(st.rendered)
	}

	writeLine(o, promptStyle.Render(prompt))
	for i, option := range st.options {
		if i == st.cursor {
			writeLine(o, selectedStyle.Render(option))
		} else {
			writeLine(o, dimStyle.Render(option))
		}
	}

	footer := "enter select · j/k move · q quit"
	if deleteEnabled {
		footer = "enter select · j/k move · d delete · q quit"
	}
	writeLine(o, dimStyle.Render(footer))

	lines := len(st.options) + 2
	if extra := st.rendered - lines; extra > 0 {
		for i := 0; i < extra; i++ {
			o.WriteString("\r")
			o.ClearLine()
			o.WriteString("\r\n")
		}
		o.CursorUp(extra)
	}
	st.rendered = lines
}

// writeLine clears and rewrites one row. Raw mode disables output
// post-processing, so the newline needs an explicit carriage return.
func writeLine(o *termenv.Output, text string) {
	o.WriteString("\r")
	o.ClearLine()
	o.WriteString(text)
	o.WriteString("\r\n")
}
