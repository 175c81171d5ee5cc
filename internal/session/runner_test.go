package session

import "strings"

// fakeRunner replays canned tmux output per command line and records
// every invocation. Unstubbed commands succeed with empty output.
type fakeRunner struct {
	calls  [][]string
	output map[string]string
	errs   map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		output: make(map[string]string),
		errs:   make(map[string]error),
	}
}

func runKey(name string, args ...string) string {
	return name + " " + strings.Join(args, " ")
}

func (f *fakeRunner) Run(name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	k := runKey(name, args...)
	return f.output[k], f.errs[k]
}

func (f *fakeRunner) stub(out string, err error, args ...string) {
	k := runKey("tmux", args...)
	f.output[k] = out
	f.errs[k] = err
}

func (f *fakeRunner) called(subcmd string) [][]string {
	var matches [][]string
	for _, call := range f.calls {
		if len(call) >= 2 && call[1] == subcmd {
			matches = append(matches, call)
		}
	}
	return matches
}
