// Package agent holds the static profile table for supported coding
// agents and builds their launch command lines.
package agent

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultProcessName is the liveness process name used when a session's
// recorded agent kind is absent or unknown. The major CLI agents run on a
// node foreground process, so this is the safest generic fallback.
const DefaultProcessName = "node"

// Profile describes one supported agent kind. Immutable, process-wide.
type Profile struct {
	Kind        string // lookup key
	Command     string // default launch command
	ResumeFlag  string // appended when the marker dir exists; empty = no resume support
	PromptFlag  string // flag preceding an initial prompt; empty = prompt is positional
	ProcessName string // foreground process name that counts as "agent running"
	MarkerDir   string // subdirectory whose presence triggers the resume flag
	Label       string // display label for pickers and listings
}

// profiles is the registry. Keys must match Profile.Kind.
var profiles = map[string]Profile{
	"claude": {
		Kind:        "claude",
		Command:     "claude",
		ResumeFlag:  "--continue",
		PromptFlag:  "", // claude takes the prompt positionally
		ProcessName: "claude",
		MarkerDir:   ".claude",
		Label:       "Claude Code",
	},
	"codex": {
		Kind:        "codex",
		Command:     "codex",
		ResumeFlag:  "resume --last",
		PromptFlag:  "",
		ProcessName: "codex",
		MarkerDir:   ".codex",
		Label:       "Codex",
	},
	"gemini": {
		Kind:        "gemini",
		Command:     "gemini",
		ResumeFlag:  "",
		PromptFlag:  "-i",
		ProcessName: "node",
		MarkerDir:   ".gemini",
		Label:       "Gemini CLI",
	},
	"opencode": {
		Kind:        "opencode",
		Command:     "opencode",
		ResumeFlag:  "--continue",
		PromptFlag:  "--prompt",
		ProcessName: "opencode",
		MarkerDir:   ".opencode",
		Label:       "OpenCode",
	},
}

// Lookup returns the profile for kind.
func Lookup(kind string) (Profile, bool) {
	p, ok := profiles[kind]
	return p, ok
}

// Kinds returns all registered agent kinds, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(profiles))
	for k := range profiles {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Custom returns a profile for a user-configured agent kind. Custom
// agents get the generic liveness process name and no resume support.
func Custom(kind, command string) Profile {
	return Profile{
		Kind:        kind,
		Command:     command,
		ProcessName: DefaultProcessName,
		Label:       kind,
	}
}

// ProcessNameFor returns the liveness process name for kind, falling back
// to DefaultProcessName for unknown or empty kinds.
func ProcessNameFor(kind string) string {
	if p, ok := profiles[kind]; ok {
		return p.ProcessName
	}
	return DefaultProcessName
}

// BuildLaunchCommand assembles the full command line launched inside a
// new session. The base command is the configured override when present,
// else the profile default. The resume flag is appended iff the profile
// defines one and projectPath contains the profile's marker directory.
// The prompt, being arbitrary user text, is always quoted as one opaque
// token; fixed flags are never quoted.
func (p Profile) BuildLaunchCommand(override, projectPath, prompt string) string {
	parts := []string{p.Command}
	if override != "" {
		parts = []string{override}
	}
	if p.ResumeFlag != "" && hasMarkerDir(projectPath, p.MarkerDir) {
		parts = append(parts, p.ResumeFlag)
	}
	if prompt != "" {
		if p.PromptFlag != "" {
			parts = append(parts, p.PromptFlag, ShellQuote(prompt))
		} else {
			parts = append(parts, ShellQuote(prompt))
		}
	}
	return strings.Join(parts, " ")
}

func hasMarkerDir(projectPath, marker string) bool {
	if projectPath == "" || marker == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(projectPath, marker))
	return err == nil && info.IsDir()
}

// ShellQuote wraps s in single quotes so the shell receives it as one
// word regardless of embedded whitespace, quotes, or metacharacters.
// Embedded single quotes use the '\'' close-escape-reopen idiom.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
