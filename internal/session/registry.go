package session

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/amux-sh/amux/internal/tmux"
)

// Record is one managed session's assembled state. Records are rebuilt
// from the host on every listing and never persisted: liveness is
// time-varying, and a cached status is a wrong status.
type Record struct {
	Name   string // user-facing name (host name without the amux prefix)
	Path   string // working directory, home-relative display form
	Agent  string // recorded agent kind, may be empty
	Status Status
}

// Registry enumerates managed sessions and assembles Records.
type Registry struct {
	host       *tmux.Client
	classifier *Classifier
}

// NewRegistry returns a Registry over the given host.
func NewRegistry(host *tmux.Client) *Registry {
	return &Registry{host: host, classifier: NewClassifier(host)}
}

// List returns a Record per managed session, in host order. An empty
// result means no sessions, not an error.
func (r *Registry) List() ([]Record, error) {
	names, err := r.host.ListSessions()
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(names))
	for _, hostName := range names {
		rec := Record{
			Name:   strings.TrimPrefix(hostName, tmux.SessionPrefix),
			Status: r.classifier.Classify(hostName),
		}
		// Prefer the live pane path; sessions without live panes fall
		// back to the path recorded at creation.
		path := r.host.CurrentPath(hostName)
		if path == "" {
			path, _ = r.host.GetEnvironment(hostName, tmux.EnvPath)
		}
		rec.Path = HomeDisplay(path)
		rec.Agent, _ = r.host.GetEnvironment(hostName, tmux.EnvAgent)
		records = append(records, rec)
	}
	return records, nil
}

// HomeDisplay substitutes the home-directory prefix with "~".
func HomeDisplay(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" || path == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+"/") {
		return "~" + strings.TrimPrefix(path, home)
	}
	return path
}

// DisplayLines renders records as column-aligned picker options. The
// name field ends at the first two-space run, which is the picker's
// identity delimiter; sanitized names cannot contain it. Widths are
// computed per batch and never cached, since the session set changes
// between calls.
func DisplayLines(records []Record) []string {
	var wName, wPath, wAgent int
	for _, rec := range records {
		wName = max(wName, runewidth.StringWidth(rec.Name))
		wPath = max(wPath, runewidth.StringWidth(rec.Path))
		wAgent = max(wAgent, runewidth.StringWidth(agentField(rec.Agent)))
	}

	lines := make([]string, 0, len(records))
	for _, rec := range records {
		var b strings.Builder
		b.WriteString(runewidth.FillRight(rec.Name, wName))
		b.WriteString("  ")
		b.WriteString(runewidth.FillRight(rec.Path, wPath))
		b.WriteString("  ")
		b.WriteString(runewidth.FillRight(agentField(rec.Agent), wAgent))
		b.WriteString("  ")
		b.WriteString(string(rec.Status))
		lines = append(lines, b.String())
	}
	return lines
}

func agentField(kind string) string {
	if kind == "" {
		return "-"
	}
	return kind
}
