// Package git provides the clone and naming helpers behind the clone
// command and default session naming.
package git

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/amux-sh/amux/internal/logging"
)

var log = logging.ForComponent(logging.CompGit)

// Clone clones url into dest, streaming git's progress to the caller's
// terminal. dest must not already exist.
func Clone(url, dest string) error {
	cmd := exec.Command("git", "clone", url, dest)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git clone %s: %w", url, err)
	}
	log.Debug("cloned", "url", url, "dest", dest)
	return nil
}

// RepoNameFromURL derives the repository name from a clone URL, handling
// https, ssh scp-style, and bare path forms.
//
//	https://github.com/acme/widgets.git -> widgets
//	git@github.com:acme/widgets.git     -> widgets
func RepoNameFromURL(url string) string {
	name := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// RemoteURL returns the origin remote URL of the repository at dir.
func RemoteURL(dir string) (string, error) {
	out, err := exec.Command("git", "-C", dir, "remote", "get-url", "origin").Output()
	if err != nil {
		return "", fmt.Errorf("no origin remote in %s: %w", dir, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// RootName returns the base name of the repository root containing dir,
// or empty when dir is not inside a repository.
func RootName(dir string) string {
	out, err := exec.Command("git", "-C", dir, "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return ""
	}
	return filepath.Base(strings.TrimSpace(string(out)))
}
