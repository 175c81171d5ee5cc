// Package project resolves bare project names to directories under the
// configured project roots.
package project

import (
	"os"
	"path/filepath"

	"github.com/sahilm/fuzzy"
)

// Resolve maps name to a project directory. Immediate children of each
// root are candidates; an exact base-name match wins, otherwise the best
// fuzzy match is taken. ok is false when nothing matches.
func Resolve(name string, roots []string) (path string, ok bool) {
	if name == "" {
		return "", false
	}
	var names []string
	var paths []string
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if e.Name() == name {
				return filepath.Join(root, e.Name()), true
			}
			names = append(names, e.Name())
			paths = append(paths, filepath.Join(root, e.Name()))
		}
	}

	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return "", false
	}
	return paths[matches[0].Index], true
}
