// Package config loads user preferences from ~/.amux/config.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ConfigFileName is the TOML config file under the amux directory.
const ConfigFileName = "config.toml"

// Config is the user-facing configuration.
type Config struct {
	// DefaultAgent is the agent kind launched in new sessions when none
	// is given. Defaults to "claude".
	DefaultAgent string `toml:"default_agent"`

	// ProjectRoots are directories whose immediate children are treated
	// as projects for name-to-path resolution and as clone targets.
	ProjectRoots []string `toml:"project_roots"`

	// Agents holds per-agent overrides keyed by agent kind.
	Agents map[string]AgentOverride `toml:"agents"`

	// Log controls debug logging.
	Log LogSettings `toml:"log"`
}

// AgentOverride replaces parts of a built-in agent profile.
type AgentOverride struct {
	// Command replaces the default launch command.
	Command string `toml:"command"`
}

// LogSettings controls the rotating debug log.
type LogSettings struct {
	Debug bool   `toml:"debug"`
	Level string `toml:"level"`
}

// Dir returns the base amux directory (~/.amux).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".amux"), nil
}

// StateDir returns the directory holding the last-session state pair.
func StateDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state"), nil
}

// Load reads the config file, returning defaults when it is absent.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(filepath.Join(dir, ConfigFileName))
}

// LoadFrom reads a config file at an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{DefaultAgent: "claude"}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.DefaultAgent == "" {
		cfg.DefaultAgent = "claude"
	}
	// Expand ~ in project roots so resolution works on raw paths.
	for i, root := range cfg.ProjectRoots {
		cfg.ProjectRoots[i] = ExpandHome(root)
	}
	return cfg, nil
}

// CommandOverride returns the configured command for kind, empty when
// none is set.
func (c *Config) CommandOverride(kind string) string {
	if o, ok := c.Agents[kind]; ok {
		return o.Command
	}
	return ""
}

// ExpandHome rewrites a leading "~/" to the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			if path == "~" {
				return home
			}
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
