package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "claude", cfg.DefaultAgent)
	assert.Empty(t, cfg.ProjectRoots)
}

func TestLoadFromParsesSettings(t *testing.T) {
	t.Setenv("HOME", "/home/alice")
	path := writeConfig(t, `
default_agent = "codex"
project_roots = ["~/src", "/srv/projects"]

[agents.claude]
command = "claude --model opus"

[log]
debug = true
level = "debug"
`)
	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "codex", cfg.DefaultAgent)
	assert.Equal(t, []string{"/home/alice/src", "/srv/projects"}, cfg.ProjectRoots)
	assert.Equal(t, "claude --model opus", cfg.CommandOverride("claude"))
	assert.Empty(t, cfg.CommandOverride("codex"))
	assert.True(t, cfg.Log.Debug)
}

func TestLoadFromRejectsMalformedTOML(t *testing.T) {
	path := writeConfig(t, "default_agent = [broken")
	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/alice")
	assert.Equal(t, "/home/alice/src", ExpandHome("~/src"))
	assert.Equal(t, "/home/alice", ExpandHome("~"))
	assert.Equal(t, "/srv/x", ExpandHome("/srv/x"))
	assert.Equal(t, "rel/path", ExpandHome("rel/path"))
}
