package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.String("agent", "", "")
	fs.Bool("json", false, "")
	return fs
}

func TestNormalizeArgsMovesFlagsFirst(t *testing.T) {
	fs := newTestFlagSet()
	got := normalizeArgs(fs, []string{"work", "--agent", "codex"})
	assert.Equal(t, []string{"--agent", "codex", "work"}, got)
}

func TestNormalizeArgsBoolFlagTakesNoValue(t *testing.T) {
	fs := newTestFlagSet()
	got := normalizeArgs(fs, []string{"--json", "work"})
	assert.Equal(t, []string{"--json", "work"}, got)
}

func TestNormalizeArgsEqualsForm(t *testing.T) {
	fs := newTestFlagSet()
	got := normalizeArgs(fs, []string{"work", "--agent=codex"})
	assert.Equal(t, []string{"--agent=codex", "work"}, got)
}

func TestNormalizeArgsDoubleDashStopsParsing(t *testing.T) {
	fs := newTestFlagSet()
	got := normalizeArgs(fs, []string{"--json", "--", "--agent", "x"})
	assert.Equal(t, []string{"--json", "--agent", "x"}, got)
}

func TestNormalizeArgsBareDashIsPositional(t *testing.T) {
	fs := newTestFlagSet()
	got := normalizeArgs(fs, []string{"-"})
	assert.Equal(t, []string{"-"}, got)
}
