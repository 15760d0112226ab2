package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/koyr/internal/config"
)

const testCommands = `
[[commands]]
id = "greet"
name = "Say hello"
run = "echo hi"

[[commands]]
id = "fail"
name = "Fail loudly"
run = "exit 3"

[[commands]]
id = "docs"
name = "Read the docs"
detail = "See https://example.com/docs"

[[commands]]
id = "deploy"
name = "Deploy to staging"
run = "echo deploying"
`

type mockReporter struct {
	mock.Mock
}

func (m *mockReporter) Error(msg string)   { m.Called(msg) }
func (m *mockReporter) Warning(msg string) { m.Called(msg) }
func (m *mockReporter) Info(msg string)    { m.Called(msg) }
func (m *mockReporter) Success(msg string) { m.Called(msg) }

// loadTestConfig points every koyr directory into a temp dir, applies env
// and loads the configuration. It returns the temp dir.
func loadTestConfig(t *testing.T, env map[string]string) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmp, "state"))
	t.Setenv("KOYR_HOOKS_ENABLED", "false")
	t.Setenv("KOYR_HISTORY_ENABLED", "false")
	for k, v := range env {
		t.Setenv(k, v)
	}
	config.Load()
	return tmp
}

func writeCommands(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "commands.toml")
	require.NoError(t, os.WriteFile(path, []byte(testCommands), 0o644))
	return path
}
