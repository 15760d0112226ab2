package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/cristianoliveira/koyr/internal/config"
	"github.com/stretchr/testify/require"
)

func setupTest(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("HOME", tmp)
	config.Load()
	return tmp
}

func enableLogging(t *testing.T, extra map[string]string) {
	t.Helper()
	t.Setenv("KOYR_LOGGING_ENABLED", "true")
	for k, v := range extra {
		t.Setenv(k, v)
	}
	config.Load()
}

func readLastLine(t *testing.T) string {
	t.Helper()
	logDir := filepath.Join(config.Get("state_dir", ""), "logs")
	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	data, err := os.ReadFile(filepath.Join(logDir, entries[0].Name()))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	return lines[len(lines)-1]
}

func TestConfigFromGlobal(t *testing.T) {
	setupTest(t)
	enableLogging(t, map[string]string{
		"KOYR_LOGGING_LEVEL":     "debug",
		"KOYR_LOGGING_MAX_FILES": "5",
	})

	cfg := FromGlobalConfig()
	require.True(t, cfg.Enabled)
	require.Equal(t, "debug", cfg.Level)
	require.Equal(t, 5, cfg.MaxFiles)
	require.Equal(t, filepath.Base(os.Args[0]), cfg.Command)
	require.Equal(t, os.Getpid(), cfg.PID)
}

func TestLogLevelOverrides(t *testing.T) {
	setupTest(t)

	t.Setenv("KOYR_DEBUG", "true")
	t.Setenv("KOYR_LOGGING_LEVEL", "info")
	config.Load()
	require.Equal(t, "debug", FromGlobalConfig().Level)

	t.Setenv("KOYR_QUIET", "true")
	config.Load()
	require.Equal(t, "debug", FromGlobalConfig().Level)

	t.Setenv("KOYR_DEBUG", "")
	config.Load()
	require.Equal(t, "error", FromGlobalConfig().Level)

	t.Setenv("KOYR_QUIET", "")
	t.Setenv("KOYR_LOGGING_LEVEL", "warn")
	config.Load()
	require.Equal(t, "warn", FromGlobalConfig().Level)
}

func TestLogDir(t *testing.T) {
	tmp := setupTest(t)

	stateDir := config.Get("state_dir", "")
	require.True(t, strings.HasPrefix(stateDir, tmp), "state_dir %s not in temp dir %s", stateDir, tmp)

	logDir, err := LogDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(stateDir, "logs"), logDir)
	info, err := os.Stat(logDir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
	require.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestLogDirFallback(t *testing.T) {
	tmp := setupTest(t)
	// A regular file cannot hold a logs directory.
	blocker := filepath.Join(tmp, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	t.Setenv("KOYR_STATE_DIR", blocker)
	config.Load()

	logDir, err := LogDir()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(logDir, os.TempDir()))
	require.True(t, strings.HasSuffix(logDir, filepath.Join("koyr", "logs")))
}

func TestInitDisabled(t *testing.T) {
	logger, err := Init(Config{Enabled: false})
	require.NoError(t, err)
	require.IsType(t, noopLogger{}, logger)
	logger.Debug("test")
	logger.Info("test")
	logger.Warn("test")
	logger.Error("test")
	require.NoError(t, logger.Shutdown())
}

func TestInitEnabledCreatesFile(t *testing.T) {
	setupTest(t)
	enableLogging(t, nil)

	cfg := FromGlobalConfig()
	cfg.Command = "run palette"
	logger, err := Init(cfg)
	require.NoError(t, err)
	defer logger.Shutdown()

	logDir := filepath.Join(config.Get("state_dir", ""), "logs")
	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	fname := entries[0].Name()
	require.True(t, strings.HasPrefix(fname, "koyr_"))
	require.Contains(t, fname, fmt.Sprintf("_PID%d_", os.Getpid()))
	require.True(t, strings.HasSuffix(fname, "_run_palette.log"))
	info, err := os.Stat(filepath.Join(logDir, fname))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoggingWritesJSON(t *testing.T) {
	setupTest(t)
	enableLogging(t, nil)

	logger, err := Init(FromGlobalConfig())
	require.NoError(t, err)
	logger.Info("command selected", "command_id", "greet", "score", 42)
	require.NoError(t, logger.Shutdown())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(readLastLine(t)), &entry))
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "command selected", entry["msg"])
	require.Equal(t, float64(os.Getpid()), entry["pid"])
	require.Equal(t, "greet", entry["command_id"])
	require.Equal(t, float64(42), entry["score"])
}

func TestNewWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: "warn", Command: "test", PID: 1})

	logger.Info("dropped")
	logger.Warn("kept", "token", "abc")

	out := buf.String()
	require.NotContains(t, out, "dropped")
	require.Contains(t, out, `"msg":"kept"`)
	require.Contains(t, out, `"token":"[REDACTED]"`)
}

func TestRedaction(t *testing.T) {
	setupTest(t)
	enableLogging(t, nil)

	logger, err := Init(FromGlobalConfig())
	require.NoError(t, err)
	logger.Info("secrets", "password", "supersecret", "token", "xyz", "normal", "ok")
	require.NoError(t, logger.Shutdown())

	lastLine := readLastLine(t)
	require.Contains(t, lastLine, `"password":"[REDACTED]"`)
	require.Contains(t, lastLine, `"token":"[REDACTED]"`)
	require.Contains(t, lastLine, `"normal":"ok"`)
}

func TestRedactPairs(t *testing.T) {
	require.Equal(t, []any{"PaSsWoRd", "[REDACTED]"}, redactPairs([]any{"PaSsWoRd", "secret"}))
	require.Equal(t, []any{"api-token", "[REDACTED]"}, redactPairs([]any{"api-token", "xyz"}))
	require.Equal(t, []any{"api.token", "[REDACTED]"}, redactPairs([]any{"api.token", "xyz"}))
	require.Equal(t, []any{"command_env", "[REDACTED]"}, redactPairs([]any{"command_env", "A=1"}))

	require.Equal(t, []any{"apitoken", "xyz"}, redactPairs([]any{"apitoken", "xyz"}))
	require.Equal(t, []any{"secretary", "value"}, redactPairs([]any{"secretary", "value"}))

	input := []any{"password", "hidden", "name", "john", "age", 30}
	require.Equal(t, []any{"password", "[REDACTED]", "name", "john", "age", 30}, redactPairs(input))
	require.Equal(t, "hidden", input[1])

	require.Equal(t, []any{"password", "[REDACTED]", "extra"}, redactPairs([]any{"password", "hidden", "extra"}))
	require.Empty(t, redactPairs([]any{}))
}

func TestWithRedactsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: "info", Command: "test", PID: 1})

	logger.With("auth", "bearer x", "command_id", "greet").Info("derived")

	out := buf.String()
	require.Contains(t, out, `"auth":"[REDACTED]"`)
	require.Contains(t, out, `"command_id":"greet"`)
}

func TestShutdownIsIdempotent(t *testing.T) {
	setupTest(t)
	enableLogging(t, nil)

	logger, err := Init(FromGlobalConfig())
	require.NoError(t, err)
	derived := logger.With("component", "palette")
	require.NoError(t, logger.Shutdown())
	require.NoError(t, derived.Shutdown())
}

func writeOldLogs(t *testing.T, dir string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("koyr_20250101_12000%d_PID999_test.log", i))
		require.NoError(t, os.WriteFile(path, nil, 0o600))
		old := time.Now().Add(-time.Duration(i+1) * time.Hour)
		require.NoError(t, os.Chtimes(path, old, old))
	}
}

func TestRotation(t *testing.T) {
	setupTest(t)
	enableLogging(t, map[string]string{"KOYR_LOGGING_MAX_FILES": "2"})

	logDir, err := LogDir()
	require.NoError(t, err)
	writeOldLogs(t, logDir, 3)
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "unrelated.log"), nil, 0o600))

	logger, err := Init(FromGlobalConfig())
	require.NoError(t, err)
	require.NoError(t, logger.Shutdown())

	_, err = os.Stat(filepath.Join(logDir, "koyr_20250101_120002_PID999_test.log"))
	require.True(t, os.IsNotExist(err), "oldest log should be removed")
	_, err = os.Stat(filepath.Join(logDir, "unrelated.log"))
	require.NoError(t, err)
}

func TestRotationInvalidMaxFilesUsesDefault(t *testing.T) {
	setupTest(t)
	enableLogging(t, map[string]string{"KOYR_LOGGING_MAX_FILES": "0"})

	cfg := FromGlobalConfig()
	require.Equal(t, 10, cfg.MaxFiles)

	logDir, err := LogDir()
	require.NoError(t, err)
	writeOldLogs(t, logDir, 5)

	logger, err := Init(cfg)
	require.NoError(t, err)
	require.NoError(t, logger.Shutdown())

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	require.Len(t, entries, 6)
}

func TestGlobalLogger(t *testing.T) {
	setupTest(t)
	enableLogging(t, nil)

	require.NoError(t, InitGlobal())
	t.Cleanup(func() {
		_ = ShutdownGlobal()
		globalMu.Lock()
		global = noopLogger{}
		globalMu.Unlock()
	})

	Info("global info")
	Warn("global warning", "count", 1)
	require.NotEmpty(t, CurrentLogFile())
}

func TestWith(t *testing.T) {
	setupTest(t)
	enableLogging(t, nil)

	logger, err := Init(FromGlobalConfig())
	require.NoError(t, err)
	logger.With("component", "palette").Info("with context")
	require.NoError(t, logger.Shutdown())

	require.Contains(t, readLastLine(t), `"component":"palette"`)
}

func TestLevelParsing(t *testing.T) {
	require.Equal(t, clog.DebugLevel, parseLevel("debug"))
	require.Equal(t, clog.InfoLevel, parseLevel("info"))
	require.Equal(t, clog.WarnLevel, parseLevel("warn"))
	require.Equal(t, clog.WarnLevel, parseLevel("warning"))
	require.Equal(t, clog.ErrorLevel, parseLevel("error"))
	require.Equal(t, clog.InfoLevel, parseLevel("unknown"))
}
