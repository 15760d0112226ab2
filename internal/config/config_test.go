package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDirs(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(tmp, "state"))
	t.Cleanup(reset)
	return tmp
}

func TestLoadAndGet(t *testing.T) {
	setupDirs(t)
	Load()

	require.Equal(t, "default", Get("missing", "default"))
	require.Equal(t, 10, GetInt("result_limit", 0))
	require.Equal(t, "fzf", Get("matcher", ""))
	require.False(t, GetBool("case_sensitive", true))
	require.Equal(t, DefaultToggleKey(), Get("toggle_key", ""))
}

func TestLoadDerivesPathsFromConfigDir(t *testing.T) {
	tmp := setupDirs(t)
	Load()

	configDir := filepath.Join(tmp, "config", "koyr")
	assert.Equal(t, configDir, Get("config_dir", ""))
	assert.Equal(t, filepath.Join(tmp, "state", "koyr"), Get("state_dir", ""))
	assert.Equal(t, filepath.Join(configDir, "hooks"), Get("hooks_dir", ""))
	assert.Equal(t, filepath.Join(configDir, "commands.toml"), Get("commands_file", ""))
}

func TestLoadFromTOMLFile(t *testing.T) {
	tmp := setupDirs(t)
	path := filepath.Join(tmp, "custom.toml")
	content := "result_limit = 25\nmatcher = \"subsequence\"\ncase_sensitive = true\ntoggle_key = \"ctrl+p\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("KOYR_CONFIG_PATH", path)

	Load()

	assert.Equal(t, 25, GetInt("result_limit", 0))
	assert.Equal(t, "subsequence", Get("matcher", ""))
	assert.True(t, GetBool("case_sensitive", false))
	assert.Equal(t, "ctrl+p", Get("toggle_key", ""))
}

func TestEnvOverridesFile(t *testing.T) {
	tmp := setupDirs(t)
	path := filepath.Join(tmp, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("result_limit = 25\n"), 0o644))
	t.Setenv("KOYR_CONFIG_PATH", path)
	t.Setenv("KOYR_RESULT_LIMIT", "3")

	Load()

	assert.Equal(t, 3, GetInt("result_limit", 0))
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	setupDirs(t)
	t.Setenv("KOYR_RESULT_LIMIT", "-4")
	t.Setenv("KOYR_MATCHER", "regex")
	t.Setenv("KOYR_HISTORY_ENABLED", "maybe")
	t.Setenv("KOYR_TOGGLE_KEY", "hyper+k")

	Load()

	assert.Equal(t, 10, GetInt("result_limit", 0))
	assert.Equal(t, "fzf", Get("matcher", ""))
	assert.True(t, GetBool("history_enabled", false))
	assert.Equal(t, DefaultToggleKey(), Get("toggle_key", ""))
}

func TestBoolNormalization(t *testing.T) {
	setupDirs(t)
	t.Setenv("KOYR_HOOKS_ENABLED", "off")
	t.Setenv("KOYR_DEBUG", "YES")

	Load()

	assert.Equal(t, "false", Get("hooks_enabled", ""))
	assert.Equal(t, "true", Get("debug", ""))
}

func TestSampleConfigCreated(t *testing.T) {
	tmp := setupDirs(t)
	Load()

	data, err := os.ReadFile(filepath.Join(tmp, "config", "koyr", "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# koyr configuration")
	assert.Contains(t, string(data), "result_limit = 10")
	assert.NotContains(t, string(data), "state_dir")
}

func TestSetOverridesValue(t *testing.T) {
	setupDirs(t)
	Load()

	Set("result_limit", "4")
	assert.Equal(t, 4, GetInt("result_limit", 0))
}

func TestRegisterValidatorPanicsOnDuplicate(t *testing.T) {
	assert.Panics(t, func() {
		RegisterValidator("result_limit", PositiveIntValidator())
	})
}

func TestKeyValidator(t *testing.T) {
	v := KeyValidator()
	tests := []struct {
		in      string
		want    string
		invalid bool
	}{
		{in: "ctrl+k", want: "ctrl+k"},
		{in: "Alt+K", want: "alt+k"},
		{in: "k", want: "k"},
		{in: "ctrl+", invalid: true},
		{in: "meta+k", invalid: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := v(tt.in)
			if tt.invalid {
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnumValidator(t *testing.T) {
	v := EnumValidator("warn", "abort")

	got, err := v(" ABORT ")
	require.NoError(t, err)
	assert.Equal(t, "abort", got)

	_, err = v("panic")
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Contains(t, err.Error(), "abort, warn")
}

func TestEmptyValueUsesDefault(t *testing.T) {
	setupDirs(t)
	t.Setenv("KOYR_RESULT_LIMIT", "")

	Load()

	assert.Equal(t, 10, GetInt("result_limit", 0))
}
