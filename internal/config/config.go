// Package config provides configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/cristianoliveira/koyr/internal/colors"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix of environment variables that override config keys.
const EnvPrefix = "KOYR_"

// File permission constants
const (
	// FileModeDir is the permission for directories (rwxr-xr-x)
	FileModeDir os.FileMode = 0755
	// FileModeFile is the permission for data files (rw-r--r--)
	FileModeFile os.FileMode = 0644

	// FileExtTOML is the file extension for TOML configuration files.
	FileExtTOML = ".toml"
)

var (
	config    map[string]string
	configMap map[string]string
	mu        sync.RWMutex
)

// Load initializes configuration.
func Load() {
	mu.Lock()
	defer mu.Unlock()

	config = make(map[string]string)
	configMap = make(map[string]string)

	setDefaults()
	// Env is applied twice: before the file so KOYR_CONFIG_DIR can move it,
	// and after so env wins over file values.
	loadFromEnv()
	loadFromFile()
	loadFromEnv()
	validate()
	computeDirs()
	createSampleConfig()
}

// reset clears loaded values; used by tests.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	config = nil
	configMap = nil
}

// DefaultToggleKey returns the platform's primary modifier + k. Terminals on
// macOS forward Option (alt) but never Command.
func DefaultToggleKey() string {
	if runtime.GOOS == "darwin" {
		return "alt+k"
	}
	return "ctrl+k"
}

// setDefaults populates config with default values.
func setDefaults() {
	home, _ := os.UserHomeDir()
	xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfigHome == "" {
		xdgConfigHome = filepath.Join(home, ".config")
	}
	xdgStateHome := os.Getenv("XDG_STATE_HOME")
	if xdgStateHome == "" {
		xdgStateHome = filepath.Join(home, ".local", "state")
	}

	configDir := filepath.Join(xdgConfigHome, "koyr")
	stateDir := filepath.Join(xdgStateHome, "koyr")

	setDefault("config_dir", configDir)
	setDefault("state_dir", stateDir)
	setDefault("result_limit", "10")
	setDefault("matcher", "fzf")
	setDefault("case_sensitive", "false")
	setDefault("toggle_key", DefaultToggleKey())
	setDefault("shell", "/bin/sh")
	setDefault("history_enabled", "true")
	setDefault("history_max_rows", "500")
	setDefault("hooks_enabled", "true")
	setDefault("hooks_failure_mode", "warn")
	setDefault("logging_enabled", "false")
	setDefault("logging_level", "info")
	setDefault("logging_max_files", "10")
	setDefault("debug", "false")
	setDefault("quiet", "false")
}

func setDefault(key, value string) {
	config[key] = value
	configMap[key] = value
}

// loadFromFile reads configuration from a file.
func loadFromFile() {
	configPath := os.Getenv(EnvPrefix + "CONFIG_PATH")
	if configPath == "" {
		if configDir, ok := config["config_dir"]; ok {
			configPath = filepath.Join(configDir, "config"+FileExtTOML)
			if _, err := os.Stat(configPath); err != nil {
				configPath = ""
			}
		}
	}
	if configPath == "" {
		return
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		colors.Debug(fmt.Sprintf("unable to read config file %s: %v", configPath, err))
		return
	}

	if strings.ToLower(filepath.Ext(configPath)) != FileExtTOML {
		colors.Warning(fmt.Sprintf("unsupported config file format: %s", configPath))
		return
	}
	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		colors.Warning(fmt.Sprintf("unable to parse config file %s: %v", configPath, err))
		return
	}

	for k, v := range raw {
		key := strings.ToLower(k)
		converted, ok := coerceConfigValue(v)
		if !ok {
			colors.Warning(fmt.Sprintf("unsupported config value type for %s: %T", key, v))
			continue
		}
		config[key] = converted
	}
}

// coerceConfigValue converts a configuration value to its string representation.
// Supported types are string, int, int64, float64, and bool.
func coerceConfigValue(value interface{}) (string, bool) {
	switch typed := value.(type) {
	case string:
		return typed, true
	case int:
		return strconv.Itoa(typed), true
	case int64:
		return strconv.FormatInt(typed, 10), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(typed), true
	default:
		return "", false
	}
}

// loadFromEnv applies environment variable overrides.
func loadFromEnv() {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, EnvPrefix) {
			continue
		}
		parts := strings.SplitN(env, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(parts[0], EnvPrefix))
		if key == "config_path" {
			continue
		}
		config[key] = parts[1]
	}
}

// validate replaces values rejected by their key's validator with the
// default. Empty values fall back silently.
func validate() {
	for key, value := range config {
		v := validatorFor(key)
		if v == nil {
			continue
		}
		def := configMap[key]
		if value == "" {
			config[key] = def
			continue
		}
		normalized, err := v(value)
		if err != nil {
			colors.Warning(fmt.Sprintf("config %s: %v; using default %q", key, err, def))
			config[key] = def
			continue
		}
		config[key] = normalized
	}
}

// valueToInterface converts a configuration value to appropriate type for TOML.
func valueToInterface(val string) interface{} {
	if n, err := strconv.Atoi(val); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return val
}

// computeDirs fills keys derived from config_dir unless they were set.
func computeDirs() {
	configDir := config["config_dir"]
	if configDir == "" {
		return
	}
	if _, set := config["hooks_dir"]; !set {
		config["hooks_dir"] = filepath.Join(configDir, "hooks")
	}
	if _, set := config["commands_file"]; !set {
		config["commands_file"] = filepath.Join(configDir, "commands"+FileExtTOML)
	}
}

// createSampleConfig creates a sample configuration file if none exists.
func createSampleConfig() {
	configDir := config["config_dir"]
	if configDir == "" {
		return
	}
	samplePath := filepath.Join(configDir, "config"+FileExtTOML)
	if _, err := os.Stat(samplePath); err == nil {
		return
	}
	if err := os.MkdirAll(configDir, FileModeDir); err != nil {
		colors.Debug(fmt.Sprintf("unable to create config dir %s: %v", configDir, err))
		return
	}

	typed := make(map[string]interface{})
	for k, v := range configMap {
		// Directories are derived from XDG at load time; pinning them in the
		// sample would stop them from following the environment.
		if k == "config_dir" || k == "state_dir" {
			continue
		}
		typed[k] = valueToInterface(v)
	}

	data, err := toml.Marshal(typed)
	if err != nil {
		colors.Warning(fmt.Sprintf("unable to marshal sample config: %v", err))
		return
	}
	header := "# koyr configuration\n# This file is in TOML format.\n# Uncomment and edit values as needed.\n\n"
	if err := os.WriteFile(samplePath, append([]byte(header), data...), FileModeFile); err != nil {
		colors.Warning(fmt.Sprintf("unable to write sample config to %s: %v", samplePath, err))
	}
}

// Get returns a configuration value or default.
func Get(key, defaultValue string) string {
	mu.RLock()
	defer mu.RUnlock()
	if val, ok := config[key]; ok {
		return val
	}
	return defaultValue
}

// GetInt returns a configuration value as integer, or default.
func GetInt(key string, defaultValue int) int {
	mu.RLock()
	defer mu.RUnlock()
	val, ok := config[key]
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return n
}

// GetBool returns a configuration value as boolean, or default.
func GetBool(key string, defaultValue bool) bool {
	mu.RLock()
	defer mu.RUnlock()
	val, ok := config[key]
	if !ok {
		return defaultValue
	}
	switch normalizeBool(val) {
	case "true":
		return true
	case "false":
		return false
	default:
		return defaultValue
	}
}

// Set overrides a configuration value for the rest of the process, e.g.
// from a command line flag.
func Set(key, value string) {
	mu.Lock()
	defer mu.Unlock()
	if config == nil {
		config = make(map[string]string)
	}
	config[key] = value
}
