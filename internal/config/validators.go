package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrInvalidValue is wrapped by every validator failure.
var ErrInvalidValue = errors.New("invalid value")

// Validator normalizes a raw configuration value or rejects it. Rejected
// values are replaced by the key's default when the configuration loads.
type Validator func(value string) (string, error)

var (
	validatorsMu sync.RWMutex
	validators   = make(map[string]Validator)
)

// RegisterValidator attaches v to key. It panics when key already has one.
func RegisterValidator(key string, v Validator) {
	validatorsMu.Lock()
	defer validatorsMu.Unlock()
	if _, exists := validators[key]; exists {
		panic(fmt.Sprintf("validator already registered for key: %s", key))
	}
	validators[key] = v
}

func validatorFor(key string) Validator {
	validatorsMu.RLock()
	defer validatorsMu.RUnlock()
	return validators[key]
}

// PositiveIntValidator accepts integers above zero.
func PositiveIntValidator() Validator {
	return func(value string) (string, error) {
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n <= 0 {
			return "", fmt.Errorf("%w %q: must be a positive integer", ErrInvalidValue, value)
		}
		return strconv.Itoa(n), nil
	}
}

// EnumValidator accepts one of allowed, case-insensitively.
func EnumValidator(allowed ...string) Validator {
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}
	sorted := append([]string(nil), allowed...)
	sort.Strings(sorted)
	return func(value string) (string, error) {
		v := strings.ToLower(strings.TrimSpace(value))
		if !set[v] {
			return "", fmt.Errorf("%w %q: must be one of %s", ErrInvalidValue, value, strings.Join(sorted, ", "))
		}
		return v, nil
	}
}

// BoolValidator accepts 1/0, true/false, yes/no and on/off and stores
// them as "true" or "false".
func BoolValidator() Validator {
	return func(value string) (string, error) {
		v := normalizeBool(value)
		if v != "true" && v != "false" {
			return "", fmt.Errorf("%w %q: must be a boolean", ErrInvalidValue, value)
		}
		return v, nil
	}
}

// KeyValidator accepts key names as bubbletea prints them, such as
// "ctrl+k" or "alt+p": modifiers followed by one non-empty key.
func KeyValidator() Validator {
	modifiers := map[string]bool{"ctrl": true, "alt": true, "shift": true}
	return func(value string) (string, error) {
		v := strings.ToLower(strings.TrimSpace(value))
		parts := strings.Split(v, "+")
		if parts[len(parts)-1] == "" {
			return "", fmt.Errorf("%w %q: missing key", ErrInvalidValue, value)
		}
		for _, p := range parts[:len(parts)-1] {
			if !modifiers[p] {
				return "", fmt.Errorf("%w %q: unknown modifier %q", ErrInvalidValue, value, p)
			}
		}
		return v, nil
	}
}

func normalizeBool(val string) string {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "on":
		return "true"
	case "0", "false", "no", "off":
		return "false"
	default:
		return val
	}
}

func init() {
	positive := PositiveIntValidator()
	for _, key := range []string{"result_limit", "history_max_rows", "logging_max_files"} {
		RegisterValidator(key, positive)
	}

	RegisterValidator("matcher", EnumValidator("fzf", "subsequence"))
	RegisterValidator("hooks_failure_mode", EnumValidator("ignore", "warn", "abort"))
	RegisterValidator("logging_level", EnumValidator("debug", "info", "warn", "error"))

	boolean := BoolValidator()
	for _, key := range []string{"case_sensitive", "history_enabled", "hooks_enabled", "logging_enabled", "debug", "quiet"} {
		RegisterValidator(key, boolean)
	}

	RegisterValidator("toggle_key", KeyValidator())
}
