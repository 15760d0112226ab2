package logging

import (
	"strings"
	"unicode"
)

const redacted = "[REDACTED]"

// sensitiveSegments are key segments whose values never reach a log file.
// Command environments are included because run definitions may carry
// credentials in env.
var sensitiveSegments = map[string]bool{
	"secret":     true,
	"password":   true,
	"token":      true,
	"key":        true,
	"auth":       true,
	"credential": true,
	"env":        true,
}

// redactPairs returns a copy of the key/value pairs with sensitive values
// replaced. args itself is left untouched.
func redactPairs(args []any) []any {
	if len(args) == 0 {
		return args
	}
	out := append([]any(nil), args...)
	for i := 0; i+1 < len(out); i += 2 {
		if key, ok := out[i].(string); ok && sensitiveKey(key) {
			out[i+1] = redacted
		}
	}
	return out
}

// sensitiveKey splits key on anything but letters and digits and reports
// whether one of the segments is sensitive, so "api-token" matches and
// "secretary" does not.
func sensitiveKey(key string) bool {
	segments := strings.FieldsFunc(strings.ToLower(key), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, s := range segments {
		if sensitiveSegments[s] {
			return true
		}
	}
	return false
}
