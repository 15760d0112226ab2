// Package colors provides color output utilities.
package colors

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Color constants
const (
	Red    = "\033[0;31m"
	Green  = "\033[0;32m"
	Yellow = "\033[1;33m"
	Blue   = "\033[0;34m"
	Cyan   = "\033[0;36m"
	Reset  = "\033[0m"
)

const checkmark = "✓"

// Logger defines the interface for structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var (
	debugEnabled atomic.Bool
	quietEnabled atomic.Bool
	inFallback   atomic.Bool
	logger       Logger
	loggerMu     sync.RWMutex
	writerMu     sync.Mutex

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func init() {
	if val := os.Getenv("KOYR_DEBUG"); val == "true" || val == "1" {
		debugEnabled.Store(true)
	}
}

// SetDebug enables or disables debug output.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// SetQuiet suppresses Info and Success output. Warnings and errors are
// always printed.
func SetQuiet(enabled bool) {
	quietEnabled.Store(enabled)
}

// SetLogger sets the structured logger to mirror console output.
func SetLogger(l Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// SetOutput redirects console output. Nil arguments restore the process
// streams. It returns a function that restores the previous writers.
func SetOutput(out, errOut io.Writer) (restore func()) {
	writerMu.Lock()
	defer writerMu.Unlock()
	prevOut, prevErr := stdout, stderr
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	stdout, stderr = out, errOut
	return func() {
		writerMu.Lock()
		defer writerMu.Unlock()
		stdout, stderr = prevOut, prevErr
	}
}

func currentLogger() Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// errorFallback logs an error message without using colors to avoid recursion.
func errorFallback(msg string) {
	_, _ = fmt.Fprintf(os.Stderr, "%s\n", msg)
}

// write prints one formatted line. A failed write is reported once as a
// warning; a failure while reporting goes to the raw stderr fallback.
func write(toErr bool, kind, line string) {
	writerMu.Lock()
	w := stdout
	if toErr {
		w = stderr
	}
	_, err := fmt.Fprint(w, line)
	writerMu.Unlock()
	if err == nil {
		return
	}
	if !inFallback.CompareAndSwap(false, true) {
		errorFallback("Warning: failed to print " + kind + " message: " + err.Error())
		return
	}
	defer inFallback.Store(false)
	Warning("failed to print " + kind + " message: " + err.Error())
}

// Error outputs an error message to stderr.
func Error(msgs ...string) {
	msg := strings.Join(msgs, " ")
	if l := currentLogger(); l != nil {
		l.Error(msg)
	}
	write(true, "error", fmt.Sprintf("%sError:%s %s%s\n", Red, Reset, msg, Reset))
}

// Success outputs a success message to stdout.
func Success(msgs ...string) {
	msg := strings.Join(msgs, " ")
	if l := currentLogger(); l != nil {
		l.Info(msg, "type", "success")
	}
	if quietEnabled.Load() {
		return
	}
	write(false, "success", fmt.Sprintf("%s%s%s %s%s\n", Green, checkmark, Reset, msg, Reset))
}

// Warning outputs a warning message to stderr.
func Warning(msgs ...string) {
	msg := strings.Join(msgs, " ")
	if l := currentLogger(); l != nil {
		l.Warn(msg)
	}
	write(true, "warning", fmt.Sprintf("%sWarning:%s %s%s\n", Yellow, Reset, msg, Reset))
}

// Info outputs an informational message to stdout.
func Info(msgs ...string) {
	msg := strings.Join(msgs, " ")
	if l := currentLogger(); l != nil {
		l.Info(msg)
	}
	if quietEnabled.Load() {
		return
	}
	write(false, "info", fmt.Sprintf("%s%s%s\n", Blue, msg, Reset))
}

// Debug outputs a debug message to stderr if debug is enabled.
func Debug(msgs ...string) {
	if !debugEnabled.Load() {
		return
	}
	msg := strings.Join(msgs, " ")
	if l := currentLogger(); l != nil {
		l.Debug(msg)
	}
	write(true, "debug", fmt.Sprintf("%sDebug:%s %s%s\n", Cyan, Reset, msg, Reset))
}
