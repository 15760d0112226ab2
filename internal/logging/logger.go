// Package logging writes JSON log files for koyr through charmbracelet/log.
//
// File logging is off unless logging_enabled is set. Every process gets its
// own file under {state_dir}/logs; old files are rotated away on start.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"

	"github.com/cristianoliveira/koyr/internal/colors"
)

// Logger is the structured logger handed to the palette, the hooks runner
// and the history recorder. Args are alternating keys and values.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	// With returns a logger that adds args to every entry.
	With(args ...any) Logger
	// Shutdown closes the log file. Loggers derived with With share it.
	Shutdown() error
}

// logFile is the file shared by a logger and everything derived from it.
type logFile struct {
	path string
	f    *os.File

	once sync.Once
	err  error
}

func (lf *logFile) close() error {
	if lf == nil {
		return nil
	}
	lf.once.Do(func() { lf.err = lf.f.Close() })
	return lf.err
}

type jsonLogger struct {
	log  *clog.Logger
	file *logFile
}

// Init opens a new log file for cfg. A disabled config yields a logger
// that drops everything.
func Init(cfg Config) (Logger, error) {
	if !cfg.Enabled {
		return noopLogger{}, nil
	}
	dir, err := LogDir()
	if err != nil {
		return nil, fmt.Errorf("log directory: %w", err)
	}
	if err := rotate(dir, cfg.MaxFiles); err != nil {
		colors.Debug("log rotation failed:", err.Error())
	}
	path := filepath.Join(dir, fileName(cfg, time.Now()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	l := newJSONLogger(f, cfg)
	l.file = &logFile{path: path, f: f}
	return l, nil
}

// fileName is koyr_<timestamp>_PID<pid>_<command>.log.
func fileName(cfg Config, at time.Time) string {
	command := strings.ReplaceAll(cfg.Command, " ", "_")
	return fmt.Sprintf("%s%s_PID%d_%s.log", filePrefix, at.Format("20060102_150405"), cfg.PID, command)
}

// New returns a logger writing JSON lines to w. Hosts embedding the
// palette use it to route logs into their own sinks; the caller owns w.
func New(w io.Writer, cfg Config) Logger {
	return newJSONLogger(w, cfg)
}

func newJSONLogger(w io.Writer, cfg Config) *jsonLogger {
	l := clog.NewWithOptions(w, clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		Level:           parseLevel(cfg.Level),
	})
	l.SetFormatter(clog.JSONFormatter)
	return &jsonLogger{log: l.With("pid", cfg.PID, "command", cfg.Command)}
}

// parseLevel maps a configured level to clog's; anything unknown is info.
func parseLevel(level string) clog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return clog.WarnLevel
	}
	l, err := clog.ParseLevel(level)
	if err != nil || l > clog.ErrorLevel {
		return clog.InfoLevel
	}
	return l
}

func (l *jsonLogger) Debug(msg string, args ...any) { l.log.Debug(msg, redactPairs(args)...) }
func (l *jsonLogger) Info(msg string, args ...any)  { l.log.Info(msg, redactPairs(args)...) }
func (l *jsonLogger) Warn(msg string, args ...any)  { l.log.Warn(msg, redactPairs(args)...) }
func (l *jsonLogger) Error(msg string, args ...any) { l.log.Error(msg, redactPairs(args)...) }

func (l *jsonLogger) With(args ...any) Logger {
	return &jsonLogger{log: l.log.With(redactPairs(args)...), file: l.file}
}

func (l *jsonLogger) Shutdown() error {
	return l.file.close()
}

func (l *jsonLogger) path() string {
	if l.file == nil {
		return ""
	}
	return l.file.path
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (n noopLogger) With(...any) Logger { return n }
func (noopLogger) Shutdown() error      { return nil }

var (
	globalMu sync.RWMutex
	global   Logger = noopLogger{}
)

// InitGlobal opens the process logger from the loaded configuration and
// mirrors CLI messages into it. A previous global logger is shut down.
func InitGlobal() error {
	l, err := Init(FromGlobalConfig())
	if err != nil {
		return err
	}
	globalMu.Lock()
	prev := global
	global = l
	globalMu.Unlock()
	_ = prev.Shutdown()

	colors.SetLogger(l)
	if path := CurrentLogFile(); path != "" {
		colors.Debug("Logging to file:", path)
	}
	return nil
}

// GetGlobal returns the process logger, a no-op one until InitGlobal.
func GetGlobal() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

func Debug(msg string, args ...any) { GetGlobal().Debug(msg, args...) }
func Info(msg string, args ...any)  { GetGlobal().Info(msg, args...) }
func Warn(msg string, args ...any)  { GetGlobal().Warn(msg, args...) }
func Error(msg string, args ...any) { GetGlobal().Error(msg, args...) }

// ShutdownGlobal closes the process log file.
func ShutdownGlobal() error {
	return GetGlobal().Shutdown()
}

// CurrentLogFile returns the path of the process log file, or "" when file
// logging is off.
func CurrentLogFile() string {
	if l, ok := GetGlobal().(*jsonLogger); ok {
		return l.path()
	}
	return ""
}
