package colors

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

// tracesSuspended is set while a full-screen program owns the terminal.
var tracesSuspended atomic.Bool

// TraceLevel is the severity of a Trace.
type TraceLevel string

const (
	LevelDebug TraceLevel = "debug"
	LevelInfo  TraceLevel = "info"
	LevelWarn  TraceLevel = "warn"
	LevelError TraceLevel = "error"
)

// Trace is one JSON progress line written to stderr in debug mode.
type Trace struct {
	Timestamp string         `json:"timestamp"`
	Level     TraceLevel     `json:"level"`
	Component string         `json:"component"`
	Action    string         `json:"action"`
	Status    string         `json:"status"`
	Error     string         `json:"error,omitempty"`
	ID        string         `json:"id,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Step starts an info trace.
func Step(component, action, status string) Trace {
	return Trace{Level: LevelInfo, Component: component, Action: action, Status: status}
}

// Fail marks the trace as an error carrying err.
func (t Trace) Fail(err error) Trace {
	t.Level = LevelError
	if err != nil {
		t.Error = err.Error()
	}
	return t
}

// For sets the id of the thing the trace is about.
func (t Trace) For(id string) Trace {
	t.ID = id
	return t
}

// With adds a field. Callers redact sensitive values first.
func (t Trace) With(key string, value any) Trace {
	fields := make(map[string]any, len(t.Fields)+1)
	for k, v := range t.Fields {
		fields[k] = v
	}
	fields[key] = value
	t.Fields = fields
	return t
}

// Emit writes the trace when debug output is on and traces are not
// suspended.
func (t Trace) Emit() {
	if !debugEnabled.Load() || tracesSuspended.Load() {
		return
	}
	t.Timestamp = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(t)
	if err != nil {
		errorFallback(fmt.Sprintf("failed to marshal trace: %v", err))
		return
	}
	write(true, "trace", string(data)+"\n")
}

// SuspendTraces stops trace output until the returned function is called.
// JSON lines on stderr would corrupt an alt-screen program.
func SuspendTraces() (resume func()) {
	tracesSuspended.Store(true)
	return func() { tracesSuspended.Store(false) }
}
