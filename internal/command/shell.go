package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultShell runs command lines when Shell.Path is empty.
const DefaultShell = "/bin/sh"

// maxOutputBytes bounds the captured output kept for the detail pane.
const maxOutputBytes = 16 * 1024

// Shell runs command lines with `Path -c`.
type Shell struct {
	Path string
	// Stdout, when set, also receives the output of every run.
	Stdout io.Writer
	// WaitDelay bounds how long a canceled run may keep its pipes open.
	WaitDelay time.Duration
}

func (s Shell) path() string {
	if s.Path == "" {
		return DefaultShell
	}
	return s.Path
}

// Action returns an Action that runs def.Run and records into out.
func (s Shell) Action(def Definition, out *Output) Action {
	return func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, s.path(), "-c", def.Run)
		cmd.Dir = def.Dir
		cmd.Env = mergeEnv(os.Environ(), def.Env)
		cmd.WaitDelay = s.WaitDelay
		var w io.Writer = out
		if s.Stdout != nil {
			w = io.MultiWriter(out, s.Stdout)
		}
		cmd.Stdout = w
		cmd.Stderr = w

		out.start()
		err := cmd.Run()
		out.finish(err)
		if err != nil {
			return fmt.Errorf("%s: %w", def.ID, err)
		}
		return nil
	}
}

// mergeEnv appends extra to base in key order; later entries win in exec.
func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(base)+len(keys))
	env = append(env, base...)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}

// RunState is the lifecycle of a shell command's latest run.
type RunState int

const (
	RunIdle RunState = iota
	RunRunning
	RunSucceeded
	RunFailed
)

func (s RunState) String() string {
	switch s {
	case RunRunning:
		return "running"
	case RunSucceeded:
		return "succeeded"
	case RunFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Output is the live detail of a shell command. It collects the tail of the
// latest run's output and is safe for concurrent writes and reads.
type Output struct {
	mu     sync.Mutex
	script string
	note   string
	buf    []byte
	state  RunState
	err    error
}

// NewOutput returns an idle Output for script with an optional note.
func NewOutput(script, note string) *Output {
	return &Output{script: script, note: note}
}

func (o *Output) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buf = append(o.buf, p...)
	if over := len(o.buf) - maxOutputBytes; over > 0 {
		o.buf = o.buf[over:]
	}
	return len(p), nil
}

func (o *Output) start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.buf = o.buf[:0]
	o.state = RunRunning
	o.err = nil
}

func (o *Output) finish(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
	if err != nil {
		o.state = RunFailed
	} else {
		o.state = RunSucceeded
	}
}

// State returns the state of the latest run.
func (o *Output) State() RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Text returns the captured output of the latest run.
func (o *Output) Text() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return string(o.buf)
}

// View renders the script, note, status and captured output.
func (o *Output) View() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	var b strings.Builder
	b.WriteString("$ " + o.script)
	if o.note != "" {
		b.WriteString("\n" + o.note)
	}
	switch o.state {
	case RunRunning:
		b.WriteString("\n[running]")
	case RunSucceeded:
		b.WriteString("\n[done]")
	case RunFailed:
		b.WriteString("\n[failed: " + o.err.Error() + "]")
	}
	if text := strings.TrimRight(string(o.buf), "\n"); text != "" {
		b.WriteString("\n" + text)
	}
	return b.String()
}
