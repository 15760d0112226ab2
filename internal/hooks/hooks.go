// Package hooks runs user scripts on command lifecycle events.
//
// Scripts live in {hooks_dir}/{point}/ where point is an event kind
// ("execute" or "done"). Every executable regular file in that directory
// runs in name order with the command's id and name in its environment.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cristianoliveira/koyr/internal/command"
	"github.com/cristianoliveira/koyr/internal/config"
	"github.com/cristianoliveira/koyr/internal/eventbus"
)

// FailureMode decides what a failing script does to the hook point.
type FailureMode string

const (
	// FailureIgnore drops script failures silently.
	FailureIgnore FailureMode = "ignore"
	// FailureWarn logs script failures and runs the remaining scripts.
	FailureWarn FailureMode = "warn"
	// FailureAbort stops at the first failing script and reports it.
	FailureAbort FailureMode = "abort"
)

// Points are the hook points scripts can be installed for.
var Points = []eventbus.Kind{eventbus.Execute, eventbus.Done}

// ErrHookFailed wraps the error of a script run in abort mode.
var ErrHookFailed = errors.New("hook failed")

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxAsync = 10
)

// Logger is the logging surface hooks need.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Runner executes hook scripts.
type Runner struct {
	dir      string
	mode     FailureMode
	timeout  time.Duration
	maxAsync int
	sync     bool
	output   io.Writer
	logger   Logger
	now      func() time.Time

	mu      sync.Mutex
	pending int
	wg      sync.WaitGroup
}

// Option configures a Runner.
type Option func(*Runner)

// WithFailureMode sets the failure mode.
func WithFailureMode(mode FailureMode) Option {
	return func(r *Runner) { r.mode = mode }
}

// WithTimeout bounds each script run.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithMaxAsync caps concurrently running background scripts.
func WithMaxAsync(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxAsync = n
		}
	}
}

// WithSync makes attached hooks run on the delivering goroutine instead of
// in the background.
func WithSync() Option {
	return func(r *Runner) { r.sync = true }
}

// WithOutput receives script stdout and stderr. Output is discarded by
// default since a full-screen host owns the terminal.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.output = w }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithClock replaces time.Now for HOOK_TIMESTAMP.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a runner for scripts under dir.
func New(dir string, opts ...Option) *Runner {
	r := &Runner{
		dir:      dir,
		mode:     FailureWarn,
		timeout:  defaultTimeout,
		maxAsync: defaultMaxAsync,
		output:   io.Discard,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FromConfig builds a runner from loaded configuration. It returns nil when
// hooks are disabled.
func FromConfig(opts ...Option) *Runner {
	if !config.GetBool("hooks_enabled", true) {
		return nil
	}
	dir := config.Get("hooks_dir", "")
	if dir == "" {
		return nil
	}
	mode, err := ParseFailureMode(config.Get("hooks_failure_mode", string(FailureWarn)))
	if err != nil {
		mode = FailureWarn
	}
	return New(dir, append([]Option{WithFailureMode(mode)}, opts...)...)
}

// Dir returns the hooks root.
func (r *Runner) Dir() string { return r.dir }

// Init creates the hook point directories.
func (r *Runner) Init() error {
	for _, point := range Points {
		dir := filepath.Join(r.dir, string(point))
		if err := os.MkdirAll(dir, config.FileModeDir); err != nil {
			return fmt.Errorf("failed to create hooks directory %s: %w", dir, err)
		}
	}
	return nil
}

// Scripts returns the executable scripts of a hook point in run order.
func (r *Runner) Scripts(point eventbus.Kind) []string {
	dir := filepath.Join(r.dir, string(point))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var scripts []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() || info.Mode()&0o111 == 0 {
			continue
		}
		scripts = append(scripts, path)
	}
	sort.Strings(scripts)
	return scripts
}

// Env returns the variables scripts receive for cmd at point.
func (r *Runner) Env(point eventbus.Kind, cmd command.Command) []string {
	return []string{
		"KOYR_COMMAND_ID=" + cmd.CommandID(),
		"KOYR_COMMAND_NAME=" + cmd.CommandName(),
		"KOYR_EVENT=" + string(point),
		"KOYR_HOOK_TIMESTAMP=" + r.now().Format(time.RFC3339),
		"KOYR_HOOKS_FAILURE_MODE=" + string(r.mode),
	}
}

// Run executes the scripts of point for cmd and waits for them. Only
// FailureAbort makes it return an error.
func (r *Runner) Run(ctx context.Context, point eventbus.Kind, cmd command.Command) error {
	scripts := r.Scripts(point)
	if len(scripts) == 0 {
		return nil
	}
	env := r.Env(point, cmd)
	for _, script := range scripts {
		if err := r.runScript(ctx, script, env); err != nil {
			name := filepath.Base(script)
			switch r.mode {
			case FailureAbort:
				return fmt.Errorf("%w: %s/%s: %v", ErrHookFailed, point, name, err)
			case FailureIgnore:
			default:
				r.warn("hook failed", "point", string(point), "script", name, "command", cmd.CommandID(), "error", err)
			}
		}
	}
	return nil
}

func (r *Runner) runScript(ctx context.Context, script string, env []string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, script)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = r.output
	cmd.Stderr = r.output
	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %s", r.timeout)
	}
	if err == nil && r.logger != nil {
		r.logger.Info("hook completed", "script", filepath.Base(script), "duration", time.Since(start).String())
	}
	return err
}

// Attach subscribes the runner to the execute and done events of cmds on
// bus. The returned function removes the subscriptions.
func (r *Runner) Attach(bus *eventbus.Bus, cmds []command.Command) (detach func()) {
	var unsubs []func()
	for _, cmd := range cmds {
		for _, point := range Points {
			unsubs = append(unsubs, bus.SubscribeErr(point, cmd.CommandID(), func(eventbus.Event) error {
				return r.dispatch(point, cmd)
			}))
		}
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (r *Runner) dispatch(point eventbus.Kind, cmd command.Command) error {
	if r.sync {
		return r.Run(context.Background(), point, cmd)
	}
	if len(r.Scripts(point)) == 0 {
		return nil
	}

	r.mu.Lock()
	if r.pending >= r.maxAsync {
		r.mu.Unlock()
		r.warn("too many hooks pending, skipping", "point", string(point), "command", cmd.CommandID(), "max", r.maxAsync)
		return nil
	}
	r.pending++
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer func() {
			r.mu.Lock()
			r.pending--
			r.mu.Unlock()
			r.wg.Done()
		}()
		// Nothing waits on background hooks, so abort can only be logged.
		if err := r.Run(context.Background(), point, cmd); err != nil {
			r.warn("hook aborted", "error", err)
		}
	}()
	return nil
}

// Wait blocks until background hooks finish.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Pending returns the number of running background hooks.
func (r *Runner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

func (r *Runner) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

// ParseFailureMode validates a failure mode name.
func ParseFailureMode(s string) (FailureMode, error) {
	switch mode := FailureMode(strings.ToLower(s)); mode {
	case FailureIgnore, FailureWarn, FailureAbort:
		return mode, nil
	}
	return "", fmt.Errorf("invalid hooks failure mode %q", s)
}
