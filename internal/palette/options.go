package palette

import (
	"context"

	"github.com/cristianoliveira/koyr/internal/command"
	"github.com/cristianoliveira/koyr/internal/eventbus"
	"github.com/cristianoliveira/koyr/internal/search"
)

// Logger is the logging surface the palette needs. logging.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Scheduler runs fn later on the goroutine that owns the palette.
type Scheduler func(fn func())

// Options configures a Palette.
type Options struct {
	Bus    *eventbus.Bus
	Logger Logger
	Search []search.Option
	// Commands is the initial command list. A palette created without
	// commands reports Loading until SetCommands is called.
	Commands []command.Command
	// OnSelect is called synchronously whenever select resolves a command.
	OnSelect func(command.Command)
	// OnStart is called with every execution right after it is created and
	// before its action runs.
	OnStart func(*Execution)
	// OnOpen is called after the palette opens, to move input focus.
	OnOpen func()
	// OnSettle is called after an execution is settled.
	OnSettle func(*Execution)
	// Scheduler, when set, makes the palette settle executions itself.
	Scheduler Scheduler
	// ActionContext is passed to every action. The palette never cancels it.
	ActionContext context.Context
}

// Option is a function that modifies palette options.
type Option func(*Options)

// WithBus shares bus with the palette instead of creating one.
func WithBus(bus *eventbus.Bus) Option {
	return func(o *Options) { o.Bus = bus }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithSearchOptions configures the ranking engine.
func WithSearchOptions(opts ...search.Option) Option {
	return func(o *Options) { o.Search = append(o.Search, opts...) }
}

// WithCommands sets the initial commands.
func WithCommands(cmds []command.Command) Option {
	return func(o *Options) { o.Commands = cmds }
}

// WithOnSelect sets the selection callback.
func WithOnSelect(fn func(command.Command)) Option {
	return func(o *Options) { o.OnSelect = fn }
}

// WithOnStart sets the execution start callback.
func WithOnStart(fn func(*Execution)) Option {
	return func(o *Options) { o.OnStart = fn }
}

// WithOnOpen sets the focus requester.
func WithOnOpen(fn func()) Option {
	return func(o *Options) { o.OnOpen = fn }
}

// WithOnSettle sets the settlement callback.
func WithOnSettle(fn func(*Execution)) Option {
	return func(o *Options) { o.OnSettle = fn }
}

// WithScheduler lets the palette schedule its own settlements.
func WithScheduler(s Scheduler) Option {
	return func(o *Options) { o.Scheduler = s }
}

// WithActionContext sets the context passed to actions.
func WithActionContext(ctx context.Context) Option {
	return func(o *Options) { o.ActionContext = ctx }
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func applyOptions(opts []Option) Options {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Bus == nil {
		o.Bus = eventbus.New(eventbus.WithLogger(o.loggerOrNop()))
	}
	o.Logger = o.loggerOrNop()
	if o.ActionContext == nil {
		o.ActionContext = context.Background()
	}
	return o
}

func (o Options) loggerOrNop() Logger {
	if o.Logger == nil {
		return nopLogger{}
	}
	return o.Logger
}
