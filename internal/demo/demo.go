// Package demo provides built-in commands for trying the palette without a
// commands file. Each provider keeps its own state and follows the
// lifecycle events of its command on the bus.
package demo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cristianoliveira/koyr/internal/command"
	"github.com/cristianoliveira/koyr/internal/eventbus"
)

// Logger receives the demo actions' output.
type Logger interface {
	Info(msg string, args ...any)
}

type provider interface {
	command() command.Command
	attach(bus *eventbus.Bus) []func()
}

// Set is the collection of demo providers.
type Set struct {
	providers []provider
	onChange  func()
	logger    Logger

	bigTaskDelay time.Duration
	fetchDelay   time.Duration
}

// Option configures a Set.
type Option func(*Set)

// WithOnChange is called whenever a provider's name or detail changes. It
// may be called from any goroutine and must not block.
func WithOnChange(fn func()) Option {
	return func(s *Set) { s.onChange = fn }
}

// WithLogger receives what the simple tasks "do".
func WithLogger(l Logger) Option {
	return func(s *Set) { s.logger = l }
}

// WithDelays overrides how long the big task runs and the async view loads.
func WithDelays(bigTask, fetch time.Duration) Option {
	return func(s *Set) {
		s.bigTaskDelay = bigTask
		s.fetchDelay = fetch
	}
}

// New creates the demo set.
func New(opts ...Option) *Set {
	s := &Set{
		bigTaskDelay: 500 * time.Millisecond,
		fetchDelay:   800 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	flag := &flagState{}
	s.providers = []provider{
		&bigTask{set: s},
		simpleTask{set: s, name: "A"},
		simpleTask{set: s, name: "B"},
		simpleTask{set: s, name: "C"},
		oneTaskOutOfMany{set: s},
		&asyncView{set: s},
		&toggleFlag{set: s, flag: flag},
		deleteUser{},
		&awareTask{set: s},
	}
	return s
}

// Commands returns the current commands. Names may change between calls.
func (s *Set) Commands() []command.Command {
	cmds := make([]command.Command, len(s.providers))
	for i, p := range s.providers {
		cmds[i] = p.command()
	}
	return cmds
}

// Attach subscribes every provider to bus.
func (s *Set) Attach(bus *eventbus.Bus) (detach func()) {
	var unsubs []func()
	for _, p := range s.providers {
		unsubs = append(unsubs, p.attach(bus)...)
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *Set) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *Set) log(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

type bigTaskState string

const (
	bigTaskInitial   bigTaskState = "initial"
	bigTaskExecuting bigTaskState = "executing"
	bigTaskDone      bigTaskState = "done"
)

// bigTask takes a while and tracks its own progress through events.
type bigTask struct {
	set *Set

	mu    sync.Mutex
	state bigTaskState
}

const bigTaskID = "runBigTask"

func (t *bigTask) command() command.Command {
	return command.Actionable{
		ID:     bigTaskID,
		Name:   "Run a big task",
		Detail: t.view,
		Action: func(ctx context.Context) error {
			select {
			case <-time.After(t.set.bigTaskDelay):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
}

func (t *bigTask) view() string {
	switch t.current() {
	case bigTaskExecuting:
		return "Running that big task!"
	case bigTaskDone:
		return "Done running that big task"
	default:
		return "This will run a big command"
	}
}

func (t *bigTask) current() bigTaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == "" {
		return bigTaskInitial
	}
	return t.state
}

func (t *bigTask) setState(state bigTaskState) {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
	t.set.changed()
}

func (t *bigTask) attach(bus *eventbus.Bus) []func() {
	return []func(){
		bus.Subscribe(eventbus.Execute, bigTaskID, func(eventbus.Event) { t.setState(bigTaskExecuting) }),
		bus.Subscribe(eventbus.Done, bigTaskID, func(eventbus.Event) { t.setState(bigTaskDone) }),
	}
}

// simpleTask logs its name.
type simpleTask struct {
	set  *Set
	name string
}

func (t simpleTask) command() command.Command {
	return command.Actionable{
		ID:     "simpleTask" + t.name,
		Name:   "Simple task " + t.name,
		Detail: fmt.Sprintf("Will log %s", t.name),
		Action: func(context.Context) error {
			t.set.log("Logging this name: " + t.name)
			return nil
		},
	}
}

func (simpleTask) attach(*eventbus.Bus) []func() { return nil }

type oneTaskOutOfMany struct {
	set *Set
}

func (t oneTaskOutOfMany) command() command.Command {
	return command.Actionable{
		ID:     "oneTaskOutOfMany",
		Name:   "One task out of many",
		Detail: "This task will only reset the search",
		Action: func(context.Context) error {
			t.set.log("Doing all kinds of stuff")
			return nil
		},
	}
}

func (oneTaskOutOfMany) attach(*eventbus.Bus) []func() { return nil }

// asyncView "fetches" its preview while highlighted and forgets it on blur.
type asyncView struct {
	set *Set

	mu      sync.Mutex
	fetched bool
	timer   *time.Timer
	gen     int
}

const asyncViewID = "asyncView"

func (v *asyncView) command() command.Command {
	return command.Actionable{
		ID:     asyncViewID,
		Name:   "Async view",
		Detail: v.view,
		Action: func(context.Context) error {
			v.set.log("Async view selected")
			return nil
		},
	}
}

func (v *asyncView) view() string {
	if v.isFetched() {
		return "Wow, that was coool"
	}
	return "Loading..."
}

func (v *asyncView) isFetched() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fetched
}

func (v *asyncView) focus(eventbus.Event) {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	if v.timer != nil {
		v.timer.Stop()
	}
	v.timer = time.AfterFunc(v.set.fetchDelay, func() {
		v.mu.Lock()
		// A blur or a newer focus since this fetch started wins.
		if v.gen != gen {
			v.mu.Unlock()
			return
		}
		v.fetched = true
		v.mu.Unlock()
		v.set.changed()
	})
	v.mu.Unlock()
}

func (v *asyncView) blur(eventbus.Event) {
	v.mu.Lock()
	v.gen++
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	wasFetched := v.fetched
	v.fetched = false
	v.mu.Unlock()
	if wasFetched {
		v.set.changed()
	}
}

func (v *asyncView) attach(bus *eventbus.Bus) []func() {
	return []func(){
		bus.Subscribe(eventbus.Focus, asyncViewID, v.focus),
		bus.Subscribe(eventbus.Blur, asyncViewID, v.blur),
	}
}

type flagState struct {
	mu    sync.Mutex
	flag  bool
	count int
}

// toggleFlag flips a flag shared with the rest of the demo.
type toggleFlag struct {
	set  *Set
	flag *flagState
}

func (t *toggleFlag) command() command.Command {
	return command.Actionable{
		ID:     "toggleFlagTask",
		Name:   "Toggle that flag",
		Detail: t.view,
		Action: func(context.Context) error {
			t.flag.mu.Lock()
			t.flag.flag = !t.flag.flag
			t.flag.count++
			t.flag.mu.Unlock()
			t.set.changed()
			return nil
		},
	}
}

func (t *toggleFlag) view() string {
	t.flag.mu.Lock()
	defer t.flag.mu.Unlock()
	return fmt.Sprintf("Change flag from %t to %t\nHave toggled %d times", t.flag.flag, !t.flag.flag, t.flag.count)
}

func (t *toggleFlag) attach(*eventbus.Bus) []func() { return nil }

// deleteUser has no action; its detail is all there is.
type deleteUser struct{}

func (deleteUser) command() command.Command {
	return command.Informational{
		ID:     "deleteUserTask",
		Name:   "Delete user",
		Detail: "Look up a user id with `koyr list user`",
	}
}

func (deleteUser) attach(*eventbus.Bus) []func() { return nil }

// awareTask shows in its name whether it is highlighted.
type awareTask struct {
	set *Set

	mu       sync.Mutex
	focused  bool
	executed int
}

const awareTaskID = "awareTask"

func (t *awareTask) command() command.Command {
	t.mu.Lock()
	defer t.mu.Unlock()
	return command.Actionable{
		ID:     awareTaskID,
		Name:   fmt.Sprintf("Aware task %t", t.focused),
		Detail: t.view,
		Action: func(context.Context) error { return nil },
	}
}

func (t *awareTask) view() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fmt.Sprintf("Focused: %t\nRuns: %d", t.focused, t.executed)
}

func (t *awareTask) setFocused(focused bool) {
	t.mu.Lock()
	changed := t.focused != focused
	t.focused = focused
	t.mu.Unlock()
	if changed {
		t.set.changed()
	}
}

func (t *awareTask) attach(bus *eventbus.Bus) []func() {
	return []func(){
		bus.Subscribe(eventbus.Focus, awareTaskID, func(eventbus.Event) { t.setFocused(true) }),
		bus.Subscribe(eventbus.Blur, awareTaskID, func(eventbus.Event) { t.setFocused(false) }),
		bus.Subscribe(eventbus.Execute, awareTaskID, func(eventbus.Event) {
			t.mu.Lock()
			t.executed++
			t.mu.Unlock()
			t.set.changed()
		}),
	}
}
