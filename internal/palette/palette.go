// Package palette implements the command palette state machine.
//
// A Palette is closed, typing or executing. Intents move it between those
// states, rank commands through the search engine, and notify the event
// bus of focus, blur, appear, execute and done transitions. All methods
// must be called from the goroutine that owns the palette; actions run on
// their own goroutines and are settled back on the owner's goroutine.
package palette

import (
	"github.com/cristianoliveira/koyr/internal/command"
	"github.com/cristianoliveira/koyr/internal/eventbus"
	"github.com/cristianoliveira/koyr/internal/search"
)

// State is the palette lifecycle state.
type State int

const (
	Closed State = iota
	Typing
	Executing
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Typing:
		return "typing"
	case Executing:
		return "executing"
	default:
		return "unknown"
	}
}

// Snapshot is what a renderer needs to draw the palette.
type Snapshot struct {
	IsOpen      bool
	State       State
	Query       string
	Highlighted int
	Results     []search.Result
	// Executing is the id of the running command, empty when none.
	Executing string
	// Loading is set until the first command list arrives.
	Loading bool
}

// Palette is one command palette instance.
type Palette struct {
	scope  *Scope
	opts   Options
	bus    *eventbus.Bus
	engine *search.Engine
	log    Logger

	state       State
	query       string
	highlighted int
	commands    []command.Command
	loaded      bool
	// results caches Rank(commands, query) while the palette is open.
	results []search.Result

	executing *Execution
	nextID    uint64
}

// New creates a palette registered in scope. It fails with
// ErrDuplicateInstance when scope already holds one. A nil scope gets a
// private one.
func New(scope *Scope, opts ...Option) (*Palette, error) {
	if scope == nil {
		scope = NewScope()
	}
	o := applyOptions(opts)
	p := &Palette{
		scope:  scope,
		opts:   o,
		bus:    o.Bus,
		engine: search.NewEngine(o.Search...),
		log:    o.Logger,
		state:  Closed,
	}
	if o.Commands != nil {
		p.commands = append([]command.Command(nil), o.Commands...)
		p.loaded = true
	}
	if err := scope.register(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Release frees the palette's scope. It is safe to call more than once.
func (p *Palette) Release() {
	p.scope.release(p)
}

// Bus returns the event bus the palette notifies.
func (p *Palette) Bus() *eventbus.Bus { return p.bus }

// State returns the current state.
func (p *Palette) State() State { return p.state }

// Executing returns the execution the palette is waiting on, or nil.
func (p *Palette) Executing() *Execution { return p.executing }

// View returns a snapshot for rendering.
func (p *Palette) View() Snapshot {
	s := Snapshot{
		IsOpen:      p.state != Closed,
		State:       p.state,
		Query:       p.query,
		Highlighted: p.highlighted,
		Loading:     !p.loaded,
	}
	if s.IsOpen {
		s.Results = append([]search.Result(nil), p.results...)
	}
	if p.executing != nil {
		s.Executing = p.executing.Command().CommandID()
	}
	return s
}

// Highlighted returns the highlighted result.
func (p *Palette) Highlighted() (search.Result, bool) {
	if p.state == Closed || p.highlighted >= len(p.results) {
		return search.Result{}, false
	}
	return p.results[p.highlighted], true
}

// SetCommands replaces the command list. The highlight follows the
// highlighted command's id when it is still ranked and is clamped
// otherwise. While typing, a highlight that lands on another command
// notifies blur for the old one and focus for the new one; appear is not
// notified for commands the new list adds.
func (p *Palette) SetCommands(cmds []command.Command) {
	prev, hadPrev := p.Highlighted()
	p.commands = append([]command.Command(nil), cmds...)
	p.loaded = true
	if p.state == Closed {
		return
	}
	p.results = p.engine.Rank(p.commands, p.query)
	p.highlighted = p.rederiveHighlight(prev, hadPrev)
	if p.state != Typing {
		return
	}

	next, hasNext := p.Highlighted()
	if hadPrev && hasNext && prev.ID() == next.ID() {
		return
	}
	var batch []eventbus.Event
	if hadPrev {
		batch = append(batch, eventbus.Event{CommandID: prev.ID(), Kind: eventbus.Blur})
	}
	if hasNext {
		batch = append(batch, eventbus.Event{CommandID: next.ID(), Kind: eventbus.Focus})
	}
	p.bus.Notify(batch)
}

func (p *Palette) rederiveHighlight(prev search.Result, hadPrev bool) int {
	if hadPrev {
		for i, r := range p.results {
			if r.ID() == prev.ID() {
				return i
			}
		}
	}
	return min(p.highlighted, max(len(p.results)-1, 0))
}

// Toggle opens a closed palette and closes an open one.
func (p *Palette) Toggle() bool {
	if p.state == Closed {
		return p.Open()
	}
	return p.Close()
}

// Open moves a closed palette to typing with an empty query.
func (p *Palette) Open() bool {
	if p.state != Closed {
		return false
	}
	p.state = Typing
	p.query = ""
	p.highlighted = 0
	p.results = p.engine.Rank(p.commands, "")
	p.log.Debug("palette opened", "results", len(p.results))
	if p.opts.OnOpen != nil {
		p.opts.OnOpen()
	}
	return true
}

// Close closes the palette. A running action keeps running and is still
// settled later.
func (p *Palette) Close() bool {
	if p.state == Closed {
		return false
	}
	from := p.state
	p.state = Closed
	p.executing = nil
	p.results = nil
	p.log.Debug("palette closed", "from", from.String())
	return true
}

// Change sets the query and re-ranks. It notifies appear for every result
// that was not ranked before, then blur/focus when the new top result is
// not the command that was highlighted before the change. After moving
// the highlight, that is the highlighted row rather than the old top row.
func (p *Palette) Change(text string) bool {
	if p.state != Typing {
		return false
	}
	old := p.results
	oldTop, hadOld := p.Highlighted()
	next := p.engine.Rank(p.commands, text)

	p.query = text
	p.highlighted = 0
	p.results = next

	seen := make(map[string]bool, len(old))
	for _, r := range old {
		seen[r.ID()] = true
	}
	var batch []eventbus.Event
	for _, r := range next {
		if !seen[r.ID()] {
			batch = append(batch, eventbus.Event{CommandID: r.ID(), Kind: eventbus.Appear})
		}
	}
	newTopID := ""
	if len(next) > 0 {
		newTopID = next[0].ID()
	}
	oldTopID := ""
	if hadOld {
		oldTopID = oldTop.ID()
	}
	if oldTopID != newTopID {
		if hadOld {
			batch = append(batch, eventbus.Event{CommandID: oldTopID, Kind: eventbus.Blur})
		}
		if newTopID != "" {
			batch = append(batch, eventbus.Event{CommandID: newTopID, Kind: eventbus.Focus})
		}
	}
	p.log.Debug("query changed", "query_len", len(text), "results", len(next), "events", len(batch))
	p.bus.Notify(batch)
	return true
}

// MoveDown highlights the next result, wrapping around.
func (p *Palette) MoveDown() bool {
	return p.move(1)
}

// MoveUp highlights the previous result, wrapping around.
func (p *Palette) MoveUp() bool {
	return p.move(-1)
}

func (p *Palette) move(delta int) bool {
	n := len(p.results)
	if p.state != Typing || n == 0 {
		return false
	}
	prev := p.results[p.highlighted].ID()
	p.highlighted = (p.highlighted + delta + n) % n
	next := p.results[p.highlighted].ID()
	p.bus.Notify([]eventbus.Event{
		{CommandID: prev, Kind: eventbus.Blur},
		{CommandID: next, Kind: eventbus.Focus},
	})
	return true
}

// Highlight points the highlight at row i without notifying.
func (p *Palette) Highlight(i int) bool {
	if p.state != Typing || i < 0 || i >= len(p.results) {
		return false
	}
	p.highlighted = i
	return true
}

// Select selects the highlighted result. See SelectAt.
func (p *Palette) Select() *Execution {
	return p.SelectAt(p.highlighted)
}

// SelectAt selects row i. An actionable command starts executing and its
// Execution is returned; informational commands and stale rows leave the
// palette as it is and return nil. OnSelect sees every resolved command.
func (p *Palette) SelectAt(i int) *Execution {
	if p.state != Typing || i < 0 || i >= len(p.results) {
		return nil
	}
	cmd := p.results[i].Command
	if p.opts.OnSelect != nil {
		p.opts.OnSelect(cmd)
	}
	action, ok := command.ActionOf(cmd)
	if !ok {
		p.log.Debug("informational command selected", "command_id", cmd.CommandID())
		return nil
	}

	p.nextID++
	exec := newExecution(p.nextID, cmd)
	p.state = Executing
	p.executing = exec
	p.log.Debug("executing command", "command_id", cmd.CommandID(), "execution", exec.ID())
	p.bus.Emit(eventbus.Execute, cmd.CommandID())
	if p.opts.OnStart != nil {
		p.opts.OnStart(exec)
	}

	scheduler := p.opts.Scheduler
	go func() {
		exec.run(p.opts.ActionContext, action)
		if scheduler != nil {
			scheduler(func() { p.Settle(exec) })
		}
	}()
	return exec
}

// Settle delivers the done event for a completed execution and, if the
// palette is still waiting on it, closes the palette. It reports false for
// executions that are still running or were already settled.
func (p *Palette) Settle(exec *Execution) bool {
	if exec == nil || exec.settled {
		return false
	}
	select {
	case <-exec.Done():
	default:
		return false
	}
	exec.settled = true

	id := exec.Command().CommandID()
	if err := exec.Err(); err != nil {
		p.log.Warn("command failed", "command_id", id, "duration", exec.Duration(), "error", err)
	} else {
		p.log.Info("command finished", "command_id", id, "duration", exec.Duration())
	}

	if p.state == Executing && p.executing == exec {
		p.state = Closed
		p.executing = nil
		p.results = nil
	}
	p.bus.Emit(eventbus.Done, id)
	if p.opts.OnSettle != nil {
		p.opts.OnSettle(exec)
	}
	return true
}
