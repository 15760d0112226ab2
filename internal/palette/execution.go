package palette

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianoliveira/koyr/internal/command"
)

// ErrActionPanic wraps a panic raised by an action.
var ErrActionPanic = errors.New("action panicked")

// Execution is the handle of one running action. It completes when the
// action returns; the owning palette then settles it once.
type Execution struct {
	id       uint64
	cmd      command.Command
	started  time.Time
	done     chan struct{}
	err      error
	duration time.Duration

	// settled is only touched on the palette's goroutine.
	settled bool
}

func newExecution(id uint64, cmd command.Command) *Execution {
	return &Execution{
		id:      id,
		cmd:     cmd,
		started: time.Now(),
		done:    make(chan struct{}),
	}
}

// ID returns the palette-unique execution number.
func (e *Execution) ID() uint64 { return e.id }

// Command returns the command being run.
func (e *Execution) Command() command.Command { return e.cmd }

// Done is closed when the action returns.
func (e *Execution) Done() <-chan struct{} { return e.done }

// Err returns the action's error once Done is closed, nil before.
func (e *Execution) Err() error {
	select {
	case <-e.done:
		return e.err
	default:
		return nil
	}
}

// Duration returns how long the action ran, zero while it runs.
func (e *Execution) Duration() time.Duration {
	select {
	case <-e.done:
		return e.duration
	default:
		return 0
	}
}

// Wait blocks until the action returns or ctx ends.
func (e *Execution) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return e.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run calls action and completes the execution, whatever it returns.
func (e *Execution) run(ctx context.Context, action command.Action) {
	defer func() {
		if r := recover(); r != nil {
			e.err = fmt.Errorf("%w: %v", ErrActionPanic, r)
		}
		e.duration = time.Since(e.started)
		close(e.done)
	}()
	e.err = action(ctx)
}
