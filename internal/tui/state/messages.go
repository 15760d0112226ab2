package state

import (
	"github.com/cristianoliveira/koyr/internal/command"
	"github.com/cristianoliveira/koyr/internal/palette"
)

// executionSettledMsg is sent when a running action returns.
type executionSettledMsg struct {
	exec *palette.Execution
}

// commandsLoadedMsg carries the result of a Source load.
type commandsLoadedMsg struct {
	commands []command.Command
	err      error
}

// commandsChangedMsg is sent when the source reports that its commands
// changed.
type commandsChangedMsg struct{}

// clearStatusMsg clears the status line after its message expired.
type clearStatusMsg struct{}
