package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cristianoliveira/koyr/cmd"
	"github.com/cristianoliveira/koyr/internal/command"
	"github.com/cristianoliveira/koyr/internal/demo"
	kerrors "github.com/cristianoliveira/koyr/internal/errors"
	"github.com/cristianoliveira/koyr/internal/history"
	"github.com/cristianoliveira/koyr/internal/hooks"
	"github.com/cristianoliveira/koyr/internal/logging"
	"github.com/cristianoliveira/koyr/internal/palette"
	"github.com/cristianoliveira/koyr/internal/tui/render"
)

// ErrUnknownCommand is returned when no command has the requested id.
var ErrUnknownCommand = errors.New("unknown command")

const execCommandLong = `Run one command by id without the palette.

The command goes through the same selection path as in the palette, so
hooks run and the run is recorded in the history. Output is streamed to
stdout. Informational commands print their detail.`

// NewExecCmd creates the exec command. A successful run is reported to
// reporter; failures are returned.
func NewExecCmd(reporter kerrors.ErrorHandler) *cobra.Command {
	if reporter == nil {
		panic("NewExecCmd: reporter dependency cannot be nil")
	}
	var commandsPath string
	execCmd := &cobra.Command{
		Use:   "exec ID",
		Short: "Run a command by id",
		Long:  execCommandLong,
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return execByID(ctx, c.OutOrStdout(), c.ErrOrStderr(), reporter, commandsPath, args[0])
		},
	}
	cmd.AddCommandsFlag(execCmd.Flags(), &commandsPath)
	return execCmd
}

func execByID(ctx context.Context, stdout, stderr io.Writer, reporter kerrors.ErrorHandler, commandsPath, id string) error {
	src, err := resolveSource(commandsPath)
	if err != nil {
		return err
	}
	src.Shell.Stdout = stdout
	logger := logging.GetGlobal()
	cmds, demoSet, err := src.staticCommands(demo.WithLogger(logger))
	if err != nil {
		return err
	}
	target, ok := command.Find(cmds, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, id)
	}

	opts := []palette.Option{
		palette.WithCommands(cmds),
		palette.WithLogger(logger),
		palette.WithActionContext(ctx),
		// Ranking by the exact name must keep the target in the results.
		palette.WithSearchOptions(searchOptions(len(cmds))...),
	}
	store, err := openHistory()
	if err != nil {
		logger.Warn("history disabled", "error", err)
	}
	if store != nil {
		defer store.Close()
		rec := history.NewRecorder(store, logger)
		opts = append(opts, rec.PaletteOptions()...)
	}

	p, err := palette.New(nil, opts...)
	if err != nil {
		return err
	}
	defer p.Release()

	if demoSet != nil {
		defer demoSet.Attach(p.Bus())()
	}
	if runner := hooks.FromConfig(hooks.WithSync(), hooks.WithOutput(stderr), hooks.WithLogger(logger)); runner != nil {
		defer runner.Attach(p.Bus(), cmds)()
	}

	p.Open()
	p.Change(target.CommandName())
	row := -1
	for i, r := range p.View().Results {
		if r.ID() == id {
			row = i
			break
		}
	}
	if row < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, id)
	}

	exec := p.SelectAt(row)
	if exec == nil {
		if detail := render.Detail(target.CommandDetail()); detail != "" {
			fmt.Fprintln(stdout, detail)
		}
		return nil
	}
	select {
	case <-exec.Done():
	case <-ctx.Done():
		// The action shares ctx and stops on its own.
		logger.Warn("interrupted, waiting for command", "command_id", id)
		<-exec.Done()
	}
	p.Settle(exec)
	if err := exec.Err(); err != nil {
		return err
	}
	reporter.Success("Ran " + target.CommandName())
	return nil
}

func init() {
	cmd.RootCmd.AddCommand(NewExecCmd(kerrors.NewDefaultCLIHandler()))
}
