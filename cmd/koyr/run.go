package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cristianoliveira/koyr/cmd"
	"github.com/cristianoliveira/koyr/internal/colors"
	"github.com/cristianoliveira/koyr/internal/command"
	"github.com/cristianoliveira/koyr/internal/config"
	"github.com/cristianoliveira/koyr/internal/demo"
	"github.com/cristianoliveira/koyr/internal/eventbus"
	"github.com/cristianoliveira/koyr/internal/history"
	"github.com/cristianoliveira/koyr/internal/hooks"
	"github.com/cristianoliveira/koyr/internal/keymap"
	"github.com/cristianoliveira/koyr/internal/logging"
	"github.com/cristianoliveira/koyr/internal/palette"
	"github.com/cristianoliveira/koyr/internal/tui/state"
)

// programRunner runs a bubbletea model until it quits.
type programRunner interface {
	Run(model tea.Model) error
}

type teaRunner struct{}

func (teaRunner) Run(model tea.Model) error {
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	return err
}

type runOptions struct {
	commandsPath string
	open         bool
	limit        int
}

const runCommandLong = `Open the command palette.

Commands come from the commands file ({config_dir}/commands.toml, or the
file given with --commands). Without a commands file a set of demo commands
is shown. Press the toggle key to open and close the palette, type to
filter, enter to run the highlighted command and esc to close.`

// NewRunCmd creates the run command with explicit dependencies.
func NewRunCmd(runner programRunner) *cobra.Command {
	if runner == nil {
		panic("NewRunCmd: runner dependency cannot be nil")
	}

	var opts runOptions
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Open the command palette",
		Long:  runCommandLong,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runPalette(c.Context(), runner, opts)
		},
	}
	cmd.AddCommandsFlag(runCmd.Flags(), &opts.commandsPath)
	cmd.AddLimitFlag(runCmd.Flags(), &opts.limit, "maximum number of results (default result_limit)")
	runCmd.Flags().BoolVar(&opts.open, "open", true, "start with the palette open")
	return runCmd
}

// hookBinding keeps the hook subscriptions in step with the loaded commands.
type hookBinding struct {
	runner *hooks.Runner
	bus    *eventbus.Bus

	mu     sync.Mutex
	detach func()
}

func (h *hookBinding) bind(cmds []command.Command) {
	if h.runner == nil || h.bus == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.detach != nil {
		h.detach()
	}
	h.detach = h.runner.Attach(h.bus, cmds)
}

func runPalette(ctx context.Context, runner programRunner, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	src, err := resolveSource(opts.commandsPath)
	if err != nil {
		return err
	}
	logger := logging.GetGlobal()

	paletteOpts := []palette.Option{
		palette.WithLogger(logger),
		palette.WithSearchOptions(searchOptions(opts.limit)...),
		palette.WithActionContext(ctx),
	}

	store, err := openHistory()
	if err != nil {
		colors.Warning("history disabled:", err.Error())
	}
	if store != nil {
		defer store.Close()
		rec := history.NewRecorder(store, logger)
		paletteOpts = append(paletteOpts, rec.PaletteOptions()...)
	}

	var model *state.Model
	binding := &hookBinding{runner: hooks.FromConfig(hooks.WithLogger(logger))}
	if binding.runner != nil {
		if err := binding.runner.Init(); err != nil {
			colors.Warning(err.Error())
		}
		defer binding.runner.Wait()
	}

	var (
		source  state.Source
		demoSet *demo.Set
	)
	if src.Demo() {
		changes := make(chan struct{}, 1)
		demoSet = demo.New(
			demo.WithLogger(logger),
			demo.WithOnChange(func() {
				select {
				case changes <- struct{}{}:
				default:
				}
			}),
		)
		source = state.Source{
			Load:    func() ([]command.Command, error) { return demoSet.Commands(), nil },
			Changes: changes,
		}
	} else {
		source = state.Source{Load: func() ([]command.Command, error) {
			cmds, err := src.load(func(msg string) { model.ErrorHandler().Warning(msg) })
			if err != nil {
				return nil, err
			}
			binding.bind(cmds)
			return cmds, nil
		}}
	}

	model, err = state.New(state.Config{
		PaletteOptions: paletteOpts,
		Keys:           keymap.DefaultKeyMap(config.Get("toggle_key", config.DefaultToggleKey())),
		Source:         source,
		StartOpen:      opts.open,
	})
	if err != nil {
		return err
	}
	defer model.Close()
	binding.bus = model.Palette().Bus()

	if demoSet != nil {
		defer demoSet.Attach(model.Palette().Bus())()
		binding.bind(demoSet.Commands())
	}

	defer colors.SuspendTraces()()
	logging.Info("palette started", "commands_file", src.Path, "demo", src.Demo())
	return runner.Run(model)
}

var runCmd = NewRunCmd(teaRunner{})

func init() {
	cmd.RootCmd.AddCommand(runCmd)
	// Bare `koyr` opens the palette too.
	cmd.RootCmd.RunE = runCmd.RunE
	cmd.RootCmd.Flags().AddFlagSet(runCmd.Flags())
}
