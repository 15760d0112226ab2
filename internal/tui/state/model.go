// Package state is the bubbletea host of the palette: it owns the palette
// core, feeds it translated input and renders its snapshots.
package state

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cristianoliveira/koyr/internal/command"
	"github.com/cristianoliveira/koyr/internal/errors"
	"github.com/cristianoliveira/koyr/internal/keymap"
	"github.com/cristianoliveira/koyr/internal/palette"
	"github.com/cristianoliveira/koyr/internal/tui/render"
)

const statusDuration = 5 * time.Second

// Source provides the commands shown by the palette.
type Source struct {
	// Load returns the current commands. It runs off the UI goroutine.
	Load func() ([]command.Command, error)
	// Changes, when set, receives a value whenever Load would return
	// something new.
	Changes <-chan struct{}
}

// Config configures a Model.
type Config struct {
	Scope          *palette.Scope
	PaletteOptions []palette.Option
	Keys           keymap.KeyMap
	Source         Source
	// StartOpen opens the palette as soon as the program starts.
	StartOpen bool
}

// Model is the bubbletea model hosting one palette.
type Model struct {
	palette      *palette.Palette
	adapter      *keymap.Adapter
	source       Source
	input        textinput.Model
	help         help.Model
	spinner      spinner.Model
	errorHandler *errors.TUIHandler
	layout       render.Layout

	width  int
	height int
}

// New creates the model and its palette.
func New(cfg Config) (*Model, error) {
	m := &Model{source: cfg.Source}

	m.input = textinput.New()
	m.input.Prompt = "> "
	m.input.Placeholder = "Type a command"
	m.help = help.New()
	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	m.errorHandler = errors.NewTUIHandler(nil)

	opts := append([]palette.Option{}, cfg.PaletteOptions...)
	opts = append(opts, palette.WithOnOpen(m.focusInput))
	p, err := palette.New(cfg.Scope, opts...)
	if err != nil {
		return nil, err
	}
	m.palette = p
	m.adapter = keymap.New(cfg.Keys, &m.layout)

	if cfg.StartOpen {
		p.Open()
	}
	return m, nil
}

// Palette returns the hosted palette, e.g. to subscribe to its bus.
func (m *Model) Palette() *palette.Palette { return m.palette }

// ErrorHandler returns the handler feeding the status line.
func (m *Model) ErrorHandler() *errors.TUIHandler { return m.errorHandler }

// Close releases the palette.
func (m *Model) Close() { m.palette.Release() }

func (m *Model) focusInput() {
	m.input.SetValue("")
	m.input.Focus()
}

// Init loads the commands and starts listening for changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.listen(), textinput.Blink)
}

func (m *Model) load() tea.Cmd {
	if m.source.Load == nil {
		return nil
	}
	load := m.source.Load
	return func() tea.Msg {
		cmds, err := load()
		return commandsLoadedMsg{commands: cmds, err: err}
	}
}

func (m *Model) listen() tea.Cmd {
	if m.source.Changes == nil {
		return nil
	}
	changes := m.source.Changes
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return commandsChangedMsg{}
	}
}

func waitForExecution(exec *palette.Execution) tea.Cmd {
	return func() tea.Msg {
		<-exec.Done()
		return executionSettledMsg{exec: exec}
	}
}

// Update handles messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.MouseMsg:
		intent, _ := m.adapter.Mouse(msg, m.palette.State())
		return m, m.dispatch(intent)
	case commandsLoadedMsg:
		if msg.err != nil {
			m.errorHandler.Error(msg.err.Error())
			m.palette.SetCommands([]command.Command{})
			return m, m.expireStatus()
		}
		m.palette.SetCommands(msg.commands)
		return m, nil
	case commandsChangedMsg:
		return m, tea.Batch(m.load(), m.listen())
	case executionSettledMsg:
		return m, m.settle(msg.exec)
	case spinner.TickMsg:
		if m.palette.Executing() == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case clearStatusMsg:
		return m, nil
	}

	if m.palette.State() == palette.Typing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// dispatch feeds an intent to the palette and returns the follow-up
// command for the execution it started, if any.
func (m *Model) dispatch(intent palette.Intent) tea.Cmd {
	if intent == nil {
		return nil
	}
	outcome := m.palette.Dispatch(intent)
	if m.palette.State() == palette.Closed {
		m.input.Blur()
	}
	if outcome.Execution == nil {
		return nil
	}
	m.input.Blur()
	return tea.Batch(waitForExecution(outcome.Execution), m.spinner.Tick)
}

func (m *Model) settle(exec *palette.Execution) tea.Cmd {
	if !m.palette.Settle(exec) {
		return nil
	}
	name := exec.Command().CommandName()
	errors.Report(m.errorHandler, name, exec.Err(), "Ran "+name)
	return m.expireStatus()
}

func (m *Model) expireStatus() tea.Cmd {
	return tea.Tick(statusDuration, func(time.Time) tea.Msg { return clearStatusMsg{} })
}
