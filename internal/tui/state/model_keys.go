package state

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cristianoliveira/koyr/internal/palette"
)

// handleKeyMsg processes keyboard input for the TUI.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	state := m.palette.State()
	intent, consumed := m.adapter.Key(msg, state)
	if consumed {
		return m, m.dispatch(intent)
	}

	switch state {
	case palette.Closed:
		return m.handleClosedKey(msg)
	case palette.Typing:
		return m.handleTypingKey(msg)
	}
	return m, nil
}

// handleClosedKey handles keys reaching the screen behind the palette.
func (m *Model) handleClosedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			return m, tea.Quit
		case "?":
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

// handleTypingKey forwards text editing keys to the query field and turns
// value changes into change intents.
func (m *Model) handleTypingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	intent, ok := m.adapter.TextChanged(prev, m.input.Value())
	if !ok {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.dispatch(intent))
}
