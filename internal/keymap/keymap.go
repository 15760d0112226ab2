// Package keymap translates terminal key and mouse messages into palette
// intents. It holds nothing but its binding table and a hit tester supplied
// by the renderer.
package keymap

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cristianoliveira/koyr/internal/palette"
)

// KeyMap defines the palette key bindings.
type KeyMap struct {
	Toggle key.Binding
	Close  key.Binding
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
}

// DefaultKeyMap returns the default bindings with the given toggle key.
// Navigation fallbacks that collide with the toggle key are dropped.
func DefaultKeyMap(toggle string) KeyMap {
	toggle = strings.ToLower(toggle)
	return KeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(toggle),
			key.WithHelp(toggle, "toggle palette"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Up: key.NewBinding(
			key.WithKeys(without(toggle, "up", "ctrl+p", "ctrl+k")...),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys(without(toggle, "down", "ctrl+n", "ctrl+j")...),
			key.WithHelp("↓", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "run"),
		),
	}
}

func without(drop string, keys ...string) []string {
	out := keys[:0:0]
	for _, k := range keys {
		if k != drop {
			out = append(out, k)
		}
	}
	return out
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Close, k.Toggle}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Select, k.Close, k.Toggle}}
}

// HitTester maps screen coordinates to palette geometry. The renderer
// implements it from its last layout.
type HitTester interface {
	// RowAt returns the result row under (x, y).
	RowAt(x, y int) (row int, ok bool)
	// InsideBox reports whether (x, y) falls inside the palette box.
	InsideBox(x, y int) bool
}

// Adapter turns tea messages into intents.
type Adapter struct {
	keys KeyMap
	hits HitTester
}

// New creates an adapter. hits may be nil when mouse input is disabled.
func New(keys KeyMap, hits HitTester) *Adapter {
	return &Adapter{keys: keys, hits: hits}
}

// KeyMap returns the bindings, e.g. for a help view.
func (a *Adapter) KeyMap() KeyMap { return a.keys }

// Key translates a key press. consumed reports whether the host should
// keep the key from other widgets; an open palette consumes its
// navigation keys even while executing, when they produce no intent.
func (a *Adapter) Key(msg tea.KeyMsg, state palette.State) (intent palette.Intent, consumed bool) {
	if key.Matches(msg, a.keys.Toggle) {
		return palette.ToggleIntent{}, true
	}
	if state == palette.Closed {
		return nil, false
	}
	switch {
	case key.Matches(msg, a.keys.Close):
		return palette.CloseIntent{}, true
	case key.Matches(msg, a.keys.Down):
		if state == palette.Typing {
			return palette.MoveDownIntent{}, true
		}
		return nil, true
	case key.Matches(msg, a.keys.Up):
		if state == palette.Typing {
			return palette.MoveUpIntent{}, true
		}
		return nil, true
	case key.Matches(msg, a.keys.Select):
		if state == palette.Typing {
			return palette.SelectIntent{}, true
		}
		return nil, true
	}
	return nil, false
}

// TextChanged returns a change intent when the input value moved.
func (a *Adapter) TextChanged(prev, next string) (palette.Intent, bool) {
	if prev == next {
		return nil, false
	}
	return palette.ChangeIntent{Text: next}, true
}

// Mouse translates a mouse event. A left press on a row selects it, a
// right or middle press or plain motion over a row highlights it, the wheel
// moves the highlight, and a left press outside the box closes the palette.
func (a *Adapter) Mouse(msg tea.MouseMsg, state palette.State) (palette.Intent, bool) {
	if state == palette.Closed || a.hits == nil {
		return nil, false
	}
	row, onRow := a.hits.RowAt(msg.X, msg.Y)
	typing := state == palette.Typing

	switch {
	case msg.Action == tea.MouseActionMotion && msg.Button == tea.MouseButtonNone:
		if typing && onRow {
			return palette.HighlightIntent{Index: row}, true
		}
		return nil, false
	case msg.Button == tea.MouseButtonWheelDown:
		if typing {
			return palette.MoveDownIntent{}, true
		}
		return nil, true
	case msg.Button == tea.MouseButtonWheelUp:
		if typing {
			return palette.MoveUpIntent{}, true
		}
		return nil, true
	case msg.Action != tea.MouseActionPress:
		return nil, false
	}

	switch msg.Button {
	case tea.MouseButtonLeft:
		if onRow {
			if typing {
				return palette.SelectAt(row), true
			}
			return nil, true
		}
		if !a.hits.InsideBox(msg.X, msg.Y) {
			return palette.CloseIntent{}, true
		}
		return nil, true
	case tea.MouseButtonRight, tea.MouseButtonMiddle:
		if onRow && typing {
			return palette.HighlightIntent{Index: row}, true
		}
		return nil, onRow
	}
	return nil, false
}
