package state

import (
	"strings"

	"github.com/cristianoliveira/koyr/internal/palette"
	"github.com/cristianoliveira/koyr/internal/tui/render"
)

// View renders the TUI.
func (m *Model) View() string {
	width, height := m.width, m.height
	if width == 0 {
		width = render.DefaultWidth
	}
	if height == 0 {
		height = render.DefaultHeight
	}

	snap := m.palette.View()
	var s strings.Builder
	if !snap.IsOpen {
		m.layout = render.Layout{}
		s.WriteString(render.Background(m.closedHint(), width))
	} else {
		out, layout := render.Palette(render.PaletteState{
			Snapshot:      snap,
			Input:         m.input.View(),
			Detail:        m.detail(snap),
			ExecutingName: m.executingName(),
			Spinner:       m.spinner.View(),
			Width:         width,
			Height:        height,
		})
		m.layout = layout
		s.WriteString(out)
	}

	s.WriteString("\n\n")
	if msg, ok := m.errorHandler.LatestWithin(statusDuration); ok {
		s.WriteString(render.Status(msg, width))
		s.WriteString("\n")
	}
	s.WriteString(m.help.View(m.adapter.KeyMap()))
	return s.String()
}

func (m *Model) closedHint() string {
	toggle := m.adapter.KeyMap().Toggle.Help().Key
	return "Press " + toggle + " to open the command palette, q to quit."
}

func (m *Model) detail(snap palette.Snapshot) string {
	if snap.Executing != "" {
		if exec := m.palette.Executing(); exec != nil {
			return render.Detail(exec.Command().CommandDetail())
		}
	}
	r, ok := m.palette.Highlighted()
	if !ok {
		return ""
	}
	return render.Detail(r.Command.CommandDetail())
}

func (m *Model) executingName() string {
	exec := m.palette.Executing()
	if exec == nil {
		return ""
	}
	return exec.Command().CommandName()
}
