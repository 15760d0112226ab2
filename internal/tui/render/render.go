// Package render draws the palette overlay. It is pure: given a snapshot
// and a terminal size it returns the text to print and the geometry used
// for mouse hit testing.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/cristianoliveira/koyr/internal/colors"
	"github.com/cristianoliveira/koyr/internal/errors"
	"github.com/cristianoliveira/koyr/internal/palette"
	"github.com/cristianoliveira/koyr/internal/search"
)

const (
	DefaultWidth  = 80
	DefaultHeight = 24

	maxBoxWidth    = 72
	minBoxWidth    = 24
	maxDetailLines = 8
	// The box starts a sixth of the way down the screen.
	boxTopDivisor = 6

	highlightMarker = "› "
	plainMarker     = "  "
	typoMarker      = " ≈"
	ellipsis        = "…"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ansiColorNumber(colors.Blue))).
			PaddingLeft(1).
			PaddingRight(1)
	faintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	matchStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ansiColorNumber(colors.Yellow)))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ansiColorNumber(colors.Cyan)))
	executingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ansiColorNumber(colors.Green)))
)

// PaletteState is everything Palette draws.
type PaletteState struct {
	Snapshot palette.Snapshot
	// Input is the rendered query field.
	Input string
	// Detail is the text of the highlighted command's detail.
	Detail string
	// ExecutingName names the running command, if any.
	ExecutingName string
	// Spinner is the current spinner frame.
	Spinner string
	Width   int
	Height  int
}

// Palette renders the overlay box positioned on a Width x Height screen.
func Palette(s PaletteState) (string, Layout) {
	width, height := s.Width, s.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	inner := boxInnerWidth(width)
	content := inner - 2
	layout := Layout{
		X: max(0, (width-(inner+2))/2),
		Y: height / boxTopDivisor,
		W: inner + 2,
	}

	lines := []string{
		ansi.Truncate(s.Input, content, ""),
		faintStyle.Render(strings.Repeat("─", content)),
	}

	snap := s.Snapshot
	switch {
	case snap.Loading:
		lines = append(lines, faintStyle.Render("Loading commands..."))
	case len(snap.Results) == 0:
		lines = append(lines, faintStyle.Render("No results"))
	default:
		// Border line, input line, separator.
		layout.RowsY = layout.Y + 3
		layout.Rows = len(snap.Results)
		for i, r := range snap.Results {
			lines = append(lines, Row(r, content, i == snap.Highlighted, r.ID() == snap.Executing))
		}
	}

	if s.Detail != "" {
		lines = append(lines, faintStyle.Render(strings.Repeat("─", content)))
		lines = append(lines, detailLines(s.Detail, content)...)
	}
	if snap.Executing != "" {
		lines = append(lines, executingStyle.Render(ansi.Truncate(
			fmt.Sprintf("%s Running %s...", s.Spinner, s.ExecutingName), content, ellipsis)))
	}

	box := boxStyle.Width(inner).Render(strings.Join(lines, "\n"))
	boxLines := strings.Split(box, "\n")
	layout.H = len(boxLines)

	var b strings.Builder
	b.WriteString(strings.Repeat("\n", layout.Y))
	pad := strings.Repeat(" ", layout.X)
	for i, line := range boxLines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(pad)
		b.WriteString(line)
	}
	return b.String(), layout
}

func boxInnerWidth(width int) int {
	inner := width - 4
	if inner > maxBoxWidth {
		inner = maxBoxWidth
	}
	if inner < minBoxWidth {
		inner = max(width-2, 4)
	}
	return inner
}

func detailLines(detail string, width int) []string {
	wrapped := lipgloss.NewStyle().Width(width).Render(detail)
	lines := strings.Split(wrapped, "\n")
	if len(lines) > maxDetailLines {
		lines = append(lines[:maxDetailLines-1], faintStyle.Render(ellipsis))
	}
	return lines
}

// Row renders one result within width cells.
func Row(r search.Result, width int, highlighted, executing bool) string {
	marker, base := plainMarker, lipgloss.NewStyle()
	if highlighted {
		marker, base = highlightMarker, selectedStyle
	}
	row := marker + Highlight(r.Command.CommandName(), r.Positions, base, matchStyle)
	if r.Typo {
		row += faintStyle.Render(typoMarker)
	}
	if executing {
		row += executingStyle.Render(" ●")
	}
	return ansi.Truncate(row, width, ellipsis)
}

// Highlight renders name with the runes at positions in match style.
func Highlight(name string, positions []int, base, match lipgloss.Style) string {
	runes := []rune(name)
	var b strings.Builder
	next := 0
	for _, span := range search.Spans(positions) {
		if span.Start < next || span.End > len(runes) {
			continue
		}
		if span.Start > next {
			b.WriteString(base.Render(string(runes[next:span.Start])))
		}
		b.WriteString(match.Render(string(runes[span.Start:span.End])))
		next = span.End
	}
	if next < len(runes) {
		b.WriteString(base.Render(string(runes[next:])))
	}
	return b.String()
}

// Detail turns a command detail into text. Views and stringers are asked
// for their current text on every call.
func Detail(detail any) string {
	switch d := detail.(type) {
	case nil:
		return ""
	case string:
		return d
	case interface{ View() string }:
		return d.View()
	case fmt.Stringer:
		return d.String()
	case func() string:
		if d == nil {
			return ""
		}
		return d()
	default:
		return fmt.Sprint(d)
	}
}

// Status renders a status line message.
func Status(msg errors.Message, width int) string {
	var style lipgloss.Style
	prefix := ""
	switch msg.Type {
	case errors.MessageTypeError:
		style, prefix = lipgloss.NewStyle().Foreground(lipgloss.Color(ansiColorNumber(colors.Red))), "✗ "
	case errors.MessageTypeWarning:
		style, prefix = lipgloss.NewStyle().Foreground(lipgloss.Color(ansiColorNumber(colors.Yellow))), "⚠ "
	case errors.MessageTypeSuccess:
		style, prefix = lipgloss.NewStyle().Foreground(lipgloss.Color(ansiColorNumber(colors.Green))), "✓ "
	default:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color(ansiColorNumber(colors.Cyan)))
	}
	text := prefix + msg.Text
	if width > 0 {
		text = ansi.Truncate(text, width, ellipsis)
	}
	return style.Render(text)
}

// Background renders the screen behind a closed palette.
func Background(hint string, width int) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ansiColorNumber(colors.Blue))).Render("koyr")
	if width > 0 {
		hint = ansi.Truncate(hint, width, ellipsis)
	}
	return title + "\n\n" + faintStyle.Render(hint)
}

// ansiColorNumber extracts the color number from an ANSI escape sequence.
// Example: "\033[0;34m" -> "34"
func ansiColorNumber(seq string) string {
	if len(seq) < 2 {
		return ""
	}
	lastSemicolon := strings.LastIndex(seq, ";")
	if lastSemicolon == -1 {
		return ""
	}
	return seq[lastSemicolon+1 : len(seq)-1]
}
