package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianoliveira/koyr/internal/colors"
	"github.com/cristianoliveira/koyr/internal/command"
	"github.com/cristianoliveira/koyr/internal/errors"
	"github.com/cristianoliveira/koyr/internal/palette"
	"github.com/cristianoliveira/koyr/internal/search"
)

func result(id, name string, positions ...int) search.Result {
	return search.Result{Command: command.New(id, name, nil, nil), Positions: positions}
}

func plainLines(s string) []string {
	return strings.Split(ansi.Strip(s), "\n")
}

func TestAnsiColorNumber(t *testing.T) {
	assert.Equal(t, "34", ansiColorNumber(colors.Blue))
	assert.Equal(t, "33", ansiColorNumber(colors.Yellow))
	assert.Equal(t, "", ansiColorNumber("x"))
	assert.Equal(t, "", ansiColorNumber("\033[0m"))
}

func TestHighlightKeepsText(t *testing.T) {
	out := Highlight("Gamma", []int{0, 1, 4}, lipgloss.NewStyle(), lipgloss.NewStyle().Bold(true))
	assert.Equal(t, "Gamma", ansi.Strip(out))

	out = Highlight("ab", []int{5}, lipgloss.NewStyle(), lipgloss.NewStyle())
	assert.Equal(t, "ab", ansi.Strip(out), "out of range positions are ignored")
}

func TestRow(t *testing.T) {
	r := result("a", "Alpha", 0)
	assert.Equal(t, "› Alpha", ansi.Strip(Row(r, 40, true, false)))
	assert.Equal(t, "  Alpha", ansi.Strip(Row(r, 40, false, false)))

	r.Typo = true
	assert.Equal(t, "  Alpha ≈", ansi.Strip(Row(r, 40, false, false)))
	assert.Equal(t, "  Alpha ≈ ●", ansi.Strip(Row(r, 40, false, true)))

	long := result("l", strings.Repeat("x", 50))
	assert.Equal(t, 10, ansi.StringWidth(Row(long, 10, false, false)))
}

type viewer struct{}

func (viewer) View() string   { return "view" }
func (viewer) String() string { return "stringer" }

type stringer struct{}

func (stringer) String() string { return "stringer" }

func TestDetail(t *testing.T) {
	tests := []struct {
		name   string
		detail any
		want   string
	}{
		{"nil", nil, ""},
		{"string", "text", "text"},
		{"view wins over stringer", viewer{}, "view"},
		{"stringer", stringer{}, "stringer"},
		{"func", func() string { return "live" }, "live"},
		{"other", 42, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detail(tt.detail))
		})
	}
}

func TestPaletteLayoutMatchesRendering(t *testing.T) {
	state := PaletteState{
		Snapshot: palette.Snapshot{
			IsOpen:  true,
			State:   palette.Typing,
			Results: []search.Result{result("a", "Alpha"), result("b", "Beta"), result("c", "Gamma")},
		},
		Input:  "> ",
		Width:  80,
		Height: 24,
	}

	out, layout := Palette(state)
	lines := plainLines(out)

	assert.Equal(t, 24/boxTopDivisor, layout.Y)
	assert.Equal(t, 3, layout.Rows)
	assert.Equal(t, layout.Y+3, layout.RowsY)
	assert.Equal(t, maxBoxWidth+2, layout.W)
	assert.Equal(t, (80-layout.W)/2, layout.X)
	require.Len(t, lines, layout.Y+layout.H)

	for i, name := range []string{"Alpha", "Beta", "Gamma"} {
		line := lines[layout.RowsY+i]
		assert.Contains(t, line, name)
		assert.Equal(t, layout.X, strings.Index(line, "│"), "row %d starts at the box edge", i)
	}
	assert.Contains(t, lines[layout.RowsY], "› Alpha")
}

func TestPaletteEmptyStates(t *testing.T) {
	out, layout := Palette(PaletteState{Snapshot: palette.Snapshot{IsOpen: true, Loading: true}})
	assert.Contains(t, ansi.Strip(out), "Loading commands...")
	assert.Zero(t, layout.Rows)

	out, layout = Palette(PaletteState{Snapshot: palette.Snapshot{IsOpen: true, Query: "zzz"}})
	assert.Contains(t, ansi.Strip(out), "No results")
	_, ok := layout.RowAt(layout.X+2, layout.Y+3)
	assert.False(t, ok)
}

func TestPaletteDetailAndExecuting(t *testing.T) {
	out, _ := Palette(PaletteState{
		Snapshot: palette.Snapshot{
			IsOpen:    true,
			State:     palette.Executing,
			Results:   []search.Result{result("big", "Run a big task")},
			Executing: "big",
		},
		Detail:        "Running that big task!",
		ExecutingName: "Run a big task",
		Spinner:       "*",
		Width:         60,
		Height:        20,
	})
	text := ansi.Strip(out)
	assert.Contains(t, text, "Running that big task!")
	assert.Contains(t, text, "* Running Run a big task...")
	assert.Contains(t, text, "● ")
}

func TestPaletteCapsDetail(t *testing.T) {
	detail := strings.Repeat("line\n", 20)
	out, _ := Palette(PaletteState{
		Snapshot: palette.Snapshot{IsOpen: true, Results: []search.Result{result("a", "A")}},
		Detail:   detail,
	})
	assert.LessOrEqual(t, strings.Count(ansi.Strip(out), "line"), maxDetailLines)
}

func TestPaletteNarrowTerminal(t *testing.T) {
	out, layout := Palette(PaletteState{
		Snapshot: palette.Snapshot{IsOpen: true, Results: []search.Result{result("a", "A long command name")}},
		Width:    20,
		Height:   10,
	})
	assert.LessOrEqual(t, layout.X+layout.W, 20)
	for _, line := range plainLines(out) {
		assert.LessOrEqual(t, ansi.StringWidth(line), 20)
	}
}

func TestLayoutHitTesting(t *testing.T) {
	l := Layout{X: 4, Y: 2, W: 30, H: 8, RowsY: 5, Rows: 3}

	row, ok := l.RowAt(10, 6)
	assert.True(t, ok)
	assert.Equal(t, 1, row)

	_, ok = l.RowAt(10, 8)
	assert.False(t, ok, "below the last row")
	_, ok = l.RowAt(4, 5)
	assert.False(t, ok, "left border")
	_, ok = l.RowAt(10, 3)
	assert.False(t, ok, "input line")

	assert.True(t, l.InsideBox(4, 2))
	assert.True(t, l.InsideBox(33, 9))
	assert.False(t, l.InsideBox(34, 9))
	assert.False(t, l.InsideBox(10, 10))
	assert.False(t, l.InsideBox(3, 5))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "✗ boom", ansi.Strip(Status(errors.Message{Text: "boom", Type: errors.MessageTypeError}, 0)))
	assert.Equal(t, "✓ ran", ansi.Strip(Status(errors.Message{Text: "ran", Type: errors.MessageTypeSuccess}, 0)))
	assert.Equal(t, "hi", ansi.Strip(Status(errors.Message{Text: "hi", Type: errors.MessageTypeInfo}, 0)))
	assert.Equal(t, 5, ansi.StringWidth(Status(errors.Message{Text: "a long warning", Type: errors.MessageTypeWarning}, 5)))
}

func TestBackground(t *testing.T) {
	out := ansi.Strip(Background("press ctrl+k", 80))
	assert.Contains(t, out, "koyr")
	assert.Contains(t, out, "press ctrl+k")
}
