package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cristianoliveira/koyr/cmd"
	"github.com/cristianoliveira/koyr/internal/colors"
	"github.com/cristianoliveira/koyr/internal/command"
	"github.com/cristianoliveira/koyr/internal/search"
)

// listedResult is the JSON shape of one ranked command.
type listedResult struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Score     int    `json:"score"`
	Positions []int  `json:"positions"`
	Typo      bool   `json:"typo,omitempty"`
}

type listOptions struct {
	commandsPath string
	limit        int
	json         bool
	color        string
}

// isTerminal reports whether w is an interactive terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

const listCommandLong = `Rank commands against QUERY without opening the palette.

With no QUERY the first commands are listed in file order. Matched
characters are highlighted when writing to a terminal.`

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var opts listOptions
	listCmd := &cobra.Command{
		Use:   "list [QUERY]",
		Short: "Rank commands for a query",
		Long:  listCommandLong,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			color, err := useColor(opts.color, c.OutOrStdout())
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			src, err := resolveSource(opts.commandsPath)
			if err != nil {
				return err
			}
			cmds, _, err := src.staticCommands()
			if err != nil {
				return err
			}
			results := search.NewEngine(searchOptions(opts.limit)...).Rank(cmds, query)
			if opts.json {
				return printListJSON(c.OutOrStdout(), results)
			}
			printList(c.OutOrStdout(), results, color)
			return nil
		},
	}
	cmd.AddCommandsFlag(listCmd.Flags(), &opts.commandsPath)
	cmd.AddLimitFlag(listCmd.Flags(), &opts.limit, "maximum number of results (default result_limit)")
	listCmd.Flags().BoolVar(&opts.json, "json", false, "print results as JSON")
	listCmd.Flags().StringVar(&opts.color, "color", "auto", "highlight matches: auto, always, never")
	return listCmd
}

// ErrInvalidColorMode is returned for a --color value other than auto,
// always or never.
var ErrInvalidColorMode = errors.New("invalid color mode")

func useColor(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		return isTerminal(w), nil
	default:
		return false, fmt.Errorf("%w %q: must be auto, always or never", ErrInvalidColorMode, mode)
	}
}

func printListJSON(w io.Writer, results []search.Result) error {
	out := make([]listedResult, len(results))
	for i, r := range results {
		positions := r.Positions
		if positions == nil {
			positions = []int{}
		}
		out[i] = listedResult{
			ID:        r.ID(),
			Name:      r.Command.CommandName(),
			Kind:      command.Kind(r.Command).String(),
			Score:     r.Score,
			Positions: positions,
			Typo:      r.Typo,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printList(w io.Writer, results []search.Result, color bool) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results")
		return
	}
	width := 0
	for _, r := range results {
		width = max(width, len(r.ID()))
	}
	for _, r := range results {
		name := r.Command.CommandName()
		if color {
			name = highlight(name, r.Positions)
		}
		marker := " "
		if r.Typo {
			marker = "~"
		}
		fmt.Fprintf(w, "%-*s %s %s\n", width, r.ID(), marker, name)
	}
}

// highlight wraps matched runes of name in ANSI colour codes.
func highlight(name string, positions []int) string {
	runes := []rune(name)
	var b strings.Builder
	next := 0
	for _, span := range search.Spans(positions) {
		if span.Start < next || span.End > len(runes) {
			continue
		}
		b.WriteString(string(runes[next:span.Start]))
		b.WriteString(colors.Yellow)
		b.WriteString(string(runes[span.Start:span.End]))
		b.WriteString(colors.Reset)
		next = span.End
	}
	b.WriteString(string(runes[next:]))
	return b.String()
}

func init() {
	cmd.RootCmd.AddCommand(NewListCmd())
}
