package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cristianoliveira/koyr/cmd"
	kerrors "github.com/cristianoliveira/koyr/internal/errors"
	"github.com/cristianoliveira/koyr/internal/history"
)

// historyStore is the part of history.Store the history command uses.
type historyStore interface {
	Recent(ctx context.Context, limit int) ([]history.Run, error)
	Clear(ctx context.Context) (int64, error)
	Close() error
}

// ErrHistoryDisabled is returned when history_enabled is false.
var ErrHistoryDisabled = errors.New("history is disabled")

type historyOptions struct {
	limit int
	json  bool
	clear bool
}

type historyRun struct {
	ID          string `json:"id"`
	CommandID   string `json:"command_id"`
	CommandName string `json:"command_name"`
	StartedAt   string `json:"started_at"`
	DurationMS  int64  `json:"duration_ms"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

const historyDefaultLimit = 20

// NewHistoryCmd creates the history command. open returns the store to
// read; tests pass a fake. reporter receives the --clear outcome.
func NewHistoryCmd(open func() (historyStore, error), now func() time.Time, reporter kerrors.ErrorHandler) *cobra.Command {
	var opts historyOptions
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent command runs",
		Long: `Show the most recent palette runs, newest first.

Use --clear to delete the recorded runs.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := c.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if opts.clear {
				n, err := store.Clear(ctx)
				if err != nil {
					return err
				}
				reporter.Success(fmt.Sprintf("Cleared %d runs", n))
				return nil
			}
			limit := opts.limit
			if limit <= 0 {
				limit = historyDefaultLimit
			}
			runs, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if opts.json {
				return printHistoryJSON(c.OutOrStdout(), runs)
			}
			printHistory(c.OutOrStdout(), runs, now())
			return nil
		},
	}
	cmd.AddLimitFlag(historyCmd.Flags(), &opts.limit, fmt.Sprintf("maximum number of runs (default %d)", historyDefaultLimit))
	historyCmd.Flags().BoolVar(&opts.json, "json", false, "print runs as JSON")
	historyCmd.Flags().BoolVar(&opts.clear, "clear", false, "delete all recorded runs")
	return historyCmd
}

func openHistoryStore() (historyStore, error) {
	store, err := openHistory()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, ErrHistoryDisabled
	}
	return store, nil
}

func printHistory(w io.Writer, runs []history.Run, now time.Time) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tCOMMAND\tSTATUS\tDURATION")
	for _, r := range runs {
		status := string(r.Status)
		if r.Error != "" {
			status += ": " + r.Error
		}
		duration := "-"
		if r.Status != history.StatusRunning {
			duration = r.Duration.Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", humanize.RelTime(r.StartedAt, now, "ago", "from now"), r.CommandName, status, duration)
	}
	tw.Flush()
}

func printHistoryJSON(w io.Writer, runs []history.Run) error {
	out := make([]historyRun, len(runs))
	for i, r := range runs {
		out[i] = historyRun{
			ID:          r.ID,
			CommandID:   r.CommandID,
			CommandName: r.CommandName,
			StartedAt:   r.StartedAt.UTC().Format(time.RFC3339),
			DurationMS:  r.Duration.Milliseconds(),
			Status:      string(r.Status),
			Error:       r.Error,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	cmd.RootCmd.AddCommand(NewHistoryCmd(openHistoryStore, time.Now, kerrors.NewDefaultCLIHandler()))
}
