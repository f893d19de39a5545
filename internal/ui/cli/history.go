package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"xref/internal/core/ports"
	"xref/internal/data/history"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

type historyOptions struct {
	limit int
	since string
	all   bool
}

func newHistoryCommand(root *rootOptions) *cobra.Command {
	opts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded generation runs",
		Long: `History prints the runs recorded in output.history_db, newest first.
By default only runs of the configured destination are listed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, root, opts)
		},
	}
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "maximum number of runs (0 for all)")
	cmd.Flags().StringVar(&opts.since, "since", "", "only runs at/after this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "include every destination")
	return cmd
}

func runHistory(cmd *cobra.Command, root *rootOptions, opts *historyOptions) error {
	cleanupLogs := configureLogging(false, root.verbose)
	defer cleanupLogs()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("detect working directory: %w", err)
	}
	cfg, _, err := loadConfig(root.configPath, cwd)
	if err != nil {
		return err
	}
	if cfg.Output.HistoryDB == "" {
		return fmt.Errorf("output.history_db is not configured")
	}
	since, err := parseSince(opts.since)
	if err != nil {
		return err
	}

	store, err := ports.OpenSQLiteHistory(cfg.Output.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	destination := cfg.Output.Destination
	if opts.all {
		destination = ""
	}
	runs, err := store.LoadSnapshots(destination, since, opts.limit)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), renderHistory(runs, opts.all))
	return err
}

func parseSince(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), nil
	}
	if day, err := time.Parse("2006-01-02", value); err == nil {
		return day.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid --since %q: use RFC3339 or YYYY-MM-DD", value)
}

func renderHistory(runs []history.Snapshot, withDestination bool) string {
	if len(runs) == 0 {
		return statusStyle.Render("no runs recorded")
	}

	headers := []string{"started", "outcome", "pages", "skipped", "types", "ambiguous", "duration", "run"}
	if withDestination {
		headers = append(headers, "destination")
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		row := []string{
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Outcome,
			strconv.Itoa(run.FilesEmitted),
			strconv.Itoa(run.FilesFailed),
			strconv.Itoa(run.TypesIndexed),
			strconv.Itoa(run.AmbiguousCount),
			run.Duration.Round(time.Millisecond).String(),
			shortID(run.RunID),
		}
		if withDestination {
			row = append(row, run.Destination)
		}
		rows = append(rows, row)
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			if col == 1 && row >= 0 && row < len(runs) {
				switch runs[row].Outcome {
				case "error":
					return style.Inherit(errorStyle)
				case "partial":
					return style.Inherit(warnStyle)
				}
			}
			return style
		}).
		String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
