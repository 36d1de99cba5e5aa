package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/webconv/internal/config"
	"github.com/nao1215/webconv/internal/database"
)

// historyTimeLayout is the layout of timestamps in history listings.
const historyTimeLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous conversion runs",
		Long: `History lists conversion runs recorded in the history database,
newest first. Use --pages to list the pages visited by a single run.

Examples:
  # List the 20 most recent runs
  webconv history

  # List the 5 most recent runs
  webconv history -n 5

  # Show the pages of run 12
  webconv history --pages 12`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", database.DefaultListLimit,
		"Maximum number of runs to list")
	cmd.Flags().Int64("pages", 0,
		"List the pages of the run with this ID")
	cmd.Flags().String("history-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetInt64("pages")
	if err != nil {
		return err
	}
	dir, err := cmd.Flags().GetString("history-dir")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	db, err := database.Open(dir, database.Options{CreateIfNotExists: false})
	if errors.Is(err, database.ErrNotFound) {
		fmt.Fprintln(out, "No conversion history found.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	if cmd.Flags().Changed("pages") {
		return listRunPages(cmd, db, runID, out)
	}
	return listRuns(cmd, db, limit, out)
}

// listRuns prints the most recent runs.
func listRuns(cmd *cobra.Command, db *database.HistoryDB, limit int, out io.Writer) error {
	runs, err := db.ListRuns(commandContext(cmd), limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No conversion history found.")
		return nil
	}

	fmt.Fprintf(out, "Conversion runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-19s  %-9s  %-8s  %-5s  %-9s  %s\n",
		"ID", "Date", "Status", "Format", "Depth", "Pages", "Start URL")
	for _, r := range runs {
		fmt.Fprintf(out, "  %-6d  %-19s  %-9s  %-8s  %-5d  %-9s  %s\n",
			r.ID,
			r.StartedAt.Local().Format(historyTimeLayout),
			r.Status,
			r.Format,
			r.Depth,
			fmt.Sprintf("%d/%d", r.PagesOK, r.PagesOK+r.PagesFailed),
			r.StartURL,
		)
	}
	return nil
}

// listRunPages prints the run with the given ID and its pages in visit order.
func listRunPages(cmd *cobra.Command, db *database.HistoryDB, runID int64, out io.Writer) error {
	ctx := commandContext(cmd)

	run, err := db.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get run %d: %w", runID, err)
	}
	if run == nil {
		return fmt.Errorf("run %d not found", runID)
	}

	pages, err := db.GetRunPages(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get pages of run %d: %w", runID, err)
	}

	fmt.Fprintf(out, "Run %d: %s\n", run.ID, run.StartURL)
	fmt.Fprintf(out, "Started:    %s\n", run.StartedAt.Local().Format(historyTimeLayout))
	fmt.Fprintf(out, "Status:     %s\n", run.Status)
	fmt.Fprintf(out, "Output dir: %s\n", run.OutputDir)
	if run.Error != "" {
		fmt.Fprintf(out, "Error:      %s\n", run.Error)
	}

	fmt.Fprintf(out, "\nPages (%d):\n", len(pages))
	for _, p := range pages {
		if p.Error != "" {
			fmt.Fprintf(out, "  [-] %s (%s)\n", p.URL, p.Error)
			continue
		}
		target := p.OutputPath
		if target == "" {
			target = "combined"
		}
		fmt.Fprintf(out, "  [+] %s -> %s\n", p.URL, target)
	}
	return nil
}
