package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/seolens/seolens/internal/config"
	"github.com/seolens/seolens/internal/history"
	"github.com/seolens/seolens/internal/report"
)

// NewHistoryCmd creates the history command.
// This command inspects past audit runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [site]",
		Short: "Inspect past audit runs",
		Long: `History lists and replays audit runs stored in the local database.

Every 'seolens audit' run is recorded (unless --no-history was given), so
past results can be reviewed without re-auditing the site.

Examples:
  # List all sites with stored runs
  seolens history --list-sites

  # List runs for a site (newest first)
  seolens history example.com

  # Replay a stored report by ID (use the site listing to find IDs)
  seolens history --show-run-id 5

  # Replay a stored report as JSON
  seolens history --show-run-id 5 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-sites", "L", false,
		"List all sites with stored audit runs")
	cmd.Flags().Int64P("show-run-id", "i", 0,
		"Print the full stored report for a run ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output the replayed report in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the replayed report in Markdown format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listSites, err := cmd.Flags().GetBool("list-sites")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetInt64("show-run-id")
	if err != nil {
		return err
	}

	if !listSites && runID == 0 && len(args) == 0 {
		return errors.New("site is required (use --list-sites to see stored sites)")
	}

	db, err := history.Open(config.XDGDataDir(), history.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no audit history available: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	switch {
	case listSites:
		return printSites(ctx, cmd, db)
	case runID != 0:
		return printStoredReport(ctx, cmd, db, runID)
	default:
		return printRunHistory(ctx, cmd, db, args[0])
	}
}

// printSites lists all sites with stored runs.
func printSites(ctx context.Context, cmd *cobra.Command, db *history.HistoryDB) error {
	sites, err := db.ListSites(ctx)
	if err != nil {
		return err
	}

	if len(sites) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No stored audit runs.")
		return nil
	}

	for _, site := range sites {
		fmt.Fprintln(cmd.OutOrStdout(), site)
	}
	return nil
}

// printRunHistory lists the stored runs for a site, newest first.
func printRunHistory(ctx context.Context, cmd *cobra.Command, db *history.HistoryDB, site string) error {
	runs, err := db.GetRunHistory(ctx, site)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No stored runs for %s.\n", site)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%-6s %-20s %-7s %-7s %-7s %s\n",
		"ID", "DATE", "PAGES", "ISSUES", "BROKEN", "STATUS")
	for _, run := range runs {
		status := "complete"
		if run.TimedOut {
			status = "timed out"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-6d %-20s %-7d %-7d %-7d %s\n",
			run.ID,
			run.Timestamp.Format(time.DateTime),
			run.Pages,
			run.Summary.PagesWithIssues,
			run.Summary.BrokenLinks,
			status,
		)
	}
	return nil
}

// printStoredReport replays a stored report in the requested format.
func printStoredReport(ctx context.Context, cmd *cobra.Command, db *history.HistoryDB, runID int64) error {
	stored, err := db.GetReportByID(ctx, runID)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("no stored run with ID %d", runID)
	}

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	var writer report.Writer
	switch {
	case jsonOut:
		writer = report.NewJSONWriter(cmd.OutOrStdout(), report.WithPrettyPrint())
	case markdownOut:
		writer = report.NewMarkdownWriter(cmd.OutOrStdout())
	default:
		writer = report.NewSimpleWriter(cmd.OutOrStdout())
	}

	_, err = writer.Write(stored)
	return err
}
