package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/form-autofill/internal/db"
)

var runsCommand = &cobra.Command{
	Use:   "runs",
	Short: "List recent fill runs from the session ledger",
	Long:  "Reads the session ledger database and prints recent runs with their per-page results. Requires DATABASE_URL or --db-url.",
	RunE:  listRunsCmd,
}

var (
	runsDatabaseURL string
	runsLimit       int
	runsPages       bool
)

func init() {
	runsCommand.Flags().StringVar(&runsDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	runsCommand.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum number of runs to show")
	runsCommand.Flags().BoolVar(&runsPages, "pages", false, "Show the page ledger for each run")

	rootCmd.AddCommand(runsCommand)
}

func listRunsCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	databaseURL := runsDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	runs, err := database.ListRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Printf("No runs recorded yet.\n")
		return nil
	}

	for _, run := range runs {
		completed := "-"
		if run.CompletedAt != nil {
			completed = run.CompletedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%s  %-9s  started %s  completed %s  %s\n",
			run.ID, run.Status, run.CreatedAt.Format("2006-01-02 15:04:05"), completed, run.StartURL)

		if !runsPages {
			continue
		}
		pages, err := database.ListPages(ctx, run.ID)
		if err != nil {
			fmt.Printf("  Warning: failed to list pages: %v\n", err)
			continue
		}
		for _, p := range pages {
			decision := "declined"
			if p.Accepted {
				decision = "accepted"
			}
			fmt.Printf("  %s: %d question(s), %d filled, %d manual, %s, %d persisted\n",
				p.URL, p.Questions, p.Filled, p.ManualChanges, decision, p.Persisted)
		}
	}
	return nil
}
