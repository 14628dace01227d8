// ABOUTME: CLI command to search indexed subthreads
// ABOUTME: Restores the saved snapshot and ranks subthreads against the query
package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	searchLimit int
)

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed subthreads",
		Long: `Search indexed subthreads by semantic similarity.

The query is embedded with the configured embedder and compared
against every subthread in the saved snapshot. Use the same
embedder settings that built the index.

Examples:
  threadsearch search "how do I install docker on windows"
  threadsearch search --limit 10 "GA4 bonus marks"
  threadsearch search --format json "project deadline"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum results to return (default THREADSEARCH_TOP_K)")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	limit := a.cfg.TopK
	if cmd.Flags().Changed("limit") {
		if err := validatePositiveInt(searchLimit, "limit"); err != nil {
			return err
		}
		limit = searchLimit
	}

	query := args[0]

	db, store, err := a.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	snap, err := store.Load(cmd.Context())
	if err != nil {
		return a.noIndexError(err)
	}

	engine, err := a.engine()
	if err != nil {
		return err
	}
	engine.Publish(snap)

	results, err := engine.Retrieve(cmd.Context(), query, limit)
	if err != nil {
		return fmt.Errorf("searching subthreads: %w", err)
	}

	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	if len(results) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No subthreads found for query: %s\n", query)
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SCORE\tTOPIC\tROOT\tPOSTS\tPREVIEW\n")
	fmt.Fprintf(w, "-----\t-----\t----\t-----\t-------\n")
	for _, r := range results {
		fmt.Fprintf(w, "%.3f\t%s\t%d\t%d\t%s\n",
			r.Score,
			truncate(r.ConversationTitle, 24),
			r.RootPostNumber,
			len(r.PostNumbers),
			truncate(preview(r.CombinedText), 60))
	}
	_ = w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nFound %d result(s) in snapshot %s\n", len(results), snap.ID)
	}
	return nil
}
