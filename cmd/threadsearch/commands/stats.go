// ABOUTME: CLI command to show index statistics
// ABOUTME: Reports the saved snapshot and the most recent build report
package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/threadsearch/internal/models"
)

// statsOutput is the JSON shape of the stats command.
type statsOutput struct {
	DBPath     string              `json:"db_path"`
	SnapshotID string              `json:"snapshot_id"`
	CreatedAt  string              `json:"created_at"`
	Subthreads int                 `json:"subthreads"`
	Dimension  int                 `json:"dimension"`
	LastBuild  *models.BuildReport `json:"last_build,omitempty"`
}

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Long:  `Show the saved snapshot's size and dimension along with the last build report.`,
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	db, store, err := a.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	meta, err := store.Meta(cmd.Context())
	if err != nil {
		return a.noIndexError(err)
	}
	report, err := store.LatestReport(cmd.Context())
	if err != nil {
		return err
	}

	out := statsOutput{
		DBPath:     a.cfg.DBPath,
		SnapshotID: meta.SnapshotID,
		CreatedAt:  meta.CreatedAt.Format(time.RFC3339),
		Subthreads: meta.SubthreadCount,
		Dimension:  meta.Dimension,
		LastBuild:  report,
	}

	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Database:   %s\n", out.DBPath)
	fmt.Fprintf(w, "Snapshot:   %s (%s)\n", out.SnapshotID, formatTime(meta.CreatedAt))
	fmt.Fprintf(w, "Subthreads: %d\n", out.Subthreads)
	fmt.Fprintf(w, "Dimension:  %d\n", out.Dimension)
	if report != nil {
		fmt.Fprintf(w, "Last build: %d conversations, %d skipped, %d orphaned replies\n",
			report.Conversations, len(report.Failed), len(report.Orphans))
	}
	return nil
}
