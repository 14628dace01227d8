// ABOUTME: CLI command to build the subthread index from a post export
// ABOUTME: Rebuilds, persists the snapshot and prints the build report
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/threadsearch/internal/corpus"
	"github.com/harper/threadsearch/internal/models"
	"github.com/harper/threadsearch/internal/retrieval"
	"github.com/harper/threadsearch/internal/storage/sqlite"
)

var (
	indexDryRun bool
)

// NewIndexCmd creates the index command
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <posts.json>",
		Short: "Build the subthread index from a Discourse post export",
		Long: `Build the subthread index from a Discourse post export.

The export is a JSON array of posts with topic_id, topic_title,
post_number, reply_to_post_number and content. Every root post and
its replies become one searchable subthread. Conversations with
broken reply structure are skipped and listed in the report.

Examples:
  threadsearch index discourse_posts.json
  threadsearch index --dry-run --format json discourse_posts.json`,
		Args: cobra.ExactArgs(1),
		RunE: runIndex,
	}

	cmd.Flags().BoolVar(&indexDryRun, "dry-run", false, "Build and report without saving the snapshot")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.log.Sync()

	convs, err := corpus.LoadFile(args[0])
	if err != nil {
		return err
	}

	engine, err := a.engine()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *sqlite.SnapshotStore
	if !indexDryRun {
		var db *sqlite.DB
		db, store, err = a.openStore()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		// the stored snapshot stays if nothing in this export can be indexed
		prev, err := store.Load(ctx)
		switch {
		case err == nil:
			engine.Publish(prev)
		case errors.Is(err, retrieval.ErrNoSnapshot):
		default:
			a.log.Warn("stored snapshot unreadable, replacing it", "err", err)
		}
	}

	report, err := engine.Rebuild(ctx, convs)
	if errors.Is(err, retrieval.ErrNothingIndexed) {
		_ = printReport(cmd.OutOrStdout(), report)
		return fmt.Errorf("no conversation in %s could be indexed; kept snapshot %s", args[0], engine.Snapshot().ID)
	}
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	if store != nil {
		if err := store.Save(ctx, engine.Snapshot()); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
		if err := store.SaveReport(ctx, report); err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
		a.log.Info("snapshot saved", "path", a.cfg.DBPath, "build_id", report.BuildID)
	}

	return printReport(cmd.OutOrStdout(), report)
}

func printReport(w io.Writer, report *models.BuildReport) error {
	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(w, "%s\n", jsonData)
		return nil
	}

	if !quiet {
		fmt.Fprintf(w, "Build:         %s\n", report.BuildID)
		fmt.Fprintf(w, "Conversations: %d (%d indexed, %d skipped)\n", report.Conversations, len(report.Succeeded), len(report.Failed))
		fmt.Fprintf(w, "Posts:         %d\n", report.Posts)
		fmt.Fprintf(w, "Subthreads:    %d\n", report.Subthreads)
		fmt.Fprintf(w, "Dimension:     %d\n", report.Dimension)
		fmt.Fprintf(w, "Orphans:       %d\n", len(report.Orphans))
		fmt.Fprintf(w, "Duration:      %s\n", report.Duration().Round(time.Millisecond))
	}

	if report.HasFailures() {
		fmt.Fprintln(w, "\nSkipped conversations:")
		for _, f := range report.Failed {
			fmt.Fprintf(w, "  %s: %s\n", f.ConversationID, f.Reason)
		}
	}

	if verbose && len(report.Orphans) > 0 {
		fmt.Fprintln(w, "\nReplies indexed as roots (parent not found):")
		for _, o := range report.Orphans {
			fmt.Fprintf(w, "  %s post %d -> %d\n", o.ConversationID, o.PostNumber, o.ReplyToPostNumber)
		}
	}
	return nil
}
