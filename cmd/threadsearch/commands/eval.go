// ABOUTME: CLI command to measure retrieval quality on labeled queries
// ABOUTME: Runs a YAML suite against the saved snapshot and reports recall and MRR
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/threadsearch/internal/eval"
)

var (
	evalOut string
)

// NewEvalCmd creates the eval command
func NewEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <suite.yaml>",
		Short: "Evaluate retrieval quality",
		Long: `Run a suite of labeled queries against the saved snapshot.

Each case names the subthreads (conversation_id, root_post_number)
and/or phrases that its query should retrieve. A case passes when
recall reaches the suite threshold (default 0.9) and no forbidden
phrase is retrieved. The command fails if any case does not pass.

Examples:
  threadsearch eval testdata/suite.yaml
  threadsearch eval --format json --out results.json suite.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runEval,
	}

	cmd.Flags().StringVarP(&evalOut, "out", "o", "", "Also write the JSON summary to this file")

	return cmd
}

func runEval(cmd *cobra.Command, args []string) error {
	suite, err := eval.LoadSuite(args[0])
	if err != nil {
		return err
	}

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

	snap, err := store.Load(cmd.Context())
	if err != nil {
		return a.noIndexError(err)
	}
	engine, err := a.engine()
	if err != nil {
		return err
	}
	engine.Publish(snap)

	summary, err := eval.NewRunner(engine, a.cfg.TopK, a.log).Run(cmd.Context(), suite)
	if err != nil {
		return fmt.Errorf("running suite: %w", err)
	}

	if evalOut != "" {
		if err := writeEvalFile(evalOut, summary); err != nil {
			return err
		}
	}

	if outputFormat == "json" {
		if err := eval.WriteJSON(cmd.OutOrStdout(), summary); err != nil {
			return err
		}
	} else {
		printSummary(cmd, summary)
	}

	if !summary.OK() {
		return fmt.Errorf("%d of %d case(s) did not pass", summary.Failed+summary.Errors, summary.Total)
	}
	return nil
}

func writeEvalFile(path string, summary *eval.Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return eval.WriteJSON(file, summary)
}

func printSummary(cmd *cobra.Command, s *eval.Summary) {
	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "CASE\tSTATUS\tRECALL\tRR\tCONTEXT\tDETAIL\n")
	fmt.Fprintf(w, "----\t------\t------\t--\t-------\t------\n")
	for _, r := range s.Results {
		detail := r.Detail
		if r.Error != "" {
			detail = r.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.2f\t%s\n",
			truncate(r.CaseID, 20), r.Status, r.Recall, r.ReciprocalRank, r.ContextRecall, truncate(detail, 60))
	}
	_ = w.Flush()

	if quiet {
		return
	}
	fmt.Fprintf(out, "\nTotal: %d  Passed: %d  Failed: %d  Errors: %d\n", s.Total, s.Passed, s.Failed, s.Errors)
	fmt.Fprintf(out, "Mean recall: %.3f  MRR: %.3f  Context recall: %.3f\n", s.MeanRecall, s.MRR, s.ContextRecall)
}
