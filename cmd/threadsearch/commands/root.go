// ABOUTME: Root command and global flags for the threadsearch CLI
// ABOUTME: Registers every subcommand and enforces flag exclusivity
package commands

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

var outputFormats = []string{"auto", "table", "json", "yaml"}

var (
	verbose      bool
	quiet        bool
	outputFormat string
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threadsearch",
		Short: "Semantic search over threaded forum discussions",
		Long: `threadsearch indexes Discourse-style forum exports as subthreads
(a root post plus every reply beneath it) and retrieves the ones most
relevant to a natural-language question.

Index a JSON export once, then search it from the command line or
serve it to LLM agents over MCP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return errors.New("--verbose and --quiet are mutually exclusive")
			}
			if !slices.Contains(outputFormats, outputFormat) {
				return fmt.Errorf("unknown --format %q (want one of %v)", outputFormat, outputFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress informational output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table, json or yaml")

	cmd.AddCommand(NewIndexCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewEvalCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
