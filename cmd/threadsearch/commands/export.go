// ABOUTME: CLI command to export indexed subthreads
// ABOUTME: Writes subthread metadata as YAML (default) or JSON
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harper/threadsearch/internal/storage/sqlite"
)

var (
	exportOut string
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export indexed subthreads",
		Long: `Export the subthreads of the saved snapshot.

Writes conversation, root post, post numbers and combined text for
every subthread. Embedding vectors are not included.

Examples:
  threadsearch export > subthreads.yaml
  threadsearch export --format json --out subthreads.json`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write to file instead of stdout")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	write := sqlite.WriteYAML
	switch outputFormat {
	case "auto", "yaml":
	case "json":
		write = sqlite.WriteJSON
	default:
		return fmt.Errorf("unsupported export format %q (use yaml or json)", outputFormat)
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

	data, err := store.Export(cmd.Context())
	if err != nil {
		return a.noIndexError(err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "" {
		if err := os.MkdirAll(filepath.Dir(exportOut), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		file, err := os.Create(exportOut) // #nosec G304
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = file.Close() }()
		w = file
	}

	if err := write(w, data); err != nil {
		return err
	}

	if exportOut != "" && !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d subthreads to %s\n", len(data.Subthreads), exportOut)
	}
	return nil
}
