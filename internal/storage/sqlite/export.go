// ABOUTME: Export of the persisted snapshot's subthread metadata
// ABOUTME: Supports YAML and JSON output; vectors are not exported
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/threadsearch/internal/models"
)

// ExportVersion is bumped when the export layout changes.
const ExportVersion = "1.0"

// ExportData represents the complete exportable data structure
type ExportData struct {
	Version    string             `yaml:"version" json:"version"`
	ExportedAt string             `yaml:"exported_at" json:"exported_at"`
	Tool       string             `yaml:"tool" json:"tool"`
	SnapshotID string             `yaml:"snapshot_id" json:"snapshot_id"`
	CreatedAt  string             `yaml:"created_at" json:"created_at"`
	Dimension  int                `yaml:"dimension" json:"dimension"`
	Subthreads []models.Subthread `yaml:"subthreads" json:"subthreads"`
}

// Export collects the stored snapshot's subthreads.
func (s *SnapshotStore) Export(ctx context.Context) (*ExportData, error) {
	meta, err := s.Meta(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}

	data := &ExportData{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Tool:       "threadsearch",
		SnapshotID: meta.SnapshotID,
		CreatedAt:  meta.CreatedAt.Format(time.RFC3339),
		Dimension:  meta.Dimension,
		Subthreads: make([]models.Subthread, 0, len(entries)),
	}
	for _, e := range entries {
		data.Subthreads = append(data.Subthreads, e.Subthread)
	}
	return data, nil
}

// WriteYAML encodes data as YAML with two-space indentation.
func WriteYAML(w io.Writer, data *ExportData) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// WriteJSON encodes data as indented JSON.
func WriteJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
