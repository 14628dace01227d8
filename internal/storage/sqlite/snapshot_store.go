// ABOUTME: Persists the published retrieval snapshot and build reports
// ABOUTME: Vectors are stored as float32 BLOBs and restored without re-embedding
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harper/threadsearch/internal/models"
	"github.com/harper/threadsearch/internal/retrieval"
)

// SnapshotMeta describes the persisted snapshot without loading vectors.
type SnapshotMeta struct {
	SnapshotID     string
	CreatedAt      time.Time
	Dimension      int
	SubthreadCount int
}

// SnapshotStore handles snapshot persistence
type SnapshotStore struct {
	db *DB
}

// NewSnapshotStore creates a new SnapshotStore
func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Save replaces the stored snapshot with snap in a single transaction.
// Readers never observe a mix of old and new rows.
func (s *SnapshotStore) Save(ctx context.Context, snap *retrieval.Snapshot) error {
	entries := snap.Entries()

	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM subthreads`); err != nil {
			return fmt.Errorf("failed to clear subthreads: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO subthreads (position, conversation_id, conversation_title, root_post_number, post_numbers, combined_text, vector)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, e := range entries {
			postNumbers, err := json.Marshal(e.Subthread.PostNumbers)
			if err != nil {
				return fmt.Errorf("failed to marshal post numbers: %w", err)
			}
			if _, err := stmt.ExecContext(ctx, i,
				e.Subthread.ConversationID,
				e.Subthread.ConversationTitle,
				e.Subthread.RootPostNumber,
				string(postNumbers),
				e.Subthread.CombinedText,
				vectorToBlob(e.Vector),
			); err != nil {
				return fmt.Errorf("failed to insert subthread %s: %w", e.Subthread.Key(), err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO snapshot (id, snapshot_id, created_at, dimension, subthread_count)
			VALUES (1, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				snapshot_id = excluded.snapshot_id,
				created_at = excluded.created_at,
				dimension = excluded.dimension,
				subthread_count = excluded.subthread_count
		`, snap.ID, snap.CreatedAt.UTC().Format(time.RFC3339Nano), snap.Dim(), len(entries))
		if err != nil {
			return fmt.Errorf("failed to save snapshot metadata: %w", err)
		}
		return nil
	})
}

// Meta returns the stored snapshot metadata, or retrieval.ErrNoSnapshot.
func (s *SnapshotStore) Meta(ctx context.Context) (*SnapshotMeta, error) {
	var (
		meta      SnapshotMeta
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT snapshot_id, created_at, dimension, subthread_count
		FROM snapshot
		WHERE id = 1
	`).Scan(&meta.SnapshotID, &createdAt, &meta.Dimension, &meta.SubthreadCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, retrieval.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot metadata: %w", err)
	}

	meta.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot created_at %q: %w", createdAt, err)
	}
	return &meta, nil
}

// Entries returns the stored subthreads and vectors in insertion order.
func (s *SnapshotStore) Entries(ctx context.Context) ([]retrieval.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT conversation_id, conversation_title, root_post_number, post_numbers, combined_text, vector
		FROM subthreads
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subthreads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []retrieval.Entry
	for rows.Next() {
		var (
			sub         models.Subthread
			postNumbers string
			blob        []byte
		)
		if err := rows.Scan(&sub.ConversationID, &sub.ConversationTitle, &sub.RootPostNumber, &postNumbers, &sub.CombinedText, &blob); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(postNumbers), &sub.PostNumbers); err != nil {
			return nil, fmt.Errorf("subthread %s: invalid post numbers: %w", sub.Key(), err)
		}
		vector, err := blobToVector(blob)
		if err != nil {
			return nil, fmt.Errorf("subthread %s: %w", sub.Key(), err)
		}
		entries = append(entries, retrieval.Entry{Subthread: sub, Vector: vector})
	}
	return entries, rows.Err()
}

// Load restores the persisted snapshot, or returns retrieval.ErrNoSnapshot.
func (s *SnapshotStore) Load(ctx context.Context) (*retrieval.Snapshot, error) {
	meta, err := s.Meta(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) != meta.SubthreadCount {
		return nil, fmt.Errorf("snapshot %s: expected %d subthreads, found %d", meta.SnapshotID, meta.SubthreadCount, len(entries))
	}
	return retrieval.Restore(meta.SnapshotID, meta.CreatedAt, entries)
}

// SaveReport appends a build report to the history.
func (s *SnapshotStore) SaveReport(ctx context.Context, report *models.BuildReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = s.db.Conn().ExecContext(ctx, `
		INSERT INTO build_reports (build_id, finished_at, report)
		VALUES (?, ?, ?)
	`, report.BuildID, report.FinishedAt.UTC().Format(time.RFC3339Nano), string(data))
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.BuildID, err)
	}
	return nil
}

// LatestReport returns the most recently saved build report, or nil if none.
func (s *SnapshotStore) LatestReport(ctx context.Context) (*models.BuildReport, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT report FROM build_reports ORDER BY seq DESC LIMIT 1
	`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var report models.BuildReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}
