// ABOUTME: Retrieval engine serving ranked subthreads from a published snapshot
// ABOUTME: Rebuilds run the pipeline off to the side and swap the snapshot atomically

// Package retrieval turns conversations into a searchable snapshot and
// answers ranked subthread queries against it. PrepareSubthreads,
// EmbedSubthreads and NewSnapshot are the build stages; Engine.Rebuild
// composes them and Engine.Retrieve always reads one complete snapshot.
package retrieval

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/harper/threadsearch/internal/logging"
	"github.com/harper/threadsearch/internal/models"
	"github.com/harper/threadsearch/internal/vectorindex"
)

// Engine owns the published snapshot and the embedder used for queries.
// Queries read the current snapshot without locking; rebuilds are
// single-writer and swap the snapshot in one atomic store.
type Engine struct {
	embedder Embedder
	log      *logging.Logger
	workers  int

	current  atomic.Pointer[Snapshot]
	building sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithWorkers bounds concurrent extraction and embedding during rebuilds.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEngine creates an engine with no published snapshot.
func NewEngine(embedder Embedder, opts ...Option) *Engine {
	e := &Engine{
		embedder: embedder,
		log:      logging.Nop(),
		workers:  DefaultWorkers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot returns the currently published snapshot, or nil.
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}

// Publish makes s the snapshot served to queries.
func (e *Engine) Publish(s *Snapshot) {
	e.current.Store(s)
}

// Rebuild runs the full pipeline over convs and publishes the new snapshot.
// Conversations that fail are listed in the report and left out. If the
// embedder fails, nothing is published and the previous snapshot keeps serving.
// When every conversation fails and a non-empty snapshot is serving, the
// report is returned with ErrNothingIndexed and the old snapshot stays.
func (e *Engine) Rebuild(ctx context.Context, convs []models.Conversation) (*models.BuildReport, error) {
	if !e.building.TryLock() {
		return nil, ErrBuildInProgress
	}
	defer e.building.Unlock()

	report := &models.BuildReport{
		BuildID:       uuid.NewString(),
		StartedAt:     time.Now().UTC(),
		Conversations: len(convs),
	}
	log := e.log.With("build_id", report.BuildID)
	log.Info("rebuild started", "conversations", len(convs), "workers", e.workers)

	prepared, err := PrepareSubthreads(ctx, convs, e.workers)
	if err != nil {
		return nil, fmt.Errorf("preparing subthreads: %w", err)
	}
	report.Posts = prepared.Posts
	report.Orphans = prepared.Orphans
	for _, o := range prepared.Orphans {
		log.Debug("reply parent not found, indexed as root",
			"conversation_id", o.ConversationID,
			"post_number", o.PostNumber,
			"reply_to_post_number", o.ReplyToPostNumber)
	}

	vectors, err := EmbedSubthreads(ctx, e.embedder, prepared.Subthreads, e.workers)
	if err != nil {
		log.Error("embedding failed, keeping previous snapshot", "err", err)
		return nil, err
	}

	snap, degenerate, err := NewSnapshot(report.BuildID, prepared.Subthreads, vectors)
	if err != nil {
		log.Error("snapshot build failed, keeping previous snapshot", "err", err)
		return nil, err
	}

	report.Failed = append(report.Failed, prepared.Failed...)
	report.Failed = append(report.Failed, degenerate...)
	report.Succeeded = succeeded(prepared.Succeeded, degenerate)
	for _, f := range report.Failed {
		log.Warn("conversation skipped", "conversation_id", f.ConversationID, "reason", f.Reason)
	}

	if len(convs) > 0 && len(report.Succeeded) == 0 {
		if prev := e.Snapshot(); prev != nil && prev.Size() > 0 {
			report.FinishedAt = time.Now().UTC()
			log.Warn("every conversation failed, keeping previous snapshot",
				"failed", len(report.Failed), "snapshot_id", prev.ID)
			return report, ErrNothingIndexed
		}
	}

	e.Publish(snap)

	report.Subthreads = snap.Size()
	report.Dimension = snap.Dim()
	report.FinishedAt = time.Now().UTC()
	log.Info("rebuild published",
		"subthreads", report.Subthreads,
		"failed", len(report.Failed),
		"orphans", len(report.Orphans),
		"duration", report.Duration())

	return report, nil
}

// Retrieve embeds queryText, searches the current snapshot and returns the
// ranked results unchanged. topK <= 0 returns an empty slice without calling
// the embedder or the index. The query text is passed to the embedder as is.
func (e *Engine) Retrieve(ctx context.Context, queryText string, topK int) ([]models.RetrievalResult, error) {
	if topK <= 0 {
		return []models.RetrievalResult{}, nil
	}
	snap := e.Snapshot()
	if snap == nil {
		return nil, ErrNoSnapshot
	}

	vec, err := e.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, &CollaboratorError{Op: "embed query", Err: err}
	}

	// normalize before searching so a degenerate query fails even on an empty index
	if _, err := vectorindex.Normalize(vec); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	results, err := snap.Search(vec, topK)
	if err != nil {
		return nil, fmt.Errorf("searching snapshot %s: %w", snap.ID, err)
	}
	return results, nil
}

func succeeded(ids []string, failed []models.ConversationFailure) []string {
	if len(failed) == 0 {
		return ids
	}
	drop := make(map[string]struct{}, len(failed))
	for _, f := range failed {
		drop[f.ConversationID] = struct{}{}
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
