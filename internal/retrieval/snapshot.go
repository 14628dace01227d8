// ABOUTME: Immutable snapshot pairing a built vector index with subthread metadata
// ABOUTME: Built from fresh embeddings or restored from persisted entries
package retrieval

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/harper/threadsearch/internal/models"
	"github.com/harper/threadsearch/internal/vectorindex"
)

// Entry is a subthread with its unit-norm embedding.
type Entry struct {
	Subthread models.Subthread
	Vector    []float32
}

// Snapshot is an immutable, fully built index plus the subthread metadata
// its keys resolve to. It is safe for concurrent queries.
type Snapshot struct {
	ID        string
	CreatedAt time.Time

	index      vectorindex.Index
	entries    []Entry
	subthreads map[string]models.Subthread
}

// NewSnapshot normalizes vectors and builds the index. vectors must be aligned
// with subthreads. A subthread whose vector has zero norm fails its whole
// conversation: the conversation is dropped and returned in the failure list.
// Inconsistent vector lengths fail the snapshot.
func NewSnapshot(id string, subthreads []models.Subthread, vectors [][]float32) (*Snapshot, []models.ConversationFailure, error) {
	if len(subthreads) != len(vectors) {
		return nil, nil, fmt.Errorf("snapshot: %d subthreads but %d vectors", len(subthreads), len(vectors))
	}

	units := make([][]float32, len(vectors))
	degenerate := make(map[string]string)
	var failures []models.ConversationFailure
	for i, v := range vectors {
		u, err := vectorindex.Normalize(v)
		if err != nil {
			convID := subthreads[i].ConversationID
			if _, already := degenerate[convID]; !already {
				reason := fmt.Sprintf("subthread %d: %v", subthreads[i].RootPostNumber, err)
				degenerate[convID] = reason
				failures = append(failures, models.ConversationFailure{ConversationID: convID, Reason: reason})
			}
			continue
		}
		units[i] = u
	}

	entries := make([]Entry, 0, len(subthreads))
	for i, s := range subthreads {
		if _, failed := degenerate[s.ConversationID]; failed {
			continue
		}
		entries = append(entries, Entry{Subthread: s, Vector: units[i]})
	}

	snap, err := Restore(id, time.Now().UTC(), entries)
	if err != nil {
		return nil, nil, err
	}
	return snap, failures, nil
}

// Restore rebuilds a snapshot from previously persisted entries without
// re-assembling text or re-embedding. Entry vectors are kept as given and
// are expected to be unit-norm, as NewSnapshot produces them.
func Restore(id string, createdAt time.Time, entries []Entry) (*Snapshot, error) {
	return restoreInto(vectorindex.NewFlat(), id, createdAt, entries)
}

func restoreInto(idx vectorindex.Index, id string, createdAt time.Time, entries []Entry) (*Snapshot, error) {
	records := make([]vectorindex.Record, len(entries))
	subthreads := make(map[string]models.Subthread, len(entries))
	kept := make([]Entry, len(entries))
	for i, e := range entries {
		key := e.Subthread.Key()
		records[i] = vectorindex.Record{Key: key, Vector: e.Vector}
		subthreads[key] = e.Subthread
		kept[i] = Entry{Subthread: e.Subthread, Vector: slices.Clone(e.Vector)}
	}

	if err := idx.Build(records); err != nil {
		return nil, fmt.Errorf("snapshot: build index: %w", err)
	}

	return &Snapshot{
		ID:         id,
		CreatedAt:  createdAt,
		index:      idx,
		entries:    kept,
		subthreads: subthreads,
	}, nil
}

// Search ranks subthreads against query. The index normalizes the query, so
// a zero vector fails with a DegenerateVectorError and a wrong length with a
// DimensionMismatchError. Results keep the index's ranking unchanged.
func (s *Snapshot) Search(query []float32, topK int) ([]models.RetrievalResult, error) {
	if topK <= 0 {
		return []models.RetrievalResult{}, nil
	}
	hits, err := s.index.Search(query, topK)
	if err != nil {
		return nil, err
	}

	results := make([]models.RetrievalResult, 0, len(hits))
	for _, h := range hits {
		sub, ok := s.subthreads[h.Key]
		if !ok {
			return nil, errors.New("snapshot: index key without subthread: " + h.Key)
		}
		results = append(results, models.NewRetrievalResult(sub, h.Score))
	}
	return results, nil
}

// Size is the number of indexed subthreads.
func (s *Snapshot) Size() int {
	return s.index.Size()
}

// Dim is the embedding dimension, 0 when empty.
func (s *Snapshot) Dim() int {
	return s.index.Dim()
}

// Subthreads returns the indexed subthreads in insertion order.
func (s *Snapshot) Subthreads() []models.Subthread {
	out := make([]models.Subthread, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Subthread
	}
	return out
}

// Entries returns every subthread with its stored unit vector, in insertion order.
func (s *Snapshot) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = Entry{Subthread: e.Subthread, Vector: slices.Clone(e.Vector)}
	}
	return out
}

// Lookup returns the indexed subthread rooted at rootPostNumber.
func (s *Snapshot) Lookup(conversationID string, rootPostNumber int) (models.Subthread, bool) {
	sub, ok := s.subthreads[models.SubthreadKey(conversationID, rootPostNumber)]
	return sub, ok
}

// Conversations counts the distinct conversations with at least one subthread.
func (s *Snapshot) Conversations() int {
	seen := make(map[string]struct{})
	for _, sub := range s.subthreads {
		seen[sub.ConversationID] = struct{}{}
	}
	return len(seen)
}
