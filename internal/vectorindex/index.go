// ABOUTME: Exhaustive inner-product index over unit-norm embedding vectors
// ABOUTME: Builds publish a complete table atomically; searches rank by cosine score

// Package vectorindex stores normalized vectors and answers top-k
// inner-product queries. Equal scores keep Build order.
package vectorindex

import (
	"container/heap"
	"fmt"
	"slices"
	"sync/atomic"
)

// Record is one (key, vector) pair handed to Build.
type Record struct {
	Key    string
	Vector []float32
}

// Hit is a ranked search result.
type Hit struct {
	Key   string
	Score float32
}

// Index is the contract the retrieval engine depends on.
type Index interface {
	Build(records []Record) error
	Search(query []float32, topK int) ([]Hit, error)
	Size() int
	Dim() int
}

// table is an immutable built index: rows stored contiguously, row i at data[i*dim:(i+1)*dim].
type table struct {
	dim  int
	keys []string
	data []float32
}

func (t *table) row(i int) []float32 {
	return t.data[i*t.dim : (i+1)*t.dim]
}

// Flat is an exhaustive inner-product index.
type Flat struct {
	current atomic.Pointer[table]
}

var _ Index = (*Flat)(nil)

// NewFlat returns an empty index.
func NewFlat() *Flat {
	f := &Flat{}
	f.current.Store(&table{})
	return f
}

// Build creates a Flat index from records.
func Build(records []Record) (*Flat, error) {
	f := NewFlat()
	if err := f.Build(records); err != nil {
		return nil, err
	}
	return f, nil
}

// Build replaces the index contents with records. Every vector must have the
// same length and a non-zero norm; on error the previous contents stay in place.
func (f *Flat) Build(records []Record) error {
	t := &table{keys: make([]string, 0, len(records))}
	if len(records) > 0 {
		t.dim = len(records[0].Vector)
		t.data = make([]float32, 0, len(records)*t.dim)
	}

	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if len(r.Vector) != t.dim {
			return fmt.Errorf("record %q: %w", r.Key, &DimensionMismatchError{Want: t.dim, Got: len(r.Vector)})
		}
		if _, dup := seen[r.Key]; dup {
			return fmt.Errorf("record %q: %w", r.Key, ErrDuplicateKey)
		}
		seen[r.Key] = struct{}{}

		unit, err := Normalize(r.Vector)
		if err != nil {
			return fmt.Errorf("record %q: %w", r.Key, err)
		}
		t.keys = append(t.keys, r.Key)
		t.data = append(t.data, unit...)
	}

	f.current.Store(t)
	return nil
}

// Search returns the min(topK, Size()) rows with the highest inner product
// against the normalized query, descending by score. Equal scores rank by
// insertion order.
func (f *Flat) Search(query []float32, topK int) ([]Hit, error) {
	if topK < 0 {
		return nil, ErrNegativeTopK
	}
	t := f.current.Load()
	if topK == 0 || len(t.keys) == 0 {
		return []Hit{}, nil
	}
	if len(query) != t.dim {
		return nil, &DimensionMismatchError{Want: t.dim, Got: len(query)}
	}
	q, err := Normalize(query)
	if err != nil {
		return nil, err
	}

	k := min(topK, len(t.keys))
	h := make(candidateHeap, 0, k)
	for i := range t.keys {
		c := candidate{row: i, score: Dot(q, t.row(i))}
		if len(h) < k {
			heap.Push(&h, c)
			continue
		}
		if c.outranks(h[0]) {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}

	ranked := []candidate(h)
	slices.SortFunc(ranked, func(a, b candidate) int {
		if a.outranks(b) {
			return -1
		}
		if b.outranks(a) {
			return 1
		}
		return 0
	})

	hits := make([]Hit, len(ranked))
	for i, c := range ranked {
		hits[i] = Hit{Key: t.keys[c.row], Score: c.score}
	}
	return hits, nil
}

// Size is the number of stored rows.
func (f *Flat) Size() int {
	return len(f.current.Load().keys)
}

// Dim is the vector dimension, 0 for an empty index.
func (f *Flat) Dim() int {
	return f.current.Load().dim
}

// Records returns copies of the stored normalized vectors in insertion order.
func (f *Flat) Records() []Record {
	t := f.current.Load()
	out := make([]Record, len(t.keys))
	for i, key := range t.keys {
		out[i] = Record{Key: key, Vector: slices.Clone(t.row(i))}
	}
	return out
}

type candidate struct {
	row   int
	score float32
}

// outranks orders by score descending, then by row ascending.
func (c candidate) outranks(o candidate) bool {
	if c.score != o.score {
		return c.score > o.score
	}
	return c.row < o.row
}

// candidateHeap keeps the worst retained candidate at the root.
type candidateHeap []candidate

func (h candidateHeap) Len() int           { return len(h) }
func (h candidateHeap) Less(i, j int) bool { return h[j].outranks(h[i]) }
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) { *h = append(*h, x.(candidate)) }

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}
