// ABOUTME: Tests for the flat inner-product index
// ABOUTME: Ranking, tie order, dimension checks and searches during rebuilds
package vectorindex

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
)

func keys(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Key
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// unitWithScore returns a unit vector whose inner product with [1 0] is s.
func unitWithScore(s float64) []float32 {
	return []float32{float32(s), float32(math.Sqrt(1 - s*s))}
}

func TestFlat_RankingCorrectness(t *testing.T) {
	idx, err := Build([]Record{
		{Key: "low", Vector: unitWithScore(0.1)},
		{Key: "high", Vector: unitWithScore(0.9)},
		{Key: "mid", Vector: unitWithScore(0.5)},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	hits, err := idx.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if got := keys(hits); !equalStrings(got, []string{"high", "mid"}) {
		t.Fatalf("Search() keys = %v, want [high mid]", got)
	}
	if math.Abs(float64(hits[0].Score)-0.9) > 1e-5 {
		t.Errorf("top score = %v, want 0.9", hits[0].Score)
	}
	if math.Abs(float64(hits[1].Score)-0.5) > 1e-5 {
		t.Errorf("second score = %v, want 0.5", hits[1].Score)
	}
}

func TestFlat_ScoresAreCosine(t *testing.T) {
	idx, err := Build([]Record{
		{Key: "same", Vector: []float32{10, 0}},
		{Key: "opposite", Vector: []float32{-2, 0}},
		{Key: "orthogonal", Vector: []float32{0, 7}},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	hits, err := idx.Search([]float32{3, 0}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	want := map[string]float32{"same": 1, "orthogonal": 0, "opposite": -1}
	if got := keys(hits); !equalStrings(got, []string{"same", "orthogonal", "opposite"}) {
		t.Errorf("order = %v", got)
	}
	for _, h := range hits {
		if math.Abs(float64(h.Score-want[h.Key])) > 1e-6 {
			t.Errorf("score[%s] = %v, want %v", h.Key, h.Score, want[h.Key])
		}
	}
}

func TestFlat_TieBreakByInsertionOrder(t *testing.T) {
	idx, err := Build([]Record{
		{Key: "C", Vector: []float32{0, 1}},
		{Key: "A", Vector: []float32{1, 1}},
		{Key: "B", Vector: []float32{2, 2}},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for _, k := range []int{1, 2, 3} {
		t.Run(fmt.Sprintf("top_k=%d", k), func(t *testing.T) {
			hits, err := idx.Search([]float32{1, 1}, k)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			want := []string{"A", "B", "C"}[:k]
			if got := keys(hits); !equalStrings(got, want) {
				t.Errorf("Search() keys = %v, want %v", got, want)
			}
		})
	}
}

func TestFlat_TopKBoundaries(t *testing.T) {
	idx, err := Build([]Record{
		{Key: "a", Vector: []float32{1, 0}},
		{Key: "b", Vector: []float32{0, 1}},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	hits, err := idx.Search([]float32{1, 0}, 0)
	if err != nil || len(hits) != 0 {
		t.Errorf("top_k=0: hits=%v err=%v, want empty", hits, err)
	}

	hits, err = idx.Search([]float32{1, 0}, 50)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got := keys(hits); !equalStrings(got, []string{"a", "b"}) {
		t.Errorf("top_k > size keys = %v, want [a b]", got)
	}

	if _, err := idx.Search([]float32{1, 0}, -1); !errors.Is(err, ErrNegativeTopK) {
		t.Errorf("top_k=-1 error = %v, want ErrNegativeTopK", err)
	}
}

func TestFlat_EmptyIndex(t *testing.T) {
	idx := NewFlat()
	if idx.Size() != 0 || idx.Dim() != 0 {
		t.Errorf("empty index size=%d dim=%d", idx.Size(), idx.Dim())
	}
	hits, err := idx.Search([]float32{1, 2, 3}, 5)
	if err != nil || len(hits) != 0 {
		t.Errorf("Search on empty index: hits=%v err=%v", hits, err)
	}
}

func TestFlat_DimensionMismatch(t *testing.T) {
	_, err := Build([]Record{
		{Key: "a", Vector: []float32{1, 0, 0}},
		{Key: "b", Vector: []float32{1, 0}},
	})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Build() error = %v, want ErrDimensionMismatch", err)
	}

	idx, err := Build([]Record{{Key: "a", Vector: []float32{1, 0, 0}}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	_, err = idx.Search([]float32{1, 0}, 1)
	var dme *DimensionMismatchError
	if !errors.As(err, &dme) {
		t.Fatalf("Search() error = %v, want *DimensionMismatchError", err)
	}
	if dme.Want != 3 || dme.Got != 2 {
		t.Errorf("mismatch = %d/%d, want 3/2", dme.Want, dme.Got)
	}
}

func TestFlat_DegenerateVectors(t *testing.T) {
	_, err := Build([]Record{
		{Key: "ok", Vector: []float32{1, 0}},
		{Key: "zero", Vector: []float32{0, 0}},
	})
	if !errors.Is(err, ErrDegenerateVector) {
		t.Errorf("Build() error = %v, want ErrDegenerateVector", err)
	}

	idx, err := Build([]Record{{Key: "ok", Vector: []float32{1, 0}}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if _, err := idx.Search([]float32{0, 0}, 1); !errors.Is(err, ErrDegenerateVector) {
		t.Errorf("Search() error = %v, want ErrDegenerateVector", err)
	}
}

func TestFlat_DuplicateKey(t *testing.T) {
	_, err := Build([]Record{
		{Key: "a", Vector: []float32{1, 0}},
		{Key: "a", Vector: []float32{0, 1}},
	})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("Build() error = %v, want ErrDuplicateKey", err)
	}
}

func TestFlat_RebuildReplacesContents(t *testing.T) {
	idx, err := Build([]Record{
		{Key: "old1", Vector: []float32{1, 0, 0}},
		{Key: "old2", Vector: []float32{0, 1, 0}},
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if err := idx.Build([]Record{{Key: "new", Vector: []float32{0, 1}}}); err != nil {
		t.Fatalf("rebuild error = %v", err)
	}
	if idx.Size() != 1 || idx.Dim() != 2 {
		t.Errorf("after rebuild size=%d dim=%d, want 1/2", idx.Size(), idx.Dim())
	}

	// A failed rebuild keeps the previous contents.
	if err := idx.Build([]Record{{Key: "bad", Vector: []float32{0, 0}}}); err == nil {
		t.Fatal("expected rebuild with zero vector to fail")
	}
	hits, err := idx.Search([]float32{0, 1}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got := keys(hits); !equalStrings(got, []string{"new"}) {
		t.Errorf("keys after failed rebuild = %v, want [new]", got)
	}
}

func TestFlat_StoresNormalizedCopies(t *testing.T) {
	v := []float32{3, 4}
	idx, err := Build([]Record{{Key: "a", Vector: v}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	v[0] = 100

	recs := idx.Records()
	if len(recs) != 1 || !approxEqual(recs[0].Vector, []float32{0.6, 0.8}) {
		t.Errorf("Records() = %+v, want normalized [0.6 0.8]", recs)
	}
}

func TestFlat_ConcurrentSearchDuringBuild(t *testing.T) {
	idx, err := Build([]Record{{Key: "a", Vector: []float32{1, 0}}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				hits, err := idx.Search([]float32{1, 0}, 10)
				if err != nil {
					t.Errorf("Search() error = %v", err)
					return
				}
				if len(hits) != 1 && len(hits) != 2 {
					t.Errorf("observed partial table with %d hits", len(hits))
					return
				}
			}
		}()
	}
	for j := 0; j < 50; j++ {
		recs := []Record{{Key: "a", Vector: []float32{1, 0}}}
		if j%2 == 0 {
			recs = append(recs, Record{Key: "b", Vector: []float32{1, 1}})
		}
		if err := idx.Build(recs); err != nil {
			t.Fatalf("Build() error = %v", err)
		}
	}
	wg.Wait()
}
