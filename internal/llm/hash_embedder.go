// ABOUTME: Deterministic feature-hashing embedder for offline indexing and tests
// ABOUTME: Maps lowercased word tokens into signed buckets with xxhash
package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// DefaultHashDimensions is the vector size used when none is configured.
const DefaultHashDimensions = 384

// HashEmbedder produces bag-of-words vectors without a model. Identical text
// always yields identical vectors. Text with no word characters yields the
// zero vector, which the index rejects as degenerate.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder creates a HashEmbedder with the given dimension.
func NewHashEmbedder(dimensions int) (*HashEmbedder, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("hash embedder dimensions must be positive, got %d", dimensions)
	}
	return &HashEmbedder{dimensions: dimensions}, nil
}

// Embed hashes every token into one bucket with a sign taken from the hash.
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, h.dimensions)
	for _, tok := range Tokenize(text) {
		sum := xxhash.Sum64String(tok)
		bucket := int(sum % uint64(h.dimensions))
		if sum&(1<<63) != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}
	return vec, nil
}

// Model returns a descriptive model name.
func (h *HashEmbedder) Model() string {
	return fmt.Sprintf("xxhash-bow-%d", h.dimensions)
}

// Tokenize lowercases text and splits it on anything that is not a letter or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
