// ABOUTME: Shared fixtures for retrieval tests
// ABOUTME: Vocabulary, failing and gated embedders plus a small forum corpus
package retrieval

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/harper/threadsearch/internal/models"
)

// vocabEmbedder counts occurrences of a fixed vocabulary, one dimension per word.
type vocabEmbedder struct {
	vocab []string
	calls atomic.Int64
}

func newVocabEmbedder(words ...string) *vocabEmbedder {
	return &vocabEmbedder{vocab: words}
}

func (v *vocabEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lower := strings.ToLower(text)
	vec := make([]float32, len(v.vocab))
	for i, w := range v.vocab {
		vec[i] = float32(strings.Count(lower, w))
	}
	return vec, nil
}

// failingEmbedder fails for any text containing trigger.
type failingEmbedder struct {
	inner   Embedder
	trigger string
}

var errEmbedDown = errors.New("embedding service unavailable")

func (f *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.Contains(text, f.trigger) {
		return nil, errEmbedDown
	}
	return f.inner.Embed(ctx, text)
}

// gatedEmbedder blocks every call until release is closed.
type gatedEmbedder struct {
	inner   Embedder
	release chan struct{}
	entered chan struct{}
	once    sync.Once
}

func newGatedEmbedder(inner Embedder) *gatedEmbedder {
	return &gatedEmbedder{inner: inner, release: make(chan struct{}), entered: make(chan struct{})}
}

func (g *gatedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.inner.Embed(ctx, text)
}

func conversation(id, title string, posts ...models.Post) models.Conversation {
	return models.Conversation{ConversationID: id, Title: title, Posts: posts}
}

func root(n int, content string) models.Post {
	return models.Post{PostNumber: n, Content: content}
}

func reply(n, parent int, content string) models.Post {
	return models.Post{PostNumber: n, ReplyToPostNumber: models.ReplyTo(parent), Content: content}
}

func corpus() []models.Conversation {
	return []models.Conversation{
		conversation("101", "Docker setup",
			root(1, "How do I install docker on windows?"),
			reply(2, 1, "Use docker desktop."),
			root(3, "Is podman allowed instead?"),
		),
		conversation("102", "GA4 grading",
			root(1, "If I score 10/10 on GA4 plus bonus, how does the dashboard show it?"),
			reply(2, 1, "The dashboard shows 110 for GA4 with bonus."),
		),
		conversation("103", "Project deadline",
			root(1, "When is the project deadline?"),
			reply(2, 1, "The deadline is Sunday."),
		),
	}
}

func corpusEmbedder() *vocabEmbedder {
	return newVocabEmbedder("docker", "podman", "ga4", "dashboard", "bonus", "deadline", "project")
}
