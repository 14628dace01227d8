// ABOUTME: Build pipeline stages: subthread preparation and bounded embedding fan-out
// ABOUTME: Per-conversation failures are collected; collaborator errors abort
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/harper/threadsearch/internal/core"
	"github.com/harper/threadsearch/internal/models"
)

// DefaultWorkers bounds concurrent extraction and embedding when no limit is given.
const DefaultWorkers = 8

// Embedder is the external embed(text) -> vector collaborator.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Prepared is the output of PrepareSubthreads.
type Prepared struct {
	// Subthreads are in canonical order: conversation order, then root order.
	Subthreads []models.Subthread
	Succeeded  []string
	Failed     []models.ConversationFailure
	Orphans    []models.OrphanedReply
	Posts      int
}

type conversationResult struct {
	subthreads []models.Subthread
	orphans    []models.OrphanedReply
	err        error
}

// PrepareSubthreads builds reply trees and extracts subthreads for every
// conversation on a bounded worker pool. A conversation that fails with a
// data integrity error is reported in Failed and skipped; only context
// cancellation aborts the whole call.
func PrepareSubthreads(ctx context.Context, convs []models.Conversation, workers int) (*Prepared, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	results := make([]conversationResult, len(convs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range convs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = prepareConversation(convs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Prepared{}
	seen := make(map[string]struct{}, len(convs))
	for i, conv := range convs {
		out.Posts += len(conv.Posts)

		if _, dup := seen[conv.ConversationID]; dup {
			out.Failed = append(out.Failed, models.ConversationFailure{
				ConversationID: conv.ConversationID,
				Reason:         "duplicate conversation id",
			})
			continue
		}
		seen[conv.ConversationID] = struct{}{}

		r := results[i]
		if r.err != nil {
			out.Failed = append(out.Failed, models.ConversationFailure{
				ConversationID: conv.ConversationID,
				Reason:         r.err.Error(),
			})
			continue
		}
		out.Succeeded = append(out.Succeeded, conv.ConversationID)
		out.Subthreads = append(out.Subthreads, r.subthreads...)
		out.Orphans = append(out.Orphans, r.orphans...)
	}
	return out, nil
}

func prepareConversation(conv models.Conversation) conversationResult {
	tree := core.BuildReplyTree(conv.Posts)
	subthreads, err := core.ExtractAll(conv, tree)
	if err != nil {
		return conversationResult{err: err}
	}

	var orphans []models.OrphanedReply
	for _, p := range tree.Orphans() {
		orphans = append(orphans, models.OrphanedReply{
			ConversationID:    conv.ConversationID,
			PostNumber:        p.PostNumber,
			ReplyToPostNumber: *p.ReplyToPostNumber,
		})
	}
	return conversationResult{subthreads: subthreads, orphans: orphans}
}

// EmbedSubthreads embeds every subthread's combined text concurrently and
// returns the vectors aligned with subthreads. It returns only after every
// call has finished. The first embedder failure cancels the remaining calls
// and is returned as a CollaboratorError.
func EmbedSubthreads(ctx context.Context, embedder Embedder, subthreads []models.Subthread, workers int) ([][]float32, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	vectors := make([][]float32, len(subthreads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range subthreads {
		g.Go(func() error {
			vec, err := embedder.Embed(gctx, subthreads[i].CombinedText)
			if err != nil {
				return &CollaboratorError{
					Op:  fmt.Sprintf("embed subthread %s", subthreads[i].Key()),
					Err: err,
				}
			}
			vectors[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var ce *CollaboratorError
		if !errors.As(err, &ce) {
			return nil, &CollaboratorError{Op: "embed subthreads", Err: err}
		}
		return nil, err
	}
	return vectors, nil
}
