// ABOUTME: Runs an evaluation suite against a retriever
// ABOUTME: Aggregates per-case scores into a summary for export
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/harper/threadsearch/internal/logging"
	"github.com/harper/threadsearch/internal/models"
)

// Case outcomes.
const (
	StatusPass  = "PASS"
	StatusFail  = "FAIL"
	StatusError = "ERROR"
)

// Retriever is the search surface being evaluated.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievalResult, error)
}

// CaseResult is the scored outcome of one case.
type CaseResult struct {
	CaseID         string   `json:"case_id"`
	Name           string   `json:"name,omitempty"`
	Query          string   `json:"query"`
	Status         string   `json:"status"`
	Retrieved      int      `json:"retrieved"`
	Recall         float64  `json:"recall"`
	ReciprocalRank float64  `json:"reciprocal_rank"`
	ContextRecall  float64  `json:"context_recall"`
	Missing        []string `json:"missing,omitempty"`
	MissingText    []string `json:"missing_text,omitempty"`
	ForbiddenFound []string `json:"forbidden_found,omitempty"`
	Detail         string   `json:"detail,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Summary aggregates a suite run.
type Summary struct {
	Suite         string       `json:"suite,omitempty"`
	Timestamp     time.Time    `json:"timestamp"`
	Total         int          `json:"total"`
	Passed        int          `json:"passed"`
	Failed        int          `json:"failed"`
	Errors        int          `json:"errors"`
	MeanRecall    float64      `json:"mean_recall"`
	MRR           float64      `json:"mrr"`
	ContextRecall float64      `json:"mean_context_recall"`
	Results       []CaseResult `json:"results"`
}

// OK reports whether every case passed.
func (s *Summary) OK() bool {
	return s.Failed == 0 && s.Errors == 0
}

// Runner evaluates suites against a retriever.
type Runner struct {
	retriever   Retriever
	defaultTopK int
	log         *logging.Logger
}

// NewRunner creates a runner. defaultTopK applies when neither suite nor case sets one.
func NewRunner(r Retriever, defaultTopK int, log *logging.Logger) *Runner {
	if log == nil {
		log = logging.Nop()
	}
	return &Runner{retriever: r, defaultTopK: defaultTopK, log: log}
}

// Run executes every case in order. A retrieval error marks that case as
// ERROR and the run continues; context cancellation stops the run.
func (r *Runner) Run(ctx context.Context, suite *Suite) (*Summary, error) {
	summary := &Summary{
		Suite:     suite.Name,
		Timestamp: time.Now().UTC(),
		Results:   make([]CaseResult, 0, len(suite.Cases)),
	}
	threshold := suite.threshold()

	for _, c := range suite.Cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		topK := suite.topK(c, r.defaultTopK)
		results, err := r.retriever.Retrieve(ctx, c.Query, topK)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.log.Warn("eval case failed", "case", c.ID, "error", err)
			summary.Results = append(summary.Results, CaseResult{
				CaseID: c.ID,
				Name:   c.Name,
				Query:  c.Query,
				Status: StatusError,
				Error:  err.Error(),
			})
			continue
		}
		res := Score(c, results, threshold)
		r.log.Debug("eval case scored", "case", c.ID, "status", res.Status, "recall", res.Recall)
		summary.Results = append(summary.Results, res)
	}

	summary.tally()
	return summary, nil
}

func (s *Summary) tally() {
	s.Total = len(s.Results)
	scored := 0
	for _, res := range s.Results {
		switch res.Status {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		default:
			s.Errors++
			continue
		}
		scored++
		s.MeanRecall += res.Recall
		s.MRR += res.ReciprocalRank
		s.ContextRecall += res.ContextRecall
	}
	if scored > 0 {
		s.MeanRecall /= float64(scored)
		s.MRR /= float64(scored)
		s.ContextRecall /= float64(scored)
	}
}

// WriteJSON writes the summary as indented JSON.
func WriteJSON(w io.Writer, s *Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
