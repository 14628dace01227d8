// ABOUTME: Retrieval quality metrics over ranked subthread results
// ABOUTME: Deterministic scoring against labeled subthreads and phrases
package eval

import (
	"fmt"
	"strings"

	"github.com/harper/threadsearch/internal/models"
)

// Recall is the fraction of expected subthreads present in results.
func Recall(results []models.RetrievalResult, expected []Target) (float64, []string) {
	if len(expected) == 0 {
		return 1.0, nil
	}
	got := make(map[string]bool, len(results))
	for _, r := range results {
		got[models.SubthreadKey(r.ConversationID, r.RootPostNumber)] = true
	}
	var missing []string
	for _, t := range expected {
		if !got[t.Key()] {
			missing = append(missing, t.Key())
		}
	}
	return float64(len(expected)-len(missing)) / float64(len(expected)), missing
}

// ReciprocalRank is 1/rank of the first expected subthread, or 0.
func ReciprocalRank(results []models.RetrievalResult, expected []Target) float64 {
	want := make(map[string]bool, len(expected))
	for _, t := range expected {
		want[t.Key()] = true
	}
	for i, r := range results {
		if want[models.SubthreadKey(r.ConversationID, r.RootPostNumber)] {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// ContextRecall checks which expected phrases appear in the retrieved text.
// Matching is case-insensitive.
func ContextRecall(results []models.RetrievalResult, phrases []string) (float64, []string) {
	if len(phrases) == 0 {
		return 1.0, nil
	}
	all := joinText(results)
	var missing []string
	for _, p := range phrases {
		if !strings.Contains(all, strings.ToUpper(p)) {
			missing = append(missing, p)
		}
	}
	return float64(len(phrases)-len(missing)) / float64(len(phrases)), missing
}

// Forbidden returns the phrases that should not have been retrieved but were.
func Forbidden(results []models.RetrievalResult, phrases []string) []string {
	if len(phrases) == 0 {
		return nil
	}
	all := joinText(results)
	var found []string
	for _, p := range phrases {
		if strings.Contains(all, strings.ToUpper(p)) {
			found = append(found, p)
		}
	}
	return found
}

func joinText(results []models.RetrievalResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.CombinedText
	}
	return strings.ToUpper(strings.Join(texts, " "))
}

// Score evaluates one case against its results.
func Score(c Case, results []models.RetrievalResult, threshold float64) CaseResult {
	recall, missing := Recall(results, c.Expected)
	ctxRecall, missingText := ContextRecall(results, c.ExpectedText)
	forbidden := Forbidden(results, c.ForbiddenText)

	res := CaseResult{
		CaseID:         c.ID,
		Name:           c.Name,
		Query:          c.Query,
		Retrieved:      len(results),
		Recall:         recall,
		ReciprocalRank: ReciprocalRank(results, c.Expected),
		ContextRecall:  ctxRecall,
		Missing:        missing,
		MissingText:    missingText,
		ForbiddenFound: forbidden,
	}
	if len(c.Expected) == 0 {
		res.ReciprocalRank = 1.0
	}

	res.Status = StatusPass
	switch {
	case recall < threshold:
		res.Status = StatusFail
		res.Detail = fmt.Sprintf("recall %.2f below %.2f, missing %v", recall, threshold, missing)
	case ctxRecall < threshold:
		res.Status = StatusFail
		res.Detail = fmt.Sprintf("context recall %.2f below %.2f, missing %v", ctxRecall, threshold, missingText)
	case len(forbidden) > 0:
		res.Status = StatusFail
		res.Detail = fmt.Sprintf("forbidden text retrieved: %v", forbidden)
	}
	return res
}
