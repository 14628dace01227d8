// ABOUTME: Subthread and retrieval result models
// ABOUTME: A subthread is one root post plus its reply closure in pre-order
package models

import "fmt"

// Subthread is the retrievable unit: a root post and every reply reachable from it.
type Subthread struct {
	ConversationID    string `json:"conversation_id" yaml:"conversation_id"`
	ConversationTitle string `json:"conversation_title" yaml:"conversation_title"`
	RootPostNumber    int    `json:"root_post_number" yaml:"root_post_number"`
	PostNumbers       []int  `json:"post_numbers" yaml:"post_numbers"`
	CombinedText      string `json:"combined_text" yaml:"combined_text"`
}

// Key returns the subthread identity used as the vector index key.
func (s Subthread) Key() string {
	return SubthreadKey(s.ConversationID, s.RootPostNumber)
}

// SubthreadKey formats the index key for a conversation root.
func SubthreadKey(conversationID string, rootPostNumber int) string {
	return fmt.Sprintf("%s#%d", conversationID, rootPostNumber)
}

// RetrievalResult is one ranked hit returned by the retrieval engine.
type RetrievalResult struct {
	Score             float32 `json:"score"`
	ConversationID    string  `json:"conversation_id"`
	ConversationTitle string  `json:"conversation_title"`
	RootPostNumber    int     `json:"root_post_number"`
	PostNumbers       []int   `json:"post_numbers"`
	CombinedText      string  `json:"combined_text"`
}

// NewRetrievalResult copies subthread metadata into a scored result.
func NewRetrievalResult(s Subthread, score float32) RetrievalResult {
	postNumbers := make([]int, len(s.PostNumbers))
	copy(postNumbers, s.PostNumbers)
	return RetrievalResult{
		Score:             score,
		ConversationID:    s.ConversationID,
		ConversationTitle: s.ConversationTitle,
		RootPostNumber:    s.RootPostNumber,
		PostNumbers:       postNumbers,
		CombinedText:      s.CombinedText,
	}
}
