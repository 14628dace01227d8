// ABOUTME: Build report produced by every index rebuild
// ABOUTME: Lists succeeded and failed conversations alongside corpus counts
package models

import "time"

// ConversationFailure records why a conversation was left out of a build.
type ConversationFailure struct {
	ConversationID string `json:"conversation_id"`
	Reason         string `json:"reason"`
}

// OrphanedReply is a post whose parent reference did not resolve and was indexed as a root.
type OrphanedReply struct {
	ConversationID    string `json:"conversation_id"`
	PostNumber        int    `json:"post_number"`
	ReplyToPostNumber int    `json:"reply_to_post_number"`
}

// BuildReport summarizes a rebuild. A build with failures still publishes
// the subthreads of every conversation that succeeded.
type BuildReport struct {
	BuildID       string                `json:"build_id"`
	StartedAt     time.Time             `json:"started_at"`
	FinishedAt    time.Time             `json:"finished_at"`
	Conversations int                   `json:"conversations"`
	Succeeded     []string              `json:"succeeded"`
	Failed        []ConversationFailure `json:"failed,omitempty"`
	Orphans       []OrphanedReply       `json:"orphans,omitempty"`
	Subthreads    int                   `json:"subthreads"`
	Posts         int                   `json:"posts"`
	Dimension     int                   `json:"dimension"`
}

// HasFailures reports whether any conversation was skipped.
func (r *BuildReport) HasFailures() bool {
	return len(r.Failed) > 0
}

// Duration returns the wall time of the build.
func (r *BuildReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
