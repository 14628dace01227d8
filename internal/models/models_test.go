// ABOUTME: Tests for post, subthread and build report models
// ABOUTME: Covers keys, reply detection and result copying

package models

import (
	"testing"
	"time"
)

func TestPostIsReply(t *testing.T) {
	tests := []struct {
		name string
		post Post
		want bool
	}{
		{"root", Post{PostNumber: 1}, false},
		{"reply", Post{PostNumber: 2, ReplyToPostNumber: ReplyTo(1)}, true},
		{"reply to zero", Post{PostNumber: 2, ReplyToPostNumber: ReplyTo(0)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.post.IsReply(); got != tt.want {
				t.Errorf("IsReply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubthreadKey(t *testing.T) {
	s := Subthread{ConversationID: "1391", RootPostNumber: 4}
	if got := s.Key(); got != "1391#4" {
		t.Errorf("Key() = %q, want %q", got, "1391#4")
	}
	if SubthreadKey("a", 1) == SubthreadKey("a", 10) {
		t.Error("keys for different roots should differ")
	}
}

func TestNewRetrievalResultCopiesPostNumbers(t *testing.T) {
	s := Subthread{
		ConversationID:    "7",
		ConversationTitle: "Topic",
		RootPostNumber:    1,
		PostNumbers:       []int{1, 2, 3},
		CombinedText:      "Topic: Topic\n---\nhello",
	}
	r := NewRetrievalResult(s, 0.75)
	if r.Score != 0.75 || r.ConversationID != "7" || r.RootPostNumber != 1 || r.CombinedText != s.CombinedText {
		t.Errorf("result = %+v", r)
	}

	r.PostNumbers[0] = 99
	if s.PostNumbers[0] != 1 {
		t.Error("mutating the result changed the subthread")
	}
}

func TestBuildReport(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r := &BuildReport{StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond)}

	if r.HasFailures() {
		t.Error("empty report should have no failures")
	}
	if got := r.Duration(); got != 1500*time.Millisecond {
		t.Errorf("Duration() = %v, want 1.5s", got)
	}

	r.Failed = append(r.Failed, ConversationFailure{ConversationID: "3", Reason: "cycle"})
	if !r.HasFailures() {
		t.Error("HasFailures() = false after adding a failure")
	}
}
