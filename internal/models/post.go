// ABOUTME: Forum post and conversation models consumed by the indexing pipeline
// ABOUTME: Posts are identified by (conversation_id, post_number)
package models

// Post is a single forum post within a conversation.
// ReplyToPostNumber is nil for posts that do not reply to anything.
type Post struct {
	PostNumber        int    `json:"post_number"`
	ReplyToPostNumber *int   `json:"reply_to_post_number,omitempty"`
	Content           string `json:"content"`
}

// IsReply reports whether the post references a parent post.
func (p Post) IsReply() bool {
	return p.ReplyToPostNumber != nil
}

// Conversation is a topic with its posts ordered by post_number ascending.
type Conversation struct {
	ConversationID string `json:"conversation_id"`
	Title          string `json:"title"`
	Posts          []Post `json:"posts"`
}

// ReplyTo is a convenience for building reply references in literals.
func ReplyTo(n int) *int {
	return &n
}
