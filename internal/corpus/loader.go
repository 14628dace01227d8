// ABOUTME: Loads Discourse-style post exports from JSON
// ABOUTME: Groups flat post records into conversations ordered by post number
package corpus

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/harper/threadsearch/internal/models"
)

// TopicID accepts either a JSON number or a JSON string.
type TopicID string

// UnmarshalJSON implements json.Unmarshaler
func (t *TopicID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return errors.New("topic_id is null")
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = TopicID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("topic_id: %w", err)
	}
	*t = TopicID(n.String())
	return nil
}

// Record is one post as it appears in a Discourse export.
type Record struct {
	TopicID           TopicID `json:"topic_id"`
	TopicTitle        string  `json:"topic_title"`
	PostNumber        *int    `json:"post_number"`
	ReplyToPostNumber *int    `json:"reply_to_post_number"`
	Content           string  `json:"content"`
}

// LoadPosts decodes a JSON array of post records.
func LoadPosts(r io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}
	for i, rec := range records {
		if rec.TopicID == "" {
			return nil, fmt.Errorf("record %d: missing topic_id", i)
		}
		if rec.PostNumber == nil {
			return nil, fmt.Errorf("record %d (topic %s): missing post_number", i, rec.TopicID)
		}
	}
	return records, nil
}

// LoadFile reads the export at path and groups it into conversations.
func LoadFile(path string) ([]models.Conversation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()

	records, err := LoadPosts(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return Group(records), nil
}

// Group collects records into conversations keyed by topic, in the order each
// topic is first seen. The title is the first non-empty topic_title of the
// topic. Posts are sorted by post number; equal numbers keep input order so
// the reply-tree builder can report them as duplicates.
func Group(records []Record) []models.Conversation {
	index := make(map[TopicID]int)
	var convs []models.Conversation

	for _, rec := range records {
		i, ok := index[rec.TopicID]
		if !ok {
			i = len(convs)
			index[rec.TopicID] = i
			convs = append(convs, models.Conversation{ConversationID: string(rec.TopicID)})
		}
		if convs[i].Title == "" {
			convs[i].Title = rec.TopicTitle
		}

		post := models.Post{Content: rec.Content}
		if rec.PostNumber != nil {
			post.PostNumber = *rec.PostNumber
		}
		if rec.ReplyToPostNumber != nil {
			post.ReplyToPostNumber = models.ReplyTo(*rec.ReplyToPostNumber)
		}
		convs[i].Posts = append(convs[i].Posts, post)
	}

	for i := range convs {
		slices.SortStableFunc(convs[i].Posts, func(a, b models.Post) int {
			return cmp.Compare(a.PostNumber, b.PostNumber)
		})
	}
	return convs
}
