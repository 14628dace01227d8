// ABOUTME: Assembles a subthread's posts into one deterministic embeddable text
// ABOUTME: Whitespace is normalized per post so identical input yields identical bytes
package core

import (
	"strings"

	"github.com/harper/threadsearch/internal/models"
)

const (
	// TitlePrefix starts every assembled text.
	TitlePrefix = "Topic title: "
	// PostSeparator joins consecutive posts.
	PostSeparator = "\n\n---\n\n"
)

// AssembleText renders the title followed by each post's cleaned content.
func AssembleText(title string, posts []models.Post) string {
	var b strings.Builder
	b.WriteString(TitlePrefix)
	b.WriteString(title)
	b.WriteString("\n\n")
	for i, p := range posts {
		if i > 0 {
			b.WriteString(PostSeparator)
		}
		b.WriteString(CleanText(p.Content))
	}
	return b.String()
}

// CleanText collapses every whitespace run to a single space and trims the ends.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
