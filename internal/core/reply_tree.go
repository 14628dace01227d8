// ABOUTME: ReplyTree groups a conversation's posts under their parent post number
// ABOUTME: Replies whose parent is missing are kept as roots and flagged as orphans
package core

import "github.com/harper/threadsearch/internal/models"

// ReplyTree is the parent -> children adjacency of one conversation.
// Roots (no parent, or a parent that is not in the conversation) are kept
// separately and play the role of the null key.
type ReplyTree struct {
	roots      []models.Post
	children   map[int][]models.Post
	byNumber   map[int]models.Post
	orphans    []models.Post
	duplicates []int
	size       int
}

// BuildReplyTree builds the adjacency for posts already sorted by post_number.
//
// Parent references are resolved against every post number in the input, so a
// reply may point at a later post. A reference to a post number that does not
// exist makes the post a root; such posts are indistinguishable from true roots
// for extraction but are listed by Orphans.
func BuildReplyTree(posts []models.Post) *ReplyTree {
	t := &ReplyTree{
		children: make(map[int][]models.Post),
		byNumber: make(map[int]models.Post, len(posts)),
		size:     len(posts),
	}

	for _, p := range posts {
		if _, seen := t.byNumber[p.PostNumber]; seen {
			t.duplicates = append(t.duplicates, p.PostNumber)
			continue
		}
		t.byNumber[p.PostNumber] = p
	}

	for _, p := range posts {
		if p.ReplyToPostNumber == nil {
			t.roots = append(t.roots, p)
			continue
		}
		parent := *p.ReplyToPostNumber
		if _, ok := t.byNumber[parent]; !ok {
			t.roots = append(t.roots, p)
			t.orphans = append(t.orphans, p)
			continue
		}
		t.children[parent] = append(t.children[parent], p)
	}

	return t
}

// Roots returns root posts in input order.
func (t *ReplyTree) Roots() []models.Post {
	return t.roots
}

// Children returns the direct replies to a post in input order.
func (t *ReplyTree) Children(postNumber int) []models.Post {
	return t.children[postNumber]
}

// Post looks up a post by number.
func (t *ReplyTree) Post(postNumber int) (models.Post, bool) {
	p, ok := t.byNumber[postNumber]
	return p, ok
}

// Orphans returns replies whose parent post number was not found.
func (t *ReplyTree) Orphans() []models.Post {
	return t.orphans
}

// Duplicates returns post numbers that appeared more than once in the input.
func (t *ReplyTree) Duplicates() []int {
	return t.duplicates
}

// Size is the number of posts the tree was built from.
func (t *ReplyTree) Size() int {
	return t.size
}
