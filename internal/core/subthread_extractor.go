// ABOUTME: Extracts subthreads from a reply tree with an explicit-stack pre-order walk
// ABOUTME: Detects reply cycles and unreachable posts as data integrity errors
package core

import (
	"errors"
	"slices"

	"github.com/harper/threadsearch/internal/models"
)

// ExtractSubthread returns the post numbers reachable from rootPostNumber in
// depth-first pre-order, children visited in the order the tree stores them.
// The walk uses an explicit stack, so memory is bounded by the conversation
// size rather than the call stack.
func ExtractSubthread(rootPostNumber int, tree *ReplyTree) ([]int, error) {
	if _, ok := tree.Post(rootPostNumber); !ok {
		return nil, &DataIntegrityError{
			PostNumbers: []int{rootPostNumber},
			Reason:      "root post not found",
		}
	}

	visited := make(map[int]struct{})
	stack := []int{rootPostNumber}
	var order []int

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[n]; seen {
			return nil, &DataIntegrityError{
				PostNumbers: []int{n},
				Reason:      "reply cycle",
			}
		}
		visited[n] = struct{}{}
		order = append(order, n)

		kids := tree.Children(n)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i].PostNumber)
		}
	}

	return order, nil
}

// ExtractAll produces one Subthread per root of the conversation, in root order.
//
// A conversation with duplicated post numbers, a reply cycle, or posts that no
// root reaches fails as a whole with a DataIntegrityError.
func ExtractAll(conv models.Conversation, tree *ReplyTree) ([]models.Subthread, error) {
	if dups := tree.Duplicates(); len(dups) > 0 {
		return nil, &DataIntegrityError{
			ConversationID: conv.ConversationID,
			PostNumbers:    dups,
			Reason:         "duplicate post numbers",
		}
	}

	roots := tree.Roots()
	subthreads := make([]models.Subthread, 0, len(roots))
	reached := 0

	for _, root := range roots {
		numbers, err := ExtractSubthread(root.PostNumber, tree)
		if err != nil {
			var die *DataIntegrityError
			if errors.As(err, &die) {
				die.ConversationID = conv.ConversationID
			}
			return nil, err
		}
		reached += len(numbers)

		posts := make([]models.Post, 0, len(numbers))
		for _, n := range numbers {
			p, _ := tree.Post(n)
			posts = append(posts, p)
		}

		subthreads = append(subthreads, models.Subthread{
			ConversationID:    conv.ConversationID,
			ConversationTitle: conv.Title,
			RootPostNumber:    root.PostNumber,
			PostNumbers:       numbers,
			CombinedText:      AssembleText(conv.Title, posts),
		})
	}

	// Posts on a cycle have a parent inside the cycle, so no root reaches them.
	if reached < tree.Size() {
		return nil, &DataIntegrityError{
			ConversationID: conv.ConversationID,
			PostNumbers:    unreached(subthreads, tree),
			Reason:         "reply cycle: posts unreachable from any root",
		}
	}

	return subthreads, nil
}

func unreached(subthreads []models.Subthread, tree *ReplyTree) []int {
	seen := make(map[int]struct{}, tree.Size())
	for _, s := range subthreads {
		for _, n := range s.PostNumbers {
			seen[n] = struct{}{}
		}
	}
	var missing []int
	for n := range tree.byNumber {
		if _, ok := seen[n]; !ok {
			missing = append(missing, n)
		}
	}
	slices.Sort(missing)
	return missing
}
