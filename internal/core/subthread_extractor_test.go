// ABOUTME: Tests for subthread extraction
// ABOUTME: Covers pre-order traversal, coverage of every post, and cycle detection

package core

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/harper/threadsearch/internal/models"
)

func TestExtractSubthread_PreOrder(t *testing.T) {
	tree := BuildReplyTree([]models.Post{
		post(1, nil, "root"),
		post(2, models.ReplyTo(1), "c1"),
		post(3, models.ReplyTo(1), "c2"),
	})

	got, err := ExtractSubthread(1, tree)
	if err != nil {
		t.Fatalf("ExtractSubthread() error = %v", err)
	}
	if !equalInts(got, []int{1, 2, 3}) {
		t.Errorf("ExtractSubthread() = %v, want [1 2 3]", got)
	}
}

func TestExtractSubthread_DepthFirst(t *testing.T) {
	tree := BuildReplyTree([]models.Post{
		post(1, nil, "root"),
		post(2, models.ReplyTo(1), ""),
		post(3, models.ReplyTo(1), ""),
		post(4, models.ReplyTo(2), ""),
		post(5, models.ReplyTo(3), ""),
		post(6, models.ReplyTo(4), ""),
		post(7, models.ReplyTo(2), ""),
	})

	got, err := ExtractSubthread(1, tree)
	if err != nil {
		t.Fatalf("ExtractSubthread() error = %v", err)
	}
	want := []int{1, 2, 4, 6, 7, 3, 5}
	if !equalInts(got, want) {
		t.Errorf("ExtractSubthread() = %v, want %v", got, want)
	}
}

func TestExtractSubthread_DeepChain(t *testing.T) {
	const depth = 100000
	posts := make([]models.Post, depth)
	posts[0] = post(1, nil, "")
	for i := 1; i < depth; i++ {
		posts[i] = post(i+1, models.ReplyTo(i), "")
	}

	got, err := ExtractSubthread(1, BuildReplyTree(posts))
	if err != nil {
		t.Fatalf("ExtractSubthread() error = %v", err)
	}
	if len(got) != depth {
		t.Fatalf("len = %d, want %d", len(got), depth)
	}
	if got[depth-1] != depth {
		t.Errorf("last = %d, want %d", got[depth-1], depth)
	}
}

func TestExtractSubthread_UnknownRoot(t *testing.T) {
	tree := BuildReplyTree([]models.Post{post(1, nil, "")})

	_, err := ExtractSubthread(9, tree)
	if !errors.Is(err, ErrDataIntegrity) {
		t.Errorf("error = %v, want ErrDataIntegrity", err)
	}
}

func TestExtractSubthread_CycleDetected(t *testing.T) {
	tree := BuildReplyTree([]models.Post{
		post(5, models.ReplyTo(7), "a"),
		post(7, models.ReplyTo(5), "b"),
	})

	done := make(chan error, 1)
	go func() {
		_, err := ExtractSubthread(5, tree)
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, ErrDataIntegrity) {
			t.Errorf("error = %v, want ErrDataIntegrity", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ExtractSubthread did not terminate on a cycle")
	}
}

func TestExtractAll_CycleFailsConversation(t *testing.T) {
	conv := models.Conversation{
		ConversationID: "42",
		Title:          "Looping",
		Posts: []models.Post{
			post(1, nil, "fine"),
			post(5, models.ReplyTo(7), "a"),
			post(7, models.ReplyTo(5), "b"),
		},
	}

	_, err := ExtractAll(conv, BuildReplyTree(conv.Posts))
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("error = %v, want ErrDataIntegrity", err)
	}

	var die *DataIntegrityError
	if !errors.As(err, &die) {
		t.Fatalf("error is not a *DataIntegrityError: %T", err)
	}
	if die.ConversationID != "42" {
		t.Errorf("ConversationID = %q, want 42", die.ConversationID)
	}
	if !equalInts(die.PostNumbers, []int{5, 7}) {
		t.Errorf("PostNumbers = %v, want [5 7]", die.PostNumbers)
	}
}

func TestExtractAll_DuplicatePostNumbers(t *testing.T) {
	conv := models.Conversation{
		ConversationID: "dup",
		Posts:          []models.Post{post(1, nil, "a"), post(1, nil, "b")},
	}

	_, err := ExtractAll(conv, BuildReplyTree(conv.Posts))
	if !errors.Is(err, ErrDataIntegrity) {
		t.Errorf("error = %v, want ErrDataIntegrity", err)
	}
}

func TestExtractAll_CoversEveryPostOnce(t *testing.T) {
	conv := models.Conversation{
		ConversationID: "t1",
		Title:          "Grades",
		Posts: []models.Post{
			post(1, nil, "When are grades out?"),
			post(2, models.ReplyTo(1), "Next week."),
			post(3, nil, "Is GA4 bonus counted?"),
			post(4, models.ReplyTo(3), "Yes."),
			post(5, models.ReplyTo(2), "Thanks!"),
			post(6, models.ReplyTo(77), "Replying to a deleted post"),
			post(7, models.ReplyTo(4), "On the dashboard?"),
		},
	}

	subthreads, err := ExtractAll(conv, BuildReplyTree(conv.Posts))
	if err != nil {
		t.Fatalf("ExtractAll() error = %v", err)
	}

	wantRoots := []int{1, 3, 6}
	if len(subthreads) != len(wantRoots) {
		t.Fatalf("got %d subthreads, want %d", len(subthreads), len(wantRoots))
	}

	seen := make(map[int]int)
	for i, s := range subthreads {
		if s.RootPostNumber != wantRoots[i] {
			t.Errorf("subthread %d root = %d, want %d", i, s.RootPostNumber, wantRoots[i])
		}
		if s.ConversationID != "t1" || s.ConversationTitle != "Grades" {
			t.Errorf("subthread %d metadata = %q/%q", i, s.ConversationID, s.ConversationTitle)
		}
		if s.Key() != fmt.Sprintf("t1#%d", wantRoots[i]) {
			t.Errorf("subthread %d key = %q", i, s.Key())
		}
		for _, n := range s.PostNumbers {
			seen[n]++
		}
	}

	for _, p := range conv.Posts {
		if seen[p.PostNumber] != 1 {
			t.Errorf("post %d appears %d times across subthreads, want 1", p.PostNumber, seen[p.PostNumber])
		}
	}

	if !equalInts(subthreads[0].PostNumbers, []int{1, 2, 5}) {
		t.Errorf("first subthread = %v, want [1 2 5]", subthreads[0].PostNumbers)
	}
	if !equalInts(subthreads[1].PostNumbers, []int{3, 4, 7}) {
		t.Errorf("second subthread = %v, want [3 4 7]", subthreads[1].PostNumbers)
	}
}

func TestExtractAll_CombinedText(t *testing.T) {
	conv := models.Conversation{
		ConversationID: "t2",
		Title:          "Docker",
		Posts: []models.Post{
			post(1, nil, "  How do I\n run it? "),
			post(2, models.ReplyTo(1), "Use\t docker run."),
		},
	}

	subthreads, err := ExtractAll(conv, BuildReplyTree(conv.Posts))
	if err != nil {
		t.Fatalf("ExtractAll() error = %v", err)
	}

	want := "Topic title: Docker\n\nHow do I run it?\n\n---\n\nUse docker run."
	if subthreads[0].CombinedText != want {
		t.Errorf("CombinedText = %q, want %q", subthreads[0].CombinedText, want)
	}
}
