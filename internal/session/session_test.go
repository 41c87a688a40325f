package session

import (
	"fmt"
	"sync"
	"testing"
)

func TestSessionAppendOrder(t *testing.T) {
	sess := New()
	sess.Append(RoleUser, "first")
	sess.Append(RoleAssistant, "second")
	sess.Append(RoleUser, "third")

	turns := sess.Turns()
	if len(turns) != 3 {
		t.Fatalf("len = %d, want 3", len(turns))
	}
	if turns[0].Content != "first" || turns[2].Content != "third" {
		t.Errorf("turns out of order: %+v", turns)
	}
	if turns[0].Role != RoleUser || turns[1].Role != RoleAssistant {
		t.Errorf("roles wrong: %+v", turns)
	}
}

func TestSessionWindow(t *testing.T) {
	sess := New()
	for i := 0; i < 5; i++ {
		sess.Append(RoleUser, fmt.Sprintf("turn %d", i))
	}

	window := sess.Window(3)
	if len(window) != 3 {
		t.Fatalf("window len = %d, want 3", len(window))
	}
	if window[0].Content != "turn 2" || window[2].Content != "turn 4" {
		t.Errorf("window = %+v, want last 3 turns", window)
	}

	// Window larger than history returns everything.
	if got := sess.Window(20); len(got) != 5 {
		t.Errorf("oversized window len = %d, want 5", len(got))
	}
}

func TestTurnsReturnsCopy(t *testing.T) {
	sess := New()
	sess.Append(RoleUser, "original")

	turns := sess.Turns()
	turns[0].Content = "mutated"

	if sess.Turns()[0].Content != "original" {
		t.Error("mutating the returned slice must not affect the session")
	}
}

func TestStore(t *testing.T) {
	store := NewStore()

	sess := store.Create()
	if sess.ID == "" {
		t.Fatal("session id is empty")
	}

	got, ok := store.Get(sess.ID)
	if !ok || got != sess {
		t.Fatal("Get() did not return the created session")
	}

	if _, ok := store.Get("unknown"); ok {
		t.Error("Get() found a session that was never created")
	}
}

func TestSessionConcurrentAppend(t *testing.T) {
	sess := New()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sess.Append(RoleUser, "x")
			}
		}()
	}
	wg.Wait()

	if sess.Len() != 1000 {
		t.Errorf("len = %d, want 1000", sess.Len())
	}
}
