package history

import (
	"context"
	"testing"
)

func TestInMemoryStoreSaveAndRecent(t *testing.T) {
	s := NewInMemoryStore(8)
	ctx := context.Background()

	if err := s.SaveTurn(ctx, Turn{SessionID: "s1", Role: "user", Content: "hello"}); err != nil {
		t.Fatalf("SaveTurn() error = %v", err)
	}
	if err := s.SaveTurn(ctx, Turn{SessionID: "s1", Role: "assistant", Content: "hi!", Emotion: "happy"}); err != nil {
		t.Fatalf("SaveTurn() error = %v", err)
	}

	turns, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	if turns[0].Role != "user" || turns[1].Role != "assistant" {
		t.Fatalf("turns out of chronological order: %+v", turns)
	}
	if turns[0].ID == "" || turns[0].CreatedAt.IsZero() {
		t.Fatalf("SaveTurn did not fill ID/CreatedAt: %+v", turns[0])
	}
}

func TestInMemoryStoreBounded(t *testing.T) {
	s := NewInMemoryStore(3)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if err := s.SaveTurn(ctx, Turn{SessionID: "s1", Role: "user", Content: "x"}); err != nil {
			t.Fatalf("SaveTurn() error = %v", err)
		}
	}
	turns, err := s.Recent(ctx, 100)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("len(turns) = %d, want 3", len(turns))
	}
}
