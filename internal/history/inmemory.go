package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore keeps the most recent turns in a bounded slice.
type InMemoryStore struct {
	mu    sync.Mutex
	turns []Turn
	limit int
}

func NewInMemoryStore(limit int) *InMemoryStore {
	if limit <= 0 {
		limit = 256
	}
	return &InMemoryStore{limit: limit}
}

func (s *InMemoryStore) SaveTurn(_ context.Context, turn Turn) error {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	if len(s.turns) > s.limit {
		s.turns = s.turns[len(s.turns)-s.limit:]
	}
	return nil
}

func (s *InMemoryStore) Recent(_ context.Context, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	start := len(s.turns) - limit
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(s.turns)-start)
	copy(out, s.turns[start:])
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
