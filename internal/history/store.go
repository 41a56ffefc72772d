// Package history records completed voice exchanges. The live session is
// never persisted; history is an append-only side record of what was said
// and answered, kept for the HTTP observation surface and offline review.
package history

import (
	"context"
	"strings"
	"time"
)

// Turn stores a single user or assistant exchange half.
type Turn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Emotion   string    `json:"emotion,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists and retrieves interaction history.
type Store interface {
	SaveTurn(ctx context.Context, turn Turn) error
	Recent(ctx context.Context, limit int) ([]Turn, error)
	Close() error
}

// NewStore creates a postgres-backed store when configured, otherwise in-memory.
func NewStore(ctx context.Context, databaseURL string, memoryLimit int) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(memoryLimit), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
