package transcript

import (
	"context"
	"time"
)

// Turn stores a single user or assistant message of a chat session.
type Turn struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	PersonaID string    `json:"persona_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists and retrieves chat transcripts. Writes are best-effort from
// the session's point of view; the in-memory transcript stays authoritative.
type Store interface {
	SaveTurn(ctx context.Context, turn Turn) error
	SessionTurns(ctx context.Context, sessionID string) ([]Turn, error)
	Close() error
}
