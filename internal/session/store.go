package session

import (
	"context"

	"telegram-wager-bot/internal/model"
)

// Store persists live sessions. Absence of a record means Idle.
type Store interface {
	// Get returns the live session for key or ErrSessionNotFound.
	Get(ctx context.Context, key model.AccountKey) (*Session, error)
	// Save stores a non-idle session and refreshes its UpdatedAt.
	Save(ctx context.Context, s *Session) error
	// Take atomically reads and removes the session, or returns ErrSessionNotFound.
	Take(ctx context.Context, key model.AccountKey) (*Session, error)
	// All returns every live session.
	All(ctx context.Context) ([]*Session, error)
}
