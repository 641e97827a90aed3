// Package session holds the per-(chat, user) conversation state that gates
// when a wager is collected and when a dice outcome is accepted.
package session

import (
	"time"

	"telegram-wager-bot/internal/model"
)

// State represents a session state.
type State string

const (
	// StateIdle means nothing is pending. Idle sessions are never stored.
	StateIdle State = "idle"
	// StateAwaitingWager means the user started a roll and must send an amount.
	StateAwaitingWager State = "awaiting_wager"
	// StateAwaitingOutcome means a wager is held until the user sends 🎲.
	StateAwaitingOutcome State = "awaiting_outcome"
)

// Session is the live state of one (chat, user) pair.
type Session struct {
	ChatID       int64     `json:"chat_id"`
	UserID       int64     `json:"user_id"`
	State        State     `json:"state"`
	PendingWager int64     `json:"pending_wager,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// New creates an idle session for key.
func New(key model.AccountKey) *Session {
	return &Session{ChatID: key.ChatID, UserID: key.UserID, State: StateIdle}
}

// Key returns the session identity.
func (s *Session) Key() model.AccountKey {
	return model.AccountKey{ChatID: s.ChatID, UserID: s.UserID}
}

// Stale reports whether the session is older than ttl at now. A zero ttl never expires.
func (s *Session) Stale(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.UpdatedAt) > ttl
}
