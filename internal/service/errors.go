package service

import (
	"errors"

	"telegram-wager-bot/internal/game/coinflip"
)

// Errors returned by the game services. Handlers map each to a reply.
var (
	ErrInvalidWager    = errors.New("invalid wager")
	ErrWrongEventType  = errors.New("wrong event type")
	ErrNoActiveSession = errors.New("no active session")
	ErrWagerRequired   = errors.New("wager required before rolling")
	ErrSessionActive   = errors.New("a session is already in progress")
	ErrInvalidGuess    = coinflip.ErrInvalidGuess
)
