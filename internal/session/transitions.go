package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition indicates that a requested transition is not allowed.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrSessionNotFound indicates that no live session exists for a key.
	ErrSessionNotFound = errors.New("session not found")
)

// validTransitions contains the permitted transitions besides the reset to idle.
var validTransitions = map[State][]State{
	StateIdle: {
		StateAwaitingWager,
		StateAwaitingOutcome,
	},
	StateAwaitingWager: {
		StateAwaitingOutcome,
	},
}

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
func IsTransitionAllowed(from, to State) bool {
	if to == StateIdle {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}

	return false
}

// Transition moves s to the given state, setting or clearing the pending wager.
// A wager is only held in StateAwaitingOutcome.
func (s *Session) Transition(to State, wager int64) error {
	if !IsTransitionAllowed(s.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State, to)
	}
	if to == StateAwaitingOutcome && wager <= 0 {
		return fmt.Errorf("%w: %s requires a positive wager", ErrInvalidTransition, to)
	}

	transitionRecorder(string(s.State), string(to))

	s.State = to
	s.PendingWager = 0
	if to == StateAwaitingOutcome {
		s.PendingWager = wager
	}
	return nil
}
