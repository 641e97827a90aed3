// Package coinflip implements the points-based heads or tails game.
package coinflip

import (
	"errors"
	"math/rand"
	"strings"
)

// Side is one face of the coin.
type Side string

// Coin faces.
const (
	Heads Side = "heads"
	Tails Side = "tails"
)

// PointsPerWin is awarded for a correct guess.
const PointsPerWin int64 = 1

// ErrInvalidGuess is returned for anything other than heads or tails.
var ErrInvalidGuess = errors.New("guess must be heads or tails")

// ParseGuess accepts "heads" or "tails" in any case, surrounding spaces ignored.
func ParseGuess(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case Heads:
		return Heads, nil
	case Tails:
		return Tails, nil
	default:
		return "", ErrInvalidGuess
	}
}

// Flipper draws a coin side.
type Flipper interface {
	Flip() Side
}

// FlipperFunc adapts a function to Flipper.
type FlipperFunc func() Side

// Flip implements Flipper.
func (f FlipperFunc) Flip() Side {
	return f()
}

// RandomFlipper draws a uniformly random side.
type RandomFlipper struct{}

// Flip implements Flipper.
func (RandomFlipper) Flip() Side {
	if rand.Intn(2) == 0 {
		return Heads
	}
	return Tails
}

// Result is the outcome of one flip.
type Result struct {
	Guess  Side
	Side   Side
	Won    bool
	Points int64
}

// Settle compares the guess with the drawn side. No balance is involved.
func Settle(guess, side Side) Result {
	r := Result{Guess: guess, Side: side}
	if guess == side {
		r.Won = true
		r.Points = PointsPerWin
	}
	return r
}

// Game describes the coin flip for the game registry.
type Game struct{}

// New creates the coin flip game descriptor.
func New() *Game {
	return &Game{}
}

// Name returns the game's display name.
func (g *Game) Name() string {
	return "Coin Flip"
}

// Command returns the command that triggers this game.
func (g *Game) Command() string {
	return "flip"
}

// Description returns a brief description of the game.
func (g *Game) Description() string {
	return "Guess heads or tails. A correct guess earns 1 point."
}
