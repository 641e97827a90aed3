// Package dice implements the wager-based dice roll settled by Telegram's 🎲.
package dice

import (
	"errors"
	"fmt"
)

// Emoji is the Telegram dice emoji whose value settles a roll.
const Emoji = "🎲"

// Face bounds of a single die.
const (
	MinValue = 1
	MaxValue = 6
)

// winThreshold is the highest losing face.
const winThreshold = 3

// Errors for dice settlement
var (
	ErrInvalidWager = errors.New("wager must be positive")
	ErrInvalidDice  = errors.New("dice value must be between 1 and 6")
)

// Result is the outcome of one settled roll.
type Result struct {
	Value  int
	Wager  int64
	Payout int64 // amount returned on a win, 0 on a loss
	Delta  int64 // net balance change
	Won    bool
}

// Settle applies the dice rule to a wager and a rolled value.
// Values 4-6 win and pay floor(wager * 1.5); values 1-3 lose the wager.
func Settle(wager int64, value int) (Result, error) {
	if wager <= 0 {
		return Result{}, ErrInvalidWager
	}
	if !ValidValue(value) {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidDice, value)
	}

	if value > winThreshold {
		payout := Payout(wager)
		return Result{
			Value:  value,
			Wager:  wager,
			Payout: payout,
			Delta:  payout - wager,
			Won:    true,
		}, nil
	}

	return Result{
		Value: value,
		Wager: wager,
		Delta: -wager,
	}, nil
}

// Payout returns floor(wager * 1.5) for a positive wager without overflowing
// for any wager up to math.MaxInt64 / 3 * 2.
func Payout(wager int64) int64 {
	return wager + wager/2
}

// ValidValue reports whether v is a face of a six-sided die.
func ValidValue(v int) bool {
	return v >= MinValue && v <= MaxValue
}

// Game describes the dice roll for the game registry.
type Game struct{}

// New creates the dice game descriptor.
func New() *Game {
	return &Game{}
}

// Name returns the game's display name.
func (g *Game) Name() string {
	return "Dice Roll"
}

// Command returns the command that triggers this game.
func (g *Game) Command() string {
	return "roll"
}

// Description returns a brief description of the game.
func (g *Game) Description() string {
	return "Wager coins, then send 🎲. 4-6 pays 1.5x, 1-3 loses the wager."
}
