// Package game defines the common game contract and a registry used to build
// the bot's help text. Each game's settlement rule lives in its own package.
package game

// Game describes a playable game.
// Settlement is game specific, so it is not part of this interface: each
// game package exposes a pure Settle function with its own inputs.
type Game interface {
	// Name returns the game's display name (e.g., "Dice Roll").
	Name() string

	// Command returns the command that triggers this game (e.g., "roll").
	Command() string

	// Description returns a brief description of the game.
	Description() string
}
