package service

import "telegram-wager-bot/internal/model"

// Player identifies who issued a command and in which chat.
type Player struct {
	ChatID   int64
	UserID   int64
	Username string
}

// Key returns the account key of the player in the chat.
func (p Player) Key() model.AccountKey {
	return model.AccountKey{ChatID: p.ChatID, UserID: p.UserID}
}
