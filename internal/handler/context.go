// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-wager-bot/internal/pkg/lock"
	"telegram-wager-bot/internal/service"
)

// playerFrom extracts who sent the update and where.
func playerFrom(c tele.Context) (service.Player, bool) {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return service.Player{}, false
	}

	username := sender.Username
	if username == "" {
		username = sender.FirstName
	}

	return service.Player{
		ChatID:   chat.ID,
		UserID:   sender.ID,
		Username: username,
	}, true
}

// replyFailure answers with a generic message and logs the cause.
func replyFailure(c tele.Context, p service.Player, op string, err error) error {
	if errors.Is(err, lock.ErrLockTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return c.Reply(msgBusy)
	}

	log.Error().Err(err).
		Int64("chat_id", p.ChatID).
		Int64("user_id", p.UserID).
		Str("op", op).
		Msg("Handler failed")
	return c.Reply(msgInternalError)
}
