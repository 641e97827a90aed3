package handler

import (
	"context"

	tele "gopkg.in/telebot.v3"

	"telegram-wager-bot/internal/game"
	"telegram-wager-bot/internal/service"
)

// AccountHandler handles account-related commands.
type AccountHandler struct {
	accountService *service.AccountService
	gameRegistry   *game.Registry
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService *service.AccountService, gameRegistry *game.Registry) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		gameRegistry:   gameRegistry,
	}
}

// HandleStart handles the /start command.
// Creates the account with the starting balance if it doesn't exist.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	p, ok := playerFrom(c)
	if !ok {
		return nil
	}

	account, created, err := h.accountService.EnsureAccount(context.Background(), p)
	if err != nil {
		return replyFailure(c, p, "start", err)
	}

	return c.Reply(FormatWelcome(DisplayName(p.Username, p.UserID), account, created, h.gameRegistry.Help()))
}

// HandleStats handles the /stats command.
func (h *AccountHandler) HandleStats(c tele.Context) error {
	p, ok := playerFrom(c)
	if !ok {
		return nil
	}

	account, _, err := h.accountService.EnsureAccount(context.Background(), p)
	if err != nil {
		return replyFailure(c, p, "stats", err)
	}

	return c.Reply(FormatStats(DisplayName(p.Username, p.UserID), account))
}

// HandleHistory handles the /history command.
func (h *AccountHandler) HandleHistory(c tele.Context) error {
	p, ok := playerFrom(c)
	if !ok {
		return nil
	}

	entries, err := h.accountService.History(context.Background(), p)
	if err != nil {
		return replyFailure(c, p, "history", err)
	}

	return c.Reply(FormatHistory(entries))
}

// HandleHelp handles the /help command.
func (h *AccountHandler) HandleHelp(c tele.Context) error {
	return c.Reply("🎮 Games:\n" + h.gameRegistry.Help() + msgCommands)
}
