package handler

import (
	"context"
	"errors"
	"strings"

	tele "gopkg.in/telebot.v3"

	"telegram-wager-bot/internal/game/dice"
	"telegram-wager-bot/internal/service"
	"telegram-wager-bot/internal/session"
)

const (
	msgEmptyBalance  = "Your balance is 0, there is nothing left to wager."
	msgWagerFirst    = "Please enter your wager amount first, or /cancel."
	msgForwardedDice = "Forwarded dice don't count. Send your own 🎲."
)

// GameHandler handles the dice and coin flip commands.
type GameHandler struct {
	gameService *service.GameService
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(gameService *service.GameService) *GameHandler {
	return &GameHandler{
		gameService: gameService,
	}
}

// HandleRoll handles /roll [amount].
// With an amount the wager is placed at once, otherwise the bot asks for it.
func (h *GameHandler) HandleRoll(c tele.Context) error {
	p, ok := playerFrom(c)
	if !ok {
		return nil
	}

	amount := ""
	if args := c.Args(); len(args) > 0 {
		amount = args[0]
	}

	state, err := h.gameService.Begin(context.Background(), p, amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionActive):
			return c.Reply(FormatSessionActive(state.Session.PendingWager))
		case errors.Is(err, service.ErrInvalidWager):
			if state.Account.Balance <= 0 {
				return c.Reply(msgEmptyBalance)
			}
			return c.Reply(FormatInvalidWager(state.Account.Balance, h.gameService.MaxBet()))
		}
		return replyFailure(c, p, "roll", err)
	}

	if state.Session.State == session.StateAwaitingWager {
		return c.Reply(FormatWagerPrompt(state.Account.Balance, h.gameService.MaxBet()))
	}
	return c.Reply(FormatWagerAccepted(state.Session.PendingWager))
}

// HandleText handles plain text, used as the wager amount of a pending roll.
// Chatter from players without a pending roll is ignored.
func (h *GameHandler) HandleText(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if text == "" || strings.HasPrefix(text, "/") {
		return nil
	}

	p, ok := playerFrom(c)
	if !ok {
		return nil
	}

	state, err := h.gameService.SupplyWager(context.Background(), p, text)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveSession):
			return nil
		case errors.Is(err, service.ErrInvalidWager):
			return c.Reply(FormatInvalidWager(state.Account.Balance, h.gameService.MaxBet()))
		}
		return replyFailure(c, p, "wager", err)
	}

	return c.Reply(FormatWagerAccepted(state.Session.PendingWager))
}

// HandleDice handles an animated dice message and settles the pending roll.
func (h *GameHandler) HandleDice(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Dice == nil {
		return nil
	}

	p, ok := playerFrom(c)
	if !ok {
		return nil
	}

	if msg.IsForwarded() {
		state, err := h.gameService.State(context.Background(), p)
		if err != nil || state.State != session.StateAwaitingOutcome {
			return nil
		}
		return c.Reply(msgForwardedDice)
	}

	res, err := h.gameService.AcceptOutcome(context.Background(), p, service.Outcome{
		Emoji: string(msg.Dice.Type),
		Value: msg.Dice.Value,
	})
	if err != nil {
		// Other animated emojis only matter while a roll awaits its outcome.
		isDie := string(msg.Dice.Type) == dice.Emoji
		switch {
		case errors.Is(err, service.ErrNoActiveSession):
			if !isDie {
				return nil
			}
			return c.Reply(msgNoSession)
		case errors.Is(err, service.ErrWagerRequired):
			if !isDie {
				return nil
			}
			return c.Reply(msgWagerFirst)
		case errors.Is(err, service.ErrWrongEventType):
			return c.Reply(msgSendDice)
		}
		return replyFailure(c, p, "dice", err)
	}

	return c.Reply(FormatRollResult(res.Dice, res.Account.Balance))
}

// HandleCancel handles /cancel.
func (h *GameHandler) HandleCancel(c tele.Context) error {
	p, ok := playerFrom(c)
	if !ok {
		return nil
	}

	cancelled, err := h.gameService.Cancel(context.Background(), p)
	if err != nil {
		return replyFailure(c, p, "cancel", err)
	}
	if !cancelled {
		return c.Reply(msgNothingToStop)
	}
	return c.Reply(msgCancelled)
}

// HandleFlip handles /flip heads|tails.
func (h *GameHandler) HandleFlip(c tele.Context) error {
	p, ok := playerFrom(c)
	if !ok {
		return nil
	}

	args := c.Args()
	if len(args) == 0 {
		return c.Reply(msgFlipUsage)
	}

	res, err := h.gameService.Flip(context.Background(), p, args[0])
	if err != nil {
		if errors.Is(err, service.ErrInvalidGuess) {
			return c.Reply(msgFlipUsage)
		}
		return replyFailure(c, p, "flip", err)
	}

	return c.Reply(FormatFlipResult(res.Flip, res.Account.Points))
}
