package handler

import (
	"context"
	"strings"

	tele "gopkg.in/telebot.v3"

	"telegram-wager-bot/internal/model"
	"telegram-wager-bot/internal/service"
)

// RankingHandler handles ranking-related commands.
type RankingHandler struct {
	rankingService *service.RankingService
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(rankingService *service.RankingService) *RankingHandler {
	return &RankingHandler{
		rankingService: rankingService,
	}
}

// HandleLeaderboard handles /leaderboard [flip].
// Ranks by balance, or by coin flip points with the "flip" argument.
func (h *RankingHandler) HandleLeaderboard(c tele.Context) error {
	p, ok := playerFrom(c)
	if !ok {
		return nil
	}

	by := model.RankByBalance
	if args := c.Args(); len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "flip", "points":
			by = model.RankByPoints
		}
	}

	accounts, err := h.rankingService.Leaderboard(context.Background(), p.ChatID, by)
	if err != nil {
		return replyFailure(c, p, "leaderboard", err)
	}

	return c.Reply(FormatLeaderboard(accounts, by))
}
