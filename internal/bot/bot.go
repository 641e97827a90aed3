// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-wager-bot/internal/config"
	"telegram-wager-bot/internal/game"
	"telegram-wager-bot/internal/handler"
	"telegram-wager-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	// Handlers
	accountHandler *handler.AccountHandler
	gameHandler    *handler.GameHandler
	rankingHandler *handler.RankingHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config         *config.Config
	AccountService *service.AccountService
	GameService    *service.GameService
	RankingService *service.RankingService
	GameRegistry   *game.Registry
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Msg("Handler returned error")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot: teleBot,
		cfg: deps.Config,
	}

	// Initialize handlers
	b.accountHandler = handler.NewAccountHandler(deps.AccountService, deps.GameRegistry)
	b.gameHandler = handler.NewGameHandler(deps.GameService)
	b.rankingHandler = handler.NewRankingHandler(deps.RankingService)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
// Recovery runs first so a panic anywhere below it is contained.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(AccessMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(MetricsMiddleware())
}

// registerHandlers registers all command and event handlers.
func (b *Bot) registerHandlers() {
	// Account handlers
	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle("/help", b.accountHandler.HandleHelp)
	b.bot.Handle("/stats", b.accountHandler.HandleStats)
	b.bot.Handle("/history", b.accountHandler.HandleHistory)

	// Ranking handler
	b.bot.Handle("/leaderboard", b.rankingHandler.HandleLeaderboard)

	// Game handlers
	b.bot.Handle("/roll", b.gameHandler.HandleRoll)
	b.bot.Handle("/cancel", b.gameHandler.HandleCancel)
	b.bot.Handle("/flip", b.gameHandler.HandleFlip)

	// Wager amounts and dice outcomes of pending rolls
	b.bot.Handle(tele.OnText, b.gameHandler.HandleText)
	b.bot.Handle(tele.OnDice, b.gameHandler.HandleDice)
}

// Start starts the bot polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Str("username", b.bot.Me.Username).Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
