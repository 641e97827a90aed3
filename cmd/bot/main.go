// Package main is the entry point for the Telegram wager bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telegram-wager-bot/internal/bot"
	"telegram-wager-bot/internal/config"
	"telegram-wager-bot/internal/game"
	"telegram-wager-bot/internal/game/coinflip"
	"telegram-wager-bot/internal/game/dice"
	"telegram-wager-bot/internal/metrics"
	"telegram-wager-bot/internal/pkg/cache"
	"telegram-wager-bot/internal/pkg/db"
	"telegram-wager-bot/internal/repository"
	"telegram-wager-bot/internal/service"
	"telegram-wager-bot/internal/session"
)

const (
	cleanerInterval   = time.Minute
	collectorInterval = 15 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("ledger", cfg.Ledger.Backend).
		Str("sessions", cfg.Session.Backend).
		Dur("session_ttl", cfg.Session.TTL).
		Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the ledger
	var accounts repository.AccountStore
	switch cfg.Ledger.Backend {
	case config.BackendPostgres:
		dbPool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer dbPool.Close()

		if err := db.Migrate(ctx, dbPool.Pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
		accounts = repository.NewPostgresAccountStore(dbPool.Pool)
	default:
		log.Warn().Msg("Using in-memory ledger, balances are lost on restart")
		accounts = repository.NewMemoryAccountStore()
	}

	// Initialize the session store
	var sessions session.Store
	switch cfg.Session.Backend {
	case config.BackendRedis:
		client, err := cache.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer client.Close()
		sessions = session.NewRedisStore(client, cfg.Session.TTL)
	default:
		memStore := session.NewMemoryStore(cfg.Session.TTL)
		if cfg.Session.TTL > 0 {
			go session.NewCleaner(memStore, cleanerInterval).Run(ctx)
		}
		sessions = memStore
	}

	// Initialize game registry and register games
	gameRegistry := game.NewRegistry()
	for _, g := range []game.Game{dice.New(), coinflip.New()} {
		if err := gameRegistry.Register(g); err != nil {
			log.Fatal().Err(err).Str("game", g.Name()).Msg("Failed to register game")
		}
	}

	log.Info().
		Int("game_count", gameRegistry.Count()).
		Msg("Games registered")

	// Initialize services
	accountService := service.NewAccountService(accounts)
	rankingService := service.NewRankingService(accounts)
	gameService := service.NewGameService(accounts, sessions, coinflip.RandomFlipper{}, service.GameOptions{
		MaxBet: cfg.Games.Dice.MaxBet,
	})

	// Expose metrics
	var metricsServer *metrics.Server
	if cfg.Metrics.Addr != "" {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr)
		metricsServer.Start()
		go metrics.NewSessionCollector(sessions, collectorInterval).Run(ctx)
	}

	// Create bot dependencies
	deps := &bot.Dependencies{
		Config:         cfg,
		AccountService: accountService,
		GameService:    gameService,
		RankingService: rankingService,
		GameRegistry:   gameRegistry,
	}

	// Initialize bot
	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	telegramBot.Stop()
	cancel()

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to stop metrics server")
		}
	}

	log.Info().Msg("Bot stopped gracefully")
}
