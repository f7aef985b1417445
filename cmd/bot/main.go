// Package main is the entry point for the XP game bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Oladizz/Yunksgame/internal/bot"
	"github.com/Oladizz/Yunksgame/internal/config"
	"github.com/Oladizz/Yunksgame/internal/game"
	"github.com/Oladizz/Yunksgame/internal/game/farm"
	"github.com/Oladizz/Yunksgame/internal/game/guess"
	"github.com/Oladizz/Yunksgame/internal/game/lastword"
	"github.com/Oladizz/Yunksgame/internal/game/standing"
	"github.com/Oladizz/Yunksgame/internal/gateway"
	"github.com/Oladizz/Yunksgame/internal/handler"
	"github.com/Oladizz/Yunksgame/internal/pkg/db"
	"github.com/Oladizz/Yunksgame/internal/pkg/lock"
	"github.com/Oladizz/Yunksgame/internal/render"
	"github.com/Oladizz/Yunksgame/internal/repository"
	"github.com/Oladizz/Yunksgame/internal/scheduler"
	"github.com/Oladizz/Yunksgame/internal/service"
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
	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Repositories and the XP ledger
	userRepo := repository.NewUserRepository(dbPool.Pool)
	eventRepo := repository.NewEventRepository(dbPool.Pool)
	userLock := lock.NewUserLock()
	xpService := service.NewXPService(userRepo, eventRepo, userLock, cfg.XP)

	// Telegram transport: the client is shared between the route table and
	// the game-facing gateway.
	teleBot, err := bot.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}
	tg := gateway.NewTelegram(teleBot)
	throttle := render.NewThrottle(tg)
	sched := scheduler.New()
	registry := game.NewRegistry()

	// Game managers
	farmGame := farm.NewManager(registry, xpService, tg, throttle, sched, cfg.Games.Farm)
	standingGame := standing.NewManager(registry, xpService, tg, throttle, sched, cfg.Games.Standing)
	lastWordGame := lastword.NewManager(registry, xpService, tg, throttle, sched, cfg.Games.LastWord)
	guessGame := guess.NewManager(xpService, cfg.Games.Guess)

	// Handlers and routes
	deps := &bot.Dependencies{
		Config:          cfg,
		AccountHandler:  handler.NewAccountHandler(xpService),
		TransferHandler: handler.NewTransferHandler(xpService),
		AdminHandler:    handler.NewAdminHandler(xpService, registry, farmGame, standingGame, lastWordGame),
		FarmHandler:     handler.NewFarmHandler(farmGame),
		StandingHandler: handler.NewStandingHandler(standingGame),
		LastWordHandler: handler.NewLastWordHandler(lastWordGame),
		GuessHandler:    handler.NewGuessHandler(guessGame),
	}
	telegramBot := bot.New(teleBot, deps)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	sched.Shutdown()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: users table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			telegram_id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL DEFAULT '',
			xp BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_xp ON users(xp DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: users table created")

	// Migration 2: xp_events table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS xp_events (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_xp_events_user_time ON xp_events(user_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_xp_events_type_time ON xp_events(type, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: xp_events table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
