package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/Oladizz/Yunksgame/internal/config"
	"github.com/Oladizz/Yunksgame/internal/game"
	"github.com/Oladizz/Yunksgame/internal/game/farm"
	"github.com/Oladizz/Yunksgame/internal/game/lastword"
	"github.com/Oladizz/Yunksgame/internal/game/standing"
	"github.com/Oladizz/Yunksgame/internal/handler"
)

// Bot wraps the telebot instance with the command and callback handlers.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	accountHandler  *handler.AccountHandler
	transferHandler *handler.TransferHandler
	adminHandler    *handler.AdminHandler
	farmHandler     *handler.FarmHandler
	standingHandler *handler.StandingHandler
	lastWordHandler *handler.LastWordHandler
	guessHandler    *handler.GuessHandler
}

// Dependencies holds everything the bot needs to route updates.
type Dependencies struct {
	Config          *config.Config
	AccountHandler  *handler.AccountHandler
	TransferHandler *handler.TransferHandler
	AdminHandler    *handler.AdminHandler
	FarmHandler     *handler.FarmHandler
	StandingHandler *handler.StandingHandler
	LastWordHandler *handler.LastWordHandler
	GuessHandler    *handler.GuessHandler
}

// Connect creates the underlying Telegram client. It is separate from New
// so the message gateway can share the client with the route table.
func Connect(cfg *config.Config) (*tele.Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return teleBot, nil
}

// New registers middleware and all routes on a connected client.
func New(teleBot *tele.Bot, deps *Dependencies) *Bot {
	b := &Bot{
		bot:             teleBot,
		cfg:             deps.Config,
		accountHandler:  deps.AccountHandler,
		transferHandler: deps.TransferHandler,
		adminHandler:    deps.AdminHandler,
		farmHandler:     deps.FarmHandler,
		standingHandler: deps.StandingHandler,
		lastWordHandler: deps.LastWordHandler,
		guessHandler:    deps.GuessHandler,
	}

	b.registerMiddleware()
	b.registerHandlers()

	return b
}

func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

func (b *Bot) registerHandlers() {
	// Account commands
	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle("/help", b.accountHandler.HandleHelp)
	b.bot.Handle("/profile", b.accountHandler.HandleProfile)
	b.bot.Handle("/top", b.accountHandler.HandleTop)

	// XP transfers
	b.bot.Handle("/give", b.transferHandler.HandleGive)
	b.bot.Handle("/steal", b.transferHandler.HandleSteal)

	// Games
	b.bot.Handle("/farm", b.farmHandler.HandleFarm)
	b.bot.Handle("/lastman", b.standingHandler.HandleLastMan)
	b.bot.Handle("/lmw", b.lastWordHandler.HandleLmw)
	b.bot.Handle("/game", b.guessHandler.HandleGame)

	// Admin commands
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/awardxp", b.adminHandler.HandleAwardXP)
	adminGroup.Handle("/endgame", b.adminHandler.HandleEndGame)

	// Plain text: lastword candidates, guesses, passive XP
	b.bot.Handle(tele.OnText, b.handleText)

	// Inline button presses
	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleText runs the text pipeline: a running Last Message Wins countdown
// gets first claim on the message, then an active guessing round, and
// whatever is plain chatter earns the passive message XP.
func (b *Bot) handleText(c tele.Context) error {
	accepted, err := b.lastWordHandler.HandleMessage(c)
	if err != nil {
		log.Error().Err(err).Msg("Failed to process lastword candidate")
	}
	if accepted {
		b.accountHandler.HandleMessage(c)
		return nil
	}

	if handled, err := b.guessHandler.HandleText(c); handled || err != nil {
		return err
	}

	b.accountHandler.HandleMessage(c)
	return nil
}

// handleCallback dispatches button presses by their namespace prefix.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// Telebot may prefix callback data with \f
	data := strings.TrimPrefix(callback.Data, "\f")

	if action, arg, ok := game.DecodeCallback(farm.Namespace, data); ok {
		return b.farmHandler.HandleCallback(c, action, arg)
	}
	if action, arg, ok := game.DecodeCallback(standing.Namespace, data); ok {
		return b.standingHandler.HandleCallback(c, action, arg)
	}
	if action, arg, ok := game.DecodeCallback(lastword.Namespace, data); ok {
		return b.lastWordHandler.HandleCallback(c, action, arg)
	}

	log.Warn().Str("data", data).Msg("Unroutable callback")
	return c.Respond()
}

// Start starts the bot polling. Blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}

// GetBot returns the underlying telebot instance.
func (b *Bot) GetBot() *tele.Bot {
	return b.bot
}
