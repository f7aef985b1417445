package standing

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Oladizz/Yunksgame/internal/config"
	"github.com/Oladizz/Yunksgame/internal/game"
	"github.com/Oladizz/Yunksgame/internal/model"
)

// Namespace prefixes every standing callback payload.
const Namespace = "lps"

// Manager runs all standing sessions.
type Manager struct {
	registry *game.Registry
	ledger   game.Ledger
	msgr     game.Messenger
	renderer game.Renderer
	sched    game.Scheduler
	cfg      config.StandingConfig

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewManager creates a standing game manager.
func NewManager(
	registry *game.Registry,
	ledger game.Ledger,
	msgr game.Messenger,
	renderer game.Renderer,
	sched game.Scheduler,
	cfg config.StandingConfig,
) *Manager {
	return &Manager{
		registry: registry,
		ledger:   ledger,
		msgr:     msgr,
		renderer: renderer,
		sched:    sched,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func lobbyTimerName(chatID int64) string {
	return fmt.Sprintf("lps_lobby_%d", chatID)
}

func tickTimerName(chatID int64) string {
	return fmt.Sprintf("lps_tick_%d", chatID)
}

// Open creates a new lobby with the owner as its first player.
func (m *Manager) Open(chatID, ownerID int64, ownerName string) error {
	s := newSession(chatID, ownerID, ownerName)
	if err := m.registry.Create(chatID, game.TypeStanding, s); err != nil {
		return err
	}

	text, markup := renderLobby(s)
	msgID, err := m.msgr.Send(chatID, text, markup)
	if err != nil {
		m.registry.Remove(chatID, game.TypeStanding)
		return fmt.Errorf("failed to post standing lobby: %w", err)
	}
	s.MessageID = msgID
	m.renderer.Prime(chatID, msgID, text, markup)

	if m.cfg.LobbyTimeout > 0 {
		m.sched.Once(lobbyTimerName(chatID), m.cfg.LobbyTimeout, func() {
			m.expireLobby(chatID)
		})
	}

	log.Info().Int64("chat_id", chatID).Int64("owner_id", ownerID).Msg("Standing lobby opened")
	return nil
}

func (m *Manager) lookup(chatID int64) (*Session, error) {
	v, ok := m.registry.Lookup(chatID, game.TypeStanding)
	if !ok {
		return nil, game.ErrNoSession
	}
	return v.(*Session), nil
}

// Join adds a player to the lobby.
func (m *Manager) Join(chatID, userID int64, username string) error {
	s, err := m.lookup(chatID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Phase != PhaseLobby {
		return game.ErrWrongPhase
	}
	if s.Players.Has(userID) {
		return game.ErrAlreadyJoined
	}

	s.Players.Add(&game.Player{ID: userID, Username: username})
	m.render(s)
	return nil
}

// Leave removes a player from the lobby. The owner leaving cancels the
// whole lobby.
func (m *Manager) Leave(chatID, userID int64) error {
	s, err := m.lookup(chatID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Phase != PhaseLobby {
		return game.ErrWrongPhase
	}
	if !s.Players.Has(userID) {
		return game.ErrNotInGame
	}

	if userID == s.OwnerID {
		m.finalRender(s, "🚪 The game owner closed the lobby.")
		m.teardown(s)
		log.Info().Int64("chat_id", chatID).Msg("Standing lobby cancelled by owner")
		return nil
	}

	s.Players.Remove(userID)
	m.render(s)
	return nil
}

// Start begins the elimination rounds. If the lobby already holds no more
// than the winner threshold, everybody wins on the spot and no tick is
// scheduled.
func (m *Manager) Start(ctx context.Context, chatID, userID int64) error {
	s, err := m.lookup(chatID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Phase != PhaseLobby {
		return game.ErrWrongPhase
	}
	if userID != s.OwnerID {
		return game.ErrNotOwner
	}
	if s.Players.Len() < m.cfg.MinPlayers {
		return game.ErrInsufficientPlayers
	}

	m.sched.Cancel(lobbyTimerName(chatID))
	s.Phase = PhaseRunning

	log.Info().
		Int64("chat_id", chatID).
		Int("players", s.Players.Len()).
		Msg("Standing game started")

	if len(s.Remaining()) <= m.cfg.WinnerCount {
		m.finish(ctx, s)
		return nil
	}

	m.sched.Repeating(tickTimerName(chatID), m.cfg.InitialDelay, m.cfg.Interval, func() {
		m.tick(chatID)
	})
	m.render(s)
	return nil
}

// tick eliminates one random player. Fires repeatedly until the winner
// threshold is reached; a tick racing teardown finds no session and
// returns.
func (m *Manager) tick(chatID int64) {
	s, err := m.lookup(chatID)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Phase != PhaseRunning {
		return
	}

	remaining := s.Remaining()
	if len(remaining) > m.cfg.WinnerCount {
		m.rngMu.Lock()
		victim := remaining[m.rng.Intn(len(remaining))]
		reason := eliminationReasons[m.rng.Intn(len(eliminationReasons))]
		m.rngMu.Unlock()

		victim.Eliminated = true
		s.Eliminated = append(s.Eliminated, Elimination{Player: victim, Reason: reason})

		log.Info().
			Int64("chat_id", chatID).
			Int64("user_id", victim.ID).
			Int("remaining", len(remaining)-1).
			Msg("Player eliminated")
	}

	if len(s.Remaining()) <= m.cfg.WinnerCount {
		m.finish(context.Background(), s)
		return
	}
	m.render(s)
}

// finish pays every remaining player and closes the session. Caller holds
// the session lock.
func (m *Manager) finish(ctx context.Context, s *Session) {
	s.Phase = PhaseFinished
	for _, p := range s.Remaining() {
		if err := m.ledger.Add(ctx, p.ID, p.Username, m.cfg.WinnerXP, model.EvTypeStandingWin); err != nil {
			log.Error().Err(err).Int64("user_id", p.ID).Msg("Failed to pay standing win bonus")
		}
	}
	log.Info().
		Int64("chat_id", s.ChatID).
		Int("winners", len(s.Remaining())).
		Msg("Standing game finished")
	m.render(s)
	m.teardown(s)
}

// EndGame force-closes any standing session in the chat.
func (m *Manager) EndGame(chatID int64) bool {
	s, err := m.lookup(chatID)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m.finalRender(s, "🛑 The game was ended by an admin.")
	m.teardown(s)
	log.Info().Int64("chat_id", chatID).Msg("Standing game ended by admin")
	return true
}

// expireLobby is the lobby-timeout callback.
func (m *Manager) expireLobby(chatID int64) {
	s, err := m.lookup(chatID)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Phase != PhaseLobby {
		return
	}

	m.finalRender(s, "⌛️ The lobby expired before the game started.")
	m.teardown(s)
	log.Info().Int64("chat_id", chatID).Msg("Standing lobby expired")
}

func (m *Manager) render(s *Session) {
	text, markup := renderSession(s, m.cfg)
	if err := m.renderer.MaybeUpdate(s.ChatID, s.MessageID, text, markup); err != nil {
		log.Error().Err(err).
			Int64("chat_id", s.ChatID).
			Str("phase", s.Phase.String()).
			Msg("Standing render failed, terminating session")
		m.teardown(s)
	}
}

func (m *Manager) finalRender(s *Session, text string) {
	if err := m.renderer.MaybeUpdate(s.ChatID, s.MessageID, text, nil); err != nil {
		log.Warn().Err(err).Int64("chat_id", s.ChatID).Msg("Failed to render standing closing notice")
	}
}

// teardown releases the registry slot, timers and render cache. Caller
// holds the session lock.
func (m *Manager) teardown(s *Session) {
	m.registry.Remove(s.ChatID, game.TypeStanding)
	m.sched.Cancel(lobbyTimerName(s.ChatID))
	m.sched.Cancel(tickTimerName(s.ChatID))
	m.renderer.Forget(s.ChatID, s.MessageID)
}
