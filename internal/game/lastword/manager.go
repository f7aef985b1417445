package lastword

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Oladizz/Yunksgame/internal/config"
	"github.com/Oladizz/Yunksgame/internal/game"
	"github.com/Oladizz/Yunksgame/internal/model"
)

// Namespace prefixes every lastword callback payload.
const Namespace = "lmw"

// tickInterval drives the live countdown display and the deadline check.
const tickInterval = time.Second

// Manager runs all lastword sessions.
type Manager struct {
	registry *game.Registry
	ledger   game.Ledger
	msgr     game.Messenger
	renderer game.Renderer
	sched    game.Scheduler
	cfg      config.LastWordConfig
}

// NewManager creates a lastword game manager.
func NewManager(
	registry *game.Registry,
	ledger game.Ledger,
	msgr game.Messenger,
	renderer game.Renderer,
	sched game.Scheduler,
	cfg config.LastWordConfig,
) *Manager {
	return &Manager{
		registry: registry,
		ledger:   ledger,
		msgr:     msgr,
		renderer: renderer,
		sched:    sched,
		cfg:      cfg,
	}
}

func lobbyTimerName(chatID int64) string {
	return fmt.Sprintf("lmw_lobby_%d", chatID)
}

func tickTimerName(chatID int64) string {
	return fmt.Sprintf("lmw_tick_%d", chatID)
}

// recomputePot derives the pot from the fees currently held. The multiplier
// applies to the total, not per joiner, so truncation happens at most once:
// two joiners at fee 5 with a 0.5 multiplier make a pot of 5, not 4.
func (m *Manager) recomputePot(s *Session) {
	s.Pot = int64(float64(s.FeesCollected) * m.cfg.PotMultiplier)
}

// Open creates a new lobby. The opener owns the session but still has to
// join (and pay) like everyone else.
func (m *Manager) Open(chatID, ownerID int64) error {
	s := newSession(chatID, ownerID)
	if err := m.registry.Create(chatID, game.TypeLastWord, s); err != nil {
		return err
	}

	text, markup := renderLobby(s, m.cfg)
	msgID, err := m.msgr.Send(chatID, text, markup)
	if err != nil {
		m.registry.Remove(chatID, game.TypeLastWord)
		return fmt.Errorf("failed to post lastword lobby: %w", err)
	}
	s.MessageID = msgID
	m.renderer.Prime(chatID, msgID, text, markup)

	if m.cfg.LobbyTimeout > 0 {
		m.sched.Once(lobbyTimerName(chatID), m.cfg.LobbyTimeout, func() {
			m.expireLobby(chatID)
		})
	}

	log.Info().Int64("chat_id", chatID).Int64("owner_id", ownerID).Msg("Lastword lobby opened")
	return nil
}

func (m *Manager) lookup(chatID int64) (*Session, error) {
	v, ok := m.registry.Lookup(chatID, game.TypeLastWord)
	if !ok {
		return nil, game.ErrNoSession
	}
	return v.(*Session), nil
}

// Join admits a player after collecting the entry fee. A failed deduction
// blocks the join: nobody plays without paying.
func (m *Manager) Join(ctx context.Context, chatID, userID int64, username string) error {
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

	balance, err := m.ledger.Balance(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to check balance: %w", err)
	}
	if balance < m.cfg.EntryFee {
		return game.ErrInsufficientXP
	}
	if err := m.ledger.Add(ctx, userID, username, -m.cfg.EntryFee, model.EvTypeLastWordEntry); err != nil {
		return fmt.Errorf("failed to collect entry fee: %w", err)
	}

	s.Players.Add(&game.Player{ID: userID, Username: username})
	s.hasMessaged[userID] = false
	s.FeesCollected += m.cfg.EntryFee
	m.recomputePot(s)

	m.render(s)
	return nil
}

// Leave refunds and removes a player from the lobby. The owner leaving
// cancels the lobby and refunds every member.
func (m *Manager) Leave(ctx context.Context, chatID, userID int64) error {
	s, err := m.lookup(chatID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Phase != PhaseLobby {
		return game.ErrWrongPhase
	}
	if userID == s.OwnerID {
		m.refundAll(ctx, s)
		m.finalRender(s, "🚪 The game owner closed the lobby. Entry fees refunded.")
		m.teardown(s)
		log.Info().Int64("chat_id", chatID).Msg("Lastword lobby cancelled by owner")
		return nil
	}
	if !s.Players.Has(userID) {
		return game.ErrNotInGame
	}

	p := s.Players.Get(userID)
	if err := m.ledger.Add(ctx, userID, p.Username, m.cfg.EntryFee, model.EvTypeLastWordBack); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to refund lastword entry fee")
	}
	s.Players.Remove(userID)
	delete(s.hasMessaged, userID)
	s.FeesCollected -= m.cfg.EntryFee
	m.recomputePot(s)

	m.render(s)
	return nil
}

// Start begins the countdown.
func (m *Manager) Start(chatID, userID int64) error {
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
	s.Phase = PhaseCountdown
	s.Deadline = time.Now().Add(m.cfg.Duration)
	s.LastMessage = nil

	m.sched.Repeating(tickTimerName(chatID), tickInterval, tickInterval, func() {
		m.tick(chatID)
	})

	log.Info().
		Int64("chat_id", chatID).
		Int("players", s.Players.Len()).
		Int64("pot", s.Pot).
		Msg("Lastword countdown started")

	m.render(s)
	return nil
}

// RecordMessage offers a chat message as the winning candidate. It is
// accepted iff the countdown runs, the sender is a member, and they have
// not spoken yet. A member's extra messages are deleted to keep the
// one-message rule visible in the chat; outsiders' messages pass through.
func (m *Manager) RecordMessage(chatID, userID int64, username string, messageID int) (bool, error) {
	s, err := m.lookup(chatID)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Phase != PhaseCountdown {
		return false, nil
	}
	if !s.Players.Has(userID) {
		return false, nil
	}
	if s.hasMessaged[userID] {
		if err := m.msgr.Delete(chatID, messageID); err != nil {
			log.Warn().Err(err).Int64("chat_id", chatID).Int("message_id", messageID).Msg("Failed to delete extra lastword message")
		}
		return false, nil
	}

	s.LastMessage = &LastMessage{
		UserID:    userID,
		Username:  username,
		MessageID: messageID,
		At:        time.Now(),
	}
	s.hasMessaged[userID] = true

	log.Debug().
		Int64("chat_id", chatID).
		Int64("user_id", userID).
		Msg("Lastword candidate recorded")

	m.render(s)
	return true, nil
}

// tick refreshes the countdown display and fires the deadline.
func (m *Manager) tick(chatID int64) {
	s, err := m.lookup(chatID)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Phase != PhaseCountdown {
		return
	}
	if time.Now().Before(s.Deadline) {
		m.render(s)
		return
	}
	m.finish(context.Background(), s)
}

// finish settles the pot at the deadline: the last valid message takes it
// all; with no valid message everyone gets their fee back. Caller holds
// the session lock.
func (m *Manager) finish(ctx context.Context, s *Session) {
	s.Phase = PhaseFinished

	if s.LastMessage != nil {
		winner := s.LastMessage
		if err := m.ledger.Add(ctx, winner.UserID, winner.Username, s.Pot, model.EvTypeLastWordPot); err != nil {
			log.Error().Err(err).Int64("user_id", winner.UserID).Msg("Failed to pay lastword pot")
		}
		if err := m.msgr.Pin(s.ChatID, winner.MessageID); err != nil {
			log.Warn().Err(err).Int64("chat_id", s.ChatID).Msg("Failed to pin winning message")
		}
		log.Info().
			Int64("chat_id", s.ChatID).
			Int64("winner_id", winner.UserID).
			Int64("pot", s.Pot).
			Msg("Lastword game won")
	} else {
		m.refundAll(ctx, s)
		log.Info().Int64("chat_id", s.ChatID).Msg("Lastword game ended with no winner, fees refunded")
	}

	m.render(s)
	m.teardown(s)
}

// refundAll returns the entry fee to every current member. Refund failures
// are logged, not retried.
func (m *Manager) refundAll(ctx context.Context, s *Session) {
	for _, p := range s.Players.Ordered() {
		if err := m.ledger.Add(ctx, p.ID, p.Username, m.cfg.EntryFee, model.EvTypeLastWordBack); err != nil {
			log.Error().Err(err).Int64("user_id", p.ID).Msg("Failed to refund lastword entry fee")
		}
	}
}

// EndGame force-closes any lastword session in the chat, refunding fees.
func (m *Manager) EndGame(chatID int64) bool {
	s, err := m.lookup(chatID)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m.refundAll(context.Background(), s)
	m.finalRender(s, "🛑 The game was ended by an admin. Entry fees refunded.")
	m.teardown(s)
	log.Info().Int64("chat_id", chatID).Msg("Lastword game ended by admin")
	return true
}

// expireLobby is the lobby-timeout callback: close and refund.
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

	m.refundAll(context.Background(), s)
	m.finalRender(s, "⌛️ The lobby expired before the countdown started. Entry fees refunded.")
	m.teardown(s)
	log.Info().Int64("chat_id", chatID).Msg("Lastword lobby expired")
}

func (m *Manager) render(s *Session) {
	text, markup := renderSession(s, m.cfg)
	if err := m.renderer.MaybeUpdate(s.ChatID, s.MessageID, text, markup); err != nil {
		log.Error().Err(err).
			Int64("chat_id", s.ChatID).
			Str("phase", s.Phase.String()).
			Msg("Lastword render failed, terminating session")
		m.teardown(s)
	}
}

func (m *Manager) finalRender(s *Session, text string) {
	if err := m.renderer.MaybeUpdate(s.ChatID, s.MessageID, text, nil); err != nil {
		log.Warn().Err(err).Int64("chat_id", s.ChatID).Msg("Failed to render lastword closing notice")
	}
}

// teardown releases the registry slot, timers and render cache. Caller
// holds the session lock.
func (m *Manager) teardown(s *Session) {
	m.registry.Remove(s.ChatID, game.TypeLastWord)
	m.sched.Cancel(lobbyTimerName(s.ChatID))
	m.sched.Cancel(tickTimerName(s.ChatID))
	m.renderer.Forget(s.ChatID, s.MessageID)
}
