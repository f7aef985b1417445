package farm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Oladizz/Yunksgame/internal/config"
	"github.com/Oladizz/Yunksgame/internal/game"
	"github.com/Oladizz/Yunksgame/internal/model"
)

// Namespace prefixes every farm callback payload.
const Namespace = "farm"

// ErrUnknownLocation is returned for an action naming no real location.
var ErrUnknownLocation = errors.New("unknown farm location")

// Manager runs all farm sessions. Every inbound event or timer callback is
// a transition: it locks the session, re-checks phase and membership,
// mutates, and renders.
type Manager struct {
	registry *game.Registry
	ledger   game.Ledger
	msgr     game.Messenger
	renderer game.Renderer
	sched    game.Scheduler
	cfg      config.FarmConfig

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewManager creates a farm game manager.
func NewManager(
	registry *game.Registry,
	ledger game.Ledger,
	msgr game.Messenger,
	renderer game.Renderer,
	sched game.Scheduler,
	cfg config.FarmConfig,
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
	return fmt.Sprintf("farm_lobby_%d", chatID)
}

// Open creates a new lobby with the owner as its first player and posts
// the game message.
func (m *Manager) Open(chatID, ownerID int64, ownerName string) error {
	s := newSession(chatID, ownerID, ownerName)
	if err := m.registry.Create(chatID, game.TypeFarm, s); err != nil {
		return err
	}

	text, markup := renderLobby(s, m.cfg)
	msgID, err := m.msgr.Send(chatID, text, markup)
	if err != nil {
		m.registry.Remove(chatID, game.TypeFarm)
		return fmt.Errorf("failed to post farm lobby: %w", err)
	}
	s.MessageID = msgID
	m.renderer.Prime(chatID, msgID, text, markup)

	if m.cfg.LobbyTimeout > 0 {
		m.sched.Once(lobbyTimerName(chatID), m.cfg.LobbyTimeout, func() {
			m.expireLobby(chatID)
		})
	}

	log.Info().Int64("chat_id", chatID).Int64("owner_id", ownerID).Msg("Farm lobby opened")
	return nil
}

func (m *Manager) lookup(chatID int64) (*Session, error) {
	v, ok := m.registry.Lookup(chatID, game.TypeFarm)
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
	if s.Players.Len() >= m.cfg.MaxPlayers {
		return game.ErrLobbyFull
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
		m.finalRender(s, renderCancelled())
		m.teardown(s)
		log.Info().Int64("chat_id", chatID).Msg("Farm lobby cancelled by owner")
		return nil
	}

	s.Players.Remove(userID)
	m.render(s)
	return nil
}

// Start assigns roles and opens the first search round.
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

	players := s.Players.Ordered()
	rat := players[m.intn(len(players))]
	for _, p := range players {
		p.Role = game.RoleFarmer
	}
	rat.Role = game.RoleRat
	s.RatID = rat.ID

	s.Farm = m.newFarm()
	s.Round = 1
	s.Phase = PhaseSearch

	log.Info().
		Int64("chat_id", chatID).
		Int("players", len(players)).
		Msg("Farm game started")

	m.render(s)
	return nil
}

// RevealRole returns the caller's secret role for a private alert.
func (m *Manager) RevealRole(chatID, userID int64) (game.Role, error) {
	s, err := m.lookup(chatID)
	if err != nil {
		return game.RoleNone, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Phase == PhaseLobby || s.Phase.terminal() {
		return game.RoleNone, game.ErrWrongPhase
	}
	p := s.Players.Get(userID)
	if p == nil {
		return game.RoleNone, game.ErrNotInGame
	}
	return p.Role, nil
}

// Act handles a location press during the search phase: the rat secretly
// moves, a farmer searches. Each active player acts once per round; when
// the last one acts the round resolves.
func (m *Manager) Act(ctx context.Context, chatID, userID int64, locationKey string) error {
	loc, ok := ParseLocation(locationKey)
	if !ok {
		return ErrUnknownLocation
	}

	s, err := m.lookup(chatID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Phase != PhaseSearch {
		return game.ErrWrongPhase
	}
	p := s.activePlayer(userID)
	if p == nil {
		return game.ErrNotInGame
	}
	if p.Acted {
		return game.ErrAlreadyActed
	}

	if userID == s.RatID {
		m.rngMu.Lock()
		s.Farm.MoveRat(m.rng, loc)
		m.rngMu.Unlock()
	} else {
		s.Farm.RecordSearch(loc, userID)
	}
	p.Acted = true

	if s.Players.AllActed() {
		m.resolveRound(ctx, s)
		return nil
	}

	m.render(s)
	return nil
}

// resolveRound rolls the search results and either shows them or ends the
// game if the damage meter filled up. Caller holds the session lock.
func (m *Manager) resolveRound(ctx context.Context, s *Session) {
	m.rngMu.Lock()
	s.Results = s.Farm.ResolveSearches(m.rng)
	m.rngMu.Unlock()

	log.Info().
		Int64("chat_id", s.ChatID).
		Int("round", s.Round).
		Int("damage", s.Farm.Damage()).
		Msg("Farm round resolved")

	if s.Farm.Destroyed() {
		m.finishRatWins(ctx, s)
		return
	}
	s.Phase = PhaseResults
	m.render(s)
}

// Proceed moves from the results screen to the suspicion vote.
func (m *Manager) Proceed(chatID, userID int64) error {
	s, err := m.lookup(chatID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Phase != PhaseResults {
		return game.ErrWrongPhase
	}
	if s.activePlayer(userID) == nil {
		return game.ErrNotInGame
	}

	s.Phase = PhaseSuspicion
	m.render(s)
	return nil
}

// BeginAccusation opens the accusation target list. Any active player may
// initiate it.
func (m *Manager) BeginAccusation(chatID, userID int64) error {
	s, err := m.lookup(chatID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Phase != PhaseSuspicion {
		return game.ErrWrongPhase
	}
	if s.activePlayer(userID) == nil {
		return game.ErrNotInGame
	}

	s.Phase = PhaseAccusation
	m.render(s)
	return nil
}

// CancelAccusation backs out to the suspicion screen.
func (m *Manager) CancelAccusation(chatID, userID int64) error {
	s, err := m.lookup(chatID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Phase != PhaseAccusation {
		return game.ErrWrongPhase
	}
	if s.activePlayer(userID) == nil {
		return game.ErrNotInGame
	}

	s.Phase = PhaseSuspicion
	m.render(s)
	return nil
}

// NextRound skips the accusation and opens another search round.
func (m *Manager) NextRound(chatID, userID int64) error {
	s, err := m.lookup(chatID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Phase != PhaseSuspicion {
		return game.ErrWrongPhase
	}
	if s.activePlayer(userID) == nil {
		return game.ErrNotInGame
	}

	m.advanceRound(s)
	m.render(s)
	return nil
}

// advanceRound resets per-round state and returns to the search phase.
// Caller holds the session lock.
func (m *Manager) advanceRound(s *Session) {
	s.Farm.ResetRound()
	s.Players.ResetActions()
	s.Results = nil
	s.Round++
	s.Phase = PhaseSearch
}

// Accuse expels the named player. Accusing the rat wins the game for the
// farmers; expelling an innocent damages the farm and may hand the rat the
// win.
func (m *Manager) Accuse(ctx context.Context, chatID, accuserID, targetID int64) error {
	s, err := m.lookup(chatID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Phase != PhaseAccusation {
		return game.ErrWrongPhase
	}
	if s.activePlayer(accuserID) == nil {
		return game.ErrNotInGame
	}
	target := s.activePlayer(targetID)
	if target == nil {
		return game.ErrUnknownTarget
	}

	if targetID == s.RatID {
		m.finishFarmersWin(ctx, s)
		return nil
	}

	target.Eliminated = true
	s.Farm.AddDamage(wrongAccusationDamage)
	log.Info().
		Int64("chat_id", chatID).
		Int64("expelled", targetID).
		Int("damage", s.Farm.Damage()).
		Msg("Innocent player expelled from farm")

	if s.Farm.Destroyed() {
		m.finishRatWins(ctx, s)
		return nil
	}

	m.advanceRound(s)
	m.render(s)
	return nil
}

// finishFarmersWin pays out every surviving farmer and closes the session.
// Caller holds the session lock.
func (m *Manager) finishFarmersWin(ctx context.Context, s *Session) {
	s.Phase = PhaseFarmersWin
	for _, p := range s.Players.Active() {
		if p.Role != game.RoleFarmer {
			continue
		}
		if err := m.ledger.Add(ctx, p.ID, p.Username, m.cfg.FarmerWinXP, model.EvTypeFarmWin); err != nil {
			log.Error().Err(err).Int64("user_id", p.ID).Msg("Failed to pay farmer win bonus")
		}
	}
	log.Info().Int64("chat_id", s.ChatID).Int64("rat_id", s.RatID).Msg("Farmers win")
	m.render(s)
	m.teardown(s)
}

// finishRatWins pays the rat and closes the session. Caller holds the
// session lock.
func (m *Manager) finishRatWins(ctx context.Context, s *Session) {
	s.Phase = PhaseRatWins
	rat := s.Players.Get(s.RatID)
	if rat != nil {
		if err := m.ledger.Add(ctx, rat.ID, rat.Username, m.cfg.RatWinXP, model.EvTypeRatWin); err != nil {
			log.Error().Err(err).Int64("user_id", rat.ID).Msg("Failed to pay rat win bonus")
		}
	}
	log.Info().Int64("chat_id", s.ChatID).Int64("rat_id", s.RatID).Msg("Rat wins")
	m.render(s)
	m.teardown(s)
}

// EndGame force-closes any farm session in the chat. Returns false if none
// was active.
func (m *Manager) EndGame(chatID int64) bool {
	s, err := m.lookup(chatID)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m.finalRender(s, renderEnded())
	m.teardown(s)
	log.Info().Int64("chat_id", chatID).Msg("Farm game ended by admin")
	return true
}

// expireLobby is the lobby-timeout callback. The session may have started
// or ended since the timer was scheduled, in which case this is a no-op.
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

	m.finalRender(s, renderExpired())
	m.teardown(s)
	log.Info().Int64("chat_id", chatID).Msg("Farm lobby expired")
}

// render pushes the current phase to the game message. A permanent render
// failure terminates the session per the error policy. Caller holds the
// session lock.
func (m *Manager) render(s *Session) {
	text, markup := renderSession(s, m.cfg)
	if err := m.renderer.MaybeUpdate(s.ChatID, s.MessageID, text, markup); err != nil {
		log.Error().Err(err).
			Int64("chat_id", s.ChatID).
			Str("phase", s.Phase.String()).
			Msg("Farm render failed, terminating session")
		m.teardown(s)
	}
}

// finalRender replaces the game message with a closing notice.
func (m *Manager) finalRender(s *Session, text string) {
	if err := m.renderer.MaybeUpdate(s.ChatID, s.MessageID, text, nil); err != nil {
		log.Warn().Err(err).Int64("chat_id", s.ChatID).Msg("Failed to render farm closing notice")
	}
}

// teardown releases the registry slot, pending timers and render cache.
// Caller holds the session lock.
func (m *Manager) teardown(s *Session) {
	m.registry.Remove(s.ChatID, game.TypeFarm)
	m.sched.Cancel(lobbyTimerName(s.ChatID))
	m.renderer.Forget(s.ChatID, s.MessageID)
}

func (m *Manager) newFarm() *Farm {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return NewFarm(m.rng)
}

func (m *Manager) intn(n int) int {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.rng.Intn(n)
}
