// Package guess implements the per-user Guess the Number game. Unlike the
// chat-wide session games it needs no lobby, registry entry or timers: each
// user plays their own round against the bot.
package guess

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Oladizz/Yunksgame/internal/config"
	"github.com/Oladizz/Yunksgame/internal/game"
	"github.com/Oladizz/Yunksgame/internal/model"
)

const (
	secretMin = 1
	secretMax = 100
)

// ErrNoGame is returned for a guess without an active round.
var ErrNoGame = errors.New("no active guessing game")

// State classifies the outcome of one guess.
type State int

const (
	StateTooLow State = iota
	StateTooHigh
	StateWon
	StateLost
)

// Outcome describes what a guess did.
type Outcome struct {
	State     State
	TriesLeft int

	// Secret is revealed when the round ends (won or lost).
	Secret int

	// Award is the XP granted on a win.
	Award int64
}

type round struct {
	secret    int
	triesLeft int
}

// Manager tracks one active round per user.
type Manager struct {
	ledger game.Ledger
	cfg    config.GuessConfig

	mu     sync.Mutex
	rounds map[int64]*round
	rng    *rand.Rand
}

// NewManager creates a guess game manager.
func NewManager(ledger game.Ledger, cfg config.GuessConfig) *Manager {
	return &Manager{
		ledger: ledger,
		cfg:    cfg,
		rounds: make(map[int64]*round),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start begins a fresh round for the user, replacing any unfinished one.
// Returns the number of tries the user gets.
func (m *Manager) Start(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rounds[userID] = &round{
		secret:    secretMin + m.rng.Intn(secretMax-secretMin+1),
		triesLeft: m.cfg.MaxTries,
	}
	log.Debug().Int64("user_id", userID).Msg("Guess round started")
	return m.cfg.MaxTries
}

// Active reports whether the user has a round in progress.
func (m *Manager) Active(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rounds[userID]
	return ok
}

// Guess applies one guess. A win pays XP scaled by how quickly the user
// got there; running out of tries ends the round.
func (m *Manager) Guess(ctx context.Context, userID int64, username string, guess int) (*Outcome, error) {
	m.mu.Lock()
	r, ok := m.rounds[userID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNoGame
	}

	r.triesLeft--
	out := &Outcome{TriesLeft: r.triesLeft}

	switch {
	case guess == r.secret:
		out.State = StateWon
		out.Secret = r.secret
		out.Award = m.winAward(r.triesLeft)
		delete(m.rounds, userID)
	case r.triesLeft <= 0:
		out.State = StateLost
		out.Secret = r.secret
		delete(m.rounds, userID)
	case guess < r.secret:
		out.State = StateTooLow
	default:
		out.State = StateTooHigh
	}
	m.mu.Unlock()

	if out.State == StateWon {
		if err := m.ledger.Add(ctx, userID, username, out.Award, model.EvTypeGuessWin); err != nil {
			return nil, err
		}
		log.Info().
			Int64("user_id", userID).
			Int64("award", out.Award).
			Msg("Guess round won")
	}
	return out, nil
}

// winAward grants a base point plus the unused tries, capped.
func (m *Manager) winAward(triesLeft int) int64 {
	award := int64(1 + triesLeft)
	if award > m.cfg.MaxAward {
		award = m.cfg.MaxAward
	}
	return award
}
