// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Oladizz/Yunksgame/internal/config"
	"github.com/Oladizz/Yunksgame/internal/model"
	"github.com/Oladizz/Yunksgame/internal/pkg/lock"
	"github.com/Oladizz/Yunksgame/internal/repository"
)

// Common errors for XP operations.
var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrSelfTransfer        = errors.New("cannot transfer to self")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUserNotFound        = repository.ErrUserNotFound
)

// StealResult describes the outcome of a steal attempt.
type StealResult struct {
	// Cooldown is non-zero when the attempt was rejected because the thief
	// tried again too soon. Nothing else happened in that case.
	Cooldown time.Duration

	// Success reports whether the roll succeeded.
	Success bool

	// Amount is the XP actually moved: stolen from the victim on success,
	// paid as penalty by the thief on failure.
	Amount int64
}

// XPService owns the XP economy: balances, the event history, user-to-user
// transfers and the steal minigame. It is the single Ledger shared by all
// game sessions.
type XPService struct {
	users  *repository.UserRepository
	events *repository.EventRepository
	locks  *lock.UserLock
	cfg    config.XPConfig

	rngMu sync.Mutex
	rng   *rand.Rand

	stealMu   sync.Mutex
	lastSteal map[int64]time.Time
}

// NewXPService creates a new XPService instance.
func NewXPService(
	users *repository.UserRepository,
	events *repository.EventRepository,
	locks *lock.UserLock,
	cfg config.XPConfig,
) *XPService {
	return &XPService{
		users:     users,
		events:    events,
		locks:     locks,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		lastSteal: make(map[int64]time.Time),
	}
}

// Balance returns the user's current XP. Unknown users have balance 0.
func (s *XPService) Balance(ctx context.Context, userID int64) (int64, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return user.XP, nil
}

// Add applies a delta to the user's XP and records an event of the given
// type, creating the account at 0 first if needed.
func (s *XPService) Add(ctx context.Context, userID int64, username string, delta int64, evType string) error {
	_, err := s.addWithEvent(ctx, userID, username, delta, evType, nil)
	return err
}

// addWithEvent is Add returning the resulting balance.
func (s *XPService) addWithEvent(ctx context.Context, userID int64, username string, delta int64, evType string, description *string) (int64, error) {
	var balance int64
	err := s.locks.WithLock(userID, func() error {
		var err error
		balance, err = s.users.AddXP(ctx, userID, username, delta)
		if err != nil {
			return err
		}
		s.recordEvent(ctx, userID, delta, evType, description)
		return nil
	})
	return balance, err
}

// recordEvent appends to the event history. The balance change has already
// been committed, so a failure here is logged rather than surfaced.
func (s *XPService) recordEvent(ctx context.Context, userID int64, amount int64, evType string, description *string) {
	if _, err := s.events.Create(ctx, userID, amount, evType, description); err != nil {
		log.Error().Err(err).
			Int64("user_id", userID).
			Str("type", evType).
			Int64("amount", amount).
			Msg("Failed to record xp event")
	}
}

// Transfer atomically moves XP between users. It records no events; command
// flows that call it (give, steal) record their own, typed ones.
func (s *XPService) Transfer(ctx context.Context, fromID, toID, amount int64) (bool, error) {
	return s.users.Transfer(ctx, fromID, toID, amount)
}

// RecordMessage grants the passive per-message XP.
func (s *XPService) RecordMessage(ctx context.Context, userID int64, username string) error {
	if s.cfg.PerMessage <= 0 {
		return nil
	}
	return s.Add(ctx, userID, username, s.cfg.PerMessage, model.EvTypeMessage)
}

// Give transfers XP from one user to another.
// Fails with ErrInvalidAmount, ErrSelfTransfer or ErrInsufficientBalance
// without moving anything.
func (s *XPService) Give(ctx context.Context, fromID int64, fromName string, toID int64, toName string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if fromID == toID {
		return ErrSelfTransfer
	}

	return s.locks.WithLock(fromID, func() error {
		// The receiver may never have chatted; make sure the row exists so
		// the transfer has something to credit.
		if _, err := s.users.AddXP(ctx, toID, toName, 0); err != nil {
			return fmt.Errorf("failed to ensure receiver: %w", err)
		}

		ok, err := s.users.Transfer(ctx, fromID, toID, amount)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientBalance
		}

		desc := fmt.Sprintf("gift to %s", displayName(toName, toID))
		s.recordEvent(ctx, fromID, -amount, model.EvTypeGive, &desc)
		desc2 := fmt.Sprintf("gift from %s", displayName(fromName, fromID))
		s.recordEvent(ctx, toID, amount, model.EvTypeGive, &desc2)
		return nil
	})
}

// Steal attempts to take a random amount of XP from the victim. Each thief
// has a cooldown between attempts; a failed roll costs the thief a penalty
// instead. The stolen amount is bounded by the victim's balance and the
// penalty by the thief's, so balances never go negative.
func (s *XPService) Steal(ctx context.Context, thiefID int64, thiefName string, victimID int64, victimName string) (*StealResult, error) {
	if thiefID == victimID {
		return nil, ErrSelfTransfer
	}

	if remaining := s.consumeStealCooldown(thiefID); remaining > 0 {
		return &StealResult{Cooldown: remaining}, nil
	}

	result := &StealResult{}
	err := s.locks.WithLock(thiefID, func() error {
		if !s.roll(s.cfg.StealSuccessRate) {
			thiefBalance, err := s.Balance(ctx, thiefID)
			if err != nil {
				return err
			}
			penalty := boundDelta(s.cfg.StealPenalty, thiefBalance)
			if penalty > 0 {
				desc := fmt.Sprintf("caught stealing from %s", displayName(victimName, victimID))
				if _, err := s.addWithEvent(ctx, thiefID, thiefName, -penalty, model.EvTypeStealPenalty, &desc); err != nil {
					return err
				}
			}
			result.Amount = penalty
			return nil
		}

		victimBalance, err := s.Balance(ctx, victimID)
		if err != nil {
			return err
		}
		amount := boundDelta(s.randRange(s.cfg.StealMin, s.cfg.StealMax), victimBalance)
		result.Success = true
		if amount == 0 {
			// Successful roll, broke victim. Nothing to take.
			return nil
		}

		// The thief may be a brand-new account.
		if _, err := s.users.AddXP(ctx, thiefID, thiefName, 0); err != nil {
			return fmt.Errorf("failed to ensure thief: %w", err)
		}
		ok, err := s.users.Transfer(ctx, victimID, thiefID, amount)
		if err != nil {
			return err
		}
		if !ok {
			// Victim spent the XP between the read and the transfer.
			return nil
		}

		result.Amount = amount
		desc := fmt.Sprintf("stolen from %s", displayName(victimName, victimID))
		s.recordEvent(ctx, thiefID, amount, model.EvTypeSteal, &desc)
		desc2 := fmt.Sprintf("stolen by %s", displayName(thiefName, thiefID))
		s.recordEvent(ctx, victimID, -amount, model.EvTypeSteal, &desc2)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// consumeStealCooldown returns the remaining cooldown, or marks a fresh
// attempt and returns 0. An attempt consumes the cooldown whether or not
// the roll succeeds.
func (s *XPService) consumeStealCooldown(thiefID int64) time.Duration {
	s.stealMu.Lock()
	defer s.stealMu.Unlock()

	if last, ok := s.lastSteal[thiefID]; ok {
		if elapsed := time.Since(last); elapsed < s.cfg.StealCooldown {
			return s.cfg.StealCooldown - elapsed
		}
	}
	s.lastSteal[thiefID] = time.Now()
	return 0
}

// AwardXP applies an admin-granted delta (may be negative) and returns the
// resulting balance.
func (s *XPService) AwardXP(ctx context.Context, targetID int64, targetName string, amount int64) (int64, error) {
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	return s.addWithEvent(ctx, targetID, targetName, amount, model.EvTypeAdminAward, nil)
}

// Profile returns the user's record and recent XP events.
func (s *XPService) Profile(ctx context.Context, userID int64) (*model.User, []*model.XPEvent, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	events, err := s.events.GetByUserID(ctx, userID, 10)
	if err != nil {
		return nil, nil, err
	}
	return user, events, nil
}

// Top returns the leaderboard.
func (s *XPService) Top(ctx context.Context, limit int) ([]*model.User, error) {
	return s.users.GetTopUsers(ctx, limit)
}

func (s *XPService) roll(rate float64) bool {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64() < rate
}

func (s *XPService) randRange(min, max int64) int64 {
	if max <= min {
		return min
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return min + s.rng.Int63n(max-min+1)
}

// boundDelta caps a planned deduction or theft at what the balance can bear.
func boundDelta(amount, balance int64) int64 {
	if balance < 0 {
		return 0
	}
	if amount > balance {
		return balance
	}
	if amount < 0 {
		return 0
	}
	return amount
}

func displayName(username string, userID int64) string {
	if username != "" {
		return "@" + username
	}
	return fmt.Sprintf("user %d", userID)
}
