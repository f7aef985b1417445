// Package repository provides data access layer implementations for the XP ledger.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Oladizz/Yunksgame/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository handles user XP persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID retrieves a user by their Telegram ID.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, telegramID int64) (*model.User, error) {
	const query = `
		SELECT telegram_id, username, xp, created_at, updated_at
		FROM users
		WHERE telegram_id = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, telegramID).Scan(
		&user.TelegramID,
		&user.Username,
		&user.XP,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// AddXP applies a delta to a user's XP balance, creating the record at 0
// first if the user is unknown. The username is refreshed opportunistically
// whenever a non-empty one is supplied. Returns the resulting balance.
func (r *UserRepository) AddXP(ctx context.Context, telegramID int64, username string, delta int64) (int64, error) {
	const query = `
		INSERT INTO users (telegram_id, username, xp, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (telegram_id) DO UPDATE
		SET xp = users.xp + $3,
		    username = CASE WHEN $2 <> '' THEN $2 ELSE users.username END,
		    updated_at = NOW()
		RETURNING xp
	`

	var xp int64
	if err := r.pool.QueryRow(ctx, query, telegramID, username, delta).Scan(&xp); err != nil {
		return 0, fmt.Errorf("failed to add xp: %w", err)
	}

	return xp, nil
}

// Transfer moves XP between two users atomically. Both rows are locked for
// the duration of the transaction; if the sender's balance is insufficient
// or either account is missing, neither side is mutated and false is
// returned without error.
func (r *UserRepository) Transfer(ctx context.Context, fromID, toID, amount int64) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("transfer amount must be positive, got %d", amount)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("failed to begin transfer: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock in a stable order to avoid deadlocks between opposing transfers.
	first, second := fromID, toID
	if second < first {
		first, second = second, first
	}

	const lockQuery = `SELECT telegram_id, xp FROM users WHERE telegram_id = ANY($1) ORDER BY telegram_id FOR UPDATE`
	rows, err := tx.Query(ctx, lockQuery, []int64{first, second})
	if err != nil {
		return false, fmt.Errorf("failed to lock accounts: %w", err)
	}

	balances := make(map[int64]int64, 2)
	for rows.Next() {
		var id, xp int64
		if err := rows.Scan(&id, &xp); err != nil {
			rows.Close()
			return false, fmt.Errorf("failed to scan account: %w", err)
		}
		balances[id] = xp
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("error locking accounts: %w", err)
	}

	fromXP, fromOK := balances[fromID]
	if _, toOK := balances[toID]; !fromOK || !toOK || fromXP < amount {
		return false, nil
	}

	const updateQuery = `UPDATE users SET xp = xp + $2, updated_at = NOW() WHERE telegram_id = $1`
	if _, err := tx.Exec(ctx, updateQuery, fromID, -amount); err != nil {
		return false, fmt.Errorf("failed to debit sender: %w", err)
	}
	if _, err := tx.Exec(ctx, updateQuery, toID, amount); err != nil {
		return false, fmt.Errorf("failed to credit receiver: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transfer: %w", err)
	}

	return true, nil
}

// GetTopUsers retrieves the top N users by XP balance.
func (r *UserRepository) GetTopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	const query = `
		SELECT telegram_id, username, xp, created_at, updated_at
		FROM users
		ORDER BY xp DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var user model.User
		err := rows.Scan(
			&user.TelegramID,
			&user.Username,
			&user.XP,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// UpdateUsername updates a user's username after a Telegram rename.
func (r *UserRepository) UpdateUsername(ctx context.Context, telegramID int64, username string) error {
	const query = `
		UPDATE users
		SET username = $2, updated_at = NOW()
		WHERE telegram_id = $1
	`

	result, err := r.pool.Exec(ctx, query, telegramID, username)
	if err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}
