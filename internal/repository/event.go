package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Oladizz/Yunksgame/internal/model"
)

// EventRepository handles the append-only XP event history.
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a new EventRepository instance.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Create records a single XP change.
func (r *EventRepository) Create(ctx context.Context, userID int64, amount int64, evType string, description *string) (*model.XPEvent, error) {
	const query = `
		INSERT INTO xp_events (user_id, amount, type, description, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, user_id, amount, type, description, created_at
	`

	var ev model.XPEvent
	err := r.pool.QueryRow(ctx, query, userID, amount, evType, description).Scan(
		&ev.ID,
		&ev.UserID,
		&ev.Amount,
		&ev.Type,
		&ev.Description,
		&ev.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create xp event: %w", err)
	}

	return &ev, nil
}

// GetByUserID retrieves recent XP events for a user, newest first.
func (r *EventRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*model.XPEvent, error) {
	const query = `
		SELECT id, user_id, amount, type, description, created_at
		FROM xp_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get xp events: %w", err)
	}
	defer rows.Close()

	var events []*model.XPEvent
	for rows.Next() {
		var ev model.XPEvent
		err := rows.Scan(
			&ev.ID,
			&ev.UserID,
			&ev.Amount,
			&ev.Type,
			&ev.Description,
			&ev.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan xp event: %w", err)
		}
		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating xp events: %w", err)
	}

	return events, nil
}
