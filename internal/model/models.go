// Package model defines the data models for the XP game bot.
package model

import "time"

// User represents a Telegram user tracked by the XP ledger.
type User struct {
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	XP         int64     `db:"xp"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// XPEvent represents a single XP balance change record.
type XPEvent struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Amount      int64     `db:"amount"`
	Type        string    `db:"type"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// Event types for categorizing XP changes.
const (
	EvTypeMessage       = "message"        // Passive XP for chatting
	EvTypeGuessWin      = "guess_win"      // Guess-the-number win bonus
	EvTypeFarmWin       = "farm_win"       // Rat-in-the-farm farmer win bonus
	EvTypeRatWin        = "rat_win"        // Rat-in-the-farm rat win bonus
	EvTypeStandingWin   = "standing_win"   // Last-person-standing win bonus
	EvTypeLastWordEntry = "lastword_entry" // Last-message-wins entry fee (negative)
	EvTypeLastWordPot   = "lastword_pot"   // Last-message-wins pot payout
	EvTypeLastWordBack  = "lastword_back"  // Last-message-wins fee refund
	EvTypeGive          = "give"           // User-to-user gift
	EvTypeSteal         = "steal"          // Successful steal (both sides)
	EvTypeStealPenalty  = "steal_penalty"  // Fumbled steal attempt
	EvTypeAdminAward    = "admin_award"    // Admin granted XP
)
