// Package handler provides Telegram bot command and callback handlers.
package handler

import (
	"errors"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/Oladizz/Yunksgame/internal/game"
)

// senderName picks the best display name Telegram gives us.
func senderName(u *tele.User) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

// alert answers a callback query with a popup alert.
func alert(c tele.Context, text string) error {
	return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
}

// toast answers a callback query with a transient notification.
func toast(c tele.Context, text string) error {
	return c.Respond(&tele.CallbackResponse{Text: text})
}

// gameErrorText maps session errors to short user-facing messages for
// callback alerts. Unknown errors fall through to a generic message so
// internals never leak into chat.
func gameErrorText(err error) string {
	switch {
	case errors.Is(err, game.ErrAlreadyActive):
		return "⚠️ A game of this type is already running in this chat."
	case errors.Is(err, game.ErrNoSession):
		return "⚠️ This game is already over."
	case errors.Is(err, game.ErrNotOwner):
		return "🔒 Only the game owner can do that."
	case errors.Is(err, game.ErrNotInGame):
		return "🚫 You are not part of this game."
	case errors.Is(err, game.ErrAlreadyJoined):
		return "✅ You already joined."
	case errors.Is(err, game.ErrWrongPhase):
		return "⏳ You can't do that right now."
	case errors.Is(err, game.ErrLobbyFull):
		return "🈵 The lobby is full."
	case errors.Is(err, game.ErrInsufficientPlayers):
		return "👥 Not enough players to start."
	case errors.Is(err, game.ErrInsufficientXP):
		return "💸 You don't have enough XP for that."
	case errors.Is(err, game.ErrAlreadyActed):
		return "✋ You already made your move this round."
	case errors.Is(err, game.ErrSelfTarget):
		return "🪞 You can't target yourself."
	case errors.Is(err, game.ErrUnknownTarget):
		return "❓ That player is not in the game."
	default:
		return "❌ Something went wrong, please try again."
	}
}

// formatDuration renders a cooldown as "1h 23m" style text.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	if d < time.Minute {
		return "less than a minute"
	}
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
