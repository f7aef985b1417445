package handler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/Oladizz/Yunksgame/internal/model"
	"github.com/Oladizz/Yunksgame/internal/service"
)

// topLimit is how many users /top displays.
const topLimit = 10

// AccountHandler handles account commands: /start, /help, /profile, /top.
// It also books the passive XP for plain chat messages.
type AccountHandler struct {
	xp *service.XPService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(xp *service.XPService) *AccountHandler {
	return &AccountHandler{xp: xp}
}

// HandleStart handles the /start command.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	return c.Reply(
		"👋 <b>Welcome to the XP Games!</b>\n\n"+
			"Chat to earn XP, then spend it on games:\n"+
			"🌾 /farm — Rat in the Farm\n"+
			"👑 /lastman — Last Person Standing\n"+
			"💬 /lmw — Last Message Wins\n"+
			"🎲 /game — Guess the Number\n\n"+
			"Type /help for the full command list.",
		tele.ModeHTML,
	)
}

// HandleHelp handles the /help command.
func (h *AccountHandler) HandleHelp(c tele.Context) error {
	return c.Reply(
		"📖 <b>Commands</b>\n\n"+
			"<b>Games</b>\n"+
			"/farm — 🌾 Rat in the Farm (social deduction)\n"+
			"/lastman — 👑 Last Person Standing\n"+
			"/lmw — 💬 Last Message Wins\n"+
			"/game — 🎲 Guess the Number\n\n"+
			"<b>XP</b>\n"+
			"/profile — 📊 Your XP and recent history\n"+
			"/top — 🏆 XP leaderboard\n"+
			"/give — 🎁 Gift XP (reply to someone: /give 10)\n"+
			"/steal — 🦝 Try to steal XP (reply to your victim)\n\n"+
			"Every chat message earns you XP. Play games to earn more!",
		tele.ModeHTML,
	)
}

// HandleProfile handles the /profile command.
func (h *AccountHandler) HandleProfile(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	user, events, err := h.xp.Profile(context.Background(), sender.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.Reply("📊 No profile yet — send a few messages to start earning XP!")
		}
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to load profile")
		return c.Reply("❌ Could not load your profile, please try again.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Profile: %s</b>\n\n", html.EscapeString(displayUser(user)))
	fmt.Fprintf(&b, "⭐️ XP: <b>%d</b>\n", user.XP)
	fmt.Fprintf(&b, "📅 Joined: %s\n", user.CreatedAt.Format("2006-01-02"))

	if len(events) > 0 {
		b.WriteString("\n<b>Recent activity</b>\n")
		for _, ev := range events {
			fmt.Fprintf(&b, "%s %+d — %s\n", eventEmoji(ev.Type), ev.Amount, eventLabel(ev))
		}
	}
	return c.Reply(b.String(), tele.ModeHTML)
}

// HandleTop handles the /top command.
func (h *AccountHandler) HandleTop(c tele.Context) error {
	users, err := h.xp.Top(context.Background(), topLimit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load leaderboard")
		return c.Reply("❌ Could not load the leaderboard, please try again.")
	}
	if len(users) == 0 {
		return c.Reply("🏆 The leaderboard is empty. Start chatting to claim the top spot!")
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var b strings.Builder
	b.WriteString("🏆 <b>XP Leaderboard</b>\n\n")
	for i, u := range users {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		fmt.Fprintf(&b, "%s %s — <b>%d XP</b>\n", rank, html.EscapeString(displayUser(u)), u.XP)
	}
	return c.Reply(b.String(), tele.ModeHTML)
}

// HandleMessage books the passive per-message XP. Failures are logged and
// swallowed so a database hiccup never surfaces in chat.
func (h *AccountHandler) HandleMessage(c tele.Context) {
	sender := c.Sender()
	if sender == nil || sender.IsBot {
		return
	}
	if err := h.xp.RecordMessage(context.Background(), sender.ID, senderName(sender)); err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to record message XP")
	}
}

func displayUser(u *model.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return fmt.Sprintf("user %d", u.TelegramID)
}

func eventEmoji(evType string) string {
	switch evType {
	case model.EvTypeGuessWin, model.EvTypeFarmWin, model.EvTypeRatWin, model.EvTypeStandingWin, model.EvTypeLastWordPot:
		return "🏆"
	case model.EvTypeGive:
		return "🎁"
	case model.EvTypeSteal, model.EvTypeStealPenalty:
		return "🦝"
	case model.EvTypeLastWordEntry, model.EvTypeLastWordBack:
		return "💬"
	case model.EvTypeAdminAward:
		return "🛠"
	default:
		return "💬"
	}
}

func eventLabel(ev *model.XPEvent) string {
	if ev.Description != nil && *ev.Description != "" {
		return html.EscapeString(*ev.Description)
	}
	switch ev.Type {
	case model.EvTypeMessage:
		return "chatting"
	case model.EvTypeGuessWin:
		return "guess the number win"
	case model.EvTypeFarmWin:
		return "farm defended"
	case model.EvTypeRatWin:
		return "rat victory"
	case model.EvTypeStandingWin:
		return "last one standing"
	case model.EvTypeLastWordEntry:
		return "last message wins entry"
	case model.EvTypeLastWordPot:
		return "last message wins pot"
	case model.EvTypeLastWordBack:
		return "entry fee refund"
	case model.EvTypeAdminAward:
		return "admin award"
	default:
		return ev.Type
	}
}
