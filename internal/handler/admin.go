package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/Oladizz/Yunksgame/internal/game"
	"github.com/Oladizz/Yunksgame/internal/game/farm"
	"github.com/Oladizz/Yunksgame/internal/game/lastword"
	"github.com/Oladizz/Yunksgame/internal/game/standing"
	"github.com/Oladizz/Yunksgame/internal/service"
)

// AdminHandler handles admin-only commands: /awardxp and /endgame.
type AdminHandler struct {
	xp       *service.XPService
	registry *game.Registry
	farm     *farm.Manager
	standing *standing.Manager
	lastword *lastword.Manager
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(xp *service.XPService, r *game.Registry, f *farm.Manager, s *standing.Manager, l *lastword.Manager) *AdminHandler {
	return &AdminHandler{xp: xp, registry: r, farm: f, standing: s, lastword: l}
}

// HandleAwardXP handles the /awardxp command.
// Format: reply to the target with /awardxp <amount>, or /awardxp <user_id> <amount>.
// Negative amounts take XP away.
func (h *AdminHandler) HandleAwardXP(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	var (
		targetID   int64
		targetName string
		amountArg  string
	)

	args := c.Args()
	if target := replyTarget(c); target != nil {
		if len(args) < 1 {
			return c.Reply("🛠 Usage: reply with <code>/awardxp 50</code>", tele.ModeHTML)
		}
		targetID = target.ID
		targetName = senderName(target)
		amountArg = args[0]
	} else {
		if len(args) < 2 {
			return c.Reply("🛠 Usage: <code>/awardxp &lt;user_id&gt; &lt;amount&gt;</code>, or reply with <code>/awardxp &lt;amount&gt;</code>", tele.ModeHTML)
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return c.Reply("❌ That doesn't look like a user ID.")
		}
		targetID = id
		amountArg = args[1]
	}

	amount, err := strconv.ParseInt(amountArg, 10, 64)
	if err != nil {
		return c.Reply("❌ The amount must be a whole number.")
	}

	balance, err := h.xp.AwardXP(context.Background(), targetID, targetName, amount)
	switch {
	case errors.Is(err, service.ErrInvalidAmount):
		return c.Reply("❌ The amount must be non-zero.")
	case err != nil:
		log.Error().Err(err).Int64("target_id", targetID).Msg("Admin award failed")
		return c.Reply("❌ The award failed, please try again.")
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("target_id", targetID).
		Int64("amount", amount).
		Msg("Admin awarded XP")

	return c.Reply(fmt.Sprintf(
		"🛠 Done. User <code>%d</code> received %+d XP and now has <b>%d XP</b>.",
		targetID, amount, balance,
	), tele.ModeHTML)
}

// HandleEndGame handles the /endgame command: force-closes every running
// game session in the chat. Paid games refund their entry fees.
func (h *AdminHandler) HandleEndGame(c tele.Context) error {
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}

	active := h.registry.ActiveTypes(chat.ID)
	if len(active) == 0 {
		return c.Reply("🛑 No games are running in this chat.")
	}

	h.farm.EndGame(chat.ID)
	h.standing.EndGame(chat.ID)
	h.lastword.EndGame(chat.ID)

	names := make([]string, len(active))
	for i, gt := range active {
		names[i] = string(gt)
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("chat_id", chat.ID).
		Strs("ended", names).
		Int("sessions_left", h.registry.Count()).
		Msg("Admin ended games")

	return c.Reply(fmt.Sprintf("🛑 Ended %d game(s): %s.", len(active), strings.Join(names, ", ")))
}
