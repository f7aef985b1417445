package handler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/Oladizz/Yunksgame/internal/service"
)

// TransferHandler handles the /give and /steal commands. Both are
// reply-based: the target is the sender of the replied-to message, since
// Telegram offers no username lookup.
type TransferHandler struct {
	xp *service.XPService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(xp *service.XPService) *TransferHandler {
	return &TransferHandler{xp: xp}
}

// replyTarget extracts the user the command is aimed at.
func replyTarget(c tele.Context) *tele.User {
	msg := c.Message()
	if msg == nil || msg.ReplyTo == nil {
		return nil
	}
	return msg.ReplyTo.Sender
}

// HandleGive handles the /give command.
// Format: reply to the recipient with /give <amount>
func (h *TransferHandler) HandleGive(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	target := replyTarget(c)
	if target == nil {
		return c.Reply("🎁 Reply to the person you want to gift, e.g. <code>/give 10</code>", tele.ModeHTML)
	}
	if target.IsBot {
		return c.Reply("🤖 Bots have no use for XP.")
	}

	args := c.Args()
	if len(args) < 1 {
		return c.Reply("🎁 How much? Reply with <code>/give 10</code>", tele.ModeHTML)
	}
	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || amount <= 0 {
		return c.Reply("❌ The amount must be a positive number.")
	}

	err = h.xp.Give(context.Background(), sender.ID, senderName(sender), target.ID, senderName(target), amount)
	switch {
	case errors.Is(err, service.ErrSelfTransfer):
		return c.Reply("🪞 Gifting yourself XP would be a bit pointless.")
	case errors.Is(err, service.ErrInsufficientBalance):
		return c.Reply("💸 You don't have that much XP to give.")
	case errors.Is(err, service.ErrInvalidAmount):
		return c.Reply("❌ The amount must be a positive number.")
	case err != nil:
		log.Error().Err(err).Int64("from", sender.ID).Int64("to", target.ID).Msg("Give failed")
		return c.Reply("❌ The transfer failed, please try again.")
	}

	return c.Reply(fmt.Sprintf(
		"🎁 %s gifted <b>%d XP</b> to %s!",
		mention(sender), amount, mention(target),
	), tele.ModeHTML)
}

// HandleSteal handles the /steal command.
// Format: reply to the victim with /steal
func (h *TransferHandler) HandleSteal(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	target := replyTarget(c)
	if target == nil {
		return c.Reply("🦝 Reply to your victim's message with /steal")
	}
	if target.IsBot {
		return c.Reply("🤖 You can't pickpocket a bot.")
	}

	result, err := h.xp.Steal(context.Background(), sender.ID, senderName(sender), target.ID, senderName(target))
	switch {
	case errors.Is(err, service.ErrSelfTransfer):
		return c.Reply("🪞 Stealing from yourself? Bold strategy.")
	case err != nil:
		log.Error().Err(err).Int64("thief", sender.ID).Int64("victim", target.ID).Msg("Steal failed")
		return c.Reply("❌ The heist fell apart, please try again.")
	}

	if result.Cooldown > 0 {
		return c.Reply(fmt.Sprintf(
			"🕵️ Lay low for a while! You can steal again in %s.",
			formatDuration(result.Cooldown),
		))
	}
	if !result.Success {
		if result.Amount > 0 {
			return c.Reply(fmt.Sprintf(
				"🚨 %s got caught red-handed and paid a <b>%d XP</b> fine!",
				mention(sender), result.Amount,
			), tele.ModeHTML)
		}
		return c.Reply(fmt.Sprintf("🚨 %s got caught red-handed, but had nothing to fine.", mention(sender)), tele.ModeHTML)
	}
	if result.Amount == 0 {
		return c.Reply(fmt.Sprintf("🦝 %s rifled through empty pockets. Nothing to take!", mention(target)), tele.ModeHTML)
	}
	return c.Reply(fmt.Sprintf(
		"🦝 %s swiped <b>%d XP</b> from %s!",
		mention(sender), result.Amount, mention(target),
	), tele.ModeHTML)
}

func mention(u *tele.User) string {
	return "@" + html.EscapeString(senderName(u))
}
