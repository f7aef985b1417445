package handler

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/Oladizz/Yunksgame/internal/game"
	"github.com/Oladizz/Yunksgame/internal/game/farm"
)

// FarmHandler handles the Rat in the Farm game command and callbacks.
type FarmHandler struct {
	farm *farm.Manager
}

// NewFarmHandler creates a new FarmHandler.
func NewFarmHandler(m *farm.Manager) *FarmHandler {
	return &FarmHandler{farm: m}
}

// HandleFarm handles the /farm command: opens a lobby in the chat.
func (h *FarmHandler) HandleFarm(c tele.Context) error {
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}
	if chat.Type == tele.ChatPrivate {
		return c.Reply("🌾 Rat in the Farm is a group game. Add me to a group and try again!")
	}

	if err := h.farm.Open(chat.ID, sender.ID, senderName(sender)); err != nil {
		return c.Reply(gameErrorText(err))
	}
	return nil
}

// HandleCallback routes a farm button press by its decoded action.
func (h *FarmHandler) HandleCallback(c tele.Context, action, arg string) error {
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}
	ctx := context.Background()

	var err error
	switch action {
	case "join":
		err = h.farm.Join(chat.ID, sender.ID, senderName(sender))
	case "leave":
		err = h.farm.Leave(chat.ID, sender.ID)
	case "start":
		err = h.farm.Start(chat.ID, sender.ID)
	case "reveal":
		return h.handleReveal(c, chat.ID, sender.ID)
	case "act":
		err = h.farm.Act(ctx, chat.ID, sender.ID, arg)
		if err == nil {
			return toast(c, "🔎 Move locked in.")
		}
	case "proceed":
		err = h.farm.Proceed(chat.ID, sender.ID)
	case "accusemenu":
		err = h.farm.BeginAccusation(chat.ID, sender.ID)
	case "cancel":
		err = h.farm.CancelAccusation(chat.ID, sender.ID)
	case "next":
		err = h.farm.NextRound(chat.ID, sender.ID)
	case "accuse":
		targetID, parseErr := strconv.ParseInt(arg, 10, 64)
		if parseErr != nil {
			log.Warn().Str("arg", arg).Msg("Malformed farm accuse callback")
			return alert(c, gameErrorText(game.ErrUnknownTarget))
		}
		err = h.farm.Accuse(ctx, chat.ID, sender.ID, targetID)
	default:
		log.Warn().Str("action", action).Msg("Unknown farm callback action")
		return c.Respond()
	}

	if err != nil {
		return alert(c, gameErrorText(err))
	}
	return c.Respond()
}

// handleReveal answers with a private popup so only the tapping player
// learns their role.
func (h *FarmHandler) handleReveal(c tele.Context, chatID, userID int64) error {
	role, err := h.farm.RevealRole(chatID, userID)
	if err != nil {
		return alert(c, gameErrorText(err))
	}
	if role == game.RoleRat {
		return alert(c, "🐀 You are the RAT! Sabotage the farm and stay hidden.")
	}
	return alert(c, "🧑‍🌾 You are a FARMER. Search the farm and find the rat!")
}
