package handler

import (
	"context"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/Oladizz/Yunksgame/internal/game/standing"
)

// StandingHandler handles the Last Person Standing game command and callbacks.
type StandingHandler struct {
	standing *standing.Manager
}

// NewStandingHandler creates a new StandingHandler.
func NewStandingHandler(m *standing.Manager) *StandingHandler {
	return &StandingHandler{standing: m}
}

// HandleLastMan handles the /lastman command: opens a lobby in the chat.
func (h *StandingHandler) HandleLastMan(c tele.Context) error {
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}
	if chat.Type == tele.ChatPrivate {
		return c.Reply("👑 Last Person Standing is a group game. Add me to a group and try again!")
	}

	if err := h.standing.Open(chat.ID, sender.ID, senderName(sender)); err != nil {
		return c.Reply(gameErrorText(err))
	}
	return nil
}

// HandleCallback routes a standing button press by its decoded action.
func (h *StandingHandler) HandleCallback(c tele.Context, action, _ string) error {
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}

	var err error
	switch action {
	case "join":
		err = h.standing.Join(chat.ID, sender.ID, senderName(sender))
	case "leave":
		err = h.standing.Leave(chat.ID, sender.ID)
	case "start":
		err = h.standing.Start(context.Background(), chat.ID, sender.ID)
	default:
		log.Warn().Str("action", action).Msg("Unknown standing callback action")
		return c.Respond()
	}

	if err != nil {
		return alert(c, gameErrorText(err))
	}
	return c.Respond()
}
