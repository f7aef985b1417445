package handler

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/Oladizz/Yunksgame/internal/game"
	"github.com/Oladizz/Yunksgame/internal/game/lastword"
)

// LastWordHandler handles the Last Message Wins game command and callbacks.
type LastWordHandler struct {
	lastword *lastword.Manager
}

// NewLastWordHandler creates a new LastWordHandler.
func NewLastWordHandler(m *lastword.Manager) *LastWordHandler {
	return &LastWordHandler{lastword: m}
}

// HandleLmw handles the /lmw command: opens a lobby in the chat.
func (h *LastWordHandler) HandleLmw(c tele.Context) error {
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}
	if chat.Type == tele.ChatPrivate {
		return c.Reply("💬 Last Message Wins is a group game. Add me to a group and try again!")
	}

	if err := h.lastword.Open(chat.ID, sender.ID); err != nil {
		return c.Reply(gameErrorText(err))
	}
	return nil
}

// HandleCallback routes a lastword button press by its decoded action.
func (h *LastWordHandler) HandleCallback(c tele.Context, action, _ string) error {
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}
	ctx := context.Background()

	var err error
	switch action {
	case "join":
		err = h.lastword.Join(ctx, chat.ID, sender.ID, senderName(sender))
		if err == nil {
			return toast(c, "💸 Entry fee paid. Good luck!")
		}
	case "leave":
		err = h.lastword.Leave(ctx, chat.ID, sender.ID)
	case "start":
		err = h.lastword.Start(chat.ID, sender.ID)
	default:
		log.Warn().Str("action", action).Msg("Unknown lastword callback action")
		return c.Respond()
	}

	if err != nil {
		return alert(c, gameErrorText(err))
	}
	return c.Respond()
}

// HandleMessage offers an incoming chat message to the countdown. It
// reports whether the message was taken as the current winning candidate;
// unconsumed messages flow on to the regular text pipeline.
func (h *LastWordHandler) HandleMessage(c tele.Context) (bool, error) {
	chat := c.Chat()
	sender := c.Sender()
	msg := c.Message()
	if chat == nil || sender == nil || msg == nil {
		return false, nil
	}

	accepted, err := h.lastword.RecordMessage(chat.ID, sender.ID, senderName(sender), msg.ID)
	if err != nil {
		if errors.Is(err, game.ErrNoSession) {
			return false, nil
		}
		return false, err
	}
	return accepted, nil
}
