// Package gateway wraps the Telegram transport behind the small surface the
// game layer needs: send, edit and delete of chat messages, plus error
// classification for the render throttle.
package gateway

import (
	"strconv"

	tele "gopkg.in/telebot.v3"
)

// Telegram is the production Messenger/Editor backed by a telebot instance.
type Telegram struct {
	bot *tele.Bot
}

// NewTelegram creates a gateway around an initialized bot.
func NewTelegram(bot *tele.Bot) *Telegram {
	return &Telegram{bot: bot}
}

// Send posts a new HTML message and returns its ID.
func (g *Telegram) Send(chatID int64, text string, markup *tele.ReplyMarkup) (int, error) {
	opts := []interface{}{tele.ModeHTML}
	if markup != nil {
		opts = append(opts, markup)
	}
	msg, err := g.bot.Send(tele.ChatID(chatID), text, opts...)
	if err != nil {
		return 0, wrapError(err)
	}
	return msg.ID, nil
}

// Edit replaces the text and keyboard of an existing message.
func (g *Telegram) Edit(chatID int64, messageID int, text string, markup *tele.ReplyMarkup) error {
	ref := tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
	opts := []interface{}{tele.ModeHTML}
	if markup != nil {
		opts = append(opts, markup)
	}
	_, err := g.bot.Edit(ref, text, opts...)
	return wrapError(err)
}

// Delete removes a message.
func (g *Telegram) Delete(chatID int64, messageID int) error {
	return wrapError(g.bot.Delete(tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}))
}

// Pin pins a message without notification. Used to highlight winning
// messages; failures are non-fatal for callers.
func (g *Telegram) Pin(chatID int64, messageID int) error {
	return wrapError(g.bot.Pin(tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}, tele.Silent))
}
