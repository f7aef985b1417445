package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/Oladizz/Yunksgame/internal/game/guess"
)

// GuessHandler handles the Guess the Number game.
type GuessHandler struct {
	guess *guess.Manager
}

// NewGuessHandler creates a new GuessHandler.
func NewGuessHandler(m *guess.Manager) *GuessHandler {
	return &GuessHandler{guess: m}
}

// HandleGame handles the /game command: starts a fresh round for the sender.
func (h *GuessHandler) HandleGame(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	tries := h.guess.Start(sender.ID)
	return c.Reply(fmt.Sprintf(
		"🎲 <b>GUESS THE NUMBER</b> 🎲\n\n"+
			"I'm thinking of a number between 1 and 100.\n"+
			"You have <b>%d tries</b> — just type your guess!",
		tries,
	), tele.ModeHTML)
}

// HandleText consumes a plain number from a user with an active round.
// It reports whether the message was taken as a guess.
func (h *GuessHandler) HandleText(c tele.Context) (bool, error) {
	sender := c.Sender()
	if sender == nil {
		return false, nil
	}
	if !h.guess.Active(sender.ID) {
		return false, nil
	}

	value, err := strconv.Atoi(strings.TrimSpace(c.Text()))
	if err != nil {
		// Not a number, let the regular message flow have it.
		return false, nil
	}

	out, err := h.guess.Guess(context.Background(), sender.ID, senderName(c.Sender()), value)
	if err != nil {
		return false, nil
	}

	switch out.State {
	case guess.StateWon:
		return true, c.Reply(fmt.Sprintf(
			"🎉 <b>%d</b> is correct! You earned <b>%d XP</b>.", out.Secret, out.Award,
		), tele.ModeHTML)
	case guess.StateLost:
		return true, c.Reply(fmt.Sprintf(
			"💀 Out of tries! The number was <b>%d</b>. Try /game for a rematch.", out.Secret,
		), tele.ModeHTML)
	case guess.StateTooLow:
		return true, c.Reply(fmt.Sprintf("📈 Too low! %d tries left.", out.TriesLeft))
	default:
		return true, c.Reply(fmt.Sprintf("📉 Too high! %d tries left.", out.TriesLeft))
	}
}
