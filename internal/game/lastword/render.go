package lastword

import (
	"fmt"
	"html"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/Oladizz/Yunksgame/internal/config"
	"github.com/Oladizz/Yunksgame/internal/game"
)

func renderSession(s *Session, cfg config.LastWordConfig) (string, *tele.ReplyMarkup) {
	switch s.Phase {
	case PhaseLobby:
		return renderLobby(s, cfg)
	case PhaseCountdown:
		return renderCountdown(s)
	case PhaseFinished:
		return renderFinished(s, cfg)
	default:
		return "❓ An unknown error occurred.", nil
	}
}

func button(text, action string) tele.InlineButton {
	return tele.InlineButton{Text: text, Data: game.EncodeCallback(Namespace, action, "")}
}

func mention(username string) string {
	return "@" + html.EscapeString(username)
}

func renderLobby(s *Session, cfg config.LastWordConfig) (string, *tele.ReplyMarkup) {
	var list strings.Builder
	for _, p := range s.Players.Ordered() {
		fmt.Fprintf(&list, " - %s\n", mention(p.Username))
	}
	if s.Players.Len() == 0 {
		list.WriteString(" - nobody yet\n")
	}

	text := fmt.Sprintf(
		"💬 <b>LAST MESSAGE WINS</b> 💬\n\n"+
			"Pay %d XP to enter. Once the countdown starts, you get <b>one</b> message — "+
			"whoever sends the last one takes the pot!\n\n"+
			"💰 Pot: <b>%d XP</b>\n"+
			"<b>Players (%d):</b>\n%s",
		cfg.EntryFee, s.Pot, s.Players.Len(), list.String(),
	)

	markup := &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{button("➕ Join (pay fee)", "join"), button("🚪 Leave (refund)", "leave")},
		{button("▶️ Start Countdown", "start")},
	}}
	return text, markup
}

func renderCountdown(s *Session) (string, *tele.ReplyMarkup) {
	remaining := int(time.Until(s.Deadline).Seconds())
	if remaining < 0 {
		remaining = 0
	}

	holder := "nobody has dared to speak"
	if s.LastMessage != nil {
		holder = fmt.Sprintf("%s holds the last word", mention(s.LastMessage.Username))
	}

	text := fmt.Sprintf(
		"💬 <b>LAST MESSAGE WINS</b> 💬\n\n"+
			"⏳ <b>%d seconds left!</b>\n"+
			"💰 Pot: <b>%d XP</b>\n\n"+
			"🗣 Right now, %s.\n"+
			"Remember: one message each. Make it count.",
		remaining, s.Pot, holder,
	)
	return text, nil
}

func renderFinished(s *Session, cfg config.LastWordConfig) (string, *tele.ReplyMarkup) {
	if s.LastMessage == nil {
		return fmt.Sprintf(
			"💬 <b>LAST MESSAGE WINS</b> 💬\n\n"+
				"🤐 Nobody said a word. All entry fees (%d XP) refunded.",
			cfg.EntryFee,
		), nil
	}
	return fmt.Sprintf(
		"💬 <b>LAST MESSAGE WINS</b> 💬\n\n"+
			"🏆 %s had the last word and wins the pot of <b>%d XP</b>!",
		mention(s.LastMessage.Username), s.Pot,
	), nil
}
