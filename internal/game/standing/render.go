package standing

import (
	"fmt"
	"html"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/Oladizz/Yunksgame/internal/config"
	"github.com/Oladizz/Yunksgame/internal/game"
)

func renderSession(s *Session, cfg config.StandingConfig) (string, *tele.ReplyMarkup) {
	switch s.Phase {
	case PhaseLobby:
		return renderLobby(s)
	case PhaseRunning:
		return renderRunning(s, cfg)
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

func names(players []*game.Player) string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		out = append(out, mention(p.Username))
	}
	return strings.Join(out, ", ")
}

func renderLobby(s *Session) (string, *tele.ReplyMarkup) {
	text := fmt.Sprintf(
		"👑 <b>Last Person Standing Lobby</b> 👑\n\n"+
			"Current players: %d\n"+
			"Join to compete! Last three standing win XP!\n\n"+
			"Players: %s",
		s.Players.Len(), names(s.Players.Ordered()),
	)

	markup := &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{button("➕ Join Game", "join"), button("🚪 Leave Game", "leave")},
		{button("▶️ Start Game", "start")},
	}}
	return text, markup
}

func renderRunning(s *Session, cfg config.StandingConfig) (string, *tele.ReplyMarkup) {
	var feed strings.Builder
	// Show the most recent eliminations, newest last.
	start := 0
	if len(s.Eliminated) > 5 {
		start = len(s.Eliminated) - 5
	}
	for _, e := range s.Eliminated[start:] {
		fmt.Fprintf(&feed, "💀 %s %s\n", mention(e.Player.Username), e.Reason)
	}

	text := fmt.Sprintf(
		"👑 <b>Last Person Standing</b> 👑\n\n"+
			"%s\n"+
			"⚔️ <b>%d players remain.</b> The last %d standing win %d XP each!\n\n"+
			"Still in: %s",
		feed.String(), len(s.Remaining()), cfg.WinnerCount, cfg.WinnerXP,
		names(s.Remaining()),
	)
	return text, nil
}

func renderFinished(s *Session, cfg config.StandingConfig) (string, *tele.ReplyMarkup) {
	text := fmt.Sprintf(
		"🏆 <b>WE HAVE OUR CHAMPIONS!</b> 🏆\n\n"+
			"%s survived to the end and win %d XP each!",
		names(s.Remaining()), cfg.WinnerXP,
	)
	return text, nil
}
