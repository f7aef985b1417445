package farm

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/Oladizz/Yunksgame/internal/config"
	"github.com/Oladizz/Yunksgame/internal/game"
)

// renderSession returns the text and keyboard for the session's phase.
// Caller holds the session lock.
func renderSession(s *Session, cfg config.FarmConfig) (string, *tele.ReplyMarkup) {
	switch s.Phase {
	case PhaseLobby:
		return renderLobby(s, cfg)
	case PhaseSearch:
		return renderSearch(s)
	case PhaseResults:
		return renderResults(s)
	case PhaseSuspicion:
		return renderSuspicion(s)
	case PhaseAccusation:
		return renderAccusation(s)
	case PhaseFarmersWin:
		return renderFarmersWin()
	case PhaseRatWins:
		return renderRatWins(s)
	default:
		return "❓ An unknown error occurred.", nil
	}
}

func button(text, action, arg string) tele.InlineButton {
	return tele.InlineButton{Text: text, Data: game.EncodeCallback(Namespace, action, arg)}
}

func markup(rows ...[]tele.InlineButton) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

func mention(username string) string {
	return "@" + html.EscapeString(username)
}

func renderLobby(s *Session, cfg config.FarmConfig) (string, *tele.ReplyMarkup) {
	var list strings.Builder
	for _, p := range s.Players.Ordered() {
		fmt.Fprintf(&list, " - %s\n", mention(p.Username))
	}

	owner := s.Players.Get(s.OwnerID)
	ownerName := "the owner"
	if owner != nil {
		ownerName = mention(owner.Username)
	}

	text := fmt.Sprintf(
		"🌾 <b>RAT IN THE FARM</b> 🐀\n\n"+
			"A game of search, sabotage, and suspicion.\n\n"+
			"<b>Players (%d/%d):</b>\n%s\n"+
			"The game owner (%s) can start the game once there are at least %d players.",
		s.Players.Len(), cfg.MaxPlayers, list.String(), ownerName, cfg.MinPlayers,
	)

	kb := markup(
		[]tele.InlineButton{
			button("➕ Join Game", "join", ""),
			button("🚪 Leave Game", "leave", ""),
		},
		[]tele.InlineButton{button("▶️ Start Game", "start", "")},
	)
	return text, kb
}

func renderSearch(s *Session) (string, *tele.ReplyMarkup) {
	text := fmt.Sprintf(
		"🔥 <b>FARM DAMAGE: %d%%</b>\n\n"+
			"🔍 <b>SEARCH PHASE (Round %d)</b>\n"+
			"Choose a location to search for clues. The Rat secretly chooses where to move next.\n\n"+
			"🤔 Tap 'Reveal My Role' to privately see your assigned role.",
		s.Farm.Damage(), s.Round,
	)

	rows := make([][]tele.InlineButton, 0, 4)
	row := make([]tele.InlineButton, 0, 3)
	for _, loc := range Locations {
		row = append(row, button(loc.Label(), "act", string(loc)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []tele.InlineButton{button("🎭 Reveal My Role", "reveal", "")})

	return text, markup(rows...)
}

func renderResults(s *Session) (string, *tele.ReplyMarkup) {
	var lines strings.Builder
	for _, res := range s.Results {
		if res.Clue {
			fmt.Fprintf(&lines, "%s → Scratch marks found\n", res.Location.Label())
		} else {
			fmt.Fprintf(&lines, "%s → Nothing to report\n", res.Location.Label())
		}
	}

	text := fmt.Sprintf(
		"🔥 <b>FARM DAMAGE: %d%%</b>\n\n"+
			"📍 <b>SEARCH RESULTS (Round %d)</b>\n%s",
		s.Farm.Damage(), s.Round, lines.String(),
	)

	kb := markup([]tele.InlineButton{button("🤔 Proceed to Suspicion", "proceed", "")})
	return text, kb
}

func renderSuspicion(s *Session) (string, *tele.ReplyMarkup) {
	text := fmt.Sprintf(
		"🔥 <b>FARM DAMAGE: %d%%</b>\n\n"+
			"🤔 <b>SUSPICION PHASE</b>\n"+
			"Do you want to accuse a player or move to the next round?",
		s.Farm.Damage(),
	)

	kb := markup([]tele.InlineButton{
		button("🗳 Accuse a Player", "accusemenu", ""),
		button("⏭ Search Again", "next", ""),
	})
	return text, kb
}

func renderAccusation(s *Session) (string, *tele.ReplyMarkup) {
	text := "🗳 <b>ACCUSATION</b>\nSelect a player to expel from the farm."

	rows := make([][]tele.InlineButton, 0)
	row := make([]tele.InlineButton, 0, 2)
	for _, p := range s.Players.Active() {
		row = append(row, button(mention(p.Username), "accuse", strconv.FormatInt(p.ID, 10)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []tele.InlineButton{button("🔙 Cancel Accusation", "cancel", "")})

	return text, markup(rows...)
}

func renderFarmersWin() (string, *tele.ReplyMarkup) {
	return "🎉 <b>FARMERS WIN!</b> 🎉\nThe Rat has been caught and the farm is safe.", nil
}

func renderRatWins(s *Session) (string, *tele.ReplyMarkup) {
	ratName := "The Rat"
	if rat := s.Players.Get(s.RatID); rat != nil {
		ratName = mention(rat.Username)
	}
	return fmt.Sprintf(
		"🐀 <b>THE RAT WINS!</b> 🐀\n\n%s was the Rat! The farm has been overrun.",
		ratName,
	), nil
}

func renderCancelled() string {
	return "🚪 The game owner closed the lobby. See you next harvest."
}

func renderExpired() string {
	return "⌛️ The farm lobby expired before the game started."
}

func renderEnded() string {
	return "🛑 The game was ended by an admin."
}
