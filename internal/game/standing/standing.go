// Package standing implements the Last Person Standing elimination game.
// Players pile into a lobby; once started, a repeating tick eliminates one
// random player at a time until only the winners remain.
package standing

import (
	"sync"

	"github.com/Oladizz/Yunksgame/internal/game"
)

// Phase is the current stage of a standing game.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseRunning
	PhaseFinished
)

// String returns the phase name for logging.
func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseRunning:
		return "running"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// eliminationReasons is pure flavour text; any entry is acceptable for any
// elimination.
var eliminationReasons = []string{
	"fell off a cliff while chasing a butterfly.",
	"was eaten by a Grue.",
	"pushed a bad code commit to production.",
	"forgot a semicolon and the universe imploded around them.",
	"drank too much coffee and ascended to another dimension.",
	"couldn't make it to the final round.",
}

// Elimination records one eliminated player and the story of their demise.
type Elimination struct {
	Player *game.Player
	Reason string
}

// Session holds the state for one standing game in one chat.
type Session struct {
	mu sync.Mutex

	ChatID    int64
	OwnerID   int64
	MessageID int

	Phase      Phase
	Players    *game.Roster
	Eliminated []Elimination
}

func newSession(chatID, ownerID int64, ownerName string) *Session {
	s := &Session{
		ChatID:  chatID,
		OwnerID: ownerID,
		Phase:   PhaseLobby,
		Players: game.NewRoster(),
	}
	s.Players.Add(&game.Player{ID: ownerID, Username: ownerName})
	return s
}

// Remaining returns the players still standing.
func (s *Session) Remaining() []*game.Player {
	return s.Players.Active()
}
