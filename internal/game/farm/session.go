package farm

import (
	"sync"

	"github.com/Oladizz/Yunksgame/internal/game"
)

// Phase is the current stage of a farm game.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseSearch
	PhaseResults
	PhaseSuspicion
	PhaseAccusation
	PhaseFarmersWin
	PhaseRatWins
)

// String returns the phase name for logging.
func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseSearch:
		return "search"
	case PhaseResults:
		return "results"
	case PhaseSuspicion:
		return "suspicion"
	case PhaseAccusation:
		return "accusation"
	case PhaseFarmersWin:
		return "farmers_win"
	case PhaseRatWins:
		return "rat_wins"
	default:
		return "unknown"
	}
}

// terminal reports whether the game has concluded.
func (p Phase) terminal() bool {
	return p == PhaseFarmersWin || p == PhaseRatWins
}

// Session holds the state for one farm game in one chat. All mutation
// happens under mu inside the Manager's transition functions.
type Session struct {
	mu sync.Mutex

	ChatID    int64
	OwnerID   int64
	MessageID int

	Phase   Phase
	Players *game.Roster
	RatID   int64
	Round   int
	Farm    *Farm

	// Results of the latest resolved round, kept for the results render.
	Results []SearchResult
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

// activePlayer returns the non-eliminated roster entry for the user, or nil.
func (s *Session) activePlayer(userID int64) *game.Player {
	p := s.Players.Get(userID)
	if p == nil || p.Eliminated {
		return nil
	}
	return p
}
