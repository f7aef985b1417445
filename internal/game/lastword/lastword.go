// Package lastword implements the Last Message Wins timed contest. Players
// pay an XP entry fee into a pot; once the countdown starts, each player
// may send exactly one message, and whoever holds the last valid message
// when the clock runs out takes the pot.
package lastword

import (
	"sync"
	"time"

	"github.com/Oladizz/Yunksgame/internal/game"
)

// Phase is the current stage of a lastword game.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseCountdown
	PhaseFinished
)

// String returns the phase name for logging.
func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseCountdown:
		return "countdown"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// LastMessage identifies the message currently holding the win.
type LastMessage struct {
	UserID    int64
	Username  string
	MessageID int
	At        time.Time
}

// Session holds the state for one lastword game in one chat.
type Session struct {
	mu sync.Mutex

	ChatID    int64
	OwnerID   int64
	MessageID int

	Phase    Phase
	Players  *game.Roster
	Deadline time.Time

	// FeesCollected is the sum of entry fees currently held by the session;
	// Pot is derived from it whenever the roster changes.
	FeesCollected int64
	Pot           int64

	// LastMessage is the winning candidate; nil means nobody has spoken.
	LastMessage *LastMessage

	hasMessaged map[int64]bool
}

func newSession(chatID, ownerID int64) *Session {
	return &Session{
		ChatID:      chatID,
		OwnerID:     ownerID,
		Phase:       PhaseLobby,
		Players:     game.NewRoster(),
		hasMessaged: make(map[int64]bool),
	}
}
