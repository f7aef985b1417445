package game

import "errors"

// Shared errors reported by game session transitions. These map to
// per-actor callback alerts in the handlers and are never fatal to the
// session itself.
var (
	ErrAlreadyActive       = errors.New("a game of this type is already active in this chat")
	ErrNoSession           = errors.New("no active game session in this chat")
	ErrNotOwner            = errors.New("only the game owner can do this")
	ErrNotInGame           = errors.New("you are not in this game")
	ErrAlreadyJoined       = errors.New("you have already joined this game")
	ErrWrongPhase          = errors.New("this action is not available in the current phase")
	ErrLobbyFull           = errors.New("the lobby is full")
	ErrInsufficientPlayers = errors.New("not enough players to start")
	ErrInsufficientXP      = errors.New("not enough XP to join")
	ErrAlreadyActed        = errors.New("you have already acted this round")
	ErrSelfTarget          = errors.New("you cannot target yourself")
	ErrUnknownTarget       = errors.New("target player is not in this game")
)
