// Package game defines the shared building blocks for the multiplayer
// game sessions: player roster, session registry, capability interfaces
// and the callback payload codec.
package game

// Role represents a player's role within a game.
type Role int

const (
	RoleNone Role = iota
	RoleFarmer
	RoleRat
)

// String returns the display name for a role.
func (r Role) String() string {
	switch r {
	case RoleFarmer:
		return "Farmer"
	case RoleRat:
		return "Rat"
	default:
		return "None"
	}
}

// Player is a participant in a game session. It is owned by exactly one
// session and only mutated by that session's transition functions.
type Player struct {
	ID         int64
	Username   string
	Role       Role
	Eliminated bool
	Acted      bool
}

// Roster is an ordered set of players keyed by user ID. Iteration order is
// join order, matching the chat-facing player lists.
type Roster struct {
	order   []int64
	players map[int64]*Player
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{players: make(map[int64]*Player)}
}

// Add inserts a player. Returns false if the player is already present.
func (r *Roster) Add(p *Player) bool {
	if _, ok := r.players[p.ID]; ok {
		return false
	}
	r.players[p.ID] = p
	r.order = append(r.order, p.ID)
	return true
}

// Remove deletes a player. Returns false if the player was not present.
func (r *Roster) Remove(id int64) bool {
	if _, ok := r.players[id]; !ok {
		return false
	}
	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the player with the given ID, or nil.
func (r *Roster) Get(id int64) *Player {
	return r.players[id]
}

// Has reports whether the player is in the roster.
func (r *Roster) Has(id int64) bool {
	_, ok := r.players[id]
	return ok
}

// Len returns the number of players.
func (r *Roster) Len() int {
	return len(r.players)
}

// Ordered returns all players in join order.
func (r *Roster) Ordered() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

// Active returns all non-eliminated players in join order.
func (r *Roster) Active() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		if p := r.players[id]; !p.Eliminated {
			out = append(out, p)
		}
	}
	return out
}

// AllActed reports whether every non-eliminated player has acted this round.
func (r *Roster) AllActed() bool {
	for _, p := range r.players {
		if !p.Eliminated && !p.Acted {
			return false
		}
	}
	return true
}

// ResetActions clears the per-round acted flag for all players.
func (r *Roster) ResetActions() {
	for _, p := range r.players {
		p.Acted = false
	}
}
