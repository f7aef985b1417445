// Package farm implements the Rat in the Farm social deduction game. One
// hidden rat sabotages the farm while the farmers search locations for
// clues; the farmers win by expelling the rat, the rat wins by running the
// damage meter to the top.
package farm

import "math/rand"

// Location is a searchable spot on the farm.
type Location string

const (
	LocationBarn      Location = "barn"
	LocationCornfield Location = "cornfield"
	LocationShed      Location = "shed"
	LocationWater     Location = "water"
	LocationCoop      Location = "coop"
)

// Locations lists every location in render order.
var Locations = []Location{
	LocationBarn,
	LocationCornfield,
	LocationShed,
	LocationWater,
	LocationCoop,
}

// Label returns the chat-facing name for a location.
func (l Location) Label() string {
	switch l {
	case LocationBarn:
		return "🏚 Barn"
	case LocationCornfield:
		return "🌽 Cornfield"
	case LocationShed:
		return "🚜 Storage Shed"
	case LocationWater:
		return "🌊 Water Area"
	case LocationCoop:
		return "🐓 Chicken Coop"
	default:
		return string(l)
	}
}

// ParseLocation maps a callback argument back to a location.
func ParseLocation(key string) (Location, bool) {
	for _, loc := range Locations {
		if string(loc) == key {
			return loc, true
		}
	}
	return "", false
}

const (
	// MaxDamage ends the game in the rat's favour once reached.
	MaxDamage = 100

	// unsearchedDamage is applied each round the rat's location goes
	// unsearched.
	unsearchedDamage = 15

	// wrongAccusationDamage is applied when the farmers expel an innocent.
	wrongAccusationDamage = 25

	// clueChance is the probability of finding a clue where the rat hides.
	clueChance = 0.85

	// falsePositiveChance is the probability of a misleading clue at a
	// searched location the rat is not in.
	falsePositiveChance = 0.15
)

type locationState struct {
	searchedBy map[int64]struct{}
	clueFound  bool
}

// SearchResult is the public outcome for one location after a round.
type SearchResult struct {
	Location Location
	Clue     bool
}

// Farm tracks the rat's hiding spot, per-location searches and the damage
// meter for one game.
type Farm struct {
	locations   map[Location]*locationState
	ratLocation Location
	damage      int
}

// NewFarm creates a farm with the rat hidden at a random location.
func NewFarm(rng *rand.Rand) *Farm {
	f := &Farm{locations: make(map[Location]*locationState, len(Locations))}
	for _, loc := range Locations {
		f.locations[loc] = &locationState{searchedBy: make(map[int64]struct{})}
	}
	f.ratLocation = Locations[rng.Intn(len(Locations))]
	return f
}

// Damage returns the current damage meter value.
func (f *Farm) Damage() int {
	return f.damage
}

// AddDamage raises the damage meter, capped at MaxDamage.
func (f *Farm) AddDamage(amount int) {
	f.damage += amount
	if f.damage > MaxDamage {
		f.damage = MaxDamage
	}
}

// Destroyed reports whether the damage meter is full.
func (f *Farm) Destroyed() bool {
	return f.damage >= MaxDamage
}

// RatLocation returns where the rat currently hides.
func (f *Farm) RatLocation() Location {
	return f.ratLocation
}

// RecordSearch marks a farmer as searching a location this round.
func (f *Farm) RecordSearch(loc Location, userID int64) {
	if state, ok := f.locations[loc]; ok {
		state.searchedBy[userID] = struct{}{}
	}
}

// Searchers returns how many farmers searched a location this round.
func (f *Farm) Searchers(loc Location) int {
	if state, ok := f.locations[loc]; ok {
		return len(state.searchedBy)
	}
	return 0
}

// MoveRat relocates the rat. The rat must actually move: staying put or
// naming an unknown location falls back to a random different one.
func (f *Farm) MoveRat(rng *rand.Rand, target Location) {
	others := make([]Location, 0, len(Locations)-1)
	for _, loc := range Locations {
		if loc != f.ratLocation {
			others = append(others, loc)
		}
	}
	for _, loc := range others {
		if loc == target {
			f.ratLocation = target
			return
		}
	}
	f.ratLocation = others[rng.Intn(len(others))]
}

// ResetRound clears the per-round search state of every location.
func (f *Farm) ResetRound() {
	for _, state := range f.locations {
		state.searchedBy = make(map[int64]struct{})
		state.clueFound = false
	}
}

// ResolveSearches rolls the clue outcomes for the round and applies the
// unsearched-rat damage. A searched location holding the rat yields a clue
// with high probability; a searched empty location may yield a false
// positive. If nobody searched the rat's location, the rat sabotages
// freely and the farm takes damage.
func (f *Farm) ResolveSearches(rng *rand.Rand) []SearchResult {
	results := make([]SearchResult, 0, len(Locations))
	for _, loc := range Locations {
		state := f.locations[loc]
		searched := len(state.searchedBy) > 0
		ratHere := loc == f.ratLocation

		switch {
		case searched && ratHere:
			state.clueFound = rng.Float64() < clueChance
		case searched:
			state.clueFound = rng.Float64() < falsePositiveChance
		}
		results = append(results, SearchResult{Location: loc, Clue: state.clueFound})
	}

	if len(f.locations[f.ratLocation].searchedBy) == 0 {
		f.AddDamage(unsearchedDamage)
	}

	return results
}
