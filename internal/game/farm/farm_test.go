package farm

import (
	"math/rand"
	"testing"

	"pgregory.net/rapid"
)

// TestDamageMonotonicProperty: damage only ever grows and never exceeds
// the cap, whatever sequence of hits the farm takes.
func TestDamageMonotonicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rng := rand.New(rand.NewSource(rapid.Int64().Draw(t, "seed")))
		farm := NewFarm(rng)

		numHits := rapid.IntRange(0, 30).Draw(t, "numHits")
		previous := farm.Damage()
		for i := 0; i < numHits; i++ {
			farm.AddDamage(rapid.IntRange(0, 40).Draw(t, "hit"))
			if farm.Damage() < previous {
				t.Fatalf("Damage decreased: %d -> %d", previous, farm.Damage())
			}
			if farm.Damage() > MaxDamage {
				t.Fatalf("Damage exceeds cap: %d", farm.Damage())
			}
			previous = farm.Damage()
		}

		if farm.Destroyed() != (farm.Damage() >= MaxDamage) {
			t.Fatalf("Destroyed()=%v inconsistent with damage %d", farm.Destroyed(), farm.Damage())
		}
	})
}

// TestMoveRatAlwaysMovesProperty: the rat never stays put. A valid
// different target is honoured; staying or an invalid target falls back to
// a random different location.
func TestMoveRatAlwaysMovesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rng := rand.New(rand.NewSource(rapid.Int64().Draw(t, "seed")))
		farm := NewFarm(rng)
		before := farm.RatLocation()

		target := Location(rapid.SampledFrom([]string{
			string(LocationBarn), string(LocationCornfield), string(LocationShed),
			string(LocationWater), string(LocationCoop), "pigpen", string(before),
		}).Draw(t, "target"))

		farm.MoveRat(rng, target)
		after := farm.RatLocation()

		if after == before {
			t.Fatalf("Rat did not move from %s (target %s)", before, target)
		}
		if _, ok := ParseLocation(string(after)); !ok {
			t.Fatalf("Rat moved to unknown location %s", after)
		}
		if target != before {
			if _, valid := ParseLocation(string(target)); valid && after != target {
				t.Fatalf("Valid target %s not honoured, rat at %s", target, after)
			}
		}
	})
}

// TestResolveSearchesDamageProperty: the farm takes the sabotage damage in
// a round if and only if nobody searched the rat's location, and clues
// never appear at unsearched locations.
func TestResolveSearchesDamageProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rng := rand.New(rand.NewSource(rapid.Int64().Draw(t, "seed")))
		farm := NewFarm(rng)

		searched := make(map[Location]bool)
		numSearchers := rapid.IntRange(0, 6).Draw(t, "numSearchers")
		for i := 0; i < numSearchers; i++ {
			loc := Locations[rapid.IntRange(0, len(Locations)-1).Draw(t, "loc")]
			farm.RecordSearch(loc, int64(i+1))
			searched[loc] = true
		}

		ratSearched := searched[farm.RatLocation()]
		before := farm.Damage()
		results := farm.ResolveSearches(rng)

		expected := before
		if !ratSearched {
			expected += 15
		}
		if farm.Damage() != expected {
			t.Fatalf("Damage after resolve: expected %d, got %d (rat searched=%v)",
				expected, farm.Damage(), ratSearched)
		}

		if len(results) != len(Locations) {
			t.Fatalf("Expected %d results, got %d", len(Locations), len(results))
		}
		for _, res := range results {
			if res.Clue && !searched[res.Location] {
				t.Fatalf("Clue reported at unsearched location %s", res.Location)
			}
		}
	})
}

func TestResetRoundClearsSearches(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	farm := NewFarm(rng)

	farm.RecordSearch(LocationBarn, 1)
	farm.RecordSearch(LocationCoop, 2)
	farm.ResetRound()

	for _, loc := range Locations {
		if farm.Searchers(loc) != 0 {
			t.Fatalf("Location %s still has searchers after reset", loc)
		}
	}
}

func TestParseLocationRoundTrip(t *testing.T) {
	for _, loc := range Locations {
		parsed, ok := ParseLocation(string(loc))
		if !ok || parsed != loc {
			t.Fatalf("ParseLocation(%q) = %q, %v", loc, parsed, ok)
		}
	}
	if _, ok := ParseLocation("pigpen"); ok {
		t.Fatal("ParseLocation accepted an unknown location")
	}
}
