package standing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Oladizz/Yunksgame/internal/config"
	"github.com/Oladizz/Yunksgame/internal/game"
	"github.com/Oladizz/Yunksgame/internal/game/gametest"
	"github.com/Oladizz/Yunksgame/internal/model"
)

const testChat = int64(-2002)

type fixture struct {
	manager  *Manager
	registry *game.Registry
	ledger   *gametest.FakeLedger
	msgr     *gametest.FakeMessenger
	renderer *gametest.FakeRenderer
	sched    *gametest.FakeScheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		registry: game.NewRegistry(),
		ledger:   gametest.NewFakeLedger(),
		msgr:     gametest.NewFakeMessenger(),
		renderer: gametest.NewFakeRenderer(),
		sched:    gametest.NewFakeScheduler(),
	}
	cfg := config.StandingConfig{
		MinPlayers:   1,
		WinnerCount:  3,
		WinnerXP:     3,
		InitialDelay: 5 * time.Second,
		Interval:     10 * time.Second,
		LobbyTimeout: 120 * time.Second,
	}
	f.manager = NewManager(f.registry, f.ledger, f.msgr, f.renderer, f.sched, cfg)
	return f
}

func (f *fixture) session(t *testing.T) *Session {
	t.Helper()
	v, ok := f.registry.Lookup(testChat, game.TypeStanding)
	require.True(t, ok, "expected an active standing session")
	return v.(*Session)
}

func (f *fixture) openWithPlayers(t *testing.T, n int) {
	t.Helper()
	require.NoError(t, f.manager.Open(testChat, 1, "owner"))
	for i := 2; i <= n; i++ {
		require.NoError(t, f.manager.Join(testChat, int64(i), "player"))
	}
}

func TestInstantWinAtOrBelowThreshold(t *testing.T) {
	for _, players := range []int{1, 2, 3} {
		f := newFixture(t)
		f.openWithPlayers(t, players)
		require.NoError(t, f.manager.Start(context.Background(), testChat, 1))

		wins := f.ledger.EntriesOfType(model.EvTypeStandingWin)
		assert.Len(t, wins, players, "all %d starters win instantly", players)
		for _, w := range wins {
			assert.Equal(t, int64(3), w.Delta)
		}
		assert.False(t, f.sched.Pending(tickTimerName(testChat)), "no tick for an instant win")
		_, ok := f.registry.Lookup(testChat, game.TypeStanding)
		assert.False(t, ok, "session closed immediately")
	}
}

func TestEliminationRunsDownToWinners(t *testing.T) {
	f := newFixture(t)
	f.openWithPlayers(t, 7)
	require.NoError(t, f.manager.Start(context.Background(), testChat, 1))

	s := f.session(t)
	assert.Equal(t, PhaseRunning, s.Phase)
	require.True(t, f.sched.Pending(tickTimerName(testChat)))

	// 7 -> 4 over three ticks; the fourth takes it to 3 and finishes.
	for i := 0; i < 3; i++ {
		require.True(t, f.sched.Fire(tickTimerName(testChat)))
		assert.Equal(t, 7, len(s.Remaining())+len(s.Eliminated), "roster conserved")
	}
	assert.Equal(t, 4, len(s.Remaining()))
	assert.Equal(t, PhaseRunning, s.Phase)

	require.True(t, f.sched.Fire(tickTimerName(testChat)))
	assert.Equal(t, PhaseFinished, s.Phase)
	assert.Equal(t, 3, len(s.Remaining()))

	wins := f.ledger.EntriesOfType(model.EvTypeStandingWin)
	require.Len(t, wins, 3)
	winners := make(map[int64]bool)
	for _, w := range wins {
		winners[w.UserID] = true
	}
	for _, p := range s.Remaining() {
		assert.True(t, winners[p.ID], "remaining player %d was paid", p.ID)
	}

	_, ok := f.registry.Lookup(testChat, game.TypeStanding)
	assert.False(t, ok)
	assert.False(t, f.sched.Pending(tickTimerName(testChat)), "tick cancelled on finish")
}

// TestRosterConservationProperty: at every point of any game,
// remaining + eliminated equals the starting roster.
func TestRosterConservationProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		players := rapid.IntRange(4, 12).Draw(rt, "players")

		f := newFixture(t)
		if err := f.manager.Open(testChat, 1, "owner"); err != nil {
			rt.Fatalf("Open failed: %v", err)
		}
		for i := 2; i <= players; i++ {
			if err := f.manager.Join(testChat, int64(i), "player"); err != nil {
				rt.Fatalf("Join failed: %v", err)
			}
		}
		if err := f.manager.Start(context.Background(), testChat, 1); err != nil {
			rt.Fatalf("Start failed: %v", err)
		}
		s := f.session(t)

		for f.sched.Pending(tickTimerName(testChat)) {
			f.sched.Fire(tickTimerName(testChat))
			if got := len(s.Remaining()) + len(s.Eliminated); got != players {
				rt.Fatalf("Roster not conserved: remaining=%d eliminated=%d starters=%d",
					len(s.Remaining()), len(s.Eliminated), players)
			}
		}

		if len(s.Remaining()) != 3 {
			rt.Fatalf("Expected 3 winners, got %d", len(s.Remaining()))
		}
	})
}

func TestJoinAndLeaveValidation(t *testing.T) {
	f := newFixture(t)
	// Five starters so the roster stays above the winner threshold after
	// the leave below; otherwise Start finishes instantly and tears the
	// session down before the late join/leave checks run.
	f.openWithPlayers(t, 5)

	assert.ErrorIs(t, f.manager.Join(testChat, 2, "player"), game.ErrAlreadyJoined)
	assert.ErrorIs(t, f.manager.Leave(testChat, 99), game.ErrNotInGame)

	require.NoError(t, f.manager.Leave(testChat, 4))
	assert.False(t, f.session(t).Players.Has(4))

	require.NoError(t, f.manager.Start(context.Background(), testChat, 1))
	assert.Equal(t, PhaseRunning, f.session(t).Phase)
	assert.ErrorIs(t, f.manager.Join(testChat, 99, "late"), game.ErrWrongPhase)
	assert.ErrorIs(t, f.manager.Leave(testChat, 2), game.ErrWrongPhase)
}

func TestOwnerLeaveCancelsLobby(t *testing.T) {
	f := newFixture(t)
	f.openWithPlayers(t, 3)

	require.NoError(t, f.manager.Leave(testChat, 1))
	_, ok := f.registry.Lookup(testChat, game.TypeStanding)
	assert.False(t, ok)
}

func TestLobbyTimeoutExpires(t *testing.T) {
	f := newFixture(t)
	f.openWithPlayers(t, 2)

	require.True(t, f.sched.Fire(lobbyTimerName(testChat)))
	_, ok := f.registry.Lookup(testChat, game.TypeStanding)
	assert.False(t, ok)
}

func TestTickAfterTeardownIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.openWithPlayers(t, 5)
	require.NoError(t, f.manager.Start(context.Background(), testChat, 1))

	require.True(t, f.manager.EndGame(testChat))

	// A tick that lost the race with Cancel must find nothing to do.
	f.manager.tick(testChat)
	assert.Empty(t, f.ledger.EntriesOfType(model.EvTypeStandingWin))
}

func TestStartRequiresOwner(t *testing.T) {
	f := newFixture(t)
	f.openWithPlayers(t, 2)
	assert.ErrorIs(t, f.manager.Start(context.Background(), testChat, 2), game.ErrNotOwner)
}
