package lastword

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oladizz/Yunksgame/internal/config"
	"github.com/Oladizz/Yunksgame/internal/game"
	"github.com/Oladizz/Yunksgame/internal/game/gametest"
	"github.com/Oladizz/Yunksgame/internal/model"
)

const testChat = int64(-3003)

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
	cfg := config.LastWordConfig{
		EntryFee:      5,
		PotMultiplier: 0.5,
		MinPlayers:    2,
		Duration:      30 * time.Second,
		LobbyTimeout:  120 * time.Second,
	}
	f.manager = NewManager(f.registry, f.ledger, f.msgr, f.renderer, f.sched, cfg)
	return f
}

func (f *fixture) session(t *testing.T) *Session {
	t.Helper()
	v, ok := f.registry.Lookup(testChat, game.TypeLastWord)
	require.True(t, ok, "expected an active lastword session")
	return v.(*Session)
}

// openAndJoin opens a lobby owned by user 1 and joins the given users,
// each seeded with enough XP for the fee.
func (f *fixture) openAndJoin(t *testing.T, users ...int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.manager.Open(testChat, 1))
	for _, id := range users {
		f.ledger.SetBalance(id, 20)
		require.NoError(t, f.manager.Join(ctx, testChat, id, "player"))
	}
}

func TestJoinCollectsFeeAndAccruesPot(t *testing.T) {
	f := newFixture(t)
	f.openAndJoin(t, 1, 2)

	s := f.session(t)
	assert.Equal(t, int64(5), s.Pot, "pot holds half the collected fees")

	balance1, _ := f.ledger.Balance(context.Background(), 1)
	assert.Equal(t, int64(15), balance1, "entry fee deducted")

	fees := f.ledger.EntriesOfType(model.EvTypeLastWordEntry)
	require.Len(t, fees, 2)
	for _, fee := range fees {
		assert.Equal(t, int64(-5), fee.Delta)
	}
}

func TestPotDerivedFromTotalFeesNotPerJoiner(t *testing.T) {
	f := newFixture(t)
	f.openAndJoin(t, 1, 2, 3)

	// 15 XP of fees at 0.5 is 7, truncated once at the total. Applying the
	// multiplier per joiner would truncate three times and yield 6.
	assert.Equal(t, int64(7), f.session(t).Pot)
	assert.Equal(t, int64(15), f.session(t).FeesCollected)
}

func TestJoinRequiresBalance(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manager.Open(testChat, 1))

	f.ledger.SetBalance(7, 4)
	err := f.manager.Join(context.Background(), testChat, 7, "broke")
	assert.ErrorIs(t, err, game.ErrInsufficientXP)
	assert.False(t, f.session(t).Players.Has(7), "no admission without payment")
	assert.Equal(t, int64(0), f.session(t).Pot)
}

func TestLeaveRefundsFee(t *testing.T) {
	f := newFixture(t)
	f.openAndJoin(t, 1, 2, 3)
	ctx := context.Background()

	require.NoError(t, f.manager.Leave(ctx, testChat, 3))

	s := f.session(t)
	assert.False(t, s.Players.Has(3))
	assert.Equal(t, int64(5), s.Pot, "pot share removed with the player")

	balance, _ := f.ledger.Balance(ctx, 3)
	assert.Equal(t, int64(20), balance, "fee refunded in full")
}

func TestOwnerLeaveRefundsEveryone(t *testing.T) {
	f := newFixture(t)
	f.openAndJoin(t, 1, 2, 3)
	ctx := context.Background()

	require.NoError(t, f.manager.Leave(ctx, testChat, 1))

	_, ok := f.registry.Lookup(testChat, game.TypeLastWord)
	assert.False(t, ok, "owner leave closes the session")
	for _, id := range []int64{1, 2, 3} {
		balance, _ := f.ledger.Balance(ctx, id)
		assert.Equal(t, int64(20), balance, "user %d refunded", id)
	}
}

func TestStartRequiresTwoPlayers(t *testing.T) {
	f := newFixture(t)
	f.openAndJoin(t, 1)

	assert.ErrorIs(t, f.manager.Start(testChat, 1), game.ErrInsufficientPlayers)
}

func TestSecondMessageFromSamePlayerRejected(t *testing.T) {
	f := newFixture(t)
	f.openAndJoin(t, 1, 2)
	require.NoError(t, f.manager.Start(testChat, 1))
	s := f.session(t)

	accepted, err := f.manager.RecordMessage(testChat, 1, "player", 500)
	require.NoError(t, err)
	assert.True(t, accepted)
	require.NotNil(t, s.LastMessage)
	assert.Equal(t, int64(1), s.LastMessage.UserID)

	accepted, err = f.manager.RecordMessage(testChat, 1, "player", 501)
	require.NoError(t, err)
	assert.False(t, accepted, "one message per player")
	assert.Equal(t, 500, s.LastMessage.MessageID, "rejected message does not take the win")
	assert.Contains(t, f.msgr.Deleted, 501, "extra message removed from the chat")

	accepted, err = f.manager.RecordMessage(testChat, 9, "outsider", 502)
	require.NoError(t, err)
	assert.False(t, accepted, "non-members cannot compete")
	assert.NotContains(t, f.msgr.Deleted, 502, "outsider chatter is left alone")
}

func TestDeadlinePaysPotToLastSender(t *testing.T) {
	f := newFixture(t)
	f.openAndJoin(t, 1, 2)
	require.NoError(t, f.manager.Start(testChat, 1))
	s := f.session(t)

	accepted, err := f.manager.RecordMessage(testChat, 1, "player", 500)
	require.NoError(t, err)
	require.True(t, accepted)

	s.Deadline = time.Now().Add(-time.Second)
	require.True(t, f.sched.Fire(tickTimerName(testChat)))

	balance, _ := f.ledger.Balance(context.Background(), 1)
	assert.Equal(t, int64(20), balance, "15 after fee plus the pot of 5")

	pots := f.ledger.EntriesOfType(model.EvTypeLastWordPot)
	require.Len(t, pots, 1, "pot paid exactly once")
	assert.Equal(t, int64(1), pots[0].UserID)
	assert.Equal(t, int64(5), pots[0].Delta)
	assert.Contains(t, f.msgr.Pinned, 500, "winning message pinned")
	assert.Empty(t, f.ledger.EntriesOfType(model.EvTypeLastWordBack), "no refunds when there is a winner")

	_, ok := f.registry.Lookup(testChat, game.TypeLastWord)
	assert.False(t, ok, "session removed after settlement")
	assert.False(t, f.sched.Pending(tickTimerName(testChat)), "tick cancelled")
}

func TestDeadlineWithNoMessagesRefundsAll(t *testing.T) {
	f := newFixture(t)
	f.openAndJoin(t, 1, 2)
	require.NoError(t, f.manager.Start(testChat, 1))
	s := f.session(t)

	s.Deadline = time.Now().Add(-time.Second)
	require.True(t, f.sched.Fire(tickTimerName(testChat)))

	ctx := context.Background()
	for _, id := range []int64{1, 2} {
		balance, _ := f.ledger.Balance(ctx, id)
		assert.Equal(t, int64(20), balance, "user %d made whole", id)
	}
	assert.Empty(t, f.ledger.EntriesOfType(model.EvTypeLastWordPot), "pot never paid without a winner")
}

func TestTickBeforeDeadlineKeepsCounting(t *testing.T) {
	f := newFixture(t)
	f.openAndJoin(t, 1, 2)
	require.NoError(t, f.manager.Start(testChat, 1))

	require.True(t, f.sched.Fire(tickTimerName(testChat)))
	assert.Equal(t, PhaseCountdown, f.session(t).Phase)
}

func TestLobbyTimeoutRefunds(t *testing.T) {
	f := newFixture(t)
	f.openAndJoin(t, 1, 2)

	require.True(t, f.sched.Fire(lobbyTimerName(testChat)))

	_, ok := f.registry.Lookup(testChat, game.TypeLastWord)
	assert.False(t, ok)
	ctx := context.Background()
	for _, id := range []int64{1, 2} {
		balance, _ := f.ledger.Balance(ctx, id)
		assert.Equal(t, int64(20), balance, "user %d refunded on expiry", id)
	}
}

func TestEndGameRefundsMidCountdown(t *testing.T) {
	f := newFixture(t)
	f.openAndJoin(t, 1, 2)
	require.NoError(t, f.manager.Start(testChat, 1))

	assert.True(t, f.manager.EndGame(testChat))
	ctx := context.Background()
	for _, id := range []int64{1, 2} {
		balance, _ := f.ledger.Balance(ctx, id)
		assert.Equal(t, int64(20), balance, "user %d refunded on admin end", id)
	}
}

func TestMessageAfterFinishIsStale(t *testing.T) {
	f := newFixture(t)
	f.openAndJoin(t, 1, 2)
	require.NoError(t, f.manager.Start(testChat, 1))
	f.session(t).Deadline = time.Now().Add(-time.Second)
	require.True(t, f.sched.Fire(tickTimerName(testChat)))

	_, err := f.manager.RecordMessage(testChat, 1, "player", 600)
	assert.ErrorIs(t, err, game.ErrNoSession, "settled session is gone")
}
