package game

import (
	"context"
	"time"

	tele "gopkg.in/telebot.v3"
)

// Ledger is the XP balance store shared by all games. Implementations must
// make Add create unknown users at 0 before applying the delta, and make
// Transfer all-or-nothing.
type Ledger interface {
	// Balance returns the user's current XP. Unknown users have balance 0.
	Balance(ctx context.Context, userID int64) (int64, error)

	// Add applies a delta to the user's XP and records an event of the
	// given type. A non-empty username refreshes the stored display name.
	Add(ctx context.Context, userID int64, username string, delta int64, evType string) error

	// Transfer atomically moves XP between users. Returns false without
	// mutating either side if the sender's balance is insufficient or an
	// account is missing.
	Transfer(ctx context.Context, fromID, toID, amount int64) (bool, error)
}

// Messenger delivers outbound chat messages for the game sessions. Edits of
// the primary game message go through the render throttle instead.
type Messenger interface {
	// Send posts a new message and returns its ID.
	Send(chatID int64, text string, markup *tele.ReplyMarkup) (int, error)

	// Delete removes a message. Used to discard rejected game messages.
	Delete(chatID int64, messageID int) error

	// Pin pins a message without notification. Used to highlight a winning
	// message; failures are non-fatal for callers.
	Pin(chatID int64, messageID int) error
}

// Renderer keeps a session's primary message in sync with its state. The
// production implementation is the render throttle; edits may be coalesced
// or dropped, so callers must not rely on every call reaching the chat.
type Renderer interface {
	// Prime seeds the renderer's cache right after the initial send.
	Prime(chatID int64, messageID int, text string, markup *tele.ReplyMarkup)

	// MaybeUpdate pushes new content unless the message already shows it.
	MaybeUpdate(chatID int64, messageID int, text string, markup *tele.ReplyMarkup) error

	// Forget drops tracking for a message on session teardown.
	Forget(chatID int64, messageID int)
}

// Scheduler provides named timers for game phases. Cancel is idempotent and
// safe to call for timers that never existed or already fired; a callback
// that races Cancel must be treated as a guarded no-op by its session.
type Scheduler interface {
	// Once schedules fn after delay, replacing any timer with the same name.
	Once(name string, delay time.Duration, fn func())

	// Repeating schedules fn after initial, then every interval, replacing
	// any timer with the same name.
	Repeating(name string, initial, interval time.Duration, fn func())

	// Cancel stops the named timer if it is still pending.
	Cancel(name string)
}
