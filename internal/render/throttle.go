// Package render keeps a single chat message in sync with fast-changing
// game state. Every session owns one primary message that is edited in
// place; the throttle deduplicates identical renders, coalesces bursts and
// absorbs the transient failure modes of the edit API.
package render

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/Oladizz/Yunksgame/internal/gateway"
)

const (
	// DefaultMinInterval is the minimum gap between pushes per message.
	// Renders inside the window are deferred: the latest one is pushed
	// when the window closes, intermediate ones are coalesced away.
	DefaultMinInterval = 1500 * time.Millisecond

	// DefaultMaxAttempts bounds retries for a single edit.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the backoff for timeouts without a flood hint.
	DefaultRetryDelay = time.Second
)

// Editor performs the actual message edit. Implemented by gateway.Telegram.
type Editor interface {
	Edit(chatID int64, messageID int, text string, markup *tele.ReplyMarkup) error
}

type cacheKey struct {
	chatID    int64
	messageID int
}

type cacheEntry struct {
	text     string
	markup   string
	lastPush time.Time

	// pending holds the latest render that arrived inside the rate window,
	// waiting for the flush timer. flushScheduled doubles as the guard
	// against stale flush callbacks.
	pendingText    string
	pendingMarkup  *tele.ReplyMarkup
	flushScheduled bool
}

// Throttle deduplicates and rate-limits edits of tracked messages. A cache
// entry holds the last content confirmed on the platform; an edit is only
// attempted when the new content differs from it.
type Throttle struct {
	editor      Editor
	minInterval time.Duration
	maxAttempts int
	retryDelay  time.Duration
	sleep       func(time.Duration)
	after       func(time.Duration, func())

	mu    sync.Mutex
	cache map[cacheKey]*cacheEntry
}

// NewThrottle creates a throttle with the default limits.
func NewThrottle(editor Editor) *Throttle {
	return &Throttle{
		editor:      editor,
		minInterval: DefaultMinInterval,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		sleep:       time.Sleep,
		after:       func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		cache:       make(map[cacheKey]*cacheEntry),
	}
}

// serializeMarkup renders a keyboard to a comparable string.
func serializeMarkup(markup *tele.ReplyMarkup) string {
	if markup == nil {
		return ""
	}
	raw, err := json.Marshal(markup.InlineKeyboard)
	if err != nil {
		// Keyboards are plain data; marshalling cannot realistically fail,
		// but an unserializable keyboard must not be mistaken for "same".
		return fmt.Sprintf("!err:%v", err)
	}
	return string(raw)
}

// Prime seeds the cache right after the initial send, so the first edit is
// compared against what the chat actually shows.
func (t *Throttle) Prime(chatID int64, messageID int, text string, markup *tele.ReplyMarkup) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache[cacheKey{chatID, messageID}] = &cacheEntry{
		text:     text,
		markup:   serializeMarkup(markup),
		lastPush: time.Now(),
	}
}

// Forget drops the cache entry when a session ends. A flush timer still in
// flight finds no entry and does nothing.
func (t *Throttle) Forget(chatID int64, messageID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.cache, cacheKey{chatID, messageID})
}

// MaybeUpdate pushes new content to the message unless it is already
// showing it. Identical content never reaches the network. A render inside
// the rate window is not lost: it is parked and flushed when the window
// closes, so the message always ends up on the latest state even when no
// further render follows. Transient edit failures are retried with bounded
// backoff; the platform's "message is not modified" answer resynchronizes
// the cache and counts as success. Any other error is returned: fatal for
// this render, not for the session.
func (t *Throttle) MaybeUpdate(chatID int64, messageID int, text string, markup *tele.ReplyMarkup) error {
	key := cacheKey{chatID, messageID}
	markupJSON := serializeMarkup(markup)

	t.mu.Lock()
	entry, ok := t.cache[key]
	if !ok {
		entry = &cacheEntry{}
		t.cache[key] = entry
	}

	if ok && entry.text == text && entry.markup == markupJSON {
		t.mu.Unlock()
		log.Debug().
			Int64("chat_id", chatID).
			Int("message_id", messageID).
			Msg("Skipping edit: content unchanged")
		return nil
	}

	if t.minInterval > 0 && !entry.lastPush.IsZero() {
		if since := time.Since(entry.lastPush); since < t.minInterval {
			entry.pendingText = text
			entry.pendingMarkup = markup
			if !entry.flushScheduled {
				entry.flushScheduled = true
				t.after(t.minInterval-since, func() { t.flush(key) })
			}
			t.mu.Unlock()
			log.Debug().
				Int64("chat_id", chatID).
				Int("message_id", messageID).
				Dur("since_last_push", since).
				Msg("Render deferred until the rate window closes")
			return nil
		}
	}
	entry.lastPush = time.Now()
	// This render supersedes anything parked for the flush timer.
	entry.flushScheduled = false
	entry.pendingMarkup = nil
	t.mu.Unlock()

	return t.push(key, entry, text, markup, markupJSON)
}

// flush pushes the render parked during the rate window. Stale timers (the
// entry is gone or a direct push superseded the parked content) do nothing.
func (t *Throttle) flush(key cacheKey) {
	t.mu.Lock()
	entry, ok := t.cache[key]
	if !ok || !entry.flushScheduled {
		t.mu.Unlock()
		return
	}
	entry.flushScheduled = false
	text := entry.pendingText
	markup := entry.pendingMarkup
	entry.pendingMarkup = nil
	markupJSON := serializeMarkup(markup)
	if entry.text == text && entry.markup == markupJSON {
		t.mu.Unlock()
		return
	}
	entry.lastPush = time.Now()
	t.mu.Unlock()

	if err := t.push(key, entry, text, markup, markupJSON); err != nil {
		log.Warn().
			Err(err).
			Int64("chat_id", key.chatID).
			Int("message_id", key.messageID).
			Msg("Deferred render failed")
	}
}

func (t *Throttle) push(key cacheKey, entry *cacheEntry, text string, markup *tele.ReplyMarkup, markupJSON string) error {
	var err error
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		err = t.editor.Edit(key.chatID, key.messageID, text, markup)
		if err == nil || gateway.IsNotModified(err) {
			// Either the edit landed or the platform already matches; in
			// both cases the cache now reflects reality.
			t.mu.Lock()
			entry.text = text
			entry.markup = markupJSON
			t.mu.Unlock()
			return nil
		}
		if !gateway.IsRetryable(err) {
			return err
		}

		wait := t.retryDelay
		if retryAfter, ok := gateway.RetryAfter(err); ok {
			wait = retryAfter + time.Second
		}
		log.Warn().
			Err(err).
			Int64("chat_id", key.chatID).
			Int("message_id", key.messageID).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("Transient edit failure, backing off")
		t.sleep(wait)
	}

	return fmt.Errorf("edit retries exhausted: %w", err)
}
