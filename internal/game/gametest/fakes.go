// Package gametest provides in-memory fakes for the game layer's
// dependencies, so session logic can be tested without Telegram, Postgres
// or real timers.
package gametest

import (
	"context"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"
)

// LedgerEntry records one FakeLedger.Add call.
type LedgerEntry struct {
	UserID int64
	Delta  int64
	Type   string
}

// FakeLedger is an in-memory Ledger.
type FakeLedger struct {
	mu       sync.Mutex
	balances map[int64]int64

	// Entries lists every Add in call order.
	Entries []LedgerEntry

	// AddErr, when set, is returned by every Add call.
	AddErr error
}

func NewFakeLedger() *FakeLedger {
	return &FakeLedger{balances: make(map[int64]int64)}
}

// SetBalance seeds a starting balance.
func (l *FakeLedger) SetBalance(userID, balance int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] = balance
}

func (l *FakeLedger) Balance(ctx context.Context, userID int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}

func (l *FakeLedger) Add(ctx context.Context, userID int64, username string, delta int64, evType string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.AddErr != nil {
		return l.AddErr
	}
	l.balances[userID] += delta
	l.Entries = append(l.Entries, LedgerEntry{UserID: userID, Delta: delta, Type: evType})
	return nil
}

func (l *FakeLedger) Transfer(ctx context.Context, fromID, toID, amount int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[fromID] < amount {
		return false, nil
	}
	l.balances[fromID] -= amount
	l.balances[toID] += amount
	return true, nil
}

// EntriesOfType returns the Add calls with the given event type.
func (l *FakeLedger) EntriesOfType(evType string) []LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LedgerEntry
	for _, e := range l.Entries {
		if e.Type == evType {
			out = append(out, e)
		}
	}
	return out
}

// SentMessage records one FakeMessenger.Send call.
type SentMessage struct {
	ChatID int64
	ID     int
	Text   string
	Markup *tele.ReplyMarkup
}

// FakeMessenger is an in-memory Messenger handing out sequential message ids.
type FakeMessenger struct {
	mu      sync.Mutex
	nextID  int
	Sent    []SentMessage
	Deleted []int
	Pinned  []int

	// SendErr, when set, is returned by every Send call.
	SendErr error
}

func NewFakeMessenger() *FakeMessenger {
	return &FakeMessenger{nextID: 100}
}

func (m *FakeMessenger) Send(chatID int64, text string, markup *tele.ReplyMarkup) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return 0, m.SendErr
	}
	m.nextID++
	m.Sent = append(m.Sent, SentMessage{ChatID: chatID, ID: m.nextID, Text: text, Markup: markup})
	return m.nextID, nil
}

func (m *FakeMessenger) Delete(chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, messageID)
	return nil
}

func (m *FakeMessenger) Pin(chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pinned = append(m.Pinned, messageID)
	return nil
}

// RenderedMessage is the latest content pushed for one message.
type RenderedMessage struct {
	Text   string
	Markup *tele.ReplyMarkup
}

type renderKey struct {
	ChatID    int64
	MessageID int
}

// FakeRenderer records renders without throttling or network calls.
type FakeRenderer struct {
	mu        sync.Mutex
	current   map[renderKey]RenderedMessage
	Updates   int
	Forgotten []int

	// UpdateErr, when set, is returned by every MaybeUpdate call.
	UpdateErr error
}

func NewFakeRenderer() *FakeRenderer {
	return &FakeRenderer{current: make(map[renderKey]RenderedMessage)}
}

func (r *FakeRenderer) Prime(chatID int64, messageID int, text string, markup *tele.ReplyMarkup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current[renderKey{chatID, messageID}] = RenderedMessage{Text: text, Markup: markup}
}

func (r *FakeRenderer) MaybeUpdate(chatID int64, messageID int, text string, markup *tele.ReplyMarkup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	r.Updates++
	r.current[renderKey{chatID, messageID}] = RenderedMessage{Text: text, Markup: markup}
	return nil
}

func (r *FakeRenderer) Forget(chatID int64, messageID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.current, renderKey{chatID, messageID})
	r.Forgotten = append(r.Forgotten, messageID)
}

// Current returns the latest content rendered for a message.
func (r *FakeRenderer) Current(chatID int64, messageID int) (RenderedMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.current[renderKey{chatID, messageID}]
	return msg, ok
}

type fakeTimer struct {
	initial   time.Duration
	interval  time.Duration
	repeating bool
	fn        func()
}

// FakeScheduler stores timers without running them; tests fire them by name.
type FakeScheduler struct {
	mu        sync.Mutex
	timers    map[string]fakeTimer
	Cancelled []string
}

func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{timers: make(map[string]fakeTimer)}
}

func (s *FakeScheduler) Once(name string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[name] = fakeTimer{initial: delay, fn: fn}
}

func (s *FakeScheduler) Repeating(name string, initial, interval time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[name] = fakeTimer{initial: initial, interval: interval, repeating: true, fn: fn}
}

func (s *FakeScheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, name)
	s.Cancelled = append(s.Cancelled, name)
}

// Pending reports whether a timer with the given name is scheduled.
func (s *FakeScheduler) Pending(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[name]
	return ok
}

// Fire runs the named timer's callback synchronously. One-shot timers are
// removed first, like the real scheduler does. Returns false if no such
// timer is scheduled.
func (s *FakeScheduler) Fire(name string) bool {
	s.mu.Lock()
	timer, ok := s.timers[name]
	if ok && !timer.repeating {
		delete(s.timers, name)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	timer.fn()
	return true
}
