// Package scheduler provides named one-shot and repeating timers for the
// game session layer. Sessions never talk to the platform scheduler
// directly; they schedule and cancel callbacks by name, and a callback that
// fires after its session ended is expected to be a guarded no-op on the
// session side.
package scheduler

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Scheduler runs named timers. Scheduling under an existing name replaces
// the previous timer; Cancel is idempotent.
type Scheduler struct {
	mu      sync.Mutex
	oneshot map[string]*time.Timer
	stops   map[string]chan struct{}
}

// New creates an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{
		oneshot: make(map[string]*time.Timer),
		stops:   make(map[string]chan struct{}),
	}
}

// Once schedules fn to run once after delay.
func (s *Scheduler) Once(name string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(name)

	timer := time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.oneshot, name)
		s.mu.Unlock()
		fn()
	})
	s.oneshot[name] = timer

	log.Debug().Str("timer", name).Dur("delay", delay).Msg("Scheduled one-shot timer")
}

// Repeating schedules fn to run after initial, then every interval until
// the timer is cancelled.
func (s *Scheduler) Repeating(name string, initial, interval time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(name)

	stop := make(chan struct{})
	s.stops[name] = stop

	go func() {
		timer := time.NewTimer(initial)
		defer timer.Stop()
		for {
			select {
			case <-stop:
				return
			case <-timer.C:
				fn()
				timer.Reset(interval)
			}
		}
	}()

	log.Debug().Str("timer", name).Dur("initial", initial).Dur("interval", interval).Msg("Scheduled repeating timer")
}

// Cancel stops the named timer if it is still pending.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(name)
}

func (s *Scheduler) cancelLocked(name string) {
	if timer, ok := s.oneshot[name]; ok {
		timer.Stop()
		delete(s.oneshot, name)
		log.Debug().Str("timer", name).Msg("Cancelled one-shot timer")
	}
	if stop, ok := s.stops[name]; ok {
		close(stop)
		delete(s.stops, name)
		log.Debug().Str("timer", name).Msg("Cancelled repeating timer")
	}
}

// Shutdown cancels every pending timer.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.oneshot {
		s.cancelLocked(name)
	}
	for name := range s.stops {
		s.cancelLocked(name)
	}
}
