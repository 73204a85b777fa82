// Package timer schedules the delayed effects of a level: transient pieces
// that disappear, grace periods, animations that settle and respawns.
//
// Every callback is keyed. Scheduling a key that is already pending
// replaces it, and CancelAll drops everything at once when a level is
// reset or replayed. Callbacks receive a Ticket; a callback must Claim its
// ticket while holding the lock that also guards CancelAll, otherwise a
// timer that fired just before a reset could still act on the new level.
package timer

import (
	"sort"
	"sync"
	"time"
)

type entry struct {
	seq   uint64
	epoch uint64
	timer *time.Timer
	due   time.Time
}

// Scheduler runs keyed one-shot callbacks.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]*entry
	seq     uint64
	epoch   uint64
	stopped bool
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[string]*entry)}
}

// Ticket identifies one scheduled run of a callback.
type Ticket struct {
	s     *Scheduler
	key   string
	seq   uint64
	epoch uint64
}

// Key returns the key the callback was scheduled under.
func (t Ticket) Key() string {
	return t.key
}

// Claim reports whether the callback is still current and, if so, marks it
// done. A ticket can be claimed once; it cannot be claimed after the key
// was rescheduled or cancelled.
func (t Ticket) Claim() bool {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.epoch != s.epoch {
		return false
	}
	e, ok := s.pending[t.key]
	if !ok || e.seq != t.seq {
		return false
	}
	delete(s.pending, t.key)
	return true
}

// Schedule runs fn after delay under key, replacing any pending callback
// with the same key. It reports false once the scheduler is stopped.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func(Ticket)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	if old, ok := s.pending[key]; ok {
		old.timer.Stop()
	}
	if delay < 0 {
		delay = 0
	}

	s.seq++
	t := Ticket{s: s, key: key, seq: s.seq, epoch: s.epoch}
	s.pending[key] = &entry{
		seq:   t.seq,
		epoch: t.epoch,
		due:   time.Now().Add(delay),
		timer: time.AfterFunc(delay, func() { fn(t) }),
	}
	return true
}

// Cancel stops the callback pending under key.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pending[key]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.pending, key)
	return true
}

// CancelAll stops every pending callback. Callbacks already running can no
// longer claim their tickets.
func (s *Scheduler) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelAllLocked()
}

func (s *Scheduler) cancelAllLocked() int {
	n := len(s.pending)
	for key, e := range s.pending {
		e.timer.Stop()
		delete(s.pending, key)
	}
	s.epoch++
	return n
}

// Stop cancels everything and refuses further scheduling.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked()
	s.stopped = true
}

// Pending returns the keys waiting to fire, sorted.
func (s *Scheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.pending))
	for k := range s.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Remaining returns how long until key fires.
func (s *Scheduler) Remaining(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.pending[key]
	if !ok {
		return 0, false
	}
	if d := time.Until(e.due); d > 0 {
		return d, true
	}
	return 0, true
}

// Epoch counts CancelAll calls.
func (s *Scheduler) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}
