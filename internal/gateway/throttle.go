package gateway

import (
	"sync"
	"time"
)

// throttle coalesces calls into at most one execution per window with
// trailing-edge semantics: the first call arms a timer, later calls within
// the window replace the pending function, and the latest one runs when
// the window elapses.
type throttle struct {
	window time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	pending  func()
	lastUsed time.Time
}

func newThrottle(window time.Duration) *throttle {
	return &throttle{window: window}
}

func (t *throttle) Do(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = fn
	t.lastUsed = time.Now()
	if t.timer == nil {
		t.timer = time.AfterFunc(t.window, t.fire)
	}
}

func (t *throttle) fire() {
	t.mu.Lock()
	fn := t.pending
	t.pending = nil
	t.timer = nil
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Flush runs any pending function immediately and disarms the timer.
func (t *throttle) Flush() {
	t.mu.Lock()
	fn := t.pending
	t.pending = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// idle reports whether the entry has no pending work and has not been
// used since the cutoff.
func (t *throttle) idle(cutoff time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending == nil && t.timer == nil && t.lastUsed.Before(cutoff)
}

// throttleStore hands out one throttle per interview id. Entries are
// created lazily on first use and evicted by a TTL sweep once idle, so
// the map stays bounded by the number of recently active interviews
// instead of growing for the process lifetime.
type throttleStore struct {
	window time.Duration
	ttl    time.Duration

	mu      sync.Mutex
	entries map[string]*throttle

	done chan struct{}
	wg   sync.WaitGroup
}

func newThrottleStore(window, ttl time.Duration) *throttleStore {
	s := &throttleStore{
		window:  window,
		ttl:     ttl,
		entries: make(map[string]*throttle),
		done:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.sweep()
	return s
}

func (s *throttleStore) Get(id string) *throttle {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.entries[id]
	if !ok {
		t = newThrottle(s.window)
		t.lastUsed = time.Now()
		s.entries[id] = t
	}
	return t
}

func (s *throttleStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *throttleStore) sweep() {
	defer s.wg.Done()

	interval := s.ttl / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictIdle(time.Now().Add(-s.ttl))
		case <-s.done:
			return
		}
	}
}

func (s *throttleStore) evictIdle(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.entries {
		if t.idle(cutoff) {
			delete(s.entries, id)
		}
	}
}

// Close stops the sweeper and flushes pending work so the last buffered
// write of each interview is not lost on shutdown.
func (s *throttleStore) Close() {
	close(s.done)
	s.wg.Wait()

	s.mu.Lock()
	entries := make([]*throttle, 0, len(s.entries))
	for _, t := range s.entries {
		entries = append(entries, t)
	}
	s.mu.Unlock()

	for _, t := range entries {
		t.Flush()
	}
}
