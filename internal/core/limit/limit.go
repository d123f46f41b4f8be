// Package limit provides the two throttles composed around every probe: a
// bounded-concurrency gate and a sliding-window requests-per-second gate.
// A probe acquires the concurrency slot first and only then waits its RPS
// turn, so RPS accounting counts dispatched calls, never queued ones.
package limit

import (
	"context"
	"sync"
	"time"
)

// Concurrency admits up to a fixed number of concurrent tasks. Additional
// callers queue in FIFO order and are released as running tasks complete.
type Concurrency struct {
	slots chan struct{}
}

// NewConcurrency returns a gate admitting up to max concurrent tasks.
// A max below one is treated as one.
func NewConcurrency(max int) *Concurrency {
	if max < 1 {
		max = 1
	}
	return &Concurrency{slots: make(chan struct{}, max)}
}

// Acquire blocks until a slot is free or ctx is done.
func (c *Concurrency) Acquire(ctx context.Context) error {
	select {
	case c.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot previously taken with Acquire.
func (c *Concurrency) Release() {
	<-c.slots
}

// Run executes fn while holding a slot.
func (c *Concurrency) Run(ctx context.Context, fn func() error) error {
	if err := c.Acquire(ctx); err != nil {
		return err
	}
	defer c.Release()
	return fn()
}

// SlidingWindow admits at most maxPerWindow calls within any trailing
// window. A caller over the budget suspends until the oldest admission ages
// out, then re-evaluates; bursts of waiters therefore serialize correctly.
type SlidingWindow struct {
	mu           sync.Mutex
	maxPerWindow int
	window       time.Duration
	admissions   []time.Time

	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

// NewSlidingWindow returns a limiter over a trailing window. maxPerWindow of
// zero (or below) disables limiting entirely.
func NewSlidingWindow(maxPerWindow int, window time.Duration) *SlidingWindow {
	if window <= 0 {
		window = time.Second
	}
	return &SlidingWindow{maxPerWindow: maxPerWindow, window: window}
}

// Wait blocks until the caller may proceed under the window budget, or until
// ctx is done. With limiting disabled it returns immediately.
func (s *SlidingWindow) Wait(ctx context.Context) error {
	if s.maxPerWindow <= 0 {
		return nil
	}

	for {
		wait, ok := s.tryAdmit()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// tryAdmit records an admission when the trailing window has room. When it
// does not, it reports how long until the oldest admission ages out.
func (s *SlidingWindow) tryAdmit() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-s.window)

	live := s.admissions[:0]
	for _, ts := range s.admissions {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}
	s.admissions = live

	if len(s.admissions) < s.maxPerWindow {
		s.admissions = append(s.admissions, now)
		return 0, true
	}

	wait := s.admissions[0].Add(s.window).Sub(now)
	if wait < 0 {
		wait = 0
	}
	return wait, false
}

func (s *SlidingWindow) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}
