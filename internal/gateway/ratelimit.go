package gateway

import (
	"fmt"
	"sync"
	"time"
)

// Default window quotas shared by all outbound operations.
const (
	defaultFastCapacity = 10
	defaultFastPeriod   = time.Second
	defaultSlowCapacity = 200
	defaultSlowPeriod   = time.Minute
)

// RateLimitError reports a rejected admission. Window is "fast" or "slow";
// RetryAfter hints how long until the offending window has room again.
type RateLimitError struct {
	Window     string
	Op         string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Rate limit exceeded for %s: %s window exhausted, retry in %s",
		e.Op, e.Window, e.RetryAfter.Round(time.Millisecond))
}

// window is one sliding call-rate window: at any instant the number of
// recorded timestamps inside the trailing period never exceeds capacity.
type window struct {
	capacity int
	period   time.Duration
	stamps   []time.Time
}

// prune drops timestamps that have fallen out of the trailing period.
func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.period)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

// retryAfter returns the time until the oldest recorded call leaves the
// window. Only meaningful when the window is full.
func (w *window) retryAfter(now time.Time) time.Duration {
	if len(w.stamps) == 0 {
		return 0
	}
	d := w.stamps[0].Add(w.period).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Limiter enforces the two sliding windows shared by every outbound gateway
// operation: a quote fetch and an order submission draw from the same two
// counters. Admission checks both windows and records the call as one atomic
// step under a single mutex, so concurrent callers cannot both claim the
// last remaining slot.
type Limiter struct {
	mu   sync.Mutex
	fast window
	slow window
	now  func() time.Time // injectable for tests
}

// NewLimiter creates a Limiter with the default quotas: 10 calls per second
// and 200 calls per minute.
func NewLimiter() *Limiter {
	return NewLimiterWithWindows(defaultFastCapacity, defaultFastPeriod, defaultSlowCapacity, defaultSlowPeriod)
}

// NewLimiterWithWindows creates a Limiter with explicit window quotas. Any
// zero or negative field falls back to its default: a zero-period window
// would prune every timestamp on each admission and never reject.
func NewLimiterWithWindows(fastCap int, fastPeriod time.Duration, slowCap int, slowPeriod time.Duration) *Limiter {
	if fastCap <= 0 {
		fastCap = defaultFastCapacity
	}
	if fastPeriod <= 0 {
		fastPeriod = defaultFastPeriod
	}
	if slowCap <= 0 {
		slowCap = defaultSlowCapacity
	}
	if slowPeriod <= 0 {
		slowPeriod = defaultSlowPeriod
	}
	return &Limiter{
		fast: window{capacity: fastCap, period: fastPeriod},
		slow: window{capacity: slowCap, period: slowPeriod},
		now:  time.Now,
	}
}

// Admit checks both windows, fast first, and records the call in each only
// if both have room. A rejected call is not charged to either window. The
// returned error is a *RateLimitError naming the exhausted window and op.
func (l *Limiter) Admit(op string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.fast.prune(now)
	l.slow.prune(now)

	if len(l.fast.stamps) >= l.fast.capacity {
		return &RateLimitError{Window: "fast", Op: op, RetryAfter: l.fast.retryAfter(now)}
	}
	if len(l.slow.stamps) >= l.slow.capacity {
		return &RateLimitError{Window: "slow", Op: op, RetryAfter: l.slow.retryAfter(now)}
	}

	l.fast.stamps = append(l.fast.stamps, now)
	l.slow.stamps = append(l.slow.stamps, now)
	return nil
}
