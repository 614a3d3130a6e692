package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// safetyMargin is added to every computed wait so that a request issued
// right at the window boundary does not trip the upstream limiter.
const safetyMargin = 500 * time.Millisecond

// Limiter paces outbound calls to at most maxRequests within any trailing
// window. Acquire never rejects, it only delays.
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	calls       []time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
	log   *slog.Logger
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock injects a deterministic clock (tests).
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithSleeper replaces the blocking wait (tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(l *Limiter) {
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

// New creates a limiter allowing maxRequests per trailing window.
func New(maxRequests int, window time.Duration, logger *slog.Logger, opts ...Option) *Limiter {
	if maxRequests < 1 {
		maxRequests = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	l := &Limiter{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		sleep:       defaultSleep,
		log:         logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Acquire blocks until issuing another call stays within the limit, then
// records the call timestamp. The only error it returns is ctx expiry
// during a pacing wait.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)

		if len(l.calls) < l.maxRequests {
			l.calls = append(l.calls, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.window - now.Sub(l.calls[0]) + safetyMargin
		l.mu.Unlock()

		l.log.Info("⏱️ rate limit reached, pacing",
			"max_requests", l.maxRequests,
			"window", l.window,
			"wait", wait.Round(100*time.Millisecond))

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Remaining reports how many calls can currently be issued without waiting.
// For observability and tests; callers must not make decisions with it.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return l.maxRequests - len(l.calls)
}

// prune discards call records older than the window. Caller holds mu.
func (l *Limiter) prune(now time.Time) {
	cut := 0
	for cut < len(l.calls) && now.Sub(l.calls[cut]) > l.window {
		cut++
	}
	if cut > 0 {
		l.calls = append(l.calls[:0], l.calls[cut:]...)
	}
}
