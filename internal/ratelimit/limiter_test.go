package ratelimit

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

// fakeTime is a manually advanced clock whose sleep moves the clock
// forward instead of blocking.
type fakeTime struct {
	current time.Time
	slept   []time.Duration
}

func (f *fakeTime) now() time.Time { return f.current }

func (f *fakeTime) sleep(_ context.Context, d time.Duration) error {
	f.slept = append(f.slept, d)
	f.current = f.current.Add(d)
	return nil
}

func newTestLimiter(max int, window time.Duration) (*Limiter, *fakeTime) {
	ft := &fakeTime{current: time.Unix(1_700_000_000, 0)}
	l := New(max, window, slog.Default(), WithClock(ft.now), WithSleeper(ft.sleep))
	return l, ft
}

func TestAcquireUnderLimitIsImmediate(t *testing.T) {
	l, ft := newTestLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i+1, err)
		}
	}
	if len(ft.slept) != 0 {
		t.Errorf("expected no waits for the first 5 calls, got %v", ft.slept)
	}
	if got := l.Remaining(); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
}

func TestAcquireBlocksAtWindowBoundary(t *testing.T) {
	l, ft := newTestLimiter(5, time.Minute)
	start := ft.current

	// Five calls spread across the window, 12s apart. None waits.
	for i := 0; i < 5; i++ {
		if i > 0 {
			ft.current = ft.current.Add(12 * time.Second)
		}
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i+1, err)
		}
	}
	if len(ft.slept) != 0 {
		t.Fatalf("unexpected waits during the first 5 calls: %v", ft.slept)
	}

	// With the window still holding all five, calls 6-8 must each wait
	// for the oldest entry to roll out before proceeding.
	for i := 5; i < 8; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i+1, err)
		}
	}
	if len(ft.slept) != 3 {
		t.Fatalf("expected 3 pacing waits, got %d (%v)", len(ft.slept), ft.slept)
	}
	for i, d := range ft.slept {
		// Each wait closes the 12s gap to the oldest entry's expiry plus
		// the fixed safety margin.
		if d < 11*time.Second || d > 13*time.Second {
			t.Errorf("wait %d = %v, want about 12s to the window boundary", i+6, d)
		}
	}

	// Trailing-window property: 8 calls at 5 per minute cannot fit in
	// under a full window, and the limiter never overcommits.
	if elapsed := ft.current.Sub(start); elapsed < time.Minute {
		t.Errorf("8 calls completed in %v, faster than the window allows", elapsed)
	}
	if got := l.Remaining(); got < 0 {
		t.Errorf("Remaining = %d, limiter overcommitted", got)
	}
}

func TestRemainingRecoversAfterWindow(t *testing.T) {
	l, ft := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire: %v", err)
		}
	}
	if got := l.Remaining(); got != 0 {
		t.Fatalf("Remaining = %d, want 0", got)
	}

	ft.current = ft.current.Add(time.Minute + time.Second)
	if got := l.Remaining(); got != 3 {
		t.Errorf("Remaining after window = %d, want 3", got)
	}
}

func TestAcquireHonorsContextDuringWait(t *testing.T) {
	ft := &fakeTime{current: time.Unix(1_700_000_000, 0)}
	l := New(1, time.Minute, slog.Default(),
		WithClock(ft.now),
		WithSleeper(func(ctx context.Context, _ time.Duration) error {
			return context.Canceled
		}))

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := l.Acquire(context.Background()); err != context.Canceled {
		t.Errorf("expected context.Canceled during pacing wait, got %v", err)
	}
}
