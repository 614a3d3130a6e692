package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeNotifier struct {
	calls []string
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, message string) error {
	f.calls = append(f.calls, message)
	return f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMultiFansOut(t *testing.T) {
	a := &fakeNotifier{}
	b := &fakeNotifier{}
	m := NewMulti(discard(), a, nil, b)

	if err := m.Notify(context.Background(), "run complete"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(a.calls) != 1 || len(b.calls) != 1 {
		t.Errorf("calls: a=%d b=%d", len(a.calls), len(b.calls))
	}
	if a.calls[0] != "run complete" {
		t.Errorf("message = %q", a.calls[0])
	}
}

func TestMultiDeadChannelDoesNotSilenceOthers(t *testing.T) {
	dead := &fakeNotifier{err: errors.New("network down")}
	alive := &fakeNotifier{}
	m := NewMulti(discard(), dead, alive)

	err := m.Notify(context.Background(), "deadlock reached")
	if err == nil {
		t.Error("expected joined error")
	}
	if len(alive.calls) != 1 {
		t.Errorf("healthy channel skipped, calls=%d", len(alive.calls))
	}
}
