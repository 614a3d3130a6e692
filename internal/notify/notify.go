// Package notify delivers run milestone announcements to external chat
// channels. Notifications are best-effort: a delivery failure never
// affects the run itself.
package notify

import (
	"context"
	"errors"
	"log/slog"
)

// Notifier sends a single text announcement.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Multi fans one announcement out to several channels. Delivery errors
// are collected, not short-circuited, so one dead channel cannot
// silence the others.
type Multi struct {
	targets []Notifier
	log     *slog.Logger
}

// NewMulti builds a fan-out notifier. Nil targets are skipped.
func NewMulti(logger *slog.Logger, targets ...Notifier) *Multi {
	kept := make([]Notifier, 0, len(targets))
	for _, t := range targets {
		if t != nil {
			kept = append(kept, t)
		}
	}
	return &Multi{targets: kept, log: logger}
}

func (m *Multi) Notify(ctx context.Context, message string) error {
	var errs []error
	for _, t := range m.targets {
		if err := t.Notify(ctx, message); err != nil {
			m.log.Warn("notification channel failed", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
