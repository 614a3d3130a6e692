package keypool

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultCooldown is how long an exhausted credential rests before it is
// presumed to have regained quota.
const DefaultCooldown = 24 * time.Hour

// ErrPoolExhausted means every credential in the pool is exhausted. Fatal
// for the calling operation; the pool never retries on its own.
var ErrPoolExhausted = errors.New("keypool: all credentials exhausted")

// record tracks one credential. exhaustedAt is zero whenever exhausted is
// false.
type record struct {
	secret      string
	exhausted   bool
	exhaustedAt time.Time
}

// Status is a read-only snapshot safe for logging. CurrentSuffix carries
// only the last 8 characters of the selected secret.
type Status struct {
	Total         int
	Active        int
	Exhausted     int
	CurrentSuffix string
}

// Pool rotates between credentials and survives individual exhaustion.
// The pool never calls the external service itself: the caller observes a
// quota failure downstream and reports it via MarkCurrentExhausted.
type Pool struct {
	mu       sync.Mutex
	records  []record
	cursor   int
	cooldown time.Duration

	now func() time.Time
	log *slog.Logger
}

// Option customizes a Pool.
type Option func(*Pool)

// WithClock injects a deterministic clock (tests).
func WithClock(now func() time.Time) Option {
	return func(p *Pool) {
		if now != nil {
			p.now = now
		}
	}
}

// WithCooldown overrides the exhaustion cooldown.
func WithCooldown(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.cooldown = d
		}
	}
}

// New builds a pool from the given secrets. At least one is required.
func New(secrets []string, logger *slog.Logger, opts ...Option) (*Pool, error) {
	if len(secrets) == 0 {
		return nil, errors.New("keypool: at least one credential required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		records:  make([]record, len(secrets)),
		cooldown: DefaultCooldown,
		now:      time.Now,
		log:      logger,
	}
	for i, s := range secrets {
		p.records[i] = record{secret: s}
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log.Info("🔑 credential pool initialized", "credentials", len(p.records))
	return p, nil
}

// Size returns the number of credentials in the pool.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records)
}

// Current returns the secret of the active credential. Cooldowns are
// applied lazily here: any record rested past the cooldown becomes active
// again before selection. Scans forward circularly from the last-used
// index; after a full exhaustion the scan restarts at the first
// credential, so resurrection order matches pool order.
func (p *Pool) Current() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// The cursor only rests on an exhausted record when the whole pool
	// was exhausted.
	start := p.cursor
	if p.records[p.cursor].exhausted {
		start = 0
	}
	p.resetCooledDown()

	for i := 0; i < len(p.records); i++ {
		idx := (start + i) % len(p.records)
		if !p.records[idx].exhausted {
			p.cursor = idx
			return p.records[idx].secret, nil
		}
	}
	return "", ErrPoolExhausted
}

// MarkCurrentExhausted stamps the selected credential as exhausted and
// advances the cursor to the next active one, circularly.
func (p *Pool) MarkCurrentExhausted() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur := &p.records[p.cursor]
	cur.exhausted = true
	cur.exhaustedAt = p.now()
	p.log.Warn("🔴 credential exhausted", "credential", redact(cur.secret))

	for i := 1; i <= len(p.records); i++ {
		idx := (p.cursor + i) % len(p.records)
		if !p.records[idx].exhausted {
			p.log.Info("🔄 rotated credential",
				"from", redact(cur.secret),
				"to", redact(p.records[idx].secret))
			p.cursor = idx
			return nil
		}
	}
	return ErrPoolExhausted
}

// Status reports counts plus a redacted identifier of the current
// credential, for logging without leaking secrets.
func (p *Pool) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{
		Total:         len(p.records),
		CurrentSuffix: redact(p.records[p.cursor].secret),
	}
	for _, r := range p.records {
		if r.exhausted {
			st.Exhausted++
		} else {
			st.Active++
		}
	}
	return st
}

// resetCooledDown resurrects records whose cooldown elapsed. Caller holds
// mu.
func (p *Pool) resetCooledDown() {
	now := p.now()
	for i := range p.records {
		r := &p.records[i]
		if r.exhausted && now.Sub(r.exhaustedAt) >= p.cooldown {
			r.exhausted = false
			r.exhaustedAt = time.Time{}
			p.log.Info("✅ credential cooled down, back in rotation", "credential", redact(r.secret))
		}
	}
}

func redact(secret string) string {
	if len(secret) <= 8 {
		return "..." + secret
	}
	return "..." + secret[len(secret)-8:]
}
