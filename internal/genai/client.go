package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xggarcia/Curt-IA/internal/keypool"
	"github.com/xggarcia/Curt-IA/internal/ratelimit"
)

// Client performs one logical generate operation against a provider while
// hiding quota churn behind credential rotation. Safe for use from
// concurrent runs: the pool and limiter serialize their own state.
type Client struct {
	provider Provider
	pool     *keypool.Pool
	limiter  *ratelimit.Limiter
	log      *slog.Logger
}

// NewClient wires a provider to its credential pool and rate limiter.
func NewClient(provider Provider, pool *keypool.Pool, limiter *ratelimit.Limiter, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		provider: provider,
		pool:     pool,
		limiter:  limiter,
		log:      logger,
	}
}

// Generate runs the bounded rotate-on-quota loop: at most one attempt per
// credential in the pool, so termination is guaranteed.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	maxAttempts := c.pool.Size()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return "", err
		}

		secret, err := c.pool.Current()
		if err != nil {
			if errors.Is(err, keypool.ErrPoolExhausted) {
				return "", fmt.Errorf("%w: %v", ErrAllCredentialsExhausted, err)
			}
			return "", err
		}

		text, err := c.provider.Generate(ctx, secret, req)
		if err == nil {
			return text, nil
		}

		if !IsQuotaExhausted(err) {
			return "", &UpstreamError{Provider: c.provider.Name(), Err: err}
		}

		st := c.pool.Status()
		c.log.Warn("⚠️ quota exhausted on current credential",
			"attempt", attempt, "max_attempts", maxAttempts,
			"credential", st.CurrentSuffix)

		if rotErr := c.pool.MarkCurrentExhausted(); rotErr != nil {
			return "", fmt.Errorf("%w: %v", ErrAllCredentialsExhausted, rotErr)
		}
	}

	return "", fmt.Errorf("%w: %d attempts", ErrRetriesExhausted, maxAttempts)
}
