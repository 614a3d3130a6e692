package genai

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAllCredentialsExhausted means a quota failure was observed and no
	// active credential remained to rotate to. Resource-fatal: the caller
	// must abort the operation, never substitute a default result.
	ErrAllCredentialsExhausted = errors.New("genai: all credentials exhausted")

	// ErrRetriesExhausted means every attempt across the credential pool
	// failed within a single logical call.
	ErrRetriesExhausted = errors.New("genai: retries exhausted across credential pool")
)

// UpstreamError wraps a non-quota provider failure. Propagated immediately,
// never retried.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream error: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsQuotaExhausted reports whether an error looks like quota or rate-limit
// exhaustion on the current credential. Classification is by status code
// and message pattern; providers embed the HTTP status in their errors.
func IsQuotaExhausted(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource_exhausted")
}
