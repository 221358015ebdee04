package retry

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/url"
	"time"
)

// HTTPError is a fetch that completed with a non-success status. 5xx counts
// as transient, 4xx does not.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// ParseError is a response body that could not be interpreted. Never retried.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "parse error: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// IsTransient reports whether an error belongs to the retryable classes:
// connection failures, timeouts and 5xx responses.
func IsTransient(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 && httpErr.StatusCode <= 599
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// Policy decides whether a failed fetch is retried and how long to back off.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

func NewPolicy(maxAttempts int, baseDelay time.Duration) *Policy {
	return &Policy{MaxAttempts: maxAttempts, BaseDelay: baseDelay}
}

// ShouldRetry reports whether the attempt that just failed (1-based) may be
// followed by another. Only transient errors qualify, and never past the
// attempt cap.
func (p *Policy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.MaxAttempts {
		return false
	}
	return IsTransient(err)
}

// DelayFor returns the backoff before the attempt following the given one:
// exponential in the attempt number plus up to 10% jitter, added so delays
// never undercut the deterministic term.
func (p *Policy) DelayFor(attempt int) time.Duration {
	delay := p.BaseDelay * (1 << uint(attempt))
	jitter := time.Duration(rand.Int63n(int64(delay)/10 + 1))
	return delay + jitter
}
