package retry

import (
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"server error", &HTTPError{StatusCode: 503, URL: "http://x"}, true},
		{"gateway timeout", &HTTPError{StatusCode: 504, URL: "http://x"}, true},
		{"not found", &HTTPError{StatusCode: 404, URL: "http://x"}, false},
		{"forbidden", &HTTPError{StatusCode: 403, URL: "http://x"}, false},
		{"timeout", timeoutError{}, true},
		{"connection failure", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}, true},
		{"parse error", &ParseError{Err: errors.New("bad html")}, false},
		{"wrapped server error", fmt.Errorf("fetch: %w", &HTTPError{StatusCode: 500}), true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.transient, IsTransient(tt.err))
		})
	}
}

func TestPolicy_ShouldRetry(t *testing.T) {
	policy := NewPolicy(3, time.Second)

	timeout := timeoutError{}
	assert.True(t, policy.ShouldRetry(timeout, 1))
	assert.True(t, policy.ShouldRetry(timeout, 2))
	assert.False(t, policy.ShouldRetry(timeout, 3))
	assert.False(t, policy.ShouldRetry(timeout, 4))

	notFound := &HTTPError{StatusCode: 404}
	assert.False(t, policy.ShouldRetry(notFound, 1))
	assert.False(t, policy.ShouldRetry(notFound, 2))
}

func TestPolicy_DelayFor(t *testing.T) {
	policy := NewPolicy(3, 100*time.Millisecond)

	for attempt := 1; attempt <= 3; attempt++ {
		base := policy.BaseDelay * (1 << uint(attempt))
		for i := 0; i < 50; i++ {
			delay := policy.DelayFor(attempt)
			assert.GreaterOrEqual(t, delay, base, "jitter must never undercut the exponential term")
			assert.LessOrEqual(t, delay, base+base/10, "jitter is capped at 10%%")
		}
	}
}
