package whatsapp

import (
	"math"
	"math/rand"
	"strings"
	"time"
)

// RetryStrategy defines exponential backoff retry logic for gateway calls.
type RetryStrategy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Jitter      bool
}

// NewRetryStrategy creates a RetryStrategy with defaults: 3 attempts,
// 1s base, 8s cap, jitter on.
func NewRetryStrategy() *RetryStrategy {
	return &RetryStrategy{
		MaxAttempts: 3,
		BaseBackoff: 1 * time.Second,
		MaxBackoff:  8 * time.Second,
		Jitter:      true,
	}
}

// CalculateBackoff returns the wait before the given attempt (1-based):
// 1s, 2s, 4s... capped at MaxBackoff, with ±10% jitter.
func (s *RetryStrategy) CalculateBackoff(attemptNumber int) time.Duration {
	if attemptNumber <= 0 {
		return s.BaseBackoff
	}

	multiplier := math.Pow(2, float64(attemptNumber-1))
	backoff := time.Duration(multiplier) * s.BaseBackoff
	if backoff > s.MaxBackoff {
		backoff = s.MaxBackoff
	}

	if s.Jitter {
		jitterRange := backoff / 10
		if jitterRange > 0 {
			jitter := time.Duration(rand.Intn(int(jitterRange*2))) - jitterRange
			backoff += jitter
			if backoff < s.BaseBackoff {
				backoff = s.BaseBackoff
			}
		}
	}
	return backoff
}

// IsTemporaryError reports whether the error looks transient.
func (s *RetryStrategy) IsTemporaryError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	for _, marker := range []string{
		"context deadline exceeded", "timeout", "Timeout",
		"connection", "EOF", "reset by peer",
	} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

// IsRetryableStatusCode reports whether an HTTP status warrants retry:
// 5xx and 429 only.
func (s *RetryStrategy) IsRetryableStatusCode(statusCode int) bool {
	if statusCode >= 400 && statusCode < 500 {
		return statusCode == 429
	}
	return statusCode >= 500 && statusCode < 600
}
