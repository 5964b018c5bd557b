package resilience

import (
	"strings"
	"time"
)

type Config struct {
	// MaxRetries is the retry budget after the first attempt, so the total
	// number of attempts is MaxRetries+1.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1000 * time.Millisecond,
		MaxDelay:   30 * time.Second,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.MaxRetries < 0 {
		out.MaxRetries = def.MaxRetries
	}
	if out.BaseDelay <= 0 {
		out.BaseDelay = def.BaseDelay
	}
	if out.MaxDelay < out.BaseDelay {
		out.MaxDelay = def.MaxDelay
	}
	if out.MaxDelay < out.BaseDelay {
		out.MaxDelay = out.BaseDelay
	}

	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}

	return out
}

// BackoffDelay returns base*2^(attempt-1) capped at MaxDelay. Attempts are
// 1-indexed.
func (c Config) BackoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := c.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if c.MaxDelay > 0 && delay >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	return delay
}

// retriableTokens marks error messages that indicate transient upstream
// conditions when no typed status is available.
var retriableTokens = []string{
	"rate limit",
	"too many requests",
	"temporarily unavailable",
	"service unavailable",
	"timeout",
	"network",
	"429",
	"500",
	"502",
	"503",
	"504",
}

// RetriableMessage reports whether an error message looks transient. The
// comparison is case-insensitive.
func RetriableMessage(message string) bool {
	message = strings.ToLower(message)
	for _, token := range retriableTokens {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}
