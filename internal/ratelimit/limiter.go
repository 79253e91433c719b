// Package ratelimit provides rate limiting for Box API calls using a token bucket.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/rescale/box-browse/internal/constants"
)

// warnInterval limits how often a long wait is reported.
const warnInterval = 10 * time.Second

// RateLimiter wraps golang.org/x/time/rate with wait reporting and a way to
// empty the bucket after the server says we were too fast.
type RateLimiter struct {
	limiter *rate.Limiter

	mu           sync.Mutex
	lastWarnTime time.Time
}

// NewRateLimiter creates a new rate limiter.
//
// Parameters:
//   - tokensPerSecond: Rate at which tokens are added. Zero or less means unlimited.
//   - burstSize: Maximum tokens that can accumulate (allows brief bursts)
func NewRateLimiter(tokensPerSecond float64, burstSize int) *RateLimiter {
	limit := rate.Limit(tokensPerSecond)
	if tokensPerSecond <= 0 {
		limit = rate.Inf
	}
	if burstSize < 1 {
		burstSize = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burstSize)}
}

// NewDefaultRateLimiter creates the limiter used for listing, metadata and
// thumbnail requests.
func NewDefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(DefaultRatePerSec, DefaultBurstCapacity)
}

// NewSearchRateLimiter creates the limiter used for the search endpoint.
func NewSearchRateLimiter() *RateLimiter {
	return NewRateLimiter(SearchRatePerSec, SearchBurstCapacity)
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.limiter.Allow() {
		return nil
	}

	if wait := rl.timeUntilNextToken(); wait > constants.RateLimitWarningThreshold {
		rl.mu.Lock()
		if time.Since(rl.lastWarnTime) > warnInterval {
			log.Warn().Dur("wait", wait).Msg("rate limited, waiting for API capacity")
			rl.lastWarnTime = time.Now()
		}
		rl.mu.Unlock()
	}

	return rl.limiter.Wait(ctx)
}

// TryAcquire takes one token without blocking.
func (rl *RateLimiter) TryAcquire() bool {
	return rl.limiter.Allow()
}

// Drain empties the bucket so the next request waits a full refill
// interval. Called when the server answers 429.
func (rl *RateLimiter) Drain() {
	if n := int(rl.limiter.Tokens()); n > 0 {
		rl.limiter.AllowN(time.Now(), n)
	}
}

// GetCurrentTokens returns the current number of tokens (for testing/debugging).
func (rl *RateLimiter) GetCurrentTokens() float64 {
	return rl.limiter.Tokens()
}

func (rl *RateLimiter) timeUntilNextToken() time.Duration {
	tokensNeeded := 1.0 - rl.limiter.Tokens()
	if tokensNeeded <= 0 || rl.limiter.Limit() == rate.Inf {
		return 0
	}
	return time.Duration(tokensNeeded / float64(rl.limiter.Limit()) * float64(time.Second))
}
