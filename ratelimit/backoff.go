package ratelimit

import (
	"sync"
	"time"

	"github.com/ryanlong1004/lucida-flow/mathutil"
)

const (
	DefaultBackoffBase = 2 * time.Second
	DefaultBackoffMax  = 5 * time.Minute

	// rateLimitedFallbackDelay applies when a 429 response carries no
	// retry directive.
	rateLimitedFallbackDelay = time.Minute
)

// Backoff tracks consecutive request failures and derives an exponential,
// capped delay from them. The failure counter itself is unbounded; only
// the derived delay is clamped.
type Backoff struct {
	mux               sync.Mutex
	consecutiveErrors int
	base              time.Duration
	max               time.Duration
}

func NewBackoff() *Backoff {
	return &Backoff{
		base: DefaultBackoffBase,
		max:  DefaultBackoffMax,
	}
}

// OnSuccess resets the failure streak.
func (b *Backoff) OnSuccess() {
	b.mux.Lock()
	defer b.mux.Unlock()
	b.consecutiveErrors = 0
}

// OnFailure extends the failure streak and returns the delay to apply
// before the next attempt: base doubled per prior consecutive failure,
// clamped to the maximum.
func (b *Backoff) OnFailure() time.Duration {
	b.mux.Lock()
	defer b.mux.Unlock()
	b.consecutiveErrors++
	return b.delayLocked()
}

// OnRateLimited extends the failure streak like OnFailure, but the delay
// honors the server-supplied retry directive when one was present.
func (b *Backoff) OnRateLimited(retryAfter time.Duration, ok bool) time.Duration {
	b.mux.Lock()
	b.consecutiveErrors++
	b.mux.Unlock()

	if ok && retryAfter > 0 {
		return retryAfter
	}
	return rateLimitedFallbackDelay
}

func (b *Backoff) ConsecutiveErrors() int {
	b.mux.Lock()
	defer b.mux.Unlock()
	return b.consecutiveErrors
}

func (b *Backoff) delayLocked() time.Duration {
	// Exponents beyond 30 already dwarf any sane cap; shifting further
	// would overflow.
	exp := mathutil.Clamp(b.consecutiveErrors-1, 0, 30)
	return mathutil.Clamp(b.base<<exp, 0, b.max)
}
