// Package breaker implements a cooldown-based circuit breaker for external
// AI providers. When a provider signals rate limiting, the breaker opens
// for a fixed window and the caller routes directly to its fallback,
// saving the latency of a doomed call.
package breaker

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Cooldown is the fixed window a breaker stays open after a rate-limit
// signal. No backoff or jitter: a single fixed window keeps the state a
// lone timestamp, which is all a single-process deployment needs.
const Cooldown = 60 * time.Second

// Clock returns the current time. Injectable for deterministic tests.
type Clock func() time.Time

// Breaker tracks the cooldown window for one provider. Safe for
// concurrent use; the only state is an atomic expiry timestamp, so a race
// costs at most one extra wasted provider attempt.
type Breaker struct {
	name  string
	clock Clock
	until atomic.Int64 // unix nanos; zero means closed
}

// New creates a breaker for the named provider. A nil clock uses
// time.Now.
func New(name string, clock Clock) *Breaker {
	if clock == nil {
		clock = time.Now
	}
	return &Breaker{name: name, clock: clock}
}

// Open reports whether the provider should be skipped.
func (b *Breaker) Open() bool {
	return b.clock().UnixNano() < b.until.Load()
}

// RecordRateLimit opens the breaker for the fixed cooldown window, or for
// retryAfter when the provider asked for longer.
func (b *Breaker) RecordRateLimit(retryAfter time.Duration) {
	wait := Cooldown
	if retryAfter > wait {
		wait = retryAfter
	}
	until := b.clock().Add(wait)
	b.until.Store(until.UnixNano())
	log.Warn().
		Str("provider", b.name).
		Time("until", until).
		Msg("provider rate limited, cooling down")
}
