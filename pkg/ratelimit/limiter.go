package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"paperharvest/pkg/retry"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Wait blocks until the limiter allows the caller to proceed or ctx is done
	Wait(ctx context.Context) error
}

// RequestLimiter spaces outgoing requests at least interval apart.
type RequestLimiter struct {
	limiter *rate.Limiter
}

// NewRequestLimiter creates a limiter allowing one request per interval.
// A non-positive interval disables limiting.
func NewRequestLimiter(interval time.Duration) *RequestLimiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RequestLimiter{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next request may be sent
func (r *RequestLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow reports whether a request may be sent right now, consuming the slot if so
func (r *RequestLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Politeness is the pause taken between successfully processed time units:
// a random duration in [Min, Max].
type Politeness struct {
	Min time.Duration
	Max time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPoliteness creates a jittered delay between min and max.
func NewPoliteness(min, max time.Duration) *Politeness {
	if max < min {
		max = min
	}
	return &Politeness{
		Min: min,
		Max: max,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next draws the next delay
func (p *Politeness) Next() time.Duration {
	if p.Max <= p.Min {
		return p.Min
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return p.Min + time.Duration(p.rng.Int63n(int64(p.Max-p.Min)+1))
}

// Wait sleeps for the next delay or until ctx is done
func (p *Politeness) Wait(ctx context.Context) error {
	return retry.Wait(ctx, p.Next())
}
