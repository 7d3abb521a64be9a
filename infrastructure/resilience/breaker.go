package resilience

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
)

// BreakerConfig configures a Breaker.
type BreakerConfig struct {
	// Threshold is the number of consecutive failures before the breaker opens.
	Threshold int

	// Timeout is how long the breaker stays open.
	Timeout time.Duration
}

// DefaultBreakerConfig returns the breaker defaults used for snapshot stores.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Threshold: 3,
		Timeout:   30 * time.Second,
	}
}

// Breaker stops calling a failing dependency after repeated failures.
type Breaker struct {
	cb circuitbreaker.CircuitBreaker[struct{}]
}

// NewBreaker creates a circuit breaker.
func NewBreaker(config BreakerConfig) *Breaker {
	threshold := config.Threshold
	if threshold <= 0 {
		threshold = DefaultBreakerConfig().Threshold
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultBreakerConfig().Timeout
	}

	return &Breaker{
		cb: circuitbreaker.New[struct{}](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    timeout,
			Timeout:     timeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- threshold is positive
			},
		}),
	}
}

// Do calls fn unless the breaker is open.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	_, err := b.cb.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// State returns the breaker state name: closed, open or half-open.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Open reports whether calls are currently rejected.
func (b *Breaker) Open() bool {
	return b.State() == "open"
}
