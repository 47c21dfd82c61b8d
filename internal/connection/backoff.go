package connection

import (
	"time"

	"github.com/cenkalti/backoff"
)

// Default retry delays.
const (
	DefaultBackoffBase = time.Second
	DefaultBackoffMax  = 30 * time.Second
)

// newBackoff returns a deterministic doubling policy: base, 2·base,
// 4·base, ... capped at maxInterval, retrying forever.
func newBackoff(base, maxInterval time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = maxInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
