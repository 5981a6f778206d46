package cdrs

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ReconnectionPolicy decides the delay before a ConnectionManager's Nth
// reconnect attempt, or whether to give up. attempt is 0 on the first
// retry after an initial failure.
type ReconnectionPolicy interface {
	Next(attempt int) (delay time.Duration, ok bool)
}

// exponentialReconnectionPolicy wraps cenkalti/backoff/v4's ExponentialBackOff,
// precomputing nothing — each Next call advances a fresh backoff.BackOff by
// attempt+1 steps, since the interface here is attempt-indexed rather than
// stateful like backoff.BackOff itself.
type exponentialReconnectionPolicy struct {
	initial    time.Duration
	max        time.Duration
	multiplier float64
	maxRetries int
}

func defaultReconnectionPolicy() ReconnectionPolicy {
	return &exponentialReconnectionPolicy{
		initial:    100 * time.Millisecond,
		max:        30 * time.Second,
		multiplier: 2.0,
		maxRetries: 0, // unlimited
	}
}

func (p *exponentialReconnectionPolicy) Next(attempt int) (time.Duration, bool) {
	if p.maxRetries > 0 && attempt >= p.maxRetries {
		return 0, false
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initial
	b.MaxInterval = p.max
	b.Multiplier = p.multiplier
	b.MaxElapsedTime = 0 // never expire by elapsed time; maxRetries governs that
	b.Reset()

	var d time.Duration
	for i := 0; i <= attempt; i++ {
		d = b.NextBackOff()
	}
	// NextBackOff jitters around an interval capped at MaxInterval, so the
	// result itself can exceed max; clamp it.
	if p.max > 0 && d > p.max {
		d = p.max
	}
	return d, true
}

// NeverReconnectionPolicy never retries: used for the session-level
// multi-node rotation path, where a failed node should be skipped in favor
// of the next candidate rather than retried in place.
type neverReconnectionPolicy struct{}

func (neverReconnectionPolicy) Next(attempt int) (time.Duration, bool) { return 0, false }

// NeverReconnectionPolicy is the shared instance of neverReconnectionPolicy.
var NeverReconnectionPolicy ReconnectionPolicy = neverReconnectionPolicy{}
