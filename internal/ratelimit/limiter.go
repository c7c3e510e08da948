// Package ratelimit provides per-client admission control using the token
// bucket algorithm. Each client identifier gets its own bucket, created
// lazily at full capacity and evicted after a configurable idle period so
// the bucket table cannot grow without bound.
package ratelimit

import "time"

// Limiter defines the admission control contract. Implementations must be
// safe for concurrent use.
type Limiter interface {
	// Allow checks whether a request from the given client should be
	// allowed, consuming one token when it is. Returns the decision and
	// rate information for client feedback.
	Allow(clientID string) (allowed bool, info Info)

	// Remaining reports the whole tokens currently available to the client
	// without consuming any. Unknown clients report a full bucket.
	Remaining(clientID string) int

	// SecondsUntilReset reports how long the client must wait until at
	// least one token is available. Zero when a request would be allowed
	// right now, including for clients that have never been seen.
	SecondsUntilReset(clientID string) int64

	// Capacity reports the configured bucket size, the maximum tokens any
	// client can hold.
	Capacity() int

	// CleanupExpired evicts buckets that have been idle beyond the
	// configured threshold and returns the number evicted.
	CleanupExpired() int

	// Len reports the number of tracked buckets.
	Len() int
}

// Info contains rate limit state for client feedback and response headers.
type Info struct {
	Limit      int           // Bucket capacity
	Remaining  int           // Whole tokens remaining after the decision
	RetryAfter time.Duration // How long to wait (meaningful only when denied)
}
