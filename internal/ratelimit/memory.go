package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// bucket holds a client's token bucket and its last access time for idle
// eviction.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is an in-memory Limiter backed by golang.org/x/time/rate.
// Each client identifier gets its own token bucket, seeded at full capacity
// on first use. The map mutex is held only for map access; refill and
// consumption are serialized per bucket by rate.Limiter itself, so unrelated
// clients never contend on bucket math.
type MemoryLimiter struct {
	capacity      int
	refillPerSec  float64
	idleThreshold time.Duration
	now           func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// Option configures a MemoryLimiter.
type Option func(*MemoryLimiter)

// WithClock overrides the limiter's time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *MemoryLimiter) {
		m.now = now
	}
}

// NewMemoryLimiter creates a limiter where each client may hold up to
// capacity tokens, refilled at refillPerSec tokens per second. A zero
// refill rate is accepted: buckets then never refill, so a client that
// spends its initial capacity stays denied until evicted. Buckets
// untouched for longer than idleThreshold are removed by CleanupExpired.
func NewMemoryLimiter(capacity int, refillPerSec float64, idleThreshold time.Duration, opts ...Option) *MemoryLimiter {
	m := &MemoryLimiter{
		capacity:      capacity,
		refillPerSec:  refillPerSec,
		idleThreshold: idleThreshold,
		now:           time.Now,
		buckets:       make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Allow checks whether a request from the given client should be allowed.
func (m *MemoryLimiter) Allow(clientID string) (bool, Info) {
	now := m.now()
	b := m.bucket(clientID, now)

	allowed := b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)

	info := Info{
		Limit:     m.capacity,
		Remaining: wholeTokens(tokens),
	}
	if !allowed {
		info.RetryAfter = m.untilNextToken(tokens)
	}
	return allowed, info
}

// Remaining reports the whole tokens currently available without consuming
// any. Reading applies time-based refill bookkeeping but never spends.
func (m *MemoryLimiter) Remaining(clientID string) int {
	m.mu.Lock()
	b, ok := m.buckets[clientID]
	m.mu.Unlock()
	if !ok {
		return m.capacity
	}
	return wholeTokens(b.limiter.TokensAt(m.now()))
}

// SecondsUntilReset reports the whole seconds until the client has at least
// one token, rounded up. Unknown clients are treated as full buckets.
func (m *MemoryLimiter) SecondsUntilReset(clientID string) int64 {
	m.mu.Lock()
	b, ok := m.buckets[clientID]
	m.mu.Unlock()
	if !ok {
		return 0
	}
	tokens := b.limiter.TokensAt(m.now())
	if tokens >= 1 {
		return 0
	}
	return int64(math.Ceil(m.untilNextToken(tokens).Seconds()))
}

// Capacity reports the configured bucket size.
func (m *MemoryLimiter) Capacity() int {
	return m.capacity
}

// CleanupExpired removes every bucket whose last access is older than the
// idle threshold. A bucket removed while its client is mid-flight is simply
// recreated at full capacity on the next request; that brief over-allowance
// is the accepted cost of not coordinating the sweep with admission checks.
func (m *MemoryLimiter) CleanupExpired() int {
	cutoff := m.now().Add(-m.idleThreshold)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, b := range m.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(m.buckets, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked buckets.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

// bucket returns the client's bucket, creating it at full capacity on first
// use, and records the access time for idle eviction.
func (m *MemoryLimiter) bucket(clientID string, now time.Time) *bucket {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[clientID]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(m.refillPerSec), m.capacity)}
		m.buckets[clientID] = b
	}
	b.lastSeen = now
	return b
}

// untilNextToken reports how long until one whole token accrues given the
// current token count.
func (m *MemoryLimiter) untilNextToken(tokens float64) time.Duration {
	need := 1 - tokens
	if need <= 0 {
		return 0
	}
	if m.refillPerSec <= 0 {
		// A zero-rate bucket never refills. Converting the +Inf wait to a
		// time.Duration is undefined, so report the largest representable
		// wait instead.
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(need / m.refillPerSec * float64(time.Second))
}

func wholeTokens(tokens float64) int {
	return int(math.Max(0, math.Floor(tokens)))
}
