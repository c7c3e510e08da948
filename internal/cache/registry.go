// Package cache provides a tiered TTL response cache with single-flight
// stampede avoidance. Data categories map onto a small fixed set of tiers
// whose TTLs reflect how quickly market data goes stale: spot data is good
// for seconds, account balances for minutes, token metadata for an hour.
//
// Concurrent lookups for the same key collapse into a single upstream
// fetch; all waiters observe the outcome of that one fetch, and a failed
// fetch leaves nothing behind so the next caller retries.
package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Category identifies the kind of market data being cached. The category,
// not the caller, decides which tier (and therefore which TTL) applies.
type Category string

const (
	CategorySpotPrice          Category = "spot_price"
	CategorySwapQuote          Category = "swap_quote"
	CategoryGasEstimate        Category = "gas_estimate"
	CategoryBalance            Category = "balance"
	CategoryPortfolio          Category = "portfolio"
	CategoryTokenMetadata      Category = "token_metadata"
	CategoryTokenList          Category = "token_list"
	CategoryTransactionHistory Category = "transaction_history"
)

// TierName identifies one of the three cache pools.
type TierName string

const (
	TierFast   TierName = "fast"
	TierMedium TierName = "medium"
	TierSlow   TierName = "slow"
)

// categoryTiers is the static category-to-tier routing table. It is part of
// the registry's configuration, never computed per request.
var categoryTiers = map[Category]TierName{
	CategorySpotPrice:          TierFast,
	CategorySwapQuote:          TierFast,
	CategoryGasEstimate:        TierFast,
	CategoryBalance:            TierMedium,
	CategoryPortfolio:          TierMedium,
	CategoryTokenMetadata:      TierSlow,
	CategoryTokenList:          TierSlow,
	CategoryTransactionHistory: TierSlow,
}

// ErrUnknownCategory is returned when a category has no tier assignment.
var ErrUnknownCategory = errors.New("cache: unknown category")

// FetchFunc loads a value from upstream on a cache miss. For a given key it
// is invoked at most once across concurrent callers.
type FetchFunc func(ctx context.Context) (any, error)

// Stats holds read-only counters for one tier. Hits and misses are
// monotonically increasing for the process lifetime.
type Stats struct {
	Tier   TierName `json:"tier"`
	Size   int      `json:"size"`
	Hits   int64    `json:"hits"`
	Misses int64    `json:"misses"`
}

type entry struct {
	value     any
	storedAt  time.Time
	expiresAt time.Time
}

// tier is a single cache pool with a fixed TTL. Entries are scoped to the
// tier: the same key in two tiers is two independent entries.
type tier struct {
	name TierName
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]entry

	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

func newTier(name TierName, ttl time.Duration, now func() time.Time) *tier {
	return &tier{
		name:    name,
		ttl:     ttl,
		now:     now,
		entries: make(map[string]entry),
	}
}

// lookup returns the value for key when present and fresh. An entry is never
// served at or past its expiry; expired entries found here are deleted so
// the map does not accumulate dead data between sweeps.
func (t *tier) lookup(key string) (any, bool) {
	t.mu.RLock()
	e, ok := t.entries[key]
	t.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if t.now().Before(e.expiresAt) {
		return e.value, true
	}
	t.mu.Lock()
	// Re-check under the write lock: a concurrent fetch may have stored a
	// fresh entry since the read.
	if cur, ok := t.entries[key]; ok && !t.now().Before(cur.expiresAt) {
		delete(t.entries, key)
	}
	t.mu.Unlock()
	return nil, false
}

func (t *tier) getOrCompute(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	if v, ok := t.lookup(key); ok {
		t.hits.Add(1)
		return v, nil
	}
	t.misses.Add(1)

	v, err, _ := t.group.Do(key, func() (any, error) {
		// A caller that raced past the freshness check while another
		// flight completed sees the stored entry here instead of
		// fetching again.
		if v, ok := t.lookup(key); ok {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			// Nothing is stored on failure, so the next caller retries
			// instead of waiting behind a poisoned entry.
			return nil, err
		}
		t.store(key, v)
		return v, nil
	})
	return v, err
}

func (t *tier) store(key string, v any) {
	now := t.now()
	t.mu.Lock()
	t.entries[key] = entry{value: v, storedAt: now, expiresAt: now.Add(t.ttl)}
	t.mu.Unlock()
}

func (t *tier) invalidate(key string) {
	t.mu.Lock()
	delete(t.entries, key)
	t.mu.Unlock()
}

func (t *tier) prune() int {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for key, e := range t.entries {
		if !now.Before(e.expiresAt) {
			delete(t.entries, key)
			removed++
		}
	}
	return removed
}

func (t *tier) stats() Stats {
	t.mu.RLock()
	size := len(t.entries)
	t.mu.RUnlock()
	return Stats{
		Tier:   t.name,
		Size:   size,
		Hits:   t.hits.Load(),
		Misses: t.misses.Load(),
	}
}

// Config holds the per-tier TTLs.
type Config struct {
	FastTTL   time.Duration
	MediumTTL time.Duration
	SlowTTL   time.Duration
}

// Registry owns the three cache tiers and routes categories to them.
type Registry struct {
	tiers map[TierName]*tier
}

// Option configures a Registry.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the registry's time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// NewRegistry creates the fast, medium and slow tiers with the configured
// TTLs.
func NewRegistry(cfg Config, opts ...Option) *Registry {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		tiers: map[TierName]*tier{
			TierFast:   newTier(TierFast, cfg.FastTTL, o.now),
			TierMedium: newTier(TierMedium, cfg.MediumTTL, o.now),
			TierSlow:   newTier(TierSlow, cfg.SlowTTL, o.now),
		},
	}
}

// GetOrCompute returns the cached value for (category, key) when fresh, or
// invokes fetch exactly once across concurrent callers, stores the result
// with the tier's TTL and returns it. A fetch error is propagated to every
// waiting caller and nothing is cached.
func (r *Registry) GetOrCompute(ctx context.Context, category Category, key string, fetch FetchFunc) (any, error) {
	t, err := r.tier(category)
	if err != nil {
		return nil, err
	}
	return t.getOrCompute(ctx, key, fetch)
}

// Invalidate removes an entry immediately regardless of TTL.
func (r *Registry) Invalidate(category Category, key string) error {
	t, err := r.tier(category)
	if err != nil {
		return err
	}
	t.invalidate(key)
	return nil
}

// Stats reports the counters of the tier serving the given category.
func (r *Registry) Stats(category Category) (Stats, error) {
	t, err := r.tier(category)
	if err != nil {
		return Stats{}, err
	}
	return t.stats(), nil
}

// TierStats reports counters for every tier, fast first.
func (r *Registry) TierStats() []Stats {
	out := make([]Stats, 0, len(r.tiers))
	for _, name := range []TierName{TierFast, TierMedium, TierSlow} {
		out = append(out, r.tiers[name].stats())
	}
	return out
}

// PruneExpired removes expired entries from every tier and returns the
// number removed. Expiry is otherwise enforced passively on lookup; this is
// the opportunistic trim run by the maintenance stats pass.
func (r *Registry) PruneExpired() int {
	removed := 0
	for _, t := range r.tiers {
		removed += t.prune()
	}
	return removed
}

func (r *Registry) tier(category Category) (*tier, error) {
	name, ok := categoryTiers[category]
	if !ok {
		return nil, ErrUnknownCategory
	}
	return r.tiers[name], nil
}
