// Package gateway is the single entry point consumers use to reach the
// upstream market-data API. It composes admission control and the tiered
// cache in a fixed order: the rate limit is checked first, so a client that
// is already over quota cannot force cache-population work (and upstream
// calls) by hitting varied cache keys.
package gateway

import (
	"context"
	"strings"

	"pricegate/internal/cache"
	"pricegate/internal/ratelimit"
)

// Executor is the call surface consumers use. It exists as an interface so
// observability can wrap the gateway transparently.
type Executor interface {
	Execute(ctx context.Context, clientID string, category cache.Category, key string, fetch cache.FetchFunc) (any, error)
}

// Gateway enforces the rate limit, then serves from cache or fetches
// through the caller-supplied fetch function.
type Gateway struct {
	limiter ratelimit.Limiter
	cache   *cache.Registry
}

// New creates a gateway over the given limiter and cache registry.
func New(limiter ratelimit.Limiter, registry *cache.Registry) *Gateway {
	return &Gateway{
		limiter: limiter,
		cache:   registry,
	}
}

// Execute validates its inputs, checks the client's rate limit and then
// delegates to the cache. When the limit is exceeded it returns a
// *RateLimitError with backoff guidance and never invokes fetch.
func (g *Gateway) Execute(ctx context.Context, clientID string, category cache.Category, key string, fetch cache.FetchFunc) (any, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, ErrInvalidClientID
	}
	if strings.TrimSpace(key) == "" {
		return nil, ErrInvalidKey
	}

	allowed, info := g.limiter.Allow(clientID)
	if !allowed {
		return nil, &RateLimitError{
			Limit:      info.Limit,
			Remaining:  info.Remaining,
			RetryAfter: info.RetryAfter,
		}
	}

	return g.cache.GetOrCompute(ctx, category, key, fetch)
}
