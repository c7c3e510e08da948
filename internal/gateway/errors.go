package gateway

import (
	"errors"
	"fmt"
	"time"
)

// Validation failures rejected at the gateway boundary, before any limiter
// or cache state is touched.
var (
	ErrInvalidClientID = errors.New("gateway: client id must not be empty")
	ErrInvalidKey      = errors.New("gateway: cache key must not be empty")
)

// RateLimitError reports a denied admission with backoff guidance for the
// caller.
type RateLimitError struct {
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: retry after %s", e.RetryAfter)
}
