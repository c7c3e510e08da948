// Package models - API response types and error handling.
package models

import "time"

// ErrorResponse provides structured error information with machine-readable
// codes for programmatic handling.
type ErrorResponse struct {
	Error     string    `json:"error"`          // Error type (always "error")
	Message   string    `json:"message"`        // Human-readable error description
	Code      string    `json:"code,omitempty"` // Machine-readable error code
	Timestamp time.Time `json:"timestamp"`      // Error occurrence time
}

// Standard error codes, upper-case with underscores, mapping onto HTTP
// status codes.
const (
	ErrorCodeBadRequest     = "BAD_REQUEST"     // 400: Invalid request data
	ErrorCodeRateLimited    = "RATE_LIMITED"    // 429: Admission denied
	ErrorCodeUpstreamError  = "UPSTREAM_ERROR"  // 502: Upstream fetch failed
	ErrorCodeInternalError  = "INTERNAL_ERROR"  // 500: Server-side error
	ErrorCodeNotFound       = "NOT_FOUND"       // 404: Resource doesn't exist
	ErrorCodeInvalidRequest = "INVALID_REQUEST" // 405: Invalid method or route
)

func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

// HealthCheckResponse reports process liveness.
type HealthCheckResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
}

// Health status constants.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// LimitsResponse reports a client's current rate limit state, for backoff
// guidance.
type LimitsResponse struct {
	ClientID     string `json:"client_id"`
	Limit        int    `json:"limit"`
	Remaining    int    `json:"remaining"`
	ResetSeconds int64  `json:"reset_seconds"`
}

// TierStatsEntry is one tier's counters in a cache stats response.
type TierStatsEntry struct {
	Tier   string `json:"tier"`
	Size   int    `json:"size"`
	Hits   int64  `json:"hits"`
	Misses int64  `json:"misses"`
}

// CacheStatsResponse reports counters for every cache tier.
type CacheStatsResponse struct {
	Tiers []TierStatsEntry `json:"tiers"`
}
