package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"pricegate/internal/cache"
	"pricegate/internal/gateway"
	"pricegate/internal/models"
	"pricegate/internal/ratelimit"
	"pricegate/internal/upstream"
	"pricegate/internal/version"
)

// MarketClient is the upstream surface the handlers need. The concrete
// implementation lives in internal/upstream; tests substitute fakes.
type MarketClient interface {
	SpotPrice(ctx context.Context, chainID int64, address, currency string) (*models.Price, error)
	Balances(ctx context.Context, chainID int64, addresses []string) (*models.Balances, error)
	SwapQuote(ctx context.Context, chainID int64, fromToken, toToken, amount string) (*models.SwapQuote, error)
	GasEstimate(ctx context.Context, chainID int64) (*models.GasEstimate, error)
	TokenList(ctx context.Context, chainID int64) (*models.TokenList, error)
	Portfolio(ctx context.Context, chainID int64, addresses []string, currency string) (*models.Portfolio, error)
	TokenMetadata(ctx context.Context, chainID int64, address string) (*models.TokenMetadata, error)
	TransactionHistory(ctx context.Context, chainID int64, address string, page int) (*models.TransactionPage, error)
}

// Handlers contains the HTTP handlers for the pricegate API.
type Handlers struct {
	gateway gateway.Executor
	market  MarketClient
	limiter ratelimit.Limiter
	cache   *cache.Registry
	started time.Time
}

// NewHandlers creates a new handlers instance. The limiter and cache are the
// same instances the gateway composes; handlers read them directly only for
// the introspection endpoints (/limits, /cache/stats).
func NewHandlers(gw gateway.Executor, market MarketClient, limiter ratelimit.Limiter, registry *cache.Registry) *Handlers {
	return &Handlers{
		gateway: gw,
		market:  market,
		limiter: limiter,
		cache:   registry,
		started: time.Now(),
	}
}

// GetPrice handles spot price requests.
// GET /api/v1/chains/{chain_id}/tokens/{address}/price?currency=USD
func (h *Handlers) GetPrice(w http.ResponseWriter, r *http.Request) {
	chainID, address, err := pathTarget(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	currency := strings.ToUpper(r.URL.Query().Get("currency"))
	if currency == "" {
		currency = "USD"
	}

	key := cache.PriceKey(chainID, address, currency)
	result, err := h.gateway.Execute(r.Context(), clientID(r), cache.CategorySpotPrice, key, func(ctx context.Context) (any, error) {
		return h.market.SpotPrice(ctx, chainID, address, currency)
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, result)
}

// GetBalances handles balance requests for a set of addresses.
// GET /api/v1/chains/{chain_id}/balances?addresses=0xaaa,0xbbb
func (h *Handlers) GetBalances(w http.ResponseWriter, r *http.Request) {
	chainID, err := pathChainID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	addresses := splitAndTrim(r.URL.Query().Get("addresses"), ",")
	if len(addresses) == 0 {
		h.writeError(w, badRequest("at least one address is required"))
		return
	}

	key := cache.BalancesKey(chainID, addresses)
	result, err := h.gateway.Execute(r.Context(), clientID(r), cache.CategoryBalance, key, func(ctx context.Context) (any, error) {
		return h.market.Balances(ctx, chainID, addresses)
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, result)
}

// GetQuote handles swap quote requests.
// GET /api/v1/chains/{chain_id}/quote?from=0xaaa&to=0xbbb&amount=1000
func (h *Handlers) GetQuote(w http.ResponseWriter, r *http.Request) {
	chainID, err := pathChainID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	amount := strings.TrimSpace(r.URL.Query().Get("amount"))
	if from == "" || to == "" || amount == "" {
		h.writeError(w, badRequest("from, to and amount are required"))
		return
	}

	key := cache.QuoteKey(chainID, from, to, amount)
	result, err := h.gateway.Execute(r.Context(), clientID(r), cache.CategorySwapQuote, key, func(ctx context.Context) (any, error) {
		return h.market.SwapQuote(ctx, chainID, from, to, amount)
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, result)
}

// GetGas handles gas estimate requests.
// GET /api/v1/chains/{chain_id}/gas
func (h *Handlers) GetGas(w http.ResponseWriter, r *http.Request) {
	chainID, err := pathChainID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	key := cache.GasKey(chainID)
	result, err := h.gateway.Execute(r.Context(), clientID(r), cache.CategoryGasEstimate, key, func(ctx context.Context) (any, error) {
		return h.market.GasEstimate(ctx, chainID)
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, result)
}

// GetTokenList handles token list requests.
// GET /api/v1/chains/{chain_id}/tokens
func (h *Handlers) GetTokenList(w http.ResponseWriter, r *http.Request) {
	chainID, err := pathChainID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	key := cache.TokenListKey(chainID)
	result, err := h.gateway.Execute(r.Context(), clientID(r), cache.CategoryTokenList, key, func(ctx context.Context) (any, error) {
		return h.market.TokenList(ctx, chainID)
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, result)
}

// GetPortfolio handles portfolio valuation requests. The cache key is
// bucketed to a time window, so nearby requests for the same address set
// share a snapshot.
// GET /api/v1/chains/{chain_id}/portfolio?addresses=0xaaa,0xbbb&currency=USD
func (h *Handlers) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	chainID, err := pathChainID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	addresses := splitAndTrim(r.URL.Query().Get("addresses"), ",")
	if len(addresses) == 0 {
		h.writeError(w, badRequest("at least one address is required"))
		return
	}
	currency := strings.ToUpper(r.URL.Query().Get("currency"))
	if currency == "" {
		currency = "USD"
	}

	key := cache.PortfolioKey(chainID, addresses, currency, time.Now())
	result, err := h.gateway.Execute(r.Context(), clientID(r), cache.CategoryPortfolio, key, func(ctx context.Context) (any, error) {
		return h.market.Portfolio(ctx, chainID, addresses, currency)
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, result)
}

// GetToken handles token metadata requests.
// GET /api/v1/chains/{chain_id}/tokens/{address}
func (h *Handlers) GetToken(w http.ResponseWriter, r *http.Request) {
	chainID, address, err := pathTarget(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	key := cache.MetadataKey(chainID, address)
	result, err := h.gateway.Execute(r.Context(), clientID(r), cache.CategoryTokenMetadata, key, func(ctx context.Context) (any, error) {
		return h.market.TokenMetadata(ctx, chainID, address)
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, result)
}

// GetHistory handles transaction history requests.
// GET /api/v1/chains/{chain_id}/tokens/{address}/history?page=1
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	chainID, address, err := pathTarget(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	page := 1
	if pageParam := r.URL.Query().Get("page"); pageParam != "" {
		parsed, err := strconv.Atoi(pageParam)
		if err != nil || parsed < 1 {
			h.writeError(w, badRequest("page must be a positive integer"))
			return
		}
		page = parsed
	}

	key := cache.HistoryKey(chainID, address, page)
	result, err := h.gateway.Execute(r.Context(), clientID(r), cache.CategoryTransactionHistory, key, func(ctx context.Context) (any, error) {
		return h.market.TransactionHistory(ctx, chainID, address, page)
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, result)
}

// GetLimits reports the calling client's current rate limit state without
// consuming a token.
// GET /api/v1/limits
func (h *Handlers) GetLimits(w http.ResponseWriter, r *http.Request) {
	id := clientID(r)
	resp := models.LimitsResponse{
		ClientID:     id,
		Limit:        h.limiter.Capacity(),
		Remaining:    h.limiter.Remaining(id),
		ResetSeconds: h.limiter.SecondsUntilReset(id),
	}

	h.writeJSONResponse(w, http.StatusOK, resp)
}

// GetCacheStats reports per-tier cache counters.
// GET /api/v1/cache/stats
func (h *Handlers) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	resp := models.CacheStatsResponse{}
	for _, s := range h.cache.TierStats() {
		resp.Tiers = append(resp.Tiers, models.TierStatsEntry{
			Tier:   string(s.Tier),
			Size:   s.Size,
			Hits:   s.Hits,
			Misses: s.Misses,
		})
	}

	h.writeJSONResponse(w, http.StatusOK, resp)
}

// HealthCheck handles health check requests.
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthCheckResponse{
		Status:    models.StatusHealthy,
		Timestamp: time.Now(),
		Version:   version.GetInfo().Version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	}

	h.writeJSONResponse(w, http.StatusOK, resp)
}

// writeJSONResponse writes a JSON response.
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing more to send.
		fmt.Printf("Error encoding JSON response: %v\n", err)
	}
}

// writeError maps domain errors onto HTTP status codes and a structured
// error body. Rate limit denials additionally carry backoff headers.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	var rateErr *gateway.RateLimitError
	if errors.As(err, &rateErr) {
		retryAfter := int64(rateErr.RetryAfter.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rateErr.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(rateErr.Remaining))
		w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
		h.writeJSONResponse(w, http.StatusTooManyRequests,
			models.NewErrorResponse("Rate limit exceeded", models.ErrorCodeRateLimited))
		return
	}

	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusNotFound {
			h.writeJSONResponse(w, http.StatusNotFound,
				models.NewErrorResponse("Resource not found upstream", models.ErrorCodeNotFound))
			return
		}
		h.writeJSONResponse(w, http.StatusBadGateway,
			models.NewErrorResponse("Upstream request failed", models.ErrorCodeUpstreamError))
		return
	}

	var valErr *validationError
	switch {
	case errors.As(err, &valErr):
		h.writeJSONResponse(w, http.StatusBadRequest,
			models.NewErrorResponse(valErr.msg, models.ErrorCodeBadRequest))
	case errors.Is(err, gateway.ErrInvalidClientID), errors.Is(err, gateway.ErrInvalidKey):
		h.writeJSONResponse(w, http.StatusBadRequest,
			models.NewErrorResponse(err.Error(), models.ErrorCodeBadRequest))
	default:
		h.writeJSONResponse(w, http.StatusInternalServerError,
			models.NewErrorResponse("Internal server error", models.ErrorCodeInternalError))
	}
}

// validationError marks request parsing failures so writeError can map them
// to 400 without string matching.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &validationError{msg: msg}
}

// pathChainID parses the chain_id path variable.
func pathChainID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["chain_id"]
	chainID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || chainID < 1 {
		return 0, badRequest("chain_id must be a positive integer")
	}
	return chainID, nil
}

// pathTarget parses the chain_id and address path variables.
func pathTarget(r *http.Request) (int64, string, error) {
	chainID, err := pathChainID(r)
	if err != nil {
		return 0, "", err
	}
	address := strings.TrimSpace(mux.Vars(r)["address"])
	if address == "" {
		return 0, "", badRequest("address is required")
	}
	return chainID, address, nil
}

// clientID identifies the caller for rate limiting purposes. API key callers
// get a stable identity across hosts; anonymous callers fall back to their
// source IP.
func clientID(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return "key:" + key
	}
	return "ip:" + clientIP(r)
}

// clientIP extracts the originating client address, honoring proxy headers
// when present.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// splitAndTrim splits a string by delimiter and trims whitespace.
func splitAndTrim(s, delim string) []string {
	if s == "" {
		return nil
	}

	parts := make([]string, 0)
	for _, part := range strings.Split(s, delim) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
