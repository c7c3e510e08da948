// Package upstream implements the HTTP client for the third-party market
// data API that pricegate fronts. Every request carries the configured API
// key and is bounded by the client timeout. There is no retry loop here:
// failed fetches surface immediately and the cache layer decides what
// happens next.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"pricegate/internal/models"
)

// APIError reports a non-2xx upstream response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the upstream market data API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a client for the configured upstream. The timeout
// applies to every request, including body reads.
func NewClient(cfg models.UpstreamConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
	}
}

// SpotPrice fetches the current price of a token in the given currency.
func (c *Client) SpotPrice(ctx context.Context, chainID int64, address, currency string) (*models.Price, error) {
	query := url.Values{"currency": {currency}}
	var out models.Price
	path := fmt.Sprintf("/v1/chains/%d/tokens/%s/price", chainID, strings.ToLower(address))
	if err := c.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Balances fetches token balances for a set of addresses on one chain.
func (c *Client) Balances(ctx context.Context, chainID int64, addresses []string) (*models.Balances, error) {
	query := url.Values{"addresses": {strings.ToLower(strings.Join(addresses, ","))}}
	var out models.Balances
	path := fmt.Sprintf("/v1/chains/%d/balances", chainID)
	if err := c.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SwapQuote fetches an indicative quote for swapping amount of fromToken
// into toToken.
func (c *Client) SwapQuote(ctx context.Context, chainID int64, fromToken, toToken, amount string) (*models.SwapQuote, error) {
	query := url.Values{
		"from":   {strings.ToLower(fromToken)},
		"to":     {strings.ToLower(toToken)},
		"amount": {amount},
	}
	var out models.SwapQuote
	path := fmt.Sprintf("/v1/chains/%d/quote", chainID)
	if err := c.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GasEstimate fetches current fee guidance for a chain.
func (c *Client) GasEstimate(ctx context.Context, chainID int64) (*models.GasEstimate, error) {
	var out models.GasEstimate
	path := fmt.Sprintf("/v1/chains/%d/gas", chainID)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TokenList fetches the set of tokens known on a chain.
func (c *Client) TokenList(ctx context.Context, chainID int64) (*models.TokenList, error) {
	var out models.TokenList
	path := fmt.Sprintf("/v1/chains/%d/tokens", chainID)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Portfolio fetches an aggregate valuation of a set of addresses.
func (c *Client) Portfolio(ctx context.Context, chainID int64, addresses []string, currency string) (*models.Portfolio, error) {
	query := url.Values{
		"addresses": {strings.ToLower(strings.Join(addresses, ","))},
		"currency":  {currency},
	}
	var out models.Portfolio
	path := fmt.Sprintf("/v1/chains/%d/portfolio", chainID)
	if err := c.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TokenMetadata fetches the descriptor of a token contract.
func (c *Client) TokenMetadata(ctx context.Context, chainID int64, address string) (*models.TokenMetadata, error) {
	var out models.TokenMetadata
	path := fmt.Sprintf("/v1/chains/%d/tokens/%s", chainID, strings.ToLower(address))
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TransactionHistory fetches one page of an address's transaction history.
func (c *Client) TransactionHistory(ctx context.Context, chainID int64, address string, page int) (*models.TransactionPage, error) {
	query := url.Values{"page": {strconv.Itoa(page)}}
	var out models.TransactionPage
	path := fmt.Sprintf("/v1/chains/%d/tokens/%s/history", chainID, strings.ToLower(address))
	if err := c.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode upstream response: %w", err)
	}
	return nil
}
