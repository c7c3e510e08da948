package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricegate/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(models.UpstreamConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
}

func TestSpotPrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chains/1/tokens/0xabc/price", r.URL.Path)
		assert.Equal(t, "USD", r.URL.Query().Get("currency"))
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))

		json.NewEncoder(w).Encode(models.Price{
			ChainID:  1,
			Address:  "0xabc",
			Currency: "USD",
			Price:    1234.56,
		})
	})

	price, err := client.SpotPrice(context.Background(), 1, "0xABC", "USD")
	require.NoError(t, err)
	assert.Equal(t, 1234.56, price.Price)
	assert.Equal(t, "USD", price.Currency)
}

func TestSpotPrice_AddressLowercasedInPath(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(models.Price{})
	})

	_, err := client.SpotPrice(context.Background(), 137, "0xDeAdBeEf", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "/v1/chains/137/tokens/0xdeadbeef/price", gotPath)
}

func TestBalances(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chains/1/balances", r.URL.Path)
		assert.Equal(t, "0xaaa,0xbbb", r.URL.Query().Get("addresses"))

		json.NewEncoder(w).Encode(models.Balances{
			ChainID: 1,
			Balances: []models.TokenBalance{
				{Address: "0xaaa", Token: "0xusdc", Symbol: "USDC", Amount: "1000000", Decimals: 6},
			},
		})
	})

	balances, err := client.Balances(context.Background(), 1, []string{"0xAAA", "0xBBB"})
	require.NoError(t, err)
	require.Len(t, balances.Balances, 1)
	assert.Equal(t, "USDC", balances.Balances[0].Symbol)
}

func TestSwapQuote(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chains/1/quote", r.URL.Path)
		assert.Equal(t, "0xfrom", r.URL.Query().Get("from"))
		assert.Equal(t, "0xto", r.URL.Query().Get("to"))
		assert.Equal(t, "1000", r.URL.Query().Get("amount"))

		json.NewEncoder(w).Encode(models.SwapQuote{AmountOut: "995"})
	})

	quote, err := client.SwapQuote(context.Background(), 1, "0xFROM", "0xTO", "1000")
	require.NoError(t, err)
	assert.Equal(t, "995", quote.AmountOut)
}

func TestGasEstimate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chains/8453/gas", r.URL.Path)
		json.NewEncoder(w).Encode(models.GasEstimate{ChainID: 8453, BaseFee: "9000000000"})
	})

	gas, err := client.GasEstimate(context.Background(), 8453)
	require.NoError(t, err)
	assert.Equal(t, "9000000000", gas.BaseFee)
}

func TestTokenList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chains/1/tokens", r.URL.Path)
		json.NewEncoder(w).Encode(models.TokenList{
			ChainID: 1,
			Tokens:  []models.TokenMetadata{{Symbol: "WETH"}, {Symbol: "USDC"}},
		})
	})

	list, err := client.TokenList(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, list.Tokens, 2)
}

func TestPortfolio(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chains/1/portfolio", r.URL.Path)
		assert.Equal(t, "0xaaa,0xbbb", r.URL.Query().Get("addresses"))
		assert.Equal(t, "USD", r.URL.Query().Get("currency"))

		json.NewEncoder(w).Encode(models.Portfolio{ChainID: 1, TotalValue: 1500.25, Currency: "USD"})
	})

	portfolio, err := client.Portfolio(context.Background(), 1, []string{"0xAAA", "0xBBB"}, "USD")
	require.NoError(t, err)
	assert.Equal(t, 1500.25, portfolio.TotalValue)
}

func TestTokenMetadata(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chains/1/tokens/0xabc", r.URL.Path)
		json.NewEncoder(w).Encode(models.TokenMetadata{Symbol: "WETH", Decimals: 18})
	})

	meta, err := client.TokenMetadata(context.Background(), 1, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "WETH", meta.Symbol)
	assert.Equal(t, 18, meta.Decimals)
}

func TestTransactionHistory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chains/1/tokens/0xabc/history", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("page"))

		json.NewEncoder(w).Encode(models.TransactionPage{Page: 3, HasMore: true})
	})

	page, err := client.TransactionHistory(context.Background(), 1, "0xabc", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page)
	assert.True(t, page.HasMore)
}

func TestGet_Non2xxReturnsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token not found", http.StatusNotFound)
	})

	_, err := client.SpotPrice(context.Background(), 1, "0xabc", "USD")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "token not found", apiErr.Message)
}

func TestGet_MalformedJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	})

	_, err := client.SpotPrice(context.Background(), 1, "0xabc", "USD")
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "decode failures are not APIErrors")
}

func TestGet_ContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.SpotPrice(ctx, 1, "0xabc", "USD")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient(models.UpstreamConfig{BaseURL: "https://api.example.com/", Timeout: time.Second})
	assert.Equal(t, "https://api.example.com", c.baseURL)
}

func TestGet_NoAPIKeyHeaderWhenUnset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["X-Api-Key"]
		assert.False(t, present, "no API key header expected")
		json.NewEncoder(w).Encode(models.Price{})
	}))
	defer srv.Close()

	client := NewClient(models.UpstreamConfig{BaseURL: srv.URL, Timeout: time.Second})
	_, err := client.SpotPrice(context.Background(), 1, "0xabc", "USD")
	require.NoError(t, err)
}
