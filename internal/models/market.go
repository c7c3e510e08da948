// Package models - market data shapes returned by the upstream API and
// passed through the cache untransformed.
package models

import "time"

// Price is a spot price for one token in one display currency.
type Price struct {
	ChainID   int64     `json:"chain_id"`
	Address   string    `json:"address"`
	Currency  string    `json:"currency"`
	Price     float64   `json:"price"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TokenBalance is one token position held by one address. Amount is the raw
// integer amount as a string; callers apply Decimals for display.
type TokenBalance struct {
	Address  string `json:"address"`
	Token    string `json:"token"`
	Symbol   string `json:"symbol"`
	Amount   string `json:"amount"`
	Decimals int    `json:"decimals"`
}

// Balances is the full position set for a group of addresses on one chain.
type Balances struct {
	ChainID  int64          `json:"chain_id"`
	Balances []TokenBalance `json:"balances"`
}

// SwapQuote is an indicative quote for swapping AmountIn of FromToken into
// ToToken.
type SwapQuote struct {
	ChainID     int64     `json:"chain_id"`
	FromToken   string    `json:"from_token"`
	ToToken     string    `json:"to_token"`
	AmountIn    string    `json:"amount_in"`
	AmountOut   string    `json:"amount_out"`
	PriceImpact float64   `json:"price_impact"`
	GasEstimate string    `json:"gas_estimate"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenMetadata is the relatively static descriptor of a token contract.
type TokenMetadata struct {
	ChainID  int64  `json:"chain_id"`
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	LogoURL  string `json:"logo_url,omitempty"`
}

// GasEstimate is the current fee guidance for a chain. Fees are raw integer
// wei amounts as strings.
type GasEstimate struct {
	ChainID     int64     `json:"chain_id"`
	BaseFee     string    `json:"base_fee"`
	PriorityFee string    `json:"priority_fee"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TokenList is the set of tokens known on one chain.
type TokenList struct {
	ChainID int64           `json:"chain_id"`
	Tokens  []TokenMetadata `json:"tokens"`
}

// Portfolio is an aggregate valuation of a set of addresses at a point in
// time.
type Portfolio struct {
	ChainID    int64     `json:"chain_id"`
	Addresses  []string  `json:"addresses"`
	TotalValue float64   `json:"total_value"`
	Currency   string    `json:"currency"`
	AsOf       time.Time `json:"as_of"`
}

// Transaction is a single historical transfer involving an address.
type Transaction struct {
	Hash      string    `json:"hash"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Value     string    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// TransactionPage is one page of an address's transaction history.
type TransactionPage struct {
	ChainID      int64         `json:"chain_id"`
	Address      string        `json:"address"`
	Page         int           `json:"page"`
	Transactions []Transaction `json:"transactions"`
	HasMore      bool          `json:"has_more"`
}
