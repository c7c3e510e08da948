package cache

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Canonical cache keys. Two semantically identical requests must produce
// byte-identical keys, and only semantically identical requests may share
// one. Every builder leads with a kind token so different lookups never
// collide inside a shared tier. Fields are joined in a fixed order with
// ':', addresses are lower-cased, address sets are sorted, chain ids are
// stringified with strconv (no locale formatting) and currency codes are
// upper-cased. Caller-controlled fields are escaped so an embedded
// separator cannot shift field boundaries.

// portfolioBucket is the window portfolio snapshot keys are truncated to,
// matching the medium tier's freshness expectations.
const portfolioBucket = 5 * time.Minute

// PriceKey builds the key for a spot price lookup.
func PriceKey(chainID int64, address, currency string) string {
	return join("price", chain(chainID), addr(address), cur(currency))
}

// QuoteKey builds the key for a swap quote. Amount is the raw integer amount
// string as sent upstream.
func QuoteKey(chainID int64, fromToken, toToken, amount string) string {
	return join("quote", chain(chainID), addr(fromToken), addr(toToken), escapeField(amount))
}

// GasKey builds the key for a chain gas estimate.
func GasKey(chainID int64) string {
	return join("gas", chain(chainID))
}

// BalancesKey builds the key for a balances lookup over a set of addresses.
// The set is sorted so the caller's ordering does not matter.
func BalancesKey(chainID int64, addresses []string) string {
	return join("balances", chain(chainID), addrSet(addresses))
}

// PortfolioKey builds the key for a portfolio snapshot, bucketing the
// requested time so nearby requests share an entry.
func PortfolioKey(chainID int64, addresses []string, currency string, at time.Time) string {
	bucket := at.Truncate(portfolioBucket).Unix()
	return join("portfolio", chain(chainID), addrSet(addresses), cur(currency), strconv.FormatInt(bucket, 10))
}

// MetadataKey builds the key for token metadata.
func MetadataKey(chainID int64, address string) string {
	return join("token", chain(chainID), addr(address))
}

// TokenListKey builds the key for a chain's token list.
func TokenListKey(chainID int64) string {
	return join("tokens", chain(chainID))
}

// HistoryKey builds the key for one page of an address's transaction
// history.
func HistoryKey(chainID int64, address string, page int) string {
	return join("history", chain(chainID), addr(address), strconv.Itoa(page))
}

func join(fields ...string) string {
	return strings.Join(fields, ":")
}

func chain(chainID int64) string {
	return strconv.FormatInt(chainID, 10)
}

func addr(address string) string {
	return escapeField(strings.ToLower(strings.TrimSpace(address)))
}

func cur(currency string) string {
	return escapeField(strings.ToUpper(strings.TrimSpace(currency)))
}

// escapeField neutralizes the key separators in caller-controlled input.
// Addresses, currencies and amounts never legitimately contain them, but
// path and query variables arrive unvalidated.
func escapeField(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, ":", "%3a")
	return strings.ReplaceAll(s, ",", "%2c")
}

func addrSet(addresses []string) string {
	lowered := make([]string, len(addresses))
	for i, a := range addresses {
		lowered[i] = addr(a)
	}
	sort.Strings(lowered)
	return strings.Join(lowered, ",")
}
