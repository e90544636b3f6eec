// internal/domain/currency.go
package domain

import (
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Currency identifies one of the fixed set of currencies the ledger tracks.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyBTC Currency = "BTC"
	CurrencyETH Currency = "ETH"
	CurrencySOL Currency = "SOL"
)

// currencyInfo describes how a currency is stored and seeded.
type currencyInfo struct {
	scale    int32 // decimal places kept in storage
	fiat     bool
	starting decimal.Decimal // balance for an account that has never transacted
}

// Fiat balances are tracked to 2 decimal places, crypto to 8.
// Only one fiat currency carries a nonzero starting allocation.
var currencies = map[Currency]currencyInfo{
	CurrencyUSD: {scale: 2, fiat: true, starting: decimal.NewFromInt(10000)},
	CurrencyEUR: {scale: 2, fiat: true, starting: decimal.Zero},
	CurrencyBTC: {scale: 8, starting: decimal.NewFromFloat(0.5)},
	CurrencyETH: {scale: 8, starting: decimal.NewFromInt(2)},
	CurrencySOL: {scale: 8, starting: decimal.NewFromInt(50)},
}

// Currencies returns the fixed set of supported currencies.
func Currencies() []Currency {
	return []Currency{CurrencyUSD, CurrencyEUR, CurrencyBTC, CurrencyETH, CurrencySOL}
}

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	_, ok := currencies[c]
	return ok
}

// IsFiat reports whether c is a fiat currency.
func (c Currency) IsFiat() bool {
	return currencies[c].fiat
}

// Scale returns the number of decimal places stored for c.
func (c Currency) Scale() int32 {
	return currencies[c].scale
}

// StartingAllocation returns the balance an account holds before its first
// recorded transaction in c.
func (c Currency) StartingAllocation() decimal.Decimal {
	return currencies[c].starting
}

// Truncate cuts d down to the currency's storage scale. Truncation is applied
// exactly once, at the point of storage; stored values are never re-rounded.
func (c Currency) Truncate(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(c.Scale())
}
