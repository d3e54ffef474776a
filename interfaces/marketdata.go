package interfaces

import (
	"context"
	"time"
)

// Quote is a point-in-time spot price for an underlying symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Greeks holds the greek values a data provider may attach to a contract.
// Providers without a greeks feed leave the pointer nil on the contract.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// OptionContract is one listed contract row as returned by the provider.
type OptionContract struct {
	Symbol            string    `json:"symbol"` // OCC symbol, e.g. "AAPL240621P00180000"
	UnderlyingSymbol  string    `json:"underlying_symbol"`
	ContractType      string    `json:"contract_type"` // "call" or "put"
	Strike            float64   `json:"strike"`
	ExpirationDate    time.Time `json:"expiration_date"`
	Bid               float64   `json:"bid"`
	Ask               float64   `json:"ask"`
	LastPrice         float64   `json:"last_price"`
	Volume            int64     `json:"volume"`
	OpenInterest      int64     `json:"open_interest"`
	ImpliedVolatility float64   `json:"implied_volatility,omitempty"`
	Greeks            *Greeks   `json:"greeks,omitempty"`
}

// OptionChain groups the contracts listed for a single expiration.
type OptionChain struct {
	UnderlyingSymbol string            `json:"underlying_symbol"`
	ExpirationDate   time.Time         `json:"expiration_date"`
	Calls            []*OptionContract `json:"calls"`
	Puts             []*OptionContract `json:"puts"`
}

// MarketDataService defines the provider operations the screener consumes.
type MarketDataService interface {
	// GetSpotPrice returns the current price of the underlying, trying the
	// provider's retrieval strategies in order until one yields a usable value.
	GetSpotPrice(ctx context.Context, symbol string) (float64, error)

	// ListExpirations returns the available expiration dates for the symbol
	// as "2006-01-02" strings, ascending.
	ListExpirations(ctx context.Context, symbol string) ([]string, error)

	// GetOptionChain returns the call and put contracts listed for one expiration.
	GetOptionChain(ctx context.Context, symbol, expiration string) (*OptionChain, error)
}
