package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Strategy selects which options-selling strategy a screen evaluates.
type Strategy string

const (
	StrategyCashSecuredPut Strategy = "cash_secured_put"
	StrategyCoveredCall    Strategy = "covered_call"
)

// Valid reports whether the strategy is one of the supported variants.
func (s Strategy) Valid() bool {
	return s == StrategyCashSecuredPut || s == StrategyCoveredCall
}

// Input bounds for a screen request.
const (
	MinDTEBound = 1
	MaxDTEBound = 90
	MinOTMBound = 0.01
	MaxOTMBound = 0.30
)

// Sentinel errors surfaced by the screening pipeline.
var (
	// ErrNoPriceAvailable means every spot-price retrieval strategy failed.
	ErrNoPriceAvailable = errors.New("no price available")

	// ErrExpirationRetrieval means the provider could not enumerate expirations.
	ErrExpirationRetrieval = errors.New("failed to retrieve expirations")
)

// ValidationError rejects a request before any network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is a request validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ScreenRequest is the input configuration for one screening run.
type ScreenRequest struct {
	Ticker   string   `json:"ticker"`
	MinDTE   int      `json:"min_dte"`
	MaxDTE   int      `json:"max_dte"`
	MinOTM   float64  `json:"min_otm"`
	MaxOTM   float64  `json:"max_otm"`
	Strategy Strategy `json:"strategy"`
}

// Normalize upper-cases the ticker in place.
func (r *ScreenRequest) Normalize() {
	r.Ticker = strings.ToUpper(strings.TrimSpace(r.Ticker))
}

// Validate checks the request bounds before any network call.
func (r *ScreenRequest) Validate() error {
	if r.Ticker == "" {
		return &ValidationError{Field: "ticker", Message: "ticker is required"}
	}
	if r.MinDTE < MinDTEBound || r.MaxDTE > MaxDTEBound {
		return &ValidationError{
			Field:   "dte",
			Message: fmt.Sprintf("days to expiration must be within %d-%d", MinDTEBound, MaxDTEBound),
		}
	}
	if r.MinDTE >= r.MaxDTE {
		return &ValidationError{Field: "dte", Message: "min_dte must be less than max_dte"}
	}
	if r.MinOTM < MinOTMBound || r.MaxOTM > MaxOTMBound {
		return &ValidationError{
			Field:   "otm",
			Message: fmt.Sprintf("OTM percentage must be within %.2f-%.2f", MinOTMBound, MaxOTMBound),
		}
	}
	if r.MinOTM >= r.MaxOTM {
		return &ValidationError{Field: "otm", Message: "min_otm must be less than max_otm"}
	}
	if !r.Strategy.Valid() {
		return &ValidationError{
			Field:   "strategy",
			Message: fmt.Sprintf("strategy must be %q or %q", StrategyCashSecuredPut, StrategyCoveredCall),
		}
	}
	return nil
}

// Expiration is a candidate expiration date inside the requested DTE band.
type Expiration struct {
	Date string `json:"date"` // "2006-01-02"
	DTE  int    `json:"dte"`
}

// Opportunity is one contract that passed the screen, annotated with the
// derived premium, collateral and annualized-return estimate.
type Opportunity struct {
	ContractSymbol   string  `json:"contract_symbol"`
	Strike           float64 `json:"strike"`
	DTE              int     `json:"dte"`
	Premium          float64 `json:"premium"`
	Collateral       float64 `json:"collateral"`
	AnnualizedReturn float64 `json:"annualized_return"`
	// RiskProxy is abs(delta) when the provider supplied greeks; otherwise
	// abs(strike-spot)/spot, a distance heuristic rather than a true delta.
	RiskProxy    float64 `json:"risk_proxy"`
	HasGreeks    bool    `json:"has_greeks"`
	Volume       int64   `json:"volume"`
	OpenInterest int64   `json:"open_interest"`
}

// ScreenResult is the outcome of one screening run, ranked by annualized
// return descending. An empty Opportunities slice with a populated Spot is a
// valid terminal state, not a failure.
type ScreenResult struct {
	Ticker                string        `json:"ticker"`
	Strategy              Strategy      `json:"strategy"`
	Spot                  float64       `json:"spot"`
	Opportunities         []Opportunity `json:"opportunities"`
	ExpirationsConsidered int           `json:"expirations_considered"`
	ExpirationsSkipped    int           `json:"expirations_skipped"`
	GeneratedAt           time.Time     `json:"generated_at"`
}
