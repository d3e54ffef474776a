package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/sirupsen/logrus"

	"option-screener/interfaces"
	"option-screener/models"
)

const defaultDataBaseURL = "https://data.alpaca.markets"

// expirationLookahead bounds the contract-enumeration window. It is a
// superset of the largest DTE a screen request may ask for.
const expirationLookahead = 120 * 24 * time.Hour

// AlpacaMarketDataService implements interfaces.MarketDataService on top of
// Alpaca: the official client for stock prices, and the v1beta1 options
// endpoints for contract metadata and chain snapshots.
type AlpacaMarketDataService struct {
	apiKey    string
	secretKey string
	baseURL   string
	stocks    *marketdata.Client
	logger    *logrus.Logger
	client    *http.Client
}

// NewAlpacaMarketDataService creates a market data service. baseURL overrides
// the options data endpoint when non-empty (used by tests and sandboxes).
func NewAlpacaMarketDataService(apiKey, secretKey, baseURL string) *AlpacaMarketDataService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if baseURL == "" {
		baseURL = defaultDataBaseURL
	}

	return &AlpacaMarketDataService{
		apiKey:    apiKey,
		secretKey: secretKey,
		baseURL:   baseURL,
		stocks: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: secretKey,
		}),
		logger: logger,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// optionContractsResponse is the paginated contract-metadata response.
type optionContractsResponse struct {
	OptionContracts []optionContractDTO `json:"option_contracts"`
	NextPageToken   *string             `json:"next_page_token"`
}

// optionContractDTO is the contract metadata row.
type optionContractDTO struct {
	Symbol           string  `json:"symbol"`
	UnderlyingSymbol string  `json:"underlying_symbol"`
	ExpirationDate   string  `json:"expiration_date"`
	StrikePrice      float64 `json:"strike_price"`
	Type             string  `json:"type"` // "call" or "put"
	OpenInterest     int64   `json:"open_interest"`
}

// optionSnapshotsResponse is the paginated chain-snapshot response.
type optionSnapshotsResponse struct {
	Snapshots     map[string]optionSnapshotDTO `json:"snapshots"`
	NextPageToken *string                      `json:"next_page_token"`
}

// optionSnapshotDTO carries the market side of a contract. Greeks is nil when
// the feed does not compute greeks for the contract.
type optionSnapshotDTO struct {
	LatestQuote       optionQuoteDTO   `json:"latestQuote"`
	LatestTrade       optionTradeDTO   `json:"latestTrade"`
	DailyBar          optionBarDTO     `json:"dailyBar"`
	ImpliedVolatility float64          `json:"impliedVolatility"`
	Greeks            *optionGreeksDTO `json:"greeks"`
}

type optionQuoteDTO struct {
	Timestamp time.Time `json:"t"`
	BidPrice  float64   `json:"bp"`
	AskPrice  float64   `json:"ap"`
	BidSize   int       `json:"bs"`
	AskSize   int       `json:"as"`
}

type optionTradeDTO struct {
	Timestamp time.Time `json:"t"`
	Price     float64   `json:"p"`
	Size      int       `json:"s"`
}

type optionBarDTO struct {
	Close  float64 `json:"c"`
	Volume int64   `json:"v"`
}

type optionGreeksDTO struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// GetSpotPrice tries, in order: the latest trade, the most recent daily close,
// and the latest quote. The first strategy that yields a positive finite value
// wins; models.ErrNoPriceAvailable is returned when all three fail.
func (s *AlpacaMarketDataService) GetSpotPrice(ctx context.Context, symbol string) (float64, error) {
	if trade, err := s.stocks.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{}); err == nil {
		if usablePrice(trade.Price) {
			return trade.Price, nil
		}
	} else {
		s.logger.WithError(err).WithField("symbol", symbol).Debug("latest trade lookup failed")
	}

	if bars, err := s.stocks.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     time.Now().AddDate(0, 0, -7),
	}); err == nil && len(bars) > 0 {
		if closePrice := bars[len(bars)-1].Close; usablePrice(closePrice) {
			return closePrice, nil
		}
	} else if err != nil {
		s.logger.WithError(err).WithField("symbol", symbol).Debug("daily bar lookup failed")
	}

	if quote, err := s.stocks.GetLatestQuote(symbol, marketdata.GetLatestQuoteRequest{}); err == nil {
		switch {
		case usablePrice(quote.BidPrice) && usablePrice(quote.AskPrice):
			return (quote.BidPrice + quote.AskPrice) / 2, nil
		case usablePrice(quote.BidPrice):
			return quote.BidPrice, nil
		case usablePrice(quote.AskPrice):
			return quote.AskPrice, nil
		}
	} else {
		s.logger.WithError(err).WithField("symbol", symbol).Debug("latest quote lookup failed")
	}

	return 0, fmt.Errorf("%s: %w", symbol, models.ErrNoPriceAvailable)
}

func usablePrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

// ListExpirations enumerates the distinct expiration dates with listed
// contracts for the underlying, ascending.
func (s *AlpacaMarketDataService) ListExpirations(ctx context.Context, symbol string) ([]string, error) {
	today := time.Now()
	params := url.Values{}
	params.Set("underlying_symbols", symbol)
	params.Set("expiration_date_gte", today.Format("2006-01-02"))
	params.Set("expiration_date_lte", today.Add(expirationLookahead).Format("2006-01-02"))
	params.Set("limit", "1000")

	seen := make(map[string]struct{})
	for {
		var page optionContractsResponse
		if err := s.getJSON(ctx, "/v1beta1/options/contracts", params, &page); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", symbol, models.ErrExpirationRetrieval, err)
		}

		for _, contract := range page.OptionContracts {
			seen[contract.ExpirationDate] = struct{}{}
		}

		if page.NextPageToken == nil || *page.NextPageToken == "" {
			break
		}
		params.Set("page_token", *page.NextPageToken)
	}

	dates := make([]string, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	s.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"count":  len(dates),
	}).Debug("Fetched expirations")
	return dates, nil
}

// GetOptionChain joins contract metadata (strike, type, open interest) with
// chain snapshots (bid, last trade, volume, IV, greeks) for one expiration.
func (s *AlpacaMarketDataService) GetOptionChain(ctx context.Context, symbol, expiration string) (*interfaces.OptionChain, error) {
	expDate, err := time.Parse("2006-01-02", expiration)
	if err != nil {
		return nil, fmt.Errorf("invalid expiration %q: %w", expiration, err)
	}

	contracts, err := s.fetchContracts(ctx, symbol, expiration)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contracts for %s %s: %w", symbol, expiration, err)
	}

	snapshots, err := s.fetchSnapshots(ctx, symbol, expiration)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshots for %s %s: %w", symbol, expiration, err)
	}

	chain := &interfaces.OptionChain{
		UnderlyingSymbol: symbol,
		ExpirationDate:   expDate,
	}

	for _, meta := range contracts {
		row := &interfaces.OptionContract{
			Symbol:           meta.Symbol,
			UnderlyingSymbol: meta.UnderlyingSymbol,
			ContractType:     meta.Type,
			Strike:           meta.StrikePrice,
			ExpirationDate:   expDate,
			OpenInterest:     meta.OpenInterest,
		}

		if snap, ok := snapshots[meta.Symbol]; ok {
			row.Bid = snap.LatestQuote.BidPrice
			row.Ask = snap.LatestQuote.AskPrice
			row.LastPrice = snap.LatestTrade.Price
			row.Volume = snap.DailyBar.Volume
			row.ImpliedVolatility = snap.ImpliedVolatility
			if snap.Greeks != nil {
				row.Greeks = &interfaces.Greeks{
					Delta: snap.Greeks.Delta,
					Gamma: snap.Greeks.Gamma,
					Theta: snap.Greeks.Theta,
					Vega:  snap.Greeks.Vega,
					Rho:   snap.Greeks.Rho,
				}
			}
		}

		switch meta.Type {
		case "call":
			chain.Calls = append(chain.Calls, row)
		case "put":
			chain.Puts = append(chain.Puts, row)
		}
	}

	sort.Slice(chain.Calls, func(i, j int) bool { return chain.Calls[i].Strike < chain.Calls[j].Strike })
	sort.Slice(chain.Puts, func(i, j int) bool { return chain.Puts[i].Strike < chain.Puts[j].Strike })

	s.logger.WithFields(logrus.Fields{
		"symbol":     symbol,
		"expiration": expiration,
		"calls":      len(chain.Calls),
		"puts":       len(chain.Puts),
	}).Debug("Fetched option chain")
	return chain, nil
}

func (s *AlpacaMarketDataService) fetchContracts(ctx context.Context, symbol, expiration string) ([]optionContractDTO, error) {
	params := url.Values{}
	params.Set("underlying_symbols", symbol)
	params.Set("expiration_date", expiration)
	params.Set("limit", "1000")

	var contracts []optionContractDTO
	for {
		var page optionContractsResponse
		if err := s.getJSON(ctx, "/v1beta1/options/contracts", params, &page); err != nil {
			return nil, err
		}
		contracts = append(contracts, page.OptionContracts...)

		if page.NextPageToken == nil || *page.NextPageToken == "" {
			return contracts, nil
		}
		params.Set("page_token", *page.NextPageToken)
	}
}

func (s *AlpacaMarketDataService) fetchSnapshots(ctx context.Context, symbol, expiration string) (map[string]optionSnapshotDTO, error) {
	params := url.Values{}
	params.Set("expiration_date", expiration)
	params.Set("limit", "1000")

	snapshots := make(map[string]optionSnapshotDTO)
	for {
		var page optionSnapshotsResponse
		if err := s.getJSON(ctx, "/v1beta1/options/snapshots/"+symbol, params, &page); err != nil {
			return nil, err
		}
		for sym, snap := range page.Snapshots {
			snapshots[sym] = snap
		}

		if page.NextPageToken == nil || *page.NextPageToken == "" {
			return snapshots, nil
		}
		params.Set("page_token", *page.NextPageToken)
	}
}

func (s *AlpacaMarketDataService) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := fmt.Sprintf("%s%s?%s", s.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("APCA-API-KEY-ID", s.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", s.secretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
