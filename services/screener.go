package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"option-screener/interfaces"
	"option-screener/models"
)

// contractSize is the share multiplier of a standard equity option.
const contractSize = 100

// daysPerYear is the day count used to annualize premium income.
const daysPerYear = 365.0

// Screener runs the screening pipeline: spot quote, expiration filter,
// per-expiration contract filter and return estimation, ranked concatenation.
type Screener struct {
	data   interfaces.MarketDataService
	quotes *QuoteCache
	logger *logrus.Logger
	now    func() time.Time
}

// NewScreener creates a screener over the given data service and quote cache.
func NewScreener(data interfaces.MarketDataService, quotes *QuoteCache) *Screener {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &Screener{
		data:   data,
		quotes: quotes,
		logger: logger,
		now:    time.Now,
	}
}

// FilterExpirations keeps the dates whose whole-day distance from now falls
// inside [minDTE, maxDTE], preserving source order. Dates that do not parse
// as "2006-01-02" are skipped. An empty result is a valid empty state.
func FilterExpirations(dates []string, minDTE, maxDTE int, now time.Time) []models.Expiration {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var candidates []models.Expiration
	for _, date := range dates {
		expDate, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}

		dte := int(expDate.Sub(today).Hours() / 24)
		if dte >= minDTE && dte <= maxDTE {
			candidates = append(candidates, models.Expiration{Date: date, DTE: dte})
		}
	}
	return candidates
}

// ScreenChain filters one expiration's contracts by the OTM strike band and
// derives premium, collateral and the annualized-return estimate per row.
// Rows without a positive executable premium are dropped. dte must be
// positive; a non-positive dte yields no opportunities.
func ScreenChain(contracts []*interfaces.OptionContract, dte int, spot, minOTM, maxOTM float64, strategy models.Strategy) []models.Opportunity {
	if dte <= 0 || spot <= 0 {
		return nil
	}

	var minStrike, maxStrike float64
	switch strategy {
	case models.StrategyCashSecuredPut:
		// OTM puts sit below spot.
		minStrike = spot * (1 - maxOTM)
		maxStrike = spot * (1 - minOTM)
	case models.StrategyCoveredCall:
		// OTM calls sit above spot.
		minStrike = spot * (1 + minOTM)
		maxStrike = spot * (1 + maxOTM)
	default:
		return nil
	}

	var opportunities []models.Opportunity
	for _, c := range contracts {
		if c.Strike < minStrike || c.Strike > maxStrike {
			continue
		}

		premium := c.Bid
		if premium <= 0 {
			premium = c.LastPrice
		}
		if premium <= 0 {
			continue
		}

		var collateral float64
		if strategy == models.StrategyCashSecuredPut {
			collateral = c.Strike * contractSize
		} else {
			collateral = spot * contractSize
		}
		if collateral <= 0 {
			continue
		}

		annualized := (premium * contractSize / collateral) * (daysPerYear / float64(dte))

		opp := models.Opportunity{
			ContractSymbol:   c.Symbol,
			Strike:           c.Strike,
			DTE:              dte,
			Premium:          premium,
			Collateral:       collateral,
			AnnualizedReturn: annualized,
			Volume:           c.Volume,
			OpenInterest:     c.OpenInterest,
		}

		if c.Greeks != nil {
			opp.RiskProxy = math.Abs(c.Greeks.Delta)
			opp.HasGreeks = true
		} else {
			// Distance heuristic, not a real delta.
			opp.RiskProxy = math.Abs(c.Strike-spot) / spot
		}

		opportunities = append(opportunities, opp)
	}
	return opportunities
}

// Run executes one screening request: spot via the quote cache, expiration
// filter, per-expiration screen with chain failures skipped, ranked result.
func (s *Screener) Run(ctx context.Context, req models.ScreenRequest) (*models.ScreenResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"ticker":   req.Ticker,
		"strategy": req.Strategy,
		"dte":      fmt.Sprintf("%d-%d", req.MinDTE, req.MaxDTE),
		"otm":      fmt.Sprintf("%.2f-%.2f", req.MinOTM, req.MaxOTM),
	}).Info("Starting screen")

	quote, err := s.quotes.GetOrFetch(ctx, req.Ticker)
	if err != nil {
		return nil, err
	}

	result := &models.ScreenResult{
		Ticker:        req.Ticker,
		Strategy:      req.Strategy,
		Spot:          quote.Price,
		Opportunities: []models.Opportunity{},
		GeneratedAt:   s.now(),
	}

	dates, err := s.data.ListExpirations(ctx, req.Ticker)
	if err != nil {
		if !errors.Is(err, models.ErrExpirationRetrieval) {
			err = fmt.Errorf("%w: %v", models.ErrExpirationRetrieval, err)
		}
		return nil, err
	}

	candidates := FilterExpirations(dates, req.MinDTE, req.MaxDTE, s.now())
	result.ExpirationsConsidered = len(candidates)
	if len(candidates) == 0 {
		s.logger.WithField("ticker", req.Ticker).Info("No expirations in DTE window")
		return result, nil
	}

	for _, exp := range candidates {
		chain, err := s.data.GetOptionChain(ctx, req.Ticker, exp.Date)
		if err != nil {
			// A failed expiration contributes zero rows; the run continues.
			result.ExpirationsSkipped++
			s.logger.WithError(err).WithFields(logrus.Fields{
				"ticker":     req.Ticker,
				"expiration": exp.Date,
			}).Warn("Skipping expiration, chain retrieval failed")
			continue
		}

		contracts := chain.Puts
		if req.Strategy == models.StrategyCoveredCall {
			contracts = chain.Calls
		}

		opportunities := ScreenChain(contracts, exp.DTE, quote.Price, req.MinOTM, req.MaxOTM, req.Strategy)
		result.Opportunities = append(result.Opportunities, opportunities...)
	}

	sort.SliceStable(result.Opportunities, func(i, j int) bool {
		return result.Opportunities[i].AnnualizedReturn > result.Opportunities[j].AnnualizedReturn
	})

	s.logger.WithFields(logrus.Fields{
		"ticker":        req.Ticker,
		"spot":          quote.Price,
		"expirations":   result.ExpirationsConsidered,
		"skipped":       result.ExpirationsSkipped,
		"opportunities": len(result.Opportunities),
	}).Info("Screen complete")
	return result, nil
}
