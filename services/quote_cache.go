package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"option-screener/interfaces"
)

// DefaultQuoteTTL bounds how long a fetched spot price may be served before a
// fresh provider call is made.
const DefaultQuoteTTL = 5 * time.Minute

// QuoteCache is a TTL-bounded spot-price cache keyed by ticker. All access
// goes through GetOrFetch; entries past their TTL are refetched in place.
type QuoteCache struct {
	data   interfaces.MarketDataService
	ttl    time.Duration
	now    func() time.Time
	logger *logrus.Logger

	mu      sync.Mutex
	entries map[string]interfaces.Quote
}

// NewQuoteCache creates a quote cache in front of the given data service.
// A non-positive ttl falls back to DefaultQuoteTTL.
func NewQuoteCache(data interfaces.MarketDataService, ttl time.Duration) *QuoteCache {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}

	return &QuoteCache{
		data:    data,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		entries: make(map[string]interfaces.Quote),
	}
}

// TTL returns the configured entry lifetime.
func (c *QuoteCache) TTL() time.Duration {
	return c.ttl
}

// GetOrFetch returns the cached quote for the symbol, fetching from the
// provider when the entry is missing or older than the TTL.
func (c *QuoteCache) GetOrFetch(ctx context.Context, symbol string) (interfaces.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if quote, ok := c.entries[symbol]; ok && c.now().Sub(quote.FetchedAt) < c.ttl {
		return quote, nil
	}

	price, err := c.data.GetSpotPrice(ctx, symbol)
	if err != nil {
		return interfaces.Quote{}, err
	}

	quote := interfaces.Quote{
		Symbol:    symbol,
		Price:     price,
		FetchedAt: c.now(),
	}
	c.entries[symbol] = quote

	c.logger.WithFields(logrus.Fields{
		"symbol": symbol,
		"price":  price,
	}).Debug("Cached quote")
	return quote, nil
}

// Invalidate drops the cached entry for the symbol, if any.
func (c *QuoteCache) Invalidate(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, symbol)
}

// Refresh drops any cached entry and fetches a fresh quote.
func (c *QuoteCache) Refresh(ctx context.Context, symbol string) (interfaces.Quote, error) {
	c.Invalidate(symbol)
	return c.GetOrFetch(ctx, symbol)
}
