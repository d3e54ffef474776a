package services

import (
	"context"
	"fmt"

	"option-screener/interfaces"
)

// mockMarketData is a scriptable in-memory MarketDataService.
type mockMarketData struct {
	spot           float64
	spotErr        error
	spotCalls      int
	expirations    []string
	expirationsErr error
	chains         map[string]*interfaces.OptionChain
	chainErrs      map[string]error
}

func newMockMarketData() *mockMarketData {
	return &mockMarketData{
		chains:    make(map[string]*interfaces.OptionChain),
		chainErrs: make(map[string]error),
	}
}

func (m *mockMarketData) GetSpotPrice(ctx context.Context, symbol string) (float64, error) {
	m.spotCalls++
	if m.spotErr != nil {
		return 0, m.spotErr
	}
	return m.spot, nil
}

func (m *mockMarketData) ListExpirations(ctx context.Context, symbol string) ([]string, error) {
	if m.expirationsErr != nil {
		return nil, m.expirationsErr
	}
	return m.expirations, nil
}

func (m *mockMarketData) GetOptionChain(ctx context.Context, symbol, expiration string) (*interfaces.OptionChain, error) {
	if err, ok := m.chainErrs[expiration]; ok {
		return nil, err
	}
	chain, ok := m.chains[expiration]
	if !ok {
		return nil, fmt.Errorf("no chain scripted for %s", expiration)
	}
	return chain, nil
}
