package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseRequest() ScreenRequest {
	return ScreenRequest{
		Ticker:   "AAPL",
		MinDTE:   30,
		MaxDTE:   45,
		MinOTM:   0.05,
		MaxOTM:   0.15,
		Strategy: StrategyCashSecuredPut,
	}
}

func TestScreenRequestValidate(t *testing.T) {
	t.Run("valid request passes", func(t *testing.T) {
		req := baseRequest()
		assert.NoError(t, req.Validate())
	})

	cases := []struct {
		name   string
		mutate func(*ScreenRequest)
		field  string
	}{
		{"missing ticker", func(r *ScreenRequest) { r.Ticker = "" }, "ticker"},
		{"min dte below bound", func(r *ScreenRequest) { r.MinDTE = 0 }, "dte"},
		{"max dte above bound", func(r *ScreenRequest) { r.MaxDTE = 91 }, "dte"},
		{"min dte not below max", func(r *ScreenRequest) { r.MinDTE = 45; r.MaxDTE = 45 }, "dte"},
		{"inverted dte band", func(r *ScreenRequest) { r.MinDTE = 45; r.MaxDTE = 30 }, "dte"},
		{"min otm below bound", func(r *ScreenRequest) { r.MinOTM = 0.005 }, "otm"},
		{"max otm above bound", func(r *ScreenRequest) { r.MaxOTM = 0.35 }, "otm"},
		{"inverted otm band", func(r *ScreenRequest) { r.MinOTM = 0.15; r.MaxOTM = 0.05 }, "otm"},
		{"unknown strategy", func(r *ScreenRequest) { r.Strategy = "straddle" }, "strategy"},
		{"empty strategy", func(r *ScreenRequest) { r.Strategy = "" }, "strategy"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := baseRequest()
			tc.mutate(&req)

			err := req.Validate()

			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestScreenRequestNormalize(t *testing.T) {
	req := baseRequest()
	req.Ticker = "  dpst "

	req.Normalize()

	assert.Equal(t, "DPST", req.Ticker)
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(&ValidationError{Field: "dte", Message: "bad"}))
	assert.True(t, IsValidationError(fmt.Errorf("wrapped: %w", &ValidationError{Field: "otm"})))
	assert.False(t, IsValidationError(ErrNoPriceAvailable))
	assert.False(t, IsValidationError(nil))
}

func TestStrategyValid(t *testing.T) {
	assert.True(t, StrategyCashSecuredPut.Valid())
	assert.True(t, StrategyCoveredCall.Valid())
	assert.False(t, Strategy("iron_condor").Valid())
}
