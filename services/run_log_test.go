package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"option-screener/models"
)

func TestRunLog(t *testing.T) {
	t.Run("returns newest first", func(t *testing.T) {
		l := NewRunLog(10)
		l.Record(RunRecord{Timestamp: time.Now(), Request: models.ScreenRequest{Ticker: "AAPL"}})
		l.Record(RunRecord{Timestamp: time.Now(), Request: models.ScreenRequest{Ticker: "TSLA"}})

		runs := l.Recent()

		require.Len(t, runs, 2)
		assert.Equal(t, "TSLA", runs[0].Request.Ticker)
		assert.Equal(t, "AAPL", runs[1].Request.Ticker)
	})

	t.Run("evicts oldest past the limit", func(t *testing.T) {
		l := NewRunLog(2)
		for _, ticker := range []string{"A", "B", "C"} {
			l.Record(RunRecord{Request: models.ScreenRequest{Ticker: ticker}})
		}

		runs := l.Recent()

		require.Len(t, runs, 2)
		assert.Equal(t, "C", runs[0].Request.Ticker)
		assert.Equal(t, "B", runs[1].Request.Ticker)
	})
}
