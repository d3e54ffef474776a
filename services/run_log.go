package services

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"option-screener/models"
)

// RunRecord is one completed screening run as shown in the activity feed.
type RunRecord struct {
	Timestamp          time.Time            `json:"timestamp"`
	Request            models.ScreenRequest `json:"request"`
	Spot               float64              `json:"spot"`
	Opportunities      int                  `json:"opportunities"`
	ExpirationsSkipped int                  `json:"expirations_skipped"`
	Duration           time.Duration        `json:"duration_ns"`
	Err                string               `json:"error,omitempty"`
}

// RunLog keeps a bounded, in-memory record of recent screening runs. Nothing
// is written to disk; the log exists only for the dashboard's activity feed.
type RunLog struct {
	logger *logrus.Logger
	limit  int

	mu   sync.Mutex
	runs []RunRecord
}

// NewRunLog creates a run log retaining at most limit records.
func NewRunLog(limit int) *RunLog {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if limit <= 0 {
		limit = 50
	}
	return &RunLog{logger: logger, limit: limit}
}

// Record appends a run, evicting the oldest record past the limit.
func (l *RunLog) Record(record RunRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.runs = append(l.runs, record)
	if len(l.runs) > l.limit {
		l.runs = l.runs[len(l.runs)-l.limit:]
	}

	l.logger.WithFields(logrus.Fields{
		"ticker":        record.Request.Ticker,
		"strategy":      record.Request.Strategy,
		"opportunities": record.Opportunities,
		"duration":      record.Duration,
	}).Debug("Recorded screening run")
}

// Recent returns the recorded runs, newest first.
func (l *RunLog) Recent() []RunRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]RunRecord, len(l.runs))
	for i, record := range l.runs {
		out[len(l.runs)-1-i] = record
	}
	return out
}
