package services

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Check is the outcome of a single deployment-readiness probe.
type Check struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// Doctor runs local environment and connectivity diagnostics so deployment
// problems surface before the first screening request does.
type Doctor struct {
	dataURL string
	logger  *logrus.Logger
	client  *http.Client
}

// NewDoctor creates a doctor probing the given options-data endpoint.
func NewDoctor(dataURL string) *Doctor {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if dataURL == "" {
		dataURL = defaultDataBaseURL
	}

	return &Doctor{
		dataURL: dataURL,
		logger:  logger,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// RunChecks executes all probes and returns their results in a fixed order.
func (d *Doctor) RunChecks(ctx context.Context) []Check {
	checks := []Check{
		d.checkRuntime(),
		d.checkEnvVar("ALPACA_API_KEY"),
		d.checkEnvVar("ALPACA_SECRET_KEY"),
		d.checkEnvFile(),
		d.checkQuoteTTL(),
		d.checkDataAPI(ctx),
	}

	failed := 0
	for _, c := range checks {
		if !c.OK {
			failed++
		}
	}
	if failed > 0 {
		d.logger.WithField("failed", failed).Warn("Diagnostics found problems")
	} else {
		d.logger.Info("All diagnostics passed")
	}
	return checks
}

func (d *Doctor) checkRuntime() Check {
	return Check{
		Name:   "go runtime",
		OK:     true,
		Detail: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}
}

func (d *Doctor) checkEnvVar(name string) Check {
	if os.Getenv(name) == "" {
		return Check{
			Name:   name,
			Detail: "not set; add it to the environment or a .env file",
		}
	}
	return Check{Name: name, OK: true, Detail: "set"}
}

func (d *Doctor) checkEnvFile() Check {
	if _, err := os.Stat(".env"); err != nil {
		// Optional when the variables come from the real environment.
		return Check{Name: ".env file", OK: true, Detail: "not present (optional)"}
	}
	return Check{Name: ".env file", OK: true, Detail: "present"}
}

func (d *Doctor) checkQuoteTTL() Check {
	raw := os.Getenv("QUOTE_CACHE_TTL")
	if raw == "" {
		return Check{
			Name:   "quote cache TTL",
			OK:     true,
			Detail: fmt.Sprintf("default (%s)", DefaultQuoteTTL),
		}
	}

	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return Check{
			Name:   "quote cache TTL",
			Detail: fmt.Sprintf("QUOTE_CACHE_TTL %q is not a positive integer of seconds", raw),
		}
	}
	return Check{
		Name:   "quote cache TTL",
		OK:     true,
		Detail: fmt.Sprintf("%ds", seconds),
	}
}

func (d *Doctor) checkDataAPI(ctx context.Context) Check {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.dataURL+"/v1beta1/options/contracts", nil)
	if err != nil {
		return Check{Name: "market data API", Detail: err.Error()}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return Check{Name: "market data API", Detail: fmt.Sprintf("unreachable: %v", err)}
	}
	defer resp.Body.Close()

	// Any HTTP response proves reachability; auth failures are reported by
	// the env-var checks, not here.
	return Check{
		Name:   "market data API",
		OK:     true,
		Detail: fmt.Sprintf("%s responded %d", d.dataURL, resp.StatusCode),
	}
}
