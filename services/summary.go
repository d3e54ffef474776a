package services

import (
	"sort"

	"github.com/montanaflynn/stats"

	"option-screener/models"
)

// ResultSummary is the metrics row shown above the result table.
type ResultSummary struct {
	Count            int     `json:"count"`
	BestReturn       float64 `json:"best_return"`
	MeanReturn       float64 `json:"mean_return"`
	MedianReturn     float64 `json:"median_return"`
	ExpirationsFound int     `json:"expirations_found"`
}

// StrikeReturnPoint feeds the top-opportunities bar chart.
type StrikeReturnPoint struct {
	Strike           float64 `json:"strike"`
	AnnualizedReturn float64 `json:"annualized_return"`
	ContractSymbol   string  `json:"contract_symbol"`
}

// DTEBucket feeds the days-to-expiration histogram.
type DTEBucket struct {
	DTE   int `json:"dte"`
	Count int `json:"count"`
}

// RiskReturnPoint feeds the risk-vs-return scatter, sized by volume.
type RiskReturnPoint struct {
	RiskProxy        float64 `json:"risk_proxy"`
	AnnualizedReturn float64 `json:"annualized_return"`
	Volume           int64   `json:"volume"`
	Strike           float64 `json:"strike"`
	DTE              int     `json:"dte"`
	Premium          float64 `json:"premium"`
}

// ChartData bundles the three chart datasets derived from a ranked result set.
type ChartData struct {
	TopByReturn  []StrikeReturnPoint `json:"top_by_return"`
	DTEHistogram []DTEBucket         `json:"dte_histogram"`
	RiskReturn   []RiskReturnPoint   `json:"risk_return"`
}

// topChartSize caps the bar chart at the ten best opportunities.
const topChartSize = 10

// Summarize computes the metrics row for a screening result.
func Summarize(result *models.ScreenResult) ResultSummary {
	summary := ResultSummary{
		Count:            len(result.Opportunities),
		ExpirationsFound: result.ExpirationsConsidered,
	}
	if summary.Count == 0 {
		return summary
	}

	returns := make([]float64, len(result.Opportunities))
	for i, opp := range result.Opportunities {
		returns[i] = opp.AnnualizedReturn
	}

	// stats errors only on empty input, which is excluded above.
	summary.BestReturn, _ = stats.Max(returns)
	summary.MeanReturn, _ = stats.Mean(returns)
	summary.MedianReturn, _ = stats.Median(returns)
	return summary
}

// BuildChartData derives the three chart datasets from a ranked result set.
// Opportunities are assumed sorted by annualized return descending, so the
// bar chart is simply the head of the slice.
func BuildChartData(result *models.ScreenResult) ChartData {
	charts := ChartData{
		TopByReturn:  []StrikeReturnPoint{},
		DTEHistogram: []DTEBucket{},
		RiskReturn:   []RiskReturnPoint{},
	}

	for i, opp := range result.Opportunities {
		if i >= topChartSize {
			break
		}
		charts.TopByReturn = append(charts.TopByReturn, StrikeReturnPoint{
			Strike:           opp.Strike,
			AnnualizedReturn: opp.AnnualizedReturn,
			ContractSymbol:   opp.ContractSymbol,
		})
	}

	counts := make(map[int]int)
	for _, opp := range result.Opportunities {
		counts[opp.DTE]++
	}
	for dte, count := range counts {
		charts.DTEHistogram = append(charts.DTEHistogram, DTEBucket{DTE: dte, Count: count})
	}
	sort.Slice(charts.DTEHistogram, func(i, j int) bool {
		return charts.DTEHistogram[i].DTE < charts.DTEHistogram[j].DTE
	})

	for _, opp := range result.Opportunities {
		if opp.Volume <= 0 {
			// The scatter sizes points by volume; zero-volume rows stay in
			// the table but have no meaningful marker size.
			continue
		}
		charts.RiskReturn = append(charts.RiskReturn, RiskReturnPoint{
			RiskProxy:        opp.RiskProxy,
			AnnualizedReturn: opp.AnnualizedReturn,
			Volume:           opp.Volume,
			Strike:           opp.Strike,
			DTE:              opp.DTE,
			Premium:          opp.Premium,
		})
	}

	return charts
}
