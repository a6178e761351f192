package optimization

import (
	"math"

	"madfolio/internal/modules/statistics"
	"madfolio/pkg/formulas"
)

// Metrics derives risk/return figures for arbitrary weight vectors against
// one set of asset statistics. All methods are pure and safe for
// concurrent use.
type Metrics struct {
	stats *statistics.AssetStatistics
}

// NewMetrics creates a metrics calculator bound to the given statistics.
func NewMetrics(stats *statistics.AssetStatistics) *Metrics {
	return &Metrics{stats: stats}
}

// PortfolioReturn computes the expected return of the weighted portfolio.
func (m *Metrics) PortfolioReturn(weights []float64) float64 {
	return formulas.Dot(weights, m.stats.ExpectedReturns())
}

// MADRisk computes mean(|D·w|) over all T periods. Always ≥ 0.
func (m *Metrics) MADRisk(weights []float64) float64 {
	return formulas.MeanAbs(m.stats.PortfolioDeviations(weights))
}

// VarianceRisk computes the variance of the portfolio deviation series.
// Used only by the mean-variance comparison baseline.
func (m *Metrics) VarianceRisk(weights []float64) float64 {
	return formulas.Variance(m.stats.PortfolioDeviations(weights))
}

// SharpeRatio computes (portfolio return − riskFreeRate) / MAD risk.
// A portfolio with exactly zero MAD risk returns +Inf (or −Inf when the
// excess return is negative) so callers can special-case it instead of
// hitting a division fault.
func (m *Metrics) SharpeRatio(weights []float64, riskFreeRate float64) float64 {
	excess := m.PortfolioReturn(weights) - riskFreeRate
	risk := m.MADRisk(weights)
	if risk == 0 {
		if excess >= 0 {
			return math.Inf(1)
		}
		return math.Inf(-1)
	}
	return excess / risk
}
