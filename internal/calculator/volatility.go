package calculator

import (
	"errors"
	"math"

	"MarketChart/internal/model"
)

// Risk thresholds as a fraction of the mean close.
const (
	lowRiskRatio    = 0.02
	mediumRiskRatio = 0.05
)

// Volatility returns the population standard deviation and the mean of the
// bar closes.
func Volatility(bars []model.Bar) (std, mean float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	for _, b := range bars {
		mean += b.Close
	}
	mean /= float64(len(bars))

	var sq float64
	for _, b := range bars {
		d := b.Close - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(bars))), mean, nil
}

// ClassifyRisk maps volatility to a level: below 2% of the mean is low, below
// 5% is medium, anything else is high.
func ClassifyRisk(std, mean float64) model.RiskLevel {
	switch {
	case std < lowRiskRatio*mean:
		return model.RiskLow
	case std < mediumRiskRatio*mean:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}
