package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketChart/internal/model"
)

func closes(vals ...float64) []model.Bar {
	bars := make([]model.Bar, len(vals))
	for i, v := range vals {
		bars[i] = model.Bar{Close: v}
	}
	return bars
}

func TestVolatility(t *testing.T) {
	std, mean, err := Volatility(closes(2, 4, 4, 4, 5, 5, 7, 9))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, std, 1e-9)
	assert.InDelta(t, 5.0, mean, 1e-9)

	std, mean, err = Volatility(closes(42))
	require.NoError(t, err)
	assert.Equal(t, 0.0, std)
	assert.Equal(t, 42.0, mean)

	_, _, err = Volatility(nil)
	assert.Error(t, err)
}

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		name string
		std  float64
		want model.RiskLevel
	}{
		{"flat", 0, model.RiskLow},
		{"just under 2%", 1.99, model.RiskLow},
		{"exactly 2%", 2, model.RiskMedium},
		{"just under 5%", 4.99, model.RiskMedium},
		{"exactly 5%", 5, model.RiskHigh},
		{"wild", 30, model.RiskHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRisk(tt.std, 100))
		})
	}
}
