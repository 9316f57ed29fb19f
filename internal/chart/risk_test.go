package chart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketChart/internal/collector"
	"MarketChart/internal/model"
)

// dailyCloses places one close at 16:00 on March 1, 2, ... in order.
func dailyCloses(vals ...float64) []model.RawSample {
	samples := make([]model.RawSample, len(vals))
	for i, v := range vals {
		samples[i] = closeAt(ny(i+1, 16, 0), v)
	}
	return samples
}

// alternating returns n closes switching between a and b.
func alternating(a, b float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = a
		if i%2 == 1 {
			out[i] = b
		}
	}
	return out
}

func TestRisk_Levels(t *testing.T) {
	tests := []struct {
		name string
		b    float64
		std  float64
		want model.RiskLevel
	}{
		{"low", 101, 0.5, model.RiskLow},
		{"medium", 106, 3, model.RiskMedium},
		{"high", 120, 10, model.RiskHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &collector.MockFetcher{Samples: dailyCloses(alternating(100, tt.b, 12)...)}
			s := newService(t, f, ny(13, 12, 0), nil)

			r, err := s.Risk(context.Background(), "aapl")
			require.NoError(t, err)
			assert.Equal(t, "AAPL", r.Ticker)
			assert.Equal(t, tt.want, r.Level)
			assert.InDelta(t, tt.std, r.Volatility, 1e-9)
			assert.InDelta(t, (100+tt.b)/2, r.Mean, 1e-9)
			assert.Equal(t, 12, r.Closes)
		})
	}
}

func TestRisk_FetchesOneMonthDaily(t *testing.T) {
	now := ny(13, 12, 0)
	f := &collector.MockFetcher{Samples: dailyCloses(alternating(100, 101, 12)...)}
	s := newService(t, f, now, nil)

	_, err := s.Risk(context.Background(), "AAPL")
	require.NoError(t, err)
	calls := f.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "1d", calls[0].Interval)
	assert.True(t, now.AddDate(0, -1, 0).Equal(calls[0].Start))
	assert.True(t, now.Equal(calls[0].End))
}

func TestRisk_TooFewCloses(t *testing.T) {
	rec := &memRecorder{}
	f := &collector.MockFetcher{Samples: dailyCloses(alternating(100, 120, MinRiskCloses-1)...)}
	s := newService(t, f, ny(13, 12, 0), rec)

	_, err := s.Risk(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrNotEnoughData)
	require.Len(t, rec.events, 1)
	assert.Equal(t, RiskPeriod, rec.events[0].Period)
	assert.Equal(t, "not_enough_data", rec.events[0].Status)
}

func TestRisk_NoDataAndUnsupported(t *testing.T) {
	s := newService(t, &collector.MockFetcher{}, ny(13, 12, 0), nil)

	_, err := s.Risk(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = s.Risk(context.Background(), "GME")
	assert.ErrorIs(t, err, ErrUnsupportedTicker)
}
