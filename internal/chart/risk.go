package chart

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"MarketChart/internal/calculator"
	"MarketChart/internal/model"
)

// RiskPeriod labels risk assessments in metrics and the audit log.
const RiskPeriod = "risk"

// MinRiskCloses is the fewest daily closes a risk assessment accepts.
const MinRiskCloses = 10

// ErrNotEnoughData means data exists but too little to assess risk.
var ErrNotEnoughData = errors.New("not enough data to assess risk")

// riskLookback is one month of daily closes.
var riskLookback = PeriodSpec{Months: 1, Interval: "1d"}

// Risk classifies ticker's volatility over the last month of daily closes.
func (s *Service) Risk(ctx context.Context, ticker string) (*model.RiskAssessment, error) {
	ticker = normalizeTicker(ticker)
	if !s.Supported(ticker) {
		s.record(&model.Chart{Ticker: ticker, Period: RiskPeriod}, ErrUnsupportedTicker)
		return nil, fmt.Errorf("%s: %w", ticker, ErrUnsupportedTicker)
	}

	now := s.opts.Now().In(s.opts.Hours.Location)
	c := &model.Chart{Ticker: ticker, Period: RiskPeriod, GeneratedAt: now}
	c.Bars = s.historicalBars(ctx, ticker, riskLookback, now)

	var err error
	switch {
	case len(c.Bars) == 0:
		err = ErrNoData
	case len(c.Bars) < MinRiskCloses:
		err = ErrNotEnoughData
	}
	s.record(c, err)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", ticker, RiskPeriod, err)
	}

	std, mean, err := calculator.Volatility(c.Bars)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", ticker, RiskPeriod, err)
	}
	r := &model.RiskAssessment{
		Ticker:      ticker,
		Volatility:  std,
		Mean:        mean,
		Closes:      len(c.Bars),
		Level:       calculator.ClassifyRisk(std, mean),
		GeneratedAt: now,
	}
	s.logger.Debug("risk assessed",
		zap.String("ticker", ticker),
		zap.Float64("volatility", std),
		zap.Float64("mean", mean),
		zap.String("level", string(r.Level)),
	)
	return r, nil
}
