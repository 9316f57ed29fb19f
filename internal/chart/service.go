// Package chart builds chart-ready bar series for a ticker and period.
//
// The current-day period picks a session, aggregates its one-minute samples
// into fixed-width bars inside regular trading hours, and falls back once to
// the prior calendar day when the session is too sparse. Longer periods pass
// the provider's own granularity through.
package chart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"MarketChart/internal/calculator"
	"MarketChart/internal/collector"
	"MarketChart/internal/metrics"
	"MarketChart/internal/model"
	"MarketChart/internal/recorder"
	"MarketChart/internal/session"
)

var (
	// ErrNoData means every attempt came back empty or failed.
	ErrNoData = errors.New("no valid data points after processing")
	// ErrUnsupportedTicker means the ticker is not on the allow-list.
	ErrUnsupportedTicker = errors.New("ticker not supported")
)

// Options is the immutable engine configuration.
type Options struct {
	Hours        session.Hours
	Tickers      []string
	BucketWidth  time.Duration
	MinBars      int
	FetchTimeout time.Duration
	Now          func() time.Time
}

// Service builds charts. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	fetcher  collector.Fetcher
	opts     Options
	tickers  map[string]struct{}
	logger   *zap.Logger
	metrics  *metrics.Metrics
	recorder recorder.Recorder
}

// NewService validates opts and fills defaults. m may be nil; rec defaults to a no-op.
func NewService(fetcher collector.Fetcher, opts Options, logger *zap.Logger, m *metrics.Metrics, rec recorder.Recorder) (*Service, error) {
	if fetcher == nil {
		return nil, errors.New("chart: fetcher is required")
	}
	if opts.Hours.Location == nil {
		return nil, errors.New("chart: trading hours are required")
	}
	if len(opts.Tickers) == 0 {
		return nil, errors.New("chart: ticker allow-list is empty")
	}
	if opts.BucketWidth == 0 {
		opts.BucketWidth = DefaultBucket
	}
	if opts.BucketWidth < 0 {
		return nil, fmt.Errorf("chart: %w", calculator.ErrBucketWidth)
	}
	if opts.MinBars <= 0 {
		opts.MinBars = DefaultMinBars
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}

	tickers := make(map[string]struct{}, len(opts.Tickers))
	for _, t := range opts.Tickers {
		tickers[normalizeTicker(t)] = struct{}{}
	}
	opts.Tickers = append([]string(nil), opts.Tickers...)

	return &Service{
		fetcher:  fetcher,
		opts:     opts,
		tickers:  tickers,
		logger:   logger,
		metrics:  m,
		recorder: rec,
	}, nil
}

func normalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// Supported reports whether ticker is on the allow-list.
func (s *Service) Supported(ticker string) bool {
	_, ok := s.tickers[normalizeTicker(ticker)]
	return ok
}

// Tickers returns the allow-list in sorted order.
func (s *Service) Tickers() []string {
	out := make([]string, 0, len(s.tickers))
	for t := range s.tickers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Hours returns the trading-hours policy.
func (s *Service) Hours() session.Hours { return s.opts.Hours }

// Now returns the engine clock.
func (s *Service) Now() time.Time { return s.opts.Now() }

// Build produces the chart for ticker over period. It returns ErrNoData when
// nothing usable remains after the fallback, and ErrUnsupportedTicker for
// tickers off the allow-list. Provider failures never surface directly.
func (s *Service) Build(ctx context.Context, ticker, period string) (*model.Chart, error) {
	ticker = normalizeTicker(ticker)
	if !s.Supported(ticker) {
		s.record(&model.Chart{Ticker: ticker, Period: period}, ErrUnsupportedTicker)
		return nil, fmt.Errorf("%s: %w", ticker, ErrUnsupportedTicker)
	}

	now := s.opts.Now().In(s.opts.Hours.Location)
	c := &model.Chart{Ticker: ticker, Period: period, GeneratedAt: now}

	var err error
	if period == CurrentDay {
		err = s.buildCurrentDay(ctx, c, s.opts.Hours.Select(now))
	} else {
		err = s.buildHistorical(ctx, c, now)
	}
	return s.finish(c, err)
}

// BuildSession produces the current-day chart for an explicit session date,
// with the same prior-day fallback as Build.
func (s *Service) BuildSession(ctx context.Context, ticker string, date time.Time) (*model.Chart, error) {
	ticker = normalizeTicker(ticker)
	if !s.Supported(ticker) {
		s.record(&model.Chart{Ticker: ticker, Period: CurrentDay}, ErrUnsupportedTicker)
		return nil, fmt.Errorf("%s: %w", ticker, ErrUnsupportedTicker)
	}
	now := s.opts.Now().In(s.opts.Hours.Location)
	c := &model.Chart{Ticker: ticker, Period: CurrentDay, GeneratedAt: now}
	err := s.buildCurrentDay(ctx, c, model.SessionTarget{
		Date:   s.opts.Hours.Midnight(date),
		Reason: model.ReasonMarketClosedToday,
	})
	return s.finish(c, err)
}

func (s *Service) finish(c *model.Chart, err error) (*model.Chart, error) {
	if err == nil && len(c.Bars) == 0 {
		err = ErrNoData
	}
	s.record(c, err)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", c.Ticker, c.Period, err)
	}
	return c, nil
}

func (s *Service) buildCurrentDay(ctx context.Context, c *model.Chart, target model.SessionTarget) error {
	c.Session = &target
	c.SessionDate = target.Date

	bars, err := s.sessionBars(ctx, c.Ticker, target.Date)
	if err != nil {
		return err
	}
	if len(bars) >= s.opts.MinBars {
		c.Bars = bars
		return nil
	}

	prior := s.opts.Hours.Prior(target.Date)
	s.logger.Info("session too sparse, falling back",
		zap.String("ticker", c.Ticker),
		zap.String("session", target.Date.Format("2006-01-02")),
		zap.String("reason", string(target.Reason)),
		zap.Int("bars", len(bars)),
		zap.String("fallback", prior.Format("2006-01-02")),
	)
	s.metrics.ObserveFallback()

	// The fallback result replaces the primary one even when it is sparse too.
	bars, err = s.sessionBars(ctx, c.Ticker, prior)
	if err != nil {
		return err
	}
	c.Bars = bars
	c.SessionDate = prior
	c.FallbackUsed = true
	return nil
}

// sessionBars fetches one session's one-minute samples and aggregates them.
func (s *Service) sessionBars(ctx context.Context, ticker string, date time.Time) ([]model.Bar, error) {
	window := s.opts.Hours.Window(date)
	samples := s.fetch(ctx, collector.FetchRequest{
		Symbol:          ticker,
		Start:           window.Date,
		End:             window.Date.AddDate(0, 0, 1),
		Interval:        intradayInterval,
		IncludeExtended: true,
	})
	if len(samples) == 0 {
		return nil, nil
	}
	return calculator.Aggregate(samples, window, s.opts.BucketWidth)
}

func (s *Service) buildHistorical(ctx context.Context, c *model.Chart, now time.Time) error {
	spec, known := LookupPeriod(c.Period)
	if !known {
		s.logger.Debug("unknown period, using default",
			zap.String("period", c.Period), zap.String("interval", spec.Interval))
	}
	c.Bars = s.historicalBars(ctx, c.Ticker, spec, now)
	return nil
}

// historicalBars fetches spec's lookback ending at now at the provider's own
// granularity.
func (s *Service) historicalBars(ctx context.Context, ticker string, spec PeriodSpec, now time.Time) []model.Bar {
	start, end := spec.Range(now)
	samples := s.fetch(ctx, collector.FetchRequest{
		Symbol:   ticker,
		Start:    start,
		End:      end,
		Interval: spec.Interval,
	})
	return calculator.PassThrough(samples, s.opts.Hours.Location)
}

// fetch runs one provider attempt under the fetch timeout. Failures are logged
// and reported as no samples.
func (s *Service) fetch(ctx context.Context, req collector.FetchRequest) []model.RawSample {
	if s.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
	}

	started := time.Now()
	samples, err := s.fetcher.Fetch(ctx, req)
	s.metrics.ObserveFetch(s.fetcher.Name(), time.Since(started), len(samples), err)
	if err != nil {
		s.logger.Warn("provider fetch failed",
			zap.String("provider", s.fetcher.Name()),
			zap.String("ticker", req.Symbol),
			zap.String("interval", req.Interval),
			zap.Time("start", req.Start),
			zap.Error(err),
		)
		return nil
	}
	naive := 0
	for _, smp := range samples {
		if smp.Time.IsNaive() {
			naive++
		}
	}
	s.metrics.ObserveNaive(s.fetcher.Name(), naive)
	s.logger.Debug("provider fetch",
		zap.String("ticker", req.Symbol),
		zap.String("interval", req.Interval),
		zap.Time("start", req.Start),
		zap.Int("samples", len(samples)),
		zap.Int("naive", naive),
	)
	return samples
}

func (s *Service) record(c *model.Chart, err error) {
	status := "success"
	switch {
	case errors.Is(err, ErrNoData):
		status = "no_data"
	case errors.Is(err, ErrNotEnoughData):
		status = "not_enough_data"
	case err != nil:
		status = "error"
	}
	s.metrics.ObserveBuild(c.Period, status, len(c.Bars))

	evt := &recorder.ChartEvent{
		Ticker:       c.Ticker,
		Period:       c.Period,
		SessionDate:  c.SessionDate,
		FallbackUsed: c.FallbackUsed,
		Bars:         len(c.Bars),
		Status:       status,
	}
	if c.Session != nil {
		evt.Reason = string(c.Session.Reason)
	}
	if err != nil {
		evt.Error = err.Error()
	}
	if rerr := s.recorder.RecordChart(evt); rerr != nil {
		s.logger.Error("record chart", zap.Error(rerr))
	}
}
