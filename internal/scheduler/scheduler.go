// Package scheduler runs the after-close digest and answers chat commands.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"MarketChart/internal/calculator"
	"MarketChart/internal/chart"
	"MarketChart/internal/metrics"
	"MarketChart/internal/notifier"
	"MarketChart/internal/recorder"
)

// marketGaugeCron refreshes the market-open gauge once a minute.
const marketGaugeCron = "0 * * * * *"

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Charts   *chart.Service
	Notifier notifier.Notifier // nil disables delivery
	Recorder recorder.Recorder
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Ctx      context.Context
}

// NewScheduler creates a Scheduler whose cron specs are evaluated in the
// exchange time zone.
func NewScheduler(ctx context.Context, charts *chart.Service, n notifier.Notifier, rec recorder.Recorder, m *metrics.Metrics, logger *zap.Logger) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLocation(charts.Hours().Location)),
		Charts:   charts,
		Notifier: n,
		Recorder: rec,
		Metrics:  m,
		Logger:   logger,
		Ctx:      ctx,
	}
}

// RegisterAll registers the digest and the market gauge refresh.
func (s *Scheduler) RegisterAll(digestCron string) error {
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	if _, err := s.Cron.AddFunc(marketGaugeCron, s.refreshMarketGauge); err != nil {
		return fmt.Errorf("register market gauge: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.refreshMarketGauge()
	s.Cron.Start()
	s.Logger.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RunDigestNow builds and delivers the digest immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunDigestNow() {
	s.digestTask()
}

func (s *Scheduler) digestTask() {
	s.Logger.Info("running session digest")
	s.send(s.Ctx, s.digest(s.Ctx))
}

// digest builds the chart of the last closed session for every ticker, records
// one summary per ticker and returns the formatted message.
func (s *Scheduler) digest(ctx context.Context) string {
	var (
		digests []recorder.SessionDigest
		failed  []string
	)
	session := s.Charts.Hours().LastClosed(s.Charts.Now())

	for _, ticker := range s.Charts.Tickers() {
		c, err := s.Charts.BuildSession(ctx, ticker, session)
		if err != nil {
			s.Logger.Warn("digest chart failed", zap.String("ticker", ticker), zap.Error(err))
			failed = append(failed, ticker)
			continue
		}
		high, low, _ := calculator.SessionRange(c.Bars)
		_, pct, _ := calculator.SessionChange(c.Bars)
		d := recorder.SessionDigest{
			Ticker:      ticker,
			SessionDate: c.SessionDate,
			Open:        c.Bars[0].Open,
			Close:       c.Bars[len(c.Bars)-1].Close,
			High:        high,
			Low:         low,
			ChangePct:   pct,
			Volume:      calculator.TotalVolume(c.Bars),
			Bars:        len(c.Bars),
		}
		if err := s.Recorder.RecordDigest(&d); err != nil {
			s.Logger.Error("record digest", zap.String("ticker", ticker), zap.Error(err))
		}
		digests = append(digests, d)
	}

	s.Logger.Info("session digest built",
		zap.String("session", session.Format("2006-01-02")), zap.Int("ok", len(digests)), zap.Int("failed", len(failed)))
	return notifier.FormatSessionDigest(session, digests, failed)
}

func (s *Scheduler) refreshMarketGauge() {
	s.Metrics.SetMarketOpen(s.Charts.Hours().IsOpen(s.Charts.Now()))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}

	switch strings.ToLower(fields[0]) {
	case "/status":
		hours := s.Charts.Hours()
		now := s.Charts.Now().In(hours.Location)
		open := hours.IsOpen(now)
		s.Metrics.SetMarketOpen(open)
		return notifier.FormatStatus(now, open, hours.Select(now), s.Charts.Tickers())

	case "/chart":
		if len(fields) < 2 {
			return "Usage: /chart TICKER"
		}
		return s.chartReply(ctx, fields[1])

	case "/risk":
		if len(fields) < 2 {
			return "Usage: /risk TICKER"
		}
		return s.riskReply(ctx, fields[1])

	case "/digest":
		return s.digest(ctx)

	default:
		return notifier.FormatHelp()
	}
}

// chartReply answers /chart. Replies are sent as HTML, so user input and error
// text are escaped.
func (s *Scheduler) chartReply(ctx context.Context, ticker string) string {
	name := html.EscapeString(strings.ToUpper(ticker))
	c, err := s.Charts.Build(ctx, ticker, chart.CurrentDay)
	switch {
	case errors.Is(err, chart.ErrUnsupportedTicker):
		return fmt.Sprintf("%s is not supported. Supported: %s",
			name, strings.Join(s.Charts.Tickers(), ", "))
	case errors.Is(err, chart.ErrNoData):
		return fmt.Sprintf("No data for %s", name)
	case err != nil:
		s.Logger.Error("chart command", zap.String("ticker", ticker), zap.Error(err))
		return fmt.Sprintf("❌ chart failed: %s", html.EscapeString(err.Error()))
	}
	high, low, _ := calculator.SessionRange(c.Bars)
	_, pct, _ := calculator.SessionChange(c.Bars)
	reply := notifier.FormatChartSummary(c, high, low, pct)

	last, err := s.Recorder.LatestDigest(c.Ticker)
	if err != nil {
		s.Logger.Warn("latest digest", zap.String("ticker", c.Ticker), zap.Error(err))
	}
	if last != nil {
		reply += notifier.FormatDigestLine(last)
	}
	return reply
}

func (s *Scheduler) riskReply(ctx context.Context, ticker string) string {
	name := html.EscapeString(strings.ToUpper(ticker))
	r, err := s.Charts.Risk(ctx, ticker)
	switch {
	case errors.Is(err, chart.ErrUnsupportedTicker):
		return fmt.Sprintf("%s is not supported. Supported: %s",
			name, strings.Join(s.Charts.Tickers(), ", "))
	case errors.Is(err, chart.ErrNoData):
		return fmt.Sprintf("No data for %s", name)
	case errors.Is(err, chart.ErrNotEnoughData):
		return fmt.Sprintf("Not enough data to assess risk for %s", name)
	case err != nil:
		s.Logger.Error("risk command", zap.String("ticker", ticker), zap.Error(err))
		return fmt.Sprintf("❌ risk failed: %s", html.EscapeString(err.Error()))
	}
	return notifier.FormatRisk(r)
}

func (s *Scheduler) send(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if r, ok := s.Notifier.(interface {
		SendWithRetry(context.Context, string, int) error
	}); ok {
		if err := r.SendWithRetry(ctx, text, 3); err != nil {
			s.Logger.Error("send notification", zap.Error(err))
		}
		return
	}
	if err := s.Notifier.Send(ctx, text); err != nil {
		s.Logger.Error("send notification", zap.Error(err))
	}
}
