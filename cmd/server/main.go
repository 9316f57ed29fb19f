package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MarketChart/internal/api"
	"MarketChart/internal/chart"
	"MarketChart/internal/collector"
	"MarketChart/internal/config"
	"MarketChart/internal/logger"
	"MarketChart/internal/metrics"
	"MarketChart/internal/model"
	"MarketChart/internal/notifier"
	"MarketChart/internal/recorder"
	"MarketChart/internal/scheduler"
	"MarketChart/internal/session"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	log, err := logger.New(cfg.Server.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("init logger", zap.Error(err))
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("config validation", zap.Error(err))
	}
	opts, err := cfg.ChartOptions()
	if err != nil {
		log.Fatal("chart options", zap.Error(err))
	}
	log.Info("MarketChart starting",
		zap.String("addr", cfg.Server.Addr),
		zap.String("timezone", cfg.Market.Timezone),
		zap.Strings("tickers", opts.Tickers))

	fetcher := newFetcher(cfg, opts.Hours)
	log.Info("data source", zap.String("provider", fetcher.Name()))

	// Init recorder
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		} else {
			rec = sr
		}
	}
	defer rec.Close()

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	svc, err := chart.NewService(fetcher, opts, log, m, rec)
	if err != nil {
		log.Fatal("init chart service", zap.Error(err))
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var n notifier.Notifier
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		n = tn
	}

	sched := scheduler.NewScheduler(ctx, svc, n, rec, m, log)
	if err := sched.RegisterAll(cfg.Schedule.DigestCron); err != nil {
		log.Fatal("register cron tasks", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, running digest now")
		go sched.RunDigestNow()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewHandler(svc, m, log).Routes(prometheus.DefaultGatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", zap.Error(err))
			stop()
		}
	}()
	log.Info("MarketChart is running. Press Ctrl+C to stop.")

	<-ctx.Done()
	log.Info("shutdown signal received, stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	log.Info("MarketChart stopped")
}

func newFetcher(cfg *config.Config, hours session.Hours) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case "vstrader":
		return collector.NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		return &collector.MockFetcher{Samples: mockSessions(hours, time.Now(), 5)}
	default:
		return collector.NewYahooFetcher(cfg.Proxy)
	}
}

// mockSessions generates full one-minute sessions for the last n weekdays.
func mockSessions(hours session.Hours, now time.Time, n int) []model.RawSample {
	var samples []model.RawSample
	day := hours.Midnight(now)
	for n > 0 {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			w := hours.Window(day)
			samples = append(samples, collector.GenerateSession(w.Open, w.Close, 100+float64(n))...)
			n--
		}
		day = day.AddDate(0, 0, -1)
	}
	return samples
}
