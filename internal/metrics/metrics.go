package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the chart engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ChartBuilds   *prometheus.CounterVec // labels: period, status
	Fallbacks     prometheus.Counter
	FetchTotal    *prometheus.CounterVec // labels: provider, result
	FetchDuration *prometheus.HistogramVec
	NaiveSamples  *prometheus.CounterVec // labels: provider
	BarsReturned  prometheus.Histogram
	MarketOpen    prometheus.Gauge // 0=closed, 1=open
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChartBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketchart_chart_builds_total",
			Help: "Chart builds by period and outcome",
		}, []string{"period", "status"}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketchart_session_fallbacks_total",
			Help: "Current-day charts served from the prior session",
		}),
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketchart_provider_fetch_total",
			Help: "Provider fetches by result (ok, empty, error)",
		}, []string{"provider", "result"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketchart_provider_fetch_duration_seconds",
			Help:    "Provider fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		NaiveSamples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketchart_provider_naive_samples_total",
			Help: "Samples whose timestamp carried no zone and was read as UTC",
		}, []string{"provider"}),
		BarsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketchart_chart_bars",
			Help:    "Bars per successful chart",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 79, 100, 250},
		}),
		MarketOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketchart_market_open",
			Help: "Whether the exchange is inside regular hours",
		}),
	}

	reg.MustRegister(
		m.ChartBuilds,
		m.Fallbacks,
		m.FetchTotal,
		m.FetchDuration,
		m.NaiveSamples,
		m.BarsReturned,
		m.MarketOpen,
	)
	return m
}

// ObserveBuild counts one chart build.
func (m *Metrics) ObserveBuild(period, status string, bars int) {
	if m == nil {
		return
	}
	m.ChartBuilds.WithLabelValues(period, status).Inc()
	if bars > 0 {
		m.BarsReturned.Observe(float64(bars))
	}
}

// ObserveFallback counts a switch to the prior session.
func (m *Metrics) ObserveFallback() {
	if m == nil {
		return
	}
	m.Fallbacks.Inc()
}

// ObserveFetch records one provider round trip.
func (m *Metrics) ObserveFetch(provider string, d time.Duration, samples int, err error) {
	if m == nil {
		return
	}
	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case samples == 0:
		result = "empty"
	}
	m.FetchTotal.WithLabelValues(provider, result).Inc()
	m.FetchDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveNaive counts zone-less samples from provider.
func (m *Metrics) ObserveNaive(provider string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.NaiveSamples.WithLabelValues(provider).Add(float64(n))
}

// SetMarketOpen updates the market state gauge.
func (m *Metrics) SetMarketOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.MarketOpen.Set(1)
	} else {
		m.MarketOpen.Set(0)
	}
}
