package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserve(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveBuild("1d", "success", 79)
	m.ObserveBuild("1d", "no_data", 0)
	m.ObserveFallback()
	m.ObserveFetch("yahoo", time.Millisecond, 390, nil)
	m.ObserveFetch("yahoo", time.Millisecond, 0, nil)
	m.ObserveFetch("yahoo", time.Millisecond, 0, errors.New("boom"))
	m.ObserveNaive("vstrader", 3)
	m.ObserveNaive("vstrader", 0)
	m.SetMarketOpen(true)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.NaiveSamples.WithLabelValues("vstrader")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChartBuilds.WithLabelValues("1d", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChartBuilds.WithLabelValues("1d", "no_data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues("yahoo", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues("yahoo", "empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchTotal.WithLabelValues("yahoo", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BarsReturned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MarketOpen))

	m.SetMarketOpen(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.MarketOpen))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBuild("1d", "success", 3)
		m.ObserveFallback()
		m.ObserveNaive("mock", 1)
		m.ObserveFetch("mock", 0, 0, nil)
		m.SetMarketOpen(true)
	})
}
