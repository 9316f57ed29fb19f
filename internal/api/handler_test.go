package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"MarketChart/internal/chart"
	"MarketChart/internal/collector"
	"MarketChart/internal/metrics"
	"MarketChart/internal/model"
	"MarketChart/internal/session"
)

var nyse = session.MustHours(session.DefaultTimezone, session.DefaultOpen, session.DefaultClose)

func ny(d, hh, mm int) time.Time {
	return time.Date(2024, time.March, d, hh, mm, 0, 0, nyse.Location)
}

func newServer(t *testing.T, samples []model.RawSample, now time.Time) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	svc, err := chart.NewService(&collector.MockFetcher{Samples: samples}, chart.Options{
		Hours:   nyse,
		Tickers: []string{"AAPL", "TSLA"},
		Now:     func() time.Time { return now },
	}, zap.NewNop(), m, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(svc, m, zap.NewNop()).Routes(reg))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestStockGraph_Success(t *testing.T) {
	samples := []model.RawSample{
		{Time: model.Aware(ny(13, 9, 29)), Open: 100, High: 100, Low: 100, Close: 100, Volume: 1},
		{Time: model.Aware(ny(13, 9, 31)), Open: 101, High: 101, Low: 101, Close: 101, Volume: 10},
		{Time: model.Aware(ny(13, 9, 33)), Open: 102, High: 102, Low: 102, Close: 102, Volume: 5},
		{Time: model.Aware(ny(13, 9, 36)), Open: 103, High: 104, Low: 102.5, Close: 103.5, Volume: 7},
		{Time: model.Aware(ny(13, 16, 5)), Open: 103, High: 103, Low: 103, Close: 103, Volume: 1},
	}
	srv := newServer(t, samples, ny(13, 20, 0).AddDate(0, 0, 1)) // Thursday evening -> Wednesday

	resp, body := get(t, srv.URL+"/stock_graph?ticker=aapl&period=1d")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "AAPL", body["ticker"])
	assert.Equal(t, "1d", body["period"])
	assert.Equal(t, "2024-03-14T20:00:00-0400", body["last_updated"])

	data := body["data"].([]any)
	require.Len(t, data, 2)
	first := data[0].(map[string]any)
	assert.Equal(t, "2024-03-13T09:30:00-0400", first["time"])
	assert.Equal(t, 102.0, first["price"])
	assert.Equal(t, 101.0, first["open"])
	assert.Equal(t, 102.0, first["high"])
	assert.Equal(t, 101.0, first["low"])
	assert.Equal(t, 15.0, first["volume"])
}

func TestStockGraph_DefaultPeriodIsCurrentDay(t *testing.T) {
	srv := newServer(t, collector.GenerateSession(ny(13, 9, 30), ny(13, 10, 0), 50), ny(13, 10, 0))
	resp, body := get(t, srv.URL+"/stock_graph?ticker=TSLA")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1d", body["period"])
	assert.Len(t, body["data"], 7)
}

func TestStockGraph_Errors(t *testing.T) {
	srv := newServer(t, nil, ny(13, 11, 0))

	resp, body := get(t, srv.URL+"/stock_graph")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No ticker provided", body["error"])

	resp, body = get(t, srv.URL+"/stock_graph?ticker=GME")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["message"], "AAPL, TSLA")

	resp, body = get(t, srv.URL+"/stock_graph?ticker=AAPL&period=7d")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No valid data points after processing", body["error"])
	assert.Equal(t, "No 7d data available for AAPL", body["message"])
}

// dailyCloses places one close at 16:00 on March 1, 2, ... alternating a and b.
func dailyCloses(a, b float64, n int) []model.RawSample {
	samples := make([]model.RawSample, n)
	for i := range samples {
		c := a
		if i%2 == 1 {
			c = b
		}
		samples[i] = model.RawSample{Time: model.Aware(ny(i+1, 16, 0)), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	return samples
}

func TestRisk_Levels(t *testing.T) {
	tests := []struct {
		b          float64
		volatility float64
		level      string
		describes  string
	}{
		{101, 0.5, "low", "AAPL shows low volatility"},
		{106, 3, "medium", "AAPL has moderate volatility"},
		{120, 10, "high", "AAPL exhibits high volatility"},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			srv := newServer(t, dailyCloses(100, tt.b, 12), ny(13, 12, 0))
			resp, body := get(t, srv.URL+"/risk?ticker=aapl")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "success", body["status"])
			assert.Equal(t, "AAPL", body["ticker"])
			assert.Equal(t, tt.volatility, body["volatility"])
			assert.Equal(t, tt.level, body["risk_level"])
			assert.Contains(t, body["description"], tt.describes)
		})
	}
}

func TestRisk_Rounding(t *testing.T) {
	// closes 100, 101, 102 repeated: population std = sqrt(2/3) = 0.8165
	var samples []model.RawSample
	for i := 0; i < 12; i++ {
		c := 100 + float64(i%3)
		samples = append(samples, model.RawSample{Time: model.Aware(ny(i+1, 16, 0)), Close: c, Open: c, High: c, Low: c})
	}
	srv := newServer(t, samples, ny(13, 12, 0))
	_, body := get(t, srv.URL+"/risk?ticker=AAPL")
	assert.Equal(t, 0.82, body["volatility"])
}

func TestRisk_Errors(t *testing.T) {
	srv := newServer(t, dailyCloses(100, 120, 9), ny(13, 12, 0))

	resp, body := get(t, srv.URL+"/risk")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No ticker provided", body["error"])

	resp, body = get(t, srv.URL+"/risk?ticker=AAPL")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Not enough data to assess risk", body["error"])

	resp, body = get(t, srv.URL+"/risk?ticker=GME")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Ticker not supported", body["error"])

	empty := newServer(t, nil, ny(13, 12, 0))
	resp, body = get(t, empty.URL+"/risk?ticker=TSLA")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No data available for this ticker", body["error"])
}

func TestHealth(t *testing.T) {
	srv := newServer(t, nil, ny(16, 12, 0))
	resp, body := get(t, srv.URL+"/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["market_open"])
	assert.Equal(t, "2024-03-15", body["session_date"])
	assert.Equal(t, "weekend-fallback", body["reason"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t, nil, ny(13, 11, 0))
	get(t, srv.URL+"/stock_graph?ticker=AAPL&period=1y")

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `marketchart_chart_builds_total{period="1y",status="no_data"} 1`)
}
