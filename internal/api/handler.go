// Package api exposes the chart engine over HTTP.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"MarketChart/internal/chart"
	"MarketChart/internal/metrics"
)

// Handler serves chart and health requests.
type Handler struct {
	charts  *chart.Service
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewHandler(charts *chart.Service, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{charts: charts, metrics: m, logger: logger}
}

// Routes registers all endpoints. gatherer backs /metrics; nil skips it.
func (h *Handler) Routes(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /stock_graph", h.StockGraph)
	mux.HandleFunc("GET /risk", h.Risk)
	mux.HandleFunc("GET /healthz", h.Health)
	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// StockGraph handles GET /stock_graph?ticker=X&period=Y.
func (h *Handler) StockGraph(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	period := r.URL.Query().Get("period")
	if period == "" {
		period = chart.CurrentDay
	}
	if ticker == "" {
		writeJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "No ticker provided"})
		return
	}

	c, err := h.charts.Build(r.Context(), ticker, period)
	switch {
	case err == nil:
		writeJSON(w, h.logger, http.StatusOK, newChartResponse(c))
		h.logger.Debug("chart served",
			zap.String("ticker", ticker), zap.String("period", period),
			zap.Int("bars", len(c.Bars)), zap.Bool("fallback", c.FallbackUsed))

	case errors.Is(err, chart.ErrUnsupportedTicker):
		writeJSON(w, h.logger, http.StatusNotFound, ErrorResponse{
			Status:  "error",
			Error:   "Ticker not supported",
			Message: fmt.Sprintf("Supported tickers: %s", strings.Join(h.charts.Tickers(), ", ")),
		})

	case errors.Is(err, chart.ErrNoData):
		h.logger.Info("no chart data", zap.String("ticker", ticker), zap.String("period", period))
		writeJSON(w, h.logger, http.StatusNotFound, ErrorResponse{
			Status:  "error",
			Error:   "No valid data points after processing",
			Message: fmt.Sprintf("No %s data available for %s", period, ticker),
		})

	default:
		h.logger.Error("graph data error",
			zap.String("ticker", ticker), zap.String("period", period), zap.Error(err))
		writeJSON(w, h.logger, http.StatusInternalServerError, ErrorResponse{
			Status:  "error",
			Error:   err.Error(),
			Message: fmt.Sprintf("Failed to fetch %s data for %s", period, ticker),
		})
	}
}

// Risk handles GET /risk?ticker=X.
func (h *Handler) Risk(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if ticker == "" {
		writeJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "No ticker provided"})
		return
	}

	risk, err := h.charts.Risk(r.Context(), ticker)
	switch {
	case err == nil:
		writeJSON(w, h.logger, http.StatusOK, newRiskResponse(risk))

	case errors.Is(err, chart.ErrUnsupportedTicker):
		writeJSON(w, h.logger, http.StatusNotFound, ErrorResponse{
			Status:  "error",
			Error:   "Ticker not supported",
			Message: fmt.Sprintf("Supported tickers: %s", strings.Join(h.charts.Tickers(), ", ")),
		})

	case errors.Is(err, chart.ErrNoData):
		writeJSON(w, h.logger, http.StatusNotFound, map[string]string{"error": "No data available for this ticker"})

	case errors.Is(err, chart.ErrNotEnoughData):
		writeJSON(w, h.logger, http.StatusBadRequest, map[string]string{"error": "Not enough data to assess risk"})

	default:
		h.logger.Error("risk assessment error", zap.String("ticker", ticker), zap.Error(err))
		writeJSON(w, h.logger, http.StatusInternalServerError,
			map[string]string{"error": fmt.Sprintf("Failed to assess risk: %v", err)})
	}
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	hours := h.charts.Hours()
	now := h.charts.Now().In(hours.Location)
	open := hours.IsOpen(now)
	h.metrics.SetMarketOpen(open)
	writeJSON(w, h.logger, http.StatusOK, newHealthResponse(now, open, hours.Select(now)))
}
