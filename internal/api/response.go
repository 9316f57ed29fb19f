package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"MarketChart/internal/model"
)

// timeLayout matches strftime('%Y-%m-%dT%H:%M:%S%z').
const timeLayout = "2006-01-02T15:04:05-0700"

// DataPoint is one bar on the wire. Price is the bar's close.
type DataPoint struct {
	Time   string  `json:"time"`
	Price  float64 `json:"price"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume int64   `json:"volume"`
}

// ChartResponse is the success body of /stock_graph.
type ChartResponse struct {
	Status      string      `json:"status"`
	Ticker      string      `json:"ticker"`
	Period      string      `json:"period"`
	Data        []DataPoint `json:"data"`
	LastUpdated string      `json:"last_updated"`
}

// ErrorResponse is the failure body of /stock_graph.
type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func newChartResponse(c *model.Chart) ChartResponse {
	data := make([]DataPoint, len(c.Bars))
	for i, b := range c.Bars {
		data[i] = DataPoint{
			Time:   b.Time.Format(timeLayout),
			Price:  b.Close,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Volume: b.Volume,
		}
	}
	return ChartResponse{
		Status:      "success",
		Ticker:      c.Ticker,
		Period:      c.Period,
		Data:        data,
		LastUpdated: c.GeneratedAt.Format(timeLayout),
	}
}

// RiskResponse is the success body of /risk.
type RiskResponse struct {
	Status      string  `json:"status"`
	Ticker      string  `json:"ticker"`
	Volatility  float64 `json:"volatility"`
	RiskLevel   string  `json:"risk_level"`
	Description string  `json:"description"`
}

func newRiskResponse(r *model.RiskAssessment) RiskResponse {
	return RiskResponse{
		Status:      "success",
		Ticker:      r.Ticker,
		Volatility:  math.Round(r.Volatility*100) / 100,
		RiskLevel:   string(r.Level),
		Description: riskDescription(r.Level, r.Ticker),
	}
}

func riskDescription(level model.RiskLevel, ticker string) string {
	switch level {
	case model.RiskLow:
		return fmt.Sprintf("%s shows low volatility, indicating stable price movements. Suitable for conservative investors.", ticker)
	case model.RiskMedium:
		return fmt.Sprintf("%s has moderate volatility. Expect some fluctuations but generally stable.", ticker)
	case model.RiskHigh:
		return fmt.Sprintf("%s exhibits high volatility with significant price swings. Higher risk/reward potential.", ticker)
	}
	return "Risk assessment unavailable."
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("encode response", zap.Error(err))
	}
}

// HealthResponse reports the market state as seen by the engine clock.
type HealthResponse struct {
	Status      string `json:"status"`
	Time        string `json:"time"`
	MarketOpen  bool   `json:"market_open"`
	SessionDate string `json:"session_date"`
	Reason      string `json:"reason"`
}

func newHealthResponse(now time.Time, open bool, target model.SessionTarget) HealthResponse {
	return HealthResponse{
		Status:      "ok",
		Time:        now.Format(timeLayout),
		MarketOpen:  open,
		SessionDate: target.Date.Format("2006-01-02"),
		Reason:      string(target.Reason),
	}
}
