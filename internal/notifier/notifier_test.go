package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"MarketChart/internal/model"
	"MarketChart/internal/recorder"
)

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "", zap.NewNop())
	tn.APIBase = srv.URL
	require.NoError(t, tn.Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "", nil)
	tn.APIBase = srv.URL
	err := tn.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")

	err = tn.SendWithRetry(context.Background(), "hello", 0)
	assert.ErrorContains(t, err, "all 1 retries exhausted")
}

func TestPollDispatchesCommands(t *testing.T) {
	var mu sync.Mutex
	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			assert.Equal(t, "7", r.URL.Query().Get("offset"))
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":7,"message":{"text":" /status "}},
				{"update_id":8},
				{"update_id":9,"message":{"text":"/quiet"}}
			]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var p map[string]string
			json.NewDecoder(r.Body).Decode(&p)
			mu.Lock()
			sent = append(sent, p["text"])
			mu.Unlock()
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("T", "1", "", nil)
	tn.APIBase = srv.URL

	var commands []string
	next, err := tn.poll(context.Background(), srv.Client(), 7, func(_ context.Context, cmd string) string {
		commands = append(commands, cmd)
		if cmd == "/status" {
			return "open"
		}
		return ""
	})
	require.NoError(t, err)
	assert.Equal(t, 10, next)
	assert.Equal(t, []string{"/status", "/quiet"}, commands)
	assert.Equal(t, []string{"open"}, sent)
}

func TestFormatters(t *testing.T) {
	loc := time.UTC
	day := time.Date(2024, 3, 13, 0, 0, 0, 0, loc)

	msg := FormatSessionDigest(day, []recorder.SessionDigest{
		{Ticker: "AAPL", Open: 100, Close: 101.5, High: 102, Low: 99, ChangePct: 1.5, Volume: 1200, Bars: 78},
		{Ticker: "TSLA", Open: 200, Close: 190, High: 201, Low: 188, ChangePct: -5, Volume: 900, Bars: 78},
	}, []string{"NFLX"})
	assert.Contains(t, msg, "2024-03-13 Wed")
	assert.Contains(t, msg, "🔺 <b>AAPL</b> 100.00 → 101.50 (+1.50%)")
	assert.Contains(t, msg, "🔻 <b>TSLA</b>")
	assert.Contains(t, msg, "no data: NFLX")

	status := FormatStatus(day.Add(12*time.Hour), false,
		model.SessionTarget{Date: day, Reason: model.ReasonWeekendFallback}, []string{"AAPL", "MSFT"})
	assert.Contains(t, status, "Market: closed")
	assert.Contains(t, status, "2024-03-13 (weekend-fallback)")
	assert.Contains(t, status, "AAPL, MSFT")

	c := &model.Chart{
		Ticker: "AAPL", Period: "1d", SessionDate: day, FallbackUsed: true,
		Bars: []model.Bar{{Time: day.Add(9*time.Hour + 30*time.Minute), Close: 101}},
	}
	summary := FormatChartSummary(c, 102, 99, 1)
	assert.Contains(t, summary, "(prior session)")
	assert.Contains(t, summary, "Last: 101.00 at 09:30")
	assert.Contains(t, summary, "Bars: 1")

	risk := FormatRisk(&model.RiskAssessment{Ticker: "TSLA", Level: model.RiskHigh, Volatility: 12.345, Mean: 180, Closes: 21})
	assert.Equal(t, "⚖️ <b>TSLA</b> risk: high\n\nVolatility: 12.35 (mean 180.00, 21 closes)\n", risk)

	line := FormatDigestLine(&recorder.SessionDigest{SessionDate: day, Close: 101.5, ChangePct: -0.25})
	assert.Equal(t, "Last digest: 2024-03-13 close 101.50 (-0.25%)\n", line)
}
