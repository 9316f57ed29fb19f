package notifier

import (
	"fmt"
	"strings"
	"time"

	"MarketChart/internal/model"
	"MarketChart/internal/recorder"
)

// FormatSessionDigest formats the after-close digest for a set of tickers.
// failed lists tickers that produced no chart.
func FormatSessionDigest(session time.Time, digests []recorder.SessionDigest, failed []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Session digest</b> | %s\n\n", session.Format("2006-01-02 Mon")))

	for _, d := range digests {
		arrow := "🔺"
		if d.ChangePct < 0 {
			arrow = "🔻"
		}
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %.2f → %.2f (%+.2f%%)\n", arrow, d.Ticker, d.Open, d.Close, d.ChangePct))
		b.WriteString(fmt.Sprintf("   range %.2f – %.2f | vol %d | %d bars\n", d.Low, d.High, d.Volume, d.Bars))
	}
	if len(failed) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ no data: %s\n", strings.Join(failed, ", ")))
	}
	return b.String()
}

// FormatStatus formats the market state for /status.
func FormatStatus(now time.Time, open bool, target model.SessionTarget, tickers []string) string {
	var b strings.Builder
	b.WriteString("🕒 <b>Market status</b>\n\n")
	b.WriteString(fmt.Sprintf("Now: %s\n", now.Format("2006-01-02 15:04 MST")))
	state := "closed"
	if open {
		state = "open"
	}
	b.WriteString(fmt.Sprintf("Market: %s\n", state))
	b.WriteString(fmt.Sprintf("Session: %s (%s)\n", target.Date.Format("2006-01-02"), target.Reason))
	b.WriteString(fmt.Sprintf("Tickers: %s\n", strings.Join(tickers, ", ")))
	return b.String()
}

// FormatChartSummary formats one built chart for /chart.
func FormatChartSummary(c *model.Chart, high, low, changePct float64) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📈 <b>%s</b> %s\n\n", c.Ticker, c.Period))
	if !c.SessionDate.IsZero() {
		b.WriteString(fmt.Sprintf("Session: %s", c.SessionDate.Format("2006-01-02")))
		if c.FallbackUsed {
			b.WriteString(" (prior session)")
		}
		b.WriteString("\n")
	}
	last := c.Bars[len(c.Bars)-1]
	b.WriteString(fmt.Sprintf("Last: %.2f at %s\n", last.Close, last.Time.Format("15:04")))
	b.WriteString(fmt.Sprintf("Change: %+.2f%%\n", changePct))
	b.WriteString(fmt.Sprintf("Range: %.2f – %.2f\n", low, high))
	b.WriteString(fmt.Sprintf("Bars: %d\n", len(c.Bars)))
	return b.String()
}

// FormatDigestLine formats the last recorded digest under a /chart reply.
func FormatDigestLine(d *recorder.SessionDigest) string {
	return fmt.Sprintf("Last digest: %s close %.2f (%+.2f%%)\n",
		d.SessionDate.Format("2006-01-02"), d.Close, d.ChangePct)
}

// FormatRisk formats a risk assessment for /risk.
func FormatRisk(r *model.RiskAssessment) string {
	return fmt.Sprintf("⚖️ <b>%s</b> risk: %s\n\nVolatility: %.2f (mean %.2f, %d closes)\n",
		r.Ticker, r.Level, r.Volatility, r.Mean, r.Closes)
}

// FormatHelp lists the chat commands.
func FormatHelp() string {
	return "Commands:\n• /status\n• /chart TICKER\n• /risk TICKER\n• /digest"
}
