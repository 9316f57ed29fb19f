package model

import "time"

// SessionReason explains why a session date was chosen.
type SessionReason string

const (
	ReasonMarketOpenNow     SessionReason = "market-open-now"
	ReasonMarketClosedToday SessionReason = "market-closed-today"
	ReasonWeekendFallback   SessionReason = "weekend-fallback"
)

// SessionTarget is the trading session a current-day request should query.
type SessionTarget struct {
	Date   time.Time // local midnight of the session date
	Reason SessionReason
}

// TradingWindow is the official trading interval of one session.
type TradingWindow struct {
	Date  time.Time // local midnight
	Open  time.Time
	Close time.Time
}

// Contains reports whether t falls inside the window, both ends inclusive.
func (w TradingWindow) Contains(t time.Time) bool {
	return !t.Before(w.Open) && !t.After(w.Close)
}
