package recorder

import "time"

// ChartEvent is one served chart request. Only the outcome is kept; the bars
// themselves are rebuilt from the provider on every request.
type ChartEvent struct {
	Ticker       string
	Period       string
	SessionDate  time.Time // zero for historical periods
	Reason       string    // session selection reason, "" for historical periods
	FallbackUsed bool
	Bars         int
	Status       string // "success", "no_data", "error"
	Error        string
}

// SessionDigest summarizes one ticker's session after the close.
type SessionDigest struct {
	Ticker      string
	SessionDate time.Time
	Open        float64
	Close       float64
	High        float64
	Low         float64
	ChangePct   float64
	Volume      int64
	Bars        int
}

// Recorder persists an audit trail of chart requests and digests.
type Recorder interface {
	RecordChart(evt *ChartEvent) error
	RecordDigest(d *SessionDigest) error
	// LatestDigest returns the newest digest for ticker, or nil when none exists.
	LatestDigest(ticker string) (*SessionDigest, error)
	Close() error
}
