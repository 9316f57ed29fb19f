package chart

import "time"

// CurrentDay is the period served from one aggregated intraday session.
const CurrentDay = "1d"

// Interval and bucket width of the current-day path.
const (
	intradayInterval = "1m"
	DefaultBucket    = 5 * time.Minute
	DefaultMinBars   = 2
)

// PeriodSpec describes a historical lookback and the provider granularity used for it.
type PeriodSpec struct {
	Years, Months, Days int
	Interval            string
}

var periodTable = map[string]PeriodSpec{
	"7d":  {Days: 7, Interval: "1h"},
	"30d": {Months: 1, Interval: "1d"},
	"3mo": {Months: 3, Interval: "1d"},
	"1y":  {Years: 1, Interval: "1wk"},
}

// defaultPeriod serves any period string not in the table.
var defaultPeriod = PeriodSpec{Months: 1, Interval: "1d"}

// LookupPeriod returns the lookback and interval for period. Unknown periods get the one-month
// daily default and ok=false.
func LookupPeriod(period string) (spec PeriodSpec, ok bool) {
	if s, found := periodTable[period]; found {
		return s, true
	}
	return defaultPeriod, false
}

// Range returns the [start, end) fetch range ending at now.
func (p PeriodSpec) Range(now time.Time) (start, end time.Time) {
	return now.AddDate(-p.Years, -p.Months, -p.Days), now
}
