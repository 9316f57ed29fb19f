package model

import (
	"math"
	"time"
)

// Instant is a sample timestamp as delivered by a data provider. Providers do not
// always annotate their timestamps with a zone, so an Instant is either Naive
// (bare wall clock) or Aware (a real point in time).
type Instant struct {
	t     time.Time
	naive bool
}

// Naive wraps a wall-clock reading that carries no zone. Only the calendar and
// clock fields of wall are kept.
func Naive(wall time.Time) Instant {
	return Instant{
		t: time.Date(wall.Year(), wall.Month(), wall.Day(),
			wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), time.UTC),
		naive: true,
	}
}

// Aware wraps a zone-annotated point in time.
func Aware(t time.Time) Instant {
	return Instant{t: t}
}

// IsNaive reports whether the provider left the timestamp without a zone.
func (i Instant) IsNaive() bool { return i.naive }

// In resolves the instant into loc. Naive readings are taken as UTC.
func (i Instant) In(loc *time.Location) time.Time {
	return i.t.In(loc)
}

// RawSample is a single provider observation. Missing prices or volumes are NaN.
type RawSample struct {
	Time   Instant
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Missing returns the value used for an absent price or volume.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v marks an absent value.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Bar is one candlestick: the reduction of every sample in a bucket.
// Time is the bucket start in exchange-local time.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Chart is the result of one chart build.
type Chart struct {
	Ticker string
	Period string
	Bars   []Bar

	// Session is set only for the current-day period.
	Session      *SessionTarget
	SessionDate  time.Time // date the bars were actually taken from
	FallbackUsed bool
	GeneratedAt  time.Time
}
