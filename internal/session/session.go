// Package session decides which exchange session a chart request targets and
// derives its trading window. The hours policy is a plain value, so tests can
// vary both the clock and the policy freely.
package session

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"MarketChart/internal/model"
)

// Default NYSE/Nasdaq regular hours.
const (
	DefaultTimezone = "America/New_York"
	DefaultOpen     = "09:30"
	DefaultClose    = "16:00"
)

// Hours is an exchange's regular trading-hours policy.
type Hours struct {
	Location *time.Location
	// Open and Close are offsets from local midnight.
	Open  time.Duration
	Close time.Duration
}

// NewHours builds a policy from a zone name and "HH:MM" clock times.
func NewHours(tz, open, close string) (Hours, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Hours{}, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	o, err := parseClock(open)
	if err != nil {
		return Hours{}, fmt.Errorf("market open: %w", err)
	}
	c, err := parseClock(close)
	if err != nil {
		return Hours{}, fmt.Errorf("market close: %w", err)
	}
	if c <= o {
		return Hours{}, fmt.Errorf("market close %s must be after open %s", close, open)
	}
	return Hours{Location: loc, Open: o, Close: c}, nil
}

// MustHours is NewHours that panics, for package-level defaults and tests.
func MustHours(tz, open, close string) Hours {
	h, err := NewHours(tz, open, close)
	if err != nil {
		panic(err)
	}
	return h
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Midnight returns local midnight of t's calendar date in the exchange zone.
func (h Hours) Midnight(t time.Time) time.Time {
	l := t.In(h.Location)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, h.Location)
}

// Window returns the trading window for date's calendar day.
func (h Hours) Window(date time.Time) model.TradingWindow {
	d := date.In(h.Location)
	return model.TradingWindow{
		Date:  h.Midnight(d),
		Open:  h.clockOn(d, h.Open),
		Close: h.clockOn(d, h.Close),
	}
}

// clockOn builds the wall-clock time off on d's date, so DST days keep 09:30 at 09:30.
func (h Hours) clockOn(d time.Time, off time.Duration) time.Time {
	mins := int(off / time.Minute)
	return time.Date(d.Year(), d.Month(), d.Day(), mins/60, mins%60, 0, 0, h.Location)
}

// IsOpen reports whether now lies inside a weekday's regular session.
// Holidays are not known; they show up only as an absence of data.
func (h Hours) IsOpen(now time.Time) bool {
	l := now.In(h.Location)
	if isWeekend(l.Weekday()) {
		return false
	}
	return h.Window(l).Contains(l)
}

// Select picks the session a current-day chart should be built from.
func (h Hours) Select(now time.Time) model.SessionTarget {
	l := now.In(h.Location)
	today := h.Midnight(l)

	if wd := l.Weekday(); isWeekend(wd) {
		back := (int(wd) - int(time.Friday) + 7) % 7
		return model.SessionTarget{
			Date:   today.AddDate(0, 0, -back),
			Reason: model.ReasonWeekendFallback,
		}
	}

	if h.Window(l).Contains(l) {
		return model.SessionTarget{Date: today, Reason: model.ReasonMarketOpenNow}
	}
	return model.SessionTarget{
		Date:   today.AddDate(0, 0, -1),
		Reason: model.ReasonMarketClosedToday,
	}
}

// LastClosed returns the most recent weekday session whose close is at or
// before now. Used for after-close summaries, where Select would already point
// at the previous day.
func (h Hours) LastClosed(now time.Time) time.Time {
	l := now.In(h.Location)
	day := h.Midnight(l)
	if isWeekend(l.Weekday()) || l.Before(h.Window(day).Close) {
		day = day.AddDate(0, 0, -1)
	}
	for isWeekend(day.Weekday()) {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// Prior returns the session consulted when date's session is too sparse: the
// previous calendar day. Weekends and holidays are not skipped.
func (h Hours) Prior(date time.Time) time.Time {
	return h.Midnight(date).AddDate(0, 0, -1)
}

func isWeekend(wd time.Weekday) bool {
	return wd == time.Saturday || wd == time.Sunday
}
