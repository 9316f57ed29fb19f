package calculator

import (
	"errors"
	"sort"
	"time"

	"MarketChart/internal/model"
)

// ErrBucketWidth is returned for a non-positive bucket width.
var ErrBucketWidth = errors.New("bucket width must be positive")

type localSample struct {
	t time.Time
	s model.RawSample
}

// normalize resolves every timestamp into loc and stable-sorts by time, so equal
// timestamps keep provider order.
func normalize(samples []model.RawSample, loc *time.Location) []localSample {
	out := make([]localSample, len(samples))
	for i, s := range samples {
		out[i] = localSample{t: s.Time.In(loc), s: s}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].t.Before(out[j].t) })
	return out
}

// bucketStart floors t to width, measured in wall-clock time from t's local midnight.
func bucketStart(t time.Time, width time.Duration) time.Time {
	sinceMidnight := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
	floored := sinceMidnight - sinceMidnight%width
	// Rebuild from wall-clock fields; adding a duration to midnight drifts on DST days.
	return time.Date(t.Year(), t.Month(), t.Day(),
		int(floored/time.Hour), int(floored%time.Hour/time.Minute),
		int(floored%time.Minute/time.Second), int(floored%time.Second), t.Location())
}

// Aggregate reduces raw samples into width-wide bars restricted to window.
// Samples outside [window.Open, window.Close] are ignored, empty buckets emit
// nothing and bars without a close are dropped. Output is strictly increasing.
func Aggregate(samples []model.RawSample, window model.TradingWindow, width time.Duration) ([]model.Bar, error) {
	if width <= 0 {
		return nil, ErrBucketWidth
	}
	loc := window.Open.Location()

	var (
		bars    []model.Bar
		cur     *reduction
		curTime time.Time
	)
	for _, ls := range normalize(samples, loc) {
		if !window.Contains(ls.t) {
			continue
		}
		start := bucketStart(ls.t, width)
		if cur == nil || !start.Equal(curTime) {
			if cur != nil {
				if b, ok := cur.bar(curTime); ok {
					bars = append(bars, b)
				}
			}
			cur = newReduction()
			curTime = start
		}
		cur.add(ls.s)
	}
	if cur != nil {
		if b, ok := cur.bar(curTime); ok {
			bars = append(bars, b)
		}
	}
	return bars, nil
}

// PassThrough keeps the provider's own granularity: timestamps are moved into
// loc, samples without a close are dropped, nothing is bucketed.
func PassThrough(samples []model.RawSample, loc *time.Location) []model.Bar {
	bars := make([]model.Bar, 0, len(samples))
	for _, ls := range normalize(samples, loc) {
		r := newReduction()
		r.add(ls.s)
		if b, ok := r.bar(ls.t); ok {
			bars = append(bars, b)
		}
	}
	return bars
}

// reduction accumulates one bucket: first open, max high, min low, last close,
// summed volume. Missing values are skipped.
type reduction struct {
	open, high, low, close float64
	volume                 float64
}

func newReduction() *reduction {
	return &reduction{
		open:  model.Missing(),
		high:  model.Missing(),
		low:   model.Missing(),
		close: model.Missing(),
	}
}

func (r *reduction) add(s model.RawSample) {
	if model.IsMissing(r.open) && !model.IsMissing(s.Open) {
		r.open = s.Open
	}
	if !model.IsMissing(s.High) && (model.IsMissing(r.high) || s.High > r.high) {
		r.high = s.High
	}
	if !model.IsMissing(s.Low) && (model.IsMissing(r.low) || s.Low < r.low) {
		r.low = s.Low
	}
	if !model.IsMissing(s.Close) {
		r.close = s.Close
	}
	if !model.IsMissing(s.Volume) {
		r.volume += s.Volume
	}
}

// bar finalizes the bucket. ok is false when no sample carried a close.
func (r *reduction) bar(start time.Time) (model.Bar, bool) {
	if model.IsMissing(r.close) {
		return model.Bar{}, false
	}
	b := model.Bar{
		Time:   start,
		Open:   orClose(r.open, r.close),
		High:   orClose(r.high, r.close),
		Low:    orClose(r.low, r.close),
		Close:  r.close,
		Volume: int64(r.volume),
	}
	return b, true
}

func orClose(v, close float64) float64 {
	if model.IsMissing(v) {
		return close
	}
	return v
}
