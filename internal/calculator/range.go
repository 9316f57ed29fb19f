package calculator

import (
	"errors"
	"math"

	"MarketChart/internal/model"
)

// SessionRange returns the highest high and lowest low across bars.
func SessionRange(bars []model.Bar) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// SessionChange returns the move from the first bar's open to the last bar's
// close, absolute and in percent.
func SessionChange(bars []model.Bar) (change, pct float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	first := bars[0].Open
	change = bars[len(bars)-1].Close - first
	if first == 0 {
		return change, 0, nil
	}
	return change, change / first * 100, nil
}

// TotalVolume sums bar volumes.
func TotalVolume(bars []model.Bar) int64 {
	var v int64
	for _, b := range bars {
		v += b.Volume
	}
	return v
}
