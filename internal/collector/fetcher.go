package collector

import (
	"context"
	"fmt"
	"time"

	"MarketChart/internal/model"
)

// FetchRequest asks a provider for raw samples of one symbol in [Start, End).
type FetchRequest struct {
	Symbol          string
	Start           time.Time
	End             time.Time
	Interval        string // provider granularity: "1m", "1h", "1d", "1wk"
	IncludeExtended bool   // pre- and post-market samples
}

// Fetcher defines the interface for fetching raw market samples.
// An empty result is not an error: weekends, holidays and unknown dates
// simply have no samples.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) ([]model.RawSample, error)
	Name() string
}

// FetchError is a transport-level provider failure.
type FetchError struct {
	Provider string
	Symbol   string
	Status   int // HTTP status, 0 when no response was received
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s fetch %s: status %d: %v", e.Provider, e.Symbol, e.Status, e.Err)
	}
	return fmt.Sprintf("%s fetch %s: %v", e.Provider, e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// volume treats a negative provider volume as a missing reading.
func volume(v float64) float64 {
	if v < 0 {
		return model.Missing()
	}
	return v
}
