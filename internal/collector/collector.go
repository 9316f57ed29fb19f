package collector

import (
	"context"
	"sync"
	"time"

	"MarketChart/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Samples are served per request: every canned sample whose timestamp falls in
// [Start, End) is returned. Err, when set, fails every call.
type MockFetcher struct {
	Samples []model.RawSample
	Err     error

	mu    sync.Mutex
	calls []FetchRequest
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) Fetch(_ context.Context, req FetchRequest) ([]model.RawSample, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, &FetchError{Provider: m.Name(), Symbol: req.Symbol, Err: m.Err}
	}
	var out []model.RawSample
	for _, s := range m.Samples {
		t := s.Time.In(time.UTC)
		if !t.Before(req.Start) && t.Before(req.End) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Calls returns the requests received so far.
func (m *MockFetcher) Calls() []FetchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FetchRequest(nil), m.calls...)
}

// GenerateSession builds one sample per minute across [open, close] with a
// gentle drift around basePrice. Used by the mock data source.
func GenerateSession(open, close time.Time, basePrice float64) []model.RawSample {
	var samples []model.RawSample
	for i, t := 0, open; !t.After(close); i, t = i+1, t.Add(time.Minute) {
		p := basePrice * (1 + float64(i%60-30)*0.0005)
		samples = append(samples, model.RawSample{
			Time:   model.Aware(t),
			Open:   p * 0.999,
			High:   p * 1.002,
			Low:    p * 0.998,
			Close:  p,
			Volume: 1000,
		})
	}
	return samples
}
