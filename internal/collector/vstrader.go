package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"MarketChart/internal/model"
)

// VsTraderFetcher implements Fetcher using the vstrader REST API.
type VsTraderFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewVsTraderFetcher creates a new fetcher with optional proxy support.
func NewVsTraderFetcher(baseURL, apiKey, proxyURL string) *VsTraderFetcher {
	return &VsTraderFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *VsTraderFetcher) Name() string { return "vstrader" }

// vsBar is the expected JSON shape from the vstrader API. Bars carry either a
// unix timestamp or a "time" string; the string may lack a UTC offset.
type vsBar struct {
	Timestamp int64    `json:"timestamp"`
	Time      string   `json:"time"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    *float64 `json:"volume"`
}

// naiveLayouts are tried after RFC3339 when the offset is absent.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func parseInstant(b vsBar) (model.Instant, error) {
	if b.Time == "" {
		return model.Aware(time.Unix(b.Timestamp, 0).UTC()), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, b.Time); err == nil {
		return model.Aware(t), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, b.Time); err == nil {
			return model.Naive(t), nil
		}
	}
	return model.Instant{}, fmt.Errorf("unrecognized time %q", b.Time)
}

func orMissing(v *float64) float64 {
	if v == nil {
		return model.Missing()
	}
	return *v
}

// Fetch retrieves bars from /api/v1/bars for [req.Start, req.End).
func (f *VsTraderFetcher) Fetch(ctx context.Context, req FetchRequest) ([]model.RawSample, error) {
	q := url.Values{}
	q.Set("symbol", req.Symbol)
	q.Set("interval", req.Interval)
	q.Set("start", req.Start.UTC().Format(time.RFC3339))
	q.Set("end", req.End.UTC().Format(time.RFC3339))
	if req.IncludeExtended {
		q.Set("extended", "true")
	}
	endpoint := fmt.Sprintf("%s/api/v1/bars?%s", f.BaseURL, q.Encode())

	fail := func(status int, err error) error {
		return &FetchError{Provider: f.Name(), Symbol: req.Symbol, Status: status, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fail(0, err)
	}
	if f.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(httpReq)
	if err != nil {
		return nil, fail(0, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fail(resp.StatusCode, fmt.Errorf("body: %s", string(body)))
	}

	var vsBars []vsBar
	if err := json.NewDecoder(resp.Body).Decode(&vsBars); err != nil {
		return nil, fail(resp.StatusCode, fmt.Errorf("decode bars: %w", err))
	}
	samples := make([]model.RawSample, 0, len(vsBars))
	for _, vb := range vsBars {
		ts, err := parseInstant(vb)
		if err != nil {
			return nil, fail(resp.StatusCode, err)
		}
		samples = append(samples, model.RawSample{
			Time:   ts,
			Open:   orMissing(vb.Open),
			High:   orMissing(vb.High),
			Low:    orMissing(vb.Low),
			Close:  orMissing(vb.Close),
			Volume: volume(orMissing(vb.Volume)),
		})
	}
	return samples, nil
}
