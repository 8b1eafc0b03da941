// Package macro fetches macroeconomic series from the FRED API for the
// macro-analysis panel.
package macro

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"agentdeck/internal/util"
)

// Observation is one dated value in a series.
type Observation struct {
	Date  time.Time
	Value float64
}

// Series is a fetched macro series with its display metadata.
type Series struct {
	ID           string
	Name         string
	Units        string
	Observations []Observation // ascending by date
}

// Latest returns the most recent observation, or false when the series is
// empty.
func (s Series) Latest() (Observation, bool) {
	if len(s.Observations) == 0 {
		return Observation{}, false
	}
	return s.Observations[len(s.Observations)-1], true
}

// Preset names a series the macro panel shows by default.
type Preset struct {
	ID    string
	Name  string
	Units string
}

// Presets returns the default macro panel series.
func Presets() []Preset {
	return []Preset{
		{ID: "DGS10", Name: "10-Year Treasury Yield", Units: "%"},
		{ID: "CPIAUCSL", Name: "Consumer Price Index", Units: "index"},
		{ID: "UNRATE", Name: "Unemployment Rate", Units: "%"},
	}
}

// Client talks to the FRED observations endpoint.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient builds a FRED client. The key may be empty; fetches then fail
// with a missing-key error that the panel displays.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: "https://api.stlouisfed.org/fred",
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// Fetch retrieves up to limit recent observations for one series, ascending
// by date. FRED encodes missing values as "."; those rows are skipped.
func (c *Client) Fetch(ctx context.Context, seriesID string, limit int) (Series, error) {
	if c.apiKey == "" {
		return Series{}, fmt.Errorf("fred: missing FRED_API_KEY")
	}
	if limit <= 0 {
		limit = 30
	}

	q := url.Values{}
	q.Set("series_id", seriesID)
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")
	q.Set("sort_order", "desc")
	q.Set("limit", strconv.Itoa(limit))
	u := c.baseURL + "/series/observations?" + q.Encode()

	// FRED drops connections under load; retry transport errors and 5xx.
	// Client errors (bad key, unknown series) fail immediately.
	var body observationsResponse
	var clientErr error
	fetch := func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			clientErr = fmt.Errorf("status %d", resp.StatusCode)
			return nil
		}
		body = observationsResponse{}
		return json.NewDecoder(resp.Body).Decode(&body)
	}
	if err := util.Retry(ctx, 3, 500*time.Millisecond, fetch); err != nil {
		return Series{}, fmt.Errorf("fred %s: %w", seriesID, err)
	}
	if clientErr != nil {
		return Series{}, fmt.Errorf("fred %s: %w", seriesID, clientErr)
	}

	series := Series{ID: seriesID}
	for _, o := range body.Observations {
		if o.Value == "." {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		d, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			continue
		}
		series.Observations = append(series.Observations, Observation{Date: d, Value: v})
	}
	sort.Slice(series.Observations, func(i, j int) bool {
		return series.Observations[i].Date.Before(series.Observations[j].Date)
	})
	return series, nil
}

// Snapshot fetches every preset series. Individual failures are skipped;
// an error comes back only when nothing could be fetched.
func (c *Client) Snapshot(ctx context.Context, limit int) ([]Series, error) {
	presets := Presets()
	out := make([]Series, 0, len(presets))
	var firstErr error
	for _, p := range presets {
		s, err := c.Fetch(ctx, p.ID, limit)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.Name = p.Name
		s.Units = p.Units
		out = append(out, s)
	}
	if len(out) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
