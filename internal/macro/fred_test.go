package macro

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetchRequiresKey(t *testing.T) {
	c := NewClient("")
	_, err := c.Fetch(context.Background(), "DGS10", 10)
	if err == nil || !strings.Contains(err.Error(), "FRED_API_KEY") {
		t.Errorf("err = %v, want missing-key error", err)
	}
}

func TestFetchParsesObservations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("series_id"); got != "DGS10" {
			t.Errorf("series_id = %q, want DGS10", got)
		}
		// Descending order with one missing value, as FRED returns it.
		w.Write([]byte(`{"observations":[
			{"date":"2026-03-02","value":"4.25"},
			{"date":"2026-03-01","value":"."},
			{"date":"2026-02-28","value":"4.20"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key")
	c.baseURL = srv.URL

	series, err := c.Fetch(context.Background(), "DGS10", 10)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(series.Observations) != 2 {
		t.Fatalf("len(observations) = %d, want 2 (missing value skipped)", len(series.Observations))
	}
	// Ascending by date after the sort.
	if series.Observations[0].Value != 4.20 || series.Observations[1].Value != 4.25 {
		t.Errorf("values = [%v %v], want [4.2 4.25]", series.Observations[0].Value, series.Observations[1].Value)
	}

	latest, ok := series.Latest()
	if !ok {
		t.Fatal("Latest: no observation")
	}
	if !latest.Date.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Latest date = %v, want 2026-03-02", latest.Date)
	}
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("bogus")
	c.baseURL = srv.URL

	_, err := c.Fetch(context.Background(), "UNRATE", 5)
	if err == nil || !strings.Contains(err.Error(), "status 403") {
		t.Errorf("err = %v, want status 403 error", err)
	}
}

func TestSnapshotPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("series_id") == "CPIAUCSL" {
			http.Error(w, "unavailable", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"observations":[{"date":"2026-03-02","value":"4.0"}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key")
	c.baseURL = srv.URL

	series, err := c.Snapshot(context.Background(), 5)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("len(series) = %d, want 2 of 3 presets", len(series))
	}
	for _, s := range series {
		if s.Name == "" || s.Units == "" {
			t.Errorf("series %s missing preset metadata: %+v", s.ID, s)
		}
	}
}

func TestPresets(t *testing.T) {
	presets := Presets()
	if len(presets) != 3 {
		t.Fatalf("len(presets) = %d, want 3", len(presets))
	}
	if presets[0].ID != "DGS10" {
		t.Errorf("presets[0].ID = %q, want DGS10", presets[0].ID)
	}
}
