// Package charts serves OHLCV series for the dashboard's price chart. Live
// data comes from Alpaca bars; without credentials a deterministic demo
// series keeps the panel rendering.
package charts

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// Point is one OHLCV bar.
type Point struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Chart is the series for one (symbol, period).
type Chart struct {
	Symbol string
	Period string
	Demo   bool
	Points []Point
}

// periodSpec maps a UI period to bar resolution and lookback.
type periodSpec struct {
	frame    marketdata.TimeFrame
	lookback time.Duration
}

func periods() map[string]periodSpec {
	return map[string]periodSpec{
		"15m": {marketdata.NewTimeFrame(15, marketdata.Min), 5 * 24 * time.Hour},
		"1d":  {marketdata.NewTimeFrame(15, marketdata.Min), 3 * 24 * time.Hour},
		"1w":  {marketdata.OneHour, 7 * 24 * time.Hour},
		"1mo": {marketdata.OneDay, 30 * 24 * time.Hour},
		"1y":  {marketdata.OneDay, 365 * 24 * time.Hour},
	}
}

// Periods returns the supported period keys in display order.
func Periods() []string {
	return []string{"15m", "1d", "1w", "1mo", "1y"}
}

// Service fetches chart series. A nil marketdata client means demo mode.
type Service struct {
	md  *marketdata.Client
	now func() time.Time
}

// NewService builds a chart Service. md may be nil.
func NewService(md *marketdata.Client) *Service {
	return &Service{md: md, now: func() time.Time { return time.Now().UTC() }}
}

// Series returns the chart for a symbol and period. Unknown periods error;
// a missing marketdata client falls back to the demo series.
func (s *Service) Series(ctx context.Context, symbol, period string) (Chart, error) {
	spec, ok := periods()[period]
	if !ok {
		return Chart{}, fmt.Errorf("unknown chart period %q", period)
	}
	if s.md == nil {
		return Demo(symbol, period, s.now()), nil
	}

	end := s.now()
	start := end.Add(-spec.lookback)

	// SIP needs a paid data subscription; fall back to IEX when it is
	// rejected.
	bars, err := s.fetchBars(ctx, symbol, spec.frame, start, end, "sip")
	if err != nil {
		bars, err = s.fetchBars(ctx, symbol, spec.frame, start, end, "iex")
		if err != nil {
			return Chart{}, fmt.Errorf("chart %s/%s: %w", symbol, period, err)
		}
	}
	return Chart{Symbol: symbol, Period: period, Points: bars}, nil
}

func (s *Service) fetchBars(ctx context.Context, symbol string, frame marketdata.TimeFrame, start, end time.Time, feed string) ([]Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bars, err := s.md.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: frame,
		Start:     start,
		End:       end,
		Feed:      marketdata.Feed(feed),
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars(%s): %w", feed, err)
	}

	points := make([]Point, 0, len(bars))
	for _, b := range bars {
		points = append(points, Point{
			Time:   b.Timestamp,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		})
	}
	return points, nil
}

// ---------------------------------------------------------------------------
// Demo series
// ---------------------------------------------------------------------------

// Demo produces a deterministic series for a symbol and period. The same
// inputs always yield the same shape so the panel is stable across
// refreshes.
func Demo(symbol, period string, now time.Time) Chart {
	spec, ok := periods()[period]
	if !ok {
		spec = periods()["1d"]
	}

	const n = 60
	step := spec.lookback / n
	base := 50 + float64(symbolSeed(symbol)%200)

	// Anchor the walk to the period start so intermediate bars do not
	// shift as now advances.
	anchor := now.Add(-spec.lookback).Truncate(step)

	points := make([]Point, 0, n)
	price := base
	for i := 0; i < n; i++ {
		t := anchor.Add(time.Duration(i) * step)
		wave := math.Sin(float64(i)/7+float64(symbolSeed(symbol)%10)) * base * 0.01
		drift := float64(i) * base * 0.0005
		open := price
		close := base + wave + drift
		high := math.Max(open, close) * 1.004
		low := math.Min(open, close) * 0.996
		points = append(points, Point{
			Time:   t,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: int64(100000 + (symbolSeed(symbol)+uint32(i)*7919)%400000),
		})
		price = close
	}
	return Chart{Symbol: symbol, Period: period, Demo: true, Points: points}
}

// symbolSeed hashes a symbol to a stable small number (FNV-1a).
func symbolSeed(symbol string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(symbol); i++ {
		h ^= uint32(symbol[i])
		h *= 16777619
	}
	return h % 100000
}
