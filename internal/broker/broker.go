// Package broker presents brokerage account state to the dashboard:
// account summary, open positions, recent orders, and the explicit
// liquidation actions the UI exposes. It never originates trades on its
// own.
package broker

import (
	"context"
	"time"

	"agentdeck/internal/domain"
)

// OrderPageSize is how many order rows one page of the orders table shows.
const OrderPageSize = 7

// Broker abstracts the brokerage read path plus the dashboard's explicit
// close-position actions.
type Broker interface {
	// Name returns the broker identifier (e.g. "alpaca", "simulator").
	Name() string

	// AccountSummary returns the account's headline numbers with the daily
	// change already categorised for display.
	AccountSummary(ctx context.Context) (domain.AccountSummary, error)

	// Positions returns all open positions with display-ready P/L
	// breakdowns.
	Positions(ctx context.Context) ([]domain.Position, error)

	// RecentOrders returns one page of recent orders, newest first. Pages
	// are 1-based; a page past the end returns an empty slice.
	RecentOrders(ctx context.Context, page int) ([]domain.Order, error)

	// PositionState reports the current direction held in a symbol.
	PositionState(ctx context.Context, symbol string) (domain.PositionState, error)

	// Liquidate closes the position in one symbol at market.
	Liquidate(ctx context.Context, symbol string) error

	// LiquidateAll closes every open position at market.
	LiquidateAll(ctx context.Context) error

	// IsMarketOpen reports whether the equity market is currently open.
	IsMarketOpen(ctx context.Context) (bool, error)

	// NextOpen returns the next regular-session open.
	NextOpen(ctx context.Context) (time.Time, error)
}

// pageSlice returns the [start, end) bounds for a 1-based page over n items.
func pageSlice(page, size, n int) (int, int) {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= n {
		return 0, 0
	}
	end := start + size
	if end > n {
		end = n
	}
	return start, end
}
