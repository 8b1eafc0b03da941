package broker

import (
	"context"
	"fmt"
	"strings"
	"time"

	alpacaapi "github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"

	"agentdeck/internal/domain"
)

// Compile-time interface check.
var _ Broker = (*AlpacaBroker)(nil)

// AlpacaBroker implements Broker against the Alpaca trading API. Money
// values arrive as decimals from the SDK and are converted to float64 at
// this boundary; everything downstream is display math.
type AlpacaBroker struct {
	client   *alpacaapi.Client
	paper    bool
	pageSize int
}

// NewAlpacaBroker creates an AlpacaBroker with the given credentials and
// base URL. paper records which endpoint the credentials point at so the
// account panel can label itself.
func NewAlpacaBroker(apiKey, apiSecret, baseURL string, paper bool) *AlpacaBroker {
	return &AlpacaBroker{
		client: alpacaapi.NewClient(alpacaapi.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		paper:    paper,
		pageSize: OrderPageSize,
	}
}

// Name returns "alpaca".
func (b *AlpacaBroker) Name() string {
	return "alpaca"
}

// AccountSummary fetches the account and derives the daily change from
// equity minus last-close equity.
func (b *AlpacaBroker) AccountSummary(ctx context.Context) (domain.AccountSummary, error) {
	if err := ctx.Err(); err != nil {
		return domain.AccountSummary{}, err
	}
	acct, err := b.client.GetAccount()
	if err != nil {
		return domain.AccountSummary{}, fmt.Errorf("alpaca account: %w", err)
	}

	equity := toFloat(acct.Equity)
	lastEquity := toFloat(acct.LastEquity)
	change := equity - lastEquity
	changePct := 0.0
	if lastEquity != 0 {
		changePct = change / lastEquity * 100
	}

	return domain.AccountSummary{
		BuyingPower:    toFloat(acct.BuyingPower),
		Cash:           toFloat(acct.Cash),
		Equity:         equity,
		DailyChange:    change,
		DailyChangePct: changePct,
		DailyCategory:  domain.CategoryOf(change),
		PaperMode:      b.paper,
		RetrievedAt:    time.Now().UTC(),
	}, nil
}

// Positions fetches open positions and attaches sign categories for
// today's and total P/L.
func (b *AlpacaBroker) Positions(ctx context.Context) ([]domain.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	alpacaPositions, err := b.client.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("alpaca positions: %w", err)
	}

	out := make([]domain.Position, 0, len(alpacaPositions))
	for _, p := range alpacaPositions {
		todayPL := toFloatPtr(p.UnrealizedIntradayPL)
		totalPL := toFloatPtr(p.UnrealizedPL)
		out = append(out, domain.Position{
			Symbol:        p.Symbol,
			Qty:           toFloat(p.Qty),
			Side:          strings.ToLower(p.Side),
			MarketValue:   toFloatPtr(p.MarketValue),
			AvgEntryPrice: toFloat(p.AvgEntryPrice),
			CostBasis:     toFloat(p.CostBasis),
			TodayPL:       todayPL,
			TodayPLPct:    toFloatPtr(p.UnrealizedIntradayPLPC) * 100,
			TodayCategory: domain.CategoryOf(todayPL),
			TotalPL:       totalPL,
			TotalPLPct:    toFloatPtr(p.UnrealizedPLPC) * 100,
			TotalCategory: domain.CategoryOf(totalPL),
		})
	}
	return out, nil
}

// RecentOrders fetches recent orders newest-first and slices out the
// requested page.
func (b *AlpacaBroker) RecentOrders(ctx context.Context, page int) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Fetch enough rows to cover the requested page in one call.
	limit := page * b.pageSize
	if limit < b.pageSize {
		limit = b.pageSize
	}
	alpacaOrders, err := b.client.GetOrders(alpacaapi.GetOrdersRequest{
		Status:    "all",
		Limit:     limit,
		Direction: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca orders: %w", err)
	}

	start, end := pageSlice(page, b.pageSize, len(alpacaOrders))
	out := make([]domain.Order, 0, end-start)
	for _, o := range alpacaOrders[start:end] {
		ord := domain.Order{
			ID:        o.ID,
			Symbol:    o.Symbol,
			Side:      string(o.Side),
			Qty:       toFloatPtr(o.Qty),
			Notional:  toFloatPtr(o.Notional),
			Type:      string(o.Type),
			Status:    o.Status,
			FilledQty: toFloat(o.FilledQty),
			CreatedAt: o.CreatedAt,
		}
		if o.FilledAvgPrice != nil {
			ord.FilledPrice = toFloat(*o.FilledAvgPrice)
		}
		if o.FilledAt != nil {
			ord.FilledAt = *o.FilledAt
		}
		out = append(out, ord)
	}
	return out, nil
}

// PositionState reports LONG, SHORT, or NEUTRAL from the current quantity
// sign. A missing position reads as NEUTRAL.
func (b *AlpacaBroker) PositionState(ctx context.Context, symbol string) (domain.PositionState, error) {
	if err := ctx.Err(); err != nil {
		return domain.PositionNeutral, err
	}
	pos, err := b.client.GetPosition(strings.ToUpper(symbol))
	if err != nil {
		// Alpaca returns 404 for no position; treat any lookup failure
		// that carries no position as flat.
		return domain.PositionNeutral, nil
	}
	qty := toFloat(pos.Qty)
	switch {
	case qty > 0:
		return domain.PositionLong, nil
	case qty < 0:
		return domain.PositionShort, nil
	}
	return domain.PositionNeutral, nil
}

// Liquidate closes the full position in one symbol at market.
func (b *AlpacaBroker) Liquidate(ctx context.Context, symbol string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.client.ClosePosition(strings.ToUpper(symbol), alpacaapi.ClosePositionRequest{})
	if err != nil {
		return fmt.Errorf("alpaca close %s: %w", symbol, err)
	}
	return nil
}

// LiquidateAll closes every open position, cancelling open orders first so
// held quantities are free to sell.
func (b *AlpacaBroker) LiquidateAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := b.client.CloseAllPositions(alpacaapi.CloseAllPositionsRequest{CancelOrders: true}); err != nil {
		return fmt.Errorf("alpaca close all: %w", err)
	}
	return nil
}

// IsMarketOpen asks the brokerage clock.
func (b *AlpacaBroker) IsMarketOpen(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	clock, err := b.client.GetClock()
	if err != nil {
		return false, fmt.Errorf("alpaca clock: %w", err)
	}
	return clock.IsOpen, nil
}

// NextOpen asks the brokerage clock for the next session open.
func (b *AlpacaBroker) NextOpen(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	clock, err := b.client.GetClock()
	if err != nil {
		return time.Time{}, fmt.Errorf("alpaca clock: %w", err)
	}
	return clock.NextOpen, nil
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func toFloatPtr(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}
	return toFloat(*d)
}
