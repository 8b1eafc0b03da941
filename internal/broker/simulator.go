package broker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"agentdeck/internal/domain"
)

// Compile-time interface check.
var _ Broker = (*SimulatorBroker)(nil)

// SimulatorBroker is the in-memory Broker used when Alpaca credentials are
// absent and by tests. It holds a fixed cash balance plus whatever
// positions are seeded onto it, and records liquidations as orders.
type SimulatorBroker struct {
	mu        sync.Mutex
	cash      float64
	positions map[string]domain.Position
	orders    []domain.Order
	now       func() time.Time
}

// NewSimulatorBroker creates a SimulatorBroker with the given starting
// cash and no positions.
func NewSimulatorBroker(cash float64) *SimulatorBroker {
	return &SimulatorBroker{
		cash:      cash,
		positions: make(map[string]domain.Position),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Name returns "simulator".
func (b *SimulatorBroker) Name() string {
	return "simulator"
}

// SeedPosition installs or replaces a position. Categories are derived
// here so callers only supply the raw numbers.
func (b *SimulatorBroker) SeedPosition(p domain.Position) {
	p.Symbol = strings.ToUpper(p.Symbol)
	p.TodayCategory = domain.CategoryOf(p.TodayPL)
	p.TotalCategory = domain.CategoryOf(p.TotalPL)
	if p.Side == "" {
		if p.Qty < 0 {
			p.Side = "short"
		} else {
			p.Side = "long"
		}
	}
	b.mu.Lock()
	b.positions[p.Symbol] = p
	b.mu.Unlock()
}

// SeedOrder appends an order row, newest first on read.
func (b *SimulatorBroker) SeedOrder(o domain.Order) {
	b.mu.Lock()
	b.orders = append(b.orders, o)
	b.mu.Unlock()
}

// AccountSummary derives equity from cash plus position market value.
func (b *SimulatorBroker) AccountSummary(ctx context.Context) (domain.AccountSummary, error) {
	if err := ctx.Err(); err != nil {
		return domain.AccountSummary{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	equity := b.cash
	change := 0.0
	for _, p := range b.positions {
		equity += p.MarketValue
		change += p.TodayPL
	}
	changePct := 0.0
	if last := equity - change; last != 0 {
		changePct = change / last * 100
	}
	return domain.AccountSummary{
		BuyingPower:    b.cash * 2,
		Cash:           b.cash,
		Equity:         equity,
		DailyChange:    change,
		DailyChangePct: changePct,
		DailyCategory:  domain.CategoryOf(change),
		PaperMode:      true,
		RetrievedAt:    b.now(),
	}, nil
}

// Positions returns the seeded positions sorted by symbol.
func (b *SimulatorBroker) Positions(ctx context.Context) ([]domain.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// RecentOrders returns one page of recorded orders, newest first.
func (b *SimulatorBroker) RecentOrders(ctx context.Context, page int) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	newest := make([]domain.Order, len(b.orders))
	for i, o := range b.orders {
		newest[len(b.orders)-1-i] = o
	}
	start, end := pageSlice(page, OrderPageSize, len(newest))
	return append([]domain.Order(nil), newest[start:end]...), nil
}

// PositionState reports the held direction from the position quantity.
func (b *SimulatorBroker) PositionState(ctx context.Context, symbol string) (domain.PositionState, error) {
	if err := ctx.Err(); err != nil {
		return domain.PositionNeutral, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.positions[strings.ToUpper(symbol)]
	switch {
	case !ok || p.Qty == 0:
		return domain.PositionNeutral, nil
	case p.Qty < 0:
		return domain.PositionShort, nil
	}
	return domain.PositionLong, nil
}

// Liquidate removes the position, credits its market value to cash, and
// records a market order for the close.
func (b *SimulatorBroker) Liquidate(ctx context.Context, symbol string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	symbol = strings.ToUpper(symbol)
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.positions[symbol]
	if !ok {
		return fmt.Errorf("simulator: no position in %s", symbol)
	}
	b.closeLocked(p)
	return nil
}

// LiquidateAll closes every position.
func (b *SimulatorBroker) LiquidateAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.positions {
		b.closeLocked(p)
	}
	return nil
}

// closeLocked settles one position. Must be called with mu held.
func (b *SimulatorBroker) closeLocked(p domain.Position) {
	b.cash += p.MarketValue
	delete(b.positions, p.Symbol)

	side := "sell"
	if p.Qty < 0 {
		side = "buy"
	}
	qty := p.Qty
	if qty < 0 {
		qty = -qty
	}
	price := 0.0
	if p.Qty != 0 {
		price = p.MarketValue / p.Qty
		if price < 0 {
			price = -price
		}
	}
	now := b.now()
	b.orders = append(b.orders, domain.Order{
		ID:          uuid.NewString(),
		Symbol:      p.Symbol,
		Side:        side,
		Qty:         qty,
		Type:        "market",
		Status:      "filled",
		FilledQty:   qty,
		FilledPrice: price,
		CreatedAt:   now,
		FilledAt:    now,
	})
}

// IsMarketOpen always reports open so demo sessions run any time.
func (b *SimulatorBroker) IsMarketOpen(ctx context.Context) (bool, error) {
	return ctx.Err() == nil, ctx.Err()
}

// NextOpen reports now: the simulated market never closes.
func (b *SimulatorBroker) NextOpen(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	return b.now(), nil
}
