package broker

import (
	"context"
	"testing"

	"agentdeck/internal/domain"
)

func TestBrokerNames(t *testing.T) {
	if got := NewAlpacaBroker("key", "secret", "https://paper-api.alpaca.markets", true).Name(); got != "alpaca" {
		t.Errorf("AlpacaBroker.Name() = %q, want alpaca", got)
	}
	if got := NewSimulatorBroker(0).Name(); got != "simulator" {
		t.Errorf("SimulatorBroker.Name() = %q, want simulator", got)
	}
}

func TestPageSlice(t *testing.T) {
	cases := []struct {
		page, size, n      int
		wantStart, wantEnd int
	}{
		{1, 7, 20, 0, 7},
		{2, 7, 20, 7, 14},
		{3, 7, 20, 14, 20},
		{4, 7, 20, 0, 0},
		{0, 7, 20, 0, 7}, // page clamps to 1
		{1, 7, 3, 0, 3},
		{1, 7, 0, 0, 0},
	}
	for _, c := range cases {
		start, end := pageSlice(c.page, c.size, c.n)
		if start != c.wantStart || end != c.wantEnd {
			t.Errorf("pageSlice(%d, %d, %d) = (%d, %d), want (%d, %d)",
				c.page, c.size, c.n, start, end, c.wantStart, c.wantEnd)
		}
	}
}

func TestSimulatorAccountSummary(t *testing.T) {
	b := NewSimulatorBroker(100000)
	b.SeedPosition(domain.Position{Symbol: "AAPL", Qty: 10, MarketValue: 1900, TodayPL: -150})

	acct, err := b.AccountSummary(context.Background())
	if err != nil {
		t.Fatalf("AccountSummary: %v", err)
	}
	if acct.Equity != 101900 {
		t.Errorf("Equity = %v, want 101900", acct.Equity)
	}
	if acct.DailyChange != -150 {
		t.Errorf("DailyChange = %v, want -150", acct.DailyChange)
	}
	if acct.DailyCategory != domain.CategoryNegative {
		t.Errorf("DailyCategory = %v, want negative", acct.DailyCategory)
	}
	if !acct.PaperMode {
		t.Error("PaperMode = false, want true")
	}
}

func TestSimulatorAccountCategoryNeutralAtZero(t *testing.T) {
	b := NewSimulatorBroker(50000)

	acct, err := b.AccountSummary(context.Background())
	if err != nil {
		t.Fatalf("AccountSummary: %v", err)
	}
	if acct.DailyChange != 0 {
		t.Errorf("DailyChange = %v, want 0", acct.DailyChange)
	}
	if acct.DailyCategory != domain.CategoryNeutral {
		t.Errorf("DailyCategory = %v, want neutral", acct.DailyCategory)
	}
}

func TestSimulatorPositionCategories(t *testing.T) {
	b := NewSimulatorBroker(0)
	b.SeedPosition(domain.Position{Symbol: "msft", Qty: 5, MarketValue: 2000, TodayPL: 150, TotalPL: -40})

	positions, err := b.Positions(context.Background())
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("len(positions) = %d, want 1", len(positions))
	}
	p := positions[0]
	if p.Symbol != "MSFT" {
		t.Errorf("Symbol = %q, want MSFT", p.Symbol)
	}
	if p.TodayCategory != domain.CategoryPositive {
		t.Errorf("TodayCategory = %v, want positive", p.TodayCategory)
	}
	if p.TotalCategory != domain.CategoryNegative {
		t.Errorf("TotalCategory = %v, want negative", p.TotalCategory)
	}
	if p.Side != "long" {
		t.Errorf("Side = %q, want long", p.Side)
	}
}

func TestSimulatorPositionState(t *testing.T) {
	b := NewSimulatorBroker(0)
	b.SeedPosition(domain.Position{Symbol: "NVDA", Qty: 3, MarketValue: 400})
	b.SeedPosition(domain.Position{Symbol: "TSLA", Qty: -2, MarketValue: -500})
	ctx := context.Background()

	cases := []struct {
		symbol string
		want   domain.PositionState
	}{
		{"NVDA", domain.PositionLong},
		{"nvda", domain.PositionLong},
		{"TSLA", domain.PositionShort},
		{"AMD", domain.PositionNeutral},
	}
	for _, c := range cases {
		got, err := b.PositionState(ctx, c.symbol)
		if err != nil {
			t.Fatalf("PositionState(%s): %v", c.symbol, err)
		}
		if got != c.want {
			t.Errorf("PositionState(%s) = %v, want %v", c.symbol, got, c.want)
		}
	}
}

func TestSimulatorLiquidate(t *testing.T) {
	b := NewSimulatorBroker(1000)
	b.SeedPosition(domain.Position{Symbol: "AAPL", Qty: 10, MarketValue: 1900})
	ctx := context.Background()

	if err := b.Liquidate(ctx, "AAPL"); err != nil {
		t.Fatalf("Liquidate: %v", err)
	}

	state, _ := b.PositionState(ctx, "AAPL")
	if state != domain.PositionNeutral {
		t.Errorf("state after liquidate = %v, want NEUTRAL", state)
	}
	acct, _ := b.AccountSummary(ctx)
	if acct.Cash != 2900 {
		t.Errorf("Cash = %v, want 2900", acct.Cash)
	}

	orders, err := b.RecentOrders(ctx, 1)
	if err != nil {
		t.Fatalf("RecentOrders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("len(orders) = %d, want 1", len(orders))
	}
	if orders[0].Side != "sell" || orders[0].Status != "filled" || orders[0].Qty != 10 {
		t.Errorf("close order = %+v, want filled sell of 10", orders[0])
	}

	if err := b.Liquidate(ctx, "AAPL"); err == nil {
		t.Error("Liquidate on flat symbol should error")
	}
}

func TestSimulatorLiquidateAll(t *testing.T) {
	b := NewSimulatorBroker(0)
	b.SeedPosition(domain.Position{Symbol: "AAPL", Qty: 10, MarketValue: 1900})
	b.SeedPosition(domain.Position{Symbol: "TSLA", Qty: -2, MarketValue: -500})
	ctx := context.Background()

	if err := b.LiquidateAll(ctx); err != nil {
		t.Fatalf("LiquidateAll: %v", err)
	}
	positions, _ := b.Positions(ctx)
	if len(positions) != 0 {
		t.Errorf("len(positions) = %d, want 0", len(positions))
	}
	orders, _ := b.RecentOrders(ctx, 1)
	if len(orders) != 2 {
		t.Errorf("len(orders) = %d, want 2", len(orders))
	}
}

func TestSimulatorOrderPagination(t *testing.T) {
	b := NewSimulatorBroker(0)
	for i := 0; i < 10; i++ {
		b.SeedOrder(domain.Order{ID: string(rune('a' + i)), Symbol: "AAPL", Side: "buy", Status: "filled"})
	}
	ctx := context.Background()

	page1, err := b.RecentOrders(ctx, 1)
	if err != nil {
		t.Fatalf("RecentOrders page 1: %v", err)
	}
	if len(page1) != OrderPageSize {
		t.Fatalf("len(page1) = %d, want %d", len(page1), OrderPageSize)
	}
	// Newest first: the last seeded order leads the first page.
	if page1[0].ID != "j" {
		t.Errorf("page1[0].ID = %q, want j", page1[0].ID)
	}

	page2, _ := b.RecentOrders(ctx, 2)
	if len(page2) != 3 {
		t.Errorf("len(page2) = %d, want 3", len(page2))
	}
	page3, _ := b.RecentOrders(ctx, 3)
	if len(page3) != 0 {
		t.Errorf("len(page3) = %d, want 0", len(page3))
	}
}
