package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"agentdeck/internal/board"
	"agentdeck/internal/broker"
	"agentdeck/internal/charts"
	"agentdeck/internal/config"
	"agentdeck/internal/domain"
	"agentdeck/internal/macro"
	"agentdeck/internal/news"
	"agentdeck/internal/prompts"
)

func newTestServer(t *testing.T, symbols []string) (*Server, *board.Model, *broker.SimulatorBroker) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := board.NewModel(symbols, 5)
	sim := broker.NewSimulatorBroker(100000)
	s := NewServer(
		"test",
		b,
		nil,
		sim,
		news.NewFetcher(nil, "", ""),
		macro.NewClient(""),
		charts.NewService(nil),
		prompts.NewStore(filepath.Join(t.TempDir(), "prompts.json"), log),
		[]config.IntegrationError{
			{Integration: "coindesk", Key: "COINDESK_API_KEY"},
		},
		log,
	)
	return s, b, sim
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, out any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if out != nil && rr.Code == http.StatusOK {
		if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
			t.Fatalf("decoding %s %s response: %v\n%s", method, path, err, rr.Body.String())
		}
	}
	return rr
}

func TestHealthReportsDisabledIntegrations(t *testing.T) {
	s, _, _ := newTestServer(t, []string{"AAPL"})
	h := s.Handler()

	var resp HealthResponse
	rr := doJSON(t, h, "GET", "/api/health", "", &resp)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if resp.Broker != "simulator" {
		t.Errorf("Broker = %q, want simulator", resp.Broker)
	}
	if len(resp.Integrations) != 1 || resp.Integrations[0].Integration != "coindesk" {
		t.Errorf("Integrations = %+v, want one coindesk entry", resp.Integrations)
	}
	if !resp.MarketOpen {
		t.Error("MarketOpen = false, want true from the simulator clock")
	}
}

func TestSelectTabUnknownIsNoOp(t *testing.T) {
	s, b, _ := newTestServer(t, []string{"AAPL"})
	h := s.Handler()

	var resp ViewResponse
	doJSON(t, h, "POST", "/api/view/tab/not-a-tab", "", &resp)
	if resp.Applied {
		t.Error("Applied = true for unknown tab, want false")
	}
	if got := b.View().ActiveTab; got != domain.TabMarketAnalysis {
		t.Errorf("ActiveTab = %v, want unchanged market-analysis", got)
	}

	doJSON(t, h, "POST", "/api/view/tab/final-decision", "", &resp)
	if !resp.Applied || resp.View.ActiveTab != "final-decision" {
		t.Errorf("valid tab select = %+v, want applied final-decision", resp)
	}
}

func TestSelectSymbolOffPageIsNoOp(t *testing.T) {
	// Page size 5: page 1 holds A..E, F sits on page 2.
	s, b, _ := newTestServer(t, []string{"A", "B", "C", "D", "E", "F"})
	h := s.Handler()

	var resp ViewResponse
	doJSON(t, h, "POST", "/api/view/symbol/F", "", &resp)
	if resp.Applied {
		t.Error("Applied = true for off-page symbol, want false")
	}
	if got := b.View().Selected; got != "A" {
		t.Errorf("Selected = %q, want unchanged A", got)
	}

	doJSON(t, h, "POST", "/api/view/page/2", "", &resp)
	if resp.View.Page != 2 {
		t.Fatalf("Page = %d, want 2", resp.View.Page)
	}
	doJSON(t, h, "POST", "/api/view/symbol/F", "", &resp)
	if !resp.Applied || resp.View.Selected != "F" {
		t.Errorf("select after page flip = %+v, want F selected", resp)
	}
}

func TestModalReplaceAndIdempotentClose(t *testing.T) {
	s, b, _ := newTestServer(t, []string{"AAPL"})
	h := s.Handler()

	var resp ViewResponse
	doJSON(t, h, "POST", "/api/view/modal",
		`{"kind":"prompt","tab":"market-analysis","symbol":"AAPL"}`, &resp)
	if !resp.Applied || resp.View.Modal.Kind != "prompt" {
		t.Fatalf("first open = %+v, want prompt modal", resp)
	}

	// Second open replaces, never stacks.
	doJSON(t, h, "POST", "/api/view/modal",
		`{"kind":"tool-output","symbol":"AAPL","tool_seq":3}`, &resp)
	if resp.View.Modal.Kind != "tool-output" || resp.View.Modal.ToolSeq != 3 {
		t.Errorf("second open = %+v, want tool-output replacing prompt", resp.View.Modal)
	}

	doJSON(t, h, "DELETE", "/api/view/modal", "", &resp)
	if resp.View.Modal.Kind != "" {
		t.Errorf("modal after close = %+v, want none", resp.View.Modal)
	}
	// Closing again is harmless.
	rr := doJSON(t, h, "DELETE", "/api/view/modal", "", &resp)
	if rr.Code != http.StatusOK {
		t.Errorf("second close status = %d, want 200", rr.Code)
	}
	if b.View().Modal.Kind != board.ModalNone {
		t.Error("modal reopened by idempotent close")
	}

	// Unknown kinds are rejected.
	doJSON(t, h, "POST", "/api/view/modal", `{"kind":"popup"}`, &resp)
	if resp.Applied {
		t.Error("Applied = true for unknown modal kind, want false")
	}
}

func TestIngestReportExtractsSignal(t *testing.T) {
	s, _, _ := newTestServer(t, []string{"AAPL"})
	h := s.Handler()

	var panel PanelJSON
	doJSON(t, h, "POST", "/api/ingest/report",
		`{"symbol":"aapl","tab":"final-decision","body":"After weighing both sides... FINAL TRANSACTION PROPOSAL: **BUY**"}`,
		&panel)
	if panel.Signal != "buy" {
		t.Errorf("Signal = %q, want buy", panel.Signal)
	}
	if panel.Status != "completed" {
		t.Errorf("Status = %q, want completed", panel.Status)
	}

	var got PanelJSON
	doJSON(t, h, "GET", "/api/reports/AAPL/final-decision", "", &got)
	if got.Signal != "buy" {
		t.Errorf("stored Signal = %q, want buy", got.Signal)
	}
}

func TestIngestReportUnknownTab(t *testing.T) {
	s, _, _ := newTestServer(t, []string{"AAPL"})
	h := s.Handler()

	rr := doJSON(t, h, "POST", "/api/ingest/report",
		`{"symbol":"AAPL","tab":"weather","body":"sunny"}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestIngestDrivesSessionCounters(t *testing.T) {
	s, b, _ := newTestServer(t, []string{"AAPL"})
	h := s.Handler()

	// A session driven over HTTP: the board holds the record, no engine
	// recorder is attached.
	b.SetSession(domain.Session{ID: "ext-1", Symbol: "AAPL", State: domain.SessionRunning})

	doJSON(t, h, "POST", "/api/ingest/prompt",
		`{"symbol":"AAPL","tab":"market-analysis","text":"You are the market analyst."}`, nil)
	doJSON(t, h, "POST", "/api/ingest/toolcall",
		`{"symbol":"AAPL","agent":"Market Analyst","tool":"get_stock_bars"}`, nil)
	doJSON(t, h, "POST", "/api/ingest/report",
		`{"symbol":"AAPL","tab":"market-analysis","body":"Bars summary:\n| close | 187.2 | -0.4% |\n","status":"completed"}`, nil)

	var sess SessionJSON
	doJSON(t, h, "GET", "/api/session", "", &sess)
	if sess.LLMCalls != 1 {
		t.Errorf("LLMCalls = %d, want 1", sess.LLMCalls)
	}
	if sess.ToolCalls != 1 {
		t.Errorf("ToolCalls = %d, want 1", sess.ToolCalls)
	}
	if sess.Reports != 1 {
		t.Errorf("Reports = %d, want 1", sess.Reports)
	}

	// Events for a different symbol leave the counters alone.
	doJSON(t, h, "POST", "/api/ingest/toolcall",
		`{"symbol":"TSLA","agent":"Market Analyst","tool":"get_stock_bars"}`, nil)
	doJSON(t, h, "GET", "/api/session", "", &sess)
	if sess.ToolCalls != 1 {
		t.Errorf("ToolCalls after off-symbol call = %d, want 1", sess.ToolCalls)
	}
}

func TestDebateOrderAndAlignment(t *testing.T) {
	s, _, _ := newTestServer(t, []string{"AAPL"})
	h := s.Handler()

	for _, body := range []string{
		`{"symbol":"AAPL","kind":"research","role":"bull","text":"A"}`,
		`{"symbol":"AAPL","kind":"research","role":"bear","text":"B"}`,
		`{"symbol":"AAPL","kind":"research","role":"bull","text":"C"}`,
	} {
		rr := doJSON(t, h, "POST", "/api/ingest/debate", body, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("ingest debate status = %d: %s", rr.Code, rr.Body.String())
		}
	}

	var resp DebateResponse
	doJSON(t, h, "GET", "/api/debate/AAPL?kind=research", "", &resp)
	if len(resp.Entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(resp.Entries))
	}
	wantTexts := []string{"A", "B", "C"}
	wantAligns := []string{"left", "right", "left"}
	for i, e := range resp.Entries {
		if e.Text != wantTexts[i] || e.Align != wantAligns[i] {
			t.Errorf("entry %d = {%s %s}, want {%s %s}", i, e.Text, e.Align, wantTexts[i], wantAligns[i])
		}
	}

	// Risk roles do not belong in the research debate.
	rr := doJSON(t, h, "POST", "/api/ingest/debate",
		`{"symbol":"AAPL","kind":"research","role":"risky","text":"X"}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("cross-kind role status = %d, want 400", rr.Code)
	}
}

func TestOrdersPagination(t *testing.T) {
	s, _, sim := newTestServer(t, []string{"AAPL"})
	h := s.Handler()
	for i := 0; i < 10; i++ {
		sim.SeedOrder(domain.Order{ID: string(rune('a' + i)), Symbol: "AAPL", Side: "buy", Status: "filled"})
	}

	var resp OrdersResponse
	doJSON(t, h, "GET", "/api/orders?page=2", "", &resp)
	if resp.Page != 2 || len(resp.Orders) != 3 {
		t.Errorf("page 2 = %d orders, want 3", len(resp.Orders))
	}

	rr := doJSON(t, h, "GET", "/api/orders?page=zero", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad page status = %d, want 400", rr.Code)
	}
}

func TestLiquidateRequiresConfirm(t *testing.T) {
	s, _, sim := newTestServer(t, []string{"AAPL"})
	h := s.Handler()
	sim.SeedPosition(domain.Position{Symbol: "AAPL", Qty: 10, MarketValue: 1900})

	rr := doJSON(t, h, "POST", "/api/positions/AAPL/liquidate", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("without confirm status = %d, want 400", rr.Code)
	}
	// Still held.
	positions, _ := sim.Positions(httptest.NewRequest("GET", "/", nil).Context())
	if len(positions) != 1 {
		t.Fatal("position closed without confirmation")
	}

	rr = doJSON(t, h, "POST", "/api/positions/AAPL/liquidate?confirm=true", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("with confirm status = %d: %s", rr.Code, rr.Body.String())
	}
	positions, _ = sim.Positions(httptest.NewRequest("GET", "/", nil).Context())
	if len(positions) != 0 {
		t.Error("position still open after confirmed liquidate")
	}
}

func TestCryptoNewsMissingKeyIsPanelError(t *testing.T) {
	s, _, _ := newTestServer(t, []string{"BTC"})
	h := s.Handler()

	var resp NewsResponse
	rr := doJSON(t, h, "GET", "/api/news/BTC?source=coindesk", "", &resp)
	// The request succeeds; the panel carries its own error.
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(resp.Error, "COINDESK_API_KEY") {
		t.Errorf("Error = %q, want missing-key reason", resp.Error)
	}
	if len(resp.Articles) != 0 {
		t.Errorf("Articles = %v, want empty", resp.Articles)
	}
}

func TestChartDemoEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t, []string{"AAPL"})
	h := s.Handler()

	var resp ChartResponse
	doJSON(t, h, "GET", "/api/chart/AAPL?period=1w", "", &resp)
	if !resp.Demo {
		t.Error("Demo = false, want true without marketdata client")
	}
	if len(resp.Points) == 0 {
		t.Error("chart has no points")
	}

	rr := doJSON(t, h, "GET", "/api/chart/AAPL?period=2h", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown period status = %d, want 400", rr.Code)
	}
}

func TestDashboardSnapshot(t *testing.T) {
	s, b, _ := newTestServer(t, []string{"AAPL", "TSLA"})
	h := s.Handler()
	b.SetAccount(domain.AccountSummary{Equity: 100000, DailyChange: 150, DailyCategory: domain.CategoryOf(150)})

	var resp DashboardResponse
	doJSON(t, h, "GET", "/api/dashboard", "", &resp)
	if resp.View.Selected != "AAPL" {
		t.Errorf("Selected = %q, want AAPL", resp.View.Selected)
	}
	if len(resp.Tabs) != 10 {
		t.Errorf("len(tabs) = %d, want 10", len(resp.Tabs))
	}
	if len(resp.Panels) != 10 {
		t.Errorf("len(panels) = %d, want 10 placeholders", len(resp.Panels))
	}
	if resp.Account == nil || resp.Account.DailyCategory != "positive" {
		t.Errorf("Account = %+v, want positive daily category", resp.Account)
	}
	if len(resp.Teams) != 4 {
		t.Errorf("len(teams) = %d, want 4", len(resp.Teams))
	}
	if resp.RefreshHintMS != board.RefreshSlow.Milliseconds() {
		t.Errorf("RefreshHintMS = %d, want slow hint while idle", resp.RefreshHintMS)
	}
}

func TestPromptDefaultFallback(t *testing.T) {
	s, _, _ := newTestServer(t, []string{"AAPL"})
	h := s.Handler()

	var resp PromptResponse
	doJSON(t, h, "GET", "/api/prompts/market-analysis/AAPL", "", &resp)
	if resp.Text == "" {
		t.Error("default prompt is empty")
	}
	if resp.CapturedAt != 0 {
		t.Errorf("CapturedAt = %d, want 0 for default prompt", resp.CapturedAt)
	}

	rr := doJSON(t, h, "POST", "/api/ingest/prompt",
		`{"tab":"market-analysis","symbol":"AAPL","text":"custom prompt"}`, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("ingest prompt status = %d, want 204", rr.Code)
	}
	doJSON(t, h, "GET", "/api/prompts/market-analysis/AAPL", "", &resp)
	if resp.Text != "custom prompt" || resp.CapturedAt == 0 {
		t.Errorf("captured prompt = %+v, want custom with timestamp", resp)
	}
}

func TestSessionStartWithoutEngine(t *testing.T) {
	s, _, _ := newTestServer(t, []string{"AAPL"})
	h := s.Handler()

	rr := doJSON(t, h, "POST", "/api/session/start", `{}`, nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 with no engine", rr.Code)
	}
}
