// Package httpapi serves the dashboard REST API and the WebSocket push
// channel. Every payload is JSON; panels arrive display-ready so clients
// never re-derive verdicts or signals.
package httpapi

import (
	"agentdeck/internal/board"
	"agentdeck/internal/domain"
)

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

// ModalJSON describes the open overlay.
type ModalJSON struct {
	Kind    string `json:"kind"`
	Tab     string `json:"tab,omitempty"`
	Symbol  string `json:"symbol,omitempty"`
	ToolSeq int    `json:"tool_seq,omitempty"`
}

// ViewJSON is the navigational state of the dashboard.
type ViewJSON struct {
	ActiveTab string    `json:"active_tab"`
	Selected  string    `json:"selected"`
	Page      int       `json:"page"`
	PageCount int       `json:"page_count"`
	PageSize  int       `json:"page_size"`
	Window    []string  `json:"window"`
	Symbols   []string  `json:"symbols"`
	Modal     ModalJSON `json:"modal"`
}

// ViewResponse reports a selection op's outcome. Applied is false when the
// request was an ignored no-op (unknown tab, off-page symbol).
type ViewResponse struct {
	Applied bool     `json:"applied"`
	View    ViewJSON `json:"view"`
}

// ---------------------------------------------------------------------------
// Panels & tabs
// ---------------------------------------------------------------------------

// TabJSON is one entry of the tab bar.
type TabJSON struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// PanelJSON is a display-ready report panel.
type PanelJSON struct {
	Tab         string `json:"tab"`
	Label       string `json:"label"`
	State       string `json:"state"`
	Body        string `json:"body"`
	Status      string `json:"status"`
	StatusColor string `json:"status_color"`
	Signal      string `json:"signal,omitempty"`
	SignalColor string `json:"signal_color,omitempty"`
}

func panelJSON(pv board.PanelView) PanelJSON {
	return PanelJSON{
		Tab:         string(pv.Tab),
		Label:       pv.Label,
		State:       string(pv.State),
		Body:        pv.Body,
		Status:      string(pv.Status),
		StatusColor: pv.StatusColor,
		Signal:      string(pv.Signal),
		SignalColor: pv.SignalColor,
	}
}

// ---------------------------------------------------------------------------
// Debate & agents
// ---------------------------------------------------------------------------

// TranscriptEntryJSON is one display-ready debate argument.
type TranscriptEntryJSON struct {
	Seq     int    `json:"seq"`
	Role    string `json:"role"`
	Speaker string `json:"speaker"`
	Align   string `json:"align"`
	Color   string `json:"color"`
	Text    string `json:"text"`
}

// DebateResponse is an ordered transcript.
type DebateResponse struct {
	Symbol  string                `json:"symbol"`
	Kind    string                `json:"kind"`
	Entries []TranscriptEntryJSON `json:"entries"`
}

// AgentBadgeJSON is one agent's status chip.
type AgentBadgeJSON struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Color  string `json:"color"`
}

// TeamJSON is a team with its agents' statuses.
type TeamJSON struct {
	Name   string           `json:"name"`
	Agents []AgentBadgeJSON `json:"agents"`
}

// ---------------------------------------------------------------------------
// Account
// ---------------------------------------------------------------------------

// AccountJSON is the account summary with sign categories attached.
type AccountJSON struct {
	BuyingPower    float64 `json:"buying_power"`
	Cash           float64 `json:"cash"`
	Equity         float64 `json:"equity"`
	DailyChange    float64 `json:"daily_change"`
	DailyChangePct float64 `json:"daily_change_pct"`
	DailyCategory  string  `json:"daily_category"`
	PaperMode      bool    `json:"paper_mode"`
	RetrievedAt    int64   `json:"retrieved_at"` // Unix ms
}

func accountJSON(a domain.AccountSummary) AccountJSON {
	return AccountJSON{
		BuyingPower:    a.BuyingPower,
		Cash:           a.Cash,
		Equity:         a.Equity,
		DailyChange:    a.DailyChange,
		DailyChangePct: a.DailyChangePct,
		DailyCategory:  string(a.DailyCategory),
		PaperMode:      a.PaperMode,
		RetrievedAt:    a.RetrievedAt.UnixMilli(),
	}
}

// PositionJSON is one open position row.
type PositionJSON struct {
	Symbol        string  `json:"symbol"`
	Qty           float64 `json:"qty"`
	Side          string  `json:"side"`
	MarketValue   float64 `json:"market_value"`
	AvgEntryPrice float64 `json:"avg_entry_price"`
	CostBasis     float64 `json:"cost_basis"`
	TodayPL       float64 `json:"today_pl"`
	TodayPLPct    float64 `json:"today_pl_pct"`
	TodayCategory string  `json:"today_category"`
	TotalPL       float64 `json:"total_pl"`
	TotalPLPct    float64 `json:"total_pl_pct"`
	TotalCategory string  `json:"total_category"`
}

func positionJSON(p domain.Position) PositionJSON {
	return PositionJSON{
		Symbol:        p.Symbol,
		Qty:           p.Qty,
		Side:          p.Side,
		MarketValue:   p.MarketValue,
		AvgEntryPrice: p.AvgEntryPrice,
		CostBasis:     p.CostBasis,
		TodayPL:       p.TodayPL,
		TodayPLPct:    p.TodayPLPct,
		TodayCategory: string(p.TodayCategory),
		TotalPL:       p.TotalPL,
		TotalPLPct:    p.TotalPLPct,
		TotalCategory: string(p.TotalCategory),
	}
}

// OrderJSON is one order row of the orders table.
type OrderJSON struct {
	ID          string  `json:"id"`
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	Qty         float64 `json:"qty"`
	Notional    float64 `json:"notional,omitempty"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	FilledQty   float64 `json:"filled_qty"`
	FilledPrice float64 `json:"filled_price"`
	CreatedAt   int64   `json:"created_at"` // Unix ms
	FilledAt    int64   `json:"filled_at,omitempty"`
}

func orderJSON(o domain.Order) OrderJSON {
	out := OrderJSON{
		ID:          o.ID,
		Symbol:      o.Symbol,
		Side:        o.Side,
		Qty:         o.Qty,
		Notional:    o.Notional,
		Type:        o.Type,
		Status:      o.Status,
		FilledQty:   o.FilledQty,
		FilledPrice: o.FilledPrice,
		CreatedAt:   o.CreatedAt.UnixMilli(),
	}
	if !o.FilledAt.IsZero() {
		out.FilledAt = o.FilledAt.UnixMilli()
	}
	return out
}

// OrdersResponse is one page of orders.
type OrdersResponse struct {
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Orders   []OrderJSON `json:"orders"`
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// SessionJSON is the session status strip.
type SessionJSON struct {
	ID         string            `json:"id"`
	Symbol     string            `json:"symbol"`
	State      string            `json:"state"`
	Analysts   []string          `json:"analysts"`
	Agents     map[string]string `json:"agents"`
	LLMCalls   int               `json:"llm_calls"`
	ToolCalls  int               `json:"tool_calls"`
	Reports    int               `json:"reports"`
	StartedAt  int64             `json:"started_at"`            // Unix ms
	FinishedAt int64             `json:"finished_at,omitempty"` // Unix ms
}

func sessionJSON(s domain.Session) SessionJSON {
	agents := make(map[string]string, len(s.Agents))
	for k, v := range s.Agents {
		agents[k] = string(v)
	}
	out := SessionJSON{
		ID:        s.ID,
		Symbol:    s.Symbol,
		State:     string(s.State),
		Analysts:  s.Analysts,
		Agents:    agents,
		LLMCalls:  s.LLMCalls,
		ToolCalls: s.ToolCalls,
		Reports:   s.Reports,
		StartedAt: s.StartedAt.UnixMilli(),
	}
	if !s.FinishedAt.IsZero() {
		out.FinishedAt = s.FinishedAt.UnixMilli()
	}
	return out
}

// StartSessionRequest launches a session batch.
type StartSessionRequest struct {
	Symbols  []string `json:"symbols,omitempty"`
	Mode     string   `json:"mode,omitempty"`
	Interval string   `json:"interval,omitempty"` // loop mode, Go duration
}

// SessionControlResponse reports start/stop outcomes.
type SessionControlResponse struct {
	Running bool   `json:"running"`
	Message string `json:"message,omitempty"`
}

// ---------------------------------------------------------------------------
// Dashboard snapshot
// ---------------------------------------------------------------------------

// DashboardResponse is the full board snapshot for one poll.
type DashboardResponse struct {
	View          ViewJSON     `json:"view"`
	Tabs          []TabJSON    `json:"tabs"`
	Panels        []PanelJSON  `json:"panels"`
	Teams         []TeamJSON   `json:"teams"`
	Account       *AccountJSON `json:"account,omitempty"`
	Session       *SessionJSON `json:"session,omitempty"`
	RefreshHintMS int64        `json:"refresh_hint_ms"`
}

// ---------------------------------------------------------------------------
// Feeds
// ---------------------------------------------------------------------------

// NewsArticleJSON is a single news article.
type NewsArticleJSON struct {
	Time     int64  `json:"time"` // Unix ms
	Source   string `json:"source"`
	Headline string `json:"headline"`
	Content  string `json:"content"`
}

// NewsResponse is the news panel payload. Error carries a panel-scoped
// failure (e.g. a missing API key) without affecting the HTTP status.
type NewsResponse struct {
	Symbol   string            `json:"symbol"`
	Source   string            `json:"source,omitempty"`
	Articles []NewsArticleJSON `json:"articles"`
	Error    string            `json:"error,omitempty"`
}

// MacroObservationJSON is one dated macro value.
type MacroObservationJSON struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// MacroSeriesJSON is one macro series.
type MacroSeriesJSON struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name,omitempty"`
	Units        string                 `json:"units,omitempty"`
	Observations []MacroObservationJSON `json:"observations"`
}

// MacroResponse is the macro panel payload.
type MacroResponse struct {
	Series []MacroSeriesJSON `json:"series"`
	Error  string            `json:"error,omitempty"`
}

// ChartPointJSON is one OHLCV bar.
type ChartPointJSON struct {
	Time   int64   `json:"time"` // Unix ms
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// ChartResponse is the chart panel payload.
type ChartResponse struct {
	Symbol string           `json:"symbol"`
	Period string           `json:"period"`
	Demo   bool             `json:"demo,omitempty"`
	Points []ChartPointJSON `json:"points"`
}

// ---------------------------------------------------------------------------
// Prompts & tool calls
// ---------------------------------------------------------------------------

// PromptResponse is one captured (or default) system prompt.
type PromptResponse struct {
	Tab        string `json:"tab"`
	Symbol     string `json:"symbol"`
	Text       string `json:"text"`
	CapturedAt int64  `json:"captured_at,omitempty"` // Unix ms, 0 = default prompt
}

// ToolCallJSON is one tool invocation row.
type ToolCallJSON struct {
	Seq        int    `json:"seq"`
	Symbol     string `json:"symbol"`
	Agent      string `json:"agent"`
	Tool       string `json:"tool"`
	Inputs     string `json:"inputs"`
	Output     string `json:"output"`
	Status     string `json:"status"`
	DurationMS int64  `json:"duration_ms"`
	Time       int64  `json:"time"` // Unix ms
}

func toolCallJSON(tc domain.ToolCall) ToolCallJSON {
	return ToolCallJSON{
		Seq:        tc.Seq,
		Symbol:     tc.Symbol,
		Agent:      tc.Agent,
		Tool:       tc.Tool,
		Inputs:     tc.Inputs,
		Output:     tc.Output,
		Status:     string(tc.Status),
		DurationMS: tc.Duration.Milliseconds(),
		Time:       tc.Time.UnixMilli(),
	}
}

// ToolCallsResponse is a symbol's tool-call log.
type ToolCallsResponse struct {
	Symbol string         `json:"symbol"`
	Calls  []ToolCallJSON `json:"calls"`
}

// ---------------------------------------------------------------------------
// Health & ingest
// ---------------------------------------------------------------------------

// IntegrationJSON reports one disabled integration and why.
type IntegrationJSON struct {
	Integration string `json:"integration"`
	Error       string `json:"error"`
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Broker       string            `json:"broker"`
	MarketOpen   bool              `json:"market_open"`
	NextOpen     int64             `json:"next_open,omitempty"` // Unix ms
	Integrations []IntegrationJSON `json:"integrations"`
	Time         int64             `json:"time"` // Unix ms
}

// IngestReportRequest publishes a report panel.
type IngestReportRequest struct {
	Symbol string `json:"symbol"`
	Tab    string `json:"tab"`
	Body   string `json:"body"`
	Status string `json:"status,omitempty"` // default completed
	Error  string `json:"error,omitempty"`
}

// IngestStatusRequest updates one agent's badge.
type IngestStatusRequest struct {
	Agent  string `json:"agent"`
	Status string `json:"status"`
}

// IngestDebateRequest appends one debate argument.
type IngestDebateRequest struct {
	Symbol string `json:"symbol"`
	Kind   string `json:"kind"`
	Role   string `json:"role"`
	Text   string `json:"text"`
}

// IngestToolCallRequest records one tool invocation.
type IngestToolCallRequest struct {
	Symbol     string `json:"symbol"`
	Agent      string `json:"agent"`
	Tool       string `json:"tool"`
	Inputs     string `json:"inputs"`
	Output     string `json:"output"`
	Status     string `json:"status,omitempty"` // default success
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// IngestPromptRequest captures a system prompt.
type IngestPromptRequest struct {
	Tab    string `json:"tab"`
	Symbol string `json:"symbol"`
	Text   string `json:"text"`
}

// ModalRequest opens an overlay.
type ModalRequest struct {
	Kind    string `json:"kind"`
	Tab     string `json:"tab,omitempty"`
	Symbol  string `json:"symbol,omitempty"`
	ToolSeq int    `json:"tool_seq,omitempty"`
}
