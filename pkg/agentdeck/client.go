// Package agentdeck provides a Go client for the agentdeck-server API.
// Payloads mirror the server's JSON types, so panels arrive display-ready.
package agentdeck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"agentdeck/internal/httpapi"
)

// Client talks to an agentdeck-server instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetHTTPClient swaps the underlying HTTP client, for custom timeouts or
// transports.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// apiError is the server's error envelope.
type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// ---------------------------------------------------------------------------
// Health & snapshot
// ---------------------------------------------------------------------------

// Health returns server status, broker name, and disabled integrations.
func (c *Client) Health(ctx context.Context) (httpapi.HealthResponse, error) {
	var out httpapi.HealthResponse
	err := c.get(ctx, "/api/health", &out)
	return out, err
}

// Dashboard returns the full board snapshot for one poll.
func (c *Client) Dashboard(ctx context.Context) (httpapi.DashboardResponse, error) {
	var out httpapi.DashboardResponse
	err := c.get(ctx, "/api/dashboard", &out)
	return out, err
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

// SelectTab activates a report tab. Applied is false when the tab is
// unknown.
func (c *Client) SelectTab(ctx context.Context, tab string) (httpapi.ViewResponse, error) {
	var out httpapi.ViewResponse
	err := c.post(ctx, "/api/view/tab/"+url.PathEscape(tab), nil, &out)
	return out, err
}

// SelectSymbol selects a symbol on the current page. Applied is false when
// the symbol is not on the visible page.
func (c *Client) SelectSymbol(ctx context.Context, symbol string) (httpapi.ViewResponse, error) {
	var out httpapi.ViewResponse
	err := c.post(ctx, "/api/view/symbol/"+url.PathEscape(symbol), nil, &out)
	return out, err
}

// SetPage flips the symbol pager. Out-of-range pages clamp.
func (c *Client) SetPage(ctx context.Context, n int) (httpapi.ViewResponse, error) {
	var out httpapi.ViewResponse
	err := c.post(ctx, "/api/view/page/"+strconv.Itoa(n), nil, &out)
	return out, err
}

// OpenModal opens an overlay, replacing any modal already open.
func (c *Client) OpenModal(ctx context.Context, req httpapi.ModalRequest) (httpapi.ViewResponse, error) {
	var out httpapi.ViewResponse
	err := c.post(ctx, "/api/view/modal", req, &out)
	return out, err
}

// CloseModal dismisses the overlay. Closing twice is harmless.
func (c *Client) CloseModal(ctx context.Context) (httpapi.ViewResponse, error) {
	var out httpapi.ViewResponse
	err := c.do(ctx, http.MethodDelete, "/api/view/modal", nil, &out)
	return out, err
}

// ---------------------------------------------------------------------------
// Reports & debate
// ---------------------------------------------------------------------------

// Reports returns every panel for a symbol in tab order.
func (c *Client) Reports(ctx context.Context, symbol string) ([]httpapi.PanelJSON, error) {
	var out []httpapi.PanelJSON
	err := c.get(ctx, "/api/reports/"+url.PathEscape(symbol), &out)
	return out, err
}

// Report returns one panel.
func (c *Client) Report(ctx context.Context, symbol, tab string) (httpapi.PanelJSON, error) {
	var out httpapi.PanelJSON
	err := c.get(ctx, "/api/reports/"+url.PathEscape(symbol)+"/"+url.PathEscape(tab), &out)
	return out, err
}

// Debate returns the ordered transcript for a symbol. kind is "research"
// or "risk"; empty defaults to research.
func (c *Client) Debate(ctx context.Context, symbol, kind string) (httpapi.DebateResponse, error) {
	path := "/api/debate/" + url.PathEscape(symbol)
	if kind != "" {
		path += "?kind=" + url.QueryEscape(kind)
	}
	var out httpapi.DebateResponse
	err := c.get(ctx, path, &out)
	return out, err
}

// Teams returns the team layout with live agent statuses.
func (c *Client) Teams(ctx context.Context) ([]httpapi.TeamJSON, error) {
	var out []httpapi.TeamJSON
	err := c.get(ctx, "/api/teams", &out)
	return out, err
}

// ---------------------------------------------------------------------------
// Ingest
// ---------------------------------------------------------------------------

// IngestReport publishes a report panel and returns it display-ready.
func (c *Client) IngestReport(ctx context.Context, req httpapi.IngestReportRequest) (httpapi.PanelJSON, error) {
	var out httpapi.PanelJSON
	err := c.post(ctx, "/api/ingest/report", req, &out)
	return out, err
}

// IngestStatus updates one agent's badge.
func (c *Client) IngestStatus(ctx context.Context, req httpapi.IngestStatusRequest) ([]httpapi.TeamJSON, error) {
	var out []httpapi.TeamJSON
	err := c.post(ctx, "/api/ingest/status", req, &out)
	return out, err
}

// IngestDebate appends one debate argument.
func (c *Client) IngestDebate(ctx context.Context, req httpapi.IngestDebateRequest) (httpapi.TranscriptEntryJSON, error) {
	var out httpapi.TranscriptEntryJSON
	err := c.post(ctx, "/api/ingest/debate", req, &out)
	return out, err
}

// IngestToolCall records one tool invocation.
func (c *Client) IngestToolCall(ctx context.Context, req httpapi.IngestToolCallRequest) (httpapi.ToolCallJSON, error) {
	var out httpapi.ToolCallJSON
	err := c.post(ctx, "/api/ingest/toolcall", req, &out)
	return out, err
}

// IngestPrompt captures a system prompt.
func (c *Client) IngestPrompt(ctx context.Context, req httpapi.IngestPromptRequest) error {
	return c.post(ctx, "/api/ingest/prompt", req, nil)
}

// ---------------------------------------------------------------------------
// Account & positions
// ---------------------------------------------------------------------------

// Account returns the account summary.
func (c *Client) Account(ctx context.Context) (httpapi.AccountJSON, error) {
	var out httpapi.AccountJSON
	err := c.get(ctx, "/api/account", &out)
	return out, err
}

// Positions returns open positions sorted by symbol.
func (c *Client) Positions(ctx context.Context) ([]httpapi.PositionJSON, error) {
	var out []httpapi.PositionJSON
	err := c.get(ctx, "/api/positions", &out)
	return out, err
}

// Orders returns one page of recent orders, newest first.
func (c *Client) Orders(ctx context.Context, page int) (httpapi.OrdersResponse, error) {
	var out httpapi.OrdersResponse
	err := c.get(ctx, "/api/orders?page="+strconv.Itoa(page), &out)
	return out, err
}

// Liquidate closes one position. The confirmation flag is mandatory on the
// server, so the client always sends it.
func (c *Client) Liquidate(ctx context.Context, symbol string) error {
	return c.post(ctx, "/api/positions/"+url.PathEscape(symbol)+"/liquidate?confirm=true", nil, nil)
}

// LiquidateAll closes every position.
func (c *Client) LiquidateAll(ctx context.Context) error {
	return c.post(ctx, "/api/positions/liquidate-all?confirm=true", nil, nil)
}

// ---------------------------------------------------------------------------
// Feeds
// ---------------------------------------------------------------------------

// News returns recent articles for a symbol. source "coindesk" switches to
// the crypto feed. A feed-level failure arrives in the response's Error
// field, not as a request error.
func (c *Client) News(ctx context.Context, symbol, source string) (httpapi.NewsResponse, error) {
	path := "/api/news/" + url.PathEscape(symbol)
	if source != "" {
		path += "?source=" + url.QueryEscape(source)
	}
	var out httpapi.NewsResponse
	err := c.get(ctx, path, &out)
	return out, err
}

// Macro returns the preset macro snapshot.
func (c *Client) Macro(ctx context.Context) (httpapi.MacroResponse, error) {
	var out httpapi.MacroResponse
	err := c.get(ctx, "/api/macro", &out)
	return out, err
}

// MacroSeries returns one macro series by FRED ID.
func (c *Client) MacroSeries(ctx context.Context, id string) (httpapi.MacroResponse, error) {
	var out httpapi.MacroResponse
	err := c.get(ctx, "/api/macro/"+url.PathEscape(id), &out)
	return out, err
}

// Chart returns OHLCV bars for a symbol and period ("15m", "1d", "1w",
// "1mo", "1y").
func (c *Client) Chart(ctx context.Context, symbol, period string) (httpapi.ChartResponse, error) {
	path := "/api/chart/" + url.PathEscape(symbol)
	if period != "" {
		path += "?period=" + url.QueryEscape(period)
	}
	var out httpapi.ChartResponse
	err := c.get(ctx, path, &out)
	return out, err
}

// ---------------------------------------------------------------------------
// Session control
// ---------------------------------------------------------------------------

// Session returns the latest session status.
func (c *Client) Session(ctx context.Context) (httpapi.SessionJSON, error) {
	var out httpapi.SessionJSON
	err := c.get(ctx, "/api/session", &out)
	return out, err
}

// StartSession launches a session batch.
func (c *Client) StartSession(ctx context.Context, req httpapi.StartSessionRequest) (httpapi.SessionControlResponse, error) {
	var out httpapi.SessionControlResponse
	err := c.post(ctx, "/api/session/start", req, &out)
	return out, err
}

// StopSession requests a stop of the running batch.
func (c *Client) StopSession(ctx context.Context) (httpapi.SessionControlResponse, error) {
	var out httpapi.SessionControlResponse
	err := c.post(ctx, "/api/session/stop", nil, &out)
	return out, err
}

// ---------------------------------------------------------------------------
// Prompts & tool calls
// ---------------------------------------------------------------------------

// Prompt returns the captured (or default) system prompt for a tab.
func (c *Client) Prompt(ctx context.Context, tab, symbol string) (httpapi.PromptResponse, error) {
	var out httpapi.PromptResponse
	err := c.get(ctx, "/api/prompts/"+url.PathEscape(tab)+"/"+url.PathEscape(symbol), &out)
	return out, err
}

// ToolCalls returns a symbol's tool-call log in arrival order.
func (c *Client) ToolCalls(ctx context.Context, symbol string) (httpapi.ToolCallsResponse, error) {
	var out httpapi.ToolCallsResponse
	err := c.get(ctx, "/api/toolcalls/"+url.PathEscape(symbol), &out)
	return out, err
}
