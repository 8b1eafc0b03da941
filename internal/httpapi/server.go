package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agentdeck/internal/board"
	"agentdeck/internal/broker"
	"agentdeck/internal/charts"
	"agentdeck/internal/config"
	"agentdeck/internal/domain"
	"agentdeck/internal/engine"
	"agentdeck/internal/macro"
	"agentdeck/internal/news"
	"agentdeck/internal/prompts"
	"agentdeck/internal/report"
)

// Server serves the dashboard REST API and WebSocket push channel.
type Server struct {
	version string
	board   *board.Model
	engine  *engine.Engine
	broker  broker.Broker
	news    *news.Fetcher
	macro   *macro.Client
	charts  *charts.Service
	prompts *prompts.Store
	hub     *Hub
	log     *slog.Logger

	integrations []config.IntegrationError
	now          func() time.Time
}

// NewServer wires the API over the shared board and services. engine may be
// nil for read-only deployments; everything else is required.
func NewServer(
	version string,
	b *board.Model,
	eng *engine.Engine,
	brk broker.Broker,
	fetcher *news.Fetcher,
	fred *macro.Client,
	chartSvc *charts.Service,
	promptStore *prompts.Store,
	integrations []config.IntegrationError,
	log *slog.Logger,
) *Server {
	s := &Server{
		version:      version,
		board:        b,
		engine:       eng,
		broker:       brk,
		news:         fetcher,
		macro:        fred,
		charts:       chartSvc,
		prompts:      promptStore,
		integrations: integrations,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
	s.hub = NewHub(b, log)
	return s
}

// Run starts the WebSocket hub's board-event pump. It returns when ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) {
	s.hub.Run(ctx)
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	mux.HandleFunc("POST /api/view/tab/{id}", s.handleSelectTab)
	mux.HandleFunc("POST /api/view/symbol/{symbol}", s.handleSelectSymbol)
	mux.HandleFunc("POST /api/view/page/{n}", s.handleSetPage)
	mux.HandleFunc("POST /api/view/modal", s.handleOpenModal)
	mux.HandleFunc("DELETE /api/view/modal", s.handleCloseModal)

	mux.HandleFunc("GET /api/reports/{symbol}", s.handleReports)
	mux.HandleFunc("GET /api/reports/{symbol}/{tab}", s.handleReport)
	mux.HandleFunc("GET /api/debate/{symbol}", s.handleDebate)
	mux.HandleFunc("GET /api/teams", s.handleTeams)

	mux.HandleFunc("POST /api/ingest/report", s.handleIngestReport)
	mux.HandleFunc("POST /api/ingest/status", s.handleIngestStatus)
	mux.HandleFunc("POST /api/ingest/debate", s.handleIngestDebate)
	mux.HandleFunc("POST /api/ingest/toolcall", s.handleIngestToolCall)
	mux.HandleFunc("POST /api/ingest/prompt", s.handleIngestPrompt)

	mux.HandleFunc("GET /api/account", s.handleAccount)
	mux.HandleFunc("GET /api/positions", s.handlePositions)
	mux.HandleFunc("GET /api/orders", s.handleOrders)
	mux.HandleFunc("POST /api/positions/{symbol}/liquidate", s.handleLiquidate)
	mux.HandleFunc("POST /api/positions/liquidate-all", s.handleLiquidateAll)

	mux.HandleFunc("GET /api/news/{symbol}", s.handleNews)
	mux.HandleFunc("GET /api/macro", s.handleMacroSnapshot)
	mux.HandleFunc("GET /api/macro/{series}", s.handleMacroSeries)
	mux.HandleFunc("GET /api/chart/{symbol}", s.handleChart)

	mux.HandleFunc("GET /api/session", s.handleSession)
	mux.HandleFunc("POST /api/session/start", s.handleSessionStart)
	mux.HandleFunc("POST /api/session/stop", s.handleSessionStop)

	mux.HandleFunc("GET /api/prompts/{tab}/{symbol}", s.handlePrompt)
	mux.HandleFunc("GET /api/toolcalls/{symbol}", s.handleToolCalls)

	mux.HandleFunc("GET /ws", s.hub.HandleWS)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// ---------------------------------------------------------------------------
// Health & snapshot
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	integrations := make([]IntegrationJSON, 0, len(s.integrations))
	for _, ie := range s.integrations {
		integrations = append(integrations, IntegrationJSON{
			Integration: ie.Integration,
			Error:       ie.Error(),
		})
	}
	resp := HealthResponse{
		Status:       "ok",
		Version:      s.version,
		Broker:       s.broker.Name(),
		Integrations: integrations,
		Time:         s.now().UnixMilli(),
	}
	if open, err := s.broker.IsMarketOpen(r.Context()); err == nil {
		resp.MarketOpen = open
		if !open {
			if next, err := s.broker.NextOpen(r.Context()); err == nil && !next.IsZero() {
				resp.NextOpen = next.UnixMilli()
			}
		}
	} else {
		s.log.Warn("market clock unavailable", "error", err)
	}
	writeJSON(w, resp)
}

func (s *Server) viewJSON() ViewJSON {
	view := s.board.View()
	return ViewJSON{
		ActiveTab: string(view.ActiveTab),
		Selected:  view.Selected,
		Page:      view.Page,
		PageCount: s.board.PageCount(),
		PageSize:  view.PageSize,
		Window:    s.board.Window(),
		Symbols:   view.Symbols,
		Modal: ModalJSON{
			Kind:    string(view.Modal.Kind),
			Tab:     string(view.Modal.Tab),
			Symbol:  view.Modal.Symbol,
			ToolSeq: view.Modal.ToolSeq,
		},
	}
}

func (s *Server) tabsJSON(active domain.ReportTab) []TabJSON {
	tabs := make([]TabJSON, 0, len(domain.AllTabs()))
	for _, tab := range domain.AllTabs() {
		tabs = append(tabs, TabJSON{
			ID:     string(tab),
			Label:  board.TabLabel(tab),
			Active: tab == active,
		})
	}
	return tabs
}

func (s *Server) teamsJSON() []TeamJSON {
	views := s.board.TeamViews()
	out := make([]TeamJSON, 0, len(views))
	for _, tv := range views {
		tj := TeamJSON{Name: tv.Name}
		for _, agent := range tv.Agents {
			tj.Agents = append(tj.Agents, AgentBadgeJSON{
				Name:   agent.Name,
				Status: string(agent.Status),
				Color:  agent.Color,
			})
		}
		out = append(out, tj)
	}
	return out
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view := s.board.View()

	panels := []PanelJSON{}
	if view.Selected != "" {
		for _, pv := range s.board.Panels(view.Selected) {
			panels = append(panels, panelJSON(pv))
		}
	}

	resp := DashboardResponse{
		View:          s.viewJSON(),
		Tabs:          s.tabsJSON(view.ActiveTab),
		Panels:        panels,
		Teams:         s.teamsJSON(),
		RefreshHintMS: s.board.RefreshHint(s.now()).Milliseconds(),
	}
	if acct, ok := s.board.Account(); ok {
		a := accountJSON(acct)
		resp.Account = &a
	}
	if sess, ok := s.board.Session(); ok {
		sj := sessionJSON(sess)
		resp.Session = &sj
	}
	writeJSON(w, resp)
}

// ---------------------------------------------------------------------------
// View ops
// ---------------------------------------------------------------------------

func (s *Server) handleSelectTab(w http.ResponseWriter, r *http.Request) {
	applied := s.board.SelectTab(domain.ReportTab(r.PathValue("id")))
	writeJSON(w, ViewResponse{Applied: applied, View: s.viewJSON()})
}

func (s *Server) handleSelectSymbol(w http.ResponseWriter, r *http.Request) {
	applied := s.board.SelectSymbol(strings.ToUpper(r.PathValue("symbol")))
	writeJSON(w, ViewResponse{Applied: applied, View: s.viewJSON()})
}

func (s *Server) handleSetPage(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "page must be a number")
		return
	}
	s.board.SetPage(n)
	writeJSON(w, ViewResponse{Applied: true, View: s.viewJSON()})
}

func (s *Server) handleOpenModal(w http.ResponseWriter, r *http.Request) {
	var req ModalRequest
	if !readJSON(w, r, &req) {
		return
	}
	applied := s.board.OpenModal(board.Modal{
		Kind:    board.ModalKind(req.Kind),
		Tab:     domain.ReportTab(req.Tab),
		Symbol:  strings.ToUpper(req.Symbol),
		ToolSeq: req.ToolSeq,
	})
	writeJSON(w, ViewResponse{Applied: applied, View: s.viewJSON()})
}

func (s *Server) handleCloseModal(w http.ResponseWriter, r *http.Request) {
	s.board.CloseModal()
	writeJSON(w, ViewResponse{Applied: true, View: s.viewJSON()})
}

// ---------------------------------------------------------------------------
// Reports & debate
// ---------------------------------------------------------------------------

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	panels := make([]PanelJSON, 0, len(domain.AllTabs()))
	for _, pv := range s.board.Panels(symbol) {
		panels = append(panels, panelJSON(pv))
	}
	writeJSON(w, panels)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	tab := domain.ReportTab(r.PathValue("tab"))
	if !tab.Valid() {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown tab %q", tab))
		return
	}
	writeJSON(w, panelJSON(s.board.Panel(symbol, tab)))
}

func (s *Server) handleDebate(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	kind := domain.DebateKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = domain.DebateResearch
	}
	if kind != domain.DebateResearch && kind != domain.DebateRisk {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown debate kind %q", kind))
		return
	}

	entries := []TranscriptEntryJSON{}
	for _, e := range s.board.Transcript(symbol, kind) {
		entries = append(entries, TranscriptEntryJSON{
			Seq:     e.Seq,
			Role:    string(e.Role),
			Speaker: e.Speaker,
			Align:   string(e.Align),
			Color:   e.Color,
			Text:    e.Text,
		})
	}
	writeJSON(w, DebateResponse{Symbol: symbol, Kind: string(kind), Entries: entries})
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.teamsJSON())
}

// ---------------------------------------------------------------------------
// Ingest
// ---------------------------------------------------------------------------

func (s *Server) handleIngestReport(w http.ResponseWriter, r *http.Request) {
	var req IngestReportRequest
	if !readJSON(w, r, &req) {
		return
	}
	tab := domain.ReportTab(req.Tab)
	if !tab.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown tab %q", req.Tab))
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol required")
		return
	}

	status := domain.ReportStatus(req.Status)
	if status == "" {
		status = domain.StatusCompleted
	}
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", req.Status))
		return
	}

	// Verdict and signal are fixed here, at ingest. Clients render what is
	// stored and never re-derive.
	rep := domain.Report{
		Symbol:    strings.ToUpper(req.Symbol),
		Tab:       tab,
		Body:      req.Body,
		Status:    status,
		Verdict:   report.Evaluate(tab, req.Body),
		Error:     req.Error,
		UpdatedAt: s.now(),
	}
	if tab == domain.TabFinalDecision && status == domain.StatusCompleted {
		if kind, ok := report.ExtractSignal(req.Body); ok {
			rep.Signal = kind
		} else {
			rep.Signal = domain.SignalHold
		}
	}
	s.board.SetReport(rep)
	if status == domain.StatusCompleted {
		s.board.UpdateSession(rep.Symbol, func(sess *domain.Session) { sess.Reports++ })
	}
	writeJSON(w, panelJSON(board.RenderPanel(tab, rep, true)))
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	var req IngestStatusRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Agent == "" {
		writeError(w, http.StatusBadRequest, "agent required")
		return
	}
	if !s.board.SetAgentStatus(req.Agent, domain.ReportStatus(req.Status)) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", req.Status))
		return
	}
	writeJSON(w, s.teamsJSON())
}

func (s *Server) handleIngestDebate(w http.ResponseWriter, r *http.Request) {
	var req IngestDebateRequest
	if !readJSON(w, r, &req) {
		return
	}
	kind := domain.DebateKind(req.Kind)
	role := domain.DebateRole(req.Role)
	msg, ok := s.board.AppendDebate(strings.ToUpper(req.Symbol), kind, role, req.Text, s.now())
	if !ok {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("role %q does not belong to debate %q", req.Role, req.Kind))
		return
	}
	writeJSON(w, TranscriptEntryJSON{
		Seq:     msg.Seq,
		Role:    string(msg.Role),
		Speaker: board.SpeakerLabel(msg.Role),
		Align:   string(board.AlignmentFor(msg.Role)),
		Color:   board.RoleColor(msg.Role),
		Text:    msg.Text,
	})
}

func (s *Server) handleIngestToolCall(w http.ResponseWriter, r *http.Request) {
	var req IngestToolCallRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Symbol == "" || req.Tool == "" {
		writeError(w, http.StatusBadRequest, "symbol and tool required")
		return
	}
	status := domain.ToolStatus(req.Status)
	if status == "" {
		status = domain.ToolSuccess
	}
	tc := s.board.AppendToolCall(domain.ToolCall{
		Symbol:   strings.ToUpper(req.Symbol),
		Agent:    req.Agent,
		Tool:     req.Tool,
		Inputs:   req.Inputs,
		Output:   req.Output,
		Status:   status,
		Duration: time.Duration(req.DurationMS) * time.Millisecond,
		Time:     s.now(),
	})
	s.board.UpdateSession(tc.Symbol, func(sess *domain.Session) { sess.ToolCalls++ })
	writeJSON(w, toolCallJSON(tc))
}

func (s *Server) handleIngestPrompt(w http.ResponseWriter, r *http.Request) {
	var req IngestPromptRequest
	if !readJSON(w, r, &req) {
		return
	}
	tab := domain.ReportTab(req.Tab)
	if !tab.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown tab %q", req.Tab))
		return
	}
	s.prompts.Set(tab, strings.ToUpper(req.Symbol), req.Text)
	// Each captured prompt is one model invocation by the driver.
	s.board.UpdateSession(strings.ToUpper(req.Symbol), func(sess *domain.Session) { sess.LLMCalls++ })
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Account & positions
// ---------------------------------------------------------------------------

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.broker.AccountSummary(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.board.SetAccount(acct)
	writeJSON(w, accountJSON(acct))
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.broker.Positions(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	out := make([]PositionJSON, 0, len(positions))
	for _, p := range positions {
		out = append(out, positionJSON(p))
	}
	writeJSON(w, out)
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive number")
			return
		}
		page = n
	}
	orders, err := s.broker.RecentOrders(r.Context(), page)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	out := make([]OrderJSON, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderJSON(o))
	}
	writeJSON(w, OrdersResponse{Page: page, PageSize: broker.OrderPageSize, Orders: out})
}

// confirmRequired guards the liquidation endpoints: the close only happens
// when the caller passes confirm=true.
func confirmRequired(w http.ResponseWriter, r *http.Request) bool {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "confirm=true required")
		return false
	}
	return true
}

func (s *Server) handleLiquidate(w http.ResponseWriter, r *http.Request) {
	if !confirmRequired(w, r) {
		return
	}
	symbol := strings.ToUpper(r.PathValue("symbol"))
	if err := s.broker.Liquidate(r.Context(), symbol); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.log.Info("position liquidated", "symbol", symbol)
	writeJSON(w, map[string]string{"status": "closed", "symbol": symbol})
}

func (s *Server) handleLiquidateAll(w http.ResponseWriter, r *http.Request) {
	if !confirmRequired(w, r) {
		return
	}
	if err := s.broker.LiquidateAll(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.log.Info("all positions liquidated")
	writeJSON(w, map[string]string{"status": "closed"})
}

// ---------------------------------------------------------------------------
// Feeds
// ---------------------------------------------------------------------------

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	source := r.URL.Query().Get("source")
	end := s.now()
	start := end.AddDate(0, 0, -7)

	var articles []news.Article
	var err error
	if source == "coindesk" {
		articles, err = s.news.FetchCrypto(r.Context(), symbol, start, end)
	} else {
		articles, err = s.news.Fetch(r.Context(), symbol, start, end)
	}

	resp := NewsResponse{Symbol: symbol, Source: source, Articles: []NewsArticleJSON{}}
	if err != nil {
		// Panel-scoped error: the panel renders the reason, the response
		// itself succeeds.
		resp.Error = err.Error()
		writeJSON(w, resp)
		return
	}
	for _, a := range articles {
		resp.Articles = append(resp.Articles, NewsArticleJSON{
			Time:     a.Time.UnixMilli(),
			Source:   a.Source,
			Headline: a.Headline,
			Content:  a.Content,
		})
	}
	writeJSON(w, resp)
}

func macroSeriesJSON(series macro.Series) MacroSeriesJSON {
	out := MacroSeriesJSON{
		ID:           series.ID,
		Name:         series.Name,
		Units:        series.Units,
		Observations: []MacroObservationJSON{},
	}
	for _, o := range series.Observations {
		out.Observations = append(out.Observations, MacroObservationJSON{
			Date:  o.Date.Format("2006-01-02"),
			Value: o.Value,
		})
	}
	return out
}

func (s *Server) handleMacroSnapshot(w http.ResponseWriter, r *http.Request) {
	all, err := s.macro.Snapshot(r.Context(), 30)
	resp := MacroResponse{Series: []MacroSeriesJSON{}}
	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, resp)
		return
	}
	for _, series := range all {
		resp.Series = append(resp.Series, macroSeriesJSON(series))
	}
	writeJSON(w, resp)
}

func (s *Server) handleMacroSeries(w http.ResponseWriter, r *http.Request) {
	id := strings.ToUpper(r.PathValue("series"))
	series, err := s.macro.Fetch(r.Context(), id, 90)
	resp := MacroResponse{Series: []MacroSeriesJSON{}}
	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, resp)
		return
	}
	resp.Series = append(resp.Series, macroSeriesJSON(series))
	writeJSON(w, resp)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "1d"
	}
	chart, err := s.charts.Series(r.Context(), symbol, period)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp := ChartResponse{
		Symbol: chart.Symbol,
		Period: chart.Period,
		Demo:   chart.Demo,
		Points: []ChartPointJSON{},
	}
	for _, p := range chart.Points {
		resp.Points = append(resp.Points, ChartPointJSON{
			Time:   p.Time.UnixMilli(),
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
		})
	}
	writeJSON(w, resp)
}

// ---------------------------------------------------------------------------
// Session control
// ---------------------------------------------------------------------------

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.board.Session()
	if !ok {
		writeJSON(w, SessionControlResponse{Running: false, Message: "no session yet"})
		return
	}
	writeJSON(w, sessionJSON(sess))
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		writeError(w, http.StatusServiceUnavailable, "session engine not configured")
		return
	}
	var req StartSessionRequest
	if r.ContentLength > 0 && !readJSON(w, r, &req) {
		return
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols = s.board.View().Symbols
	}
	for i := range symbols {
		symbols[i] = strings.ToUpper(symbols[i])
	}

	mode, err := engine.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	interval := time.Duration(0)
	if req.Interval != "" {
		interval, err = time.ParseDuration(req.Interval)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid interval %q", req.Interval))
			return
		}
	}

	// Detach from the request context: the batch outlives this call.
	if err := s.engine.Start(context.Background(), symbols, mode, interval); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, SessionControlResponse{Running: true})
}

func (s *Server) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		writeError(w, http.StatusServiceUnavailable, "session engine not configured")
		return
	}
	stopped := s.engine.Stop()
	msg := ""
	if !stopped {
		msg = "nothing running"
	}
	writeJSON(w, SessionControlResponse{Running: false, Message: msg})
}

// ---------------------------------------------------------------------------
// Prompts & tool calls
// ---------------------------------------------------------------------------

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	tab := domain.ReportTab(r.PathValue("tab"))
	if !tab.Valid() {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown tab %q", tab))
		return
	}
	symbol := strings.ToUpper(r.PathValue("symbol"))
	rec := s.prompts.Get(tab, symbol)

	resp := PromptResponse{Tab: string(rec.Tab), Symbol: rec.Symbol, Text: rec.Text}
	if !rec.CapturedAt.IsZero() {
		resp.CapturedAt = rec.CapturedAt.UnixMilli()
	}
	writeJSON(w, resp)
}

func (s *Server) handleToolCalls(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	calls := []ToolCallJSON{}
	for _, tc := range s.board.ToolCalls(symbol) {
		calls = append(calls, toolCallJSON(tc))
	}
	writeJSON(w, ToolCallsResponse{Symbol: symbol, Calls: calls})
}
