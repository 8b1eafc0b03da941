// Package board holds the shared in-memory dashboard state: view selection,
// report panels, debate transcripts, tool calls, agent statuses, account
// snapshot, and session progress, with pub/sub for live push to clients.
package board

import (
	"sync"
	"time"

	"agentdeck/internal/domain"
)

// Refresh hints surfaced to polling clients. Fast while a session is
// producing output, slow when the board is idle.
const (
	RefreshFast   = 2 * time.Second
	RefreshMedium = 10 * time.Second
	RefreshSlow   = 60 * time.Second
)

// EventType classifies a board mutation for subscribers.
type EventType string

const (
	EventView     EventType = "view"
	EventSymbols  EventType = "symbols"
	EventReport   EventType = "report"
	EventDebate   EventType = "debate"
	EventToolCall EventType = "toolcall"
	EventAgents   EventType = "agents"
	EventAccount  EventType = "account"
	EventSession  EventType = "session"
)

// Event is emitted to subscribers on every board mutation. Payload carries
// the new value: the concrete type depends on Type.
type Event struct {
	Type    EventType
	Symbol  string
	Tab     domain.ReportTab
	Payload any
}

// ModalKind identifies which overlay is open.
type ModalKind string

const (
	ModalNone       ModalKind = ""
	ModalPrompt     ModalKind = "prompt"
	ModalToolOutput ModalKind = "tool-output"
)

// Modal describes the open overlay. For prompt modals Tab and Symbol locate
// the prompt; for tool-output modals Symbol and ToolSeq locate the call.
type Modal struct {
	Kind    ModalKind
	Tab     domain.ReportTab
	Symbol  string
	ToolSeq int
}

// ViewState is the navigational state of the dashboard.
type ViewState struct {
	ActiveTab domain.ReportTab
	Symbols   []string
	Page      int
	PageSize  int
	Selected  string
	Modal     Modal
}

// Model is the concurrent dashboard state. All mutating methods publish a
// typed event to subscribers; reads return copies.
type Model struct {
	mu        sync.RWMutex
	view      ViewState
	reports   map[string]map[domain.ReportTab]domain.Report
	debates   map[string]map[domain.DebateKind][]domain.DebateMessage
	toolCalls map[string][]domain.ToolCall
	agents    map[string]domain.ReportStatus
	analysts  []string

	account    domain.AccountSummary
	hasAccount bool
	session    domain.Session
	hasSession bool

	subsMu    sync.Mutex
	nextSubID int
	subs      map[int]chan Event
}

// NewModel creates a board for the given symbol roster. The first symbol is
// selected, the first report tab is active, and every agent starts pending.
func NewModel(symbols []string, pageSize int) *Model {
	if pageSize < 1 {
		pageSize = 1
	}
	m := &Model{
		view: ViewState{
			ActiveTab: domain.TabMarketAnalysis,
			Symbols:   append([]string(nil), symbols...),
			Page:      1,
			PageSize:  pageSize,
		},
		reports:   make(map[string]map[domain.ReportTab]domain.Report),
		debates:   make(map[string]map[domain.DebateKind][]domain.DebateMessage),
		toolCalls: make(map[string][]domain.ToolCall),
		agents:    make(map[string]domain.ReportStatus),
		analysts:  domain.DefaultAnalysts(),
		subs:      make(map[int]chan Event),
	}
	if len(symbols) > 0 {
		m.view.Selected = symbols[0]
	}
	m.resetAgentsLocked(m.analysts)
	return m
}

// ---------------------------------------------------------------------------
// View state
// ---------------------------------------------------------------------------

// View returns a copy of the current view state.
func (m *Model) View() ViewState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viewCopyLocked()
}

func (m *Model) viewCopyLocked() ViewState {
	v := m.view
	v.Symbols = append([]string(nil), m.view.Symbols...)
	return v
}

// PageCount returns the number of symbol pages, at least one.
func (m *Model) PageCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pageCountLocked()
}

func (m *Model) pageCountLocked() int {
	n := (len(m.view.Symbols) + m.view.PageSize - 1) / m.view.PageSize
	if n < 1 {
		n = 1
	}
	return n
}

// Window returns the symbols visible on the current page.
func (m *Model) Window() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.windowLocked()
}

func (m *Model) windowLocked() []string {
	start := (m.view.Page - 1) * m.view.PageSize
	if start >= len(m.view.Symbols) {
		return nil
	}
	end := start + m.view.PageSize
	if end > len(m.view.Symbols) {
		end = len(m.view.Symbols)
	}
	return append([]string(nil), m.view.Symbols[start:end]...)
}

// SelectTab activates a report tab and closes any open modal. Unknown tabs
// are ignored and no event is published.
func (m *Model) SelectTab(tab domain.ReportTab) bool {
	if !tab.Valid() {
		return false
	}
	m.mu.Lock()
	m.view.ActiveTab = tab
	m.view.Modal = Modal{}
	view := m.viewCopyLocked()
	m.mu.Unlock()

	m.broadcast(Event{Type: EventView, Tab: tab, Payload: view})
	return true
}

// SelectSymbol makes sym the exclusive selection. The symbol must be inside
// the current page window; anything else is ignored. Selection closes any
// open modal.
func (m *Model) SelectSymbol(sym string) bool {
	m.mu.Lock()
	visible := false
	for _, s := range m.windowLocked() {
		if s == sym {
			visible = true
			break
		}
	}
	if !visible {
		m.mu.Unlock()
		return false
	}
	m.view.Selected = sym
	m.view.Modal = Modal{}
	view := m.viewCopyLocked()
	m.mu.Unlock()

	m.broadcast(Event{Type: EventView, Symbol: sym, Payload: view})
	return true
}

// SetPage moves the symbol window to page n, clamped to the valid range.
// A selection that falls outside the new window is cleared so the visible
// window always contains the selected symbol.
func (m *Model) SetPage(n int) int {
	m.mu.Lock()
	if n < 1 {
		n = 1
	}
	if max := m.pageCountLocked(); n > max {
		n = max
	}
	m.view.Page = n
	m.view.Modal = Modal{}
	if m.view.Selected != "" {
		visible := false
		for _, s := range m.windowLocked() {
			if s == m.view.Selected {
				visible = true
				break
			}
		}
		if !visible {
			m.view.Selected = ""
		}
	}
	view := m.viewCopyLocked()
	m.mu.Unlock()

	m.broadcast(Event{Type: EventView, Payload: view})
	return n
}

// SetSymbols replaces the symbol roster, clamping the page and dropping a
// selection that no longer exists.
func (m *Model) SetSymbols(symbols []string) {
	m.mu.Lock()
	m.view.Symbols = append([]string(nil), symbols...)
	if max := m.pageCountLocked(); m.view.Page > max {
		m.view.Page = max
	}
	if m.view.Selected != "" {
		found := false
		for _, s := range m.view.Symbols {
			if s == m.view.Selected {
				found = true
				break
			}
		}
		if !found {
			m.view.Selected = ""
		}
	}
	if m.view.Selected == "" && len(m.view.Symbols) > 0 {
		m.view.Selected = m.view.Symbols[0]
		m.view.Page = 1
	}
	view := m.viewCopyLocked()
	m.mu.Unlock()

	m.broadcast(Event{Type: EventSymbols, Payload: view})
}

// OpenModal opens an overlay, replacing any modal already open. Unknown
// kinds are ignored.
func (m *Model) OpenModal(modal Modal) bool {
	if modal.Kind != ModalPrompt && modal.Kind != ModalToolOutput {
		return false
	}
	m.mu.Lock()
	m.view.Modal = modal
	view := m.viewCopyLocked()
	m.mu.Unlock()

	m.broadcast(Event{Type: EventView, Symbol: modal.Symbol, Tab: modal.Tab, Payload: view})
	return true
}

// CloseModal dismisses the overlay. Closing an already-closed modal is a
// no-op and publishes nothing.
func (m *Model) CloseModal() {
	m.mu.Lock()
	if m.view.Modal.Kind == ModalNone {
		m.mu.Unlock()
		return
	}
	m.view.Modal = Modal{}
	view := m.viewCopyLocked()
	m.mu.Unlock()

	m.broadcast(Event{Type: EventView, Payload: view})
}

// ---------------------------------------------------------------------------
// Reports
// ---------------------------------------------------------------------------

// SetReport stores a report panel and notifies subscribers. The caller is
// responsible for having evaluated the verdict and signal at ingest.
func (m *Model) SetReport(rep domain.Report) {
	m.mu.Lock()
	if m.reports[rep.Symbol] == nil {
		m.reports[rep.Symbol] = make(map[domain.ReportTab]domain.Report)
	}
	m.reports[rep.Symbol][rep.Tab] = rep
	m.mu.Unlock()

	m.broadcast(Event{Type: EventReport, Symbol: rep.Symbol, Tab: rep.Tab, Payload: rep})
}

// Report returns the stored report for one (symbol, tab).
func (m *Model) Report(symbol string, tab domain.ReportTab) (domain.Report, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rep, ok := m.reports[symbol][tab]
	return rep, ok
}

// Reports returns the symbol's stored reports in display-tab order.
func (m *Model) Reports(symbol string) []domain.Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Report
	for _, tab := range domain.AllTabs() {
		if rep, ok := m.reports[symbol][tab]; ok {
			out = append(out, rep)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Debate transcripts
// ---------------------------------------------------------------------------

// AppendDebate appends one argument to a transcript, assigning the next
// sequence number. Messages whose role does not belong to the debate kind
// are rejected.
func (m *Model) AppendDebate(symbol string, kind domain.DebateKind, role domain.DebateRole, text string, at time.Time) (domain.DebateMessage, bool) {
	if !role.ValidFor(kind) {
		return domain.DebateMessage{}, false
	}
	m.mu.Lock()
	if m.debates[symbol] == nil {
		m.debates[symbol] = make(map[domain.DebateKind][]domain.DebateMessage)
	}
	msg := domain.DebateMessage{
		Seq:  len(m.debates[symbol][kind]) + 1,
		Role: role,
		Text: text,
		Time: at,
	}
	m.debates[symbol][kind] = append(m.debates[symbol][kind], msg)
	m.mu.Unlock()

	m.broadcast(Event{Type: EventDebate, Symbol: symbol, Payload: msg})
	return msg, true
}

// DebateMessages returns a copy of the transcript in insertion order.
func (m *Model) DebateMessages(symbol string, kind domain.DebateKind) []domain.DebateMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.debates[symbol][kind]
	out := make([]domain.DebateMessage, len(msgs))
	copy(out, msgs)
	return out
}

// ---------------------------------------------------------------------------
// Tool calls
// ---------------------------------------------------------------------------

// AppendToolCall records a tool invocation, assigning the next sequence
// number for the symbol, and returns the stored call.
func (m *Model) AppendToolCall(tc domain.ToolCall) domain.ToolCall {
	m.mu.Lock()
	tc.Seq = len(m.toolCalls[tc.Symbol]) + 1
	m.toolCalls[tc.Symbol] = append(m.toolCalls[tc.Symbol], tc)
	m.mu.Unlock()

	m.broadcast(Event{Type: EventToolCall, Symbol: tc.Symbol, Payload: tc})
	return tc
}

// ToolCalls returns a copy of the symbol's tool-call log in order.
func (m *Model) ToolCalls(symbol string) []domain.ToolCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	calls := m.toolCalls[symbol]
	out := make([]domain.ToolCall, len(calls))
	copy(out, calls)
	return out
}

// ToolCall returns one recorded call by sequence number.
func (m *Model) ToolCall(symbol string, seq int) (domain.ToolCall, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	calls := m.toolCalls[symbol]
	if seq < 1 || seq > len(calls) {
		return domain.ToolCall{}, false
	}
	return calls[seq-1], true
}

// ---------------------------------------------------------------------------
// Agent statuses
// ---------------------------------------------------------------------------

// ResetAgents puts every agent back to pending for a new session. The
// analyst selection fixes which analysts appear; downstream teams are
// always present.
func (m *Model) ResetAgents(analysts []string) {
	m.mu.Lock()
	m.resetAgentsLocked(analysts)
	agents := m.agentsCopyLocked()
	m.mu.Unlock()

	m.broadcast(Event{Type: EventAgents, Payload: agents})
}

func (m *Model) resetAgentsLocked(analysts []string) {
	if len(analysts) == 0 {
		analysts = domain.DefaultAnalysts()
	}
	m.analysts = append([]string(nil), analysts...)
	m.agents = make(map[string]domain.ReportStatus)
	for _, team := range domain.Teams(m.analysts) {
		for _, agent := range team.Agents {
			m.agents[agent] = domain.StatusPending
		}
	}
}

// SetAgentStatus updates one agent's lifecycle status. Invalid statuses are
// ignored; unknown agent names are accepted so the pipeline can surface
// additional workers.
func (m *Model) SetAgentStatus(agent string, status domain.ReportStatus) bool {
	if !status.Valid() {
		return false
	}
	m.mu.Lock()
	m.agents[agent] = status
	agents := m.agentsCopyLocked()
	m.mu.Unlock()

	m.broadcast(Event{Type: EventAgents, Payload: agents})
	return true
}

// AgentStatuses returns a copy of the agent status map.
func (m *Model) AgentStatuses() map[string]domain.ReportStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.agentsCopyLocked()
}

func (m *Model) agentsCopyLocked() map[string]domain.ReportStatus {
	out := make(map[string]domain.ReportStatus, len(m.agents))
	for k, v := range m.agents {
		out[k] = v
	}
	return out
}

// Analysts returns the current analyst selection.
func (m *Model) Analysts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.analysts...)
}

// ---------------------------------------------------------------------------
// Account and session
// ---------------------------------------------------------------------------

// SetAccount stores the latest account snapshot. Categories are expected to
// be attached by the producer.
func (m *Model) SetAccount(a domain.AccountSummary) {
	m.mu.Lock()
	m.account = a
	m.hasAccount = true
	m.mu.Unlock()

	m.broadcast(Event{Type: EventAccount, Payload: a})
}

// Account returns the stored account snapshot, if any.
func (m *Model) Account() (domain.AccountSummary, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.account, m.hasAccount
}

// SetSession stores the current session snapshot.
func (m *Model) SetSession(s domain.Session) {
	m.mu.Lock()
	m.session = s
	m.hasSession = true
	m.mu.Unlock()

	m.broadcast(Event{Type: EventSession, Symbol: s.Symbol, Payload: s})
}

// UpdateSession mutates the stored session in place when one exists for
// the symbol and is still in flight, then broadcasts the new snapshot.
// Ingested events use this path to keep the session counters moving when
// an external driver, not the in-process engine, is running the agents.
func (m *Model) UpdateSession(symbol string, mutate func(*domain.Session)) bool {
	m.mu.Lock()
	if !m.hasSession || m.session.Symbol != symbol ||
		(m.session.State != domain.SessionQueued && m.session.State != domain.SessionRunning) {
		m.mu.Unlock()
		return false
	}
	mutate(&m.session)
	s := m.session
	m.mu.Unlock()

	m.broadcast(Event{Type: EventSession, Symbol: s.Symbol, Payload: s})
	return true
}

// Session returns the current session snapshot, if any.
func (m *Model) Session() (domain.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, m.hasSession
}

// RefreshHint returns the polling interval clients should use right now:
// fast while a session is running or any agent is mid-flight, medium
// shortly after a session finishes, slow otherwise.
func (m *Model) RefreshHint(now time.Time) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.hasSession && (m.session.State == domain.SessionRunning || m.session.State == domain.SessionQueued) {
		return RefreshFast
	}
	for _, st := range m.agents {
		if st == domain.StatusInProgress {
			return RefreshFast
		}
	}
	if m.hasSession && !m.session.FinishedAt.IsZero() && now.Sub(m.session.FinishedAt) < 10*time.Minute {
		return RefreshMedium
	}
	return RefreshSlow
}

// ---------------------------------------------------------------------------
// Pub/sub
// ---------------------------------------------------------------------------

// Subscribe creates a new subscription channel for board events.
func (m *Model) Subscribe(bufSize int) (id int, ch <-chan Event) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	id = m.nextSubID
	m.nextSubID++
	c := make(chan Event, bufSize)
	m.subs[id] = c
	return id, c
}

// Unsubscribe removes a subscription and closes its channel.
func (m *Model) Unsubscribe(id int) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	if ch, ok := m.subs[id]; ok {
		close(ch)
		delete(m.subs, id)
	}
}

// broadcast sends an event to all subscribers (non-blocking send).
func (m *Model) broadcast(evt Event) {
	m.subsMu.Lock()
	for _, ch := range m.subs {
		select {
		case ch <- evt:
		default:
			// Slow subscriber, drop event.
		}
	}
	m.subsMu.Unlock()
}
