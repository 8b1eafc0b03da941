package board

import (
	"testing"
	"time"

	"agentdeck/internal/domain"
)

func newTestModel() *Model {
	return NewModel([]string{"AAPL", "MSFT", "NVDA", "SPY", "QQQ"}, 2)
}

func TestNewModelInitialState(t *testing.T) {
	m := newTestModel()
	v := m.View()

	if v.ActiveTab != domain.TabMarketAnalysis {
		t.Errorf("initial ActiveTab = %q, want market-analysis", v.ActiveTab)
	}
	if v.Selected != "AAPL" {
		t.Errorf("initial Selected = %q, want AAPL", v.Selected)
	}
	if v.Page != 1 {
		t.Errorf("initial Page = %d, want 1", v.Page)
	}
	if v.Modal.Kind != ModalNone {
		t.Errorf("initial Modal = %q, want none", v.Modal.Kind)
	}
	if got := m.PageCount(); got != 3 {
		t.Errorf("PageCount() = %d, want 3", got)
	}
}

func TestSelectTabUnknownIsNoOp(t *testing.T) {
	m := newTestModel()
	id, ch := m.Subscribe(8)
	defer m.Unsubscribe(id)

	if m.SelectTab(domain.ReportTab("portfolio")) {
		t.Error("SelectTab(unknown) = true, want false")
	}
	if v := m.View(); v.ActiveTab != domain.TabMarketAnalysis {
		t.Errorf("ActiveTab changed to %q after rejected select", v.ActiveTab)
	}
	select {
	case evt := <-ch:
		t.Errorf("rejected SelectTab published event %+v", evt)
	default:
	}

	if !m.SelectTab(domain.TabRiskDebate) {
		t.Error("SelectTab(risk-debate) = false, want true")
	}
	if v := m.View(); v.ActiveTab != domain.TabRiskDebate {
		t.Errorf("ActiveTab = %q, want risk-debate", v.ActiveTab)
	}
	select {
	case evt := <-ch:
		if evt.Type != EventView {
			t.Errorf("event type = %q, want view", evt.Type)
		}
	default:
		t.Error("SelectTab published no event")
	}
}

func TestSelectSymbolWindowConstraint(t *testing.T) {
	m := newTestModel()

	// Page 1 shows AAPL, MSFT. NVDA is on page 2 and cannot be selected.
	if m.SelectSymbol("NVDA") {
		t.Error("SelectSymbol(NVDA) succeeded outside the visible window")
	}
	if v := m.View(); v.Selected != "AAPL" {
		t.Errorf("Selected = %q after rejected select, want AAPL", v.Selected)
	}

	if !m.SelectSymbol("MSFT") {
		t.Error("SelectSymbol(MSFT) failed inside the visible window")
	}
	if v := m.View(); v.Selected != "MSFT" {
		t.Errorf("Selected = %q, want MSFT", v.Selected)
	}

	// After paging, the symbol becomes selectable.
	m.SetPage(2)
	if !m.SelectSymbol("NVDA") {
		t.Error("SelectSymbol(NVDA) failed on page 2")
	}
	if v := m.View(); v.Selected != "NVDA" {
		t.Errorf("Selected = %q, want NVDA", v.Selected)
	}
}

func TestSetPageClamps(t *testing.T) {
	m := newTestModel()

	if got := m.SetPage(99); got != 3 {
		t.Errorf("SetPage(99) = %d, want clamp to 3", got)
	}
	if got := m.SetPage(0); got != 1 {
		t.Errorf("SetPage(0) = %d, want clamp to 1", got)
	}
	if got := m.SetPage(-5); got != 1 {
		t.Errorf("SetPage(-5) = %d, want clamp to 1", got)
	}
}

func TestSetPageClearsOffWindowSelection(t *testing.T) {
	m := newTestModel()

	if v := m.View(); v.Selected != "AAPL" {
		t.Fatalf("precondition: Selected = %q, want AAPL", v.Selected)
	}
	m.SetPage(2)
	if v := m.View(); v.Selected != "" {
		t.Errorf("Selected = %q after paging away, want cleared", v.Selected)
	}
}

func TestWindow(t *testing.T) {
	m := newTestModel()

	got := m.Window()
	if len(got) != 2 || got[0] != "AAPL" || got[1] != "MSFT" {
		t.Errorf("Window() page 1 = %v, want [AAPL MSFT]", got)
	}

	m.SetPage(3)
	got = m.Window()
	if len(got) != 1 || got[0] != "QQQ" {
		t.Errorf("Window() page 3 = %v, want [QQQ]", got)
	}
}

func TestOpenModalReplacesExisting(t *testing.T) {
	m := newTestModel()

	if !m.OpenModal(Modal{Kind: ModalPrompt, Tab: domain.TabTraderPlan, Symbol: "AAPL"}) {
		t.Fatal("OpenModal(prompt) = false")
	}
	// A second open replaces the first outright.
	if !m.OpenModal(Modal{Kind: ModalToolOutput, Symbol: "AAPL", ToolSeq: 3}) {
		t.Fatal("OpenModal(tool-output) = false")
	}
	v := m.View()
	if v.Modal.Kind != ModalToolOutput {
		t.Errorf("Modal.Kind = %q, want tool-output after replace", v.Modal.Kind)
	}
	if v.Modal.ToolSeq != 3 {
		t.Errorf("Modal.ToolSeq = %d, want 3", v.Modal.ToolSeq)
	}

	// Unknown kinds are rejected and leave the open modal alone.
	if m.OpenModal(Modal{Kind: ModalKind("settings")}) {
		t.Error("OpenModal(unknown kind) = true, want false")
	}
	if v := m.View(); v.Modal.Kind != ModalToolOutput {
		t.Errorf("Modal.Kind = %q after rejected open, want tool-output", v.Modal.Kind)
	}
}

func TestCloseModalIdempotent(t *testing.T) {
	m := newTestModel()
	m.OpenModal(Modal{Kind: ModalPrompt, Tab: domain.TabFinalDecision, Symbol: "AAPL"})

	m.CloseModal()
	if v := m.View(); v.Modal.Kind != ModalNone {
		t.Errorf("Modal.Kind = %q after close, want none", v.Modal.Kind)
	}

	id, ch := m.Subscribe(4)
	defer m.Unsubscribe(id)
	m.CloseModal() // second close publishes nothing
	select {
	case evt := <-ch:
		t.Errorf("idempotent CloseModal published event %+v", evt)
	default:
	}
}

func TestNavigationClosesModal(t *testing.T) {
	m := newTestModel()

	m.OpenModal(Modal{Kind: ModalPrompt, Tab: domain.TabTraderPlan, Symbol: "AAPL"})
	m.SelectTab(domain.TabNewsAnalysis)
	if v := m.View(); v.Modal.Kind != ModalNone {
		t.Error("modal survived SelectTab")
	}

	m.OpenModal(Modal{Kind: ModalPrompt, Tab: domain.TabTraderPlan, Symbol: "AAPL"})
	m.SelectSymbol("MSFT")
	if v := m.View(); v.Modal.Kind != ModalNone {
		t.Error("modal survived SelectSymbol")
	}

	m.OpenModal(Modal{Kind: ModalToolOutput, Symbol: "MSFT", ToolSeq: 1})
	m.SetPage(2)
	if v := m.View(); v.Modal.Kind != ModalNone {
		t.Error("modal survived SetPage")
	}
}

func TestDebateOrderPreserved(t *testing.T) {
	m := newTestModel()
	at := time.Now()

	texts := []struct {
		role domain.DebateRole
		text string
	}{
		{domain.RoleBull, "Margins are expanding."},
		{domain.RoleBear, "Valuation is stretched."},
		{domain.RoleBull, "Guidance was raised twice."},
		{domain.RoleBear, "Rate risk is unpriced."},
	}
	for _, e := range texts {
		if _, ok := m.AppendDebate("AAPL", domain.DebateResearch, e.role, e.text, at); !ok {
			t.Fatalf("AppendDebate(%s) rejected", e.role)
		}
	}

	msgs := m.DebateMessages("AAPL", domain.DebateResearch)
	if len(msgs) != 4 {
		t.Fatalf("DebateMessages returned %d messages, want 4", len(msgs))
	}
	for i, msg := range msgs {
		if msg.Seq != i+1 {
			t.Errorf("message %d has Seq %d, want %d", i, msg.Seq, i+1)
		}
		if msg.Text != texts[i].text {
			t.Errorf("message %d out of order: %q", i, msg.Text)
		}
	}
}

func TestAppendDebateRejectsWrongRole(t *testing.T) {
	m := newTestModel()
	if _, ok := m.AppendDebate("AAPL", domain.DebateResearch, domain.RoleRisky, "x", time.Now()); ok {
		t.Error("AppendDebate accepted a risk role in the research debate")
	}
	if _, ok := m.AppendDebate("AAPL", domain.DebateRisk, domain.RoleBull, "x", time.Now()); ok {
		t.Error("AppendDebate accepted bull in the risk debate")
	}
	if got := m.DebateMessages("AAPL", domain.DebateResearch); len(got) != 0 {
		t.Errorf("rejected appends left %d messages", len(got))
	}
}

func TestToolCallSequencing(t *testing.T) {
	m := newTestModel()

	first := m.AppendToolCall(domain.ToolCall{Symbol: "AAPL", Tool: "get_indicators"})
	second := m.AppendToolCall(domain.ToolCall{Symbol: "AAPL", Tool: "get_news"})
	other := m.AppendToolCall(domain.ToolCall{Symbol: "MSFT", Tool: "get_indicators"})

	if first.Seq != 1 || second.Seq != 2 {
		t.Errorf("AAPL sequences = %d, %d, want 1, 2", first.Seq, second.Seq)
	}
	if other.Seq != 1 {
		t.Errorf("MSFT sequence = %d, want independent 1", other.Seq)
	}

	if tc, ok := m.ToolCall("AAPL", 2); !ok || tc.Tool != "get_news" {
		t.Errorf("ToolCall(AAPL, 2) = %+v ok=%v, want get_news", tc, ok)
	}
	if _, ok := m.ToolCall("AAPL", 5); ok {
		t.Error("ToolCall(AAPL, 5) found a call past the log end")
	}
}

func TestAgentStatusLifecycle(t *testing.T) {
	m := newTestModel()

	statuses := m.AgentStatuses()
	if len(statuses) != 13 {
		t.Fatalf("initial agent count = %d, want 13", len(statuses))
	}
	for agent, st := range statuses {
		if st != domain.StatusPending {
			t.Errorf("agent %q starts %q, want pending", agent, st)
		}
	}

	if !m.SetAgentStatus(domain.AgentTrader, domain.StatusInProgress) {
		t.Error("SetAgentStatus(valid) = false")
	}
	if m.SetAgentStatus(domain.AgentTrader, domain.ReportStatus("busy")) {
		t.Error("SetAgentStatus(invalid status) = true")
	}
	if got := m.AgentStatuses()[domain.AgentTrader]; got != domain.StatusInProgress {
		t.Errorf("trader status = %q, want in_progress", got)
	}

	m.ResetAgents([]string{domain.AgentMarketAnalyst})
	statuses = m.AgentStatuses()
	if len(statuses) != 9 {
		t.Errorf("agent count after reduced reset = %d, want 9", len(statuses))
	}
	if got := statuses[domain.AgentTrader]; got != domain.StatusPending {
		t.Errorf("trader status after reset = %q, want pending", got)
	}
}

func TestUpdateSession(t *testing.T) {
	m := newTestModel()

	// No session stored yet.
	if m.UpdateSession("AAPL", func(s *domain.Session) { s.Reports++ }) {
		t.Error("UpdateSession applied with no session stored")
	}

	m.SetSession(domain.Session{ID: "s1", Symbol: "AAPL", State: domain.SessionRunning})

	if !m.UpdateSession("AAPL", func(s *domain.Session) { s.ToolCalls++ }) {
		t.Error("UpdateSession refused a running session")
	}
	if m.UpdateSession("TSLA", func(s *domain.Session) { s.ToolCalls++ }) {
		t.Error("UpdateSession applied for the wrong symbol")
	}
	sess, _ := m.Session()
	if sess.ToolCalls != 1 {
		t.Errorf("ToolCalls = %d, want 1", sess.ToolCalls)
	}

	// Finished sessions are immutable.
	m.SetSession(domain.Session{ID: "s1", Symbol: "AAPL", State: domain.SessionCompleted})
	if m.UpdateSession("AAPL", func(s *domain.Session) { s.Reports++ }) {
		t.Error("UpdateSession applied to a completed session")
	}
}

func TestEventsPublishedOnMutations(t *testing.T) {
	m := newTestModel()
	id, ch := m.Subscribe(16)
	defer m.Unsubscribe(id)

	m.SetReport(domain.Report{Symbol: "AAPL", Tab: domain.TabNewsAnalysis, Body: "x", Status: domain.StatusInProgress})
	m.AppendDebate("AAPL", domain.DebateResearch, domain.RoleBull, "case", time.Now())
	m.SetAccount(domain.AccountSummary{Equity: 100000})
	m.SetSession(domain.Session{ID: "s1", Symbol: "AAPL", State: domain.SessionRunning})

	want := []EventType{EventReport, EventDebate, EventAccount, EventSession}
	for i, wt := range want {
		select {
		case evt := <-ch:
			if evt.Type != wt {
				t.Errorf("event %d type = %q, want %q", i, evt.Type, wt)
			}
		default:
			t.Fatalf("missing event %d (%q)", i, wt)
		}
	}
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	m := newTestModel()
	id, ch := m.Subscribe(1)
	defer m.Unsubscribe(id)

	m.SelectTab(domain.TabNewsAnalysis)
	m.SelectTab(domain.TabTraderPlan) // dropped, buffer full
	m.SelectTab(domain.TabRiskDebate) // dropped

	if len(ch) != 1 {
		t.Errorf("buffered events = %d, want 1 (rest dropped)", len(ch))
	}
	// The model itself kept all mutations.
	if v := m.View(); v.ActiveTab != domain.TabRiskDebate {
		t.Errorf("ActiveTab = %q, want risk-debate", v.ActiveTab)
	}
}

func TestRefreshHint(t *testing.T) {
	m := newTestModel()
	now := time.Now()

	if got := m.RefreshHint(now); got != RefreshSlow {
		t.Errorf("idle RefreshHint = %v, want %v", got, RefreshSlow)
	}

	m.SetSession(domain.Session{ID: "s1", State: domain.SessionRunning})
	if got := m.RefreshHint(now); got != RefreshFast {
		t.Errorf("running RefreshHint = %v, want %v", got, RefreshFast)
	}

	m.SetSession(domain.Session{ID: "s1", State: domain.SessionCompleted, FinishedAt: now.Add(-2 * time.Minute)})
	if got := m.RefreshHint(now); got != RefreshMedium {
		t.Errorf("recently-finished RefreshHint = %v, want %v", got, RefreshMedium)
	}

	m.SetSession(domain.Session{ID: "s1", State: domain.SessionCompleted, FinishedAt: now.Add(-30 * time.Minute)})
	if got := m.RefreshHint(now); got != RefreshSlow {
		t.Errorf("stale RefreshHint = %v, want %v", got, RefreshSlow)
	}

	// An agent still mid-flight keeps polling fast regardless of session state.
	m.SetAgentStatus(domain.AgentNewsAnalyst, domain.StatusInProgress)
	if got := m.RefreshHint(now); got != RefreshFast {
		t.Errorf("in-progress agent RefreshHint = %v, want %v", got, RefreshFast)
	}
}

func TestSetSymbolsRosterChange(t *testing.T) {
	m := newTestModel()
	m.SetPage(3)

	m.SetSymbols([]string{"TSLA", "AMD"})
	v := m.View()
	if v.Page != 1 {
		t.Errorf("Page = %d after roster shrink, want 1", v.Page)
	}
	if v.Selected != "TSLA" {
		t.Errorf("Selected = %q after roster change, want TSLA", v.Selected)
	}
	if got := m.PageCount(); got != 1 {
		t.Errorf("PageCount() = %d, want 1", got)
	}
}
