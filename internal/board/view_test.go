package board

import (
	"strings"
	"testing"
	"time"

	"agentdeck/internal/domain"
)

func TestRenderPanelPlaceholder(t *testing.T) {
	pv := RenderPanel(domain.TabMarketAnalysis, domain.Report{}, false)
	if pv.State != PanelPlaceholder {
		t.Errorf("State = %q, want placeholder", pv.State)
	}
	if !strings.Contains(pv.Body, "Market Analysis") {
		t.Errorf("placeholder body = %q, want tab label mentioned", pv.Body)
	}
	if pv.Status != domain.StatusPending {
		t.Errorf("Status = %q, want pending", pv.Status)
	}
	if pv.StatusColor != ColorPending {
		t.Errorf("StatusColor = %q, want %q", pv.StatusColor, ColorPending)
	}
}

func TestRenderPanelPreview(t *testing.T) {
	body := strings.Repeat("Working through the analysis. ", 20)
	rep := domain.Report{
		Symbol:  "AAPL",
		Tab:     domain.TabNewsAnalysis,
		Body:    body,
		Status:  domain.StatusInProgress,
		Verdict: domain.VerdictIncomplete,
	}
	pv := RenderPanel(domain.TabNewsAnalysis, rep, true)
	if pv.State != PanelPreview {
		t.Errorf("State = %q, want preview", pv.State)
	}
	if len([]rune(pv.Body)) != 203 {
		t.Errorf("preview length = %d runes, want 203", len([]rune(pv.Body)))
	}
	if pv.StatusColor != ColorInProgress {
		t.Errorf("StatusColor = %q, want %q", pv.StatusColor, ColorInProgress)
	}
}

func TestRenderPanelError(t *testing.T) {
	rep := domain.Report{
		Symbol:  "AAPL",
		Tab:     domain.TabFundamentals,
		Status:  domain.StatusError,
		Verdict: domain.VerdictIncomplete,
		Error:   "fundamentals feed unavailable",
	}
	pv := RenderPanel(domain.TabFundamentals, rep, true)
	if pv.State != PanelError {
		t.Errorf("State = %q, want error", pv.State)
	}
	if pv.Body != "fundamentals feed unavailable" {
		t.Errorf("Body = %q, want the error text", pv.Body)
	}
	if pv.StatusColor != ColorError {
		t.Errorf("StatusColor = %q, want %q", pv.StatusColor, ColorError)
	}
}

func TestRenderPanelFullWithSignal(t *testing.T) {
	rep := domain.Report{
		Symbol:  "AAPL",
		Tab:     domain.TabFinalDecision,
		Body:    "The committee agrees. FINAL TRANSACTION PROPOSAL: **BUY**",
		Status:  domain.StatusCompleted,
		Verdict: domain.VerdictComplete,
		Signal:  domain.SignalBuy,
	}
	pv := RenderPanel(domain.TabFinalDecision, rep, true)
	if pv.State != PanelFull {
		t.Errorf("State = %q, want full", pv.State)
	}
	if pv.Body != rep.Body {
		t.Error("full render altered the body")
	}
	if pv.Signal != domain.SignalBuy {
		t.Errorf("Signal = %q, want buy", pv.Signal)
	}
	if pv.SignalColor != ColorCompleted {
		t.Errorf("SignalColor = %q, want %q", pv.SignalColor, ColorCompleted)
	}
}

func TestRenderPanelIncompleteCompletedIsPreview(t *testing.T) {
	// A completed report that failed its completeness checks renders as a
	// preview rather than pretending to be final.
	rep := domain.Report{
		Symbol:  "AAPL",
		Tab:     domain.TabMacroAnalysis,
		Body:    strings.Repeat("Thin macro note. ", 20),
		Status:  domain.StatusCompleted,
		Verdict: domain.VerdictIncomplete,
	}
	pv := RenderPanel(domain.TabMacroAnalysis, rep, true)
	if pv.State != PanelPreview {
		t.Errorf("State = %q, want preview for incomplete verdict", pv.State)
	}
}

func TestTranscriptAlignment(t *testing.T) {
	m := newTestModel()
	at := time.Now()
	m.AppendDebate("AAPL", domain.DebateResearch, domain.RoleBull, "Upside case.", at)
	m.AppendDebate("AAPL", domain.DebateResearch, domain.RoleBear, "Downside case.", at)

	entries := m.Transcript("AAPL", domain.DebateResearch)
	if len(entries) != 2 {
		t.Fatalf("Transcript returned %d entries, want 2", len(entries))
	}
	if entries[0].Align != AlignLeft || entries[0].Speaker != domain.AgentBullResearcher {
		t.Errorf("bull entry = %+v, want left-aligned Bull Researcher", entries[0])
	}
	if entries[1].Align != AlignRight || entries[1].Speaker != domain.AgentBearResearcher {
		t.Errorf("bear entry = %+v, want right-aligned Bear Researcher", entries[1])
	}
	if entries[0].Color == entries[1].Color {
		t.Error("bull and bear share a color")
	}
}

func TestTranscriptRiskAlignment(t *testing.T) {
	m := newTestModel()
	at := time.Now()
	m.AppendDebate("AAPL", domain.DebateRisk, domain.RoleRisky, "Size up.", at)
	m.AppendDebate("AAPL", domain.DebateRisk, domain.RoleSafe, "Size down.", at)
	m.AppendDebate("AAPL", domain.DebateRisk, domain.RoleNeutral, "Split the difference.", at)

	entries := m.Transcript("AAPL", domain.DebateRisk)
	wantAligns := []Alignment{AlignLeft, AlignRight, AlignCenter}
	for i, want := range wantAligns {
		if entries[i].Align != want {
			t.Errorf("entry %d align = %q, want %q", i, entries[i].Align, want)
		}
	}
}

func TestTeamViews(t *testing.T) {
	m := newTestModel()
	m.SetAgentStatus(domain.AgentMarketAnalyst, domain.StatusCompleted)
	m.SetAgentStatus(domain.AgentBullResearcher, domain.StatusInProgress)

	teams := m.TeamViews()
	if len(teams) != 4 {
		t.Fatalf("TeamViews returned %d teams, want 4", len(teams))
	}

	var market, bull AgentBadge
	for _, team := range teams {
		for _, a := range team.Agents {
			switch a.Name {
			case domain.AgentMarketAnalyst:
				market = a
			case domain.AgentBullResearcher:
				bull = a
			}
		}
	}
	if market.Status != domain.StatusCompleted || market.Color != ColorCompleted {
		t.Errorf("market analyst badge = %+v, want completed/green", market)
	}
	if bull.Status != domain.StatusInProgress || bull.Color != ColorInProgress {
		t.Errorf("bull researcher badge = %+v, want in_progress/amber", bull)
	}
}

func TestStyleForSingleRule(t *testing.T) {
	active := StyleFor(true)
	inactive := StyleFor(false)
	if active == inactive {
		t.Fatal("active and inactive control styles are identical")
	}
	if !active.Bold || active.Background == "transparent" {
		t.Errorf("active style = %+v, want bold with solid background", active)
	}
	// The same rule answers for tabs and symbol buttons, so repeated calls
	// must agree.
	if StyleFor(true) != active {
		t.Error("StyleFor(true) is not stable")
	}
}
