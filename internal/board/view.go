package board

import (
	"fmt"

	"agentdeck/internal/domain"
	"agentdeck/internal/report"
)

// tabLabels are the panel display names.
var tabLabels = map[domain.ReportTab]string{
	domain.TabMarketAnalysis:   "Market Analysis",
	domain.TabSocialSentiment:  "Social Sentiment",
	domain.TabNewsAnalysis:     "News Analysis",
	domain.TabFundamentals:     "Fundamentals",
	domain.TabMacroAnalysis:    "Macro Analysis",
	domain.TabResearcherDebate: "Researcher Debate",
	domain.TabResearchManager:  "Research Manager",
	domain.TabTraderPlan:       "Trader Plan",
	domain.TabRiskDebate:       "Risk Debate",
	domain.TabFinalDecision:    "Final Decision",
}

// TabLabel returns the display name for a report tab.
func TabLabel(tab domain.ReportTab) string {
	if label, ok := tabLabels[tab]; ok {
		return label
	}
	return string(tab)
}

// PanelState is the render treatment for a report panel.
type PanelState string

const (
	PanelPlaceholder PanelState = "placeholder"
	PanelPreview     PanelState = "preview"
	PanelError       PanelState = "error"
	PanelFull        PanelState = "full"
)

// PanelView is a display-ready report panel. It is the single render rule:
// every client shows a panel exactly as computed here.
type PanelView struct {
	Tab         domain.ReportTab
	Label       string
	State       PanelState
	Body        string
	Status      domain.ReportStatus
	StatusColor string
	Signal      domain.SignalKind
	SignalColor string
}

// RenderPanel maps a stored report onto its render treatment. The verdict
// and signal were fixed at ingest; rendering only chooses how much of the
// body to show.
func RenderPanel(tab domain.ReportTab, rep domain.Report, ok bool) PanelView {
	pv := PanelView{
		Tab:    tab,
		Label:  TabLabel(tab),
		Status: domain.StatusPending,
	}
	if !ok || rep.Verdict == domain.VerdictMissing || rep.Status == domain.StatusPending {
		pv.State = PanelPlaceholder
		pv.Body = fmt.Sprintf("Waiting for %s...", TabLabel(tab))
		if ok {
			pv.Status = rep.Status
		}
		pv.StatusColor = StatusColor(pv.Status)
		return pv
	}

	pv.Status = rep.Status
	pv.StatusColor = StatusColor(rep.Status)

	switch {
	case rep.Status == domain.StatusError:
		pv.State = PanelError
		pv.Body = rep.Error
		if pv.Body == "" {
			pv.Body = fmt.Sprintf("%s failed.", TabLabel(tab))
		}
	case rep.Status == domain.StatusInProgress || rep.Verdict == domain.VerdictIncomplete:
		pv.State = PanelPreview
		pv.Body = report.Preview(rep.Body)
	default:
		pv.State = PanelFull
		pv.Body = rep.Body
	}

	if rep.Signal.Valid() && rep.Status == domain.StatusCompleted {
		pv.Signal = rep.Signal
		pv.SignalColor = SignalColor(rep.Signal)
	}
	return pv
}

// Panel returns the display-ready panel for one (symbol, tab).
func (m *Model) Panel(symbol string, tab domain.ReportTab) PanelView {
	rep, ok := m.Report(symbol, tab)
	return RenderPanel(tab, rep, ok)
}

// Panels returns every panel for the symbol in display-tab order.
func (m *Model) Panels(symbol string) []PanelView {
	out := make([]PanelView, 0, len(domain.AllTabs()))
	for _, tab := range domain.AllTabs() {
		out = append(out, m.Panel(symbol, tab))
	}
	return out
}

// ---------------------------------------------------------------------------
// Debate transcript view
// ---------------------------------------------------------------------------

// Alignment places a transcript entry in the two-column debate layout.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignRight  Alignment = "right"
	AlignCenter Alignment = "center"
)

// AlignmentFor returns the column for a debate role: the optimistic side
// reads on the left, the cautious side on the right, neutral in between.
func AlignmentFor(role domain.DebateRole) Alignment {
	switch role {
	case domain.RoleBull, domain.RoleRisky:
		return AlignLeft
	case domain.RoleBear, domain.RoleSafe:
		return AlignRight
	default:
		return AlignCenter
	}
}

// speakerLabels maps debate roles to their agent display names.
var speakerLabels = map[domain.DebateRole]string{
	domain.RoleBull:    domain.AgentBullResearcher,
	domain.RoleBear:    domain.AgentBearResearcher,
	domain.RoleRisky:   domain.AgentRiskyAnalyst,
	domain.RoleSafe:    domain.AgentSafeAnalyst,
	domain.RoleNeutral: domain.AgentNeutralAnalyst,
}

// SpeakerLabel returns the display name for a debate role.
func SpeakerLabel(role domain.DebateRole) string {
	if label, ok := speakerLabels[role]; ok {
		return label
	}
	return string(role)
}

// TranscriptEntry is one display-ready debate argument.
type TranscriptEntry struct {
	Seq     int
	Role    domain.DebateRole
	Speaker string
	Align   Alignment
	Color   string
	Text    string
}

// Transcript returns the debate in insertion order with per-role alignment
// and colors attached.
func (m *Model) Transcript(symbol string, kind domain.DebateKind) []TranscriptEntry {
	msgs := m.DebateMessages(symbol, kind)
	out := make([]TranscriptEntry, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, TranscriptEntry{
			Seq:     msg.Seq,
			Role:    msg.Role,
			Speaker: SpeakerLabel(msg.Role),
			Align:   AlignmentFor(msg.Role),
			Color:   RoleColor(msg.Role),
			Text:    msg.Text,
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Team status view
// ---------------------------------------------------------------------------

// AgentBadge is one agent's status chip.
type AgentBadge struct {
	Name   string
	Status domain.ReportStatus
	Color  string
}

// TeamView is a team with its agents' current statuses.
type TeamView struct {
	Name   string
	Agents []AgentBadge
}

// TeamViews returns the fixed team layout with live statuses attached.
// Agents the pipeline has not reported on yet show as pending.
func (m *Model) TeamViews() []TeamView {
	m.mu.RLock()
	analysts := append([]string(nil), m.analysts...)
	statuses := m.agentsCopyLocked()
	m.mu.RUnlock()

	teams := domain.Teams(analysts)
	out := make([]TeamView, 0, len(teams))
	for _, team := range teams {
		tv := TeamView{Name: team.Name}
		for _, agent := range team.Agents {
			status, ok := statuses[agent]
			if !ok {
				status = domain.StatusPending
			}
			tv.Agents = append(tv.Agents, AgentBadge{
				Name:   agent,
				Status: status,
				Color:  StatusColor(status),
			})
		}
		out = append(out, tv)
	}
	return out
}
