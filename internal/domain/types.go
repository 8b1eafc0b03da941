// Package domain defines the core types shared across the agentdeck
// platform: report panels, agent statuses, debate transcripts, sessions,
// and brokerage account snapshots.
package domain

import (
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Report tabs
// ---------------------------------------------------------------------------

// ReportTab identifies one of the fixed dashboard report panels.
type ReportTab string

const (
	TabMarketAnalysis   ReportTab = "market-analysis"
	TabSocialSentiment  ReportTab = "social-sentiment"
	TabNewsAnalysis     ReportTab = "news-analysis"
	TabFundamentals     ReportTab = "fundamentals-analysis"
	TabMacroAnalysis    ReportTab = "macro-analysis"
	TabResearcherDebate ReportTab = "researcher-debate"
	TabResearchManager  ReportTab = "research-manager"
	TabTraderPlan       ReportTab = "trader-plan"
	TabRiskDebate       ReportTab = "risk-debate"
	TabFinalDecision    ReportTab = "final-decision"
)

// AllTabs returns the report tabs in display order.
func AllTabs() []ReportTab {
	return []ReportTab{
		TabMarketAnalysis,
		TabSocialSentiment,
		TabNewsAnalysis,
		TabFundamentals,
		TabMacroAnalysis,
		TabResearcherDebate,
		TabResearchManager,
		TabTraderPlan,
		TabRiskDebate,
		TabFinalDecision,
	}
}

// Valid reports whether t is one of the enumerated report tabs.
func (t ReportTab) Valid() bool {
	switch t {
	case TabMarketAnalysis, TabSocialSentiment, TabNewsAnalysis,
		TabFundamentals, TabMacroAnalysis, TabResearcherDebate,
		TabResearchManager, TabTraderPlan, TabRiskDebate, TabFinalDecision:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Report status & signal
// ---------------------------------------------------------------------------

// ReportStatus is the lifecycle state of a report panel (and of an agent).
type ReportStatus string

const (
	StatusPending    ReportStatus = "pending"
	StatusInProgress ReportStatus = "in_progress"
	StatusCompleted  ReportStatus = "completed"
	StatusError      ReportStatus = "error"
)

// Valid reports whether s is an enumerated status.
func (s ReportStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusError:
		return true
	}
	return false
}

// SignalKind is the trading signal attached to a final-decision report when
// it is produced. It is an explicit semantic tag, never re-derived from the
// rendered report text.
type SignalKind string

const (
	SignalBuy  SignalKind = "buy"
	SignalSell SignalKind = "sell"
	SignalHold SignalKind = "hold"
)

// Valid reports whether k is an enumerated signal kind.
func (k SignalKind) Valid() bool {
	return k == SignalBuy || k == SignalSell || k == SignalHold
}

// Verdict is the completeness verdict for an ingested report body.
type Verdict string

const (
	VerdictComplete   Verdict = "complete"
	VerdictIncomplete Verdict = "incomplete"
	VerdictMissing    Verdict = "missing"
)

// Report is the content of one (symbol, tab) panel.
type Report struct {
	Symbol    string
	Tab       ReportTab
	Body      string
	Status    ReportStatus
	Verdict   Verdict
	Signal    SignalKind // final-decision reports only
	Error     string     // set when Status == StatusError
	UpdatedAt time.Time
}

// ---------------------------------------------------------------------------
// Debate transcripts
// ---------------------------------------------------------------------------

// DebateKind selects one of the two debate transcripts per symbol.
type DebateKind string

const (
	DebateResearch DebateKind = "research" // bull vs bear
	DebateRisk     DebateKind = "risk"     // risky / safe / neutral
)

// DebateRole identifies the speaker of a debate message.
type DebateRole string

const (
	RoleBull    DebateRole = "bull"
	RoleBear    DebateRole = "bear"
	RoleRisky   DebateRole = "risky"
	RoleSafe    DebateRole = "safe"
	RoleNeutral DebateRole = "neutral"
)

// ValidFor reports whether the role belongs to the given debate kind.
func (r DebateRole) ValidFor(kind DebateKind) bool {
	switch kind {
	case DebateResearch:
		return r == RoleBull || r == RoleBear
	case DebateRisk:
		return r == RoleRisky || r == RoleSafe || r == RoleNeutral
	}
	return false
}

// DebateMessage is one argument in a debate transcript. Messages are
// immutable once appended and keep their insertion order.
type DebateMessage struct {
	Seq  int
	Role DebateRole
	Text string
	Time time.Time
}

// ---------------------------------------------------------------------------
// Tool calls and prompts
// ---------------------------------------------------------------------------

// ToolStatus is the outcome of a single tool invocation.
type ToolStatus string

const (
	ToolSuccess ToolStatus = "success"
	ToolError   ToolStatus = "error"
)

// ToolCall records one tool invocation made by an agent during a session.
type ToolCall struct {
	Seq      int
	Symbol   string
	Agent    string
	Tool     string
	Inputs   string // JSON-encoded arguments
	Output   string
	Status   ToolStatus
	Duration time.Duration
	Time     time.Time
}

// PromptRecord is a captured system prompt for one (tab, symbol).
type PromptRecord struct {
	Tab        ReportTab
	Symbol     string
	Text       string
	CapturedAt time.Time
}

// ---------------------------------------------------------------------------
// Agents and teams
// ---------------------------------------------------------------------------

// Agent names as reported by the analysis pipeline.
const (
	AgentMarketAnalyst       = "Market Analyst"
	AgentSocialAnalyst       = "Social Analyst"
	AgentNewsAnalyst         = "News Analyst"
	AgentFundamentalsAnalyst = "Fundamentals Analyst"
	AgentMacroAnalyst        = "Macro Analyst"
	AgentBullResearcher      = "Bull Researcher"
	AgentBearResearcher      = "Bear Researcher"
	AgentResearchManager     = "Research Manager"
	AgentTrader              = "Trader"
	AgentRiskyAnalyst        = "Risky Analyst"
	AgentSafeAnalyst         = "Safe Analyst"
	AgentNeutralAnalyst      = "Neutral Analyst"
	AgentPortfolioManager    = "Portfolio Manager"
)

// Team groups agents for status display.
type Team struct {
	Name   string
	Agents []string
}

// Teams returns the fixed team layout. The Analyst Team contains only the
// analysts selected for the session; downstream teams are always present.
func Teams(analysts []string) []Team {
	return []Team{
		{Name: "Analyst Team", Agents: analysts},
		{Name: "Research Team", Agents: []string{AgentBullResearcher, AgentBearResearcher, AgentResearchManager}},
		{Name: "Trading Team", Agents: []string{AgentTrader}},
		{Name: "Risk Management", Agents: []string{AgentRiskyAnalyst, AgentSafeAnalyst, AgentNeutralAnalyst, AgentPortfolioManager}},
	}
}

// DefaultAnalysts returns the full analyst selection.
func DefaultAnalysts() []string {
	return []string{
		AgentMarketAnalyst,
		AgentSocialAnalyst,
		AgentNewsAnalyst,
		AgentFundamentalsAnalyst,
		AgentMacroAnalyst,
	}
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

// SessionState is the lifecycle state of an analysis session.
type SessionState string

const (
	SessionQueued    SessionState = "queued"
	SessionRunning   SessionState = "running"
	SessionCompleted SessionState = "completed"
	SessionFailed    SessionState = "failed"
	SessionStopped   SessionState = "stopped"
)

// Session is one analysis run for one symbol.
type Session struct {
	ID         string
	Symbol     string
	State      SessionState
	Analysts   []string
	Agents     map[string]ReportStatus // agent name → status
	LLMCalls   int
	ToolCalls  int
	Reports    int
	StartedAt  time.Time
	FinishedAt time.Time
}

// ---------------------------------------------------------------------------
// Account view
// ---------------------------------------------------------------------------

// Category is the sign-based display category for a numeric value.
type Category string

const (
	CategoryPositive Category = "positive"
	CategoryNegative Category = "negative"
	CategoryNeutral  Category = "neutral"
)

// CategoryOf maps a numeric value to its display category at a fixed zero
// threshold. Exactly zero is neutral.
func CategoryOf(v float64) Category {
	switch {
	case v > 0:
		return CategoryPositive
	case v < 0:
		return CategoryNegative
	default:
		return CategoryNeutral
	}
}

// AccountSummary is a snapshot of the brokerage account's headline numbers.
type AccountSummary struct {
	BuyingPower    float64
	Cash           float64
	Equity         float64
	DailyChange    float64
	DailyChangePct float64
	DailyCategory  Category
	PaperMode      bool
	RetrievedAt    time.Time
}

// Position is an open position with display-ready P/L breakdowns.
type Position struct {
	Symbol        string
	Qty           float64
	Side          string // "long" or "short"
	MarketValue   float64
	AvgEntryPrice float64
	CostBasis     float64
	TodayPL       float64
	TodayPLPct    float64
	TodayCategory Category
	TotalPL       float64
	TotalPLPct    float64
	TotalCategory Category
}

// Order is a brokerage order row for the orders table.
type Order struct {
	ID          string
	Symbol      string
	Side        string // "buy" or "sell"
	Qty         float64
	Notional    float64
	Type        string
	Status      string
	FilledQty   float64
	FilledPrice float64
	CreatedAt   time.Time
	FilledAt    time.Time
}

// PositionState summarises direction for a symbol: LONG, SHORT, or NEUTRAL.
type PositionState string

const (
	PositionLong    PositionState = "LONG"
	PositionShort   PositionState = "SHORT"
	PositionNeutral PositionState = "NEUTRAL"
)

// ---------------------------------------------------------------------------
// Symbols
// ---------------------------------------------------------------------------

// ParseTickers splits a comma-separated ticker list, trimming whitespace,
// uppercasing, and dropping empty entries.
func ParseTickers(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
