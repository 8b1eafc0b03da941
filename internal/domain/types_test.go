package domain

import (
	"reflect"
	"testing"
)

func TestAllTabsOrder(t *testing.T) {
	tabs := AllTabs()
	if len(tabs) != 10 {
		t.Fatalf("AllTabs() returned %d tabs, want 10", len(tabs))
	}
	if tabs[0] != TabMarketAnalysis {
		t.Errorf("first tab = %q, want %q", tabs[0], TabMarketAnalysis)
	}
	if tabs[len(tabs)-1] != TabFinalDecision {
		t.Errorf("last tab = %q, want %q", tabs[len(tabs)-1], TabFinalDecision)
	}
	for _, tab := range tabs {
		if !tab.Valid() {
			t.Errorf("tab %q from AllTabs() is not Valid()", tab)
		}
	}
}

func TestReportTabValid(t *testing.T) {
	cases := []struct {
		tab  ReportTab
		want bool
	}{
		{TabMarketAnalysis, true},
		{TabRiskDebate, true},
		{ReportTab("portfolio"), false},
		{ReportTab(""), false},
	}
	for _, c := range cases {
		if got := c.tab.Valid(); got != c.want {
			t.Errorf("ReportTab(%q).Valid() = %v, want %v", c.tab, got, c.want)
		}
	}
}

func TestStatusConstants(t *testing.T) {
	if StatusPending != "pending" || StatusInProgress != "in_progress" ||
		StatusCompleted != "completed" || StatusError != "error" {
		t.Errorf("unexpected status constant values: %q %q %q %q",
			StatusPending, StatusInProgress, StatusCompleted, StatusError)
	}
	if ReportStatus("done").Valid() {
		t.Error(`ReportStatus("done").Valid() = true, want false`)
	}
}

func TestSignalKindValid(t *testing.T) {
	for _, k := range []SignalKind{SignalBuy, SignalSell, SignalHold} {
		if !k.Valid() {
			t.Errorf("SignalKind(%q).Valid() = false, want true", k)
		}
	}
	if SignalKind("long").Valid() {
		t.Error(`SignalKind("long").Valid() = true, want false`)
	}
}

func TestDebateRoleValidFor(t *testing.T) {
	cases := []struct {
		role DebateRole
		kind DebateKind
		want bool
	}{
		{RoleBull, DebateResearch, true},
		{RoleBear, DebateResearch, true},
		{RoleRisky, DebateResearch, false},
		{RoleRisky, DebateRisk, true},
		{RoleSafe, DebateRisk, true},
		{RoleNeutral, DebateRisk, true},
		{RoleBull, DebateRisk, false},
	}
	for _, c := range cases {
		if got := c.role.ValidFor(c.kind); got != c.want {
			t.Errorf("DebateRole(%q).ValidFor(%q) = %v, want %v", c.role, c.kind, got, c.want)
		}
	}
}

func TestCategoryOf(t *testing.T) {
	cases := []struct {
		value float64
		want  Category
	}{
		{150, CategoryPositive},
		{-150, CategoryNegative},
		{0, CategoryNeutral},
		{0.01, CategoryPositive},
		{-0.01, CategoryNegative},
	}
	for _, c := range cases {
		if got := CategoryOf(c.value); got != c.want {
			t.Errorf("CategoryOf(%v) = %q, want %q", c.value, got, c.want)
		}
	}
}

func TestTeams(t *testing.T) {
	teams := Teams(DefaultAnalysts())
	if len(teams) != 4 {
		t.Fatalf("Teams() returned %d teams, want 4", len(teams))
	}
	if teams[0].Name != "Analyst Team" || len(teams[0].Agents) != 5 {
		t.Errorf("analyst team = %+v, want 5 analysts", teams[0])
	}
	if teams[3].Name != "Risk Management" || len(teams[3].Agents) != 4 {
		t.Errorf("risk team = %+v, want 4 agents", teams[3])
	}

	// A reduced analyst selection shrinks only the first team.
	teams = Teams([]string{AgentMarketAnalyst})
	if len(teams[0].Agents) != 1 {
		t.Errorf("reduced analyst team has %d agents, want 1", len(teams[0].Agents))
	}
	if len(teams[1].Agents) != 3 {
		t.Errorf("research team has %d agents, want 3", len(teams[1].Agents))
	}
}

func TestParseTickers(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"AAPL,MSFT,GOOGL", []string{"AAPL", "MSFT", "GOOGL"}},
		{" aapl , msft ", []string{"AAPL", "MSFT"}},
		{"SPY,,QQQ,", []string{"SPY", "QQQ"}},
		{"", nil},
		{" , ,", nil},
	}
	for _, c := range cases {
		got := ParseTickers(c.in)
		if len(got) == 0 && len(c.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("ParseTickers(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
