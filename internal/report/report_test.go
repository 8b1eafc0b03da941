package report

import (
	"strings"
	"testing"

	"agentdeck/internal/domain"
)

func TestEvaluateMissing(t *testing.T) {
	for _, body := range []string{"", "   ", "\n\t"} {
		if got := Evaluate(domain.TabMarketAnalysis, body); got != domain.VerdictMissing {
			t.Errorf("Evaluate(market, %q) = %q, want missing", body, got)
		}
	}
}

func TestEvaluateBaseFloor(t *testing.T) {
	short := "Too short to be a report."
	if got := Evaluate(domain.TabFinalDecision, short); got != domain.VerdictIncomplete {
		t.Errorf("Evaluate(final, short) = %q, want incomplete", got)
	}

	long := strings.Repeat("The committee weighed the arguments. ", 5)
	if got := Evaluate(domain.TabFinalDecision, long); got != domain.VerdictComplete {
		t.Errorf("Evaluate(final, long) = %q, want complete", got)
	}
}

func TestEvaluateCompletionIndicator(t *testing.T) {
	filler := strings.Repeat("Price action remained orderly through the session. ", 12)

	// Long enough but trails off with no closing section and no table.
	if got := Evaluate(domain.TabMarketAnalysis, filler); got != domain.VerdictIncomplete {
		t.Errorf("Evaluate(market, no closing section) = %q, want incomplete", got)
	}

	// A closing section plus the tab's length completes it; no table needed.
	headed := "## Summary\n\nThe RSI shows improving momentum into the close. " + filler
	if got := Evaluate(domain.TabMarketAnalysis, headed); got != domain.VerdictComplete {
		t.Errorf("Evaluate(market, summary section) = %q, want complete", got)
	}

	// A closing section without the length is still a cut-off report.
	stub := "## Conclusion\n\n" + strings.Repeat("m", 200)
	if got := Evaluate(domain.TabMacroAnalysis, stub); got != domain.VerdictIncomplete {
		t.Errorf("Evaluate(macro, short conclusion) = %q, want incomplete", got)
	}
}

func TestEvaluateTableSuffices(t *testing.T) {
	// A data table marks completion even below the tab's length minimum.
	short := "Sentiment snapshot for the day:\n" +
		"| Metric | Value | Trend |\n" +
		"| positive share | 58% | rising |\n" +
		"| message volume | 1.2k | flat |\n"
	if got := Evaluate(domain.TabSocialSentiment, short); got != domain.VerdictComplete {
		t.Errorf("Evaluate(sentiment, short with table) = %q, want complete", got)
	}

	tabled := "Readings so far:\n| close | 187.2 | -0.4% |\n" + strings.Repeat("z", 80)
	if got := Evaluate(domain.TabMarketAnalysis, tabled); got != domain.VerdictComplete {
		t.Errorf("Evaluate(market, short with table) = %q, want complete", got)
	}
}

func TestEvaluatePerTabMinimums(t *testing.T) {
	cases := []struct {
		tab domain.ReportTab
		min int
	}{
		{domain.TabSocialSentiment, 300},
		{domain.TabNewsAnalysis, 400},
		{domain.TabMacroAnalysis, 800},
	}
	for _, c := range cases {
		under := "## Conclusion\n" + strings.Repeat("x", c.min-20)
		if got := Evaluate(c.tab, under); got != domain.VerdictIncomplete {
			t.Errorf("Evaluate(%s, under minimum) = %q, want incomplete", c.tab, got)
		}
		over := "## Conclusion\n" + strings.Repeat("x", c.min)
		if got := Evaluate(c.tab, over); got != domain.VerdictComplete {
			t.Errorf("Evaluate(%s, over minimum) = %q, want complete", c.tab, got)
		}
	}

	// Fundamentals without either a closing section or a table is cut off
	// regardless of length.
	body := strings.Repeat("y", 700)
	if got := Evaluate(domain.TabFundamentals, body); got != domain.VerdictIncomplete {
		t.Errorf("Evaluate(fundamentals, bare) = %q, want incomplete", got)
	}
	body += "\n| revenue | margin | growth |\n"
	if got := Evaluate(domain.TabFundamentals, body); got != domain.VerdictComplete {
		t.Errorf("Evaluate(fundamentals, with table) = %q, want complete", got)
	}
}

func TestPreview(t *testing.T) {
	short := "A brief update."
	if got := Preview(short); got != short {
		t.Errorf("Preview(short) = %q, want unchanged", got)
	}

	long := strings.Repeat("abcde", 100)
	got := Preview(long)
	if len([]rune(got)) != 203 {
		t.Errorf("Preview(long) length = %d runes, want 203", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Preview(long) = %q, want ellipsis suffix", got)
	}
	if !strings.HasPrefix(long, strings.TrimSuffix(got, "...")) {
		t.Error("Preview(long) is not a prefix of the body")
	}
}

func TestExtractSignalProposalLine(t *testing.T) {
	cases := []struct {
		text string
		want domain.SignalKind
	}{
		{"Weighing both sides.\n\nFINAL TRANSACTION PROPOSAL: **BUY**", domain.SignalBuy},
		{"FINAL TRANSACTION PROPOSAL: **SELL**", domain.SignalSell},
		{"final transaction proposal: hold", domain.SignalHold},
		{"FINAL TRANSACTION PROPOSAL: **LONG**", domain.SignalBuy},
		{"FINAL TRANSACTION PROPOSAL: **SHORT**", domain.SignalSell},
		{"FINAL TRANSACTION PROPOSAL: **NEUTRAL**", domain.SignalHold},
	}
	for _, c := range cases {
		got, ok := ExtractSignal(c.text)
		if !ok {
			t.Errorf("ExtractSignal(%q) not ok, want %q", c.text, c.want)
			continue
		}
		if got != c.want {
			t.Errorf("ExtractSignal(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}

func TestExtractSignalProposalBeatsTail(t *testing.T) {
	// The structured line wins even when the tail mentions another action.
	text := "FINAL TRANSACTION PROPOSAL: **SELL**\nWe would buy again below 150."
	got, ok := ExtractSignal(text)
	if !ok || got != domain.SignalSell {
		t.Errorf("ExtractSignal = %q ok=%v, want sell", got, ok)
	}
}

func TestExtractSignalDirectionalProposalWins(t *testing.T) {
	// A quoted action proposal earlier in the text loses to the report's
	// own directional proposal, wherever each appears.
	text := "The trader's plan read FINAL TRANSACTION PROPOSAL: **HOLD** last week.\n" +
		"After the debate the desk now commits.\n" +
		"FINAL TRANSACTION PROPOSAL: **LONG**"
	got, ok := ExtractSignal(text)
	if !ok || got != domain.SignalBuy {
		t.Errorf("ExtractSignal = %q ok=%v, want buy", got, ok)
	}
}

func TestExtractSignalTailFallback(t *testing.T) {
	// No proposal line: the last hundred characters decide.
	text := strings.Repeat("Context paragraph. ", 30) + "On balance the desk should hold here."
	got, ok := ExtractSignal(text)
	if !ok || got != domain.SignalHold {
		t.Errorf("ExtractSignal(tail hold) = %q ok=%v, want hold", got, ok)
	}

	// Directional language outranks the plain action word.
	text = strings.Repeat("Context paragraph. ", 30) + "Stay long even though some would sell."
	got, ok = ExtractSignal(text)
	if !ok || got != domain.SignalBuy {
		t.Errorf("ExtractSignal(tail long) = %q ok=%v, want buy", got, ok)
	}

	// A buy mention outside the tail window does not count.
	text = "Definitely buy. " + strings.Repeat("Unrelated remarks about market structure. ", 10)
	if _, ok := ExtractSignal(text); ok {
		t.Error("ExtractSignal found a signal outside the tail window")
	}
}
