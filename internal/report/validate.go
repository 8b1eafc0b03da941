// Package report evaluates ingested report text: completeness verdicts,
// in-progress previews, and trading-signal extraction. Evaluation happens
// once at ingest; the stored verdict and signal are what the dashboard
// renders, never a re-parse of the text.
package report

import (
	"regexp"
	"strings"

	"agentdeck/internal/domain"
)

// previewChars is the length of the in-progress excerpt shown while an
// agent is still writing a report.
const previewChars = 200

// baseMinChars is the floor below which any report is incomplete.
const baseMinChars = 100

// tableRe matches a markdown table row.
var tableRe = regexp.MustCompile(`\|.*\|.*\|`)

// completionIndicators are the closing sections and summary markers a
// finished report carries. A report ending without one of these (and
// without a data table) was cut off mid-stream.
var completionIndicators = []string{
	"## summary",
	"## conclusion",
	"## trading implications",
	"## recommendation",
	"| key metric |",
	"| metric |",
	"**recommendation:**",
	"## key points",
	"### trading implications",
}

// minChars is the per-tab length an analyst report must reach before its
// closing section counts as completion. Tabs not listed use the base floor.
var minChars = map[domain.ReportTab]int{
	domain.TabMarketAnalysis:  500,
	domain.TabSocialSentiment: 300,
	domain.TabNewsAnalysis:    400,
	domain.TabFundamentals:    600,
	domain.TabMacroAnalysis:   800,
}

// Evaluate returns the completeness verdict for a report body on the given
// tab. Above the base floor, a report is complete when it either carries a
// completion indicator and meets its tab's length, or contains a markdown
// table. A table alone is enough: tabular output only appears once an
// agent has finished assembling its data.
func Evaluate(tab domain.ReportTab, body string) domain.Verdict {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return domain.VerdictMissing
	}
	if len(trimmed) < baseMinChars {
		return domain.VerdictIncomplete
	}

	min, ok := minChars[tab]
	if !ok {
		return domain.VerdictComplete
	}
	if hasCompletionIndicator(trimmed) && len(trimmed) >= min {
		return domain.VerdictComplete
	}
	if tableRe.MatchString(trimmed) {
		return domain.VerdictComplete
	}
	return domain.VerdictIncomplete
}

func hasCompletionIndicator(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range completionIndicators {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Preview returns the leading excerpt of an in-progress report, truncated
// at a rune boundary with an ellipsis when the body is longer.
func Preview(body string) string {
	trimmed := strings.TrimSpace(body)
	runes := []rune(trimmed)
	if len(runes) <= previewChars {
		return trimmed
	}
	return string(runes[:previewChars]) + "..."
}
