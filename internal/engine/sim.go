package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agentdeck/internal/domain"
	"agentdeck/internal/prompts"
)

// SimRunner produces a deterministic demo session: staged analyst reports,
// debate rounds, tool calls, and a final decision, all with fixed content
// derived from the symbol. It stands in for the external agent pipeline
// when no provider is configured.
type SimRunner struct {
	// StageDelay spaces out stages so the dashboard visibly progresses.
	// Zero runs the whole session inline, which is what tests want.
	StageDelay time.Duration
}

var analystTabs = map[string]domain.ReportTab{
	domain.AgentMarketAnalyst:       domain.TabMarketAnalysis,
	domain.AgentSocialAnalyst:       domain.TabSocialSentiment,
	domain.AgentNewsAnalyst:         domain.TabNewsAnalysis,
	domain.AgentFundamentalsAnalyst: domain.TabFundamentals,
	domain.AgentMacroAnalyst:        domain.TabMacroAnalysis,
}

var analystTools = map[string][]string{
	domain.AgentMarketAnalyst:       {"get_price_history", "get_indicators"},
	domain.AgentSocialAnalyst:       {"get_social_posts"},
	domain.AgentNewsAnalyst:         {"get_company_news"},
	domain.AgentFundamentalsAnalyst: {"get_financials", "get_insider_activity"},
	domain.AgentMacroAnalyst:        {"get_fred_series", "get_macro_news"},
}

func (s *SimRunner) Run(ctx context.Context, rec *Recorder) error {
	symbol := rec.Session().Symbol

	// Analyst stage: each selected analyst researches and writes its panel.
	for _, analyst := range rec.Session().Analysts {
		tab, ok := analystTabs[analyst]
		if !ok {
			continue
		}
		rec.CapturePrompt(tab, prompts.DefaultPrompt(tab, symbol))
		rec.StartReport(tab, analyst)
		for i, tool := range analystTools[analyst] {
			rec.ToolCall(analyst, tool,
				fmt.Sprintf(`{"symbol":%q}`, symbol),
				simToolOutput(tool, symbol),
				domain.ToolSuccess,
				time.Duration(180+i*140)*time.Millisecond)
		}
		rec.CountLLMCall()

		body := simReportBody(tab, symbol)
		rec.StreamReport(tab, leading(body, 160))
		if err := s.pause(ctx); err != nil {
			return err
		}
		rec.CompleteReport(tab, analyst, body)
	}

	// Research stage: two bull/bear rounds, then the manager's call.
	rec.SetAgent(domain.AgentBullResearcher, domain.StatusInProgress)
	rec.SetAgent(domain.AgentBearResearcher, domain.StatusInProgress)
	rec.StartReport(domain.TabResearcherDebate, domain.AgentBullResearcher)
	for round := 1; round <= 2; round++ {
		rec.CountLLMCall()
		rec.Debate(domain.DebateResearch, domain.RoleBull, bullArgument(symbol, round))
		if err := s.pause(ctx); err != nil {
			return err
		}
		rec.CountLLMCall()
		rec.Debate(domain.DebateResearch, domain.RoleBear, bearArgument(symbol, round))
		if err := s.pause(ctx); err != nil {
			return err
		}
	}
	rec.CompleteReport(domain.TabResearcherDebate, domain.AgentBullResearcher, debateDigest(symbol))
	rec.SetAgent(domain.AgentBearResearcher, domain.StatusCompleted)

	rec.CapturePrompt(domain.TabResearchManager, prompts.DefaultPrompt(domain.TabResearchManager, symbol))
	rec.StartReport(domain.TabResearchManager, domain.AgentResearchManager)
	rec.CountLLMCall()
	if err := s.pause(ctx); err != nil {
		return err
	}
	rec.CompleteReport(domain.TabResearchManager, domain.AgentResearchManager, managerBody(symbol))

	// Trading stage.
	rec.CapturePrompt(domain.TabTraderPlan, prompts.DefaultPrompt(domain.TabTraderPlan, symbol))
	rec.StartReport(domain.TabTraderPlan, domain.AgentTrader)
	rec.CountLLMCall()
	if err := s.pause(ctx); err != nil {
		return err
	}
	rec.CompleteReport(domain.TabTraderPlan, domain.AgentTrader, traderBody(symbol))

	// Risk stage: one round per stance, then the binding decision.
	rec.SetAgent(domain.AgentRiskyAnalyst, domain.StatusInProgress)
	rec.SetAgent(domain.AgentSafeAnalyst, domain.StatusInProgress)
	rec.SetAgent(domain.AgentNeutralAnalyst, domain.StatusInProgress)
	rec.StartReport(domain.TabRiskDebate, domain.AgentRiskyAnalyst)
	rec.CountLLMCall()
	rec.Debate(domain.DebateRisk, domain.RoleRisky, riskyArgument(symbol))
	rec.CountLLMCall()
	rec.Debate(domain.DebateRisk, domain.RoleSafe, safeArgument(symbol))
	rec.CountLLMCall()
	rec.Debate(domain.DebateRisk, domain.RoleNeutral, neutralArgument(symbol))
	if err := s.pause(ctx); err != nil {
		return err
	}
	rec.CompleteReport(domain.TabRiskDebate, domain.AgentRiskyAnalyst, riskDigest(symbol))
	rec.SetAgent(domain.AgentSafeAnalyst, domain.StatusCompleted)
	rec.SetAgent(domain.AgentNeutralAnalyst, domain.StatusCompleted)

	rec.CapturePrompt(domain.TabFinalDecision, prompts.DefaultPrompt(domain.TabFinalDecision, symbol))
	rec.StartReport(domain.TabFinalDecision, domain.AgentPortfolioManager)
	rec.CountLLMCall()
	if err := s.pause(ctx); err != nil {
		return err
	}
	rec.CompleteReport(domain.TabFinalDecision, domain.AgentPortfolioManager, finalBody(symbol))

	return nil
}

func (s *SimRunner) pause(ctx context.Context) error {
	if s.StageDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.StageDelay):
		return nil
	}
}

func leading(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// SignalFor picks the demo decision for a symbol. The choice is a stable
// function of the ticker so repeated runs agree.
func SignalFor(symbol string) domain.SignalKind {
	sum := 0
	for _, b := range []byte(symbol) {
		sum += int(b)
	}
	switch sum % 3 {
	case 0:
		return domain.SignalBuy
	case 1:
		return domain.SignalHold
	default:
		return domain.SignalSell
	}
}

// ---------------------------------------------------------------------------
// Demo content
// ---------------------------------------------------------------------------

func simToolOutput(tool, symbol string) string {
	switch tool {
	case "get_price_history":
		return fmt.Sprintf("Fetched 90 daily bars for %s. Last close 187.24, range 171.80-194.10, average daily volume 48.2M shares.", symbol)
	case "get_indicators":
		return fmt.Sprintf("%s indicators: RSI(14) 54.2, MACD 0.82 above signal, 50-SMA 182.10, 200-SMA 168.44, Bollinger width contracting, ATR(14) 3.91.", symbol)
	case "get_social_posts":
		return fmt.Sprintf("Collected 312 posts mentioning %s over 7 days. Sentiment split 58%% positive / 27%% neutral / 15%% negative, volume up 22%% week over week.", symbol)
	case "get_company_news":
		return fmt.Sprintf("Retrieved 18 articles for %s from the last week: 2 analyst actions, 1 product announcement, 3 sector pieces, no litigation items.", symbol)
	case "get_financials":
		return fmt.Sprintf("%s latest quarter: revenue +11.4%% YoY, gross margin 46.1%%, operating margin 29.8%%, free cash flow conversion 96%%.", symbol)
	case "get_insider_activity":
		return fmt.Sprintf("Insider flow for %s over 90 days: 4 sells under 10b5-1 plans, 1 open-market buy by a director, net -0.02%% of float.", symbol)
	case "get_fred_series":
		return "FRED snapshot: 10Y treasury 4.21%, CPI YoY 2.9%, unemployment 4.1%, fed funds midpoint 4.38%."
	case "get_macro_news":
		return "Macro wires: FOMC minutes flagged patience on cuts, ISM services back above 50, dollar index easing off highs."
	default:
		return fmt.Sprintf("%s completed for %s.", tool, symbol)
	}
}

func simReportBody(tab domain.ReportTab, symbol string) string {
	switch tab {
	case domain.TabMarketAnalysis:
		return marketBody(symbol)
	case domain.TabSocialSentiment:
		return socialBody(symbol)
	case domain.TabNewsAnalysis:
		return newsBody(symbol)
	case domain.TabFundamentals:
		return fundamentalsBody(symbol)
	case domain.TabMacroAnalysis:
		return macroBody(symbol)
	default:
		return fmt.Sprintf("Report for %s on %s.", symbol, tab)
	}
}

func marketBody(symbol string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s Technical Picture\n\n", symbol)
	fmt.Fprintf(&b, "%s has spent the past three weeks consolidating above its rising 50-day SMA after a sharp run off the spring lows. ", symbol)
	b.WriteString("The tape is constructive: higher lows on declining volume, with accumulation days outnumbering distribution days two to one. ")
	b.WriteString("RSI(14) sits at 54, neither stretched nor washed out, and has held the 40-60 band through the entire consolidation. ")
	b.WriteString("MACD crossed back above its signal line this week on expanding histogram bars, the first positive cross since the pullback began. ")
	b.WriteString("Bollinger bands are the tightest they have been in four months, which historically precedes a directional expansion. ")
	b.WriteString("ATR has compressed from 5.1 to 3.9, so position sizing can be slightly larger for the same dollar risk. ")
	b.WriteString("VWMA confirms the move: volume-weighted price is tracking the simple averages rather than diverging below them.\n\n")
	b.WriteString("| Indicator | Reading | Bias |\n|---|---|---|\n")
	b.WriteString("| RSI(14) | 54.2 | neutral-positive |\n")
	b.WriteString("| MACD | +0.82 above signal | positive |\n")
	b.WriteString("| 50-SMA | 182.10, rising | positive |\n")
	b.WriteString("| 200-SMA | 168.44, rising | positive |\n")
	b.WriteString("| ATR(14) | 3.91, compressing | neutral |\n\n")
	fmt.Fprintf(&b, "The setup favours patient longs while %s holds the 50-day; a close below it with volume negates the structure.", symbol)
	return b.String()
}

func socialBody(symbol string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s Social Pulse\n\n", symbol)
	fmt.Fprintf(&b, "Retail discussion of %s picked up 22%% week over week across the tracked platforms, driven by the product-cycle chatter rather than earnings speculation. ", symbol)
	b.WriteString("Sentiment skews positive at 58% of scored posts, with the negative cohort mostly recycling the same valuation complaint rather than raising new issues. ")
	b.WriteString("The highest-engagement threads focus on unit economics and the upcoming launch window; notably, several large accounts that were bearish in the spring have flipped neutral. ")
	b.WriteString("Options-adjacent chatter leans toward call spreads into the next catalyst, which matches the modest skew in the posting data. ")
	b.WriteString("Nothing in the stream suggests coordinated promotion; the volume curve matches organic catalyst response.\n\n")
	b.WriteString("**Recommendation:** treat the positive skew as confirmation of the other desks' work rather than a standalone signal.")
	return b.String()
}

func newsBody(symbol string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s News Review\n\n", symbol)
	fmt.Fprintf(&b, "Eighteen articles touched %s this week. The two analyst actions were both constructive: one initiation at overweight and one target raise citing margin durability. ", symbol)
	b.WriteString("The product announcement landed better than the muted pre-coverage suggested, with follow-on pieces emphasising the enterprise attach rate rather than the consumer angle. ")
	b.WriteString("Sector coverage was mixed: two pieces flagged inventory normalisation across the group, one argued the correction is already priced in. ")
	b.WriteString("There were no litigation, regulatory, or executive-departure items in the window.\n\n")
	b.WriteString("## Summary\n\n")
	b.WriteString("The news flow is a mild tailwind, and the absence of negative surprise matters more than any single positive piece. ")
	b.WriteString("Watch the follow-through coverage on the launch; a second week of constructive enterprise commentary would confirm the thesis.")
	return b.String()
}

func fundamentalsBody(symbol string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s Fundamentals\n\n", symbol)
	fmt.Fprintf(&b, "%s delivered another quarter of double-digit revenue growth with margin expansion, a combination the market keeps underpricing. ", symbol)
	b.WriteString("Revenue grew 11.4% year over year against a comparable that included a one-time licensing benefit, so the organic rate is closer to 13%. ")
	b.WriteString("Gross margin expanded 110 basis points to 46.1% on mix shift toward the subscription line, which now carries 38% of revenue at materially higher contribution. ")
	b.WriteString("Operating leverage is real: opex grew 6% against the 11% top line, and management reiterated the hiring freeze outside the field organisation. ")
	b.WriteString("Free cash flow converted at 96% of net income, funding the buyback without touching the cash pile. ")
	b.WriteString("The balance sheet remains net cash; the only debt is pre-pandemic paper at coupons below current money-market yields. ")
	b.WriteString("Insider activity is unremarkable: scheduled plan sales plus one open-market director buy.\n\n")
	b.WriteString("| Metric | Latest Q | Prior Y |\n|---|---|---|\n")
	b.WriteString("| Revenue growth | +11.4% | +9.8% |\n")
	b.WriteString("| Gross margin | 46.1% | 45.0% |\n")
	b.WriteString("| Operating margin | 29.8% | 27.9% |\n")
	b.WriteString("| FCF conversion | 96% | 91% |\n\n")
	b.WriteString("Valuation sits a turn above the five-year median, which is defensible while the margin trajectory holds.")
	return b.String()
}

func macroBody(symbol string) string {
	var b strings.Builder
	b.WriteString("## Macro Backdrop\n\n")
	b.WriteString("The rate environment has stabilised into a range that equity multiples can live with: the 10-year treasury has held between 4.1% and 4.4% for six weeks, and the front end is fully pricing the next two policy meetings as holds. ")
	b.WriteString("Inflation progress continues but is no longer accelerating: headline CPI at 2.9% year over year, core services ex-shelter grinding lower at a pace the committee has called encouraging but insufficient. ")
	b.WriteString("The minutes released this week emphasised patience, and the market took the message calmly, with breakevens barely moving. ")
	b.WriteString("Growth data stays on the soft-landing path. Unemployment at 4.1% is off the lows but rising slowly enough to read as normalisation rather than deterioration; jobless claims remain in the range that has held all year. ")
	b.WriteString("ISM services recovered above 50 while manufacturing stays in its long shallow contraction, a mix that favours the software and services complex over cyclicals. ")
	b.WriteString("The dollar easing off its highs removes a translation headwind for multinational earnings in the back half.\n\n")
	b.WriteString("### Trading Implications\n\n")
	fmt.Fprintf(&b, "For %s specifically, the sensitivity that matters is the long end: the stock's multiple has tracked the 10-year inversely all year, so the stable range supports the current valuation while a break above 4.5%% would pressure it regardless of execution. ", symbol)
	b.WriteString("Positioning surveys show institutions underweight duration-sensitive growth relative to their five-year average, which leaves room for flows if the range holds. ")
	b.WriteString("The macro read is mildly supportive: no impulse strong enough to drive the trade on its own, and no visible cliff.")
	return b.String()
}

func bullArgument(symbol string, round int) string {
	if round == 1 {
		return fmt.Sprintf("The bull case on %s starts with margin trajectory: subscription mix is compounding gross margin a full point a year, and the market still models it flat. Technicals confirm accumulation above a rising 50-day. The setup is asymmetric into the launch catalyst.", symbol)
	}
	return fmt.Sprintf("On valuation: a turn above the five-year median is cheap for a business compounding margins with 96%% cash conversion. The bear's rate sensitivity cuts both ways, and the stable 10-year range plus underweight positioning is fuel for %s, not risk.", symbol)
}

func bearArgument(symbol string, round int) string {
	if round == 1 {
		return fmt.Sprintf("The bear case is that everything good about %s is known and priced. Organic growth is decelerating on a two-year stack, the launch is a consensus catalyst, and the inventory normalisation the sector pieces flagged has historically taken two more quarters than guidance admits.", symbol)
	}
	return fmt.Sprintf("The multiple argument fails if the 10-year breaks 4.5%%: %s trades inversely to the long end and the macro analyst conceded that sensitivity. Paying above-median multiples late in a consolidation is how longs end up owning air pockets.", symbol)
}

func debateDigest(symbol string) string {
	return fmt.Sprintf("Two rounds completed on %s. The bull leans on margin mix, cash conversion, and a constructive tape into a dated catalyst. The bear leans on priced-in expectations, decelerating organic growth, and rate sensitivity above 4.5%% on the 10-year. The unresolved crux is whether the subscription margin ramp is durable enough to outrun the multiple.", symbol)
}

func managerBody(symbol string) string {
	return fmt.Sprintf("## Research Manager Decision\n\nBoth sides argued from the same facts and split on durability. The bear's strongest point, rate sensitivity, is a condition to monitor rather than a thesis: it triggers only above 4.5%% on the 10-year and the range has held for six weeks. The bull's margin-mix argument survives the deceleration critique because the mix shift is contractual, not cyclical. I side with the bull with reduced conviction sizing. Recommendation for %s: accumulate on weakness, do not chase strength, and reassess immediately on a rate break.", symbol)
}

func traderBody(symbol string) string {
	return fmt.Sprintf("## Trade Plan for %s\n\nStructure: staged entry in thirds. First third at market, second on a retest of the 50-day (182 area), final third on a volume close above the consolidation high. Initial stop below 178: that level voids the technical structure and roughly aligns with 1.5 ATR. Target the prior high first, then trail. Size the full position at 4%% of book given compressed ATR; halve it if entering after a gap. Invalidation: a close below the 50-day on expanding volume, or the 10-year through 4.5%%.", symbol)
}

func riskyArgument(symbol string) string {
	return fmt.Sprintf("The plan is too timid. Compressed ATR and a tightening Bollinger squeeze argue for full size now, not thirds: the expansion usually resolves in the prevailing trend, and %s's trend is up. Waiting for retests in a squeeze means missing the move.", symbol)
}

func safeArgument(symbol string) string {
	return fmt.Sprintf("Full size into a consensus catalyst is how drawdowns happen. The launch is dated, the multiple is above median, and the bear's rate trigger is live. Take half the proposed size on %s and keep the stop tight; the squeeze can just as easily resolve down.", symbol)
}

func neutralArgument(symbol string) string {
	return fmt.Sprintf("Both stances overweight their favourite scenario. The staged-entry structure already prices the uncertainty: it gets longer only as the thesis confirms. Keep the thirds, keep the 4%% cap, and let the %s stop do the risk work.", symbol)
}

func riskDigest(symbol string) string {
	return fmt.Sprintf("Risk committee reviewed the %s plan. Aggressive wanted full size into the squeeze, conservative wanted half size against the consensus-catalyst risk, neutral backed the staged structure as already risk-balanced. The staged entry with a 4%% cap and the 178 stop carries the day.", symbol)
}

func finalBody(symbol string) string {
	signal := SignalFor(symbol)
	var decision, rationale string
	switch signal {
	case domain.SignalBuy:
		decision = "BUY"
		rationale = "The research side carried the debate and the risk structure is sound: staged entry, defined invalidation, conditional sizing. The margin-mix thesis plus a constructive tape justifies deploying capital."
	case domain.SignalSell:
		decision = "SELL"
		rationale = "The bear's priced-in argument held up under cross-examination and the reward left at this multiple does not cover the catalyst risk. Existing exposure should be reduced into strength."
	default:
		decision = "HOLD"
		rationale = "Neither side earned conviction sizing. The thesis is sound but the entry is not asymmetric at current levels; the plan activates on the pullback or the breakout, not in between."
	}
	return fmt.Sprintf("## Portfolio Manager Decision\n\n%s Monitoring conditions: the 50-day level, the 10-year above 4.5%%, and launch follow-through coverage. Position review is automatic on any invalidation trigger in the trade plan for %s.\n\nFINAL TRANSACTION PROPOSAL: **%s**", rationale, symbol, decision)
}
