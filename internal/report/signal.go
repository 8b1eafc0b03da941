package report

import (
	"regexp"
	"strings"

	"agentdeck/internal/domain"
)

// Two proposal forms exist: the directional wording preferred by newer
// prompt templates and the plain action wording from older ones. The
// directional form is searched across the whole text first, so a report
// quoting an earlier "HOLD" proposal still resolves to its own
// "FINAL TRANSACTION PROPOSAL: **LONG**".
var (
	directionalProposalRe = regexp.MustCompile(`(?i)FINAL TRANSACTION PROPOSAL:\s*\*{0,2}(LONG|SHORT|NEUTRAL)\*{0,2}`)
	actionProposalRe      = regexp.MustCompile(`(?i)FINAL TRANSACTION PROPOSAL:\s*\*{0,2}(BUY|SELL|HOLD)\*{0,2}`)
)

// tailChars bounds the keyword fallback scan to the end of the text, where
// a decision summary lands.
const tailChars = 100

// keywordOrder fixes the fallback precedence: directional terms are checked
// before plain actions so "go LONG rather than just buy" reads as a buy.
var keywordOrder = []struct {
	word string
	kind domain.SignalKind
}{
	{"LONG", domain.SignalBuy},
	{"SHORT", domain.SignalSell},
	{"NEUTRAL", domain.SignalHold},
	{"BUY", domain.SignalBuy},
	{"SELL", domain.SignalSell},
	{"HOLD", domain.SignalHold},
}

// ExtractSignal derives the trading signal from final-decision text. The
// structured proposal line wins; otherwise the tail of the text is scanned
// for decision keywords. The second return is false when no signal can be
// derived, in which case the caller should treat the decision as hold.
func ExtractSignal(text string) (domain.SignalKind, bool) {
	if m := directionalProposalRe.FindStringSubmatch(text); m != nil {
		return wordToSignal(m[1]), true
	}
	if m := actionProposalRe.FindStringSubmatch(text); m != nil {
		return wordToSignal(m[1]), true
	}

	runes := []rune(strings.ToUpper(text))
	if len(runes) > tailChars {
		runes = runes[len(runes)-tailChars:]
	}
	tail := string(runes)
	for _, k := range keywordOrder {
		if strings.Contains(tail, k.word) {
			return k.kind, true
		}
	}
	return "", false
}

func wordToSignal(word string) domain.SignalKind {
	switch strings.ToUpper(word) {
	case "LONG", "BUY":
		return domain.SignalBuy
	case "SHORT", "SELL":
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}
