// Package prompts provides an in-memory store for captured agent system
// prompts with JSON persistence and pub/sub for live push. Each record is
// keyed by (tab, symbol); tabs fall back to a built-in default prompt until
// a capture arrives.
package prompts

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"agentdeck/internal/domain"
)

// Event is the wire format for prompt-store notifications.
type Event struct {
	Type   string                                 `json:"type"`             // "snapshot", "set", "delete"
	Tab    domain.ReportTab                       `json:"tab,omitempty"`    // set/delete only
	Symbol string                                 `json:"symbol,omitempty"` // set/delete only
	Text   string                                 `json:"text,omitempty"`   // set only
	Data   map[domain.ReportTab]map[string]string `json:"data,omitempty"`   // snapshot only
}

// Store holds captured prompts in memory with JSON persistence and pub/sub.
type Store struct {
	mu       sync.RWMutex
	records  map[domain.ReportTab]map[string]record // tab -> symbol -> record
	filePath string
	log      *slog.Logger

	subsMu    sync.Mutex
	nextSubID int
	subs      map[int]chan Event
}

type record struct {
	Text       string    `json:"text"`
	CapturedAt time.Time `json:"captured_at"`
}

// NewStore creates a Store, loading persisted state from filePath.
func NewStore(filePath string, log *slog.Logger) *Store {
	s := &Store{
		records:  make(map[domain.ReportTab]map[string]record),
		filePath: filePath,
		log:      log,
		subs:     make(map[int]chan Event),
	}
	s.load()
	return s
}

// Get returns the prompt for one (tab, symbol). When nothing has been
// captured the tab's default prompt is returned with a zero CapturedAt.
func (s *Store) Get(tab domain.ReportTab, symbol string) domain.PromptRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.records[tab]; ok {
		if r, ok := m[symbol]; ok {
			return domain.PromptRecord{Tab: tab, Symbol: symbol, Text: r.Text, CapturedAt: r.CapturedAt}
		}
	}
	return domain.PromptRecord{Tab: tab, Symbol: symbol, Text: DefaultPrompt(tab, symbol)}
}

// Snapshot returns a deep copy of all captured prompt texts.
func (s *Store) Snapshot() map[domain.ReportTab]map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.ReportTab]map[string]string, len(s.records))
	for tab, m := range s.records {
		inner := make(map[string]string, len(m))
		for sym, r := range m {
			inner[sym] = r.Text
		}
		out[tab] = inner
	}
	return out
}

// Set stores a captured prompt, persists to disk, and broadcasts.
func (s *Store) Set(tab domain.ReportTab, symbol, text string) {
	now := time.Now().UTC()
	s.mu.Lock()
	if s.records[tab] == nil {
		s.records[tab] = make(map[string]record)
	}
	s.records[tab][symbol] = record{Text: text, CapturedAt: now}
	s.flush()
	s.mu.Unlock()

	s.broadcast(Event{Type: "set", Tab: tab, Symbol: symbol, Text: text})
}

// Delete removes a captured prompt, persists to disk, and broadcasts. The
// tab reverts to its default prompt.
func (s *Store) Delete(tab domain.ReportTab, symbol string) {
	s.mu.Lock()
	if m, ok := s.records[tab]; ok {
		delete(m, symbol)
		if len(m) == 0 {
			delete(s.records, tab)
		}
	}
	s.flush()
	s.mu.Unlock()

	s.broadcast(Event{Type: "delete", Tab: tab, Symbol: symbol})
}

// Subscribe returns a channel that receives events. bufSize controls the
// channel buffer; slow consumers will have events dropped.
func (s *Store) Subscribe(bufSize int) (int, <-chan Event) {
	ch := make(chan Event, bufSize)
	s.subsMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch
	s.subsMu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *Store) Unsubscribe(id int) {
	s.subsMu.Lock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
	s.subsMu.Unlock()
}

// broadcast sends an event to all subscribers non-blocking (drop on full).
func (s *Store) broadcast(e Event) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
			// Slow consumer, drop the event.
		}
	}
}

// load reads the JSON file into memory.
func (s *Store) load() {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return // no file yet, start empty
	}
	var loaded map[domain.ReportTab]map[string]record
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.log.Warn("loading prompts file", "error", err)
		return
	}
	s.records = loaded
	s.log.Info("loaded captured prompts", "tabs", len(loaded))
}

// flush writes the in-memory state to disk. Must be called with mu held.
func (s *Store) flush() {
	data, err := json.Marshal(s.records)
	if err != nil {
		s.log.Error("marshalling prompts", "error", err)
		return
	}
	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		s.log.Error("writing prompts file", "error", err)
	}
}

// ---------------------------------------------------------------------------
// Default prompts
// ---------------------------------------------------------------------------

var defaultPrompts = map[domain.ReportTab]string{
	domain.TabMarketAnalysis:   "You are the Market Analyst for {symbol}. Examine price action and technical indicators (moving averages, MACD, RSI, Bollinger bands, ATR, volume) and write a structured report ending with a markdown summary table.",
	domain.TabSocialSentiment:  "You are the Social Analyst for {symbol}. Summarise retail sentiment, posting volume, and notable threads from social platforms over the last week.",
	domain.TabNewsAnalysis:     "You are the News Analyst for {symbol}. Review company and sector headlines from the last week and assess their likely price impact.",
	domain.TabFundamentals:     "You are the Fundamentals Analyst for {symbol}. Review financial statements, earnings trends, insider activity, and valuation, ending with a markdown metrics table.",
	domain.TabMacroAnalysis:    "You are the Macro Analyst. Assess the rate, inflation, and growth backdrop relevant to {symbol} using current treasury yields, CPI prints, and employment data.",
	domain.TabResearcherDebate: "You argue one side of the bull versus bear debate on {symbol}. Engage the opposing researcher's latest points directly and cite the analyst reports.",
	domain.TabResearchManager:  "You are the Research Manager. Weigh the bull and bear cases for {symbol} and commit to a recommendation with explicit reasoning.",
	domain.TabTraderPlan:       "You are the Trader. Turn the research conclusion on {symbol} into an actionable plan: sizing, entry, exit, and invalidation levels.",
	domain.TabRiskDebate:       "You argue one risk stance (aggressive, conservative, or neutral) on the proposed {symbol} trade. Challenge the other stances' latest arguments.",
	domain.TabFinalDecision:    "You are the Portfolio Manager. Review the full debate on {symbol} and issue the binding decision, ending with FINAL TRANSACTION PROPOSAL: **BUY/HOLD/SELL**.",
}

// DefaultPrompt returns the built-in prompt for a tab with the symbol
// substituted in.
func DefaultPrompt(tab domain.ReportTab, symbol string) string {
	text, ok := defaultPrompts[tab]
	if !ok {
		return ""
	}
	return strings.ReplaceAll(text, "{symbol}", symbol)
}
