package engine

import (
	"sync"
	"time"

	"agentdeck/internal/domain"
	"agentdeck/internal/report"
)

// Recorder is the write path a Runner uses while a session executes. Every
// method updates the board, bumps the session counters, and persists when a
// store is configured. Completeness verdicts and trading signals are fixed
// here, at production time.
type Recorder struct {
	engine *Engine

	mu   sync.Mutex
	sess domain.Session
}

// Session returns a copy of the session with current counters.
func (r *Recorder) Session() domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sess
}

func (r *Recorder) updateSession(mutate func(*domain.Session)) domain.Session {
	r.mu.Lock()
	mutate(&r.sess)
	sess := r.sess
	r.mu.Unlock()
	r.engine.board.SetSession(sess)
	return sess
}

// SetAgent updates one agent's status badge.
func (r *Recorder) SetAgent(agent string, status domain.ReportStatus) {
	r.engine.board.SetAgentStatus(agent, status)
}

// CountLLMCall bumps the session's LLM call counter.
func (r *Recorder) CountLLMCall() {
	r.updateSession(func(s *domain.Session) { s.LLMCalls++ })
}

// CapturePrompt records the system prompt in effect for a tab.
func (r *Recorder) CapturePrompt(tab domain.ReportTab, text string) {
	sess := r.Session()
	if r.engine.prompts != nil {
		r.engine.prompts.Set(tab, sess.Symbol, text)
	}
	if r.engine.store != nil {
		rec := domain.PromptRecord{Tab: tab, Symbol: sess.Symbol, Text: text, CapturedAt: time.Now().UTC()}
		if err := r.engine.store.SavePrompt(rec); err != nil {
			r.engine.log.Error("persisting prompt", "tab", tab, "error", err)
		}
	}
}

// StartReport marks a panel in progress and its agent working.
func (r *Recorder) StartReport(tab domain.ReportTab, agent string) {
	sess := r.Session()
	r.SetAgent(agent, domain.StatusInProgress)
	r.engine.board.SetReport(domain.Report{
		Symbol:    sess.Symbol,
		Tab:       tab,
		Status:    domain.StatusInProgress,
		Verdict:   domain.VerdictMissing,
		UpdatedAt: time.Now().UTC(),
	})
}

// StreamReport publishes a partial body while the agent is still writing.
func (r *Recorder) StreamReport(tab domain.ReportTab, partial string) {
	sess := r.Session()
	r.engine.board.SetReport(domain.Report{
		Symbol:    sess.Symbol,
		Tab:       tab,
		Body:      partial,
		Status:    domain.StatusInProgress,
		Verdict:   domain.VerdictIncomplete,
		UpdatedAt: time.Now().UTC(),
	})
}

// CompleteReport finalises a panel: the completeness verdict is evaluated
// once, and final-decision reports get their signal extracted and attached.
// Display layers only ever read these stored results.
func (r *Recorder) CompleteReport(tab domain.ReportTab, agent, body string) domain.Report {
	sess := r.updateSession(func(s *domain.Session) { s.Reports++ })

	rep := domain.Report{
		Symbol:    sess.Symbol,
		Tab:       tab,
		Body:      body,
		Status:    domain.StatusCompleted,
		Verdict:   report.Evaluate(tab, body),
		UpdatedAt: time.Now().UTC(),
	}
	if tab == domain.TabFinalDecision {
		if kind, ok := report.ExtractSignal(body); ok {
			rep.Signal = kind
		} else {
			rep.Signal = domain.SignalHold
		}
	}

	r.SetAgent(agent, domain.StatusCompleted)
	r.engine.board.SetReport(rep)
	if r.engine.store != nil {
		if err := r.engine.store.SaveReport(sess.ID, rep); err != nil {
			r.engine.log.Error("persisting report", "tab", tab, "error", err)
		}
	}
	return rep
}

// FailReport marks a panel and its agent as failed.
func (r *Recorder) FailReport(tab domain.ReportTab, agent string, failure error) {
	sess := r.Session()
	r.SetAgent(agent, domain.StatusError)
	rep := domain.Report{
		Symbol:    sess.Symbol,
		Tab:       tab,
		Status:    domain.StatusError,
		Verdict:   domain.VerdictIncomplete,
		Error:     failure.Error(),
		UpdatedAt: time.Now().UTC(),
	}
	r.engine.board.SetReport(rep)
	if r.engine.store != nil {
		if err := r.engine.store.SaveReport(sess.ID, rep); err != nil {
			r.engine.log.Error("persisting failed report", "tab", tab, "error", err)
		}
	}
}

// Debate appends one argument to a transcript.
func (r *Recorder) Debate(kind domain.DebateKind, role domain.DebateRole, text string) {
	sess := r.Session()
	msg, ok := r.engine.board.AppendDebate(sess.Symbol, kind, role, text, time.Now().UTC())
	if !ok {
		r.engine.log.Warn("debate message rejected", "kind", kind, "role", role)
		return
	}
	if r.engine.store != nil {
		if err := r.engine.store.SaveDebate(sess.ID, sess.Symbol, kind, msg); err != nil {
			r.engine.log.Error("persisting debate message", "error", err)
		}
	}
}

// ToolCall records one tool invocation.
func (r *Recorder) ToolCall(agent, tool, inputs, output string, status domain.ToolStatus, dur time.Duration) {
	sess := r.updateSession(func(s *domain.Session) { s.ToolCalls++ })

	tc := r.engine.board.AppendToolCall(domain.ToolCall{
		Symbol:   sess.Symbol,
		Agent:    agent,
		Tool:     tool,
		Inputs:   inputs,
		Output:   output,
		Status:   status,
		Duration: dur,
		Time:     time.Now().UTC(),
	})
	if r.engine.store != nil {
		if err := r.engine.store.SaveToolCall(sess.ID, tc); err != nil {
			r.engine.log.Error("persisting tool call", "tool", tool, "error", err)
		}
	}
}
