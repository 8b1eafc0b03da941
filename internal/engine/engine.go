// Package engine coordinates analysis sessions: launching runs per symbol,
// tracking their lifecycle on the board, persisting what they produce, and
// scheduling re-runs for loop and market-hours modes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"agentdeck/internal/board"
	"agentdeck/internal/domain"
	"agentdeck/internal/util"
)

// ErrAlreadyRunning is returned by Start when a session batch is active.
var ErrAlreadyRunning = errors.New("engine: session batch already running")

// Mode selects how session batches are scheduled.
type Mode string

const (
	ModeSingle      Mode = "single"
	ModeLoop        Mode = "loop"
	ModeMarketHours Mode = "market_hours"
)

// ParseMode maps a configuration string onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSingle, ModeLoop, ModeMarketHours:
		return Mode(s), nil
	case "":
		return ModeSingle, nil
	}
	return "", fmt.Errorf("engine: unknown mode %q", s)
}

// stopCheckInterval is how often waiting loops re-examine market state and
// stop requests.
const stopCheckInterval = 30 * time.Second

// Runner produces the analysis content for one session, reporting progress
// through the Recorder.
type Runner interface {
	Run(ctx context.Context, rec *Recorder) error
}

// Store persists session output. Implementations must tolerate concurrent
// calls; a nil Store disables persistence.
type Store interface {
	SaveSession(sess domain.Session) error
	SaveReport(sessionID string, rep domain.Report) error
	SaveDebate(sessionID, symbol string, kind domain.DebateKind, msg domain.DebateMessage) error
	SaveToolCall(sessionID string, tc domain.ToolCall) error
	SavePrompt(rec domain.PromptRecord) error
}

// PromptSink receives the system prompts captured while a session runs.
type PromptSink interface {
	Set(tab domain.ReportTab, symbol, text string)
}

// Engine launches and supervises analysis sessions.
type Engine struct {
	board   *board.Model
	runner  Runner
	store   Store
	prompts PromptSink
	cal     *util.TradingCalendar
	log     *slog.Logger

	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	done        chan struct{}
	marketHours []int
}

// NewEngine creates an Engine wired with the given dependencies. store and
// prompts may be nil.
func NewEngine(b *board.Model, runner Runner, store Store, prompts PromptSink, cal *util.TradingCalendar, log *slog.Logger) *Engine {
	return &Engine{
		board:   b,
		runner:  runner,
		store:   store,
		prompts: prompts,
		cal:     cal,
		log:     log,
	}
}

// SetMarketHours configures the ET hours at which market-hours mode
// launches batches. Values outside the regular session are dropped; an
// empty result keeps the open-only default.
func (e *Engine) SetMarketHours(hours []int) {
	e.mu.Lock()
	e.marketHours = util.ValidateHours(hours)
	e.mu.Unlock()
}

// Running reports whether a session batch is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Done returns a channel closed when the current batch finishes. It returns
// a closed channel when nothing is running.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return e.done
}

// Start launches a session batch over the given symbols in the given mode.
// Starting while a batch is running returns ErrAlreadyRunning; the active
// batch is unaffected.
func (e *Engine) Start(ctx context.Context, symbols []string, mode Mode, interval time.Duration) error {
	if len(symbols) == 0 {
		return errors.New("engine: no symbols to analyse")
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.running = true
	e.cancel = cancel
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	e.log.Info("starting session batch", "symbols", symbols, "mode", mode)

	go func() {
		defer func() {
			cancel()
			e.mu.Lock()
			e.running = false
			e.cancel = nil
			e.mu.Unlock()
			close(done)
		}()

		switch mode {
		case ModeLoop:
			e.runLoop(runCtx, symbols, interval)
		case ModeMarketHours:
			e.runMarketHours(runCtx, symbols)
		default:
			e.runBatch(runCtx, symbols)
		}
	}()
	return nil
}

// Stop requests cancellation of the active batch. It returns false when
// nothing was running. Stopping twice is harmless.
func (e *Engine) Stop() bool {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// runLoop runs the batch, waits out the interval, and repeats until
// cancelled.
func (e *Engine) runLoop(ctx context.Context, symbols []string, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	for {
		e.runBatch(ctx, symbols)
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// marketCronSpecs renders the weekday cron schedule for the configured
// run hours. Hour 9 fires at the 9:30 session open; later hours fire on
// the hour. An empty list schedules the open only.
func marketCronSpecs(hours []int) []string {
	hours = util.ValidateHours(hours)
	if len(hours) == 0 {
		hours = []int{9}
	}
	specs := make([]string, len(hours))
	for i, h := range hours {
		minute := 0
		if h == 9 {
			minute = 30
		}
		specs[i] = fmt.Sprintf("%d %d * * MON-FRI", minute, h)
	}
	return specs
}

// runMarketHours runs a batch at each configured hour on trading days.
// When started mid-session the first batch runs immediately. A batch in
// flight is cancelled once the market closes.
func (e *Engine) runMarketHours(ctx context.Context, symbols []string) {
	e.mu.Lock()
	hours := e.marketHours
	e.mu.Unlock()

	c := cron.New(cron.WithLocation(e.cal.Location()))
	for _, spec := range marketCronSpecs(hours) {
		if _, err := c.AddFunc(spec, func() {
			if e.cal.IsMarketOpen(time.Now()) {
				e.runSessionBatch(ctx, symbols)
			}
		}); err != nil {
			e.log.Error("registering market-hours schedule", "spec", spec, "error", err)
			return
		}
	}
	c.Start()
	defer c.Stop()

	display := hours
	if len(display) == 0 {
		display = []int{9}
	}
	e.log.Info("market-hours schedule active", "hours", util.FormatHoursInfo(display))

	if e.cal.IsMarketOpen(time.Now()) {
		e.runSessionBatch(ctx, symbols)
	} else {
		e.log.Info("market closed, waiting for next open", "next_open", e.cal.NextOpen(time.Now()))
	}

	ticker := time.NewTicker(stopCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runSessionBatch wraps runBatch with a watchdog that cancels it when the
// market closes.
func (e *Engine) runSessionBatch(ctx context.Context, symbols []string) {
	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		ticker := time.NewTicker(stopCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-batchCtx.Done():
				return
			case <-ticker.C:
				if !e.cal.IsMarketOpen(time.Now()) {
					e.log.Info("market closed, cancelling batch")
					cancel()
					return
				}
			}
		}
	}()

	e.runBatch(batchCtx, symbols)
}

// runBatch runs one session per symbol, in order, stopping early on
// cancellation.
func (e *Engine) runBatch(ctx context.Context, symbols []string) {
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return
		}
		e.runSession(ctx, symbol)
	}
}

// runSession executes one analysis session and records its outcome.
func (e *Engine) runSession(ctx context.Context, symbol string) {
	sess := domain.Session{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		State:     domain.SessionRunning,
		Analysts:  e.board.Analysts(),
		StartedAt: time.Now().UTC(),
	}
	e.board.ResetAgents(sess.Analysts)
	e.board.SetSession(sess)
	e.log.Info("session started", "session", sess.ID, "symbol", symbol)

	rec := &Recorder{engine: e, sess: sess}
	err := e.runner.Run(ctx, rec)

	final := rec.Session()
	switch {
	case err == nil:
		final.State = domain.SessionCompleted
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		final.State = domain.SessionStopped
	default:
		final.State = domain.SessionFailed
		e.log.Error("session failed", "session", final.ID, "symbol", symbol, "error", err)
	}
	final.FinishedAt = time.Now().UTC()
	final.Agents = e.board.AgentStatuses()

	e.board.SetSession(final)
	if e.store != nil {
		if err := e.store.SaveSession(final); err != nil {
			e.log.Error("persisting session", "session", final.ID, "error", err)
		}
	}
	e.log.Info("session finished", "session", final.ID, "symbol", symbol,
		"state", final.State, "reports", final.Reports, "llm_calls", final.LLMCalls)
}
