// Package store persists analysis output: sessions, reports, debate
// transcripts, tool calls, and captured prompts in SQLite, with finished
// material archived to Parquet files for history reads.
package store

import (
	"context"

	"agentdeck/internal/domain"
)

// SessionStore persists and retrieves analysis sessions. Writes carry no
// context because they happen inside the session goroutine's lifecycle;
// reads serve API requests and are cancellable.
type SessionStore interface {
	// SaveSession inserts or replaces a session snapshot.
	SaveSession(sess domain.Session) error

	// GetSession retrieves a single session by its ID.
	GetSession(ctx context.Context, id string) (domain.Session, error)

	// ListSessions returns sessions for a symbol, newest first, up to
	// limit. An empty symbol matches all symbols.
	ListSessions(ctx context.Context, symbol string, limit int) ([]domain.Session, error)
}

// ReportStore persists and retrieves report panels.
type ReportStore interface {
	// SaveReport inserts or replaces the report for (session, tab).
	SaveReport(sessionID string, rep domain.Report) error

	// ListSessionReports returns a session's reports in display-tab order.
	ListSessionReports(ctx context.Context, sessionID string) ([]domain.Report, error)

	// LatestReports returns the most recent report per tab for a symbol.
	LatestReports(ctx context.Context, symbol string) ([]domain.Report, error)
}

// DebateStore persists and retrieves debate transcripts.
type DebateStore interface {
	// SaveDebate appends one transcript message.
	SaveDebate(sessionID, symbol string, kind domain.DebateKind, msg domain.DebateMessage) error

	// ListDebate returns a session's transcript in insertion order.
	ListDebate(ctx context.Context, sessionID string, kind domain.DebateKind) ([]domain.DebateMessage, error)
}

// ToolCallStore persists and retrieves tool invocation logs.
type ToolCallStore interface {
	// SaveToolCall appends one tool call record.
	SaveToolCall(sessionID string, tc domain.ToolCall) error

	// ListToolCalls returns a session's tool calls in sequence order.
	ListToolCalls(ctx context.Context, sessionID string) ([]domain.ToolCall, error)
}

// PromptStore persists captured system prompts.
type PromptStore interface {
	// SavePrompt inserts or replaces the prompt for (tab, symbol).
	SavePrompt(rec domain.PromptRecord) error

	// ListPrompts returns every captured prompt.
	ListPrompts(ctx context.Context) ([]domain.PromptRecord, error)
}
