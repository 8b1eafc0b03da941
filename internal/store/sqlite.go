package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"agentdeck/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ SessionStore = (*SQLiteStore)(nil)
var _ ReportStore = (*SQLiteStore)(nil)
var _ DebateStore = (*SQLiteStore)(nil)
var _ ToolCallStore = (*SQLiteStore)(nil)
var _ PromptStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	symbol      TEXT NOT NULL,
	state       TEXT NOT NULL,
	analysts    TEXT NOT NULL,
	agents      TEXT NOT NULL,
	llm_calls   INTEGER NOT NULL,
	tool_calls  INTEGER NOT NULL,
	reports     INTEGER NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_symbol ON sessions(symbol, started_at);

CREATE TABLE IF NOT EXISTS reports (
	session_id TEXT NOT NULL,
	symbol     TEXT NOT NULL,
	tab        TEXT NOT NULL,
	body       TEXT NOT NULL,
	status     TEXT NOT NULL,
	verdict    TEXT NOT NULL,
	signal     TEXT NOT NULL,
	error      TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, tab)
);
CREATE INDEX IF NOT EXISTS idx_reports_symbol ON reports(symbol, updated_at);

CREATE TABLE IF NOT EXISTS debate_messages (
	session_id TEXT NOT NULL,
	symbol     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	role       TEXT NOT NULL,
	body       TEXT NOT NULL,
	at         INTEGER NOT NULL,
	PRIMARY KEY (session_id, kind, seq)
);

CREATE TABLE IF NOT EXISTS tool_calls (
	session_id  TEXT NOT NULL,
	symbol      TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	agent       TEXT NOT NULL,
	tool        TEXT NOT NULL,
	inputs      TEXT NOT NULL,
	output      TEXT NOT NULL,
	status      TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	at          INTEGER NOT NULL,
	PRIMARY KEY (session_id, seq)
);

CREATE TABLE IF NOT EXISTS prompts (
	tab         TEXT NOT NULL,
	symbol      TEXT NOT NULL,
	body        TEXT NOT NULL,
	captured_at INTEGER NOT NULL,
	PRIMARY KEY (tab, symbol)
);
`

// SQLiteStore implements all store interfaces backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// modernc.org/sqlite serializes writes per connection; a single
	// connection avoids SQLITE_BUSY under concurrent session recorders.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// SessionStore implementation
// ---------------------------------------------------------------------------

// SaveSession inserts or replaces a session snapshot. Analyst selection and
// per-agent statuses are stored as JSON columns.
func (s *SQLiteStore) SaveSession(sess domain.Session) error {
	analysts, err := json.Marshal(sess.Analysts)
	if err != nil {
		return fmt.Errorf("encoding analysts: %w", err)
	}
	agents, err := json.Marshal(sess.Agents)
	if err != nil {
		return fmt.Errorf("encoding agents: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO sessions
			(id, symbol, state, analysts, agents, llm_calls, tool_calls, reports, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Symbol, string(sess.State), string(analysts), string(agents),
		sess.LLMCalls, sess.ToolCalls, sess.Reports,
		sess.StartedAt.UnixMilli(), sess.FinishedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("saving session %s: %w", sess.ID, err)
	}
	return nil
}

// GetSession retrieves a single session by its ID.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, state, analysts, agents, llm_calls, tool_calls, reports, started_at, finished_at
		FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return domain.Session{}, fmt.Errorf("session %s not found", id)
	}
	return sess, err
}

// ListSessions returns sessions for a symbol, newest first, up to limit. An
// empty symbol matches all symbols.
func (s *SQLiteStore) ListSessions(ctx context.Context, symbol string, limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, symbol, state, analysts, agents, llm_calls, tool_calls, reports, started_at, finished_at
		FROM sessions`
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (domain.Session, error) {
	var sess domain.Session
	var state, analysts, agents string
	var startedAt, finishedAt int64
	err := row.Scan(&sess.ID, &sess.Symbol, &state, &analysts, &agents,
		&sess.LLMCalls, &sess.ToolCalls, &sess.Reports, &startedAt, &finishedAt)
	if err != nil {
		return domain.Session{}, err
	}
	sess.State = domain.SessionState(state)
	if err := json.Unmarshal([]byte(analysts), &sess.Analysts); err != nil {
		return domain.Session{}, fmt.Errorf("decoding analysts: %w", err)
	}
	if err := json.Unmarshal([]byte(agents), &sess.Agents); err != nil {
		return domain.Session{}, fmt.Errorf("decoding agents: %w", err)
	}
	sess.StartedAt = time.UnixMilli(startedAt).UTC()
	sess.FinishedAt = time.UnixMilli(finishedAt).UTC()
	return sess, nil
}

// ---------------------------------------------------------------------------
// ReportStore implementation
// ---------------------------------------------------------------------------

// SaveReport inserts or replaces the report for (session, tab).
func (s *SQLiteStore) SaveReport(sessionID string, rep domain.Report) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO reports
			(session_id, symbol, tab, body, status, verdict, signal, error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, rep.Symbol, string(rep.Tab), rep.Body,
		string(rep.Status), string(rep.Verdict), string(rep.Signal), rep.Error,
		rep.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("saving report %s/%s: %w", sessionID, rep.Tab, err)
	}
	return nil
}

// ListSessionReports returns a session's reports in display-tab order.
func (s *SQLiteStore) ListSessionReports(ctx context.Context, sessionID string) ([]domain.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, tab, body, status, verdict, signal, error, updated_at
		FROM reports WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	byTab := make(map[domain.ReportTab]domain.Report)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		byTab[rep.Tab] = rep
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return inTabOrder(byTab), nil
}

// LatestReports returns the most recent report per tab for a symbol across
// all sessions.
func (s *SQLiteStore) LatestReports(ctx context.Context, symbol string) ([]domain.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, tab, body, status, verdict, signal, error, updated_at
		FROM reports WHERE symbol = ? ORDER BY updated_at ASC`, symbol)
	if err != nil {
		return nil, fmt.Errorf("listing latest reports: %w", err)
	}
	defer rows.Close()

	// Ascending scan: the last row seen per tab is the newest.
	byTab := make(map[domain.ReportTab]domain.Report)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		byTab[rep.Tab] = rep
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return inTabOrder(byTab), nil
}

func scanReport(rows *sql.Rows) (domain.Report, error) {
	var rep domain.Report
	var tab, status, verdict, signal string
	var updatedAt int64
	err := rows.Scan(&rep.Symbol, &tab, &rep.Body, &status, &verdict, &signal, &rep.Error, &updatedAt)
	if err != nil {
		return domain.Report{}, err
	}
	rep.Tab = domain.ReportTab(tab)
	rep.Status = domain.ReportStatus(status)
	rep.Verdict = domain.Verdict(verdict)
	rep.Signal = domain.SignalKind(signal)
	rep.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return rep, nil
}

func inTabOrder(byTab map[domain.ReportTab]domain.Report) []domain.Report {
	out := make([]domain.Report, 0, len(byTab))
	for _, tab := range domain.AllTabs() {
		if rep, ok := byTab[tab]; ok {
			out = append(out, rep)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// DebateStore implementation
// ---------------------------------------------------------------------------

// SaveDebate appends one transcript message.
func (s *SQLiteStore) SaveDebate(sessionID, symbol string, kind domain.DebateKind, msg domain.DebateMessage) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO debate_messages
			(session_id, symbol, kind, seq, role, body, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, symbol, string(kind), msg.Seq, string(msg.Role), msg.Text,
		msg.Time.UnixMilli())
	if err != nil {
		return fmt.Errorf("saving debate message %s/%s/%d: %w", sessionID, kind, msg.Seq, err)
	}
	return nil
}

// ListDebate returns a session's transcript in insertion order.
func (s *SQLiteStore) ListDebate(ctx context.Context, sessionID string, kind domain.DebateKind) ([]domain.DebateMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, role, body, at
		FROM debate_messages WHERE session_id = ? AND kind = ? ORDER BY seq ASC`,
		sessionID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing debate: %w", err)
	}
	defer rows.Close()

	var out []domain.DebateMessage
	for rows.Next() {
		var msg domain.DebateMessage
		var role string
		var at int64
		if err := rows.Scan(&msg.Seq, &role, &msg.Text, &at); err != nil {
			return nil, err
		}
		msg.Role = domain.DebateRole(role)
		msg.Time = time.UnixMilli(at).UTC()
		out = append(out, msg)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// ToolCallStore implementation
// ---------------------------------------------------------------------------

// SaveToolCall appends one tool call record.
func (s *SQLiteStore) SaveToolCall(sessionID string, tc domain.ToolCall) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO tool_calls
			(session_id, symbol, seq, agent, tool, inputs, output, status, duration_ms, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, tc.Symbol, tc.Seq, tc.Agent, tc.Tool, tc.Inputs, tc.Output,
		string(tc.Status), tc.Duration.Milliseconds(), tc.Time.UnixMilli())
	if err != nil {
		return fmt.Errorf("saving tool call %s/%d: %w", sessionID, tc.Seq, err)
	}
	return nil
}

// ListToolCalls returns a session's tool calls in sequence order.
func (s *SQLiteStore) ListToolCalls(ctx context.Context, sessionID string) ([]domain.ToolCall, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, seq, agent, tool, inputs, output, status, duration_ms, at
		FROM tool_calls WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing tool calls: %w", err)
	}
	defer rows.Close()

	var out []domain.ToolCall
	for rows.Next() {
		var tc domain.ToolCall
		var status string
		var durationMS, at int64
		if err := rows.Scan(&tc.Symbol, &tc.Seq, &tc.Agent, &tc.Tool,
			&tc.Inputs, &tc.Output, &status, &durationMS, &at); err != nil {
			return nil, err
		}
		tc.Status = domain.ToolStatus(status)
		tc.Duration = time.Duration(durationMS) * time.Millisecond
		tc.Time = time.UnixMilli(at).UTC()
		out = append(out, tc)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// PromptStore implementation
// ---------------------------------------------------------------------------

// SavePrompt inserts or replaces the prompt for (tab, symbol).
func (s *SQLiteStore) SavePrompt(rec domain.PromptRecord) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO prompts (tab, symbol, body, captured_at)
		VALUES (?, ?, ?, ?)`,
		string(rec.Tab), rec.Symbol, rec.Text, rec.CapturedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("saving prompt %s/%s: %w", rec.Tab, rec.Symbol, err)
	}
	return nil
}

// ListPrompts returns every captured prompt ordered by tab then symbol.
func (s *SQLiteStore) ListPrompts(ctx context.Context) ([]domain.PromptRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tab, symbol, body, captured_at FROM prompts ORDER BY tab, symbol`)
	if err != nil {
		return nil, fmt.Errorf("listing prompts: %w", err)
	}
	defer rows.Close()

	var out []domain.PromptRecord
	for rows.Next() {
		var rec domain.PromptRecord
		var tab string
		var capturedAt int64
		if err := rows.Scan(&tab, &rec.Symbol, &rec.Text, &capturedAt); err != nil {
			return nil, err
		}
		rec.Tab = domain.ReportTab(tab)
		rec.CapturedAt = time.UnixMilli(capturedAt).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
