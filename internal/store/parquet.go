package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"agentdeck/internal/domain"
)

// ParquetArchive writes finished session output and news snapshots to
// Parquet files on disk. Rewrites merge with existing rows so re-archiving
// a session is idempotent.
type ParquetArchive struct {
	DataDir string
}

// NewParquetArchive creates a ParquetArchive rooted at the given data
// directory.
func NewParquetArchive(dataDir string) *ParquetArchive {
	return &ParquetArchive{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// ReportRecord is the Parquet schema for archived report panels.
type ReportRecord struct {
	SessionID string `parquet:"session_id"`
	Symbol    string `parquet:"symbol"`
	Tab       string `parquet:"tab"`
	Body      string `parquet:"body"`
	Status    string `parquet:"status"`
	Verdict   string `parquet:"verdict"`
	Signal    string `parquet:"signal"`
	Error     string `parquet:"error"`
	UpdatedAt int64  `parquet:"updated_at,timestamp(millisecond)"` // Unix ms
}

// ToolCallRecord is the Parquet schema for archived tool invocations.
type ToolCallRecord struct {
	SessionID  string `parquet:"session_id"`
	Symbol     string `parquet:"symbol"`
	Seq        int64  `parquet:"seq"`
	Agent      string `parquet:"agent"`
	Tool       string `parquet:"tool"`
	Inputs     string `parquet:"inputs"`
	Output     string `parquet:"output"`
	Status     string `parquet:"status"`
	DurationMS int64  `parquet:"duration_ms"`
	At         int64  `parquet:"at,timestamp(millisecond)"` // Unix ms
}

// NewsRecord is the Parquet schema for archived news snapshots.
type NewsRecord struct {
	Symbol    string `parquet:"symbol"`
	Source    string `parquet:"source"`
	Headline  string `parquet:"headline"`
	Content   string `parquet:"content"`
	Published int64  `parquet:"published,timestamp(millisecond)"` // Unix ms
}

// NewsItem is a source-agnostic article handed to ArchiveNews. The news
// package converts its own article type to this at the call site.
type NewsItem struct {
	Time     time.Time
	Source   string
	Headline string
	Content  string
}

// ---------------------------------------------------------------------------
// Archiving
// ---------------------------------------------------------------------------

// ArchiveReports writes a session's reports under the symbol's report
// directory, one file per session date, merged with whatever is already
// there.
func (a *ParquetArchive) ArchiveReports(sessionID string, date time.Time, reports []domain.Report) error {
	if len(reports) == 0 {
		return nil
	}
	records := make([]ReportRecord, 0, len(reports))
	for _, rep := range reports {
		records = append(records, ReportRecord{
			SessionID: sessionID,
			Symbol:    rep.Symbol,
			Tab:       string(rep.Tab),
			Body:      rep.Body,
			Status:    string(rep.Status),
			Verdict:   string(rep.Verdict),
			Signal:    string(rep.Signal),
			Error:     rep.Error,
			UpdatedAt: rep.UpdatedAt.UnixMilli(),
		})
	}

	path := a.reportPath(records[0].Symbol, date)
	existing, _ := readParquetFile[ReportRecord](path)
	merged := mergeReportRecords(existing, records)
	if err := writeParquetFile(path, merged); err != nil {
		return fmt.Errorf("archiving reports for %s: %w", sessionID, err)
	}
	return nil
}

// ArchiveToolCalls writes a session's tool calls under the symbol's
// toolcall directory, one file per session date.
func (a *ParquetArchive) ArchiveToolCalls(sessionID string, date time.Time, calls []domain.ToolCall) error {
	if len(calls) == 0 {
		return nil
	}
	records := make([]ToolCallRecord, 0, len(calls))
	for _, tc := range calls {
		records = append(records, ToolCallRecord{
			SessionID:  sessionID,
			Symbol:     tc.Symbol,
			Seq:        int64(tc.Seq),
			Agent:      tc.Agent,
			Tool:       tc.Tool,
			Inputs:     tc.Inputs,
			Output:     tc.Output,
			Status:     string(tc.Status),
			DurationMS: tc.Duration.Milliseconds(),
			At:         tc.Time.UnixMilli(),
		})
	}

	path := a.toolCallPath(records[0].Symbol, date)
	existing, _ := readParquetFile[ToolCallRecord](path)
	merged := mergeToolCallRecords(existing, records)
	if err := writeParquetFile(path, merged); err != nil {
		return fmt.Errorf("archiving tool calls for %s: %w", sessionID, err)
	}
	return nil
}

// ArchiveNews writes a day's fetched articles for a symbol, merged with any
// earlier snapshot for the same day.
func (a *ParquetArchive) ArchiveNews(symbol string, date time.Time, items []NewsItem) error {
	if len(items) == 0 {
		return nil
	}
	records := make([]NewsRecord, 0, len(items))
	for _, it := range items {
		records = append(records, NewsRecord{
			Symbol:    strings.ToUpper(symbol),
			Source:    it.Source,
			Headline:  it.Headline,
			Content:   it.Content,
			Published: it.Time.UnixMilli(),
		})
	}

	path := a.newsPath(symbol, date)
	existing, _ := readParquetFile[NewsRecord](path)
	merged := mergeNewsRecords(existing, records)
	if err := writeParquetFile(path, merged); err != nil {
		return fmt.Errorf("archiving news for %s: %w", symbol, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// History reads
// ---------------------------------------------------------------------------

// ReadReports reads archived reports for a symbol across a date range,
// sorted by update time.
func (a *ParquetArchive) ReadReports(symbol string, start, end time.Time) ([]domain.Report, error) {
	var out []domain.Report
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		records, err := readParquetFile[ReportRecord](a.reportPath(symbol, d))
		if err != nil {
			continue
		}
		for _, r := range records {
			out = append(out, domain.Report{
				Symbol:    r.Symbol,
				Tab:       domain.ReportTab(r.Tab),
				Body:      r.Body,
				Status:    domain.ReportStatus(r.Status),
				Verdict:   domain.Verdict(r.Verdict),
				Signal:    domain.SignalKind(r.Signal),
				Error:     r.Error,
				UpdatedAt: time.UnixMilli(r.UpdatedAt).UTC(),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

// ReadNews reads the archived news snapshot for a symbol and day.
func (a *ParquetArchive) ReadNews(symbol string, date time.Time) ([]NewsItem, error) {
	records, err := readParquetFile[NewsRecord](a.newsPath(symbol, date))
	if err != nil {
		return nil, err
	}
	out := make([]NewsItem, 0, len(records))
	for _, r := range records {
		out = append(out, NewsItem{
			Time:     time.UnixMilli(r.Published).UTC(),
			Source:   r.Source,
			Headline: r.Headline,
			Content:  r.Content,
		})
	}
	return out, nil
}

// ListArchivedSymbols lists every symbol with archived reports.
func (a *ParquetArchive) ListArchivedSymbols() ([]string, error) {
	dir := filepath.Join(a.DataDir, "deck", "reports")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

// Layout: <dataDir>/deck/reports/<SYMBOL>/<YYYY-MM-DD>.parquet
func (a *ParquetArchive) reportPath(symbol string, t time.Time) string {
	return filepath.Join(a.DataDir, "deck", "reports", strings.ToUpper(symbol), t.Format("2006-01-02")+".parquet")
}

// Layout: <dataDir>/deck/toolcalls/<SYMBOL>/<YYYY-MM-DD>.parquet
func (a *ParquetArchive) toolCallPath(symbol string, t time.Time) string {
	return filepath.Join(a.DataDir, "deck", "toolcalls", strings.ToUpper(symbol), t.Format("2006-01-02")+".parquet")
}

// Layout: <dataDir>/deck/news/<SYMBOL>/<YYYY-MM-DD>.parquet
func (a *ParquetArchive) newsPath(symbol string, t time.Time) string {
	return filepath.Join(a.DataDir, "deck", "news", strings.ToUpper(symbol), t.Format("2006-01-02")+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeReportRecords deduplicates by (session, tab), preferring incoming
// rows. Results are sorted by update time.
func mergeReportRecords(existing, incoming []ReportRecord) []ReportRecord {
	type key struct {
		session string
		tab     string
	}
	seen := make(map[key]ReportRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.SessionID, r.Tab}] = r
	}
	for _, r := range incoming {
		seen[key{r.SessionID, r.Tab}] = r
	}

	merged := make([]ReportRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].UpdatedAt < merged[j].UpdatedAt
	})
	return merged
}

// mergeToolCallRecords deduplicates by (session, seq), preferring incoming
// rows. Results are sorted by sequence within session.
func mergeToolCallRecords(existing, incoming []ToolCallRecord) []ToolCallRecord {
	type key struct {
		session string
		seq     int64
	}
	seen := make(map[key]ToolCallRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.SessionID, r.Seq}] = r
	}
	for _, r := range incoming {
		seen[key{r.SessionID, r.Seq}] = r
	}

	merged := make([]ToolCallRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].SessionID != merged[j].SessionID {
			return merged[i].SessionID < merged[j].SessionID
		}
		return merged[i].Seq < merged[j].Seq
	})
	return merged
}

// mergeNewsRecords deduplicates by (source, headline), preferring incoming
// rows. Results are sorted by publish time.
func mergeNewsRecords(existing, incoming []NewsRecord) []NewsRecord {
	type key struct {
		source   string
		headline string
	}
	seen := make(map[key]NewsRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Source, r.Headline}] = r
	}
	for _, r := range incoming {
		seen[key{r.Source, r.Headline}] = r
	}

	merged := make([]NewsRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Published < merged[j].Published
	})
	return merged
}
