// Batch tool: export finished sessions from the SQLite store into the
// Parquet archive, one file per symbol and day.
//
// Usage:
//
//	go run cmd/session-archive/main.go [-symbol AAPL] [-limit 500] [-workers 4]
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"sync"

	"agentdeck/internal/config"
	"agentdeck/internal/domain"
	"agentdeck/internal/store"
	"agentdeck/internal/util"
)

func main() {
	symbol := flag.String("symbol", "", "only archive sessions for this symbol")
	limit := flag.Int("limit", 1000, "maximum sessions to export")
	workers := flag.Int("workers", 4, "concurrent symbol workers")
	flag.Parse()

	cfgPath := "config/agentdeck.yaml"
	if p := os.Getenv("AGENTDECK_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, "text")
	util.SetDefault(logger)

	sqlStore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening sqlite store: %v", err)
	}
	defer sqlStore.Close()

	archive := store.NewParquetArchive(cfg.Storage.DataDir)
	ctx := context.Background()

	sessions, err := sqlStore.ListSessions(ctx, *symbol, *limit)
	if err != nil {
		log.Fatalf("listing sessions: %v", err)
	}
	if len(sessions) == 0 {
		logger.Info("nothing to archive")
		return
	}

	// Group by symbol: archive files are per symbol and day, so a symbol's
	// sessions must be written by a single worker to keep merges race-free.
	bySymbol := make(map[string][]domain.Session)
	for _, sess := range sessions {
		bySymbol[sess.Symbol] = append(bySymbol[sess.Symbol], sess)
	}
	logger.Info("archiving sessions", "sessions", len(sessions), "symbols", len(bySymbol))

	jobs := make(chan []domain.Session)
	var wg sync.WaitGroup
	var mu sync.Mutex
	archived, failed := 0, 0

	n := *workers
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for group := range jobs {
				for _, sess := range group {
					err := archiveSession(ctx, sqlStore, archive, sess)
					mu.Lock()
					if err != nil {
						failed++
						logger.Error("archiving session", "session", sess.ID, "symbol", sess.Symbol, "error", err)
					} else {
						archived++
					}
					mu.Unlock()
				}
			}
		}()
	}

	for _, group := range bySymbol {
		jobs <- group
	}
	close(jobs)
	wg.Wait()

	logger.Info("archive complete", "archived", archived, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func archiveSession(ctx context.Context, s *store.SQLiteStore, a *store.ParquetArchive, sess domain.Session) error {
	date := sess.StartedAt

	reports, err := s.ListSessionReports(ctx, sess.ID)
	if err != nil {
		return err
	}
	if err := a.ArchiveReports(sess.ID, date, reports); err != nil {
		return err
	}

	calls, err := s.ListToolCalls(ctx, sess.ID)
	if err != nil {
		return err
	}
	return a.ArchiveToolCalls(sess.ID, date, calls)
}
