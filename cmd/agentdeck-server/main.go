package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	marketdata "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/joho/godotenv"

	"agentdeck/internal/board"
	"agentdeck/internal/broker"
	"agentdeck/internal/charts"
	"agentdeck/internal/config"
	"agentdeck/internal/domain"
	"agentdeck/internal/engine"
	"agentdeck/internal/httpapi"
	"agentdeck/internal/macro"
	"agentdeck/internal/news"
	"agentdeck/internal/prompts"
	"agentdeck/internal/store"
	"agentdeck/internal/util"
)

var version = "dev"

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfgPath := "config/agentdeck.yaml"
	if p := os.Getenv("AGENTDECK_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	// Missing credentials disable integrations, never the process.
	integrations := cfg.Validate()
	for _, ie := range integrations {
		logger.Warn("integration disabled", "integration", ie.Integration, "missing", ie.Key)
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		log.Fatalf("creating data dir: %v", err)
	}

	symbols := domain.ParseTickers(cfg.Session.Tickers)
	if len(symbols) == 0 {
		symbols = domain.ParseTickers(config.Default().Session.Tickers)
	}
	b := board.NewModel(symbols, cfg.Dashboard.SymbolPageSize)

	// Broker: live Alpaca when credentials exist, in-memory simulator
	// otherwise.
	var brk broker.Broker
	var md *marketdata.Client
	if cfg.AlpacaEnabled() {
		brk = broker.NewAlpacaBroker(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret,
			cfg.Alpaca.ResolveBaseURL(), cfg.Alpaca.UsePaper)
		opts := marketdata.ClientOpts{
			APIKey:    cfg.Alpaca.APIKey,
			APISecret: cfg.Alpaca.APISecret,
		}
		if cfg.Alpaca.DataURL != "" {
			opts.BaseURL = cfg.Alpaca.DataURL
		}
		md = marketdata.NewClient(opts)
	} else {
		sim := broker.NewSimulatorBroker(100_000)
		sim.SeedPosition(domain.Position{Symbol: symbols[0], Qty: 25, MarketValue: 4_700, AvgEntryPrice: 180, CostBasis: 4_500, TodayPL: 62, TotalPL: 200})
		brk = sim
		logger.Info("running against simulator broker")
	}

	sqlStore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening sqlite store: %v", err)
	}
	defer sqlStore.Close()

	promptStore := prompts.NewStore(cfg.Storage.DataDir+"/prompts.json", logger)

	eng := engine.NewEngine(b, &engine.SimRunner{StageDelay: 400 * time.Millisecond},
		sqlStore, promptStore, util.NewTradingCalendar(), logger)
	eng.SetMarketHours(cfg.Session.MarketHours)

	srv := httpapi.NewServer(
		version,
		b,
		eng,
		brk,
		news.NewFetcher(md, cfg.Feeds.FinnhubKey, cfg.Feeds.CoindeskKey),
		macro.NewClient(cfg.Feeds.FredKey),
		charts.NewService(md),
		promptStore,
		integrations,
		logger,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go srv.Run(ctx)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	go func() {
		logger.Info("agentdeck server listening", "addr", httpServer.Addr, "broker", brk.Name(), "symbols", symbols)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	eng.Stop()
	select {
	case <-eng.Done():
	case <-time.After(10 * time.Second):
		logger.Warn("session batch did not stop in time")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
