package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/alert"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/config"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/engine"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/hub"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/ledger"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/maintenance"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/price"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/server"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/stats"
	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] crash game server starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init price oracle
	var oracle price.Oracle
	var cached *price.CachedOracle
	if cfg.Price.UseMock {
		oracle = price.NewMockOracle()
	} else {
		upstream := price.NewCoinGeckoOracle(cfg.Price.BaseURL, cfg.Proxy)
		cached = price.NewCachedOracle(upstream, cfg.Price.CacheTTL.Std())
		oracle = cached
	}
	log.Printf("[INFO] price source: %s", oracle.Name())

	// Init round archive
	var archive store.RoundArchive
	switch {
	case cfg.Database.PostgresDSN != "":
		pa, err := store.NewPostgresArchive(cfg.Database.PostgresDSN)
		if err != nil {
			log.Fatalf("[FATAL] init postgres archive: %v", err)
		}
		archive = pa
		defer pa.Close()
	case cfg.Database.SQLitePath != "":
		sa, err := store.NewSQLiteArchive(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite archive failed, using noop: %v", err)
			archive = store.NewNoopArchive()
		} else {
			archive = sa
			defer sa.Close()
		}
	default:
		archive = store.NewNoopArchive()
	}

	// Init Telegram alerter
	var alerter *alert.TelegramAlerter
	var engineAlerter engine.Alerter
	if cfg.Telegram.BotToken != "" {
		alerter = alert.NewTelegramAlerter(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		engineAlerter = alert.EngineAlerter{T: alerter}
	}

	// Init engine
	accounts := ledger.New()
	eventHub := hub.New()
	tracker := stats.NewTracker(0)
	eng := engine.New(engine.Config{
		BettingWindow: cfg.Game.BettingWindow.Std(),
		TickInterval:  cfg.Game.TickInterval.Std(),
		RoundDelay:    cfg.Game.RoundDelay.Std(),
		GrowthRate:    cfg.Game.GrowthRate,
		HouseEdge:     cfg.Game.HouseEdge,
		MinBetUSD:     decimal.NewFromFloat(cfg.Game.MinBetUSD),
		MaxBetUSD:     decimal.NewFromFloat(cfg.Game.MaxBetUSD),
	}, accounts, oracle, eventHub, archive, tracker, engineAlerter)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Warm the quote cache before the first round opens.
	if cached != nil {
		warmCtx, warmCancel := context.WithTimeout(ctx, 10*time.Second)
		cached.Warm(warmCtx)
		warmCancel()
	}

	// Init maintenance scheduler
	sched := maintenance.NewScheduler(ctx, eng, cached, archive, tracker, alerter, cfg.Schedule.RetentionDays)
	if err := sched.RegisterAll(cfg.Schedule.DailySummaryCron, cfg.Schedule.PruneCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	if alerter != nil {
		go alerter.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Run the round loop
	go func() {
		if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[ERROR] round loop stopped: %v", err)
		}
	}()

	// HTTP server
	srv := &server.Server{
		Engine:  eng,
		Oracle:  oracle,
		Archive: archive,
		Hub:     eventHub,
		Starting: map[model.Currency]decimal.Decimal{
			model.BTC: decimal.NewFromFloat(cfg.Game.StartingBTC),
			model.ETH: decimal.NewFromFloat(cfg.Game.StartingETH),
		},
	}
	httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: srv.Router()}
	go func() {
		log.Printf("[INFO] listening on %s", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	log.Println("[INFO] crash game server is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	log.Println("[INFO] crash game server stopped")
}
