package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pytrader/internal/config"
	"pytrader/internal/gateway"
	"pytrader/internal/httpapi"
	"pytrader/internal/store"
	"pytrader/internal/util"
)

func main() {
	// Load config. Missing file falls back to env-only config so the server
	// can run from APCA_* variables alone.
	cfgPath := "config/pytrader.yaml"
	if p := os.Getenv("PYTRADER_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("loading config: %v", err)
		}
		cfg = config.FromEnv()
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	// Gateway options.
	opts := []gateway.Option{gateway.WithLogger(logger.With("component", "gateway"))}
	if cfg.Limits != (config.Limits{}) {
		// Fields left zero fall back to the limiter defaults.
		opts = append(opts, gateway.WithLimiter(gateway.NewLimiterWithWindows(
			cfg.Limits.FastCapacity, time.Duration(cfg.Limits.FastPeriodSec)*time.Second,
			cfg.Limits.SlowCapacity, time.Duration(cfg.Limits.SlowPeriodSec)*time.Second,
		)))
	}

	gw := gateway.NewAlpaca(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL, cfg.Alpaca.DataURL, opts...)
	if !gw.Ready() {
		// The server still starts: every endpoint answers 503 with the
		// stored reason, and GET / reports degraded.
		logger.Warn("gateway not ready, serving in degraded mode")
	}

	// Optional stores.
	var journal store.OrderJournal
	if cfg.Storage.SQLitePath != "" {
		j, err := store.NewSQLiteJournal(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("opening order journal: %v", err)
		}
		defer j.Close()
		journal = j
		logger.Info("order journal open", "path", cfg.Storage.SQLitePath)
	}

	var quoteLog store.QuoteLog
	if cfg.Storage.DataDir != "" {
		quoteLog = store.NewParquetQuoteLog(cfg.Storage.DataDir)
		logger.Info("quote log enabled", "dir", cfg.Storage.DataDir)
	}

	srv := httpapi.NewServer(gw, journal, quoteLog, logger.With("component", "httpapi"))

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("pytrader server listening", "addr", httpServer.Addr, "ready", gw.Ready())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down pytrader server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
