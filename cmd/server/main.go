// Package main is the entry point for the Tokenizee token-ledger API server.
// It wires together the ledger, lock/redemption policy, engagement coupling,
// and drift scheduler, and starts the HTTP server alongside the WebSocket hub.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Adwaitbytes/tokenizee-sub000/internal/api"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/clock"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/config"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/metrics"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/repository"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/scheduler"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/service"
	"github.com/Adwaitbytes/tokenizee-sub000/internal/ws"
)

func main() {
	// ── 1. Logger ─────────────────────────────────────────────────────────────
	cfg := config.MustLoad()

	var logHandler slog.Handler
	if cfg.IsProd() {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("starting tokenizee ledger server", "env", cfg.Server.Env, "port", cfg.Server.Port)

	// ── 2. Database ───────────────────────────────────────────────────────────
	db, err := repository.Open(cfg.DB.Path)
	if err != nil {
		logger.Error("database open failed", "err", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	logger.Info("database ready", "path", cfg.DB.Path)

	// ── 3. Repository & metrics ───────────────────────────────────────────────
	ledgerRepo := repository.NewLedgerRepository(db)
	reg := metrics.New()

	// ── 4. Services (order matters for injection) ─────────────────────────────
	clk := clock.System{}

	walletSvc := service.NewWalletService(cfg)
	ledgerSvc := service.NewLedgerService(db, ledgerRepo, cfg, clk)
	policySvc := service.NewPolicyService(db, ledgerRepo, ledgerSvc, cfg, clk)
	engagementSvc := service.NewEngagementService(ledgerSvc, cfg)

	// Wire circular dependencies via interfaces
	ledgerSvc.SetLockChecker(policySvc)
	ledgerSvc.SetRecorder(reg)
	policySvc.SetRecorder(reg)

	// ── 5. WebSocket Hub ──────────────────────────────────────────────────────
	var allowedOrigins []string
	if ori := os.Getenv("WS_ALLOWED_ORIGINS"); ori != "" {
		for _, o := range strings.Split(ori, ",") {
			allowedOrigins = append(allowedOrigins, strings.TrimSpace(o))
		}
	}
	hub := ws.NewHub([]byte(cfg.Session.Secret), allowedOrigins)
	ledgerSvc.SetBroadcaster(hub)
	policySvc.SetBroadcaster(hub)

	// ── 6. Root context + signal handling ─────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 7. Start WS Hub ───────────────────────────────────────────────────────
	go hub.Run()
	logger.Info("websocket hub started")

	// ── 8. Drift scheduler ────────────────────────────────────────────────────
	drift := scheduler.NewDrift(ledgerSvc, cfg, logger)
	drift.SetGauge(reg)
	drift.Start(ctx)

	// ── 9. HTTP Router ────────────────────────────────────────────────────────
	router := api.SetupRouter(api.RouterDeps{
		WalletSvc:     walletSvc,
		LedgerSvc:     ledgerSvc,
		PolicySvc:     policySvc,
		EngagementSvc: engagementSvc,
		Drift:         drift,
		Hub:           hub,
		Cfg:           cfg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// ── 10. Start server ──────────────────────────────────────────────────────
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
			stop() // trigger graceful shutdown
		}
	}()

	// ── 11. Graceful shutdown ─────────────────────────────────────────────────
	<-ctx.Done()
	logger.Info("shutdown signal received, draining connections…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "err", err)
	}

	drift.Stop()
	db.Close()
	logger.Info("server stopped cleanly")
}
