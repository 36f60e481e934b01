// Package main is the entry point for the MetaSwap back-office server. It
// runs on its own port and exposes owner-only fee and treasury endpoints
// gated by an API key and an optional IP allowlist.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/upsidefi/metaswap/internal/backoffice"
	"github.com/upsidefi/metaswap/internal/config"
	"github.com/upsidefi/metaswap/internal/domain"
	"github.com/upsidefi/metaswap/internal/repository"
	"github.com/upsidefi/metaswap/internal/service"
)

func main() {
	// ── Config + logger ───────────────────────────────────────────────────────
	cfg := config.MustLoad()

	var logHandler slog.Handler
	if cfg.IsProd() {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("starting metaswap backoffice server",
		"env", cfg.Server.Env, "port", cfg.Server.BackofficePort)

	// ── Database ──────────────────────────────────────────────────────────────
	db, err := sqlx.Connect("postgres", cfg.DB.DSN)
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	if err = db.Ping(); err != nil {
		logger.Error("database ping failed", "err", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// ── Repositories + services ───────────────────────────────────────────────
	marketRepo := repository.NewMarketRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	sinkRepo := repository.NewSinkRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	feeState := service.NewFeeState(settingsRepo, domain.FeeInfo{
		TokenizeFeeEnabled:     cfg.Fee.TokenizeFeeEnabled,
		TokenizeFeeDestination: cfg.Protocol.OwnerAccount,
		SwapFeeStartingBp:      cfg.Fee.StartingBp,
		SwapFeeDecayBp:         cfg.Fee.DecayBp,
		SwapFeeDecayInterval:   cfg.Fee.DecayIntervalSec,
		SwapFeeFinalBp:         cfg.Fee.FinalBp,
		SwapFeeDeployerBp:      cfg.Fee.DeployerBp,
		SwapFeeSellBp:          cfg.Fee.SellBp,
	})
	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err = feeState.Init(initCtx); err != nil {
		initCancel()
		logger.Error("fee configuration init failed", "err", err)
		os.Exit(1)
	}
	initCancel()

	treasurySvc := service.NewTreasuryService(db, marketRepo, ledgerRepo, sinkRepo, feeState,
		cfg.Protocol.ReferenceSymbol, cfg.Protocol.OwnerAccount, cfg.Protocol.WithdrawCooldown)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Router ────────────────────────────────────────────────────────────────
	router := backoffice.SetupBackofficeRouter(backoffice.BackofficeDeps{
		TreasurySvc: treasurySvc,
		Cfg:         cfg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.BackofficePort,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// ── Start ─────────────────────────────────────────────────────────────────
	go func() {
		logger.Info("backoffice http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("backoffice server error", "err", err)
			stop()
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("backoffice shutdown error", "err", err)
	}

	db.Close()
	logger.Info("backoffice server stopped cleanly")
}
