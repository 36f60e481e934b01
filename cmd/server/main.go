// Package main is the entry point for the MetaSwap public API server. It
// wires the registry, exchange, treasury, and ledger services together and
// starts the HTTP server alongside the WebSocket hub and fee-tick scheduler.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/upsidefi/metaswap/internal/api"
	"github.com/upsidefi/metaswap/internal/config"
	"github.com/upsidefi/metaswap/internal/domain"
	"github.com/upsidefi/metaswap/internal/repository"
	"github.com/upsidefi/metaswap/internal/scheduler"
	"github.com/upsidefi/metaswap/internal/service"
	"github.com/upsidefi/metaswap/internal/ws"
)

func main() {
	// ── 1. Config + logger ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	var logHandler slog.Handler
	if cfg.IsProd() {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("starting metaswap server", "env", cfg.Server.Env, "port", cfg.Server.Port)

	// ── 2. Database ───────────────────────────────────────────────────────────
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

	// ── 3. Migrations ─────────────────────────────────────────────────────────
	if err = runMigrations(db, "migrations"); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")

	// ── 4. Repositories ───────────────────────────────────────────────────────
	marketRepo := repository.NewMarketRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	sinkRepo := repository.NewSinkRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// ── 5. Protocol accounts ──────────────────────────────────────────────────
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer bootCancel()
	for addr, label := range map[string]string{
		domain.ProtocolReserveAccount: "protocol reserve",
		domain.FeeSinkAccount:         "staking fee sink",
		cfg.Protocol.OwnerAccount:     "protocol owner",
	} {
		if err = ledgerRepo.EnsureAccount(bootCtx, addr, label); err != nil {
			logger.Error("protocol account bootstrap failed", "account", addr, "err", err)
			os.Exit(1)
		}
	}
	logger.Info("protocol accounts ready")

	// ── 6. Fee state ──────────────────────────────────────────────────────────
	feeState := service.NewFeeState(settingsRepo, feeInfoFromConfig(cfg))
	if err = feeState.Init(bootCtx); err != nil {
		logger.Error("fee configuration init failed", "err", err)
		os.Exit(1)
	}

	// ── 7. Services ───────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(ledgerRepo, cfg.JWT.AccessSecret, cfg.JWT.AccessTTL)

	registrySvc := service.NewRegistryService(db, marketRepo, ledgerRepo, feeState,
		cfg.Protocol.ReferenceSymbol, cfg.Protocol.ReserveSeed, cfg.Protocol.TokenSupply, cfg.Protocol.TokenizeFee)

	exchangeSvc := service.NewExchangeService(db, marketRepo, ledgerRepo, sinkRepo, feeState,
		cfg.Protocol.ReferenceSymbol)

	treasurySvc := service.NewTreasuryService(db, marketRepo, ledgerRepo, sinkRepo, feeState,
		cfg.Protocol.ReferenceSymbol, cfg.Protocol.OwnerAccount, cfg.Protocol.WithdrawCooldown)

	ledgerSvc := service.NewLedgerService(db, ledgerRepo,
		cfg.Protocol.ReferenceSymbol, cfg.Protocol.FaucetEnabled)

	// ── 8. WebSocket hub ──────────────────────────────────────────────────────
	var allowedOrigins []string
	if ori := os.Getenv("WS_ALLOWED_ORIGINS"); ori != "" {
		for _, o := range strings.Split(ori, ",") {
			allowedOrigins = append(allowedOrigins, strings.TrimSpace(o))
		}
	}
	hub := ws.NewHub(allowedOrigins)

	exchangeSvc.SetBroadcaster(hub)
	registrySvc.SetAnnouncer(hub)

	// ── 9. Root context + signal handling ─────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run()
	logger.Info("websocket hub started")

	// ── 10. Scheduler ─────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(marketRepo, feeState, hub, 5*time.Second, logger)
	sched.Start(ctx)

	// ── 11. HTTP router + server ──────────────────────────────────────────────
	router := api.SetupRouter(api.RouterDeps{
		AuthSvc:     authSvc,
		RegistrySvc: registrySvc,
		ExchangeSvc: exchangeSvc,
		TreasurySvc: treasurySvc,
		LedgerSvc:   ledgerSvc,
		Hub:         hub,
		Cfg:         cfg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
			stop() // trigger graceful shutdown
		}
	}()

	// ── 12. Graceful shutdown ─────────────────────────────────────────────────
	<-ctx.Done()
	logger.Info("shutdown signal received, draining connections…")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "err", err)
	}

	db.Close()
	logger.Info("server stopped cleanly")
}

// feeInfoFromConfig converts the boot-time fee env settings into the runtime
// fee configuration. The tokenize fee destination defaults to the protocol
// owner account.
func feeInfoFromConfig(cfg *config.Config) domain.FeeInfo {
	return domain.FeeInfo{
		TokenizeFeeEnabled:     cfg.Fee.TokenizeFeeEnabled,
		TokenizeFeeDestination: cfg.Protocol.OwnerAccount,
		SwapFeeStartingBp:      cfg.Fee.StartingBp,
		SwapFeeDecayBp:         cfg.Fee.DecayBp,
		SwapFeeDecayInterval:   cfg.Fee.DecayIntervalSec,
		SwapFeeFinalBp:         cfg.Fee.FinalBp,
		SwapFeeDeployerBp:      cfg.Fee.DeployerBp,
		SwapFeeSellBp:          cfg.Fee.SellBp,
	}
}

// runMigrations reads all *.sql files from dir, sorted by name, and executes
// them sequentially. Idempotent: SQL files should use IF NOT EXISTS / ON CONFLICT.
func runMigrations(db *sqlx.DB, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("runMigrations: read dir %q: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("runMigrations: read %q: %w", f, err)
		}
		if _, err = db.Exec(string(data)); err != nil {
			return fmt.Errorf("runMigrations: exec %q: %w", f, err)
		}
		slog.Info("migration applied", "file", filepath.Base(f))
	}
	return nil
}
