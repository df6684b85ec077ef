package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/closedwallet/closedwallet/internal/api"
	"github.com/closedwallet/closedwallet/internal/config"
	"github.com/closedwallet/closedwallet/internal/infra/logging"
	"github.com/closedwallet/closedwallet/internal/infra/pgutils"
	"github.com/closedwallet/closedwallet/internal/infra/rediscache"
	assetspg "github.com/closedwallet/closedwallet/internal/repos/assets/postgres"
	ledgerpg "github.com/closedwallet/closedwallet/internal/repos/ledger/postgres"
	txpg "github.com/closedwallet/closedwallet/internal/repos/transactions/postgres"
	userspg "github.com/closedwallet/closedwallet/internal/repos/users/postgres"
	walletspg "github.com/closedwallet/closedwallet/internal/repos/wallets/postgres"
	"github.com/closedwallet/closedwallet/internal/services/idempotency"
	"github.com/closedwallet/closedwallet/internal/services/projections"
	"github.com/closedwallet/closedwallet/internal/services/routing"
	"github.com/closedwallet/closedwallet/internal/services/transfer"
	"github.com/closedwallet/closedwallet/internal/services/treasury"
	"github.com/closedwallet/closedwallet/pkg/envconf"
	"github.com/closedwallet/closedwallet/pkg/shutdownqueue"
	"github.com/shopspring/decimal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(config.Config)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	pgutils.Configure(db, 25, 5)

	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("closing db pool")
		return db.Close()
	})

	cache, err := rediscache.New(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("closing redis client")
		return cache.Close()
	})

	// --- Repos ---
	usersRepo := userspg.New()
	assetsRepo := assetspg.New()
	walletsRepo := walletspg.New()
	txRepo := txpg.New()
	ledgerRepo := ledgerpg.New()

	// --- Boot-time invariant: refuse to start without a resolvable treasury. ---
	treasuryResolver, err := treasury.Resolve(ctx, db, usersRepo, cfg.TreasuryEmail)
	if err != nil {
		return fmt.Errorf("resolve treasury: %w", err)
	}

	router := routing.New(treasuryResolver)

	maxAmount, err := decimal.NewFromString(cfg.MaxAmount)
	if err != nil {
		return fmt.Errorf("parse MAX_AMOUNT: %w", err)
	}

	engine := transfer.New(db, walletsRepo, assetsRepo, txRepo, ledgerRepo, router, cfg.LockTimeout, maxAmount)
	ic := idempotency.New(cache, cfg.ProcessingTTL, cfg.TerminalTTL)
	reads := projections.New(db, walletsRepo, assetsRepo, txRepo, ledgerRepo)

	// --- HTTP server ---
	srv := api.NewServer(":"+cfg.Port, engine, ic, reads)

	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("shutting down http server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("wallet API started", "port", cfg.Port)

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
