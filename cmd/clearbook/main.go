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
	"time"

	"github.com/example/clearbook/internal/api"
	"github.com/example/clearbook/internal/config"
	"github.com/example/clearbook/internal/engine"
	"github.com/example/clearbook/internal/export"
	"github.com/example/clearbook/internal/ingestion"
	"github.com/example/clearbook/internal/ledger"
	"github.com/example/clearbook/internal/report"
	"github.com/example/clearbook/pkg/audit"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: %s <transactions.csv>", os.Args[0])
	}
	inputPath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening input file: %w", err)
	}
	defer input.Close()

	led := ledger.NewLedger()
	chain := audit.NewChain()
	eng := engine.New(led, logger, chain)

	rep, err := eng.RunSharded(ctx, ingestion.NewReader(input), cfg.Shards)
	if err != nil {
		return fmt.Errorf("replaying %s: %w", inputPath, err)
	}

	snapshots := led.SnapshotAll()
	if err := report.WriteCSV(os.Stdout, snapshots); err != nil {
		return err
	}

	if cfg.ExportDSN != "" {
		if err := exportRun(ctx, cfg.ExportDSN, rep, snapshots, chain); err != nil {
			return err
		}
		logger.Info("run exported", "run_id", rep.RunID, "dsn", cfg.ExportDSN)
	}

	if cfg.HTTPAddr != "" {
		return serve(ctx, logger, cfg.HTTPAddr, led, rep)
	}
	return nil
}

func exportRun(ctx context.Context, dsn string, rep engine.Report, snapshots []ledger.AccountSnapshot, chain *audit.Chain) error {
	store, err := export.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.SaveRun(ctx, rep, snapshots, chain.Entries())
}

// serve blocks on the reporting API until the context is cancelled, then
// shuts the server down gracefully.
func serve(ctx context.Context, logger *slog.Logger, addr string, led *ledger.Ledger, rep engine.Report) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(api.Dependencies{Logger: logger, Ledger: led, Report: rep}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("reporting API listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down reporting API")
	return srv.Shutdown(shutdownCtx)
}
