package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendtrack/internal/amqp"
	"spendtrack/internal/analytics"
	"spendtrack/internal/backend"
	"spendtrack/internal/budget"
	"spendtrack/internal/cache"
	"spendtrack/internal/cli"
	"spendtrack/internal/core"
	apphttp "spendtrack/internal/http"
	"spendtrack/internal/log"
	"spendtrack/internal/services"
	"spendtrack/internal/storage"
	"spendtrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	logger.Info("Starting spendtrack", log.FieldOperation, log.OpStartup, "port", cfg.Port, "backend", cfg.DataBackend)

	beConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, beConfig)
	if err != nil {
		logger.Error("Failed to initialize storage backend", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := be.Close(); err != nil {
			logger.Error("Failed to close storage backend", log.FieldError, err.Error())
		}
	}()

	caches := cache.NewManager()
	if be.Cleaner != nil {
		caches.Register(be.Cleaner)
		caches.StartCleanup(cfg.CacheTTL)
	}
	defer caches.Stop()

	records, syncer, loaded := restoreRecords(ctx, be.KV, core.SystemClock{}, worker.Config{
		Debounce:   cfg.SaveDebounce,
		RetryDelay: cfg.SaveRetryDelay,
	})
	budgets := budget.NewStore(be.KV)
	_, hasBudget := budgets.Load(ctx)
	logger.Info("State restored", log.FieldRecordCount, len(loaded), "budget", hasBudget)

	opts := []services.Option{
		services.WithThresholds(analytics.Thresholds{HighDailySpend: cfg.HighSpendDailyThreshold}),
	}
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Budget alerts disabled, AMQP unavailable", log.FieldError, err.Error())
		} else {
			opts = append(opts, services.WithNotifier(client))
		}
	}
	svc := services.NewExpenseService(records, budgets, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, svc,
		apphttp.WithLogger(logger),
		apphttp.WithSyncStats(syncer.Stats),
		apphttp.WithCacheStats(be.CacheStats),
		apphttp.WithRateLimit(cfg.RateLimit, time.Minute),
		apphttp.WithReadiness(func(ctx context.Context) error {
			_, _, err := be.Direct.Get(ctx, storage.KeyBudget)
			return err
		}),
	)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error())
	}

	logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)
	syncer.Close()

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := records.Save(flushCtx); err != nil {
		logger.Error("Final save failed", log.FieldError, err.Error())
	}
	if err := svc.Close(); err != nil {
		logger.Error("Failed to close notifier", log.FieldError, err.Error())
	}
	logger.Info("Server stopped gracefully")
}
