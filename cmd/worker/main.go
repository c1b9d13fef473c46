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

	"github.com/kirillkom/lostfound-matcher/internal/bootstrap"
	"github.com/kirillkom/lostfound-matcher/internal/config"
	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
	"github.com/kirillkom/lostfound-matcher/internal/observability/logging"
	"github.com/kirillkom/lostfound-matcher/internal/observability/metrics"
)

const jobTimeout = 2 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("worker_failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	workerMetrics := metrics.NewWorkerMetrics("worker")
	app, err := bootstrap.New(ctx, cfg, metrics.NewMatchingMetrics("worker", workerMetrics.Registerer()))
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()
	if app.Queue == nil {
		return errors.New("worker requires a message queue: set NATS_URL")
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSBatchSubject)
	err = app.Queue.SubscribeBatchJobs(ctx, func(handlerCtx context.Context, job domain.BatchJob) error {
		if !job.RequestedAt.IsZero() {
			workerMetrics.ObserveQueueLag("worker", time.Since(job.RequestedAt))
		}
		jobCtx, cancel := context.WithTimeout(handlerCtx, jobTimeout)
		defer cancel()

		workerMetrics.StartJob()
		started := time.Now()
		stats, err := app.Batch.RunBatch(jobCtx, job.Request)
		workerMetrics.FinishJob("worker", time.Since(started), err)
		if err != nil {
			return err
		}
		slog.Info("batch_job_completed",
			"job_id", job.ID,
			"matches_created", stats.MatchesCreated,
			"failed_pairs", stats.FailedPairs,
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe batch jobs: %w", err)
	}
	return nil
}
