package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mkorneev/scholarmatch/internal/bootstrap"
	"github.com/mkorneev/scholarmatch/internal/config"
	"github.com/mkorneev/scholarmatch/internal/observability/logging"
	"github.com/mkorneev/scholarmatch/internal/observability/metrics"
)

const serviceName = "scholarmatch-worker"

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(logging.New(serviceName, cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)

	app, err := bootstrap.New(ctx, cfg, workerMetrics.Meter(serviceName))
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsHandler(workerMetrics),
	}
	go func() {
		slog.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	analysisTimeout := time.Duration(cfg.AnalysisTimeoutSeconds) * time.Second

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeAnalysisRequested(ctx, func(handlerCtx context.Context, researcherID string) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, analysisTimeout)
		defer cancel()

		workerMetrics.StartAnalysis()
		start := time.Now()
		claimed, err := app.Analyze.AnalyzeByID(runCtx, researcherID)
		workerMetrics.FinishAnalysis(serviceName, time.Since(start), err)

		if err == nil && !claimed {
			slog.Info("analysis skipped", "researcher_id", researcherID)
		}
		return err
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func metricsHandler(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
