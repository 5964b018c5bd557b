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

	httpadapter "github.com/mkorneev/scholarmatch/internal/adapters/http"
	"github.com/mkorneev/scholarmatch/internal/bootstrap"
	"github.com/mkorneev/scholarmatch/internal/config"
	"github.com/mkorneev/scholarmatch/internal/observability/logging"
	"github.com/mkorneev/scholarmatch/internal/observability/metrics"
)

const serviceName = "scholarmatch-api"

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(logging.New(serviceName, cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverMetrics := metrics.NewHTTPServerMetrics(serviceName)

	app, err := bootstrap.New(ctx, cfg, serverMetrics.Meter(serviceName))
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	router := httpadapter.NewRouter(app.Records, app.Batch).Handler()

	mux := http.NewServeMux()
	mux.Handle("/metrics", serverMetrics.Handler())
	mux.Handle("/", serverMetrics.Middleware(serviceName, router))

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api shutdown error", "error", err)
	}
}
