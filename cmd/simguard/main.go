package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/simguard/internal/config"
	v2server "github.com/dropDatabas3/simguard/internal/http/v2/server"
	"github.com/dropDatabas3/simguard/internal/observability/logger"
	"github.com/dropDatabas3/simguard/internal/observability/tracing"
)

func main() {
	configPath := flag.String("config", os.Getenv("SIMGUARD_CONFIG"), "Path to YAML config (vacío = solo defaults + env)")
	flag.Parse()

	// .env es opcional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config:\n%v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
		Sampling:    cfg.Log.Sampling,
	})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		lg.Fatal("tracing init failed", logger.Err(err))
	}

	app, err := v2server.Build(logger.ToContext(ctx, lg), cfg)
	if err != nil {
		lg.Fatal("wiring failed", logger.Err(err))
	}
	app.Scheduler.Start()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      app.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("simguard listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("env", cfg.App.Env),
			logger.Provider(app.Oracle.ProviderName()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		lg.Info("shutdown requested")
	case err := <-errCh:
		if err != nil {
			lg.Error("server failed", logger.Err(err))
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		lg.Warn("http shutdown", logger.Err(err))
	}
	if err := app.Scheduler.Stop(sctx); err != nil {
		lg.Warn("housekeeping stop", logger.Err(err))
	}
	if err := shutdownTracing(sctx); err != nil {
		lg.Warn("tracing shutdown", logger.Err(err))
	}
	if err := app.Close(); err != nil {
		lg.Warn("cleanup", logger.Err(err))
	}
	lg.Info("bye")
}
