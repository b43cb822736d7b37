package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/facelog/internal/config"
	"github.com/your-org/facelog/internal/generator"
	"github.com/your-org/facelog/internal/observability"
	"github.com/your-org/facelog/internal/queue"
	"github.com/your-org/facelog/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config file (e.g. configs/config.yaml); env and defaults apply without one")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("generator stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting face log generator",
		"db_host", cfg.Database.Host,
		"db_name", cfg.Database.Database,
	)

	db, err := storage.NewPostgresStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w: %w", generator.ErrConnection, err)
	}
	defer db.Close()

	if cfg.Database.InitSchema {
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	opts := []generator.Option{}

	if cfg.NATS.URL != "" {
		producer, err := queue.NewProducer(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer producer.Close()

		if err := producer.EnsureStreams(ctx); err != nil {
			slog.Warn("ensure nats streams", "error", err)
		}
		opts = append(opts, generator.WithPublisher(producer))
	}

	if cfg.Metrics.Addr != "" {
		srv := metricsServer(cfg.Metrics.Addr)
		go func() {
			slog.Info("metrics server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	g := generator.New(db, generator.NewRand(cfg.Generator.Seed), generator.OptionsFromConfig(cfg.Generator), opts...)

	err = g.Run(ctx)
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		slog.Info("shutdown signal received, generator stopped")
		return nil
	}
	return err
}

func metricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
