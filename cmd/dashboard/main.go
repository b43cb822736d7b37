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

	"github.com/your-org/facelog/internal/api"
	"github.com/your-org/facelog/internal/api/handlers"
	"github.com/your-org/facelog/internal/api/ws"
	"github.com/your-org/facelog/internal/config"
	"github.com/your-org/facelog/internal/observability"
	"github.com/your-org/facelog/internal/queue"
	"github.com/your-org/facelog/internal/storage"
	"github.com/your-org/facelog/pkg/dto"
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
		slog.Error("dashboard stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting zones dashboard", "port", cfg.Server.Port)

	db, err := storage.NewPostgresStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.InitSchema {
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	routerCfg := api.RouterConfig{
		APIKey: cfg.Server.APIKey,
		DB:     db,
	}

	// Live feed: NATS -> WebSocket
	if cfg.NATS.URL != "" {
		producer, err := queue.NewProducer(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer producer.Close()

		if err := producer.EnsureStreams(ctx); err != nil {
			slog.Warn("ensure nats streams", "error", err)
		}

		hub := ws.NewHub()
		go hub.Run()
		defer hub.Stop()

		consumer, err := queue.NewConsumer(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer consumer.Close()

		err = consumer.ConsumeFaceLogs(ctx, "dashboard-face-logs", func(ctx context.Context, evt *dto.FaceLogEvent) error {
			hub.BroadcastFaceLog(evt)
			return nil
		})
		if err != nil {
			slog.Warn("start face log consumer", "error", err)
		}

		routerCfg.NATS = handlers.NATSPinger(producer)
		routerCfg.Hub = hub
	}

	router, err := api.NewRouter(routerCfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("dashboard listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down dashboard...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("dashboard stopped")
	return nil
}
