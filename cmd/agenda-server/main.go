package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"agenda/internal/config"
	"agenda/internal/metrics"
	agendaservice "agenda/internal/service/agenda"
	"agenda/internal/storage"
	"agenda/internal/store"
	"agenda/internal/timeline"
	"agenda/internal/transport/httpapi"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "agenda-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "agenda-server"),
	)
	slog.SetDefault(log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort)
	log.Info("starting",
		slog.String("http_addr", addr),
		slog.String("log_level", cfg.LogLevel),
		slog.String("storage_driver", cfg.StorageDriver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := storage.Open(ctx, storage.Options{
		Driver:    storage.Driver(cfg.StorageDriver),
		FilePath:  cfg.StoragePath,
		DSN:       cfg.StorageDSN,
		RedisAddr: cfg.StorageRedisAddr,
	})
	if err != nil {
		log.Error("storage open failed", slog.Any("err", err), slog.String("storage_driver", cfg.StorageDriver))
		os.Exit(1)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Warn("storage close failed", slog.Any("err", err))
		}
	}()

	m := metrics.New()
	st := store.New(store.Options{
		KV:             kv,
		Log:            log,
		Metrics:        m,
		PersistTimeout: cfg.PersistTimeout,
	})
	if err := st.Hydrate(ctx); err != nil {
		log.Error("hydrate failed", slog.Any("err", err))
		os.Exit(1)
	}

	grid := timeline.Grid{
		StartHour:   cfg.GridStartHour,
		EndHour:     cfg.GridEndHour,
		StepMinutes: cfg.GridStepMinutes,
	}
	if err := grid.Validate(); err != nil {
		log.Error("invalid slot grid", slog.Any("err", err))
		os.Exit(1)
	}

	svc := agendaservice.NewService(st, grid)
	api := httpapi.NewServer(svc, log)

	handler := httpapi.Chain(api.Handler(m.Registry()),
		httpapi.WithRequestID,
		httpapi.WithAccessLog(log),
		httpapi.WithBodyLimit(cfg.HTTPBodyLimit),
		httpapi.WithTimeout(cfg.HTTPRequestTimeout),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("http server started", slog.String("http_addr", addr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, srv, st, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func shutdown(log *slog.Logger, srv *http.Server, st *store.Store, timeout time.Duration) {
	log.Info("shutting down http server", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown failed; closing", slog.Any("err", err))
		_ = srv.Close()
	}
	if err := st.Close(ctx); err != nil {
		log.Warn("final snapshot flush failed", slog.Any("err", err))
	} else {
		log.Info("store flushed and closed")
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
