package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/example/roadside-dispatch/internal/admin"
	"github.com/example/roadside-dispatch/internal/auth"
	"github.com/example/roadside-dispatch/internal/config"
	"github.com/example/roadside-dispatch/internal/directory"
	"github.com/example/roadside-dispatch/internal/dispatch"
	"github.com/example/roadside-dispatch/internal/feedback"
	"github.com/example/roadside-dispatch/internal/httpapi"
	"github.com/example/roadside-dispatch/internal/identity"
	"github.com/example/roadside-dispatch/internal/ingest"
	"github.com/example/roadside-dispatch/internal/lifecycle"
	"github.com/example/roadside-dispatch/internal/logging"
	"github.com/example/roadside-dispatch/internal/matcher"
	"github.com/example/roadside-dispatch/internal/payments"
	"github.com/example/roadside-dispatch/internal/storage"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger("dispatch-api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Redis holds the geo mirror when configured; otherwise candidate
	// scans go straight at the store.
	var dir directory.Directory = directory.NewStoreDirectory(store)
	if cfg.RedisAddr != "" {
		rd := directory.NewRedisDirectory(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisGeoKey)
		if err := rd.Ping(ctx); err != nil {
			logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer rd.Close()
		dir = rd
		logger.Info("using redis provider directory", "addr", cfg.RedisAddr, "geo_key", cfg.RedisGeoKey)
	}

	registry := &directory.Registry{Store: store, Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		pub := ingest.NewPresencePublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer pub.Close()
		registry.Events = pub
		logger.Info("publishing presence events", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	wsreg := dispatch.NewWSRegistry()
	var push dispatch.Pusher
	if cfg.FCMKey != "" {
		push = dispatch.NewFCMClient(cfg.FCMEndpoint, cfg.FCMKey)
	}
	outbox := dispatch.NewOutbox(wsreg, push, store, logger)
	defer outbox.Close()

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)

	paySvc := &payments.Service{Payments: store, Requests: store, Logger: logger}
	if cfg.StripeKey != "" {
		paySvc.Gateway = payments.NewStripeGateway(cfg.StripeKey)
	}

	srv := httpapi.NewServer(httpapi.Deps{
		Identity:      &identity.Service{Users: store, Tokens: tokens},
		Registry:      registry,
		Directory:     dir,
		Matcher:       &matcher.Service{Dir: dir, Requests: store, Providers: store, Notify: outbox, RadiusKm: cfg.MatchRadiusKm, Logger: logger},
		Lifecycle:     &lifecycle.Manager{Requests: store, Providers: store, Logger: logger},
		Payments:      paySvc,
		Notifications: &dispatch.Service{Tokens: store, Outbox: outbox},
		Admin:         &admin.Service{Store: store},
		Feedback:      &feedback.Service{Store: store},
		Store:         store,
		Tokens:        tokens,
		WSReg:         wsreg,
		Logger:        logger,
	})

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dispatch api listening", "addr", cfg.HTTPAddr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func openStore(cfg config.ServerConfig, logger *slog.Logger) (storage.Store, func(), error) {
	if cfg.PGDSN == "" {
		logger.Warn("PG_DSN not set, using in-memory store")
		return storage.NewMemoryStore(), func() {}, nil
	}
	pg, err := storage.NewPostgresStore(cfg.PGDSN)
	if err != nil {
		return nil, nil, err
	}
	if cfg.RunMigrations {
		if err := runMigration(pg, logger); err != nil {
			pg.Close()
			return nil, nil, err
		}
	}
	return pg, func() { pg.Close() }, nil
}

func runMigration(pg *storage.PostgresStore, logger *slog.Logger) error {
	path := filepath.Join("migrations", "001_create_schema.sql")
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	start := time.Now()
	if _, err := pg.DB().Exec(string(b)); err != nil {
		return err
	}
	logger.Info("migration applied", "file", path, "duration_ms", time.Since(start).Milliseconds())
	return nil
}
