package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/classroom-scheduler/internal/application"
	"github.com/example/classroom-scheduler/internal/config"
	httptransport "github.com/example/classroom-scheduler/internal/http"
	"github.com/example/classroom-scheduler/internal/identity"
	"github.com/example/classroom-scheduler/internal/lock/redislock"
	"github.com/example/classroom-scheduler/internal/logging"
	"github.com/example/classroom-scheduler/internal/persistence/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		slog.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("scheduler API listening", "addr", server.Addr, "database", cfg.DatabasePath, "distributed_locks", cfg.RedisAddr != "")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// app owns the storage and lock resources behind the HTTP handler.
type app struct {
	handler http.Handler
	closers []io.Closer
	logger  *slog.Logger
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Error("failed to release resource", "error", err)
		}
	}
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	store, err := sqlite.Open(ctx, sqlite.DefaultConfig(cfg.DatabasePath), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a := &app{closers: []io.Closer{store}, logger: logger}

	if err := store.Migrate(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var locker application.RoomLocker = application.NewKeyedMutex()
	if cfg.RedisAddr != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		redisLocker, client, err := redislock.Dial(dialCtx, cfg.RedisAddr, redislock.Options{TTL: cfg.LockTTL, Logger: logger})
		cancel()
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, client)
		locker = redisLocker
	}

	a.handler = assemble(store, locker, cfg, logger)
	return a, nil
}

// assemble wires services and transport around an opened, migrated store.
func assemble(store *sqlite.Store, locker application.RoomLocker, cfg config.Config, logger *slog.Logger) http.Handler {
	now := time.Now
	routines := newRoutineRepositoryAdapter(store.Routines)
	statuses := newRoomStatusRepositoryAdapter(store.RoomStatus)

	routineService := application.NewRoutineServiceWithLogger(routines, store.Catalog, store, locker, uuid.NewString, now, logger)
	statusService := application.NewRoomStatusServiceWithLogger(statuses, routines, store.Catalog, store.Users, application.NewRolePolicy(), store, uuid.NewString, now, logger)
	resolver := identity.NewResolver(store.Users, cfg.TokenCacheTTL, logger)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Routines: httptransport.NewRoutineHandler(routineService, logger),
		Statuses: httptransport.NewRoomStatusHandler(statusService, logger),
		Identity: resolver,
		Health:   store.Ping,
		Logger:   logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.Timeout(cfg.RequestTimeout),
		},
	})
}
