package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dev-connector/internal/config"
	"dev-connector/internal/database"
	"dev-connector/internal/engine"
	"dev-connector/internal/engine/actors"
	"dev-connector/internal/events"
	"dev-connector/internal/handlers"
	"dev-connector/internal/middleware"
	"dev-connector/internal/utils"
	"dev-connector/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

// app is the wired server: store, event bus, actor engine and HTTP handler.
type app struct {
	store   database.DBAdapter
	bus     events.Bus
	hub     *websocket.Hub
	system  *actor.ActorSystem
	handler http.Handler
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	bus, err := openBus(ctx, cfg.Redis, logger)
	if err != nil {
		store.Close(context.Background())
		return nil, err
	}

	hub := websocket.NewHub(logger)
	bus.Subscribe(hub.BroadcastEvent)

	metrics := utils.NewMetricsCollector()
	auth := middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiration)

	system := actor.NewActorSystem()
	eng := engine.NewEngine(system, actors.Deps{
		Store:   store,
		Bus:     bus,
		Metrics: metrics,
		Tokens:  auth,
		Timeout: cfg.Server.RequestTimeout,
		Logger:  logger,
	}, cfg.Server.ActorPoolSize)

	server := handlers.NewServer(system, eng, auth, metrics, hub, logger)
	server.RequestTimeout = cfg.Server.RequestTimeout
	server.AllowedOrigins = cfg.AllowedOrigins
	server.MetricsEnabled = cfg.Server.MetricsEnabled

	return &app{
		store:   store,
		bus:     bus,
		hub:     hub,
		system:  system,
		handler: server.Handler(),
	}, nil
}

// Close releases the bus and the store.
func (a *app) Close(ctx context.Context) error {
	a.system.Shutdown()
	return errors.Join(a.bus.Close(), a.store.Close(ctx))
}

func openStore(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (database.DBAdapter, error) {
	switch cfg.Type {
	case config.DBTypeMongo:
		logger.Info("Using MongoDB store", zap.String("database", cfg.MongoDB))
		db, err := database.NewMongoDB(ctx, cfg.MongoURI, cfg.MongoDB, logger)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DBTypePostgres:
		logger.Info("Using PostgreSQL store", zap.String("sslmode", cfg.SSLMode))
		db, err := database.NewPostgresDB(ctx, cfg.URI, logger)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DBTypeMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		return database.NewMemoryDB(), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}
}

// openBus fans post events out through Redis when configured, so every
// instance's websocket clients see every post. Otherwise events stay in process.
func openBus(ctx context.Context, cfg *config.RedisConfig, logger *zap.Logger) (events.Bus, error) {
	if cfg.Addr == "" {
		return events.NewLocalBus(logger), nil
	}

	client, err := events.NewRedisClient(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, err
	}
	bus, err := events.NewRedisBus(ctx, client, events.DefaultChannel, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	logger.Info("Using Redis event bus", zap.String("addr", cfg.Addr))
	return &redisBusCloser{RedisBus: bus, client: client}, nil
}

// redisBusCloser also closes the Redis client the bus was built on.
type redisBusCloser struct {
	*events.RedisBus
	client interface{ Close() error }
}

func (b *redisBusCloser) Close() error {
	return errors.Join(b.RedisBus.Close(), b.client.Close())
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	go a.hub.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("address", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		a.Close(context.Background())
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		logger.Error("Closing resources failed", zap.Error(err))
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
