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

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/kode4food/tartan"
	"github.com/kode4food/tartan/internal/artifact"
	"github.com/kode4food/tartan/internal/client"
	"github.com/kode4food/tartan/internal/config"
	"github.com/kode4food/tartan/internal/engine"
	"github.com/kode4food/tartan/internal/events"
	"github.com/kode4food/tartan/internal/server"
	"github.com/kode4food/tartan/internal/store"
	"github.com/kode4food/tartan/pkg/log"
)

type app struct {
	cfg        *config.Config
	redis      *store.RedisStore
	flows      *store.BlobFlowStore
	storage    *artifact.BlobStorage
	bus        *events.Bus
	engine     *engine.Engine
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var (
	ErrConnectRedis   = errors.New("failed to connect to redis")
	ErrOpenFlowBucket = errors.New("failed to open flow bucket")
	ErrOpenArtifacts  = errors.New("failed to open artifact bucket")
)

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	a := &app{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	a.setupLogging()

	if err := a.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (a *app) run() error {
	if err := a.initializeStores(context.Background()); err != nil {
		return err
	}
	a.initializeEngine()
	a.startServer()

	signal.Notify(a.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.quit)
	<-a.quit

	a.shutdown()
	return nil
}

func (a *app) setupLogging() {
	level, ok := log.ParseLevel(a.cfg.LogLevel)
	if !ok {
		level = slog.LevelInfo
	}

	env := os.Getenv("ENV")
	logger := log.NewWithLevel(tartan.Name, env, tartan.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Tartan starting",
		slog.String("log_level", a.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("redis_addr", a.cfg.Redis.Addr),
		slog.Int("redis_db", a.cfg.Redis.DB),
		slog.String("flow_bucket", a.cfg.FlowBucketURL),
		slog.String("artifact_bucket", a.cfg.ArtifactBucketURL),
		slog.String("executor_base_url", a.cfg.ExecutorBaseURL),
		slog.String("api_host", a.cfg.APIHost),
		slog.Int("api_port", a.cfg.APIPort))
}

func (a *app) initializeStores(ctx context.Context) error {
	var err error

	a.redis, err = store.NewRedisStore(ctx, a.cfg.Redis)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectRedis, err)
	}

	a.flows, err = store.NewBlobFlowStore(ctx, a.cfg.FlowBucketURL, nil)
	if err != nil {
		_ = a.redis.Close()
		return fmt.Errorf("%w: %w", ErrOpenFlowBucket, err)
	}

	a.storage, err = artifact.NewBlobStorage(ctx, a.cfg.ArtifactBucketURL)
	if err != nil {
		_ = a.flows.Close()
		_ = a.redis.Close()
		return fmt.Errorf("%w: %w", ErrOpenArtifacts, err)
	}

	return nil
}

func (a *app) initializeEngine() {
	a.bus = events.NewBus(nil)
	a.engine = engine.New(engine.Deps{
		Flows:       a.flows,
		Projects:    a.redis.Projects(),
		Artifacts:   a.redis.Artifacts(),
		Checkpoints: a.redis.Checkpoints(),
		Storage:     a.storage,
		Client: client.NewHTTPRunner(
			a.cfg.ExecutorBaseURL,
			time.Duration(a.cfg.ExecutorTimeout)*time.Millisecond,
			a.cfg.ExecutorMaxResponse,
		),
		Events: a.bus,
	}, a.cfg)
}

func (a *app) startServer() {
	a.apiServer = server.NewServer(a.engine, a.bus, a.redis)
	router := a.apiServer.SetupRoutes()

	a.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", a.cfg.APIHost, a.cfg.APIPort),
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", a.httpServer.Addr))
		err := a.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (a *app) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), a.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	a.apiServer.CloseWebSockets()
	a.bus.Close()

	if err := a.storage.Close(); err != nil {
		slog.Error("Artifact bucket close failed", log.Error(err))
	}
	if err := a.flows.Close(); err != nil {
		slog.Error("Flow bucket close failed", log.Error(err))
	}
	_ = a.redis.Close()

	slog.Info("Server exited")
}
