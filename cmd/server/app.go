package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/darvell/inkmill/internal/api"
	"github.com/darvell/inkmill/internal/cache"
	"github.com/darvell/inkmill/internal/config"
	"github.com/darvell/inkmill/internal/events"
	"github.com/darvell/inkmill/internal/governor"
	"github.com/darvell/inkmill/internal/platform/openai"
	"github.com/darvell/inkmill/internal/platform/postgres"
	"github.com/darvell/inkmill/internal/platform/rediscache"
	"github.com/darvell/inkmill/internal/service"
	"github.com/darvell/inkmill/internal/store"
	"github.com/darvell/inkmill/internal/task"
)

// application holds the shared application dependencies so initialization
// and shutdown stay in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// redisStore is nil when the cache backend is postgres.
	redisStore *rediscache.Store

	subjectStore  store.SubjectStore
	queueStore    task.QueueStore
	artifactCache *cache.Cache

	orchestrator *service.Orchestrator
	eventEmitter events.EventEmitter
	taskRunner   *task.Runner
}

// newApplication wires all dependencies together: stores, the artifact
// cache, the LLM gateway, the orchestrator, the event emitter, and the
// background queue runner.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.subjectStore = postgres.NewSubjectStore(db, logger)
	app.queueStore = postgres.NewQueueStore(db, logger)

	artifactStore, err := app.setupArtifactStore(ctx)
	if err != nil {
		return nil, err
	}
	app.artifactCache = cache.New(artifactStore, cache.Policy{TTLSeconds: cfg.Cache.TTLSeconds}, logger)
	logger.Info("Artifact cache initialized",
		"backend", cfg.Cache.Backend,
		"ttl_seconds", cfg.Cache.TTLSeconds)

	gateway, err := openai.New(cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM gateway: %w", err)
	}
	logger.Info("LLM gateway initialized",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model)

	gov := governor.New(map[string]int64{
		governor.ResourceConcurrency: int64(cfg.Governor.MaxConcurrent),
		governor.ResourceMemory:      cfg.Governor.MemoryLimitBytes,
	})

	app.orchestrator = service.NewOrchestrator(
		app.artifactCache,
		gateway,
		gov,
		cfg.Generate,
		cfg.Governor,
		logger,
	)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.(*events.InMemoryEventEmitter).RegisterHandler(
		task.NewEnqueueHandler(app.queueStore, logger))

	if err := app.setupTaskRunner(); err != nil {
		return nil, err
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// setupArtifactStore selects the cache backing store from configuration.
func (app *application) setupArtifactStore(ctx context.Context) (store.ArtifactStore, error) {
	switch app.config.Cache.Backend {
	case "redis":
		ttl := time.Duration(app.config.Cache.TTLSeconds) * time.Second
		if ttl < 0 {
			ttl = 0
		}
		app.redisStore = rediscache.New(
			&redis.Options{Addr: app.config.Cache.RedisAddr},
			ttl,
			app.logger,
		)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := app.redisStore.Ping(pingCtx); err != nil {
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return app.redisStore, nil

	case "postgres":
		return postgres.NewArtifactStore(app.db, app.logger), nil

	default:
		return nil, fmt.Errorf("unknown cache backend: %q", app.config.Cache.Backend)
	}
}

// setupTaskRunner starts the background queue runner with the configured
// worker pool, claim batching, and throttling.
func (app *application) setupTaskRunner() error {
	runnerCfg := task.DefaultRunnerConfig()
	runnerCfg.WorkerCount = app.config.Queue.WorkerCount
	runnerCfg.BatchSize = app.config.Queue.BatchSize
	runnerCfg.MaxLoad = app.config.Queue.MaxLoad
	runnerCfg.Lease = time.Duration(app.config.Queue.LeaseMinutes) * time.Minute
	runnerCfg.MaxRetries = app.config.Queue.MaxRetries
	runnerCfg.ThrottleEvery = app.config.Queue.ThrottleEvery
	runnerCfg.MinTaskInterval = time.Duration(app.config.Queue.MinTaskIntervalMS) * time.Millisecond

	exec := service.NewGenerationTaskExecutor(app.subjectStore, app.orchestrator, app.logger)
	app.taskRunner = task.NewRunner(app.queueStore, exec, runnerCfg, app.logger)

	if err := app.taskRunner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}
	return nil
}

// setupRouter builds the HTTP route tree from the application dependencies.
func (app *application) setupRouter() http.Handler {
	contentHandler := api.NewContentHandler(
		app.subjectStore,
		app.orchestrator,
		app.artifactCache,
		app.logger,
	)
	taskHandler := api.NewTaskHandler(
		app.queueStore,
		app.subjectStore,
		app.eventEmitter,
		app.logger,
	)
	return api.NewRouter(contentHandler, taskHandler, app.healthCheck)
}

// healthCheck verifies the database connection before reporting healthy.
func (app *application) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := app.db.PingContext(ctx); err != nil {
		app.logger.Error("health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("database unavailable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Run starts the HTTP server and blocks until shutdown.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.redisStore != nil {
		if err := app.redisStore.Close(); err != nil {
			app.logger.Error("Error closing redis connection", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
