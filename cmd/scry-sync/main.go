// Package main implements the entry point for the scry sync engine,
// which keeps a local flashcard study state synchronized with remote
// entity feeds and schedules reviews with spaced repetition.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-sync/internal/config"
	"github.com/phrazzld/scry-sync/internal/dueindex"
	"github.com/phrazzld/scry-sync/internal/events"
	"github.com/phrazzld/scry-sync/internal/platform/logger"
	"github.com/phrazzld/scry-sync/internal/reconcile"
	"github.com/phrazzld/scry-sync/internal/session"
	"github.com/phrazzld/scry-sync/internal/srs"
	"github.com/phrazzld/scry-sync/internal/store"
	"github.com/phrazzld/scry-sync/internal/task"
)

// application holds the composed engine. The embedding program attaches
// entity feeds to the reconciler and a persistence committer to the
// session manager; run standalone the engine idles with an empty store.
type application struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *store.EntityStore
	index      *dueindex.DueSetIndex
	reconciler *reconcile.Reconciler
	emitter    *events.InMemoryEventEmitter
	sessions   *session.Manager
	runner     *task.Runner
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.runner.Start()
	app.logger.Info("sync engine running")

	<-ctx.Done()

	app.logger.Info("shutdown signal received")
	app.runner.Stop()
	app.logger.Info("sync engine stopped")
}

// initializeApp loads configuration and wires the engine components
// together. Returns the composed application or any initialization error.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("configuration loaded",
		"log_level", cfg.Logging.Level,
		"batch_size", cfg.Review.BatchSize,
		"pending_timeout", cfg.Sync.PendingTimeout.String())

	entityStore := store.NewEntityStore(appLogger, nil)

	index := dueindex.NewDueSetIndex(appLogger)
	entityStore.RegisterObserver(index)

	reconciler := reconcile.New(entityStore, appLogger, reconcile.Options{
		PendingTimeout: cfg.Sync.PendingTimeout,
	})

	emitter := events.NewInMemoryEventEmitter(appLogger)

	scheduler := srs.NewServiceWithParams(cfg.SRS.SchedulerParams())

	sessions := session.NewManager(
		entityStore,
		index,
		reconciler,
		scheduler,
		nil, // committer supplied by the embedding program
		emitter,
		appLogger,
		session.Config{
			BatchSize:      cfg.Review.BatchSize,
			CommitAttempts: cfg.Review.CommitAttempts,
			CommitDelay:    cfg.Review.CommitDelay,
		},
	)

	runner := task.NewRunner(appLogger)
	runner.Register(&task.TombstonePurgeJob{
		Store:     entityStore,
		Retention: cfg.Sync.TombstoneRetention,
		Every:     cfg.Sync.TombstonePurgeInterval,
		Logger:    appLogger,
	})
	runner.Register(&task.OrphanSweepJob{
		Reconciler: reconciler,
		Every:      cfg.Sync.OrphanSweepInterval,
		Logger:     appLogger,
	})
	if cfg.Review.DueThreshold > 0 {
		runner.Register(&task.DueThresholdJob{
			Store:     entityStore,
			Index:     index,
			Emitter:   emitter,
			UserID:    uuid.Nil, // replaced once the embedding program authenticates
			Threshold: cfg.Review.DueThreshold,
			Every:     cfg.Review.DueCheckInterval,
			Logger:    appLogger,
		})
	}

	return &application{
		cfg:        cfg,
		logger:     appLogger,
		store:      entityStore,
		index:      index,
		reconciler: reconciler,
		emitter:    emitter,
		sessions:   sessions,
		runner:     runner,
	}, nil
}
