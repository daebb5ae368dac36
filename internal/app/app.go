// Package app assembles the process-wide dependencies shared by the server
// and the operator CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/draftq-processor/internal/config"
	"github.com/andresuchdata/draftq-processor/internal/poller"
	"github.com/andresuchdata/draftq-processor/internal/repository"
	"github.com/andresuchdata/draftq-processor/internal/repository/postgres"
	"github.com/andresuchdata/draftq-processor/internal/service"
	"github.com/andresuchdata/draftq-processor/internal/storage"
	"github.com/rs/zerolog/log"
)

const bucketCheckTimeout = 15 * time.Second

// App holds everything built once at startup and reused for every request.
type App struct {
	Config         *config.Config
	Storage        storage.ObjectStorage
	Poller         *poller.Poller
	Jobs           repository.JobRepository
	ProcessService *service.ProcessService

	db *postgres.DB
}

// New validates cfg, confirms the bucket exists and builds the storage
// client, poller, job history and processing service. Close releases the
// database pool if one was opened.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := storage.NewS3Client(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, bucketCheckTimeout)
	defer cancel()
	if err := store.EnsureBucket(checkCtx, cfg.Storage.Bucket); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return NewWithStorage(ctx, cfg, store)
}

// NewWithStorage is New with a caller-supplied storage backend.
func NewWithStorage(ctx context.Context, cfg *config.Config, store storage.ObjectStorage) (*App, error) {
	a := &App{Config: cfg, Storage: store}

	jobs, err := a.openJobs(ctx)
	if err != nil {
		return nil, err
	}
	a.Jobs = jobs

	a.Poller = poller.New(store, poller.Options{
		Timeout:  cfg.Processing.PollTimeout(),
		Interval: cfg.Processing.PollInterval(),
	})

	a.ProcessService = service.NewProcessService(store, a.Poller, nil, jobs, service.ProcessConfig{
		Bucket:            cfg.Storage.Bucket,
		LinkExpiry:        cfg.Processing.LinkExpiry(),
		InputSuffix:       cfg.Processing.InputSuffix,
		OutputSuffix:      cfg.Processing.OutputSuffix,
		ScratchDir:        cfg.Processing.ScratchDir,
		MaxConcurrentJobs: cfg.Processing.MaxConcurrentJobs,
	})

	log.Info().
		Str("bucket", cfg.Storage.Bucket).
		Dur("poll_timeout", a.Poller.Timeout()).
		Dur("poll_interval", a.Poller.Interval()).
		Bool("job_db", cfg.Database.Enabled).
		Msg("processor initialized")

	return a, nil
}

func (a *App) openJobs(ctx context.Context) (repository.JobRepository, error) {
	if !a.Config.Database.Enabled {
		return repository.NewMemoryJobRepository(0), nil
	}

	db, err := postgres.NewDB(&a.Config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to job database: %w", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	a.db = db
	return postgres.NewJobRepository(db), nil
}

func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
