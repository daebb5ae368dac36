package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresuchdata/draftq-processor/internal/domain"
	"github.com/andresuchdata/draftq-processor/internal/extract"
	"github.com/andresuchdata/draftq-processor/internal/poller"
	"github.com/andresuchdata/draftq-processor/internal/repository"
	"github.com/andresuchdata/draftq-processor/internal/spreadsheet"
	"github.com/andresuchdata/draftq-processor/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

const DefaultLinkExpiry = time.Hour

// Scratch file names are fixed; the per-job directory keeps them apart and
// keys can be longer than a file name may be.
const (
	scratchSourceName = "source"
	scratchOutputName = "output.xlsx"
)

type ProcessConfig struct {
	Bucket            string
	LinkExpiry        time.Duration
	InputSuffix       string
	OutputSuffix      string
	ScratchDir        string
	MaxConcurrentJobs int
}

// ProcessService waits for a source object, turns it into a spreadsheet,
// uploads the result next to it and returns a presigned link.
type ProcessService struct {
	store     storage.ObjectStorage
	poller    *poller.Poller
	extractor extract.Extractor
	jobs      repository.JobRepository
	cfg       ProcessConfig
	sem       *semaphore.Weighted
	now       func() time.Time
}

// NewProcessService wires the pipeline. A nil extractor means the
// placeholder BOQ stub; a nil job repository keeps history in memory.
func NewProcessService(
	store storage.ObjectStorage,
	p *poller.Poller,
	extractor extract.Extractor,
	jobs repository.JobRepository,
	cfg ProcessConfig,
) *ProcessService {
	if extractor == nil {
		extractor = extract.Placeholder{}
	}
	if jobs == nil {
		jobs = repository.NewMemoryJobRepository(0)
	}
	if cfg.LinkExpiry <= 0 {
		cfg.LinkExpiry = DefaultLinkExpiry
	}
	if cfg.InputSuffix == "" {
		cfg.InputSuffix = "input.pdf"
	}
	if cfg.OutputSuffix == "" {
		cfg.OutputSuffix = "output.xlsx"
	}

	var sem *semaphore.Weighted
	if cfg.MaxConcurrentJobs > 0 {
		sem = semaphore.NewWeighted(int64(cfg.MaxConcurrentJobs))
	}

	return &ProcessService{
		store:     store,
		poller:    p,
		extractor: extractor,
		jobs:      jobs,
		cfg:       cfg,
		sem:       sem,
		now:       time.Now,
	}
}

// Process runs the full pipeline for one source key. Errors are classified
// as domain.ErrInvalidRequest, domain.ErrObjectNotFound or *domain.BackendError;
// anything else is an internal failure. Every call is recorded as a job.
// The key is used as given; surrounding whitespace only matters for the
// emptiness check.
func (s *ProcessService) Process(ctx context.Context, sourceKey string) (*domain.RetrievalLink, error) {
	if strings.TrimSpace(sourceKey) == "" {
		err := fmt.Errorf("source key is empty: %w", domain.ErrInvalidRequest)
		now := s.now()
		s.record(&domain.Job{
			ID:         uuid.New(),
			SourceKey:  sourceKey,
			Status:     domain.JobStatusFromError(err),
			Error:      err.Error(),
			StartedAt:  now,
			FinishedAt: now,
		})
		return nil, err
	}

	job := &domain.Job{
		ID:        uuid.New(),
		SourceKey: sourceKey,
		OutputKey: DeriveOutputKey(sourceKey, s.cfg.InputSuffix, s.cfg.OutputSuffix),
		StartedAt: s.now(),
	}

	var link *domain.RetrievalLink
	var err error
	if s.sem != nil {
		if acqErr := s.sem.Acquire(ctx, 1); acqErr != nil {
			err = fmt.Errorf("could not acquire job slot: %w", acqErr)
		} else {
			defer s.sem.Release(1)
		}
	}
	if err == nil {
		link, err = s.run(ctx, job)
	}

	job.FinishedAt = s.now()
	job.Status = domain.JobStatusFromError(err)
	if err != nil {
		job.Error = err.Error()
	}
	s.record(job)

	return link, err
}

// Jobs returns up to limit recent jobs, newest first.
func (s *ProcessService) Jobs(ctx context.Context, limit int) ([]*domain.Job, error) {
	return s.jobs.ListRecentJobs(ctx, limit)
}

func (s *ProcessService) run(ctx context.Context, job *domain.Job) (*domain.RetrievalLink, error) {
	logger := log.With().Str("job_id", job.ID.String()).Str("key", job.SourceKey).Logger()

	outcome, err := s.poller.Wait(ctx, s.cfg.Bucket, job.SourceKey)
	if err != nil {
		return nil, err
	}
	if outcome == domain.TimedOut {
		return nil, fmt.Errorf("%q not present after %s: %w", job.SourceKey, s.poller.Timeout(), domain.ErrObjectNotFound)
	}

	scratch, err := os.MkdirTemp(s.cfg.ScratchDir, "draftq-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logger.Warn().Err(err).Str("dir", scratch).Msg("failed to remove scratch dir")
		}
	}()

	srcPath := filepath.Join(scratch, scratchSourceName)
	if err := s.store.DownloadObject(ctx, s.cfg.Bucket, job.SourceKey, srcPath); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%q vanished before download: %w", job.SourceKey, domain.ErrObjectNotFound)
		}
		return nil, domain.NewBackendError("download", job.SourceKey, err)
	}

	doc := domain.Document{Key: job.SourceKey, Path: srcPath}
	if fi, err := os.Stat(srcPath); err == nil {
		doc.Size = fi.Size()
	}

	table, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("extract %q: %w", job.SourceKey, err)
	}

	outPath := filepath.Join(scratch, scratchOutputName)
	if err := spreadsheet.WriteXLSX(table, outPath); err != nil {
		return nil, err
	}

	if err := s.store.UploadObject(ctx, s.cfg.Bucket, job.OutputKey, outPath, spreadsheet.ContentType); err != nil {
		return nil, domain.NewBackendError("upload", job.OutputKey, err)
	}

	issued := s.now()
	url, err := s.store.PresignGetObject(ctx, s.cfg.Bucket, job.OutputKey, s.cfg.LinkExpiry)
	if err != nil {
		return nil, domain.NewBackendError("presign", job.OutputKey, err)
	}

	logger.Info().
		Str("output_key", job.OutputKey).
		Int("rows", len(table.Rows)).
		Msg("spreadsheet uploaded")

	return &domain.RetrievalLink{
		URL:       url,
		Key:       job.OutputKey,
		ExpiresAt: issued.Add(s.cfg.LinkExpiry).UTC(),
	}, nil
}

// record never fails the request; history is best effort.
func (s *ProcessService) record(job *domain.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.jobs.SaveJob(ctx, job); err != nil {
		log.Warn().Err(err).Str("job_id", job.ID.String()).Msg("failed to record job")
	}
}

// DeriveOutputKey maps a source key to the key its spreadsheet is stored
// under. A key ending in inputSuffix has that suffix replaced; any other key
// loses its extension and gains "-" + outputSuffix, so the result never
// equals the source key.
func DeriveOutputKey(key, inputSuffix, outputSuffix string) string {
	if inputSuffix != "" && strings.HasSuffix(key, inputSuffix) {
		return strings.TrimSuffix(key, inputSuffix) + outputSuffix
	}
	return strings.TrimSuffix(key, path.Ext(key)) + "-" + outputSuffix
}
