package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/draftq-processor/internal/domain"
	"github.com/jmoiron/sqlx"
)

type jobRepository struct {
	db *DB
}

func NewJobRepository(db *DB) *jobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) SaveJob(ctx context.Context, job *domain.Job) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO processing_jobs (
				id, source_key, output_key, status, error, started_at, finished_at
			) VALUES (:id, :source_key, :output_key, :status, :error, :started_at, :finished_at)
			ON CONFLICT (id)
			DO UPDATE SET
				output_key = EXCLUDED.output_key,
				status = EXCLUDED.status,
				error = EXCLUDED.error,
				finished_at = EXCLUDED.finished_at
		`
		if _, err := tx.NamedExecContext(ctx, query, job); err != nil {
			return fmt.Errorf("failed to save job %s: %w", job.ID, err)
		}
		return nil
	})
}

func (r *jobRepository) ListRecentJobs(ctx context.Context, limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, source_key, output_key, status, error, started_at, finished_at
		FROM processing_jobs
		ORDER BY started_at DESC
		LIMIT $1
	`
	var jobs []*domain.Job
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}
