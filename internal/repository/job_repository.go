package repository

import (
	"context"
	"sync"

	"github.com/andresuchdata/draftq-processor/internal/domain"
)

// JobRepository stores the history of processing runs.
type JobRepository interface {
	SaveJob(ctx context.Context, job *domain.Job) error
	ListRecentJobs(ctx context.Context, limit int) ([]*domain.Job, error)
}

const defaultMemoryJobCapacity = 256

// MemoryJobRepository keeps the most recent jobs in a fixed-size ring. It is
// used when no database is configured.
type MemoryJobRepository struct {
	mu   sync.Mutex
	jobs []*domain.Job
	next int
	full bool
}

func NewMemoryJobRepository(capacity int) *MemoryJobRepository {
	if capacity <= 0 {
		capacity = defaultMemoryJobCapacity
	}
	return &MemoryJobRepository{jobs: make([]*domain.Job, capacity)}
}

func (r *MemoryJobRepository) SaveJob(_ context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *job
	r.jobs[r.next] = &copied
	r.next = (r.next + 1) % len(r.jobs)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

// ListRecentJobs returns up to limit jobs, newest first.
func (r *MemoryJobRepository) ListRecentJobs(_ context.Context, limit int) ([]*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	if r.full {
		size = len(r.jobs)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]*domain.Job, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (r.next - i + len(r.jobs)) % len(r.jobs)
		copied := *r.jobs[idx]
		out = append(out, &copied)
	}
	return out, nil
}

var _ JobRepository = (*MemoryJobRepository)(nil)
