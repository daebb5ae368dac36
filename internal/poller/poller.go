// Package poller waits for an object to appear in a bucket.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/draftq-processor/internal/domain"
	"github.com/andresuchdata/draftq-processor/internal/storage"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultInterval = 2 * time.Second
)

// ExistenceChecker is the slice of ObjectStorage the poller needs.
type ExistenceChecker interface {
	StatObject(ctx context.Context, bucket, key string) (storage.ObjectInfo, error)
}

type Options struct {
	Timeout  time.Duration
	Interval time.Duration
}

// Poller repeatedly checks for an object until it exists or Timeout elapses.
// There is no backoff or jitter; the only bound is wall-clock time.
type Poller struct {
	checker  ExistenceChecker
	timeout  time.Duration
	interval time.Duration
	now      func() time.Time
}

// New returns a Poller. Non-positive durations fall back to the defaults.
func New(checker ExistenceChecker, opts Options) *Poller {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Poller{
		checker:  checker,
		timeout:  opts.Timeout,
		interval: opts.Interval,
		now:      time.Now,
	}
}

func (p *Poller) Timeout() time.Duration  { return p.timeout }
func (p *Poller) Interval() time.Duration { return p.interval }

// Wait returns domain.Found as soon as the object exists and domain.TimedOut
// once more than Timeout has passed without seeing it. Storage errors other
// than storage.ErrNotFound are returned immediately without retrying.
func (p *Poller) Wait(ctx context.Context, bucket, key string) (domain.PollOutcome, error) {
	if bucket == "" || key == "" {
		return domain.TimedOut, fmt.Errorf("bucket and key are required: %w", domain.ErrInvalidRequest)
	}

	start := p.now()

	for attempt := 1; ; attempt++ {
		_, err := p.checker.StatObject(ctx, bucket, key)
		elapsed := p.now().Sub(start)

		switch {
		case err == nil:
			log.Debug().
				Str("bucket", bucket).
				Str("key", key).
				Int("attempt", attempt).
				Dur("elapsed", elapsed).
				Msg("object found")
			return domain.Found, nil
		case ctx.Err() != nil:
			return domain.TimedOut, ctx.Err()
		case !errors.Is(err, storage.ErrNotFound):
			return domain.TimedOut, domain.NewBackendError("stat", key, err)
		}

		remaining := p.timeout - elapsed
		if remaining <= 0 {
			log.Debug().
				Str("bucket", bucket).
				Str("key", key).
				Int("attempts", attempt).
				Dur("elapsed", elapsed).
				Msg("gave up waiting for object")
			return domain.TimedOut, nil
		}

		log.Debug().
			Str("key", key).
			Int("attempt", attempt).
			Dur("elapsed", elapsed).
			Msg("object not there yet")

		wait := p.interval
		if remaining < wait {
			// Sleep just past the deadline so the next check is the last one.
			wait = remaining + time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.TimedOut, ctx.Err()
		case <-timer.C:
		}
	}
}
