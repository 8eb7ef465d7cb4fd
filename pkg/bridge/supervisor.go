package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Task is a restartable unit of execution. It blocks until it fails or ctx
// is cancelled.
type Task func(ctx context.Context) error

// Supervisor restarts a failed task with capped exponential backoff instead
// of letting a single escaped error end the process. The broker side does
// not need this treatment: its client reconnects on its own.
type Supervisor struct {
	log        zerolog.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewSupervisor returns a supervisor with 1s..60s backoff.
func NewSupervisor(log zerolog.Logger) *Supervisor {
	return &Supervisor{
		log:        log.With().Str("component", "supervisor").Logger(),
		minBackoff: time.Second,
		maxBackoff: 60 * time.Second,
	}
}

// Run executes task, restarting it whenever it stops, until ctx is
// cancelled. A run that outlives the current backoff resets the backoff.
// Returns ctx.Err() on cancellation.
func (s *Supervisor) Run(ctx context.Context, name string, task Task) error {
	backoff := s.minBackoff
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		started := time.Now()
		err := task(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			// A task has no normal exit other than cancellation.
			err = errors.New("task stopped without error")
		}

		if time.Since(started) > backoff {
			backoff = s.minBackoff
		}
		s.log.Error().Err(err).Str("task", name).Dur("backoff", backoff).Msg("task failed, restarting")
		sleep(ctx, backoff)
		backoff = nextBackoff(backoff, s.maxBackoff)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func nextBackoff(cur, max time.Duration) time.Duration {
	n := cur * 2
	if n > max {
		return max
	}
	return n
}
