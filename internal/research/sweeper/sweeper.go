// Package sweeper periodically fails research sessions that stopped making
// progress, e.g. after a crash or a hung upstream call.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type staleFailer interface {
	FailStale(ctx context.Context, maxAge time.Duration) (int, error)
}

type Config struct {
	// Schedule is a cron expression; "@every 1m" when empty.
	Schedule string
	// MaxAge is how long a session may sit in one running status.
	MaxAge time.Duration
}

type Sweeper struct {
	uc     staleFailer
	maxAge time.Duration
	cron   *cron.Cron
}

func New(uc staleFailer, cfg Config) (*Sweeper, error) {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = "@every 1m"
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 15 * time.Minute
	}

	s := &Sweeper{uc: uc, maxAge: maxAge, cron: cron.New()}

	var job cron.Job = cron.FuncJob(func() { s.run(context.Background()) })
	job = cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(job)
	if _, err := s.cron.AddJob(schedule, job); err != nil {
		return nil, fmt.Errorf("invalid sweeper schedule %q: %w", schedule, err)
	}

	return s, nil
}

func (s *Sweeper) Start() {
	slog.Info("starting stale session sweeper", "max_age", s.maxAge)
	s.cron.Start()
}

// Stop waits for a running sweep to finish or ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) run(ctx context.Context) int {
	n, err := s.uc.FailStale(ctx, s.maxAge)
	if err != nil {
		slog.ErrorContext(ctx, "stale session sweep failed", "error", err)
	}
	if n > 0 {
		slog.WarnContext(ctx, "stale sessions marked failed", "count", n)
	}
	return n
}
