package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

type daySyncer interface {
	SyncDays(ctx context.Context) (int, error)
}

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers the challenge day sync on schedule, a standard
// cron expression or descriptor such as "@hourly".
func NewScheduler(ctx context.Context, schedule string, challenges daySyncer) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(schedule, func() {
		n, err := challenges.SyncDays(ctx)
		if err != nil {
			slog.Error("sync challenge days", "error", err, "updated", n)
			return
		}
		slog.Debug("challenge days synced", "updated", n)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule day sync %q: %w", schedule, err)
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
