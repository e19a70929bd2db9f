// Package scheduler runs the daily track-of-the-day post on a cron spec.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/2qar/trackmania-bot/internal/pkg/logger"
)

// Job is the work the schedule triggers.
type Job interface {
	PostDailyTOTD(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	job     Job
	spec    string
	timeout time.Duration
}

// New validates spec (standard 5-field cron, UTC) without starting anything.
func New(spec string, job Job) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		job:     job,
		spec:    spec,
		timeout: 2 * time.Minute,
	}, nil
}

// Start registers the job and begins ticking. The schedule keeps running
// until Stop; ctx bounds each individual run, not the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) })
	if err != nil {
		return fmt.Errorf("schedule daily post: %w", err)
	}
	s.cron.Start()
	logger.Logger.Info().Str("spec", s.spec).Msg("daily totd schedule started")
	return nil
}

// Stop halts the ticker and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.job.PostDailyTOTD(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("daily totd post failed")
		return
	}
	logger.Logger.Info().Dur("duration", time.Since(start)).Msg("daily totd posted")
}
