// Package schedule runs the full pipeline on a fixed interval until canceled.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/prerender/internal/logfields"
)

// RunFunc executes one pipeline run.
type RunFunc func(ctx context.Context) error

// Scheduler wraps a gocron scheduler with a single singleton job.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// New creates a scheduler.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Every schedules run at interval, starting immediately. Runs never overlap: a
// tick that arrives while a run is in progress is rescheduled. Run errors are
// logged and do not stop the schedule.
func (s *Scheduler) Every(ctx context.Context, interval time.Duration, run RunFunc) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("schedule interval must be positive, got %s", interval)
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			slog.Info("Executing scheduled run", slog.Duration("interval", interval))
			if err := run(ctx); err != nil {
				slog.Error("Scheduled run failed", logfields.Error(err))
			}
		}),
		gocron.WithName("prerender-run"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create periodic run job: %w", err)
	}
	return job.ID().String(), nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop waits for a running job and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// Run schedules run every interval and blocks until ctx is canceled.
func Run(ctx context.Context, interval time.Duration, run RunFunc) error {
	s, err := New()
	if err != nil {
		return err
	}
	if _, err := s.Every(ctx, interval, run); err != nil {
		_ = s.Stop()
		return err
	}
	s.Start()
	<-ctx.Done()
	return s.Stop()
}
