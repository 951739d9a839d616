// Package worker holds the scheduled jobs and HTTP endpoints of the ledger worker.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/paperlus/ledger/internal/subscriptions/application/commands"
	"github.com/paperlus/ledger/pkg/observability"
)

// jobTimeout bounds a single job run.
const jobTimeout = 2 * time.Minute

// Expirer runs the expiry sweep.
type Expirer interface {
	Handle(ctx context.Context, cmd commands.ExpireLapsedCommand) (*commands.ExpireLapsedResult, error)
}

// OutboxCleaner deletes published outbox messages past retention.
type OutboxCleaner interface {
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}

// SchedulerConfig configures the cron jobs. An empty schedule disables its job.
type SchedulerConfig struct {
	ExpirySchedule        string
	OutboxCleanupSchedule string
	OutboxRetentionDays   int
	OperatorID            uuid.UUID
}

// Jobs are the units of work the scheduler runs.
type Jobs struct {
	expirer Expirer
	cleaner OutboxCleaner
	cfg     SchedulerConfig
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewJobs creates the worker jobs.
func NewJobs(expirer Expirer, cleaner OutboxCleaner, cfg SchedulerConfig, logger *slog.Logger) *Jobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &Jobs{expirer: expirer, cleaner: cleaner, cfg: cfg, logger: logger, metrics: observability.NoopMetrics{}}
}

// WithMetrics counts every job run under MetricJobRuns.
func (j *Jobs) WithMetrics(m observability.Metrics) *Jobs {
	if m != nil {
		j.metrics = m
	}
	return j
}

func (j *Jobs) recordRun(job string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	j.metrics.Counter(observability.MetricJobRuns, 1, observability.T("job", job), observability.T("outcome", outcome))
}

// ExpireLapsed marks subscriptions that ended before today as expired.
func (j *Jobs) ExpireLapsed() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result, err := j.expirer.Handle(ctx, commands.ExpireLapsedCommand{OperatorID: j.cfg.OperatorID})
	j.recordRun("expire_lapsed", err)
	if err != nil {
		j.logger.Error("expiry sweep failed", "error", err)
		return
	}
	j.logger.Info("expiry sweep completed", "expired", result.Expired, "as_of", result.AsOf.Format(time.DateOnly))
}

// CleanupOutbox removes old published outbox messages.
func (j *Jobs) CleanupOutbox() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	deleted, err := j.cleaner.DeleteOld(ctx, j.cfg.OutboxRetentionDays)
	j.recordRun("outbox_cleanup", err)
	if err != nil {
		j.logger.Error("outbox cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		j.logger.Info("outbox cleanup completed", "deleted", deleted, "retention_days", j.cfg.OutboxRetentionDays)
	}
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	config SchedulerConfig
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, cfg SchedulerConfig) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
}

// Register adds the configured jobs and returns how many were scheduled.
// A malformed schedule is an error.
func (s *Scheduler) Register() (int, error) {
	scheduled := 0
	for _, job := range []struct {
		name     string
		schedule string
		run      func()
	}{
		{"expiry sweep", s.config.ExpirySchedule, s.jobs.ExpireLapsed},
		{"outbox cleanup", s.config.OutboxCleanupSchedule, s.jobs.CleanupOutbox},
	} {
		if job.schedule == "" {
			s.logger.Info("job disabled", "job", job.name)
			continue
		}
		if _, err := s.cron.AddFunc(job.schedule, job.run); err != nil {
			return scheduled, &ScheduleError{Job: job.name, Schedule: job.schedule, Err: err}
		}
		s.logger.Info("scheduled job", "job", job.name, "schedule", job.schedule)
		scheduled++
	}
	return scheduled, nil
}

// Start starts the cron scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler; the returned context is done when running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Entries returns the number of scheduled jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// ScheduleError reports a job whose cron expression could not be parsed.
type ScheduleError struct {
	Job      string
	Schedule string
	Err      error
}

func (e *ScheduleError) Error() string {
	return "invalid schedule " + e.Schedule + " for " + e.Job + ": " + e.Err.Error()
}

func (e *ScheduleError) Unwrap() error {
	return e.Err
}
