// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"veilgate/internal/shared/biztime"
	"veilgate/internal/shared/logger"
)

// Job defines the interface for a scheduled settlement or maintenance job.
type Job interface {
	Execute(ctx context.Context) error
}

// Manager manages all scheduled jobs using gocron v2.
// Every job runs in singleton mode: a cycle that is still running when
// the next tick arrives causes the tick to be skipped, never stacked.
type Manager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	// Track whether the scheduler has been started
	started   bool
	startedMu sync.RWMutex
}

// NewManager creates a new Manager instance. All job clocks run in UTC.
func NewManager(log logger.Interface) (*Manager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &Manager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// ========================================
// Usage Recording Jobs
// ========================================

// RegisterUsageRecordingJobs registers the two settlement jobs:
// - User settlement: per-user counters from healthy nodes
// - Node settlement: outbound counters from healthy nodes
// First runs are staggered so the jobs do not hit the fleet together.
func (m *Manager) RegisterUsageRecordingJobs(
	userJob Job,
	nodeJob Job,
	userInterval time.Duration,
	nodeInterval time.Duration,
) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(userInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			m.runJob(ctx, "record-user-usages", userJob)
		}),
		gocron.WithStartAt(gocron.WithStartDateTime(biztime.NowUTC().Add(30*time.Second))),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("usage", "users"),
		gocron.WithName("record-user-usages"),
	)
	if err != nil {
		return err
	}

	_, err = m.scheduler.NewJob(
		gocron.DurationJob(nodeInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			m.runJob(ctx, "record-node-usages", nodeJob)
		}),
		gocron.WithStartAt(gocron.WithStartDateTime(biztime.NowUTC().Add(15*time.Second))),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("usage", "nodes"),
		gocron.WithName("record-node-usages"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered usage recording jobs",
		"user_interval", userInterval,
		"node_interval", nodeInterval,
	)
	return nil
}

// ========================================
// Node Health Job
// ========================================

// RegisterNodeHealthJob registers the node health probe job.
func (m *Manager) RegisterNodeHealthJob(checker Job, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			m.runJob(ctx, "check-node-health", checker)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("node", "health"),
		gocron.WithName("check-node-health"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered node health job", "interval", interval)
	return nil
}

func (m *Manager) runJob(ctx context.Context, name string, job Job) {
	log := m.logger.With("job", name)
	log.Debugw("scheduled job started")

	startTime := biztime.NowUTC()
	if err := job.Execute(ctx); err != nil {
		// Don't log error if context was cancelled (graceful shutdown)
		if ctx.Err() != nil {
			return
		}
		log.Errorw("scheduled job failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	log.Debugw("scheduled job completed",
		"duration", time.Since(startTime),
	)
}

// ========================================
// Scheduler Lifecycle Methods
// ========================================

// Start starts the scheduler and all registered jobs.
func (m *Manager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
func (m *Manager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *Manager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *Manager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
