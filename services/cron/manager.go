package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/eduplatform-api/model"
	"github.com/sahilchouksey/eduplatform-api/services"
	"github.com/sahilchouksey/eduplatform-api/utils/auth"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
	"gorm.io/gorm"
)

// jobTimeout bounds a single run of any job
const jobTimeout = 10 * time.Minute

// DeliveryRetrier re-sends failed emails. Implemented by notify.Dispatcher.
type DeliveryRetrier interface {
	RetryFailed(ctx context.Context) (int, error)
}

// Deps are the services the jobs drive
type Deps struct {
	Deliveries    DeliveryRetrier
	Blacklist     *auth.BlacklistService
	Notifications *services.NotificationService
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron *cron.Cron
	db   *gorm.DB
	log  *logger.Logger
	deps Deps
	now  func() time.Time
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, log *logger.Logger, deps Deps) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))

	return &CronManager{
		cron: c,
		db:   db,
		log:  log.With("component", "cron"),
		deps: deps,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Start registers all jobs and starts the scheduler
func (m *CronManager) Start() error {
	m.log.Info("starting cron jobs")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	m.log.Info("cron jobs started", "jobs", len(m.cron.Entries()))
	return nil
}

// Stop stops the scheduler and waits for running jobs, or for ctx
func (m *CronManager) Stop(ctx context.Context) error {
	m.log.Info("stopping cron jobs")
	done := m.cron.Stop()

	select {
	case <-done.Done():
		m.log.Info("cron jobs stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cron jobs still running: %w", ctx.Err())
	}
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	jobs := []struct {
		spec string
		name string
		fn   func(context.Context) (string, error)
	}{
		// Every 5 minutes: re-send failed email deliveries
		{"0 */5 * * * *", "retry_email_deliveries", m.RetryEmailDeliveries},
		// Every hour: expired JWT blacklist entries and reset tokens
		{"0 0 * * * *", "cleanup_expired_tokens", m.CleanupExpiredTokens},
		// Daily at 3 AM: read notifications older than 30 days
		{"0 0 3 * * *", "cleanup_old_notifications", m.CleanupOldNotifications},
		// Daily at 8 AM: deadline reminders for the next 24 hours
		{"0 0 8 * * *", "deadline_reminders", m.SendDeadlineReminders},
	}

	for _, job := range jobs {
		job := job
		if _, err := m.cron.AddFunc(job.spec, func() { m.run(job.name, job.fn) }); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.name, err)
		}
	}

	m.log.Info("all cron jobs registered")
	return nil
}

// run executes fn with a CronJobLog row tracking it
func (m *CronManager) run(jobName string, fn func(context.Context) (string, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := m.now()
	m.log.Info("starting job", "job", jobName)

	cronLog := model.CronJobLog{
		JobName:   jobName,
		Status:    model.CronStatusRunning,
		StartedAt: started,
	}
	if err := m.db.WithContext(ctx).Create(&cronLog).Error; err != nil {
		m.log.Error("failed to record job start", "job", jobName, "error", err)
	}

	message, err := fn(ctx)

	completed := m.now()
	updates := map[string]interface{}{
		"completed_at": completed,
		"duration":     completed.Sub(started).Milliseconds(),
		"message":      message,
	}
	if err != nil {
		m.log.Error("job failed", "job", jobName, "error", err)
		updates["status"] = model.CronStatusFailed
		updates["error_msg"] = err.Error()
	} else {
		m.log.Info("job completed", "job", jobName, "message", message)
		updates["status"] = model.CronStatusCompleted
	}

	if cronLog.ID != 0 {
		if err := m.db.WithContext(context.WithoutCancel(ctx)).Model(&model.CronJobLog{}).Where("id = ?", cronLog.ID).Updates(updates).Error; err != nil {
			m.log.Error("failed to record job result", "job", jobName, "error", err)
		}
	}
}
