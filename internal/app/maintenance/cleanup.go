package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sproutbook/sproutbook/internal/models"
	"github.com/sproutbook/sproutbook/pkg/logger"
)

const (
	defaultJobRetentionDays = 30
	defaultInvitationSpec   = "@daily"
	defaultJobSpec          = "@daily"
)

// Cleaner purges storage that no longer affects behaviour: invitations that
// expired without being accepted, and finished export jobs and AI tasks past
// the retention window. Invitation expiry itself is always evaluated lazily
// at access time; this sweep only reclaims rows.
type Cleaner struct {
	db        *gorm.DB
	cron      *cron.Cron
	now       func() time.Time
	log       *zap.Logger
	retention int

	invitationSchedule string
	jobSchedule        string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithJobRetentionDays adjusts how long finished jobs are retained.
func WithJobRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithInvitationSchedule overrides the cron schedule expression for invitation cleanup.
func WithInvitationSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.invitationSchedule = spec
		}
	}
}

// WithJobSchedule overrides the cron schedule expression for job cleanup.
func WithJobSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.jobSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(db *gorm.DB, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:                 db,
		now:                time.Now,
		retention:          defaultJobRetentionDays,
		invitationSchedule: defaultInvitationSpec,
		jobSchedule:        defaultJobSpec,
		log:                logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.db == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.invitationSchedule, func() {
		if _, err := CleanupInvitations(context.Background(), c.db, c.now()); err != nil {
			c.log.Warn("invitation cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	if _, err := c.cron.AddFunc(c.jobSchedule, func() {
		if _, err := CleanupJobs(context.Background(), c.db, c.now(), c.retention); err != nil {
			c.log.Warn("job cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all cleanup routines sequentially. Used in tests and
// during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.db == nil {
		return nil
	}

	var errs error
	if _, err := CleanupInvitations(ctx, c.db, c.now()); err != nil {
		errs = multierr.Append(errs, err)
	}
	if _, err := CleanupJobs(ctx, c.db, c.now(), c.retention); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

// CleanupInvitations deletes invitations that expired without ever being
// accepted. Accepted invitations are kept as an audit trail of how each
// family member was linked.
func CleanupInvitations(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Where("is_accepted = ? AND expires_at < ?", false, now).
		Delete(&models.Invitation{})
	return result.RowsAffected, result.Error
}

// JobCleanupStats captures the number of records removed by CleanupJobs.
type JobCleanupStats struct {
	ExportJobs int64
	AITasks    int64
}

// CleanupJobs deletes completed and failed export jobs and AI tasks older
// than the retention window.
func CleanupJobs(ctx context.Context, db *gorm.DB, now time.Time, retentionDays int) (JobCleanupStats, error) {
	var stats JobCleanupStats
	if retentionDays <= 0 {
		retentionDays = defaultJobRetentionDays
	}
	cutoff := now.AddDate(0, 0, -retentionDays)

	terminal := []models.JobStatus{models.JobCompleted, models.JobFailed}

	result := db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", terminal, cutoff).
		Delete(&models.ExportJob{})
	if result.Error != nil {
		return stats, result.Error
	}
	stats.ExportJobs = result.RowsAffected

	result = db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", terminal, cutoff).
		Delete(&models.AITask{})
	if result.Error != nil {
		return stats, result.Error
	}
	stats.AITasks = result.RowsAffected

	return stats, nil
}
