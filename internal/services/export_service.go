package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/sproutbook/sproutbook/internal/access"
	"github.com/sproutbook/sproutbook/internal/features"
	"github.com/sproutbook/sproutbook/internal/models"
	apperrors "github.com/sproutbook/sproutbook/pkg/errors"
)

// ExportService gates and tracks full-album export jobs. Archive assembly is
// the external worker's job.
type ExportService struct {
	db  *gorm.DB
	now func() time.Time
}

// ExportServiceOption customises an ExportService.
type ExportServiceOption func(*ExportService)

// WithExportClock overrides the clock used for feature gates.
func WithExportClock(now func() time.Time) ExportServiceOption {
	return func(s *ExportService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewExportService constructs an ExportService instance.
func NewExportService(db *gorm.DB, opts ...ExportServiceOption) (*ExportService, error) {
	if db == nil {
		return nil, errors.New("export service: db is required")
	}
	svc := &ExportService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Request queues a full export. Strictly the child's owner, and only once
// the full-export feature has unlocked. Only one export may be in flight per
// child.
func (s *ExportService) Request(ctx context.Context, userID, childID string) (*models.ExportJob, error) {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	child, err := loadChild(ctx, s.db, childID)
	if err != nil {
		return nil, err
	}
	if !access.CanExport(user, child) {
		return nil, apperrors.ErrForbidden
	}
	if err := decisionError(access.Evaluate(user, child, features.FullExport, s.now())); err != nil {
		return nil, err
	}

	var inFlight int64
	err = s.db.WithContext(ctx).Model(&models.ExportJob{}).
		Where("child_id = ? AND status IN ?", child.ID, []models.JobStatus{models.JobPending, models.JobProcessing}).
		Count(&inFlight).Error
	if err != nil {
		return nil, fmt.Errorf("export service: check in-flight jobs: %w", err)
	}
	if inFlight > 0 {
		return nil, apperrors.NewBadRequest("an export is already in progress for this child")
	}

	job := &models.ExportJob{
		ChildID:       child.ID,
		RequestedByID: user.ID,
		Status:        models.JobPending,
	}
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("export service: create job: %w", err)
	}
	return job, nil
}

// Get returns one export job. Owner only, same as requesting.
func (s *ExportService) Get(ctx context.Context, userID, jobID string) (*models.ExportJob, error) {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	var job models.ExportJob
	err = s.db.WithContext(ctx).First(&job, "id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("export service: load job: %w", err)
	}

	child, err := loadChild(ctx, s.db, job.ChildID)
	if err != nil {
		return nil, err
	}
	if !access.CanExport(user, child) {
		return nil, apperrors.ErrForbidden
	}
	return &job, nil
}

// List returns the child's export history newest first. Owner only.
func (s *ExportService) List(ctx context.Context, userID, childID string) ([]models.ExportJob, error) {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	child, err := loadChild(ctx, s.db, childID)
	if err != nil {
		return nil, err
	}
	if !access.CanExport(user, child) {
		return nil, apperrors.ErrForbidden
	}

	var jobs []models.ExportJob
	err = s.db.WithContext(ctx).
		Where("child_id = ?", child.ID).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("export service: list jobs: %w", err)
	}
	return jobs, nil
}
