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

// RecordGrowthInput describes a single growth measurement.
type RecordGrowthInput struct {
	ChildID    string
	Type       models.MeasurementType
	Value      float64
	MeasuredAt time.Time
	Notes      string
}

// GrowthService tracks height, weight and head circumference measurements.
type GrowthService struct {
	db  *gorm.DB
	now func() time.Time
}

// GrowthServiceOption customises a GrowthService.
type GrowthServiceOption func(*GrowthService)

// WithGrowthClock overrides the clock used for feature gates.
func WithGrowthClock(now func() time.Time) GrowthServiceOption {
	return func(s *GrowthService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewGrowthService constructs a GrowthService instance.
func NewGrowthService(db *gorm.DB, opts ...GrowthServiceOption) (*GrowthService, error) {
	if db == nil {
		return nil, errors.New("growth service: db is required")
	}
	svc := &GrowthService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func validMeasurementType(t models.MeasurementType) bool {
	switch t {
	case models.MeasurementHeight, models.MeasurementWeight, models.MeasurementHeadCircumference:
		return true
	}
	return false
}

// Record stores one measurement point. One value per child, type and date.
func (s *GrowthService) Record(ctx context.Context, userID string, input RecordGrowthInput) (*models.GrowthRecord, error) {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	child, err := loadChild(ctx, s.db, input.ChildID)
	if err != nil {
		return nil, err
	}
	if err := decisionError(access.Evaluate(user, child, features.GrowthChart, s.now())); err != nil {
		return nil, err
	}

	if !validMeasurementType(input.Type) {
		return nil, apperrors.NewBadRequest("unknown measurement type")
	}
	if input.Value <= 0 {
		return nil, apperrors.NewBadRequest("value must be positive")
	}

	measuredAt := input.MeasuredAt
	if measuredAt.IsZero() {
		measuredAt = s.now()
	}

	record := &models.GrowthRecord{
		ChildID:          child.ID,
		Type:             input.Type,
		Value:            input.Value,
		MeasuredAt:       measuredAt,
		AgeAtMeasurement: formatAge(child.Age(measuredAt)),
		RecordedByID:     user.ID,
		Notes:            input.Notes,
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("a measurement of this type already exists for that date")
		}
		return nil, fmt.Errorf("growth service: record measurement: %w", err)
	}
	return record, nil
}

// Chart returns the child's measurements of one type in time order, ready
// for plotting.
func (s *GrowthService) Chart(ctx context.Context, userID, childID string, measurementType models.MeasurementType) ([]models.GrowthRecord, error) {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	child, err := loadChild(ctx, s.db, childID)
	if err != nil {
		return nil, err
	}
	if err := decisionError(access.Evaluate(user, child, features.GrowthChart, s.now())); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Where("child_id = ?", child.ID)
	if measurementType != "" {
		if !validMeasurementType(measurementType) {
			return nil, apperrors.NewBadRequest("unknown measurement type")
		}
		query = query.Where("type = ?", measurementType)
	}

	var records []models.GrowthRecord
	if err := query.Order("measured_at ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("growth service: load chart: %w", err)
	}
	return records, nil
}

// Delete removes a measurement. Recorder or owner only.
func (s *GrowthService) Delete(ctx context.Context, userID, recordID string) error {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return err
	}

	var record models.GrowthRecord
	err = s.db.WithContext(ctx).First(&record, "id = ?", recordID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("growth service: load record: %w", err)
	}

	child, err := loadChild(ctx, s.db, record.ChildID)
	if err != nil {
		return err
	}
	if !access.CanModify(user, child, record.RecordedByID) {
		return apperrors.ErrForbidden
	}

	if err := s.db.WithContext(ctx).Delete(&record).Error; err != nil {
		return fmt.Errorf("growth service: delete record: %w", err)
	}
	return nil
}
