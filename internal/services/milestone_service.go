package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sproutbook/sproutbook/internal/access"
	"github.com/sproutbook/sproutbook/internal/age"
	"github.com/sproutbook/sproutbook/internal/features"
	"github.com/sproutbook/sproutbook/internal/models"
	apperrors "github.com/sproutbook/sproutbook/pkg/errors"
)

// RecordMilestoneInput describes a milestone achievement. Either
// PredefinedMilestoneID or CustomTitle must be set.
type RecordMilestoneInput struct {
	ChildID               string
	PredefinedMilestoneID string
	CustomTitle           string
	Description           string
	AchievedDate          time.Time
	Notes                 string
	PhotoPath             string
}

// MilestoneService tracks developmental milestones against the curated
// catalog and custom entries.
type MilestoneService struct {
	db  *gorm.DB
	now func() time.Time
}

// MilestoneServiceOption customises a MilestoneService.
type MilestoneServiceOption func(*MilestoneService)

// WithMilestoneClock overrides the clock used for feature gates.
func WithMilestoneClock(now func() time.Time) MilestoneServiceOption {
	return func(s *MilestoneService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMilestoneService constructs a MilestoneService instance.
func NewMilestoneService(db *gorm.DB, opts ...MilestoneServiceOption) (*MilestoneService, error) {
	if db == nil {
		return nil, errors.New("milestone service: db is required")
	}
	svc := &MilestoneService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Catalog returns the predefined milestone categories with their entries.
func (s *MilestoneService) Catalog(ctx context.Context) ([]models.MilestoneCategory, error) {
	ctx = ensureContext(ctx)

	var categories []models.MilestoneCategory
	err := s.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, typical_age_months_min ASC")
		}).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("milestone service: load catalog: %w", err)
	}
	return categories, nil
}

// Record logs a milestone for the child. Catalog milestones are available
// from birth; custom milestones need the full milestone feature.
func (s *MilestoneService) Record(ctx context.Context, userID string, input RecordMilestoneInput) (*models.ChildMilestone, error) {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	child, err := loadChild(ctx, s.db, input.ChildID)
	if err != nil {
		return nil, err
	}

	isCustom := strings.TrimSpace(input.PredefinedMilestoneID) == ""
	gate := features.BasicMilestones
	if isCustom {
		gate = features.Milestones
	}
	if err := decisionError(access.Evaluate(user, child, gate, s.now())); err != nil {
		return nil, err
	}

	milestone := &models.ChildMilestone{
		ChildID:      child.ID,
		Description:  input.Description,
		Notes:        input.Notes,
		PhotoPath:    input.PhotoPath,
		RecordedByID: user.ID,
		IsCustom:     isCustom,
	}

	if isCustom {
		title := strings.TrimSpace(input.CustomTitle)
		if title == "" {
			return nil, apperrors.NewBadRequest("a custom milestone needs a title")
		}
		milestone.CustomTitle = title
	} else {
		var predefined models.PredefinedMilestone
		err := s.db.WithContext(ctx).First(&predefined, "id = ?", input.PredefinedMilestoneID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewBadRequest("unknown predefined milestone")
		}
		if err != nil {
			return nil, fmt.Errorf("milestone service: load predefined: %w", err)
		}
		id := predefined.ID
		milestone.PredefinedMilestoneID = &id
		milestone.PredefinedMilestone = &predefined
	}

	achieved := input.AchievedDate
	if achieved.IsZero() {
		achieved = s.now()
	}
	milestone.AchievedDate = achieved
	milestone.AgeAtAchievement = formatAge(child.Age(achieved))

	if err := s.db.WithContext(ctx).Create(milestone).Error; err != nil {
		return nil, fmt.Errorf("milestone service: record milestone: %w", err)
	}
	return milestone, nil
}

// formatAge renders an age as "2y 3m" for display snapshots.
func formatAge(a age.Age) string {
	years := a.Years
	months := a.Months - years*12
	if years <= 0 && months <= 0 {
		return fmt.Sprintf("%dd", a.Days)
	}
	return fmt.Sprintf("%dy %dm", years, months)
}

// List returns the child's achieved milestones newest first.
func (s *MilestoneService) List(ctx context.Context, userID, childID string) ([]models.ChildMilestone, error) {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	child, err := loadChild(ctx, s.db, childID)
	if err != nil {
		return nil, err
	}
	if err := decisionError(access.Evaluate(user, child, "", s.now())); err != nil {
		return nil, err
	}

	var milestones []models.ChildMilestone
	err = s.db.WithContext(ctx).
		Preload("PredefinedMilestone").
		Where("child_id = ?", child.ID).
		Order("achieved_date DESC").
		Find(&milestones).Error
	if err != nil {
		return nil, fmt.Errorf("milestone service: list milestones: %w", err)
	}
	return milestones, nil
}

// Delete removes a recorded milestone. Recorder or owner only.
func (s *MilestoneService) Delete(ctx context.Context, userID, milestoneID string) error {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return err
	}

	var milestone models.ChildMilestone
	err = s.db.WithContext(ctx).First(&milestone, "id = ?", milestoneID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("milestone service: load milestone: %w", err)
	}

	child, err := loadChild(ctx, s.db, milestone.ChildID)
	if err != nil {
		return err
	}
	if !access.CanModify(user, child, milestone.RecordedByID) {
		return apperrors.ErrForbidden
	}

	if err := s.db.WithContext(ctx).Delete(&milestone).Error; err != nil {
		return fmt.Errorf("milestone service: delete milestone: %w", err)
	}
	return nil
}
