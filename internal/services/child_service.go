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

// CreateChildInput describes the fields accepted when creating a child profile.
type CreateChildInput struct {
	Name          string
	BirthDate     time.Time
	BirthTime     *time.Time
	BirthLocation string
	Avatar        string
}

// UpdateChildInput carries the optional profile fields an owner may change.
// Nil pointers leave the column untouched. The owner and birth date are not
// editable through this path.
type UpdateChildInput struct {
	Name          *string
	BirthTime     *time.Time
	BirthLocation *string
	Avatar        *string
}

// FeatureReport summarises what a child can use today and what comes next.
type FeatureReport struct {
	ChildID  string            `json:"child_id"`
	Age      age.Age           `json:"age"`
	Unlocked []features.Flag   `json:"unlocked"`
	Upcoming []features.Unlock `json:"upcoming"`
}

// ChildService manages child profiles and their family circle.
type ChildService struct {
	db  *gorm.DB
	now func() time.Time
}

// ChildServiceOption customises a ChildService.
type ChildServiceOption func(*ChildService)

// WithChildClock overrides the clock used for age derivation. Tests use it to
// pin "today".
func WithChildClock(now func() time.Time) ChildServiceOption {
	return func(s *ChildService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewChildService constructs a ChildService instance.
func NewChildService(db *gorm.DB, opts ...ChildServiceOption) (*ChildService, error) {
	if db == nil {
		return nil, errors.New("child service: db is required")
	}
	svc := &ChildService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create registers a child profile owned by ownerID. Only owner accounts may
// create children.
func (s *ChildService) Create(ctx context.Context, ownerID string, input CreateChildInput) (*models.Child, error) {
	ctx = ensureContext(ctx)

	owner, err := loadUser(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	if !owner.IsOwner() {
		return nil, apperrors.ErrForbidden
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	if input.BirthDate.IsZero() {
		return nil, apperrors.NewBadRequest("birth date is required")
	}

	child := &models.Child{
		Name:          name,
		BirthDate:     input.BirthDate,
		BirthTime:     input.BirthTime,
		BirthLocation: strings.TrimSpace(input.BirthLocation),
		Avatar:        strings.TrimSpace(input.Avatar),
		OwnerID:       owner.ID,
	}

	if err := s.db.WithContext(ctx).Create(child).Error; err != nil {
		return nil, fmt.Errorf("child service: create child: %w", err)
	}
	return child, nil
}

// GetForUser loads a child on behalf of userID, enforcing read access.
func (s *ChildService) GetForUser(ctx context.Context, userID, childID string) (*models.Child, error) {
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
	return child, nil
}

// ListAccessible returns every child the user may read: owners see the
// children they own, family members the children they are linked to. A child
// account sees its own profile.
func (s *ChildService) ListAccessible(ctx context.Context, userID string) ([]models.Child, error) {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	var children []models.Child
	query := s.db.WithContext(ctx).Model(&models.Child{}).
		Preload("FamilyMembers").
		Scopes(access.AccessibleChildren(user))

	if err := query.Order("created_at ASC").Find(&children).Error; err != nil {
		return nil, fmt.Errorf("child service: list children: %w", err)
	}
	return children, nil
}

// Update edits a child profile. Only the owner may change it.
func (s *ChildService) Update(ctx context.Context, userID, childID string, input UpdateChildInput) (*models.Child, error) {
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

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("name cannot be empty")
		}
		updates["name"] = name
	}
	if input.BirthTime != nil {
		updates["birth_time"] = *input.BirthTime
	}
	if input.BirthLocation != nil {
		updates["birth_location"] = strings.TrimSpace(*input.BirthLocation)
	}
	if input.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*input.Avatar)
	}
	if len(updates) == 0 {
		return child, nil
	}

	if err := s.db.WithContext(ctx).Model(child).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("child service: update child: %w", err)
	}
	return child, nil
}

// FeatureReport derives the child's current age, the unlocked feature set and
// the next thresholds. Any linked family member may read it.
func (s *ChildService) FeatureReport(ctx context.Context, userID, childID string) (*FeatureReport, error) {
	ctx = ensureContext(ctx)

	child, err := s.GetForUser(ctx, userID, childID)
	if err != nil {
		return nil, err
	}

	current := child.Age(s.now())
	return &FeatureReport{
		ChildID:  child.ID,
		Age:      current,
		Unlocked: features.Unlocked(current.Years),
		Upcoming: features.Upcoming(current.Years),
	}, nil
}

// TransferOwnership hands the child profile over to the child's own account.
// Strictly the current owner may do this, and only once the child has come of
// age. The target user must be the linked child account.
func (s *ChildService) TransferOwnership(ctx context.Context, ownerID, childID string) (*models.Child, error) {
	ctx = ensureContext(ctx)

	owner, err := loadUser(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	child, err := loadChild(ctx, s.db, childID)
	if err != nil {
		return nil, err
	}
	if !access.CanExport(owner, child) {
		return nil, apperrors.ErrForbidden
	}
	if err := decisionError(access.Evaluate(owner, child, features.OwnershipTransfer, s.now())); err != nil {
		return nil, err
	}
	if child.ChildUserID == nil {
		return nil, apperrors.NewBadRequest("child has no linked account to transfer to")
	}

	newOwnerID := *child.ChildUserID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Child{}).
			Where("id = ?", child.ID).
			Update("owner_id", newOwnerID).Error; err != nil {
			return fmt.Errorf("reassign owner: %w", err)
		}
		// The child account becomes a full owner so the policy keeps
		// recognising it after the handover.
		if err := tx.Model(&models.User{}).
			Where("id = ?", newOwnerID).
			Update("role", models.RoleOwner).Error; err != nil {
			return fmt.Errorf("promote child account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("child service: transfer ownership: %w", err)
	}

	child.OwnerID = newOwnerID
	return child, nil
}

// LinkChildAccount attaches a user account of role child to the profile so the
// grown child can sign in. Owner only; at most one linked account.
func (s *ChildService) LinkChildAccount(ctx context.Context, ownerID, childID, userID string) (*models.Child, error) {
	ctx = ensureContext(ctx)

	owner, err := loadUser(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	child, err := loadChild(ctx, s.db, childID)
	if err != nil {
		return nil, err
	}
	if !access.CanExport(owner, child) {
		return nil, apperrors.ErrForbidden
	}
	if child.ChildUserID != nil {
		return nil, apperrors.NewBadRequest("child already has a linked account")
	}

	account, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if !account.IsChild() {
		return nil, apperrors.NewBadRequest("linked account must have the child role")
	}

	if err := s.db.WithContext(ctx).Model(child).Update("child_user_id", account.ID).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("account is already linked to another child")
		}
		return nil, fmt.Errorf("child service: link account: %w", err)
	}

	childUserID := account.ID
	child.ChildUserID = &childUserID
	return child, nil
}
