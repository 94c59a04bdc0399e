package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sproutbook/sproutbook/internal/models"
	"github.com/sproutbook/sproutbook/pkg/crypto"
	apperrors "github.com/sproutbook/sproutbook/pkg/errors"
	"github.com/sproutbook/sproutbook/pkg/metrics"
)

// CreateUserInput describes the fields accepted when creating a user.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     models.Role
	Phone    string
	Avatar   string
	Verified bool
}

// UserService manages account lifecycle and authentication.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// RegisterInput describes self-registration: an owner account plus an
// optional first child created in the same transaction.
type RegisterInput struct {
	User           CreateUserInput
	ChildName      string
	ChildBirthDate *time.Time
}

// Create provisions a new user with a hashed password.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := buildUser(input)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("username or email already exists")
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	return user, nil
}

// Register provisions an owner account and, when a child name is supplied,
// the first child record. Both rows land in one transaction so a failed
// child insert never leaves an orphaned account.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	input.User.Role = models.RoleOwner
	user, err := buildUser(input.User)
	if err != nil {
		return nil, err
	}

	childName := strings.TrimSpace(input.ChildName)
	if childName != "" && input.ChildBirthDate == nil {
		return nil, apperrors.NewBadRequest("child birth date is required")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if isUniqueConstraintError(err) {
				return apperrors.NewBadRequest("username or email already exists")
			}
			return fmt.Errorf("create user: %w", err)
		}
		if childName == "" {
			return nil
		}
		child := &models.Child{
			Name:      childName,
			BirthDate: *input.ChildBirthDate,
			OwnerID:   user.ID,
		}
		if err := tx.Create(child).Error; err != nil {
			return fmt.Errorf("create first child: %w", err)
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("user service: register: %w", err)
	}

	return user, nil
}

func buildUser(input CreateUserInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" {
		return nil, apperrors.NewBadRequest("username is required")
	}
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}

	role := input.Role
	if role == "" {
		role = models.RoleFamily
	}
	if !role.Valid() {
		return nil, apperrors.NewBadRequest("unknown role")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Username:   username,
		Email:      email,
		Password:   hashed,
		Role:       role,
		Phone:      strings.TrimSpace(input.Phone),
		Avatar:     strings.TrimSpace(input.Avatar),
		IsVerified: input.Verified,
		IsActive:   true,
	}
	return user, nil
}

// Authenticate verifies credentials and returns the matching active user.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", username, strings.ToLower(username)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("user service: find user: %w", err)
	}

	if !user.IsActive || !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &user, nil
}

// GetByID loads a user by identifier including linked children.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Preload("Children").First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// uniqueUsernameFromEmail derives a username from the email local part,
// appending a numeric suffix until it is free. The original behaviour on
// collision was unspecified; the suffix keeps account creation from failing.
func uniqueUsernameFromEmail(tx *gorm.DB, email string) (string, error) {
	base := strings.ToLower(strings.TrimSpace(email))
	if at := strings.Index(base, "@"); at > 0 {
		base = base[:at]
	}
	if base == "" {
		base = "member"
	}

	candidate := base
	for suffix := 2; ; suffix++ {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("derive username: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, suffix)
	}
}
