package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sproutbook/sproutbook/internal/access"
	"github.com/sproutbook/sproutbook/internal/models"
	"github.com/sproutbook/sproutbook/pkg/crypto"
	apperrors "github.com/sproutbook/sproutbook/pkg/errors"
	"github.com/sproutbook/sproutbook/pkg/logger"
	"github.com/sproutbook/sproutbook/pkg/mail"
	"github.com/sproutbook/sproutbook/pkg/metrics"
)

const (
	defaultInvitationExpiry    = 7 * 24 * time.Hour
	defaultInvitationTokenSize = 32
)

// IssueInvitationInput describes a new invitation request.
type IssueInvitationInput struct {
	ChildID string
	Email   string
	Role    models.Role
}

// AcceptInvitationInput carries the data needed to consume an invitation.
// Password is only used when the invited email has no account yet.
type AcceptInvitationInput struct {
	Password string
}

// InvitationService issues and consumes single-use family invitations.
type InvitationService struct {
	db        *gorm.DB
	mailer    mail.Mailer
	log       *zap.Logger
	now       func() time.Time
	expiry    time.Duration
	tokenSize int
	baseURL   string
}

// InvitationServiceOption customises an InvitationService.
type InvitationServiceOption func(*InvitationService)

// WithInvitationClock overrides the clock used for expiry decisions.
func WithInvitationClock(now func() time.Time) InvitationServiceOption {
	return func(s *InvitationService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithInvitationExpiry overrides the validity window of new invitations.
func WithInvitationExpiry(expiry time.Duration) InvitationServiceOption {
	return func(s *InvitationService) {
		if expiry > 0 {
			s.expiry = expiry
		}
	}
}

// WithInvitationTokenSize overrides how many random bytes back each token.
func WithInvitationTokenSize(size int) InvitationServiceOption {
	return func(s *InvitationService) {
		if size > 0 {
			s.tokenSize = size
		}
	}
}

// WithInvitationMailer attaches an outbound mailer for invitation emails.
func WithInvitationMailer(m mail.Mailer) InvitationServiceOption {
	return func(s *InvitationService) {
		s.mailer = m
	}
}

// WithInvitationBaseURL sets the public URL used to build accept links.
func WithInvitationBaseURL(baseURL string) InvitationServiceOption {
	return func(s *InvitationService) {
		s.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

// NewInvitationService constructs an InvitationService instance.
func NewInvitationService(db *gorm.DB, opts ...InvitationServiceOption) (*InvitationService, error) {
	if db == nil {
		return nil, errors.New("invitation service: db is required")
	}
	svc := &InvitationService{
		db:        db,
		log:       logger.WithModule("services.invitation"),
		now:       time.Now,
		expiry:    defaultInvitationExpiry,
		tokenSize: defaultInvitationTokenSize,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Issue creates a pending invitation for the child and emails the accept
// link. The inviter must be the child's owner or an existing family member.
func (s *InvitationService) Issue(ctx context.Context, inviterID string, input IssueInvitationInput) (*models.Invitation, error) {
	ctx = ensureContext(ctx)

	inviter, err := loadUser(ctx, s.db, inviterID)
	if err != nil {
		return nil, err
	}
	child, err := loadChild(ctx, s.db, input.ChildID)
	if err != nil {
		return nil, err
	}
	// Anyone already inside the family circle may widen it.
	if !access.CanAccess(inviter, child) {
		return nil, apperrors.ErrForbidden
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if email == inviter.Email {
		return nil, apperrors.NewBadRequest("you already have access to this child")
	}

	role := input.Role
	if role == "" {
		role = models.RoleFamily
	}
	if role != models.RoleFamily {
		return nil, apperrors.NewBadRequest("invitations can only grant the family role")
	}

	token, err := crypto.GenerateToken(s.tokenSize)
	if err != nil {
		return nil, fmt.Errorf("invitation service: generate token: %w", err)
	}

	invitation := &models.Invitation{
		Email:       email,
		ChildID:     child.ID,
		InvitedByID: inviter.ID,
		Role:        role,
		Token:       token,
		ExpiresAt:   s.now().Add(s.expiry),
	}

	if err := s.db.WithContext(ctx).Create(invitation).Error; err != nil {
		return nil, fmt.Errorf("invitation service: create invitation: %w", err)
	}

	metrics.InvitationsIssued.Inc()
	s.deliver(ctx, invitation, child, inviter)

	invitation.Child = child
	return invitation, nil
}

// deliver emails the accept link. Delivery failures never fail the issue
// call: the token can still be shared out of band.
func (s *InvitationService) deliver(ctx context.Context, inv *models.Invitation, child *models.Child, inviter *models.User) {
	if s.mailer == nil {
		return
	}

	link := fmt.Sprintf("%s/invitations/accept?token=%s", s.baseURL, inv.Token)
	msg := mail.Message{
		To:      inv.Email,
		Subject: fmt.Sprintf("%s invited you to %s's memory album", inviter.Username, child.Name),
		Body: fmt.Sprintf(
			"%s invited you to follow %s's memories.\n\nAccept the invitation here: %s\n\nThe link expires on %s.\n",
			inviter.Username, child.Name, link, inv.ExpiresAt.Format(time.RFC1123),
		),
	}

	if err := s.mailer.Send(ctx, msg); err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		s.log.Warn("invitation email delivery failed",
			zap.String("invitation_id", inv.ID),
			zap.Error(err))
	}
}

// GetByToken resolves an invitation for preview before acceptance. The child
// is preloaded so callers can show whose album is being joined.
func (s *InvitationService) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	ctx = ensureContext(ctx)
	return s.findByToken(ctx, s.db, token)
}

func (s *InvitationService) findByToken(ctx context.Context, tx *gorm.DB, token string) (*models.Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.NewBadRequest("token is required")
	}

	var invitation models.Invitation
	err := tx.WithContext(ctx).Preload("Child.FamilyMembers").First(&invitation, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invitation service: find by token: %w", err)
	}

	// An invitation whose child vanished is a referential integrity fault,
	// not a user error.
	if invitation.Child == nil {
		return nil, apperrors.ErrInternalServer.WithInternal(
			fmt.Errorf("invitation %s references missing child %s", invitation.ID, invitation.ChildID))
	}
	return &invitation, nil
}

// Accept consumes the token exactly once: it flips the invitation, finds or
// creates the invited account and links it to the child's family circle. The
// whole flow runs in one transaction, so a lost race, a failed user create or
// a failed linkage leaves the invitation unconsumed.
func (s *InvitationService) Accept(ctx context.Context, token string, input AcceptInvitationInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	var accepted *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invitation, err := s.findByToken(ctx, tx, token)
		if err != nil {
			return err
		}

		switch invitation.Status(s.now()) {
		case models.InvitationAccepted:
			return apperrors.ErrInviteAlreadyAccepted
		case models.InvitationExpired:
			return apperrors.ErrInviteExpired
		}

		// Guarded update: of two concurrent accepts only one sees a row
		// flip, the other reads zero rows affected and loses.
		res := tx.Model(&models.Invitation{}).
			Where("id = ? AND is_accepted = ?", invitation.ID, false).
			Update("is_accepted", true)
		if res.Error != nil {
			return fmt.Errorf("consume invitation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrInviteAlreadyAccepted
		}

		user, err := s.findOrCreateInvitee(ctx, tx, invitation, input)
		if err != nil {
			return err
		}

		// Append is idempotent on the join table: re-inviting an existing
		// member leaves a single membership row.
		if err := tx.Model(invitation.Child).Association("FamilyMembers").Append(user); err != nil {
			return fmt.Errorf("link family member: %w", err)
		}

		accepted = user
		return nil
	})
	if err != nil {
		metrics.InvitationsAccepted.WithLabelValues(acceptResultLabel(err)).Inc()
		return nil, err
	}

	metrics.InvitationsAccepted.WithLabelValues("accepted").Inc()
	return accepted, nil
}

func (s *InvitationService) findOrCreateInvitee(ctx context.Context, tx *gorm.DB, invitation *models.Invitation, input AcceptInvitationInput) (*models.User, error) {
	var user models.User
	err := tx.WithContext(ctx).First(&user, "email = ?", invitation.Email).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find invitee: %w", err)
	}

	if strings.TrimSpace(input.Password) == "" {
		return nil, apperrors.NewBadRequest("password is required to create your account")
	}

	username, err := uniqueUsernameFromEmail(tx, invitation.Email)
	if err != nil {
		return nil, err
	}
	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user = models.User{
		Username: username,
		Email:    invitation.Email,
		Password: hashed,
		Role:     invitation.Role,
		// The invite arrived at this address, which is verification enough.
		IsVerified: true,
		IsActive:   true,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create invitee: %w", err)
	}
	return &user, nil
}

func acceptResultLabel(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInviteAlreadyAccepted):
		return "already_accepted"
	case errors.Is(err, apperrors.ErrInviteExpired):
		return "expired"
	default:
		return "error"
	}
}

// ListForChild returns the child's invitations newest first, for the owner's
// family management view.
func (s *InvitationService) ListForChild(ctx context.Context, userID, childID string) ([]models.Invitation, error) {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	child, err := loadChild(ctx, s.db, childID)
	if err != nil {
		return nil, err
	}
	if !user.IsOwner() || child.OwnerID != user.ID {
		return nil, apperrors.ErrForbidden
	}

	var invitations []models.Invitation
	err = s.db.WithContext(ctx).
		Where("child_id = ?", child.ID).
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, fmt.Errorf("invitation service: list invitations: %w", err)
	}
	return invitations, nil
}

// Revoke deletes a pending invitation so its token can never be consumed.
// Accepted invitations are kept as an audit trail.
func (s *InvitationService) Revoke(ctx context.Context, userID, invitationID string) error {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return err
	}

	var invitation models.Invitation
	err = s.db.WithContext(ctx).First(&invitation, "id = ?", invitationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("invitation service: find invitation: %w", err)
	}

	child, err := loadChild(ctx, s.db, invitation.ChildID)
	if err != nil {
		return err
	}
	if !user.IsOwner() || child.OwnerID != user.ID {
		return apperrors.ErrForbidden
	}
	if invitation.IsAccepted {
		return apperrors.ErrInviteAlreadyAccepted
	}

	if err := s.db.WithContext(ctx).Delete(&invitation).Error; err != nil {
		return fmt.Errorf("invitation service: revoke invitation: %w", err)
	}
	return nil
}
