package models

import "time"

// InvitationStatus is derived, never stored: pending invitations become
// accepted through the single-use token flow or expired purely by the clock.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation grants family-member access to one child. The token is single
// use: once IsAccepted flips to true it never grants access again.
type Invitation struct {
	BaseModel

	Email string `gorm:"not null;index" json:"email"`

	ChildID string `gorm:"type:uuid;not null;index" json:"child_id"`
	Child   *Child `gorm:"foreignKey:ChildID" json:"child,omitempty"`

	InvitedByID string `gorm:"type:uuid;not null" json:"invited_by"`
	InvitedBy   *User  `gorm:"foreignKey:InvitedByID" json:"-"`

	Role Role `gorm:"not null;default:family" json:"role"`

	Token      string    `gorm:"uniqueIndex;not null" json:"-"`
	IsAccepted bool      `gorm:"not null;default:false" json:"is_accepted"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expires_at"`
}

// IsExpired evaluates the 7-day window lazily against the supplied clock.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Status derives the lifecycle state. Accepted wins over expired so that a
// consumed invitation keeps reading as used.
func (i *Invitation) Status(now time.Time) InvitationStatus {
	switch {
	case i.IsAccepted:
		return InvitationAccepted
	case i.IsExpired(now):
		return InvitationExpired
	default:
		return InvitationPending
	}
}
