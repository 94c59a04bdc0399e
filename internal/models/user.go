package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User describes an account holder: the owner who created a child profile,
// a family member linked through an invitation, or the child themselves.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	Role   Role   `gorm:"not null;default:family;index" json:"role"`
	Phone  string `json:"phone"`
	Avatar string `json:"avatar"`

	BirthDate *time.Time `json:"birth_date,omitempty"`

	IsVerified bool `gorm:"default:false" json:"is_verified"`
	IsActive   bool `gorm:"default:true" json:"is_active"`

	// Children this user can reach as a family member. Owners reach their
	// children through Child.OwnerID instead.
	Children []Child `gorm:"many2many:child_family_members;" json:"children,omitempty"`

	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsOwner reports whether the user holds the owner role.
func (u *User) IsOwner() bool {
	return u.Role == RoleOwner
}

// IsFamilyMember reports whether the user holds the family role.
func (u *User) IsFamilyMember() bool {
	return u.Role == RoleFamily
}

// IsChild reports whether the user holds the child role.
func (u *User) IsChild() bool {
	return u.Role == RoleChild
}
