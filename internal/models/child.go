package models

import (
	"time"

	"github.com/sproutbook/sproutbook/internal/age"
)

// Child is the profile a memory album revolves around. Exactly one owner;
// any number of family members linked through accepted invitations.
type Child struct {
	BaseModel

	Name      string     `gorm:"not null" json:"name"`
	BirthDate time.Time  `gorm:"not null" json:"birth_date"`
	BirthTime *time.Time `json:"birth_time,omitempty"`

	BirthLocation string `json:"birth_location"`
	Avatar        string `json:"avatar"`

	// OwnerID is set at creation and never reassigned afterwards, except
	// through an explicit ownership transfer once the child is of age.
	OwnerID string `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner   *User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`

	FamilyMembers []User `gorm:"many2many:child_family_members;" json:"family_members,omitempty"`

	// ChildUserID links the child's own account once created. At most one.
	ChildUserID *string `gorm:"type:uuid;uniqueIndex" json:"child_user_id,omitempty"`
	ChildUser   *User   `gorm:"foreignKey:ChildUserID" json:"child_user,omitempty"`
}

// Age derives the child's age relative to the supplied date.
func (c *Child) Age(today time.Time) age.Age {
	return age.Compute(c.BirthDate, today)
}

// HasFamilyMember reports whether the given user is already linked.
// FamilyMembers must be loaded.
func (c *Child) HasFamilyMember(userID string) bool {
	for _, member := range c.FamilyMembers {
		if member.ID == userID {
			return true
		}
	}
	return false
}
