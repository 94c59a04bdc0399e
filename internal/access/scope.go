package access

import (
	"gorm.io/gorm"

	"github.com/sproutbook/sproutbook/internal/models"
)

// AccessibleChildren is the one query shape for "which children can this
// user see": owners the children they own, child accounts their own
// profile, family members the children they are linked to.
func AccessibleChildren(user *models.User) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch {
		case user == nil:
			return db.Where("1 = 0")
		case user.IsOwner():
			return db.Where("owner_id = ?", user.ID)
		case user.IsChild():
			return db.Where("child_user_id = ?", user.ID)
		default:
			return db.
				Joins("JOIN child_family_members cfm ON cfm.child_id = children.id").
				Where("cfm.user_id = ?", user.ID)
		}
	}
}
