package models

// Role is the closed set of account roles. A user holds exactly one role at
// a time and the predicates on User are mutually exclusive.
type Role string

const (
	// RoleOwner created a child profile and holds full rights over it.
	RoleOwner Role = "owner"
	// RoleFamily was granted shared access through an accepted invitation.
	RoleFamily Role = "family"
	// RoleChild is the child's own account, linked once they are of age.
	RoleChild Role = "child"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleFamily, RoleChild:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
