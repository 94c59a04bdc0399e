// Package access holds the single access-control policy for child-scoped
// data. Every handler and service routes its permission question through
// here instead of re-deriving role logic locally.
package access

import (
	"time"

	"github.com/sproutbook/sproutbook/internal/age"
	"github.com/sproutbook/sproutbook/internal/features"
	"github.com/sproutbook/sproutbook/internal/models"
)

// Verdict classifies the outcome of a policy evaluation.
type Verdict int

const (
	// Allowed grants the operation.
	Allowed Verdict = iota
	// DeniedPermission is a hard authorization failure.
	DeniedPermission
	// DeniedNotUnlocked means the user may act on the child but the feature
	// has not unlocked yet. It is informational: the decision carries the
	// age at which it will.
	DeniedNotUnlocked
)

func (v Verdict) String() string {
	switch v {
	case Allowed:
		return "allowed"
	case DeniedPermission:
		return "denied_permission"
	case DeniedNotUnlocked:
		return "denied_not_unlocked"
	}
	return "unknown"
}

// Decision is the result of evaluating a user against a child and an
// optional required feature.
type Decision struct {
	Verdict      Verdict       `json:"verdict"`
	Feature      features.Flag `json:"feature,omitempty"`
	UnlocksAtAge int           `json:"unlocks_at_age,omitempty"`
}

// Allowed reports whether the operation may proceed.
func (d Decision) Allowed() bool {
	return d.Verdict == Allowed
}

// CanAccess reports whether the user may read the child's data: the owner of
// the child, the child's own linked account, or a linked family member.
// Child.FamilyMembers must be loaded.
func CanAccess(user *models.User, child *models.Child) bool {
	if user == nil || child == nil {
		return false
	}
	if user.IsOwner() && child.OwnerID == user.ID {
		return true
	}
	if child.ChildUserID != nil && *child.ChildUserID == user.ID {
		return true
	}
	return child.HasFamilyMember(user.ID)
}

// CanModify reports whether the user may edit or delete a child-scoped
// resource created by createdByID. The creator always may; the child's owner
// may regardless of who contributed it. Plain family members cannot touch
// each other's contributions.
func CanModify(user *models.User, child *models.Child, createdByID string) bool {
	if user == nil || child == nil {
		return false
	}
	if user.ID == createdByID {
		return true
	}
	return user.IsOwner() && child.OwnerID == user.ID
}

// CanExport gates export and ownership-transfer operations: strictly the
// owner of this child. Family members are denied no matter their linkage.
func CanExport(user *models.User, child *models.Child) bool {
	if user == nil || child == nil {
		return false
	}
	return user.IsOwner() && child.OwnerID == user.ID
}

// Evaluate combines the read-access check with an optional feature gate.
// Pass an empty feature to check plain access. The feature gate only applies
// once access is granted, so a stranger never learns unlock ages.
func Evaluate(user *models.User, child *models.Child, feature features.Flag, today time.Time) Decision {
	if !CanAccess(user, child) {
		return Decision{Verdict: DeniedPermission}
	}
	if feature == "" {
		return Decision{Verdict: Allowed}
	}

	unlocksAt, known := features.UnlockAge(feature)
	if !known {
		return Decision{Verdict: DeniedPermission}
	}

	years := age.Years(child.BirthDate, today)
	if years < unlocksAt {
		return Decision{
			Verdict:      DeniedNotUnlocked,
			Feature:      feature,
			UnlocksAtAge: unlocksAt,
		}
	}

	return Decision{Verdict: Allowed, Feature: feature}
}

// EvaluateModify is the write-side counterpart of Evaluate for resources
// with a recorded creator.
func EvaluateModify(user *models.User, child *models.Child, createdByID string, feature features.Flag, today time.Time) Decision {
	if !CanModify(user, child, createdByID) {
		return Decision{Verdict: DeniedPermission}
	}
	if feature == "" {
		return Decision{Verdict: Allowed}
	}

	unlocksAt, known := features.UnlockAge(feature)
	if !known {
		return Decision{Verdict: DeniedPermission}
	}

	years := age.Years(child.BirthDate, today)
	if years < unlocksAt {
		return Decision{
			Verdict:      DeniedNotUnlocked,
			Feature:      feature,
			UnlocksAtAge: unlocksAt,
		}
	}

	return Decision{Verdict: Allowed, Feature: feature}
}
