package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sproutbook/sproutbook/internal/features"
	"github.com/sproutbook/sproutbook/internal/models"
)

var today = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func newChild(ownerID string, birthYear int, members ...models.User) *models.Child {
	return &models.Child{
		BaseModel:     models.BaseModel{ID: "child-1"},
		Name:          "Maya",
		BirthDate:     time.Date(birthYear, time.January, 10, 0, 0, 0, 0, time.UTC),
		OwnerID:       ownerID,
		FamilyMembers: members,
	}
}

func TestCanAccessOwner(t *testing.T) {
	owner := &models.User{ID: "owner-1", Role: models.RoleOwner}
	child := newChild(owner.ID, 2022)

	require.True(t, CanAccess(owner, child))
}

func TestCanAccessFamilyMember(t *testing.T) {
	member := models.User{ID: "aunt-1", Role: models.RoleFamily}
	child := newChild("owner-1", 2022, member)

	require.True(t, CanAccess(&member, child))
}

func TestCanAccessLinkedChildAccount(t *testing.T) {
	account := &models.User{ID: "child-account", Role: models.RoleChild}
	child := newChild("owner-1", 2006)
	child.ChildUserID = &account.ID

	// The same account the listing scope exposes can also read the profile.
	require.True(t, CanAccess(account, child))
	require.False(t, CanAccess(&models.User{ID: "other", Role: models.RoleChild}, child))
}

func TestCanAccessDeniesStrangers(t *testing.T) {
	stranger := &models.User{ID: "stranger", Role: models.RoleFamily}
	otherOwner := &models.User{ID: "other-owner", Role: models.RoleOwner}
	child := newChild("owner-1", 2022)

	require.False(t, CanAccess(stranger, child))
	// Holding the owner role grants nothing on someone else's child.
	require.False(t, CanAccess(otherOwner, child))
}

func TestCanModifyCreatorOnly(t *testing.T) {
	member := models.User{ID: "aunt-1", Role: models.RoleFamily}
	other := models.User{ID: "uncle-1", Role: models.RoleFamily}
	child := newChild("owner-1", 2022, member, other)

	// A family member with read access cannot modify another member's
	// contribution, even on their own linked child.
	require.True(t, CanAccess(&member, child))
	require.False(t, CanModify(&member, child, other.ID))
	require.True(t, CanModify(&member, child, member.ID))
}

func TestCanModifyOwnerOverridesCreator(t *testing.T) {
	owner := &models.User{ID: "owner-1", Role: models.RoleOwner}
	child := newChild(owner.ID, 2022)

	require.True(t, CanModify(owner, child, "someone-else"))
}

func TestCanExportIsOwnerOnly(t *testing.T) {
	owner := &models.User{ID: "owner-1", Role: models.RoleOwner}
	member := models.User{ID: "aunt-1", Role: models.RoleFamily}
	child := newChild(owner.ID, 2022, member)

	require.True(t, CanExport(owner, child))
	require.False(t, CanExport(&member, child))
}

func TestEvaluatePlainAccess(t *testing.T) {
	owner := &models.User{ID: "owner-1", Role: models.RoleOwner}
	child := newChild(owner.ID, 2022)

	decision := Evaluate(owner, child, "", today)
	require.Equal(t, Allowed, decision.Verdict)
	require.True(t, decision.Allowed())
}

func TestEvaluateFeatureNotUnlocked(t *testing.T) {
	owner := &models.User{ID: "owner-1", Role: models.RoleOwner}
	child := newChild(owner.ID, 2024) // newborn

	decision := Evaluate(owner, child, features.BedtimeStories, today)
	require.Equal(t, DeniedNotUnlocked, decision.Verdict)
	require.Equal(t, features.BedtimeStories, decision.Feature)
	require.Equal(t, 3, decision.UnlocksAtAge)
	require.False(t, decision.Allowed())
}

func TestEvaluateFeatureUnlocked(t *testing.T) {
	owner := &models.User{ID: "owner-1", Role: models.RoleOwner}
	child := newChild(owner.ID, 2019) // five years old

	decision := Evaluate(owner, child, features.BedtimeStories, today)
	require.Equal(t, Allowed, decision.Verdict)
}

func TestEvaluateDenialOrdering(t *testing.T) {
	// A stranger gets a permission denial, never the feature hint.
	stranger := &models.User{ID: "stranger", Role: models.RoleFamily}
	child := newChild("owner-1", 2024)

	decision := Evaluate(stranger, child, features.BedtimeStories, today)
	require.Equal(t, DeniedPermission, decision.Verdict)
	require.Zero(t, decision.UnlocksAtAge)
}

func TestEvaluateUnknownFeature(t *testing.T) {
	owner := &models.User{ID: "owner-1", Role: models.RoleOwner}
	child := newChild(owner.ID, 2019)

	decision := Evaluate(owner, child, "no_such_feature", today)
	require.Equal(t, DeniedPermission, decision.Verdict)
}

func TestEvaluateModify(t *testing.T) {
	member := models.User{ID: "aunt-1", Role: models.RoleFamily}
	child := newChild("owner-1", 2019, member)

	own := EvaluateModify(&member, child, member.ID, features.BedtimeStories, today)
	require.Equal(t, Allowed, own.Verdict)

	other := EvaluateModify(&member, child, "uncle-1", features.BedtimeStories, today)
	require.Equal(t, DeniedPermission, other.Verdict)
}

func TestVerdictString(t *testing.T) {
	require.Equal(t, "allowed", Allowed.String())
	require.Equal(t, "denied_permission", DeniedPermission.String())
	require.Equal(t, "denied_not_unlocked", DeniedNotUnlocked.String())
}
