package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sproutbook/sproutbook/internal/access"
	"github.com/sproutbook/sproutbook/internal/database/testutil"
	"github.com/sproutbook/sproutbook/internal/features"
	"github.com/sproutbook/sproutbook/internal/models"
	apperrors "github.com/sproutbook/sproutbook/pkg/errors"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func createUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createChild(t *testing.T, db *gorm.DB, owner *models.User, name string, birth time.Time) *models.Child {
	t.Helper()
	child := &models.Child{Name: name, BirthDate: birth, OwnerID: owner.ID}
	require.NoError(t, db.Create(child).Error)
	return child
}

func linkFamilyMember(t *testing.T, db *gorm.DB, child *models.Child, member *models.User) {
	t.Helper()
	require.NoError(t, db.Model(child).Association("FamilyMembers").Append(member))
}

func TestChildServiceCreateRequiresOwnerRole(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	family := createUser(t, db, "aunt", models.RoleFamily)

	svc, err := NewChildService(db)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), family.ID, CreateChildInput{
		Name:      "Maya",
		BirthDate: time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestChildServiceGetForUser(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	owner := createUser(t, db, "parent", models.RoleOwner)
	member := createUser(t, db, "grandma", models.RoleFamily)
	stranger := createUser(t, db, "stranger", models.RoleFamily)
	otherOwner := createUser(t, db, "neighbour", models.RoleOwner)

	child := createChild(t, db, owner, "Maya", time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC))
	linkFamilyMember(t, db, child, member)

	svc, err := NewChildService(db)
	require.NoError(t, err)
	ctx := context.Background()

	got, err := svc.GetForUser(ctx, owner.ID, child.ID)
	require.NoError(t, err)
	require.Equal(t, child.ID, got.ID)

	_, err = svc.GetForUser(ctx, member.ID, child.ID)
	require.NoError(t, err)

	_, err = svc.GetForUser(ctx, stranger.ID, child.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	// Owning some child grants nothing on another owner's child.
	_, err = svc.GetForUser(ctx, otherOwner.ID, child.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestChildServiceListAccessible(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	owner := createUser(t, db, "parent", models.RoleOwner)
	member := createUser(t, db, "grandma", models.RoleFamily)
	otherOwner := createUser(t, db, "neighbour", models.RoleOwner)

	mine := createChild(t, db, owner, "Maya", time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC))
	second := createChild(t, db, owner, "Theo", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	theirs := createChild(t, db, otherOwner, "Luca", time.Date(2023, 5, 5, 0, 0, 0, 0, time.UTC))
	linkFamilyMember(t, db, mine, member)

	svc, err := NewChildService(db)
	require.NoError(t, err)
	ctx := context.Background()

	ownerList, err := svc.ListAccessible(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, ownerList, 2)
	require.ElementsMatch(t,
		[]string{mine.ID, second.ID},
		[]string{ownerList[0].ID, ownerList[1].ID})

	memberList, err := svc.ListAccessible(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, memberList, 1)
	require.Equal(t, mine.ID, memberList[0].ID)

	otherList, err := svc.ListAccessible(ctx, otherOwner.ID)
	require.NoError(t, err)
	require.Len(t, otherList, 1)
	require.Equal(t, theirs.ID, otherList[0].ID)
}

func TestChildServiceFeatureReport(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	owner := createUser(t, db, "parent", models.RoleOwner)
	child := createChild(t, db, owner, "Maya", time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC))

	today := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)
	svc, err := NewChildService(db, WithChildClock(fixedClock(today)))
	require.NoError(t, err)

	report, err := svc.FeatureReport(context.Background(), owner.ID, child.ID)
	require.NoError(t, err)
	require.Equal(t, 4, report.Age.Years)
	require.Contains(t, report.Unlocked, features.BedtimeStories)
	require.NotContains(t, report.Unlocked, features.VoiceNotes)

	require.Len(t, report.Upcoming, 3)
	require.Equal(t, 5, report.Upcoming[0].AtAge)
	require.Equal(t, 13, report.Upcoming[1].AtAge)
	require.Equal(t, 18, report.Upcoming[2].AtAge)
}

func TestChildServiceTransferOwnership(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	owner := createUser(t, db, "parent", models.RoleOwner)
	grown := createUser(t, db, "maya", models.RoleChild)
	child := createChild(t, db, owner, "Maya", time.Date(2004, 2, 1, 0, 0, 0, 0, time.UTC))

	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, err := NewChildService(db, WithChildClock(fixedClock(today)))
	require.NoError(t, err)
	ctx := context.Background()

	// No linked account yet: nothing to hand over to.
	_, err = svc.TransferOwnership(ctx, owner.ID, child.ID)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperrors.ErrBadRequest.Code, appErr.Code)

	_, err = svc.LinkChildAccount(ctx, owner.ID, child.ID, grown.ID)
	require.NoError(t, err)

	transferred, err := svc.TransferOwnership(ctx, owner.ID, child.ID)
	require.NoError(t, err)
	require.Equal(t, grown.ID, transferred.OwnerID)

	var promoted models.User
	require.NoError(t, db.First(&promoted, "id = ?", grown.ID).Error)
	require.Equal(t, models.RoleOwner, promoted.Role)
}

func TestChildServiceTransferOwnershipGatedUntilEighteen(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	owner := createUser(t, db, "parent", models.RoleOwner)
	young := createUser(t, db, "theo", models.RoleChild)
	child := createChild(t, db, owner, "Theo", time.Date(2015, 2, 1, 0, 0, 0, 0, time.UTC))

	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, err := NewChildService(db, WithChildClock(fixedClock(today)))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.LinkChildAccount(ctx, owner.ID, child.ID, young.ID)
	require.NoError(t, err)

	_, err = svc.TransferOwnership(ctx, owner.ID, child.ID)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "FEATURE_LOCKED", appErr.Code)
	require.Contains(t, appErr.Message, "unlocks at age 18")
}

func TestDecisionErrorMapping(t *testing.T) {
	require.NoError(t, decisionError(access.Decision{Verdict: access.Allowed}))
	require.ErrorIs(t,
		decisionError(access.Decision{Verdict: access.DeniedPermission}),
		apperrors.ErrForbidden)

	err := decisionError(access.Decision{
		Verdict:      access.DeniedNotUnlocked,
		Feature:      features.BedtimeStories,
		UnlocksAtAge: 3,
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "FEATURE_LOCKED", appErr.Code)
	require.Equal(t, "bedtime_stories unlocks at age 3", appErr.Message)
}
