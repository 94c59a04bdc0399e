package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sproutbook/sproutbook/internal/database/testutil"
	"github.com/sproutbook/sproutbook/internal/models"
	apperrors "github.com/sproutbook/sproutbook/pkg/errors"
)

func TestUserServiceRegisterCreatesOwnerWithFirstChild(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewUserService(db)
	require.NoError(t, err)

	birth := time.Date(2023, 5, 20, 0, 0, 0, 0, time.UTC)
	user, err := svc.Register(context.Background(), RegisterInput{
		User: CreateUserInput{
			Username: "dana",
			Email:    "Dana@Example.com",
			Password: "correct horse",
		},
		ChildName:      "Noa",
		ChildBirthDate: &birth,
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleOwner, user.Role)
	require.Equal(t, "dana@example.com", user.Email)

	var child models.Child
	require.NoError(t, db.First(&child, "owner_id = ?", user.ID).Error)
	require.Equal(t, "Noa", child.Name)
	require.True(t, child.BirthDate.Equal(birth))
}

func TestUserServiceRegisterDuplicateLeavesNoChildBehind(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewUserService(db)
	require.NoError(t, err)

	createUser(t, db, "dana", models.RoleOwner)

	birth := time.Date(2023, 5, 20, 0, 0, 0, 0, time.UTC)
	_, err = svc.Register(context.Background(), RegisterInput{
		User: CreateUserInput{
			Username: "dana",
			Email:    "other@example.com",
			Password: "correct horse",
		},
		ChildName:      "Noa",
		ChildBirthDate: &birth,
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "BAD_REQUEST", appErr.Code)

	var children int64
	require.NoError(t, db.Model(&models.Child{}).Count(&children).Error)
	require.Zero(t, children)
}

func TestUserServiceRegisterChildNeedsBirthDate(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewUserService(db)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{
		User: CreateUserInput{
			Username: "dana",
			Email:    "dana@example.com",
			Password: "correct horse",
		},
		ChildName: "Noa",
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "BAD_REQUEST", appErr.Code)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.Zero(t, users)
}

func TestUserServiceAuthenticate(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewUserService(db)
	require.NoError(t, err)

	user, err := svc.Create(context.Background(), CreateUserInput{
		Username: "dana",
		Email:    "dana@example.com",
		Password: "correct horse",
		Role:     models.RoleOwner,
	})
	require.NoError(t, err)

	got, err := svc.Authenticate(context.Background(), "dana", "correct horse")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	// Login by email works too.
	got, err = svc.Authenticate(context.Background(), "Dana@Example.com", "correct horse")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(context.Background(), "dana", "wrong")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}
