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

func TestExportRequestStrictlyOwner(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	owner := createUser(t, db, "parent", models.RoleOwner)
	member := createUser(t, db, "grandma", models.RoleFamily)
	child := createChild(t, db, owner, "Maya", time.Date(2004, 2, 1, 0, 0, 0, 0, time.UTC))
	linkFamilyMember(t, db, child, member)

	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, err := NewExportService(db, WithExportClock(fixedClock(today)))
	require.NoError(t, err)
	ctx := context.Background()

	// A linked family member can read the album but never export it.
	_, err = svc.Request(ctx, member.ID, child.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	job, err := svc.Request(ctx, owner.ID, child.ID)
	require.NoError(t, err)
	require.Equal(t, models.JobPending, job.Status)

	// One in-flight export per child.
	_, err = svc.Request(ctx, owner.ID, child.ID)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperrors.ErrBadRequest.Code, appErr.Code)
}

func TestExportRequestGatedUntilEighteen(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	owner := createUser(t, db, "parent", models.RoleOwner)
	child := createChild(t, db, owner, "Theo", time.Date(2015, 2, 1, 0, 0, 0, 0, time.UTC))

	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, err := NewExportService(db, WithExportClock(fixedClock(today)))
	require.NoError(t, err)

	_, err = svc.Request(context.Background(), owner.ID, child.ID)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "FEATURE_LOCKED", appErr.Code)
	require.Contains(t, appErr.Message, "full_export unlocks at age 18")
}

func TestStoryRequestGatedUntilThree(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	owner := createUser(t, db, "parent", models.RoleOwner)
	newborn := createChild(t, db, owner, "Theo", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))

	today := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, err := NewStoryService(db, WithStoryClock(fixedClock(today)))
	require.NoError(t, err)

	_, err = svc.Request(context.Background(), owner.ID, RequestStoryInput{ChildID: newborn.ID})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "FEATURE_LOCKED", appErr.Code)
	require.Contains(t, appErr.Message, "bedtime_stories unlocks at age 3")
}

func TestStoryRequestQueuesTask(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	owner := createUser(t, db, "parent", models.RoleOwner)
	child := createChild(t, db, owner, "Maya", time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC))

	today := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)
	svc, err := NewStoryService(db, WithStoryClock(fixedClock(today)))
	require.NoError(t, err)

	story, err := svc.Request(context.Background(), owner.ID, RequestStoryInput{
		ChildID: child.ID,
		Prompt:  "a dragon who learns to share",
	})
	require.NoError(t, err)
	require.Equal(t, "A story for Maya", story.Title)

	var tasks []models.AITask
	require.NoError(t, db.Where("type = ?", models.AITaskBedtimeStory).Find(&tasks).Error)
	require.Len(t, tasks, 1)
	require.Contains(t, string(tasks[0].Input), story.ID)
}
