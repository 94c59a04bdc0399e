package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sproutbook/sproutbook/internal/database/testutil"
	"github.com/sproutbook/sproutbook/internal/models"
)

func seedUserAndChild(t *testing.T, db *gorm.DB) (*models.User, *models.Child) {
	t.Helper()

	owner := &models.User{Username: "parent", Email: "parent@example.com", Password: "x", Role: models.RoleOwner}
	require.NoError(t, db.Create(owner).Error)

	child := &models.Child{
		Name:      "Maya",
		BirthDate: time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC),
		OwnerID:   owner.ID,
	}
	require.NoError(t, db.Create(child).Error)
	return owner, child
}

func TestCleanupInvitationsRemovesOnlyExpiredUnaccepted(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	owner, child := seedUserAndChild(t, db)

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	stale := &models.Invitation{
		Email: "old@example.com", ChildID: child.ID, InvitedByID: owner.ID,
		Role: models.RoleFamily, Token: "stale-token",
		ExpiresAt: now.Add(-24 * time.Hour),
	}
	pending := &models.Invitation{
		Email: "new@example.com", ChildID: child.ID, InvitedByID: owner.ID,
		Role: models.RoleFamily, Token: "pending-token",
		ExpiresAt: now.Add(24 * time.Hour),
	}
	accepted := &models.Invitation{
		Email: "used@example.com", ChildID: child.ID, InvitedByID: owner.ID,
		Role: models.RoleFamily, Token: "used-token",
		IsAccepted: true, ExpiresAt: now.Add(-48 * time.Hour),
	}
	require.NoError(t, db.Create(stale).Error)
	require.NoError(t, db.Create(pending).Error)
	require.NoError(t, db.Create(accepted).Error)

	removed, err := CleanupInvitations(context.Background(), db, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	var remaining []models.Invitation
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 2)
	for _, inv := range remaining {
		require.NotEqual(t, "stale-token", inv.Token)
	}
}

func TestCleanupJobsHonoursRetention(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	owner, child := seedUserAndChild(t, db)

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -60)

	done := &models.ExportJob{ChildID: child.ID, RequestedByID: owner.ID, Status: models.JobCompleted}
	require.NoError(t, db.Create(done).Error)
	require.NoError(t, db.Model(done).UpdateColumn("updated_at", old).Error)

	running := &models.ExportJob{ChildID: child.ID, RequestedByID: owner.ID, Status: models.JobProcessing}
	require.NoError(t, db.Create(running).Error)
	require.NoError(t, db.Model(running).UpdateColumn("updated_at", old).Error)

	stats, err := CleanupJobs(context.Background(), db, now, 30)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.ExportJobs)

	var jobs []models.ExportJob
	require.NoError(t, db.Find(&jobs).Error)
	require.Len(t, jobs, 1)
	require.Equal(t, models.JobProcessing, jobs[0].Status)
}

func TestRunOnceWithClock(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	owner, child := seedUserAndChild(t, db)

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	inv := &models.Invitation{
		Email: "old@example.com", ChildID: child.ID, InvitedByID: owner.ID,
		Role: models.RoleFamily, Token: "stale-token",
		ExpiresAt: now.Add(-time.Hour),
	}
	require.NoError(t, db.Create(inv).Error)

	cleaner := NewCleaner(db, WithNow(func() time.Time { return now }))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var count int64
	require.NoError(t, db.Model(&models.Invitation{}).Count(&count).Error)
	require.Zero(t, count)
}
