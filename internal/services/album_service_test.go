package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sproutbook/sproutbook/internal/database/testutil"
	"github.com/sproutbook/sproutbook/internal/models"
	apperrors "github.com/sproutbook/sproutbook/pkg/errors"
)

func createMemory(t *testing.T, db *gorm.DB, child *models.Child, creator *models.User, title string) *models.Memory {
	t.Helper()
	memory := &models.Memory{
		ChildID:     child.ID,
		CreatedByID: creator.ID,
		Title:       title,
		Type:        models.MemoryText,
		MemoryDate:  time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(memory).Error)
	return memory
}

func TestAlbumServiceReorder(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	owner := createUser(t, db, "mum", models.RoleOwner)
	child := createChild(t, db, owner, "Maya", time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC))

	svc, err := NewAlbumService(db, WithAlbumClock(fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, err)

	ctx := context.Background()
	album, err := svc.Create(ctx, owner.ID, CreateAlbumInput{ChildID: child.ID, Title: "First year"})
	require.NoError(t, err)

	first := createMemory(t, db, child, owner, "first smile")
	second := createMemory(t, db, child, owner, "first steps")
	third := createMemory(t, db, child, owner, "first word")
	for _, m := range []*models.Memory{first, second, third} {
		_, err := svc.AddMemory(ctx, owner.ID, album.ID, m.ID)
		require.NoError(t, err)
	}

	require.NoError(t, svc.Reorder(ctx, owner.ID, album.ID, []string{third.ID, first.ID, second.ID}))

	got, err := svc.Get(ctx, owner.ID, album.ID)
	require.NoError(t, err)
	require.Len(t, got.Entries, 3)
	require.Equal(t, third.ID, got.Entries[0].MemoryID)
	require.Equal(t, first.ID, got.Entries[1].MemoryID)
	require.Equal(t, second.ID, got.Entries[2].MemoryID)
}

func TestAlbumServiceReorderRejectsPartialList(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	owner := createUser(t, db, "mum", models.RoleOwner)
	child := createChild(t, db, owner, "Maya", time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC))

	svc, err := NewAlbumService(db, WithAlbumClock(fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, err)

	ctx := context.Background()
	album, err := svc.Create(ctx, owner.ID, CreateAlbumInput{ChildID: child.ID, Title: "First year"})
	require.NoError(t, err)

	first := createMemory(t, db, child, owner, "first smile")
	second := createMemory(t, db, child, owner, "first steps")
	for _, m := range []*models.Memory{first, second} {
		_, err := svc.AddMemory(ctx, owner.ID, album.ID, m.ID)
		require.NoError(t, err)
	}

	err = svc.Reorder(ctx, owner.ID, album.ID, []string{first.ID})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "BAD_REQUEST", appErr.Code)

	// Duplicates padding the list out to the right length are rejected too.
	err = svc.Reorder(ctx, owner.ID, album.ID, []string{first.ID, first.ID})
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "BAD_REQUEST", appErr.Code)
}
