package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sproutbook/sproutbook/internal/access"
	"github.com/sproutbook/sproutbook/internal/features"
	"github.com/sproutbook/sproutbook/internal/models"
	apperrors "github.com/sproutbook/sproutbook/pkg/errors"
)

// CreateAlbumInput describes a new album.
type CreateAlbumInput struct {
	ChildID     string
	Title       string
	Description string
	IsPrivate   bool
}

// UpdateAlbumInput carries optional album fields.
type UpdateAlbumInput struct {
	Title       *string
	Description *string
	IsPrivate   *bool
}

// AlbumService groups memories into curated albums.
type AlbumService struct {
	db  *gorm.DB
	now func() time.Time
}

// AlbumServiceOption customises an AlbumService.
type AlbumServiceOption func(*AlbumService)

// WithAlbumClock overrides the clock used for feature gates.
func WithAlbumClock(now func() time.Time) AlbumServiceOption {
	return func(s *AlbumService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAlbumService constructs an AlbumService instance.
func NewAlbumService(db *gorm.DB, opts ...AlbumServiceOption) (*AlbumService, error) {
	if db == nil {
		return nil, errors.New("album service: db is required")
	}
	svc := &AlbumService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create starts a new album for the child.
func (s *AlbumService) Create(ctx context.Context, userID string, input CreateAlbumInput) (*models.Album, error) {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	child, err := loadChild(ctx, s.db, input.ChildID)
	if err != nil {
		return nil, err
	}
	if err := decisionError(access.Evaluate(user, child, features.Memories, s.now())); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}

	album := &models.Album{
		ChildID:     child.ID,
		CreatedByID: user.ID,
		Title:       title,
		Description: input.Description,
		IsPrivate:   input.IsPrivate,
	}
	if err := s.db.WithContext(ctx).Create(album).Error; err != nil {
		return nil, fmt.Errorf("album service: create album: %w", err)
	}
	return album, nil
}

// List returns the child's albums newest first. Private albums are only
// visible to their creator and the child's owner.
func (s *AlbumService) List(ctx context.Context, userID, childID string) ([]models.Album, error) {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	child, err := loadChild(ctx, s.db, childID)
	if err != nil {
		return nil, err
	}
	if err := decisionError(access.Evaluate(user, child, "", s.now())); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Where("child_id = ?", child.ID)
	if !(user.IsOwner() && child.OwnerID == user.ID) {
		query = query.Where("is_private = ? OR created_by_id = ?", false, user.ID)
	}

	var albums []models.Album
	if err := query.Order("created_at DESC").Find(&albums).Error; err != nil {
		return nil, fmt.Errorf("album service: list albums: %w", err)
	}
	return albums, nil
}

// Get loads one album with its entries in position order.
func (s *AlbumService) Get(ctx context.Context, userID, albumID string) (*models.Album, error) {
	ctx = ensureContext(ctx)

	user, album, child, err := s.loadAlbum(ctx, userID, albumID)
	if err != nil {
		return nil, err
	}
	if album.IsPrivate && album.CreatedByID != user.ID && !(user.IsOwner() && child.OwnerID == user.ID) {
		return nil, apperrors.ErrForbidden
	}

	err = s.db.WithContext(ctx).
		Preload("Memory").
		Where("album_id = ?", album.ID).
		Order("position ASC").
		Find(&album.Entries).Error
	if err != nil {
		return nil, fmt.Errorf("album service: load entries: %w", err)
	}
	return album, nil
}

func (s *AlbumService) loadAlbum(ctx context.Context, userID, albumID string) (*models.User, *models.Album, *models.Child, error) {
	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, nil, nil, err
	}

	var album models.Album
	err = s.db.WithContext(ctx).First(&album, "id = ?", albumID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("album service: load album: %w", err)
	}

	child, err := loadChild(ctx, s.db, album.ChildID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := decisionError(access.Evaluate(user, child, "", s.now())); err != nil {
		return nil, nil, nil, err
	}
	return user, &album, child, nil
}

// Update edits album metadata. Creator or owner only.
func (s *AlbumService) Update(ctx context.Context, userID, albumID string, input UpdateAlbumInput) (*models.Album, error) {
	ctx = ensureContext(ctx)

	user, album, child, err := s.loadAlbum(ctx, userID, albumID)
	if err != nil {
		return nil, err
	}
	if !access.CanModify(user, child, album.CreatedByID) {
		return nil, apperrors.ErrForbidden
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewBadRequest("title cannot be empty")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsPrivate != nil {
		updates["is_private"] = *input.IsPrivate
	}
	if len(updates) == 0 {
		return album, nil
	}

	if err := s.db.WithContext(ctx).Model(album).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("album service: update album: %w", err)
	}
	return album, nil
}

// Delete removes the album and its placements. Memories themselves stay.
func (s *AlbumService) Delete(ctx context.Context, userID, albumID string) error {
	ctx = ensureContext(ctx)

	user, album, child, err := s.loadAlbum(ctx, userID, albumID)
	if err != nil {
		return err
	}
	if !access.CanModify(user, child, album.CreatedByID) {
		return apperrors.ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("album_id = ?", album.ID).Delete(&models.AlbumMemory{}).Error; err != nil {
			return err
		}
		return tx.Delete(album).Error
	})
	if err != nil {
		return fmt.Errorf("album service: delete album: %w", err)
	}
	return nil
}

// AddMemory places a memory at the end of the album. The memory must belong
// to the same child; a memory appears in an album at most once.
func (s *AlbumService) AddMemory(ctx context.Context, userID, albumID, memoryID string) (*models.AlbumMemory, error) {
	ctx = ensureContext(ctx)

	user, album, child, err := s.loadAlbum(ctx, userID, albumID)
	if err != nil {
		return nil, err
	}
	if !access.CanModify(user, child, album.CreatedByID) {
		return nil, apperrors.ErrForbidden
	}

	var memory models.Memory
	err = s.db.WithContext(ctx).First(&memory, "id = ?", memoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("album service: load memory: %w", err)
	}
	if memory.ChildID != album.ChildID {
		return nil, apperrors.NewBadRequest("memory belongs to a different child")
	}

	var entry *models.AlbumMemory
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxPosition int
		row := tx.Model(&models.AlbumMemory{}).
			Where("album_id = ?", album.ID).
			Select("COALESCE(MAX(position), -1)").
			Row()
		if err := row.Scan(&maxPosition); err != nil {
			return fmt.Errorf("next position: %w", err)
		}

		entry = &models.AlbumMemory{
			AlbumID:   album.ID,
			MemoryID:  memory.ID,
			Position:  maxPosition + 1,
			AddedByID: user.ID,
		}
		if err := tx.Create(entry).Error; err != nil {
			if isUniqueConstraintError(err) {
				return apperrors.NewBadRequest("memory is already in this album")
			}
			return fmt.Errorf("add entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// RemoveMemory takes a memory out of the album.
func (s *AlbumService) RemoveMemory(ctx context.Context, userID, albumID, memoryID string) error {
	ctx = ensureContext(ctx)

	user, album, child, err := s.loadAlbum(ctx, userID, albumID)
	if err != nil {
		return err
	}
	if !access.CanModify(user, child, album.CreatedByID) {
		return apperrors.ErrForbidden
	}

	res := s.db.WithContext(ctx).
		Where("album_id = ? AND memory_id = ?", album.ID, memoryID).
		Delete(&models.AlbumMemory{})
	if res.Error != nil {
		return fmt.Errorf("album service: remove entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Reorder rewrites the positions of the album's entries to match the given
// memory order. The list must name every entry exactly once.
func (s *AlbumService) Reorder(ctx context.Context, userID, albumID string, memoryIDs []string) error {
	ctx = ensureContext(ctx)

	user, album, child, err := s.loadAlbum(ctx, userID, albumID)
	if err != nil {
		return err
	}
	if !access.CanModify(user, child, album.CreatedByID) {
		return apperrors.ErrForbidden
	}

	var entries []models.AlbumMemory
	if err := s.db.WithContext(ctx).Where("album_id = ?", album.ID).Find(&entries).Error; err != nil {
		return fmt.Errorf("album service: load entries: %w", err)
	}
	if len(memoryIDs) != len(entries) {
		return apperrors.NewBadRequest("order must list every memory in the album exactly once")
	}
	current := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		current[entry.MemoryID] = struct{}{}
	}
	for _, id := range memoryIDs {
		if _, ok := current[id]; !ok {
			return apperrors.NewBadRequest("order must list every memory in the album exactly once")
		}
		delete(current, id)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for position, id := range memoryIDs {
			err := tx.Model(&models.AlbumMemory{}).
				Where("album_id = ? AND memory_id = ?", album.ID, id).
				Update("position", position).Error
			if err != nil {
				return fmt.Errorf("reorder entry: %w", err)
			}
		}
		return nil
	})
}

// SetCover points the album cover at one of its memories.
func (s *AlbumService) SetCover(ctx context.Context, userID, albumID, memoryID string) error {
	ctx = ensureContext(ctx)

	user, album, child, err := s.loadAlbum(ctx, userID, albumID)
	if err != nil {
		return err
	}
	if !access.CanModify(user, child, album.CreatedByID) {
		return apperrors.ErrForbidden
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.AlbumMemory{}).
		Where("album_id = ? AND memory_id = ?", album.ID, memoryID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("album service: check entry: %w", err)
	}
	if count == 0 {
		return apperrors.NewBadRequest("cover must be a memory inside the album")
	}

	if err := s.db.WithContext(ctx).Model(album).Update("cover_memory_id", memoryID).Error; err != nil {
		return fmt.Errorf("album service: set cover: %w", err)
	}
	return nil
}
