package services

import (
	"context"
	"encoding/json"
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

// CreateMemoryInput describes a new memory entry.
type CreateMemoryInput struct {
	ChildID string
	Title   string
	Content string
	Type    models.MemoryType

	ImagePath     string
	VideoPath     string
	AudioPath     string
	ThumbnailPath string

	MemoryDate time.Time
	Tags       []string
	Location   string
	Latitude   *float64
	Longitude  *float64

	IsMilestone bool
	IsPrivate   bool
}

// UpdateMemoryInput carries optional fields; nil pointers leave the column
// untouched.
type UpdateMemoryInput struct {
	Title      *string
	Content    *string
	MemoryDate *time.Time
	Tags       []string
	Location   *string
	IsPrivate  *bool
}

// ListMemoriesInput filters a child's timeline.
type ListMemoriesInput struct {
	Type models.MemoryType
	Tag  string
	From time.Time
	To   time.Time
}

// MemoryService manages the memory timeline, reactions and comments.
type MemoryService struct {
	db  *gorm.DB
	now func() time.Time
}

// MemoryServiceOption customises a MemoryService.
type MemoryServiceOption func(*MemoryService)

// WithMemoryClock overrides the clock used for feature gates.
func WithMemoryClock(now func() time.Time) MemoryServiceOption {
	return func(s *MemoryService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryService constructs a MemoryService instance.
func NewMemoryService(db *gorm.DB, opts ...MemoryServiceOption) (*MemoryService, error) {
	if db == nil {
		return nil, errors.New("memory service: db is required")
	}
	svc := &MemoryService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// featureForMemoryType maps a memory kind to the flag gating its creation.
// Audio and drawings unlock later than the plain timeline.
func featureForMemoryType(memoryType models.MemoryType) features.Flag {
	switch memoryType {
	case models.MemoryAudio:
		return features.VoiceNotes
	case models.MemoryDrawing:
		return features.Drawings
	default:
		return features.Memories
	}
}

// Create records a memory on the child's timeline. Audio and drawing entries
// are gated by the child's age. Photo memories queue an AI caption task once
// captions have unlocked.
func (s *MemoryService) Create(ctx context.Context, userID string, input CreateMemoryInput) (*models.Memory, error) {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	child, err := loadChild(ctx, s.db, input.ChildID)
	if err != nil {
		return nil, err
	}

	memoryType := input.Type
	if memoryType == "" {
		memoryType = models.MemoryText
	}

	today := s.now()
	if err := decisionError(access.Evaluate(user, child, featureForMemoryType(memoryType), today)); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	memoryDate := input.MemoryDate
	if memoryDate.IsZero() {
		memoryDate = today
	}

	memory := &models.Memory{
		ChildID:       child.ID,
		CreatedByID:   user.ID,
		Title:         title,
		Content:       input.Content,
		Type:          memoryType,
		ImagePath:     input.ImagePath,
		VideoPath:     input.VideoPath,
		AudioPath:     input.AudioPath,
		ThumbnailPath: input.ThumbnailPath,
		MemoryDate:    memoryDate,
		Tags:          strings.Join(input.Tags, ","),
		Location:      strings.TrimSpace(input.Location),
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		IsMilestone:   input.IsMilestone,
		IsPrivate:     input.IsPrivate,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(memory).Error; err != nil {
			return fmt.Errorf("create memory: %w", err)
		}
		if memory.Type == models.MemoryPhoto && memory.ImagePath != "" &&
			access.Evaluate(user, child, features.AICaptions, today).Allowed() {
			if err := queueCaptionTask(tx, memory); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("memory service: %w", err)
	}
	return memory, nil
}

func queueCaptionTask(tx *gorm.DB, memory *models.Memory) error {
	input, err := json.Marshal(map[string]string{
		"memory_id":  memory.ID,
		"image_path": memory.ImagePath,
	})
	if err != nil {
		return fmt.Errorf("encode caption input: %w", err)
	}
	task := &models.AITask{
		Type:        models.AITaskCaption,
		Status:      models.JobPending,
		Input:       input,
		CreatedByID: memory.CreatedByID,
	}
	if err := tx.Create(task).Error; err != nil {
		return fmt.Errorf("queue caption task: %w", err)
	}
	return nil
}

// List returns the child's timeline newest first. Private memories are only
// visible to their creator and the child's owner.
func (s *MemoryService) List(ctx context.Context, userID, childID string, filter ListMemoriesInput) ([]models.Memory, error) {
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
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Tag != "" {
		query = query.Where("tags LIKE ?", "%"+filter.Tag+"%")
	}
	if !filter.From.IsZero() {
		query = query.Where("memory_date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("memory_date <= ?", filter.To)
	}

	var memories []models.Memory
	if err := query.Order("memory_date DESC, created_at DESC").Find(&memories).Error; err != nil {
		return nil, fmt.Errorf("memory service: list memories: %w", err)
	}
	return memories, nil
}

// MapPoints returns the child's geotagged memories for the memory map,
// which unlocks at age two. Privacy filtering matches List.
func (s *MemoryService) MapPoints(ctx context.Context, userID, childID string) ([]models.Memory, error) {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	child, err := loadChild(ctx, s.db, childID)
	if err != nil {
		return nil, err
	}
	if err := decisionError(access.Evaluate(user, child, features.MemoryMap, s.now())); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Where("child_id = ?", child.ID).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL")
	if !(user.IsOwner() && child.OwnerID == user.ID) {
		query = query.Where("is_private = ? OR created_by_id = ?", false, user.ID)
	}

	var memories []models.Memory
	if err := query.Order("memory_date DESC").Find(&memories).Error; err != nil {
		return nil, fmt.Errorf("memory service: map points: %w", err)
	}
	return memories, nil
}

// Get loads one memory, enforcing child access and the privacy flag.
func (s *MemoryService) Get(ctx context.Context, userID, memoryID string) (*models.Memory, error) {
	ctx = ensureContext(ctx)

	user, memory, child, err := s.loadMemory(ctx, userID, memoryID)
	if err != nil {
		return nil, err
	}
	if memory.IsPrivate && memory.CreatedByID != user.ID && !(user.IsOwner() && child.OwnerID == user.ID) {
		return nil, apperrors.ErrForbidden
	}
	return memory, nil
}

// loadMemory resolves the memory, its child and the acting user, with the
// read-access check already applied.
func (s *MemoryService) loadMemory(ctx context.Context, userID, memoryID string) (*models.User, *models.Memory, *models.Child, error) {
	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, nil, nil, err
	}

	var memory models.Memory
	err = s.db.WithContext(ctx).First(&memory, "id = ?", memoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("memory service: load memory: %w", err)
	}

	child, err := loadChild(ctx, s.db, memory.ChildID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := decisionError(access.Evaluate(user, child, "", s.now())); err != nil {
		return nil, nil, nil, err
	}
	return user, &memory, child, nil
}

// Update edits a memory. Only the creator or the child's owner may.
func (s *MemoryService) Update(ctx context.Context, userID, memoryID string, input UpdateMemoryInput) (*models.Memory, error) {
	ctx = ensureContext(ctx)

	user, memory, child, err := s.loadMemory(ctx, userID, memoryID)
	if err != nil {
		return nil, err
	}
	if !access.CanModify(user, child, memory.CreatedByID) {
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
	if input.Content != nil {
		updates["content"] = *input.Content
	}
	if input.MemoryDate != nil {
		updates["memory_date"] = *input.MemoryDate
	}
	if input.Tags != nil {
		updates["tags"] = strings.Join(input.Tags, ",")
	}
	if input.Location != nil {
		updates["location"] = strings.TrimSpace(*input.Location)
	}
	if input.IsPrivate != nil {
		updates["is_private"] = *input.IsPrivate
	}
	if len(updates) == 0 {
		return memory, nil
	}

	if err := s.db.WithContext(ctx).Model(memory).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("memory service: update memory: %w", err)
	}
	return memory, nil
}

// Delete removes a memory together with its reactions, comments and album
// placements.
func (s *MemoryService) Delete(ctx context.Context, userID, memoryID string) error {
	ctx = ensureContext(ctx)

	user, memory, child, err := s.loadMemory(ctx, userID, memoryID)
	if err != nil {
		return err
	}
	if !access.CanModify(user, child, memory.CreatedByID) {
		return apperrors.ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("memory_id = ?", memory.ID).Delete(&models.MemoryReaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("memory_id = ?", memory.ID).Delete(&models.MemoryComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("memory_id = ?", memory.ID).Delete(&models.AlbumMemory{}).Error; err != nil {
			return err
		}
		return tx.Delete(memory).Error
	})
	if err != nil {
		return fmt.Errorf("memory service: delete memory: %w", err)
	}
	return nil
}

// ToggleReaction adds the user's reaction, or removes it when it already
// exists. Returns true when the reaction is present afterwards.
func (s *MemoryService) ToggleReaction(ctx context.Context, userID, memoryID, reaction string) (bool, error) {
	ctx = ensureContext(ctx)

	reaction = strings.TrimSpace(reaction)
	if reaction == "" {
		return false, apperrors.NewBadRequest("reaction is required")
	}

	user, memory, _, err := s.loadMemory(ctx, userID, memoryID)
	if err != nil {
		return false, err
	}

	var existing models.MemoryReaction
	err = s.db.WithContext(ctx).
		Where("memory_id = ? AND user_id = ? AND reaction = ?", memory.ID, user.ID, reaction).
		First(&existing).Error
	switch {
	case err == nil:
		if err := s.db.WithContext(ctx).Delete(&existing).Error; err != nil {
			return false, fmt.Errorf("memory service: remove reaction: %w", err)
		}
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		row := &models.MemoryReaction{MemoryID: memory.ID, UserID: user.ID, Reaction: reaction}
		if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
			if isUniqueConstraintError(err) {
				// Lost a race against an identical toggle; treat as present.
				return true, nil
			}
			return false, fmt.Errorf("memory service: add reaction: %w", err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("memory service: find reaction: %w", err)
	}
}

// AddComment appends a comment to the memory.
func (s *MemoryService) AddComment(ctx context.Context, userID, memoryID, content string) (*models.MemoryComment, error) {
	ctx = ensureContext(ctx)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewBadRequest("content is required")
	}

	user, memory, _, err := s.loadMemory(ctx, userID, memoryID)
	if err != nil {
		return nil, err
	}

	comment := &models.MemoryComment{MemoryID: memory.ID, UserID: user.ID, Content: content}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("memory service: add comment: %w", err)
	}
	return comment, nil
}

// ListComments returns a memory's comments oldest first.
func (s *MemoryService) ListComments(ctx context.Context, userID, memoryID string) ([]models.MemoryComment, error) {
	ctx = ensureContext(ctx)

	_, memory, _, err := s.loadMemory(ctx, userID, memoryID)
	if err != nil {
		return nil, err
	}

	var comments []models.MemoryComment
	err = s.db.WithContext(ctx).
		Preload("User").
		Where("memory_id = ?", memory.ID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("memory service: list comments: %w", err)
	}
	return comments, nil
}

// DeleteComment removes a comment. The comment author or the child's owner
// may.
func (s *MemoryService) DeleteComment(ctx context.Context, userID, commentID string) error {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return err
	}

	var comment models.MemoryComment
	err = s.db.WithContext(ctx).Preload("Memory").First(&comment, "id = ?", commentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("memory service: load comment: %w", err)
	}
	if comment.Memory == nil {
		return apperrors.ErrInternalServer.WithInternal(
			fmt.Errorf("comment %s references missing memory %s", comment.ID, comment.MemoryID))
	}

	child, err := loadChild(ctx, s.db, comment.Memory.ChildID)
	if err != nil {
		return err
	}
	if !access.CanModify(user, child, comment.UserID) {
		return apperrors.ErrForbidden
	}

	if err := s.db.WithContext(ctx).Delete(&comment).Error; err != nil {
		return fmt.Errorf("memory service: delete comment: %w", err)
	}
	return nil
}
