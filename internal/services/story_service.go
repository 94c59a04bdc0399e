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

// RequestStoryInput describes a bedtime story generation request.
type RequestStoryInput struct {
	ChildID string
	Title   string
	Prompt  string
}

// StoryService manages AI bedtime stories. Generation happens in an external
// worker; the service records the story shell and queues the task.
type StoryService struct {
	db  *gorm.DB
	now func() time.Time
}

// StoryServiceOption customises a StoryService.
type StoryServiceOption func(*StoryService)

// WithStoryClock overrides the clock used for feature gates.
func WithStoryClock(now func() time.Time) StoryServiceOption {
	return func(s *StoryService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStoryService constructs a StoryService instance.
func NewStoryService(db *gorm.DB, opts ...StoryServiceOption) (*StoryService, error) {
	if db == nil {
		return nil, errors.New("story service: db is required")
	}
	svc := &StoryService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Request creates a story shell and queues the generation task. Bedtime
// stories unlock at age three.
func (s *StoryService) Request(ctx context.Context, userID string, input RequestStoryInput) (*models.BedtimeStory, error) {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	child, err := loadChild(ctx, s.db, input.ChildID)
	if err != nil {
		return nil, err
	}
	if err := decisionError(access.Evaluate(user, child, features.BedtimeStories, s.now())); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = fmt.Sprintf("A story for %s", child.Name)
	}

	story := &models.BedtimeStory{
		ChildID:     child.ID,
		CreatedByID: user.ID,
		Title:       title,
		PromptUsed:  strings.TrimSpace(input.Prompt),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(story).Error; err != nil {
			return fmt.Errorf("create story: %w", err)
		}

		taskInput, err := json.Marshal(map[string]string{
			"story_id":   story.ID,
			"child_name": child.Name,
			"prompt":     story.PromptUsed,
		})
		if err != nil {
			return fmt.Errorf("encode task input: %w", err)
		}
		task := &models.AITask{
			Type:        models.AITaskBedtimeStory,
			Status:      models.JobPending,
			Input:       taskInput,
			CreatedByID: user.ID,
		}
		if err := tx.Create(task).Error; err != nil {
			return fmt.Errorf("queue story task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("story service: %w", err)
	}
	return story, nil
}

// List returns the child's stories newest first.
func (s *StoryService) List(ctx context.Context, userID, childID string) ([]models.BedtimeStory, error) {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	child, err := loadChild(ctx, s.db, childID)
	if err != nil {
		return nil, err
	}
	if err := decisionError(access.Evaluate(user, child, features.BedtimeStories, s.now())); err != nil {
		return nil, err
	}

	var stories []models.BedtimeStory
	err = s.db.WithContext(ctx).
		Where("child_id = ?", child.ID).
		Order("created_at DESC").
		Find(&stories).Error
	if err != nil {
		return nil, fmt.Errorf("story service: list stories: %w", err)
	}
	return stories, nil
}

// ToggleFavorite flips the favourite flag on a story.
func (s *StoryService) ToggleFavorite(ctx context.Context, userID, storyID string) (*models.BedtimeStory, error) {
	ctx = ensureContext(ctx)

	user, err := loadUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	var story models.BedtimeStory
	err = s.db.WithContext(ctx).First(&story, "id = ?", storyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("story service: load story: %w", err)
	}

	child, err := loadChild(ctx, s.db, story.ChildID)
	if err != nil {
		return nil, err
	}
	if err := decisionError(access.Evaluate(user, child, "", s.now())); err != nil {
		return nil, err
	}

	story.IsFavorite = !story.IsFavorite
	if err := s.db.WithContext(ctx).Model(&story).Update("is_favorite", story.IsFavorite).Error; err != nil {
		return nil, fmt.Errorf("story service: toggle favorite: %w", err)
	}
	return &story, nil
}
