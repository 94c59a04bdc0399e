package models

import (
	"strings"
	"time"
)

// MemoryType enumerates the kinds of memories that can be recorded.
type MemoryType string

const (
	MemoryPhoto   MemoryType = "photo"
	MemoryVideo   MemoryType = "video"
	MemoryAudio   MemoryType = "audio"
	MemoryText    MemoryType = "text"
	MemoryDrawing MemoryType = "drawing"
)

// Memory is a single recorded moment for a child. Media lives in external
// storage; only the paths are persisted here.
type Memory struct {
	BaseModel

	ChildID string `gorm:"type:uuid;not null;index" json:"child_id"`
	Child   *Child `gorm:"foreignKey:ChildID" json:"child,omitempty"`

	CreatedByID string `gorm:"type:uuid;not null;index" json:"created_by"`
	CreatedBy   *User  `gorm:"foreignKey:CreatedByID" json:"-"`

	Title   string     `gorm:"not null" json:"title"`
	Content string     `json:"content"`
	Type    MemoryType `gorm:"not null;default:text" json:"type"`

	ImagePath     string `json:"image_path,omitempty"`
	VideoPath     string `json:"video_path,omitempty"`
	AudioPath     string `json:"audio_path,omitempty"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`

	MemoryDate time.Time `gorm:"not null;index" json:"memory_date"`
	Tags       string    `json:"tags"`
	Location   string    `json:"location"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`

	AICaption     string `json:"ai_caption,omitempty"`
	Transcription string `json:"transcription,omitempty"`

	IsMilestone bool `gorm:"default:false" json:"is_milestone"`
	IsPrivate   bool `gorm:"default:false" json:"is_private"`
}

// TagList splits the comma-separated tag field.
func (m *Memory) TagList() []string {
	if strings.TrimSpace(m.Tags) == "" {
		return nil
	}
	parts := strings.Split(m.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// MemoryReaction records an emoji reaction from a family member. One row per
// user, memory and reaction.
type MemoryReaction struct {
	BaseModel

	MemoryID string  `gorm:"type:uuid;not null;index;uniqueIndex:idx_memory_user_reaction" json:"memory_id"`
	Memory   *Memory `gorm:"foreignKey:MemoryID" json:"-"`

	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_memory_user_reaction" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"-"`

	Reaction string `gorm:"not null;uniqueIndex:idx_memory_user_reaction" json:"reaction"`
}

// MemoryComment is a threaded-free comment on a memory.
type MemoryComment struct {
	BaseModel

	MemoryID string  `gorm:"type:uuid;not null;index" json:"memory_id"`
	Memory   *Memory `gorm:"foreignKey:MemoryID" json:"-"`

	UserID string `gorm:"type:uuid;not null" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content string `gorm:"not null" json:"content"`
}
