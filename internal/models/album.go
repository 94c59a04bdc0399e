package models

import "time"

// Album groups memories for one child.
type Album struct {
	BaseModel

	ChildID string `gorm:"type:uuid;not null;index" json:"child_id"`
	Child   *Child `gorm:"foreignKey:ChildID" json:"child,omitempty"`

	CreatedByID string `gorm:"type:uuid;not null" json:"created_by"`
	CreatedBy   *User  `gorm:"foreignKey:CreatedByID" json:"-"`

	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`

	CoverMemoryID *string `gorm:"type:uuid" json:"cover_memory_id,omitempty"`
	CoverMemory   *Memory `gorm:"foreignKey:CoverMemoryID;constraint:OnDelete:SET NULL" json:"cover_memory,omitempty"`

	IsPrivate bool `gorm:"default:false" json:"is_private"`

	Entries []AlbumMemory `gorm:"foreignKey:AlbumID" json:"entries,omitempty"`
}

// AlbumMemory orders a memory inside an album. A memory appears in an album
// at most once.
type AlbumMemory struct {
	BaseModel

	AlbumID string `gorm:"type:uuid;not null;index;uniqueIndex:idx_album_memory" json:"album_id"`
	Album   *Album `gorm:"foreignKey:AlbumID" json:"-"`

	MemoryID string  `gorm:"type:uuid;not null;uniqueIndex:idx_album_memory" json:"memory_id"`
	Memory   *Memory `gorm:"foreignKey:MemoryID" json:"memory,omitempty"`

	Position int `gorm:"not null;default:0" json:"position"`

	AddedByID string    `gorm:"type:uuid;not null" json:"added_by"`
	AddedAt   time.Time `gorm:"autoCreateTime" json:"added_at"`
}
