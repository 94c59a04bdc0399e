package models

// BedtimeStory is an AI-generated story for a child. Generation itself runs
// through an AITask; this row holds the finished text.
type BedtimeStory struct {
	BaseModel

	ChildID string `gorm:"type:uuid;not null;index" json:"child_id"`
	Child   *Child `gorm:"foreignKey:ChildID" json:"child,omitempty"`

	CreatedByID string `gorm:"type:uuid;not null" json:"created_by"`
	CreatedBy   *User  `gorm:"foreignKey:CreatedByID" json:"-"`

	Title      string `gorm:"not null" json:"title"`
	Content    string `json:"content"`
	PromptUsed string `json:"prompt_used"`

	IsFavorite bool `gorm:"default:false" json:"is_favorite"`
}
