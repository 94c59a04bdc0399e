package models

import "time"

// MilestoneCategory groups predefined milestones (motor, language, social...).
type MilestoneCategory struct {
	BaseModel

	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `gorm:"default:#3B82F6" json:"color"`

	Milestones []PredefinedMilestone `gorm:"foreignKey:CategoryID" json:"milestones,omitempty"`
}

// PredefinedMilestone is a curated developmental milestone with the typical
// age window it is achieved in.
type PredefinedMilestone struct {
	BaseModel

	CategoryID string             `gorm:"type:uuid;not null;index" json:"category_id"`
	Category   *MilestoneCategory `gorm:"foreignKey:CategoryID" json:"-"`

	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`

	TypicalAgeMonthsMin int  `gorm:"not null" json:"typical_age_months_min"`
	TypicalAgeMonthsMax int  `gorm:"not null" json:"typical_age_months_max"`
	IsMajor             bool `gorm:"default:false" json:"is_major"`
	SortOrder           int  `gorm:"default:0" json:"sort_order"`
}

// ChildMilestone records a milestone a specific child achieved, either from
// the predefined catalog or a custom one.
type ChildMilestone struct {
	BaseModel

	ChildID string `gorm:"type:uuid;not null;index" json:"child_id"`
	Child   *Child `gorm:"foreignKey:ChildID" json:"child,omitempty"`

	PredefinedMilestoneID *string              `gorm:"type:uuid" json:"predefined_milestone_id,omitempty"`
	PredefinedMilestone   *PredefinedMilestone `gorm:"foreignKey:PredefinedMilestoneID" json:"predefined_milestone,omitempty"`

	CustomTitle string `json:"custom_title"`
	Description string `json:"description"`

	AchievedDate     time.Time `gorm:"not null;index" json:"achieved_date"`
	AgeAtAchievement string    `json:"age_at_achievement"`

	RecordedByID string `gorm:"type:uuid;not null" json:"recorded_by"`
	RecordedBy   *User  `gorm:"foreignKey:RecordedByID" json:"-"`

	Notes     string `json:"notes"`
	PhotoPath string `json:"photo_path,omitempty"`
	IsCustom  bool   `gorm:"default:false" json:"is_custom"`
}

// Title resolves to the custom title or the predefined one. The predefined
// milestone must be loaded for catalog entries.
func (m *ChildMilestone) Title() string {
	if m.IsCustom || m.PredefinedMilestone == nil {
		return m.CustomTitle
	}
	return m.PredefinedMilestone.Title
}
