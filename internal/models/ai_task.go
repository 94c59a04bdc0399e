package models

import (
	"time"

	"gorm.io/datatypes"
)

// AITaskType enumerates the supported AI jobs.
type AITaskType string

const (
	AITaskCaption       AITaskType = "caption"
	AITaskBedtimeStory  AITaskType = "bedtime_story"
	AITaskTranscription AITaskType = "transcription"
	AITaskYearReview    AITaskType = "year_review"
)

// AITask queues work for the external AI worker. Input and output payloads
// are free-form JSON owned by the worker.
type AITask struct {
	BaseModel

	Type   AITaskType `gorm:"not null;index" json:"type"`
	Status JobStatus  `gorm:"not null;default:pending;index" json:"status"`

	Input  datatypes.JSON `json:"input"`
	Output datatypes.JSON `json:"output,omitempty"`
	Error  string         `json:"error,omitempty"`

	CreatedByID string `gorm:"type:uuid;not null" json:"created_by"`
	CreatedBy   *User  `gorm:"foreignKey:CreatedByID" json:"-"`

	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
