package models

import "time"

// JobStatus tracks background job progress for exports and AI tasks.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// ExportJob records a full-album export request. The archive is produced by
// an external worker; this core only gates and tracks the request.
type ExportJob struct {
	BaseModel

	ChildID string `gorm:"type:uuid;not null;index" json:"child_id"`
	Child   *Child `gorm:"foreignKey:ChildID" json:"child,omitempty"`

	RequestedByID string `gorm:"type:uuid;not null" json:"requested_by"`
	RequestedBy   *User  `gorm:"foreignKey:RequestedByID" json:"-"`

	Status     JobStatus  `gorm:"not null;default:pending;index" json:"status"`
	ExportPath string     `json:"export_path,omitempty"`
	Error      string     `json:"error,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
