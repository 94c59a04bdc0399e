package models

import "time"

// MeasurementType enumerates the tracked growth measurements.
type MeasurementType string

const (
	MeasurementHeight            MeasurementType = "height"
	MeasurementWeight            MeasurementType = "weight"
	MeasurementHeadCircumference MeasurementType = "head_circumference"
)

// GrowthRecord is a single measurement point on the growth chart. Height is
// stored in centimetres, weight in kilograms.
type GrowthRecord struct {
	BaseModel

	ChildID string `gorm:"type:uuid;not null;index;uniqueIndex:idx_child_measurement" json:"child_id"`
	Child   *Child `gorm:"foreignKey:ChildID" json:"child,omitempty"`

	Type  MeasurementType `gorm:"not null;uniqueIndex:idx_child_measurement" json:"type"`
	Value float64         `gorm:"not null" json:"value"`

	MeasuredAt       time.Time `gorm:"not null;uniqueIndex:idx_child_measurement" json:"measured_at"`
	AgeAtMeasurement string    `json:"age_at_measurement"`

	RecordedByID string `gorm:"type:uuid;not null" json:"recorded_by"`
	RecordedBy   *User  `gorm:"foreignKey:RecordedByID" json:"-"`

	Notes string `json:"notes"`
}
