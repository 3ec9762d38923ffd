package lab

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SampleSource is the tagged production-context variant of a sample,
// resolved once at registration and never re-inferred from code prefixes.
type SampleSource string

const (
	SourceFinishedProduct SampleSource = "finished_product"
	SourceIntermediate    SampleSource = "intermediate"
	SourceEnvironmental   SampleSource = "environmental"
)

type Sample struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID    `gorm:"type:uuid;not null;index" json:"organization_id"`
	PlantID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"plant_id"`
	SampleTypeID   uuid.UUID    `gorm:"type:uuid;not null" json:"sample_type_id"`
	Code           string       `gorm:"not null;index" json:"code"`
	Status         SampleStatus `gorm:"not null;index" json:"status"`
	Source         SampleSource `gorm:"not null" json:"source"`

	// Exactly one of the three production links is set (XOR).
	ProductionBatchID     *uuid.UUID `gorm:"type:uuid;index" json:"production_batch_id,omitempty"`
	IntermediateProductID *uuid.UUID `gorm:"type:uuid;index" json:"intermediate_product_id,omitempty"`
	SamplingPointID       *uuid.UUID `gorm:"type:uuid;index" json:"sampling_point_id,omitempty"`

	// SpecVersionID records the specification version the batch carried at
	// registration, for traceability. Evaluation resolves the active
	// specification at completion time.
	SpecVersionID *uuid.UUID `gorm:"type:uuid" json:"spec_version_id,omitempty"`

	CollectedBy  *uuid.UUID `gorm:"type:uuid" json:"collected_by,omitempty"`
	CollectedAt  *time.Time `json:"collected_at,omitempty"`
	ReviewedBy   *uuid.UUID `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	ValidatedBy  *uuid.UUID `gorm:"type:uuid" json:"validated_by,omitempty"`
	ValidatedAt  *time.Time `json:"validated_at,omitempty"`
	ReleasedBy   *uuid.UUID `gorm:"type:uuid" json:"released_by,omitempty"`
	ReleasedAt   *time.Time `json:"released_at,omitempty"`
	ReleaseNotes string     `json:"release_notes,omitempty"`
	Notes        string     `json:"notes,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Sample) TableName() string { return "sample" }

type SampleType struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID         `gorm:"type:uuid;not null;index" json:"organization_id"`
	Code           string            `gorm:"not null" json:"code"`
	Name           string            `gorm:"not null" json:"name"`
	TestCategory   ParameterCategory `gorm:"not null;default:physico_chemical" json:"test_category"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (SampleType) TableName() string { return "sample_type" }
