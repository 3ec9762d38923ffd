package lab

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is one measured parameter belonging to a sample. Invalidation
// never mutates results in place: it retires the row (is_valid=false) and
// chains a fresh pending retest via SupersedesID.
type Analysis struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	PlantID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"plant_id"`
	SampleID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"sample_id"`
	ParameterID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"parameter_id"`
	ValueNumeric   *float64       `json:"value_numeric,omitempty"`
	ValueText      *string        `json:"value_text,omitempty"`
	IsConforming   *bool          `json:"is_conforming,omitempty"`
	Status         AnalysisStatus `gorm:"not null;default:pending;index" json:"status"`
	Notes          string         `json:"notes,omitempty"`
	EquipmentID    *uuid.UUID     `gorm:"type:uuid" json:"equipment_id,omitempty"`
	// SignatureHash is the tamper-evidence digest written when the result
	// was electronically signed. A signed completed result is immutable.
	SignatureHash *string    `gorm:"column:signed_transaction_hash" json:"signature_hash,omitempty"`
	IsValid       bool       `gorm:"not null;default:true;index" json:"is_valid"`
	IsRetest      bool       `gorm:"not null;default:false" json:"is_retest"`
	SupersedesID  *uuid.UUID `gorm:"type:uuid;index" json:"supersedes_id,omitempty"`
	RetestReason  string     `json:"retest_reason,omitempty"`
	AnalyzedBy    *uuid.UUID `gorm:"type:uuid" json:"analyzed_by,omitempty"`
	AnalyzedAt    *time.Time `json:"analyzed_at,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Analysis) TableName() string { return "lab_analysis" }

type ParameterCategory string

const (
	CategoryPhysicoChemical ParameterCategory = "physico_chemical"
	CategoryMicrobiological ParameterCategory = "microbiological"
	CategorySensory         ParameterCategory = "sensory"
)

type Parameter struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID         `gorm:"type:uuid;not null;index" json:"organization_id"`
	Code           string            `gorm:"not null" json:"code"`
	Name           string            `gorm:"not null" json:"name"`
	Unit           string            `json:"unit,omitempty"`
	Category       ParameterCategory `gorm:"not null;index" json:"category"`
	Status         string            `gorm:"not null;default:active" json:"status"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Parameter) TableName() string { return "qa_parameter" }

// Specification is the immutable (per version) acceptance rule for one
// parameter, scoped either to a product or to a sample type.
type Specification struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	ProductID      *uuid.UUID `gorm:"type:uuid;index" json:"product_id,omitempty"`
	SampleTypeID   *uuid.UUID `gorm:"type:uuid;index" json:"sample_type_id,omitempty"`
	ParameterID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"parameter_id"`
	MinValue       *float64   `json:"min_value,omitempty"`
	MaxValue       *float64   `json:"max_value,omitempty"`
	TargetValue    *float64   `json:"target_value,omitempty"`
	TargetText     *string    `json:"target_text,omitempty"`
	// IsCritical marks the parameter as release-critical: a failing
	// result opens a critical non-conformity.
	IsCritical bool `gorm:"not null;default:false" json:"is_critical"`
	// PCCPointID links the parameter to a hazard-control point; failures
	// additionally open an FSMS deviation.
	PCCPointID *uuid.UUID `gorm:"type:uuid" json:"pcc_point_id,omitempty"`
	Version    int        `gorm:"not null;default:1" json:"version"`
	Status     string     `gorm:"not null;default:active;index" json:"status"`
	CreatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Specification) TableName() string { return "product_specification" }
