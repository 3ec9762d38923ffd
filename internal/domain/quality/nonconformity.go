package quality

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NCSeverity string

const (
	SeverityCritical NCSeverity = "critical"
	SeverityMajor    NCSeverity = "major"
	SeverityMinor    NCSeverity = "minor"
)

type NCStatus string

const (
	NCOpen       NCStatus = "open"
	NCInProgress NCStatus = "in_progress"
	NCClosed     NCStatus = "closed"
)

// NonConformity is a formal deviation record. Automatic NCs are opened by
// the trigger when a critical or hazard-linked result fails; closure
// belongs to the QMS workflow, not to this engine.
type NonConformity struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uq_nc_org_number" json:"organization_id"`
	PlantID        uuid.UUID `gorm:"type:uuid;not null;index" json:"plant_id"`
	// The yearly sequence is allocated count-then-insert; the unique index
	// is what makes concurrent allocations safe (losers retry).
	Number      string     `gorm:"column:nc_number;not null;uniqueIndex:uq_nc_org_number" json:"nc_number"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description,omitempty"`
	Severity    NCSeverity `gorm:"not null;index" json:"severity"`
	NCType      string     `gorm:"column:nc_type;not null;default:internal" json:"nc_type"`
	Status      NCStatus   `gorm:"not null;default:open;index" json:"status"`
	// SourceAnalysisID makes the automatic trigger idempotent: one NC per
	// failing analysis, enforced by a unique index.
	SourceAnalysisID  *uuid.UUID     `gorm:"type:uuid;uniqueIndex" json:"source_analysis_id,omitempty"`
	ProductionBatchID *uuid.UUID     `gorm:"type:uuid;index" json:"production_batch_id,omitempty"`
	SampleID          *uuid.UUID     `gorm:"type:uuid" json:"sample_id,omitempty"`
	DetectedBy        uuid.UUID      `gorm:"type:uuid" json:"detected_by"`
	OpenedAt          time.Time      `gorm:"not null" json:"opened_at"`
	ClosedAt          *time.Time     `json:"closed_at,omitempty"`
	ClosedBy          *uuid.UUID     `gorm:"type:uuid" json:"closed_by,omitempty"`
	ClosureNotes      string         `json:"closure_notes,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (NonConformity) TableName() string { return "nonconformity" }

type PCCDeviationStatus string

const (
	PCCDeviationOpen     PCCDeviationStatus = "open"
	PCCDeviationResolved PCCDeviationStatus = "resolved"
)

// PCCDeviation records a hazard-control-point failure for a batch. Open
// deviations block release through the FSMS check.
type PCCDeviation struct {
	ID                uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID    uuid.UUID          `gorm:"type:uuid;not null;index" json:"organization_id"`
	PlantID           uuid.UUID          `gorm:"type:uuid;not null" json:"plant_id"`
	ProductionBatchID uuid.UUID          `gorm:"type:uuid;not null;index" json:"production_batch_id"`
	PCCPointID        uuid.UUID          `gorm:"type:uuid;not null" json:"pcc_point_id"`
	SourceAnalysisID  *uuid.UUID         `gorm:"type:uuid" json:"source_analysis_id,omitempty"`
	Description       string             `json:"description,omitempty"`
	MeasuredValue     *float64           `json:"measured_value,omitempty"`
	Status            PCCDeviationStatus `gorm:"not null;default:open;index" json:"status"`
	OpenedAt          time.Time          `gorm:"not null" json:"opened_at"`
	ResolvedAt        *time.Time         `json:"resolved_at,omitempty"`
	CreatedAt         time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PCCDeviation) TableName() string { return "pcc_deviation" }
