package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BatchStatus string

const (
	BatchPlanned    BatchStatus = "planned"
	BatchInProgress BatchStatus = "in_progress"
	BatchCompleted  BatchStatus = "completed"
	BatchRetained   BatchStatus = "retained"
	BatchReleased   BatchStatus = "released"
	BatchRejected   BatchStatus = "rejected"
)

// ProductionBatch is a manufacturing run. Release and rejection are
// terminal quality decisions owned by the gatekeeper; SpecVersionID pins
// the specification version the batch was produced against.
type ProductionBatch struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	PlantID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"plant_id"`
	ProductID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"product_id"`
	BatchNumber    string         `gorm:"not null;index" json:"batch_number"`
	Status         BatchStatus    `gorm:"not null;default:planned;index" json:"status"`
	SpecVersionID  *uuid.UUID     `gorm:"type:uuid" json:"spec_version_id,omitempty"`
	PlannedQty     *float64       `json:"planned_qty,omitempty"`
	ProducedQty    *float64       `json:"produced_qty,omitempty"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	QAApprovedBy   *uuid.UUID     `gorm:"type:uuid" json:"qa_approved_by,omitempty"`
	QAApprovedAt   *time.Time     `json:"qa_approved_at,omitempty"`
	RejectionNotes string         `json:"rejection_notes,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProductionBatch) TableName() string { return "production_batch" }

func IsTerminalBatchStatus(s BatchStatus) bool {
	return s == BatchReleased || s == BatchRejected
}

type EventType string

const (
	EventStart       EventType = "start"
	EventStop        EventType = "stop"
	EventBreakdown   EventType = "breakdown"
	EventMaintenance EventType = "maintenance"
	EventResume      EventType = "resume"
)

// ProductionEvent is the shop-floor event stream for a batch. The latest
// event decides whether the line is actually running, independent of the
// batch status column.
type ProductionEvent struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	PlantID           uuid.UUID  `gorm:"type:uuid;not null" json:"plant_id"`
	ProductionBatchID uuid.UUID  `gorm:"type:uuid;not null;index" json:"production_batch_id"`
	EventType         EventType  `gorm:"not null" json:"event_type"`
	RecordedBy        *uuid.UUID `gorm:"type:uuid" json:"recorded_by,omitempty"`
	OccurredAt        time.Time  `gorm:"not null;index" json:"occurred_at"`
	Notes             string     `json:"notes,omitempty"`
	CreatedAt         time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ProductionEvent) TableName() string { return "production_event" }

// Halting reports whether an event type parks the line. A batch whose
// latest event halts is not sampled by the time-based orchestrator.
func (t EventType) Halting() bool {
	switch t {
	case EventStop, EventBreakdown, EventMaintenance:
		return true
	default:
		return false
	}
}

type Product struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	SKU            string         `gorm:"not null" json:"sku"`
	Name           string         `gorm:"not null" json:"name"`
	Status         string         `gorm:"not null;default:active" json:"status"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Product) TableName() string { return "product" }
