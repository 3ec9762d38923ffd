package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditEvent is the append-only trail row. Rows are never updated or
// deleted; corrections are recorded as new events.
type AuditEvent struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	PlantID        *uuid.UUID     `gorm:"type:uuid;index" json:"plant_id,omitempty"`
	ActorID        *uuid.UUID     `gorm:"type:uuid;index" json:"actor_id,omitempty"`
	ActorRole      string         `json:"actor_role,omitempty"`
	Action         string         `gorm:"not null;index" json:"action"`
	EntityType     string         `gorm:"not null;index" json:"entity_type"`
	EntityID       *uuid.UUID     `gorm:"type:uuid;index" json:"entity_id,omitempty"`
	Payload        datatypes.JSON `json:"payload,omitempty"`
	CorrelationID  string         `gorm:"index" json:"correlation_id,omitempty"`
	OccurredAt     time.Time      `gorm:"not null;index" json:"occurred_at"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AuditEvent) TableName() string { return "audit_event" }
