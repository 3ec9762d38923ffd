package quality

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SamplingPlan describes when samples must be auto-generated for a product.
// A nil ProductID is a wildcard matching every product. TriggerOnStart
// anchors one sample at batch start; FrequencyMinutes > 0 additionally
// schedules time-based samples while the batch runs.
type SamplingPlan struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	PlantID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"plant_id"`
	ProductID        *uuid.UUID     `gorm:"type:uuid;index" json:"product_id,omitempty"`
	SampleTypeID     uuid.UUID      `gorm:"type:uuid;not null" json:"sample_type_id"`
	TriggerOnStart   bool           `gorm:"not null;default:false" json:"trigger_on_start"`
	FrequencyMinutes int            `gorm:"not null;default:0" json:"frequency_minutes"`
	ProcessContext   string         `json:"process_context,omitempty"`
	IsActive         bool           `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SamplingPlan) TableName() string { return "sampling_plan" }

func (p *SamplingPlan) TimeBased() bool { return p.FrequencyMinutes > 0 }

type ReminderStatus string

const (
	ReminderPending ReminderStatus = "pending"
	// ReminderProcessing is the claimed state: exactly one heartbeat
	// invocation may move a reminder pending -> processing, which is what
	// prevents duplicate sample creation under concurrent ticks.
	ReminderProcessing ReminderStatus = "processing"
	ReminderCompleted  ReminderStatus = "completed"
)

// SamplingReminder is one outstanding "next sample due" marker for a
// (batch, plan) pair. At most one pending reminder exists per pair.
type SamplingReminder struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	PlantID           uuid.UUID      `gorm:"type:uuid;not null" json:"plant_id"`
	ProductionBatchID uuid.UUID      `gorm:"type:uuid;not null;index" json:"production_batch_id"`
	SamplingPlanID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"sampling_plan_id"`
	Status            ReminderStatus `gorm:"not null;default:pending;index" json:"status"`
	NextSampleDueAt   time.Time      `gorm:"not null;index" json:"next_sample_due_at"`
	LastSampleID      *uuid.UUID     `gorm:"type:uuid" json:"last_sample_id,omitempty"`
	LastSampleAt      *time.Time     `json:"last_sample_at,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (SamplingReminder) TableName() string { return "sampling_reminder" }
