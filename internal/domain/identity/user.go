package identity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserProfile struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	PlantID        uuid.UUID `gorm:"type:uuid;index" json:"plant_id"`
	Email          string    `gorm:"not null;uniqueIndex" json:"email"`
	FullName       string    `json:"full_name"`
	Role           Role      `gorm:"not null" json:"role"`
	// PasswordHash is the bcrypt hash used for full re-authentication.
	PasswordHash string `json:"-"`
	// SignaturePINHash is the bcrypt hash of the dedicated electronic
	// signature credential; empty when the user has not enrolled one.
	SignaturePINHash string         `json:"-"`
	CreatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (UserProfile) TableName() string { return "user_profile" }
