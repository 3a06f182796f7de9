package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trip is consumed as an opaque key source only; scheduling lives elsewhere.
type Trip struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	RouteID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"route_id"`
	VehicleID *uuid.UUID `gorm:"type:uuid;index" json:"vehicle_id"`
	StartedAt time.Time  `gorm:"not null" json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Trip) TableName() string {
	return "trips"
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
