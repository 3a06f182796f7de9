package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MotionStatus string

const (
	MotionStatusMoving  MotionStatus = "moving"
	MotionStatusIdle    MotionStatus = "idle"
	MotionStatusStopped MotionStatus = "stopped"
)

// Speed below which a vehicle counts as idle rather than moving, km/h.
const IdleSpeedThreshold = 5.0

const MaxSpeed = 120.0

// DeriveMotionStatus classifies a reported speed. The status is always
// recomputed at write time and never accepted from the client.
func DeriveMotionStatus(speed float64) MotionStatus {
	switch {
	case speed == 0:
		return MotionStatusStopped
	case speed < IdleSpeedThreshold:
		return MotionStatusIdle
	default:
		return MotionStatusMoving
	}
}

// Position is a single GPS report. Positions are immutable once stored;
// corrections arrive as new samples.
type Position struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	VehicleID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"vehicle_id"`
	TripID       *uuid.UUID   `gorm:"type:uuid;index" json:"trip_id,omitempty"`
	Latitude     float64      `gorm:"not null" json:"latitude"`
	Longitude    float64      `gorm:"not null" json:"longitude"`
	Speed        float64      `gorm:"not null;default:0" json:"speed"`
	Heading      *float64     `json:"heading,omitempty"`
	Accuracy     *float64     `json:"accuracy,omitempty"`
	MotionStatus MotionStatus `gorm:"type:varchar(16);not null" json:"motion_status"`
	RecordedAt   time.Time    `gorm:"index;not null" json:"recorded_at"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (Position) TableName() string {
	return "positions"
}

func (p *Position) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// SpeedSummary aggregates speed over all stored samples of one vehicle.
type SpeedSummary struct {
	AvgSpeed     float64 `json:"avg_speed"`
	MaxSpeed     float64 `json:"max_speed"`
	MinSpeed     float64 `json:"min_speed"`
	TotalSamples int64   `json:"total_samples"`
}
