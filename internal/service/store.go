package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tracking-service/internal/model"
)

// PositionStore is the persistence boundary for position samples. The GORM
// repository satisfies it in production; tests substitute doubles.
type PositionStore interface {
	Create(ctx context.Context, pos *model.Position) error
	LatestByVehicle(ctx context.Context, vehicleID uuid.UUID) (*model.Position, error)
	HistoryByVehicle(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, limit int) ([]model.Position, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]model.Position, error)
	ListSince(ctx context.Context, cutoff time.Time) ([]model.Position, error)
	SpeedStats(ctx context.Context, vehicleID uuid.UUID) (*model.SpeedSummary, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// VehicleDirectory resolves vehicle identifiers to display attributes and
// the active flag. Lookups return (nil, nil) for unknown ids.
type VehicleDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	ListActive(ctx context.Context) ([]model.Vehicle, error)
}

// TripRegistry is consulted only for trip existence at ingestion time.
type TripRegistry interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Trip, error)
}
