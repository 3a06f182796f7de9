package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tracking-service/internal/model"
)

const DefaultRetentionDays = 30

type StatsService struct {
	positions     PositionStore
	vehicles      VehicleDirectory
	retentionDays int
	now           func() time.Time
}

func NewStatsService(positions PositionStore, vehicles VehicleDirectory, retentionDays int) *StatsService {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &StatsService{
		positions:     positions,
		vehicles:      vehicles,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

type VehicleStats struct {
	Stats  *model.SpeedSummary `json:"stats"`
	Latest *model.Position     `json:"latest"`
}

// VehicleStats aggregates speed over all stored samples of the vehicle. The
// stats object is null when no samples exist; the latest sample is included
// whenever one exists.
func (s *StatsService) VehicleStats(ctx context.Context, vehicleID string) (*VehicleStats, error) {
	id, err := uuid.Parse(vehicleID)
	if err != nil {
		return nil, fmt.Errorf("%w: vehicle id", ErrInvalidInput)
	}

	vehicle, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if vehicle == nil {
		return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, id)
	}

	summary, err := s.positions.SpeedStats(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	latest, err := s.positions.LatestByVehicle(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	return &VehicleStats{Stats: summary, Latest: latest}, nil
}

// PurgeOlderThan deletes every sample older than days*24h and returns the
// number deleted. Destructive and without undo; restricted to admins.
// Idempotent: a repeat call with an unchanged cutoff deletes nothing.
func (s *StatsService) PurgeOlderThan(ctx context.Context, principal model.Principal, days int) (int64, error) {
	if !principal.IsAdmin() {
		return 0, ErrPermissionDenied
	}
	if days < 0 {
		return 0, fmt.Errorf("%w: days must be non-negative", ErrInvalidInput)
	}
	if days == 0 {
		days = s.retentionDays
	}
	return s.purge(ctx, days)
}

// Sweep applies the configured retention age. Run from the background
// retention loop; same deletion semantics as PurgeOlderThan.
func (s *StatsService) Sweep(ctx context.Context) (int64, error) {
	return s.purge(ctx, s.retentionDays)
}

func (s *StatsService) purge(ctx context.Context, days int) (int64, error) {
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	deleted, err := s.positions.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, storeErr(err)
	}
	return deleted, nil
}
