package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tracking-service/internal/model"
)

type PositionRepository struct {
	db *gorm.DB
}

func NewPositionRepository(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

func (r *PositionRepository) Create(ctx context.Context, pos *model.Position) error {
	return r.db.WithContext(ctx).Create(pos).Error
}

// LatestByVehicle returns the most recent sample for the vehicle, or nil
// when the vehicle has no samples.
func (r *PositionRepository) LatestByVehicle(ctx context.Context, vehicleID uuid.UUID) (*model.Position, error) {
	var pos model.Position
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("recorded_at DESC").
		First(&pos).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pos, nil
}

// HistoryByVehicle returns samples in the inclusive [start, end] window,
// ascending by recorded_at, truncated to limit. The limit keeps the earliest
// rows of the window.
func (r *PositionRepository) HistoryByVehicle(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, limit int) ([]model.Position, error) {
	var positions []model.Position
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND recorded_at >= ? AND recorded_at <= ?", vehicleID, start, end).
		Order("recorded_at ASC").
		Limit(limit).
		Find(&positions).Error
	return positions, err
}

func (r *PositionRepository) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]model.Position, error) {
	var positions []model.Position
	err := r.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("recorded_at ASC").
		Find(&positions).Error
	return positions, err
}

// ListSince returns every sample recorded at or after the cutoff, across all
// vehicles.
func (r *PositionRepository) ListSince(ctx context.Context, cutoff time.Time) ([]model.Position, error) {
	var positions []model.Position
	err := r.db.WithContext(ctx).
		Where("recorded_at >= ?", cutoff).
		Order("recorded_at ASC").
		Find(&positions).Error
	return positions, err
}

// SpeedStats aggregates speed over all samples of the vehicle. Returns nil
// when the vehicle has no samples.
func (r *PositionRepository) SpeedStats(ctx context.Context, vehicleID uuid.UUID) (*model.SpeedSummary, error) {
	var row struct {
		AvgSpeed     *float64
		MaxSpeed     *float64
		MinSpeed     *float64
		TotalSamples int64
	}
	err := r.db.WithContext(ctx).Model(&model.Position{}).
		Select("AVG(speed) AS avg_speed, MAX(speed) AS max_speed, MIN(speed) AS min_speed, COUNT(*) AS total_samples").
		Where("vehicle_id = ?", vehicleID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.TotalSamples == 0 {
		return nil, nil
	}
	return &model.SpeedSummary{
		AvgSpeed:     *row.AvgSpeed,
		MaxSpeed:     *row.MaxSpeed,
		MinSpeed:     *row.MinSpeed,
		TotalSamples: row.TotalSamples,
	}, nil
}

// DeleteOlderThan removes every sample recorded strictly before the cutoff
// and returns the number of rows deleted.
func (r *PositionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("recorded_at < ?", cutoff).
		Delete(&model.Position{})
	return result.RowsAffected, result.Error
}
