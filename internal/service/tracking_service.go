package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tracking-service/internal/model"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("store unavailable")
)

const (
	defaultHistoryLimit  = 100
	defaultHistoryWindow = 24 * time.Hour
)

// storeErr marks a repository failure as a retryable infrastructure error.
// Retrying is left to the caller; ingestion never retries internally to
// avoid duplicate samples.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

type TrackingService struct {
	positions PositionStore
	vehicles  VehicleDirectory
	trips     TripRegistry
	now       func() time.Time
}

func NewTrackingService(positions PositionStore, vehicles VehicleDirectory, trips TripRegistry) *TrackingService {
	return &TrackingService{
		positions: positions,
		vehicles:  vehicles,
		trips:     trips,
		now:       time.Now,
	}
}

type RecordPositionInput struct {
	VehicleID  string
	TripID     *string
	Latitude   *float64
	Longitude  *float64
	Speed      *float64
	Heading    *float64
	Accuracy   *float64
	RecordedAt *time.Time
}

// RecordPosition validates and persists one sample. The motion status is
// derived from the reported speed; a status supplied by the client is
// ignored. RecordedAt defaults to the current time.
func (s *TrackingService) RecordPosition(ctx context.Context, input RecordPositionInput) (*model.Position, error) {
	vehicleID, err := uuid.Parse(input.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("%w: vehicle id", ErrInvalidInput)
	}

	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, storeErr(err)
	}
	if vehicle == nil {
		return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, vehicleID)
	}

	var tripID *uuid.UUID
	if input.TripID != nil && *input.TripID != "" {
		parsed, err := uuid.Parse(*input.TripID)
		if err != nil {
			return nil, fmt.Errorf("%w: trip id", ErrInvalidInput)
		}
		trip, err := s.trips.GetByID(ctx, parsed)
		if err != nil {
			return nil, storeErr(err)
		}
		if trip == nil {
			return nil, fmt.Errorf("%w: trip %s", ErrNotFound, parsed)
		}
		tripID = &parsed
	}

	if input.Latitude == nil || input.Longitude == nil {
		return nil, fmt.Errorf("%w: latitude and longitude are required", ErrInvalidInput)
	}
	if *input.Latitude < -90 || *input.Latitude > 90 {
		return nil, fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidInput)
	}
	if *input.Longitude < -180 || *input.Longitude > 180 {
		return nil, fmt.Errorf("%w: longitude must be between -180 and 180", ErrInvalidInput)
	}

	speed := 0.0
	if input.Speed != nil {
		speed = *input.Speed
	}
	if speed < 0 || speed > model.MaxSpeed {
		return nil, fmt.Errorf("%w: speed must be between 0 and %v", ErrInvalidInput, model.MaxSpeed)
	}

	if input.Heading != nil && (*input.Heading < 0 || *input.Heading >= 360) {
		return nil, fmt.Errorf("%w: heading must be in [0, 360)", ErrInvalidInput)
	}
	if input.Accuracy != nil && *input.Accuracy < 0 {
		return nil, fmt.Errorf("%w: accuracy must be non-negative", ErrInvalidInput)
	}

	recordedAt := s.now()
	if input.RecordedAt != nil {
		recordedAt = *input.RecordedAt
	}

	pos := &model.Position{
		VehicleID:    vehicleID,
		TripID:       tripID,
		Latitude:     *input.Latitude,
		Longitude:    *input.Longitude,
		Speed:        speed,
		Heading:      input.Heading,
		Accuracy:     input.Accuracy,
		MotionStatus: model.DeriveMotionStatus(speed),
		RecordedAt:   recordedAt,
	}

	if err := s.positions.Create(ctx, pos); err != nil {
		return nil, storeErr(err)
	}

	return pos, nil
}

// Latest returns the most recent sample for the vehicle. A vehicle with no
// samples yields ErrNotFound ("no location data"), distinct from an unknown
// vehicle id.
func (s *TrackingService) Latest(ctx context.Context, vehicleID string) (*model.Position, error) {
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

	pos, err := s.positions.LatestByVehicle(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if pos == nil {
		return nil, fmt.Errorf("%w: no location data for vehicle %s", ErrNotFound, id)
	}
	return pos, nil
}

type HistoryQuery struct {
	VehicleID string
	Start     *time.Time
	End       *time.Time
	Limit     int
}

// History returns samples in the inclusive [start, end] window, ascending by
// timestamp. The window defaults to the last 24 hours and the limit to 100.
// Truncation keeps the earliest limit samples of the window; callers wanting
// the most recent samples must narrow the window.
func (s *TrackingService) History(ctx context.Context, query HistoryQuery) ([]model.Position, error) {
	id, err := uuid.Parse(query.VehicleID)
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

	now := s.now()
	end := now
	if query.End != nil {
		end = *query.End
	}
	start := end.Add(-defaultHistoryWindow)
	if query.Start != nil {
		start = *query.Start
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidInput)
	}

	limit := query.Limit
	if limit < 1 {
		limit = defaultHistoryLimit
	}

	positions, err := s.positions.HistoryByVehicle(ctx, id, start, end, limit)
	if err != nil {
		return nil, storeErr(err)
	}
	return positions, nil
}

// TripPositions returns every sample recorded for the trip, ascending by
// timestamp, without a limit.
func (s *TrackingService) TripPositions(ctx context.Context, tripID string) ([]model.Position, error) {
	id, err := uuid.Parse(tripID)
	if err != nil {
		return nil, fmt.Errorf("%w: trip id", ErrInvalidInput)
	}

	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if trip == nil {
		return nil, fmt.Errorf("%w: trip %s", ErrNotFound, id)
	}

	positions, err := s.positions.ListByTrip(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return positions, nil
}
