package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tracking-service/internal/model"
)

type mockPositionStore struct {
	createFn          func(ctx context.Context, pos *model.Position) error
	latestByVehicleFn func(ctx context.Context, vehicleID uuid.UUID) (*model.Position, error)
	historyFn         func(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, limit int) ([]model.Position, error)
	listByTripFn      func(ctx context.Context, tripID uuid.UUID) ([]model.Position, error)
	listSinceFn       func(ctx context.Context, cutoff time.Time) ([]model.Position, error)
	speedStatsFn      func(ctx context.Context, vehicleID uuid.UUID) (*model.SpeedSummary, error)
	deleteOlderThanFn func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (m *mockPositionStore) Create(ctx context.Context, pos *model.Position) error {
	return m.createFn(ctx, pos)
}

func (m *mockPositionStore) LatestByVehicle(ctx context.Context, vehicleID uuid.UUID) (*model.Position, error) {
	return m.latestByVehicleFn(ctx, vehicleID)
}

func (m *mockPositionStore) HistoryByVehicle(ctx context.Context, vehicleID uuid.UUID, start, end time.Time, limit int) ([]model.Position, error) {
	return m.historyFn(ctx, vehicleID, start, end, limit)
}

func (m *mockPositionStore) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]model.Position, error) {
	return m.listByTripFn(ctx, tripID)
}

func (m *mockPositionStore) ListSince(ctx context.Context, cutoff time.Time) ([]model.Position, error) {
	return m.listSinceFn(ctx, cutoff)
}

func (m *mockPositionStore) SpeedStats(ctx context.Context, vehicleID uuid.UUID) (*model.SpeedSummary, error) {
	return m.speedStatsFn(ctx, vehicleID)
}

func (m *mockPositionStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return m.deleteOlderThanFn(ctx, cutoff)
}

type mockVehicleDirectory struct {
	getByIDFn    func(ctx context.Context, id uuid.UUID) (*model.Vehicle, error)
	listActiveFn func(ctx context.Context) ([]model.Vehicle, error)
}

func (m *mockVehicleDirectory) GetByID(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockVehicleDirectory) ListActive(ctx context.Context) ([]model.Vehicle, error) {
	return m.listActiveFn(ctx)
}

type mockTripRegistry struct {
	getByIDFn func(ctx context.Context, id uuid.UUID) (*model.Trip, error)
}

func (m *mockTripRegistry) GetByID(ctx context.Context, id uuid.UUID) (*model.Trip, error) {
	return m.getByIDFn(ctx, id)
}

// memPositionStore is an in-memory PositionStore with the same query
// semantics as the Postgres repository. Used for windowing and retention
// properties that exercise real data flow.
type memPositionStore struct {
	mu        sync.Mutex
	positions []model.Position
}

func (m *memPositionStore) Create(_ context.Context, pos *model.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pos.ID == uuid.Nil {
		pos.ID = uuid.New()
	}
	m.positions = append(m.positions, *pos)
	return nil
}

func (m *memPositionStore) LatestByVehicle(_ context.Context, vehicleID uuid.UUID) (*model.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.Position
	for i := range m.positions {
		pos := &m.positions[i]
		if pos.VehicleID != vehicleID {
			continue
		}
		if latest == nil || pos.RecordedAt.After(latest.RecordedAt) {
			latest = pos
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (m *memPositionStore) HistoryByVehicle(_ context.Context, vehicleID uuid.UUID, start, end time.Time, limit int) ([]model.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Position
	for _, pos := range m.positions {
		if pos.VehicleID != vehicleID {
			continue
		}
		if pos.RecordedAt.Before(start) || pos.RecordedAt.After(end) {
			continue
		}
		result = append(result, pos)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].RecordedAt.Before(result[j].RecordedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *memPositionStore) ListByTrip(_ context.Context, tripID uuid.UUID) ([]model.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Position
	for _, pos := range m.positions {
		if pos.TripID != nil && *pos.TripID == tripID {
			result = append(result, pos)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].RecordedAt.Before(result[j].RecordedAt)
	})
	return result, nil
}

func (m *memPositionStore) ListSince(_ context.Context, cutoff time.Time) ([]model.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Position
	for _, pos := range m.positions {
		if !pos.RecordedAt.Before(cutoff) {
			result = append(result, pos)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].RecordedAt.Before(result[j].RecordedAt)
	})
	return result, nil
}

func (m *memPositionStore) SpeedStats(_ context.Context, vehicleID uuid.UUID) (*model.SpeedSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var summary model.SpeedSummary
	var total float64
	for _, pos := range m.positions {
		if pos.VehicleID != vehicleID {
			continue
		}
		if summary.TotalSamples == 0 || pos.Speed > summary.MaxSpeed {
			summary.MaxSpeed = pos.Speed
		}
		if summary.TotalSamples == 0 || pos.Speed < summary.MinSpeed {
			summary.MinSpeed = pos.Speed
		}
		total += pos.Speed
		summary.TotalSamples++
	}
	if summary.TotalSamples == 0 {
		return nil, nil
	}
	summary.AvgSpeed = total / float64(summary.TotalSamples)
	return &summary, nil
}

func (m *memPositionStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []model.Position
	var deleted int64
	for _, pos := range m.positions {
		if pos.RecordedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, pos)
	}
	m.positions = kept
	return deleted, nil
}

func directoryWith(vehicles ...model.Vehicle) *mockVehicleDirectory {
	return &mockVehicleDirectory{
		getByIDFn: func(_ context.Context, id uuid.UUID) (*model.Vehicle, error) {
			for _, v := range vehicles {
				if v.ID == id {
					vehicle := v
					return &vehicle, nil
				}
			}
			return nil, nil
		},
		listActiveFn: func(_ context.Context) ([]model.Vehicle, error) {
			var active []model.Vehicle
			for _, v := range vehicles {
				if v.Active {
					active = append(active, v)
				}
			}
			return active, nil
		},
	}
}

func registryWith(trips ...model.Trip) *mockTripRegistry {
	return &mockTripRegistry{
		getByIDFn: func(_ context.Context, id uuid.UUID) (*model.Trip, error) {
			for _, t := range trips {
				if t.ID == id {
					trip := t
					return &trip, nil
				}
			}
			return nil, nil
		},
	}
}
