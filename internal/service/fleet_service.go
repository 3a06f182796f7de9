package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tracking-service/internal/model"
)

type FleetService struct {
	positions PositionStore
	vehicles  VehicleDirectory
	log       zerolog.Logger
}

func NewFleetService(positions PositionStore, vehicles VehicleDirectory, log zerolog.Logger) *FleetService {
	return &FleetService{
		positions: positions,
		vehicles:  vehicles,
		log:       log,
	}
}

type FleetEntry struct {
	VehicleID    uuid.UUID      `json:"vehicle_id"`
	FleetNumber  string         `json:"fleet_number"`
	RouteID      *uuid.UUID     `json:"route_id"`
	LastPosition model.Position `json:"last_position"`
}

// Snapshot assembles the latest sample for every active vehicle. Vehicles
// without any samples are omitted, and a failed per-vehicle lookup is logged
// and omitted rather than failing the whole snapshot.
func (s *FleetService) Snapshot(ctx context.Context) ([]FleetEntry, error) {
	active, err := s.vehicles.ListActive(ctx)
	if err != nil {
		return nil, storeErr(err)
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		entries = make([]FleetEntry, 0, len(active))
	)

	for _, vehicle := range active {
		wg.Add(1)
		go func(vehicle model.Vehicle) {
			defer wg.Done()

			pos, err := s.positions.LatestByVehicle(ctx, vehicle.ID)
			if err != nil {
				s.log.Warn().Err(err).
					Str("vehicle_id", vehicle.ID.String()).
					Msg("fleet snapshot: latest position lookup failed")
				return
			}
			if pos == nil {
				return
			}

			mu.Lock()
			entries = append(entries, FleetEntry{
				VehicleID:    vehicle.ID,
				FleetNumber:  vehicle.FleetNumber,
				RouteID:      vehicle.RouteID,
				LastPosition: *pos,
			})
			mu.Unlock()
		}(vehicle)
	}

	wg.Wait()
	return entries, nil
}
