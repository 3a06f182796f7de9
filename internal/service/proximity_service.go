package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"tracking-service/internal/geo"
	"tracking-service/internal/model"
)

const (
	// Fixed lookback bounding the proximity scan; not caller-configurable.
	proximityWindow = 10 * time.Minute

	DefaultSearchRadiusKm = 5.0
)

type ProximityService struct {
	positions PositionStore
	vehicles  VehicleDirectory
	now       func() time.Time
}

func NewProximityService(positions PositionStore, vehicles VehicleDirectory) *ProximityService {
	return &ProximityService{
		positions: positions,
		vehicles:  vehicles,
		now:       time.Now,
	}
}

type NearbyVehicle struct {
	VehicleID   uuid.UUID      `json:"vehicle_id"`
	FleetNumber string         `json:"fleet_number"`
	RouteID     *uuid.UUID     `json:"route_id"`
	Position    model.Position `json:"position"`
	DistanceKm  float64        `json:"distance_km"`
}

// Nearby scans samples from the last ten minutes and returns those within
// radiusKm of the query point, nearest first. The radius defaults to 5 km
// when unset or non-positive. Distances are rounded to two decimal places.
func (s *ProximityService) Nearby(ctx context.Context, lat, lng *float64, radiusKm float64) ([]NearbyVehicle, error) {
	if lat == nil || lng == nil {
		return nil, fmt.Errorf("%w: lat and lng are required", ErrInvalidInput)
	}
	if *lat < -90 || *lat > 90 {
		return nil, fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidInput)
	}
	if *lng < -180 || *lng > 180 {
		return nil, fmt.Errorf("%w: longitude must be between -180 and 180", ErrInvalidInput)
	}
	if radiusKm <= 0 {
		radiusKm = DefaultSearchRadiusKm
	}

	cutoff := s.now().Add(-proximityWindow)
	recent, err := s.positions.ListSince(ctx, cutoff)
	if err != nil {
		return nil, storeErr(err)
	}

	resolved := make(map[uuid.UUID]*model.Vehicle)
	var matches []NearbyVehicle
	for _, pos := range recent {
		distance := geo.DistanceKm(*lat, *lng, pos.Latitude, pos.Longitude)
		if distance > radiusKm {
			continue
		}

		vehicle, ok := resolved[pos.VehicleID]
		if !ok {
			vehicle, err = s.vehicles.GetByID(ctx, pos.VehicleID)
			if err != nil {
				return nil, storeErr(err)
			}
			resolved[pos.VehicleID] = vehicle
		}
		if vehicle == nil {
			// Sample outlived its vehicle record; nothing to report.
			continue
		}

		matches = append(matches, NearbyVehicle{
			VehicleID:   vehicle.ID,
			FleetNumber: vehicle.FleetNumber,
			RouteID:     vehicle.RouteID,
			Position:    pos,
			DistanceKm:  distance,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})

	// Round for presentation only after ordering on the exact distance.
	for i := range matches {
		matches[i].DistanceKm = math.Round(matches[i].DistanceKm*100) / 100
	}

	return matches, nil
}
