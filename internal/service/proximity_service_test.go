package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracking-service/internal/model"
)

// One degree of latitude is ~111.195 km, so offsets in km translate to
// degrees directly for north-south displacement.
const kmPerLatDegree = 111.195

func TestNearby_FiltersByRadiusAndRecency(t *testing.T) {
	near := model.Vehicle{ID: uuid.New(), FleetNumber: "NB-1001", Active: true}
	far := model.Vehicle{ID: uuid.New(), FleetNumber: "NB-1002", Active: true}
	stale := model.Vehicle{ID: uuid.New(), FleetNumber: "NB-1003", Active: true}

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	queryLat, queryLng := 6.9271, 79.8612

	store := &memPositionStore{}
	mustCreate := func(v model.Vehicle, latOffsetKm float64, recordedAt time.Time) {
		err := store.Create(context.Background(), &model.Position{
			VehicleID:  v.ID,
			Latitude:   queryLat + latOffsetKm/kmPerLatDegree,
			Longitude:  queryLng,
			RecordedAt: recordedAt,
		})
		require.NoError(t, err)
	}
	mustCreate(near, 2, now.Add(-2*time.Minute))
	mustCreate(far, 8, now.Add(-2*time.Minute))
	// 1 km away but 11 minutes old: outside the fixed recency window.
	mustCreate(stale, 1, now.Add(-11*time.Minute))

	svc := NewProximityService(store, directoryWith(near, far, stale))
	svc.now = func() time.Time { return now }

	results, err := svc.Nearby(context.Background(), &queryLat, &queryLng, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, near.ID, results[0].VehicleID)
	assert.Equal(t, "NB-1001", results[0].FleetNumber)
	assert.InDelta(t, 2.0, results[0].DistanceKm, 0.05)
}

func TestNearby_SortedNearestFirst(t *testing.T) {
	a := model.Vehicle{ID: uuid.New(), FleetNumber: "NB-2001", Active: true}
	b := model.Vehicle{ID: uuid.New(), FleetNumber: "NB-2002", Active: true}
	c := model.Vehicle{ID: uuid.New(), FleetNumber: "NB-2003", Active: true}

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	queryLat, queryLng := 6.9271, 79.8612

	store := &memPositionStore{}
	for _, entry := range []struct {
		vehicle model.Vehicle
		km      float64
	}{{a, 3}, {b, 1}, {c, 2}} {
		err := store.Create(context.Background(), &model.Position{
			VehicleID:  entry.vehicle.ID,
			Latitude:   queryLat + entry.km/kmPerLatDegree,
			Longitude:  queryLng,
			RecordedAt: now.Add(-time.Minute),
		})
		require.NoError(t, err)
	}

	svc := NewProximityService(store, directoryWith(a, b, c))
	svc.now = func() time.Time { return now }

	results, err := svc.Nearby(context.Background(), &queryLat, &queryLng, 5)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, b.ID, results[0].VehicleID)
	assert.Equal(t, c.ID, results[1].VehicleID)
	assert.Equal(t, a.ID, results[2].VehicleID)
	for _, r := range results {
		// Distances are reported rounded to two decimal places.
		assert.Equal(t, math.Round(r.DistanceKm*100)/100, r.DistanceKm)
	}
}

func TestNearby_DefaultRadius(t *testing.T) {
	vehicle := model.Vehicle{ID: uuid.New(), FleetNumber: "NB-3001", Active: true}
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	queryLat, queryLng := 6.9271, 79.8612

	store := &memPositionStore{}
	err := store.Create(context.Background(), &model.Position{
		VehicleID:  vehicle.ID,
		Latitude:   queryLat + 4.5/kmPerLatDegree,
		Longitude:  queryLng,
		RecordedAt: now.Add(-time.Minute),
	})
	require.NoError(t, err)

	svc := NewProximityService(store, directoryWith(vehicle))
	svc.now = func() time.Time { return now }

	// Radius 0 falls back to the 5 km default, so the 4.5 km sample matches.
	results, err := svc.Nearby(context.Background(), &queryLat, &queryLng, 0)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestNearby_MissingCoordinates(t *testing.T) {
	svc := NewProximityService(&memPositionStore{}, directoryWith())
	lat := 6.9271

	_, err := svc.Nearby(context.Background(), &lat, nil, 5)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Nearby(context.Background(), nil, nil, 5)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNearby_SkipsSamplesWithoutVehicleRecord(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	queryLat, queryLng := 6.9271, 79.8612

	store := &memPositionStore{}
	err := store.Create(context.Background(), &model.Position{
		VehicleID:  uuid.New(),
		Latitude:   queryLat,
		Longitude:  queryLng,
		RecordedAt: now.Add(-time.Minute),
	})
	require.NoError(t, err)

	svc := NewProximityService(store, directoryWith())
	svc.now = func() time.Time { return now }

	results, err := svc.Nearby(context.Background(), &queryLat, &queryLng, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
