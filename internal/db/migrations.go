package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		fleet_number VARCHAR(32) NOT NULL UNIQUE,
		route_id UUID,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE TABLE IF NOT EXISTS trips (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		route_id UUID NOT NULL,
		vehicle_id UUID REFERENCES vehicles(id),
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE TABLE IF NOT EXISTS positions (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id),
		trip_id UUID REFERENCES trips(id),
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		speed DOUBLE PRECISION NOT NULL DEFAULT 0,
		heading DOUBLE PRECISION,
		accuracy DOUBLE PRECISION,
		motion_status VARCHAR(16) NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	// Covers latest-position and history lookups without a table scan.
	`CREATE INDEX IF NOT EXISTS idx_positions_vehicle_recorded ON positions (vehicle_id, recorded_at);`,
	`CREATE INDEX IF NOT EXISTS idx_positions_trip ON positions (trip_id);`,
	// Covers the proximity recency filter and the retention sweep.
	`CREATE INDEX IF NOT EXISTS idx_positions_recorded ON positions (recorded_at);`,
	`CREATE INDEX IF NOT EXISTS idx_trips_route ON trips (route_id);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_active ON vehicles (active);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
