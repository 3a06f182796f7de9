package main

import (
	"context"
	"fmt"
	"os"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"tracking-service/internal/auth"
	"tracking-service/internal/config"
	"tracking-service/internal/db"
	httphandler "tracking-service/internal/http"
	"tracking-service/internal/http/middleware"
	"tracking-service/internal/logger"
	"tracking-service/internal/mqtt"
	"tracking-service/internal/repository"
	"tracking-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	positionRepo := repository.NewPositionRepository(database)
	vehicleRepo := repository.NewVehicleRepository(database)
	tripRepo := repository.NewTripRepository(database)

	trackingService := service.NewTrackingService(positionRepo, vehicleRepo, tripRepo)
	proximityService := service.NewProximityService(positionRepo, vehicleRepo)
	fleetService := service.NewFleetService(positionRepo, vehicleRepo, appLogger)
	statsService := service.NewStatsService(positionRepo, vehicleRepo, cfg.Tracking.RetentionDays)

	if cfg.MQTT.BrokerURL != "" {
		opts := pahomqtt.NewClientOptions().
			AddBroker(cfg.MQTT.BrokerURL).
			SetClientID(cfg.MQTT.ClientID).
			SetAutoReconnect(true)
		client := pahomqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			appLogger.Fatal().Err(token.Error()).Msg("failed to connect MQTT broker")
		}

		subscriber := mqtt.NewPositionSubscriber(client, trackingService, appLogger)
		if err := subscriber.Start(); err != nil {
			appLogger.Fatal().Err(err).Msg("failed to subscribe to position topic")
		}
		appLogger.Info().Str("broker", cfg.MQTT.BrokerURL).Msg("MQTT position ingestion enabled")
	}

	if cfg.Tracking.SweepInterval > 0 {
		go runRetentionSweep(statsService, cfg.Tracking.SweepInterval, appLogger)
	}

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(trackingService, proximityService, fleetService, statsService, appLogger)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Msg("starting tracking service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}

// runRetentionSweep periodically deletes samples past the configured
// retention age. The explicit purge endpoint stays available regardless.
func runRetentionSweep(statsService *service.StatsService, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		deleted, err := statsService.Sweep(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("retention sweep failed")
			continue
		}
		if deleted > 0 {
			log.Info().Int64("deleted", deleted).Msg("retention sweep removed old positions")
		}
	}
}
