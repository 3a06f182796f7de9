package mqtt

import (
	"context"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"tracking-service/internal/model"
	"tracking-service/internal/service"
)

const topicPattern = "fleet/vehicles/+/positions"

type positionRecorder interface {
	RecordPosition(ctx context.Context, input service.RecordPositionInput) (*model.Position, error)
}

type positionMessage struct {
	VehicleID  string   `json:"vehicle_id"`
	TripID     *string  `json:"trip_id"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Speed      *float64 `json:"speed"`
	Heading    *float64 `json:"heading"`
	Accuracy   *float64 `json:"accuracy"`
	RecordedAt *int64   `json:"recorded_at"`
}

// PositionSubscriber feeds position reports published over MQTT into the
// tracking service. Invalid or unresolvable messages are logged and dropped.
type PositionSubscriber struct {
	client   mqtt.Client
	recorder positionRecorder
	log      zerolog.Logger
}

func NewPositionSubscriber(client mqtt.Client, recorder positionRecorder, log zerolog.Logger) *PositionSubscriber {
	return &PositionSubscriber{
		client:   client,
		recorder: recorder,
		log:      log,
	}
}

func (s *PositionSubscriber) Start() error {
	token := s.client.Subscribe(topicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *PositionSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw positionMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		s.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("invalid position message")
		return
	}

	input := service.RecordPositionInput{
		VehicleID: raw.VehicleID,
		TripID:    raw.TripID,
		Latitude:  raw.Latitude,
		Longitude: raw.Longitude,
		Speed:     raw.Speed,
		Heading:   raw.Heading,
		Accuracy:  raw.Accuracy,
	}
	if raw.RecordedAt != nil {
		recordedAt := time.Unix(*raw.RecordedAt, 0)
		input.RecordedAt = &recordedAt
	}

	if _, err := s.recorder.RecordPosition(context.Background(), input); err != nil {
		s.log.Warn().Err(err).
			Str("vehicle_id", raw.VehicleID).
			Msg("dropping position message")
	}
}
