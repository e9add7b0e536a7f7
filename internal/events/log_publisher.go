package events

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher writes each event as a structured log line. It is the sink used
// when no broker is configured, standing in for the push notifications a real
// deployment would fan out to riders and drivers.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.Named("events")}
}

func (p *LogPublisher) Publish(_ context.Context, event TripEvent) error {
	fields := []zap.Field{
		zap.String("trip_id", event.TripID),
		zap.String("passenger_id", event.PassengerID),
		zap.String("driver_id", event.DriverID),
		zap.String("to", string(event.To)),
		zap.Time("occurred_at", event.OccurredAt),
	}
	if event.From != "" {
		fields = append(fields, zap.String("from", string(event.From)))
	}
	p.logger.Info(event.Type, fields...)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
