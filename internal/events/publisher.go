// Package events publishes reservation lifecycle events for downstream
// consumers (analytics, audit). Publishing happens after the reservation
// transaction committed and never affects its outcome.
package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/library-lending/internal/model"
)

// Publisher delivers reservation events.
type Publisher interface {
	Publish(ctx context.Context, event model.ReservationEvent) error
	Close() error
}

// LogPublisher writes events to the application log. It is used when no
// broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher constructs a LogPublisher.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event model.ReservationEvent) error {
	p.logger.Info("reservation event",
		zap.String("type", event.Type),
		zap.String("reservation_id", event.ReservationID),
		zap.String("book_id", event.BookID),
		zap.String("user_id", event.UserID),
		zap.String("status", string(event.Status)),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
