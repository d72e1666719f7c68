// Package events handles lifecycle event emission for citation events
package events

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/datacite/events/pkg/kafka"
	"github.com/datacite/events/pkg/models"
	"github.com/datacite/events/pkg/tracing"
)

// Emitter announces citation event creation and updates to downstream
// consumers. A nil producer disables emission.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new lifecycle event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitEventCreated emits an event.created lifecycle event
func (e *Emitter) EmitEventCreated(ctx context.Context, event *models.Event) error {
	return e.emit(ctx, "event.created", event)
}

// EmitEventUpdated emits an event.updated lifecycle event
func (e *Emitter) EmitEventUpdated(ctx context.Context, event *models.Event) error {
	return e.emit(ctx, "event.updated", event)
}

func (e *Emitter) emit(ctx context.Context, eventType string, event *models.Event) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emit")
	defer span.End()

	if e.producer == nil {
		return nil
	}

	lifecycle := &kafka.LifecycleEvent{
		EventType:      eventType,
		UUID:           event.UUID,
		SubjID:         event.SubjID,
		ObjID:          event.ObjID,
		SourceID:       event.SourceID,
		RelationTypeID: event.RelationTypeID,
	}

	if err := e.producer.PublishLifecycleEvent(ctx, lifecycle); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": eventType,
			"uuid":       event.UUID,
		}).Error("Failed to emit lifecycle event")
		return err
	}

	return nil
}
