// Package processor handles incoming citation event messages and manages the
// ingest pipeline. It upserts events by natural key and hands successful
// writes to the index dispatcher.
package processor

import (
	"context"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"

	eventrepo "github.com/datacite/events/internal/repositories/event"
	"github.com/datacite/events/pkg/kafka"
	"github.com/datacite/events/pkg/metrics"
	"github.com/datacite/events/pkg/models"
	"github.com/datacite/events/pkg/tracing"
)

// EventStore is the persistence surface the processor needs.
type EventStore interface {
	FindByNaturalKey(ctx context.Context, key eventrepo.NaturalKey) (*models.Event, error)
	Insert(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
}

// LifecycleEmitter announces created and updated events downstream.
type LifecycleEmitter interface {
	EmitEventCreated(ctx context.Context, event *models.Event) error
	EmitEventUpdated(ctx context.Context, event *models.Event) error
}

// IndexDispatcher submits the derived document for an event.
type IndexDispatcher interface {
	Dispatch(ctx context.Context, event *models.Event)
}

// Processor handles event message processing
type Processor struct {
	logger     ectologger.Logger
	store      EventStore
	emitter    LifecycleEmitter
	dispatcher IndexDispatcher
	validate   *validator.Validate
	now        func() time.Time
	wg         sync.WaitGroup
}

// NewProcessor creates a new event message processor
func NewProcessor(logger ectologger.Logger, store EventStore, emitter LifecycleEmitter, dispatcher IndexDispatcher) *Processor {
	return &Processor{
		logger:     logger,
		store:      store,
		emitter:    emitter,
		dispatcher: dispatcher,
		validate:   validator.New(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ProcessMessage upserts the event described by the message. Returning an
// error signals the consumer to skip the commit so the broker redelivers.
func (p *Processor) ProcessMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.ProcessMessage")
	defer span.End()

	attrs := msg.Attributes
	if attrs == nil {
		p.logger.WithContext(ctx).Error("Message has no event attributes")
		metrics.MessagesProcessed.WithLabelValues("dropped", msg.GetSourceID()).Inc()
		return nil
	}

	now := p.now()
	candidate := models.NewEventFromMessage(attrs, now)

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"subj_id":          candidate.SubjID,
		"obj_id":           candidate.ObjID,
		"source_id":        candidate.SourceID,
		"relation_type_id": candidate.RelationTypeID,
	})

	if err := p.validate.Struct(candidate); err != nil {
		// Invalid payloads stay invalid on redelivery, so drop them.
		log.WithError(err).Error("Event failed validation")
		metrics.MessagesProcessed.WithLabelValues("dropped", candidate.SourceID).Inc()
		return nil
	}

	key := eventrepo.NaturalKey{
		SubjID:         candidate.SubjID,
		ObjID:          candidate.ObjID,
		SourceID:       candidate.SourceID,
		RelationTypeID: candidate.RelationTypeID,
	}

	existing, err := p.store.FindByNaturalKey(ctx, key)
	if err != nil {
		return err
	}

	if existing == nil {
		return p.createEvent(ctx, candidate, log)
	}
	return p.updateEvent(ctx, existing, attrs, now, log)
}

func (p *Processor) createEvent(ctx context.Context, event *models.Event, log ectologger.Logger) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.createEvent")
	defer span.End()

	if err := p.store.Insert(ctx, event); err != nil {
		if err == eventrepo.ErrDuplicateEvent {
			// Lost a concurrent-create race. The winner owns the row and the
			// redelivered message carried the same data, so skip.
			log.Info("Event already exists, skipping")
			metrics.MessagesProcessed.WithLabelValues("skipped", event.SourceID).Inc()
			return nil
		}
		return err
	}

	log.WithFields(map[string]any{"uuid": event.UUID}).Info("Created event")
	metrics.MessagesProcessed.WithLabelValues("created", event.SourceID).Inc()

	if p.emitter != nil {
		if err := p.emitter.EmitEventCreated(ctx, event); err != nil {
			log.WithError(err).Warn("Failed to emit event.created")
		}
	}
	p.dispatch(ctx, event)
	return nil
}

func (p *Processor) updateEvent(ctx context.Context, existing *models.Event, attrs *models.EventAttributes, now time.Time, log ectologger.Logger) error {
	ctx, span := tracing.StartSpan(ctx, "processor.Processor.updateEvent")
	defer span.End()

	existing.ApplyMessage(attrs, now)

	if err := p.validate.Struct(existing); err != nil {
		log.WithError(err).Error("Updated event failed validation")
		metrics.MessagesProcessed.WithLabelValues("dropped", existing.SourceID).Inc()
		return nil
	}

	if err := p.store.Update(ctx, existing); err != nil {
		return err
	}

	log.WithFields(map[string]any{"uuid": existing.UUID}).Info("Updated event")
	metrics.MessagesProcessed.WithLabelValues("updated", existing.SourceID).Inc()

	if p.emitter != nil {
		if err := p.emitter.EmitEventUpdated(ctx, existing); err != nil {
			log.WithError(err).Warn("Failed to emit event.updated")
		}
	}
	p.dispatch(ctx, existing)
	return nil
}

// dispatch hands the event to the index dispatcher on its own goroutine.
// Ingestion commits independently of the search cluster; the dispatcher
// swallows its own failures.
func (p *Processor) dispatch(ctx context.Context, event *models.Event) {
	if p.dispatcher == nil {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.dispatcher.Dispatch(ctx, event)
	}()
}

// WaitForDispatches blocks until all in-flight index submissions finish.
// Called on shutdown.
func (p *Processor) WaitForDispatches() {
	p.wg.Wait()
}
