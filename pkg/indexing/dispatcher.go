package indexing

import (
	"context"
	"errors"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/datacite/events/pkg/metrics"
	"github.com/datacite/events/pkg/models"
	"github.com/datacite/events/pkg/search"
	"github.com/datacite/events/pkg/tracing"
)

// IndexedMarker records a successful index write on the stored event.
type IndexedMarker interface {
	MarkIndexed(ctx context.Context, uuid string, indexedAt time.Time) error
}

// Dispatcher submits derived documents to the search index. Indexing is
// best-effort: failures are logged and counted but never propagate to the
// ingest path, so a search outage cannot stall the queue.
type Dispatcher struct {
	builder *Builder
	indexer search.Indexer
	marker  IndexedMarker
	logger  ectologger.Logger
	now     func() time.Time
}

// NewDispatcher creates a new index dispatcher
func NewDispatcher(builder *Builder, indexer search.Indexer, marker IndexedMarker, logger ectologger.Logger) *Dispatcher {
	return &Dispatcher{
		builder: builder,
		indexer: indexer,
		marker:  marker,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch builds and submits the document for an event. Always returns to
// the caller without error.
func (d *Dispatcher) Dispatch(ctx context.Context, event *models.Event) {
	ctx, span := tracing.StartSpan(ctx, "indexing.Dispatcher.Dispatch")
	defer span.End()

	log := d.logger.WithContext(ctx).WithFields(map[string]any{"uuid": event.UUID})

	doc := d.builder.Build(ctx, event)

	if err := d.indexer.Index(ctx, event.UUID, doc); err != nil {
		var rejection *search.RejectionError
		if errors.As(err, &rejection) {
			metrics.IndexSubmissions.WithLabelValues("rejected").Inc()
			log.WithError(err).WithFields(map[string]any{
				"status_code": rejection.StatusCode,
			}).Error("Search index rejected event document")
		} else {
			metrics.IndexSubmissions.WithLabelValues("error").Inc()
			log.WithError(err).Error("Failed to submit event document to search index")
		}
		return
	}

	metrics.IndexSubmissions.WithLabelValues("indexed").Inc()

	if d.marker != nil {
		if err := d.marker.MarkIndexed(ctx, event.UUID, d.now()); err != nil {
			log.WithError(err).Warn("Failed to record indexed timestamp")
		}
	}
}
