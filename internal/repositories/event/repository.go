// Package event persists citation events keyed by their natural identity.
package event

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/datacite/events/pkg/database"
	"github.com/datacite/events/pkg/models"
	"github.com/datacite/events/pkg/tracing"
)

// ErrDuplicateEvent is returned when an insert hits the natural-key unique
// constraint. Callers treat it as a benign concurrent-create race.
var ErrDuplicateEvent = errors.New("event with the same natural key already exists")

const uniqueViolation = "23505"

var columns = []string{
	"id", "uuid", "subj_id", "obj_id", "source_id", "source_token",
	"relation_type_id", "total", "license", "message_action", "error_messages",
	"subj", "obj", "source_doi", "target_doi", "source_relation_type_id",
	"target_relation_type_id", "occurred_at", "indexed_at", "created_at", "updated_at",
}

// NaturalKey identifies one reported relationship from one source.
type NaturalKey struct {
	SubjID         string
	ObjID          string
	SourceID       string
	RelationTypeID string
}

// Repository handles citation event persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// New creates a new event repository
func New(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// FindByNaturalKey returns the event matching the natural key, or nil when
// none exists.
func (r *Repository) FindByNaturalKey(ctx context.Context, key NaturalKey) (*models.Event, error) {
	ctx, span := tracing.StartSpan(ctx, "event.Repository.FindByNaturalKey")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("citation_events")
	sb.Where(
		sb.Equal("subj_id", key.SubjID),
		sb.Equal("obj_id", key.ObjID),
		sb.Equal("source_id", key.SourceID),
		sb.Equal("relation_type_id", key.RelationTypeID),
	)

	query, args := sb.Build()
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"subj_id":          key.SubjID,
			"obj_id":           key.ObjID,
			"source_id":        key.SourceID,
			"relation_type_id": key.RelationTypeID,
		}).Error("Failed to find event by natural key")
		return nil, err
	}
	return &event, nil
}

// GetByUUID returns the event with the given uuid, or nil when none exists.
func (r *Repository) GetByUUID(ctx context.Context, uuid string) (*models.Event, error) {
	ctx, span := tracing.StartSpan(ctx, "event.Repository.GetByUUID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("citation_events")
	sb.Where(sb.Equal("uuid", uuid))

	query, args := sb.Build()
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"uuid": uuid}).Error("Failed to get event by uuid")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get event")
	}
	return &event, nil
}

// Insert persists a new event. A concurrent insert of the same natural key
// surfaces as ErrDuplicateEvent.
func (r *Repository) Insert(ctx context.Context, event *models.Event) error {
	ctx, span := tracing.StartSpan(ctx, "event.Repository.Insert")
	defer span.End()

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("citation_events")
	ib.Cols(
		"uuid", "subj_id", "obj_id", "source_id", "source_token",
		"relation_type_id", "total", "license", "message_action", "error_messages",
		"subj", "obj", "source_doi", "target_doi", "source_relation_type_id",
		"target_relation_type_id", "occurred_at", "indexed_at", "created_at", "updated_at",
	)
	ib.Values(
		event.UUID, event.SubjID, event.ObjID, event.SourceID, event.SourceToken,
		event.RelationTypeID, event.Total, event.License, event.MessageAction, event.ErrorMessages,
		event.Subj, event.Obj, event.SourceDOI, event.TargetDOI, event.SourceRelationTypeID,
		event.TargetRelationTypeID, event.OccurredAt, event.IndexedAt, event.CreatedAt, event.UpdatedAt,
	)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateEvent
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"uuid": event.UUID}).Error("Failed to insert event")
		return err
	}

	return nil
}

// Update persists the mutable fields of an existing event, addressed by uuid.
func (r *Repository) Update(ctx context.Context, event *models.Event) error {
	ctx, span := tracing.StartSpan(ctx, "event.Repository.Update")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("citation_events")
	ub.Set(
		ub.Assign("subj_id", event.SubjID),
		ub.Assign("obj_id", event.ObjID),
		ub.Assign("source_id", event.SourceID),
		ub.Assign("source_token", event.SourceToken),
		ub.Assign("relation_type_id", event.RelationTypeID),
		ub.Assign("total", event.Total),
		ub.Assign("license", event.License),
		ub.Assign("message_action", event.MessageAction),
		ub.Assign("error_messages", event.ErrorMessages),
		ub.Assign("subj", event.Subj),
		ub.Assign("obj", event.Obj),
		ub.Assign("source_doi", event.SourceDOI),
		ub.Assign("target_doi", event.TargetDOI),
		ub.Assign("source_relation_type_id", event.SourceRelationTypeID),
		ub.Assign("target_relation_type_id", event.TargetRelationTypeID),
		ub.Assign("occurred_at", event.OccurredAt),
		ub.Assign("updated_at", event.UpdatedAt),
	)
	ub.Where(ub.Equal("uuid", event.UUID))

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"uuid": event.UUID}).Error("Failed to update event")
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkIndexed records a successful search index write.
func (r *Repository) MarkIndexed(ctx context.Context, uuid string, indexedAt time.Time) error {
	ctx, span := tracing.StartSpan(ctx, "event.Repository.MarkIndexed")
	defer span.End()

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("citation_events")
	ub.Set(ub.Assign("indexed_at", indexedAt))
	ub.Where(ub.Equal("uuid", uuid))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"uuid": uuid}).Error("Failed to mark event indexed")
		return err
	}
	return nil
}

// ListFilter narrows List results. Empty fields are ignored.
type ListFilter struct {
	SubjID         string
	ObjID          string
	SourceID       string
	RelationTypeID string
	Page           int
	PageSize       int
}

// List returns a page of events, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Event, error) {
	ctx, span := tracing.StartSpan(ctx, "event.Repository.List")
	defer span.End()

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 25
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("citation_events")

	where := []string{}
	if filter.SubjID != "" {
		where = append(where, sb.Equal("subj_id", filter.SubjID))
	}
	if filter.ObjID != "" {
		where = append(where, sb.Equal("obj_id", filter.ObjID))
	}
	if filter.SourceID != "" {
		where = append(where, sb.Equal("source_id", filter.SourceID))
	}
	if filter.RelationTypeID != "" {
		where = append(where, sb.Equal("relation_type_id", filter.RelationTypeID))
	}
	if len(where) > 0 {
		sb.Where(where...)
	}
	sb.OrderBy("updated_at DESC")
	sb.Limit(pageSize).Offset((page - 1) * pageSize)

	query, args := sb.Build()
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list events")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list events")
	}
	return events, nil
}
