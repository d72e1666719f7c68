// Package enrichment persists curated metadata overlays for registered DOIs.
package enrichment

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/datacite/events/pkg/database"
	"github.com/datacite/events/pkg/models"
	"github.com/datacite/events/pkg/tracing"
)

var columns = []string{
	"id", "doi", "field", "action", "original_value", "enriched_value",
	"created_at", "updated_at",
}

// Repository handles enrichment persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// New creates a new enrichment repository
func New(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// FindByDOI returns all enrichments recorded for a DOI, oldest first.
func (r *Repository) FindByDOI(ctx context.Context, doi string) ([]models.Enrichment, error) {
	ctx, span := tracing.StartSpan(ctx, "enrichment.Repository.FindByDOI")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("enrichments")
	sb.Where(sb.Equal("doi", doi))
	sb.OrderBy("created_at ASC", "id ASC")

	query, args := sb.Build()
	var enrichments []models.Enrichment
	if err := r.db.SelectContext(ctx, &enrichments, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"doi": doi}).Error("Failed to find enrichments")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find enrichments")
	}
	return enrichments, nil
}

// ListDOIs returns a page of distinct DOIs that have enrichments, in DOI
// order.
func (r *Repository) ListDOIs(ctx context.Context, page, pageSize int) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "enrichment.Repository.ListDOIs")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 5
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("DISTINCT doi")
	sb.From("enrichments")
	sb.OrderBy("doi ASC")
	sb.Limit(pageSize).Offset((page - 1) * pageSize)

	query, args := sb.Build()
	var dois []string
	if err := r.db.SelectContext(ctx, &dois, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list enriched dois")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list enriched dois")
	}
	return dois, nil
}
