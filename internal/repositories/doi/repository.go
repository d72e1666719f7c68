// Package doi resolves registered DOI metadata needed for event enrichment.
package doi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/datacite/events/pkg/database"
	"github.com/datacite/events/pkg/identifiers"
	"github.com/datacite/events/pkg/metrics"
	"github.com/datacite/events/pkg/redis"
	"github.com/datacite/events/pkg/tracing"
)

const cacheTTL = 24 * time.Hour

// Repository looks up registered DOI records
type Repository struct {
	db     database.DB
	cache  *redis.Client
	logger ectologger.Logger
}

// New creates a new doi repository. cache may be nil to disable caching.
func New(db database.DB, cache *redis.Client, logger ectologger.Logger) *Repository {
	return &Repository{db: db, cache: cache, logger: logger}
}

// PublicationYear returns the registered publication year for a DOI given in
// any supported form (bare, doi:, or resolver URL). Returns 0 when the DOI is
// not registered or has no publication year.
func (r *Repository) PublicationYear(ctx context.Context, rawDOI string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "doi.Repository.PublicationYear")
	defer span.End()

	bare, ok := identifiers.UppercaseDOIFromURL(rawDOI)
	if !ok {
		return 0, nil
	}

	cacheKey := fmt.Sprintf("doi:publication_year:%s", strings.ToLower(bare))
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, cacheKey)
		if err == nil {
			if year, convErr := strconv.Atoi(cached); convErr == nil {
				metrics.PublicationYearCacheHits.WithLabelValues("cache").Inc()
				return year, nil
			}
		} else if !redis.IsNil(err) {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"doi": bare}).Warn("Publication year cache read failed")
		}
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("publication_year")
	sb.From("dois")
	sb.Where(sb.Equal("doi", bare))

	query, args := sb.Build()
	var year sql.NullInt64
	if err := r.db.GetContext(ctx, &year, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"doi": bare}).Error("Failed to look up publication year")
		return 0, err
	}

	result := int(year.Int64)
	metrics.PublicationYearCacheHits.WithLabelValues("database").Inc()

	if r.cache != nil && result != 0 {
		if err := r.cache.Set(ctx, cacheKey, strconv.Itoa(result), cacheTTL); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"doi": bare}).Warn("Publication year cache write failed")
		}
	}

	return result, nil
}
