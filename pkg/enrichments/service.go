// Package enrichments serves registered DOI metadata with curated overlays
// applied on top of the registry record.
package enrichments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"

	"github.com/Gobusters/ectologger"

	"github.com/datacite/events/pkg/httpclient"
	"github.com/datacite/events/pkg/models"
	"github.com/datacite/events/pkg/tracing"
)

// EnrichmentStore is the persistence surface the service needs.
type EnrichmentStore interface {
	FindByDOI(ctx context.Context, doi string) ([]models.Enrichment, error)
	ListDOIs(ctx context.Context, page, pageSize int) ([]string, error)
}

// Service resolves DOI metadata from the registry API and applies stored
// enrichments to it.
type Service struct {
	store   EnrichmentStore
	client  *httpclient.Client
	baseURL string
	logger  ectologger.Logger
}

// NewService creates a new enrichment service
func NewService(store EnrichmentStore, client *httpclient.Client, baseURL string, logger ectologger.Logger) *Service {
	return &Service{
		store:   store,
		client:  client,
		baseURL: baseURL,
		logger:  logger,
	}
}

// EnrichedDOI returns the registry metadata for a DOI with all stored
// enrichments applied. Returns nil when the DOI is not registered or has no
// enrichments.
func (s *Service) EnrichedDOI(ctx context.Context, doi string) (models.Metadata, error) {
	ctx, span := tracing.StartSpan(ctx, "enrichments.Service.EnrichedDOI")
	defer span.End()

	record, err := s.fetchDOI(ctx, doi)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	stored, err := s.store.FindByDOI(ctx, doi)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, nil
	}

	for i := range stored {
		applyEnrichment(record, &stored[i])
		appendEnrichmentRelationship(record, &stored[i])
	}

	return record, nil
}

// EnrichedDOIs returns a page of enriched DOI records, one per stored DOI.
func (s *Service) EnrichedDOIs(ctx context.Context, page, pageSize int) ([]models.Metadata, error) {
	ctx, span := tracing.StartSpan(ctx, "enrichments.Service.EnrichedDOIs")
	defer span.End()

	dois, err := s.store.ListDOIs(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	records := []models.Metadata{}
	for _, doi := range dois {
		record, err := s.EnrichedDOI(ctx, doi)
		if err != nil {
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"doi": doi}).Warn("Failed to enrich doi")
			continue
		}
		if record == nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Service) fetchDOI(ctx context.Context, doi string) (models.Metadata, error) {
	requestURL := fmt.Sprintf("%s/dois/%s?detail=true&publisher=true&affiliation=true", s.baseURL, url.PathEscape(doi))

	resp, err := s.client.Get(ctx, requestURL, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry API returned status %d for %s", resp.StatusCode, doi)
	}

	var envelope struct {
		Data struct {
			Attributes models.Metadata `json:"attributes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode registry response: %w", err)
	}
	return envelope.Data.Attributes, nil
}

// applyEnrichment mutates the record according to the enrichment action.
func applyEnrichment(record models.Metadata, e *models.Enrichment) {
	switch e.Action {
	case models.EnrichmentActionInsert:
		list, _ := record[e.Field].([]any)
		record[e.Field] = append(list, e.EnrichedValue.Data)

	case models.EnrichmentActionUpdate:
		record[e.Field] = e.EnrichedValue.Data

	case models.EnrichmentActionUpdateChild:
		list, ok := record[e.Field].([]any)
		if !ok {
			return
		}
		for i, item := range list {
			if reflect.DeepEqual(item, e.OriginalValue.Data) {
				list[i] = e.EnrichedValue.Data
			}
		}

	case models.EnrichmentActionDeleteChild:
		list, _ := record[e.Field].([]any)
		for i, item := range list {
			if reflect.DeepEqual(item, e.OriginalValue.Data) {
				record[e.Field] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
}

// appendEnrichmentRelationship records the applied enrichment under
// relationships.enrichments on the served document.
func appendEnrichmentRelationship(record models.Metadata, e *models.Enrichment) {
	relationships, ok := record["relationships"].(map[string]any)
	if !ok {
		relationships = map[string]any{}
		record["relationships"] = relationships
	}
	list, _ := relationships["enrichments"].([]any)
	relationships["enrichments"] = append(list, []any{e})
}
