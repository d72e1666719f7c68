// Package indexing builds and dispatches the derived search documents for
// citation events.
package indexing

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/datacite/events/pkg/identifiers"
	"github.com/datacite/events/pkg/models"
	"github.com/datacite/events/pkg/relations"
)

// PublicationYearLookup resolves the registered publication year for a DOI.
// Implementations return 0 when the DOI is unknown.
type PublicationYearLookup interface {
	PublicationYear(ctx context.Context, doi string) (int, error)
}

// proxyIdentifierPattern matches bare DOIs inside proxyIdentifiers metadata.
var proxyIdentifierPattern = regexp.MustCompile(`^(10\.\d{4,5}/.+)$`)

var usageRelationPattern = regexp.MustCompile(`(requests|investigations)`)

// Document is the denormalized search index representation of an event.
type Document struct {
	UUID                 string          `json:"uuid"`
	SubjID               string          `json:"subj_id"`
	ObjID                string          `json:"obj_id"`
	Subj                 models.Metadata `json:"subj"`
	Obj                  models.Metadata `json:"obj"`
	SourceDOI            string          `json:"source_doi"`
	TargetDOI            string          `json:"target_doi"`
	SourceRelationTypeID string          `json:"source_relation_type_id"`
	TargetRelationTypeID string          `json:"target_relation_type_id"`
	DOI                  []string        `json:"doi"`
	ORCID                []string        `json:"orcid"`
	ISSN                 []string        `json:"issn"`
	Prefix               [][]string      `json:"prefix"`
	Subtype              []string        `json:"subtype"`
	CitationType         string          `json:"citation_type,omitempty"`
	SourceID             string          `json:"source_id"`
	SourceToken          string          `json:"source_token"`
	MessageAction        string          `json:"message_action"`
	RelationTypeID       string          `json:"relation_type_id"`
	RegistrantID         []string        `json:"registrant_id"`
	AccessMethod         string          `json:"access_method,omitempty"`
	MetricType           string          `json:"metric_type,omitempty"`
	Total                int             `json:"total"`
	License              string          `json:"license"`
	ErrorMessages        string          `json:"error_messages,omitempty"`
	YearMonth            string          `json:"year_month,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	IndexedAt            time.Time       `json:"indexed_at"`
	OccurredAt           time.Time       `json:"occurred_at"`
	CitationID           string          `json:"citation_id"`
	CitationYear         int             `json:"citation_year"`
	CacheKey             string          `json:"cache_key"`
	SubjCacheKey         string          `json:"subj_cache_key"`
	ObjCacheKey          string          `json:"obj_cache_key"`
}

// Builder derives index documents from events.
type Builder struct {
	years PublicationYearLookup
	now   func() time.Time
}

// NewBuilder creates a document builder. years may be nil, in which case
// citation years fall back to the event timestamp.
func NewBuilder(years PublicationYearLookup) *Builder {
	return &Builder{years: years, now: func() time.Time { return time.Now().UTC() }}
}

// Build derives the search document for an event.
func (b *Builder) Build(ctx context.Context, event *models.Event) *Document {
	subj := event.SubjMetadata()
	obj := event.ObjMetadata()

	subjCacheKey := b.sideCacheKey(event.SubjID, subj)
	objCacheKey := b.sideCacheKey(event.ObjID, obj)

	dois := collectDOIs(event, subj, obj)

	doc := &Document{
		UUID:                 event.UUID,
		SubjID:               event.SubjID,
		ObjID:                event.ObjID,
		Subj:                 withCacheKey(subj, subjCacheKey),
		Obj:                  withCacheKey(obj, objCacheKey),
		SourceDOI:            event.SourceDOI,
		TargetDOI:            event.TargetDOI,
		SourceRelationTypeID: event.SourceRelationTypeID,
		TargetRelationTypeID: event.TargetRelationTypeID,
		DOI:                  dois,
		ORCID:                collectORCIDs(event, subj, obj),
		ISSN:                 collectISSNs(subj, obj),
		Prefix:               prefixes(dois),
		Subtype:              subtypes(subj, obj),
		CitationType:         citationType(subj, obj),
		SourceID:             event.SourceID,
		SourceToken:          event.SourceToken,
		MessageAction:        event.MessageAction,
		RelationTypeID:       event.RelationTypeID,
		RegistrantID:         registrantIDs(subj, obj),
		AccessMethod:         accessMethod(event.RelationTypeID),
		MetricType:           metricType(event.RelationTypeID),
		Total:                event.Total,
		License:              event.License,
		ErrorMessages:        event.ErrorMessages,
		YearMonth:            yearMonth(event.OccurredAt),
		CreatedAt:            event.CreatedAt,
		UpdatedAt:            event.UpdatedAt,
		IndexedAt:            event.IndexedAt,
		OccurredAt:           event.OccurredAt,
		CitationID:           citationID(event.SubjID, event.ObjID),
		CitationYear:         b.citationYear(ctx, event, subj, obj),
		CacheKey:             b.cacheKey(event),
		SubjCacheKey:         subjCacheKey,
		ObjCacheKey:          objCacheKey,
	}

	return doc
}

func (b *Builder) sideCacheKey(id string, meta models.Metadata) string {
	timestamp, _ := meta["dateModified"].(string)
	if timestamp == "" {
		timestamp = b.now().Format(time.RFC3339)
	}
	return fmt.Sprintf("objects/%s-%s", id, timestamp)
}

func withCacheKey(meta models.Metadata, cacheKey string) models.Metadata {
	merged := make(models.Metadata, len(meta)+1)
	for k, v := range meta {
		merged[k] = v
	}
	merged["cache_key"] = cacheKey
	return merged
}

// collectDOIs aggregates every DOI the event touches. Duplicates are
// preserved so that per-DOI aggregations count each appearance.
func collectDOIs(event *models.Event, subj, obj models.Metadata) []string {
	dois := []string{}
	dois = append(dois, proxyIdentifierDOIs(subj)...)
	dois = append(dois, proxyIdentifierDOIs(obj)...)
	dois = append(dois, funderDOIs(subj)...)
	dois = append(dois, funderDOIs(obj)...)
	if doi, ok := identifiers.DOIFromURL(event.SubjID); ok {
		dois = append(dois, doi)
	}
	if doi, ok := identifiers.DOIFromURL(event.ObjID); ok {
		dois = append(dois, doi)
	}
	return dois
}

func proxyIdentifierDOIs(meta models.Metadata) []string {
	dois := []string{}
	for _, raw := range stringValues(meta["proxyIdentifiers"]) {
		if m := proxyIdentifierPattern.FindStringSubmatch(raw); m != nil {
			dois = append(dois, m[1])
		}
	}
	return dois
}

func funderDOIs(meta models.Metadata) []string {
	dois := []string{}
	for _, funder := range mapValues(meta["funder"]) {
		id, _ := funder["@id"].(string)
		if doi, ok := identifiers.DOIFromURL(id); ok {
			dois = append(dois, doi)
		}
	}
	return dois
}

func collectORCIDs(event *models.Event, subj, obj models.Metadata) []string {
	orcids := []string{}
	for _, author := range mapValues(subj["author"]) {
		id, _ := author["@id"].(string)
		if orcid, ok := identifiers.ORCIDFromURL(id); ok {
			orcids = append(orcids, orcid)
		}
	}
	for _, author := range mapValues(obj["author"]) {
		id, _ := author["@id"].(string)
		if orcid, ok := identifiers.ORCIDFromURL(id); ok {
			orcids = append(orcids, orcid)
		}
	}
	if orcid, ok := identifiers.ORCIDFromURL(event.SubjID); ok {
		orcids = append(orcids, orcid)
	}
	if orcid, ok := identifiers.ORCIDFromURL(event.ObjID); ok {
		orcids = append(orcids, orcid)
	}
	return orcids
}

func collectISSNs(subj, obj models.Metadata) []string {
	issns := []string{}
	issns = append(issns, periodicalISSNs(subj)...)
	issns = append(issns, periodicalISSNs(obj)...)
	return issns
}

func periodicalISSNs(meta models.Metadata) []string {
	periodical, ok := meta["periodical"].(map[string]any)
	if !ok {
		return nil
	}
	return stringValues(periodical["issn"])
}

// prefixes returns the DOI prefixes as a single nested list, mirroring the
// shape the index mapping expects.
func prefixes(dois []string) [][]string {
	inner := make([]string, 0, len(dois))
	for _, doi := range dois {
		inner = append(inner, strings.SplitN(doi, "/", 2)[0])
	}
	return [][]string{inner}
}

func subtypes(subj, obj models.Metadata) []string {
	types := []string{}
	if t, ok := subj["@type"].(string); ok && t != "" {
		types = append(types, t)
	}
	if t, ok := obj["@type"].(string); ok && t != "" {
		types = append(types, t)
	}
	return types
}

func citationType(subj, obj models.Metadata) string {
	subjType, _ := subj["@type"].(string)
	objType, _ := obj["@type"].(string)
	if subjType == "" || subjType == "CreativeWork" || objType == "" || objType == "CreativeWork" {
		return ""
	}

	pair := []string{subjType, objType}
	sort.Strings(pair)
	return strings.Join(pair, "-")
}

func registrantIDs(subj, obj models.Metadata) []string {
	ids := []string{}
	for _, key := range []string{"registrantId", "providerId"} {
		if id, ok := subj[key].(string); ok && id != "" {
			ids = append(ids, id)
		}
		if id, ok := obj[key].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func accessMethod(relationTypeID string) string {
	if !usageRelationPattern.MatchString(relationTypeID) {
		return ""
	}
	parts := strings.Split(relationTypeID, "-")
	return parts[len(parts)-1]
}

func metricType(relationTypeID string) string {
	if !usageRelationPattern.MatchString(relationTypeID) {
		return ""
	}
	parts := strings.SplitN(relationTypeID, "-", 4)
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, "-")
}

func yearMonth(occurredAt time.Time) string {
	if occurredAt.IsZero() {
		return ""
	}
	iso := occurredAt.UTC().Format(time.RFC3339)
	return iso[:7]
}

// citationID joins both identifiers in sorted order so that the same pair
// yields the same id regardless of direction.
func citationID(subjID, objID string) string {
	pair := []string{subjID, objID}
	sort.Strings(pair)
	return strings.Join(pair, "-")
}

func (b *Builder) cacheKey(event *models.Event) string {
	updated := event.UpdatedAt
	if updated.IsZero() {
		updated = b.now()
	}
	return fmt.Sprintf("events/%s-%s", event.UUID, updated.UTC().Format(time.RFC3339))
}

// citationYear resolves the publication year of the citation as the larger of
// the two sides' years. Returns 0 for relation types that do not represent
// citations.
func (b *Builder) citationYear(ctx context.Context, event *models.Event, subj, obj models.Metadata) int {
	if !relations.EligibleForCitationYear(event.RelationTypeID) {
		return 0
	}

	subjYear := b.sideYear(ctx, subj, event.SubjID, event.OccurredAt)
	objYear := b.sideYear(ctx, obj, event.ObjID, event.OccurredAt)
	if subjYear > objYear {
		return subjYear
	}
	return objYear
}

// stringValues wraps a metadata value into a string slice. Accepts a bare
// string, a list of strings, or anything JSON decoding produced for either.
func stringValues(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := []string{}
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// mapValues wraps a metadata value into a slice of objects. Accepts a single
// object or a list of objects.
func mapValues(value any) []map[string]any {
	switch v := value.(type) {
	case map[string]any:
		return []map[string]any{v}
	case []any:
		out := []map[string]any{}
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case []map[string]any:
		return v
	default:
		return nil
	}
}

func (b *Builder) sideYear(ctx context.Context, meta models.Metadata, id string, occurredAt time.Time) int {
	for _, key := range []string{"datePublished", "date_published"} {
		if date, ok := meta[key].(string); ok && len(date) >= 4 {
			if year, err := strconv.Atoi(date[:4]); err == nil {
				return year
			}
		}
	}

	if b.years != nil {
		if year, err := b.years.PublicationYear(ctx, id); err == nil && year != 0 {
			return year
		}
	}

	if ym := yearMonth(occurredAt); len(ym) >= 4 {
		if year, err := strconv.Atoi(ym[:4]); err == nil {
			return year
		}
	}
	return 0
}
