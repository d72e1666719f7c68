package indexing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacite/events/pkg/database"
	"github.com/datacite/events/pkg/models"
)

type fakeYearLookup struct {
	years map[string]int
}

func (f *fakeYearLookup) PublicationYear(_ context.Context, doi string) (int, error) {
	return f.years[doi], nil
}

func testEvent() *models.Event {
	occurred := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	updated := time.Date(2024, 3, 16, 8, 0, 0, 0, time.UTC)
	return &models.Event{
		UUID:                 "36804ab9-5cc2-48b9-89f3-9b7771dba2af",
		SubjID:               "https://doi.org/10.5281/zenodo.1239",
		ObjID:                "https://doi.org/10.1371/journal.pbio.2001414",
		SourceID:             "datacite-crossref",
		SourceToken:          "token-1",
		RelationTypeID:       "cites",
		Total:                1,
		License:              models.DefaultLicense,
		MessageAction:        "create",
		SourceDOI:            "10.5281/ZENODO.1239",
		TargetDOI:            "10.1371/JOURNAL.PBIO.2001414",
		SourceRelationTypeID: "references",
		TargetRelationTypeID: "citations",
		OccurredAt:           occurred,
		IndexedAt:            models.EpochSentinel,
		CreatedAt:            occurred,
		UpdatedAt:            updated,
	}
}

func TestBuild_AggregatesIdentifiers(t *testing.T) {
	event := testEvent()
	event.Subj = database.JSONB[models.Metadata]{Data: models.Metadata{
		"@type":            "Dataset",
		"proxyIdentifiers": []any{"10.5281/zenodo.1239", "not-a-doi"},
		"funder": []any{
			map[string]any{"@id": "https://doi.org/10.13039/501100000780"},
		},
		"author": []any{
			map[string]any{"@id": "https://orcid.org/0000-0003-1419-2405"},
			map[string]any{"name": "no orcid"},
		},
		"periodical": map[string]any{"issn": "2167-8359"},
	}}
	event.Obj = database.JSONB[models.Metadata]{Data: models.Metadata{
		"@type": "ScholarlyArticle",
	}}

	builder := NewBuilder(nil)
	doc := builder.Build(context.Background(), event)

	// Duplicates are preserved: the proxy identifier repeats the subj DOI.
	assert.Equal(t, []string{
		"10.5281/zenodo.1239",
		"10.13039/501100000780",
		"10.5281/zenodo.1239",
		"10.1371/journal.pbio.2001414",
	}, doc.DOI)

	assert.Equal(t, []string{"0000-0003-1419-2405"}, doc.ORCID)
	assert.Equal(t, []string{"2167-8359"}, doc.ISSN)

	require.Len(t, doc.Prefix, 1)
	assert.Equal(t, []string{"10.5281", "10.13039", "10.5281", "10.1371"}, doc.Prefix[0])

	assert.Equal(t, []string{"Dataset", "ScholarlyArticle"}, doc.Subtype)
	assert.Equal(t, "Dataset-ScholarlyArticle", doc.CitationType)
}

func TestBuild_CitationTypeBlankForCreativeWork(t *testing.T) {
	event := testEvent()
	event.Subj = database.JSONB[models.Metadata]{Data: models.Metadata{"@type": "CreativeWork"}}
	event.Obj = database.JSONB[models.Metadata]{Data: models.Metadata{"@type": "Dataset"}}

	doc := NewBuilder(nil).Build(context.Background(), event)
	assert.Empty(t, doc.CitationType)
}

func TestBuild_UsageEventFields(t *testing.T) {
	event := testEvent()
	event.RelationTypeID = "total-dataset-requests-regular"

	doc := NewBuilder(nil).Build(context.Background(), event)

	assert.Equal(t, "regular", doc.AccessMethod)
	assert.Equal(t, "total-dataset-requests", doc.MetricType)
	// Usage relations are not citations.
	assert.Equal(t, 0, doc.CitationYear)
}

func TestBuild_NonUsageEventHasNoAccessMethod(t *testing.T) {
	doc := NewBuilder(nil).Build(context.Background(), testEvent())
	assert.Empty(t, doc.AccessMethod)
	assert.Empty(t, doc.MetricType)
}

func TestBuild_CitationIDIsSymmetric(t *testing.T) {
	event := testEvent()
	doc := NewBuilder(nil).Build(context.Background(), event)

	flipped := testEvent()
	flipped.SubjID, flipped.ObjID = event.ObjID, event.SubjID
	flippedDoc := NewBuilder(nil).Build(context.Background(), flipped)

	assert.Equal(t, doc.CitationID, flippedDoc.CitationID)
	assert.Equal(t,
		"https://doi.org/10.1371/journal.pbio.2001414-https://doi.org/10.5281/zenodo.1239",
		doc.CitationID)
}

func TestBuild_CitationYearTakesMaxOfSides(t *testing.T) {
	event := testEvent()
	event.Subj = database.JSONB[models.Metadata]{Data: models.Metadata{
		"datePublished": "2020-06-01",
	}}
	event.Obj = database.JSONB[models.Metadata]{Data: models.Metadata{
		"date_published": "2023",
	}}

	doc := NewBuilder(nil).Build(context.Background(), event)
	assert.Equal(t, 2023, doc.CitationYear)
}

func TestBuild_CitationYearFallsBackToLookupThenOccurredAt(t *testing.T) {
	event := testEvent()
	lookup := &fakeYearLookup{years: map[string]int{
		"https://doi.org/10.5281/zenodo.1239": 2019,
	}}

	doc := NewBuilder(lookup).Build(context.Background(), event)
	// Subj resolves via lookup to 2019; obj falls back to the event year 2024.
	assert.Equal(t, 2024, doc.CitationYear)

	lookup.years["https://doi.org/10.1371/journal.pbio.2001414"] = 2025
	doc = NewBuilder(lookup).Build(context.Background(), event)
	assert.Equal(t, 2025, doc.CitationYear)
}

func TestBuild_CacheKeys(t *testing.T) {
	event := testEvent()
	event.Subj = database.JSONB[models.Metadata]{Data: models.Metadata{
		"dateModified": "2025-01-01T00:00:00Z",
	}}

	builder := NewBuilder(nil)
	builder.now = func() time.Time { return time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC) }
	doc := builder.Build(context.Background(), event)

	assert.Equal(t, "events/36804ab9-5cc2-48b9-89f3-9b7771dba2af-2024-03-16T08:00:00Z", doc.CacheKey)
	assert.Equal(t, "objects/https://doi.org/10.5281/zenodo.1239-2025-01-01T00:00:00Z", doc.SubjCacheKey)
	// Without dateModified the obj side stamps the current time.
	assert.Equal(t, "objects/https://doi.org/10.1371/journal.pbio.2001414-2025-02-01T00:00:00Z", doc.ObjCacheKey)

	assert.Equal(t, doc.SubjCacheKey, doc.Subj["cache_key"])
	assert.Equal(t, doc.ObjCacheKey, doc.Obj["cache_key"])

	// Without updated_at the event key stamps the current time too.
	event.UpdatedAt = time.Time{}
	doc = builder.Build(context.Background(), event)
	assert.Equal(t, "events/36804ab9-5cc2-48b9-89f3-9b7771dba2af-2025-02-01T00:00:00Z", doc.CacheKey)
}

func TestBuild_YearMonth(t *testing.T) {
	doc := NewBuilder(nil).Build(context.Background(), testEvent())
	assert.Equal(t, "2024-03", doc.YearMonth)
}
