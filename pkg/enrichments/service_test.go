package enrichments

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datacite/events/pkg/database"
	"github.com/datacite/events/pkg/models"
)

func enrichment(field, action string, original, enriched any) *models.Enrichment {
	return &models.Enrichment{
		DOI:           "10.1234/example",
		Field:         field,
		Action:        action,
		OriginalValue: database.JSONB[any]{Data: original},
		EnrichedValue: database.JSONB[any]{Data: enriched},
	}
}

func TestApplyEnrichment_Insert(t *testing.T) {
	record := models.Metadata{"subjects": []any{"physics"}}
	applyEnrichment(record, enrichment("subjects", models.EnrichmentActionInsert, nil, "astrophysics"))
	assert.Equal(t, []any{"physics", "astrophysics"}, record["subjects"])

	// Missing field starts a new list.
	applyEnrichment(record, enrichment("keywords", models.EnrichmentActionInsert, nil, "galaxies"))
	assert.Equal(t, []any{"galaxies"}, record["keywords"])
}

func TestApplyEnrichment_Update(t *testing.T) {
	record := models.Metadata{"publisher": "Old Name"}
	applyEnrichment(record, enrichment("publisher", models.EnrichmentActionUpdate, nil, "New Name"))
	assert.Equal(t, "New Name", record["publisher"])
}

func TestApplyEnrichment_UpdateChildReplacesAllMatches(t *testing.T) {
	record := models.Metadata{"subjects": []any{"physic", "biology", "physic"}}
	applyEnrichment(record, enrichment("subjects", models.EnrichmentActionUpdateChild, "physic", "physics"))
	assert.Equal(t, []any{"physics", "biology", "physics"}, record["subjects"])
}

func TestApplyEnrichment_DeleteChildRemovesFirstMatch(t *testing.T) {
	record := models.Metadata{"subjects": []any{"spam", "biology", "spam"}}
	applyEnrichment(record, enrichment("subjects", models.EnrichmentActionDeleteChild, "spam", nil))
	assert.Equal(t, []any{"biology", "spam"}, record["subjects"])
}

func TestAppendEnrichmentRelationship(t *testing.T) {
	record := models.Metadata{}
	e := enrichment("subjects", models.EnrichmentActionInsert, nil, "physics")
	appendEnrichmentRelationship(record, e)
	appendEnrichmentRelationship(record, e)

	relationships := record["relationships"].(map[string]any)
	list := relationships["enrichments"].([]any)
	assert.Len(t, list, 2)
}
