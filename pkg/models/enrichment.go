package models

import (
	"time"

	"github.com/datacite/events/pkg/database"
)

// Enrichment actions describe how an enriched value is applied to a DOI
// metadata field.
const (
	EnrichmentActionInsert      = "insert"
	EnrichmentActionUpdate      = "update"
	EnrichmentActionUpdateChild = "update_child"
	EnrichmentActionDeleteChild = "delete_child"
)

// Enrichment is a curated correction or addition to the metadata of a
// registered DOI, applied as an overlay when the DOI is served.
type Enrichment struct {
	ID            int64                `json:"id" db:"id"`
	DOI           string               `json:"doi" db:"doi" validate:"required"`
	Field         string               `json:"field" db:"field" validate:"required"`
	Action        string               `json:"action" db:"action" validate:"required,oneof=insert update update_child delete_child"`
	OriginalValue database.JSONB[any] `json:"original_value" db:"original_value"`
	EnrichedValue database.JSONB[any] `json:"enriched_value" db:"enriched_value"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
