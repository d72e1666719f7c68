// Package models defines the citation event entity and its queue envelope.
package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/datacite/events/pkg/database"
	"github.com/datacite/events/pkg/identifiers"
	"github.com/datacite/events/pkg/relations"
)

// DefaultLicense is applied when a message carries no license.
const DefaultLicense = "https://creativecommons.org/publicdomain/zero/1.0/"

// DefaultRelationType is applied when a message carries no relation type.
const DefaultRelationType = "references"

// EpochSentinel marks an event that has never been written to the search
// index.
var EpochSentinel = time.Unix(0, 0).UTC()

// Metadata is the semi-structured subj/obj payload describing one endpoint
// of the relation. Its schema varies by source and is not enumerable.
type Metadata map[string]any

// Event is one reported relationship between two scholarly identifiers from
// one source. The natural key is (subj_id, obj_id, source_id,
// relation_type_id); uuid is globally unique and immutable once set.
type Event struct {
	ID             int64  `json:"-" db:"id"`
	UUID           string `json:"uuid" db:"uuid" validate:"required,uuid"`
	SubjID         string `json:"subj_id" db:"subj_id" validate:"required"`
	ObjID          string `json:"obj_id" db:"obj_id" validate:"required"`
	SourceID       string `json:"source_id" db:"source_id" validate:"required"`
	SourceToken    string `json:"source_token" db:"source_token" validate:"required"`
	RelationTypeID string `json:"relation_type_id" db:"relation_type_id" validate:"required"`
	Total          int    `json:"total" db:"total" validate:"gt=0"`
	License        string `json:"license" db:"license"`
	MessageAction  string `json:"message_action" db:"message_action"`
	ErrorMessages  string `json:"error_messages" db:"error_messages"`

	Subj database.JSONB[Metadata] `json:"subj" db:"subj"`
	Obj  database.JSONB[Metadata] `json:"obj" db:"obj"`

	// Canonical fields computed from the relation type rule table.
	SourceDOI            string `json:"source_doi" db:"source_doi"`
	TargetDOI            string `json:"target_doi" db:"target_doi"`
	SourceRelationTypeID string `json:"source_relation_type_id" db:"source_relation_type_id"`
	TargetRelationTypeID string `json:"target_relation_type_id" db:"target_relation_type_id"`

	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
	IndexedAt  time.Time `json:"indexed_at" db:"indexed_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// SubjMetadata returns the subj payload, never nil.
func (e *Event) SubjMetadata() Metadata {
	if e.Subj.Data == nil {
		return Metadata{}
	}
	return e.Subj.Data
}

// ObjMetadata returns the obj payload, never nil.
func (e *Event) ObjMetadata() Metadata {
	if e.Obj.Data == nil {
		return Metadata{}
	}
	return e.Obj.Data
}

// SetCanonicalFields computes the direction-normalized source/target fields.
// A no-op when subj_id or obj_id is empty or the relation type is unknown;
// in that case the fields keep their previous values.
func (e *Event) SetCanonicalFields() {
	c := relations.Canonicalize(e.SubjID, e.ObjID, e.RelationTypeID)
	if c == (relations.Canonical{}) {
		return
	}
	e.SourceDOI = c.SourceDOI
	e.TargetDOI = c.TargetDOI
	e.SourceRelationTypeID = c.SourceRelationTypeID
	e.TargetRelationTypeID = c.TargetRelationTypeID
}

// MessageEnvelope is the queue message shape: {"data": {"type": ...,
// "attributes": {...}}}. A missing data or data.attributes means the message
// is dropped.
type MessageEnvelope struct {
	Data *MessageData `json:"data"`
}

// MessageData is the typed body of the envelope.
type MessageData struct {
	Type       string           `json:"type"`
	Attributes *EventAttributes `json:"attributes"`
}

// EventAttributes is the wire form of an event. The wire uses camelCase; the
// entity uses snake_case. This struct is the rename boundary.
type EventAttributes struct {
	UUID           string   `json:"uuid"`
	SubjID         string   `json:"subjId"`
	ObjID          string   `json:"objId"`
	SourceID       string   `json:"sourceId"`
	SourceToken    string   `json:"sourceToken"`
	RelationTypeID string   `json:"relationTypeId"`
	Total          *int     `json:"total"`
	OccurredAt     string   `json:"occurredAt"`
	MessageAction  string   `json:"messageAction"`
	Subj           Metadata `json:"subj"`
	Obj            Metadata `json:"obj"`
	License        string   `json:"license"`
}

// NewEventFromMessage constructs an event from a queue message, applying the
// field defaults for anything the message leaves out.
func NewEventFromMessage(attrs *EventAttributes, now time.Time) *Event {
	event := &Event{
		UUID:           attrs.UUID,
		SubjID:         normalizeOrRaw(attrs.SubjID),
		ObjID:          normalizeOrRaw(attrs.ObjID),
		SourceID:       attrs.SourceID,
		SourceToken:    attrs.SourceToken,
		RelationTypeID: attrs.RelationTypeID,
		Total:          1,
		License:        attrs.License,
		MessageAction:  attrs.MessageAction,
		Subj:           database.JSONB[Metadata]{Data: attrs.Subj},
		Obj:            database.JSONB[Metadata]{Data: attrs.Obj},
		OccurredAt:     parseOccurredAt(attrs.OccurredAt, now),
		IndexedAt:      EpochSentinel,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if event.UUID == "" {
		event.UUID = uuid.NewString()
	}
	if event.RelationTypeID == "" {
		event.RelationTypeID = DefaultRelationType
	}
	if attrs.Total != nil {
		event.Total = *attrs.Total
	}
	if event.License == "" {
		event.License = DefaultLicense
	}
	if event.MessageAction == "" {
		event.MessageAction = "create"
	}
	if event.Subj.Data == nil {
		event.Subj.Data = Metadata{}
	}
	if event.Obj.Data == nil {
		event.Obj.Data = Metadata{}
	}

	event.SetCanonicalFields()
	return event
}

// ApplyMessage performs the partial overwrite: only fields present and
// non-empty in the message replace existing values. The uuid is immutable
// once set and created_at never changes.
func (e *Event) ApplyMessage(attrs *EventAttributes, now time.Time) {
	if attrs.SourceID != "" {
		e.SourceID = attrs.SourceID
	}
	if attrs.SourceToken != "" {
		e.SourceToken = attrs.SourceToken
	}
	if attrs.Total != nil {
		e.Total = *attrs.Total
	}
	if attrs.OccurredAt != "" {
		e.OccurredAt = parseOccurredAt(attrs.OccurredAt, e.OccurredAt)
	}
	if attrs.RelationTypeID != "" {
		e.RelationTypeID = attrs.RelationTypeID
	}
	if len(attrs.Subj) > 0 {
		e.Subj = database.JSONB[Metadata]{Data: attrs.Subj}
	}
	if len(attrs.Obj) > 0 {
		e.Obj = database.JSONB[Metadata]{Data: attrs.Obj}
	}
	if attrs.License != "" {
		e.License = attrs.License
	}
	if attrs.SubjID != "" {
		e.SubjID = normalizeOrRaw(attrs.SubjID)
	}
	if attrs.ObjID != "" {
		e.ObjID = normalizeOrRaw(attrs.ObjID)
	}

	e.UpdatedAt = now
	e.SetCanonicalFields()
}

// normalizeOrRaw canonicalizes a DOI-shaped identifier and passes anything
// else (URLs, usage report ids) through unchanged.
func normalizeOrRaw(id string) string {
	if normalized, ok := identifiers.NormalizeDOI(id); ok {
		return normalized
	}
	return id
}

var occurredAtLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseOccurredAt(raw string, fallback time.Time) time.Time {
	for _, layout := range occurredAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return fallback
}
