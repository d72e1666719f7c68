package kafka

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/datacite/events/pkg/models"
)

// IncomingMessage wraps a raw Kafka message with parsed headers
type IncomingMessage struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
	Timestamp time.Time
	Topic     string

	// Parsed content
	Attributes *models.EventAttributes
}

// ParseEventMessage parses the message value as an event envelope. The
// payload shape is {"data": {"type": "events", "attributes": {...}}}.
func (m *IncomingMessage) ParseEventMessage() error {
	var envelope models.MessageEnvelope
	if err := json.Unmarshal(m.Value, &envelope); err != nil {
		return errors.Wrap(err, "failed to unmarshal event envelope")
	}
	if envelope.Data == nil || envelope.Data.Attributes == nil {
		return errors.New("event envelope has no data.attributes")
	}
	m.Attributes = envelope.Data.Attributes
	return nil
}

// GetSourceID returns the reporting source for metrics labels. Safe before
// parsing.
func (m *IncomingMessage) GetSourceID() string {
	if m.Attributes != nil {
		return m.Attributes.SourceID
	}
	return m.Headers["source_id"]
}
