package indexing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacite/events/pkg/search"
)

type fakeIndexer struct {
	err  error
	docs map[string]any
}

func (f *fakeIndexer) Index(_ context.Context, documentID string, document any) error {
	if f.err != nil {
		return f.err
	}
	if f.docs == nil {
		f.docs = map[string]any{}
	}
	f.docs[documentID] = document
	return nil
}

func (f *fakeIndexer) Ping(_ context.Context) error { return nil }

type fakeMarker struct {
	marked []string
}

func (f *fakeMarker) MarkIndexed(_ context.Context, uuid string, _ time.Time) error {
	f.marked = append(f.marked, uuid)
	return nil
}

func newTestDispatcher(indexer search.Indexer, marker IndexedMarker) *Dispatcher {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewDispatcher(NewBuilder(nil), indexer, marker, logger)
}

func TestDispatch_IndexesAndMarks(t *testing.T) {
	indexer := &fakeIndexer{}
	marker := &fakeMarker{}
	d := newTestDispatcher(indexer, marker)

	event := testEvent()
	d.Dispatch(context.Background(), event)

	require.Contains(t, indexer.docs, event.UUID)
	doc, ok := indexer.docs[event.UUID].(*Document)
	require.True(t, ok)
	assert.Equal(t, event.UUID, doc.UUID)
	assert.Equal(t, []string{event.UUID}, marker.marked)
}

func TestDispatch_RejectionDoesNotMark(t *testing.T) {
	indexer := &fakeIndexer{err: &search.RejectionError{StatusCode: 400, Body: "mapper_parsing_exception"}}
	marker := &fakeMarker{}
	d := newTestDispatcher(indexer, marker)

	// Must not panic or propagate; the ingest path goes on without indexing.
	d.Dispatch(context.Background(), testEvent())
	assert.Empty(t, marker.marked)
}

func TestDispatch_TransportErrorDoesNotMark(t *testing.T) {
	indexer := &fakeIndexer{err: errors.New("connection reset")}
	marker := &fakeMarker{}
	d := newTestDispatcher(indexer, marker)

	d.Dispatch(context.Background(), testEvent())
	assert.Empty(t, marker.marked)
}
