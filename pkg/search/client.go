// Package search wraps the OpenSearch client used for the events index.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Gobusters/ectologger"
	opensearch "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/pkg/errors"

	"github.com/datacite/events/pkg/tracing"
)

// Config holds search index connection settings
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// Indexer submits documents to the search index.
type Indexer interface {
	Index(ctx context.Context, documentID string, document any) error
	Ping(ctx context.Context) error
}

// Client is the OpenSearch-backed Indexer.
type Client struct {
	client *opensearch.Client
	index  string
	logger ectologger.Logger
}

// NewClient creates a new search client and verifies connectivity.
func NewClient(ctx context.Context, cfg Config, logger ectologger.Logger) (*Client, error) {
	osClient, err := opensearch.NewClient(opensearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create search client")
	}

	client := &Client{
		client: osClient,
		index:  cfg.Index,
		logger: logger,
	}

	if err := client.Ping(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to reach search cluster")
	}

	return client, nil
}

// Index writes one document, replacing any previous version with the same id.
func (c *Client) Index(ctx context.Context, documentID string, document any) error {
	ctx, span := tracing.StartSpan(ctx, "search.Client.Index")
	defer span.End()

	body, err := json.Marshal(document)
	if err != nil {
		return errors.Wrap(err, "failed to marshal document")
	}

	req := opensearchapi.IndexRequest{
		Index:      c.index,
		DocumentID: documentID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "index request failed")
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return &RejectionError{StatusCode: res.StatusCode, Body: string(msg)}
	}

	return nil
}

// Ping checks cluster reachability.
func (c *Client) Ping(ctx context.Context) error {
	req := opensearchapi.PingRequest{}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("search cluster returned status %d", res.StatusCode)
	}
	return nil
}

// RejectionError reports a non-success response from the search cluster.
// It distinguishes mapping rejections from transport failures.
type RejectionError struct {
	StatusCode int
	Body       string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("search index rejected document with status %d: %s", e.StatusCode, e.Body)
}
