package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"tenancy-workflow/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticsearchSink mirrors audit events into a search index for the
// operations dashboards.
type ElasticsearchSink struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchSink(client *elasticsearch.Client, index string) *ElasticsearchSink {
	return &ElasticsearchSink{client: client, index: index}
}

func (s *ElasticsearchSink) Name() string { return "elasticsearch" }

func (s *ElasticsearchSink) Write(ctx context.Context, ev models.AuditEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: ev.ID,
		Body:       bytes.NewReader(body),
		OpType:     "create",
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("index audit event: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index audit event failed: %s", res.String())
	}
	return nil
}
