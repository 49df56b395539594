package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
)

type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// ElasticsearchSink indexes each lead as a flattened document, using the
// lead id as the document id.
type ElasticsearchSink struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchSink(cfg ElasticsearchConfig) (*ElasticsearchSink, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	index := cfg.Index
	if index == "" {
		index = "leads"
	}
	return &ElasticsearchSink{client: es, index: index}, nil
}

func (*ElasticsearchSink) Name() string { return "elasticsearch" }

func (e *ElasticsearchSink) Record(ctx context.Context, lead Lead) Outcome {
	body, err := json.Marshal(lead.Document())
	if err != nil {
		return failed(fmt.Errorf("encode lead: %w", err))
	}

	res, err := e.client.Index(
		e.index,
		bytes.NewReader(body),
		e.client.Index.WithDocumentID(lead.ID),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return failed(fmt.Errorf("index lead: %w", err))
	}
	defer res.Body.Close()

	if res.IsError() {
		return failed(fmt.Errorf("elasticsearch index error: %s", res.Status()))
	}

	var out struct {
		ID string `json:"_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil || out.ID == "" {
		return stored(lead.ID)
	}
	return stored(out.ID)
}
