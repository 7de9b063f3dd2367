package esindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"

	"github.com/oksasatya/trainboard/internal/domain/entity"
	"github.com/oksasatya/trainboard/internal/domain/repository"
)

const requestTimeout = 3 * time.Second

// keyword fields so wildcard queries match the whole value, not analyzed tokens
const trainMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "long"},
      "name":        {"type": "keyword"},
      "origin":      {"type": "keyword"},
      "destination": {"type": "keyword"},
      "departure":   {"type": "date"},
      "arrival":     {"type": "date"},
      "userId":      {"type": "long"},
      "createdAt":   {"type": "date"},
      "updatedAt":   {"type": "date"}
    }
  }
}`

// TrainIndex mirrors trains into an Elasticsearch index and serves substring search from it.
type TrainIndex struct {
	ES        *elasticsearch.Client
	IndexName string
}

func NewTrainIndex(es *elasticsearch.Client, index string) *TrainIndex {
	return &TrainIndex{ES: es, IndexName: index}
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (x *TrainIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := esapi.IndicesExistsRequest{Index: []string{x.IndexName}}.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("es index exists: %w", err)
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{Index: x.IndexName, Body: strings.NewReader(trainMapping)}.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("es create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es create index: %s", res.Status())
	}
	return nil
}

func (x *TrainIndex) Index(ctx context.Context, t *entity.Train) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := esapi.IndexRequest{Index: x.IndexName, DocumentID: docID(t.ID), Body: bytes.NewReader(b), Refresh: "true"}
	res, err := req.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("es index train %d: %w", t.ID, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index train %d: %s", t.ID, res.Status())
	}
	return nil
}

func (x *TrainIndex) Remove(ctx context.Context, id int64) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := esapi.DeleteRequest{Index: x.IndexName, DocumentID: docID(id), Refresh: "true"}.Do(c, x.ES)
	if err != nil {
		return fmt.Errorf("es delete train %d: %w", id, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es delete train %d: %s", id, res.Status())
	}
	return nil
}

// Reindex bulk-writes every given train into the index, overwriting documents with the same id.
func (x *TrainIndex) Reindex(ctx context.Context, trains []*entity.Train) error {
	if len(trains) == 0 {
		return nil
	}
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        x.ES,
		Index:         x.IndexName,
		Refresh:       "true",
		NumWorkers:    1,
		FlushInterval: requestTimeout,
	})
	if err != nil {
		return fmt.Errorf("es bulk indexer: %w", err)
	}

	for _, t := range trains {
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: docID(t.ID),
			Body:       bytes.NewReader(b),
		})
		if err != nil {
			_ = bi.Close(ctx)
			return fmt.Errorf("es bulk add train %d: %w", t.ID, err)
		}
	}
	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("es bulk close: %w", err)
	}
	if st := bi.Stats(); st.NumFailed > 0 {
		return fmt.Errorf("es reindex: %d of %d documents failed", st.NumFailed, st.NumAdded)
	}
	return nil
}

// Search runs a case-insensitive wildcard match on name, origin and destination.
func (x *TrainIndex) Search(ctx context.Context, q entity.TrainSearch) ([]*entity.Train, error) {
	b, err := json.Marshal(buildSearchQuery(q))
	if err != nil {
		return nil, err
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.ES.Search(
		x.ES.Search.WithContext(c),
		x.ES.Search.WithIndex(x.IndexName),
		x.ES.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, fmt.Errorf("es search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("es search: %s: %s", res.Status(), msg)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source entity.Train `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("es search decode: %w", err)
	}

	out := make([]*entity.Train, 0, len(parsed.Hits.Hits))
	for i := range parsed.Hits.Hits {
		t := parsed.Hits.Hits[i].Source
		out = append(out, &t)
	}
	return out, nil
}

func buildSearchQuery(q entity.TrainSearch) map[string]any {
	pattern := "*" + escapeWildcard(q.Query) + "*"
	should := make([]any, 0, 3)
	for _, field := range []string{"name", "origin", "destination"} {
		should = append(should, map[string]any{
			"wildcard": map[string]any{
				field: map[string]any{"value": pattern, "case_insensitive": true},
			},
		})
	}
	boolQ := map[string]any{
		"should":               should,
		"minimum_should_match": 1,
	}
	if q.OwnerID != nil {
		boolQ["filter"] = []any{map[string]any{"term": map[string]any{"userId": *q.OwnerID}}}
	}
	return map[string]any{
		"query": map[string]any{"bool": boolQ},
		"from":  q.Offset,
		"size":  q.Limit,
		"sort":  []any{map[string]any{"id": "asc"}},
	}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}

func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}

var _ repository.TrainIndexer = (*TrainIndex)(nil)
