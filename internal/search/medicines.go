// Package search mirrors medicine names into Elasticsearch and answers
// case-insensitive substring queries against them. The index only yields ids;
// callers load the rows themselves.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/curepoint/pharmacy/internal/models"
	"github.com/elastic/go-elasticsearch/v9"
)

type MedicineIndex struct {
	ES        *elasticsearch.Client
	IndexName string
}

type document struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	CategoryID   *uint  `json:"category_id,omitempty"`
}

func toDocument(m models.Medicine) document {
	return document{
		ID:           m.ID,
		Name:         m.Name,
		Manufacturer: m.Manufacturer,
		CategoryID:   m.CategoryID,
	}
}

// name is a keyword so a wildcard matches anywhere in the whole name.
var indexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":           map[string]any{"type": "long"},
			"name":         map[string]any{"type": "keyword"},
			"manufacturer": map[string]any{"type": "text"},
			"category_id":  map[string]any{"type": "long"},
		},
	},
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func searchBody(query string, from, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"wildcard": map[string]any{
				"name": map[string]any{
					"value":            "*" + wildcardEscaper.Replace(query) + "*",
					"case_insensitive": true,
				},
			},
		},
		"_source":          []string{"id"},
		"track_total_hits": true,
		"sort":             []any{map[string]any{"id": "asc"}},
		"from":             from,
		"size":             size,
	}
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (x *MedicineIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.ES.Indices.Exists([]string{x.IndexName}, x.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("ensure index: %s", res.Status())
	}

	body, err := json.Marshal(indexMapping)
	if err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	res, err = x.ES.Indices.Create(
		x.IndexName,
		x.ES.Indices.Create.WithContext(ctx),
		x.ES.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return fmt.Errorf("ensure index: create: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("ensure index: create: %s: %s", res.Status(), msg)
	}
	return nil
}

// Search returns the total match count and the ids of one page, ascending.
func (x *MedicineIndex) Search(ctx context.Context, query string, from, size int) (int64, []uint, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchBody(query, from, size)); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := x.ES.Search(
		x.ES.Search.WithContext(ctx),
		x.ES.Search.WithIndex(x.IndexName),
		x.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return 0, nil, fmt.Errorf("search: %s: %s", res.Status(), body)
	}

	return decodeHits(res.Body)
}

func decodeHits(r io.Reader) (int64, []uint, error) {
	var out struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source struct {
					ID uint `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return 0, nil, fmt.Errorf("search: decode: %w", err)
	}

	ids := make([]uint, len(out.Hits.Hits))
	for i, h := range out.Hits.Hits {
		ids[i] = h.Source.ID
	}
	return out.Hits.Total.Value, ids, nil
}

func (x *MedicineIndex) Index(ctx context.Context, m models.Medicine) error {
	body, err := json.Marshal(toDocument(m))
	if err != nil {
		return fmt.Errorf("index medicine %d: %w", m.ID, err)
	}

	res, err := x.ES.Index(
		x.IndexName,
		bytes.NewReader(body),
		x.ES.Index.WithContext(ctx),
		x.ES.Index.WithDocumentID(strconv.FormatUint(uint64(m.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index medicine %d: %w", m.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index medicine %d: %s", m.ID, res.Status())
	}
	return nil
}

// IndexAll writes meds in one bulk request, replacing existing documents.
func (x *MedicineIndex) IndexAll(ctx context.Context, meds []models.Medicine) error {
	if len(meds) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, m := range meds {
		action := map[string]any{"index": map[string]any{"_id": strconv.FormatUint(uint64(m.ID), 10)}}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("bulk index: %w", err)
		}
		if err := enc.Encode(toDocument(m)); err != nil {
			return fmt.Errorf("bulk index: %w", err)
		}
	}

	res, err := x.ES.Bulk(
		&buf,
		x.ES.Bulk.WithContext(ctx),
		x.ES.Bulk.WithIndex(x.IndexName),
	)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("bulk index: %s: %s", res.Status(), body)
	}

	var out struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return fmt.Errorf("bulk index: decode: %w", err)
	}
	if out.Errors {
		return fmt.Errorf("bulk index: some of %d documents were rejected", len(meds))
	}
	return nil
}

func (x *MedicineIndex) Delete(ctx context.Context, id uint) error {
	res, err := x.ES.Delete(
		x.IndexName,
		strconv.FormatUint(uint64(id), 10),
		x.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete medicine %d: %w", id, err)
	}
	defer res.Body.Close()
	// 404 means the document was never indexed.
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete medicine %d: %s", id, res.Status())
	}
	return nil
}
