package search

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/curepoint/pharmacy/internal/models"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	body   []byte
}

type reply struct {
	status int
	body   string
}

type fakeCluster struct {
	mu    sync.Mutex
	calls []recorded
}

func (f *fakeCluster) Calls() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.calls...)
}

// newFakeES answers every request with route(method, path).
func newFakeES(t *testing.T, route func(method, path string) reply) (*MedicineIndex, *fakeCluster) {
	t.Helper()
	fc := &fakeCluster{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fc.mu.Lock()
		fc.calls = append(fc.calls, recorded{method: r.Method, path: r.URL.Path, body: body})
		fc.mu.Unlock()

		rep := route(r.Method, r.URL.Path)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rep.status)
		_, _ = io.WriteString(w, rep.body)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return &MedicineIndex{ES: client, IndexName: "medicines"}, fc
}

func fixed(status int, body string) func(string, string) reply {
	return func(string, string) reply { return reply{status: status, body: body} }
}

func TestSearchQueriesNameSubstring(t *testing.T) {
	idx, fc := newFakeES(t, fixed(http.StatusOK, `{
		"hits": {
			"total": {"value": 2},
			"hits": [
				{"_source": {"id": 10}},
				{"_source": {"id": 11}}
			]
		}
	}`))

	total, ids, err := idx.Search(context.Background(), "Ceti*", 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []uint{10, 11}, ids)

	calls := fc.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/medicines/_search", calls[0].path)

	var q map[string]any
	require.NoError(t, json.Unmarshal(calls[0].body, &q))
	query := q["query"].(map[string]any)
	assert.NotContains(t, query, "multi_match")
	name := query["wildcard"].(map[string]any)["name"].(map[string]any)
	assert.Equal(t, `*Ceti\**`, name["value"])
	assert.Equal(t, true, name["case_insensitive"])
	assert.Equal(t, []any{"id"}, q["_source"])
}

func TestSearchEmptyIndex(t *testing.T) {
	idx, _ := newFakeES(t, fixed(http.StatusOK, `{"hits":{"total":{"value":0},"hits":[]}}`))

	total, ids, err := idx.Search(context.Background(), "tiriz", 0, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, ids)
}

func TestSearchSurfacesErrorStatus(t *testing.T) {
	idx, _ := newFakeES(t, fixed(http.StatusServiceUnavailable, `{"error":"down"}`))

	_, _, err := idx.Search(context.Background(), "x", 0, 20)
	require.Error(t, err)
}

func TestEnsureIndexCreatesMissingIndex(t *testing.T) {
	idx, fc := newFakeES(t, func(method, _ string) reply {
		if method == http.MethodHead {
			return reply{status: http.StatusNotFound}
		}
		return reply{status: http.StatusOK, body: `{"acknowledged":true}`}
	})

	require.NoError(t, idx.EnsureIndex(context.Background()))

	calls := fc.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodPut, calls[1].method)
	assert.Equal(t, "/medicines", calls[1].path)

	var body map[string]any
	require.NoError(t, json.Unmarshal(calls[1].body, &body))
	props := body["mappings"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, "keyword", props["name"].(map[string]any)["type"])
}

func TestEnsureIndexKeepsExistingIndex(t *testing.T) {
	idx, fc := newFakeES(t, fixed(http.StatusOK, ""))

	require.NoError(t, idx.EnsureIndex(context.Background()))
	require.Len(t, fc.Calls(), 1)
	assert.Equal(t, http.MethodHead, fc.Calls()[0].method)
}

func TestIndexUsesMedicineID(t *testing.T) {
	idx, fc := newFakeES(t, fixed(http.StatusCreated, `{"result":"created"}`))

	err := idx.Index(context.Background(), models.Medicine{ID: 7, Name: "Ibuprofen"})
	require.NoError(t, err)

	calls := fc.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPut, calls[0].method)
	assert.Equal(t, "/medicines/_doc/7", calls[0].path)

	var doc document
	require.NoError(t, json.Unmarshal(calls[0].body, &doc))
	assert.Equal(t, "Ibuprofen", doc.Name)
}

func TestIndexAllSendsOneBulkRequest(t *testing.T) {
	idx, fc := newFakeES(t, fixed(http.StatusOK, `{"errors":false,"items":[]}`))

	meds := []models.Medicine{{ID: 1, Name: "Aspirin"}, {ID: 2, Name: "Cetirizine"}}
	require.NoError(t, idx.IndexAll(context.Background(), meds))

	calls := fc.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/medicines/_bulk", calls[0].path)

	var lines []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(calls[0].body))
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 4)
	assert.Equal(t, "2", lines[2]["index"].(map[string]any)["_id"])
	assert.Equal(t, "Cetirizine", lines[3]["name"])

	require.NoError(t, idx.IndexAll(context.Background(), nil))
	assert.Len(t, fc.Calls(), 1, "nothing to send")
}

func TestIndexAllReportsRejectedDocuments(t *testing.T) {
	idx, _ := newFakeES(t, fixed(http.StatusOK, `{"errors":true,"items":[]}`))

	err := idx.IndexAll(context.Background(), []models.Medicine{{ID: 1, Name: "Aspirin"}})
	require.Error(t, err)
}

func TestDeleteIgnoresMissingDocument(t *testing.T) {
	idx, fc := newFakeES(t, fixed(http.StatusNotFound, `{"result":"not_found"}`))

	require.NoError(t, idx.Delete(context.Background(), 9))
	calls := fc.Calls()
	assert.Equal(t, http.MethodDelete, calls[0].method)
	assert.Equal(t, "/medicines/_doc/9", calls[0].path)
}
