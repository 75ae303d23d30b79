package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/curepoint/pharmacy/internal/models"
	"github.com/curepoint/pharmacy/internal/search"
	"github.com/curepoint/pharmacy/internal/testdb"
	"github.com/curepoint/pharmacy/internal/transport"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	searchErr error
	hits      []uint
	indexed   []uint
	batches   [][]uint
	deleted   []uint
}

func (f *fakeIndex) Search(_ context.Context, _ string, _, _ int) (int64, []uint, error) {
	if f.searchErr != nil {
		return 0, nil, f.searchErr
	}
	return int64(len(f.hits)), f.hits, nil
}

func (f *fakeIndex) Index(_ context.Context, m models.Medicine) error {
	f.indexed = append(f.indexed, m.ID)
	return nil
}

func (f *fakeIndex) IndexAll(_ context.Context, meds []models.Medicine) error {
	batch := make([]uint, len(meds))
	for i, m := range meds {
		batch[i] = m.ID
	}
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, id uint) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func TestSearchSubstringCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testdb.Medicine(t, env.DB, 1, "Paracetamol 500mg", "3.50")
	testdb.Medicine(t, env.DB, 2, "Ibuprofen", "2.00")
	testdb.Medicine(t, env.DB, 3, "PARACETAMOL syrup", "6.00")
	testdb.Medicine(t, env.DB, 4, "100% Zinc", "1.00")

	total, items, err := env.Catalog.Search(ctx, "cetam", 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, uint(1), items[0].ID)
	assert.Equal(t, uint(3), items[1].ID)

	total, _, err = env.Catalog.Search(ctx, "%", 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total, "wildcards in the query are literal")

	total, items, err = env.Catalog.Search(ctx, "   ", 0, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestSearchLoadsIndexHitsFromDatabase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testdb.Medicine(t, env.DB, 1, "Paracetamol", "3.50")
	testdb.Medicine(t, env.DB, 2, "Paracetamol Forte", "5.00")
	env.Catalog.Index = &fakeIndex{hits: []uint{2}}

	total, items, err := env.Catalog.Search(ctx, "para", 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total, "index answer wins when it is consistent")
	require.Len(t, items, 1)
	assert.Equal(t, "Paracetamol Forte", items[0].Name)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("5.00")))
}

func TestSearchFallsBackToSQL(t *testing.T) {
	cases := []struct {
		name string
		idx  *fakeIndex
	}{
		{"index error", &fakeIndex{searchErr: errors.New("cluster red")}},
		{"no hits", &fakeIndex{}},
		{"stale hit", &fakeIndex{hits: []uint{42}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			testdb.Medicine(t, env.DB, 1, "Cetirizine", "4.10")
			env.Catalog.Index = tc.idx

			total, items, err := env.Catalog.Search(context.Background(), "tiriz", 0, 20)
			require.NoError(t, err)
			assert.EqualValues(t, 1, total)
			require.Len(t, items, 1)
			assert.Equal(t, uint(1), items[0].ID)
		})
	}
}

func TestSearchWithEmptyElasticsearchIndex(t *testing.T) {
	env := newTestEnv(t)
	testdb.Medicine(t, env.DB, 1, "Cetirizine", "4.10")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":0},"hits":[]}}`)
	}))
	t.Cleanup(srv.Close)
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	env.Catalog.Index = &search.MedicineIndex{ES: client, IndexName: "medicines"}

	total, items, err := env.Catalog.Search(context.Background(), "tiriz", 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Cetirizine", items[0].Name)
}

func TestReindexCopiesCatalogInBatches(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for id := uint(1); id <= reindexBatch+2; id++ {
		testdb.Medicine(t, env.DB, id, fmt.Sprintf("Medicine %d", id), "1.00")
	}

	n, err := env.Catalog.Reindex(ctx)
	require.NoError(t, err, "no index configured")
	assert.Zero(t, n)

	idx := &fakeIndex{}
	env.Catalog.Index = idx
	n, err = env.Catalog.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, reindexBatch+2, n)
	require.Len(t, idx.batches, 2)
	assert.Len(t, idx.batches[0], reindexBatch)
	assert.Equal(t, []uint{reindexBatch + 1, reindexBatch + 2}, idx.batches[1])
}

func TestByCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat := models.MedicineCategory{Name: "Analgesics"}
	require.NoError(t, env.Repo.CreateCategory(ctx, &cat))
	med, err := env.Catalog.CreateMedicine(ctx, transport.CreateMedicineRequest{Name: "Aspirin", CategoryID: &cat.ID, Price: decimal.RequireFromString("1.25")})
	require.NoError(t, err)
	testdb.Medicine(t, env.DB, 50, "Loose", "1.00")

	got, total, items, err := env.Catalog.ByCategory(ctx, cat.ID, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, "Analgesics", got.Name)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, med.ID, items[0].ID)

	_, _, _, err = env.Catalog.ByCategory(ctx, 999, 0, 20)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCatalogMaintenanceMirrorsIndex(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	idx := &fakeIndex{}
	env.Catalog.Index = idx

	med, err := env.Catalog.CreateMedicine(ctx, transport.CreateMedicineRequest{Name: " Aspirin ", Price: decimal.RequireFromString("1.25")})
	require.NoError(t, err)
	assert.Equal(t, "Aspirin", med.Name)

	price := decimal.RequireFromString("1.50")
	patched, err := env.Catalog.PatchMedicine(ctx, transport.PatchMedicineRequest{Price: &price}, med.ID)
	require.NoError(t, err)
	assert.True(t, patched.Price.Equal(price))
	assert.Equal(t, "Aspirin", patched.Name)

	require.NoError(t, env.Catalog.DeleteMedicine(ctx, med.ID))
	_, err = env.Catalog.GetMedicine(ctx, med.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Equal(t, []uint{med.ID, med.ID}, idx.indexed)
	assert.Equal(t, []uint{med.ID}, idx.deleted)

	var types []any
	for _, e := range env.Events.Events() {
		assert.Equal(t, TopicMedicineEvents, e.Topic)
		types = append(types, e.Event["type"])
	}
	assert.Equal(t, []any{"medicine_created", "medicine_updated", "medicine_deleted"}, types)
}

func TestCatalogMaintenanceRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Catalog.CreateMedicine(ctx, transport.CreateMedicineRequest{Name: "", Price: decimal.RequireFromString("1")})
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = env.Catalog.CreateMedicine(ctx, transport.CreateMedicineRequest{Name: "X", Price: decimal.RequireFromString("-1")})
	assert.True(t, errors.Is(err, ErrValidation))

	missing := uint(12)
	_, err = env.Catalog.CreateMedicine(ctx, transport.CreateMedicineRequest{Name: "X", CategoryID: &missing, Price: decimal.RequireFromString("1")})
	assert.True(t, errors.Is(err, ErrValidation))

	name := "Y"
	_, err = env.Catalog.PatchMedicine(ctx, transport.PatchMedicineRequest{Name: &name}, 404)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.True(t, errors.Is(env.Catalog.DeleteMedicine(ctx, 404), ErrNotFound))
}

func TestCategoryMaintenance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Catalog.CreateCategory(ctx, transport.CategoryRequest{Name: "  "})
	assert.True(t, errors.Is(err, ErrValidation))

	cat, err := env.Catalog.CreateCategory(ctx, transport.CategoryRequest{Name: " Antihistamines ", Details: "allergy"})
	require.NoError(t, err)
	assert.Equal(t, "Antihistamines", cat.Name)

	details := "allergy relief"
	patched, err := env.Catalog.PatchCategory(ctx, transport.PatchCategoryRequest{Details: &details}, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Antihistamines", patched.Name)
	assert.Equal(t, "allergy relief", patched.Details)

	empty := ""
	_, err = env.Catalog.PatchCategory(ctx, transport.PatchCategoryRequest{Name: &empty}, cat.ID)
	assert.True(t, errors.Is(err, ErrValidation))
	_, err = env.Catalog.PatchCategory(ctx, transport.PatchCategoryRequest{Details: &details}, 999)
	assert.True(t, errors.Is(err, ErrNotFound))

	med, err := env.Catalog.CreateMedicine(ctx, transport.CreateMedicineRequest{Name: "Cetirizine", CategoryID: &cat.ID, Price: decimal.RequireFromString("4.10")})
	require.NoError(t, err)

	err = env.Catalog.DeleteCategory(ctx, cat.ID)
	assert.True(t, errors.Is(err, ErrConflict), "category still has medicines")

	require.NoError(t, env.Catalog.DeleteMedicine(ctx, med.ID))
	require.NoError(t, env.Catalog.DeleteCategory(ctx, cat.ID))
	assert.True(t, errors.Is(env.Catalog.DeleteCategory(ctx, cat.ID), ErrNotFound))

	cats, err := env.Catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

