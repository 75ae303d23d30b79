package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/curepoint/pharmacy/internal/models"
	"github.com/curepoint/pharmacy/internal/repo"
	"github.com/curepoint/pharmacy/internal/transport"
	"github.com/curepoint/pharmacy/pkg/logging"
	"gorm.io/gorm"
)

type CatalogService struct {
	Repo *repo.GormRepo
	// Index is optional; without it search runs in SQL.
	Index  MedicineIndex
	Events Publisher
}

func (s *CatalogService) GetMedicine(ctx context.Context, id uint) (*models.Medicine, error) {
	med, err := s.Repo.GetMedicine(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("medicine %d: %w", id, ErrNotFound)
	}
	return med, err
}

func (s *CatalogService) ListMedicines(ctx context.Context, offset, limit int) (int64, []models.Medicine, error) {
	return s.Repo.ListMedicines(ctx, offset, limit)
}

// Search matches q as a case-insensitive substring of medicine names. The
// index is tried first when set; the SQL search answers whenever the index
// errors, has no hits or names medicines the database no longer has.
func (s *CatalogService) Search(ctx context.Context, q string, offset, limit int) (int64, []models.Medicine, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, []models.Medicine{}, nil
	}

	if s.Index != nil {
		if total, items, ok := s.searchIndex(ctx, q, offset, limit); ok {
			return total, items, nil
		}
	}
	return s.Repo.SearchMedicines(ctx, q, offset, limit)
}

func (s *CatalogService) searchIndex(ctx context.Context, q string, offset, limit int) (int64, []models.Medicine, bool) {
	l := logging.FromContext(ctx)

	total, ids, err := s.Index.Search(ctx, q, offset, limit)
	if err != nil {
		l.Warn("search_index_fallback", "reason", "index error", "error", err)
		return 0, nil, false
	}
	if total == 0 {
		l.Debug("search_index_fallback", "reason", "no hits")
		return 0, nil, false
	}

	live, err := s.Repo.MedicinesByIDs(ctx, ids)
	if err != nil {
		l.Warn("search_index_fallback", "reason", "load hits", "error", err)
		return 0, nil, false
	}
	items := make([]models.Medicine, 0, len(ids))
	for _, id := range ids {
		med, ok := live[id]
		if !ok {
			l.Warn("search_index_fallback", "reason", "stale hit", "medicine_id", id)
			return 0, nil, false
		}
		items = append(items, med)
	}
	return total, items, true
}

const reindexBatch = 500

// Reindex copies the whole catalog into the search index and reports how many
// medicines were written.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, nil
	}

	written := 0
	for offset := 0; ; offset += reindexBatch {
		_, items, err := s.Repo.ListMedicines(ctx, offset, reindexBatch)
		if err != nil {
			return written, fmt.Errorf("reindex: %w", err)
		}
		if err := s.Index.IndexAll(ctx, items); err != nil {
			return written, fmt.Errorf("reindex: %w", err)
		}
		written += len(items)
		if len(items) < reindexBatch {
			return written, nil
		}
	}
}

func (s *CatalogService) ByCategory(ctx context.Context, categoryID uint, offset, limit int) (*models.MedicineCategory, int64, []models.Medicine, error) {
	cat, err := s.Repo.GetCategory(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, nil, fmt.Errorf("category %d: %w", categoryID, ErrNotFound)
		}
		return nil, 0, nil, err
	}

	total, items, err := s.Repo.MedicinesByCategory(ctx, categoryID, offset, limit)
	if err != nil {
		return nil, 0, nil, err
	}
	return cat, total, items, nil
}

func (s *CatalogService) CreateMedicine(ctx context.Context, req transport.CreateMedicineRequest) (*models.Medicine, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name required: %w", ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("price must be >= 0: %w", ErrValidation)
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	med, err := s.Repo.CreateMedicine(ctx, &models.Medicine{
		Name:         name,
		CategoryID:   req.CategoryID,
		Manufacturer: strings.TrimSpace(req.Manufacturer),
		Price:        req.Price,
	})
	if err != nil {
		return nil, err
	}

	s.mirror(ctx, med)
	s.publish(ctx, "medicine_created", med.ID, med.Name)
	return med, nil
}

func (s *CatalogService) PatchMedicine(ctx context.Context, req transport.PatchMedicineRequest, id uint) (*models.Medicine, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("name must not be empty: %w", ErrValidation)
	}
	if req.Price != nil && req.Price.IsNegative() {
		return nil, fmt.Errorf("price must be >= 0: %w", ErrValidation)
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	med, err := s.Repo.PatchMedicine(ctx, req, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("medicine %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	s.mirror(ctx, med)
	s.publish(ctx, "medicine_updated", med.ID, med.Name)
	return med, nil
}

func (s *CatalogService) DeleteMedicine(ctx context.Context, id uint) error {
	err := s.Repo.DeleteMedicine(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("medicine %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}

	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			logging.FromContext(ctx).Error("search_index_delete_error", "medicine_id", id, "error", err)
		}
	}
	s.publish(ctx, "medicine_deleted", id, "")
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.MedicineCategory, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.CategoryRequest) (*models.MedicineCategory, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name required: %w", ErrValidation)
	}
	cat := &models.MedicineCategory{Name: name, Details: strings.TrimSpace(req.Details)}
	if err := s.Repo.CreateCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *CatalogService) PatchCategory(ctx context.Context, req transport.PatchCategoryRequest, id uint) (*models.MedicineCategory, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("name must not be empty: %w", ErrValidation)
	}

	cat, err := s.Repo.GetCategory(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		cat.Name = strings.TrimSpace(*req.Name)
	}
	if req.Details != nil {
		cat.Details = strings.TrimSpace(*req.Details)
	}
	if err := s.Repo.SaveCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	inUse, err := s.Repo.DeleteCategory(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("category %d still has medicines: %w", id, ErrConflict)
	}
	return nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.Repo.GetCategory(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("category %d does not exist: %w", *id, ErrValidation)
		}
		return err
	}
	return nil
}

// mirror copies med into the search index. Failures are logged; the database
// stays the source of truth.
func (s *CatalogService) mirror(ctx context.Context, med *models.Medicine) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, *med); err != nil {
		logging.FromContext(ctx).Error("search_index_error", "medicine_id", med.ID, "error", err)
	}
}

func (s *CatalogService) publish(ctx context.Context, typ string, id uint, name string) {
	event := map[string]any{
		"type":        typ,
		"medicine_id": id,
	}
	if name != "" {
		event["name"] = name
	}
	publish(ctx, s.Events, logging.FromContext(ctx), TopicMedicineEvents, strconv.FormatUint(uint64(id), 10), event)
}
