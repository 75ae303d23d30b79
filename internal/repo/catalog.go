package repo

import (
	"context"
	"strings"

	"github.com/curepoint/pharmacy/internal/models"
	"github.com/curepoint/pharmacy/internal/transport"
	"gorm.io/gorm"
)

func (r *GormRepo) GetMedicine(ctx context.Context, id uint) (*models.Medicine, error) {
	var med models.Medicine
	if err := r.DB.WithContext(ctx).Preload("Category").First(&med, id).Error; err != nil {
		return nil, err
	}
	return &med, nil
}

// MedicinesByIDs returns the medicines found among ids, keyed by id. Unknown
// ids are absent from the map.
func (r *GormRepo) MedicinesByIDs(ctx context.Context, ids []uint) (map[uint]models.Medicine, error) {
	out := make(map[uint]models.Medicine, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var meds []models.Medicine
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&meds).Error; err != nil {
		return nil, err
	}
	for _, m := range meds {
		out[m.ID] = m
	}
	return out, nil
}

func (r *GormRepo) ListMedicines(ctx context.Context, offset, limit int) (int64, []models.Medicine, error) {
	return r.pageMedicines(r.DB.WithContext(ctx).Model(&models.Medicine{}), offset, limit)
}

// SearchMedicines matches q as a case-insensitive substring of the name.
func (r *GormRepo) SearchMedicines(ctx context.Context, q string, offset, limit int) (int64, []models.Medicine, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	query := r.DB.WithContext(ctx).Model(&models.Medicine{}).Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern)
	return r.pageMedicines(query, offset, limit)
}

func (r *GormRepo) MedicinesByCategory(ctx context.Context, categoryID uint, offset, limit int) (int64, []models.Medicine, error) {
	query := r.DB.WithContext(ctx).Model(&models.Medicine{}).Where("category_id = ?", categoryID)
	return r.pageMedicines(query, offset, limit)
}

func (r *GormRepo) pageMedicines(q *gorm.DB, offset, limit int) (int64, []models.Medicine, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Medicine, 0, limit)
	if err := q.Session(&gorm.Session{}).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uint) (*models.MedicineCategory, error) {
	var cat models.MedicineCategory
	if err := r.DB.WithContext(ctx).First(&cat, id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.MedicineCategory, error) {
	var cats []models.MedicineCategory
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, cat *models.MedicineCategory) error {
	return r.DB.WithContext(ctx).Create(cat).Error
}

func (r *GormRepo) SaveCategory(ctx context.Context, cat *models.MedicineCategory) error {
	return r.DB.WithContext(ctx).Save(cat).Error
}

// DeleteCategory removes a category without medicines. inUse reports one that
// still has some; nothing is deleted then.
func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) (inUse bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Medicine{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			inUse = true
			return nil
		}

		res := tx.Delete(&models.MedicineCategory{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return inUse, err
}

func (r *GormRepo) CreateMedicine(ctx context.Context, med *models.Medicine) (*models.Medicine, error) {
	if err := r.DB.WithContext(ctx).Create(med).Error; err != nil {
		return nil, err
	}
	return med, nil
}

func (r *GormRepo) PatchMedicine(ctx context.Context, req transport.PatchMedicineRequest, id uint) (*models.Medicine, error) {
	var med models.Medicine
	if err := r.DB.WithContext(ctx).First(&med, id).Error; err != nil {
		return nil, err
	}

	if req.Name != nil {
		med.Name = *req.Name
	}
	if req.CategoryID != nil {
		med.CategoryID = req.CategoryID
	}
	if req.Manufacturer != nil {
		med.Manufacturer = *req.Manufacturer
	}
	if req.Price != nil {
		med.Price = *req.Price
	}

	if err := r.DB.WithContext(ctx).Save(&med).Error; err != nil {
		return nil, err
	}
	return &med, nil
}

func (r *GormRepo) DeleteMedicine(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Medicine{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
