package repo

import (
	"context"

	"github.com/curepoint/pharmacy/internal/models"
)

func (r *GormRepo) ListBranches(ctx context.Context) ([]models.Branch, error) {
	var branches []models.Branch
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

func (r *GormRepo) CreateBranch(ctx context.Context, b *models.Branch) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

func (r *GormRepo) GetBranch(ctx context.Context, id uint) (*models.Branch, error) {
	var b models.Branch
	if err := r.DB.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}
