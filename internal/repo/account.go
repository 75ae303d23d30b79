package repo

import (
	"context"
	"strings"

	"github.com/curepoint/pharmacy/internal/models"
)

func (r *GormRepo) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) CustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var c models.Customer
	if err := r.DB.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) CustomerExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) CreateEmployee(ctx context.Context, e *models.Employee) error {
	return r.DB.WithContext(ctx).Create(e).Error
}

func (r *GormRepo) EmployeeByID(ctx context.Context, id uint) (*models.Employee, error) {
	var e models.Employee
	if err := r.DB.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *GormRepo) EmployeeExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Employee{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
