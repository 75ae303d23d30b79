package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/curepoint/pharmacy/internal/models"
	"gorm.io/gorm"
)

var errNoLines = errors.New("no lines to persist")

// OrderDraft is a priced checkout ready to be written.
type OrderDraft struct {
	CustomerID      uint
	BranchID        uint
	EmployeeID      uint
	DeliveryAddress string
	PaymentMethod   string
	At              time.Time
	Items           []models.LineItem
}

// CreateOnlineOrder writes one sale detail per item and the order header in
// a single transaction. The header points at the first detail and every detail
// carries the header id. Nothing is kept if any statement fails.
func (r *GormRepo) CreateOnlineOrder(ctx context.Context, d OrderDraft) (*models.OnlineOrder, []models.SaleDetail, error) {
	if len(d.Items) == 0 {
		return nil, nil, errNoLines
	}

	var order models.OnlineOrder
	var details []models.SaleDetail

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		details = make([]models.SaleDetail, 0, len(d.Items))
		for _, item := range d.Items {
			sd := newSaleDetail(item, d.At, d.BranchID, d.CustomerID, d.EmployeeID, d.PaymentMethod)
			if err := tx.Create(&sd).Error; err != nil {
				return fmt.Errorf("insert sale detail for medicine %d: %w", item.MedicineID, err)
			}
			details = append(details, sd)
		}

		order = models.OnlineOrder{
			CustomerID:      d.CustomerID,
			SaleDetailID:    details[0].ID,
			OrderDate:       d.At,
			DeliveryAddress: d.DeliveryAddress,
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("insert online order: %w", err)
		}

		ids := make([]uint, len(details))
		for i := range details {
			ids[i] = details[i].ID
			details[i].OrderID = &order.ID
		}
		if err := tx.Model(&models.SaleDetail{}).Where("id IN ?", ids).Update("order_id", order.ID).Error; err != nil {
			return fmt.Errorf("link sale details to order %d: %w", order.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &order, details, nil
}

// SaleDraft is an in-store sale ready to be written.
type SaleDraft struct {
	CustomerID    uint
	BranchID      uint
	EmployeeID    uint
	PaymentMethod string
	At            time.Time
	Items         []models.LineItem
}

// CreateSale allocates the next sale id and writes every line under it in one
// transaction.
func (r *GormRepo) CreateSale(ctx context.Context, d SaleDraft) (uint, []models.SaleDetail, error) {
	if len(d.Items) == 0 {
		return 0, nil, errNoLines
	}

	var saleID uint
	var details []models.SaleDetail

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last uint
		if err := tx.Model(&models.SaleDetail{}).Select("COALESCE(MAX(sale_id), 0)").Scan(&last).Error; err != nil {
			return fmt.Errorf("next sale id: %w", err)
		}
		saleID = last + 1

		details = make([]models.SaleDetail, 0, len(d.Items))
		for _, item := range d.Items {
			sd := newSaleDetail(item, d.At, d.BranchID, d.CustomerID, d.EmployeeID, d.PaymentMethod)
			sd.SaleID = &saleID
			if err := tx.Create(&sd).Error; err != nil {
				return fmt.Errorf("insert sale detail for medicine %d: %w", item.MedicineID, err)
			}
			details = append(details, sd)
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return saleID, details, nil
}

func newSaleDetail(item models.LineItem, at time.Time, branchID, customerID, employeeID uint, payment string) models.SaleDetail {
	return models.SaleDetail{
		SaleDate:      at,
		BranchID:      branchID,
		CustomerID:    customerID,
		EmployeeID:    employeeID,
		MedicineID:    item.MedicineID,
		UnitPrice:     item.UnitPrice,
		Quantity:      item.Quantity,
		TotalAmount:   item.Subtotal,
		PaymentMethod: payment,
	}
}
