package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/curepoint/pharmacy/internal/models"
	"github.com/curepoint/pharmacy/internal/repo"
	"github.com/curepoint/pharmacy/internal/transport"
	"github.com/curepoint/pharmacy/pkg/logging"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SalesService struct {
	Repo   *repo.GormRepo
	Events Publisher
	Now    func() time.Time
}

type RecordedSale struct {
	SaleID  uint                `json:"sale_id"`
	Details []models.SaleDetail `json:"details"`
	Total   decimal.Decimal     `json:"total"`
}

// RecordSale books an in-store sale by employeeID at the employee's branch.
// Unit prices come from the catalog; every line shares a newly allocated sale id.
func (s *SalesService) RecordSale(ctx context.Context, employeeID uint, req transport.CreateSaleRequest) (*RecordedSale, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if len(req.Items) > transport.MaxSaleItems {
		return nil, fmt.Errorf("at most %d items per sale: %w", transport.MaxSaleItems, ErrValidation)
	}
	if req.CustomerID == 0 {
		return nil, fmt.Errorf("customer_id required: %w", ErrValidation)
	}

	ids := make([]uint, 0, len(req.Items))
	for _, it := range req.Items {
		if it.MedicineID == 0 {
			return nil, fmt.Errorf("medicine_id required: %w", ErrValidation)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("quantity for medicine %d must be > 0: %w", it.MedicineID, ErrValidation)
		}
		ids = append(ids, it.MedicineID)
	}

	employee, err := s.Repo.EmployeeByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("employee %d: %w", employeeID, ErrNotFound)
		}
		return nil, err
	}
	ok, err := s.Repo.CustomerExists(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", req.CustomerID, ErrNotFound)
	}

	catalog, err := s.Repo.MedicinesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load sale medicines: %w", err)
	}

	items := make([]models.LineItem, 0, len(req.Items))
	total := decimal.Zero
	for _, it := range req.Items {
		med, ok := catalog[it.MedicineID]
		if !ok {
			return nil, fmt.Errorf("medicine %d: %w", it.MedicineID, ErrNotFound)
		}
		item := models.NewLineItem(med, it.Quantity)
		items = append(items, item)
		total = total.Add(item.Subtotal)
	}

	payment := strings.TrimSpace(req.PaymentMethod)
	if payment == "" {
		payment = DefaultPaymentMethod
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}

	saleID, details, err := s.Repo.CreateSale(ctx, repo.SaleDraft{
		CustomerID:    req.CustomerID,
		BranchID:      employee.BranchID,
		EmployeeID:    employee.ID,
		PaymentMethod: payment,
		At:            now,
		Items:         items,
	})
	if err != nil {
		return nil, fmt.Errorf("record sale: %w", err)
	}

	publish(ctx, s.Events, logging.FromContext(ctx), TopicOrderEvents, strconv.FormatUint(uint64(saleID), 10), map[string]any{
		"type":        "sale_recorded",
		"sale_id":     saleID,
		"employee_id": employee.ID,
		"branch_id":   employee.BranchID,
		"total":       total,
	})
	return &RecordedSale{SaleID: saleID, Details: details, Total: total}, nil
}

// ListSales returns sales latest first, one group per sale id or order id.
func (s *SalesService) ListSales(ctx context.Context, offset, limit int) ([]transport.SaleGroup, error) {
	details, err := s.Repo.SaleDetailGroups(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	return GroupSales(details), nil
}

// GroupSales keeps the order in which each group first appears in details.
func GroupSales(details []models.SaleDetail) []transport.SaleGroup {
	groups := make([]transport.SaleGroup, 0)
	index := make(map[string]int)

	for _, d := range details {
		key, kind := "", transport.SaleKindInStore
		switch {
		case d.SaleID != nil:
			key = "s" + strconv.FormatUint(uint64(*d.SaleID), 10)
		case d.OrderID != nil:
			key, kind = "o"+strconv.FormatUint(uint64(*d.OrderID), 10), transport.SaleKindOnline
		default:
			key = "d" + strconv.FormatUint(uint64(d.ID), 10)
		}

		i, ok := index[key]
		if !ok {
			groups = append(groups, transport.SaleGroup{
				Kind:       kind,
				SaleID:     d.SaleID,
				OrderID:    d.OrderID,
				SaleDate:   d.SaleDate,
				BranchID:   d.BranchID,
				CustomerID: d.CustomerID,
				EmployeeID: d.EmployeeID,
				Total:      decimal.Zero,
			})
			i = len(groups) - 1
			index[key] = i
		}
		g := &groups[i]
		g.Lines = append(g.Lines, d)
		g.Total = g.Total.Add(d.TotalAmount)
	}
	return groups
}
