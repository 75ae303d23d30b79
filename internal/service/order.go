package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/curepoint/pharmacy/internal/models"
	"github.com/curepoint/pharmacy/internal/repo"
	"github.com/curepoint/pharmacy/internal/session"
	"github.com/curepoint/pharmacy/internal/transport"
	"github.com/curepoint/pharmacy/pkg/logging"
	"github.com/shopspring/decimal"
)

const DefaultPaymentMethod = "Cash"

type OrderService struct {
	Repo   *repo.GormRepo
	Carts  *CartService
	Events Publisher

	// Self-service checkouts are booked against this branch and employee.
	OnlineBranchID   uint
	OnlineEmployeeID uint

	Now func() time.Time
}

type OrderInput struct {
	CustomerID      uint
	DeliveryAddress string
	PaymentMethod   string
	Items           []models.LineItem
}

type PlacedOrder struct {
	Order   models.OnlineOrder
	Details []models.SaleDetail
	Total   decimal.Decimal
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Commit persists in atomically: one sale detail per item plus the order
// header. Invalid input is rejected before any statement runs.
func (s *OrderService) Commit(ctx context.Context, in OrderInput) (*PlacedOrder, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if in.CustomerID == 0 {
		return nil, fmt.Errorf("customer required: %w", ErrValidation)
	}
	address := strings.TrimSpace(in.DeliveryAddress)
	if address == "" {
		return nil, fmt.Errorf("delivery address required: %w", ErrValidation)
	}
	payment := strings.TrimSpace(in.PaymentMethod)
	if payment == "" {
		payment = DefaultPaymentMethod
	}

	total := decimal.Zero
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("quantity for medicine %d must be > 0: %w", item.MedicineID, ErrValidation)
		}
		if item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("price for medicine %d must be >= 0: %w", item.MedicineID, ErrValidation)
		}
		total = total.Add(item.Subtotal)
	}

	order, details, err := s.Repo.CreateOnlineOrder(ctx, repo.OrderDraft{
		CustomerID:      in.CustomerID,
		BranchID:        s.OnlineBranchID,
		EmployeeID:      s.OnlineEmployeeID,
		DeliveryAddress: address,
		PaymentMethod:   payment,
		At:              s.now(),
		Items:           in.Items,
	})
	if err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}

	placed := &PlacedOrder{Order: *order, Details: details, Total: total}
	s.publishPlaced(ctx, placed)
	return placed, nil
}

// Checkout prices the session cart at current catalog prices and commits it.
// The cart is emptied only when the commit succeeds; the caller saves sess.
func (s *OrderService) Checkout(ctx context.Context, sess *session.Session, customerID uint, req transport.CheckoutRequest) (*PlacedOrder, error) {
	items, _, err := s.Carts.Resolve(ctx, sess.Cart())
	if err != nil {
		return nil, err
	}

	placed, err := s.Commit(ctx, OrderInput{
		CustomerID:      customerID,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		Items:           items,
	})
	if err != nil {
		return nil, err
	}

	sess.ClearCart()
	return placed, nil
}

func (s *OrderService) publishPlaced(ctx context.Context, p *PlacedOrder) {
	ids := make([]uint, len(p.Details))
	for i, d := range p.Details {
		ids[i] = d.ID
	}
	publish(ctx, s.Events, logging.FromContext(ctx), TopicOrderEvents, strconv.FormatUint(uint64(p.Order.ID), 10), map[string]any{
		"type":            "order_placed",
		"order_id":        p.Order.ID,
		"customer_id":     p.Order.CustomerID,
		"sale_detail_ids": ids,
		"total":           p.Total,
	})
}

// CustomerOrders groups the customer's order lines by order, newest first.
func (s *OrderService) CustomerOrders(ctx context.Context, customerID uint) ([]transport.OrderSummary, error) {
	lines, err := s.Repo.CustomerOrderLines(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	orders := make([]transport.OrderSummary, 0)
	for _, line := range lines {
		if n := len(orders); n == 0 || orders[n-1].OrderID != line.OrderID {
			orders = append(orders, transport.OrderSummary{
				OrderID:         line.OrderID,
				OrderDate:       line.OrderDate,
				DeliveryAddress: line.DeliveryAddress,
				Total:           decimal.Zero,
			})
		}
		cur := &orders[len(orders)-1]
		cur.Lines = append(cur.Lines, line)
		cur.Total = cur.Total.Add(line.TotalAmount)
	}
	return orders, nil
}

func (s *OrderService) OnlineOrders(ctx context.Context, offset, limit int) ([]transport.OnlineOrderRow, error) {
	rows, err := s.Repo.OnlineOrderRows(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("load online orders: %w", err)
	}
	return rows, nil
}
