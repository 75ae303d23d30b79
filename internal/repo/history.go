package repo

import (
	"context"

	"github.com/curepoint/pharmacy/internal/models"
	"github.com/curepoint/pharmacy/internal/transport"
)

// CustomerOrderLines returns every line of the customer's online orders,
// newest order first.
func (r *GormRepo) CustomerOrderLines(ctx context.Context, customerID uint) ([]transport.OrderLine, error) {
	var lines []transport.OrderLine
	err := r.DB.WithContext(ctx).
		Table("sale_details AS sd").
		Select(`o.id AS order_id, o.order_date, o.delivery_address,
			sd.id AS sale_detail_id, sd.medicine_id, m.name AS medicine_name,
			sd.unit_price, sd.quantity, sd.total_amount, sd.payment_method`).
		Joins("JOIN online_orders AS o ON o.id = sd.order_id").
		Joins("LEFT JOIN medicines AS m ON m.id = sd.medicine_id").
		Where("o.customer_id = ?", customerID).
		Order("o.order_date DESC, o.id DESC, sd.id ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *GormRepo) OnlineOrderRows(ctx context.Context, offset, limit int) ([]transport.OnlineOrderRow, error) {
	rows := make([]transport.OnlineOrderRow, 0, limit)
	err := r.DB.WithContext(ctx).
		Table("online_orders AS o").
		Select(`o.id AS order_id, o.order_date, o.delivery_address,
			c.id AS customer_id, c.name AS customer_name, c.email AS customer_email,
			m.name AS medicine_name, sd.quantity, sd.total_amount`).
		Joins("JOIN sale_details AS sd ON sd.order_id = o.id").
		Joins("LEFT JOIN customers AS c ON c.id = o.customer_id").
		Joins("LEFT JOIN medicines AS m ON m.id = sd.medicine_id").
		Order("o.order_date DESC, o.id DESC, sd.id ASC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type saleKey struct {
	SaleID  *uint
	OrderID *uint
	LastID  uint
}

// SaleDetailGroups pages over sales (grouped by sale id or order id, latest
// first) and returns the detail rows of the selected groups.
func (r *GormRepo) SaleDetailGroups(ctx context.Context, offset, limit int) ([]models.SaleDetail, error) {
	var keys []saleKey
	err := r.DB.WithContext(ctx).
		Model(&models.SaleDetail{}).
		Select("sale_id, order_id, MAX(id) AS last_id").
		Group("sale_id, order_id").
		Order("last_id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&keys).Error
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	var saleIDs, orderIDs []uint
	for _, k := range keys {
		switch {
		case k.SaleID != nil:
			saleIDs = append(saleIDs, *k.SaleID)
		case k.OrderID != nil:
			orderIDs = append(orderIDs, *k.OrderID)
		}
	}

	q := r.DB.WithContext(ctx).Model(&models.SaleDetail{})
	switch {
	case len(saleIDs) > 0 && len(orderIDs) > 0:
		q = q.Where("sale_id IN ? OR order_id IN ?", saleIDs, orderIDs)
	case len(saleIDs) > 0:
		q = q.Where("sale_id IN ?", saleIDs)
	case len(orderIDs) > 0:
		q = q.Where("order_id IN ?", orderIDs)
	default:
		return nil, nil
	}

	var details []models.SaleDetail
	if err := q.Order("id DESC").Find(&details).Error; err != nil {
		return nil, err
	}
	return details, nil
}
