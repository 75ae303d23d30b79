package models

import "github.com/shopspring/decimal"

// LineItem is a cart entry priced against the current catalog. It is never stored.
type LineItem struct {
	MedicineID uint            `json:"medicine_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

func NewLineItem(m Medicine, quantity int) LineItem {
	return LineItem{
		MedicineID: m.ID,
		Name:       m.Name,
		UnitPrice:  m.Price,
		Quantity:   quantity,
		Subtotal:   m.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}
