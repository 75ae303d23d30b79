package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/curepoint/pharmacy/internal/models"
	"github.com/curepoint/pharmacy/internal/repo"
	"github.com/curepoint/pharmacy/internal/session"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CartService struct {
	Repo *repo.GormRepo
}

// Aggregate prices cart against catalog. Entries whose key is not a medicine
// id, or whose medicine is missing from catalog, are dropped. Items come back
// in ascending medicine id order.
func Aggregate(cart session.Cart, catalog map[uint]models.Medicine) ([]models.LineItem, decimal.Decimal) {
	ids := cartIDs(cart)
	items := make([]models.LineItem, 0, len(ids))
	total := decimal.Zero

	for _, id := range ids {
		med, ok := catalog[id]
		if !ok {
			continue
		}
		item := models.NewLineItem(med, cart[session.CartKey(id)])
		items = append(items, item)
		total = total.Add(item.Subtotal)
	}
	return items, total
}

// cartIDs returns the parseable ids of cart, sorted ascending.
func cartIDs(cart session.Cart) []uint {
	ids := make([]uint, 0, len(cart))
	for k := range cart {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil || id == 0 || session.CartKey(uint(id)) != k {
			continue
		}
		ids = append(ids, uint(id))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Resolve loads current prices for the cart's medicines and aggregates.
func (s *CartService) Resolve(ctx context.Context, cart session.Cart) ([]models.LineItem, decimal.Decimal, error) {
	catalog, err := s.Repo.MedicinesByIDs(ctx, cartIDs(cart))
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("load cart medicines: %w", err)
	}
	items, total := Aggregate(cart, catalog)
	return items, total, nil
}

func (s *CartService) Add(ctx context.Context, sess *session.Session, medicineID uint, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be more than zero: %w", ErrValidation)
	}
	if _, err := s.Repo.GetMedicine(ctx, medicineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("medicine %d: %w", medicineID, ErrNotFound)
		}
		return err
	}

	cart := sess.Cart()
	if err := cart.Add(medicineID, quantity); err != nil {
		return fmt.Errorf("%v: %w", err, ErrValidation)
	}
	sess.SetCart(cart)
	return nil
}

func (s *CartService) Remove(sess *session.Session, medicineID uint) error {
	cart := sess.Cart()
	if !cart.Remove(medicineID) {
		return fmt.Errorf("medicine %d not in cart: %w", medicineID, ErrNotFound)
	}
	sess.SetCart(cart)
	return nil
}
