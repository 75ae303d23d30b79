package session

import (
	"fmt"
	"strconv"
)

// Cart maps a medicine id (decimal string) to the wanted quantity.
type Cart map[string]int

// MaxQuantity bounds a single cart entry.
const MaxQuantity = 10000

func CartKey(medicineID uint) string {
	return strconv.FormatUint(uint64(medicineID), 10)
}

func (c Cart) Add(medicineID uint, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	k := CartKey(medicineID)
	if quantity > MaxQuantity-c[k] {
		return fmt.Errorf("quantity for medicine %d would exceed %d", medicineID, MaxQuantity)
	}
	c[k] += quantity
	return nil
}

// Remove reports whether the entry existed.
func (c Cart) Remove(medicineID uint) bool {
	k := CartKey(medicineID)
	if _, ok := c[k]; !ok {
		return false
	}
	delete(c, k)
	return true
}
