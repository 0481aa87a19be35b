// Package cart holds the in-memory shopping cart model shared by the
// discount engine and the HTTP layer.
package cart

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidItem is returned when a cart line violates the item invariants
// (non-positive product ID or quantity, negative price).
var ErrInvalidItem = errors.New("invalid cart item")

// Item represents a single line in a shopping cart.
type Item struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Subtotal returns price * quantity for this line.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Validate checks the line item invariants.
func (i Item) Validate() error {
	switch {
	case i.ProductID <= 0:
		return errors.Wrapf(ErrInvalidItem, "product id %d must be positive", i.ProductID)
	case i.Quantity <= 0:
		return errors.Wrapf(ErrInvalidItem, "product %d: quantity must be greater than 0", i.ProductID)
	case i.Price.IsNegative():
		return errors.Wrapf(ErrInvalidItem, "product %d: price must not be negative", i.ProductID)
	}
	return nil
}

// Cart is an ordered sequence of line items. The engine requires at most one
// line per product ID; Normalize establishes that invariant for caller input.
type Cart struct {
	Items []Item
}

// Validate checks every line item and returns the first violation found.
func (c Cart) Validate() error {
	for _, item := range c.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Total returns the sum of line subtotals. It is always recomputed from the
// items, never cached.
func (c Cart) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.Subtotal())
	}
	return sum
}

// Find returns the line for the given product ID, if present.
func (c Cart) Find(productID int64) (Item, bool) {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return Item{}, false
}

// Normalize returns a copy of the cart with duplicate product lines merged:
// quantities are summed onto the first occurrence, which keeps its position
// and unit price. The receiver is not modified.
func (c Cart) Normalize() Cart {
	merged := make([]Item, 0, len(c.Items))
	index := make(map[int64]int, len(c.Items))

	for _, item := range c.Items {
		if at, ok := index[item.ProductID]; ok {
			merged[at].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}

	return Cart{Items: merged}
}
