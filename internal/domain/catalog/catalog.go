// Package catalog exposes the product catalog used to price BxGy free items
// that are not already in the cart.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrUnknownPrice is returned when no catalog price exists for a product.
// The engine never invents a price: a BxGy grant for an unknown product is a
// typed failure, not a zero-priced line.
var ErrUnknownPrice = errors.New("unknown product price")

// Product is a catalog entry.
type Product struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// PriceResolver supplies unit prices for products absent from a cart.
type PriceResolver interface {
	// UnitPrice returns the catalog unit price for the given product,
	// or ErrUnknownPrice when the product is not in the catalog.
	UnitPrice(ctx context.Context, productID int64) (decimal.Decimal, error)
}

// Repository defines catalog persistence. Upsert exists for seeding.
type Repository interface {
	PriceResolver
	List(ctx context.Context) ([]Product, error)
	Upsert(ctx context.Context, p Product) error
}
