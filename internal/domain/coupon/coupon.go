// Package coupon defines the coupon variant model and its storage contract.
package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind discriminates the supported coupon variants.
type Kind string

const (
	// KindCartWise discounts the whole cart once its total crosses a threshold.
	KindCartWise Kind = "cart-wise"
	// KindProductWise discounts a single product line.
	KindProductWise Kind = "product-wise"
	// KindBxGy grants free units of designated products after buying a
	// threshold quantity of other designated products.
	KindBxGy Kind = "bxgy"
)

// DiscountType enumerates how a discount value is interpreted.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
)

var (
	// ErrNotFound is returned when a coupon ID does not exist in storage.
	ErrNotFound = errors.New("coupon not found")
	// ErrMalformed is returned when coupon parameters violate the
	// documented invariants.
	ErrMalformed = errors.New("malformed coupon")
)

// CartWiseSpec parameterizes a cart-wise coupon.
type CartWiseSpec struct {
	Threshold    decimal.Decimal `json:"threshold"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountType DiscountType    `json:"discount_type"`
}

// ProductWiseSpec parameterizes a product-wise coupon.
type ProductWiseSpec struct {
	ProductID    int64           `json:"product_id"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountType DiscountType    `json:"discount_type"`
}

// BxGySpec parameterizes a "buy X get Y" coupon. Buying BuyQuantity units,
// aggregated across BuyProducts, grants GetQuantity free units distributed
// over GetProducts. RepetitionLimit caps how many times the deal repeats;
// zero means unbounded.
type BxGySpec struct {
	BuyProducts     []int64 `json:"buy_products"`
	BuyQuantity     int     `json:"buy_quantity"`
	GetProducts     []int64 `json:"get_products"`
	GetQuantity     int     `json:"get_quantity"`
	RepetitionLimit int     `json:"repetition_limit,omitempty"`
}

// Coupon is a tagged variant over the three coupon kinds. Exactly one of the
// spec pointers matching Kind is set. Coupons are immutable value objects for
// the duration of an evaluation; lifecycle belongs to the Repository.
type Coupon struct {
	ID     int64
	Kind   Kind
	Active bool

	CartWise    *CartWiseSpec
	ProductWise *ProductWiseSpec
	BxGy        *BxGySpec
}

// Validate checks that the coupon's parameters satisfy the documented
// invariants for its kind. All violations are reported as ErrMalformed.
func (c *Coupon) Validate() error {
	switch c.Kind {
	case KindCartWise:
		return c.validateCartWise()
	case KindProductWise:
		return c.validateProductWise()
	case KindBxGy:
		return c.validateBxGy()
	default:
		return errors.Wrapf(ErrMalformed, "unsupported coupon type: %q", c.Kind)
	}
}

func (c *Coupon) validateCartWise() error {
	s := c.CartWise
	if s == nil {
		return errors.Wrap(ErrMalformed, "cart-wise parameters missing")
	}
	if !s.Threshold.IsPositive() {
		return errors.Wrap(ErrMalformed, "threshold must be a positive number")
	}
	if !s.Discount.IsPositive() {
		return errors.Wrap(ErrMalformed, "discount must be a positive number")
	}
	return validateDiscountType(s.DiscountType)
}

func (c *Coupon) validateProductWise() error {
	s := c.ProductWise
	if s == nil {
		return errors.Wrap(ErrMalformed, "product-wise parameters missing")
	}
	if s.ProductID <= 0 {
		return errors.Wrap(ErrMalformed, "product_id must be a positive integer")
	}
	if !s.Discount.IsPositive() {
		return errors.Wrap(ErrMalformed, "discount must be a positive number")
	}
	return validateDiscountType(s.DiscountType)
}

func (c *Coupon) validateBxGy() error {
	s := c.BxGy
	if s == nil {
		return errors.Wrap(ErrMalformed, "bxgy parameters missing")
	}
	if len(s.BuyProducts) == 0 {
		return errors.Wrap(ErrMalformed, "buy_products must be a non-empty list")
	}
	if len(s.GetProducts) == 0 {
		return errors.Wrap(ErrMalformed, "get_products must be a non-empty list")
	}
	if s.BuyQuantity <= 0 {
		return errors.Wrap(ErrMalformed, "buy_quantity must be a positive integer")
	}
	if s.GetQuantity <= 0 {
		return errors.Wrap(ErrMalformed, "get_quantity must be a positive integer")
	}
	if s.RepetitionLimit < 0 {
		return errors.Wrap(ErrMalformed, "repetition_limit must not be negative")
	}
	if err := validateProductSet("buy_products", s.BuyProducts); err != nil {
		return err
	}
	return validateProductSet("get_products", s.GetProducts)
}

func validateProductSet(field string, ids []int64) error {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return errors.Wrapf(ErrMalformed, "product_id in %s must be a positive integer", field)
		}
		if _, ok := seen[id]; ok {
			return errors.Wrapf(ErrMalformed, "duplicate product %d in %s", id, field)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func validateDiscountType(t DiscountType) error {
	switch t {
	case DiscountPercentage, DiscountFixed:
		return nil
	default:
		return errors.Wrap(ErrMalformed, "discount_type must be 'percentage' or 'fixed'")
	}
}

// Repository defines the storage collaborator contract. The engine reads
// coupon snapshots through Get and ListActive; List pages over every stored
// coupon, inactive ones included, for the lifecycle API and tooling.
type Repository interface {
	Get(ctx context.Context, id int64) (*Coupon, error)
	List(ctx context.Context, skip, limit int) ([]Coupon, error)
	ListActive(ctx context.Context) ([]Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
	Delete(ctx context.Context, id int64) error
}
