package engine

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/coupon-engine/internal/domain/cart"
	"github.com/xenking/coupon-engine/internal/domain/coupon"
)

// evalCartWise applies a cart-wise coupon: applicable once the cart total
// reaches the threshold, with the discount computed over the whole total.
func evalCartWise(c cart.Cart, spec *coupon.CartWiseSpec) (evaluation, error) {
	total := c.Total()
	if total.LessThan(spec.Threshold) {
		return evaluation{}, nil
	}

	amount, err := discountOf(spec.DiscountType, spec.Discount, total)
	if err != nil {
		return evaluation{}, err
	}

	return evaluation{applicable: true, discount: amount}, nil
}

// discountOf computes a percentage or fixed discount over a subtotal,
// clamped so the discount never exceeds the subtotal.
func discountOf(t coupon.DiscountType, value, subtotal decimal.Decimal) (decimal.Decimal, error) {
	switch t {
	case coupon.DiscountPercentage:
		amount := subtotal.Mul(value).Div(hundred)
		return decimal.Min(amount, subtotal), nil
	case coupon.DiscountFixed:
		return decimal.Min(value, subtotal), nil
	default:
		return decimal.Zero, errors.Errorf("unsupported discount type: %q", t)
	}
}
