package engine

import (
	"github.com/xenking/coupon-engine/internal/domain/cart"
	"github.com/xenking/coupon-engine/internal/domain/coupon"
)

// evalProductWise applies a product-wise coupon: applicable only when the
// target product is in the cart, with the discount computed over that line's
// subtotal and never spilling into the rest of the cart.
func evalProductWise(c cart.Cart, spec *coupon.ProductWiseSpec) (evaluation, error) {
	line, ok := c.Find(spec.ProductID)
	if !ok {
		return evaluation{}, nil
	}

	amount, err := discountOf(spec.DiscountType, spec.Discount, line.Subtotal())
	if err != nil {
		return evaluation{}, err
	}

	return evaluation{applicable: true, discount: amount}, nil
}
