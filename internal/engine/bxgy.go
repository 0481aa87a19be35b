package engine

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/coupon-engine/internal/domain/cart"
	"github.com/xenking/coupon-engine/internal/domain/catalog"
	"github.com/xenking/coupon-engine/internal/domain/coupon"
)

// grant is one product's share of a BxGy free-item allocation.
type grant struct {
	productID int64
	units     int
	unitPrice decimal.Decimal
}

// evalBxGy applies a "buy X get Y" coupon. Eligible repetitions are
// floor(buyCount / buyQuantity) where buyCount aggregates cart quantities
// over the buy set, capped by the repetition limit (unbounded when 0).
// Each repetition grants GetQuantity free units; the discount is the sum of
// granted units priced at the cart line's unit price, or the catalog price
// for products not in the cart.
func evalBxGy(ctx context.Context, prices catalog.PriceResolver, c cart.Cart, spec *coupon.BxGySpec) (evaluation, error) {
	buySet := make(map[int64]struct{}, len(spec.BuyProducts))
	for _, id := range spec.BuyProducts {
		buySet[id] = struct{}{}
	}

	buyCount := 0
	for _, item := range c.Items {
		if _, ok := buySet[item.ProductID]; ok {
			buyCount += item.Quantity
		}
	}

	reps := buyCount / spec.BuyQuantity
	if spec.RepetitionLimit > 0 && reps > spec.RepetitionLimit {
		reps = spec.RepetitionLimit
	}
	if reps == 0 {
		return evaluation{}, nil
	}

	grants, err := planGrants(ctx, prices, c, spec.GetProducts, reps*spec.GetQuantity)
	if err != nil {
		return evaluation{}, err
	}

	discount := decimal.Zero
	for _, g := range grants {
		discount = discount.Add(g.unitPrice.Mul(decimal.NewFromInt(int64(g.units))))
	}

	return evaluation{applicable: true, discount: discount, grants: grants}, nil
}

// planGrants distributes freeUnits over getProducts round-robin in
// declaration order: unit i goes to getProducts[i mod len(getProducts)].
// The policy is deterministic so repeated evaluations of the same inputs
// always produce the same allocation. Unit prices come from the cart line
// when the product is already present, otherwise from the catalog resolver;
// a product with neither is a catalog.ErrUnknownPrice failure.
func planGrants(ctx context.Context, prices catalog.PriceResolver, c cart.Cart, getProducts []int64, freeUnits int) ([]grant, error) {
	perProduct := make([]int, len(getProducts))
	for i := range freeUnits {
		perProduct[i%len(getProducts)]++
	}

	grants := make([]grant, 0, len(getProducts))
	for i, productID := range getProducts {
		if perProduct[i] == 0 {
			continue
		}

		g := grant{productID: productID, units: perProduct[i]}
		if line, ok := c.Find(productID); ok {
			g.unitPrice = line.Price
		} else {
			if prices == nil {
				return nil, errors.Wrapf(catalog.ErrUnknownPrice, "product %d", productID)
			}
			price, err := prices.UnitPrice(ctx, productID)
			if err != nil {
				return nil, errors.Wrapf(err, "price product %d", productID)
			}
			g.unitPrice = price
		}
		grants = append(grants, g)
	}

	return grants, nil
}

// applyGrants merges the granted free units into a copy of the cart. Existing
// lines grow by the granted quantity (keeping their paid unit price, which
// the discount amount exactly offsets); products not in the cart are appended
// as new lines at the resolved catalog price.
func applyGrants(c cart.Cart, grants []grant) cart.Cart {
	items := make([]cart.Item, len(c.Items))
	copy(items, c.Items)

	index := make(map[int64]int, len(items))
	for i, item := range items {
		index[item.ProductID] = i
	}

	for _, g := range grants {
		if at, ok := index[g.productID]; ok {
			items[at].Quantity += g.units
			continue
		}
		index[g.productID] = len(items)
		items = append(items, cart.Item{
			ProductID: g.productID,
			Quantity:  g.units,
			Price:     g.unitPrice,
		})
	}

	return cart.Cart{Items: items}
}
