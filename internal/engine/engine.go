// Package engine computes which coupons apply to a cart and applies a chosen
// coupon to produce a finalized cart.
//
// The calculators are pure: they never mutate the input cart, and a BxGy
// mutation plan is only materialized during Apply, as a new cart value. All
// monetary arithmetic stays in exact decimals; rounding for display happens
// at the HTTP boundary.
package engine

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/coupon-engine/internal/domain/cart"
	"github.com/xenking/coupon-engine/internal/domain/catalog"
	"github.com/xenking/coupon-engine/internal/domain/coupon"
)

var hundred = decimal.NewFromInt(100)

// ErrNotApplicable is returned by Apply when the chosen coupon's conditions
// are not satisfied by the cart.
var ErrNotApplicable = errors.New("coupon not applicable")

// ApplicableCoupon is one entry in the applicability listing.
type ApplicableCoupon struct {
	CouponID int64
	Kind     coupon.Kind
	Discount decimal.Decimal
}

// ResultItem is one line of the finalized cart together with the share of
// the discount attributed to it. The shares always sum to the result's
// total discount.
type ResultItem struct {
	cart.Item
	Discount decimal.Decimal
}

// Result is the outcome of applying a coupon to a cart. OriginalTotal is the
// finalized cart's gross total, so FinalTotal always equals
// OriginalTotal - Discount.
type Result struct {
	OriginalTotal decimal.Decimal
	Discount      decimal.Decimal
	FinalTotal    decimal.Decimal
	Items         []ResultItem
}

// evaluation is the internal outcome of checking one coupon against a cart.
// grants is only populated for applicable BxGy coupons and drives the cart
// mutation during Apply.
type evaluation struct {
	applicable bool
	discount   decimal.Decimal
	grants     []grant
}

// Service evaluates and applies coupons against carts. It reads coupon
// snapshots from the repository and resolves free-item prices through the
// catalog; it never writes to either.
type Service struct {
	coupons coupon.Repository
	prices  catalog.PriceResolver
	lg      *zap.Logger
}

// NewService constructs a Service. lg may be nil.
func NewService(coupons coupon.Repository, prices catalog.PriceResolver, lg *zap.Logger) *Service {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Service{
		coupons: coupons,
		prices:  prices,
		lg:      lg,
	}
}

// ListApplicable evaluates every stored coupon against the cart and returns
// the applicable ones with their discount amounts, in storage order. The call
// is read-only and idempotent. Coupons that are malformed or whose free-item
// price cannot be resolved are skipped with a warning: a discount that cannot
// be quoted must not fail the whole listing.
func (s *Service) ListApplicable(ctx context.Context, c cart.Cart) ([]ApplicableCoupon, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c = c.Normalize()

	coupons, err := s.coupons.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list active coupons")
	}

	applicable := make([]ApplicableCoupon, 0, len(coupons))
	for i := range coupons {
		cp := &coupons[i]
		if err := cp.Validate(); err != nil {
			s.lg.Warn("skipping malformed coupon", zap.Int64("coupon_id", cp.ID), zap.Error(err))
			continue
		}

		ev, err := s.evaluate(ctx, c, cp)
		if err != nil {
			if errors.Is(err, catalog.ErrUnknownPrice) {
				s.lg.Warn("skipping unpriceable coupon", zap.Int64("coupon_id", cp.ID), zap.Error(err))
				continue
			}
			return nil, errors.Wrapf(err, "evaluate coupon %d", cp.ID)
		}
		if !ev.applicable {
			continue
		}

		applicable = append(applicable, ApplicableCoupon{
			CouponID: cp.ID,
			Kind:     cp.Kind,
			Discount: ev.discount,
		})
	}

	return applicable, nil
}

// Apply re-validates the chosen coupon against the cart and, if applicable,
// produces the finalized cart. For BxGy coupons the free-item grants are
// merged into a copy of the cart first, so the reported original total is
// the finalized cart's gross total and the final total is that gross total
// minus the discount, floored at zero. The input cart is never modified.
func (s *Service) Apply(ctx context.Context, c cart.Cart, couponID int64) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c = c.Normalize()

	cp, err := s.coupons.Get(ctx, couponID)
	if err != nil {
		return nil, errors.Wrapf(err, "get coupon %d", couponID)
	}
	if err := cp.Validate(); err != nil {
		return nil, err
	}

	ev, err := s.evaluate(ctx, c, cp)
	if err != nil {
		return nil, errors.Wrapf(err, "evaluate coupon %d", couponID)
	}
	if !ev.applicable {
		return nil, ErrNotApplicable
	}

	updated := c
	if len(ev.grants) > 0 {
		updated = applyGrants(c, ev.grants)
	}

	gross := updated.Total()
	final := gross.Sub(ev.discount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	return &Result{
		OriginalTotal: gross,
		Discount:      ev.discount,
		FinalTotal:    final,
		Items:         attributeDiscount(cp, updated, ev),
	}, nil
}

// attributeDiscount splits the total discount over the finalized cart's
// lines. Product-wise discounts land on the target line and BxGy discounts
// on the lines that received free units; cart-wise discounts are spread
// over all lines in proportion to their subtotals, with each share rounded
// to cents and the remainder folded into the last line so the shares still
// sum exactly to the total.
func attributeDiscount(cp *coupon.Coupon, c cart.Cart, ev evaluation) []ResultItem {
	items := make([]ResultItem, len(c.Items))
	for i, item := range c.Items {
		items[i] = ResultItem{Item: item}
	}

	switch cp.Kind {
	case coupon.KindCartWise:
		spreadProportionally(items, ev.discount)
	case coupon.KindProductWise:
		for i := range items {
			if items[i].ProductID == cp.ProductWise.ProductID {
				items[i].Discount = ev.discount
				break
			}
		}
	case coupon.KindBxGy:
		granted := make(map[int64]decimal.Decimal, len(ev.grants))
		for _, g := range ev.grants {
			granted[g.productID] = g.unitPrice.Mul(decimal.NewFromInt(int64(g.units)))
		}
		for i := range items {
			if d, ok := granted[items[i].ProductID]; ok {
				items[i].Discount = d
			}
		}
	}

	return items
}

func spreadProportionally(items []ResultItem, total decimal.Decimal) {
	gross := decimal.Zero
	for i := range items {
		gross = gross.Add(items[i].Subtotal())
	}
	if gross.IsZero() {
		return
	}

	running := decimal.Zero
	for i := range items {
		if i == len(items)-1 {
			items[i].Discount = total.Sub(running)
			break
		}
		share := total.Mul(items[i].Subtotal()).Div(gross).Round(2)
		items[i].Discount = share
		running = running.Add(share)
	}
}

// evaluate dispatches to the calculator for the coupon's kind. The switch is
// exhaustive over coupon.Kind; Validate rejects unknown kinds before this
// point, so the default arm is a safety net for unvalidated input.
func (s *Service) evaluate(ctx context.Context, c cart.Cart, cp *coupon.Coupon) (evaluation, error) {
	switch cp.Kind {
	case coupon.KindCartWise:
		return evalCartWise(c, cp.CartWise)
	case coupon.KindProductWise:
		return evalProductWise(c, cp.ProductWise)
	case coupon.KindBxGy:
		return evalBxGy(ctx, s.prices, c, cp.BxGy)
	default:
		return evaluation{}, errors.Errorf("unsupported coupon type: %q", cp.Kind)
	}
}
