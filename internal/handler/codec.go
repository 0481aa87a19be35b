package handler

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/coupon-engine/internal/domain/cart"
	"github.com/xenking/coupon-engine/internal/domain/coupon"
	"github.com/xenking/coupon-engine/internal/engine"
)

// decodeCartBody parses a request body carrying a cart. Both the wrapped
// form {"cart": {"items": [...]}} and the bare form {"items": [...]} are
// accepted.
func decodeCartBody(data []byte) (cart.Cart, error) {
	d := jx.DecodeBytes(data)

	var (
		c    cart.Cart
		seen bool
	)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "cart":
			seen = true
			nested, err := decodeCartObj(d)
			c = nested
			return err
		case "items":
			seen = true
			items, err := decodeItems(d)
			c.Items = items
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return cart.Cart{}, errors.Wrap(err, "parse cart")
	}
	if !seen {
		return cart.Cart{}, errors.New("cart is required")
	}
	return c, nil
}

func decodeCartObj(d *jx.Decoder) (cart.Cart, error) {
	var c cart.Cart
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) == "items" {
			items, err := decodeItems(d)
			c.Items = items
			return err
		}
		return d.Skip()
	})
	return c, err
}

func decodeItems(d *jx.Decoder) ([]cart.Item, error) {
	var items []cart.Item
	err := d.Arr(func(d *jx.Decoder) error {
		var item cart.Item
		if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			var err error
			switch string(key) {
			case "product_id":
				item.ProductID, err = d.Int64()
			case "quantity":
				item.Quantity, err = d.Int()
			case "price":
				item.Price, err = decodeDecimal(d)
			default:
				return d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	return items, err
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	n, err := d.Num()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(n.String())
}

// decodeCoupon parses a coupon create/update body:
// {"type": "...", "details": {...}, "active": bool}.
// The details block is parsed by kind via coupon.UnmarshalDetails.
func decodeCoupon(data []byte) (*coupon.Coupon, error) {
	d := jx.DecodeBytes(data)

	var (
		kind    string
		details jx.Raw
		active  = true
	)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "type":
			kind, err = d.Str()
		case "details":
			details, err = d.Raw()
		case "active":
			active, err = d.Bool()
		default:
			return d.Skip()
		}
		return err
	}); err != nil {
		return nil, errors.Wrap(err, "parse coupon")
	}

	if kind == "" {
		return nil, errors.New("type is required")
	}
	if len(details) == 0 {
		return nil, errors.New("details is required")
	}

	cp := &coupon.Coupon{Active: active}
	if err := cp.UnmarshalDetails(coupon.Kind(kind), details); err != nil {
		return nil, err
	}
	return cp, nil
}

// encodeMoney writes a monetary value rounded to two decimal places. This is
// the only place where exact decimals become display values.
func encodeMoney(e *jx.Encoder, v decimal.Decimal) {
	e.Raw(jx.Raw(v.StringFixed(2)))
}

func encodeCoupon(e *jx.Encoder, cp *coupon.Coupon) error {
	details, err := cp.MarshalDetails()
	if err != nil {
		return err
	}
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(cp.ID) })
		e.Field("type", func(e *jx.Encoder) { e.Str(string(cp.Kind)) })
		e.Field("details", func(e *jx.Encoder) { e.Raw(jx.Raw(details)) })
		e.Field("active", func(e *jx.Encoder) { e.Bool(cp.Active) })
	})
	return nil
}

func encodeItems(e *jx.Encoder, items []engine.ResultItem) {
	e.Arr(func(e *jx.Encoder) {
		for _, item := range items {
			e.Obj(func(e *jx.Encoder) {
				e.Field("product_id", func(e *jx.Encoder) { e.Int64(item.ProductID) })
				e.Field("quantity", func(e *jx.Encoder) { e.Int(item.Quantity) })
				e.Field("price", func(e *jx.Encoder) { encodeMoney(e, item.Price) })
				e.Field("total_discount", func(e *jx.Encoder) { encodeMoney(e, item.Discount) })
			})
		}
	})
}
