package coupon

import (
	"encoding/json"

	"github.com/go-faster/errors"
)

// MarshalDetails serializes the kind-specific parameter block to JSON, for
// storage in a JSONB column or transport in a dump file.
func (c *Coupon) MarshalDetails() ([]byte, error) {
	switch c.Kind {
	case KindCartWise:
		return json.Marshal(c.CartWise)
	case KindProductWise:
		return json.Marshal(c.ProductWise)
	case KindBxGy:
		return json.Marshal(c.BxGy)
	default:
		return nil, errors.Wrapf(ErrMalformed, "unsupported coupon type: %q", c.Kind)
	}
}

// UnmarshalDetails parses a kind-specific parameter block and sets the
// matching variant pointer, clearing the others.
func (c *Coupon) UnmarshalDetails(kind Kind, data []byte) error {
	c.Kind = kind
	c.CartWise, c.ProductWise, c.BxGy = nil, nil, nil

	switch kind {
	case KindCartWise:
		s := &CartWiseSpec{DiscountType: DiscountPercentage}
		if err := json.Unmarshal(data, s); err != nil {
			return errors.Wrap(err, "parse cart-wise details")
		}
		c.CartWise = s
	case KindProductWise:
		s := &ProductWiseSpec{DiscountType: DiscountPercentage}
		if err := json.Unmarshal(data, s); err != nil {
			return errors.Wrap(err, "parse product-wise details")
		}
		c.ProductWise = s
	case KindBxGy:
		s := &BxGySpec{}
		if err := json.Unmarshal(data, s); err != nil {
			return errors.Wrap(err, "parse bxgy details")
		}
		c.BxGy = s
	default:
		return errors.Wrapf(ErrMalformed, "unsupported coupon type: %q", kind)
	}
	return nil
}
