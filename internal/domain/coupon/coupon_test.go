package coupon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCouponValidate(t *testing.T) {
	tests := []struct {
		name    string
		coupon  Coupon
		wantErr bool
	}{
		{
			name: "valid cart-wise percentage",
			coupon: Coupon{
				Kind: KindCartWise,
				CartWise: &CartWiseSpec{
					Threshold:    decimal.NewFromInt(100),
					Discount:     decimal.NewFromInt(10),
					DiscountType: DiscountPercentage,
				},
			},
		},
		{
			name: "valid cart-wise fixed",
			coupon: Coupon{
				Kind: KindCartWise,
				CartWise: &CartWiseSpec{
					Threshold:    decimal.NewFromInt(100),
					Discount:     decimal.NewFromInt(25),
					DiscountType: DiscountFixed,
				},
			},
		},
		{
			name: "cart-wise zero threshold",
			coupon: Coupon{
				Kind: KindCartWise,
				CartWise: &CartWiseSpec{
					Discount:     decimal.NewFromInt(10),
					DiscountType: DiscountPercentage,
				},
			},
			wantErr: true,
		},
		{
			name: "cart-wise negative discount",
			coupon: Coupon{
				Kind: KindCartWise,
				CartWise: &CartWiseSpec{
					Threshold:    decimal.NewFromInt(100),
					Discount:     decimal.NewFromInt(-10),
					DiscountType: DiscountPercentage,
				},
			},
			wantErr: true,
		},
		{
			name: "cart-wise unknown discount type",
			coupon: Coupon{
				Kind: KindCartWise,
				CartWise: &CartWiseSpec{
					Threshold:    decimal.NewFromInt(100),
					Discount:     decimal.NewFromInt(10),
					DiscountType: "bogus",
				},
			},
			wantErr: true,
		},
		{
			name: "cart-wise parameters missing",
			coupon: Coupon{
				Kind: KindCartWise,
			},
			wantErr: true,
		},
		{
			name: "valid product-wise",
			coupon: Coupon{
				Kind: KindProductWise,
				ProductWise: &ProductWiseSpec{
					ProductID:    1,
					Discount:     decimal.NewFromInt(20),
					DiscountType: DiscountPercentage,
				},
			},
		},
		{
			name: "product-wise non-positive product id",
			coupon: Coupon{
				Kind: KindProductWise,
				ProductWise: &ProductWiseSpec{
					ProductID:    0,
					Discount:     decimal.NewFromInt(20),
					DiscountType: DiscountPercentage,
				},
			},
			wantErr: true,
		},
		{
			name: "valid bxgy",
			coupon: Coupon{
				Kind: KindBxGy,
				BxGy: &BxGySpec{
					BuyProducts:     []int64{1, 2},
					BuyQuantity:     3,
					GetProducts:     []int64{3},
					GetQuantity:     1,
					RepetitionLimit: 2,
				},
			},
		},
		{
			name: "bxgy unbounded repetition limit",
			coupon: Coupon{
				Kind: KindBxGy,
				BxGy: &BxGySpec{
					BuyProducts: []int64{1},
					BuyQuantity: 2,
					GetProducts: []int64{2},
					GetQuantity: 1,
				},
			},
		},
		{
			name: "bxgy empty buy products",
			coupon: Coupon{
				Kind: KindBxGy,
				BxGy: &BxGySpec{
					BuyQuantity: 2,
					GetProducts: []int64{2},
					GetQuantity: 1,
				},
			},
			wantErr: true,
		},
		{
			name: "bxgy empty get products",
			coupon: Coupon{
				Kind: KindBxGy,
				BxGy: &BxGySpec{
					BuyProducts: []int64{1},
					BuyQuantity: 2,
					GetQuantity: 1,
				},
			},
			wantErr: true,
		},
		{
			name: "bxgy zero buy quantity",
			coupon: Coupon{
				Kind: KindBxGy,
				BxGy: &BxGySpec{
					BuyProducts: []int64{1},
					GetProducts: []int64{2},
					GetQuantity: 1,
				},
			},
			wantErr: true,
		},
		{
			name: "bxgy negative repetition limit",
			coupon: Coupon{
				Kind: KindBxGy,
				BxGy: &BxGySpec{
					BuyProducts:     []int64{1},
					BuyQuantity:     2,
					GetProducts:     []int64{2},
					GetQuantity:     1,
					RepetitionLimit: -1,
				},
			},
			wantErr: true,
		},
		{
			name: "bxgy duplicate buy product",
			coupon: Coupon{
				Kind: KindBxGy,
				BxGy: &BxGySpec{
					BuyProducts: []int64{1, 1},
					BuyQuantity: 2,
					GetProducts: []int64{2},
					GetQuantity: 1,
				},
			},
			wantErr: true,
		},
		{
			name: "bxgy non-positive get product",
			coupon: Coupon{
				Kind: KindBxGy,
				BxGy: &BxGySpec{
					BuyProducts: []int64{1},
					BuyQuantity: 2,
					GetProducts: []int64{0},
					GetQuantity: 1,
				},
			},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			coupon:  Coupon{Kind: "mystery"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coupon.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDetailsRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		coupon Coupon
	}{
		{
			name: "cart-wise",
			coupon: Coupon{
				Kind: KindCartWise,
				CartWise: &CartWiseSpec{
					Threshold:    decimal.NewFromInt(100),
					Discount:     decimal.NewFromInt(10),
					DiscountType: DiscountPercentage,
				},
			},
		},
		{
			name: "product-wise",
			coupon: Coupon{
				Kind: KindProductWise,
				ProductWise: &ProductWiseSpec{
					ProductID:    1,
					Discount:     decimal.NewFromInt(20),
					DiscountType: DiscountFixed,
				},
			},
		},
		{
			name: "bxgy",
			coupon: Coupon{
				Kind: KindBxGy,
				BxGy: &BxGySpec{
					BuyProducts:     []int64{1, 2},
					BuyQuantity:     3,
					GetProducts:     []int64{3},
					GetQuantity:     1,
					RepetitionLimit: 2,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.coupon.MarshalDetails()
			require.NoError(t, err)

			var got Coupon
			require.NoError(t, got.UnmarshalDetails(tt.coupon.Kind, data))
			require.NoError(t, got.Validate())
			assert.Equal(t, tt.coupon.Kind, got.Kind)
		})
	}
}

func TestUnmarshalDetailsDefaults(t *testing.T) {
	var c Coupon
	require.NoError(t, c.UnmarshalDetails(KindCartWise, []byte(`{"threshold":"100","discount":"10"}`)))

	require.NotNil(t, c.CartWise)
	assert.Equal(t, DiscountPercentage, c.CartWise.DiscountType,
		"discount_type should default to percentage when absent")
}

func TestUnmarshalDetailsUnknownKind(t *testing.T) {
	var c Coupon
	err := c.UnmarshalDetails("mystery", []byte(`{}`))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestMarshalDetailsUnknownKind(t *testing.T) {
	c := Coupon{Kind: "mystery"}
	_, err := c.MarshalDetails()
	require.ErrorIs(t, err, ErrMalformed)
}
