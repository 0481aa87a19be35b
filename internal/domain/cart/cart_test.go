package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{
			name: "valid item",
			item: Item{ProductID: 1, Quantity: 2, Price: decimal.NewFromInt(50)},
		},
		{
			name: "zero price is allowed",
			item: Item{ProductID: 1, Quantity: 1, Price: decimal.Zero},
		},
		{
			name:    "zero product id",
			item:    Item{ProductID: 0, Quantity: 1, Price: decimal.NewFromInt(10)},
			wantErr: true,
		},
		{
			name:    "negative product id",
			item:    Item{ProductID: -5, Quantity: 1, Price: decimal.NewFromInt(10)},
			wantErr: true,
		},
		{
			name:    "zero quantity",
			item:    Item{ProductID: 1, Quantity: 0, Price: decimal.NewFromInt(10)},
			wantErr: true,
		},
		{
			name:    "negative quantity",
			item:    Item{ProductID: 1, Quantity: -1, Price: decimal.NewFromInt(10)},
			wantErr: true,
		},
		{
			name:    "negative price",
			item:    Item{ProductID: 1, Quantity: 1, Price: decimal.NewFromInt(-1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidItem)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCartTotal(t *testing.T) {
	c := Cart{Items: []Item{
		{ProductID: 1, Quantity: 6, Price: decimal.NewFromInt(50)},
		{ProductID: 2, Quantity: 3, Price: decimal.NewFromInt(30)},
		{ProductID: 3, Quantity: 2, Price: decimal.NewFromInt(25)},
	}}

	assert.True(t, decimal.NewFromInt(440).Equal(c.Total()),
		"expected total 440, got %s", c.Total())
}

func TestCartTotalEmpty(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(Cart{}.Total()))
}

func TestCartFind(t *testing.T) {
	c := Cart{Items: []Item{
		{ProductID: 1, Quantity: 2, Price: decimal.NewFromInt(50)},
		{ProductID: 2, Quantity: 1, Price: decimal.NewFromInt(30)},
	}}

	item, ok := c.Find(2)
	require.True(t, ok)
	assert.Equal(t, int64(2), item.ProductID)
	assert.Equal(t, 1, item.Quantity)

	_, ok = c.Find(99)
	assert.False(t, ok)
}

func TestCartNormalize(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		want  []Item
	}{
		{
			name: "no duplicates unchanged",
			items: []Item{
				{ProductID: 1, Quantity: 2, Price: decimal.NewFromInt(50)},
				{ProductID: 2, Quantity: 1, Price: decimal.NewFromInt(30)},
			},
			want: []Item{
				{ProductID: 1, Quantity: 2, Price: decimal.NewFromInt(50)},
				{ProductID: 2, Quantity: 1, Price: decimal.NewFromInt(30)},
			},
		},
		{
			name: "duplicates merged onto first occurrence",
			items: []Item{
				{ProductID: 1, Quantity: 2, Price: decimal.NewFromInt(50)},
				{ProductID: 2, Quantity: 1, Price: decimal.NewFromInt(30)},
				{ProductID: 1, Quantity: 3, Price: decimal.NewFromInt(50)},
			},
			want: []Item{
				{ProductID: 1, Quantity: 5, Price: decimal.NewFromInt(50)},
				{ProductID: 2, Quantity: 1, Price: decimal.NewFromInt(30)},
			},
		},
		{
			name: "first line price wins on merge",
			items: []Item{
				{ProductID: 1, Quantity: 1, Price: decimal.NewFromInt(50)},
				{ProductID: 1, Quantity: 1, Price: decimal.NewFromInt(45)},
			},
			want: []Item{
				{ProductID: 1, Quantity: 2, Price: decimal.NewFromInt(50)},
			},
		},
		{
			name:  "empty cart",
			items: nil,
			want:  []Item{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cart{Items: tt.items}.Normalize()

			require.Len(t, got.Items, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, want.ProductID, got.Items[i].ProductID)
				assert.Equal(t, want.Quantity, got.Items[i].Quantity)
				assert.True(t, want.Price.Equal(got.Items[i].Price),
					"item %d: expected price %s, got %s", i, want.Price, got.Items[i].Price)
			}
		})
	}
}

func TestCartNormalizeDoesNotMutateReceiver(t *testing.T) {
	original := Cart{Items: []Item{
		{ProductID: 1, Quantity: 2, Price: decimal.NewFromInt(50)},
		{ProductID: 1, Quantity: 3, Price: decimal.NewFromInt(50)},
	}}

	_ = original.Normalize()

	require.Len(t, original.Items, 2)
	assert.Equal(t, 2, original.Items[0].Quantity)
}
