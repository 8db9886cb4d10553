package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		d     Discount
		want  float64
	}{
		{"ten percent of 200", 200, Discount{DiscountPercentage, 10}, 20},
		{"fixed 150 on 100 clamps", 100, Discount{DiscountFixed, 150}, 100},
		{"percentage", 24.90, Discount{DiscountPercentage, 10}, 2.49},
		{"full percentage", 24.90, Discount{DiscountPercentage, 100}, 24.90},
		{"over 100 percent clamps", 9.99, Discount{DiscountPercentage, 150}, 9.99},
		{"fixed below price", 24.90, Discount{DiscountFixed, 5}, 5},
		{"fixed above price clamps", 9.99, Discount{DiscountFixed, 50}, 9.99},
		{"negative value", 9.99, Discount{DiscountFixed, -3}, 0},
		{"unknown kind", 9.99, Discount{"bogus", 3}, 0},
		{"free price", 0, Discount{DiscountFixed, 3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiscount(tt.price, tt.d)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, tt.price+1e-9)
		})
	}
}

func TestComputeDiscountExact(t *testing.T) {
	assert.Equal(t, 20.0, ComputeDiscount(200, Discount{DiscountPercentage, 10}))
	assert.Equal(t, 100.0, ComputeDiscount(100, Discount{DiscountFixed, 150}))
}

func TestFinalPrice(t *testing.T) {
	assert.Equal(t, 22.41, FinalPrice(24.90, Discount{DiscountPercentage, 10}))
	assert.Equal(t, 0.0, FinalPrice(9.99, Discount{DiscountFixed, 100}))
}

func TestParseKind(t *testing.T) {
	for raw, want := range map[string]DiscountKind{"percentage": DiscountPercentage, " Percent ": DiscountPercentage, "FIXED": DiscountFixed, "amount": DiscountFixed} {
		got, ok := ParseKind(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := ParseKind("bogo")
	assert.False(t, ok)
}

func TestCouponDiscount(t *testing.T) {
	assert.Equal(t, Discount{DiscountPercentage, 25}, Coupon{PercentOff: 25}.Discount())
	assert.Equal(t, Discount{DiscountFixed, 5}, Coupon{AmountOff: 500}.Discount())
}
