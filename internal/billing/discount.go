package billing

import (
	"math"
	"strings"
)

// DiscountKind is how a discount value applies to a price
type DiscountKind string

// Discount kinds
const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// Discount is a resolved discount in major currency units
type Discount struct {
	Kind  DiscountKind `json:"kind"`
	Value float64      `json:"value"`
}

// ParseKind maps the registry's and the provider's spellings to a kind
func ParseKind(raw string) (DiscountKind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "percentage", "percent":
		return DiscountPercentage, true
	case "fixed", "amount":
		return DiscountFixed, true
	}
	return "", false
}

// ComputeDiscount returns the amount taken off price. It never exceeds the
// price and is never negative.
func ComputeDiscount(price float64, d Discount) float64 {
	if price <= 0 || d.Value <= 0 {
		return 0
	}
	var off float64
	switch d.Kind {
	case DiscountPercentage:
		off = price * d.Value / 100
	case DiscountFixed:
		off = math.Min(d.Value, price)
	}
	return math.Max(0, math.Min(off, price))
}

// FinalPrice is price less its discount
func FinalPrice(price float64, d Discount) float64 {
	return math.Round((price-ComputeDiscount(price, d))*100) / 100
}
