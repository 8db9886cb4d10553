package billing

import (
	"context"
	"time"
)

// Coupon is a provider coupon. Amounts are in minor units.
type Coupon struct {
	ID         string
	Valid      bool
	PercentOff float64
	AmountOff  int64
}

// Discount converts the coupon to major units
func (c Coupon) Discount() Discount {
	if c.PercentOff > 0 {
		return Discount{Kind: DiscountPercentage, Value: c.PercentOff}
	}
	return Discount{Kind: DiscountFixed, Value: float64(c.AmountOff) / 100}
}

// Promotion is a customer-facing promotion code backed by a coupon
type Promotion struct {
	ID     string
	Code   string
	Coupon Coupon
}

// CheckoutParams describes a subscription checkout. At most one of
// PromotionCodeID and CouponID is set; with neither, the provider page
// lets the customer type a code.
type CheckoutParams struct {
	CustomerID      string
	UserID          string
	PriceID         string
	SuccessURL      string
	CancelURL       string
	PromotionCodeID string
	CouponID        string
	Metadata        map[string]string
}

// Invoice is a billing history entry in major units
type Invoice struct {
	ID               string  `json:"id"`
	Number           string  `json:"number"`
	Amount           float64 `json:"amount"`
	Currency         string  `json:"currency"`
	Status           string  `json:"status"`
	Created          int64   `json:"created"`
	InvoicePDF       string  `json:"invoice_pdf"`
	HostedInvoiceURL string  `json:"hosted_invoice_url"`
	PeriodStart      int64   `json:"period_start"`
	PeriodEnd        int64   `json:"period_end"`
}

// CreatedAt returns the invoice creation time
func (i Invoice) CreatedAt() time.Time {
	return time.Unix(i.Created, 0).UTC()
}

// PaymentGateway is the payment provider surface billing needs
type PaymentGateway interface {
	FindOrCreateCustomer(ctx context.Context, email, userID string) (string, error)
	// FindPromotionCode returns nil when no active code matches
	FindPromotionCode(ctx context.Context, code string) (*Promotion, error)
	// GetCoupon returns nil when the coupon does not exist
	GetCoupon(ctx context.Context, id string) (*Coupon, error)
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error)
	ListInvoices(ctx context.Context, customerID string, limit int) ([]Invoice, error)
}
