package billing

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/NikhilSetiya/securex/pkg/config"
)

// StripeGateway implements PaymentGateway with the Stripe API
type StripeGateway struct {
	api            *client.API
	promoScanLimit int
}

// NewStripeGateway creates a Stripe-backed gateway. backends may be nil to
// use the live API.
func NewStripeGateway(cfg config.StripeConfig, backends *stripe.Backends) *StripeGateway {
	limit := cfg.PromoScanLimit
	if limit <= 0 {
		limit = 100
	}
	return &StripeGateway{api: client.New(cfg.SecretKey, backends), promoScanLimit: limit}
}

// FindOrCreateCustomer returns the customer with email, creating it tagged
// with the account id when absent.
func (g *StripeGateway) FindOrCreateCustomer(ctx context.Context, email, userID string) (string, error) {
	list := &stripe.CustomerListParams{Email: stripe.String(email)}
	list.Limit = stripe.Int64(1)
	list.Context = ctx

	it := g.api.Customers.List(list)
	if it.Next() {
		return it.Customer().ID, nil
	}
	if err := it.Err(); err != nil {
		return "", err
	}

	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx
	params.AddMetadata("supabase_user_id", userID)
	c, err := g.api.Customers.New(params)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// FindPromotionCode scans active promotion codes for a case-insensitive match
func (g *StripeGateway) FindPromotionCode(ctx context.Context, code string) (*Promotion, error) {
	params := &stripe.PromotionCodeListParams{Active: stripe.Bool(true)}
	params.Limit = stripe.Int64(int64(g.promoScanLimit))
	params.Context = ctx

	it := g.api.PromotionCodes.List(params)
	for seen := 0; seen < g.promoScanLimit && it.Next(); seen++ {
		pc := it.PromotionCode()
		if !strings.EqualFold(pc.Code, code) {
			continue
		}
		p := &Promotion{ID: pc.ID, Code: pc.Code}
		if pc.Coupon != nil {
			p.Coupon = toCoupon(pc.Coupon)
		}
		return p, nil
	}
	return nil, it.Err()
}

// GetCoupon retrieves a coupon by id
func (g *StripeGateway) GetCoupon(ctx context.Context, id string) (*Coupon, error) {
	params := &stripe.CouponParams{}
	params.Context = ctx

	c, err := g.api.Coupons.Get(id, params)
	if err != nil {
		var serr *stripe.Error
		if stderrors.As(err, &serr) && serr.HTTPStatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	coupon := toCoupon(c)
	return &coupon, nil
}

func toCoupon(c *stripe.Coupon) Coupon {
	return Coupon{ID: c.ID, Valid: c.Valid, PercentOff: c.PercentOff, AmountOff: c.AmountOff}
}

// CreateCheckoutSession creates a subscription checkout and returns its URL
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(p.CustomerID),
		ClientReferenceID:  stripe.String(p.UserID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(p.PriceID), Quantity: stripe.Int64(1)},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	switch {
	case p.PromotionCodeID != "":
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{{PromotionCode: stripe.String(p.PromotionCodeID)}}
	case p.CouponID != "":
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{{Coupon: stripe.String(p.CouponID)}}
	default:
		params.AllowPromotionCodes = stripe.Bool(true)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", err
	}
	return s.URL, nil
}

// ListInvoices returns up to limit invoices for the customer, newest first
func (g *StripeGateway) ListInvoices(ctx context.Context, customerID string, limit int) ([]Invoice, error) {
	params := &stripe.InvoiceListParams{Customer: stripe.String(customerID)}
	params.Limit = stripe.Int64(int64(limit))
	params.Context = ctx

	out := make([]Invoice, 0, limit)
	it := g.api.Invoices.List(params)
	for len(out) < limit && it.Next() {
		inv := it.Invoice()
		out = append(out, Invoice{
			ID:               inv.ID,
			Number:           inv.Number,
			Amount:           float64(inv.AmountPaid) / 100,
			Currency:         strings.ToUpper(string(inv.Currency)),
			Status:           string(inv.Status),
			Created:          inv.Created,
			InvoicePDF:       inv.InvoicePDF,
			HostedInvoiceURL: inv.HostedInvoiceURL,
			PeriodStart:      inv.PeriodStart,
			PeriodEnd:        inv.PeriodEnd,
		})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
