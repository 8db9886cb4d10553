package billing

import (
	"context"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// Plan types carried in checkout metadata
const (
	PlanMonthly = "monthly"
	PlanAnnual  = "annual"
)

// CheckoutRequest is a caller's request to start a subscription checkout
type CheckoutRequest struct {
	PriceID   string
	Code      string
	ReturnURL string
	// RequestOrigin is the Origin header of the incoming request
	RequestOrigin string
}

// ValidateReturnURL accepts configured origins, the request's own origin and
// hosts under the trusted suffix. It returns the URL without a trailing slash.
func (s *Service) ValidateReturnURL(raw, requestOrigin string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", errors.NewInputError(errors.CodeInvalidReturnURL, "Invalid URL format")
	}

	origin := u.Scheme + "://" + u.Host
	allowed := requestOrigin != "" && origin == strings.TrimRight(requestOrigin, "/")
	for _, o := range s.server.AllowedOrigins {
		if origin == strings.TrimRight(o, "/") {
			allowed = true
		}
	}
	if suffix := s.server.TrustedHostSuffix; suffix != "" && u.Scheme == "https" && strings.HasSuffix(u.Hostname(), suffix) {
		allowed = true
	}
	if !allowed {
		return "", errors.NewInputError(errors.CodeInvalidReturnURL, "Invalid returnUrl")
	}
	return strings.TrimRight(u.String(), "/"), nil
}

func (s *Service) planFor(priceID string) (string, bool) {
	switch {
	case priceID == "":
		return "", false
	case priceID == s.stripe.PriceMonthly:
		return PlanMonthly, true
	case priceID == s.stripe.PriceAnnual:
		return PlanAnnual, true
	}
	return "", false
}

// CreateCheckoutSession starts a subscription checkout for caller and
// returns the provider URL to redirect to.
func (s *Service) CreateCheckoutSession(ctx context.Context, caller types.Identity, req CheckoutRequest) (string, error) {
	plan, ok := s.planFor(strings.TrimSpace(req.PriceID))
	if !ok {
		return "", errors.NewInputError(errors.CodeInvalidPrice, "Missing or unknown priceId")
	}
	returnURL, err := s.ValidateReturnURL(req.ReturnURL, req.RequestOrigin)
	if err != nil {
		return "", err
	}
	if caller.Email == "" {
		return "", errors.NewValidationError("Account has no e-mail address")
	}

	customerID, err := s.payments.FindOrCreateCustomer(ctx, caller.Email, caller.UserID)
	if err != nil {
		return "", errors.NewExternalError("payments", "Could not start checkout. Please try again.").WithCause(err)
	}
	if err := s.profiles.SetStripeCustomer(ctx, caller.UserID, customerID); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Could not store payment customer")
	}

	params := CheckoutParams{
		CustomerID: customerID,
		UserID:     caller.UserID,
		PriceID:    req.PriceID,
		SuccessURL: returnURL + "/dashboard?success=true",
		CancelURL:  returnURL + "/pricing?canceled=true",
		Metadata:   map[string]string{"plan_type": plan, "user_id": caller.UserID},
	}

	discount := "none"
	if code := NormalizeCode(req.Code); code != "" {
		params.Metadata["code"] = code
		switch promo, coupon := s.resolveDiscount(ctx, code); {
		case promo != "":
			params.PromotionCodeID = promo
			discount = "promotion"
		case coupon != "":
			params.CouponID = coupon
			discount = "coupon"
		}
	}

	checkoutURL, err := s.payments.CreateCheckoutSession(ctx, params)
	if err != nil {
		return "", errors.NewExternalError("payments", "Could not start checkout. Please try again.").WithCause(err)
	}

	s.metrics.RecordCheckout(discount)
	s.logger.LogBillingEvent(ctx, "checkout_created", logrus.Fields{
		"user_id":  caller.UserID,
		"plan":     plan,
		"discount": discount,
	})
	return checkoutURL, nil
}

// resolveDiscount finds a promotion code, then a coupon, for code. Lookup
// failures mean no discount rather than a failed checkout.
func (s *Service) resolveDiscount(ctx context.Context, code string) (promotionID, couponID string) {
	promo, err := s.payments.FindPromotionCode(ctx, code)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Promotion code lookup failed, continuing without discount")
		return "", ""
	}
	if promo != nil {
		return promo.ID, ""
	}

	coupon, err := s.payments.GetCoupon(ctx, strings.ToLower(code))
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Coupon lookup failed, continuing without discount")
		return "", ""
	}
	if coupon != nil && coupon.Valid {
		return "", coupon.ID
	}
	return "", ""
}

// ListInvoices returns the caller's invoices, empty when they never paid
func (s *Service) ListInvoices(ctx context.Context, userID string) ([]Invoice, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	customerID := profile.CustomerID()
	if customerID == "" {
		return []Invoice{}, nil
	}

	limit := s.stripe.InvoiceLimit
	if limit <= 0 {
		limit = 20
	}
	invoices, err := s.payments.ListInvoices(ctx, customerID, limit)
	if err != nil {
		return nil, errors.NewExternalError("payments", "Could not load invoices. Please try again.").WithCause(err)
	}
	return invoices, nil
}

// ToggleAdminPro flips an administrator's own subscription flag for testing
// PRO features. The role is checked server side.
func (s *Service) ToggleAdminPro(ctx context.Context, caller types.Identity) (types.SubscriptionStatus, error) {
	admin, err := s.roles.HasRole(ctx, caller.UserID, types.RoleAdmin)
	if err != nil {
		return "", err
	}
	if !admin {
		return "", errors.NewAuthorizationError("Forbidden - Admin role required")
	}

	profile, err := s.profiles.Get(ctx, caller.UserID)
	if err != nil {
		return "", err
	}
	next := types.SubscriptionActive
	if profile.SubscriptionStatus == types.SubscriptionActive {
		next = types.SubscriptionInactive
	}
	if err := s.profiles.SetSubscriptionStatus(ctx, caller.UserID, next); err != nil {
		return "", err
	}

	s.logger.LogBillingEvent(ctx, "admin_pro_toggled", logrus.Fields{"user_id": caller.UserID, "status": next})
	return next, nil
}
