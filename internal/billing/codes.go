package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NikhilSetiya/securex/internal/registry"
	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// CodeError is the wire enum for failed code checks
type CodeError int

// Code check failures. The numeric values are part of the public API.
const (
	CodeRequired      CodeError = 0
	CodeNotFound      CodeError = 1
	CodeNotDiscount   CodeError = 2
	CodeAlreadyUsed   CodeError = 3
	CodeInternalError CodeError = 4
)

func (e CodeError) String() string {
	switch e {
	case CodeRequired:
		return "CODE_REQUIRED"
	case CodeNotFound:
		return "CODE_NOT_FOUND"
	case CodeNotDiscount:
		return "CODE_NOT_DISCOUNT"
	case CodeAlreadyUsed:
		return "CODE_ALREADY_USED"
	}
	return "INTERNAL_ERROR"
}

// Error codes for plan redemption
const (
	ErrCodeNotPlan  = "CODE_NOT_PLAN"
	ErrCodeUsed     = "CODE_ALREADY_USED"
	ErrCodeNotFound = "CODE_NOT_FOUND"
	ErrCodeRequired = "CODE_REQUIRED"
	// ErrAlreadySubscribed: the account has a provider subscription with no end
	ErrAlreadySubscribed = "ALREADY_SUBSCRIBED"
)

// CodeCheck is the outcome of a discount or promotion code check
type CodeCheck struct {
	Valid    bool
	Code     string
	Discount *Discount
	PromoID  string
	IsCoupon bool
	Error    CodeError
}

func failed(e CodeError) *CodeCheck {
	return &CodeCheck{Error: e}
}

// NormalizeCode trims and upper-cases a user-typed code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCode checks a discount code with the code registry
func (s *Service) ValidateCode(ctx context.Context, code string) *CodeCheck {
	code = strings.TrimSpace(code)
	if code == "" {
		return s.recordCheck("registry", failed(CodeRequired))
	}

	found, err := s.codes.Lookup(ctx, code)
	switch {
	case errors.IsNotFound(err) || errors.IsType(err, errors.ErrorTypeValidation):
		return s.recordCheck("registry", failed(CodeNotFound))
	case err != nil:
		s.logger.LogError(ctx, err, "Code lookup failed", nil)
		return s.recordCheck("registry", failed(CodeInternalError))
	}

	if found.Type != registry.CodeTypeDiscount || found.Discount == nil {
		return s.recordCheck("registry", failed(CodeNotDiscount))
	}
	if found.Used {
		return s.recordCheck("registry", failed(CodeAlreadyUsed))
	}
	kind, ok := ParseKind(found.Discount.Kind)
	if !ok {
		return s.recordCheck("registry", failed(CodeNotDiscount))
	}

	return s.recordCheck("registry", &CodeCheck{
		Valid:    true,
		Code:     found.Code,
		Discount: &Discount{Kind: kind, Value: found.Discount.Value},
	})
}

// ValidatePromotion checks a code against the payment provider: active
// promotion codes first, then a coupon with the lower-cased id.
func (s *Service) ValidatePromotion(ctx context.Context, code string) *CodeCheck {
	code = strings.TrimSpace(code)
	if code == "" {
		return s.recordCheck("provider", failed(CodeRequired))
	}

	promo, err := s.payments.FindPromotionCode(ctx, code)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Promotion code search failed")
	} else if promo != nil {
		d := promo.Coupon.Discount()
		return s.recordCheck("provider", &CodeCheck{Valid: true, Code: promo.Code, PromoID: promo.ID, Discount: &d})
	}

	coupon, err := s.payments.GetCoupon(ctx, strings.ToLower(code))
	if err != nil {
		s.logger.LogError(ctx, err, "Coupon lookup failed", nil)
		return s.recordCheck("provider", failed(CodeInternalError))
	}
	if coupon == nil || !coupon.Valid {
		return s.recordCheck("provider", failed(CodeNotFound))
	}
	d := coupon.Discount()
	return s.recordCheck("provider", &CodeCheck{Valid: true, Code: coupon.ID, IsCoupon: true, Discount: &d})
}

func (s *Service) recordCheck(source string, c *CodeCheck) *CodeCheck {
	outcome := "valid"
	if !c.Valid {
		outcome = strings.ToLower(c.Error.String())
	}
	s.metrics.RecordCodeValidation(source, outcome)
	return c
}

// Redemption is a granted plan
type Redemption struct {
	Code      string            `json:"code"`
	Duration  registry.Duration `json:"duration"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// RedeemPlanCode grants PRO for the duration of a plan code. The code is
// checked before redeeming so a discount code is never burned here. Time
// left on an earlier grant is kept: the new period starts at its expiry.
// Accounts with an open-ended paid subscription are refused before the code
// is burned.
func (s *Service) RedeemPlanCode(ctx context.Context, caller types.Identity, code string) (*Redemption, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, errors.NewInputError(ErrCodeRequired, "Code is required")
	}

	found, err := s.codes.Lookup(ctx, code)
	if err != nil {
		if errors.IsNotFound(err) || errors.IsType(err, errors.ErrorTypeValidation) {
			s.metrics.RecordCodeValidation("redeem", "code_not_found")
			return nil, errors.NewInputError(ErrCodeNotFound, "Invalid code")
		}
		return nil, err
	}
	if found.Type != registry.CodeTypePlan || found.Duration == nil {
		s.metrics.RecordCodeValidation("redeem", "code_not_plan")
		return nil, errors.NewInputError(ErrCodeNotPlan, "This code cannot be redeemed here. Use discount codes at checkout.")
	}
	if found.Used {
		s.metrics.RecordCodeValidation("redeem", "code_already_used")
		return nil, errors.NewInputError(ErrCodeUsed, "Code already used")
	}

	now := s.now()
	start := now
	profile, err := s.profiles.Get(ctx, caller.UserID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}
	if profile.SubscribedAt(now) {
		if profile.SubscriptionExpiresAt == nil {
			s.metrics.RecordCodeValidation("redeem", "already_subscribed")
			return nil, errors.NewAppError(errors.ErrorTypeConflict, ErrAlreadySubscribed,
				"Your PRO subscription is already active")
		}
		start = *profile.SubscriptionExpiresAt
	}

	redeemed, err := s.codes.Redeem(ctx, code, caller.UserID)
	if err != nil {
		return nil, err
	}
	duration := *found.Duration
	if redeemed.Duration != nil {
		duration = *redeemed.Duration
	}

	until := duration.AddTo(start).UTC()
	if err := s.profiles.GrantSubscription(ctx, caller.UserID, until); err != nil {
		s.logger.LogError(ctx, err, "Code redeemed but subscription grant failed", logrus.Fields{
			"code":    code,
			"user_id": caller.UserID,
		})
		return nil, err
	}

	s.metrics.RecordCodeValidation("redeem", "redeemed")
	s.logger.LogBillingEvent(ctx, "plan_code_redeemed", logrus.Fields{
		"user_id":    caller.UserID,
		"duration":   fmt.Sprintf("%d %s", duration.Value, duration.Unit),
		"expires_at": until.Format(time.RFC3339),
	})
	return &Redemption{Code: code, Duration: duration, ExpiresAt: until}, nil
}
