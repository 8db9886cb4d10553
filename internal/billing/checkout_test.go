package billing

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/types"
)

var buyer = types.Identity{UserID: "user-1", Email: "buyer@example.com"}

func TestValidateReturnURL(t *testing.T) {
	svc := newFixture().svc

	tests := []struct {
		name   string
		raw    string
		origin string
		want   string
		ok     bool
	}{
		{"configured origin", "http://localhost:5173/", "", "http://localhost:5173", true},
		{"configured origin with trailing slash", "https://securex.app", "", "https://securex.app", true},
		{"request origin", "https://preview.example.org", "https://preview.example.org/", "https://preview.example.org", true},
		{"trusted suffix", "https://my-app.lovable.app", "", "https://my-app.lovable.app", true},
		{"trusted suffix over http", "http://my-app.lovable.app", "", "", false},
		{"foreign host", "https://evil.example.com", "https://securex.app", "", false},
		{"suffix lookalike", "https://lovable.app.evil.com", "", "", false},
		{"relative", "/dashboard", "", "", false},
		{"javascript scheme", "javascript:alert(1)", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ValidateReturnURL(tt.raw, tt.origin)
			if !tt.ok {
				require.Error(t, err)
				assert.Equal(t, errors.CodeInvalidReturnURL, errors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	ctx := context.Background()
	req := CheckoutRequest{PriceID: "price_annual", ReturnURL: "https://securex.app"}

	t.Run("no code lets the provider page take codes", func(t *testing.T) {
		f := newFixture()
		f.payments.On("FindOrCreateCustomer", mock.Anything, "buyer@example.com", "user-1").Return("cus_1", nil)
		f.profiles.On("SetStripeCustomer", mock.Anything, "user-1", "cus_1").Return(nil)
		f.payments.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p CheckoutParams) bool {
			return p.CustomerID == "cus_1" &&
				p.PromotionCodeID == "" && p.CouponID == "" &&
				p.SuccessURL == "https://securex.app/dashboard?success=true" &&
				p.CancelURL == "https://securex.app/pricing?canceled=true" &&
				p.Metadata["plan_type"] == PlanAnnual && p.Metadata["user_id"] == "user-1" &&
				p.Metadata["code"] == ""
		})).Return("https://checkout.stripe.com/c/pay/cs_1", nil)

		url, err := f.svc.CreateCheckoutSession(ctx, buyer, req)
		require.NoError(t, err)
		assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_1", url)
		f.payments.AssertExpectations(t)
		f.profiles.AssertExpectations(t)
	})

	t.Run("promotion code wins over coupon", func(t *testing.T) {
		f := newFixture()
		f.payments.On("FindOrCreateCustomer", mock.Anything, mock.Anything, mock.Anything).Return("cus_1", nil)
		f.profiles.On("SetStripeCustomer", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.payments.On("FindPromotionCode", mock.Anything, "LAUNCH").Return(&Promotion{ID: "promo_1", Code: "LAUNCH"}, nil)
		f.payments.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p CheckoutParams) bool {
			return p.PromotionCodeID == "promo_1" && p.CouponID == "" && p.Metadata["code"] == "LAUNCH"
		})).Return("https://checkout.stripe.com/c/pay/cs_2", nil)

		r := req
		r.Code = " launch "
		_, err := f.svc.CreateCheckoutSession(ctx, buyer, r)
		require.NoError(t, err)
		f.payments.AssertNotCalled(t, "GetCoupon", mock.Anything, mock.Anything)
	})

	t.Run("coupon fallback", func(t *testing.T) {
		f := newFixture()
		f.payments.On("FindOrCreateCustomer", mock.Anything, mock.Anything, mock.Anything).Return("cus_1", nil)
		f.profiles.On("SetStripeCustomer", mock.Anything, mock.Anything, mock.Anything).Return(stderrors.New("db down"))
		f.payments.On("FindPromotionCode", mock.Anything, "VIP20").Return(nil, nil)
		f.payments.On("GetCoupon", mock.Anything, "vip20").Return(&Coupon{ID: "vip20", Valid: true, PercentOff: 20}, nil)
		f.payments.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p CheckoutParams) bool {
			return p.CouponID == "vip20" && p.PromotionCodeID == ""
		})).Return("https://checkout.stripe.com/c/pay/cs_3", nil)

		r := req
		r.Code = "vip20"
		_, err := f.svc.CreateCheckoutSession(ctx, buyer, r)
		require.NoError(t, err)
	})

	t.Run("unknown price", func(t *testing.T) {
		f := newFixture()
		r := req
		r.PriceID = "price_other"
		_, err := f.svc.CreateCheckoutSession(ctx, buyer, r)
		assert.Equal(t, errors.CodeInvalidPrice, errors.GetCode(err))
		f.payments.AssertNotCalled(t, "FindOrCreateCustomer", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("untrusted return url", func(t *testing.T) {
		f := newFixture()
		r := req
		r.ReturnURL = "https://phish.example.com"
		_, err := f.svc.CreateCheckoutSession(ctx, buyer, r)
		assert.Equal(t, errors.CodeInvalidReturnURL, errors.GetCode(err))
	})

	t.Run("provider failure", func(t *testing.T) {
		f := newFixture()
		f.payments.On("FindOrCreateCustomer", mock.Anything, mock.Anything, mock.Anything).Return("", stderrors.New("timeout"))
		_, err := f.svc.CreateCheckoutSession(ctx, buyer, req)
		assert.True(t, errors.IsType(err, errors.ErrorTypeExternal))
	})
}

func TestListInvoices(t *testing.T) {
	ctx := context.Background()

	t.Run("never paid", func(t *testing.T) {
		f := newFixture()
		f.profiles.On("Get", mock.Anything, "user-1").Return(&types.Profile{UserID: "user-1"}, nil)

		invoices, err := f.svc.ListInvoices(ctx, "user-1")
		require.NoError(t, err)
		assert.NotNil(t, invoices)
		assert.Empty(t, invoices)
		f.payments.AssertNotCalled(t, "ListInvoices", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("customer invoices", func(t *testing.T) {
		f := newFixture()
		cus := "cus_1"
		f.profiles.On("Get", mock.Anything, "user-1").Return(&types.Profile{UserID: "user-1", StripeCustomerID: &cus}, nil)
		f.payments.On("ListInvoices", mock.Anything, "cus_1", 20).Return([]Invoice{{ID: "in_1", Amount: 24.9, Currency: "BRL"}}, nil)

		invoices, err := f.svc.ListInvoices(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, invoices, 1)
		assert.Equal(t, "in_1", invoices[0].ID)
	})
}

func TestToggleAdminPro(t *testing.T) {
	ctx := context.Background()

	t.Run("activates for admins", func(t *testing.T) {
		f := newFixture()
		f.profiles.On("HasRole", mock.Anything, "user-1", types.RoleAdmin).Return(true, nil)
		f.profiles.On("Get", mock.Anything, "user-1").Return(&types.Profile{SubscriptionStatus: types.SubscriptionInactive}, nil)
		f.profiles.On("SetSubscriptionStatus", mock.Anything, "user-1", types.SubscriptionActive).Return(nil)

		status, err := f.svc.ToggleAdminPro(ctx, buyer)
		require.NoError(t, err)
		assert.Equal(t, types.SubscriptionActive, status)
	})

	t.Run("deactivates when active", func(t *testing.T) {
		f := newFixture()
		f.profiles.On("HasRole", mock.Anything, "user-1", types.RoleAdmin).Return(true, nil)
		f.profiles.On("Get", mock.Anything, "user-1").Return(&types.Profile{SubscriptionStatus: types.SubscriptionActive}, nil)
		f.profiles.On("SetSubscriptionStatus", mock.Anything, "user-1", types.SubscriptionInactive).Return(nil)

		status, err := f.svc.ToggleAdminPro(ctx, buyer)
		require.NoError(t, err)
		assert.Equal(t, types.SubscriptionInactive, status)
	})

	t.Run("forbidden for users", func(t *testing.T) {
		f := newFixture()
		f.profiles.On("HasRole", mock.Anything, "user-1", types.RoleAdmin).Return(false, nil)

		_, err := f.svc.ToggleAdminPro(ctx, buyer)
		assert.True(t, errors.IsType(err, errors.ErrorTypeAuthorization))
		f.profiles.AssertNotCalled(t, "SetSubscriptionStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}
