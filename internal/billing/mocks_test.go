package billing

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/NikhilSetiya/securex/internal/registry"
	"github.com/NikhilSetiya/securex/pkg/config"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// MockPayments is a mock implementation of PaymentGateway
type MockPayments struct {
	mock.Mock
}

func (m *MockPayments) FindOrCreateCustomer(ctx context.Context, email, userID string) (string, error) {
	args := m.Called(ctx, email, userID)
	return args.String(0), args.Error(1)
}

func (m *MockPayments) FindPromotionCode(ctx context.Context, code string) (*Promotion, error) {
	args := m.Called(ctx, code)
	p, _ := args.Get(0).(*Promotion)
	return p, args.Error(1)
}

func (m *MockPayments) GetCoupon(ctx context.Context, id string) (*Coupon, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*Coupon)
	return c, args.Error(1)
}

func (m *MockPayments) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *MockPayments) ListInvoices(ctx context.Context, customerID string, limit int) ([]Invoice, error) {
	args := m.Called(ctx, customerID, limit)
	l, _ := args.Get(0).([]Invoice)
	return l, args.Error(1)
}

// MockRegistry is a mock implementation of registry.Registry
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Lookup(ctx context.Context, code string) (*registry.Code, error) {
	args := m.Called(ctx, code)
	c, _ := args.Get(0).(*registry.Code)
	return c, args.Error(1)
}

func (m *MockRegistry) Redeem(ctx context.Context, code, redeemerID string) (*registry.Code, error) {
	args := m.Called(ctx, code, redeemerID)
	c, _ := args.Get(0).(*registry.Code)
	return c, args.Error(1)
}

// MockProfiles is a mock implementation of backend.ProfileStore and backend.RoleStore
type MockProfiles struct {
	mock.Mock
}

func (m *MockProfiles) Get(ctx context.Context, userID string) (*types.Profile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*types.Profile)
	return p, args.Error(1)
}

func (m *MockProfiles) SetSubscriptionStatus(ctx context.Context, userID string, status types.SubscriptionStatus) error {
	return m.Called(ctx, userID, status).Error(0)
}

func (m *MockProfiles) SetStripeCustomer(ctx context.Context, userID, customerID string) error {
	return m.Called(ctx, userID, customerID).Error(0)
}

func (m *MockProfiles) ActivateFromCheckout(ctx context.Context, userID, customerID string) error {
	return m.Called(ctx, userID, customerID).Error(0)
}

func (m *MockProfiles) DeactivateByCustomer(ctx context.Context, customerID string) error {
	return m.Called(ctx, customerID).Error(0)
}

func (m *MockProfiles) GrantSubscription(ctx context.Context, userID string, until time.Time) error {
	return m.Called(ctx, userID, until).Error(0)
}

func (m *MockProfiles) HasRole(ctx context.Context, userID, role string) (bool, error) {
	args := m.Called(ctx, userID, role)
	return args.Bool(0), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifySubscription(ctx context.Context, n SubscriptionNotice) error {
	return m.Called(ctx, n).Error(0)
}

var fixedNow = time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	payments *MockPayments
	codes    *MockRegistry
	profiles *MockProfiles
	notifier *MockNotifier
}

func newFixture() *fixture {
	cfg := &config.Config{
		Server: config.ServerConfig{
			AllowedOrigins:    []string{"http://localhost:5173", "https://securex.app/"},
			TrustedHostSuffix: ".lovable.app",
		},
		Stripe: config.StripeConfig{
			WebhookSecret: "whsec_test",
			PriceMonthly:  "price_monthly",
			PriceAnnual:   "price_annual",
			InvoiceLimit:  20,
		},
	}
	f := &fixture{
		payments: new(MockPayments),
		codes:    new(MockRegistry),
		profiles: new(MockProfiles),
		notifier: new(MockNotifier),
	}
	f.svc = NewService(cfg, f.payments, f.codes, f.profiles, f.profiles, f.notifier, nil)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}
