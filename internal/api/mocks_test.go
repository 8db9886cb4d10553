package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/NikhilSetiya/securex/internal/analysis"
	"github.com/NikhilSetiya/securex/internal/billing"
	"github.com/NikhilSetiya/securex/internal/export"
	"github.com/NikhilSetiya/securex/internal/ratelimit"
	"github.com/NikhilSetiya/securex/internal/scans"
	"github.com/NikhilSetiya/securex/internal/session"
	"github.com/NikhilSetiya/securex/pkg/config"
	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/types"
)

const (
	testToken  = "token-abc"
	testUserID = "user-1"
)

var testIdentity = types.Identity{UserID: testUserID, Email: "ana@example.com"}

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, token string) (*types.Identity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Identity), args.Error(1)
}

type MockScanStore struct {
	mock.Mock
}

func (m *MockScanStore) Create(ctx context.Context, userID, target string, scanType types.ScanType) (*types.Scan, error) {
	args := m.Called(ctx, userID, target, scanType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Scan), args.Error(1)
}

func (m *MockScanStore) Get(ctx context.Context, id string) (*types.Scan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Scan), args.Error(1)
}

func (m *MockScanStore) GetOwned(ctx context.Context, id, userID string) (*types.Scan, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Scan), args.Error(1)
}

func (m *MockScanStore) ListByUser(ctx context.Context, userID string) ([]types.Scan, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]types.Scan)
	return list, args.Error(1)
}

func (m *MockScanStore) MarkProcessing(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockScanStore) Complete(ctx context.Context, id string, report *types.Report) error {
	return m.Called(ctx, id, report).Error(0)
}

func (m *MockScanStore) MarkFailed(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockProfiles implements both ProfileStore and RoleStore
type MockProfiles struct {
	mock.Mock
}

func (m *MockProfiles) Get(ctx context.Context, userID string) (*types.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Profile), args.Error(1)
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

type MockManager struct {
	mock.Mock
}

func (m *MockManager) RequestScan(ctx context.Context, sess *session.Session, in scans.Input) (*scans.PendingScan, error) {
	args := m.Called(ctx, sess, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scans.PendingScan), args.Error(1)
}

func (m *MockManager) ConfirmScan(ctx context.Context, sess *session.Session, p scans.PendingScan) (*scans.Confirmation, error) {
	args := m.Called(ctx, sess, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scans.Confirmation), args.Error(1)
}

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, caller types.Identity, scanID string) (*analysis.Result, error) {
	args := m.Called(ctx, caller, scanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analysis.Result), args.Error(1)
}

type MockBilling struct {
	mock.Mock
}

func (m *MockBilling) ValidateCode(ctx context.Context, code string) *billing.CodeCheck {
	return m.Called(ctx, code).Get(0).(*billing.CodeCheck)
}

func (m *MockBilling) ValidatePromotion(ctx context.Context, code string) *billing.CodeCheck {
	return m.Called(ctx, code).Get(0).(*billing.CodeCheck)
}

func (m *MockBilling) RedeemPlanCode(ctx context.Context, caller types.Identity, code string) (*billing.Redemption, error) {
	args := m.Called(ctx, caller, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Redemption), args.Error(1)
}

func (m *MockBilling) CreateCheckoutSession(ctx context.Context, caller types.Identity, req billing.CheckoutRequest) (string, error) {
	args := m.Called(ctx, caller, req)
	return args.String(0), args.Error(1)
}

func (m *MockBilling) ListInvoices(ctx context.Context, userID string) ([]billing.Invoice, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]billing.Invoice)
	return list, args.Error(1)
}

func (m *MockBilling) ToggleAdminPro(ctx context.Context, caller types.Identity) (types.SubscriptionStatus, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).(types.SubscriptionStatus), args.Error(1)
}

func (m *MockBilling) HandleWebhook(ctx context.Context, payload []byte, signature string) (string, error) {
	args := m.Called(ctx, payload, signature)
	return args.String(0), args.Error(1)
}

// fakeWatcher replays a fixed set of updates then holds the stream open
// until the subscriber goes away.
type fakeWatcher struct {
	updates []scans.Update
	err     error
	gotSess chan *session.Session
}

func (f *fakeWatcher) Watch(ctx context.Context, sess *session.Session) (<-chan scans.Update, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.gotSess != nil {
		f.gotSess <- sess
	}
	out := make(chan scans.Update)
	go func() {
		defer close(out)
		for _, u := range f.updates {
			select {
			case out <- u:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return out, nil
}

// fixture bundles the mocks behind a router
type fixture struct {
	cfg      *config.Config
	auth     *MockAuthenticator
	store    *MockScanStore
	profiles *MockProfiles
	manager  *MockManager
	analyzer *MockAnalyzer
	billing  *MockBilling
	watcher  *fakeWatcher
	health   map[string]HealthChecker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return &fixture{
		cfg: &config.Config{
			Server:  config.ServerConfig{WebDir: t.TempDir()},
			Limits:  config.LimitsConfig{FreeScansPerMonth: 5, MaxFileSizeFree: 50 << 20, MaxFileSizePro: 600 << 20, CodeAttemptsPerMinute: 3},
			Logging: config.LoggingConfig{Level: "info"},
		},
		auth:     new(MockAuthenticator),
		store:    new(MockScanStore),
		profiles: new(MockProfiles),
		manager:  new(MockManager),
		analyzer: new(MockAnalyzer),
		billing:  new(MockBilling),
		watcher:  &fakeWatcher{},
	}
}

// signedIn makes testToken authenticate as testIdentity with profile
func (f *fixture) signedIn(profile *types.Profile, admin bool) {
	f.auth.On("Authenticate", mock.Anything, testToken).Return(&testIdentity, nil)
	f.auth.On("Authenticate", mock.Anything, mock.Anything).
		Return(nil, errors.NewAuthenticationError("Invalid or expired token"))
	if profile == nil {
		f.profiles.On("Get", mock.Anything, testUserID).Return(nil, errors.NewNotFoundError("Profile"))
	} else {
		f.profiles.On("Get", mock.Anything, testUserID).Return(profile, nil)
	}
	f.profiles.On("HasRole", mock.Anything, testUserID, types.RoleAdmin).Return(admin, nil)
}

func (f *fixture) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := NewRouter(Dependencies{
		Config:        f.cfg,
		Authenticator: f.auth,
		Scans:         f.store,
		Profiles:      f.profiles,
		Roles:         f.profiles,
		Manager:       f.manager,
		Analyzer:      f.analyzer,
		Watcher:       f.watcher,
		Billing:       f.billing,
		Exporter:      export.NewExporter(),
		Limiter:       ratelimit.NewMemoryLimiter(f.cfg.Limits.CodeAttemptsPerMinute, time.Minute),
		Health:        f.health,
	})
	gin.SetMode(gin.TestMode)
	return r
}

func freeProfile() *types.Profile {
	return &types.Profile{UserID: testUserID, SubscriptionStatus: types.SubscriptionInactive, ScansThisMonth: 2}
}

func proProfile() *types.Profile {
	return &types.Profile{UserID: testUserID, SubscriptionStatus: types.SubscriptionActive}
}

func do(r http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer() map[string]string {
	return map[string]string{"Authorization": "Bearer " + testToken}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}
