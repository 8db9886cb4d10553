package scans

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/NikhilSetiya/securex/internal/realtime"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// MockScanStore is a mock implementation of backend.ScanStore
type MockScanStore struct {
	mock.Mock
}

func (m *MockScanStore) Create(ctx context.Context, userID, target string, scanType types.ScanType) (*types.Scan, error) {
	args := m.Called(ctx, userID, target, scanType)
	if s, ok := args.Get(0).(*types.Scan); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScanStore) Get(ctx context.Context, id string) (*types.Scan, error) {
	args := m.Called(ctx, id)
	if s, ok := args.Get(0).(*types.Scan); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScanStore) GetOwned(ctx context.Context, id, userID string) (*types.Scan, error) {
	args := m.Called(ctx, id, userID)
	if s, ok := args.Get(0).(*types.Scan); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScanStore) ListByUser(ctx context.Context, userID string) ([]types.Scan, error) {
	args := m.Called(ctx, userID)
	if l, ok := args.Get(0).([]types.Scan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
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

// MockProfileStore is a mock implementation of backend.ProfileStore
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) Get(ctx context.Context, userID string) (*types.Profile, error) {
	args := m.Called(ctx, userID)
	if p, ok := args.Get(0).(*types.Profile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileStore) SetSubscriptionStatus(ctx context.Context, userID string, status types.SubscriptionStatus) error {
	return m.Called(ctx, userID, status).Error(0)
}

func (m *MockProfileStore) SetStripeCustomer(ctx context.Context, userID, customerID string) error {
	return m.Called(ctx, userID, customerID).Error(0)
}

func (m *MockProfileStore) ActivateFromCheckout(ctx context.Context, userID, customerID string) error {
	return m.Called(ctx, userID, customerID).Error(0)
}

func (m *MockProfileStore) DeactivateByCustomer(ctx context.Context, customerID string) error {
	return m.Called(ctx, customerID).Error(0)
}

func (m *MockProfileStore) GrantSubscription(ctx context.Context, userID string, until time.Time) error {
	return m.Called(ctx, userID, until).Error(0)
}

// MockDispatcher is a mock implementation of Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, caller types.Identity, scan *types.Scan) error {
	return m.Called(ctx, caller, scan).Error(0)
}

// fakeFeed hands out a channel the test drives
type fakeFeed struct {
	changes chan realtime.Change
	err     error
}

func (f *fakeFeed) Subscribe(ctx context.Context, userID, accessToken string) (<-chan realtime.Change, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.changes, nil
}
