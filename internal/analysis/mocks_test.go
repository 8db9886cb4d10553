package analysis

import (
	"context"

	"github.com/stretchr/testify/mock"

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
	return args.Get(0).([]types.Scan), args.Error(1)
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

// MockGateway is a mock implementation of Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Complete(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

// MockInspector is a mock implementation of RepoInspector
type MockInspector struct {
	mock.Mock
}

func (m *MockInspector) Inspect(ctx context.Context, repoURL string) (*RepoMetadata, error) {
	args := m.Called(ctx, repoURL)
	if r, ok := args.Get(0).(*RepoMetadata); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAlerter is a mock implementation of CriticalAlerter
type MockAlerter struct {
	mock.Mock
}

func (m *MockAlerter) AlertCritical(ctx context.Context, scan *types.Scan, report *types.Report) error {
	return m.Called(ctx, scan, report).Error(0)
}
