package backend

import (
	"context"
	"strings"

	"github.com/supabase-community/postgrest-go"

	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// ScanStore persists scans. Status writes are conditional on the current
// status so a terminal scan can never be moved.
type ScanStore interface {
	Create(ctx context.Context, userID, target string, scanType types.ScanType) (*types.Scan, error)
	Get(ctx context.Context, id string) (*types.Scan, error)
	GetOwned(ctx context.Context, id, userID string) (*types.Scan, error)
	ListByUser(ctx context.Context, userID string) ([]types.Scan, error)
	MarkProcessing(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, report *types.Report) error
	MarkFailed(ctx context.Context, id string) error
}

// SupabaseScanStore implements ScanStore over PostgREST
type SupabaseScanStore struct {
	client *Client
}

// NewScanStore creates a scan store
func NewScanStore(client *Client) *SupabaseScanStore {
	return &SupabaseScanStore{client: client}
}

type scanInsert struct {
	UserID   string           `json:"user_id"`
	Target   string           `json:"target"`
	ScanType types.ScanType   `json:"scan_type"`
	Status   types.ScanStatus `json:"status"`
}

// Create inserts a pending scan and returns the stored row
func (s *SupabaseScanStore) Create(ctx context.Context, userID, target string, scanType types.ScanType) (*types.Scan, error) {
	var rows []types.Scan
	_, err := s.client.from(TableScans).
		Insert(scanInsert{UserID: userID, Target: target, ScanType: scanType, Status: types.ScanStatusPending}, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		// raised by the on_scan_quota insert trigger
		if strings.Contains(err.Error(), errors.CodeQuotaExceeded) {
			return nil, errors.NewAppError(errors.ErrorTypeUpgradeRequired, errors.CodeQuotaExceeded, "Free plan limit reached").WithCause(err)
		}
		return nil, storeError("create_scan", err)
	}
	if len(rows) == 0 {
		return nil, errors.NewInternalError("Scan insert returned no row")
	}
	return &rows[0], nil
}

// Get returns a scan by id regardless of owner
func (s *SupabaseScanStore) Get(ctx context.Context, id string) (*types.Scan, error) {
	var rows []types.Scan
	_, err := s.client.from(TableScans).
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return nil, storeError("get_scan", err)
	}
	if len(rows) == 0 {
		return nil, errors.NewNotFoundError("Scan")
	}
	return &rows[0], nil
}

// GetOwned returns a scan only when userID owns it. Scans owned by someone
// else are reported as not found.
func (s *SupabaseScanStore) GetOwned(ctx context.Context, id, userID string) (*types.Scan, error) {
	var rows []types.Scan
	_, err := s.client.from(TableScans).
		Select("*", "", false).
		Eq("id", id).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, storeError("get_owned_scan", err)
	}
	if len(rows) == 0 {
		return nil, errors.NewNotFoundError("Scan")
	}
	return &rows[0], nil
}

// ListByUser returns the user's scans, newest first
func (s *SupabaseScanStore) ListByUser(ctx context.Context, userID string) ([]types.Scan, error) {
	rows := []types.Scan{}
	_, err := s.client.from(TableScans).
		Select("*", "", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, storeError("list_scans", err)
	}
	return rows, nil
}

// MarkProcessing moves a pending scan to processing
func (s *SupabaseScanStore) MarkProcessing(ctx context.Context, id string) error {
	return s.transition(id, types.ScanStatusProcessing, map[string]interface{}{
		"status": types.ScanStatusProcessing,
	})
}

// Complete writes the terminal status, severity, count and report in one update
func (s *SupabaseScanStore) Complete(ctx context.Context, id string, report *types.Report) error {
	return s.transition(id, types.ScanStatusCompleted, map[string]interface{}{
		"status":                types.ScanStatusCompleted,
		"severity":              report.OverallSeverity,
		"vulnerabilities_count": report.Summary.Total,
		"result":                report,
	})
}

// MarkFailed moves a non-terminal scan to failed
func (s *SupabaseScanStore) MarkFailed(ctx context.Context, id string) error {
	return s.transition(id, types.ScanStatusFailed, map[string]interface{}{
		"status": types.ScanStatusFailed,
	})
}

// transition updates the row only while it is in a status allowed to move
// to the target, so concurrent writers cannot resurrect a terminal scan.
func (s *SupabaseScanStore) transition(id string, to types.ScanStatus, patch map[string]interface{}) error {
	var from []string
	for _, st := range []types.ScanStatus{types.ScanStatusPending, types.ScanStatusProcessing, types.ScanStatusCompleted, types.ScanStatusFailed} {
		if types.CanTransition(st, to) {
			from = append(from, string(st))
		}
	}

	var rows []types.Scan
	_, err := s.client.from(TableScans).
		Update(patch, "representation", "").
		Eq("id", id).
		In("status", from).
		ExecuteTo(&rows)
	if err != nil {
		return storeError("update_scan", err)
	}
	if len(rows) == 0 {
		return errors.NewConflictError("Scan cannot move to " + string(to)).WithDetail("scan_id", id)
	}
	return nil
}
