// Package scans drives a scan from request to terminal state and turns scan
// state into user feedback.
package scans

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/NikhilSetiya/securex/internal/analysis"
	"github.com/NikhilSetiya/securex/internal/backend"
	"github.com/NikhilSetiya/securex/internal/i18n"
	"github.com/NikhilSetiya/securex/internal/session"
	"github.com/NikhilSetiya/securex/pkg/config"
	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/logging"
	"github.com/NikhilSetiya/securex/pkg/metrics"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// Unlimited is reported as the remaining free scans for PRO accounts
const Unlimited = -1

// Dispatcher starts the analysis of a persisted scan. It returns once the
// analysis is running, not when it finishes.
type Dispatcher interface {
	Dispatch(ctx context.Context, caller types.Identity, scan *types.Scan) error
}

// PendingScan is a validated request awaiting the caller's confirmation
type PendingScan struct {
	Input              Input          `json:"input"`
	Target             string         `json:"target"`
	ScanType           types.ScanType `json:"scan_type"`
	Checks             []string       `json:"checks"`
	FreeScansRemaining int            `json:"free_scans_remaining"`
}

// Confirmation is the result of a confirmed scan
type Confirmation struct {
	Scan               *types.Scan `json:"scan"`
	ScansThisMonth     int         `json:"scans_this_month"`
	FreeScansRemaining int         `json:"free_scans_remaining"`
	Message            string      `json:"message"`
}

// Manager implements the scan request and confirmation flow
type Manager struct {
	scans      backend.ScanStore
	profiles   backend.ProfileStore
	dispatcher Dispatcher
	limits     config.LimitsConfig
	metrics    *metrics.Metrics
	logger     *logging.Logger
}

// NewManager creates a scan manager
func NewManager(scans backend.ScanStore, profiles backend.ProfileStore, dispatcher Dispatcher, limits config.LimitsConfig, m *metrics.Metrics) *Manager {
	return &Manager{
		scans:      scans,
		profiles:   profiles,
		dispatcher: dispatcher,
		limits:     limits,
		metrics:    m,
		logger:     logging.GetLogger(),
	}
}

// RequestScan validates input for the session's caller and returns the
// summary to confirm. Nothing is persisted and no external call is made.
func (m *Manager) RequestScan(ctx context.Context, sess *session.Session, in Input) (*PendingScan, error) {
	pending, err := m.validate(sess, in)
	if err != nil {
		outcome := "rejected"
		if errors.IsType(err, errors.ErrorTypeUpgradeRequired) {
			outcome = "upgrade_required"
		}
		kind := string(in.kind())
		if kind == "" {
			kind = "unknown"
		}
		m.metrics.RecordScanRequest(kind, outcome)
		return nil, err
	}
	return pending, nil
}

func (m *Manager) validate(sess *session.Session, in Input) (*PendingScan, error) {
	lang := sess.Lang
	pro := sess.Subscribed()

	var (
		target string
		err    error
	)
	scanType := in.kind()
	switch scanType {
	case types.ScanTypeURL:
		target, err = ValidateURL(lang, in.URL)
	case types.ScanTypeFile:
		limit := m.limits.MaxFileSizeFree
		if pro {
			limit = m.limits.MaxFileSizePro
		}
		target, err = ValidateFile(lang, *in.File, limit)
	case types.ScanTypeGitHub:
		target, err = ValidateRepository(lang, in.Repository)
		if err == nil && !pro {
			err = errors.NewUpgradeRequiredError(i18n.T(lang, "error.github_pro"))
		}
	default:
		err = errors.NewInputError(errors.CodeMissingTarget, i18n.T(lang, "error.missing_target"))
	}
	if err != nil {
		return nil, err
	}

	if !pro && sess.ScansThisMonth() >= m.limits.FreeScansPerMonth {
		return nil, m.quotaError(lang)
	}

	return &PendingScan{
		Input:              in,
		Target:             target,
		ScanType:           scanType,
		Checks:             analysis.CheckCategories,
		FreeScansRemaining: m.remaining(pro, sess.ScansThisMonth()),
	}, nil
}

// ConfirmScan persists the scan in pending and dispatches its analysis.
// The input is validated again so a stale or forged confirmation cannot
// skip the checks.
func (m *Manager) ConfirmScan(ctx context.Context, sess *session.Session, p PendingScan) (*Confirmation, error) {
	pending, err := m.RequestScan(ctx, sess, p.Input)
	if err != nil {
		return nil, err
	}

	// The insert trigger rejects a confirm that lost a race for the last
	// free scan.
	scan, err := m.scans.Create(ctx, sess.UserID(), pending.Target, pending.ScanType)
	if errors.GetCode(err) == errors.CodeQuotaExceeded {
		m.metrics.RecordScanRequest(string(pending.ScanType), "upgrade_required")
		return nil, m.quotaError(sess.Lang)
	}
	if err != nil {
		return nil, err
	}
	m.logger.LogScanEvent(ctx, "scan_created", scan.ID, string(scan.ScanType), logrus.Fields{"user_id": sess.UserID()})

	if err := m.dispatcher.Dispatch(ctx, sess.Identity, scan); err != nil {
		m.logger.LogError(ctx, err, "Analysis dispatch failed", logrus.Fields{"scan_id": scan.ID})
		if markErr := m.scans.MarkFailed(ctx, scan.ID); markErr != nil {
			m.logger.LogError(ctx, markErr, "Could not mark scan failed", logrus.Fields{"scan_id": scan.ID})
		}
		m.metrics.RecordScanRequest(string(scan.ScanType), "dispatch_failed")
		return nil, errors.NewExternalError("analysis", i18n.T(sess.Lang, "scan.failed")).WithCause(err)
	}
	m.metrics.RecordScanRequest(string(scan.ScanType), "accepted")

	// The counter is maintained by the backend; read it back rather than
	// incrementing locally so concurrent scans never drift.
	used := sess.ScansThisMonth()
	if profile, err := m.profiles.Get(ctx, sess.UserID()); err != nil {
		m.logger.WithContext(ctx).WithError(err).Warn("Could not refresh scan counter")
	} else {
		used = profile.ScansThisMonth
	}

	return &Confirmation{
		Scan:               scan,
		ScansThisMonth:     used,
		FreeScansRemaining: m.remaining(sess.Subscribed(), used),
		Message:            i18n.T(sess.Lang, "scan.started"),
	}, nil
}

func (m *Manager) quotaError(lang i18n.Lang) *errors.AppError {
	quota := errors.NewQuotaExceededError(m.limits.FreeScansPerMonth)
	quota.Message = i18n.Format(lang, "error.quota", map[string]string{"limit": quota.Details["limit"]})
	return quota
}

func (m *Manager) remaining(pro bool, used int) int {
	if pro {
		return Unlimited
	}
	if left := m.limits.FreeScansPerMonth - used; left > 0 {
		return left
	}
	return 0
}
