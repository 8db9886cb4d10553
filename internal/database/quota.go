package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/NikhilSetiya/securex/pkg/errors"
)

// UsageRow is one account's monthly counter
type UsageRow struct {
	UserID             string `db:"user_id"`
	SubscriptionStatus string `db:"subscription_status"`
	ScansThisMonth     int    `db:"scans_this_month"`
}

// QuotaStore runs monthly quota maintenance
type QuotaStore struct {
	db *sqlx.DB
}

// NewQuotaStore creates a quota store
func NewQuotaStore(db *sqlx.DB) *QuotaStore {
	return &QuotaStore{db: db}
}

// AtLimit lists free accounts that reached limit this month
func (s *QuotaStore) AtLimit(ctx context.Context, limit int) ([]UsageRow, error) {
	var rows []UsageRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT user_id, subscription_status, scans_this_month
		  FROM public.profiles
		 WHERE subscription_status <> 'active' AND scans_this_month >= $1
		 ORDER BY scans_this_month DESC`, limit)
	if err != nil {
		return nil, errors.NewInternalError("failed to list accounts at limit").WithCause(err)
	}
	return rows, nil
}

// ResetMonthly zeroes every scan counter and lapses redeemed plans that
// expired before now. It returns the number of counters reset.
func (s *QuotaStore) ResetMonthly(ctx context.Context, now time.Time) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.NewInternalError("failed to begin transaction").WithCause(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE public.profiles SET scans_this_month = 0 WHERE scans_this_month <> 0`)
	if err != nil {
		return 0, errors.NewInternalError("failed to reset scan counters").WithCause(err)
	}
	reset, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewInternalError("failed to read reset count").WithCause(err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE public.profiles
		   SET subscription_status = 'inactive', subscription_expires_at = NULL
		 WHERE subscription_status = 'active'
		   AND subscription_expires_at IS NOT NULL
		   AND subscription_expires_at < $1`, now.UTC()); err != nil {
		return 0, errors.NewInternalError("failed to lapse expired plans").WithCause(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewInternalError("failed to commit quota reset").WithCause(err)
	}
	return reset, nil
}
