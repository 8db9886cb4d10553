package backend

import (
	"context"
	"time"

	"github.com/NikhilSetiya/securex/pkg/errors"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// ProfileStore reads and updates per-account billing state
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*types.Profile, error)
	SetSubscriptionStatus(ctx context.Context, userID string, status types.SubscriptionStatus) error
	SetStripeCustomer(ctx context.Context, userID, customerID string) error
	ActivateFromCheckout(ctx context.Context, userID, customerID string) error
	DeactivateByCustomer(ctx context.Context, customerID string) error
	GrantSubscription(ctx context.Context, userID string, until time.Time) error
}

// RoleStore answers role membership questions server side
type RoleStore interface {
	HasRole(ctx context.Context, userID, role string) (bool, error)
}

// SupabaseProfileStore implements ProfileStore and RoleStore over PostgREST
type SupabaseProfileStore struct {
	client *Client
}

// NewProfileStore creates a profile store
func NewProfileStore(client *Client) *SupabaseProfileStore {
	return &SupabaseProfileStore{client: client}
}

// Get returns the profile for userID
func (s *SupabaseProfileStore) Get(ctx context.Context, userID string) (*types.Profile, error) {
	var rows []types.Profile
	_, err := s.client.from(TableProfiles).
		Select("*", "", false).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, storeError("get_profile", err)
	}
	if len(rows) == 0 {
		return nil, errors.NewNotFoundError("Profile")
	}
	return &rows[0], nil
}

// SetSubscriptionStatus flips the subscription flag. Manual toggles clear
// any redeemed expiry.
func (s *SupabaseProfileStore) SetSubscriptionStatus(ctx context.Context, userID string, status types.SubscriptionStatus) error {
	return s.update("set_subscription_status", "user_id", userID, map[string]interface{}{
		"subscription_status":     status,
		"subscription_expires_at": nil,
	})
}

// SetStripeCustomer stores the payment provider customer id
func (s *SupabaseProfileStore) SetStripeCustomer(ctx context.Context, userID, customerID string) error {
	return s.update("set_stripe_customer", "user_id", userID, map[string]interface{}{
		"stripe_customer_id": customerID,
	})
}

// ActivateFromCheckout marks a paid subscription active
func (s *SupabaseProfileStore) ActivateFromCheckout(ctx context.Context, userID, customerID string) error {
	patch := map[string]interface{}{
		"subscription_status":     types.SubscriptionActive,
		"subscription_expires_at": nil,
	}
	if customerID != "" {
		patch["stripe_customer_id"] = customerID
	}
	return s.update("activate_subscription", "user_id", userID, patch)
}

// DeactivateByCustomer ends the subscription of whichever profile holds customerID
func (s *SupabaseProfileStore) DeactivateByCustomer(ctx context.Context, customerID string) error {
	return s.update("deactivate_subscription", "stripe_customer_id", customerID, map[string]interface{}{
		"subscription_status": types.SubscriptionInactive,
	})
}

// GrantSubscription activates PRO until the given instant
func (s *SupabaseProfileStore) GrantSubscription(ctx context.Context, userID string, until time.Time) error {
	return s.update("grant_subscription", "user_id", userID, map[string]interface{}{
		"subscription_status":     types.SubscriptionActive,
		"subscription_expires_at": until.UTC().Format(time.RFC3339),
	})
}

func (s *SupabaseProfileStore) update(op, column, value string, patch map[string]interface{}) error {
	var rows []types.Profile
	_, err := s.client.from(TableProfiles).
		Update(patch, "representation", "").
		Eq(column, value).
		ExecuteTo(&rows)
	if err != nil {
		return storeError(op, err)
	}
	if len(rows) == 0 {
		return errors.NewNotFoundError("Profile")
	}
	return nil
}

type roleRow struct {
	Role string `json:"role"`
}

// HasRole reports whether userID holds role
func (s *SupabaseProfileStore) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var rows []roleRow
	_, err := s.client.from(TableUserRoles).
		Select("role", "", false).
		Eq("user_id", userID).
		Eq("role", role).
		ExecuteTo(&rows)
	if err != nil {
		return false, storeError("has_role", err)
	}
	return len(rows) > 0, nil
}
