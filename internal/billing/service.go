// Package billing resolves discounts and plan codes, creates checkout
// sessions and applies payment provider events to account profiles.
package billing

import (
	"context"
	"time"

	"github.com/NikhilSetiya/securex/internal/backend"
	"github.com/NikhilSetiya/securex/internal/registry"
	"github.com/NikhilSetiya/securex/pkg/config"
	"github.com/NikhilSetiya/securex/pkg/logging"
	"github.com/NikhilSetiya/securex/pkg/metrics"
)

// SubscriptionNotice describes a completed subscription purchase
type SubscriptionNotice struct {
	CustomerName  string
	CustomerEmail string
	Plan          string
	At            time.Time
}

// Notifier tells operators about new subscriptions
type Notifier interface {
	NotifySubscription(ctx context.Context, n SubscriptionNotice) error
}

// Service implements the billing operations
type Service struct {
	payments PaymentGateway
	codes    registry.Registry
	profiles backend.ProfileStore
	roles    backend.RoleStore
	notifier Notifier

	stripe config.StripeConfig
	server config.ServerConfig

	metrics *metrics.Metrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewService creates the billing service. notifier may be nil.
func NewService(
	cfg *config.Config,
	payments PaymentGateway,
	codes registry.Registry,
	profiles backend.ProfileStore,
	roles backend.RoleStore,
	notifier Notifier,
	m *metrics.Metrics,
) *Service {
	return &Service{
		payments: payments,
		codes:    codes,
		profiles: profiles,
		roles:    roles,
		notifier: notifier,
		stripe:   cfg.Stripe,
		server:   cfg.Server,
		metrics:  m,
		logger:   logging.GetLogger(),
		now:      time.Now,
	}
}
