// Package notifications posts operational events to the team chat webhook.
package notifications

import (
	"context"
	"net/http"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/NikhilSetiya/securex/internal/billing"
	"github.com/NikhilSetiya/securex/pkg/config"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// ChatNotifier sends subscription and critical scan notices. With no
// webhook URL configured every notice is dropped.
type ChatNotifier struct {
	logger       *zap.Logger
	handler      *DiscordHandler
	webhookURL   string
	dashboardURL string
	location     *time.Location
	now          func() time.Time
}

// NewChatNotifier creates a notifier from config. An unknown timezone falls
// back to UTC.
func NewChatNotifier(cfg config.NotificationsConfig, dashboardURL string, logger *zap.Logger, httpClient *http.Client) *ChatNotifier {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("Unknown notification timezone, using UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}
	return &ChatNotifier{
		logger:       logger,
		handler:      NewDiscordHandler(logger, httpClient),
		webhookURL:   cfg.ChatWebhookURL,
		dashboardURL: dashboardURL,
		location:     loc,
		now:          time.Now,
	}
}

// Enabled reports whether a webhook is configured
func (n *ChatNotifier) Enabled() bool {
	return n != nil && n.webhookURL != ""
}

// NotifySubscription announces a new PRO subscription
func (n *ChatNotifier) NotifySubscription(ctx context.Context, notice billing.SubscriptionNotice) error {
	if !n.Enabled() {
		return nil
	}
	at := notice.At
	if at.IsZero() {
		at = n.now()
	}

	n.logger.Info("Sending subscription notification",
		zap.String("plan", notice.Plan),
		zap.Time("at", at))

	embed := subscriptionEmbed(notice.CustomerName, notice.CustomerEmail, notice.Plan, at, n.location)
	return n.handler.Send(ctx, n.webhookURL, DiscordMessage{Embeds: []DiscordEmbed{embed}})
}

// AlertCritical reports a completed scan with critical findings
func (n *ChatNotifier) AlertCritical(ctx context.Context, scan *types.Scan, report *types.Report) error {
	if !n.Enabled() || scan == nil || report == nil || report.Summary.Critical == 0 {
		return nil
	}

	n.logger.Info("Sending critical finding notification",
		zap.String("scan_id", scan.ID),
		zap.String("scan_type", string(scan.ScanType)),
		zap.Int("critical", report.Summary.Critical))

	embed := criticalEmbed(scan, report, n.dashboardURL, n.now())
	return n.handler.Send(ctx, n.webhookURL, DiscordMessage{Embeds: []DiscordEmbed{embed}})
}
