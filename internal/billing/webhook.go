package billing

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/NikhilSetiya/securex/pkg/errors"
)

// Provider event types handled by HandleWebhook
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// CodeInvalidSignature rejects unsigned or tampered webhook deliveries
const CodeInvalidSignature = "INVALID_SIGNATURE"

// annualAmountThreshold separates annual from monthly purchases, in minor
// units, when the session carries no plan metadata.
const annualAmountThreshold = 5000

// HandleWebhook verifies a provider delivery and applies it. Nothing is
// read from the payload before the signature checks out.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (string, error) {
	if signature == "" {
		s.metrics.RecordWebhook("unknown", "rejected")
		return "", errors.NewInputError(CodeInvalidSignature, "No signature")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.stripe.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		s.metrics.RecordWebhook("unknown", "rejected")
		s.logger.WithContext(ctx).WithError(err).Warn("Webhook signature verification failed")
		return "", errors.NewInputError(CodeInvalidSignature, "Invalid signature")
	}

	eventType := string(event.Type)
	switch eventType {
	case EventCheckoutCompleted:
		err = s.checkoutCompleted(ctx, event)
	case EventSubscriptionDeleted:
		err = s.subscriptionDeleted(ctx, event)
	default:
		s.metrics.RecordWebhook(eventType, "ignored")
		return eventType, nil
	}

	if err != nil {
		s.metrics.RecordWebhook(eventType, "failed")
		return eventType, err
	}
	s.metrics.RecordWebhook(eventType, "processed")
	return eventType, nil
}

func (s *Service) checkoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return errors.NewValidationError("Malformed checkout session").WithCause(err)
	}

	email := session.CustomerEmail
	name := ""
	if session.CustomerDetails != nil {
		if email == "" {
			email = session.CustomerDetails.Email
		}
		name = session.CustomerDetails.Name
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	customerID := ""
	if session.Customer != nil {
		customerID = session.Customer.ID
	}

	userID := session.ClientReferenceID
	if userID == "" {
		userID = session.Metadata["user_id"]
	}
	if userID != "" {
		if err := s.profiles.ActivateFromCheckout(ctx, userID, customerID); err != nil {
			s.logger.LogError(ctx, err, "Subscription activation failed", logrus.Fields{"session_id": session.ID})
			return err
		}
	} else {
		s.logger.LogBillingEvent(ctx, "checkout_without_account", logrus.Fields{"session_id": session.ID})
	}

	if code := session.Metadata["code"]; code != "" {
		if _, err := s.codes.Redeem(ctx, code, email); err != nil {
			s.logger.LogError(ctx, err, "Code redemption failed", logrus.Fields{"session_id": session.ID})
		}
	}

	if s.notifier != nil {
		notice := SubscriptionNotice{
			CustomerName:  name,
			CustomerEmail: email,
			Plan:          PlanFromSession(session.Metadata, session.AmountTotal),
			At:            s.now(),
		}
		if err := s.notifier.NotifySubscription(ctx, notice); err != nil {
			s.logger.LogError(ctx, err, "Subscription notification failed", logrus.Fields{"session_id": session.ID})
		}
	}

	s.logger.LogBillingEvent(ctx, "subscription_activated", logrus.Fields{
		"session_id": session.ID,
		"user_id":    userID,
	})
	return nil
}

func (s *Service) subscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return errors.NewValidationError("Malformed subscription").WithCause(err)
	}
	if sub.Customer == nil || sub.Customer.ID == "" {
		return nil
	}

	err := s.profiles.DeactivateByCustomer(ctx, sub.Customer.ID)
	if errors.IsNotFound(err) {
		s.logger.LogBillingEvent(ctx, "subscription_deleted_unknown_customer", logrus.Fields{"customer_id": sub.Customer.ID})
		return nil
	}
	if err != nil {
		return err
	}
	s.logger.LogBillingEvent(ctx, "subscription_deactivated", logrus.Fields{"customer_id": sub.Customer.ID})
	return nil
}

// PlanFromSession names the purchased plan from metadata, falling back to
// the amount paid.
func PlanFromSession(metadata map[string]string, amountTotal int64) string {
	switch metadata["plan_type"] {
	case PlanAnnual:
		return PlanAnnual
	case PlanMonthly:
		return PlanMonthly
	}
	if amountTotal > annualAmountThreshold {
		return PlanAnnual
	}
	if amountTotal > 0 {
		return PlanMonthly
	}
	return ""
}
