package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/loan-service/internal/config"
	"github.com/spec-kit/loan-service/internal/domain"
	"github.com/spec-kit/loan-service/internal/events"
)

// Mailer delivers a rendered message to one recipient. The default
// implementation logs the message; production deployments plug in a real
// provider here.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes outbound messages to the structured log instead of
// delivering them. Verification codes stay retrievable from the log when no
// mail provider is configured.
type LogMailer struct {
	logger *zap.Logger
	from   string
}

// NewLogMailer builds the fallback mailer.
func NewLogMailer(logger *zap.Logger, from string) *LogMailer {
	return &LogMailer{logger: logger, from: from}
}

// Send logs the message.
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.logger.Info("outbound email",
		zap.String("from", m.from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// NotificationService turns domain events into outbound messages. Delivery is
// best effort; failures are logged and never surface to the flow that emitted
// the event.
type NotificationService struct {
	mailer Mailer
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService constructs the service. A nil mailer falls back to
// the logging mailer.
func NewNotificationService(cfg config.Config, mailer Mailer, logger *zap.Logger) *NotificationService {
	if mailer == nil {
		mailer = NewLogMailer(logger, cfg.Notification.EmailFrom)
	}
	return &NotificationService{mailer: mailer, logger: logger, cfg: cfg.Notification}
}

// Register subscribes the service to the events it delivers.
func (n *NotificationService) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventChallengeIssued, n.handleChallengeIssued)
	dispatcher.Subscribe(events.EventLoanSubmitted, n.handleLoanSubmitted)
	dispatcher.Subscribe(events.EventLoanDecided, n.handleLoanDecided)
}

func (n *NotificationService) handleChallengeIssued(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ChallengeIssuedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", event.Payload, event.Type)
	}

	var subject string
	switch payload.Kind {
	case domain.ChallengeRegistration:
		subject = "Confirm your registration"
	case domain.ChallengeLogin:
		subject = "Your login verification code"
	case domain.ChallengePasswordReset:
		subject = "Your password reset code"
	default:
		subject = "Your verification code"
	}

	body := fmt.Sprintf("Hello %s,\n\nYour verification code is %s. It expires at %s.",
		payload.DisplayName, payload.Code, payload.ExpiresAt.UTC().Format("15:04 MST"))

	if err := n.mailer.Send(ctx, payload.Address, subject, body); err != nil {
		// The code must remain reachable by operators even when delivery fails.
		n.logger.Warn("verification code delivery failed",
			zap.String("challenge_id", payload.ChallengeID),
			zap.String("kind", string(payload.Kind)),
			zap.String("code", payload.Code),
			zap.Error(err),
		)
	}
	return nil
}

func (n *NotificationService) handleLoanSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LoanSubmittedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("loan submitted",
		zap.String("loan_id", payload.LoanID),
		zap.String("user_id", payload.UserID),
		zap.Float64("amount", payload.Amount),
	)
	n.postWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleLoanDecided(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LoanDecidedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", event.Payload, event.Type)
	}

	var subject, body string
	switch payload.Decision {
	case domain.LoanStatusApproved:
		subject = "Your loan application was approved"
		body = fmt.Sprintf("Hello %s,\n\nYour loan application for %.2f (%s) has been approved.",
			payload.DisplayName, payload.Amount, payload.Purpose)
	case domain.LoanStatusRejected:
		reason := "Not specified"
		if payload.Reason != nil {
			reason = domain.ReasonLabel(*payload.Reason)
		}
		subject = "Your loan application was rejected"
		body = fmt.Sprintf("Hello %s,\n\nYour loan application for %.2f (%s) has been rejected.\nReason: %s",
			payload.DisplayName, payload.Amount, payload.Purpose, reason)
	default:
		return nil
	}
	if payload.Notes != nil && *payload.Notes != "" {
		body += fmt.Sprintf("\nReviewer notes: %s", *payload.Notes)
	}

	if err := n.mailer.Send(ctx, payload.Address, subject, body); err != nil {
		n.logger.Warn("decision notification delivery failed",
			zap.String("loan_id", payload.LoanID),
			zap.Error(err),
		)
	}
	n.postWebhookStub(ctx, event)
	return nil
}

// postWebhookStub reports loan events to the configured webhook endpoint.
// Delivery is stubbed; the hook exists so a deployment can watch loan traffic
// from an external system.
func (n *NotificationService) postWebhookStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("webhook notification",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
	)
}
