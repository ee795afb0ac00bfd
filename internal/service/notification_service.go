package service

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/automation-hub/internal/config"
	"github.com/spec-kit/automation-hub/internal/events"
)

// Delivery methods reported by SendEmail.
const (
	DeliverySMTP    = "smtp"
	DeliveryConsole = "console"
)

// NotificationService delivers email notifications on a best-effort basis.
// Without SMTP credentials every send degrades to a structured log line;
// delivery problems never fail the triggering operation.
type NotificationService struct {
	cfg      config.SMTPConfig
	logger   *zap.Logger
	sendMail func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewNotificationService wires the service.
func NewNotificationService(cfg config.SMTPConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		cfg:      cfg,
		logger:   logger,
		sendMail: smtp.SendMail,
	}
}

// RegisterHandlers subscribes to the domain events that trigger mail.
func (s *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventRequestCreated, s.onRequestCreated)
	dispatcher.Subscribe(events.EventRequestStatusChanged, s.onStatusChanged)
	dispatcher.Subscribe(events.EventResultFilesSubmitted, s.onFilesSubmitted)
	dispatcher.Subscribe(events.EventRegistrationReviewed, s.onRegistrationReviewed)
}

func (s *NotificationService) onRequestCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestCreatedPayload)
	if !ok {
		return nil
	}
	subject := fmt.Sprintf("New automation request: %s", payload.Title)
	body := fmt.Sprintf("A new %s priority request %q was filed for project %q.",
		payload.Priority, payload.Title, payload.ProjectName)
	_, _ = s.SendEmail(ctx, "", subject, body)
	return nil
}

func (s *NotificationService) onStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestStatusChangedPayload)
	if !ok {
		return nil
	}
	subject := fmt.Sprintf("Request #%d is now %s", event.RequestID, payload.NewStatus)
	body := fmt.Sprintf("Request #%d moved from %s to %s.", event.RequestID, payload.OldStatus, payload.NewStatus)
	_, _ = s.SendEmail(ctx, "", subject, body)
	return nil
}

func (s *NotificationService) onFilesSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ResultFilesSubmittedPayload)
	if !ok {
		return nil
	}
	subject := fmt.Sprintf("Result files delivered for request #%d", event.RequestID)
	body := fmt.Sprintf("%d file(s) were delivered (%s).", payload.AddedFiles, payload.EventType)
	_, _ = s.SendEmail(ctx, "", subject, body)
	return nil
}

func (s *NotificationService) onRegistrationReviewed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RegistrationReviewedPayload)
	if !ok {
		return nil
	}
	subject := fmt.Sprintf("Your registration was %s", strings.ToLower(string(payload.Status)))
	body := fmt.Sprintf("Your registration request has been %s.", strings.ToLower(string(payload.Status)))
	_, _ = s.SendEmail(ctx, payload.Email, subject, body)
	return nil
}

// SendEmail delivers a message and reports the method used. An empty
// recipient falls back to the configured admin address. SMTP errors are
// logged and downgrade the delivery to console.
func (s *NotificationService) SendEmail(ctx context.Context, to, subject, body string) (string, error) {
	recipient := strings.TrimSpace(to)
	if recipient == "" {
		recipient = s.cfg.AdminEmail
	}

	if s.cfg.User != "" && s.cfg.Password != "" {
		msg := buildMessage(s.cfg.From, recipient, subject, body)
		addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
		auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
		if err := s.sendMail(addr, auth, s.cfg.From, []string{recipient}, msg); err == nil {
			s.logger.Info("email sent", zap.String("to", recipient), zap.String("subject", subject))
			return DeliverySMTP, nil
		} else {
			s.logger.Warn("smtp delivery failed, logging instead",
				zap.String("to", recipient), zap.String("subject", subject), zap.Error(err))
		}
	}

	s.logger.Info("email (console delivery)",
		zap.String("to", recipient),
		zap.String("subject", subject),
		zap.String("body", body))
	return DeliveryConsole, nil
}

func buildMessage(from, to, subject, body string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}
