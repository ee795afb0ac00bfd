package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/automation-hub/internal/api/dto"
	"github.com/spec-kit/automation-hub/internal/service"
	apperrors "github.com/spec-kit/automation-hub/pkg/util"
)

// NotificationsHandler exposes the manual email endpoint.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// SendEmail handles POST /notifications/email.
func (h *NotificationsHandler) SendEmail(c *fiber.Ctx) error {
	var req dto.SendEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Subject) == "" {
		return apperrors.NewValidationError("subject required", nil)
	}

	method, err := h.service.SendEmail(c.Context(), req.To, req.Subject, req.Body)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SendEmailResponse{Status: method, To: req.To}})
}
