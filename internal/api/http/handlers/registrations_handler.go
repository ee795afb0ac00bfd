package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/automation-hub/internal/api/dto"
	"github.com/spec-kit/automation-hub/internal/auth"
	"github.com/spec-kit/automation-hub/internal/domain"
	"github.com/spec-kit/automation-hub/internal/service"
	apperrors "github.com/spec-kit/automation-hub/pkg/util"
)

// RegistrationsHandler exposes developer-only registration review endpoints.
type RegistrationsHandler struct {
	admin *service.AdminService
}

// NewRegistrationsHandler constructs handler.
func NewRegistrationsHandler(adminService *service.AdminService) *RegistrationsHandler {
	return &RegistrationsHandler{admin: adminService}
}

// List handles GET /registration-requests.
func (h *RegistrationsHandler) List(c *fiber.Ctx) error {
	registrations, err := h.admin.ListRegistrations(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.RegistrationResponse, 0, len(registrations))
	for i := range registrations {
		items = append(items, registrationResponse(&registrations[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Approve handles POST /registration-requests/:id/approve.
func (h *RegistrationsHandler) Approve(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.ApproveRegistrationRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	decision := service.RegistrationDecision{CompanyTitle: req.CompanyTitle}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		decision.Role = &role
	}
	user, err := h.admin.ApproveRegistration(c.Context(), actor, id, decision)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Reject handles POST /registration-requests/:id/reject.
func (h *RegistrationsHandler) Reject(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	registration, err := h.admin.RejectRegistration(c.Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": registrationResponse(registration)})
}

func registrationResponse(registration *domain.RegistrationRequest) dto.RegistrationResponse {
	return dto.RegistrationResponse{
		ID:           registration.ID,
		Name:         registration.Name,
		Email:        registration.Email,
		Status:       string(registration.Status),
		CompanyTitle: registration.CompanyTitle,
		CreatedAt:    registration.CreatedAt,
		ReviewedBy:   registration.ReviewedBy,
		ReviewedAt:   registration.ReviewedAt,
	}
}
