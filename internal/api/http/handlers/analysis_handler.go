package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/automation-hub/internal/service"
)

// AnalysisHandler triggers AI feasibility analysis for a request.
type AnalysisHandler struct {
	service *service.AnalysisService
}

// NewAnalysisHandler constructs handler.
func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: analysisService}
}

// Analyze handles POST /requests/:id/analyze.
func (h *AnalysisHandler) Analyze(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	result, err := h.service.Analyze(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}

// Status handles GET /analysis/status.
func (h *AnalysisHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": fiber.Map{
		"enabled": h.service.Enabled(),
		"model":   h.service.Model(),
	}})
}
