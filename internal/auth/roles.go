package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/automation-hub/internal/domain"
	apperrors "github.com/spec-kit/automation-hub/pkg/util"
)

// RequireDeveloper ensures the authenticated user holds the DEVELOPER role.
func RequireDeveloper() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if user.Role != domain.RoleDeveloper {
			return apperrors.NewForbidden("Only developers can access this resource")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a user is present on the request.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUser(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
