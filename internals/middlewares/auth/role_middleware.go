package auth

import (
	"github.com/gofiber/fiber/v2"

	helper "sharebook_backend/internals/helpers"
)

// RoleMiddlewareWithCustomError lets the request through when userRole is one of allowedRoles.
func RoleMiddlewareWithCustomError(allowedRoles []string, customForbiddenMessage string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(helper.LocUserRole).(string)
		if !ok {
			return helper.JsonError(c, fiber.StatusUnauthorized, "unauthorized: missing role information")
		}
		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}
		if customForbiddenMessage == "" {
			customForbiddenMessage = "forbidden: you are not authorized to access this resource"
		}
		return helper.JsonError(c, fiber.StatusForbidden, customForbiddenMessage)
	}
}

func OnlyRoles(customMessage string, roles ...string) fiber.Handler {
	return RoleMiddlewareWithCustomError(roles, customMessage)
}
