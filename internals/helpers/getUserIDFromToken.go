package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"sharebook_backend/internals/constants"
)

// Locals keys written by the auth middleware.
const (
	LocUserID   = "user_id"
	LocUserRole = "userRole"
	LocUserName = "user_name"
)

// GetUserIDFromToken reads c.Locals("user_id").
// 401 when no user is logged in, 400 when the id is malformed.
func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	v := c.Locals(LocUserID)
	if v == nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "user is not logged in")
	}

	var raw string
	switch t := v.(type) {
	case uuid.UUID:
		if t == uuid.Nil {
			return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "user is not logged in")
		}
		return t, nil
	case string:
		raw = t
	case []byte:
		raw = string(t)
	default:
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid user id in token")
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "user is not logged in")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid user id in token")
	}
	return id, nil
}

func GetRole(c *fiber.Ctx) string {
	role, _ := c.Locals(LocUserRole).(string)
	return strings.ToLower(strings.TrimSpace(role))
}

func IsAdmin(c *fiber.Ctx) bool {
	return GetRole(c) == constants.RoleAdmin
}

// ParseUUIDParam parses a path parameter, 400 on bad input.
func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Params(name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, name+" is not a valid id")
	}
	return id, nil
}
