package helper

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/logger"

	"sharebook_backend/internals/helpers/apperror"
)

// FromError renders err in the standard error envelope.
// Domain errors keep their kind's status, *fiber.Error keeps its code,
// anything else is logged and answered with 500.
func FromError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}
	if kind := apperror.KindOf(err); kind != apperror.KindUnknown {
		return JsonError(c, kind.HTTPStatus(), apperror.MessageOf(err))
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	logger.Errorf("[HTTP] %s %s: %v", c.Method(), c.OriginalURL(), err)
	return JsonError(c, fiber.StatusInternalServerError, "internal server error")
}
