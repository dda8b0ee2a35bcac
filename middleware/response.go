package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"shams/apperr"
	"shams/utils/logger"
)

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusBadRequest, false, "Validation failed!", errors)
}

// ErrorResponse renders err in the JSON envelope. Errors outside the apperr
// taxonomy are logged and hidden behind a generic 500.
func ErrorResponse(c *fiber.Ctx, log *logger.Logger, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.Kind == apperr.KindInternal || ae.Kind == apperr.KindUnavailable {
			log.Error("Request failed", "path", c.Path(), "method", c.Method(), "error", err)
		}
		if ae.Kind == apperr.KindInternal {
			return JsonResponse(c, fiber.StatusInternalServerError, false, "Something went wrong", nil)
		}
		var data interface{}
		if len(ae.Fields) > 0 {
			data = ae.Fields
		}
		return JsonResponse(c, ae.Status(), false, ae.Message, data)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonResponse(c, fe.Code, false, fe.Message, nil)
	}

	log.Error("Unhandled error", "path", c.Path(), "method", c.Method(), "error", err)
	return JsonResponse(c, fiber.StatusInternalServerError, false, "Something went wrong", nil)
}
