package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/sst/internal/logging"
	"github.com/soltixdb/sst/internal/models"
	"github.com/soltixdb/sst/internal/services"
)

// StatusForCode maps a service error code to an HTTP status
func StatusForCode(code string) int {
	switch code {
	case services.CodeInvalidRequest, services.CodeInvalidParams, services.CodeInvalidAlgo:
		return fiber.StatusBadRequest
	case services.CodeSeriesTooLong:
		return fiber.StatusRequestEntityTooLarge
	case services.CodeProfileNotFound, services.CodeResultNotFound:
		return fiber.StatusNotFound
	case services.CodeQueueDisabled, services.CodeArchiveDisabled:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders errors returned by handlers as models.ErrorResponse.
// Service errors keep their code; fiber errors keep their status.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		detail := models.ErrorDetail{
			Code:    "ERROR",
			Message: "Internal Server Error",
			Path:    c.Path(),
		}

		var svcErr *services.ServiceError
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &svcErr):
			status = StatusForCode(svcErr.Code)
			detail.Code = svcErr.Code
			detail.Message = svcErr.Message
			detail.Details = svcErr.Details
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			detail.Message = fiberErr.Message
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("Request error",
				"path", c.Path(),
				"method", c.Method(),
				"status", status,
				"error", err)
		} else {
			logger.Debug("Request rejected",
				"path", c.Path(),
				"method", c.Method(),
				"status", status,
				"code", detail.Code)
		}

		return c.Status(status).JSON(models.ErrorResponse{Error: detail})
	}
}
