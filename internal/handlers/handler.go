package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/sst/internal/logging"
	"github.com/soltixdb/sst/internal/models"
	"github.com/soltixdb/sst/internal/services"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger  *logging.Logger
	service *services.ScoreService
}

// New creates a new handler instance
func New(logger *logging.Logger, service *services.ScoreService) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    services.CodeInvalidRequest,
			Message: message,
			Path:    c.Path(),
		},
	})
}
