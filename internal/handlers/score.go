package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/sst/internal/models"
)

// Score scores a series synchronously
// POST /v1/score
func (h *Handler) Score(c *fiber.Ctx) error {
	var req models.ScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	resp, err := h.service.Score(c.UserContext(), &req)
	if err != nil {
		return err
	}
	if resp.ResultID != "" {
		c.Location("/v1/results/" + resp.ResultID)
	}
	return c.JSON(resp)
}

// ListDetectors lists the registered algorithms
// GET /v1/detectors
func (h *Handler) ListDetectors(c *fiber.Ctx) error {
	return c.JSON(h.service.ListDetectors())
}
