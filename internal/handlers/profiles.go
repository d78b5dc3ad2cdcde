package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/sst/internal/models"
)

// ListProfiles lists detector profiles
// GET /v1/profiles
func (h *Handler) ListProfiles(c *fiber.Ctx) error {
	list, err := h.service.ListProfiles(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(models.ProfileListResponse{Profiles: list, Count: len(list)})
}

// GetProfile returns one profile
// GET /v1/profiles/:name
func (h *Handler) GetProfile(c *fiber.Ctx) error {
	p, err := h.service.GetProfile(c.UserContext(), c.Params("name"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// PutProfile creates or replaces a profile
// PUT /v1/profiles/:name
func (h *Handler) PutProfile(c *fiber.Ctx) error {
	var req models.ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	p, err := h.service.PutProfile(c.UserContext(), c.Params("name"), &req)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// DeleteProfile removes a profile
// DELETE /v1/profiles/:name
func (h *Handler) DeleteProfile(c *fiber.Ctx) error {
	if err := h.service.DeleteProfile(c.UserContext(), c.Params("name")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
