package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/sst/internal/downsampling"
	"github.com/soltixdb/sst/internal/models"
)

// SubmitJob queues a series for asynchronous scoring
// POST /v1/jobs
func (h *Handler) SubmitJob(c *fiber.Ctx) error {
	var req models.ScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	resp, err := h.service.SubmitJob(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

// ListResults lists archived results
// GET /v1/results
func (h *Handler) ListResults(c *fiber.Ctx) error {
	list, err := h.service.ListResults()
	if err != nil {
		return err
	}
	return c.JSON(models.ResultListResponse{Results: list, Count: len(list)})
}

// GetResult returns an archived result with its scores
// GET /v1/results/:id?downsample=lttb&points=500
func (h *Handler) GetResult(c *fiber.Ctx) error {
	mode := c.Query("downsample", string(downsampling.ModeNone))
	if !downsampling.IsValid(mode) {
		return badRequest(c, "Invalid downsample mode: "+mode)
	}
	points := c.QueryInt("points", downsampling.DefaultThreshold)
	if points < 2 {
		return badRequest(c, "points must be at least 2")
	}

	rec, err := h.service.GetResult(c.Params("id"))
	if err != nil {
		return err
	}

	resp := models.NewResultResponse(rec)
	if err := resp.Downsample(downsampling.Mode(mode), points); err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(resp)
}

// DeleteResult removes an archived result
// DELETE /v1/results/:id
func (h *Handler) DeleteResult(c *fiber.Ctx) error {
	if err := h.service.DeleteResult(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
