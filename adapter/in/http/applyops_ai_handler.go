package http

import (
	"github.com/gofiber/fiber/v2"

	in "applyops_server/core/port/in"
	"applyops_server/pkg/apperr"
	"applyops_server/pkg/response"
)

// AIHandler handles resume scoring and cover letter routes.
type AIHandler struct {
	ai in.AIService
}

func NewAIHandler(ai in.AIService) *AIHandler {
	return &AIHandler{ai: ai}
}

// Register registers AI routes.
func (h *AIHandler) Register(router fiber.Router) {
	ai := router.Group("/ai")
	ai.Post("/resume-score", h.ScoreResume)
	ai.Post("/cover-letter", h.CoverLetter)
}

func (h *AIHandler) ScoreResume(c *fiber.Ctx) error {
	var req in.ScoreResumeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	result, err := h.ai.ScoreResume(c.Context(), &req)
	if err != nil {
		return err
	}
	return response.OK(c, result)
}

func (h *AIHandler) CoverLetter(c *fiber.Ctx) error {
	var req in.CoverLetterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	letter, err := h.ai.GenerateCoverLetter(c.Context(), &req)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"cover_letter": letter})
}
