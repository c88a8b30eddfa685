package http

import (
	"github.com/gofiber/fiber/v2"

	in "applyops_server/core/port/in"
	"applyops_server/pkg/response"
)

// AnalyticsHandler handles dashboard aggregate routes.
type AnalyticsHandler struct {
	analytics in.AnalyticsService
}

func NewAnalyticsHandler(analytics in.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Register registers analytics routes.
func (h *AnalyticsHandler) Register(router fiber.Router) {
	router.Get("/analytics/summary", h.Summary)
}

func (h *AnalyticsHandler) Summary(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	summary, err := h.analytics.Summary(c.Context(), userID)
	if err != nil {
		return err
	}
	return response.OK(c, summary)
}
