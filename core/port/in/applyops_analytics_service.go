package in

import (
	"context"

	"github.com/google/uuid"

	"applyops_server/core/domain"
)

// AnalyticsService defines the inbound port for dashboard aggregates.
type AnalyticsService interface {
	Summary(ctx context.Context, userID uuid.UUID) (*AnalyticsSummary, error)
}

type AnalyticsSummary struct {
	Total              int64                 `json:"total"`
	ByStatus           map[string]int64      `json:"by_status"`
	ByPlatform         map[string]int64      `json:"by_platform"`
	ActiveInterviews   int64                 `json:"active_interviews"`
	OfferRate          float64               `json:"offer_rate"`
	ResponseRate       float64               `json:"response_rate"`
	UpcomingInterviews []*domain.Application `json:"upcoming_interviews"`
}
