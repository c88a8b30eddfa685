// Package analytics aggregates tracker data for the dashboard.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"applyops_server/core/domain"
	"applyops_server/core/port/in"
	"applyops_server/core/port/out"
)

const upcomingLimit = 5

// Service implements in.AnalyticsService.
type Service struct {
	appRepo out.ApplicationRepository
}

func NewService(appRepo out.ApplicationRepository) in.AnalyticsService {
	return &Service{appRepo: appRepo}
}

func (s *Service) Summary(ctx context.Context, userID uuid.UUID) (*in.AnalyticsSummary, error) {
	byStatus, err := s.appRepo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	byPlatform, err := s.appRepo.CountByPlatform(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count by platform: %w", err)
	}
	upcoming, err := s.appRepo.UpcomingInterviews(ctx, userID, time.Now(), upcomingLimit)
	if err != nil {
		return nil, fmt.Errorf("upcoming interviews: %w", err)
	}

	var total int64
	for _, n := range byStatus {
		total += n
	}

	statusOut := make(map[string]int64, len(domain.AllStatuses))
	for _, st := range domain.AllStatuses {
		statusOut[string(st)] = byStatus[st]
	}

	offered := byStatus[domain.StatusOffered]
	// Responded means the company reacted at all: anything past plain
	// "applied" counts, including rejections.
	responded := total - byStatus[domain.StatusApplied]

	summary := &in.AnalyticsSummary{
		Total:              total,
		ByStatus:           statusOut,
		ByPlatform:         byPlatform,
		ActiveInterviews:   byStatus[domain.StatusInterviewing],
		UpcomingInterviews: upcoming,
	}
	if total > 0 {
		summary.OfferRate = float64(offered) / float64(total)
		summary.ResponseRate = float64(responded) / float64(total)
	}
	return summary, nil
}
