// Package application implements the tracker CRUD service.
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"applyops_server/adapter/out/persistence"
	"applyops_server/core/domain"
	"applyops_server/core/port/in"
	"applyops_server/core/port/out"
	"applyops_server/core/service/ingest"
	"applyops_server/pkg/apperr"
	"applyops_server/pkg/logger"
)

// Service implements in.ApplicationService.
type Service struct {
	appRepo  out.ApplicationRepository
	oauth    in.OAuthService
	calendar *ingest.CalendarSyncer
	realtime out.RealtimePort
	log      *logger.Logger
}

func NewService(
	appRepo out.ApplicationRepository,
	oauth in.OAuthService,
	calendar *ingest.CalendarSyncer,
	realtime out.RealtimePort,
) in.ApplicationService {
	return &Service{
		appRepo:  appRepo,
		oauth:    oauth,
		calendar: calendar,
		realtime: realtime,
		log:      logger.Default().WithField("component", "application"),
	}
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, req *in.CreateApplicationRequest) (*domain.Application, error) {
	company := strings.TrimSpace(req.Company)
	role := strings.TrimSpace(req.Role)
	if company == "" {
		return nil, apperr.MissingField("company")
	}
	if role == "" {
		return nil, apperr.MissingField("role")
	}

	status := domain.StatusApplied
	if req.Status != "" {
		status = domain.Status(req.Status)
		if !status.IsValid() {
			return nil, apperr.ValidationFailed("invalid status: " + req.Status)
		}
	}

	now := time.Now()
	appliedAt := now
	if req.AppliedAt != nil {
		appliedAt = *req.AppliedAt
	}
	platform := strings.TrimSpace(req.Platform)
	if platform == "" {
		platform = "Company Portal"
	}

	app := &domain.Application{
		ID:          uuid.New(),
		UserID:      userID,
		Company:     company,
		Role:        role,
		Status:      status,
		Platform:    platform,
		AppliedAt:   appliedAt,
		InterviewAt: req.InterviewAt,
		Salary:      req.Salary,
		Location:    req.Location,
		URL:         req.URL,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.syncCalendar(ctx, userID, app)

	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	s.pushEvent(ctx, userID, domain.EventApplicationCreated, app)
	return app, nil
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Application, error) {
	app, err := s.appRepo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, apperr.NotFound("application")
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, q *in.ListApplicationsQuery) (*in.ApplicationListResponse, error) {
	filter := &out.ApplicationFilter{Search: strings.TrimSpace(q.Search)}
	if q.Status != "" {
		status := domain.Status(q.Status)
		if !status.IsValid() {
			return nil, apperr.ValidationFailed("invalid status: " + q.Status)
		}
		filter.Status = &status
	}
	if q.Platform != "" {
		filter.Platform = &q.Platform
	}

	page := &domain.PageRequest{Page: q.Page, PageSize: q.PageSize}
	items, total, err := s.appRepo.ListByUser(ctx, userID, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	return &in.ApplicationListResponse{
		Items:      items,
		Pagination: domain.NewPageResponse(page.Page, page.Limit(), total),
	}, nil
}

// Update applies a partial edit. Setting an interview date on an
// application that is not already offered or rejected promotes it to
// interviewing, matching what the user almost always means.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, req *in.UpdateApplicationRequest) (*domain.Application, error) {
	app, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Company != nil {
		if strings.TrimSpace(*req.Company) == "" {
			return nil, apperr.ValidationFailed("company cannot be empty")
		}
		app.Company = strings.TrimSpace(*req.Company)
	}
	if req.Role != nil {
		if strings.TrimSpace(*req.Role) == "" {
			return nil, apperr.ValidationFailed("role cannot be empty")
		}
		app.Role = strings.TrimSpace(*req.Role)
	}
	if req.Status != nil {
		status := domain.Status(*req.Status)
		if !status.IsValid() {
			return nil, apperr.ValidationFailed("invalid status: " + *req.Status)
		}
		app.Status = status
	}
	if req.Platform != nil {
		app.Platform = *req.Platform
	}
	if req.AppliedAt != nil {
		app.AppliedAt = *req.AppliedAt
	}
	dateChanged := false
	if req.InterviewAt != nil {
		app.InterviewAt = req.InterviewAt
		dateChanged = true
		if req.Status == nil && app.Status != domain.StatusOffered && app.Status != domain.StatusRejected {
			app.Status = domain.StatusInterviewing
		}
	}
	if req.Salary != nil {
		app.Salary = req.Salary
	}
	if req.Location != nil {
		app.Location = req.Location
	}
	if req.URL != nil {
		app.URL = req.URL
	}
	if req.Notes != nil {
		app.Notes = req.Notes
	}
	app.UpdatedAt = time.Now()

	if dateChanged {
		s.syncCalendar(ctx, userID, app)
	}

	if err := s.appRepo.Update(ctx, app); err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	s.pushEvent(ctx, userID, domain.EventApplicationUpdated, app)
	return app, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	app, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	// Remove the tracked calendar event first; a failure there only logs.
	if app.CalendarEventID != nil && s.calendar != nil {
		if token, err := s.oauth.GetOAuth2Token(ctx, userID); err == nil {
			s.calendar.Remove(ctx, token, app)
		}
	}

	if err := s.appRepo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return apperr.NotFound("application")
		}
		return fmt.Errorf("delete application: %w", err)
	}
	s.pushEvent(ctx, userID, domain.EventApplicationDeleted, map[string]string{"id": id.String()})
	return nil
}

// syncCalendar is best-effort: no Google connection or a provider error
// leaves the application exactly as it was.
func (s *Service) syncCalendar(ctx context.Context, userID uuid.UUID, app *domain.Application) {
	if s.calendar == nil || app.InterviewAt == nil {
		return
	}
	token, err := s.oauth.GetOAuth2Token(ctx, userID)
	if err != nil {
		s.log.WithField("user_id", userID.String()).WithError(err).
			Debug("skipping calendar sync, no usable google token")
		return
	}
	s.calendar.Sync(ctx, token, app)
}

func (s *Service) pushEvent(ctx context.Context, userID uuid.UUID, kind domain.RealtimeEventType, payload any) {
	if s.realtime == nil {
		return
	}
	_ = s.realtime.Push(ctx, userID.String(), &domain.RealtimeEvent{
		Type:      kind,
		Payload:   payload,
		Timestamp: time.Now(),
	})
}
