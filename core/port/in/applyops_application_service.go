package in

import (
	"context"
	"time"

	"github.com/google/uuid"

	"applyops_server/core/domain"
)

// ApplicationService defines the inbound port for application tracking.
type ApplicationService interface {
	Create(ctx context.Context, userID uuid.UUID, req *CreateApplicationRequest) (*domain.Application, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Application, error)
	List(ctx context.Context, userID uuid.UUID, q *ListApplicationsQuery) (*ApplicationListResponse, error)
	Update(ctx context.Context, userID, id uuid.UUID, req *UpdateApplicationRequest) (*domain.Application, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type CreateApplicationRequest struct {
	Company     string     `json:"company"`
	Role        string     `json:"role"`
	Status      string     `json:"status,omitempty"`
	Platform    string     `json:"platform,omitempty"`
	AppliedAt   *time.Time `json:"applied_at,omitempty"`
	InterviewAt *time.Time `json:"interview_at,omitempty"`
	Salary      *string    `json:"salary,omitempty"`
	Location    *string    `json:"location,omitempty"`
	URL         *string    `json:"url,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// UpdateApplicationRequest uses pointers so absent fields stay untouched.
type UpdateApplicationRequest struct {
	Company     *string    `json:"company,omitempty"`
	Role        *string    `json:"role,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Platform    *string    `json:"platform,omitempty"`
	AppliedAt   *time.Time `json:"applied_at,omitempty"`
	InterviewAt *time.Time `json:"interview_at,omitempty"`
	Salary      *string    `json:"salary,omitempty"`
	Location    *string    `json:"location,omitempty"`
	URL         *string    `json:"url,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

type ListApplicationsQuery struct {
	Status   string `query:"status"`
	Platform string `query:"platform"`
	Search   string `query:"search"`
	Page     int    `query:"page"`
	PageSize int    `query:"page_size"`
}

type ApplicationListResponse struct {
	Items      []*domain.Application `json:"items"`
	Pagination *domain.PageResponse  `json:"pagination"`
}
