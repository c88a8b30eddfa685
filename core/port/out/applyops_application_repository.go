package out

import (
	"context"
	"time"

	"github.com/google/uuid"

	"applyops_server/core/domain"
)

// ApplicationFilter narrows ListByUser results.
type ApplicationFilter struct {
	Status   *domain.Status
	Platform *string
	Search   string // matches company or role, case-insensitive
}

// ApplicationRepository defines the outbound port for application persistence.
type ApplicationRepository interface {
	// Create inserts a new application.
	Create(ctx context.Context, app *domain.Application) error

	// GetByID returns an application scoped to its owner.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Application, error)

	// ListByUser returns a page of the user's applications, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, filter *ApplicationFilter, page *domain.PageRequest) ([]*domain.Application, int64, error)

	// ListAllByUser returns every application of the user, most recently
	// updated first. Used by the ingestion matcher and the export endpoint.
	ListAllByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Application, error)

	// Update persists all mutable fields of an application.
	Update(ctx context.Context, app *domain.Application) error

	// Delete removes an application scoped to its owner.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// CountByStatus returns per-status counts for the analytics summary.
	CountByStatus(ctx context.Context, userID uuid.UUID) (map[domain.Status]int64, error)

	// CountByPlatform returns per-platform counts for the analytics summary.
	CountByPlatform(ctx context.Context, userID uuid.UUID) (map[string]int64, error)

	// UpcomingInterviews returns applications with an interview scheduled
	// at or after the given time, soonest first.
	UpcomingInterviews(ctx context.Context, userID uuid.UUID, after time.Time, limit int) ([]*domain.Application, error)
}
