package out

import (
	"context"

	"github.com/google/uuid"

	"applyops_server/core/domain"
)

// UserRepository defines the outbound port for user persistence.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID returns a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail returns a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByGoogleID returns a user linked to a Google account.
	GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error)

	// Update updates name, google_id and avatar_url.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user and, via FK cascade, everything they own.
	Delete(ctx context.Context, id uuid.UUID) error
}
