package out

import (
	"context"

	"github.com/google/uuid"

	"applyops_server/core/domain"
)

// OAuthRepository defines the outbound port for OAuth connection persistence.
// Token columns are stored encrypted; the adapter owns the crypto.
type OAuthRepository interface {
	// GetByUser returns the user's connection for a provider, or
	// persistence.ErrNotFound.
	GetByUser(ctx context.Context, userID uuid.UUID, provider domain.OAuthProvider) (*domain.OAuthConnection, error)

	// Upsert creates or replaces the user's connection for a provider.
	Upsert(ctx context.Context, conn *domain.OAuthConnection) error

	// UpdateTokens persists refreshed tokens.
	UpdateTokens(ctx context.Context, conn *domain.OAuthConnection) error

	// Disconnect marks a connection as disconnected and clears its tokens.
	Disconnect(ctx context.Context, userID uuid.UUID, provider domain.OAuthProvider) error
}
