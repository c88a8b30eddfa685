package in

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"applyops_server/core/domain"
)

// AuthService defines the inbound port for account operations.
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// ExportData returns everything the user owns as a single JSON document.
	ExportData(ctx context.Context, userID uuid.UUID) (*ExportBundle, error)

	// DeleteAccount removes the user and all owned data.
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

// OAuthService defines the inbound port for the Google OAuth flow.
type OAuthService interface {
	// GetAuthURL returns the Google consent URL carrying a signed state.
	GetAuthURL(ctx context.Context, userID *uuid.UUID) (string, error)

	// HandleCallback exchanges the code, links or creates the account and
	// stores the connection. Returns a session token for the user.
	HandleCallback(ctx context.Context, code, state string) (*AuthResponse, error)

	// GetOAuth2Token returns a valid access token for the user's Google
	// connection, refreshing it when it is expired or about to expire.
	GetOAuth2Token(ctx context.Context, userID uuid.UUID) (*oauth2.Token, error)

	// Disconnect severs the Google connection and clears stored tokens.
	Disconnect(ctx context.Context, userID uuid.UUID) error

	// Status reports whether the user has a usable Google connection.
	Status(ctx context.Context, userID uuid.UUID) (*OAuthStatus, error)
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type OAuthStatus struct {
	Connected bool       `json:"connected"`
	Email     string     `json:"email,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ExportBundle is the shape of a full account export.
type ExportBundle struct {
	User         *domain.User          `json:"user"`
	Applications []*domain.Application `json:"applications"`
	EmailLogs    []*domain.EmailLog    `json:"email_logs"`
	ExportedAt   time.Time             `json:"exported_at"`
}
