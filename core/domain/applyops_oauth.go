package domain

import (
	"time"

	"github.com/google/uuid"
)

type OAuthProvider string

const (
	ProviderGoogle OAuthProvider = "google"
)

// OAuthConnection holds a user's Google credential for Gmail and Calendar
// access. At most one connected row per user and provider.
type OAuthConnection struct {
	ID           int64
	UserID       uuid.UUID
	Provider     OAuthProvider
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	IsConnected  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
