package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash *string   `db:"password_hash" json:"-"`
	Name         *string   `db:"name" json:"name,omitempty"`
	GoogleID     *string   `db:"google_id" json:"-"`
	AvatarURL    *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
