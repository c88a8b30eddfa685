// Package persistence provides database adapters.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"applyops_server/core/domain"
	"applyops_server/core/port/out"
	"applyops_server/pkg/apperr"
)

// UserAdapter implements out.UserRepository using PostgreSQL.
type UserAdapter struct {
	db *sqlx.DB
}

var _ out.UserRepository = (*UserAdapter)(nil)

func NewUserAdapter(db *sqlx.DB) *UserAdapter {
	return &UserAdapter{db: db}
}

func (a *UserAdapter) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, google_id, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := a.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name,
		user.GoogleID, user.AvatarURL, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicate
		}
		return apperr.DatabaseError("create user", err)
	}
	return nil
}

func (a *UserAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := `
		SELECT id, email, password_hash, name, google_id, avatar_url, created_at, updated_at
		FROM users WHERE id = $1`

	if err := a.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperr.DatabaseError("get user", err)
	}
	return &user, nil
}

func (a *UserAdapter) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	query := `
		SELECT id, email, password_hash, name, google_id, avatar_url, created_at, updated_at
		FROM users WHERE email = $1`

	if err := a.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperr.DatabaseError("get user", err)
	}
	return &user, nil
}

func (a *UserAdapter) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	var user domain.User
	query := `
		SELECT id, email, password_hash, name, google_id, avatar_url, created_at, updated_at
		FROM users WHERE google_id = $1`

	if err := a.db.GetContext(ctx, &user, query, googleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperr.DatabaseError("get user", err)
	}
	return &user, nil
}

func (a *UserAdapter) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, google_id = $3, avatar_url = $4, updated_at = $5
		WHERE id = $1`

	result, err := a.db.ExecContext(ctx, query,
		user.ID, user.Name, user.GoogleID, user.AvatarURL, user.UpdatedAt)
	if err != nil {
		return apperr.DatabaseError("update user", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *UserAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := a.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return apperr.DatabaseError("delete user", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}
