package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"applyops_server/core/domain"
	"applyops_server/core/port/out"
	"applyops_server/pkg/apperr"
	"applyops_server/pkg/crypto"
	"applyops_server/pkg/logger"
)

// oauthRow is the persistence shape of a connection; tokens are stored
// encrypted at rest.
type oauthRow struct {
	ID           int64     `db:"id"`
	UserID       uuid.UUID `db:"user_id"`
	Provider     string    `db:"provider"`
	Email        string    `db:"email"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
	IsConnected  bool      `db:"is_connected"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// OAuthAdapter implements out.OAuthRepository using PostgreSQL.
type OAuthAdapter struct {
	db                *sqlx.DB
	encryptionEnabled bool
}

var _ out.OAuthRepository = (*OAuthAdapter)(nil)

func NewOAuthAdapter(db *sqlx.DB) *OAuthAdapter {
	err := crypto.Init()
	encryptionEnabled := err == nil
	if !encryptionEnabled {
		logger.Warn("Token encryption disabled: %v", err)
	} else {
		logger.Info("Token encryption enabled")
	}

	return &OAuthAdapter{
		db:                db,
		encryptionEnabled: encryptionEnabled,
	}
}

func (a *OAuthAdapter) encryptToken(token string) string {
	if !a.encryptionEnabled || token == "" {
		return token
	}
	encrypted, err := crypto.EncryptToken(token)
	if err != nil {
		logger.Warn("Failed to encrypt token: %v", err)
		return token
	}
	return encrypted
}

func (a *OAuthAdapter) decryptToken(token string) string {
	if token == "" || !crypto.IsEncrypted(token) {
		return token
	}
	decrypted, err := crypto.DecryptToken(token)
	if err != nil {
		// Token might predate encryption, return as-is.
		return token
	}
	return decrypted
}

func (a *OAuthAdapter) GetByUser(ctx context.Context, userID uuid.UUID, provider domain.OAuthProvider) (*domain.OAuthConnection, error) {
	var row oauthRow
	query := `
		SELECT id, user_id, provider, email, access_token, refresh_token,
		       expires_at, is_connected, created_at, updated_at
		FROM oauth_connections
		WHERE user_id = $1 AND provider = $2`

	if err := a.db.GetContext(ctx, &row, query, userID, provider); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperr.DatabaseError("get oauth connection", err)
	}
	return a.toDomain(&row), nil
}

func (a *OAuthAdapter) Upsert(ctx context.Context, conn *domain.OAuthConnection) error {
	query := `
		INSERT INTO oauth_connections (
			user_id, provider, email, access_token, refresh_token,
			expires_at, is_connected, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			email = EXCLUDED.email,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			is_connected = EXCLUDED.is_connected,
			updated_at = EXCLUDED.updated_at
		RETURNING id`

	err := a.db.QueryRowContext(ctx, query,
		conn.UserID, conn.Provider, conn.Email,
		a.encryptToken(conn.AccessToken), a.encryptToken(conn.RefreshToken),
		conn.ExpiresAt, conn.IsConnected, conn.CreatedAt, conn.UpdatedAt,
	).Scan(&conn.ID)
	if err != nil {
		return apperr.DatabaseError("upsert oauth connection", err)
	}
	return nil
}

func (a *OAuthAdapter) UpdateTokens(ctx context.Context, conn *domain.OAuthConnection) error {
	query := `
		UPDATE oauth_connections
		SET access_token = $3, refresh_token = $4, expires_at = $5, updated_at = $6
		WHERE user_id = $1 AND provider = $2`

	result, err := a.db.ExecContext(ctx, query,
		conn.UserID, conn.Provider,
		a.encryptToken(conn.AccessToken), a.encryptToken(conn.RefreshToken),
		conn.ExpiresAt, conn.UpdatedAt)
	if err != nil {
		return apperr.DatabaseError("update oauth tokens", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *OAuthAdapter) Disconnect(ctx context.Context, userID uuid.UUID, provider domain.OAuthProvider) error {
	query := `
		UPDATE oauth_connections
		SET is_connected = false, access_token = '', refresh_token = '', updated_at = $3
		WHERE user_id = $1 AND provider = $2`

	result, err := a.db.ExecContext(ctx, query, userID, provider, time.Now())
	if err != nil {
		return apperr.DatabaseError("disconnect oauth", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *OAuthAdapter) toDomain(row *oauthRow) *domain.OAuthConnection {
	return &domain.OAuthConnection{
		ID:           row.ID,
		UserID:       row.UserID,
		Provider:     domain.OAuthProvider(row.Provider),
		Email:        row.Email,
		AccessToken:  a.decryptToken(row.AccessToken),
		RefreshToken: a.decryptToken(row.RefreshToken),
		ExpiresAt:    row.ExpiresAt,
		IsConnected:  row.IsConnected,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
