package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"applyops_server/core/domain"
	"applyops_server/core/port/out"
	"applyops_server/pkg/apperr"
)

// EmailLogAdapter implements out.EmailLogRepository using PostgreSQL.
type EmailLogAdapter struct {
	db *sqlx.DB
}

var _ out.EmailLogRepository = (*EmailLogAdapter)(nil)

func NewEmailLogAdapter(db *sqlx.DB) *EmailLogAdapter {
	return &EmailLogAdapter{db: db}
}

func (a *EmailLogAdapter) GetByGmailID(ctx context.Context, userID uuid.UUID, gmailID string) (*domain.EmailLog, error) {
	var log domain.EmailLog
	query := `
		SELECT id, user_id, gmail_id, subject, sender, received_at, processed, parsed_data, created_at, updated_at
		FROM email_logs
		WHERE user_id = $1 AND gmail_id = $2`

	if err := a.db.GetContext(ctx, &log, query, userID, gmailID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperr.DatabaseError("get email log", err)
	}
	return &log, nil
}

func (a *EmailLogAdapter) Create(ctx context.Context, log *domain.EmailLog) error {
	query := `
		INSERT INTO email_logs (user_id, gmail_id, subject, sender, received_at, processed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, false, NOW(), NOW())
		RETURNING id`

	err := a.db.QueryRowContext(ctx, query,
		log.UserID, log.GmailID, log.Subject, log.Sender, log.ReceivedAt).Scan(&log.ID)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicate
		}
		return apperr.DatabaseError("create email log", err)
	}
	return nil
}

func (a *EmailLogAdapter) MarkProcessed(ctx context.Context, userID uuid.UUID, gmailID string, parsedData []byte) error {
	query := `
		UPDATE email_logs
		SET processed = true, parsed_data = $3, updated_at = $4
		WHERE user_id = $1 AND gmail_id = $2`

	result, err := a.db.ExecContext(ctx, query, userID, gmailID, parsedData, time.Now())
	if err != nil {
		return apperr.DatabaseError("mark email processed", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *EmailLogAdapter) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.EmailLog, error) {
	if limit <= 0 {
		limit = 100
	}
	logs := []*domain.EmailLog{}
	query := `
		SELECT id, user_id, gmail_id, subject, sender, received_at, processed, parsed_data, created_at, updated_at
		FROM email_logs
		WHERE user_id = $1
		ORDER BY received_at DESC
		LIMIT $2`

	if err := a.db.SelectContext(ctx, &logs, query, userID, limit); err != nil {
		return nil, apperr.DatabaseError("list email logs", err)
	}
	return logs, nil
}
