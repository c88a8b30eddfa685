package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"applyops_server/core/domain"
	"applyops_server/core/port/out"
	"applyops_server/pkg/apperr"
)

const applicationColumns = `
	id, user_id, company, role, status, platform, applied_at, interview_at,
	salary, location, url, notes, calendar_event_id, email_id, created_at, updated_at`

// ApplicationAdapter implements out.ApplicationRepository using PostgreSQL.
type ApplicationAdapter struct {
	db *sqlx.DB
}

var _ out.ApplicationRepository = (*ApplicationAdapter)(nil)

func NewApplicationAdapter(db *sqlx.DB) *ApplicationAdapter {
	return &ApplicationAdapter{db: db}
}

func (a *ApplicationAdapter) Create(ctx context.Context, app *domain.Application) error {
	query := `
		INSERT INTO applications (
			id, user_id, company, role, status, platform, applied_at, interview_at,
			salary, location, url, notes, calendar_event_id, email_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := a.db.ExecContext(ctx, query,
		app.ID, app.UserID, app.Company, app.Role, app.Status, app.Platform,
		app.AppliedAt, app.InterviewAt, app.Salary, app.Location, app.URL,
		app.Notes, app.CalendarEventID, app.EmailID, app.CreatedAt, app.UpdatedAt)
	if err != nil {
		return apperr.DatabaseError("create application", err)
	}
	return nil
}

func (a *ApplicationAdapter) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Application, error) {
	var app domain.Application
	query := `SELECT` + applicationColumns + ` FROM applications WHERE id = $1 AND user_id = $2`

	if err := a.db.GetContext(ctx, &app, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, apperr.DatabaseError("get application", err)
	}
	return &app, nil
}

func (a *ApplicationAdapter) ListByUser(ctx context.Context, userID uuid.UUID, filter *out.ApplicationFilter, page *domain.PageRequest) ([]*domain.Application, int64, error) {
	where := "WHERE user_id = $1"
	args := []any{userID}

	if filter != nil {
		if filter.Status != nil {
			args = append(args, *filter.Status)
			where += fmt.Sprintf(" AND status = $%d", len(args))
		}
		if filter.Platform != nil {
			args = append(args, *filter.Platform)
			where += fmt.Sprintf(" AND platform = $%d", len(args))
		}
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			where += fmt.Sprintf(" AND (company ILIKE $%d OR role ILIKE $%d)", len(args), len(args))
		}
	}

	var total int64
	if err := a.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM applications "+where, args...); err != nil {
		return nil, 0, apperr.DatabaseError("count applications", err)
	}

	args = append(args, page.Limit(), page.Offset())
	query := fmt.Sprintf("SELECT%s FROM applications %s ORDER BY applied_at DESC, created_at DESC LIMIT $%d OFFSET $%d",
		applicationColumns, where, len(args)-1, len(args))

	apps := []*domain.Application{}
	if err := a.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, 0, apperr.DatabaseError("list applications", err)
	}
	return apps, total, nil
}

func (a *ApplicationAdapter) ListAllByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Application, error) {
	apps := []*domain.Application{}
	query := `SELECT` + applicationColumns + ` FROM applications WHERE user_id = $1 ORDER BY updated_at DESC`

	if err := a.db.SelectContext(ctx, &apps, query, userID); err != nil {
		return nil, apperr.DatabaseError("list applications", err)
	}
	return apps, nil
}

func (a *ApplicationAdapter) Update(ctx context.Context, app *domain.Application) error {
	query := `
		UPDATE applications
		SET company = $3, role = $4, status = $5, platform = $6, applied_at = $7,
		    interview_at = $8, salary = $9, location = $10, url = $11, notes = $12,
		    calendar_event_id = $13, email_id = $14, updated_at = $15
		WHERE id = $1 AND user_id = $2`

	result, err := a.db.ExecContext(ctx, query,
		app.ID, app.UserID, app.Company, app.Role, app.Status, app.Platform,
		app.AppliedAt, app.InterviewAt, app.Salary, app.Location, app.URL,
		app.Notes, app.CalendarEventID, app.EmailID, app.UpdatedAt)
	if err != nil {
		return apperr.DatabaseError("update application", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *ApplicationAdapter) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := a.db.ExecContext(ctx,
		`DELETE FROM applications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return apperr.DatabaseError("delete application", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (a *ApplicationAdapter) CountByStatus(ctx context.Context, userID uuid.UUID) (map[domain.Status]int64, error) {
	rows := []struct {
		Status domain.Status `db:"status"`
		Count  int64         `db:"count"`
	}{}
	query := `SELECT status, COUNT(*) AS count FROM applications WHERE user_id = $1 GROUP BY status`

	if err := a.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, apperr.DatabaseError("count by status", err)
	}
	result := make(map[domain.Status]int64, len(rows))
	for _, r := range rows {
		result[r.Status] = r.Count
	}
	return result, nil
}

func (a *ApplicationAdapter) CountByPlatform(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	rows := []struct {
		Platform string `db:"platform"`
		Count    int64  `db:"count"`
	}{}
	query := `SELECT platform, COUNT(*) AS count FROM applications WHERE user_id = $1 GROUP BY platform`

	if err := a.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, apperr.DatabaseError("count by platform", err)
	}
	result := make(map[string]int64, len(rows))
	for _, r := range rows {
		result[r.Platform] = r.Count
	}
	return result, nil
}

func (a *ApplicationAdapter) UpcomingInterviews(ctx context.Context, userID uuid.UUID, after time.Time, limit int) ([]*domain.Application, error) {
	apps := []*domain.Application{}
	query := `SELECT` + applicationColumns + `
		FROM applications
		WHERE user_id = $1 AND interview_at IS NOT NULL AND interview_at >= $2
		ORDER BY interview_at ASC
		LIMIT $3`

	if err := a.db.SelectContext(ctx, &apps, query, userID, after, limit); err != nil {
		return nil, apperr.DatabaseError("list upcoming interviews", err)
	}
	return apps, nil
}
