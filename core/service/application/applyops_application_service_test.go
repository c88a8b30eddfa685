package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"applyops_server/adapter/out/persistence"
	"applyops_server/core/domain"
	"applyops_server/core/port/in"
	"applyops_server/core/port/out"
	"applyops_server/pkg/apperr"
)

type fakeAppRepo struct {
	byID    map[uuid.UUID]*domain.Application
	deleted int
}

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{byID: make(map[uuid.UUID]*domain.Application)}
}

func (f *fakeAppRepo) Create(ctx context.Context, app *domain.Application) error {
	f.byID[app.ID] = app
	return nil
}

func (f *fakeAppRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Application, error) {
	app, ok := f.byID[id]
	if !ok || app.UserID != userID {
		return nil, persistence.ErrNotFound
	}
	return app, nil
}

func (f *fakeAppRepo) ListByUser(ctx context.Context, userID uuid.UUID, filter *out.ApplicationFilter, page *domain.PageRequest) ([]*domain.Application, int64, error) {
	var items []*domain.Application
	for _, app := range f.byID {
		if app.UserID == userID {
			items = append(items, app)
		}
	}
	return items, int64(len(items)), nil
}

func (f *fakeAppRepo) ListAllByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Application, error) {
	items, _, _ := f.ListByUser(ctx, userID, nil, nil)
	return items, nil
}

func (f *fakeAppRepo) Update(ctx context.Context, app *domain.Application) error {
	f.byID[app.ID] = app
	return nil
}

func (f *fakeAppRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, ok := f.byID[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(f.byID, id)
	f.deleted++
	return nil
}

func (f *fakeAppRepo) CountByStatus(ctx context.Context, userID uuid.UUID) (map[domain.Status]int64, error) {
	return nil, nil
}

func (f *fakeAppRepo) CountByPlatform(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	return nil, nil
}

func (f *fakeAppRepo) UpcomingInterviews(ctx context.Context, userID uuid.UUID, after time.Time, limit int) ([]*domain.Application, error) {
	return nil, nil
}

type fakeOAuth struct{}

func (fakeOAuth) GetAuthURL(ctx context.Context, userID *uuid.UUID) (string, error) { return "", nil }
func (fakeOAuth) HandleCallback(ctx context.Context, code, state string) (*in.AuthResponse, error) {
	return nil, nil
}
func (fakeOAuth) GetOAuth2Token(ctx context.Context, userID uuid.UUID) (*oauth2.Token, error) {
	return nil, apperr.ErrUnauthorized
}
func (fakeOAuth) Disconnect(ctx context.Context, userID uuid.UUID) error { return nil }
func (fakeOAuth) Status(ctx context.Context, userID uuid.UUID) (*in.OAuthStatus, error) {
	return nil, nil
}

func newTestService(repo *fakeAppRepo) in.ApplicationService {
	return NewService(repo, fakeOAuth{}, nil, nil)
}

func strptr(s string) *string { return &s }

func TestCreateDefaults(t *testing.T) {
	repo := newFakeAppRepo()
	svc := newTestService(repo)
	userID := uuid.New()

	app, err := svc.Create(context.Background(), userID, &in.CreateApplicationRequest{
		Company: " Acme ",
		Role:    "Backend Engineer",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if app.Company != "Acme" {
		t.Errorf("company = %q, want trimmed", app.Company)
	}
	if app.Status != domain.StatusApplied {
		t.Errorf("status = %s, want applied default", app.Status)
	}
	if app.Platform != "Company Portal" {
		t.Errorf("platform = %q, want default", app.Platform)
	}
	if app.AppliedAt.IsZero() {
		t.Error("applied_at must default to now")
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newFakeAppRepo())
	ctx := context.Background()
	userID := uuid.New()

	if _, err := svc.Create(ctx, userID, &in.CreateApplicationRequest{Role: "Engineer"}); err == nil {
		t.Error("expected error for missing company")
	}
	if _, err := svc.Create(ctx, userID, &in.CreateApplicationRequest{Company: "Acme"}); err == nil {
		t.Error("expected error for missing role")
	}
	_, err := svc.Create(ctx, userID, &in.CreateApplicationRequest{
		Company: "Acme", Role: "Engineer", Status: "ghosted",
	})
	if err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestUpdatePromotesToInterviewing(t *testing.T) {
	repo := newFakeAppRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	userID := uuid.New()

	app, err := svc.Create(ctx, userID, &in.CreateApplicationRequest{Company: "Acme", Role: "Engineer"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	date := time.Now().Add(48 * time.Hour)
	updated, err := svc.Update(ctx, userID, app.ID, &in.UpdateApplicationRequest{InterviewAt: &date})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != domain.StatusInterviewing {
		t.Errorf("status = %s, setting an interview date should promote to interviewing", updated.Status)
	}
}

func TestUpdateDoesNotDemoteOffered(t *testing.T) {
	repo := newFakeAppRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	userID := uuid.New()

	app, err := svc.Create(ctx, userID, &in.CreateApplicationRequest{
		Company: "Acme", Role: "Engineer", Status: string(domain.StatusOffered),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	date := time.Now().Add(48 * time.Hour)
	updated, err := svc.Update(ctx, userID, app.ID, &in.UpdateApplicationRequest{InterviewAt: &date})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != domain.StatusOffered {
		t.Errorf("status = %s, offered must survive a date edit", updated.Status)
	}
	if updated.InterviewAt == nil || !updated.InterviewAt.Equal(date) {
		t.Error("interview date must still land")
	}
}

func TestUpdateExplicitStatusWins(t *testing.T) {
	repo := newFakeAppRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	userID := uuid.New()

	app, err := svc.Create(ctx, userID, &in.CreateApplicationRequest{Company: "Acme", Role: "Engineer"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	date := time.Now().Add(48 * time.Hour)
	status := string(domain.StatusViewed)
	updated, err := svc.Update(ctx, userID, app.ID, &in.UpdateApplicationRequest{
		Status:      &status,
		InterviewAt: &date,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != domain.StatusViewed {
		t.Errorf("status = %s, explicit status must not be auto-promoted", updated.Status)
	}
}

func TestUpdateRejectsEmptyCompany(t *testing.T) {
	repo := newFakeAppRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	userID := uuid.New()

	app, err := svc.Create(ctx, userID, &in.CreateApplicationRequest{Company: "Acme", Role: "Engineer"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Update(ctx, userID, app.ID, &in.UpdateApplicationRequest{Company: strptr("  ")}); err == nil {
		t.Error("expected error for blank company")
	}
}

func TestGetScopedToOwner(t *testing.T) {
	repo := newFakeAppRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	owner := uuid.New()

	app, err := svc.Create(ctx, owner, &in.CreateApplicationRequest{Company: "Acme", Role: "Engineer"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(ctx, uuid.New(), app.ID); apperr.GetHTTPStatus(err) != 404 {
		t.Errorf("expected 404 for a stranger, got %v", err)
	}
	if _, err := svc.Get(ctx, owner, app.ID); err != nil {
		t.Errorf("owner lookup failed: %v", err)
	}
}

func TestDeleteRemovesApplication(t *testing.T) {
	repo := newFakeAppRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	userID := uuid.New()

	app, err := svc.Create(ctx, userID, &in.CreateApplicationRequest{Company: "Acme", Role: "Engineer"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, userID, app.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if repo.deleted != 1 {
		t.Errorf("deleted = %d, want 1", repo.deleted)
	}
	if _, err := svc.Get(ctx, userID, app.ID); apperr.GetHTTPStatus(err) != 404 {
		t.Errorf("expected 404 after delete, got %v", err)
	}
}
