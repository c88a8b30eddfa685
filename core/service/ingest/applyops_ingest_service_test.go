package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"applyops_server/adapter/out/persistence"
	"applyops_server/core/agent/llm"
	"applyops_server/core/domain"
	"applyops_server/core/port/in"
	"applyops_server/core/port/out"
)

type fakeOAuth struct {
	token *oauth2.Token
	err   error
}

func (f *fakeOAuth) GetAuthURL(ctx context.Context, userID *uuid.UUID) (string, error) {
	return "", nil
}
func (f *fakeOAuth) HandleCallback(ctx context.Context, code, state string) (*in.AuthResponse, error) {
	return nil, nil
}
func (f *fakeOAuth) GetOAuth2Token(ctx context.Context, userID uuid.UUID) (*oauth2.Token, error) {
	return f.token, f.err
}
func (f *fakeOAuth) Disconnect(ctx context.Context, userID uuid.UUID) error { return nil }
func (f *fakeOAuth) Status(ctx context.Context, userID uuid.UUID) (*in.OAuthStatus, error) {
	return nil, nil
}

type fakeMail struct {
	ids      []string
	messages map[string]*out.MailMessage
}

func (f *fakeMail) ListMessageIDs(ctx context.Context, token *oauth2.Token, q *out.MailQuery) ([]string, error) {
	if int64(len(f.ids)) > q.MaxResults {
		return f.ids[:q.MaxResults], nil
	}
	return f.ids, nil
}

func (f *fakeMail) GetMessage(ctx context.Context, token *oauth2.Token, id string) (*out.MailMessage, error) {
	msg, ok := f.messages[id]
	if !ok {
		return nil, errors.New("message not found")
	}
	return msg, nil
}

type fakeClassifier struct {
	verdicts map[string]*domain.Verdict // keyed by subject
	errs     map[string]error
	calls    int
}

func (f *fakeClassifier) Classify(ctx context.Context, email *llm.EmailForClassification) (*domain.Verdict, error) {
	f.calls++
	if err, ok := f.errs[email.Subject]; ok {
		return nil, err
	}
	return f.verdicts[email.Subject], nil
}

type fakeAppRepo struct {
	apps    []*domain.Application
	created int
	updated int
}

func (f *fakeAppRepo) Create(ctx context.Context, app *domain.Application) error {
	f.created++
	f.apps = append(f.apps, app)
	return nil
}

func (f *fakeAppRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Application, error) {
	for _, app := range f.apps {
		if app.ID == id {
			return app, nil
		}
	}
	return nil, persistence.ErrNotFound
}

func (f *fakeAppRepo) ListByUser(ctx context.Context, userID uuid.UUID, filter *out.ApplicationFilter, page *domain.PageRequest) ([]*domain.Application, int64, error) {
	return f.apps, int64(len(f.apps)), nil
}

func (f *fakeAppRepo) ListAllByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Application, error) {
	return append([]*domain.Application(nil), f.apps...), nil
}

func (f *fakeAppRepo) Update(ctx context.Context, app *domain.Application) error {
	f.updated++
	return nil
}

func (f *fakeAppRepo) Delete(ctx context.Context, userID, id uuid.UUID) error { return nil }

func (f *fakeAppRepo) CountByStatus(ctx context.Context, userID uuid.UUID) (map[domain.Status]int64, error) {
	return nil, nil
}

func (f *fakeAppRepo) CountByPlatform(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	return nil, nil
}

func (f *fakeAppRepo) UpcomingInterviews(ctx context.Context, userID uuid.UUID, after time.Time, limit int) ([]*domain.Application, error) {
	return nil, nil
}

type fakeLogRepo struct {
	rows map[string]*domain.EmailLog
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{rows: make(map[string]*domain.EmailLog)}
}

func (f *fakeLogRepo) GetByGmailID(ctx context.Context, userID uuid.UUID, gmailID string) (*domain.EmailLog, error) {
	row, ok := f.rows[gmailID]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return row, nil
}

func (f *fakeLogRepo) Create(ctx context.Context, log *domain.EmailLog) error {
	f.rows[log.GmailID] = log
	return nil
}

func (f *fakeLogRepo) MarkProcessed(ctx context.Context, userID uuid.UUID, gmailID string, parsedData []byte) error {
	row, ok := f.rows[gmailID]
	if !ok {
		return persistence.ErrNotFound
	}
	row.Processed = true
	row.ParsedData = parsedData
	return nil
}

func (f *fakeLogRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.EmailLog, error) {
	return nil, nil
}

type fakeLocker struct {
	allow    bool
	released int
}

func (f *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return f.allow, nil
}

func (f *fakeLocker) Release(ctx context.Context, key string) error {
	f.released++
	return nil
}

type fakeRealtime struct {
	events []*domain.RealtimeEvent
}

func (f *fakeRealtime) Subscribe(userID string) <-chan *domain.RealtimeEvent { return nil }
func (f *fakeRealtime) Unsubscribe(userID string, ch <-chan *domain.RealtimeEvent) {}
func (f *fakeRealtime) Push(ctx context.Context, userID string, event *domain.RealtimeEvent) error {
	f.events = append(f.events, event)
	return nil
}
func (f *fakeRealtime) ConnectedCount() int { return 0 }

type fakeCalendar struct {
	created    int
	updated    int
	failCreate bool
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, token *oauth2.Token, event *out.CalendarEvent) (string, error) {
	if f.failCreate {
		return "", errors.New("calendar unavailable")
	}
	f.created++
	return "event-1", nil
}

func (f *fakeCalendar) UpdateEvent(ctx context.Context, token *oauth2.Token, eventID string, event *out.CalendarEvent) error {
	if f.failCreate {
		return errors.New("calendar unavailable")
	}
	f.updated++
	return nil
}

func (f *fakeCalendar) DeleteEvent(ctx context.Context, token *oauth2.Token, eventID string) error {
	return nil
}

type ingestFixture struct {
	oauth      *fakeOAuth
	mail       *fakeMail
	classifier *fakeClassifier
	appRepo    *fakeAppRepo
	logRepo    *fakeLogRepo
	locker     *fakeLocker
	realtime   *fakeRealtime
	calendar   *fakeCalendar
	svc        in.IngestService
}

func newIngestFixture() *ingestFixture {
	f := &ingestFixture{
		oauth:      &fakeOAuth{token: &oauth2.Token{AccessToken: "tok"}},
		mail:       &fakeMail{messages: make(map[string]*out.MailMessage)},
		classifier: &fakeClassifier{verdicts: make(map[string]*domain.Verdict), errs: make(map[string]error)},
		appRepo:    &fakeAppRepo{},
		logRepo:    newFakeLogRepo(),
		locker:     &fakeLocker{allow: true},
		realtime:   &fakeRealtime{},
		calendar:   &fakeCalendar{},
	}
	f.svc = NewService(
		f.oauth,
		f.mail,
		f.classifier,
		f.appRepo,
		f.logRepo,
		NewCalendarSyncer(f.calendar, "UTC"),
		f.locker,
		f.realtime,
		Options{},
	)
	return f
}

func (f *ingestFixture) addMessage(id, subject, from string, v *domain.Verdict) {
	f.mail.ids = append(f.mail.ids, id)
	f.mail.messages[id] = &out.MailMessage{
		ID:         id,
		Subject:    subject,
		From:       from,
		Body:       "body",
		ReceivedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	if v != nil {
		f.classifier.verdicts[subject] = v
	}
}

func TestSyncEmailsLockConflict(t *testing.T) {
	f := newIngestFixture()
	f.locker.allow = false

	_, err := f.svc.SyncEmails(context.Background(), uuid.New())
	if !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}
}

func TestSyncEmailsCreatesApplication(t *testing.T) {
	f := newIngestFixture()
	date := time.Date(2025, 6, 5, 14, 0, 0, 0, time.UTC)
	f.addMessage("m1", "Interview with Acme", "recruiting@acme.com", &domain.Verdict{
		IsJobEmail:    true,
		Company:       "Acme",
		Role:          "Backend Engineer",
		Status:        domain.ClassifierInterview,
		Confidence:    0.92,
		InterviewDate: &date,
		Summary:       "Interview scheduled",
	})

	report, err := f.svc.SyncEmails(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("SyncEmails: %v", err)
	}

	if report.Scanned != 1 || report.Created != 1 {
		t.Errorf("report = %+v, want 1 scanned 1 created", report)
	}
	if report.CalendarEvents != 1 {
		t.Errorf("calendar events = %d, want 1", report.CalendarEvents)
	}
	if len(f.appRepo.apps) != 1 {
		t.Fatalf("expected 1 application, got %d", len(f.appRepo.apps))
	}
	app := f.appRepo.apps[0]
	if app.Status != domain.StatusInterviewing {
		t.Errorf("status = %s, want interviewing", app.Status)
	}
	if app.CalendarEventID == nil || *app.CalendarEventID != "event-1" {
		t.Error("expected calendar event id stored on application")
	}
	if row := f.logRepo.rows["m1"]; row == nil || !row.Processed {
		t.Error("expected email log marked processed")
	}
	if f.locker.released != 1 {
		t.Errorf("lock released %d times, want 1", f.locker.released)
	}

	// Last pushed event is the run summary.
	if len(f.realtime.events) == 0 {
		t.Fatal("expected realtime events")
	}
	last := f.realtime.events[len(f.realtime.events)-1]
	if last.Type != domain.EventSyncCompleted {
		t.Errorf("last event = %s, want sync completed", last.Type)
	}
}

func TestSyncEmailsSkipsProcessedMessages(t *testing.T) {
	f := newIngestFixture()
	f.addMessage("m1", "Interview with Acme", "recruiting@acme.com", nil)
	f.logRepo.rows["m1"] = &domain.EmailLog{GmailID: "m1", Processed: true}

	report, err := f.svc.SyncEmails(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("SyncEmails: %v", err)
	}
	if report.AlreadySeen != 1 {
		t.Errorf("already seen = %d, want 1", report.AlreadySeen)
	}
	if f.classifier.calls != 0 {
		t.Errorf("classifier called %d times for a processed message", f.classifier.calls)
	}
}

func TestSyncEmailsConfidenceGate(t *testing.T) {
	f := newIngestFixture()
	f.addMessage("m1", "Maybe a job", "hr@acme.com", &domain.Verdict{
		IsJobEmail: true,
		Company:    "Acme",
		Status:     domain.ClassifierApplied,
		Confidence: 0.65,
	})

	report, err := f.svc.SyncEmails(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("SyncEmails: %v", err)
	}
	if report.LowConfidence != 1 {
		t.Errorf("low confidence = %d, want 1", report.LowConfidence)
	}
	if report.Created != 0 || len(f.appRepo.apps) != 0 {
		t.Error("low confidence verdict must not create an application")
	}
	if row := f.logRepo.rows["m1"]; row == nil || !row.Processed {
		t.Error("gated message must still be marked processed")
	}
}

func TestSyncEmailsNotJobRelated(t *testing.T) {
	f := newIngestFixture()
	f.addMessage("m1", "Team lunch friday", "friend@gmail.com", nil)

	report, err := f.svc.SyncEmails(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("SyncEmails: %v", err)
	}
	if report.NotJobRelated != 1 {
		t.Errorf("not job related = %d, want 1", report.NotJobRelated)
	}
	if row := f.logRepo.rows["m1"]; row == nil || !row.Processed {
		t.Error("non-job message must be marked processed so it is never refetched")
	}
}

func TestSyncEmailsClassifierErrorLeavesRowUnprocessed(t *testing.T) {
	f := newIngestFixture()
	f.addMessage("m1", "Interview with Acme", "recruiting@acme.com", nil)
	f.classifier.errs["Interview with Acme"] = errors.New("model timeout")

	report, err := f.svc.SyncEmails(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("run must survive per-message failures, got %v", err)
	}
	if report.Failures != 1 {
		t.Errorf("failures = %d, want 1", report.Failures)
	}
	row := f.logRepo.rows["m1"]
	if row == nil {
		t.Fatal("expected log row created before classification")
	}
	if row.Processed {
		t.Error("failed message must stay unprocessed for retry on the next run")
	}
}

func TestSyncEmailsMatchesWithinRun(t *testing.T) {
	f := newIngestFixture()
	f.addMessage("m1", "Application received", "careers@acme.com", &domain.Verdict{
		IsJobEmail: true,
		Company:    "Acme Inc.",
		Role:       "Backend Engineer",
		Status:     domain.ClassifierApplied,
		Confidence: 0.9,
	})
	f.addMessage("m2", "Interview invitation", "careers@acme.com", &domain.Verdict{
		IsJobEmail: true,
		Company:    "Acme",
		Role:       "Backend Engineer",
		Status:     domain.ClassifierInterview,
		Confidence: 0.9,
	})

	report, err := f.svc.SyncEmails(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("SyncEmails: %v", err)
	}
	if report.Created != 1 || report.Updated != 1 {
		t.Errorf("created=%d updated=%d, want 1 and 1", report.Created, report.Updated)
	}
	if len(f.appRepo.apps) != 1 {
		t.Fatalf("expected a single application row, got %d", len(f.appRepo.apps))
	}
	if f.appRepo.apps[0].Status != domain.StatusInterviewing {
		t.Errorf("status = %s, want interviewing", f.appRepo.apps[0].Status)
	}
}

func TestSyncEmailsRejectionWithDateSchedulesNothing(t *testing.T) {
	f := newIngestFixture()
	date := time.Date(2025, 6, 5, 14, 0, 0, 0, time.UTC)
	f.addMessage("m1", "Update on your Acme application", "careers@acme.com", &domain.Verdict{
		IsJobEmail:    true,
		Company:       "Acme",
		Role:          "Backend Engineer",
		Status:        domain.ClassifierRejected,
		Confidence:    0.9,
		InterviewDate: &date,
	})

	report, err := f.svc.SyncEmails(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("SyncEmails: %v", err)
	}
	if report.Created != 1 {
		t.Errorf("created = %d, want 1", report.Created)
	}
	if report.CalendarEvents != 0 || f.calendar.created != 0 {
		t.Errorf("calendar events created = %d for a rejected-status verdict, want 0", f.calendar.created)
	}
}

func TestSyncEmailsDoesNotRescheduleTrackedEvent(t *testing.T) {
	f := newIngestFixture()
	userID := uuid.New()
	eventID := "event-0"
	held := time.Date(2025, 6, 3, 11, 0, 0, 0, time.UTC)
	f.appRepo.apps = append(f.appRepo.apps, &domain.Application{
		ID:              uuid.New(),
		UserID:          userID,
		Company:         "Acme",
		Role:            "Backend Engineer",
		Status:          domain.StatusInterviewing,
		InterviewAt:     &held,
		CalendarEventID: &eventID,
	})

	moved := held.Add(48 * time.Hour)
	f.addMessage("m1", "Interview rescheduled", "careers@acme.com", &domain.Verdict{
		IsJobEmail:    true,
		Company:       "Acme",
		Status:        domain.ClassifierInterview,
		Confidence:    0.9,
		InterviewDate: &moved,
	})

	report, err := f.svc.SyncEmails(context.Background(), userID)
	if err != nil {
		t.Fatalf("SyncEmails: %v", err)
	}
	if report.Updated != 1 {
		t.Errorf("updated = %d, want 1", report.Updated)
	}
	if f.calendar.created != 0 || f.calendar.updated != 0 {
		t.Errorf("calendar touched (created=%d updated=%d), rescheduling belongs to user edits",
			f.calendar.created, f.calendar.updated)
	}
	if *f.appRepo.apps[0].CalendarEventID != "event-0" {
		t.Error("tracked event id must not change during ingestion")
	}
}

func TestSyncEmailsCalendarFailureDoesNotFailRun(t *testing.T) {
	f := newIngestFixture()
	f.calendar.failCreate = true
	date := time.Date(2025, 6, 5, 14, 0, 0, 0, time.UTC)
	f.addMessage("m1", "Interview with Acme", "recruiting@acme.com", &domain.Verdict{
		IsJobEmail:    true,
		Company:       "Acme",
		Role:          "Backend Engineer",
		Status:        domain.ClassifierInterview,
		Confidence:    0.9,
		InterviewDate: &date,
	})

	report, err := f.svc.SyncEmails(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("SyncEmails: %v", err)
	}
	if report.Created != 1 {
		t.Errorf("created = %d, want 1 despite calendar outage", report.Created)
	}
	if report.CalendarEvents != 0 {
		t.Errorf("calendar events = %d, want 0", report.CalendarEvents)
	}
}
