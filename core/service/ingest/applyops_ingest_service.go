package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"applyops_server/adapter/out/persistence"
	"applyops_server/core/agent/llm"
	"applyops_server/core/domain"
	"applyops_server/core/port/in"
	"applyops_server/core/port/out"
	"applyops_server/pkg/apperr"
	"applyops_server/pkg/logger"
)

// ErrSyncInProgress is returned when a run is already holding the
// user's ingestion lock.
var ErrSyncInProgress = apperr.Conflict("email sync already running")

// EmailClassifier is what the orchestrator needs from the LLM layer.
type EmailClassifier interface {
	Classify(ctx context.Context, email *llm.EmailForClassification) (*domain.Verdict, error)
}

// Options tune one ingestion run.
type Options struct {
	MaxMessages    int64
	LookbackMonths int
	Pacing         time.Duration
	MinConfidence  float64
	LockTTL        time.Duration
}

// Service implements in.IngestService: the idempotent pipeline that
// turns mailbox messages into application state.
type Service struct {
	oauth      in.OAuthService
	mail       out.MailProvider
	classifier EmailClassifier
	appRepo    out.ApplicationRepository
	logRepo    out.EmailLogRepository
	matcher    *Matcher
	reconciler *Reconciler
	calendar   *CalendarSyncer
	locker     out.RunLocker
	realtime   out.RealtimePort
	opts       Options
	log        *logger.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewService(
	oauth in.OAuthService,
	mail out.MailProvider,
	classifier EmailClassifier,
	appRepo out.ApplicationRepository,
	logRepo out.EmailLogRepository,
	calendar *CalendarSyncer,
	locker out.RunLocker,
	realtime out.RealtimePort,
	opts Options,
) in.IngestService {
	if opts.MaxMessages == 0 {
		opts.MaxMessages = 20
	}
	if opts.LookbackMonths == 0 {
		opts.LookbackMonths = 3
	}
	if opts.MinConfidence == 0 {
		opts.MinConfidence = 0.7
	}
	if opts.LockTTL == 0 {
		opts.LockTTL = 5 * time.Minute
	}
	return &Service{
		oauth:      oauth,
		mail:       mail,
		classifier: classifier,
		appRepo:    appRepo,
		logRepo:    logRepo,
		matcher:    NewMatcher(),
		reconciler: NewReconciler(),
		calendar:   calendar,
		locker:     locker,
		realtime:   realtime,
		opts:       opts,
		log:        logger.Default().WithField("component", "ingest"),
		sleep:      sleepCtx,
	}
}

// mailboxQuery matches the signals a job pipeline email carries. Spam
// and trash are excluded; the date floor keeps runs bounded.
const mailboxQueryKeywords = `("thank you for applying" OR "we received your application" OR interview OR offer OR unfortunately OR "moving forward" OR assessment)`

func (s *Service) buildQuery(now time.Time) string {
	after := now.AddDate(0, -s.opts.LookbackMonths, 0).Format("2006/01/02")
	return fmt.Sprintf("%s -label:SPAM -label:TRASH after:%s", mailboxQueryKeywords, after)
}

func gmailURL(id string) string {
	return "https://mail.google.com/mail/u/0/#inbox/" + id
}

// SyncEmails runs one ingestion pass for the user. The per-user lock
// makes concurrent triggers fail fast instead of double-classifying.
func (s *Service) SyncEmails(ctx context.Context, userID uuid.UUID) (*in.SyncReport, error) {
	lockKey := "ingest:" + userID.String()
	ok, err := s.locker.Acquire(ctx, lockKey, s.opts.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire ingest lock: %w", err)
	}
	if !ok {
		return nil, ErrSyncInProgress
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			s.log.WithError(err).Warn("failed to release ingest lock")
		}
	}()

	report := &in.SyncReport{StartedAt: time.Now()}
	ulog := s.log.WithField("user_id", userID.String())

	token, err := s.oauth.GetOAuth2Token(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids, err := s.mail.ListMessageIDs(ctx, token, &out.MailQuery{
		Query:      s.buildQuery(report.StartedAt),
		MaxResults: s.opts.MaxMessages,
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	report.Scanned = len(ids)

	// Loaded once; rows created during this run are appended so later
	// messages in the same batch match them.
	apps, err := s.appRepo.ListAllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	classified := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := s.processMessage(ctx, userID, token, id, &apps, &classified, report); err != nil {
			report.Failures++
			ulog.WithField("gmail_id", id).WithError(err).Warn("message ingestion failed")
		}
	}

	report.FinishedAt = time.Now()
	ulog.WithFields(map[string]any{
		"scanned": report.Scanned,
		"created": report.Created,
		"updated": report.Updated,
	}).Info("ingestion run finished")

	if s.realtime != nil {
		_ = s.realtime.Push(ctx, userID.String(), &domain.RealtimeEvent{
			Type:      domain.EventSyncCompleted,
			Payload:   report,
			Timestamp: time.Now(),
		})
	}
	return report, nil
}

// processMessage handles one message end to end. An error return leaves
// the log row unprocessed so the message is retried on the next run.
func (s *Service) processMessage(
	ctx context.Context,
	userID uuid.UUID,
	token *oauth2.Token,
	gmailID string,
	apps *[]*domain.Application,
	classified *int,
	report *in.SyncReport,
) error {
	logRow, err := s.logRepo.GetByGmailID(ctx, userID, gmailID)
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return fmt.Errorf("lookup email log: %w", err)
	}
	if logRow != nil && logRow.Processed {
		report.AlreadySeen++
		return nil
	}

	msg, err := s.mail.GetMessage(ctx, token, gmailID)
	if err != nil {
		return fmt.Errorf("fetch message: %w", err)
	}

	if logRow == nil {
		logRow = &domain.EmailLog{
			UserID:     userID,
			GmailID:    gmailID,
			Subject:    msg.Subject,
			Sender:     msg.From,
			ReceivedAt: msg.ReceivedAt,
		}
		if err := s.logRepo.Create(ctx, logRow); err != nil {
			return fmt.Errorf("create email log: %w", err)
		}
	}

	// Pace classifier calls so a batch of twenty messages does not trip
	// provider rate limits.
	if *classified > 0 && s.opts.Pacing > 0 {
		if err := s.sleep(ctx, s.opts.Pacing); err != nil {
			return err
		}
	}
	*classified++

	verdict, err := s.classifier.Classify(ctx, &llm.EmailForClassification{
		Subject:    msg.Subject,
		From:       msg.From,
		Snippet:    msg.Snippet,
		Body:       msg.Body,
		ReceivedAt: msg.ReceivedAt,
	})
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	if verdict == nil {
		report.NotJobRelated++
		return s.markProcessed(ctx, userID, gmailID, &domain.Verdict{IsJobEmail: false})
	}
	if verdict.Confidence < s.opts.MinConfidence {
		report.LowConfidence++
		return s.markProcessed(ctx, userID, gmailID, verdict)
	}

	existing := s.matcher.Match(*apps, verdict.Company)
	outcome := s.reconciler.Reconcile(existing, verdict, &EmailRef{
		GmailID:    gmailID,
		URL:        gmailURL(gmailID),
		ReceivedAt: msg.ReceivedAt,
	})

	switch outcome.Kind {
	case OutcomeCreate:
		app := outcome.App
		app.ID = uuid.New()
		app.UserID = userID
		if s.calendar.Sync(ctx, token, app) {
			report.CalendarEvents++
		}
		if err := s.appRepo.Create(ctx, app); err != nil {
			return fmt.Errorf("create application: %w", err)
		}
		*apps = append(*apps, app)
		report.Created++
		s.pushEvent(ctx, userID, domain.EventApplicationCreated, app)

	case OutcomeUpdate:
		app := outcome.App
		// Ingestion only schedules, never reschedules: rewriting an
		// already-tracked event is reserved for explicit user edits.
		hasEvent := app.CalendarEventID != nil && *app.CalendarEventID != ""
		if outcome.DateChanged && !hasEvent && s.calendar.Sync(ctx, token, app) {
			report.CalendarEvents++
		}
		if err := s.appRepo.Update(ctx, app); err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		report.Updated++
		s.pushEvent(ctx, userID, domain.EventApplicationUpdated, app)

	case OutcomeUnchanged:
		report.Unchanged++
	}

	return s.markProcessed(ctx, userID, gmailID, verdict)
}

func (s *Service) markProcessed(ctx context.Context, userID uuid.UUID, gmailID string, v *domain.Verdict) error {
	parsed, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal verdict: %w", err)
	}
	if err := s.logRepo.MarkProcessed(ctx, userID, gmailID, parsed); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

func (s *Service) pushEvent(ctx context.Context, userID uuid.UUID, kind domain.RealtimeEventType, app *domain.Application) {
	if s.realtime == nil {
		return
	}
	_ = s.realtime.Push(ctx, userID.String(), &domain.RealtimeEvent{
		Type:      kind,
		Payload:   app,
		Timestamp: time.Now(),
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
