package bootstrap

import (
	"os"
	"time"

	"applyops_server/adapter/out/lock"
	"applyops_server/adapter/out/persistence"
	"applyops_server/adapter/out/provider"
	"applyops_server/adapter/out/provider/gmail"
	"applyops_server/adapter/out/realtime"
	"applyops_server/config"
	"applyops_server/core/agent/llm"
	"applyops_server/core/port/in"
	"applyops_server/core/port/out"
	"applyops_server/core/service/ai"
	"applyops_server/core/service/analytics"
	"applyops_server/core/service/application"
	"applyops_server/core/service/auth"
	"applyops_server/core/service/ingest"
	"applyops_server/infra/database"
	"applyops_server/pkg/crypto"
	"applyops_server/pkg/logger"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type Dependencies struct {
	Config *config.Config
	DB     *sqlx.DB
	Redis  *redis.Client

	// Repositories
	UserRepo     out.UserRepository
	AppRepo      out.ApplicationRepository
	EmailLogRepo out.EmailLogRepository
	OAuthRepo    out.OAuthRepository

	// Providers
	MailProvider     out.MailProvider
	CalendarProvider out.CalendarProvider

	// Realtime
	RealtimeAdapter *realtime.SSEAdapter

	// Locking
	Locker out.RunLocker

	// Agent
	LLMClient  *llm.Client
	Classifier *llm.Classifier

	// Services
	AuthService        in.AuthService
	OAuthService       in.OAuthService
	ApplicationService in.ApplicationService
	IngestService      in.IngestService
	AnalyticsService   in.AnalyticsService
	AIService          in.AIService
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	// Token encryption at rest. Falls back to plaintext storage when no
	// key material is configured.
	if err := crypto.Init(); err != nil {
		logger.Warn("Token encryption disabled: %v", err)
	}

	// Database
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })

	// Redis (optional; in-memory fallbacks cover single-instance runs)
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis connection failed: %v", err)
		} else {
			deps.Redis = redisClient
			cleanups = append(cleanups, func() { redisClient.Close() })
		}
	}

	if deps.Redis != nil {
		deps.Locker = lock.NewRedisLocker(deps.Redis)
	} else {
		deps.Locker = lock.NewMemoryLocker()
	}

	// Repositories
	deps.UserRepo = persistence.NewUserAdapter(db)
	deps.AppRepo = persistence.NewApplicationAdapter(db)
	deps.EmailLogRepo = persistence.NewEmailLogAdapter(db)
	deps.OAuthRepo = persistence.NewOAuthAdapter(db)

	// Google API providers share one oauth2 client config
	googleConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Endpoint:     google.Endpoint,
	}
	deps.MailProvider = gmail.NewAdapter(googleConfig)
	deps.CalendarProvider = provider.NewGoogleCalendarAdapter(googleConfig)

	// Realtime
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	deps.RealtimeAdapter = realtime.NewSSEAdapter(zlog)

	// LLM
	deps.LLMClient = llm.NewClient(llm.ClientConfig{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.LLMModel,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
		Timeout:     time.Duration(cfg.LLMTimeoutSec) * time.Second,
	})
	deps.Classifier = llm.NewClassifier(deps.LLMClient, deps.LLMClient)

	jwtExpiry := time.Duration(cfg.JWTExpiryDay) * 24 * time.Hour

	// Services
	deps.AuthService = auth.NewService(
		deps.UserRepo,
		deps.AppRepo,
		deps.EmailLogRepo,
		cfg.JWTSecret,
		jwtExpiry,
	)
	deps.OAuthService = auth.NewOAuthService(
		deps.OAuthRepo,
		deps.UserRepo,
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.JWTSecret,
		jwtExpiry,
	)

	calendarSyncer := ingest.NewCalendarSyncer(deps.CalendarProvider, cfg.CalendarTimeZone)

	deps.IngestService = ingest.NewService(
		deps.OAuthService,
		deps.MailProvider,
		deps.Classifier,
		deps.AppRepo,
		deps.EmailLogRepo,
		calendarSyncer,
		deps.Locker,
		deps.RealtimeAdapter,
		ingest.Options{
			MaxMessages:    int64(cfg.IngestMaxMessages),
			LookbackMonths: cfg.IngestLookbackMonth,
			Pacing:         cfg.IngestPacing,
			MinConfidence:  cfg.IngestMinConfidence,
			LockTTL:        cfg.IngestLockTTL,
		},
	)

	deps.ApplicationService = application.NewService(
		deps.AppRepo,
		deps.OAuthService,
		calendarSyncer,
		deps.RealtimeAdapter,
	)
	deps.AnalyticsService = analytics.NewService(deps.AppRepo)
	deps.AIService = ai.NewService(deps.LLMClient, deps.LLMClient)

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	return deps, cleanup, nil
}
