package bootstrap

import (
	"os"
	"strings"

	"applyops_server/adapter/in/http"
	"applyops_server/config"
	"applyops_server/infra/middleware"
	"applyops_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog"
)

func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logLevel := logger.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = logger.LevelDebug
	}
	logger.Init(logger.Config{
		Level:   logLevel,
		Service: "applyops-api",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		ReadBufferSize:        16384,
		WriteBufferSize:       16384,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             10 * 1024 * 1024,
		StreamRequestBody:     true,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// CORS. AllowCredentials requires explicit origins, never "*".
	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := true
	if allowOrigins == "" || allowOrigins == "*" {
		if cfg.IsProduction() {
			allowOrigins = ""
			allowCredentials = false
		} else {
			allowOrigins = "http://localhost:3000,http://localhost:5173"
		}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))

	// Health check (no auth required)
	healthHandler := http.NewHealthHandler(deps.DB, deps.Redis)
	healthHandler.Register(app)

	// Public auth routes: register, login and the Google OAuth dance
	authHandler := http.NewAuthHandler(deps.AuthService, deps.OAuthService, cfg.FrontendURL)
	public := app.Group("/api/v1")
	authHandler.RegisterPublic(public)

	// API routes behind JWT auth
	api := app.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTSecret))

	authHandler.RegisterProtected(api)

	appHandler := http.NewApplicationHandler(deps.ApplicationService, deps.IngestService)
	appHandler.Register(api)

	analyticsHandler := http.NewAnalyticsHandler(deps.AnalyticsService)
	analyticsHandler.Register(api)

	aiHandler := http.NewAIHandler(deps.AIService)
	aiHandler.Register(api)

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	sseHandler := http.NewSSEHandler(deps.RealtimeAdapter, zlog)
	sseHandler.Register(api)

	return app, cleanup, nil
}
