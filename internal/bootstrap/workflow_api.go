package bootstrap

import (
	"context"
	"io"
	"strings"
	"time"

	"workflow_server/adapter/in/http"
	"workflow_server/config"
	"workflow_server/infra/middleware"
	"workflow_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const maxBodyBytes = 1 * 1024 * 1024

// InitLogger configures the process-wide logger from cfg. Logs go to out, which
// must not be the stream carrying command output.
func InitLogger(cfg *config.Config, out io.Writer) {
	logger.Init(logger.Config{
		Level:   logger.ParseLevel(cfg.LogLevel),
		Output:  out,
		Service: "workflow-api",
	})
}

// NewAPI wires dependencies and returns a ready-to-listen fiber app.
// The returned cleanup stops background work started for the app.
func NewAPI(ctx context.Context, cfg *config.Config) (*fiber.App, func(), error) {
	deps, cleanupDeps, err := NewDependencies(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	appCtx, cancel := context.WithCancel(ctx)
	app := NewApp(appCtx, deps)

	cleanup := func() {
		cancel()
		cleanupDeps()
	}
	return app, cleanup, nil
}

// NewApp builds the HTTP surface over already-wired dependencies.
func NewApp(ctx context.Context, deps *Dependencies) *fiber.App {
	cfg := deps.Config

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		AppName:               "workflow-server",

		// go-json for request and response bodies
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit:    maxBodyBytes,
		ReadTimeout:  cfg.StageTimeout*2 + 5*time.Second,
		WriteTimeout: cfg.StageTimeout*2 + 5*time.Second,

		ServerHeader:       "",
		DisableDefaultDate: true,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())         // 1. Panic recovery
	app.Use(middleware.RequestID())       // 2. Request ID
	app.Use(middleware.SecurityHeaders()) // 3. Security headers
	app.Use(middleware.RequestLogger())   // 4. Request logging

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	if allowOrigins == "" {
		allowOrigins = "http://localhost:3000,http://localhost:5000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  allowOrigins,
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,X-Request-ID",
		ExposeHeaders: "X-Request-ID,X-RateLimit-Limit,X-RateLimit-Remaining,X-RateLimit-Reset",
		MaxAge:        86400,
	}))

	breakers := make([]http.BreakerState, 0, len(deps.Breakers))
	for _, b := range deps.Breakers {
		breakers = append(breakers, b)
	}
	healthHandler := http.NewHealthHandler(deps.Pipeline, deps.Latency, deps.Outcomes, breakers...)
	healthHandler.Register(app)

	limit := middleware.NewRateLimiter(ctx, cfg.RateLimitPerMin, time.Minute).Handler()

	api := app.Group("/api/v1")
	processHandler := http.NewProcessHandler(deps.Pipeline)
	processHandler.Register(app, api, middleware.BodyLimit(maxBodyBytes), limit)

	return app
}
