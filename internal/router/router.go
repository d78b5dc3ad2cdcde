package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/soltixdb/sst/internal/config"
	"github.com/soltixdb/sst/internal/handlers"
	"github.com/soltixdb/sst/internal/logging"
	"github.com/soltixdb/sst/internal/middleware"
	"github.com/soltixdb/sst/internal/services"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, service *services.ScoreService, cfg config.Config) *handlers.Handler {
	h := handlers.New(logger, service)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger, logging.DefaultMiddlewareConfig()))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	authMiddleware := middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled)
	v1 := app.Group("/v1", authMiddleware)

	// Scoring
	v1.Post("/score", h.Score)
	v1.Get("/detectors", h.ListDetectors)

	// Async jobs and archived results
	v1.Post("/jobs", h.SubmitJob)
	v1.Get("/results", h.ListResults)
	v1.Get("/results/:id", h.GetResult)
	v1.Delete("/results/:id", h.DeleteResult)

	// Profiles
	v1.Get("/profiles", h.ListProfiles)
	v1.Get("/profiles/:name", h.GetProfile)
	v1.Put("/profiles/:name", h.PutProfile)
	v1.Delete("/profiles/:name", h.DeleteProfile)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, service *services.ScoreService, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "SST Scorer",
		DisableStartupMessage: true,
		BodyLimit:             cfg.Server.BodyLimit,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, service, cfg)

	return app
}
