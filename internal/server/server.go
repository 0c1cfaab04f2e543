package server

import (
	"notehub-engine/internal/bootstrap"
	"notehub-engine/internal/config"
	"notehub-engine/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             10 * 1024 * 1024, // 10MB
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.App.CorsAllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Type",
	}))

	// Traces every request; a no-op unless a tracer provider was installed.
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	registerRoutes(app, cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("Server", "Bridge API listening", map[string]interface{}{"port": s.cfg.App.Port})
	return s.app.Listen("127.0.0.1:" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	auth := serverutils.JwtMiddleware(cfg.App.BridgeJWTSecret)
	api := app.Group("/api")

	api.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse("ok", fiber.Map{
			"maintenance": cfg.Engine.MaintenanceMode,
		}))
	})

	c.DocumentController.RegisterRoutes(api, auth)
	c.SearchController.RegisterRoutes(api, auth)
	c.ViewController.RegisterRoutes(api, auth)
	c.ReferenceController.RegisterRoutes(api, auth)
	c.ChatController.RegisterRoutes(api, auth)
	c.TagController.RegisterRoutes(api, auth)

	c.EventHandler.RegisterRoutes(api, auth)
}
